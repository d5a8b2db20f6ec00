package martingale

import (
	"errors"
	"fmt"
	"math"
)

// LE is the logEps adjustment for a one-sided (less-or-equal) test.
const LE = 0.0

// EQ is the logEps adjustment that turns a one-sided threshold into the
// half-width of a two-sided one: -ln 2, rounded away from zero.
const EQ = -0.6931471805599454

// -1/2 ln ln 2, rounded up.
const minusHalfLogLog2Up = 0.1832564602908322

// ErrConstants is returned by VerifyConstants when a compiled-in constant does
// not have its expected bit pattern.
var ErrConstants = errors.New("martingale: miscompiled constants")

type constantCheck struct {
	name string
	bits uint64
	want uint64
}

func constantChecks() []constantCheck {
	// Raw IEEE bits, not the total-order encoding.
	return []constantCheck{
		{"LE", math.Float64bits(LE), 0},
		{"EQ", math.Float64bits(EQ), 0xbfe62e42fefa39f0},
		{"minusHalfLogLog2Up", math.Float64bits(minusHalfLogLog2Up), 0x3fc774f29bdd6ba0},
	}
}

// CheckConstants returns 0 when every compiled-in constant has its expected
// bit pattern. Otherwise bit i of the result is set for each mismatched
// constant, in order: LE, EQ, then one internal constant.
func CheckConstants() int {
	return checkMask(constantChecks())
}

func checkMask(checks []constantCheck) int {
	ret := 0
	for i, c := range checks {
		if c.bits != c.want {
			ret |= 1 << i
		}
	}
	return ret
}

// VerifyConstants is CheckConstants as an error wrapping ErrConstants.
func VerifyConstants() error {
	checks := constantChecks()
	mask := checkMask(checks)
	if mask == 0 {
		return nil
	}
	var names []string
	for i, c := range checks {
		if mask&(1<<i) != 0 {
			names = append(names, c.name)
		}
	}
	return fmt.Errorf("%w: mask %#x %v", ErrConstants, mask, names)
}
