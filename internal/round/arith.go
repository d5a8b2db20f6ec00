package round

import "math"

// LibmErrorLimit is the number of representable steps by which math.Log and
// math.Log2 are assumed to miss the exact result at worst.
const LibmErrorLimit = 4

// residualFloor is the magnitude below which an FMA residual may itself
// underflow. Results that small are always stepped.
const residualFloor = 0x1p-968

// LogUp returns a value no smaller than the natural logarithm of x.
func LogUp(x float64) float64 {
	return NextK(math.Log(x), LibmErrorLimit)
}

// LogDown returns a value no larger than the natural logarithm of x.
func LogDown(x float64) float64 {
	return PrevK(math.Log(x), LibmErrorLimit)
}

// Log2Down returns a value no larger than the base-2 logarithm of x.
func Log2Down(x float64) float64 {
	return PrevK(math.Log2(x), LibmErrorLimit)
}

// SqrtUp returns a value no smaller than the square root of x.
// math.Sqrt is correctly rounded, so at most one step is needed.
func SqrtUp(x float64) float64 {
	s := math.Sqrt(x)
	if !isFinite(s) || s == 0 {
		return s
	}
	if x < residualFloor {
		return Next(s)
	}
	// x - s*s is exact for a correctly rounded root.
	if math.FMA(-s, s, x) > 0 {
		return Next(s)
	}
	return s
}

// AddUp returns a value no smaller than a + b.
func AddUp(a, b float64) float64 {
	s := a + b
	return stepUp(s, sumErr(a, b, s))
}

// AddDown returns a value no larger than a + b.
func AddDown(a, b float64) float64 {
	s := a + b
	return stepDown(s, sumErr(a, b, s))
}

// SubUp returns a value no smaller than a - b.
func SubUp(a, b float64) float64 { return AddUp(a, -b) }

// SubDown returns a value no larger than a - b.
func SubDown(a, b float64) float64 { return AddDown(a, -b) }

// MulUp returns a value no smaller than a * b.
func MulUp(a, b float64) float64 {
	// The conversion keeps p from being fused into a later add.
	p := float64(a * b)
	return stepUp(p, mulErr(a, b, p))
}

// MulDown returns a value no larger than a * b.
func MulDown(a, b float64) float64 {
	p := float64(a * b)
	return stepDown(p, mulErr(a, b, p))
}

// DivUp returns a value no smaller than a / b.
func DivUp(a, b float64) float64 {
	q := a / b
	return stepUp(q, quoErr(a, b, q))
}

// DivDown returns a value no larger than a / b.
func DivDown(a, b float64) float64 {
	q := a / b
	return stepDown(q, quoErr(a, b, q))
}

// two64 is 2^64, the smallest float64 above every uint64.
const two64 = 0x1p64

// Uint64Up returns the smallest float64 no smaller than n. Counts above 2^53
// are not all representable and float64(n) may land below them.
func Uint64Up(n uint64) float64 {
	x := float64(n)
	if x < two64 && uint64(x) < n {
		return Next(x)
	}
	return x
}

// Uint64Down returns the largest float64 no larger than n.
func Uint64Down(n uint64) float64 {
	x := float64(n)
	if x >= two64 || uint64(x) > n {
		return Prev(x)
	}
	return x
}

// stepUp moves r up when the exact result lies above it. A NaN err means the
// direction is unknown.
func stepUp(r, err float64) float64 {
	if err > 0 || math.IsNaN(err) {
		return Next(r)
	}
	return r
}

func stepDown(r, err float64) float64 {
	if err < 0 || math.IsNaN(err) {
		return Prev(r)
	}
	return r
}

// sumErr returns a value with the sign of (a + b) - s, where s is the rounded
// sum. Computed with Knuth's TwoSum, which is exact for finite operands.
func sumErr(a, b, s float64) float64 {
	if !isFinite(a) || !isFinite(b) {
		return 0
	}
	if !isFinite(s) {
		// Overflow of finite operands: the exact sum is finite.
		return -s
	}
	bb := s - a
	return (a - (s - bb)) + (b - bb)
}

// mulErr returns a value with the sign of a*b - p.
func mulErr(a, b, p float64) float64 {
	if !isFinite(a) || !isFinite(b) || a == 0 || b == 0 {
		return 0
	}
	if !isFinite(p) {
		return -p
	}
	if math.Abs(p) < residualFloor {
		return math.NaN()
	}
	return math.FMA(a, b, -p)
}

// quoErr returns a value with the sign of a/b - q.
func quoErr(a, b, q float64) float64 {
	if !isFinite(a) || !isFinite(b) || a == 0 || b == 0 {
		return 0
	}
	if !isFinite(q) {
		return -q
	}
	if math.Abs(q) < residualFloor || math.Abs(a) < residualFloor {
		return math.NaN()
	}
	// a = q*b + r exactly, so a/b - q = r/b.
	r := math.FMA(-q, b, a)
	if b < 0 {
		return -r
	}
	return r
}

func isFinite(x float64) bool {
	return !math.IsInf(x, 0) && !math.IsNaN(x)
}
