package round

import "math"

// Bits returns the total-order encoding of x. Read as a two's-complement
// integer, the encoding orders like the floats it encodes; adding one moves to
// the next representable value. Negative values keep the sign bit and have
// the bits below it complemented, so -0 encodes as all ones and +0 as zero.
func Bits(x float64) uint64 {
	bits := math.Float64bits(x)
	mask := uint64(int64(bits) >> 63)
	return bits ^ (mask >> 1)
}

// FromBits inverts Bits.
func FromBits(bits uint64) float64 {
	mask := uint64(int64(bits) >> 63)
	return math.Float64frombits(bits ^ (mask >> 1))
}

var (
	posInfBits = Bits(math.Inf(1))
	negInfBits = Bits(math.Inf(-1))
)

// NextK returns the value k representable steps above x.
// NaN is returned unchanged and the result saturates at +Inf.
func NextK(x float64, k uint64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 1) {
		return x
	}
	b := Bits(x)
	// Distance to +Inf in the encoding; wrapping subtraction is exact here.
	if posInfBits-b <= k {
		return math.Inf(1)
	}
	return FromBits(b + k)
}

// PrevK returns the value k representable steps below x.
// NaN is returned unchanged and the result saturates at -Inf.
func PrevK(x float64, k uint64) float64 {
	if math.IsNaN(x) || math.IsInf(x, -1) {
		return x
	}
	b := Bits(x)
	if b-negInfBits <= k {
		return math.Inf(-1)
	}
	return FromBits(b - k)
}

// Next returns the smallest representable value above x.
func Next(x float64) float64 { return NextK(x, 1) }

// Prev returns the largest representable value below x.
func Prev(x float64) float64 { return PrevK(x, 1) }
