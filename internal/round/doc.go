// Package round provides directed-rounding float64 arithmetic.
//
// Every function returns a value that is guaranteed to lie on one side of the
// exact mathematical result: Up variants never underestimate it, Down variants
// never overestimate it.
//
// bits.go maps float64 values onto a two's-complement total order so that
// NextK/PrevK move by exact representable steps, including across zero and
// exponent boundaries.
//
// arith.go wraps +, -, *, / and the log/log2/sqrt library functions. Sums,
// products and quotients recover the sign of their rounding error exactly
// (TwoSum and FMA residuals) and step once in the conservative direction only
// when the nearest result landed on the unsafe side. Logarithms are assumed to
// be within LibmErrorLimit steps of the true value and are always moved by
// that much.
//
// Because the step is conditional, exact operations such as 1 - 0.25 or
// 2 * 3 come back unchanged, and every result is at least as tight as one
// that always moves a step.
//
// Uint64Up and Uint64Down convert counts beyond 2^53 in a chosen direction.
//
// Products are written through explicit float64 conversions: Go may otherwise
// fuse a multiply into a following add, and the error bookkeeping assumes each
// operation rounds on its own.
package round
