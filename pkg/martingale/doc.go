// Package martingale computes anytime-valid confidence sequences for sums of
// bounded, zero-mean random variables, following Darling and Robbins (1967),
// "Confidence sequences for mean, variance, and median".
//
// A caller keeps its own running sum S_n of per-observation contributions and,
// after every observation, compares it against Threshold(n, minCount, logEps).
// The probability that S_n ever exceeds the threshold, for any n >= minCount,
// is at most exp(logEps). A single fixed-horizon interval gives no such
// guarantee once it is checked repeatedly.
//
// Thresholds are one-sided by default. Add EQ to logEps for the half-width of
// a two-sided interval; LE is the identity adjustment.
//
// Every returned width is a true upper bound of the exact mathematical one:
// each arithmetic step is rounded in the conservative direction through
// internal/round, and library logarithms are widened by their error bound.
//
// ThresholdSpan and ThresholdRange rescale the [-1, 1] threshold to other
// ranges (Hoeffding's lemma). QuantileSlop, QuantileSlopHi and QuantileSlopLo
// turn a threshold into a rank tolerance around quantile*n for streaming
// quantile estimation.
//
// Callers should run CheckConstants (or VerifyConstants) once at start-up; a
// mismatch means the binary cannot be trusted to produce valid bounds.
//
// All functions are pure and safe for concurrent use. Contract violations
// (a positive logEps, a quantile outside [0, 1], a negative span) panic.
package martingale
