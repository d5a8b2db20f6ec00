package martingale

import (
	"math"

	"github.com/obsidianstack/csbounds/internal/round"
)

func checkQuantile(quantile float64) {
	if !(quantile >= 0 && quantile <= 1) {
		panic("martingale: quantile is a fraction in [0, 1]; was a percentile passed in without dividing by 100?")
	}
}

// QuantileSlop returns the rank tolerance for quantile after n observations:
// with probability 1 - exp(logEps), for every n >= minCount at once, the true
// quantile lies between the values at ranks floor(quantile*n - slop) and
// ceil(quantile*n + slop) of the sorted observations. Either rank may fall
// outside [0, n), meaning there are too few observations for that side.
//
// The slop is 1 + max(quantile, 1-quantile) * Threshold(n, minCount,
// logEps+EQ). The observations need not be sorted or kept while streaming.
//
// QuantileSlop panics unless 0 <= quantile <= 1.
func QuantileSlop(quantile float64, n, minCount uint64, logEps float64) float64 {
	checkQuantile(quantile)

	if quantile <= 0 || quantile >= 1 {
		return 1
	}

	// Each observation contributes -q below the quantile and 1-q above it,
	// so a unit of rank costs at most max(q, 1-q) in the sum. Ties with the
	// quantile contribute 0: the three-way split widens the interval by
	// exactly one observation, hence the leading 1.
	//
	// w is a function of the pair {q, 1-q} so that q and 1-q give the same
	// slop: one step above the nearest max(q, 1-q) covers either rounding.
	w := 0.5
	if quantile != 0.5 {
		w = round.Next(math.Max(quantile, 1-quantile))
	}
	return round.AddUp(1, ThresholdSpan(n, minCount, 2*w, round.AddDown(logEps, EQ)))
}

// QuantileSlopHi returns the upper half of an asymmetric rank interval: with
// probability 1 - exp(logEps), the true quantile is never above rank
// quantile*n + slop. It equals QuantileSlop at 0.5 and is tighter elsewhere.
//
// QuantileSlopHi panics unless 0 <= quantile <= 1.
func QuantileSlopHi(quantile float64, n, minCount uint64, logEps float64) float64 {
	checkQuantile(quantile)

	if quantile <= 0 {
		return 1
	}
	if quantile >= 1 {
		return math.Inf(1)
	}

	// With quantile = 0.9, x < q costs -0.1 and x > q pays 0.9.
	lo := round.SubDown(quantile, 1)
	return round.AddUp(1, ThresholdRange(n, minCount, lo, quantile, round.AddDown(logEps, EQ)))
}

// QuantileSlopLo returns the lower half of an asymmetric rank interval as a
// non-positive offset: with probability 1 - exp(logEps), the true quantile is
// never below rank quantile*n + slop.
//
// QuantileSlopLo panics unless 0 <= quantile <= 1.
func QuantileSlopLo(quantile float64, n, minCount uint64, logEps float64) float64 {
	checkQuantile(quantile)

	if quantile <= 0 {
		return math.Inf(-1)
	}
	if quantile >= 1 {
		return -1
	}

	hi := round.SubUp(1, quantile)
	return round.SubDown(-1, ThresholdRange(n, minCount, -quantile, hi, round.AddDown(logEps, EQ)))
}

// QuantileRanks returns the rank window [lo, hi] that holds the true quantile
// with probability 1 - exp(logEps), built from QuantileSlopLo and
// QuantileSlopHi. Ranks below 0 or at least n mean that side cannot be
// bounded yet; infinite ranks mean the same.
func QuantileRanks(quantile float64, n, minCount uint64, logEps float64) (lo, hi float64) {
	lo = math.Floor(round.AddDown(round.MulDown(quantile, round.Uint64Down(n)), QuantileSlopLo(quantile, n, minCount, logEps)))
	hi = math.Ceil(round.AddUp(round.MulUp(quantile, round.Uint64Up(n)), QuantileSlopHi(quantile, n, minCount, logEps)))
	return lo, hi
}

// LogEps converts a false positive rate eps in (0, 1] into the logEps
// argument, rounded toward -Inf so the resulting bounds stay conservative.
//
// LogEps panics unless 0 < eps <= 1.
func LogEps(eps float64) float64 {
	if !(eps > 0 && eps <= 1) {
		panic("martingale: eps is a probability in (0, 1]")
	}
	if eps == 1 {
		return 0
	}
	return round.LogDown(eps)
}
