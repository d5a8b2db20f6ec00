package martingale

import (
	"math"

	"github.com/obsidianstack/csbounds/internal/round"
)

// MinCount is the smallest min_count the bounds accept; lower values are
// raised to it. Darling and Robbins' C and alpha are both 2.
const MinCount = 2

// logAUp over-approximates log(A), the main factor in how far the martingale
// may stray from 0. It grows linearly with -logEps and shrinks with
// log log minCount:
//
//	Q_m = 1 / (lg m - 1/2),  Q_m / A <= eps  <=>  log A >= log Q_m - log eps.
func logAUp(minCount uint64, logEps float64) float64 {
	// 1/Q_m is rounded down so that Q_m, and with it log A, rounds up.
	invQm := round.SubDown(round.Log2Down(round.Uint64Down(minCount)), 0.5)
	return round.SubUp(round.LogUp(round.DivUp(1, invQm)), logEps)
}

// Threshold returns the width of a 1 - exp(logEps) confidence sequence for
// the sum of n i.i.d. zero-mean values whose mgf is at most exp(t^2/2) for
// t >= 0, such as any zero-mean variable in [-1, 1].
//
// The sum stays below the returned width for every n >= minCount at once,
// with probability at least 1 - exp(logEps). Threshold returns +Inf when
// n < minCount and -Inf when logEps is 0 (a 100% false positive rate always
// rejects). minCount is raised to MinCount when lower.
//
// Threshold panics if logEps is positive.
func Threshold(n, minCount uint64, logEps float64) float64 {
	if logEps > 0 {
		panic("martingale: positive logEps means a false positive rate above 100%; should it be negated?")
	}

	if minCount < MinCount {
		minCount = MinCount
	}

	if n < minCount {
		return math.Inf(1)
	}

	if logEps >= 0 {
		return math.Inf(-1)
	}

	logA := logAUp(minCount, logEps)

	// n f_n(A)
	//   = sqrt(n) (3 / 2sqrt(2)) sqrt(4 log log n - 4 log log 2 + 2 log A)
	//   = 3 sqrt[n (1/2 log log n - 1/2 log log 2 + 1/4 log A)].
	x := round.Uint64Up(n)
	inner := round.AddUp(
		round.AddUp(round.MulUp(0.5, round.LogUp(round.LogUp(x))), minusHalfLogLog2Up),
		round.MulUp(0.25, logA))
	return round.MulUp(3, round.SqrtUp(round.MulUp(x, inner)))
}

// ThresholdSpan is Threshold for a zero-mean variable whose range has total
// width span, e.g. [lo, lo+span]. By Hoeffding's lemma such a variable
// satisfies the same mgf bound as a [-1, 1] variable scaled by span/2.
//
// A zero span returns 0. ThresholdSpan panics if span is negative.
func ThresholdSpan(n, minCount uint64, span, logEps float64) float64 {
	if span < 0 {
		panic("martingale: negative span")
	}
	if span == 0 {
		return 0
	}
	scale := span / 2 // exact
	return round.MulUp(scale, Threshold(n, minCount, logEps))
}

// ThresholdRange is the one-sided threshold for a zero-mean variable in
// [lo, hi], lo <= 0 <= hi. The bound is on the event Sum X_i <= width; flip
// the variable's sign and swap -hi, -lo for the other side.
//
// It is tighter than ThresholdSpan when |lo| > |hi|: a positive sum then needs
// many small positive contributions, which is less likely than one large one.
// When lo >= 0 or hi <= 0 the variable must be identically zero and the
// result is 0. An infinite endpoint gives +Inf (or -Inf when Threshold does).
func ThresholdRange(n, minCount uint64, lo, hi, logEps float64) float64 {
	if lo >= 0 || hi <= 0 {
		return 0
	}
	if math.IsInf(lo, -1) || math.IsInf(hi, 1) {
		// No finite scale bounds an unbounded variable.
		if Threshold(n, minCount, logEps) < 0 {
			return math.Inf(-1)
		}
		return math.Inf(1)
	}

	span := round.SubUp(hi, lo)
	// rho rounds down, toward 1/2, where rho (1 - rho) peaks.
	rho := round.DivDown(-lo, span)

	var scale float64
	if rho <= 0.5 {
		// Hoeffding's bound is attained; nothing to gain over the span form.
		scale = span / 2
	} else {
		// In the proof of Hoeffding's lemma, t (1 - t) with
		// t = rho e^v / (1 - rho + rho e^v), v >= 0, peaks at v = 0 once
		// rho > 1/2. The mgf is then at most
		// exp[rho (1 - rho) (hi - lo)^2 lambda^2 / 2], so the span can
		// shrink to 1/sqrt[rho (1 - rho)]: scale by sqrt[rho (1 - rho)] span.
		scale = round.MulUp(round.SqrtUp(round.MulUp(rho, round.SubUp(1, rho))), span)
	}
	return round.MulUp(scale, Threshold(n, minCount, logEps))
}
