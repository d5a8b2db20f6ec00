package compute

import (
	"math"
	"slices"

	"github.com/obsidianstack/csbounds/exporter/internal/config"
	"github.com/obsidianstack/csbounds/pkg/martingale"
)

// Row is one checkpoint of a bound schedule.
type Row struct {
	// N is the sample count.
	N uint64

	// Width is the engine result at N: a threshold for the sum, or a rank
	// slop for quantile kinds. +Inf before min_count.
	Width float64

	// RankLo and RankHi are the rank window for quantile kinds; zero
	// otherwise.
	RankLo float64
	RankHi float64
}

// Table is the evaluated schedule of one bound.
type Table struct {
	Bound  config.Bound
	LogEps float64
	Rows   []Row
}

// Evaluate returns the width of bound b after n observations, with logEps
// already resolved (see config.Bound.LogEpsilon). Unknown kinds yield NaN;
// config validation keeps them out.
func Evaluate(b config.Bound, logEps float64, n uint64) float64 {
	switch b.Kind {
	case config.KindThreshold:
		return martingale.Threshold(n, b.MinCount, logEps)
	case config.KindSpan:
		return martingale.ThresholdSpan(n, b.MinCount, b.Span, logEps)
	case config.KindRange:
		return martingale.ThresholdRange(n, b.MinCount, b.Lo, b.Hi, logEps)
	case config.KindQuantile:
		return martingale.QuantileSlop(b.Quantile, n, b.MinCount, logEps)
	case config.KindQuantileHi:
		return martingale.QuantileSlopHi(b.Quantile, n, b.MinCount, logEps)
	case config.KindQuantileLo:
		return martingale.QuantileSlopLo(b.Quantile, n, b.MinCount, logEps)
	default:
		return math.NaN()
	}
}

// Build evaluates b at each of its checkpoints, in ascending order with
// duplicates removed.
func Build(b config.Bound) Table {
	logEps := b.LogEpsilon()

	ns := slices.Clone(b.Checkpoints)
	slices.Sort(ns)
	ns = slices.Compact(ns)

	rows := make([]Row, 0, len(ns))
	for _, n := range ns {
		row := Row{N: n, Width: Evaluate(b, logEps, n)}
		if b.IsQuantile() {
			row.RankLo, row.RankHi = martingale.QuantileRanks(b.Quantile, n, b.MinCount, logEps)
		}
		rows = append(rows, row)
	}
	return Table{Bound: b, LogEps: logEps, Rows: rows}
}
