// Package compute evaluates the configured bound catalogue.
//
// evaluate.go provides the pure Evaluate(bound, logEps, n) dispatch onto
// pkg/martingale and Build(bound), which turns a bound into a Table of rows,
// one per checkpoint, sorted by sample count. Quantile kinds also carry the
// rank window from martingale.QuantileRanks.
//
// engine.go provides the Engine that holds the active catalogue behind a
// lock. Update swaps it on config reload; Tables and Table rebuild rows on
// every call, so readers never see a stale schedule.
package compute
