// Package config loads and watches the exporter configuration file.
//
// Top-level types:
//   - Config{Exporter}: full config tree parsed from YAML
//   - ExporterConfig: listen_addr, metrics_path, bounds []
//   - Bound: name, kind (threshold|span|range|quantile|quantile_hi|quantile_lo),
//     min_count, eps or log_eps, two_sided, span, lo/hi, quantile, checkpoints
//
// Load(path) reads the YAML file, applies defaults (":9464", "/metrics",
// min_count 2, checkpoints 10..10^7), then validates names, kinds and the
// numeric contract of each kind so the engine never sees an input it would
// panic on.
//
// Watch(ctx, path, onChange) uses fsnotify to detect file changes and calls
// onChange with the newly parsed Config. It re-adds the watch after every
// event to survive the rename→create pattern of atomic-save editors.
package config
