package config

import (
	"fmt"
	"math"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/obsidianstack/csbounds/internal/round"
	"github.com/obsidianstack/csbounds/pkg/martingale"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultListenAddr  = ":9464"
	DefaultMetricsPath = "/metrics"
	DefaultMinCount    = martingale.MinCount
)

// Bound kinds, one per engine entry point.
const (
	KindThreshold  = "threshold"
	KindSpan       = "span"
	KindRange      = "range"
	KindQuantile   = "quantile"
	KindQuantileHi = "quantile_hi"
	KindQuantileLo = "quantile_lo"
)

// DefaultCheckpoints are the sample counts evaluated when a bound lists none.
var DefaultCheckpoints = []uint64{10, 100, 1000, 10000, 100000, 1000000, 10000000}

var nameRE = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Config is the top-level configuration.
type Config struct {
	Exporter ExporterConfig `yaml:"exporter"`
}

// ExporterConfig holds the HTTP surface and the bound catalogue.
type ExporterConfig struct {
	// ListenAddr is the host:port the HTTP server binds.
	ListenAddr string `yaml:"listen_addr"`

	// MetricsPath is where the Prometheus exposition is served.
	MetricsPath string `yaml:"metrics_path"`

	// Bounds is the catalogue of confidence sequences to publish.
	Bounds []Bound `yaml:"bounds"`
}

// Bound describes one confidence sequence and the sample counts at which it
// is published.
type Bound struct {
	// Name is a unique identifier, used as the "bound" label.
	Name string `yaml:"name"`

	// Kind selects the engine function: threshold | span | range |
	// quantile | quantile_hi | quantile_lo.
	Kind string `yaml:"kind"`

	// MinCount is the first sample count at which the sequence is checked.
	MinCount uint64 `yaml:"min_count"`

	// Eps is the false positive rate in (0, 1]. Exactly one of Eps and
	// LogEps must be set.
	Eps *float64 `yaml:"eps"`

	// LogEps is the natural log of the false positive rate, <= 0.
	LogEps *float64 `yaml:"log_eps"`

	// TwoSided adds martingale.EQ to the log rate. Quantile kinds are
	// always two-sided internally and reject this flag.
	TwoSided bool `yaml:"two_sided"`

	// Span is the total width of the variable's range (kind=span).
	Span float64 `yaml:"span"`

	// Lo and Hi bound the variable's range (kind=range), lo <= 0 <= hi.
	Lo float64 `yaml:"lo"`
	Hi float64 `yaml:"hi"`

	// Quantile is the target fraction in [0, 1] (quantile kinds).
	Quantile float64 `yaml:"quantile"`

	// Checkpoints are the sample counts to evaluate.
	Checkpoints []uint64 `yaml:"checkpoints"`
}

// LogEpsilon returns the logEps argument for the engine: the configured log
// rate, or log(eps) rounded conservatively, plus EQ for two-sided bounds.
// It assumes the bound passed validation.
func (b Bound) LogEpsilon() float64 {
	var logEps float64
	if b.LogEps != nil {
		logEps = *b.LogEps
	} else {
		logEps = martingale.LogEps(*b.Eps)
	}
	if b.TwoSided {
		logEps = round.AddDown(logEps, martingale.EQ)
	}
	return logEps
}

// IsQuantile reports whether the bound is one of the quantile kinds.
func (b Bound) IsQuantile() bool {
	switch b.Kind {
	case KindQuantile, KindQuantileHi, KindQuantileLo:
		return true
	}
	return false
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with sensible defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}
	return Parse(data)
}

// Parse decodes, defaults and validates a YAML document.
func Parse(data []byte) (*Config, error) {
	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	applyBoundDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Exporter: ExporterConfig{
			ListenAddr:  DefaultListenAddr,
			MetricsPath: DefaultMetricsPath,
		},
	}
}

func applyBoundDefaults(cfg *Config) {
	for i := range cfg.Exporter.Bounds {
		b := &cfg.Exporter.Bounds[i]
		if b.MinCount == 0 {
			b.MinCount = DefaultMinCount
		}
		if len(b.Checkpoints) == 0 {
			b.Checkpoints = append([]uint64(nil), DefaultCheckpoints...)
		}
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	if cfg.Exporter.ListenAddr == "" {
		return fmt.Errorf("exporter.listen_addr is required")
	}
	if len(cfg.Exporter.MetricsPath) == 0 || cfg.Exporter.MetricsPath[0] != '/' {
		return fmt.Errorf("exporter.metrics_path must start with /")
	}
	if mp := cfg.Exporter.MetricsPath; mp == "/" || strings.HasPrefix(mp, "/api/") || strings.HasPrefix(mp, "/ws/") {
		return fmt.Errorf("exporter.metrics_path %q collides with a built-in route", mp)
	}
	seen := make(map[string]bool, len(cfg.Exporter.Bounds))
	for i, b := range cfg.Exporter.Bounds {
		if b.Name == "" {
			return fmt.Errorf("bounds[%d]: name is required", i)
		}
		if !nameRE.MatchString(b.Name) {
			return fmt.Errorf("bounds[%d]: invalid name %q", i, b.Name)
		}
		if seen[b.Name] {
			return fmt.Errorf("bounds[%d]: duplicate name %q", i, b.Name)
		}
		seen[b.Name] = true
		if err := validateBound(b); err != nil {
			return fmt.Errorf("bounds[%d] %q: %w", i, b.Name, err)
		}
	}
	return nil
}

func validateBound(b Bound) error {
	switch {
	case b.Eps == nil && b.LogEps == nil:
		return fmt.Errorf("one of eps or log_eps is required")
	case b.Eps != nil && b.LogEps != nil:
		return fmt.Errorf("eps and log_eps are mutually exclusive")
	case b.Eps != nil && !(*b.Eps > 0 && *b.Eps <= 1):
		return fmt.Errorf("eps must be in (0, 1], got %v", *b.Eps)
	case b.LogEps != nil && !(*b.LogEps <= 0):
		return fmt.Errorf("log_eps must be <= 0, got %v", *b.LogEps)
	}

	switch b.Kind {
	case KindThreshold:
	case KindSpan:
		if !(b.Span > 0) || math.IsInf(b.Span, 0) {
			return fmt.Errorf("span must be positive and finite, got %v", b.Span)
		}
	case KindRange:
		if math.IsNaN(b.Lo) || math.IsNaN(b.Hi) || b.Lo > 0 || b.Hi < 0 {
			return fmt.Errorf("range must satisfy lo <= 0 <= hi, got [%v, %v]", b.Lo, b.Hi)
		}
		if math.IsInf(b.Lo, 0) || math.IsInf(b.Hi, 0) {
			return fmt.Errorf("range must be finite, got [%v, %v]", b.Lo, b.Hi)
		}
	case KindQuantile, KindQuantileHi, KindQuantileLo:
		if !(b.Quantile >= 0 && b.Quantile <= 1) {
			return fmt.Errorf("quantile must be in [0, 1], got %v", b.Quantile)
		}
		if b.TwoSided {
			return fmt.Errorf("two_sided does not apply to quantile kinds")
		}
	case "":
		return fmt.Errorf("kind is required")
	default:
		return fmt.Errorf("unknown kind %q", b.Kind)
	}

	for _, n := range b.Checkpoints {
		if n == 0 {
			return fmt.Errorf("checkpoints must be positive")
		}
	}
	return nil
}
