package config

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/obsidianstack/csbounds/pkg/martingale"
)

func TestLoad_Valid(t *testing.T) {
	yaml := `
exporter:
  listen_addr: "127.0.0.1:9100"
  metrics_path: /probe
  bounds:
    - name: checkout-conversion
      kind: range
      min_count: 32
      eps: 0.05
      two_sided: true
      lo: -0.1
      hi: 0.9
      checkpoints: [100, 1000]
    - name: latency_p99
      kind: quantile_hi
      log_eps: -7
      quantile: 0.99
`
	cfg := loadFromString(t, yaml)

	if cfg.Exporter.ListenAddr != "127.0.0.1:9100" {
		t.Errorf("listen_addr: got %q", cfg.Exporter.ListenAddr)
	}
	if cfg.Exporter.MetricsPath != "/probe" {
		t.Errorf("metrics_path: got %q", cfg.Exporter.MetricsPath)
	}
	if len(cfg.Exporter.Bounds) != 2 {
		t.Fatalf("bounds: got %d, want 2", len(cfg.Exporter.Bounds))
	}
	b := cfg.Exporter.Bounds[0]
	if b.Name != "checkout-conversion" || b.Kind != KindRange {
		t.Errorf("bound: got %q/%q", b.Name, b.Kind)
	}
	if b.MinCount != 32 {
		t.Errorf("min_count: got %d", b.MinCount)
	}
	if b.Lo != -0.1 || b.Hi != 0.9 {
		t.Errorf("range: got [%v, %v]", b.Lo, b.Hi)
	}
	if len(b.Checkpoints) != 2 || b.Checkpoints[1] != 1000 {
		t.Errorf("checkpoints: got %v", b.Checkpoints)
	}
	if q := cfg.Exporter.Bounds[1]; q.Quantile != 0.99 || !q.IsQuantile() {
		t.Errorf("quantile bound: got %+v", q)
	}
}

func TestLoad_Defaults(t *testing.T) {
	yaml := `
exporter:
  bounds:
    - name: ab
      kind: threshold
      eps: 0.01
`
	cfg := loadFromString(t, yaml)

	if cfg.Exporter.ListenAddr != DefaultListenAddr {
		t.Errorf("default listen_addr: got %q, want %q", cfg.Exporter.ListenAddr, DefaultListenAddr)
	}
	if cfg.Exporter.MetricsPath != DefaultMetricsPath {
		t.Errorf("default metrics_path: got %q, want %q", cfg.Exporter.MetricsPath, DefaultMetricsPath)
	}
	b := cfg.Exporter.Bounds[0]
	if b.MinCount != DefaultMinCount {
		t.Errorf("default min_count: got %d, want %d", b.MinCount, DefaultMinCount)
	}
	if len(b.Checkpoints) != len(DefaultCheckpoints) {
		t.Errorf("default checkpoints: got %v, want %v", b.Checkpoints, DefaultCheckpoints)
	}
}

func TestLoad_EmptyCatalogue(t *testing.T) {
	cfg := loadFromString(t, "exporter: {}\n")
	if len(cfg.Exporter.Bounds) != 0 {
		t.Errorf("bounds: got %d, want 0", len(cfg.Exporter.Bounds))
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		bound string
	}{
		{"missing name", "kind: threshold\n      eps: 0.05"},
		{"bad name", "name: \"a b\"\n      kind: threshold\n      eps: 0.05"},
		{"missing kind", "name: a\n      eps: 0.05"},
		{"unknown kind", "name: a\n      kind: mystery\n      eps: 0.05"},
		{"no rate", "name: a\n      kind: threshold"},
		{"both rates", "name: a\n      kind: threshold\n      eps: 0.05\n      log_eps: -3"},
		{"eps zero", "name: a\n      kind: threshold\n      eps: 0"},
		{"eps above one", "name: a\n      kind: threshold\n      eps: 1.5"},
		{"positive log_eps", "name: a\n      kind: threshold\n      log_eps: 0.5"},
		{"span zero", "name: a\n      kind: span\n      eps: 0.05"},
		{"range unbounded below", "name: a\n      kind: range\n      eps: 0.05\n      lo: -.inf\n      hi: 1"},
		{"range unbounded above", "name: a\n      kind: range\n      eps: 0.05\n      lo: -1\n      hi: .inf"},
		{"range above zero", "name: a\n      kind: range\n      eps: 0.05\n      lo: 0.5\n      hi: 1"},
		{"quantile percent", "name: a\n      kind: quantile\n      eps: 0.05\n      quantile: 90"},
		{"two-sided quantile", "name: a\n      kind: quantile_lo\n      eps: 0.05\n      quantile: 0.5\n      two_sided: true"},
		{"zero checkpoint", "name: a\n      kind: threshold\n      eps: 0.05\n      checkpoints: [0, 10]"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			yaml := "exporter:\n  bounds:\n    - " + tc.bound + "\n"
			if _, err := loadStringErr(t, yaml); err == nil {
				t.Fatalf("expected error, got nil")
			}
		})
	}
}

func TestLoad_DuplicateName(t *testing.T) {
	yaml := `
exporter:
  bounds:
    - {name: a, kind: threshold, eps: 0.05}
    - {name: a, kind: span, span: 1, eps: 0.05}
`
	if _, err := loadStringErr(t, yaml); err == nil {
		t.Fatal("expected error for duplicate name, got nil")
	}
}

func TestLoad_BadMetricsPath(t *testing.T) {
	for _, mp := range []string{"metrics", "/", "/api/v1/metrics", "/ws/stream"} {
		if _, err := loadStringErr(t, "exporter:\n  metrics_path: "+mp+"\n"); err == nil {
			t.Errorf("metrics_path %q: expected error, got nil", mp)
		}
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestBound_LogEpsilon(t *testing.T) {
	logEps := -3.0
	eps := 0.05

	tests := []struct {
		name string
		b    Bound
		want float64
	}{
		{"log_eps", Bound{LogEps: &logEps}, -3},
		{"log_eps two-sided", Bound{LogEps: &logEps, TwoSided: true}, -3 + martingale.EQ},
		{"eps", Bound{Eps: &eps}, martingale.LogEps(0.05)},
	}
	for _, tc := range tests {
		if got := tc.b.LogEpsilon(); got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}

	if got := (Bound{Eps: &eps}).LogEpsilon(); got >= math.Log(0.05) {
		t.Errorf("eps: got %v, want below log(0.05)", got)
	}
}

func TestWatch_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "exporter:\n  bounds: []\n")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	reloaded := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(cfg *Config) {
			select {
			case reloaded <- cfg:
			default:
			}
		})
	}()

	// Keep rewriting until the watcher has picked up the change; the first
	// write can race the watcher's registration.
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case cfg := <-reloaded:
			if len(cfg.Exporter.Bounds) != 1 || cfg.Exporter.Bounds[0].Name != "ab" {
				t.Fatalf("reloaded config: got %+v", cfg.Exporter.Bounds)
			}
			cancel()
			if err := <-done; err != nil {
				t.Fatalf("Watch returned %v", err)
			}
			return
		case <-ticker.C:
			writeFile(t, path, "exporter:\n  bounds:\n    - {name: ab, kind: threshold, eps: 0.05}\n")
		case <-ctx.Done():
			t.Fatal("timed out waiting for reload")
		}
	}
}

func TestWatch_AtomicSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "exporter:\n  bounds: []\n")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	reloaded := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(cfg *Config) {
			select {
			case reloaded <- cfg:
			default:
			}
		})
	}()

	// Write a sibling and rename it over the watched file, as editors do.
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for i := 0; ; i++ {
		select {
		case cfg := <-reloaded:
			if len(cfg.Exporter.Bounds) != 1 || cfg.Exporter.Bounds[0].Name != "renamed" {
				t.Fatalf("reloaded config: got %+v", cfg.Exporter.Bounds)
			}
			cancel()
			if err := <-done; err != nil {
				t.Fatalf("Watch returned %v", err)
			}
			return
		case <-ticker.C:
			tmp := filepath.Join(dir, fmt.Sprintf(".config.yaml.%d", i))
			writeFile(t, tmp, "exporter:\n  bounds:\n    - {name: renamed, kind: threshold, eps: 0.05}\n")
			if err := os.Rename(tmp, path); err != nil {
				t.Fatalf("rename: %v", err)
			}
		case <-ctx.Done():
			t.Fatal("timed out waiting for reload")
		}
	}
}

func TestWatch_IgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "exporter:\n  bounds: []\n")

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	calls := make(chan struct{}, 16)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(*Config) {
			select {
			case calls <- struct{}{}:
			default:
			}
		})
	}()

	for i := 0; i < 5; i++ {
		writeFile(t, filepath.Join(dir, "other.yaml"), "exporter:\n  bounds: []\n")
		time.Sleep(20 * time.Millisecond)
	}
	if err := <-done; err != nil {
		t.Fatalf("Watch returned %v", err)
	}
	if n := len(calls); n != 0 {
		t.Errorf("onChange called %d times for a sibling file", n)
	}
}

func TestWatch_MissingFile(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "nope.yaml"), func(*Config) {})
	if err == nil {
		t.Fatal("expected error watching a missing file, got nil")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

// loadFromString writes yaml to a temp file and calls Load, failing on error.
func loadFromString(t *testing.T, content string) *Config {
	t.Helper()
	cfg, err := loadStringErr(t, content)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	return cfg
}

// loadStringErr writes yaml to a temp file and calls Load, returning any error.
func loadStringErr(t *testing.T, content string) (*Config, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, content)
	return Load(path)
}
