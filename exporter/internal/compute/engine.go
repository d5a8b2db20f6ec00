package compute

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/obsidianstack/csbounds/exporter/internal/config"
)

// Engine holds the active bound catalogue.
//
// All exported methods are safe for concurrent use.
type Engine struct {
	mu     sync.RWMutex
	bounds []config.Bound
	index  map[string]int
}

// NewEngine returns an Engine serving bounds.
func NewEngine(bounds []config.Bound) *Engine {
	e := &Engine{}
	e.Update(bounds)
	return e
}

// Update replaces the catalogue. Callers must not modify bounds afterwards.
func (e *Engine) Update(bounds []config.Bound) {
	index := make(map[string]int, len(bounds))
	for i, b := range bounds {
		index[b.Name] = i
	}

	e.mu.Lock()
	e.bounds = bounds
	e.index = index
	e.mu.Unlock()

	slog.Info("compute: catalogue updated", "bounds", len(bounds))
}

// Len returns the number of bounds in the catalogue.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.bounds)
}

// Tables evaluates every bound, in catalogue order.
func (e *Engine) Tables() []Table {
	e.mu.RLock()
	bounds := slices.Clone(e.bounds)
	e.mu.RUnlock()

	out := make([]Table, 0, len(bounds))
	for _, b := range bounds {
		out = append(out, Build(b))
	}
	return out
}

// Table evaluates the named bound. The boolean reports whether it exists.
func (e *Engine) Table(name string) (Table, bool) {
	e.mu.RLock()
	i, ok := e.index[name]
	var b config.Bound
	if ok {
		b = e.bounds[i]
	}
	e.mu.RUnlock()

	if !ok {
		return Table{}, false
	}
	return Build(b), true
}
