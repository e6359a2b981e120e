package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/espresso-charts/studio/internal/mapper"
	"github.com/espresso-charts/studio/internal/week"
)

// RenderRequest carries one render unit to its renderer: the tag that
// selected it, the (possibly empty) column data, the mapped parameter
// set, and where the output file must land.
type RenderRequest struct {
	Slug       string
	Unit       string
	Tag        string
	Data       map[string][]any
	Params     week.Params
	OutputPath string
}

// RenderFunc produces one asset file for a request.
type RenderFunc func(ctx context.Context, req RenderRequest) error

// Registry maps render unit tags to renderer implementations. Tags are
// the chart and animation type names plus "cover".
type Registry struct {
	mu        sync.RWMutex
	renderers map[string]RenderFunc
}

// NewRegistry returns an empty renderer registry.
func NewRegistry() *Registry {
	return &Registry{renderers: map[string]RenderFunc{}}
}

// Register installs a renderer. Returns an error if the tag exists.
func (r *Registry) Register(tag string, fn RenderFunc) error {
	if tag == "" {
		return fmt.Errorf("pipeline: renderer tag is required")
	}
	if fn == nil {
		return fmt.Errorf("pipeline: renderer is required for %s", tag)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.renderers[tag]; exists {
		return fmt.Errorf("pipeline: renderer %s already registered", tag)
	}
	r.renderers[tag] = fn
	return nil
}

// MustRegister panics if registration fails.
func (r *Registry) MustRegister(tag string, fn RenderFunc) {
	if err := r.Register(tag, fn); err != nil {
		panic(err)
	}
}

// Resolve looks a renderer up by tag. An unknown tag is an
// UnsupportedChartType so the dispatcher reports it in the same taxonomy
// as the parameter mapper.
func (r *Registry) Resolve(tag string) (RenderFunc, error) {
	r.mu.RLock()
	fn, ok := r.renderers[tag]
	r.mu.RUnlock()
	if !ok {
		return nil, &mapper.UnsupportedChartType{Tag: tag}
	}
	return fn, nil
}

// Tags returns the registered tags, sorted.
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tags := make([]string, 0, len(r.renderers))
	for tag := range r.renderers {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
