package scanner

import (
	"context"
	"fmt"

	"platewatch/internal/domain"
)

// Source produces the set of plate candidates a run should investigate.
// Implementations may be pure (range enumeration) or network-backed
// (search API); either way a failed discovery of one candidate must not
// fail the whole set.
type Source interface {
	Name() string
	Discover(ctx context.Context, win domain.Window) ([]domain.Candidate, error)
}

// Registry keeps a mapping from strategy names to their implementations.
type Registry struct {
	sources map[string]Source
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: map[string]Source{}}
}

// Register adds or replaces a source implementation.
func (r *Registry) Register(source Source) {
	if r.sources == nil {
		r.sources = map[string]Source{}
	}
	r.sources[source.Name()] = source
}

// Resolve returns a source by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Source, error) {
	if source, ok := r.sources[name]; ok {
		return source, nil
	}
	return nil, fmt.Errorf("strategy %s is not registered", name)
}
