package scanner

import (
	"context"
	"fmt"
	"time"

	"MonkHerald/internal/domain"
)

// Request carries all parameters required to execute one discovery pass.
type Request struct {
	Day   time.Time
	Theme domain.Theme
}

// Strategy captures a single discovery implementation (RSS, search, etc.).
type Strategy interface {
	Name() string
	Discover(ctx context.Context, req Request) ([]domain.Candidate, error)
}

// Registry keeps a mapping from strategy names to their implementations.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{strategies: map[string]Strategy{}}
}

// Register adds or replaces a strategy implementation.
func (r *Registry) Register(strategy Strategy) {
	if r.strategies == nil {
		r.strategies = map[string]Strategy{}
	}
	r.strategies[strategy.Name()] = strategy
}

// Resolve returns a strategy by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Strategy, error) {
	if strategy, ok := r.strategies[name]; ok {
		return strategy, nil
	}
	return nil, fmt.Errorf("discovery strategy %s is not registered", name)
}
