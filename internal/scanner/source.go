package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"MonkHerald/internal/domain"
	"MonkHerald/internal/ports"
)

// RegistrySource implements ports.ArticleSource by resolving the theme's
// discovery strategy from a registry and running it.
type RegistrySource struct {
	registry *Registry
	logger   *slog.Logger
	now      func() time.Time
}

var _ ports.ArticleSource = (*RegistrySource)(nil)

// NewRegistrySource wires a strategy registry into an article source.
func NewRegistrySource(registry *Registry, logger *slog.Logger) *RegistrySource {
	return &RegistrySource{
		registry: registry,
		logger:   logger,
		now:      time.Now,
	}
}

// Discover executes the strategy named by the theme and returns, deduplicated
// by URL within the batch, whatever it found.
func (s *RegistrySource) Discover(ctx context.Context, theme domain.Theme) ([]domain.Candidate, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("strategy registry is not configured")
	}

	strategy, err := s.registry.Resolve(theme.Strategy)
	if err != nil {
		return nil, fmt.Errorf("theme %s: %w", theme.Label, err)
	}

	s.debug("discover", "theme", theme.Label, "strategy", strategy.Name())

	results, err := strategy.Discover(ctx, Request{Day: s.now(), Theme: theme})
	if err != nil {
		return nil, fmt.Errorf("discover theme %s: %w", theme.Label, err)
	}

	seen := map[string]struct{}{}
	unique := make([]domain.Candidate, 0, len(results))
	for _, candidate := range results {
		if candidate.URL == "" {
			continue
		}
		if _, ok := seen[candidate.URL]; ok {
			continue
		}
		seen[candidate.URL] = struct{}{}
		unique = append(unique, candidate)
	}

	s.debug("discovery done", "theme", theme.Label, "candidates", len(unique))
	return unique, nil
}

func (s *RegistrySource) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
