package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"slices"
	"time"

	"MonkHerald/internal/domain"
	"MonkHerald/internal/ports"
)

const defaultMaxPerBatch = 2

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Source      ports.ArticleSource
	Sent        ports.SentRegistry
	Fetcher     ports.BodyFetcher
	Summarizer  ports.Summarizer
	Publisher   ports.Publisher
	ThemeFor    func(time.Weekday) domain.Theme
	MaxPerBatch int
	Logger      *slog.Logger
}

// Pipeline produces and publishes one day's batch: discover, dedup-filter,
// fetch, summarize, publish, mark-sent. Per-article publish failures do not
// fail the batch; only a discovery failure does.
type Pipeline struct {
	source      ports.ArticleSource
	sent        ports.SentRegistry
	fetcher     ports.BodyFetcher
	summarizer  ports.Summarizer
	publisher   ports.Publisher
	themeFor    func(time.Weekday) domain.Theme
	maxPerBatch int
	logger      *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	maxPerBatch := deps.MaxPerBatch
	if maxPerBatch <= 0 {
		maxPerBatch = defaultMaxPerBatch
	}

	return &Pipeline{
		source:      deps.Source,
		sent:        deps.Sent,
		fetcher:     deps.Fetcher,
		summarizer:  deps.Summarizer,
		publisher:   deps.Publisher,
		themeFor:    deps.ThemeFor,
		maxPerBatch: maxPerBatch,
		logger:      deps.Logger,
	}
}

// ProcessDay runs the full batch for the weekday of now. Articles are
// processed strictly sequentially; an article is marked sent if and only if
// its publish returned success.
func (p *Pipeline) ProcessDay(ctx context.Context, now time.Time) error {
	theme := p.themeFor(now.Weekday())
	p.info("batch start", "theme", theme.Label)

	candidates, err := p.source.Discover(ctx, theme)
	if err != nil {
		return fmt.Errorf("discover candidates: %w", err)
	}

	fresh := p.filterUnsent(ctx, candidates)
	p.info("discovery complete", "total", len(candidates), "new", len(fresh))

	if len(fresh) == 0 {
		p.info("no new candidates, batch done")
		return nil
	}

	for _, candidate := range pickRandom(fresh, p.maxPerBatch) {
		p.processOne(ctx, candidate, theme.Label)
	}

	return nil
}

// filterUnsent drops candidates the dedup store already knows. A candidate
// whose lookup fails is skipped and left for a later cycle.
func (p *Pipeline) filterUnsent(ctx context.Context, candidates []domain.Candidate) []domain.Candidate {
	fresh := make([]domain.Candidate, 0, len(candidates))
	for _, candidate := range candidates {
		sent, err := p.sent.HasBeenSent(ctx, candidate.ID())
		if err != nil {
			p.warn("dedup lookup failed, skipping candidate", "url", candidate.URL, "error", err)
			continue
		}
		if sent {
			continue
		}
		fresh = append(fresh, candidate)
	}
	return fresh
}

func (p *Pipeline) processOne(ctx context.Context, candidate domain.Candidate, themeLabel string) {
	p.info("processing", "title", candidate.Title, "url", candidate.URL)

	body, image, err := p.fetcher.Fetch(ctx, candidate.URL)
	if err != nil {
		p.warn("body fetch failed, falling back to feed summary", "url", candidate.URL, "error", err)
	}
	if body == "" {
		body = candidate.RawSummary
	}
	candidate.BodyText = body
	candidate.ImageURL = image

	result, err := p.summarizer.Summarize(ctx, candidate, body)
	if err != nil || result == nil {
		p.warn("summarizer yielded nothing, skipping candidate", "url", candidate.URL, "error", err)
		return
	}
	if result.Summary == "" && result.Content == "" {
		p.warn("summary is empty, skipping candidate", "url", candidate.URL)
		return
	}

	if err := p.publisher.Publish(ctx, candidate, *result, themeLabel); err != nil {
		p.warn("publish failed, article stays unmarked for retry", "url", candidate.URL, "error", err)
		return
	}

	if err := p.sent.MarkSent(ctx, candidate.ID(), time.Now()); err != nil {
		p.error("cannot record sent article", "url", candidate.URL, "error", err)
		return
	}

	p.info("published", "url", candidate.URL)
}

// pickRandom caps the batch at n candidates, sampling without favoring
// discovery order.
func pickRandom(candidates []domain.Candidate, n int) []domain.Candidate {
	if len(candidates) <= n {
		return candidates
	}

	shuffled := slices.Clone(candidates)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:n]
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}

func (p *Pipeline) error(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Error(msg, args...)
	}
}
