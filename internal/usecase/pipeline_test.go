package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"MonkHerald/internal/domain"
)

type memRegistry struct {
	sent      map[string]time.Time
	lookupErr error
	markErr   error
}

func newMemRegistry(preSent ...string) *memRegistry {
	m := &memRegistry{sent: map[string]time.Time{}}
	for _, url := range preSent {
		m.sent[url] = time.Now().Add(-24 * time.Hour)
	}
	return m
}

func (m *memRegistry) HasBeenSent(ctx context.Context, url string) (bool, error) {
	if m.lookupErr != nil {
		return false, m.lookupErr
	}
	_, ok := m.sent[url]
	return ok, nil
}

func (m *memRegistry) MarkSent(ctx context.Context, url string, at time.Time) error {
	if m.markErr != nil {
		return m.markErr
	}
	if _, ok := m.sent[url]; !ok {
		m.sent[url] = at
	}
	return nil
}

type stubSource struct {
	candidates []domain.Candidate
	err        error
}

func (s *stubSource) Discover(ctx context.Context, theme domain.Theme) ([]domain.Candidate, error) {
	return s.candidates, s.err
}

type stubFetcher struct {
	body  string
	image string
	err   error
}

func (s *stubFetcher) Fetch(ctx context.Context, url string) (string, string, error) {
	return s.body, s.image, s.err
}

type stubSummarizer struct {
	result *domain.SummaryResult
	err    error
	bodies []string
}

func (s *stubSummarizer) Summarize(ctx context.Context, candidate domain.Candidate, bodyText string) (*domain.SummaryResult, error) {
	s.bodies = append(s.bodies, bodyText)
	return s.result, s.err
}

type publishCall struct {
	candidate domain.Candidate
	result    domain.SummaryResult
	theme     string
}

type stubPublisher struct {
	err   error
	calls []publishCall
}

func (s *stubPublisher) Publish(ctx context.Context, candidate domain.Candidate, result domain.SummaryResult, themeLabel string) error {
	s.calls = append(s.calls, publishCall{candidate: candidate, result: result, theme: themeLabel})
	return s.err
}

func fixedTheme(label string) func(time.Weekday) domain.Theme {
	return func(time.Weekday) domain.Theme {
		return domain.Theme{Label: label, Strategy: "rss"}
	}
}

func candidateSet(urls ...string) []domain.Candidate {
	out := make([]domain.Candidate, 0, len(urls))
	for _, url := range urls {
		out = append(out, domain.Candidate{URL: url, Title: "t: " + url, RawSummary: "feed summary for " + url})
	}
	return out
}

func newTestPipeline(source *stubSource, reg *memRegistry, sum *stubSummarizer, pub *stubPublisher) *Pipeline {
	return NewPipeline(PipelineDeps{
		Source:      source,
		Sent:        reg,
		Fetcher:     &stubFetcher{body: "plenty of extracted article body text", image: "https://img.example.org/1.jpg"},
		Summarizer:  sum,
		Publisher:   pub,
		ThemeFor:    fixedTheme("AI & Hard Tech"),
		MaxPerBatch: 2,
	})
}

func TestBatchWithAllCandidatesAlreadySent(t *testing.T) {
	t.Parallel()

	source := &stubSource{candidates: candidateSet("https://a", "https://b")}
	reg := newMemRegistry("https://a", "https://b")
	pub := &stubPublisher{}
	p := newTestPipeline(source, reg, &stubSummarizer{result: &domain.SummaryResult{Summary: "s"}}, pub)

	if err := p.ProcessDay(context.Background(), time.Now()); err != nil {
		t.Fatalf("ProcessDay: %v", err)
	}
	if len(pub.calls) != 0 {
		t.Fatalf("expected zero publish calls, got %d", len(pub.calls))
	}
}

func TestDiscoveryFailureFailsBatch(t *testing.T) {
	t.Parallel()

	source := &stubSource{err: errors.New("feeds unreachable")}
	p := newTestPipeline(source, newMemRegistry(), &stubSummarizer{}, &stubPublisher{})

	if err := p.ProcessDay(context.Background(), time.Now()); err == nil {
		t.Fatal("expected batch failure when discovery errors")
	}
}

func TestPublishFailureLeavesCandidateUnmarked(t *testing.T) {
	t.Parallel()

	source := &stubSource{candidates: candidateSet("https://a")}
	reg := newMemRegistry()
	pub := &stubPublisher{err: errors.New("503")}
	p := newTestPipeline(source, reg, &stubSummarizer{result: &domain.SummaryResult{Summary: "s"}}, pub)

	if err := p.ProcessDay(context.Background(), time.Now()); err != nil {
		t.Fatalf("per-article publish failure must not fail the batch: %v", err)
	}

	sent, err := reg.HasBeenSent(context.Background(), "https://a")
	if err != nil {
		t.Fatalf("HasBeenSent: %v", err)
	}
	if sent {
		t.Fatal("failed publish must leave the article unmarked")
	}
}

func TestBatchIsCapped(t *testing.T) {
	t.Parallel()

	source := &stubSource{candidates: candidateSet("https://a", "https://b", "https://c", "https://d", "https://e")}
	pub := &stubPublisher{}
	p := newTestPipeline(source, newMemRegistry(), &stubSummarizer{result: &domain.SummaryResult{Summary: "s"}}, pub)

	if err := p.ProcessDay(context.Background(), time.Now()); err != nil {
		t.Fatalf("ProcessDay: %v", err)
	}
	if len(pub.calls) != 2 {
		t.Fatalf("expected the batch capped at 2 publishes, got %d", len(pub.calls))
	}
}

func TestSummaryPublishedUnmodified(t *testing.T) {
	t.Parallel()

	want := domain.SummaryResult{
		Summary: "executive summary",
		Content: "long-form analysis",
		Council: []domain.CouncilNote{{Monk: "Monk.Vault", Role: "Guardian", Message: "hold"}},
	}
	source := &stubSource{candidates: candidateSet("https://a")}
	pub := &stubPublisher{}
	p := newTestPipeline(source, newMemRegistry(), &stubSummarizer{result: &want}, pub)

	if err := p.ProcessDay(context.Background(), time.Now()); err != nil {
		t.Fatalf("ProcessDay: %v", err)
	}
	if len(pub.calls) != 1 {
		t.Fatalf("expected 1 publish, got %d", len(pub.calls))
	}

	got := pub.calls[0].result
	if got.Summary != want.Summary || got.Content != want.Content {
		t.Fatalf("summary altered in flight: %+v", got)
	}
	if len(got.Council) != 1 || got.Council[0].Monk != "Monk.Vault" {
		t.Fatalf("council altered in flight: %+v", got.Council)
	}
	if pub.calls[0].theme != "AI & Hard Tech" {
		t.Fatalf("unexpected theme label: %s", pub.calls[0].theme)
	}
}

func TestFetchFailureFallsBackToFeedSummary(t *testing.T) {
	t.Parallel()

	source := &stubSource{candidates: candidateSet("https://a")}
	sum := &stubSummarizer{result: &domain.SummaryResult{Summary: "s"}}
	p := NewPipeline(PipelineDeps{
		Source:      source,
		Sent:        newMemRegistry(),
		Fetcher:     &stubFetcher{err: errors.New("paywall")},
		Summarizer:  sum,
		Publisher:   &stubPublisher{},
		ThemeFor:    fixedTheme("Essays & Reflections"),
		MaxPerBatch: 2,
	})

	if err := p.ProcessDay(context.Background(), time.Now()); err != nil {
		t.Fatalf("ProcessDay: %v", err)
	}
	if len(sum.bodies) != 1 || sum.bodies[0] != "feed summary for https://a" {
		t.Fatalf("expected feed-summary fallback body, got %v", sum.bodies)
	}
}

func TestEmptySummaryIsNotPublished(t *testing.T) {
	t.Parallel()

	source := &stubSource{candidates: []domain.Candidate{{URL: "https://a", Title: "t"}}}
	reg := newMemRegistry()
	pub := &stubPublisher{}
	p := NewPipeline(PipelineDeps{
		Source:      source,
		Sent:        reg,
		Fetcher:     &stubFetcher{err: errors.New("paywall")},
		Summarizer:  &stubSummarizer{result: &domain.SummaryResult{Council: []domain.CouncilNote{}}},
		Publisher:   pub,
		ThemeFor:    fixedTheme("Essays & Reflections"),
		MaxPerBatch: 2,
	})

	if err := p.ProcessDay(context.Background(), time.Now()); err != nil {
		t.Fatalf("ProcessDay: %v", err)
	}
	if len(pub.calls) != 0 {
		t.Fatalf("empty summary must not be published, got %d calls", len(pub.calls))
	}

	sent, err := reg.HasBeenSent(context.Background(), "https://a")
	if err != nil {
		t.Fatalf("HasBeenSent: %v", err)
	}
	if sent {
		t.Fatal("skipped candidate must stay unmarked")
	}
}

func TestDedupLookupFailureSkipsCandidate(t *testing.T) {
	t.Parallel()

	source := &stubSource{candidates: candidateSet("https://a")}
	reg := newMemRegistry()
	reg.lookupErr = errors.New("db locked")
	pub := &stubPublisher{}
	p := newTestPipeline(source, reg, &stubSummarizer{result: &domain.SummaryResult{Summary: "s"}}, pub)

	if err := p.ProcessDay(context.Background(), time.Now()); err != nil {
		t.Fatalf("ProcessDay: %v", err)
	}
	if len(pub.calls) != 0 {
		t.Fatal("candidate with unknown dedup state must not be published")
	}
}

func TestWednesdayThemedBatch(t *testing.T) {
	t.Parallel()

	wednesday := time.Date(2026, time.September, 2, 7, 30, 0, 0, time.UTC)
	if wednesday.Weekday() != time.Wednesday {
		t.Fatalf("fixture is %s, not Wednesday", wednesday.Weekday())
	}

	themeFor := func(day time.Weekday) domain.Theme {
		if day != time.Wednesday {
			t.Fatalf("pipeline resolved theme for %s", day)
		}
		return domain.Theme{Label: "AI & Hard Tech", Strategy: "rss"}
	}

	source := &stubSource{candidates: candidateSet("https://a", "https://b", "https://c", "https://d", "https://e")}
	reg := newMemRegistry("https://a", "https://b", "https://c")
	pub := &stubPublisher{}

	p := NewPipeline(PipelineDeps{
		Source:      source,
		Sent:        reg,
		Fetcher:     &stubFetcher{body: "body"},
		Summarizer:  &stubSummarizer{result: &domain.SummaryResult{Summary: "s"}},
		Publisher:   pub,
		ThemeFor:    themeFor,
		MaxPerBatch: 2,
	})

	batchStart := time.Now()
	if err := p.ProcessDay(context.Background(), wednesday); err != nil {
		t.Fatalf("ProcessDay: %v", err)
	}

	if len(pub.calls) != 2 {
		t.Fatalf("expected exactly 2 publishes, got %d", len(pub.calls))
	}

	newlySent := 0
	for url, at := range reg.sent {
		if url == "https://a" || url == "https://b" || url == "https://c" {
			continue
		}
		newlySent++
		if at.Before(batchStart) {
			t.Fatalf("sent record for %s timestamped before batch start", url)
		}
	}
	if newlySent != 2 {
		t.Fatalf("expected exactly 2 new sent records, got %d", newlySent)
	}
}
