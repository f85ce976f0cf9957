package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"NewsDigest/internal/config"
	"NewsDigest/internal/domain"
	"NewsDigest/internal/logging"
	"NewsDigest/internal/ports"
	"NewsDigest/internal/summary"
)

var fixedNow = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

type fakeSource struct {
	articles []domain.RawArticle
	err      error
	calls    int
}

func (f *fakeSource) Fetch(context.Context) ([]domain.RawArticle, error) {
	f.calls++
	return f.articles, f.err
}

type fakeEngine struct {
	fail  func(text string) bool
	calls int
}

func (f *fakeEngine) Summarize(_ context.Context, text string, _, _ int) (string, error) {
	f.calls++
	if f.fail != nil && f.fail(text) {
		return "", errors.New("engine timeout")
	}
	words := strings.Fields(text)
	if len(words) > 4 {
		words = words[:4]
	}
	return "Zusammenfassung: " + strings.Join(words, " "), nil
}

type fakeTranslator struct {
	err error
}

func (f fakeTranslator) Translate(_ context.Context, text, _, target string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "[" + target + "] " + text, nil
}

type fakeStore struct {
	mu        sync.Mutex
	rows      map[string]domain.StoredArticle
	conflicts int
	saveErr   error

	recent    []domain.ArticleLink
	recentErr error
	since     time.Time
	limit     int

	counts   []domain.CategoryCount
	category string
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: map[string]domain.StoredArticle{}}
}

func (f *fakeStore) SaveArticle(_ context.Context, a domain.StoredArticle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	if _, ok := f.rows[a.URL]; ok {
		f.conflicts++
		return domain.ErrAlreadyStored
	}
	f.rows[a.URL] = a
	return nil
}

func (f *fakeStore) RecentArticles(_ context.Context, since time.Time, limit int) ([]domain.ArticleLink, error) {
	f.since, f.limit = since, limit
	return f.recent, f.recentErr
}

func (f *fakeStore) CategoryCounts(_ context.Context, since time.Time) ([]domain.CategoryCount, error) {
	f.since = since
	return f.counts, nil
}

func (f *fakeStore) ArticlesByCategory(_ context.Context, cat string, limit int) ([]domain.ArticleLink, error) {
	f.category, f.limit = cat, limit
	return f.recent, nil
}

func body(topic string) string {
	return strings.Repeat(topic+" wurde heute in Berlin ausführlich diskutiert und von vielen Fachleuten bewertet. ", 6)
}

func article(title, url string) domain.RawArticle {
	return domain.RawArticle{Title: title, URL: url, Content: body(title)}
}

func newTestPipeline(source ports.ArticleSource, store ports.ArticleStore, engine ports.SummaryEngine, translators map[string]ports.TranslationEngine) *Pipeline {
	logger := logging.NewWithWriter(io.Discard, "debug", "text")
	adapter := summary.NewAdapter(engine, translators, summary.DefaultOptions(), logger)
	return NewPipeline(PipelineDeps{
		Source:     source,
		Store:      store,
		Summarizer: adapter,
		Logger:     logger,
		Clock:      func() time.Time { return fixedNow },
	}, config.DefaultPipeline())
}

func TestEmptyOrFailingFetchReturnsNoData(t *testing.T) {
	t.Parallel()

	sources := map[string]*fakeSource{
		"empty":   {},
		"failing": {err: errors.New("connection refused")},
	}

	for name, source := range sources {
		store := newFakeStore()
		engine := &fakeEngine{}
		p := newTestPipeline(source, store, engine, nil)

		digests := []func(context.Context) (string, error){p.ShortDigest, p.DeepDigest, p.MultilingualDigest}
		for i, digest := range digests {
			got, err := digest(context.Background())
			if err != nil {
				t.Fatalf("%s/%d: unexpected error %v", name, i, err)
			}
			if got != NoDataMessage {
				t.Fatalf("%s/%d: expected no-data message, got %q", name, i, got)
			}
		}
		if source.calls != len(digests) {
			t.Fatalf("%s: expected one fetch per run, got %d", name, source.calls)
		}
		if len(store.rows) != 0 || engine.calls != 0 {
			t.Fatalf("%s: expected no writes or engine calls, got %d rows %d calls", name, len(store.rows), engine.calls)
		}
	}
}

func TestFilterDropsShortBodiesAndNearDuplicates(t *testing.T) {
	t.Parallel()

	source := &fakeSource{articles: []domain.RawArticle{
		{
			Title:   "Bundesregierung beschließt neues Klimaschutzgesetz",
			URL:     "https://example.com/klima-1",
			Content: body("Das Klimaschutzgesetz"),
		},
		{
			Title:   "Bundesregierung beschließt neues Klimaschutzgesetz!",
			URL:     "https://example.com/klima-2",
			Content: body("Der Entwurf zum Klima"),
		},
		{
			Title:   "Bahnstreik legt Fernverkehr lahm",
			URL:     "https://example.com/bahn",
			Content: strings.Repeat("Kurz notiert. ", 10),
		},
		{
			Title:   "Artikel ohne Link",
			Content: body("Ohne Link"),
		},
	}}
	store := newFakeStore()
	p := newTestPipeline(source, store, &fakeEngine{}, nil)

	if _, err := p.ShortDigest(context.Background()); err != nil {
		t.Fatalf("ShortDigest error: %v", err)
	}

	if len(store.rows) != 1 {
		t.Fatalf("expected exactly one persisted article, got %d", len(store.rows))
	}
	row, ok := store.rows["https://example.com/klima-1"]
	if !ok {
		t.Fatalf("expected earliest duplicate to survive, rows: %v", store.rows)
	}
	if row.Category != "politics" {
		t.Fatalf("unexpected category %q", row.Category)
	}
	if row.SummaryDE != "" {
		t.Fatalf("short mode must not summarize on persist, got %q", row.SummaryDE)
	}
}

func TestPersistAndDisplayCaps(t *testing.T) {
	t.Parallel()

	var articles []domain.RawArticle
	for i := 0; i < 25; i++ {
		articles = append(articles, article(fmt.Sprintf("Meldung Nummer %02d", i), fmt.Sprintf("https://example.com/%d", i)))
	}
	store := newFakeStore()
	p := newTestPipeline(&fakeSource{articles: articles}, store, &fakeEngine{}, nil)
	p.cfg.SimilarityThreshold = 1

	got, err := p.ShortDigest(context.Background())
	if err != nil {
		t.Fatalf("ShortDigest error: %v", err)
	}
	if len(store.rows) != 20 {
		t.Fatalf("expected 20 persisted articles, got %d", len(store.rows))
	}
	if n := strings.Count(got, "🗞️"); n != 5 {
		t.Fatalf("expected 5 digest entries, got %d:\n%s", n, got)
	}
	if !strings.Contains(got, "Zusammenfassung: Meldung Nummer 00") {
		t.Fatalf("expected first article summary, got:\n%s", got)
	}
}

func TestDegradedFallback(t *testing.T) {
	t.Parallel()

	links := []domain.ArticleLink{
		{Title: "Gestern gespeichert", URL: "https://example.com/a?x=1&y=2"},
		{Title: "Vorgestern gespeichert", URL: "https://example.com/b"},
	}
	failing := func() *fakeEngine { return &fakeEngine{fail: func(string) bool { return true }} }

	t.Run("store has articles", func(t *testing.T) {
		t.Parallel()
		store := newFakeStore()
		store.recent = links
		p := newTestPipeline(&fakeSource{articles: []domain.RawArticle{article("Hochwasser in Sachsen", "https://example.com/flut")}}, store, failing(), nil)

		for _, digest := range []func(context.Context) (string, error){p.ShortDigest, p.DeepDigest, p.MultilingualDigest} {
			got, err := digest(context.Background())
			if err != nil {
				t.Fatalf("unexpected error %v", err)
			}
			if got != FormatLinks(links) {
				t.Fatalf("expected fallback list, got %q", got)
			}
		}
		if !strings.Contains(FormatLinks(links), "x=1&amp;y=2") {
			t.Fatalf("expected escaped link, got %q", FormatLinks(links))
		}
		if !store.since.Equal(fixedNow.Add(-24*time.Hour)) || store.limit != 5 {
			t.Fatalf("unexpected fallback window since=%v limit=%d", store.since, store.limit)
		}
		if _, ok := store.rows["https://example.com/flut"]; !ok {
			t.Fatal("article must be stored even when summarization fails")
		}
	})

	t.Run("store empty", func(t *testing.T) {
		t.Parallel()
		store := newFakeStore()
		p := newTestPipeline(&fakeSource{articles: []domain.RawArticle{article("Hochwasser in Sachsen", "https://example.com/flut")}}, store, failing(), nil)

		got, err := p.ShortDigest(context.Background())
		if err != nil || got != NoNewsMessage {
			t.Fatalf("expected no-news message, got %q (%v)", got, err)
		}
	})

	t.Run("store read fails", func(t *testing.T) {
		t.Parallel()
		store := newFakeStore()
		store.recentErr = errors.New("timeout")
		p := newTestPipeline(&fakeSource{articles: []domain.RawArticle{article("Hochwasser in Sachsen", "https://example.com/flut")}}, store, failing(), nil)

		got, err := p.ShortDigest(context.Background())
		if err != nil || got != NoNewsMessage {
			t.Fatalf("expected no-news message, got %q (%v)", got, err)
		}
	})
}

func TestDeepDigestMarksSkippedArticles(t *testing.T) {
	t.Parallel()

	source := &fakeSource{articles: []domain.RawArticle{
		article("Bahnstreik legt Fernverkehr lahm", "https://example.com/bahn"),
		article("Inflation sinkt im Herbst deutlich", "https://example.com/inflation"),
	}}
	engine := &fakeEngine{fail: func(text string) bool { return strings.Contains(text, "Bahnstreik") }}
	store := newFakeStore()
	p := newTestPipeline(source, store, engine, nil)

	got, err := p.DeepDigest(context.Background())
	if err != nil {
		t.Fatalf("DeepDigest error: %v", err)
	}
	if !strings.Contains(got, "⚠️ Skipped") || !strings.Contains(got, "<b>Bahnstreik legt Fernverkehr lahm</b>") {
		t.Fatalf("expected skipped marker for failed article, got:\n%s", got)
	}
	if !strings.Contains(got, "📰 <b>Inflation sinkt im Herbst deutlich</b>\nZusammenfassung: Inflation sinkt im Herbst") {
		t.Fatalf("expected deep summary, got:\n%s", got)
	}
	if store.rows["https://example.com/inflation"].SummaryDE == "" {
		t.Fatal("deep mode must persist the base summary")
	}
	if store.rows["https://example.com/bahn"].SummaryDE != "" {
		t.Fatal("failed summary must not be persisted")
	}
}

func TestMultilingualTranslationFailureIsInline(t *testing.T) {
	t.Parallel()

	source := &fakeSource{articles: []domain.RawArticle{article("Inflation sinkt im Herbst deutlich", "https://example.com/inflation")}}
	translators := map[string]ports.TranslationEngine{
		"en": fakeTranslator{},
		"ru": fakeTranslator{err: errors.New("model unavailable")},
	}
	store := newFakeStore()
	p := newTestPipeline(source, store, &fakeEngine{}, translators)

	got, err := p.MultilingualDigest(context.Background())
	if err != nil {
		t.Fatalf("MultilingualDigest error: %v", err)
	}
	for _, want := range []string{
		"🇩🇪 <b>DE:</b> Zusammenfassung: Inflation",
		"🇬🇧 <b>EN:</b> [en] Zusammenfassung: Inflation",
		"⚠️ <b>RU:</b> translation unavailable",
		"🔗 https://example.com/inflation",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in digest:\n%s", want, got)
		}
	}

	row := store.rows["https://example.com/inflation"]
	if row.SummaryDE == "" || row.SummaryEN == "" || row.SummaryRU != "" {
		t.Fatalf("unexpected stored summaries: %+v", row)
	}
}

func TestMultilingualOmitsFailedBase(t *testing.T) {
	t.Parallel()

	source := &fakeSource{articles: []domain.RawArticle{
		article("Bahnstreik legt Fernverkehr lahm", "https://example.com/bahn"),
		article("Inflation sinkt im Herbst deutlich", "https://example.com/inflation"),
	}}
	engine := &fakeEngine{fail: func(text string) bool { return strings.Contains(text, "Bahnstreik") }}
	p := newTestPipeline(source, newFakeStore(), engine, map[string]ports.TranslationEngine{"en": fakeTranslator{}, "ru": fakeTranslator{}})

	got, err := p.MultilingualDigest(context.Background())
	if err != nil {
		t.Fatalf("MultilingualDigest error: %v", err)
	}
	if strings.Contains(got, "Bahnstreik") {
		t.Fatalf("article without base summary must be omitted:\n%s", got)
	}
	if !strings.Contains(got, "Inflation") {
		t.Fatalf("expected surviving article:\n%s", got)
	}
}

func TestRepeatedRunsStoreEachURLOnce(t *testing.T) {
	t.Parallel()

	source := &fakeSource{articles: []domain.RawArticle{
		article("Bahnstreik legt Fernverkehr lahm", "https://example.com/bahn"),
		article("Inflation sinkt im Herbst deutlich", "https://example.com/inflation"),
	}}
	store := newFakeStore()
	p := newTestPipeline(source, store, &fakeEngine{}, nil)

	first, err := p.ShortDigest(context.Background())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := p.DeepDigest(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if len(store.rows) != 2 || store.conflicts != 2 {
		t.Fatalf("expected 2 rows and 2 conflicts, got %d rows %d conflicts", len(store.rows), store.conflicts)
	}
	if first == NoNewsMessage || second == NoNewsMessage {
		t.Fatal("conflicts must not degrade the digest")
	}
	if strings.Count(second, "📰") != 2 {
		t.Fatalf("expected both articles in second digest:\n%s", second)
	}
}

func TestStoreErrorsDoNotAbortRun(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.saveErr = errors.New("connection reset")
	p := newTestPipeline(&fakeSource{articles: []domain.RawArticle{article("Inflation sinkt im Herbst deutlich", "https://example.com/inflation")}}, store, &fakeEngine{}, nil)

	got, err := p.ShortDigest(context.Background())
	if err != nil {
		t.Fatalf("ShortDigest error: %v", err)
	}
	if !strings.Contains(got, "Zusammenfassung: Inflation sinkt im Herbst") {
		t.Fatalf("expected digest despite store errors, got %q", got)
	}
}

func TestPeriodicDigestOverrides(t *testing.T) {
	t.Parallel()

	defaultSource := &fakeSource{articles: []domain.RawArticle{article("Hochwasser in Sachsen", "https://example.com/flut")}}
	defaultStore := newFakeStore()
	failing := &fakeEngine{fail: func(string) bool { return true }}
	p := newTestPipeline(defaultSource, defaultStore, failing, nil)

	source := &fakeSource{articles: []domain.RawArticle{article("Wahl in Frankreich entschieden", "https://example.com/wahl")}}
	store := newFakeStore()
	engine := &fakeEngine{}

	got, err := p.PeriodicDigest(context.Background(), PeriodicDeps{Source: source, Engine: engine, Store: store})
	if err != nil {
		t.Fatalf("PeriodicDigest error: %v", err)
	}
	if !strings.Contains(got, "Zusammenfassung: Wahl in Frankreich entschieden") {
		t.Fatalf("expected override engine output, got %q", got)
	}
	if defaultSource.calls != 0 || len(defaultStore.rows) != 0 || failing.calls != 0 {
		t.Fatal("defaults must not be used when overridden")
	}
	if _, ok := store.rows["https://example.com/wahl"]; !ok {
		t.Fatal("expected article in override store")
	}

	got, err = p.PeriodicDigest(context.Background(), PeriodicDeps{})
	if err != nil {
		t.Fatalf("PeriodicDigest defaults error: %v", err)
	}
	if got != NoNewsMessage || defaultSource.calls != 1 {
		t.Fatalf("expected default collaborators, got %q", got)
	}
}

func TestListings(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.counts = []domain.CategoryCount{{Category: "politics", Count: 3}}
	store.recent = []domain.ArticleLink{{Title: "Wahl", URL: "https://example.com/wahl"}}
	p := newTestPipeline(&fakeSource{}, store, &fakeEngine{}, nil)

	counts, err := p.ListCategoryCounts(context.Background(), 0)
	if err != nil || len(counts) != 1 {
		t.Fatalf("ListCategoryCounts = %v, %v", counts, err)
	}
	if !store.since.Equal(fixedNow.Add(-72 * time.Hour)) {
		t.Fatalf("unexpected category window since=%v", store.since)
	}

	links, err := p.ListByCategory(context.Background(), " Politics ", 0)
	if err != nil || len(links) != 1 {
		t.Fatalf("ListByCategory = %v, %v", links, err)
	}
	if store.category != "politics" || store.limit != 5 {
		t.Fatalf("unexpected query category=%q limit=%d", store.category, store.limit)
	}
}

func TestMissingCollaboratorsAreInternalErrors(t *testing.T) {
	t.Parallel()

	p := NewPipeline(PipelineDeps{}, config.DefaultPipeline())
	if _, err := p.ShortDigest(context.Background()); err == nil {
		t.Fatal("expected error without source")
	}
	if _, err := p.ListCategoryCounts(context.Background(), 0); err == nil {
		t.Fatal("expected error without store")
	}
}
