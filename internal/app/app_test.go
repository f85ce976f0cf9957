package app

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"NewsDigest/internal/config"
	"NewsDigest/internal/infrastructure/llm"
	"NewsDigest/internal/infrastructure/ml"
)

func TestBuildEngines(t *testing.T) {
	t.Parallel()

	cfg := config.Config{
		ML:      config.MLConfig{InferenceURL: "http://localhost:8000"},
		ChatGPT: config.ChatGPTConfig{Model: "gpt-4o-mini", APIKey: "key"},
		Engine:  config.EngineConfig{BaseLang: "de", Targets: []string{"en", "ru"}},
	}

	cfg.Engine.Backend = config.BackendML
	engine, translators := buildEngines(cfg)
	if _, ok := engine.(*ml.Client); !ok {
		t.Fatalf("expected ml client, got %T", engine)
	}
	if len(translators) != 2 {
		t.Fatalf("expected a translator per target, got %d", len(translators))
	}

	cfg.Engine.Backend = config.BackendChatGPT
	engine, translators = buildEngines(cfg)
	if _, ok := engine.(*llm.ChatGPTClient); !ok {
		t.Fatalf("expected chatgpt client, got %T", engine)
	}
	if _, ok := translators["ru"].(*llm.ChatGPTClient); !ok {
		t.Fatalf("expected chatgpt translator, got %T", translators["ru"])
	}

	cfg.Engine.Backend = config.BackendNone
	engine, translators = buildEngines(cfg)
	if engine != nil || len(translators) != 0 {
		t.Fatalf("expected no engines, got %T %v", engine, translators)
	}
}

func TestSummaryOptionsFollowPipelineConfig(t *testing.T) {
	t.Parallel()

	cfg := config.Config{
		Pipeline: config.DefaultPipeline(),
		Engine:   config.EngineConfig{BaseLang: "de", Targets: []string{"en", "ru"}},
	}
	opts := summaryOptions(cfg)
	if opts.MaxChars != 1800 || opts.MinWords != 30 || opts.TitleMaxLen != 50 || opts.BaseLang != "de" {
		t.Fatalf("unexpected options %+v", opts)
	}
	if !reflect.DeepEqual(opts.Targets, []string{"en", "ru"}) {
		t.Fatalf("unexpected targets %v", opts.Targets)
	}
}

func TestMetricsServer(t *testing.T) {
	t.Parallel()

	if srv := newMetricsServer(""); srv != nil {
		t.Fatalf("empty address must disable the metrics server")
	}

	srv := newMetricsServer(":0")
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Fatalf("expected default collectors in output")
	}
}
