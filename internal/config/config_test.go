package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LLM_BACKEND", "")
	t.Setenv("PIPELINE_CONFIG_PATH", "")
	t.Setenv("API_CHECK_TIMEOUT", "")
	t.Setenv("RETRY_MAX_ATTEMPTS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LLMBackend != "ollama" {
		t.Fatalf("expected ollama backend, got %q", cfg.LLMBackend)
	}
	if cfg.NATSJobsSubject != "papercheck.jobs" || cfg.NATSEventsSubject != "papercheck.completed" {
		t.Fatalf("unexpected subjects: %q %q", cfg.NATSJobsSubject, cfg.NATSEventsSubject)
	}
	if cfg.CheckTimeout != 10*time.Minute {
		t.Fatalf("expected default check timeout, got %s", cfg.CheckTimeout)
	}
	if cfg.Resilience.RetryMaxAttempts != 3 || !cfg.Resilience.BreakerEnabled {
		t.Fatalf("unexpected resilience defaults: %+v", cfg.Resilience)
	}
	if cfg.Pipeline.Scoring.Threshold != 3 || cfg.Pipeline.HyDE.NumAbstracts != 2 {
		t.Fatalf("expected default pipeline config, got %+v", cfg.Pipeline)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LLM_BACKEND", "OpenAI")
	t.Setenv("API_RATE_LIMIT_RPS", "2.5")
	t.Setenv("API_CHECK_TIMEOUT", "90s")
	t.Setenv("BREAKER_ENABLED", "false")
	t.Setenv("CITATION_WORKERS", "8")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LLMBackend != "openai" {
		t.Fatalf("expected openai backend, got %q", cfg.LLMBackend)
	}
	if cfg.RateLimitRPS != 2.5 {
		t.Fatalf("expected rps 2.5, got %v", cfg.RateLimitRPS)
	}
	if cfg.CheckTimeout != 90*time.Second {
		t.Fatalf("expected 90s timeout, got %s", cfg.CheckTimeout)
	}
	if cfg.Resilience.BreakerEnabled {
		t.Fatalf("expected breaker disabled")
	}
	if cfg.CitationWorkers != 8 {
		t.Fatalf("expected 8 citation workers, got %d", cfg.CitationWorkers)
	}
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("API_MAX_IN_FLIGHT", "many")
	t.Setenv("WORKER_JOB_TIMEOUT", "soon")
	t.Setenv("RETRY_MULTIPLIER", "x2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MaxInFlight != 8 {
		t.Fatalf("expected fallback max in flight, got %d", cfg.MaxInFlight)
	}
	if cfg.WorkerJobTimeout != 15*time.Minute {
		t.Fatalf("expected fallback job timeout, got %s", cfg.WorkerJobTimeout)
	}
	if cfg.Resilience.RetryMultiplier != 2 {
		t.Fatalf("expected fallback multiplier, got %v", cfg.Resilience.RetryMultiplier)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("LLM_BACKEND", "bard")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestLoadPipelineFileOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	content := `
scoring:
  threshold: 4
  max_citations: 6
search:
  strategy_timeout: 45s
hyde:
  num_abstracts: 0
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write pipeline file: %v", err)
	}

	cfg, err := LoadPipelineFile(path)
	if err != nil {
		t.Fatalf("LoadPipelineFile() error = %v", err)
	}
	if cfg.Scoring.Threshold != 4 || cfg.Scoring.MaxCitations != 6 {
		t.Fatalf("expected overlaid scoring config, got %+v", cfg.Scoring)
	}
	if cfg.Search.StrategyTimeout != 45*time.Second {
		t.Fatalf("expected 45s strategy timeout, got %s", cfg.Search.StrategyTimeout)
	}
	if cfg.Scoring.BatchSize != 20 {
		t.Fatalf("expected untouched default batch size, got %d", cfg.Scoring.BatchSize)
	}
	if cfg.HyDE.NumAbstracts != 2 {
		t.Fatalf("expected normalized hyde abstracts, got %d", cfg.HyDE.NumAbstracts)
	}
}

func TestLoadPipelineFileRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	if err := os.WriteFile(path, []byte("scoring:\n  treshold: 4\n"), 0o600); err != nil {
		t.Fatalf("write pipeline file: %v", err)
	}
	if _, err := LoadPipelineFile(path); err == nil {
		t.Fatalf("expected error for misspelled key")
	}
}

func TestLoadPipelineFileMissing(t *testing.T) {
	t.Setenv("PIPELINE_CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yaml"))
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing pipeline file")
	}
}
