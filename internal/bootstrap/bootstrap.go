package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/paper-checker/internal/config"
	"github.com/kirillkom/paper-checker/internal/core/ports"
	"github.com/kirillkom/paper-checker/internal/core/usecase"
	"github.com/kirillkom/paper-checker/internal/infrastructure/export/xlsx"
	"github.com/kirillkom/paper-checker/internal/infrastructure/extractor"
	"github.com/kirillkom/paper-checker/internal/infrastructure/graph/neo4j"
	"github.com/kirillkom/paper-checker/internal/infrastructure/literature"
	"github.com/kirillkom/paper-checker/internal/infrastructure/llm/evaluator"
	"github.com/kirillkom/paper-checker/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/paper-checker/internal/infrastructure/llm/openai"
	"github.com/kirillkom/paper-checker/internal/infrastructure/llm/throttle"
	"github.com/kirillkom/paper-checker/internal/infrastructure/queue/nats"
	"github.com/kirillkom/paper-checker/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/paper-checker/internal/infrastructure/resilience"
	"github.com/kirillkom/paper-checker/internal/infrastructure/vector/qdrant"
	"github.com/kirillkom/paper-checker/internal/observability/metrics"
)

const evaluatorTemperature = 0.1

// Options selects the optional parts of the graph.
type Options struct {
	// Service labels the check metrics.
	Service string
	// Registerer receives check metrics; nil disables them.
	Registerer prometheus.Registerer
	// WithQueue connects to NATS for job submission and completion events.
	WithQueue bool
}

type App struct {
	Config config.Config

	Checker   *usecase.PaperCheckService
	Queries   *usecase.PaperCheckQueries
	Jobs      *usecase.CheckJobsUseCase
	Ingest    *usecase.IngestCorpusUseCase
	Queue     *nats.Queue
	Extractor *extractor.Extractor
	Exporter  *xlsx.Exporter
	Executor  *resilience.Executor

	closeFns []func()
}

func New(ctx context.Context, cfg config.Config, opts Options) (_ *App, err error) {
	app := &App{Config: cfg}
	defer func() {
		if err != nil {
			app.Close()
		}
	}()

	executor := resilience.NewExecutor(cfg.Resilience)
	app.Executor = executor

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	app.onClose(func() { _ = db.Close() })

	literatureRepo := postgres.NewLiteratureRepository(db)
	if err := literatureRepo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure literature schema: %w", err)
	}
	checkRepo := postgres.NewPaperCheckRepository(db)
	if err := checkRepo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure paper check schema: %w", err)
	}

	ollamaClient := ollama.NewWithOptions(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, ollama.Options{
		ResilienceExecutor: executor,
	})
	generator, err := newGenerator(cfg, ollamaClient, executor)
	if err != nil {
		return nil, err
	}
	generator = throttle.Wrap(generator, cfg.LLMRateLimitRPS, cfg.LLMRateBurst)

	vectors := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection, executor)
	store := literature.NewStore(ollamaClient, vectors, literatureRepo, literature.Options{CacheTTL: cfg.CacheTTL})

	deps := usecase.PaperCheckDeps{
		Generator: generator,
		Searcher:  store,
		Fetcher:   store,
		Scorer:    evaluator.NewRelevanceScorer(generator, evaluatorTemperature),
		Citations: evaluator.NewCitationExtractor(generator, evaluatorTemperature, cfg.CitationWorkers),
		Store:     checkRepo,
	}

	if cfg.Neo4jURI != "" {
		graph, err := neo4j.New(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword, cfg.Neo4jDatabase)
		if err != nil {
			return nil, fmt.Errorf("init evidence graph: %w", err)
		}
		app.onClose(func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = graph.Close(closeCtx)
		})
		deps.Graph = graph
	}

	if opts.WithQueue {
		queue, err := nats.NewWithOptions(cfg.NATSURL, nats.Options{
			JobsSubject:        cfg.NATSJobsSubject,
			EventsSubject:      cfg.NATSEventsSubject,
			ResilienceExecutor: executor,
		})
		if err != nil {
			return nil, fmt.Errorf("init message queue: %w", err)
		}
		app.onClose(queue.Close)
		app.Queue = queue
		deps.Events = queue
	}

	if opts.Registerer != nil {
		service := opts.Service
		if service == "" {
			service = "papercheck"
		}
		deps.Observer = metrics.NewCheckMetrics(service, opts.Registerer)
	}

	app.Checker = usecase.NewPaperCheckService(cfg.Pipeline, deps)
	app.Queries = usecase.NewPaperCheckQueries(checkRepo)
	app.Ingest = usecase.NewIngestCorpusUseCase(store, extractor.StripMarkup)
	app.Extractor = extractor.New()
	app.Exporter = xlsx.NewExporter()
	if app.Queue != nil {
		app.Jobs = usecase.NewCheckJobsUseCase(app.Queue, app.Checker)
	}

	slog.Info("app_initialized",
		"llm_backend", cfg.LLMBackend,
		"model", generator.Model(),
		"queue", app.Queue != nil,
		"graph", deps.Graph != nil,
	)
	return app, nil
}

func newGenerator(cfg config.Config, ollamaClient *ollama.Client, executor *resilience.Executor) (ports.TextGenerator, error) {
	if cfg.LLMBackend != "openai" {
		return ollamaClient, nil
	}
	generator, err := openai.NewGenerator(openai.Config{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModel,
	}, executor)
	if err != nil {
		return nil, fmt.Errorf("init openai generator: %w", err)
	}
	return generator, nil
}

func (a *App) onClose(fn func()) {
	a.closeFns = append(a.closeFns, fn)
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closeFns) - 1; i >= 0; i-- {
		a.closeFns[i]()
	}
	a.closeFns = nil
}
