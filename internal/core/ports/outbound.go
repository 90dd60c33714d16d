package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/paper-checker/internal/core/domain"
)

// TextGenerator is the synchronous prompt -> text capability of a model backend.
// Blank responses are reported as domain.ErrTemporary.
type TextGenerator interface {
	Generate(ctx context.Context, req domain.GenerationRequest) (string, error)
	Model() string
}

// Pinger reports whether a collaborator is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Embedder builds vectors for query and document text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// LiteratureSearcher runs the three retrieval strategies. Each returns
// document ids in rank order.
type LiteratureSearcher interface {
	SearchSemantic(ctx context.Context, query string, limit int) ([]string, error)
	SearchHyDE(ctx context.Context, abstracts []string, limit int) ([]string, error)
	SearchKeyword(ctx context.Context, keywords []string, limit int) ([]string, error)
}

// DocumentFetcher resolves ids to full records. Missing ids are absent from the map.
type DocumentFetcher interface {
	FetchByIDs(ctx context.Context, ids []string) (map[string]domain.Document, error)
}

// RelevanceScorer rates how well a document answers a question on a 1..5 scale.
type RelevanceScorer interface {
	Evaluate(ctx context.Context, question string, doc domain.Document) (domain.RelevanceAssessment, error)
}

// CitationExtractor pulls verbatim supporting passages from scored documents.
type CitationExtractor interface {
	Extract(ctx context.Context, question string, docs []domain.ScoredDocument, scoreThreshold int, minRelevance float64) ([]domain.CitationCandidate, error)
}

// PaperCheckStore persists check results.
type PaperCheckStore interface {
	Save(ctx context.Context, result *domain.PaperCheckResult) (string, error)
	GetByID(ctx context.Context, id string) (*domain.PaperCheckResult, error)
	List(ctx context.Context, limit, offset int) ([]domain.PaperCheckSummary, error)
	Delete(ctx context.Context, id string) error
}

// EventPublisher announces completed checks.
type EventPublisher interface {
	PublishCheckCompleted(ctx context.Context, event domain.CheckCompletedEvent) error
}

// JobQueue carries asynchronous check requests.
type JobQueue interface {
	PublishCheckJob(ctx context.Context, job domain.CheckJob) error
	SubscribeCheckJobs(ctx context.Context, handler func(context.Context, domain.CheckJob) error) error
}

// EvidenceGraph records statement/evidence provenance for later exploration.
type EvidenceGraph interface {
	RecordCheck(ctx context.Context, result *domain.PaperCheckResult) error
}

// CheckObserver receives pipeline telemetry.
type CheckObserver interface {
	StartCheck()
	FinishCheck(duration time.Duration, err error)
	ObserveStage(stage string, duration time.Duration)
	ObserveVerdict(verdict domain.Verdict)
	ObserveStrategyFailure(strategy domain.SearchStrategy)
	ObserveDroppedCitations(n int)
}

// LiteratureIndexer loads corpus documents into the search indexes.
type LiteratureIndexer interface {
	Index(ctx context.Context, docs []domain.Document) error
}

// ResultExporter renders a result into a downloadable format.
type ResultExporter interface {
	Export(w io.Writer, result *domain.PaperCheckResult) error
	ContentType() string
}

// AbstractExtractor pulls abstract text out of an uploaded file.
type AbstractExtractor interface {
	ExtractAbstract(ctx context.Context, filename string, body io.Reader) (string, error)
}
