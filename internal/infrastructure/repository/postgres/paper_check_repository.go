package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/paper-checker/internal/core/domain"
)

type PaperCheckRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewPaperCheckRepository(db *sql.DB) *PaperCheckRepository {
	return &PaperCheckRepository{db: db, now: time.Now}
}

func (r *PaperCheckRepository) EnsureSchema(ctx context.Context) error {
	return ensureSchema(ctx, r.db, `
CREATE TABLE IF NOT EXISTS paper_checks (
	id TEXT PRIMARY KEY,
	source_title TEXT NOT NULL DEFAULT '',
	source_ref TEXT NOT NULL DEFAULT '',
	statement_count INT NOT NULL,
	overall_assessment TEXT NOT NULL,
	verdict_counts JSONB NOT NULL,
	result JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_paper_checks_created_at ON paper_checks(created_at DESC);
`)
}

// Save stores the result under a fresh id and returns it. The stored JSON
// carries the id in its metadata.
func (r *PaperCheckRepository) Save(ctx context.Context, result *domain.PaperCheckResult) (string, error) {
	if result == nil {
		return "", domain.InvalidInputf("save paper check", "nil result")
	}
	id := uuid.NewString()
	stored := *result
	stored.Metadata.CheckID = id

	payload, err := stored.ToJSON()
	if err != nil {
		return "", err
	}
	counts, err := json.Marshal(stored.VerdictCounts())
	if err != nil {
		return "", fmt.Errorf("marshal verdict counts: %w", err)
	}
	createdAt := stored.Metadata.CompletedAt
	if createdAt.IsZero() {
		createdAt = r.now().UTC()
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO paper_checks (id, source_title, source_ref, statement_count, overall_assessment, verdict_counts, result, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`,
		id, stored.SourceMetadata.Title, stored.SourceMetadata.Ref(), len(stored.Statements),
		stored.OverallAssessment, counts, payload, createdAt,
	)
	if err != nil {
		return "", fmt.Errorf("insert paper check: %w", err)
	}
	return id, nil
}

func (r *PaperCheckRepository) GetByID(ctx context.Context, id string) (*domain.PaperCheckResult, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx, `SELECT result FROM paper_checks WHERE id = $1`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get paper check", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("select paper check: %w", err)
	}
	return domain.DecodePaperCheckResult(payload)
}

// List returns summaries, newest first.
func (r *PaperCheckRepository) List(ctx context.Context, limit, offset int) ([]domain.PaperCheckSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, source_title, source_ref, statement_count, overall_assessment, verdict_counts, created_at
FROM paper_checks
ORDER BY created_at DESC, id
LIMIT $1 OFFSET $2
`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list paper checks: %w", err)
	}
	defer rows.Close()

	out := make([]domain.PaperCheckSummary, 0, limit)
	for rows.Next() {
		var (
			s         domain.PaperCheckSummary
			countsRaw []byte
		)
		if err := rows.Scan(&s.ID, &s.SourceTitle, &s.SourceRef, &s.StatementCount, &s.OverallAssessment, &countsRaw, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan paper check summary: %w", err)
		}
		if err := json.Unmarshal(countsRaw, &s.VerdictCounts); err != nil {
			return nil, fmt.Errorf("unmarshal verdict counts: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate paper checks: %w", err)
	}
	return out, nil
}

func (r *PaperCheckRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM paper_checks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete paper check: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete paper check rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrNotFound, "delete paper check", fmt.Errorf("id=%s", id))
	}
	return nil
}

func (r *PaperCheckRepository) Ping(ctx context.Context) error {
	if r == nil || r.db == nil {
		return domain.WrapError(domain.ErrResourceUnavailable, "postgres ping", errors.New("database not configured"))
	}
	if err := r.db.PingContext(ctx); err != nil {
		return domain.WrapError(domain.ErrResourceUnavailable, "postgres ping", err)
	}
	return nil
}
