package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kirillkom/paper-checker/internal/core/domain"
)

// LiteratureRepository stores the searchable literature corpus. Full-text
// search runs over a generated tsvector of title and abstract.
type LiteratureRepository struct {
	db *sql.DB
}

func NewLiteratureRepository(db *sql.DB) *LiteratureRepository {
	return &LiteratureRepository{db: db}
}

func (r *LiteratureRepository) EnsureSchema(ctx context.Context) error {
	return ensureSchema(ctx, r.db, `
CREATE TABLE IF NOT EXISTS literature_documents (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL DEFAULT '',
	abstract TEXT NOT NULL DEFAULT '',
	authors JSONB NOT NULL DEFAULT '[]'::jsonb,
	publication_date DATE,
	journal TEXT,
	pmid TEXT,
	doi TEXT,
	source TEXT NOT NULL DEFAULT '',
	search_vector tsvector GENERATED ALWAYS AS (
		to_tsvector('english', coalesce(title, '') || ' ' || coalesce(abstract, ''))
	) STORED
);

CREATE INDEX IF NOT EXISTS idx_literature_search ON literature_documents USING GIN (search_vector);
CREATE INDEX IF NOT EXISTS idx_literature_pmid ON literature_documents(pmid);
`)
}

func (r *LiteratureRepository) Upsert(ctx context.Context, docs []domain.Document) error {
	if len(docs) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, doc := range docs {
		authors, err := json.Marshal(nonNilAuthors(doc.Authors))
		if err != nil {
			return fmt.Errorf("marshal authors: %w", err)
		}
		var published sql.NullTime
		if doc.PublicationDate != nil {
			published = sql.NullTime{Time: *doc.PublicationDate, Valid: true}
		}
		_, err = tx.ExecContext(ctx, `
INSERT INTO literature_documents (id, title, abstract, authors, publication_date, journal, pmid, doi, source)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (id) DO UPDATE SET
	title = EXCLUDED.title,
	abstract = EXCLUDED.abstract,
	authors = EXCLUDED.authors,
	publication_date = EXCLUDED.publication_date,
	journal = EXCLUDED.journal,
	pmid = EXCLUDED.pmid,
	doi = EXCLUDED.doi,
	source = EXCLUDED.source
`,
			doc.ID, doc.Title, doc.Abstract, authors, published,
			nullString(doc.Journal), nullString(doc.PMID), nullString(doc.DOI), doc.Source,
		)
		if err != nil {
			return fmt.Errorf("upsert literature document %s: %w", doc.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert tx: %w", err)
	}
	return nil
}

// SearchKeyword OR-joins the keywords into a websearch query and ranks
// matches by cover density.
func (r *LiteratureRepository) SearchKeyword(ctx context.Context, keywords []string, limit int) ([]string, error) {
	query := KeywordQuery(keywords)
	if query == "" || limit <= 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id
FROM literature_documents
WHERE search_vector @@ websearch_to_tsquery('english', $1)
ORDER BY ts_rank_cd(search_vector, websearch_to_tsquery('english', $1)) DESC, id
LIMIT $2
`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0, limit)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan keyword hit: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate keyword hits: %w", err)
	}
	return ids, nil
}

// KeywordQuery renders keywords in websearch_to_tsquery syntax. Multi-word
// keywords become quoted phrases.
func KeywordQuery(keywords []string) string {
	parts := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.Join(strings.Fields(strings.NewReplacer(`"`, " ", "-", " ").Replace(kw)), " ")
		if kw == "" || strings.EqualFold(kw, "or") {
			continue
		}
		if strings.Contains(kw, " ") {
			kw = `"` + kw + `"`
		}
		parts = append(parts, kw)
	}
	return strings.Join(parts, " or ")
}

// FetchByIDs returns the records that exist; unknown ids are absent.
func (r *LiteratureRepository) FetchByIDs(ctx context.Context, ids []string) (map[string]domain.Document, error) {
	out := make(map[string]domain.Document, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, title, abstract, authors, publication_date, journal, pmid, doi, source
FROM literature_documents
WHERE id IN (`+placeholders(1, len(ids))+`)
`, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch literature documents: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out[doc.ID] = doc
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate literature documents: %w", err)
	}
	return out, nil
}

func (r *LiteratureRepository) Ping(ctx context.Context) error {
	if r == nil || r.db == nil {
		return domain.WrapError(domain.ErrResourceUnavailable, "postgres ping", errors.New("database not configured"))
	}
	if err := r.db.PingContext(ctx); err != nil {
		return domain.WrapError(domain.ErrResourceUnavailable, "postgres ping", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (domain.Document, error) {
	var (
		doc        domain.Document
		authorsRaw []byte
		published  sql.NullTime
		journal    sql.NullString
		pmid       sql.NullString
		doi        sql.NullString
	)
	if err := row.Scan(&doc.ID, &doc.Title, &doc.Abstract, &authorsRaw, &published, &journal, &pmid, &doi, &doc.Source); err != nil {
		return domain.Document{}, fmt.Errorf("scan literature document: %w", err)
	}
	if len(authorsRaw) > 0 {
		if err := json.Unmarshal(authorsRaw, &doc.Authors); err != nil {
			return domain.Document{}, fmt.Errorf("unmarshal authors: %w", err)
		}
	}
	if published.Valid {
		t := published.Time
		doc.PublicationDate = &t
	}
	doc.Journal = domain.Ptr(journal.String)
	doc.PMID = domain.Ptr(pmid.String)
	doc.DOI = domain.Ptr(doi.String)
	return doc, nil
}

func nullString(s *string) sql.NullString {
	v := domain.Deref(s)
	return sql.NullString{String: v, Valid: v != ""}
}

func nonNilAuthors(authors []string) []string {
	if authors == nil {
		return []string{}
	}
	return authors
}
