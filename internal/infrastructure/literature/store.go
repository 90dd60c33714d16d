// Package literature composes the embedder, the vector index and the
// relational corpus into the searchable document store used by the pipeline.
package literature

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/kirillkom/paper-checker/internal/core/domain"
	"github.com/kirillkom/paper-checker/internal/core/ports"
	"github.com/kirillkom/paper-checker/internal/infrastructure/vector/qdrant"
)

type VectorIndex interface {
	Search(ctx context.Context, vector []float32, limit int) ([]qdrant.Hit, error)
	UpsertDocuments(ctx context.Context, docs []domain.Document, vectors [][]float32) error
	Ping(ctx context.Context) error
}

type Corpus interface {
	SearchKeyword(ctx context.Context, keywords []string, limit int) ([]string, error)
	FetchByIDs(ctx context.Context, ids []string) (map[string]domain.Document, error)
	Upsert(ctx context.Context, docs []domain.Document) error
	Ping(ctx context.Context) error
}

type Options struct {
	CacheTTL time.Duration
	RRFK     int
}

type Store struct {
	embedder ports.Embedder
	index    VectorIndex
	corpus   Corpus
	cache    *gocache.Cache
	rrfK     int
}

func NewStore(embedder ports.Embedder, index VectorIndex, corpus Corpus, opts Options) *Store {
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Store{
		embedder: embedder,
		index:    index,
		corpus:   corpus,
		cache:    gocache.New(ttl, 2*ttl),
		rrfK:     opts.RRFK,
	}
}

func (s *Store) SearchSemantic(ctx context.Context, query string, limit int) ([]string, error) {
	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	hits, err := s.index.Search(ctx, vector, limit)
	if err != nil {
		return nil, fmt.Errorf("semantic search: %w", err)
	}
	return trimIDs(hitIDs(hits), limit), nil
}

// SearchHyDE embeds every hypothetical abstract in one batch, searches each
// and fuses the ranked lists.
func (s *Store) SearchHyDE(ctx context.Context, abstracts []string, limit int) ([]string, error) {
	if len(abstracts) == 0 {
		return nil, nil
	}
	vectors, err := s.embedder.Embed(ctx, abstracts)
	if err != nil {
		return nil, fmt.Errorf("embed hyde abstracts: %w", err)
	}
	lists := make([][]qdrant.Hit, 0, len(vectors))
	for _, vector := range vectors {
		hits, err := s.index.Search(ctx, vector, limit)
		if err != nil {
			return nil, fmt.Errorf("hyde search: %w", err)
		}
		lists = append(lists, hits)
	}
	return trimIDs(fuseRRF(lists, s.rrfK), limit), nil
}

func (s *Store) SearchKeyword(ctx context.Context, keywords []string, limit int) ([]string, error) {
	ids, err := s.corpus.SearchKeyword(ctx, keywords, limit)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	return ids, nil
}

// FetchByIDs serves cached records and loads the rest in one query.
func (s *Store) FetchByIDs(ctx context.Context, ids []string) (map[string]domain.Document, error) {
	out := make(map[string]domain.Document, len(ids))
	var misses []string
	for _, id := range ids {
		if _, ok := out[id]; ok {
			continue
		}
		if cached, ok := s.cache.Get(id); ok {
			out[id] = cached.(domain.Document)
			continue
		}
		misses = append(misses, id)
	}
	if len(misses) == 0 {
		return out, nil
	}

	loaded, err := s.corpus.FetchByIDs(ctx, misses)
	if err != nil {
		return nil, fmt.Errorf("fetch documents: %w", err)
	}
	for id, doc := range loaded {
		s.cache.SetDefault(id, doc)
		out[id] = doc
	}
	return out, nil
}

// Index writes records to the corpus and their title+abstract embeddings to
// the vector index.
func (s *Store) Index(ctx context.Context, docs []domain.Document) error {
	if len(docs) == 0 {
		return nil
	}
	if err := s.corpus.Upsert(ctx, docs); err != nil {
		return fmt.Errorf("upsert corpus: %w", err)
	}
	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = strings.TrimSpace(doc.Title + "\n\n" + doc.Abstract)
	}
	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed documents: %w", err)
	}
	if err := s.index.UpsertDocuments(ctx, docs, vectors); err != nil {
		return fmt.Errorf("index vectors: %w", err)
	}
	for _, doc := range docs {
		s.cache.Delete(doc.ID)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return errors.Join(s.corpus.Ping(ctx), s.index.Ping(ctx))
}

func hitIDs(hits []qdrant.Hit) []string {
	out := make([]string, 0, len(hits))
	seen := make(map[string]struct{}, len(hits))
	for _, h := range hits {
		if _, dup := seen[h.DocID]; dup {
			continue
		}
		seen[h.DocID] = struct{}{}
		out = append(out, h.DocID)
	}
	return out
}
