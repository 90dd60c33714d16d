package literature

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/kirillkom/paper-checker/internal/core/domain"
	"github.com/kirillkom/paper-checker/internal/infrastructure/vector/qdrant"
)

type fakeEmbedder struct {
	batches [][]string
}

func (e *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.batches = append(e.batches, texts)
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i)}
	}
	return out, nil
}

func (e *fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return []float32{-1}, nil
}

// fakeIndex returns the hit list keyed by the first vector component.
type fakeIndex struct {
	byVector map[float32][]qdrant.Hit
	upserted []string
	pingErr  error
}

func (i *fakeIndex) Search(_ context.Context, vector []float32, limit int) ([]qdrant.Hit, error) {
	return i.byVector[vector[0]], nil
}

func (i *fakeIndex) UpsertDocuments(_ context.Context, docs []domain.Document, vectors [][]float32) error {
	for _, d := range docs {
		i.upserted = append(i.upserted, d.ID)
	}
	return nil
}

func (i *fakeIndex) Ping(context.Context) error { return i.pingErr }

type fakeCorpus struct {
	docs       map[string]domain.Document
	fetchCalls [][]string
	upserted   int
}

func (c *fakeCorpus) SearchKeyword(context.Context, []string, int) ([]string, error) {
	return []string{"k1"}, nil
}

func (c *fakeCorpus) FetchByIDs(_ context.Context, ids []string) (map[string]domain.Document, error) {
	c.fetchCalls = append(c.fetchCalls, ids)
	out := map[string]domain.Document{}
	for _, id := range ids {
		if d, ok := c.docs[id]; ok {
			out[id] = d
		}
	}
	return out, nil
}

func (c *fakeCorpus) Upsert(_ context.Context, docs []domain.Document) error {
	c.upserted += len(docs)
	for _, d := range docs {
		c.docs[d.ID] = d
	}
	return nil
}

func (c *fakeCorpus) Ping(context.Context) error { return nil }

func hits(ids ...string) []qdrant.Hit {
	out := make([]qdrant.Hit, len(ids))
	for i, id := range ids {
		out[i] = qdrant.Hit{DocID: id, Score: 1 - float64(i)/10}
	}
	return out
}

func TestSearchSemanticUsesQueryEmbedding(t *testing.T) {
	index := &fakeIndex{byVector: map[float32][]qdrant.Hit{-1: hits("a", "b", "a", "c")}}
	store := NewStore(&fakeEmbedder{}, index, &fakeCorpus{}, Options{})

	got, err := store.SearchSemantic(context.Background(), "claim", 2)
	if err != nil {
		t.Fatalf("SearchSemantic() error = %v", err)
	}
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("unexpected ids %v", got)
	}
}

func TestSearchHyDEFusesListsWithOneEmbeddingBatch(t *testing.T) {
	embedder := &fakeEmbedder{}
	index := &fakeIndex{byVector: map[float32][]qdrant.Hit{
		0: hits("x", "shared", "y"),
		1: hits("shared", "z"),
	}}
	store := NewStore(embedder, index, &fakeCorpus{}, Options{})

	got, err := store.SearchHyDE(context.Background(), []string{"abstract one", "abstract two"}, 3)
	if err != nil {
		t.Fatalf("SearchHyDE() error = %v", err)
	}
	if len(embedder.batches) != 1 || len(embedder.batches[0]) != 2 {
		t.Fatalf("expected one embedding batch, got %v", embedder.batches)
	}
	if !reflect.DeepEqual(got, []string{"shared", "x", "z"}) {
		t.Fatalf("unexpected fused ids %v", got)
	}
}

func TestFuseRRFTieBreaksByID(t *testing.T) {
	got := fuseRRF([][]qdrant.Hit{hits("b"), hits("a")}, 60)
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("expected id tie-break, got %v", got)
	}
}

func TestFetchByIDsCachesRecords(t *testing.T) {
	corpus := &fakeCorpus{docs: map[string]domain.Document{
		"a": {ID: "a", Title: "A"},
		"b": {ID: "b", Title: "B"},
	}}
	store := NewStore(&fakeEmbedder{}, &fakeIndex{}, corpus, Options{})

	first, err := store.FetchByIDs(context.Background(), []string{"a", "missing"})
	if err != nil || len(first) != 1 {
		t.Fatalf("FetchByIDs() = %v, %v", first, err)
	}
	second, err := store.FetchByIDs(context.Background(), []string{"a", "b", "a"})
	if err != nil || len(second) != 2 {
		t.Fatalf("FetchByIDs() = %v, %v", second, err)
	}
	if len(corpus.fetchCalls) != 2 || !reflect.DeepEqual(corpus.fetchCalls[1], []string{"b"}) {
		t.Fatalf("expected only cache misses to hit the corpus, got %v", corpus.fetchCalls)
	}
}

func TestIndexWritesCorpusAndVectorsAndEvictsCache(t *testing.T) {
	corpus := &fakeCorpus{docs: map[string]domain.Document{"a": {ID: "a", Title: "old"}}}
	index := &fakeIndex{}
	store := NewStore(&fakeEmbedder{}, index, corpus, Options{})

	if _, err := store.FetchByIDs(context.Background(), []string{"a"}); err != nil {
		t.Fatalf("FetchByIDs() error = %v", err)
	}
	if err := store.Index(context.Background(), []domain.Document{{ID: "a", Title: "new"}}); err != nil {
		t.Fatalf("Index() error = %v", err)
	}
	if corpus.upserted != 1 || !reflect.DeepEqual(index.upserted, []string{"a"}) {
		t.Fatalf("expected corpus and vector writes, got %d %v", corpus.upserted, index.upserted)
	}
	got, _ := store.FetchByIDs(context.Background(), []string{"a"})
	if got["a"].Title != "new" {
		t.Fatalf("expected refreshed record after indexing, got %+v", got["a"])
	}
}

func TestPingJoinsFailures(t *testing.T) {
	store := NewStore(&fakeEmbedder{}, &fakeIndex{pingErr: errors.New("qdrant down")}, &fakeCorpus{}, Options{})
	if err := store.Ping(context.Background()); err == nil {
		t.Fatalf("expected ping failure")
	}
}
