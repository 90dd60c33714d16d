// Package qdrant indexes literature embeddings in a Qdrant collection and
// answers nearest-neighbour queries with document ids.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/paper-checker/internal/core/domain"
	"github.com/kirillkom/paper-checker/internal/infrastructure/resilience"
)

// Hit is one nearest-neighbour match.
type Hit struct {
	DocID string
	Score float64
}

type Client struct {
	baseURL    string
	collection string
	httpClient *http.Client
	executor   *resilience.Executor

	ensureMu          sync.Mutex
	ensuredCollection bool
	ensuredVectorSize int
}

func New(baseURL, collection string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		executor:   executor,
	}
}

// PointID maps a literature id onto a stable Qdrant point id so re-ingesting
// a record overwrites its vector.
func PointID(docID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("literature:"+docID)).String()
}

func (c *Client) UpsertDocuments(ctx context.Context, docs []domain.Document, vectors [][]float32) error {
	if len(docs) == 0 {
		return nil
	}
	if len(docs) != len(vectors) {
		return fmt.Errorf("qdrant upsert: %d documents for %d vectors", len(docs), len(vectors))
	}
	if err := c.ensureCollection(ctx, len(vectors[0])); err != nil {
		return err
	}

	type point struct {
		ID      string         `json:"id"`
		Vector  []float32      `json:"vector"`
		Payload map[string]any `json:"payload"`
	}
	points := make([]point, 0, len(docs))
	for i, doc := range docs {
		points = append(points, point{
			ID:     PointID(doc.ID),
			Vector: vectors[i],
			Payload: map[string]any{
				"doc_id": doc.ID,
				"title":  doc.Title,
				"source": doc.Source,
			},
		})
	}

	url := fmt.Sprintf("%s/collections/%s/points?wait=true", c.baseURL, c.collection)
	return c.executeDo(ctx, "qdrant.upsert", http.MethodPut, url, map[string]any{"points": points}, nil)
}

// Search returns up to limit documents ordered by descending similarity.
func (c *Client) Search(ctx context.Context, vector []float32, limit int) ([]Hit, error) {
	if len(vector) == 0 || limit <= 0 {
		return nil, nil
	}
	reqBody := map[string]any{
		"query":        vector,
		"limit":        limit,
		"with_payload": []string{"doc_id"},
	}
	var resp struct {
		Result struct {
			Points []struct {
				Score   float64        `json:"score"`
				Payload map[string]any `json:"payload"`
			} `json:"points"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/query", c.baseURL, c.collection)
	if err := c.executeDo(ctx, "qdrant.search", http.MethodPost, url, reqBody, &resp); err != nil {
		return nil, err
	}

	out := make([]Hit, 0, len(resp.Result.Points))
	for _, p := range resp.Result.Points {
		id := getStringPayload(p.Payload, "doc_id")
		if id == "" {
			continue
		}
		out = append(out, Hit{DocID: id, Score: p.Score})
	}
	return out, nil
}

// Ping checks that the collection exists.
func (c *Client) Ping(ctx context.Context) error {
	url := fmt.Sprintf("%s/collections/%s", c.baseURL, c.collection)
	if err := c.do(ctx, http.MethodGet, url, nil, nil); err != nil {
		return domain.WrapError(domain.ErrResourceUnavailable, "qdrant ping", err)
	}
	return nil
}

func (c *Client) ensureCollection(ctx context.Context, vectorSize int) error {
	c.ensureMu.Lock()
	if c.ensuredCollection && c.ensuredVectorSize == vectorSize {
		c.ensureMu.Unlock()
		return nil
	}
	c.ensureMu.Unlock()

	reqBody := map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	}
	url := fmt.Sprintf("%s/collections/%s", c.baseURL, c.collection)
	err := c.do(ctx, http.MethodPut, url, reqBody, nil)
	var statusErr *resilience.StatusError
	// 409 means the collection already exists.
	if err != nil && !(errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusConflict) {
		return fmt.Errorf("qdrant ensure collection: %w", err)
	}
	c.ensureMu.Lock()
	c.ensuredCollection = true
	c.ensuredVectorSize = vectorSize
	c.ensureMu.Unlock()
	return nil
}

func (c *Client) executeDo(ctx context.Context, op, method, url string, body, out any) error {
	err := c.executor.Execute(ctx, op, func(ctx context.Context) error {
		return c.do(ctx, method, url, body, out)
	}, resilience.ClassifyHTTP)
	return resilience.MarkTemporary(op, err, resilience.ClassifyHTTP)
}

func (c *Client) do(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal qdrant request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("create qdrant request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return resilience.NewStatusError("qdrant", method, resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode qdrant response: %w", err)
	}
	return nil
}

func getStringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
