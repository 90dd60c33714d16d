// Package ollama talks to an Ollama server for text generation and embeddings.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/paper-checker/internal/core/domain"
	"github.com/kirillkom/paper-checker/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	genModel   string
	embedModel string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Options struct {
	Timeout            time.Duration
	ResilienceExecutor *resilience.Executor
}

func New(baseURL, genModel, embedModel string) *Client {
	return NewWithOptions(baseURL, genModel, embedModel, Options{})
}

func NewWithOptions(baseURL, genModel, embedModel string, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		genModel:   genModel,
		embedModel: embedModel,
		httpClient: &http.Client{Timeout: timeout},
		executor:   options.ResilienceExecutor,
	}
}

func (c *Client) Model() string { return c.genModel }

// Generate sends one non-streaming /api/generate call. Blank responses are
// temporary errors so the shared policy retries them.
func (c *Client) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	body := map[string]any{
		"model":  c.genModel,
		"prompt": req.Prompt,
		"stream": false,
		"options": map[string]any{
			"temperature": req.Temperature,
		},
	}
	if req.System != "" {
		body["system"] = req.System
	}
	if req.JSON {
		body["format"] = "json"
	}
	if req.MaxTokens > 0 {
		body["options"].(map[string]any)["num_predict"] = req.MaxTokens
	}

	text, err := resilience.ExecuteValue(ctx, c.executor, "ollama.generate", func(ctx context.Context) (string, error) {
		var response struct {
			Response string `json:"response"`
		}
		if err := c.postJSON(ctx, "/api/generate", body, &response, "generate"); err != nil {
			return "", err
		}
		text := strings.TrimSpace(response.Response)
		if text == "" {
			return "", domain.WrapError(domain.ErrTemporary, "ollama generate", errors.New("blank response"))
		}
		return text, nil
	}, resilience.ClassifyHTTP)
	if err != nil {
		return "", resilience.MarkTemporary("ollama generate", err, resilience.ClassifyHTTP)
	}
	return text, nil
}

func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	request := map[string]any{
		"model": c.embedModel,
		"input": texts,
	}

	vectors, err := resilience.ExecuteValue(ctx, c.executor, "ollama.embed", func(ctx context.Context) ([][]float32, error) {
		var response struct {
			Embeddings [][]float32 `json:"embeddings"`
		}
		if err := c.postJSON(ctx, "/api/embed", request, &response, "embed"); err != nil {
			return nil, err
		}
		return response.Embeddings, nil
	}, resilience.ClassifyHTTP)
	if err != nil {
		return nil, resilience.MarkTemporary("ollama embed", err, resilience.ClassifyHTTP)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("ollama embed: got %d vectors for %d inputs", len(vectors), len(texts))
	}
	return vectors, nil
}

func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}

// Ping lists local models and checks the generation model is present.
func (c *Client) Ping(ctx context.Context) error {
	var response struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := c.getJSON(ctx, "/api/tags", &response, "tags"); err != nil {
		return resilience.MarkTemporary("ollama ping", err, resilience.ClassifyHTTP)
	}
	for _, m := range response.Models {
		if m.Name == c.genModel || strings.TrimSuffix(m.Name, ":latest") == c.genModel {
			return nil
		}
	}
	return domain.WrapError(domain.ErrResourceUnavailable, "ollama ping", fmt.Errorf("model %q not pulled", c.genModel))
}
