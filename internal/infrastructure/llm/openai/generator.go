// Package openai adapts any OpenAI-compatible chat completions endpoint to
// the text generation port.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/kirillkom/paper-checker/internal/core/domain"
	"github.com/kirillkom/paper-checker/internal/infrastructure/resilience"
)

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

type Generator struct {
	client   *goopenai.Client
	model    string
	executor *resilience.Executor
}

func NewGenerator(cfg Config, executor *resilience.Executor) (*Generator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, domain.InvalidInputf("openai generator", "api key is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = goopenai.GPT4oMini
	}
	clientConfig := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return &Generator{
		client:   goopenai.NewClientWithConfig(clientConfig),
		model:    model,
		executor: executor,
	}, nil
}

func (g *Generator) Model() string { return g.model }

func (g *Generator) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	messages := make([]goopenai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleSystem, Content: req.System})
	}
	messages = append(messages, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleUser, Content: req.Prompt})

	chatReq := goopenai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    messages,
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
	}
	if req.JSON {
		chatReq.ResponseFormat = &goopenai.ChatCompletionResponseFormat{Type: goopenai.ChatCompletionResponseFormatTypeJSONObject}
	}

	text, err := resilience.ExecuteValue(ctx, g.executor, "openai.generate", func(ctx context.Context) (string, error) {
		resp, err := g.client.CreateChatCompletion(ctx, chatReq)
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", domain.WrapError(domain.ErrTemporary, "openai generate", errors.New("no choices returned"))
		}
		text := strings.TrimSpace(resp.Choices[0].Message.Content)
		if text == "" {
			return "", domain.WrapError(domain.ErrTemporary, "openai generate", errors.New("blank response"))
		}
		return text, nil
	}, classifyOpenAIError)
	if err != nil {
		if !domain.IsKind(err, domain.ErrTemporary) && classifyOpenAIError(err).Retryable {
			return "", domain.WrapError(domain.ErrTemporary, "openai generate", err)
		}
		return "", fmt.Errorf("openai generate: %w", err)
	}
	return text, nil
}

// Ping lists models, which exercises both reachability and the API key.
func (g *Generator) Ping(ctx context.Context) error {
	if _, err := g.client.ListModels(ctx); err != nil {
		if status := statusCode(err); status == http.StatusUnauthorized || status == http.StatusForbidden {
			return domain.WrapError(domain.ErrUnauthorized, "openai ping", err)
		}
		return domain.WrapError(domain.ErrResourceUnavailable, "openai ping", err)
	}
	return nil
}

func classifyOpenAIError(err error) resilience.ErrorClassification {
	switch status := statusCode(err); {
	case status == 0:
		return resilience.ClassifyTransient(err)
	case status == http.StatusTooManyRequests, status == http.StatusRequestTimeout, status >= 500:
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	default:
		return resilience.ErrorClassification{}
	}
}

func statusCode(err error) int {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
