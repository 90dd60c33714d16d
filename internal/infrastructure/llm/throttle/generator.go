// Package throttle bounds the request rate sent to a generation backend.
package throttle

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/kirillkom/paper-checker/internal/core/domain"
	"github.com/kirillkom/paper-checker/internal/core/ports"
)

// Generator waits on a token bucket before delegating each call.
type Generator struct {
	next    ports.TextGenerator
	limiter *rate.Limiter
}

// Wrap returns next unchanged when rps is not positive.
func Wrap(next ports.TextGenerator, rps float64, burst int) ports.TextGenerator {
	if rps <= 0 {
		return next
	}
	if burst <= 0 {
		burst = 1
	}
	return &Generator{next: next, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (g *Generator) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return g.next.Generate(ctx, req)
}

func (g *Generator) Model() string { return g.next.Model() }

func (g *Generator) Ping(ctx context.Context) error {
	if p, ok := g.next.(ports.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
