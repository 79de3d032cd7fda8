// Package embedding decorates the query embedder with tracing and logging.
package embedding

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/db-frog/folklore-archive/internal/domain"
	"github.com/db-frog/folklore-archive/internal/tracer"
)

const tracerName = "github.com/db-frog/folklore-archive/internal/usecase/embedding"

// InstrumentedEmbedder wraps Embedder with a span and structured logging.
// Transport metrics (requests, duration, tokens) are recorded in transport/openai.
type InstrumentedEmbedder struct {
	inner    domain.Embedder
	provider string
	model    string
	tracer   trace.Tracer
	logger   *zap.Logger
}

// NewInstrumentedEmbedder wraps an embedder with observability.
func NewInstrumentedEmbedder(inner domain.Embedder, provider, model string, logger *zap.Logger) *InstrumentedEmbedder {
	return &InstrumentedEmbedder{
		inner:    inner,
		provider: provider,
		model:    model,
		tracer:   otel.Tracer(tracerName),
		logger:   logger,
	}
}

// Embed delegates to the inner embedder inside an "embedding.embed" span.
func (p *InstrumentedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	ctx, span := p.tracer.Start(ctx, "embedding.embed", trace.WithAttributes(
		attribute.String("embedding.provider", p.provider),
		attribute.String("embedding.model", p.model),
		attribute.Int("embedding.input_chars", len(text)),
	))
	defer span.End()

	start := time.Now()
	result, err := p.inner.Embed(ctx, text)
	duration := time.Since(start)

	if err != nil {
		tracer.RecordError(span, err)
		p.logger.Error("Embedding request failed",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	span.SetAttributes(
		attribute.Int("embedding.dimensions", len(result.Embedding)),
		attribute.Int("embedding.total_tokens", result.TotalTokens),
	)
	p.logger.Debug("Embedding request completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(result.Embedding)),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("total_tokens", result.TotalTokens),
	)
	return result, nil
}
