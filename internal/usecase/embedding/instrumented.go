// Package embedding decorates the embedding provider with timing and logging.
package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/policyrag/internal/domain"
)

// InstrumentedEmbedder wraps an Embedder with call timing and logging.
// Transport metrics (requests, tokens) are recorded in transport/openai;
// this layer observes end-to-end latency including the cache decorator.
type InstrumentedEmbedder struct {
	inner    domain.Embedder
	provider string
	model    string
	duration *prometheus.HistogramVec
	logger   *zap.Logger
}

// NewInstrumentedEmbedder wraps an embedder. duration is labelled by
// service and status and may be nil.
func NewInstrumentedEmbedder(
	inner domain.Embedder, provider, model string,
	duration *prometheus.HistogramVec, logger *zap.Logger,
) *InstrumentedEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstrumentedEmbedder{
		inner:    inner,
		provider: provider,
		model:    model,
		duration: duration,
		logger:   logger,
	}
}

// Embed delegates to the inner embedder and records the outcome.
func (p *InstrumentedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	start := time.Now()
	result, err := p.inner.Embed(ctx, text)
	duration := time.Since(start)

	if err != nil {
		p.observe("error", duration)
		p.logger.Warn("Embedding request failed",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	p.observe("ok", duration)
	p.logger.Debug("Embedding request completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(result.Embedding)),
		zap.Int("total_tokens", result.TotalTokens),
	)
	return result, nil
}

// HealthCheck forwards to the inner embedder when it supports health checks.
func (p *InstrumentedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := p.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

func (p *InstrumentedEmbedder) observe(status string, d time.Duration) {
	if p.duration == nil {
		return
	}
	p.duration.WithLabelValues(domain.ServiceEmbedding, status).Observe(d.Seconds())
}
