package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/policyrag/internal/domain"
)

type mockEmbedder struct {
	result    domain.EmbeddingResult
	err       error
	healthErr error
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return m.result, m.err
}

func (m *mockEmbedder) HealthCheck(_ context.Context) error { return m.healthErr }

func newHistogram() *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "test_external_call_duration_seconds"},
		[]string{"service", "status"},
	)
}

func TestInstrumentedEmbedder_Success(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:   []float32{0.1, 0.2, 0.3},
		TotalTokens: 7,
	}}
	h := newHistogram()
	p := NewInstrumentedEmbedder(inner, "test", "test-model", h, zap.NewNop())

	result, err := p.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 || result.TotalTokens != 7 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if n := testutil.CollectAndCount(h); n != 1 {
		t.Errorf("expected one observed series, got %d", n)
	}
}

func TestInstrumentedEmbedder_Error(t *testing.T) {
	cause := domain.NewExternalServiceError(domain.ServiceEmbedding, "embed", errors.New("api down"))
	p := NewInstrumentedEmbedder(&mockEmbedder{err: cause}, "test", "m", newHistogram(), zap.NewNop())

	_, err := p.Embed(context.Background(), "hello")
	if !errors.Is(err, domain.ErrExternalService) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
}

func TestInstrumentedEmbedder_NilHistogram(t *testing.T) {
	p := NewInstrumentedEmbedder(&mockEmbedder{}, "test", "m", nil, nil)
	if _, err := p.Embed(context.Background(), "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestInstrumentedEmbedder_HealthCheck(t *testing.T) {
	down := errors.New("down")
	p := NewInstrumentedEmbedder(&mockEmbedder{healthErr: down}, "test", "m", nil, zap.NewNop())
	if !errors.Is(p.HealthCheck(context.Background()), down) {
		t.Error("expected health error to be forwarded")
	}
}
