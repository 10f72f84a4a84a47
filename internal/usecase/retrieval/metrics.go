package retrieval

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/policyrag/internal/domain/answer"
)

// Metrics are the pipeline collectors, passed explicitly. Nil fields are skipped.
type Metrics struct {
	Fallbacks        *prometheus.CounterVec   // label "reason"
	Synthesis        *prometheus.CounterVec   // label "mode"
	ExternalDuration *prometheus.HistogramVec // labels "service", "status"
	PoolSize         *prometheus.HistogramVec // label "stage"
}

func (m Metrics) fallback(err error) {
	if m.Fallbacks == nil {
		return
	}
	reason := "error"
	if errors.Is(err, context.DeadlineExceeded) {
		reason = "timeout"
	}
	m.Fallbacks.WithLabelValues(reason).Inc()
}

func (m Metrics) synthesis(mode answer.Mode) {
	if m.Synthesis != nil {
		m.Synthesis.WithLabelValues(string(mode)).Inc()
	}
}

func (m Metrics) observer(service string) func(status string, d time.Duration) {
	return func(status string, d time.Duration) {
		if m.ExternalDuration != nil {
			m.ExternalDuration.WithLabelValues(service, status).Observe(d.Seconds())
		}
	}
}

func callStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m Metrics) pool(stage string, n int) {
	if m.PoolSize != nil {
		m.PoolSize.WithLabelValues(stage).Observe(float64(n))
	}
}
