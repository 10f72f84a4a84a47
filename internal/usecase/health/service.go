// Package health aggregates availability of the pipeline's collaborators.
package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates answers are still served, with lower quality.
	Degraded Status = "degraded"
	// Unhealthy indicates the corpus is unreachable and nothing can be answered.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names.
const (
	CheckCorpus    = "corpus"
	CheckStore     = "store"
	CheckEmbedding = "embedding"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	corpus    Pinger
	store     Pinger
	embedding EmbeddingChecker
}

// New creates a Service. store and embedding can be nil (memory driver, lexical-only).
func New(corpus, store Pinger, embedding EmbeddingChecker) *Service {
	return &Service{corpus: corpus, store: store, embedding: embedding}
}

// Check runs health checks against all components. The corpus backs the
// lexical path every answer can fall back to, so losing it is fatal; other
// failures degrade.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, 3)

	checks[CheckCorpus] = result(s.corpus.Ping(ctx))
	if s.store != nil {
		checks[CheckStore] = result(s.store.Ping(ctx))
	}
	if s.embedding != nil {
		checks[CheckEmbedding] = result(s.embedding.HealthCheck(ctx))
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	if checks[CheckCorpus] == CheckError {
		status = Unhealthy
	}

	return Report{Status: status, Checks: checks}
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
