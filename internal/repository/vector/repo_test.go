package vector

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/policyrag/internal/db"
	"github.com/kailas-cloud/policyrag/internal/domain"
	"github.com/kailas-cloud/policyrag/internal/domain/evidence"
	"github.com/kailas-cloud/policyrag/internal/domain/filter"
)

func TestQuery_HappyPath(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.searchKNNFn = func(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
		if q.IndexName != "policyrag:passages:idx" {
			t.Errorf("unexpected index: %s", q.IndexName)
		}
		if q.K != 20 {
			t.Errorf("unexpected k: %d", q.K)
		}
		return &db.SearchResult{
			Total: 1,
			Entries: []db.SearchEntry{{
				Key:   "policyrag:passage:db-12-3",
				Score: 0.877,
				Fields: map[string]string{
					FieldText:       "음주운전 사고 시 사고부담금을 납입하여야 합니다.",
					FieldDocument:   "DB 자동차보험 약관",
					FieldFile:       "db_auto.pdf",
					FieldCompany:    "DB손해보험",
					FieldPage:       "12",
					FieldChunkIndex: "3",
				},
			}},
		}, nil
	}

	chunks, err := repo.Query(context.Background(), testVector(), 20, filter.Expression{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	c := chunks[0]
	if c.ID != "db-12-3" {
		t.Errorf("ID = %q", c.ID)
	}
	if c.Origin != evidence.OriginVector || c.RawScore != 0.877 {
		t.Errorf("origin=%s raw=%f", c.Origin, c.RawScore)
	}
	if c.Confidence != 0 || c.WeightedScore != 0 {
		t.Error("repository must not assign fused scores")
	}
	want := evidence.Source{Document: "DB 자동차보험 약관", File: "db_auto.pdf", Company: "DB손해보험", Page: 12, ChunkIndex: 3}
	if c.Source != want {
		t.Errorf("Source = %+v", c.Source)
	}
}

func TestQuery_PassesFilter(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchKNNFn = func(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
		if v, ok := q.Filters.Value(filter.KeyCompany); !ok || v != "한화손해보험" {
			t.Errorf("expected company filter, got %q %v", v, ok)
		}
		return &db.SearchResult{}, nil
	}
	chunks, err := repo.Query(context.Background(), testVector(), 10, filter.Company("한화손해보험"))
	if err != nil || len(chunks) != 0 {
		t.Fatalf("expected empty result, got %v, %v", chunks, err)
	}
}

func TestQuery_ErrorIsExternal(t *testing.T) {
	repo, ms := newTestRepo(t)
	cause := errors.New("connection refused")
	ms.searchKNNFn = func(_ context.Context, _ *db.KNNQuery) (*db.SearchResult, error) {
		return nil, cause
	}

	_, err := repo.Query(context.Background(), testVector(), 10, filter.Expression{})
	if !errors.Is(err, domain.ErrExternalService) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
	var ext *domain.ExternalServiceError
	if !errors.As(err, &ext) || ext.Service != domain.ServiceVectorIndex {
		t.Errorf("expected vector_index service error, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Error("cause must be preserved")
	}
}

func TestAtoi(t *testing.T) {
	tests := map[string]int{"": 0, "7": 7, "7.0": 7, "x": 0}
	for in, want := range tests {
		if got := atoi(in); got != want {
			t.Errorf("atoi(%q) = %d, want %d", in, got, want)
		}
	}
}
