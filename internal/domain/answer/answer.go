// Package answer holds the synthesized answer returned to callers.
package answer

import (
	"time"

	"github.com/kailas-cloud/policyrag/internal/domain/evidence"
)

// Mode is how the answer text was produced.
type Mode string

// Synthesis modes.
const (
	ModeRuleBased Mode = "rule_based"
	ModeLLMRefine Mode = "llm_refine"
)

// NoEvidenceText is returned when nothing relevant was retrieved.
const NoEvidenceText = "관련 정보를 찾지 못했습니다. 보험사명, 특약명, 상황(예: 음주운전, 자기부담금, 할인)처럼 " +
	"구체적인 키워드를 넣어 다시 질문해 주세요."

// Reference points at one passage that supports the answer.
type Reference struct {
	Source string  `json:"source"`
	File   string  `json:"file"`
	Page   int     `json:"page"`
	Score  float64 `json:"score"`
}

// Answer is the pipeline output for one question.
type Answer struct {
	Text       string      `json:"answer_text"`
	References []Reference `json:"references"`
	Mode       Mode        `json:"synthesis_mode"`
	Topic      string      `json:"topic,omitempty"`
	Cached     bool        `json:"cached"`
	CreatedAt  time.Time   `json:"created_at"`
}

// HasEvidence reports whether the answer is backed by at least one reference.
func (a Answer) HasEvidence() bool { return len(a.References) > 0 }

// NoEvidence returns the fixed not-found answer.
func NoEvidence(now time.Time) Answer {
	return Answer{Text: NoEvidenceText, References: []Reference{}, Mode: ModeRuleBased, CreatedAt: now}
}

type refKey struct {
	source, file string
	page         int
}

// References lists the distinct (source, file, page) of chunks in rank order,
// at most limit entries. Each reference keeps the score of its first chunk.
func References(chunks []evidence.Chunk, limit int) []Reference {
	out := make([]Reference, 0, min(len(chunks), max(limit, 0)))
	seen := make(map[refKey]struct{}, len(chunks))
	for _, c := range chunks {
		if len(out) >= limit {
			break
		}
		k := refKey{source: c.Source.Document, file: c.Source.File, page: c.Source.Page}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, Reference{
			Source: c.Source.Document,
			File:   c.Source.File,
			Page:   c.Source.Page,
			Score:  c.Confidence,
		})
	}
	return out
}
