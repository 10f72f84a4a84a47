package synth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/policyrag/internal/domain"
	"github.com/kailas-cloud/policyrag/internal/domain/answer"
	domevidence "github.com/kailas-cloud/policyrag/internal/domain/evidence"
	"github.com/kailas-cloud/policyrag/internal/domain/text"
	"github.com/kailas-cloud/policyrag/internal/usecase/evidence"
)

const refineChunkRunes = 600

const systemPrompt = `당신은 자동차 보험 약관 전문 상담사입니다.
제공된 근거 문서만 사용해 질문에 답하세요. 근거에 없는 내용은 추측하지 마세요.
반드시 다음 JSON 형식으로만 답하세요:
{"bullets": ["핵심 요점 3~5개"], "evidence_ids": [근거로 사용한 문서 번호], "notes": "추가로 확인할 사항 (없으면 빈 문자열)"}`

// refined is the structured LLM reply.
type refined struct {
	Bullets     []string `json:"bullets"`
	EvidenceIDs []int    `json:"evidence_ids"`
	Notes       string   `json:"notes"`
}

var errEmptyRefinement = errors.New("refinement returned no bullets")

func (s *Synthesizer) refine(
	ctx context.Context, query string, topic Topic, ec evidence.Context,
) (answer.Answer, error) {
	chunks := ec.Chunks
	if len(chunks) > s.opts.EvidenceCap {
		chunks = chunks[:s.opts.EvidenceCap]
	}

	callCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	raw, err := s.completer.Complete(callCtx, systemPrompt, userPrompt(query, chunks))
	if err != nil {
		return answer.Answer{}, domain.NewExternalServiceError(domain.ServiceLLM, "complete", err)
	}

	r, err := parseRefined(raw)
	if err != nil {
		return answer.Answer{}, domain.NewExternalServiceError(domain.ServiceLLM, "parse", err)
	}

	var bs bulletSet
	for _, b := range r.Bullets {
		bs.add(b)
	}
	if len(bs.items) == 0 {
		return answer.Answer{}, errEmptyRefinement
	}

	body := format(topic, bs.items)
	if notes := strings.TrimSpace(r.Notes); notes != "" {
		body += "\n\n참고: " + notes
	}

	return answer.Answer{
		Text:       body,
		References: answer.References(chosen(chunks, r.EvidenceIDs), s.opts.MaxReferences),
		Mode:       answer.ModeLLMRefine,
		Topic:      string(topic),
		CreatedAt:  s.now(),
	}, nil
}

func userPrompt(query string, chunks []domevidence.Chunk) string {
	var b strings.Builder
	b.WriteString("질문: ")
	b.WriteString(query)
	b.WriteString("\n\n근거 문서:\n")
	for i, c := range chunks {
		body, cut := text.Truncate(c.Text, refineChunkRunes)
		if cut {
			body += "..."
		}
		fmt.Fprintf(&b, "[%d] %s p.%d (신뢰도: %.2f)\n%s\n\n", i+1, c.Source.Document, c.Source.Page, c.Confidence, body)
	}
	return b.String()
}

// parseRefined decodes the reply, tolerating a fenced code block around the JSON.
func parseRefined(raw string) (refined, error) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	if start, end := strings.Index(s, "{"), strings.LastIndex(s, "}"); start >= 0 && end > start {
		s = s[start : end+1]
	}
	var r refined
	if err := json.Unmarshal([]byte(s), &r); err != nil {
		return refined{}, fmt.Errorf("decode refinement: %w", err)
	}
	return r, nil
}

// chosen returns the chunks the model cited (1-based ids). Invalid or absent
// ids fall back to all chunks.
func chosen(chunks []domevidence.Chunk, ids []int) []domevidence.Chunk {
	var out []domevidence.Chunk
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		if id < 1 || id > len(chunks) || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, chunks[id-1])
	}
	if len(out) == 0 {
		return chunks
	}
	return out
}
