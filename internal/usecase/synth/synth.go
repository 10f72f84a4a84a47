// Package synth turns assembled evidence into a short bullet answer:
// rule-based by default, optionally refined by an LLM.
package synth

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/pmezard/go-difflib/difflib"
	"go.uber.org/zap"

	"github.com/kailas-cloud/policyrag/internal/domain"
	"github.com/kailas-cloud/policyrag/internal/domain/answer"
	"github.com/kailas-cloud/policyrag/internal/domain/text"
	"github.com/kailas-cloud/policyrag/internal/usecase/evidence"
)

const (
	minBullets = 3
	maxBullets = 5
	// bulletSimilarity marks two bullets as the same statement.
	bulletSimilarity = 0.9
	sentenceMinRunes = 15
	sentenceMaxRunes = 120
)

// Defaults.
const (
	DefaultEvidenceCap   = 10
	DefaultMaxReferences = 5
	DefaultTimeout       = 8 * time.Second
)

var sentenceSplit = regexp.MustCompile(`[.!?。]\s+|\n+`)

// Options configures synthesis. LLMRefine is resolved once at startup.
type Options struct {
	LLMRefine     bool
	EvidenceCap   int
	MaxReferences int
	Timeout       time.Duration
}

// Synthesizer produces answers. It holds no request state.
type Synthesizer struct {
	completer domain.Completer
	opts      Options
	logger    *zap.Logger
	now       func() time.Time
}

// New creates a Synthesizer. LLM refinement requires a completer.
func New(completer domain.Completer, opts Options, logger *zap.Logger) (*Synthesizer, error) {
	if opts.LLMRefine && completer == nil {
		return nil, domain.ConfigError("llm refinement enabled without a completer")
	}
	if opts.EvidenceCap <= 0 {
		opts.EvidenceCap = DefaultEvidenceCap
	}
	if opts.MaxReferences <= 0 {
		opts.MaxReferences = DefaultMaxReferences
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{completer: completer, opts: opts, logger: logger, now: time.Now}, nil
}

// RefineEnabled reports whether the LLM path is configured.
func (s *Synthesizer) RefineEnabled() bool { return s.opts.LLMRefine }

// Synthesize answers query from ec. Empty evidence yields the fixed
// not-found answer. LLM failures fall back to the rule-based answer.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, ec evidence.Context) answer.Answer {
	if ec.Empty() {
		return answer.NoEvidence(s.now())
	}
	topic := Classify(query)

	if s.opts.LLMRefine {
		a, err := s.refine(ctx, query, topic, ec)
		if err == nil {
			return a
		}
		s.logger.Warn("llm refine failed, using rule-based answer",
			zap.String("topic", string(topic)), zap.Error(err))
	}
	return s.ruleBased(topic, ec)
}

func (s *Synthesizer) ruleBased(topic Topic, ec evidence.Context) answer.Answer {
	bullets := RuleBullets(topic, ec)
	return answer.Answer{
		Text:       format(topic, bullets),
		References: answer.References(ec.Chunks, s.opts.MaxReferences),
		Mode:       answer.ModeRuleBased,
		Topic:      string(topic),
		CreatedAt:  s.now(),
	}
}

// RuleBullets selects 3 to 5 bullets: topic templates whose triggers occur
// in the evidence, then simplified evidence sentences, then closing advice.
func RuleBullets(topic Topic, ec evidence.Context) []string {
	haystack := strings.ToLower(ec.Text)
	var bs bulletSet

	for _, tpl := range templates[topic] {
		if bs.full() {
			break
		}
		for _, trig := range tpl.triggers {
			if strings.Contains(haystack, trig) {
				bs.add(tpl.text)
				break
			}
		}
	}
	if len(bs.items) < minBullets {
		for _, sentence := range evidenceSentences(ec) {
			if len(bs.items) >= minBullets {
				break
			}
			bs.add(sentence)
		}
	}
	for _, c := range closing {
		if len(bs.items) >= minBullets {
			break
		}
		bs.add(c)
	}
	return bs.items
}

// evidenceSentences yields cleaned sentences from the accepted chunks in rank order.
func evidenceSentences(ec evidence.Context) []string {
	var out []string
	for _, c := range ec.Chunks {
		for _, raw := range sentenceSplit.Split(c.Text, -1) {
			s := text.DisplayClean(text.Normalize(raw))
			if text.Len(s) < sentenceMinRunes {
				continue
			}
			if cut, truncated := text.Truncate(s, sentenceMaxRunes); truncated {
				s = cut + "..."
			} else if !strings.HasSuffix(s, ".") {
				s += "."
			}
			out = append(out, s)
		}
	}
	return out
}

func format(topic Topic, bullets []string) string {
	var b strings.Builder
	b.WriteString(topicTitles[topic])
	for _, item := range bullets {
		b.WriteString("\n• ")
		b.WriteString(item)
	}
	return b.String()
}

// bulletSet keeps at most maxBullets statements, dropping near-identical ones.
type bulletSet struct {
	items  []string
	folded [][]string
}

func (b *bulletSet) full() bool { return len(b.items) >= maxBullets }

func (b *bulletSet) add(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || b.full() {
		return false
	}
	f := strings.Split(text.Fold(s), "")
	for _, prev := range b.folded {
		m := difflib.NewMatcher(prev, f)
		if m.Ratio() >= bulletSimilarity {
			return false
		}
	}
	b.items = append(b.items, s)
	b.folded = append(b.folded, f)
	return true
}
