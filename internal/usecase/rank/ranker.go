// Package rank fuses vector, lexical and company-specific hits into one
// confidence-scored ranking.
package rank

import (
	"fmt"
	"sort"

	"github.com/kailas-cloud/policyrag/internal/domain/evidence"
)

// Config holds the fusion tuning knobs.
type Config struct {
	VectorWeight  float64
	LexicalWeight float64
	// Multipliers scale the fused weighted score per origin.
	Multipliers map[evidence.Origin]float64
	// BonusPerMatch rewards pure lexical hits per unit of raw match score, up to BonusCap.
	BonusPerMatch float64
	BonusCap      float64
	// MinConfidence drops chunks scoring below it.
	MinConfidence float64
}

// DefaultConfig returns the empirically tuned defaults.
func DefaultConfig() Config {
	return Config{
		VectorWeight:  0.6,
		LexicalWeight: 0.4,
		Multipliers: map[evidence.Origin]float64{
			evidence.OriginVector:  1.0,
			evidence.OriginLexical: 0.8,
			evidence.OriginHybrid:  1.2,
			evidence.OriginCompany: 1.1,
		},
		BonusPerMatch: 0.1,
		BonusCap:      0.3,
		MinConfidence: 0.5,
	}
}

// Validate checks that weights are usable.
func (c Config) Validate() error {
	if c.VectorWeight < 0 || c.LexicalWeight < 0 {
		return fmt.Errorf("weights must be non-negative")
	}
	if c.VectorWeight+c.LexicalWeight == 0 {
		return fmt.Errorf("at least one weight must be positive")
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("min confidence must be in [0,1], got %v", c.MinConfidence)
	}
	if c.BonusPerMatch < 0 || c.BonusCap < 0 {
		return fmt.Errorf("bonus must be non-negative")
	}
	for o, m := range c.Multipliers {
		if m < 0 {
			return fmt.Errorf("multiplier for %s must be non-negative", o)
		}
	}
	return nil
}

// Ranker combines origin result sets. It is stateless and safe for concurrent use.
type Ranker struct {
	cfg Config
}

// New creates a Ranker. Missing multipliers fall back to the defaults.
func New(cfg Config) *Ranker {
	defaults := DefaultConfig().Multipliers
	mult := make(map[evidence.Origin]float64, len(defaults))
	for o, m := range defaults {
		mult[o] = m
	}
	for o, m := range cfg.Multipliers {
		mult[o] = m
	}
	cfg.Multipliers = mult
	return &Ranker{cfg: cfg}
}

// Combine fuses the result sets. A chunk id present in several sets appears
// once with the sum of its weighted contributions; vector plus lexical
// becomes hybrid. Confidence is recomputed for every chunk, chunks under the
// minimum are dropped, and the rest are ordered by confidence, then origin
// specificity, then weighted score, then first retrieval. Inputs are not modified.
func (r *Ranker) Combine(vector, lexical, company []evidence.Chunk) []evidence.Chunk {
	merged := make(map[string]*evidence.Chunk, len(vector)+len(lexical)+len(company))
	order := make([]string, 0, len(vector)+len(lexical)+len(company))

	add := func(c evidence.Chunk, weight float64) {
		c = c.Clone()
		c.WeightedScore = c.RawScore * weight
		existing, ok := merged[c.ID]
		if !ok {
			c.Seq = len(order)
			merged[c.ID] = &c
			order = append(order, c.ID)
			return
		}
		existing.WeightedScore += c.WeightedScore
		existing.Origin = fusedOrigin(existing.Origin, c.Origin)
		if len(c.MatchedTerms) > 0 {
			existing.MatchedTerms = append(existing.MatchedTerms, c.MatchedTerms...)
		}
	}

	for _, c := range vector {
		c.Origin = evidence.OriginVector
		add(c, r.cfg.VectorWeight)
	}
	for _, c := range lexical {
		c.Origin = evidence.OriginLexical
		add(c, r.cfg.LexicalWeight)
	}
	for _, c := range company {
		c.Origin = evidence.OriginCompany
		add(c, r.cfg.LexicalWeight)
	}

	out := make([]evidence.Chunk, 0, len(order))
	for _, id := range order {
		c := merged[id]
		c.Confidence = r.confidence(*c)
		if c.Confidence < r.cfg.MinConfidence {
			continue
		}
		out = append(out, *c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if sa, sb := a.Origin.Specificity(), b.Origin.Specificity(); sa != sb {
			return sa > sb
		}
		if a.WeightedScore != b.WeightedScore {
			return a.WeightedScore > b.WeightedScore
		}
		return a.Seq < b.Seq
	})
	return out
}

// Confidence exposes the scoring rule for a single already-fused chunk.
func (r *Ranker) Confidence(c evidence.Chunk) float64 {
	return r.confidence(c)
}

func (r *Ranker) confidence(c evidence.Chunk) float64 {
	mult, ok := r.cfg.Multipliers[c.Origin]
	if !ok {
		mult = 1.0
	}
	score := c.WeightedScore*mult + r.bonus(c)
	return min(1, max(0, score))
}

// bonus grows with the lexical match score so it never inverts the order of
// two lexical chunks.
func (r *Ranker) bonus(c evidence.Chunk) float64 {
	if c.Origin != evidence.OriginLexical {
		return 0
	}
	return min(c.RawScore*r.cfg.BonusPerMatch, r.cfg.BonusCap)
}

// fusedOrigin resolves the origin of a chunk found by more than one search.
func fusedOrigin(existing, incoming evidence.Origin) evidence.Origin {
	switch {
	case existing == evidence.OriginHybrid:
		return evidence.OriginHybrid
	case existing == evidence.OriginVector && incoming != evidence.OriginVector:
		return evidence.OriginHybrid
	case existing == evidence.OriginLexical && incoming == evidence.OriginVector:
		return evidence.OriginHybrid
	case existing == evidence.OriginLexical && incoming == evidence.OriginCompany:
		return evidence.OriginCompany
	case existing == evidence.OriginCompany && incoming == evidence.OriginVector:
		return evidence.OriginHybrid
	default:
		return existing
	}
}
