// Package evidence defines the passage value that flows between the ranking,
// dedup and context stages.
package evidence

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"strconv"

	"github.com/kailas-cloud/policyrag/internal/domain/text"
)

// Origin names the retrieval path a chunk came from.
type Origin string

// Origins, most specific first.
const (
	OriginCompany Origin = "company_specific"
	OriginHybrid  Origin = "hybrid"
	OriginVector  Origin = "vector"
	OriginLexical Origin = "lexical"
)

// Specificity orders origins for tie-breaking: higher is more specific.
func (o Origin) Specificity() int {
	switch o {
	case OriginCompany:
		return 3
	case OriginHybrid:
		return 2
	case OriginVector:
		return 1
	default:
		return 0
	}
}

// Source locates a passage in the corpus.
type Source struct {
	Document   string `json:"document"`
	File       string `json:"file,omitempty"`
	Company    string `json:"company,omitempty"`
	Page       int    `json:"page"`
	ChunkIndex int    `json:"chunk_index"`
}

// Chunk is one unit of retrieved evidence. Origin searches fill RawScore and
// WeightedScore; Confidence is written only by the ranker.
type Chunk struct {
	ID            string
	UID           string
	Text          string
	Source        Source
	Origin        Origin
	RawScore      float64
	WeightedScore float64
	Confidence    float64
	MatchedTerms  []string
	// Seq is the retrieval order, the last ranking tie-breaker.
	Seq int
}

// Clone returns a copy that shares no slices with c.
func (c Chunk) Clone() Chunk {
	if c.MatchedTerms != nil {
		c.MatchedTerms = append([]string(nil), c.MatchedTerms...)
	}
	return c
}

// keyPrefixRunes is how much normalized text identifies a duplicate.
const keyPrefixRunes = 50

// Key is the exact-duplicate identity of a chunk.
type Key struct {
	Source string
	Prefix string
	Bucket int64
}

// DedupKey derives the chunk's duplicate identity: source location,
// normalized-text prefix and confidence rounded to two decimals.
func (c Chunk) DedupKey() Key {
	prefix, _ := text.Truncate(text.Normalize(c.Text), keyPrefixRunes)
	return Key{
		Source: c.Source.Document + "|" + c.Source.File + "|" + strconv.Itoa(c.Source.Page),
		Prefix: prefix,
		Bucket: int64(math.Round(c.Confidence * 100)),
	}
}

// Hash returns a stable hex digest of the key.
func (k Key) Hash() string {
	h := sha256.New()
	h.Write([]byte(k.Source))
	h.Write([]byte{0})
	h.Write([]byte(k.Prefix))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatInt(k.Bucket, 10)))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Clone copies a chunk list deeply.
func Clone(chunks []Chunk) []Chunk {
	if chunks == nil {
		return nil
	}
	out := make([]Chunk, len(chunks))
	for i, c := range chunks {
		out[i] = c.Clone()
	}
	return out
}
