// Package evidence assembles ranked chunks into the bounded context block
// handed to answer synthesis.
package evidence

import (
	"fmt"
	"strings"

	domevidence "github.com/kailas-cloud/policyrag/internal/domain/evidence"
	"github.com/kailas-cloud/policyrag/internal/domain/text"
)

// NoEvidence is returned as the context text when no chunk was accepted.
const NoEvidence = "관련 문서를 찾을 수 없습니다."

const (
	// DefaultMaxChars is the context budget.
	DefaultMaxChars = 3000
	// DefaultChunkCap bounds one chunk so it cannot starve the rest.
	DefaultChunkCap = 400
	minChunkRunes   = 10
	unknownDocument = "알 수 없는 문서"
	ellipsis        = "..."
)

// Budget is the per-request accumulator: the character cap, the running
// length and the accepted entries in rank order.
type Budget struct {
	MaxChars int
	Used     int
	Parts    []string
	Accepted []domevidence.Chunk
}

// NewBudget creates an empty budget of maxChars runes.
func NewBudget(maxChars int) *Budget {
	return &Budget{MaxChars: maxChars}
}

// Offer appends part unless it, plus the newline joining it to the previous
// part, would overflow the budget.
func (b *Budget) Offer(part string, c domevidence.Chunk) bool {
	n := text.Len(part)
	if len(b.Parts) > 0 {
		n++
	}
	if b.Used+n > b.MaxChars {
		return false
	}
	b.Parts = append(b.Parts, part)
	b.Accepted = append(b.Accepted, c)
	b.Used += n
	return true
}

// Context is the assembled evidence block.
type Context struct {
	Text   string
	Chunks []domevidence.Chunk
}

// Empty reports whether no chunk made it into the context.
func (c Context) Empty() bool { return len(c.Chunks) == 0 }

// Builder formats ranked chunks. It holds no request state.
type Builder struct {
	chunkCap int
}

// NewBuilder creates a builder with the given per-chunk rune cap (0 means default).
func NewBuilder(chunkCap int) *Builder {
	if chunkCap <= 0 {
		chunkCap = DefaultChunkCap
	}
	return &Builder{chunkCap: chunkCap}
}

// Build walks chunks in rank order, skips near-empty ones, caps each to the
// per-chunk limit and appends "[rank] document (신뢰도: x.xx)" entries until
// the next would exceed maxChars. Returns NoEvidence text when nothing fits.
func (b *Builder) Build(chunks []domevidence.Chunk, maxChars int) Context {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	budget := NewBudget(maxChars)

	for i, c := range chunks {
		body := strings.TrimSpace(c.Text)
		if text.Len(body) < minChunkRunes {
			continue
		}
		if cut, truncated := text.Truncate(body, b.chunkCap); truncated {
			body = cut + ellipsis
		}
		doc := c.Source.Document
		if doc == "" {
			doc = unknownDocument
		}
		part := fmt.Sprintf("[%d] %s (신뢰도: %.2f)\n%s\n", i+1, doc, c.Confidence, body)
		if !budget.Offer(part, c) {
			break
		}
	}

	if len(budget.Accepted) == 0 {
		return Context{Text: NoEvidence}
	}
	return Context{
		Text:   strings.Join(budget.Parts, "\n"),
		Chunks: domevidence.Clone(budget.Accepted),
	}
}
