package db

import "context"

// Passage is one stored clause chunk of the corpus.
type Passage struct {
	ID         string
	Text       string
	Document   string
	File       string
	Company    string
	Page       int
	ChunkIndex int
}

// Term is a lexical query term. A passage containing Text scores 1.0 for it;
// otherwise each contained part scores 0.5.
type Term struct {
	Text  string
	Parts []string
}

// Corpus is the queryable passage store behind lexical and company search.
type Corpus interface {
	Pinger
	// FindContaining returns passages scoring above zero for terms, best
	// first, optionally restricted to a company. limit caps the result
	// after ranking.
	FindContaining(ctx context.Context, terms []Term, company string, limit int) ([]Passage, error)
	// ListByCompany returns up to limit passages whose company contains the given name.
	ListByCompany(ctx context.Context, company string, limit int) ([]Passage, error)
}
