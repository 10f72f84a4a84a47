// Package filter holds metadata pre-filters passed to the vector index.
package filter

import (
	"fmt"
	"sort"
)

// MaxConditions is the maximum number of conditions in one expression.
const MaxConditions = 8

// Well-known metadata keys of corpus passages.
const (
	KeyCompany  = "company"
	KeyDocument = "document"
)

// Expression is a conjunction of exact tag matches (all must hold).
type Expression struct {
	must []Condition
}

// Condition is a single exact tag match.
type Condition struct {
	key   string
	match string
}

// NewMatch creates an exact tag match condition.
func NewMatch(key, match string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if match == "" {
		return Condition{}, fmt.Errorf("match value is required for key %q", key)
	}
	return Condition{key: key, match: match}, nil
}

// NewExpression validates and creates an Expression.
func NewExpression(must ...Condition) (Expression, error) {
	if len(must) > MaxConditions {
		return Expression{}, fmt.Errorf("too many filter conditions (max %d)", MaxConditions)
	}
	return Expression{must: must}, nil
}

// FromMap builds an expression from key/value pairs; empty values are skipped.
// Conditions are sorted by key so equal maps give equal expressions.
func FromMap(m map[string]string) (Expression, error) {
	keys := make([]string, 0, len(m))
	for k, v := range m {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	conds := make([]Condition, 0, len(keys))
	for _, k := range keys {
		c, err := NewMatch(k, m[k])
		if err != nil {
			return Expression{}, err
		}
		conds = append(conds, c)
	}
	return NewExpression(conds...)
}

// Company returns a single-condition expression scoping to a company, or an empty one.
func Company(name string) Expression {
	if name == "" {
		return Expression{}
	}
	return Expression{must: []Condition{{key: KeyCompany, match: name}}}
}

// Must returns the conditions.
func (e Expression) Must() []Condition { return e.must }

// IsEmpty reports whether the expression has no conditions.
func (e Expression) IsEmpty() bool { return len(e.must) == 0 }

// Value returns the match value for key, if present.
func (e Expression) Value(key string) (string, bool) {
	for _, c := range e.must {
		if c.key == key {
			return c.match, true
		}
	}
	return "", false
}

// Key returns the field name.
func (c Condition) Key() string { return c.key }

// Match returns the exact match value.
func (c Condition) Match() string { return c.match }
