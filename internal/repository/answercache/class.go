package answercache

import (
	"regexp"
	"strings"
	"time"
)

// Class is a cache expiration bucket chosen from the query's intent.
type Class string

// TTL classes, longest first.
const (
	ClassContact  Class = "contact"
	ClassFrequent Class = "frequent"
	ClassDefault  Class = "default"
)

// Classes lists every class in lookup order.
var Classes = []Class{ClassContact, ClassFrequent, ClassDefault}

var contactKeywords = []string{"연락처", "전화번호", "고객센터", "상담", "문의", "1588", "1566", "1332"}

// frequentPatterns: premium, enrollment, cancellation, claims, discounts.
var frequentPatterns = []*regexp.Regexp{
	regexp.MustCompile(`보험료|요금|가격`),
	regexp.MustCompile(`가입|신청|계약`),
	regexp.MustCompile(`해지|취소|환급`),
	regexp.MustCompile(`사고|보상|청구`),
	regexp.MustCompile(`할인|혜택|프로모션`),
}

// Classify picks the TTL class of a normalized query.
func Classify(normalized string) Class {
	q := strings.ToLower(normalized)
	for _, kw := range contactKeywords {
		if strings.Contains(q, kw) {
			return ClassContact
		}
	}
	for _, re := range frequentPatterns {
		if re.MatchString(q) {
			return ClassFrequent
		}
	}
	return ClassDefault
}

// TTLs maps each class to its lifetime.
type TTLs struct {
	Contact  time.Duration
	Frequent time.Duration
	Default  time.Duration
}

// DefaultTTLs are 24h for contact queries, 2h for frequent questions, 1h otherwise.
var DefaultTTLs = TTLs{Contact: 24 * time.Hour, Frequent: 2 * time.Hour, Default: time.Hour}

// For returns the TTL of a class.
func (t TTLs) For(c Class) time.Duration {
	switch c {
	case ClassContact:
		return t.Contact
	case ClassFrequent:
		return t.Frequent
	default:
		return t.Default
	}
}
