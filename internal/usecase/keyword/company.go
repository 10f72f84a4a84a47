package keyword

import "regexp"

// companyPatterns map mentions (including product nicknames) to canonical
// insurer names. Order matters: the first match wins.
var companyPatterns = []struct {
	re   *regexp.Regexp
	name string
}{
	{regexp.MustCompile(`DB손해보험|DB손보|프로미카`), "DB손해보험"},
	{regexp.MustCompile(`한화손해보험|한화손보|한화`), "한화손해보험"},
	{regexp.MustCompile(`현대해상화재|현대해상`), "현대해상화재"},
	{regexp.MustCompile(`메리츠화재|메리츠`), "메리츠화재"},
	{regexp.MustCompile(`롯데손해보험|롯데손보|롯데`), "롯데손해보험"},
}

// DetectCompany returns the canonical insurer named in the query, or "".
func DetectCompany(query string) string {
	for _, p := range companyPatterns {
		if p.re.MatchString(query) {
			return p.name
		}
	}
	return ""
}

// Companies lists the canonical insurer names in detection order.
func Companies() []string {
	out := make([]string, len(companyPatterns))
	for i, p := range companyPatterns {
		out[i] = p.name
	}
	return out
}
