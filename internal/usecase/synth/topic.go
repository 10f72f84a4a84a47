package synth

import "strings"

// Topic is the keyword family a question belongs to.
type Topic string

// Topics in classification priority order.
const (
	TopicImpaired  Topic = "impaired"
	TopicDiscount  Topic = "discount"
	TopicExclusion Topic = "exclusion"
	TopicTheft     Topic = "theft"
	TopicFamily    Topic = "family"
	TopicGeneric   Topic = "generic"
)

var topicKeywords = []struct {
	topic    Topic
	keywords []string
}{
	{TopicImpaired, []string{"음주", "주취", "무면허", "뺑소니", "약물", "사고부담금"}},
	{TopicDiscount, []string{"할인", "마일리지", "블랙박스", "무사고", "환급", "특약 혜택"}},
	{TopicExclusion, []string{"면책", "보상하지", "보상 안", "제외", "지급하지", "부지급"}},
	{TopicTheft, []string{"도난", "절도", "분실", "훔"}},
	{TopicFamily, []string{"가족", "배우자", "자녀", "운전자 범위", "운전자범위", "한정", "형제"}},
}

// Classify assigns the first topic whose keyword family occurs in query.
func Classify(query string) Topic {
	q := strings.ToLower(query)
	for _, tk := range topicKeywords {
		for _, kw := range tk.keywords {
			if strings.Contains(q, kw) {
				return tk.topic
			}
		}
	}
	return TopicGeneric
}

var topicTitles = map[Topic]string{
	TopicImpaired:  "음주·무면허 운전 관련 약관 요약입니다.",
	TopicDiscount:  "보험료 할인 관련 약관 요약입니다.",
	TopicExclusion: "보상하지 않는 손해(면책) 관련 약관 요약입니다.",
	TopicTheft:     "차량 도난 관련 약관 요약입니다.",
	TopicFamily:    "운전자 범위(가족 한정) 관련 약관 요약입니다.",
	TopicGeneric:   "관련 약관 요약입니다.",
}
