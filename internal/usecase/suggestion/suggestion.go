// Package suggestion lists frequently asked questions offered to new users.
package suggestion

var questions = []string{
	"음주운전 사고를 내면 사고부담금은 얼마인가요?",
	"자기부담금은 어떻게 계산되나요?",
	"보험료 할인 혜택은 어떻게 받을 수 있나요?",
	"사고 발생 시 보험금 청구 절차는 어떻게 되나요?",
	"보험 계약 해지 시 환급금은 언제 받을 수 있나요?",
	"가족 한정 특약이면 형제도 운전할 수 있나요?",
	"차량을 도난당하면 보상받을 수 있나요?",
	"보상하지 않는 손해(면책 사유)에는 무엇이 있나요?",
	"무사고 할인은 어떻게 적용되나요?",
	"보험사 고객센터 연락처를 알려주세요.",
}

// List returns the suggested questions. The slice is a copy.
func List() []string {
	return append([]string(nil), questions...)
}
