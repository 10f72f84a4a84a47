package keyword

// synonyms maps a domain term to its synonyms and colloquial variants.
var synonyms = map[string][]string{
	// contact
	"연락처":  {"전화번호", "연락", "고객센터", "상담전화", "문의전화", "고객지원", "상담", "문의"},
	"전화번호": {"연락처", "전화", "고객센터", "상담전화", "문의전화", "고객지원", "상담", "문의"},
	"고객센터": {"연락처", "전화번호", "상담전화", "문의전화", "고객지원", "상담", "문의"},
	// cancellation
	"보험해지": {"계약해지", "보험계약해지", "해지절차", "해지신청", "해지방법", "보험해지방법", "계약해지방법"},
	"해지":   {"계약해지", "보험해지", "해지신청", "해지절차", "해지방법"},
	"계약해지": {"보험해지", "해지", "해지신청", "해지절차", "해지방법"},
	// claims
	"보험금청구": {"보험금지급", "보험금신청", "보상청구", "보험금지급신청", "보험금청구절차"},
	"보험금":   {"보상금", "보험지급금", "보험보상금", "보험금액"},
	"보상":    {"보험금", "보상금", "보험지급", "보험보상"},
	// accidents
	"사고":   {"교통사고", "자동차사고", "충돌사고", "교통상해", "교통사고발생"},
	"교통사고": {"자동차사고", "충돌사고", "교통상해", "사고"},
	"충돌":   {"사고", "교통사고", "자동차사고", "충돌사고"},
	// impaired driving
	"음주운전":  {"음주", "주취운전", "음주사고"},
	"무면허":   {"무면허운전", "면허없이"},
	"사고부담금": {"자기부담금", "부담금"},
	// premium
	"보험료":   {"보험료율", "보험료금액", "보험료납부", "보험료납입"},
	"보험료납부": {"보험료납입", "보험료지급", "보험료결제"},
	"할인":    {"할인특약", "할인율", "마일리지"},
	// enrollment
	"보험가입": {"보험계약", "보험계약체결", "보험가입신청"},
	"보험계약": {"보험가입", "보험계약체결", "보험계약서"},
	// exclusions
	"면책":   {"면책사유", "면책조항", "보험면책", "면책규정"},
	"면책사유": {"면책", "면책조항", "보험면책", "면책규정"},
	// uninsured
	"무보험":    {"무보험자동차", "무보험차량", "무보험운전"},
	"무보험자동차": {"무보험", "무보험차량", "무보험운전"},
	// theft
	"도난": {"차량도난", "절도", "도난사고"},
	// riders
	"특별약관": {"특약", "특별보장", "추가보장", "특별보험"},
	"특약":   {"특별약관", "특별보장", "추가보장", "특별보험"},
	// insurer
	"보험사":  {"보험회사", "보험업체", "보험기관"},
	"보험회사": {"보험사", "보험업체", "보험기관"},
	// parties
	"피보험자":  {"보험가입자", "보험계약자", "보험대상자"},
	"보험가입자": {"피보험자", "보험계약자", "보험대상자"},
	"피해자":   {"사고피해자", "교통사고피해자", "상해자"},
	"사고피해자": {"피해자", "교통사고피해자", "상해자"},
	"가해자":   {"사고가해자", "교통사고가해자", "사고원인자"},
	"사고가해자": {"가해자", "교통사고가해자", "사고원인자"},
	// driver scope
	"가족": {"가족한정", "가족운전자", "운전자범위"},
}

// endingFamilies are interchangeable verb endings; the first entry is the dictionary form.
// More specific families come first.
var endingFamilies = [][]string{
	{"지급하다", "지급한", "지급하는", "지급했", "지급할"},
	{"청구하다", "청구한", "청구하는", "청구했", "청구할"},
	{"신청하다", "신청한", "신청하는", "신청했", "신청할"},
	{"하다", "하", "한", "하는", "했", "할"},
	{"되다", "되", "된", "되는", "됐", "될"},
	{"받다", "받", "받은", "받는", "받았", "받을"},
}

// nouns are domain nouns whose direct adjacency in a query marks a compound
// boundary worth splitting ("보험해지" → "보험 해지", "보험+해지").
var nouns = []string{
	"보험", "보험금", "보험료", "해지", "청구", "사고", "처리", "보상", "음주", "운전",
	"부담금", "면책", "특약", "할인", "가입", "계약", "도난", "가족", "무면허", "자동차",
}

// compounds add a canonical compound when both parts occur in the query.
var compounds = []struct {
	a, b, compound string
}{
	{"보험", "해지", "보험계약해지"},
	{"보험", "청구", "보험금청구"},
	{"사고", "처리", "교통사고처리"},
}
