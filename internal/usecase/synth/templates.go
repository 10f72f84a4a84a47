package synth

// template emits text when any trigger occurs in the evidence.
type template struct {
	triggers []string
	text     string
}

var templates = map[Topic][]template{
	TopicImpaired: {
		{[]string{"사고부담금", "부담금"}, "음주·무면허 운전 중 사고는 보험사가 먼저 보상한 뒤, 약관에서 정한 사고부담금을 운전자에게 청구합니다."},
		{[]string{"대인"}, "대인배상 보상 시에도 약관이 정한 금액만큼 운전자가 사고부담금을 부담합니다."},
		{[]string{"대물"}, "대물배상은 약관이 정한 한도를 넘는 손해에 대해 사고부담금이 부과됩니다."},
		{[]string{"자기차량", "자차"}, "음주·무면허 운전 중 발생한 자기차량손해는 보상하지 않는 경우가 많습니다."},
		{[]string{"면책", "보상하지"}, "약관의 면책 조항에 해당하면 보험금이 지급되지 않을 수 있습니다."},
	},
	TopicDiscount: {
		{[]string{"마일리지", "주행거리"}, "주행거리(마일리지) 특약은 약정 거리 이하로 운행하면 보험료 일부를 돌려받는 방식입니다."},
		{[]string{"블랙박스"}, "블랙박스 장착 차량은 장착 특약으로 보험료 할인을 받을 수 있습니다."},
		{[]string{"무사고", "할인·할증", "등급"}, "무사고 기간이 길수록 할인·할증 등급이 좋아져 보험료가 낮아집니다."},
		{[]string{"자녀", "임신"}, "자녀 또는 임신 관련 할인 특약은 가족관계 증빙 서류가 필요합니다."},
		{[]string{"할인"}, "할인 특약은 가입 조건과 증빙 요건을 충족해야 적용됩니다."},
	},
	TopicExclusion: {
		{[]string{"고의"}, "피보험자의 고의로 생긴 손해는 보상하지 않습니다."},
		{[]string{"전쟁", "지진", "천재지변"}, "전쟁·혁명·지진 등 약관에 열거된 사유로 생긴 손해는 보상하지 않습니다."},
		{[]string{"음주", "무면허"}, "음주·무면허 운전 사고는 담보에 따라 보상이 제한되거나 사고부담금이 부과됩니다."},
		{[]string{"경기", "시험", "영업"}, "경기·시험 또는 유상 운송 중 사고는 면책 대상이 될 수 있습니다."},
		{[]string{"면책", "보상하지"}, "약관의 '보상하지 않는 손해' 조항에 해당하는지 먼저 확인해야 합니다."},
	},
	TopicTheft: {
		{[]string{"도난"}, "차량 도난은 자기차량손해 담보에 가입한 경우에 보상받을 수 있습니다."},
		{[]string{"경찰", "신고"}, "도난 사실을 경찰서에 신고하고 보험사에 알려야 합니다."},
		{[]string{"30일", "찾지 못"}, "도난 신고 후 약관이 정한 기간 안에 차량을 찾지 못하면 보험금이 지급됩니다."},
		{[]string{"부분품", "부속품"}, "차량 일부 부분품이나 부속품만 도난당한 경우는 보상하지 않을 수 있습니다."},
	},
	TopicFamily: {
		{[]string{"가족"}, "운전자 범위를 가족으로 한정하면 보험료는 낮아지지만 범위 밖 운전자의 사고는 보상되지 않습니다."},
		{[]string{"배우자"}, "기명피보험자의 배우자는 가족 한정 운전자 범위에 포함됩니다."},
		{[]string{"형제", "자매"}, "형제자매는 가족 범위에 포함되지 않는 경우가 많으니 약관을 확인하세요."},
		{[]string{"연령", "세 이상"}, "운전자 연령 한정 특약 조건도 함께 충족해야 보상됩니다."},
		{[]string{"자녀", "사위", "며느리"}, "자녀와 그 배우자(사위·며느리)의 포함 여부는 상품마다 다릅니다."},
	},
	TopicGeneric: {
		{[]string{"보험금", "청구"}, "보험금을 청구할 때는 사고 증명 서류 등 약관이 정한 서류를 제출해야 합니다."},
		{[]string{"해지", "환급"}, "보험 계약을 해지하면 약관에 따라 남은 기간의 보험료가 환급될 수 있습니다."},
		{[]string{"보험료"}, "보험료는 차량·운전자 조건과 가입 특약에 따라 달라집니다."},
		{[]string{"특약", "특별약관"}, "가입한 특별약관에 따라 보장 범위가 달라집니다."},
		{[]string{"고객센터", "연락처", "전화"}, "자세한 사항은 보험사 고객센터로 문의하세요."},
	},
}

// closing bullets guarantee the minimum bullet count when evidence is thin.
var closing = []string{
	"가입하신 상품의 약관 원문에서 세부 조건을 확인하세요.",
	"정확한 보상 여부는 보험사 고객센터 상담으로 확인하는 것이 좋습니다.",
	"사고 관련 서류를 미리 준비하면 보상 처리가 빨라집니다.",
}
