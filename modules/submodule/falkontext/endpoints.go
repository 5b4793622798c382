package falkontext

import "strings"

// Family - 모델 계열 (입력 스키마가 계열마다 다름)
type Family string

const (
	FamilyEdit        Family = "edit"
	FamilyMultiEdit   Family = "multi-edit"
	FamilyTextToImage Family = "text-to-image"
	FamilyDev         Family = "dev"
)

// 모델 id
const (
	ModelMax            = "max"
	ModelPro            = "pro"
	ModelMaxMulti       = "max-multi"
	ModelMaxTextToImage = "max-text-to-image"
	ModelProTextToImage = "pro-text-to-image"
	ModelKontextDev     = "kontext-dev"
)

// ModelInfo - 모델 id → fal endpoint 및 계열
type ModelInfo struct {
	ID       string
	Endpoint string
	Family   Family
}

var models = map[string]ModelInfo{
	ModelMax:            {ID: ModelMax, Endpoint: "fal-ai/flux-pro/kontext/max", Family: FamilyEdit},
	ModelPro:            {ID: ModelPro, Endpoint: "fal-ai/flux-pro/kontext", Family: FamilyEdit},
	ModelMaxMulti:       {ID: ModelMaxMulti, Endpoint: "fal-ai/flux-pro/kontext/max/multi", Family: FamilyMultiEdit},
	ModelMaxTextToImage: {ID: ModelMaxTextToImage, Endpoint: "fal-ai/flux-pro/kontext/max/text-to-image", Family: FamilyTextToImage},
	ModelProTextToImage: {ID: ModelProTextToImage, Endpoint: "fal-ai/flux-pro/kontext/text-to-image", Family: FamilyTextToImage},
	ModelKontextDev:     {ID: ModelKontextDev, Endpoint: "fal-ai/flux-kontext/dev", Family: FamilyDev},
}

// LookupModel - 모델 id 조회
func LookupModel(id string) (ModelInfo, bool) {
	m, ok := models[id]
	return m, ok
}

// ModelIDs - 지원 모델 목록 (정렬 고정)
func ModelIDs() []string {
	return []string{ModelMax, ModelPro, ModelMaxMulti, ModelMaxTextToImage, ModelProTextToImage, ModelKontextDev}
}

// SafetyLevels - 계열별 safety_tolerance 허용값. dev 는 enable_safety_checker 사용
func (f Family) SafetyLevels() []string {
	switch f {
	case FamilyEdit, FamilyMultiEdit:
		return []string{"1", "2", "3", "4", "5", "6"}
	case FamilyTextToImage:
		return []string{"1", "2", "3"}
	default:
		return nil
	}
}

// AcceptsSafety - 허용 safety_tolerance 값인지
func (f Family) AcceptsSafety(level string) bool {
	for _, l := range f.SafetyLevels() {
		if l == level {
			return true
		}
	}
	return false
}

// appID - queue 상태/결과 URL 에 쓰는 owner/app (endpoint 앞 두 segment)
func appID(endpoint string) string {
	segments := strings.SplitN(endpoint, "/", 3)
	if len(segments) < 2 {
		return endpoint
	}
	return segments[0] + "/" + segments[1]
}
