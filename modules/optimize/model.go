package optimize

// OptimizeRequest - /optimize-prompt 요청
type OptimizeRequest struct {
	Prompt    string   `json:"prompt"`
	Model     string   `json:"model"`
	ImageURL  string   `json:"imageUrl,omitempty"`
	ImageURLs []string `json:"imageUrls,omitempty"`

	// preset 모드 (이미지 필수, 폴백 없음)
	UsePreset  bool   `json:"usePreset,omitempty"`
	PresetName string `json:"presetName,omitempty"`
	Subject    string `json:"subject,omitempty"`
}

// OptimizeResult - 최적화 결과
type OptimizeResult struct {
	OptimizedPrompt   string
	OriginalPrompt    string
	UsedImageAnalysis bool
	Template          TemplateKind
	Diagnostics       Diagnostics
}

// Diagnostics - 로그용 메타데이터 (응답에는 노출하지 않음)
type Diagnostics struct {
	ImageCount        int
	AnalysisAttempted bool
	AnalysisError     error
}

// FellBack - 이미지 분석을 시도했지만 텍스트 최적화로 넘어갔는지
func (d Diagnostics) FellBack() bool {
	return d.AnalysisAttempted && d.AnalysisError != nil
}

// PresetRequest - /generate-preset-prompt 요청
type PresetRequest struct {
	PresetName string `json:"presetName"`
	ImageURL   string `json:"imageUrl"`
	Subject    string `json:"subject,omitempty"`
}

// PresetResult - preset 프롬프트 생성 결과
type PresetResult struct {
	Prompt string
	Preset string
}

// OptimizeResponse - /optimize-prompt 응답
type OptimizeResponse struct {
	Success           bool   `json:"success"`
	OptimizedPrompt   string `json:"optimizedPrompt"`
	OriginalPrompt    string `json:"originalPrompt"`
	UsedImageAnalysis bool   `json:"usedImageAnalysis"`
}

// PresetResponse - /generate-preset-prompt 응답
type PresetResponse struct {
	Success bool   `json:"success"`
	Prompt  string `json:"prompt"`
	Preset  string `json:"preset"`
}

// PresetListResponse - GET /presets 응답
type PresetListResponse struct {
	Success bool         `json:"success"`
	Presets []PresetItem `json:"presets"`
}

type PresetItem struct {
	Name  string `json:"name"`
	Brief string `json:"brief"`
}
