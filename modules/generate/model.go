package generate

import "flux-kontext-server/modules/submodule/falkontext"

// GenerationRequest - /generate 요청
type GenerationRequest struct {
	Prompt          string   `json:"prompt"`
	Model           string   `json:"model"`
	ImageURL        string   `json:"imageUrl,omitempty"`
	ImageURLs       []string `json:"imageUrls,omitempty"`
	AspectRatio     string   `json:"aspectRatio,omitempty"`
	GuidanceScale   float64  `json:"guidanceScale,omitempty"`
	NumImages       int      `json:"numImages,omitempty"`
	OutputFormat    string   `json:"outputFormat,omitempty"`
	SafetyTolerance string   `json:"safetyTolerance,omitempty"`
	Seed            *int64   `json:"seed,omitempty"`

	// preset 정보 (로그용)
	UsePreset  bool   `json:"usePreset,omitempty"`
	PresetName string `json:"presetName,omitempty"`
	Subject    string `json:"subject,omitempty"`

	// kontext-dev 전용
	NumInferenceSteps   int    `json:"numInferenceSteps,omitempty"`
	EnableSafetyChecker *bool  `json:"enableSafetyChecker,omitempty"`
	Acceleration        string `json:"acceleration,omitempty"`
	ResolutionMode      string `json:"resolutionMode,omitempty"`
}

// GenerationResult - 생성 결과
type GenerationResult struct {
	Images    []falkontext.Image
	Seed      int64
	Prompt    string
	NSFWFlags []bool
	Timings   map[string]any
	RequestID string
}

// GenerationData - 응답 data (fal 출력 필드명 유지)
type GenerationData struct {
	Images          []falkontext.Image `json:"images"`
	Seed            int64              `json:"seed"`
	Prompt          string             `json:"prompt"`
	HasNSFWConcepts []bool             `json:"has_nsfw_concepts"`
	Timings         map[string]any     `json:"timings,omitempty"`
}

// GenerateResponse - /generate 응답
type GenerateResponse struct {
	Success   bool           `json:"success"`
	Data      GenerationData `json:"data"`
	RequestID string         `json:"requestId,omitempty"`
}

// QueueSubmitResponse - POST /generate/queue 응답
type QueueSubmitResponse struct {
	Success   bool   `json:"success"`
	RequestID string `json:"requestId"`
	Model     string `json:"model"`
}

// QueueStatusResponse - GET /generate/queue/{requestId}/status 응답
type QueueStatusResponse struct {
	Success       bool   `json:"success"`
	RequestID     string `json:"requestId"`
	Status        string `json:"status"`
	QueuePosition *int   `json:"queuePosition,omitempty"`
}

func toData(r *GenerationResult) GenerationData {
	return GenerationData{
		Images:          r.Images,
		Seed:            r.Seed,
		Prompt:          r.Prompt,
		HasNSFWConcepts: r.NSFWFlags,
		Timings:         r.Timings,
	}
}
