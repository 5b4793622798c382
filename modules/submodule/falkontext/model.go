package falkontext

// Input - 계열별 요청 입력. 이 패키지의 타입만 구현한다
type Input interface {
	family() Family
}

// EditInput - max / pro 단일 이미지 편집
type EditInput struct {
	Prompt          string  `json:"prompt"`
	ImageURL        string  `json:"image_url"`
	Seed            *int64  `json:"seed,omitempty"`
	GuidanceScale   float64 `json:"guidance_scale"`
	SyncMode        bool    `json:"sync_mode"`
	NumImages       int     `json:"num_images"`
	OutputFormat    string  `json:"output_format"`
	SafetyTolerance string  `json:"safety_tolerance"`
	AspectRatio     string  `json:"aspect_ratio,omitempty"`
}

// MultiEditInput - max-multi 다중 이미지 편집
type MultiEditInput struct {
	Prompt          string   `json:"prompt"`
	ImageURLs       []string `json:"image_urls"`
	Seed            *int64   `json:"seed,omitempty"`
	GuidanceScale   float64  `json:"guidance_scale"`
	SyncMode        bool     `json:"sync_mode"`
	NumImages       int      `json:"num_images"`
	OutputFormat    string   `json:"output_format"`
	SafetyTolerance string   `json:"safety_tolerance"`
	AspectRatio     string   `json:"aspect_ratio,omitempty"`
}

// TextToImageInput - text-to-image (참조 이미지 없음)
type TextToImageInput struct {
	Prompt          string  `json:"prompt"`
	Seed            *int64  `json:"seed,omitempty"`
	GuidanceScale   float64 `json:"guidance_scale"`
	SyncMode        bool    `json:"sync_mode"`
	NumImages       int     `json:"num_images"`
	OutputFormat    string  `json:"output_format"`
	SafetyTolerance string  `json:"safety_tolerance"`
	AspectRatio     string  `json:"aspect_ratio,omitempty"`
}

// DevInput - kontext-dev. aspect_ratio 대신 resolution_mode, sync_mode 없음
type DevInput struct {
	Prompt              string  `json:"prompt"`
	ImageURL            string  `json:"image_url"`
	NumInferenceSteps   int     `json:"num_inference_steps,omitempty"`
	Seed                *int64  `json:"seed,omitempty"`
	GuidanceScale       float64 `json:"guidance_scale"`
	NumImages           int     `json:"num_images,omitempty"`
	EnableSafetyChecker *bool   `json:"enable_safety_checker,omitempty"`
	OutputFormat        string  `json:"output_format"`
	Acceleration        string  `json:"acceleration,omitempty"`
	ResolutionMode      string  `json:"resolution_mode"`
}

func (*EditInput) family() Family        { return FamilyEdit }
func (*MultiEditInput) family() Family   { return FamilyMultiEdit }
func (*TextToImageInput) family() Family { return FamilyTextToImage }
func (*DevInput) family() Family         { return FamilyDev }

// FamilyOf - 입력의 모델 계열
func FamilyOf(in Input) Family {
	return in.family()
}

// Image - 생성 이미지
type Image struct {
	URL         string `json:"url"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ContentType string `json:"content_type,omitempty"`
}

// Output - fal 응답
type Output struct {
	Images          []Image        `json:"images"`
	Seed            int64          `json:"seed"`
	HasNSFWConcepts []bool         `json:"has_nsfw_concepts"`
	Prompt          string         `json:"prompt"`
	Timings         map[string]any `json:"timings,omitempty"`
}

// Result - 동기 호출 결과
type Result struct {
	Output    *Output
	RequestID string
}

// QueueSubmission - queue 제출 응답
type QueueSubmission struct {
	RequestID   string `json:"request_id"`
	StatusURL   string `json:"status_url,omitempty"`
	ResponseURL string `json:"response_url,omitempty"`
}

// QueueStatus - queue 상태 (IN_QUEUE / IN_PROGRESS / COMPLETED)
type QueueStatus struct {
	Status        string `json:"status"`
	QueuePosition *int   `json:"queue_position,omitempty"`
}
