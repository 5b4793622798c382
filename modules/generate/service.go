package generate

import (
	"context"
	"log"
	"strings"

	"flux-kontext-server/modules/common/apperr"
	"flux-kontext-server/modules/common/utils"
	"flux-kontext-server/modules/submodule/falkontext"
)

const (
	MaxPromptLength = utils.MaxPromptLength

	DefaultGuidanceScale   = 3.5
	DefaultNumImages       = 1
	DefaultOutputFormat    = "jpeg"
	DefaultSafetyTolerance = "2"
	DefaultResolutionMode  = "auto"
)

var (
	accelerationLevels = map[string]bool{"none": true, "regular": true, "high": true}
	// dev resolution_mode: auto / match_input + 고정 비율
	extraResolutionModes = map[string]bool{"auto": true, "match_input": true, "4:5": true, "5:4": true}
)

// ImageBackend - 이미지 생성 백엔드
type ImageBackend interface {
	Generate(ctx context.Context, model falkontext.ModelInfo, input falkontext.Input) (*falkontext.Result, error)
	Submit(ctx context.Context, model falkontext.ModelInfo, input falkontext.Input) (*falkontext.QueueSubmission, error)
	Status(ctx context.Context, model falkontext.ModelInfo, requestID string) (*falkontext.QueueStatus, error)
	QueueResult(ctx context.Context, model falkontext.ModelInfo, requestID string) (*falkontext.Result, error)
}

// Service - 생성 오케스트레이터
type Service struct {
	backend ImageBackend
}

func NewService(backend ImageBackend) *Service {
	return &Service{backend: backend}
}

// Generate - 요청 검증 → 계열별 입력 구성 → 단일 호출
func (s *Service) Generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error) {
	model, input, err := BuildInput(req)
	if err != nil {
		return nil, err
	}
	logRequest(req, model)

	res, err := s.backend.Generate(ctx, model, input)
	if err != nil {
		return nil, err
	}
	return toResult(res), nil
}

// Submit - queue 제출
func (s *Service) Submit(ctx context.Context, req GenerationRequest) (*falkontext.QueueSubmission, error) {
	model, input, err := BuildInput(req)
	if err != nil {
		return nil, err
	}
	logRequest(req, model)
	return s.backend.Submit(ctx, model, input)
}

// Status - queue 상태
func (s *Service) Status(ctx context.Context, modelID, requestID string) (*falkontext.QueueStatus, error) {
	model, err := queueModel(modelID, requestID)
	if err != nil {
		return nil, err
	}
	return s.backend.Status(ctx, model, requestID)
}

// QueueResult - queue 결과
func (s *Service) QueueResult(ctx context.Context, modelID, requestID string) (*GenerationResult, error) {
	model, err := queueModel(modelID, requestID)
	if err != nil {
		return nil, err
	}
	res, err := s.backend.QueueResult(ctx, model, requestID)
	if err != nil {
		return nil, err
	}
	return toResult(res), nil
}

// BuildInput - 모델 계열별 입력 구성. aspectRatio "auto" 는 호출 전에 해석되어 있어야 한다
func BuildInput(req GenerationRequest) (falkontext.ModelInfo, falkontext.Input, error) {
	var none falkontext.ModelInfo

	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return none, nil, apperr.Validation("prompt is required")
	}
	if utils.PromptTooLong(prompt) {
		return none, nil, apperr.Validation("prompt must be at most %d characters", MaxPromptLength)
	}

	model, ok := falkontext.LookupModel(strings.TrimSpace(req.Model))
	if !ok {
		return none, nil, apperr.Validation("unsupported model %q, expected one of %s", req.Model, strings.Join(falkontext.ModelIDs(), ", "))
	}

	guidance := req.GuidanceScale
	if guidance == 0 {
		guidance = DefaultGuidanceScale
	}
	if guidance < 1 || guidance > 20 {
		return none, nil, apperr.Validation("guidanceScale must be between 1 and 20")
	}

	numImages := req.NumImages
	if numImages == 0 {
		numImages = DefaultNumImages
	}
	if numImages < 1 || numImages > 4 {
		return none, nil, apperr.Validation("numImages must be between 1 and 4")
	}

	outputFormat := strings.ToLower(req.OutputFormat)
	if outputFormat == "" {
		outputFormat = DefaultOutputFormat
	}
	if outputFormat != "jpeg" && outputFormat != "png" {
		return none, nil, apperr.Validation("outputFormat must be jpeg or png")
	}

	aspect := strings.TrimSpace(req.AspectRatio)
	if aspect == "auto" {
		return none, nil, apperr.Validation("aspectRatio \"auto\" must be resolved before generation")
	}
	if aspect != "" && !utils.IsValidAspectRatio(aspect) {
		return none, nil, apperr.Validation("unsupported aspectRatio %q", aspect)
	}

	imageURLs := cleanURLs(req.ImageURLs)
	imageURL := strings.TrimSpace(req.ImageURL)

	if model.Family == falkontext.FamilyDev {
		in, err := buildDevInput(req, prompt, imageURL, imageURLs, aspect, guidance, numImages, outputFormat)
		return model, in, err
	}

	safety := strings.TrimSpace(req.SafetyTolerance)
	if safety == "" {
		safety = DefaultSafetyTolerance
	}
	if !model.Family.AcceptsSafety(safety) {
		return none, nil, apperr.Validation("safetyTolerance for model %s must be one of %s", model.ID, strings.Join(model.Family.SafetyLevels(), ", "))
	}

	switch model.Family {
	case falkontext.FamilyMultiEdit:
		if len(imageURLs) == 0 && imageURL != "" {
			imageURLs = []string{imageURL}
		}
		if len(imageURLs) == 0 {
			return none, nil, apperr.Validation("imageUrls is required for model %s", model.ID)
		}
		return model, &falkontext.MultiEditInput{
			Prompt:          prompt,
			ImageURLs:       imageURLs,
			Seed:            req.Seed,
			GuidanceScale:   guidance,
			SyncMode:        true,
			NumImages:       numImages,
			OutputFormat:    outputFormat,
			SafetyTolerance: safety,
			AspectRatio:     aspect,
		}, nil

	case falkontext.FamilyTextToImage:
		if imageURL != "" || len(imageURLs) > 0 {
			return none, nil, apperr.Validation("model %s does not accept reference images", model.ID)
		}
		return model, &falkontext.TextToImageInput{
			Prompt:          prompt,
			Seed:            req.Seed,
			GuidanceScale:   guidance,
			SyncMode:        true,
			NumImages:       numImages,
			OutputFormat:    outputFormat,
			SafetyTolerance: safety,
			AspectRatio:     aspect,
		}, nil

	default:
		single, err := singleImage(model, imageURL, imageURLs)
		if err != nil {
			return none, nil, err
		}
		return model, &falkontext.EditInput{
			Prompt:          prompt,
			ImageURL:        single,
			Seed:            req.Seed,
			GuidanceScale:   guidance,
			SyncMode:        true,
			NumImages:       numImages,
			OutputFormat:    outputFormat,
			SafetyTolerance: safety,
			AspectRatio:     aspect,
		}, nil
	}
}

func buildDevInput(req GenerationRequest, prompt, imageURL string, imageURLs []string, aspect string, guidance float64, numImages int, outputFormat string) (falkontext.Input, error) {
	model, _ := falkontext.LookupModel(falkontext.ModelKontextDev)
	single, err := singleImage(model, imageURL, imageURLs)
	if err != nil {
		return nil, err
	}

	if req.NumInferenceSteps != 0 && (req.NumInferenceSteps < 1 || req.NumInferenceSteps > 50) {
		return nil, apperr.Validation("numInferenceSteps must be between 1 and 50")
	}
	acceleration := strings.ToLower(strings.TrimSpace(req.Acceleration))
	if acceleration != "" && !accelerationLevels[acceleration] {
		return nil, apperr.Validation("acceleration must be none, regular or high")
	}

	resolution := strings.TrimSpace(req.ResolutionMode)
	if resolution == "" {
		resolution = aspect
	}
	if resolution == "" {
		resolution = DefaultResolutionMode
	}
	if !extraResolutionModes[resolution] && !utils.IsValidAspectRatio(resolution) {
		return nil, apperr.Validation("unsupported resolutionMode %q", resolution)
	}

	return &falkontext.DevInput{
		Prompt:              prompt,
		ImageURL:            single,
		NumInferenceSteps:   req.NumInferenceSteps,
		Seed:                req.Seed,
		GuidanceScale:       guidance,
		NumImages:           numImages,
		EnableSafetyChecker: req.EnableSafetyChecker,
		OutputFormat:        outputFormat,
		Acceleration:        acceleration,
		ResolutionMode:      resolution,
	}, nil
}

// singleImage - 단일 이미지 모델. imageUrls 는 1장일 때만 허용
func singleImage(model falkontext.ModelInfo, imageURL string, imageURLs []string) (string, error) {
	if len(imageURLs) > 1 {
		return "", apperr.Validation("model %s accepts a single reference image, got %d", model.ID, len(imageURLs))
	}
	if imageURL == "" && len(imageURLs) == 1 {
		imageURL = imageURLs[0]
	}
	if imageURL == "" {
		return "", apperr.Validation("imageUrl is required for model %s", model.ID)
	}
	return imageURL, nil
}

func queueModel(modelID, requestID string) (falkontext.ModelInfo, error) {
	model, ok := falkontext.LookupModel(modelID)
	if !ok {
		return model, apperr.Validation("unsupported model %q", modelID)
	}
	if strings.TrimSpace(requestID) == "" {
		return model, apperr.Validation("requestId is required")
	}
	return model, nil
}

func cleanURLs(urls []string) []string {
	var out []string
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}

func toResult(res *falkontext.Result) *GenerationResult {
	return &GenerationResult{
		Images:    res.Output.Images,
		Seed:      res.Output.Seed,
		Prompt:    res.Output.Prompt,
		NSFWFlags: res.Output.HasNSFWConcepts,
		Timings:   res.Output.Timings,
		RequestID: res.RequestID,
	}
}

func logRequest(req GenerationRequest, model falkontext.ModelInfo) {
	if req.UsePreset && req.PresetName != "" {
		log.Printf("🎯 [Generate] Preset mode: %s (model: %s, hasImage: %v, subject: %q)",
			req.PresetName, model.ID, req.ImageURL != "" || len(req.ImageURLs) > 0, req.Subject)
	}
	log.Printf("🎨 [Generate] model=%s aspect=%s images=%d format=%s", model.ID, req.AspectRatio, len(req.ImageURLs)+boolToInt(req.ImageURL != ""), req.OutputFormat)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
