package optimize

import (
	"context"
	"log"
	"strings"

	"flux-kontext-server/modules/common/apperr"
	"flux-kontext-server/modules/common/fetch"
	"flux-kontext-server/modules/common/llm"
	"flux-kontext-server/modules/common/utils"
	"flux-kontext-server/modules/preset"
)

const (
	// MaxPromptLength - 입력/출력 프롬프트 최대 길이 (rune)
	MaxPromptLength = utils.MaxPromptLength

	optimizeTemperature = 0.7
	presetTemperature   = 0.8
)

// ImageFetcher - 참조 이미지 다운로더
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.Image, error)
}

// Service - 프롬프트 최적화 오케스트레이터
type Service struct {
	llm       llm.Client
	fetcher   ImageFetcher
	maxTokens int
}

// NewService - maxTokens 0 이면 미설정
func NewService(client llm.Client, fetcher ImageFetcher, maxTokens int) *Service {
	return &Service{
		llm:       client,
		fetcher:   fetcher,
		maxTokens: maxTokens,
	}
}

// Optimize - 이미지 분석 → 실패 시 텍스트 최적화로 폴백
func (s *Service) Optimize(ctx context.Context, req OptimizeRequest) (*OptimizeResult, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if err := s.validate(prompt, req); err != nil {
		return nil, err
	}

	imageURLs := selectImages(req)
	result := &OptimizeResult{
		OriginalPrompt: prompt,
		Diagnostics:    Diagnostics{ImageCount: len(imageURLs)},
	}

	if req.UsePreset {
		return s.optimizeWithPreset(ctx, req, imageURLs[0], result)
	}

	log.Printf("✨ [Optimize] model=%s images=%d prompt=%s", req.Model, len(imageURLs), utils.Truncate(prompt, 60))

	if len(imageURLs) > 0 {
		result.Diagnostics.AnalysisAttempted = true
		tmpl := Select(IsTextToImageModel(req.Model), len(imageURLs), false)

		text, err := s.analyze(ctx, tmpl, prompt, imageURLs, optimizeTemperature)
		if err == nil {
			result.OptimizedPrompt = clipOutput(text)
			result.UsedImageAnalysis = true
			result.Template = tmpl.Kind
			log.Printf("✅ [Optimize] Image analysis succeeded (%s, %d chars)", tmpl.Kind, len(text))
			return result, nil
		}

		result.Diagnostics.AnalysisError = err
		log.Printf("⚠️ [Optimize] Image analysis failed for %d image(s), falling back to text optimization: kind=%s err=%v",
			len(imageURLs), apperr.KindOf(err), err)
	}

	tmpl := Select(IsTextToImageModel(req.Model), 0, false)
	text, err := s.llm.Chat(ctx, []llm.Message{
		llm.System(tmpl.System),
		llm.User(tmpl.Fill(prompt)),
	}, s.options(optimizeTemperature))
	if err != nil {
		log.Printf("❌ [Optimize] Text optimization failed (%s): %v", tmpl.Kind, err)
		return nil, err
	}

	result.OptimizedPrompt = clipOutput(text)
	result.Template = tmpl.Kind
	log.Printf("✅ [Optimize] Text optimization succeeded (%s, %d chars, fell back: %v)", tmpl.Kind, len(text), result.Diagnostics.FellBack())
	return result, nil
}

// GeneratePresetPrompt - preset + 참조 이미지 → 편집 지시문. 다운로드 실패는 그대로 반환
func (s *Service) GeneratePresetPrompt(ctx context.Context, req PresetRequest) (*PresetResult, error) {
	name := strings.TrimSpace(req.PresetName)
	imageURL := strings.TrimSpace(req.ImageURL)
	if name == "" {
		return nil, apperr.Validation("presetName is required")
	}
	if imageURL == "" {
		return nil, apperr.Validation("imageUrl is required")
	}
	p, ok := preset.GetByName(name)
	if !ok {
		return nil, apperr.Validation("preset not found: %s", name)
	}
	if !s.llm.Configured() {
		return nil, apperr.Configuration("AI service is not configured, cannot generate preset prompt")
	}

	log.Printf("🎯 [Preset] preset=%s subject=%q image=%s", p.Name, req.Subject, imageURL)

	text, err := s.analyze(ctx, presetTemplate, preset.BuildPrompt(p, req.Subject), []string{imageURL}, presetTemperature)
	if err != nil {
		log.Printf("❌ [Preset] %s failed: %v", p.Name, err)
		return nil, err
	}

	log.Printf("✅ [Preset] %s prompt generated (%d chars)", p.Name, len(text))
	return &PresetResult{Prompt: clipOutput(text), Preset: p.Name}, nil
}

func (s *Service) optimizeWithPreset(ctx context.Context, req OptimizeRequest, imageURL string, result *OptimizeResult) (*OptimizeResult, error) {
	presetResult, err := s.GeneratePresetPrompt(ctx, PresetRequest{
		PresetName: req.PresetName,
		ImageURL:   imageURL,
		Subject:    req.Subject,
	})
	if err != nil {
		return nil, err
	}
	result.OptimizedPrompt = presetResult.Prompt
	result.UsedImageAnalysis = true
	result.Template = TemplatePreset
	result.Diagnostics.AnalysisAttempted = true
	return result, nil
}

// analyze - 이미지를 순서대로 다운로드(첫 실패에서 중단) 후 LLM 호출
func (s *Service) analyze(ctx context.Context, tmpl Template, instruction string, imageURLs []string, temperature float64) (string, error) {
	parts := make([]llm.Part, 0, len(imageURLs)+1)
	parts = append(parts, llm.TextPart(tmpl.Fill(instruction)))

	for i, u := range imageURLs {
		img, err := s.fetcher.Fetch(ctx, u)
		if err != nil {
			log.Printf("⚠️ [Optimize] Image %d/%d download failed, aborting analysis: %v", i+1, len(imageURLs), err)
			return "", err
		}
		parts = append(parts, llm.ImagePart(img.Base64(), img.Format))
	}

	var messages []llm.Message
	if tmpl.System != "" {
		messages = append(messages, llm.System(tmpl.System))
	}
	messages = append(messages, llm.UserWithParts(parts...))

	return s.llm.Chat(ctx, messages, s.options(temperature))
}

func (s *Service) validate(prompt string, req OptimizeRequest) error {
	if req.UsePreset {
		if strings.TrimSpace(req.PresetName) == "" {
			return apperr.Validation("presetName is required when usePreset is true")
		}
		if len(selectImages(req)) == 0 {
			return apperr.Validation("a reference image is required when usePreset is true")
		}
	} else if prompt == "" {
		return apperr.Validation("prompt is required")
	}
	if utils.PromptTooLong(prompt) {
		return apperr.Validation("prompt must be at most %d characters", MaxPromptLength)
	}
	if strings.TrimSpace(req.Model) == "" {
		return apperr.Validation("model is required")
	}
	if n := len(selectImages(req)); n > 1 && !strings.Contains(req.Model, "multi") {
		return apperr.Validation("model %s accepts a single reference image, got %d", req.Model, n)
	}
	if !s.llm.Configured() {
		return apperr.Configuration("AI service is not configured, please contact the administrator")
	}
	return nil
}

func (s *Service) options(temperature float64) llm.Options {
	return llm.Options{Temperature: temperature, MaxTokens: s.maxTokens}
}

// selectImages - imageUrls 가 있으면 우선, 없으면 imageUrl 단건
func selectImages(req OptimizeRequest) []string {
	var urls []string
	for _, u := range req.ImageURLs {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	if len(urls) > 0 {
		return urls
	}
	if u := strings.TrimSpace(req.ImageURL); u != "" {
		return []string{u}
	}
	return nil
}

// clipOutput - 최적화 결과를 /generate 가 받는 길이로 맞춤
func clipOutput(text string) string {
	clipped := utils.ClipPrompt(text)
	if len(clipped) != len(text) {
		log.Printf("⚠️ [Optimize] Optimized prompt exceeded %d characters, clipped", MaxPromptLength)
	}
	return clipped
}
