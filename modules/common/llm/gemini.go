package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"flux-kontext-server/modules/common/apperr"
)

// GeminiConfig - 네이티브 Gemini API 설정
type GeminiConfig struct {
	APIKey     string
	Model      string
	Timeout    time.Duration
	BaseURL    string       // 테스트용 override
	HTTPClient *http.Client // 테스트용 override
}

// GeminiClient - google.golang.org/genai 기반 chat
type GeminiClient struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGeminiClient - 키가 없으면 Configured() false 인 클라이언트를 반환한다
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	c := &GeminiClient{
		model:   cfg.Model,
		timeout: cfg.Timeout,
	}
	if cfg.APIKey == "" {
		log.Println("⚠️ [LLM] GEMINI_API_KEY not configured")
		return c, nil
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	c.client = client
	return c, nil
}

func (c *GeminiClient) Configured() bool {
	return c.client != nil
}

// Chat - system 메시지는 SystemInstruction 으로, 나머지는 contents 로 전달
func (c *GeminiClient) Chat(ctx context.Context, messages []Message, opts Options) (string, error) {
	if !c.Configured() {
		return "", apperr.Configuration("LLM API key is not configured, set GEMINI_API_KEY")
	}

	contents, system, err := toGenaiContents(messages)
	if err != nil {
		return "", err
	}

	temp := float32(opts.Temperature)
	config := &genai.GenerateContentConfig{
		Temperature:       &temp,
		SystemInstruction: system,
	}
	if opts.MaxTokens > 0 {
		config.MaxOutputTokens = int32(opts.MaxTokens)
	}

	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		log.Printf("❌ [LLM] Gemini call failed after %s: %v", time.Since(start), err)
		return "", mapGenaiError(err)
	}

	if len(resp.Candidates) == 0 {
		return "", apperr.New(apperr.KindEmptyResponse, "AI response has no candidates")
	}
	candidate := resp.Candidates[0]
	var sb strings.Builder
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part != nil && !part.Thought {
				sb.WriteString(part.Text)
			}
		}
	}
	content := strings.TrimSpace(sb.String())
	if content == "" {
		if candidate.FinishReason == genai.FinishReasonMaxTokens {
			return "", apperr.New(apperr.KindTruncated, "AI response truncated by max tokens")
		}
		return "", apperr.New(apperr.KindEmptyResponse, "AI returned empty content")
	}

	log.Printf("✅ [LLM] Gemini response received in %s (%d chars): %s", time.Since(start), len(content), preview(content, 80))
	return content, nil
}

func toGenaiContents(messages []Message) ([]*genai.Content, *genai.Content, error) {
	var contents []*genai.Content
	var systemParts []*genai.Part

	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			systemParts = append(systemParts, genai.NewPartFromText(msg.Text))
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(msg.Text, genai.RoleModel))
		default:
			if len(msg.Parts) == 0 {
				contents = append(contents, genai.NewContentFromText(msg.Text, genai.RoleUser))
				continue
			}
			parts := make([]*genai.Part, 0, len(msg.Parts))
			for _, p := range msg.Parts {
				if p.IsImage() {
					data, err := base64.StdEncoding.DecodeString(p.ImageBase64)
					if err != nil {
						return nil, nil, apperr.Wrap(apperr.KindInternal, "invalid base64 image payload", err)
					}
					parts = append(parts, genai.NewPartFromBytes(data, p.MIMEType()))
				} else if p.Text != "" {
					parts = append(parts, genai.NewPartFromText(p.Text))
				}
			}
			contents = append(contents, genai.NewContentFromParts(parts, genai.RoleUser))
		}
	}

	var system *genai.Content
	if len(systemParts) > 0 {
		system = &genai.Content{Parts: systemParts}
	}
	return contents, system, nil
}

func mapGenaiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apperr.FromStatus(apiErr.Code, fmt.Sprintf("AI service returned status %d", apiErr.Code), err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return apperr.FromStatus(apiErrPtr.Code, fmt.Sprintf("AI service returned status %d", apiErrPtr.Code), err)
	}
	return apperr.FromTransport("AI service request failed", err)
}
