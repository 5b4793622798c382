package llm

import (
	"context"
	"fmt"
	"log"
	"time"

	"flux-kontext-server/modules/common/config"
)

// Role - 메시지 역할
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Part - 멀티파트 user 메시지 조각 (텍스트 또는 base64 이미지)
type Part struct {
	Text        string
	ImageBase64 string
	ImageFormat string // jpeg, png, webp
}

// Message - 채팅 메시지. Parts 가 있으면 Text 대신 사용
type Message struct {
	Role  Role
	Text  string
	Parts []Part
}

// Options - 호출 옵션
type Options struct {
	Temperature float64
	MaxTokens   int // 0 이면 미설정
}

// Client - vision 지원 chat completion 어댑터
type Client interface {
	Chat(ctx context.Context, messages []Message, opts Options) (string, error)
	Configured() bool
}

// System - system 메시지
func System(text string) Message {
	return Message{Role: RoleSystem, Text: text}
}

// User - 텍스트 user 메시지
func User(text string) Message {
	return Message{Role: RoleUser, Text: text}
}

// UserWithParts - 텍스트 + 이미지 user 메시지
func UserWithParts(parts ...Part) Message {
	return Message{Role: RoleUser, Parts: parts}
}

// TextPart - 텍스트 조각
func TextPart(text string) Part {
	return Part{Text: text}
}

// ImagePart - base64 이미지 조각
func ImagePart(base64Data, format string) Part {
	return Part{ImageBase64: base64Data, ImageFormat: format}
}

// IsImage - 이미지 조각 여부
func (p Part) IsImage() bool {
	return p.ImageBase64 != ""
}

// MIMEType - image/<format>, 비어 있으면 jpeg
func (p Part) MIMEType() string {
	if p.ImageFormat == "" {
		return "image/jpeg"
	}
	return "image/" + p.ImageFormat
}

// DataURI - data:image/<format>;base64,<payload>
func (p Part) DataURI() string {
	return fmt.Sprintf("data:%s;base64,%s", p.MIMEType(), p.ImageBase64)
}

// New - LLM_PROVIDER 에 따라 backend 선택
func New(ctx context.Context, cfg *config.Config) (Client, error) {
	switch cfg.LLMProvider {
	case config.LLMProviderGenAI:
		log.Printf("🤖 [LLM] Using native Gemini backend (model: %s)", cfg.LLMModel)
		client, err := NewGeminiClient(ctx, GeminiConfig{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.LLMModel,
			Timeout: cfg.LLMTimeout,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.LLMProviderOpenAI, "":
		log.Printf("🤖 [LLM] Using OpenAI-compatible backend (model: %s, base: %s)", cfg.LLMModel, cfg.OpenAIBaseURL)
		return NewOpenAIClient(OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.LLMModel,
			Timeout: cfg.LLMTimeout,
		}), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.LLMProvider)
	}
}

// withTimeout - timeout 이 0 이면 부모 context 그대로
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
