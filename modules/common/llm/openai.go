package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"flux-kontext-server/modules/common/apperr"
)

// OpenAIConfig - OpenAI 호환 endpoint 설정 (Gemini OpenAI 호환 API 포함)
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// OpenAIClient - openai-go 기반 chat completion
type OpenAIClient struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAIClient - 키가 없으면 Configured() false 인 클라이언트를 반환한다
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	c := &OpenAIClient{
		model:   cfg.Model,
		timeout: cfg.Timeout,
	}
	if cfg.APIKey == "" {
		log.Println("⚠️ [LLM] OPENAI_API_KEY not configured")
		return c
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		// 재시도 없음 (호출당 단일 시도)
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := openai.NewClient(opts...)
	c.client = &client
	return c
}

func (c *OpenAIClient) Configured() bool {
	return c.client != nil
}

// Chat - 단일 chat completion 호출, 첫 번째 choice 의 trim 된 텍스트 반환
func (c *OpenAIClient) Chat(ctx context.Context, messages []Message, opts Options) (string, error) {
	if !c.Configured() {
		return "", apperr.Configuration("LLM API key is not configured, set OPENAI_API_KEY")
	}

	params := openai.ChatCompletionNewParams{
		Model:       c.model,
		Messages:    toOpenAIMessages(messages),
		Temperature: openai.Float(opts.Temperature),
	}
	if opts.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(opts.MaxTokens))
	}

	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		log.Printf("❌ [LLM] OpenAI-compatible call failed after %s: %v", time.Since(start), err)
		return "", mapOpenAIError(err)
	}

	if len(resp.Choices) == 0 {
		return "", apperr.New(apperr.KindEmptyResponse, "AI response has no choices")
	}
	choice := resp.Choices[0]
	content := strings.TrimSpace(choice.Message.Content)
	if content == "" {
		if string(choice.FinishReason) == "length" {
			return "", apperr.New(apperr.KindTruncated, "AI response truncated by max tokens")
		}
		return "", apperr.New(apperr.KindEmptyResponse, "AI returned empty content")
	}

	log.Printf("✅ [LLM] Completion received in %s (%d chars): %s", time.Since(start), len(content), preview(content, 80))
	return content, nil
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			result = append(result, openai.SystemMessage(msg.Text))
		case RoleAssistant:
			result = append(result, openai.AssistantMessage(msg.Text))
		default:
			if len(msg.Parts) == 0 {
				result = append(result, openai.UserMessage(msg.Text))
				continue
			}
			parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(msg.Parts))
			for _, p := range msg.Parts {
				if p.IsImage() {
					parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
						URL: p.DataURI(),
					}))
				} else if p.Text != "" {
					parts = append(parts, openai.TextContentPart(p.Text))
				}
			}
			result = append(result, openai.ChatCompletionMessageParamUnion{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfArrayOfContentParts: parts,
					},
				},
			})
		}
	}
	return result
}

func mapOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apperr.FromStatus(apiErr.StatusCode, fmt.Sprintf("AI service returned status %d", apiErr.StatusCode), err)
	}
	return apperr.FromTransport("AI service request failed", err)
}
