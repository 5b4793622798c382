package optimize

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flux-kontext-server/modules/common/apperr"
	"flux-kontext-server/modules/common/fetch"
	"flux-kontext-server/modules/common/llm"
	"flux-kontext-server/modules/generate"
)

type chatCall struct {
	messages []llm.Message
	opts     llm.Options
}

// fakeLLM - 호출을 기록하고 순서대로 응답
type fakeLLM struct {
	configured bool
	replies    []string
	errs       []error
	calls      []chatCall
}

func (f *fakeLLM) Configured() bool { return f.configured }

func (f *fakeLLM) Chat(_ context.Context, messages []llm.Message, opts llm.Options) (string, error) {
	i := len(f.calls)
	f.calls = append(f.calls, chatCall{messages: messages, opts: opts})
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	if err != nil {
		return "", err
	}
	if i < len(f.replies) {
		return f.replies[i], nil
	}
	return "default reply", nil
}

func (c chatCall) imageParts() []llm.Part {
	var out []llm.Part
	for _, m := range c.messages {
		for _, p := range m.Parts {
			if p.IsImage() {
				out = append(out, p)
			}
		}
	}
	return out
}

func (c chatCall) allText() string {
	var sb strings.Builder
	for _, m := range c.messages {
		sb.WriteString(m.Text)
		for _, p := range m.Parts {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

type fakeFetcher struct {
	failOn  map[string]bool
	fetched []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (*fetch.Image, error) {
	f.fetched = append(f.fetched, url)
	if f.failOn[url] {
		return nil, apperr.New(apperr.KindDownload, "failed to download image "+url+": status 404")
	}
	return &fetch.Image{URL: url, Data: []byte("img:" + url), Format: "png"}, nil
}

func newTestService(client *fakeLLM, fetcher *fakeFetcher) *Service {
	return NewService(client, fetcher, 0)
}

func TestOptimizeTextOnly(t *testing.T) {
	client := &fakeLLM{configured: true, replies: []string{"A pair of black aviator sunglasses on the subject"}}
	svc := newTestService(client, &fakeFetcher{})

	res, err := svc.Optimize(context.Background(), OptimizeRequest{Prompt: "  add sunglasses ", Model: "pro-text-to-image"})
	require.NoError(t, err)

	assert.Equal(t, "add sunglasses", res.OriginalPrompt)
	assert.NotEmpty(t, res.OptimizedPrompt)
	assert.False(t, res.UsedImageAnalysis)
	assert.Equal(t, TemplateTextToImage, res.Template)
	assert.False(t, res.Diagnostics.AnalysisAttempted)

	require.Len(t, client.calls, 1)
	call := client.calls[0]
	assert.Equal(t, 0.7, call.opts.Temperature)
	require.Len(t, call.messages, 2)
	assert.Equal(t, llm.RoleSystem, call.messages[0].Role)
	assert.Contains(t, call.messages[1].Text, "Create a detailed text-to-image prompt")
	assert.Contains(t, call.messages[1].Text, "add sunglasses")
}

func TestOptimizeEditTemplateForEditingModel(t *testing.T) {
	client := &fakeLLM{configured: true}
	svc := newTestService(client, &fakeFetcher{})

	res, err := svc.Optimize(context.Background(), OptimizeRequest{Prompt: "make the car red", Model: "max"})
	require.NoError(t, err)
	assert.Equal(t, TemplateEditText, res.Template)
	assert.Contains(t, client.calls[0].messages[1].Text, "Optimize this editing instruction")
}

func TestOptimizeSingleImageAnalysis(t *testing.T) {
	client := &fakeLLM{configured: true, replies: []string{"Change the car to crimson red while keeping ..."}}
	fetcher := &fakeFetcher{}
	svc := newTestService(client, fetcher)

	res, err := svc.Optimize(context.Background(), OptimizeRequest{
		Prompt:   "make the car red",
		Model:    "pro",
		ImageURL: "https://img.example.com/car.png",
	})
	require.NoError(t, err)
	assert.True(t, res.UsedImageAnalysis)
	assert.Equal(t, TemplateSingleImage, res.Template)

	require.Len(t, client.calls, 1)
	images := client.calls[0].imageParts()
	require.Len(t, images, 1)
	assert.Equal(t, "png", images[0].ImageFormat)
	assert.Contains(t, client.calls[0].allText(), `User's instruction: "make the car red"`)
}

func TestOptimizeImageURLsWinAndKeepOrder(t *testing.T) {
	client := &fakeLLM{configured: true}
	fetcher := &fakeFetcher{}
	svc := newTestService(client, fetcher)

	res, err := svc.Optimize(context.Background(), OptimizeRequest{
		Prompt:    "put the apple pattern on the dress",
		Model:     "max-multi",
		ImageURL:  "https://img.example.com/ignored.png",
		ImageURLs: []string{"https://img.example.com/1.png", " ", "https://img.example.com/2.png"},
	})
	require.NoError(t, err)
	assert.True(t, res.UsedImageAnalysis)
	assert.Equal(t, TemplateMultiImage, res.Template)
	assert.Equal(t, []string{"https://img.example.com/1.png", "https://img.example.com/2.png"}, fetcher.fetched)
	assert.Len(t, client.calls[0].imageParts(), 2)
}

func TestOptimizeFallsBackWhenDownloadFails(t *testing.T) {
	client := &fakeLLM{configured: true, replies: []string{"text optimized"}}
	fetcher := &fakeFetcher{failOn: map[string]bool{"https://img.example.com/1.png": true}}
	svc := newTestService(client, fetcher)

	res, err := svc.Optimize(context.Background(), OptimizeRequest{
		Prompt:    "blend them",
		Model:     "max-multi",
		ImageURLs: []string{"https://img.example.com/1.png", "https://img.example.com/2.png"},
	})
	require.NoError(t, err)

	assert.False(t, res.UsedImageAnalysis)
	assert.Equal(t, "text optimized", res.OptimizedPrompt)
	assert.Equal(t, []string{"https://img.example.com/1.png"}, fetcher.fetched, "abort on first failure")
	assert.True(t, res.Diagnostics.FellBack())
	assert.Equal(t, apperr.KindDownload, apperr.KindOf(res.Diagnostics.AnalysisError))

	require.Len(t, client.calls, 1, "analysis call is never made")
	assert.Empty(t, client.calls[0].imageParts())
}

func TestOptimizeFallsBackWhenAnalysisFails(t *testing.T) {
	client := &fakeLLM{
		configured: true,
		errs:       []error{apperr.New(apperr.KindTruncated, "cut off")},
		replies:    []string{"", "fallback text"},
	}
	svc := newTestService(client, &fakeFetcher{})

	res, err := svc.Optimize(context.Background(), OptimizeRequest{Prompt: "x", Model: "pro", ImageURL: "https://img.example.com/a.png"})
	require.NoError(t, err)
	assert.Equal(t, "fallback text", res.OptimizedPrompt)
	assert.False(t, res.UsedImageAnalysis)
	assert.Equal(t, apperr.KindTruncated, apperr.KindOf(res.Diagnostics.AnalysisError))
	require.Len(t, client.calls, 2)
}

func TestOptimizeSurfacesOnlyFallbackError(t *testing.T) {
	client := &fakeLLM{
		configured: true,
		errs: []error{
			apperr.New(apperr.KindUnavailable, "analysis down"),
			apperr.New(apperr.KindRateLimit, "slow down"),
		},
	}
	svc := newTestService(client, &fakeFetcher{})

	_, err := svc.Optimize(context.Background(), OptimizeRequest{Prompt: "x", Model: "pro", ImageURL: "https://img.example.com/a.png"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindRateLimit, apperr.KindOf(err))
}

func TestOptimizeValidation(t *testing.T) {
	tests := []struct {
		name string
		req  OptimizeRequest
		llm  *fakeLLM
		want apperr.Kind
	}{
		{"empty prompt", OptimizeRequest{Prompt: "   ", Model: "max"}, &fakeLLM{configured: true}, apperr.KindValidation},
		{"empty model", OptimizeRequest{Prompt: "x"}, &fakeLLM{configured: true}, apperr.KindValidation},
		{"too long", OptimizeRequest{Prompt: strings.Repeat("a", MaxPromptLength+1), Model: "max"}, &fakeLLM{configured: true}, apperr.KindValidation},
		{"many images non-multi", OptimizeRequest{Prompt: "x", Model: "pro", ImageURLs: []string{"https://a/1", "https://a/2"}}, &fakeLLM{configured: true}, apperr.KindValidation},
		{"preset without image", OptimizeRequest{Model: "pro", UsePreset: true, PresetName: "Zoom"}, &fakeLLM{configured: true}, apperr.KindValidation},
		{"preset without name", OptimizeRequest{Model: "pro", UsePreset: true, ImageURL: "https://a/1"}, &fakeLLM{configured: true}, apperr.KindValidation},
		{"not configured", OptimizeRequest{Prompt: "x", Model: "max"}, &fakeLLM{}, apperr.KindConfiguration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &fakeFetcher{}
			svc := newTestService(tt.llm, fetcher)
			_, err := svc.Optimize(context.Background(), tt.req)
			assert.Equal(t, tt.want, apperr.KindOf(err))
			assert.Empty(t, tt.llm.calls, "no network call before validation")
			assert.Empty(t, fetcher.fetched)
		})
	}
}

func TestOptimizePresetMode(t *testing.T) {
	client := &fakeLLM{configured: true, replies: []string{"Zoom in on the dog"}}
	svc := newTestService(client, &fakeFetcher{})

	res, err := svc.Optimize(context.Background(), OptimizeRequest{
		Model:      "pro",
		UsePreset:  true,
		PresetName: "Zoom",
		Subject:    "the dog",
		ImageURL:   "https://img.example.com/dog.png",
	})
	require.NoError(t, err)
	assert.True(t, res.UsedImageAnalysis)
	assert.Equal(t, TemplatePreset, res.Template)
	assert.Contains(t, client.calls[0].allText(), "the dog")
}

func TestOptimizePresetModeDownloadIsFatal(t *testing.T) {
	client := &fakeLLM{configured: true}
	fetcher := &fakeFetcher{failOn: map[string]bool{"https://img.example.com/dog.png": true}}
	svc := newTestService(client, fetcher)

	_, err := svc.Optimize(context.Background(), OptimizeRequest{
		Model: "pro", UsePreset: true, PresetName: "Zoom", ImageURL: "https://img.example.com/dog.png",
	})
	assert.Equal(t, apperr.KindDownload, apperr.KindOf(err))
	assert.Empty(t, client.calls)
}

func TestGeneratePresetPrompt(t *testing.T) {
	t.Run("default subject", func(t *testing.T) {
		client := &fakeLLM{configured: true, replies: []string{"Zoom in on the red bicycle ..."}}
		svc := newTestService(client, &fakeFetcher{})

		res, err := svc.GeneratePresetPrompt(context.Background(), PresetRequest{PresetName: "Zoom", ImageURL: "https://img.example.com/a.jpg"})
		require.NoError(t, err)
		assert.Equal(t, "Zoom", res.Preset)
		assert.NotEmpty(t, res.Prompt)

		require.Len(t, client.calls, 1)
		call := client.calls[0]
		assert.Equal(t, 0.8, call.opts.Temperature)
		assert.Contains(t, call.allText(), "automatically identify the main subject")
		assert.Len(t, call.imageParts(), 1)
	})

	t.Run("explicit subject", func(t *testing.T) {
		client := &fakeLLM{configured: true}
		svc := newTestService(client, &fakeFetcher{})

		_, err := svc.GeneratePresetPrompt(context.Background(), PresetRequest{PresetName: "Zoom", ImageURL: "https://img.example.com/a.jpg", Subject: "the dog"})
		require.NoError(t, err)
		assert.Contains(t, client.calls[0].allText(), "the dog")
	})

	t.Run("errors", func(t *testing.T) {
		svc := newTestService(&fakeLLM{configured: true}, &fakeFetcher{failOn: map[string]bool{"https://bad": true}})

		_, err := svc.GeneratePresetPrompt(context.Background(), PresetRequest{ImageURL: "https://a"})
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		_, err = svc.GeneratePresetPrompt(context.Background(), PresetRequest{PresetName: "Zoom"})
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		_, err = svc.GeneratePresetPrompt(context.Background(), PresetRequest{PresetName: "Nope", ImageURL: "https://a"})
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		_, err = svc.GeneratePresetPrompt(context.Background(), PresetRequest{PresetName: "Zoom", ImageURL: "https://bad"})
		assert.Equal(t, apperr.KindDownload, apperr.KindOf(err))

		svc = newTestService(&fakeLLM{}, &fakeFetcher{})
		_, err = svc.GeneratePresetPrompt(context.Background(), PresetRequest{PresetName: "Zoom", ImageURL: "https://a"})
		assert.Equal(t, apperr.KindConfiguration, apperr.KindOf(err))
	})

	t.Run("llm failure is fatal", func(t *testing.T) {
		client := &fakeLLM{configured: true, errs: []error{errors.New("boom")}}
		svc := newTestService(client, &fakeFetcher{})
		_, err := svc.GeneratePresetPrompt(context.Background(), PresetRequest{PresetName: "Zoom", ImageURL: "https://a"})
		assert.Error(t, err)
		assert.Len(t, client.calls, 1)
	})
}

func TestMaxTokensPassedThrough(t *testing.T) {
	client := &fakeLLM{configured: true}
	svc := NewService(client, &fakeFetcher{}, 300)
	_, err := svc.Optimize(context.Background(), OptimizeRequest{Prompt: "x", Model: "max"})
	require.NoError(t, err)
	assert.Equal(t, 300, client.calls[0].opts.MaxTokens)
}

func TestOptimizeOutputFitsGenerate(t *testing.T) {
	budget := strings.Repeat("word ", 430)
	oversized := strings.Repeat("word ", 900)

	for name, reply := range map[string]string{"template budget": budget, "oversized": oversized} {
		t.Run(name, func(t *testing.T) {
			svc := NewService(&fakeLLM{configured: true, replies: []string{reply}}, &fakeFetcher{}, 0)
			res, err := svc.Optimize(context.Background(), OptimizeRequest{Prompt: "a cat", Model: "max-text-to-image"})
			require.NoError(t, err)
			assert.LessOrEqual(t, len([]rune(res.OptimizedPrompt)), MaxPromptLength)

			_, _, err = generate.BuildInput(generate.GenerationRequest{Prompt: res.OptimizedPrompt, Model: "max-text-to-image", AspectRatio: "1:1"})
			assert.NoError(t, err)
		})
	}
}
