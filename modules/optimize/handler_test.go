package optimize

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flux-kontext-server/modules/common/fetch"
)

func newTestRouter(client *fakeLLM, fetcher ImageFetcher) *mux.Router {
	r := mux.NewRouter()
	NewHandler(NewService(client, fetcher, 0)).RegisterRoutes(r)
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec, out
}

func TestHandleOptimizePromptSunglasses(t *testing.T) {
	client := &fakeLLM{configured: true, replies: []string{"A close-up portrait of a person wearing glossy black aviator sunglasses"}}
	r := newTestRouter(client, &fakeFetcher{})

	rec, body := doJSON(t, r, http.MethodPost, "/optimize-prompt", `{"prompt":"add sunglasses","model":"pro-text-to-image"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "add sunglasses", body["originalPrompt"])
	assert.NotEmpty(t, body["optimizedPrompt"])
	assert.Equal(t, false, body["usedImageAnalysis"])
}

func TestHandleOptimizePromptImage404FallsBack(t *testing.T) {
	images := httptest.NewServer(http.NotFoundHandler())
	defer images.Close()

	client := &fakeLLM{configured: true, replies: []string{"Change the background to a beach"}}
	fetcher := fetch.NewFetcher(images.Client(), time.Second, nil, 0)
	r := newTestRouter(client, fetcher)

	rec, body := doJSON(t, r, http.MethodPost, "/optimize-prompt",
		`{"prompt":"beach background","model":"pro","imageUrl":"`+images.URL+`/missing.jpg"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, false, body["usedImageAnalysis"])
	assert.Equal(t, "Change the background to a beach", body["optimizedPrompt"])
}

func TestHandleOptimizePromptErrors(t *testing.T) {
	r := newTestRouter(&fakeLLM{configured: true}, &fakeFetcher{})

	rec, body := doJSON(t, r, http.MethodPost, "/optimize-prompt", `{"prompt":"","model":"max"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "prompt")

	rec, body = doJSON(t, r, http.MethodPost, "/optimize-prompt", `{"prompt":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "model")

	rec, _ = doJSON(t, r, http.MethodPost, "/optimize-prompt", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	r = newTestRouter(&fakeLLM{}, &fakeFetcher{})
	rec, body = doJSON(t, r, http.MethodPost, "/optimize-prompt", `{"prompt":"x","model":"max"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "configuration", body["errorCode"])
}

func TestHandleGeneratePresetPrompt(t *testing.T) {
	client := &fakeLLM{configured: true, replies: []string{"Zoom in on the dog, keeping the grass unchanged"}}
	r := newTestRouter(client, &fakeFetcher{})

	rec, body := doJSON(t, r, http.MethodPost, "/generate-preset-prompt",
		`{"presetName":"Zoom","imageUrl":"https://img.example.com/dog.jpg","subject":"the dog"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Zoom", body["preset"])
	assert.NotEmpty(t, body["prompt"])
	assert.Contains(t, client.calls[0].allText(), "the dog")

	rec, body = doJSON(t, r, http.MethodPost, "/generate-preset-prompt", `{"presetName":"Unknown","imageUrl":"https://img.example.com/dog.jpg"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["success"])

	rec, _ = doJSON(t, r, http.MethodPost, "/generate-preset-prompt", `{"presetName":"Zoom"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGeneratePresetPromptDownloadFails(t *testing.T) {
	images := httptest.NewServer(http.NotFoundHandler())
	defer images.Close()

	client := &fakeLLM{configured: true}
	r := newTestRouter(client, fetch.NewFetcher(images.Client(), time.Second, nil, 0))

	rec, body := doJSON(t, r, http.MethodPost, "/generate-preset-prompt", `{"presetName":"Zoom","imageUrl":"`+images.URL+`/x.jpg"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "download", body["errorCode"])
	assert.Empty(t, client.calls)
}

func TestHandleListPresets(t *testing.T) {
	r := newTestRouter(&fakeLLM{}, &fakeFetcher{})
	rec, body := doJSON(t, r, http.MethodGet, "/presets", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	presets := body["presets"].([]any)
	require.NotEmpty(t, presets)
	assert.Equal(t, "Zoom", presets[0].(map[string]any)["name"])
}
