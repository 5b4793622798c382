package diagnostics

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"flux-kontext-server/modules/common/config"
	"flux-kontext-server/modules/common/httpx"
	"flux-kontext-server/modules/common/llm"
)

// UnlockStorageKey - 클라이언트 localStorage 키 (모델 unlock 상태)
const UnlockStorageKey = "flux-kontext-unlocked-models"

// ConfigReport - /check-config 응답. 키 값은 절대 포함하지 않음
type ConfigReport struct {
	HasOpenAIAPIKey    bool   `json:"hasOpenAIApiKey"`
	OpenAIAPIKeyLength int    `json:"openAIApiKeyLength"`
	OpenAIBaseURL      string `json:"openAIBaseUrl"`
	HasGeminiAPIKey    bool   `json:"hasGeminiApiKey"`
	LLMProvider        string `json:"llmProvider"`
	LLMModel           string `json:"llmModel"`
	LLMConfigured      bool   `json:"llmConfigured"`
	HasFalKey          bool   `json:"hasFalKey"`
	StorageConfigured  bool   `json:"storageConfigured"`
	ImageCacheEnabled  bool   `json:"imageCacheEnabled"`
}

// Handler - 진단용 엔드포인트
type Handler struct {
	cfg    *config.Config
	client llm.Client
}

func NewHandler(cfg *config.Config, client llm.Client) *Handler {
	return &Handler{cfg: cfg, client: client}
}

// HandleCheckConfig - GET /check-config
func (h *Handler) HandleCheckConfig(w http.ResponseWriter, r *http.Request) {
	report := ConfigReport{
		HasOpenAIAPIKey:    h.cfg.OpenAIAPIKey != "",
		OpenAIAPIKeyLength: len(h.cfg.OpenAIAPIKey),
		OpenAIBaseURL:      h.cfg.OpenAIBaseURL,
		HasGeminiAPIKey:    h.cfg.GeminiAPIKey != "",
		LLMProvider:        h.cfg.LLMProvider,
		LLMModel:           h.cfg.LLMModel,
		LLMConfigured:      h.client != nil && h.client.Configured(),
		HasFalKey:          h.cfg.FalKey != "",
		StorageConfigured:  h.cfg.StorageConfigured(),
		ImageCacheEnabled:  h.cfg.CacheEnabled(),
	}
	if report.OpenAIBaseURL == "" {
		report.OpenAIBaseURL = "not set"
	}

	log.Printf("🔧 [Diagnostics] Config check: llm=%v fal=%v storage=%v cache=%v",
		report.LLMConfigured, report.HasFalKey, report.StorageConfigured, report.ImageCacheEnabled)

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"config":  report,
		"message": "configuration check complete",
	})
}

// HandleTestLLM - GET /test-llm (짧은 왕복 호출)
func (h *Handler) HandleTestLLM(w http.ResponseWriter, r *http.Request) {
	if h.client == nil || !h.client.Configured() {
		httpx.WriteJSON(w, http.StatusOK, map[string]any{
			"success": false,
			"error":   "LLM is not configured",
		})
		return
	}

	reply, err := h.client.Chat(r.Context(), []llm.Message{
		llm.System("You are a test assistant. Reply briefly."),
		llm.User(`Reply with "test ok".`),
	}, llm.Options{Temperature: 0.1})
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"provider": h.cfg.LLMProvider,
		"reply":    reply,
	})
}

// HandleUnlockStatus - GET /unlock-status (클라이언트 상태 안내만)
func (h *Handler) HandleUnlockStatus(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"message":    "unlock state is stored in the browser's local storage",
		"storageKey": UnlockStorageKey,
		"instructions": map[string]string{
			"check":  "inspect localStorage in the browser developer tools",
			"reset":  "long-press the model selector title for 10 seconds",
			"manual": `run localStorage.removeItem("` + UnlockStorageKey + `") in the console`,
		},
	})
}

// HandleResetUnlockStatus - DELETE /unlock-status (서버 상태 변경 없음)
func (h *Handler) HandleResetUnlockStatus(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"message":    "clear the unlock state on the client",
		"storageKey": UnlockStorageKey,
		"instructions": []string{
			"long-press the model selector title for 10 seconds",
			`run localStorage.removeItem("` + UnlockStorageKey + `") in the browser console`,
			"clear the browser's site data",
		},
	})
}

// HealthCheck - 헬스 체크 엔드포인트
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "flux-kontext-server",
	})
}

// RegisterRoutes - 라우트 등록
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/", HealthCheck).Methods("GET")
	r.HandleFunc("/health", HealthCheck).Methods("GET")
	r.HandleFunc("/check-config", h.HandleCheckConfig).Methods("GET")
	r.HandleFunc("/test-llm", h.HandleTestLLM).Methods("GET")
	r.HandleFunc("/unlock-status", h.HandleUnlockStatus).Methods("GET")
	r.HandleFunc("/unlock-status", h.HandleResetUnlockStatus).Methods("DELETE")
}
