package optimize

import (
	"net/http"

	"github.com/gorilla/mux"

	"flux-kontext-server/modules/common/httpx"
	"flux-kontext-server/modules/preset"
)

// Handler - 프롬프트 최적화 HTTP 핸들러
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleOptimizePrompt - POST /optimize-prompt
func (h *Handler) HandleOptimizePrompt(w http.ResponseWriter, r *http.Request) {
	var req OptimizeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, err)
		return
	}

	result, err := h.service.Optimize(r.Context(), req)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, OptimizeResponse{
		Success:           true,
		OptimizedPrompt:   result.OptimizedPrompt,
		OriginalPrompt:    result.OriginalPrompt,
		UsedImageAnalysis: result.UsedImageAnalysis,
	})
}

// HandleGeneratePresetPrompt - POST /generate-preset-prompt
func (h *Handler) HandleGeneratePresetPrompt(w http.ResponseWriter, r *http.Request) {
	var req PresetRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, err)
		return
	}

	result, err := h.service.GeneratePresetPrompt(r.Context(), req)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, PresetResponse{
		Success: true,
		Prompt:  result.Prompt,
		Preset:  result.Preset,
	})
}

// HandleListPresets - GET /presets
func (h *Handler) HandleListPresets(w http.ResponseWriter, r *http.Request) {
	presets := preset.List()
	items := make([]PresetItem, 0, len(presets))
	for _, p := range presets {
		items = append(items, PresetItem{Name: p.Name, Brief: p.Brief})
	}
	httpx.WriteJSON(w, http.StatusOK, PresetListResponse{Success: true, Presets: items})
}

// RegisterRoutes - 라우트 등록
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/optimize-prompt", h.HandleOptimizePrompt).Methods("POST")
	r.HandleFunc("/generate-preset-prompt", h.HandleGeneratePresetPrompt).Methods("POST")
	r.HandleFunc("/presets", h.HandleListPresets).Methods("GET")
}
