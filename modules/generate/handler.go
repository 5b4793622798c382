package generate

import (
	"net/http"

	"github.com/gorilla/mux"

	"flux-kontext-server/modules/common/httpx"
)

// Handler - 이미지 생성 HTTP 핸들러
type Handler struct {
	service  *Service
	resolver *AspectResolver
}

func NewHandler(service *Service, resolver *AspectResolver) *Handler {
	return &Handler{service: service, resolver: resolver}
}

// HandleGenerate - POST /generate
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var req GenerationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, err)
		return
	}
	h.resolver.Resolve(r.Context(), &req)

	result, err := h.service.Generate(r.Context(), req)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, GenerateResponse{
		Success:   true,
		Data:      toData(result),
		RequestID: result.RequestID,
	})
}

// HandleGenerateStatus - GET /generate (liveness)
func (h *Handler) HandleGenerateStatus(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "FLUX.1 Kontext generation API is running",
	})
}

// HandleSubmit - POST /generate/queue
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var req GenerationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, err)
		return
	}
	h.resolver.Resolve(r.Context(), &req)

	sub, err := h.service.Submit(r.Context(), req)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusAccepted, QueueSubmitResponse{
		Success:   true,
		RequestID: sub.RequestID,
		Model:     req.Model,
	})
}

// HandleQueueStatus - GET /generate/queue/{requestId}/status?model=
func (h *Handler) HandleQueueStatus(w http.ResponseWriter, r *http.Request) {
	requestID := mux.Vars(r)["requestId"]
	st, err := h.service.Status(r.Context(), r.URL.Query().Get("model"), requestID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, QueueStatusResponse{
		Success:       true,
		RequestID:     requestID,
		Status:        st.Status,
		QueuePosition: st.QueuePosition,
	})
}

// HandleQueueResult - GET /generate/queue/{requestId}?model=
func (h *Handler) HandleQueueResult(w http.ResponseWriter, r *http.Request) {
	requestID := mux.Vars(r)["requestId"]
	result, err := h.service.QueueResult(r.Context(), r.URL.Query().Get("model"), requestID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, GenerateResponse{
		Success:   true,
		Data:      toData(result),
		RequestID: result.RequestID,
	})
}

// RegisterRoutes - 라우트 등록
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/generate", h.HandleGenerate).Methods("POST")
	r.HandleFunc("/generate", h.HandleGenerateStatus).Methods("GET")
	r.HandleFunc("/generate/queue", h.HandleSubmit).Methods("POST")
	r.HandleFunc("/generate/queue/{requestId}/status", h.HandleQueueStatus).Methods("GET")
	r.HandleFunc("/generate/queue/{requestId}", h.HandleQueueResult).Methods("GET")
}
