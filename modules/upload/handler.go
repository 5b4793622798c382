package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"flux-kontext-server/modules/common/apperr"
	"flux-kontext-server/modules/common/httpx"
)

// multipart 헤더 여유분
const formOverhead = 1 << 20

// AllowedTypes - 업로드 허용 MIME 타입
var AllowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

// Uploader - 오브젝트 스토리지 업로드
type Uploader interface {
	Upload(ctx context.Context, filename, contentType string, data []byte) (string, error)
}

// Response - /upload 성공 응답
type Response struct {
	Success  bool   `json:"success"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Type     string `json:"type"`
}

// Handler - 파일 업로드 핸들러
type Handler struct {
	uploader Uploader
	maxBytes int64
}

func NewHandler(uploader Uploader, maxBytes int64) *Handler {
	return &Handler{uploader: uploader, maxBytes: maxBytes}
}

// HandleUpload - POST /upload (multipart, field "file")
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+formOverhead)
	if err := r.ParseMultipartForm(h.maxBytes + formOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || r.ContentLength > h.maxBytes+formOverhead {
			httpx.WriteError(w, h.sizeError())
			return
		}
		httpx.WriteError(w, apperr.Validation("invalid multipart form"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.WriteError(w, apperr.Validation("file is required"))
		return
	}
	defer file.Close()

	if header.Size > h.maxBytes {
		httpx.WriteError(w, h.sizeError())
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		httpx.WriteError(w, apperr.Validation("failed to read file"))
		return
	}
	if len(data) == 0 {
		httpx.WriteError(w, apperr.Validation("file is empty"))
		return
	}

	// 선언된 타입과 실제 바이트 모두 허용 타입이어야 함
	declared := mediaType(header.Header.Get("Content-Type"))
	if declared != "" && declared != "application/octet-stream" && !AllowedTypes[declared] {
		httpx.WriteError(w, apperr.Validation("unsupported file type %s, only JPEG, PNG and WebP are allowed", declared))
		return
	}
	contentType := mediaType(http.DetectContentType(data))
	if !AllowedTypes[contentType] {
		log.Printf("⚠️ [Upload] %s declared %q but content is %s", header.Filename, declared, contentType)
		httpx.WriteError(w, apperr.Validation("file content is %s, only JPEG, PNG and WebP are allowed", contentType))
		return
	}

	log.Printf("📤 [Upload] %s (%d bytes, %s)", header.Filename, len(data), contentType)
	url, err := h.uploader.Upload(r.Context(), header.Filename, contentType, data)
	if err != nil {
		log.Printf("❌ [Upload] Failed to upload %s: %v", header.Filename, err)
		httpx.WriteError(w, err)
		return
	}

	log.Printf("✅ [Upload] Uploaded %s -> %s", header.Filename, url)
	httpx.WriteJSON(w, http.StatusOK, Response{
		Success:  true,
		URL:      url,
		Filename: header.Filename,
		Size:     int64(len(data)),
		Type:     contentType,
	})
}

// RegisterRoutes - 라우트 등록
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/upload", h.HandleUpload).Methods("POST")
}

func (h *Handler) sizeError() error {
	return apperr.Validation("file size must be %s or less", formatMB(h.maxBytes))
}

func mediaType(v string) string {
	if i := strings.Index(v, ";"); i >= 0 {
		v = v[:i]
	}
	return strings.ToLower(strings.TrimSpace(v))
}

func formatMB(n int64) string {
	return fmt.Sprintf("%dMB", n>>20)
}
