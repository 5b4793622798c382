package httpx

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"flux-kontext-server/modules/common/apperr"
)

// ErrorResponse - 모든 엔드포인트 공통 실패 응답
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	ErrorCode string `json:"errorCode,omitempty"`
}

// WriteJSON - JSON 응답 작성
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("❌ Failed to encode response: %v", err)
	}
}

// WriteError - 에러를 분류해 {success:false, error, errorCode} 로 응답
func WriteError(w http.ResponseWriter, err error) {
	WriteJSON(w, apperr.HTTPStatus(err), ErrorResponse{
		Success:   false,
		Error:     apperr.UserMessage(err),
		ErrorCode: string(apperr.KindOf(err)),
	})
}

// DecodeJSON - 요청 body 디코드. 형식 오류는 validation 에러
func DecodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return apperr.Validation("request body is required")
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if err == io.EOF {
			return apperr.Validation("request body is required")
		}
		return apperr.Validation("invalid JSON body: %v", err)
	}
	return nil
}
