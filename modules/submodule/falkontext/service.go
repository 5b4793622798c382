package falkontext

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"flux-kontext-server/modules/common/apperr"
	"flux-kontext-server/modules/common/utils"
)

// Config - fal.ai 설정
type Config struct {
	Key          string
	BaseURL      string // 동기 호출 (https://fal.run)
	QueueBaseURL string // queue 호출 (https://queue.fal.run)
	Timeout      time.Duration
}

// Service - fal.ai FLUX.1 Kontext REST 클라이언트
type Service struct {
	httpClient   *http.Client
	key          string
	baseURL      string
	queueBaseURL string
	timeout      time.Duration
}

func NewService(cfg Config, httpClient *http.Client) *Service {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if cfg.Key == "" {
		log.Println("⚠️ [FalKontext] FAL_KEY not configured")
	}
	return &Service{
		httpClient:   httpClient,
		key:          cfg.Key,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		queueBaseURL: strings.TrimRight(cfg.QueueBaseURL, "/"),
		timeout:      cfg.Timeout,
	}
}

func (s *Service) Configured() bool {
	return s.key != ""
}

// Generate - 동기 생성 (단일 시도, 재시도 없음)
func (s *Service) Generate(ctx context.Context, model ModelInfo, input Input) (*Result, error) {
	if err := s.checkInput(model, input); err != nil {
		return nil, err
	}

	log.Printf("🎨 [FalKontext] Generating with %s (%s)", model.ID, model.Endpoint)
	start := time.Now()

	var out Output
	requestID, err := s.do(ctx, http.MethodPost, s.baseURL+"/"+model.Endpoint, input, &out)
	if err != nil {
		log.Printf("❌ [FalKontext] %s failed after %s: %v", model.ID, time.Since(start), err)
		return nil, err
	}
	if err := checkImages(&out); err != nil {
		return nil, err
	}

	log.Printf("✅ [FalKontext] %s returned %d image(s) in %s (seed: %d, request: %s)", model.ID, len(out.Images), time.Since(start), out.Seed, requestID)
	return &Result{Output: &out, RequestID: requestID}, nil
}

// Submit - queue 제출
func (s *Service) Submit(ctx context.Context, model ModelInfo, input Input) (*QueueSubmission, error) {
	if err := s.checkInput(model, input); err != nil {
		return nil, err
	}

	var sub QueueSubmission
	if _, err := s.do(ctx, http.MethodPost, s.queueBaseURL+"/"+model.Endpoint, input, &sub); err != nil {
		return nil, err
	}
	if sub.RequestID == "" {
		return nil, apperr.Wrap(apperr.KindGeneration, "queue submission failed", errors.New("image service returned no request id"))
	}
	log.Printf("📥 [FalKontext] Queued %s request %s", model.ID, sub.RequestID)
	return &sub, nil
}

// Status - queue 상태 조회
func (s *Service) Status(ctx context.Context, model ModelInfo, requestID string) (*QueueStatus, error) {
	if !s.Configured() {
		return nil, apperr.Configuration("FAL_KEY is not configured")
	}
	var st QueueStatus
	url := fmt.Sprintf("%s/%s/requests/%s/status", s.queueBaseURL, appID(model.Endpoint), requestID)
	if _, err := s.do(ctx, http.MethodGet, url, nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// QueueResult - 완료된 queue 요청 결과
func (s *Service) QueueResult(ctx context.Context, model ModelInfo, requestID string) (*Result, error) {
	if !s.Configured() {
		return nil, apperr.Configuration("FAL_KEY is not configured")
	}
	var out Output
	url := fmt.Sprintf("%s/%s/requests/%s", s.queueBaseURL, appID(model.Endpoint), requestID)
	if _, err := s.do(ctx, http.MethodGet, url, nil, &out); err != nil {
		return nil, err
	}
	if err := checkImages(&out); err != nil {
		log.Printf("❌ [FalKontext] Queue request %s completed without images", requestID)
		return nil, err
	}
	return &Result{Output: &out, RequestID: requestID}, nil
}

// checkImages - 이미지 없는 완료 응답은 실패로 처리
func checkImages(out *Output) error {
	if len(out.Images) == 0 {
		return apperr.Wrap(apperr.KindGeneration, "image generation failed", errors.New("no images returned from image service"))
	}
	return nil
}

func (s *Service) checkInput(model ModelInfo, input Input) error {
	if !s.Configured() {
		return apperr.Configuration("FAL_KEY is not configured")
	}
	if input == nil || FamilyOf(input) != model.Family {
		return apperr.New(apperr.KindInternal, fmt.Sprintf("input does not match model %s", model.ID))
	}
	return nil
}

// do - JSON 요청/응답. 반환값은 x-fal-request-id
func (s *Service) do(ctx context.Context, method, url string, body any, out any) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return "", apperr.Wrap(apperr.KindInternal, "failed to marshal request", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "failed to create request", err)
	}
	req.Header.Set("Authorization", "Key "+s.key)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", apperr.FromTransport("image service request failed", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperr.FromTransport("failed to read image service response", err)
	}
	requestID := resp.Header.Get("x-fal-request-id")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := upstreamMessage(bodyBytes)
		log.Printf("❌ [FalKontext] status=%d body=%s", resp.StatusCode, utils.Truncate(string(bodyBytes), 300))
		return requestID, apperr.Wrap(apperr.KindGeneration, fmt.Sprintf("image service returned status %d", resp.StatusCode), errors.New(msg))
	}

	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return requestID, apperr.Wrap(apperr.KindInternal, "failed to parse image service response", err)
	}
	return requestID, nil
}

// upstreamMessage - {"detail": "..."} 또는 {"detail": [{"msg": "..."}]} 에서 메시지 추출
func upstreamMessage(body []byte) string {
	var parsed struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if len(parsed.Detail) > 0 {
			var s string
			if json.Unmarshal(parsed.Detail, &s) == nil && s != "" {
				return s
			}
			var items []struct {
				Msg string `json:"msg"`
			}
			if json.Unmarshal(parsed.Detail, &items) == nil {
				msgs := make([]string, 0, len(items))
				for _, it := range items {
					if it.Msg != "" {
						msgs = append(msgs, it.Msg)
					}
				}
				if len(msgs) > 0 {
					return strings.Join(msgs, "; ")
				}
			}
		}
		if parsed.Message != "" {
			return parsed.Message
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return utils.Truncate(text, 200)
	}
	return "image generation failed"
}
