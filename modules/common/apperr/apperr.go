package apperr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
)

// Kind - 에러 분류 (응답의 errorCode 로도 사용)
type Kind string

const (
	KindValidation    Kind = "validation"
	KindConfiguration Kind = "configuration"
	KindDownload      Kind = "download"
	KindAuth          Kind = "auth"
	KindRateLimit     Kind = "rate_limit"
	KindUnavailable   Kind = "unavailable"
	KindRejected      Kind = "upstream_rejected"
	KindEmptyResponse Kind = "empty_response"
	KindTruncated     Kind = "truncated"
	KindGeneration    Kind = "generation"
	KindNetwork       Kind = "network"
	KindTimeout       Kind = "timeout"
	KindInternal      Kind = "internal"
)

// Error - 분류된 에러
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New - cause 없는 에러 생성
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap - cause 를 보존하는 에러 생성
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Cause: cause}
}

// Validation - 사용자 입력 오류 (400)
func Validation(format string, args ...any) *Error {
	return New(KindValidation, fmt.Sprintf(format, args...))
}

// Configuration - 필수 자격증명 누락 (500, 관리자용 메시지)
func Configuration(msg string) *Error {
	return New(KindConfiguration, msg)
}

// KindOf - 에러 체인에서 Kind 추출. 분류되지 않은 에러는 transport 에러 여부로 판단
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) || netErr != nil {
		return KindNetwork
	}
	return KindInternal
}

// Is - err 가 주어진 Kind 인지 확인
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// FromTransport - http.Client 에러를 network/timeout 으로 분류
func FromTransport(msg string, err error) *Error {
	if KindOf(err) == KindTimeout {
		return Wrap(KindTimeout, msg, err)
	}
	return Wrap(KindNetwork, msg, err)
}

// FromStatus - LLM 등 업스트림 HTTP 상태코드 분류
func FromStatus(code int, msg string, cause error) *Error {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return Wrap(KindAuth, msg, cause)
	case code == http.StatusTooManyRequests:
		return Wrap(KindRateLimit, msg, cause)
	case code >= 500 && code < 600:
		return Wrap(KindUnavailable, msg, cause)
	case code >= 400 && code < 500:
		return Wrap(KindRejected, fmt.Sprintf("%s (status %d)", msg, code), cause)
	default:
		return Wrap(KindInternal, msg, cause)
	}
}

// HTTPStatus - 에러에 대응하는 응답 상태코드
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindDownload:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// UserMessage - 클라이언트에 그대로 노출할 메시지
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var appErr *Error
	hasMsg := errors.As(err, &appErr) && appErr.Msg != ""

	switch KindOf(err) {
	case KindValidation, KindConfiguration, KindDownload:
		if hasMsg {
			return appErr.Msg
		}
	case KindGeneration:
		// 업스트림 메시지는 보통 그대로 보여줘도 된다
		if appErr != nil && appErr.Cause != nil {
			return appErr.Cause.Error()
		}
		if hasMsg {
			return appErr.Msg
		}
	case KindAuth:
		return "AI service rejected the API key, please check the configuration"
	case KindRateLimit:
		return "AI service is receiving too many requests, please try again later"
	case KindUnavailable:
		return "AI service is temporarily unavailable, please try again later"
	case KindRejected:
		return "AI service rejected the request, please check the prompt and images and try again"
	case KindEmptyResponse:
		return "AI returned an empty response, please try again"
	case KindTruncated:
		return "AI response was cut off by the output length limit, please shorten the prompt and try again"
	case KindNetwork:
		return "Network error, please check your connection"
	case KindTimeout:
		return "Request timed out, please try again later"
	}
	return "Internal server error"
}
