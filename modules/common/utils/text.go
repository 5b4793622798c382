package utils

import (
	"strings"
	"unicode/utf8"
)

// MaxPromptLength - 사용자 입력 / 최적화 결과 / 생성 요청 공통 프롬프트 최대 길이 (rune).
// 템플릿의 512 토큰 권고(영문 약 2100자)를 수용한다
const MaxPromptLength = 4000

// PromptTooLong - 최대 길이 초과 여부
func PromptTooLong(s string) bool {
	return utf8.RuneCountInString(s) > MaxPromptLength
}

// ClipPrompt - 최대 길이를 넘는 프롬프트를 rune 단위로 자름
func ClipPrompt(s string) string {
	if !PromptTooLong(s) {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:MaxPromptLength]))
}

// Truncate - 로그용 rune 단위 자르기 ("..." 붙임)
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
