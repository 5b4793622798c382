package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestClipPrompt(t *testing.T) {
	short := strings.Repeat("word ", 430)
	assert.False(t, PromptTooLong(short))
	assert.Equal(t, short, ClipPrompt(short))

	long := strings.Repeat("가", MaxPromptLength+10)
	assert.True(t, PromptTooLong(long))
	clipped := ClipPrompt(long)
	assert.Equal(t, MaxPromptLength, utf8.RuneCountInString(clipped))
	assert.True(t, utf8.ValidString(clipped))
}

func TestTruncateKeepsRunesIntact(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	out := Truncate("안녕하세요 세계", 3)
	assert.Equal(t, "안녕하...", out)
	assert.True(t, utf8.ValidString(out))
}
