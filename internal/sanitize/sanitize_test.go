package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	s := New()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Trim and lowercase", " A@B.COM ", "a@b.com"},
		{"Already clean", "user@example.com", "user@example.com"},
		{"Tabs and newlines removed", "user@exam\tple.c\nom", "user@example.com"},
		{"Control characters removed", "user\x01@exa\x1fmple.com\x7f", "user@example.com"},
		{"Plain tag stripped", "<b>user@example.com</b>", "user@example.com"},
		{"Empty input", "", ""},
		{"Whitespace only", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, s.Sanitize(tt.input))
		})
	}
}

func TestSanitizeNeutralizesMarkup(t *testing.T) {
	s := New()

	// 含标签的输入净化后不得残留结构化标记
	inputs := []string{
		"<script>alert(1)</script>@evil.com",
		"<img src=x onerror=alert(1)>user@example.com",
		"<iframe src=\"https://evil.com\"></iframe>",
		"<b>bold</b>@example.com",
		"<a href=\"javascript:alert(1)\">user@example.com</a>",
	}

	for _, input := range inputs {
		out := s.Sanitize(input)
		assert.NotContains(t, out, "<", "input %q", input)
		assert.NotContains(t, out, ">", "input %q", input)
	}
}

func TestSanitizePreservesEntities(t *testing.T) {
	s := New()

	// 纯文本中的特殊字符应原样保留，而不是变成实体编码
	assert.Equal(t, "a&b@example.com", s.Sanitize("a&b@example.com"))
}

func TestSanitizeIsPure(t *testing.T) {
	s := New()

	input := " USER@EXAMPLE.COM "
	first := s.Sanitize(input)
	second := s.Sanitize(input)

	assert.Equal(t, first, second)
	assert.Equal(t, " USER@EXAMPLE.COM ", input)
	assert.Equal(t, "user@example.com", strings.ToLower(first))
}
