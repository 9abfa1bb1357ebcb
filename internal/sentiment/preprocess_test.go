package sentiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreprocess(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{
			name:     "URL and punctuation stripped",
			text:     "http://x.com nice!!  post",
			expected: "nice post",
		},
		{
			name:     "Case folded",
			text:     "GME To The MOON",
			expected: "gme to the moon",
		},
		{
			name:     "Isolated single letters dropped",
			text:     "buy a stock and b happy",
			expected: "buy stock and happy",
		},
		{
			name:     "Single digits kept",
			text:     "bought 5 shares",
			expected: "bought 5 shares",
		},
		{
			name:     "Whitespace collapsed",
			text:     "hello    there\n\tworld",
			expected: "hello there world",
		},
		{
			name:     "Multiple URLs",
			text:     "see https://a.com and http://b.com now",
			expected: "see and now",
		},
		{
			name:     "Empty text",
			text:     "",
			expected: "",
		},
		{
			name:     "Submission title and body",
			text:     "Hi - there",
			expected: "hi there",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Preprocess(tt.text))
		})
	}
}

func TestPreprocess_Idempotent(t *testing.T) {
	samples := []string{
		"http://x.com nice!!  post",
		"x a b c y",
		"Markets are CRAZY today... see https://example.com/article?id=1",
		"plain text",
		"",
		"a b c",
	}

	for _, s := range samples {
		once := Preprocess(s)
		assert.Equal(t, once, Preprocess(once), "preprocess must be idempotent for %q", s)
	}
}
