package interactions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeID(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{
			name:     "Comment prefix stripped",
			raw:      "t1_abc123",
			expected: "abc123",
		},
		{
			name:     "User prefix stripped",
			raw:      "t2_someuser",
			expected: "someuser",
		},
		{
			name:     "Submission prefix stripped",
			raw:      "t3_abc123",
			expected: "abc123",
		},
		{
			name:     "Bare id unchanged",
			raw:      "abc123",
			expected: "abc123",
		},
		{
			name:     "Missing id maps to sentinel",
			raw:      "",
			expected: Sentinel,
		},
		{
			name:     "Prefix-like text mid-id untouched",
			raw:      "abt1_c",
			expected: "abt1_c",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeID(tt.raw))
		})
	}
}

func TestNormalizeID_Idempotent(t *testing.T) {
	for _, raw := range []string{"t1_abc123", "t3_xyz", "abc123", ""} {
		once := NormalizeID(raw)
		assert.Equal(t, once, NormalizeID(once))
	}
}

func TestNormalizeID_KindsCompareEqual(t *testing.T) {
	assert.Equal(t, NormalizeID("abc123"), NormalizeID("t1_abc123"))
	assert.Equal(t, NormalizeID("abc123"), NormalizeID("t3_abc123"))
}

func TestAuthorOrSentinel(t *testing.T) {
	assert.Equal(t, "alice", AuthorOrSentinel("alice"))
	assert.Equal(t, Sentinel, AuthorOrSentinel(""))
	assert.Equal(t, Sentinel, AuthorOrSentinel("[deleted]"))
}
