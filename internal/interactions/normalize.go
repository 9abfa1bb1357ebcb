package interactions

import "strings"

// Reddit kind prefixes that the API puts in front of object ids.
const (
	CommentPrefix    = "t1_"
	UserPrefix       = "t2_"
	SubmissionPrefix = "t3_"
)

// Sentinel identity used for deleted/unknown authors and missing ids.
const Sentinel = "N/A"

var kindPrefixes = []string{CommentPrefix, UserPrefix, SubmissionPrefix}

// NormalizeID strips the remote kind prefixes from the front of an id so
// comment/user/submission ids compare equal regardless of origin kind.
// Empty ids map to the sentinel. Idempotent.
func NormalizeID(raw string) string {
	if raw == "" {
		return Sentinel
	}

	// Prefixes only appear at the front, one strip per kind is enough.
	for _, prefix := range kindPrefixes {
		raw = strings.TrimPrefix(raw, prefix)
	}

	if raw == "" {
		return Sentinel
	}
	return raw
}

// AuthorOrSentinel resolves a raw author field to an identity. Deleted
// accounts come back empty (or as the "[deleted]" placeholder) and map to
// the sentinel instead of an error.
func AuthorOrSentinel(raw string) string {
	if raw == "" || raw == "[deleted]" {
		return Sentinel
	}
	return raw
}
