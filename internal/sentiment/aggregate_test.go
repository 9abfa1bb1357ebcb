package sentiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zACIID/investing-echo-chambers/internal/models"
)

// stubScorer returns canned scores and counts invocations per text.
type stubScorer struct {
	scores map[string]float64
	calls  map[string]int
}

func newStubScorer(scores map[string]float64) *stubScorer {
	return &stubScorer{scores: scores, calls: map[string]int{}}
}

func (s *stubScorer) Score(text string) float64 {
	s.calls[text]++
	return s.scores[text]
}

func (s *stubScorer) totalCalls() int {
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

func interaction(user, text string) models.Interaction {
	return models.Interaction{Kind: models.KindComment, User: user, Text: text, InteractedWith: user}
}

func TestTextSentiment_ScoresOncePerDistinctText(t *testing.T) {
	scorer := newStubScorer(map[string]float64{
		"nice post": 0.7,
		"terrible":  -0.6,
	})

	// The same bot text three times plus casing/punctuation variants that
	// collapse to the same preprocessed form.
	input := []models.Interaction{
		interaction("bot", "nice post"),
		interaction("bot", "nice post"),
		interaction("alice", "Nice POST!"),
		interaction("bob", "terrible"),
	}

	result := TextSentiment(input, scorer)

	require.Len(t, result, 2)
	assert.Equal(t, 0.7, result["nice post"])
	assert.Equal(t, -0.6, result["terrible"])
	assert.Equal(t, 1, scorer.calls["nice post"])
	assert.Equal(t, 1, scorer.calls["terrible"])
	assert.Equal(t, 2, scorer.totalCalls())
}

func TestTextSentiment_EmptyInput(t *testing.T) {
	scorer := newStubScorer(nil)
	result := TextSentiment(nil, scorer)
	assert.Empty(t, result)
	assert.Equal(t, 0, scorer.totalCalls())
}

func TestUserSentiment_MeanPerUser(t *testing.T) {
	scorer := newStubScorer(map[string]float64{
		"great stock": 0.8,
		"awful loss":  -0.4,
		"meh":         0.0,
	})

	input := []models.Interaction{
		interaction("alice", "great stock"),
		interaction("alice", "awful loss"),
		interaction("bob", "meh"),
	}

	result := UserSentiment(input, scorer)

	require.Len(t, result, 2)
	assert.InDelta(t, 0.2, result["alice"], 1e-9)
	assert.InDelta(t, 0.0, result["bob"], 1e-9)
}

func TestUserSentiment_RepeatedTextCountsOnce(t *testing.T) {
	scorer := newStubScorer(map[string]float64{
		"spam": -0.9,
		"fine": 0.5,
	})

	// The repeated spam must not drag the mean below (−0.9 + 0.5) / 2.
	input := []models.Interaction{
		interaction("alice", "spam"),
		interaction("alice", "spam"),
		interaction("alice", "spam"),
		interaction("alice", "fine"),
	}

	result := UserSentiment(input, scorer)
	assert.InDelta(t, -0.2, result["alice"], 1e-9)
}

func TestUserSentiment_EmptyInput(t *testing.T) {
	scorer := newStubScorer(nil)
	result := UserSentiment(nil, scorer)
	assert.Empty(t, result)
	assert.Equal(t, 0, scorer.totalCalls())
}

func TestUserSentimentFromScores_MatchesUserSentiment(t *testing.T) {
	scorer := newStubScorer(map[string]float64{
		"one": 0.1,
		"two": 0.3,
	})

	input := []models.Interaction{
		interaction("alice", "one"),
		interaction("alice", "two"),
	}

	direct := UserSentiment(input, scorer)
	fromScores := UserSentimentFromScores(input, TextSentiment(input, scorer))
	assert.Equal(t, direct, fromScores)
}
