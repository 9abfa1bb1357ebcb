package sentiment

import (
	"github.com/zACIID/investing-echo-chambers/internal/models"
)

// TextSentiment scores every distinct text in the interaction list, keyed
// by its preprocessed form. The scorer runs exactly once per distinct
// preprocessed text: bots posting the same boilerplate over and over would
// otherwise waste scorer calls and skew downstream averages.
func TextSentiment(interactions []models.Interaction, scorer Scorer) map[string]float64 {
	scores := make(map[string]float64, len(interactions))

	for _, interaction := range interactions {
		text := Preprocess(interaction.Text)
		if _, seen := scores[text]; seen {
			continue
		}
		scores[text] = scorer.Score(text)
	}

	return scores
}

// UserSentiment reports each user's arithmetic mean over the scores of
// their distinct preprocessed texts. Repeated (user, text) pairs count
// once. Users with no interactions in the input are absent from the result.
func UserSentiment(interactions []models.Interaction, scorer Scorer) map[string]float64 {
	if len(interactions) == 0 {
		return map[string]float64{}
	}

	textScores := TextSentiment(interactions, scorer)
	return userMeans(interactions, textScores)
}

// userMeans folds per-text scores into per-user means, deduplicating
// (user, text) pairs. Shared with the merge step, which joins persisted
// text-level scores instead of re-invoking the scorer.
func userMeans(interactions []models.Interaction, textScores map[string]float64) map[string]float64 {
	type key struct {
		user string
		text string
	}

	seen := make(map[key]struct{}, len(interactions))
	sums := make(map[string]float64)
	counts := make(map[string]int)

	for _, interaction := range interactions {
		text := Preprocess(interaction.Text)
		k := key{user: interaction.User, text: text}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}

		score, ok := textScores[text]
		if !ok {
			continue
		}
		sums[interaction.User] += score
		counts[interaction.User]++
	}

	means := make(map[string]float64, len(sums))
	for user, sum := range sums {
		means[user] = sum / float64(counts[user])
	}
	return means
}

// UserSentimentFromScores recomputes per-user means from interactions and
// already-computed text-level scores. This is what the merge step must use:
// averaging per-day user averages would weight days equally regardless of
// how much each user wrote in them.
func UserSentimentFromScores(interactions []models.Interaction, textScores map[string]float64) map[string]float64 {
	if len(interactions) == 0 {
		return map[string]float64{}
	}
	return userMeans(interactions, textScores)
}
