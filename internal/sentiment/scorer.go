package sentiment

import govader "github.com/jonreiter/govader"

// Scorer turns one preprocessed text into a compound polarity score in
// [-1, 1]. Implementations must be pure: same text, same score.
type Scorer interface {
	Score(text string) float64
}

// VaderScorer scores text with the VADER lexicon analyzer. Only the
// compound score is used, it already sums up the positive, neutral and
// negative components.
type VaderScorer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

// Ensure VaderScorer implements Scorer
var _ Scorer = (*VaderScorer)(nil)

// NewVaderScorer creates a VADER-backed scorer.
func NewVaderScorer() *VaderScorer {
	return &VaderScorer{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

func (s *VaderScorer) Score(text string) float64 {
	return s.analyzer.PolarityScores(text).Compound
}
