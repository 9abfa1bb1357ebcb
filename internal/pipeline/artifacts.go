package pipeline

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/zACIID/investing-echo-chambers/internal/models"
)

// Artifact kinds, one directory per kind plus one merged file per kind at
// the top level.
const (
	kindInteractions  = "interactions"
	kindTextSentiment = "text-sentiment"
	kindUserSentiment = "user-sentiment"
)

// Column names shared by all artifacts.
const (
	userCol           = "user"
	textCol           = "text"
	interactedWithCol = "interacted_with"
	sentimentCol      = "sentiment_score"
)

const dayFormat = "2006-01-02"

// dayKey names one day's artifact of a kind, e.g.
// interactions/interactions__2021-12-17_2021-12-18.csv.
func dayKey(kind string, from, to time.Time) string {
	return fmt.Sprintf("%s/%s__%s_%s.csv", kind, kind, from.Format(dayFormat), to.Format(dayFormat))
}

// mergedKey names the top-level merged artifact of a kind.
func mergedKey(kind string) string {
	return kind + ".csv"
}

func encodeInteractions(interactions []models.Interaction) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{userCol, textCol, interactedWithCol}); err != nil {
		return nil, err
	}
	for _, i := range interactions {
		if err := w.Write([]string{i.User, i.Text, i.InteractedWith}); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeInteractions(data []byte) ([]models.Interaction, error) {
	records, err := readRecords(data, 3)
	if err != nil {
		return nil, err
	}

	interactions := make([]models.Interaction, 0, len(records))
	for _, rec := range records {
		interactions = append(interactions, models.Interaction{
			User:           rec[0],
			Text:           rec[1],
			InteractedWith: rec[2],
		})
	}
	return interactions, nil
}

// encodeScores writes a two-column score table with deterministic row
// order, so reruns produce byte-identical artifacts.
func encodeScores(keyColumn string, scores map[string]float64) ([]byte, error) {
	keys := make([]string, 0, len(scores))
	for k := range scores {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{keyColumn, sentimentCol}); err != nil {
		return nil, err
	}
	for _, k := range keys {
		if err := w.Write([]string{k, strconv.FormatFloat(scores[k], 'f', -1, 64)}); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeScores(data []byte) (map[string]float64, error) {
	records, err := readRecords(data, 2)
	if err != nil {
		return nil, err
	}

	scores := make(map[string]float64, len(records))
	for _, rec := range records {
		score, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid sentiment score %q: %w", rec[1], err)
		}
		scores[rec[0]] = score
	}
	return scores, nil
}

// readRecords parses a CSV artifact, validates the column count and drops
// the header row.
func readRecords(data []byte, columns int) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = columns

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse artifact: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[1:], nil
}
