package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/zACIID/investing-echo-chambers/internal/interactions"
	"github.com/zACIID/investing-echo-chambers/internal/models"
	"github.com/zACIID/investing-echo-chambers/internal/sentiment"
	"github.com/zACIID/investing-echo-chambers/internal/storage"
)

// State is the orchestrator's position in a run.
type State string

const (
	StatePending    State = "pending"
	StateFetching   State = "fetching"
	StatePersisting State = "persisting"
	StateMerging    State = "merging"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// DayError reports a day whose fetch or persist could not complete. Days
// persisted before it stay valid, the run just stops moving forward.
type DayError struct {
	From time.Time
	To   time.Time
	Err  error
}

func (e *DayError) Error() string {
	return fmt.Sprintf("day [%s, %s) failed: %v",
		e.From.Format(dayFormat), e.To.Format(dayFormat), e.Err)
}

func (e *DayError) Unwrap() error { return e.Err }

// Orchestrator runs the full harvest: it splits the requested interval into
// one-day windows, fetches and persists each day independently, then merges
// the day artifacts into the final datasets. Day bucketing bounds memory
// and makes every completed day a durable checkpoint, so a killed run
// restarts from the first unprocessed day.
type Orchestrator struct {
	fetcher interactions.FetcherInterface
	scorer  sentiment.Scorer
	storage storage.StorageInterface

	start time.Time
	end   time.Time

	mu      sync.RWMutex
	state   State
	current string
	report  models.RunReport
}

// NewOrchestrator creates a pipeline over [start, end).
func NewOrchestrator(fetcher interactions.FetcherInterface, scorer sentiment.Scorer, store storage.StorageInterface, start, end time.Time) *Orchestrator {
	return &Orchestrator{
		fetcher: fetcher,
		scorer:  scorer,
		storage: store,
		start:   start.UTC(),
		end:     end.UTC(),
		state:   StatePending,
	}
}

// Run executes the whole pipeline. The returned report is valid even on
// error; the error is a *DayError when a day could not complete.
func (o *Orchestrator) Run(ctx context.Context) (*models.RunReport, error) {
	report := models.RunReport{
		RunID:     uuid.New().String(),
		StartDate: o.start,
		EndDate:   o.end,
		StartedAt: time.Now().UTC(),
	}
	o.setReport(report)

	totalDays := o.dayCount()
	day := 0
	for from := o.start; from.Before(o.end); from = from.Add(24 * time.Hour) {
		day++
		to := from.Add(24 * time.Hour)
		if to.After(o.end) {
			to = o.end
		}

		dayInfo := fmt.Sprintf("[Day %d of %d]", day, totalDays)
		o.setState(StateFetching, from, to)

		// Completed days are durable checkpoints: skip a day whose
		// interactions artifact is already stored.
		done, err := o.dayAlreadyPersisted(from, to)
		if err != nil {
			return o.fail(report, from, to, err)
		}
		if done {
			logrus.Infof("%s Already persisted, skipping", dayInfo)
			report.DaysSkipped++
			o.setReport(report)
			continue
		}

		logrus.Infof("%s Fetching interactions in [%s, %s)...",
			dayInfo, from.Format(dayFormat), to.Format(dayFormat))

		dayInteractions, err := o.fetcher.FetchInteractions(ctx, from, to)
		if err != nil {
			return o.fail(report, from, to, err)
		}

		if len(dayInteractions) == 0 {
			// A quiet day is valid, it just gets no artifacts.
			logrus.Warnf("%s No interactions found, skipping artifact write", dayInfo)
			report.DaysCompleted++
			o.setReport(report)
			continue
		}

		o.setState(StatePersisting, from, to)
		logrus.Infof("%s Persisting %d interactions...", dayInfo, len(dayInteractions))

		if err := o.persistDay(from, to, dayInteractions); err != nil {
			return o.fail(report, from, to, err)
		}

		report.DaysCompleted++
		report.TotalInteractions += len(dayInteractions)
		o.setReport(report)
	}

	o.setState(StateMerging, time.Time{}, time.Time{})
	logrus.Info("Merging day artifacts into final datasets...")

	mergedUsers, err := o.merge()
	if err != nil {
		report.FinishedAt = time.Now().UTC()
		report.Error = err.Error()
		o.setReport(report)
		o.setState(StateFailed, time.Time{}, time.Time{})
		return o.reportCopy(), fmt.Errorf("merge failed: %w", err)
	}

	report.Merged = true
	report.TotalUsers = mergedUsers
	report.FinishedAt = time.Now().UTC()
	o.setReport(report)
	o.setState(StateDone, time.Time{}, time.Time{})

	logrus.Infof("Data for interval [%s, %s) successfully fetched and merged",
		o.start.Format(dayFormat), o.end.Format(dayFormat))
	return o.reportCopy(), nil
}

func (o *Orchestrator) dayCount() int {
	days := int(o.end.Sub(o.start) / (24 * time.Hour))
	if o.start.Add(time.Duration(days) * 24 * time.Hour).Before(o.end) {
		days++
	}
	return days
}

func (o *Orchestrator) dayAlreadyPersisted(from, to time.Time) (bool, error) {
	key := dayKey(kindInteractions, from, to)
	existing, err := o.storage.List(kindInteractions + "/")
	if err != nil {
		return false, fmt.Errorf("failed to list existing artifacts: %w", err)
	}
	for _, name := range existing {
		if name == key {
			return true, nil
		}
	}
	return false, nil
}

// persistDay writes the day's three artifacts. The sentiment tables are
// computed for this day alone, not cumulatively.
func (o *Orchestrator) persistDay(from, to time.Time, dayInteractions []models.Interaction) error {
	interactionsCSV, err := encodeInteractions(dayInteractions)
	if err != nil {
		return fmt.Errorf("failed to encode interactions: %w", err)
	}

	textScores := sentiment.TextSentiment(dayInteractions, o.scorer)
	textCSV, err := encodeScores(textCol, textScores)
	if err != nil {
		return fmt.Errorf("failed to encode text sentiment: %w", err)
	}

	userScores := sentiment.UserSentimentFromScores(dayInteractions, textScores)
	userCSV, err := encodeScores(userCol, userScores)
	if err != nil {
		return fmt.Errorf("failed to encode user sentiment: %w", err)
	}

	// Interactions last: their presence is the day's completion marker, so
	// a crash mid-persist re-runs the day instead of half-trusting it.
	if err := o.storage.Store(dayKey(kindTextSentiment, from, to), textCSV); err != nil {
		return fmt.Errorf("failed to store text sentiment artifact: %w", err)
	}
	if err := o.storage.Store(dayKey(kindUserSentiment, from, to), userCSV); err != nil {
		return fmt.Errorf("failed to store user sentiment artifact: %w", err)
	}
	if err := o.storage.Store(dayKey(kindInteractions, from, to), interactionsCSV); err != nil {
		return fmt.Errorf("failed to store interactions artifact: %w", err)
	}

	return nil
}

// merge concatenates all day artifacts into one dataset per kind and
// returns the number of distinct users in the merged data. User sentiment
// is recomputed from the concatenated interactions joined to the merged
// text-level scores: averaging the per-day user averages would be wrong
// whenever a user's daily interaction counts differ.
func (o *Orchestrator) merge() (int, error) {
	allInteractions, err := o.mergeInteractions()
	if err != nil {
		return 0, err
	}

	mergedTextScores, err := o.mergeTextSentiment()
	if err != nil {
		return 0, err
	}

	userScores := sentiment.UserSentimentFromScores(allInteractions, mergedTextScores)
	userCSV, err := encodeScores(userCol, userScores)
	if err != nil {
		return 0, fmt.Errorf("failed to encode merged user sentiment: %w", err)
	}
	if err := o.storage.Store(mergedKey(kindUserSentiment), userCSV); err != nil {
		return 0, fmt.Errorf("failed to store merged user sentiment: %w", err)
	}

	return len(userScores), nil
}

func (o *Orchestrator) mergeInteractions() ([]models.Interaction, error) {
	keys, err := o.storage.List(kindInteractions + "/")
	if err != nil {
		return nil, fmt.Errorf("failed to list interaction artifacts: %w", err)
	}

	var all []models.Interaction
	for _, key := range keys {
		if !strings.HasSuffix(key, ".csv") {
			continue
		}
		data, err := o.storage.Retrieve(key)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", key, err)
		}
		dayInteractions, err := decodeInteractions(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", key, err)
		}
		all = append(all, dayInteractions...)
	}

	merged, err := encodeInteractions(all)
	if err != nil {
		return nil, fmt.Errorf("failed to encode merged interactions: %w", err)
	}
	if err := o.storage.Store(mergedKey(kindInteractions), merged); err != nil {
		return nil, fmt.Errorf("failed to store merged interactions: %w", err)
	}

	return all, nil
}

func (o *Orchestrator) mergeTextSentiment() (map[string]float64, error) {
	keys, err := o.storage.List(kindTextSentiment + "/")
	if err != nil {
		return nil, fmt.Errorf("failed to list text sentiment artifacts: %w", err)
	}

	// The scorer is pure, so the same text scored on different days got the
	// same score and last-write-wins is safe.
	merged := make(map[string]float64)
	for _, key := range keys {
		if !strings.HasSuffix(key, ".csv") {
			continue
		}
		data, err := o.storage.Retrieve(key)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", key, err)
		}
		scores, err := decodeScores(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", key, err)
		}
		for text, score := range scores {
			merged[text] = score
		}
	}

	mergedCSV, err := encodeScores(textCol, merged)
	if err != nil {
		return nil, fmt.Errorf("failed to encode merged text sentiment: %w", err)
	}
	if err := o.storage.Store(mergedKey(kindTextSentiment), mergedCSV); err != nil {
		return nil, fmt.Errorf("failed to store merged text sentiment: %w", err)
	}

	return merged, nil
}

func (o *Orchestrator) fail(report models.RunReport, from, to time.Time, err error) (*models.RunReport, error) {
	dayErr := &DayError{From: from, To: to, Err: err}
	report.FailedDay = fmt.Sprintf("[%s, %s)", from.Format(dayFormat), to.Format(dayFormat))
	report.Error = dayErr.Error()
	report.FinishedAt = time.Now().UTC()
	o.setReport(report)
	o.setState(StateFailed, from, to)
	return o.reportCopy(), dayErr
}

func (o *Orchestrator) setState(state State, from, to time.Time) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = state
	if from.IsZero() {
		o.current = ""
	} else {
		o.current = fmt.Sprintf("[%s, %s)", from.Format(dayFormat), to.Format(dayFormat))
	}
}

func (o *Orchestrator) setReport(report models.RunReport) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.report = report
}

func (o *Orchestrator) reportCopy() *models.RunReport {
	o.mu.RLock()
	defer o.mu.RUnlock()
	report := o.report
	return &report
}

// Status is a point-in-time snapshot of the run for the metrics endpoint.
type Status struct {
	State             State  `json:"state"`
	CurrentDay        string `json:"current_day,omitempty"`
	DaysCompleted     int    `json:"days_completed"`
	DaysSkipped       int    `json:"days_skipped"`
	TotalInteractions int    `json:"total_interactions"`
}

// GetMetrics returns the current run status as JSON.
func (o *Orchestrator) GetMetrics() string {
	o.mu.RLock()
	defer o.mu.RUnlock()

	data, _ := json.MarshalIndent(Status{
		State:             o.state,
		CurrentDay:        o.current,
		DaysCompleted:     o.report.DaysCompleted,
		DaysSkipped:       o.report.DaysSkipped,
		TotalInteractions: o.report.TotalInteractions,
	}, "", "  ")
	return string(data)
}
