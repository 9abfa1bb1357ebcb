package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zACIID/investing-echo-chambers/internal/interactions"
	"github.com/zACIID/investing-echo-chambers/internal/models"
	"github.com/zACIID/investing-echo-chambers/internal/notifications"
	"github.com/zACIID/investing-echo-chambers/internal/sentiment"
	"github.com/zACIID/investing-echo-chambers/internal/storage"
)

// ErrRunInProgress is returned when a run is requested while another one is
// still in flight.
var ErrRunInProgress = errors.New("a pipeline run is already in progress")

// Service holds the long-lived collaborators and runs the pipeline over
// arbitrary windows. It is what the scheduler and the HTTP trigger talk to.
// Only one run may be in flight at a time: the scheduler and the manual
// trigger share the same storage, and two concurrent runs over overlapping
// windows would race on the same day artifacts.
type Service struct {
	fetcher  interactions.FetcherInterface
	scorer   sentiment.Scorer
	storage  storage.StorageInterface
	notifier notifications.NotificationInterface

	mu      sync.RWMutex
	running bool
	current *Orchestrator
}

// NewService creates a pipeline service. notifier may be nil.
func NewService(fetcher interactions.FetcherInterface, scorer sentiment.Scorer, store storage.StorageInterface, notifier notifications.NotificationInterface) *Service {
	return &Service{
		fetcher:  fetcher,
		scorer:   scorer,
		storage:  store,
		notifier: notifier,
	}
}

// RunWindow harvests [start, end) and sends the run report to the
// configured notification channels. It returns ErrRunInProgress when
// another run has not finished yet.
func (s *Service) RunWindow(ctx context.Context, start, end time.Time) (*models.RunReport, error) {
	orchestrator := NewOrchestrator(s.fetcher, s.scorer, s.storage, start, end)

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrRunInProgress
	}
	s.running = true
	s.current = orchestrator
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	report, runErr := orchestrator.Run(ctx)

	if s.notifier != nil && report != nil {
		if err := s.notifier.SendRunReport(report); err != nil {
			logrus.Errorf("Failed to send run report: %v", err)
		}
	}

	return report, runErr
}

// Running reports whether a run is currently in flight.
func (s *Service) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// GetMetrics returns the current (or last) run's status as JSON.
func (s *Service) GetMetrics() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return `{"state":"pending"}`
	}
	return s.current.GetMetrics()
}
