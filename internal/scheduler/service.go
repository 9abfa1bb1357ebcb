package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/zACIID/investing-echo-chambers/internal/models"
)

// PipelineRunner runs the harvest pipeline over a window.
type PipelineRunner interface {
	RunWindow(ctx context.Context, start, end time.Time) (*models.RunReport, error)
}

// Service schedules a daily harvest of the previous day, giving the forum
// a full day to settle before its threads are fetched.
type Service struct {
	runner PipelineRunner
	cron   *cron.Cron
}

// NewService creates a new scheduler service
func NewService(runner PipelineRunner) *Service {
	return &Service{
		runner: runner,
		cron:   cron.New(cron.WithSeconds()),
	}
}

// Start begins the scheduled harvesting
func (s *Service) Start() error {
	// Run daily at 3 AM UTC, harvesting yesterday's window
	_, err := s.cron.AddFunc("0 0 3 * * *", func() {
		end := time.Now().UTC().Truncate(24 * time.Hour)
		start := end.AddDate(0, 0, -1)

		logrus.Infof("Starting scheduled harvest of [%s, %s)",
			start.Format("2006-01-02"), end.Format("2006-01-02"))

		if _, err := s.runner.RunWindow(context.Background(), start, end); err != nil {
			logrus.Errorf("Scheduled harvest failed: %v", err)
		}
	})

	if err != nil {
		return err
	}

	s.cron.Start()
	logrus.Info("Scheduler started with daily harvest at 3 AM UTC")
	return nil
}

// Stop stops the scheduler
func (s *Service) Stop() {
	if s.cron != nil {
		s.cron.Stop()
		logrus.Info("Scheduler stopped")
	}
}
