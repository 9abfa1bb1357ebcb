package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zACIID/investing-echo-chambers/internal/models"
)

// blockingFetcher parks inside FetchInteractions until released, so tests
// can observe a run mid-flight.
type blockingFetcher struct {
	started chan struct{}
	release chan struct{}
}

func newBlockingFetcher() *blockingFetcher {
	return &blockingFetcher{
		started: make(chan struct{}, 2),
		release: make(chan struct{}),
	}
}

func (f *blockingFetcher) FetchInteractions(ctx context.Context, from, to time.Time) ([]models.Interaction, error) {
	f.started <- struct{}{}
	<-f.release
	return nil, nil
}

func TestRunWindow_RejectsConcurrentRuns(t *testing.T) {
	start := time.Date(2021, 12, 17, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	fetcher := newBlockingFetcher()
	service := NewService(fetcher, &mapScorer{}, newTestStorage(t), nil)

	done := make(chan error, 1)
	go func() {
		_, err := service.RunWindow(context.Background(), start, end)
		done <- err
	}()

	<-fetcher.started
	assert.True(t, service.Running())

	// A second run over the same storage must be rejected, never started:
	// it would race the first run on the same day artifacts.
	_, err := service.RunWindow(context.Background(), start, end)
	assert.ErrorIs(t, err, ErrRunInProgress)

	close(fetcher.release)
	require.NoError(t, <-done)
	assert.False(t, service.Running())

	// The guard lifts once the run finishes.
	_, err = service.RunWindow(context.Background(), start, end)
	require.NoError(t, err)
}
