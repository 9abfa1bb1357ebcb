package interactions

import (
	"context"
	"time"

	"github.com/zACIID/investing-echo-chambers/internal/models"
)

// ThreadClient is the live forum client the assembler drives. All returned
// structures are inert data, resolving a field never triggers I/O.
type ThreadClient interface {
	// ListNew returns one page of the subreddit's newest submissions plus
	// the cursor for the following page (empty when exhausted).
	ListNew(ctx context.Context, subreddit, after string, limit int) ([]models.Submission, string, error)
	// Thread resolves a submission id to the full submission and its
	// flattened comment tree, unexpanded placeholders included.
	Thread(ctx context.Context, id string) (*models.Thread, error)
	// ExpandComments resolves the thread's placeholders down to the given
	// minimum batch size, leaving a fully flattened comment list.
	ExpandComments(ctx context.Context, thread *models.Thread, minBatch int) error
}

// HistoricalIndex enumerates submission ids older than the live API's
// lookback window. It returns lightweight refs only; full objects are
// re-resolved through the ThreadClient.
type HistoricalIndex interface {
	SearchSubmissionIDs(ctx context.Context, query, subreddit string, after, before time.Time) ([]models.SubmissionRef, error)
}

// ThreadStream is a pull-based lazy sequence of threads. Next returns
// io.EOF once the stream is exhausted; any other error is per-item and the
// stream stays usable, so callers can skip bad threads.
type ThreadStream interface {
	Next(ctx context.Context) (*models.Thread, error)
}

// FetcherInterface is the contract the pipeline consumes.
type FetcherInterface interface {
	FetchInteractions(ctx context.Context, from, to time.Time) ([]models.Interaction, error)
}
