package interactions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zACIID/investing-echo-chambers/internal/models"
)

const listingPageSize = 100

// EnumerationError is a failure of the submission enumeration itself, as
// opposed to one bad thread. It aborts the window's fetch: continuing would
// silently truncate the day's data.
type EnumerationError struct {
	Err error
}

func (e *EnumerationError) Error() string {
	return fmt.Sprintf("submission enumeration failed: %v", e.Err)
}

func (e *EnumerationError) Unwrap() error { return e.Err }

// Fetcher reconstructs the interaction graph of a date window: it drives
// the submission enumeration, expands each thread's comment tree and runs
// the extractor. One bad thread is logged and skipped, never aborting the
// whole window.
type Fetcher struct {
	client    ThreadClient
	index     HistoricalIndex
	subreddit string
	query     string
	minExpand int
	log       logrus.FieldLogger
}

// NewFetcher creates a graph assembler. When index is non-nil the
// historical-search strategy is used instead of paging the live "new"
// listing; minExpand is the minimum comment batch worth an expansion
// request.
func NewFetcher(client ThreadClient, index HistoricalIndex, subreddit, query string, minExpand int) *Fetcher {
	return &Fetcher{
		client:    client,
		index:     index,
		subreddit: subreddit,
		query:     query,
		minExpand: minExpand,
		log:       logrus.StandardLogger(),
	}
}

// SetLogger replaces the progress sink.
func (f *Fetcher) SetLogger(log logrus.FieldLogger) {
	f.log = log
}

// FetchInteractions collects the interactions of every thread whose
// submission was created in [from, to).
func (f *Fetcher) FetchInteractions(ctx context.Context, from, to time.Time) ([]models.Interaction, error) {
	var stream ThreadStream
	if f.index != nil {
		stream = newHistoricalStream(f.client, f.index, f.query, f.subreddit, from, to)
	} else {
		stream = newLiveStream(f.client, f.subreddit, from, to)
	}

	var fetched []models.Interaction
	count := 0

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		thread, err := stream.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			var enumErr *EnumerationError
			if errors.As(err, &enumErr) {
				return nil, err
			}
			f.log.Warnf("Skipping unresolvable thread: %v", err)
			continue
		}

		count++
		f.log.Infof("[Submission #%d] Fetching thread '%s', created at: %s",
			count, thread.Submission.Title, thread.Submission.CreatedAt.Format(time.RFC3339))

		threadInteractions, err := f.threadInteractions(ctx, thread)
		if err != nil {
			f.log.Warnf("Skipping thread %s: %v", NormalizeID(thread.Submission.ID), err)
			continue
		}

		fetched = append(fetched, threadInteractions...)
	}

	f.log.Infof("Fetched %d interactions from %d threads in [%s, %s)",
		len(fetched), count, from.Format("2006-01-02"), to.Format("2006-01-02"))
	return fetched, nil
}

// transientError matches errors worth one more attempt, without binding the
// assembler to a concrete client package.
type transientError interface {
	Transient() bool
}

func retryable(err error) bool {
	var unresolved *UnresolvedParentError
	if errors.As(err, &unresolved) {
		// An incomplete tree usually means the expansion raced a deletion;
		// a fresh fetch of the whole thread is worth one try.
		return true
	}
	var transient transientError
	return errors.As(err, &transient) && transient.Transient()
}

// threadInteractions expands and extracts one thread, re-fetching the whole
// thread once when the first attempt fails transiently.
func (f *Fetcher) threadInteractions(ctx context.Context, thread *models.Thread) ([]models.Interaction, error) {
	result, err := f.expandAndExtract(ctx, thread)
	if err == nil {
		return result, nil
	}
	if !retryable(err) {
		return nil, err
	}

	id := NormalizeID(thread.Submission.ID)
	f.log.Warnf("Retrying thread %s once after error: %v", id, err)

	fresh, fetchErr := f.client.Thread(ctx, id)
	if fetchErr != nil {
		return nil, fmt.Errorf("retry fetch of thread %s failed: %w", id, fetchErr)
	}
	return f.expandAndExtract(ctx, fresh)
}

func (f *Fetcher) expandAndExtract(ctx context.Context, thread *models.Thread) ([]models.Interaction, error) {
	if err := f.client.ExpandComments(ctx, thread, f.minExpand); err != nil {
		return nil, err
	}

	// The comment count hint overcounts deleted/blocked comments, useful
	// for progress reporting only.
	f.log.Debugf("Thread %s: %d comments fetched (hint was %d)",
		NormalizeID(thread.Submission.ID), len(thread.Comments), thread.Submission.NumComments)

	return Extract(thread)
}

// liveStream pages the subreddit "new" listing, newest first, yielding the
// threads created inside the window. The listing has no lower-bound filter,
// so the stream stops after two consecutive pages that fell entirely below
// the window; a single out-of-window item mid-page is just skipped.
type liveStream struct {
	client    ThreadClient
	subreddit string
	from      time.Time
	to        time.Time

	buffer     []models.Submission
	after      string
	stalePages int
	exhausted  bool
	firstPage  bool
}

func newLiveStream(client ThreadClient, subreddit string, from, to time.Time) *liveStream {
	return &liveStream{
		client:    client,
		subreddit: subreddit,
		from:      from,
		to:        to,
		firstPage: true,
	}
}

func (s *liveStream) Next(ctx context.Context) (*models.Thread, error) {
	for {
		if len(s.buffer) > 0 {
			sub := s.buffer[0]
			s.buffer = s.buffer[1:]
			return s.client.Thread(ctx, sub.ID)
		}
		if s.exhausted {
			return nil, io.EOF
		}
		if err := s.fillBuffer(ctx); err != nil {
			return nil, err
		}
	}
}

func (s *liveStream) fillBuffer(ctx context.Context) error {
	if !s.firstPage && s.after == "" {
		s.exhausted = true
		return nil
	}

	page, next, err := s.client.ListNew(ctx, s.subreddit, s.after, listingPageSize)
	if err != nil {
		s.exhausted = true
		return &EnumerationError{Err: fmt.Errorf("failed to page subreddit %s: %w", s.subreddit, err)}
	}
	s.firstPage = false
	s.after = next

	if len(page) == 0 {
		s.exhausted = true
		return nil
	}

	var inWindow []models.Submission
	allBelow := true
	for _, sub := range page {
		if !sub.CreatedAt.Before(s.to) {
			// Newer than the window, listing has not reached it yet.
			allBelow = false
			continue
		}
		if sub.CreatedAt.Before(s.from) {
			continue
		}
		allBelow = false
		inWindow = append(inWindow, sub)
	}

	// Batch boundaries are not strictly ordered, one fully-below page can
	// still be followed by in-window items. Two in a row means the end.
	if allBelow {
		s.stalePages++
		if s.stalePages >= 2 {
			s.exhausted = true
		}
	} else {
		s.stalePages = 0
	}

	if next == "" {
		s.exhausted = true
	}

	s.buffer = inWindow
	return nil
}

// historicalStream seeds thread ids from the historical index and resolves
// each one through the live client, which is the only source of full
// comment trees.
type historicalStream struct {
	client    ThreadClient
	index     HistoricalIndex
	query     string
	subreddit string
	from      time.Time
	to        time.Time

	refs   []models.SubmissionRef
	seeded bool
}

func newHistoricalStream(client ThreadClient, index HistoricalIndex, query, subreddit string, from, to time.Time) *historicalStream {
	return &historicalStream{
		client:    client,
		index:     index,
		query:     query,
		subreddit: subreddit,
		from:      from,
		to:        to,
	}
}

func (s *historicalStream) Next(ctx context.Context) (*models.Thread, error) {
	if !s.seeded {
		s.seeded = true
		refs, err := s.index.SearchSubmissionIDs(ctx, s.query, s.subreddit, s.from, s.to)
		if err != nil {
			return nil, &EnumerationError{Err: err}
		}
		s.refs = refs
	}

	if len(s.refs) == 0 {
		return nil, io.EOF
	}

	ref := s.refs[0]
	s.refs = s.refs[1:]

	thread, err := s.client.Thread(ctx, NormalizeID(ref.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve historical submission %s: %w", ref.ID, err)
	}
	return thread, nil
}
