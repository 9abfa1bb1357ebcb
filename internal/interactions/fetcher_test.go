package interactions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zACIID/investing-echo-chambers/internal/models"
)

// MockThreadClient is a mock implementation of the live forum client
type MockThreadClient struct {
	mock.Mock
}

func (m *MockThreadClient) ListNew(ctx context.Context, subreddit, after string, limit int) ([]models.Submission, string, error) {
	args := m.Called(ctx, subreddit, after, limit)
	return args.Get(0).([]models.Submission), args.String(1), args.Error(2)
}

func (m *MockThreadClient) Thread(ctx context.Context, id string) (*models.Thread, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Thread), args.Error(1)
}

func (m *MockThreadClient) ExpandComments(ctx context.Context, thread *models.Thread, minBatch int) error {
	args := m.Called(ctx, thread, minBatch)
	return args.Error(0)
}

// MockHistoricalIndex is a mock implementation of the historical search index
type MockHistoricalIndex struct {
	mock.Mock
}

func (m *MockHistoricalIndex) SearchSubmissionIDs(ctx context.Context, query, subreddit string, after, before time.Time) ([]models.SubmissionRef, error) {
	args := m.Called(ctx, query, subreddit, after, before)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SubmissionRef), args.Error(1)
}

func windowDay() (time.Time, time.Time) {
	from := time.Date(2021, 12, 17, 0, 0, 0, 0, time.UTC)
	return from, from.Add(24 * time.Hour)
}

func submissionThread(id, author string, created time.Time) *models.Thread {
	return &models.Thread{
		Submission: models.Submission{
			ID:        id,
			Title:     "title " + id,
			Selftext:  "body",
			Author:    author,
			CreatedAt: created,
		},
	}
}

func TestFetchInteractions_HistoricalStrategy(t *testing.T) {
	from, to := windowDay()
	client := &MockThreadClient{}
	index := &MockHistoricalIndex{}

	index.On("SearchSubmissionIDs", mock.Anything, "stocks", "wallstreetbets", from, to).
		Return([]models.SubmissionRef{
			{ID: "s1", CreatedAt: from.Add(time.Hour)},
			{ID: "s2", CreatedAt: from.Add(2 * time.Hour)},
		}, nil)

	client.On("Thread", mock.Anything, "s1").Return(submissionThread("s1", "alice", from.Add(time.Hour)), nil)
	client.On("Thread", mock.Anything, "s2").Return(submissionThread("s2", "bob", from.Add(2*time.Hour)), nil)
	client.On("ExpandComments", mock.Anything, mock.Anything, 30).Return(nil)

	fetcher := NewFetcher(client, index, "wallstreetbets", "stocks", 30)
	result, err := fetcher.FetchInteractions(context.Background(), from, to)

	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "alice", result[0].User)
	assert.Equal(t, "bob", result[1].User)
	index.AssertExpectations(t)
	client.AssertExpectations(t)
}

func TestFetchInteractions_BadThreadIsSkipped(t *testing.T) {
	from, to := windowDay()
	client := &MockThreadClient{}
	index := &MockHistoricalIndex{}

	index.On("SearchSubmissionIDs", mock.Anything, mock.Anything, mock.Anything, from, to).
		Return([]models.SubmissionRef{
			{ID: "broken", CreatedAt: from.Add(time.Hour)},
			{ID: "good", CreatedAt: from.Add(2 * time.Hour)},
		}, nil)

	client.On("Thread", mock.Anything, "broken").Return(nil, errors.New("not found"))
	client.On("Thread", mock.Anything, "good").Return(submissionThread("good", "bob", from.Add(2*time.Hour)), nil)
	client.On("ExpandComments", mock.Anything, mock.Anything, 30).Return(nil)

	fetcher := NewFetcher(client, index, "wallstreetbets", "", 30)
	result, err := fetcher.FetchInteractions(context.Background(), from, to)

	// One bad thread must not abort the whole window's fetch.
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "bob", result[0].User)
}

func TestFetchInteractions_EnumerationFailureAborts(t *testing.T) {
	from, to := windowDay()
	client := &MockThreadClient{}
	index := &MockHistoricalIndex{}

	index.On("SearchSubmissionIDs", mock.Anything, mock.Anything, mock.Anything, from, to).
		Return(nil, errors.New("index down"))

	fetcher := NewFetcher(client, index, "wallstreetbets", "", 30)
	result, err := fetcher.FetchInteractions(context.Background(), from, to)

	assert.Nil(t, result)
	var enumErr *EnumerationError
	assert.ErrorAs(t, err, &enumErr)
}

func TestFetchInteractions_UnresolvedParentRetriesOnce(t *testing.T) {
	from, to := windowDay()
	client := &MockThreadClient{}
	index := &MockHistoricalIndex{}

	incomplete := submissionThread("s1", "alice", from.Add(time.Hour))
	incomplete.Comments = []models.Comment{
		{ID: "c1", ParentID: "t1_missing", Author: "bob", Body: "orphan"},
	}
	complete := submissionThread("s1", "alice", from.Add(time.Hour))
	complete.Comments = []models.Comment{
		{ID: "missing", ParentID: "t3_s1", Author: "carol", Body: "found"},
		{ID: "c1", ParentID: "t1_missing", Author: "bob", Body: "orphan"},
	}

	index.On("SearchSubmissionIDs", mock.Anything, mock.Anything, mock.Anything, from, to).
		Return([]models.SubmissionRef{{ID: "s1", CreatedAt: from.Add(time.Hour)}}, nil)
	client.On("Thread", mock.Anything, "s1").Return(incomplete, nil).Once()
	client.On("Thread", mock.Anything, "s1").Return(complete, nil).Once()
	client.On("ExpandComments", mock.Anything, mock.Anything, 30).Return(nil)

	fetcher := NewFetcher(client, index, "wallstreetbets", "", 30)
	result, err := fetcher.FetchInteractions(context.Background(), from, to)

	require.NoError(t, err)
	require.Len(t, result, 3)
	client.AssertNumberOfCalls(t, "Thread", 2)
}

func TestFetchInteractions_LiveWindowStopRule(t *testing.T) {
	from, to := windowDay()
	client := &MockThreadClient{}

	inWindow := models.Submission{ID: "s1", Author: "alice", CreatedAt: from.Add(time.Hour)}
	tooOld := models.Submission{ID: "old", Author: "bob", CreatedAt: from.Add(-time.Hour)}
	alsoInWindow := models.Submission{ID: "s2", Author: "carol", CreatedAt: from.Add(30 * time.Minute)}

	// Page 1 mixes an out-of-window item between in-window ones: it is
	// skipped, not treated as end of stream. Pages 2 and 3 fall entirely
	// below the window, which is the stop condition.
	client.On("ListNew", mock.Anything, "wallstreetbets", "", listingPageSize).
		Return([]models.Submission{inWindow, tooOld, alsoInWindow}, "cur1", nil).Once()
	client.On("ListNew", mock.Anything, "wallstreetbets", "cur1", listingPageSize).
		Return([]models.Submission{tooOld}, "cur2", nil).Once()
	client.On("ListNew", mock.Anything, "wallstreetbets", "cur2", listingPageSize).
		Return([]models.Submission{tooOld}, "cur3", nil).Once()

	client.On("Thread", mock.Anything, "s1").Return(submissionThread("s1", "alice", inWindow.CreatedAt), nil)
	client.On("Thread", mock.Anything, "s2").Return(submissionThread("s2", "carol", alsoInWindow.CreatedAt), nil)
	client.On("ExpandComments", mock.Anything, mock.Anything, 30).Return(nil)

	fetcher := NewFetcher(client, nil, "wallstreetbets", "", 30)
	result, err := fetcher.FetchInteractions(context.Background(), from, to)

	require.NoError(t, err)
	require.Len(t, result, 2)
	// No fourth page requested: two consecutive stale pages ended paging.
	client.AssertNumberOfCalls(t, "ListNew", 3)
	client.AssertNotCalled(t, "Thread", mock.Anything, "old")
}
