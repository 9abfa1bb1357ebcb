package interactions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zACIID/investing-echo-chambers/internal/models"
)

func testThread() *models.Thread {
	return &models.Thread{
		Submission: models.Submission{
			ID:        "sub1",
			Title:     "Hi",
			Selftext:  "there",
			Author:    "alice",
			CreatedAt: time.Date(2021, 12, 17, 10, 0, 0, 0, time.UTC),
		},
		Comments: []models.Comment{
			{ID: "c1", ParentID: "t3_sub1", Author: "bob", Body: "http://x.com nice!!  post"},
		},
	}
}

func TestExtract_SubmissionAndComment(t *testing.T) {
	result, err := Extract(testThread())
	require.NoError(t, err)
	require.Len(t, result, 2)

	// The submission comes first and responds to itself; the raw text is
	// kept untouched, preprocessing belongs to the sentiment pipeline only.
	assert.Equal(t, models.Interaction{
		Kind:           models.KindSubmission,
		User:           "alice",
		Text:           "Hi - there",
		InteractedWith: "alice",
	}, result[0])

	assert.Equal(t, models.Interaction{
		Kind:           models.KindComment,
		User:           "bob",
		Text:           "http://x.com nice!!  post",
		InteractedWith: "alice",
	}, result[1])
}

func TestExtract_DeletedSubmissionAuthor(t *testing.T) {
	thread := testThread()
	thread.Submission.Author = ""
	thread.Comments = nil

	result, err := Extract(thread)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, Sentinel, result[0].User)
	assert.Equal(t, Sentinel, result[0].InteractedWith)
}

func TestExtract_DeletedParentStillResolves(t *testing.T) {
	thread := testThread()
	// c1's author is deleted but the comment still occupies its id slot,
	// so a reply to it resolves to the sentinel, not to an error.
	thread.Comments = []models.Comment{
		{ID: "c1", ParentID: "t3_sub1", Author: "", Body: "first"},
		{ID: "c2", ParentID: "t1_c1", Author: "carol", Body: "second"},
	}

	result, err := Extract(thread)
	require.NoError(t, err)
	require.Len(t, result, 3)
	assert.Equal(t, Sentinel, result[1].User)
	assert.Equal(t, Sentinel, result[2].InteractedWith)
}

func TestExtract_ReplyBeforeParentInFetchOrder(t *testing.T) {
	thread := testThread()
	// Asynchronous expansion can yield a reply before its parent; parent
	// resolution must still succeed via the complete index.
	thread.Comments = []models.Comment{
		{ID: "c2", ParentID: "t1_c1", Author: "carol", Body: "reply"},
		{ID: "c1", ParentID: "t3_sub1", Author: "bob", Body: "parent"},
	}

	result, err := Extract(thread)
	require.NoError(t, err)
	require.Len(t, result, 3)
	assert.Equal(t, "bob", result[1].InteractedWith)
	assert.Equal(t, "carol", result[1].User)
}

func TestExtract_UnresolvedParent(t *testing.T) {
	thread := testThread()
	thread.Comments = append(thread.Comments, models.Comment{
		ID: "c2", ParentID: "t1_missing", Author: "carol", Body: "orphan",
	})

	result, err := Extract(thread)
	assert.Nil(t, result)

	var unresolved *UnresolvedParentError
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, "sub1", unresolved.ThreadID)
	assert.Equal(t, "c2", unresolved.CommentID)
	assert.Equal(t, "missing", unresolved.ParentID)
}
