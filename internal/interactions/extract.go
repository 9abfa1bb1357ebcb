package interactions

import (
	"fmt"

	"github.com/zACIID/investing-echo-chambers/internal/models"
)

// UnresolvedParentError reports a comment whose parent id is absent from the
// thread's expanded comment list. It means the remote collaborator returned
// an incomplete tree; dropping the comment silently would corrupt the graph,
// so the whole thread is rejected.
type UnresolvedParentError struct {
	ThreadID  string
	CommentID string
	ParentID  string
}

func (e *UnresolvedParentError) Error() string {
	return fmt.Sprintf("thread %s: comment %s references unresolved parent %s",
		e.ThreadID, e.CommentID, e.ParentID)
}

// Extract converts one fully expanded thread into its flat interaction list:
// the submission interaction first, then one interaction per comment in the
// thread's flattened fetch order.
func Extract(thread *models.Thread) ([]models.Interaction, error) {
	sub := thread.Submission
	subAuthor := AuthorOrSentinel(sub.Author)

	interactions := make([]models.Interaction, 0, len(thread.Comments)+1)
	interactions = append(interactions, models.Interaction{
		Kind:           models.KindSubmission,
		User:           subAuthor,
		Text:           fmt.Sprintf("%s - %s", sub.Title, sub.Selftext),
		InteractedWith: subAuthor,
	})

	// Map normalized ids to the author identity of the object they name.
	// The submission is the parent of its top-level comments. Deleted
	// objects still occupy their id slot, so their replies resolve fine.
	authorsByID := make(map[string]string, len(thread.Comments)+1)
	authorsByID[NormalizeID(sub.ID)] = subAuthor

	for _, c := range thread.Comments {
		authorsByID[NormalizeID(c.ID)] = AuthorOrSentinel(c.Author)
	}

	// Parent resolution needs the complete index: asynchronous expansion can
	// yield a reply before the comment it answers, so this is a second pass.
	for _, c := range thread.Comments {
		parentID := NormalizeID(c.ParentID)
		parentAuthor, ok := authorsByID[parentID]
		if !ok {
			return nil, &UnresolvedParentError{
				ThreadID:  NormalizeID(sub.ID),
				CommentID: NormalizeID(c.ID),
				ParentID:  parentID,
			}
		}

		interactions = append(interactions, models.Interaction{
			Kind:           models.KindComment,
			User:           AuthorOrSentinel(c.Author),
			Text:           c.Body,
			InteractedWith: parentAuthor,
		})
	}

	return interactions, nil
}
