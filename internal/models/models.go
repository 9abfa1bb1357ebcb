package models

import "time"

// InteractionKind distinguishes the two shapes an interaction can take.
type InteractionKind string

const (
	// KindSubmission marks a root post. A submission is not in response to
	// anyone, so its author is treated as responding to itself.
	KindSubmission InteractionKind = "submission"
	// KindComment marks a reply to a submission or to another comment.
	KindComment InteractionKind = "comment"
)

// Interaction is one authored text unit and the user it responds to.
// Values are never mutated after construction; Text holds the raw text,
// preprocessing happens only inside the sentiment pipeline.
type Interaction struct {
	Kind           InteractionKind `json:"kind"`
	User           string          `json:"user"`
	Text           string          `json:"text"`
	InteractedWith string          `json:"interacted_with"`
}

// Submission is an inert snapshot of a root post. Author is empty when the
// account was deleted; no field access triggers remote calls.
type Submission struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Selftext    string    `json:"selftext"`
	Author      string    `json:"author"`
	CreatedAt   time.Time `json:"created_at"`
	NumComments int       `json:"num_comments"` // hint only, counts deleted/blocked comments too
}

// Comment is an inert snapshot of a single comment node. ParentID may still
// carry the remote kind prefix (t1_/t3_).
type Comment struct {
	ID       string `json:"id"`
	ParentID string `json:"parent_id"`
	Author   string `json:"author"`
	Body     string `json:"body"`
}

// MorePlaceholder is an unresolved "load more comments" stub inside a
// comment tree. Count is the number of children it hides.
type MorePlaceholder struct {
	Count    int      `json:"count"`
	ParentID string   `json:"parent_id"`
	Children []string `json:"children"`
}

// Thread is a submission plus its flattened comment list. After expansion
// More is empty and Comments contains every retrievable comment.
type Thread struct {
	Submission Submission        `json:"submission"`
	Comments   []Comment         `json:"comments"`
	More       []MorePlaceholder `json:"more,omitempty"`
}

// SubmissionRef is the lightweight result of a historical-index search,
// later re-resolved to a full Thread through the live client.
type SubmissionRef struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_utc"`
}

// RunReport summarizes one pipeline run for notifications and metrics.
type RunReport struct {
	RunID             string    `json:"run_id"`
	StartDate         time.Time `json:"start_date"`
	EndDate           time.Time `json:"end_date"`
	StartedAt         time.Time `json:"started_at"`
	FinishedAt        time.Time `json:"finished_at"`
	DaysCompleted     int       `json:"days_completed"`
	DaysSkipped       int       `json:"days_skipped"`
	TotalInteractions int       `json:"total_interactions"`
	TotalUsers        int       `json:"total_users"`
	Merged            bool      `json:"merged"`
	FailedDay         string    `json:"failed_day,omitempty"`
	Error             string    `json:"error,omitempty"`
}
