package model

import "time"

type AttemptStatus string

const (
	AttemptDraft     AttemptStatus = "draft"
	AttemptSubmitted AttemptStatus = "submitted"
)

// Attempt is one learner's work on one assignment. At most one row may
// exist per (assignment_id, user_id) pair; the database unique constraint
// is the sole guard, there is no application-level check-then-insert.
//
// The first write goes straight to submitted (there is no separate
// draft-save step), and submitted is terminal: a second create for the
// same pair is rejected, while SubmitForEval re-uploads content under a
// rotated object key without changing status.
type Attempt struct {
	ID           string        `json:"id"`
	AssignmentID string        `json:"assignment_id"`
	UserID       string        `json:"user_id"`
	Status       AttemptStatus `json:"status"`
	ObjectKey    string        `json:"-"`
	BucketURL    string        `json:"bucket_url"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

type AttemptContent struct {
	Attempt
	Files   *FileTree `json:"files,omitempty"`
	Pending bool      `json:"content_pending"`
}
