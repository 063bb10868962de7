package model

import "time"

type AssignmentDifficulty string
type AssignmentStatus string

const (
	DifficultyBeginner     AssignmentDifficulty = "beginner"
	DifficultyIntermediate AssignmentDifficulty = "intermediate"
	DifficultyAdvanced     AssignmentDifficulty = "advanced"

	AssignmentActive    AssignmentStatus = "active"
	AssignmentArchived  AssignmentStatus = "archived"
	AssignmentSubmitted AssignmentStatus = "submitted"
)

func (d AssignmentDifficulty) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

func (s AssignmentStatus) Valid() bool {
	switch s {
	case AssignmentActive, AssignmentArchived, AssignmentSubmitted:
		return true
	}
	return false
}

// Assignment is a challenge instantiated from a template (optionally) plus
// author overrides. Rows are never deleted; retirement is the archived
// status.
type Assignment struct {
	ID          string               `json:"id"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	TemplateID  *string              `json:"template_id,omitempty"`
	ObjectKey   string               `json:"-"`
	BucketURL   string               `json:"bucket_url"`
	Difficulty  AssignmentDifficulty `json:"difficulty"`
	Status      AssignmentStatus     `json:"status"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

type AssignmentContent struct {
	Assignment
	Files   *FileTree `json:"files,omitempty"`
	Pending bool      `json:"content_pending"`
}
