package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamSession is one user's attempt at one exam. Invariants:
//   - at most one session with is_completed = false exists per (user, exam),
//     enforced by a partial unique index in the store
//   - is_completed flips false→true exactly once and never reverses
//   - time_remaining is frozen once the session completes
type ExamSession struct {
	ID               uuid.UUID         `json:"id"`
	UserID           int               `json:"user_id"`
	ExamID           uuid.UUID         `json:"exam_id"`
	StartedAt        time.Time         `json:"started_at"`
	SubmittedAt      *time.Time        `json:"submitted_at,omitempty"`
	TimeRemaining    int               `json:"time_remaining"`
	Answers          map[string]string `json:"answers"`
	FlaggedQuestions []string          `json:"flagged_questions"`
	IsCompleted      bool              `json:"is_completed"`
}

// AutosaveRequest is a partial session update. Absent fields keep their
// stored values; present fields fully replace them (the client always sends
// its complete current answer map, so replace-not-merge is the contract).
type AutosaveRequest struct {
	Answers          map[string]string `json:"answers" binding:"omitempty"`
	FlaggedQuestions []string          `json:"flagged_questions" binding:"omitempty"`
	TimeRemaining    *int              `json:"time_remaining" binding:"omitempty,min=0"`
}
