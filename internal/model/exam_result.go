package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamResult is the immutable scored snapshot of a completed session.
// Exactly one result exists per completed session.
type ExamResult struct {
	ID               uuid.UUID `json:"id"`
	SessionID        uuid.UUID `json:"session_id"`
	UserID           int       `json:"user_id"`
	ExamID           uuid.UUID `json:"exam_id"`
	Score            int       `json:"score"`
	CorrectAnswers   int       `json:"correct_answers"`
	TotalQuestions   int       `json:"total_questions"`
	TimeTakenSeconds int       `json:"time_taken_seconds"`
	Passed           bool      `json:"passed"`
	CompletedAt      time.Time `json:"completed_at"`
}
