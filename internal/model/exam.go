package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Difficulty labels an exam's advertised difficulty level.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Exam is an immutable exam definition. Exams are authored by an
// administrative process and read-only to the session core.
type Exam struct {
	ID              uuid.UUID       `json:"id"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	DurationMinutes int             `json:"duration_minutes"`
	QuestionCount   int             `json:"question_count"`
	Difficulty      Difficulty      `json:"difficulty"`
	Tags            json.RawMessage `json:"tags"`
	IsActive        bool            `json:"is_active"`
	CreatedAt       time.Time       `json:"created_at"`
}

// DurationSeconds converts the authored duration to seconds, the
// authoritative unit for session time accounting.
func (e *Exam) DurationSeconds() int {
	return e.DurationMinutes * 60
}
