package model

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Question is a single multiple-choice question. Options is a JSON array of
// {label, text, value} objects; CorrectAnswer matches exactly one option's
// value (not its label). Questions are immutable once published.
type Question struct {
	ID            uuid.UUID       `json:"id"`
	ExamID        uuid.UUID       `json:"exam_id"`
	Text          string          `json:"text"`
	Options       json.RawMessage `json:"options"`
	CorrectAnswer string          `json:"correct_answer"`
	OrderNum      int             `json:"order_num"`
}

// QuestionForTaker is a question with the answer key stripped. This is the
// only shape that ever leaves the server toward a test-taker.
type QuestionForTaker struct {
	ID       uuid.UUID       `json:"id"`
	ExamID   uuid.UUID       `json:"exam_id"`
	Text     string          `json:"text"`
	Options  json.RawMessage `json:"options"`
	OrderNum int             `json:"order_num"`
}

// Sanitized returns the taker-safe view of the question.
func (q *Question) Sanitized() QuestionForTaker {
	return QuestionForTaker{
		ID:       q.ID,
		ExamID:   q.ExamID,
		Text:     q.Text,
		Options:  q.Options,
		OrderNum: q.OrderNum,
	}
}
