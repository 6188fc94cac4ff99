// Package scoring computes the final grade for a completed exam session.
// It is a pure function of its inputs: identical inputs always produce
// identical output, so results can be re-derived for audits.
package scoring

import (
	"errors"
	"math"

	"github.com/proctorhq/examgate-backend/internal/model"
)

// ErrInvalidExam is returned when a zero-question exam reaches scoring.
// That is a data-integrity fault, not a taker mistake.
var ErrInvalidExam = errors.New("exam has no questions to score")

// DefaultPassThreshold is the minimum percentage score considered a pass.
// It is business policy, not algorithmic necessity, so deployments override
// it via PASS_THRESHOLD.
const DefaultPassThreshold = 70

// Input carries everything needed to grade one session.
type Input struct {
	// Answers maps question ID to the submitted option value. Unanswered
	// questions are simply absent and count as incorrect.
	Answers map[string]string
	// Questions is the exam's full question set, answer key included.
	Questions []model.Question
	// DurationSeconds is the exam's authored time limit.
	DurationSeconds int
	// RemainingSeconds is the session's last autosaved remaining time.
	RemainingSeconds int
	// PassThreshold is the pass percentage. The zero value means
	// DefaultPassThreshold, so a 0% threshold cannot be expressed; the
	// lowest configurable policy is 1.
	PassThreshold int
}

// Summary is the graded outcome of one session.
type Summary struct {
	Score            int  `json:"score"`
	CorrectAnswers   int  `json:"correct_answers"`
	TotalQuestions   int  `json:"total_questions"`
	TimeTakenSeconds int  `json:"time_taken_seconds"`
	Passed           bool `json:"passed"`
}

// Score grades a session. An answer is correct only when it exactly matches
// the question's correct option value. The percentage uses half-up rounding.
// Time taken is clamped at zero so a remaining time above the duration can
// never yield a negative duration.
func Score(in Input) (Summary, error) {
	total := len(in.Questions)
	if total == 0 {
		return Summary{}, ErrInvalidExam
	}

	correct := 0
	for _, q := range in.Questions {
		if answer, ok := in.Answers[q.ID.String()]; ok && answer == q.CorrectAnswer {
			correct++
		}
	}

	score := int(math.Round(float64(correct) / float64(total) * 100))

	timeTaken := in.DurationSeconds - in.RemainingSeconds
	if timeTaken < 0 {
		timeTaken = 0
	}

	threshold := in.PassThreshold
	if threshold == 0 {
		threshold = DefaultPassThreshold
	}

	return Summary{
		Score:            score,
		CorrectAnswers:   correct,
		TotalQuestions:   total,
		TimeTakenSeconds: timeTaken,
		Passed:           score >= threshold,
	}, nil
}
