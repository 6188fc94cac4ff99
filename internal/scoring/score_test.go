package scoring

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/proctorhq/examgate-backend/internal/model"
)

// fixedQuestions builds n questions whose IDs are stable across calls so
// tests can reference them as q1..qn.
func fixedQuestions(correct ...string) ([]model.Question, []string) {
	questions := make([]model.Question, len(correct))
	ids := make([]string, len(correct))
	for i, answer := range correct {
		id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("q%d", i+1)))
		questions[i] = model.Question{ID: id, CorrectAnswer: answer}
		ids[i] = id.String()
	}
	return questions, ids
}

func TestScore(t *testing.T) {
	tests := []struct {
		name      string
		correct   []string
		answered  map[int]string // question index -> submitted value
		duration  int
		remaining int
		threshold int
		want      Summary
	}{
		{
			name:      "partial credit with unanswered question",
			correct:   []string{"a", "b", "c", "d"},
			answered:  map[int]string{0: "a", 1: "x", 2: "c"},
			duration:  1800,
			remaining: 610,
			want:      Summary{Score: 50, CorrectAnswers: 2, TotalQuestions: 4, TimeTakenSeconds: 1190, Passed: false},
		},
		{
			name:      "two thirds rounds half up to 67",
			correct:   []string{"a", "b", "c"},
			answered:  map[int]string{0: "a", 1: "b"},
			duration:  600,
			remaining: 600,
			want:      Summary{Score: 67, CorrectAnswers: 2, TotalQuestions: 3, TimeTakenSeconds: 0, Passed: false},
		},
		{
			name:      "all correct passes",
			correct:   []string{"a", "b"},
			answered:  map[int]string{0: "a", 1: "b"},
			duration:  1200,
			remaining: 300,
			want:      Summary{Score: 100, CorrectAnswers: 2, TotalQuestions: 2, TimeTakenSeconds: 900, Passed: true},
		},
		{
			name:      "no answers at all",
			correct:   []string{"a", "b", "c"},
			answered:  nil,
			duration:  900,
			remaining: 0,
			want:      Summary{Score: 0, CorrectAnswers: 0, TotalQuestions: 3, TimeTakenSeconds: 900, Passed: false},
		},
		{
			name:      "remaining above duration clamps time taken to zero",
			correct:   []string{"a"},
			answered:  map[int]string{0: "a"},
			duration:  600,
			remaining: 700,
			want:      Summary{Score: 100, CorrectAnswers: 1, TotalQuestions: 1, TimeTakenSeconds: 0, Passed: true},
		},
		{
			name:      "exactly at threshold passes",
			correct:   []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"},
			answered:  map[int]string{0: "a", 1: "b", 2: "c", 3: "d", 4: "e", 5: "f", 6: "g"},
			duration:  600,
			remaining: 0,
			want:      Summary{Score: 70, CorrectAnswers: 7, TotalQuestions: 10, TimeTakenSeconds: 600, Passed: true},
		},
		{
			// Zero threshold is the unset sentinel and falls back to the
			// default, it does not mean everything passes.
			name:      "zero threshold uses default",
			correct:   []string{"a", "b"},
			answered:  map[int]string{0: "a"},
			duration:  600,
			remaining: 0,
			threshold: 0,
			want:      Summary{Score: 50, CorrectAnswers: 1, TotalQuestions: 2, TimeTakenSeconds: 600, Passed: false},
		},
		{
			name:      "custom threshold",
			correct:   []string{"a", "b"},
			answered:  map[int]string{0: "a"},
			duration:  600,
			remaining: 0,
			threshold: 50,
			want:      Summary{Score: 50, CorrectAnswers: 1, TotalQuestions: 2, TimeTakenSeconds: 600, Passed: true},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			questions, ids := fixedQuestions(tc.correct...)
			answers := make(map[string]string, len(tc.answered))
			for idx, value := range tc.answered {
				answers[ids[idx]] = value
			}

			got, err := Score(Input{
				Answers:          answers,
				Questions:        questions,
				DurationSeconds:  tc.duration,
				RemainingSeconds: tc.remaining,
				PassThreshold:    tc.threshold,
			})
			if err != nil {
				t.Fatalf("Score returned error: %v", err)
			}
			if got != tc.want {
				t.Errorf("Score = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestScoreZeroQuestions(t *testing.T) {
	_, err := Score(Input{
		Answers:         map[string]string{"some-id": "a"},
		Questions:       nil,
		DurationSeconds: 600,
	})
	if !errors.Is(err, ErrInvalidExam) {
		t.Fatalf("Score error = %v, want ErrInvalidExam", err)
	}
}

func TestScoreDeterminism(t *testing.T) {
	questions, ids := fixedQuestions("a", "b", "c", "d")
	in := Input{
		Answers:          map[string]string{ids[0]: "a", ids[2]: "c", ids[3]: "x"},
		Questions:        questions,
		DurationSeconds:  1800,
		RemainingSeconds: 42,
	}

	first, err := Score(in)
	if err != nil {
		t.Fatalf("Score returned error: %v", err)
	}
	for i := 0; i < 100; i++ {
		again, err := Score(in)
		if err != nil {
			t.Fatalf("Score returned error on run %d: %v", i, err)
		}
		if again != first {
			t.Fatalf("run %d produced %+v, first run produced %+v", i, again, first)
		}
	}
}

func TestScoreIgnoresAnswersForUnknownQuestions(t *testing.T) {
	questions, ids := fixedQuestions("a", "b")
	got, err := Score(Input{
		Answers: map[string]string{
			ids[0]:           "a",
			"not-a-question": "b",
			uuid.NewString(): "b",
		},
		Questions:       questions,
		DurationSeconds: 600,
	})
	if err != nil {
		t.Fatalf("Score returned error: %v", err)
	}
	if got.CorrectAnswers != 1 {
		t.Errorf("CorrectAnswers = %d, want 1", got.CorrectAnswers)
	}
}
