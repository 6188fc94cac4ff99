package service

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/proctorhq/examgate-backend/internal/model"
)

func takerQuestions(n int) []model.QuestionForTaker {
	questions := make([]model.QuestionForTaker, n)
	for i := range questions {
		questions[i] = model.QuestionForTaker{
			ID:       uuid.New(),
			OrderNum: i + 1,
		}
	}
	return questions
}

func TestSampleQuestionsSize(t *testing.T) {
	questions := takerQuestions(10)
	rng := rand.New(rand.NewSource(1))

	tests := []struct {
		name  string
		count int
		want  int
	}{
		{name: "subset", count: 4, want: 4},
		{name: "count above available clamps", count: 25, want: 10},
		{name: "zero means all", count: 0, want: 10},
		{name: "negative means all", count: -3, want: 10},
		{name: "exact size", count: 10, want: 10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := sampleQuestions(rng, questions, tc.count)
			if len(got) != tc.want {
				t.Errorf("len = %d, want %d", len(got), tc.want)
			}
		})
	}
}

func TestSampleQuestionsSeededDeterminism(t *testing.T) {
	questions := takerQuestions(8)

	first := sampleQuestions(rand.New(rand.NewSource(42)), questions, 5)
	second := sampleQuestions(rand.New(rand.NewSource(42)), questions, 5)

	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("index %d differs between identically seeded samples: %s vs %s",
				i, first[i].ID, second[i].ID)
		}
	}
}

func TestSampleQuestionsNoDuplicates(t *testing.T) {
	questions := takerQuestions(20)
	got := sampleQuestions(rand.New(rand.NewSource(7)), questions, 20)

	seen := make(map[uuid.UUID]bool, len(got))
	for _, q := range got {
		if seen[q.ID] {
			t.Fatalf("question %s sampled twice", q.ID)
		}
		seen[q.ID] = true
	}
}

func TestSampleQuestionsDoesNotMutateInput(t *testing.T) {
	questions := takerQuestions(6)
	original := make([]model.QuestionForTaker, len(questions))
	copy(original, questions)

	sampleQuestions(rand.New(rand.NewSource(3)), questions, 3)

	for i := range questions {
		if questions[i].ID != original[i].ID {
			t.Fatalf("input slice mutated at index %d", i)
		}
	}
}
