package engine

import (
	"math/rand"
	"testing"

	"snapquiz-service/internal/domain"
)

func TestSynthesizeQuestionsShape(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	set := SynthesizeQuestions(rnd, "intro.pdf", 7)

	if len(set) != 7 {
		t.Fatalf("expected 7 questions, got %d", len(set))
	}
	for i, q := range set {
		if q.Text == "" {
			t.Fatalf("question %d has empty text", i)
		}
		if len(q.Options) != 4 {
			t.Fatalf("question %d has %d options, want 4", i, len(q.Options))
		}
		if _, ok := q.Options[q.Answer]; !ok {
			t.Fatalf("question %d answer %q not among options", i, q.Answer)
		}
		switch q.Difficulty {
		case domain.DifficultyEasy, domain.DifficultyMedium, domain.DifficultyHard:
		default:
			t.Fatalf("question %d has invalid difficulty %q", i, q.Difficulty)
		}
	}
}

func TestSynthesizeQuestionsFloorsCount(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	if got := len(SynthesizeQuestions(rnd, "", 0)); got != 1 {
		t.Fatalf("expected at least one question, got %d", got)
	}
}
