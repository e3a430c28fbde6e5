package export

import (
	"strings"
	"testing"
	"time"

	"snapquiz-service/internal/domain"
)

func sampleRecord() domain.HistoryRecord {
	return domain.HistoryRecord{
		ID:        "rec-1",
		Title:     "chapter1.pdf",
		CreatedAt: time.Date(2025, 7, 3, 10, 31, 40, 0, time.UTC),
		Questions: domain.QuestionSet{
			{
				Text:       "What is 2 + 2?",
				Options:    map[string]string{"A": "3", "B": "4", "C": "5", "D": "6"},
				Answer:     "B",
				Difficulty: domain.DifficultyEasy,
			},
			{
				Text:       "What is 3 + 3?",
				Options:    map[string]string{"A": "6", "B": "5", "C": "7", "D": "8"},
				Answer:     "A",
				Difficulty: domain.DifficultyMedium,
			},
		},
		UserAnswers:      map[int]string{0: "B", 1: "C"},
		QuestionCount:    2,
		CorrectCount:     1,
		TotalQuestions:   2,
		TimeTakenSeconds: 95,
	}
}

func TestTranscriptContents(t *testing.T) {
	rec := sampleRecord()
	score := domain.Score{Correct: 1, Wrong: 1, Total: 2, Percentage: 50.0}
	at := time.Date(2025, 7, 3, 10, 31, 40, 0, time.UTC)

	text := Transcript(rec, "alice", score, at)

	for _, want := range []string{
		"Quiz Results - chapter1.pdf",
		"Score: 1/2 (50.0%)",
		"Question 1: What is 2 + 2?",
		"✓ B. 4",
		"Your answer: B",
		"Result: Correct",
		"✗ C. 7",
		"Result: Wrong",
		"Generated by SnapQuiz • 2025-07-03 10:31:40 UTC",
		"User: alice",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("transcript missing %q:\n%s", want, text)
		}
	}
}

func TestTranscriptMarksUnanswered(t *testing.T) {
	rec := sampleRecord()
	rec.UserAnswers = map[int]string{}
	score := domain.Score{Total: 2}

	text := Transcript(rec, "", score, time.Now())
	if !strings.Contains(text, "Your answer: Not answered") {
		t.Fatalf("expected unanswered marker:\n%s", text)
	}
}

func TestSummarize(t *testing.T) {
	rec := sampleRecord()
	now := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	summary := Summarize(rec, "alice", now)

	if summary.ShareID == "" {
		t.Fatalf("expected a share id")
	}
	if summary.Percentage != 50.0 {
		t.Fatalf("expected 50.0%%, got %v", summary.Percentage)
	}
	if summary.TotalQuestions != 2 || summary.TimeTakenSeconds != 95 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if want := now.Add(30 * 24 * time.Hour); !summary.ExpiresAt.Equal(want) {
		t.Fatalf("expected expiry %v, got %v", want, summary.ExpiresAt)
	}
}

func TestSummarizeGuardsZeroTotal(t *testing.T) {
	summary := Summarize(domain.HistoryRecord{CorrectCount: 0, TotalQuestions: 0}, "", time.Now())
	if summary.Percentage != 0.0 {
		t.Fatalf("expected 0.0%%, got %v", summary.Percentage)
	}
}
