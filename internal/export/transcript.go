// Package export builds read-only artifacts from a finished session: a plain
// text results transcript and a shareable score summary. Nothing here mutates
// session state.
package export

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"snapquiz-service/internal/domain"
)

const notAnswered = "Not answered"

// Transcript renders a downloadable plain-text record of a completed session:
// every question with its options, the user's answer marked against the key,
// and the final score.
func Transcript(rec domain.HistoryRecord, username string, score domain.Score, at time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Quiz Results - %s\n", rec.Title)
	fmt.Fprintf(&b, "Score: %d/%d (%.1f%%)\n\n", score.Correct, score.Total, score.Percentage)

	for index, q := range rec.Questions {
		userAnswer, answered := rec.UserAnswers[index]
		display := userAnswer
		if !answered {
			display = notAnswered
		}
		correct := answered && userAnswer == q.Answer

		fmt.Fprintf(&b, "Question %d: %s\n", index+1, q.Text)
		for _, key := range optionKeys(q.Options) {
			prefix := "  "
			switch {
			case key == q.Answer:
				prefix = "✓ "
			case key == userAnswer && !correct:
				prefix = "✗ "
			}
			fmt.Fprintf(&b, "%s%s. %s\n", prefix, key, q.Options[key])
		}
		fmt.Fprintf(&b, "Your answer: %s\n", display)
		fmt.Fprintf(&b, "Correct answer: %s\n", q.Answer)
		if correct {
			b.WriteString("Result: Correct\n\n")
		} else {
			b.WriteString("Result: Wrong\n\n")
		}
	}

	fmt.Fprintf(&b, "Generated by SnapQuiz • %s UTC\n", at.UTC().Format("2006-01-02 15:04:05"))
	if username != "" {
		fmt.Fprintf(&b, "User: %s\n", username)
	}
	return b.String()
}

func optionKeys(options map[string]string) []string {
	keys := make([]string, 0, len(options))
	for key := range options {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
