package engine

import (
	"math"

	"snapquiz-service/internal/domain"
)

// ScoreAnswers derives the score for a set of answers against a question set.
// Pure function: it holds no state beyond its inputs.
//
// The percentage denominator is the answered count, floored at one to guard
// against division by zero, while Total reports the full question count. A
// time-expired session with a partial ledger is therefore scored against what
// was actually answered.
func ScoreAnswers(set domain.QuestionSet, answers map[int]string) domain.Score {
	correct := 0
	for index, option := range answers {
		if index >= 0 && index < len(set) && set[index].Answer == option {
			correct++
		}
	}
	answered := len(answers)
	denominator := answered
	if denominator < 1 {
		denominator = 1
	}
	return domain.Score{
		Correct:    correct,
		Wrong:      answered - correct,
		Total:      len(set),
		Percentage: roundPercent(float64(correct) / float64(denominator) * 100),
	}
}

// roundPercent rounds to one decimal place.
func roundPercent(v float64) float64 {
	return math.Round(v*10) / 10
}
