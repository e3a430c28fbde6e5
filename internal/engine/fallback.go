package engine

import (
	"fmt"
	"math/rand"

	"snapquiz-service/internal/domain"
)

// Placeholder question vocabulary, cycled per index so a synthesized set still
// reads as distinct questions about the source document.
var (
	synthTopics = []string{"concept", "principle", "theory", "application", "methodology"}

	synthOptionSets = map[string][]string{
		"A": {"fundamental concepts", "key principles", "main theories", "practical applications"},
		"B": {"process", "method", "system", "framework"},
		"C": {"theory", "practice", "research", "development"},
		"D": {"examples", "case studies", "scenarios", "implementations"},
	}

	synthDifficulties = []domain.Difficulty{
		domain.DifficultyEasy,
		domain.DifficultyMedium,
		domain.DifficultyHard,
	}
)

// SynthesizeQuestions builds a placeholder question set of the requested size
// around a document title. Used when the generation service is unavailable or
// a history record carries no question data, so the session can proceed
// instead of failing.
func SynthesizeQuestions(rnd *rand.Rand, title string, count int) domain.QuestionSet {
	if count < 1 {
		count = 1
	}
	if title == "" {
		title = "this document"
	}
	set := make(domain.QuestionSet, 0, count)
	for i := 0; i < count; i++ {
		topic := synthTopics[i%len(synthTopics)]
		set = append(set, domain.Question{
			Text: fmt.Sprintf("Question %d: What does %q tell us about %s?", i+1, title, topic),
			Options: map[string]string{
				"A": fmt.Sprintf("%s explains %s in detail", title, synthOptionSets["A"][i%4]),
				"B": fmt.Sprintf("%s describes the %s", title, synthOptionSets["B"][i%4]),
				"C": fmt.Sprintf("%s focuses on %s", title, synthOptionSets["C"][i%4]),
				"D": fmt.Sprintf("%s illustrates %s", title, synthOptionSets["D"][i%4]),
			},
			Answer:     domain.OptionKeys[rnd.Intn(len(domain.OptionKeys))],
			Difficulty: synthDifficulties[rnd.Intn(len(synthDifficulties))],
		})
	}
	return set
}
