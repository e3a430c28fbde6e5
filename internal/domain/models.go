package domain

import "time"

// Difficulty labels a generated question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// OptionKeys is the fixed option layout of a generated MCQ.
var OptionKeys = []string{"A", "B", "C", "D"}

// Question models an MCQ with exactly one correct option among "A".."D".
// JSON field names match the generation service wire format.
type Question struct {
	Text       string            `json:"question"`
	Options    map[string]string `json:"options"`
	Answer     string            `json:"answer"`
	Difficulty Difficulty        `json:"difficulty"`
}

// QuestionSet is the ordered, index-addressed sequence of questions for one
// session. A set is never mutated in place; a new set replaces the old one.
type QuestionSet []Question

// Score is the derived result of a session at any point in time.
// Percentage is computed against the answered count, not the total question
// count, which matters for in-progress display and for time-expired sessions.
type Score struct {
	Correct    int     `json:"correct"`
	Wrong      int     `json:"wrong"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// HistoryRecord is the persisted, immutable snapshot of a completed session.
type HistoryRecord struct {
	ID               string         `json:"id"`
	UserID           string         `json:"userId,omitempty"`
	Title            string         `json:"title"`
	CreatedAt        time.Time      `json:"createdAt"`
	QuestionCount    int            `json:"questionCount"`
	CorrectCount     int            `json:"correctCount"`
	TotalQuestions   int            `json:"totalQuestions"`
	TimeTakenSeconds int            `json:"timeTakenSeconds"`
	Questions        QuestionSet    `json:"questions,omitempty"`
	UserAnswers      map[int]string `json:"userAnswers,omitempty"`
}
