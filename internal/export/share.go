package export

import (
	"math"
	"time"

	"github.com/google/uuid"

	"snapquiz-service/internal/domain"
)

// shareTTL matches the 30 day expiry of stored share links.
const shareTTL = 30 * 24 * time.Hour

// Summary is the shareable, read-only view of a finished session. It carries
// only aggregates; the answer key is never exposed to viewers.
//
// Share percentages are computed against the full question count, unlike the
// in-session score, which divides by the answered count.
type Summary struct {
	ShareID          string    `json:"shareId"`
	Title            string    `json:"title"`
	Username         string    `json:"username"`
	Percentage       float64   `json:"percentage"`
	TotalQuestions   int       `json:"totalQuestions"`
	TimeTakenSeconds int       `json:"timeTakenSeconds"`
	CreatedAt        time.Time `json:"createdAt"`
	ExpiresAt        time.Time `json:"expiresAt"`
}

// Summarize builds a share summary for a history record.
func Summarize(rec domain.HistoryRecord, username string, now time.Time) Summary {
	total := rec.TotalQuestions
	if total < 1 {
		total = 1
	}
	return Summary{
		ShareID:          uuid.NewString(),
		Title:            rec.Title,
		Username:         username,
		Percentage:       math.Round(float64(rec.CorrectCount)/float64(total)*1000) / 10,
		TotalQuestions:   rec.TotalQuestions,
		TimeTakenSeconds: rec.TimeTakenSeconds,
		CreatedAt:        rec.CreatedAt,
		ExpiresAt:        now.Add(shareTTL),
	}
}
