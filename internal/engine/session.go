package engine

import (
	"time"

	"snapquiz-service/internal/domain"
	"github.com/google/uuid"
)

// session is one live run over a question set. All fields are owned by the
// Controller and mutated only under its lock.
type session struct {
	id               string
	startedAt        time.Time
	timeLimitMinutes int
	ledger           *Ledger
	timer            *Timer
	saved            bool
	// record is frozen at completion; exports and shares read this snapshot,
	// never the live clock.
	record *domain.HistoryRecord
}

func newSession(now time.Time, limitMinutes int) *session {
	return &session{
		id:               uuid.NewString(),
		startedAt:        now,
		timeLimitMinutes: limitMinutes,
		ledger:           NewLedger(),
		timer:            NewTimer(limitMinutes),
	}
}

// elapsedSeconds returns whole seconds since the session started.
func (s *session) elapsedSeconds(now time.Time) int {
	elapsed := int(now.Sub(s.startedAt).Seconds())
	if elapsed < 0 {
		return 0
	}
	return elapsed
}
