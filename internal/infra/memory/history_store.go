// Package memory holds in-process store implementations, used when neither
// Redis nor Postgres is configured and as test doubles.
package memory

import (
	"context"
	"sort"
	"sync"

	"snapquiz-service/internal/domain"
)

// HistoryStore is an in-memory implementation of engine.HistoryGateway.
type HistoryStore struct {
	mu      sync.RWMutex
	records map[string]domain.HistoryRecord
}

func NewHistoryStore() *HistoryStore {
	return &HistoryStore{
		records: make(map[string]domain.HistoryRecord),
	}
}

// Save stores a record once per ID; a repeated save of the same session is a
// no-op returning the existing ID.
func (s *HistoryStore) Save(_ context.Context, rec domain.HistoryRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.ID]; ok {
		return rec.ID, nil
	}
	s.records[rec.ID] = cloneRecord(rec)
	return rec.ID, nil
}

// ListForUser returns the user's records, newest first. An empty userID lists
// anonymous records.
func (s *HistoryStore) ListForUser(_ context.Context, userID string) ([]domain.HistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]domain.HistoryRecord, 0)
	for _, rec := range s.records {
		if rec.UserID == userID {
			records = append(records, cloneRecord(rec))
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

func (s *HistoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return domain.ErrRecordNotFound
	}
	delete(s.records, id)
	return nil
}

func (s *HistoryStore) DeleteAllForUser(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for id, rec := range s.records {
		if rec.UserID == userID {
			delete(s.records, id)
			count++
		}
	}
	return count, nil
}

// cloneRecord copies the slices and maps so stored records stay immutable.
func cloneRecord(rec domain.HistoryRecord) domain.HistoryRecord {
	clone := rec
	if rec.Questions != nil {
		clone.Questions = make(domain.QuestionSet, len(rec.Questions))
		copy(clone.Questions, rec.Questions)
	}
	if rec.UserAnswers != nil {
		clone.UserAnswers = make(map[int]string, len(rec.UserAnswers))
		for i, opt := range rec.UserAnswers {
			clone.UserAnswers[i] = opt
		}
	}
	return clone
}
