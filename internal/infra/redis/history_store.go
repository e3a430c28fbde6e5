package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"snapquiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// HistoryStore keeps session result records in Redis:
//   - record JSON at  history:record:{id}
//   - per-user index  history:user:{userID}  (set of record IDs)
//
// Save is idempotent per record ID via SETNX, so a completion event replayed
// against the same session cannot produce a second record. Records older than
// the configured TTL expire; the index tolerates dangling IDs.
type HistoryStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewHistoryStore(client *redis.Client, ttl time.Duration) *HistoryStore {
	return &HistoryStore{client: client, ttl: ttl}
}

func (s *HistoryStore) Save(ctx context.Context, rec domain.HistoryRecord) (string, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshal history record: %w", err)
	}

	set, err := s.client.SetNX(ctx, s.recordKey(rec.ID), data, s.ttl).Result()
	if err != nil {
		return "", fmt.Errorf("store history record: %w", err)
	}
	if !set {
		// Already persisted for this session.
		return rec.ID, nil
	}

	userKey := s.userKey(rec.UserID)
	if err := s.client.SAdd(ctx, userKey, rec.ID).Err(); err != nil {
		return "", fmt.Errorf("index history record: %w", err)
	}
	if s.ttl > 0 {
		_ = s.client.Expire(ctx, userKey, s.ttl).Err()
	}
	return rec.ID, nil
}

func (s *HistoryStore) ListForUser(ctx context.Context, userID string) ([]domain.HistoryRecord, error) {
	ids, err := s.client.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list history index: %w", err)
	}
	records := make([]domain.HistoryRecord, 0, len(ids))
	for _, id := range ids {
		data, err := s.client.Get(ctx, s.recordKey(id)).Bytes()
		if err == redis.Nil {
			// Record expired; drop the dangling index entry.
			_ = s.client.SRem(ctx, s.userKey(userID), id).Err()
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load history record %s: %w", id, err)
		}
		var rec domain.HistoryRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("unmarshal history record %s: %w", id, err)
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

func (s *HistoryStore) Delete(ctx context.Context, id string) error {
	data, err := s.client.Get(ctx, s.recordKey(id)).Bytes()
	if err == redis.Nil {
		return domain.ErrRecordNotFound
	}
	if err != nil {
		return fmt.Errorf("load history record %s: %w", id, err)
	}
	var rec domain.HistoryRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("unmarshal history record %s: %w", id, err)
	}
	if err := s.client.Del(ctx, s.recordKey(id)).Err(); err != nil {
		return fmt.Errorf("delete history record %s: %w", id, err)
	}
	return s.client.SRem(ctx, s.userKey(rec.UserID), id).Err()
}

func (s *HistoryStore) DeleteAllForUser(ctx context.Context, userID string) (int, error) {
	userKey := s.userKey(userID)
	ids, err := s.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return 0, fmt.Errorf("list history index: %w", err)
	}
	count := 0
	for _, id := range ids {
		deleted, err := s.client.Del(ctx, s.recordKey(id)).Result()
		if err != nil {
			return count, fmt.Errorf("delete history record %s: %w", id, err)
		}
		count += int(deleted)
	}
	if err := s.client.Del(ctx, userKey).Err(); err != nil {
		return count, fmt.Errorf("delete history index: %w", err)
	}
	return count, nil
}

func (s *HistoryStore) recordKey(id string) string {
	return "history:record:" + id
}

// userKey buckets anonymous sessions together so unauthenticated history is
// still kept, just unscoped.
func (s *HistoryStore) userKey(userID string) string {
	if userID == "" {
		userID = "anonymous"
	}
	return "history:user:" + userID
}
