package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"snapquiz-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// HistoryStore persists session result records in Postgres. Question and
// answer snapshots are stored as JSONB; Save relies on ON CONFLICT DO NOTHING
// for idempotency per session ID.
type HistoryStore struct {
	pool *pgxpool.Pool
}

func NewHistoryStore(pool *pgxpool.Pool) *HistoryStore {
	return &HistoryStore{pool: pool}
}

func (s *HistoryStore) Save(ctx context.Context, rec domain.HistoryRecord) (string, error) {
	questions, err := json.Marshal(rec.Questions)
	if err != nil {
		return "", fmt.Errorf("marshal questions: %w", err)
	}
	answers, err := json.Marshal(rec.UserAnswers)
	if err != nil {
		return "", fmt.Errorf("marshal answers: %w", err)
	}

	_, err = s.pool.Exec(ctx, `INSERT INTO history_records
		(id, user_id, title, question_count, correct_count, total_questions, time_taken_seconds, questions, user_answers, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (id) DO NOTHING`,
		rec.ID, rec.UserID, rec.Title, rec.QuestionCount, rec.CorrectCount,
		rec.TotalQuestions, rec.TimeTakenSeconds, questions, answers, rec.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("save history record: %w", err)
	}
	return rec.ID, nil
}

func (s *HistoryStore) ListForUser(ctx context.Context, userID string) ([]domain.HistoryRecord, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, user_id, title, question_count, correct_count,
		total_questions, time_taken_seconds, questions, user_answers, created_at
		FROM history_records WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var records []domain.HistoryRecord
	for rows.Next() {
		var rec domain.HistoryRecord
		var questions, answers []byte
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Title, &rec.QuestionCount, &rec.CorrectCount,
			&rec.TotalQuestions, &rec.TimeTakenSeconds, &questions, &answers, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history record: %w", err)
		}
		if len(questions) > 0 {
			if err := json.Unmarshal(questions, &rec.Questions); err != nil {
				return nil, fmt.Errorf("unmarshal questions: %w", err)
			}
		}
		if len(answers) > 0 {
			if err := json.Unmarshal(answers, &rec.UserAnswers); err != nil {
				return nil, fmt.Errorf("unmarshal answers: %w", err)
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *HistoryStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM history_records WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete history record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

func (s *HistoryStore) DeleteAllForUser(ctx context.Context, userID string) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM history_records WHERE user_id=$1`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete user history: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
