package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/proctorhq/examgate-backend/internal/model"
)

// ExamResultRepository handles exam result data access. Results are written
// once inside the submit transaction and never mutated.
type ExamResultRepository struct {
	pool *pgxpool.Pool
}

// NewExamResultRepository creates a new ExamResultRepository.
func NewExamResultRepository(pool *pgxpool.Pool) *ExamResultRepository {
	return &ExamResultRepository{pool: pool}
}

const resultColumns = `id, session_id, user_id, exam_id, score, correct_answers, total_questions, time_taken_seconds, passed, completed_at`

// CreateTx inserts a result within the submit transaction. The unique
// constraint on session_id backs the exactly-once guarantee at the store.
func (r *ExamResultRepository) CreateTx(ctx context.Context, tx pgx.Tx, res *model.ExamResult) error {
	return tx.QueryRow(ctx,
		`INSERT INTO exam_results (session_id, user_id, exam_id, score, correct_answers, total_questions, time_taken_seconds, passed)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, completed_at`,
		res.SessionID, res.UserID, res.ExamID, res.Score, res.CorrectAnswers,
		res.TotalQuestions, res.TimeTakenSeconds, res.Passed,
	).Scan(&res.ID, &res.CompletedAt)
}

// GetByID retrieves a result by primary key.
func (r *ExamResultRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ExamResult, error) {
	res := &model.ExamResult{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+resultColumns+` FROM exam_results WHERE id = $1`, id,
	).Scan(&res.ID, &res.SessionID, &res.UserID, &res.ExamID, &res.Score, &res.CorrectAnswers,
		&res.TotalQuestions, &res.TimeTakenSeconds, &res.Passed, &res.CompletedAt)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ListByUser retrieves all results for a user, newest first.
func (r *ExamResultRepository) ListByUser(ctx context.Context, userID int) ([]model.ExamResult, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+resultColumns+`
		 FROM exam_results
		 WHERE user_id = $1
		 ORDER BY completed_at DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.ExamResult
	for rows.Next() {
		var res model.ExamResult
		if err := rows.Scan(&res.ID, &res.SessionID, &res.UserID, &res.ExamID, &res.Score, &res.CorrectAnswers,
			&res.TotalQuestions, &res.TimeTakenSeconds, &res.Passed, &res.CompletedAt); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}
