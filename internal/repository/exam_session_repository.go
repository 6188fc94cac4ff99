package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/proctorhq/examgate-backend/internal/model"
)

// ExamSessionRepository handles exam session data access. All mutations are
// single conditional statements so concurrent requests for the same session
// cannot interleave a stale read with a write.
type ExamSessionRepository struct {
	pool *pgxpool.Pool
}

// NewExamSessionRepository creates a new ExamSessionRepository.
func NewExamSessionRepository(pool *pgxpool.Pool) *ExamSessionRepository {
	return &ExamSessionRepository{pool: pool}
}

const sessionColumns = `id, user_id, exam_id, started_at, submitted_at, time_remaining, answers, flagged_questions, is_completed`

type sessionRow interface {
	Scan(dest ...any) error
}

func scanSession(row sessionRow) (*model.ExamSession, error) {
	s := &model.ExamSession{}
	var answers, flagged []byte
	err := row.Scan(&s.ID, &s.UserID, &s.ExamID, &s.StartedAt, &s.SubmittedAt,
		&s.TimeRemaining, &answers, &flagged, &s.IsCompleted)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(answers, &s.Answers); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	if err := json.Unmarshal(flagged, &s.FlaggedQuestions); err != nil {
		return nil, fmt.Errorf("decode flagged questions: %w", err)
	}
	return s, nil
}

// GetByID retrieves a session by primary key.
func (r *ExamSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ExamSession, error) {
	return scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM exam_sessions WHERE id = $1`, id))
}

// GetActiveByUserAndExam retrieves the single non-completed session for a
// (user, exam) pair, if one exists.
func (r *ExamSessionRepository) GetActiveByUserAndExam(ctx context.Context, userID int, examID uuid.UUID) (*model.ExamSession, error) {
	return scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+`
		 FROM exam_sessions
		 WHERE user_id = $1 AND exam_id = $2 AND NOT is_completed`, userID, examID))
}

// Create inserts a new session. The partial unique index on
// (user_id, exam_id) WHERE NOT is_completed makes the uniqueness check and
// the insert one atomic unit: if a concurrent request already created an
// active session, ON CONFLICT DO NOTHING suppresses the insert and the
// RETURNING clause yields pgx.ErrNoRows.
func (r *ExamSessionRepository) Create(ctx context.Context, s *model.ExamSession) error {
	answers, err := json.Marshal(s.Answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}
	flagged, err := json.Marshal(s.FlaggedQuestions)
	if err != nil {
		return fmt.Errorf("encode flagged questions: %w", err)
	}

	return r.pool.QueryRow(ctx,
		`INSERT INTO exam_sessions (user_id, exam_id, time_remaining, answers, flagged_questions)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id, exam_id) WHERE NOT is_completed DO NOTHING
		 RETURNING id, started_at`,
		s.UserID, s.ExamID, s.TimeRemaining, answers, flagged,
	).Scan(&s.ID, &s.StartedAt)
}

// UpdateActive applies a partial update to an active session owned by
// userID. Nil arguments keep the stored value (COALESCE); non-nil arguments
// fully replace it. The WHERE clause refuses completed sessions and foreign
// sessions alike, so the merge happens in one statement against current
// stored state. Returns pgx.ErrNoRows when nothing matched.
func (r *ExamSessionRepository) UpdateActive(ctx context.Context, id uuid.UUID, userID int, answers, flagged []byte, timeRemaining *int) (*model.ExamSession, error) {
	return scanSession(r.pool.QueryRow(ctx,
		`UPDATE exam_sessions
		 SET answers           = COALESCE($3, answers),
		     flagged_questions = COALESCE($4, flagged_questions),
		     time_remaining    = COALESCE($5, time_remaining)
		 WHERE id = $1 AND user_id = $2 AND NOT is_completed
		 RETURNING `+sessionColumns,
		id, userID, answers, flagged, timeRemaining))
}

// CompleteTx flips the session to completed within tx. The conditional
// UPDATE is a compare-and-swap on is_completed: exactly one caller observes
// the false→true transition, every other caller gets pgx.ErrNoRows. The
// returned session carries the final answers and frozen time_remaining.
func (r *ExamSessionRepository) CompleteTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, userID int, submittedAt time.Time) (*model.ExamSession, error) {
	return scanSession(tx.QueryRow(ctx,
		`UPDATE exam_sessions
		 SET is_completed = TRUE, submitted_at = $3
		 WHERE id = $1 AND user_id = $2 AND NOT is_completed
		 RETURNING `+sessionColumns,
		id, userID, submittedAt))
}
