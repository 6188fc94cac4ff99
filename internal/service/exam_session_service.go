package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/proctorhq/examgate-backend/internal/config"
	"github.com/proctorhq/examgate-backend/internal/model"
	"github.com/proctorhq/examgate-backend/internal/repository"
	"github.com/proctorhq/examgate-backend/internal/scoring"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Session lifecycle errors. A session that exists but belongs to someone
// else is reported as not found, so callers cannot probe for existence.
var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrResultNotFound   = errors.New("result not found")
	ErrAlreadyCompleted = errors.New("exam session already completed")
	ErrNoActiveSession  = errors.New("no active session for this exam")
	ErrUnknownQuestion  = errors.New("answers reference questions outside this exam")
)

// ExamSessionService owns the session state machine: start, autosave,
// submit, and result reads.
type ExamSessionService struct {
	pool          *pgxpool.Pool
	sessionRepo   *repository.ExamSessionRepository
	resultRepo    *repository.ExamResultRepository
	examRepo      *repository.ExamRepository
	questionRepo  *repository.QuestionRepository
	rdb           *redis.Client
	log           zerolog.Logger
	passThreshold int
}

// NewExamSessionService creates a new ExamSessionService.
func NewExamSessionService(
	pool *pgxpool.Pool,
	sessionRepo *repository.ExamSessionRepository,
	resultRepo *repository.ExamResultRepository,
	examRepo *repository.ExamRepository,
	questionRepo *repository.QuestionRepository,
	rdb *redis.Client,
	cfg *config.Config,
	log zerolog.Logger,
) *ExamSessionService {
	return &ExamSessionService{
		pool:          pool,
		sessionRepo:   sessionRepo,
		resultRepo:    resultRepo,
		examRepo:      examRepo,
		questionRepo:  questionRepo,
		rdb:           rdb,
		log:           log.With().Str("component", "exam_session_service").Logger(),
		passThreshold: cfg.PassThreshold,
	}
}

// Start begins an attempt at an exam, or returns the attempt already in
// progress. Idempotent: a page refresh or a retried request gets the same
// session back instead of a duplicate.
func (s *ExamSessionService) Start(ctx context.Context, userID int, examID uuid.UUID) (*model.ExamSession, error) {
	exam, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("get exam: %w", err)
	}
	if !exam.IsActive {
		return nil, ErrExamNotFound
	}

	existing, err := s.sessionRepo.GetActiveByUserAndExam(ctx, userID, examID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("check existing session: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	session := &model.ExamSession{
		UserID:           userID,
		ExamID:           examID,
		TimeRemaining:    exam.DurationSeconds(),
		Answers:          map[string]string{},
		FlaggedQuestions: []string{},
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Lost the race against a concurrent start for the same
			// (user, exam); the winner's session is the session.
			existing, fetchErr := s.sessionRepo.GetActiveByUserAndExam(ctx, userID, examID)
			if fetchErr != nil {
				return nil, fmt.Errorf("concurrent start detected, but fetch failed: %w", fetchErr)
			}
			return existing, nil
		}
		return nil, fmt.Errorf("create session: %w", err)
	}

	return session, nil
}

// VerifyActiveSession checks that the user has a non-completed session for
// the exam. Gate for handing out question papers.
func (s *ExamSessionService) VerifyActiveSession(ctx context.Context, userID int, examID uuid.UUID) error {
	_, err := s.sessionRepo.GetActiveByUserAndExam(ctx, userID, examID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNoActiveSession
		}
		return fmt.Errorf("check active session: %w", err)
	}
	return nil
}

// Autosave applies a partial update to an active session. Provided fields
// fully replace their stored values; absent fields are untouched. The merge
// runs as one conditional UPDATE, so two overlapping autosaves can never
// interleave a stale read with a write, and a failed autosave leaves the
// previously saved state intact. Safe to retry: the same update applied
// twice yields the same stored state.
func (s *ExamSessionService) Autosave(ctx context.Context, sessionID uuid.UUID, userID int, req *model.AutosaveRequest) (*model.ExamSession, error) {
	if req.Answers != nil {
		session, err := s.getOwnedSession(ctx, sessionID, userID)
		if err != nil {
			return nil, err
		}
		if err := s.validateAnswerKeys(ctx, session.ExamID, req.Answers); err != nil {
			return nil, err
		}
	}

	var answers, flagged []byte
	var err error
	if req.Answers != nil {
		if answers, err = json.Marshal(req.Answers); err != nil {
			return nil, fmt.Errorf("encode answers: %w", err)
		}
	}
	if req.FlaggedQuestions != nil {
		if flagged, err = json.Marshal(req.FlaggedQuestions); err != nil {
			return nil, fmt.Errorf("encode flagged questions: %w", err)
		}
	}

	updated, err := s.sessionRepo.UpdateActive(ctx, sessionID, userID, answers, flagged, req.TimeRemaining)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.classifyMiss(ctx, sessionID, userID)
		}
		return nil, fmt.Errorf("update session: %w", err)
	}
	return updated, nil
}

// Submit ends the session and produces its result. The completed flag flip,
// the scoring, and the result insert commit as one transaction: concurrent
// submits race on the conditional UPDATE and exactly one of them creates a
// result; the rest see ErrAlreadyCompleted.
//
// The server does not police the exam clock here. A submit arriving after
// the client timer expired is scored with whatever remaining time was last
// autosaved, matching the client-driven timeout contract.
func (s *ExamSessionService) Submit(ctx context.Context, sessionID uuid.UUID, userID int) (*model.ExamResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin submit: %w", err)
	}
	defer tx.Rollback(ctx)

	session, err := s.sessionRepo.CompleteTx(ctx, tx, sessionID, userID, time.Now())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.classifyMiss(ctx, sessionID, userID)
		}
		return nil, fmt.Errorf("complete session: %w", err)
	}

	exam, err := s.examRepo.GetByID(ctx, session.ExamID)
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}
	questions, err := s.questionRepo.ListByExam(ctx, session.ExamID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	summary, err := scoring.Score(scoring.Input{
		Answers:          session.Answers,
		Questions:        questions,
		DurationSeconds:  exam.DurationSeconds(),
		RemainingSeconds: session.TimeRemaining,
		PassThreshold:    s.passThreshold,
	})
	if err != nil {
		// Rolls back the completion: a zero-question exam must not leave
		// the session terminal without a result.
		return nil, err
	}

	result := &model.ExamResult{
		SessionID:        session.ID,
		UserID:           session.UserID,
		ExamID:           session.ExamID,
		Score:            summary.Score,
		CorrectAnswers:   summary.CorrectAnswers,
		TotalQuestions:   summary.TotalQuestions,
		TimeTakenSeconds: summary.TimeTakenSeconds,
		Passed:           summary.Passed,
	}
	if err := s.resultRepo.CreateTx(ctx, tx, result); err != nil {
		return nil, fmt.Errorf("create result: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit submit: %w", err)
	}

	s.publishSubmission(ctx, result)

	return result, nil
}

// Result retrieves a result owned by userID.
func (s *ExamSessionService) Result(ctx context.Context, resultID uuid.UUID, userID int) (*model.ExamResult, error) {
	result, err := s.resultRepo.GetByID(ctx, resultID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("get result: %w", err)
	}
	if result.UserID != userID {
		return nil, ErrResultNotFound
	}
	return result, nil
}

// ListResults retrieves all of the user's results, newest first.
func (s *ExamSessionService) ListResults(ctx context.Context, userID int) ([]model.ExamResult, error) {
	return s.resultRepo.ListByUser(ctx, userID)
}

// getOwnedSession loads a session and masks foreign ownership as not found.
func (s *ExamSessionService) getOwnedSession(ctx context.Context, sessionID uuid.UUID, userID int) (*model.ExamSession, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session.UserID != userID {
		return nil, ErrSessionNotFound
	}
	if session.IsCompleted {
		return nil, ErrAlreadyCompleted
	}
	return session, nil
}

// classifyMiss explains why a conditional session mutation matched nothing:
// the session is finished, or it effectively does not exist for this caller.
func (s *ExamSessionService) classifyMiss(ctx context.Context, sessionID uuid.UUID, userID int) error {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("get session: %w", err)
	}
	if session.UserID != userID {
		return ErrSessionNotFound
	}
	if session.IsCompleted {
		return ErrAlreadyCompleted
	}
	return ErrSessionNotFound
}

// validateAnswerKeys rejects answer maps that reference questions outside
// the session's exam.
func (s *ExamSessionService) validateAnswerKeys(ctx context.Context, examID uuid.UUID, answers map[string]string) error {
	if len(answers) == 0 {
		return nil
	}
	ids, err := s.questionRepo.ListIDsByExam(ctx, examID)
	if err != nil {
		return fmt.Errorf("list question ids: %w", err)
	}
	for questionID := range answers {
		if _, ok := ids[questionID]; !ok {
			return ErrUnknownQuestion
		}
	}
	return nil
}

// submissionEvent is the audit/feed payload emitted after a commit.
type submissionEvent struct {
	SessionID  string    `json:"session_id"`
	UserID     int       `json:"user_id"`
	ExamID     string    `json:"exam_id"`
	Score      int       `json:"score"`
	Passed     bool      `json:"passed"`
	OccurredAt time.Time `json:"occurred_at"`
}

// publishSubmission queues the submission for the audit worker and fans it
// out on the exam's live feed channel. Best effort: the result is already
// durable, so failures are logged and dropped.
func (s *ExamSessionService) publishSubmission(ctx context.Context, result *model.ExamResult) {
	event := submissionEvent{
		SessionID:  result.SessionID.String(),
		UserID:     result.UserID,
		ExamID:     result.ExamID.String(),
		Score:      result.Score,
		Passed:     result.Passed,
		OccurredAt: result.CompletedAt,
	}

	raw, err := json.Marshal(event)
	if err != nil {
		s.log.Error().Err(err).Msg("Encode submission event failed")
		return
	}

	if err := s.rdb.RPush(ctx, config.WorkerKey.SubmissionEventsQueue, raw).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Queue submission event failed")
	}
	if err := s.rdb.Publish(ctx, config.CacheKey.ExamFeedChannel(event.ExamID), raw).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Publish submission event failed")
	}
}
