package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/proctorhq/examgate-backend/internal/config"
	"github.com/proctorhq/examgate-backend/internal/model"
	"github.com/proctorhq/examgate-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ErrExamNotFound covers both a missing exam and an inactive one; takers
// cannot tell the difference.
var ErrExamNotFound = errors.New("exam not found")

// ExamService handles exam catalog reads and per-call question selection.
type ExamService struct {
	examRepo     *repository.ExamRepository
	questionRepo *repository.QuestionRepository
	rdb          *redis.Client
	log          zerolog.Logger
	cfg          *config.Config

	// rng drives question sampling. Injected so tests can seed it;
	// guarded because *rand.Rand is not safe for concurrent use.
	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewExamService creates a new ExamService.
func NewExamService(
	examRepo *repository.ExamRepository,
	questionRepo *repository.QuestionRepository,
	rdb *redis.Client,
	cfg *config.Config,
	log zerolog.Logger,
	rng *rand.Rand,
) *ExamService {
	return &ExamService{
		examRepo:     examRepo,
		questionRepo: questionRepo,
		rdb:          rdb,
		cfg:          cfg,
		log:          log.With().Str("component", "exam_service").Logger(),
		rng:          rng,
	}
}

// ListActive returns all exams currently open for taking.
func (s *ExamService) ListActive(ctx context.Context) ([]model.Exam, error) {
	return s.examRepo.ListActive(ctx)
}

// GetExam returns an active exam by ID. Inactive exams are reported as
// not found.
func (s *ExamService) GetExam(ctx context.Context, examID uuid.UUID) (*model.Exam, error) {
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
	return exam, nil
}

// QuestionsForTaker returns a randomized subset of the exam's sanitized
// questions, sized to the exam's target question count. The sample is drawn
// fresh per call: a page reload may yield a different order and subset,
// which is the documented behavior, not a bug.
func (s *ExamService) QuestionsForTaker(ctx context.Context, examID uuid.UUID) ([]model.QuestionForTaker, error) {
	exam, err := s.GetExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	questions, err := s.sanitizedQuestions(ctx, examID)
	if err != nil {
		return nil, err
	}

	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return sampleQuestions(s.rng, questions, exam.QuestionCount), nil
}

// sampleQuestions draws a without-replacement sample of size
// min(count, len(questions)). A count of zero or less means "all questions".
// The input slice is never modified.
func sampleQuestions(rng *rand.Rand, questions []model.QuestionForTaker, count int) []model.QuestionForTaker {
	shuffled := make([]model.QuestionForTaker, len(questions))
	copy(shuffled, questions)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	if count <= 0 || count > len(shuffled) {
		return shuffled
	}
	return shuffled[:count]
}

// sanitizedQuestions loads the taker-safe question set, preferring the Redis
// cache. The cache only ever holds sanitized questions, so a cache leak can
// never expose an answer key. Redis trouble degrades to a PostgreSQL read.
func (s *ExamService) sanitizedQuestions(ctx context.Context, examID uuid.UUID) ([]model.QuestionForTaker, error) {
	key := config.CacheKey.ExamQuestionsKey(examID.String())

	cached, err := s.rdb.Get(ctx, key).Result()
	if err == nil {
		var questions []model.QuestionForTaker
		if err := json.Unmarshal([]byte(cached), &questions); err == nil {
			return questions, nil
		}
		s.log.Warn().Str("exam_id", examID.String()).Msg("Corrupt question cache entry, reloading")
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Msg("Question cache read failed, falling back to database")
	}

	full, err := s.questionRepo.ListByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	questions := make([]model.QuestionForTaker, 0, len(full))
	for i := range full {
		questions = append(questions, full[i].Sanitized())
	}

	if raw, err := json.Marshal(questions); err == nil {
		if err := s.rdb.Set(ctx, key, raw, s.cfg.QuestionCacheTTL).Err(); err != nil {
			s.log.Warn().Err(err).Msg("Question cache write failed")
		}
	}

	return questions, nil
}
