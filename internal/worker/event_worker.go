package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/proctorhq/examgate-backend/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// EventWorker consumes submission_events_queue and appends events to the
// exam_events audit table. The submit path only queues; durability of the
// result itself never depends on this worker.
type EventWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
	done chan struct{}
}

// NewEventWorker creates a new EventWorker.
func NewEventWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *EventWorker {
	return &EventWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "event_worker").Logger(),
		done: make(chan struct{}),
	}
}

// Done is closed once the worker has stopped and finished draining. Shutdown
// waits on it instead of guessing how long the drain takes.
func (w *EventWorker) Done() <-chan struct{} {
	return w.done
}

type submissionEvent struct {
	SessionID  string    `json:"session_id"`
	UserID     int       `json:"user_id"`
	ExamID     string    `json:"exam_id"`
	Score      int       `json:"score"`
	Passed     bool      `json:"passed"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Start begins the worker loop. Call in a goroutine.
func (w *EventWorker) Start(ctx context.Context) {
	defer close(w.done)
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			// Drain remaining items before exit.
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *EventWorker) processNext(ctx context.Context) {
	// BLPop blocks until an item is available or timeout (1 second).
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.SubmissionEventsQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}

	if len(result) < 2 {
		return
	}

	var event submissionEvent
	if err := json.Unmarshal([]byte(result[1]), &event); err != nil {
		w.log.Error().Err(err).Msg("Invalid event payload")
		return
	}

	if err := w.persistEvent(ctx, &event); err != nil {
		w.log.Error().Err(err).
			Str("session_id", event.SessionID).
			Msg("Persist error, retrying in 5s")
		// Push back to queue for retry.
		w.rdb.RPush(ctx, config.WorkerKey.SubmissionEventsQueue, result[1])
		sleepCtx(ctx, 5*time.Second)
	}
}

// sleepCtx waits for d or until ctx is cancelled, whichever comes first, so
// a retry backoff never delays shutdown.
func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (w *EventWorker) persistEvent(ctx context.Context, e *submissionEvent) error {
	sessionID, err := uuid.Parse(e.SessionID)
	if err != nil {
		return err
	}
	examID, err := uuid.Parse(e.ExamID)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}

	// Idempotent under retry: one audit row per submitted session.
	_, err = w.pool.Exec(ctx,
		`INSERT INTO exam_events (session_id, user_id, exam_id, event_type, payload, occurred_at)
		 VALUES ($1, $2, $3, 'SESSION_SUBMITTED', $4, $5)
		 ON CONFLICT (session_id, event_type) DO NOTHING`,
		sessionID, e.UserID, examID, payload, e.OccurredAt,
	)
	return err
}

// drain processes all remaining items in the queue before shutdown.
func (w *EventWorker) drain(ctx context.Context) {
	drained := 0
	for {
		result, err := w.rdb.LPop(ctx, config.WorkerKey.SubmissionEventsQueue).Result()
		if err != nil {
			break
		}

		var event submissionEvent
		if err := json.Unmarshal([]byte(result), &event); err != nil {
			w.log.Error().Err(err).Msg("Drain unmarshal error")
			continue
		}

		if err := w.persistEvent(ctx, &event); err != nil {
			w.log.Error().Err(err).Msg("Drain persist error")
			w.rdb.RPush(ctx, config.WorkerKey.SubmissionEventsQueue, result)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
