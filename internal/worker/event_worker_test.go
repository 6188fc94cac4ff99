package worker

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func TestSleepCtxReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	sleepCtx(ctx, 5*time.Second)
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("sleepCtx took %v after cancel, want prompt return", elapsed)
	}
}

func TestSleepCtxWaitsFullDuration(t *testing.T) {
	start := time.Now()
	sleepCtx(context.Background(), 30*time.Millisecond)
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Fatalf("sleepCtx returned after %v, want at least 30ms", elapsed)
	}
}

func TestDoneClosesAfterCancel(t *testing.T) {
	// Unreachable Redis: every BLPop fails immediately, the loop keeps
	// spinning, and cancellation must still close Done once the drain
	// attempt gives up.
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		ReadTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	w := NewEventWorker(nil, rdb, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	go w.Start(ctx)

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-w.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("Done not closed after cancel")
	}
}
