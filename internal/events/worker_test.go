package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"leetlab/internal/models"
	"leetlab/internal/services"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestPublisherWritesEvent(t *testing.T) {
	rdb := newTestRedis(t)
	ctx := context.Background()

	pub := NewPublisher(rdb, Stream)
	pub.SubmissionCompleted(ctx, &models.Submission{
		ID:        11,
		ProblemID: 7,
		Status:    models.StatusAccepted,
	})

	msgs, err := rdb.XRange(ctx, Stream, "-", "+").Result()
	if err != nil {
		t.Fatalf("failed to read stream: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected 1 event, got %d", len(msgs))
	}

	values := msgs[0].Values
	if values["submission_id"] != "11" || values["problem_id"] != "7" || values["status"] != models.StatusAccepted {
		t.Fatalf("unexpected event payload: %v", values)
	}
}

func TestStatsWorkerInvalidatesProblemCache(t *testing.T) {
	rdb := newTestRedis(t)
	ctx := context.Background()
	cache := services.NewRedisCache(rdb)

	// Group must exist before the event so the worker can claim it.
	if err := rdb.XGroupCreateMkStream(ctx, Stream, Group, "$").Err(); err != nil {
		t.Fatalf("failed to create consumer group: %v", err)
	}

	if err := cache.Set(ctx, services.ProblemDetailKey(7), "stale detail", time.Minute); err != nil {
		t.Fatalf("failed to seed cache: %v", err)
	}

	NewPublisher(rdb, Stream).SubmissionCompleted(ctx, &models.Submission{
		ID:        11,
		ProblemID: 7,
		Status:    models.StatusWrongAnswer,
	})

	entries, err := rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    Group,
		Consumer: "test-consumer",
		Streams:  []string{Stream, ">"},
		Count:    1,
	}).Result()
	if err != nil {
		t.Fatalf("failed to read event: %v", err)
	}
	if len(entries) != 1 || len(entries[0].Messages) != 1 {
		t.Fatalf("expected one pending event, got %+v", entries)
	}

	worker := NewStatsWorker("test-consumer", rdb, Stream, Group, cache)
	worker.processEvent(ctx, entries[0].Messages[0])

	var out string
	if err := cache.Get(ctx, services.ProblemDetailKey(7), &out); !errors.Is(err, redis.Nil) {
		t.Fatalf("expected cache entry deleted, got value %q err %v", out, err)
	}

	pending, err := rdb.XPending(ctx, Stream, Group).Result()
	if err != nil {
		t.Fatalf("failed to inspect pending entries: %v", err)
	}
	if pending.Count != 0 {
		t.Fatalf("expected event acknowledged, %d still pending", pending.Count)
	}
}

func TestStatsWorkerIgnoresMalformedEvent(t *testing.T) {
	rdb := newTestRedis(t)
	ctx := context.Background()
	cache := services.NewRedisCache(rdb)

	if err := rdb.XGroupCreateMkStream(ctx, Stream, Group, "$").Err(); err != nil {
		t.Fatalf("failed to create consumer group: %v", err)
	}
	if err := cache.Set(ctx, services.ProblemDetailKey(7), "detail", time.Minute); err != nil {
		t.Fatalf("failed to seed cache: %v", err)
	}

	if err := rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: Stream,
		ID:     "*",
		Values: map[string]interface{}{"problem_id": "not-a-number"},
	}).Err(); err != nil {
		t.Fatalf("failed to add event: %v", err)
	}

	entries, err := rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    Group,
		Consumer: "test-consumer",
		Streams:  []string{Stream, ">"},
		Count:    1,
	}).Result()
	if err != nil {
		t.Fatalf("failed to read event: %v", err)
	}

	worker := NewStatsWorker("test-consumer", rdb, Stream, Group, cache)
	worker.processEvent(ctx, entries[0].Messages[0])

	// A malformed event is dropped without touching the cache.
	var out string
	if err := cache.Get(ctx, services.ProblemDetailKey(7), &out); err != nil {
		t.Fatalf("expected cache entry untouched, got %v", err)
	}
}

func TestStatsWorkerStopsOnContextCancellation(t *testing.T) {
	rdb := newTestRedis(t)
	cache := services.NewRedisCache(rdb)
	ctx, cancel := context.WithCancel(context.Background())

	if err := rdb.XGroupCreateMkStream(ctx, Stream, Group, "$").Err(); err != nil {
		t.Fatalf("failed to create consumer group: %v", err)
	}

	worker := NewStatsWorker("test-consumer", rdb, Stream, Group, cache)
	worker.Start(ctx)

	cancel()

	select {
	case <-worker.done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not exit after context cancellation")
	}
}

func TestWorkerPoolStartIsIdempotentOnExistingGroup(t *testing.T) {
	rdb := newTestRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	cache := services.NewRedisCache(rdb)

	if err := rdb.XGroupCreateMkStream(ctx, Stream, Group, "$").Err(); err != nil {
		t.Fatalf("failed to pre-create group: %v", err)
	}

	pool := NewStatsWorkerPool(1, rdb, Stream, Group, cache)
	if err := pool.Start(ctx); err != nil {
		t.Fatalf("start failed against an existing group: %v", err)
	}
	cancel()
	pool.Stop()
}
