package events

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"leetlab/internal/logger"
	"leetlab/internal/services"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// StatsWorker consumes submission-completed events and drops the cached
// detail of the affected problem, so acceptance stats are rebuilt on the
// next read.
type StatsWorker struct {
	id     string
	quit   chan struct{}
	done   chan struct{}
	rdb    *redis.Client
	stream string
	group  string
	cache  services.Cache
}

func NewStatsWorker(id string, rdb *redis.Client, stream, group string, cache services.Cache) *StatsWorker {
	return &StatsWorker{
		id:     id,
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
		rdb:    rdb,
		stream: stream,
		group:  group,
		cache:  cache,
	}
}

// Start begins consuming events from the stream. The worker exits when the
// context is cancelled or Stop is called.
func (w *StatsWorker) Start(ctx context.Context) {
	go func() {
		defer close(w.done)
		for {
			select {
			case <-w.quit:
				return
			case <-ctx.Done():
				return
			default:
				entries, err := w.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
					Group:    w.group,
					Consumer: w.id,
					Streams:  []string{w.stream, ">"},
					Count:    1,
					Block:    5 * time.Second,
				}).Result()

				if err != nil {
					if err != redis.Nil {
						logger.Log.Error("Redis operation failed",
							zap.String("worker_id", w.id),
							zap.Error(err))
					}
					continue
				}

				for _, stream := range entries {
					for _, msg := range stream.Messages {
						w.processEvent(ctx, msg)
					}
				}
			}
		}
	}()
}

func (w *StatsWorker) Stop() {
	logger.Log.Info("Closing stats worker",
		zap.String("worker_id", w.id))
	close(w.quit)
	<-w.done
}

func (w *StatsWorker) processEvent(ctx context.Context, msg redis.XMessage) {
	if err := w.rdb.XAck(ctx, w.stream, w.group, msg.ID).Err(); err != nil {
		logger.Log.Error("Failed to acknowledge event",
			zap.String("worker_id", w.id),
			zap.Error(err))
	}

	problemIDStr, ok := msg.Values["problem_id"].(string)
	if !ok {
		logger.Log.Error("Invalid problem ID in event",
			zap.String("worker_id", w.id),
			zap.Any("values", msg.Values))
		return
	}

	problemID, err := strconv.Atoi(problemIDStr)
	if err != nil {
		logger.Log.Error("Failed to parse problem ID",
			zap.String("worker_id", w.id),
			zap.String("problem_id", problemIDStr),
			zap.Error(err))
		return
	}

	if err := w.cache.Delete(ctx, services.ProblemDetailKey(problemID)); err != nil && err != redis.Nil {
		logger.Log.Error("Failed to invalidate problem detail cache",
			zap.String("worker_id", w.id),
			zap.Int("problem_id", problemID),
			zap.Error(err))
		return
	}

	logger.Log.Debug("Refreshed problem stats cache",
		zap.String("worker_id", w.id),
		zap.String("event_id", msg.ID),
		zap.Int("problem_id", problemID))
}

// StatsWorkerPool runs a fixed set of stats workers over one consumer group.
type StatsWorkerPool struct {
	workers    []*StatsWorker
	numWorkers int
	rdb        *redis.Client
	stream     string
	group      string
	cache      services.Cache
}

func NewStatsWorkerPool(numWorkers int, rdb *redis.Client, stream, group string, cache services.Cache) *StatsWorkerPool {
	return &StatsWorkerPool{
		workers:    make([]*StatsWorker, numWorkers),
		numWorkers: numWorkers,
		rdb:        rdb,
		stream:     stream,
		group:      group,
		cache:      cache,
	}
}

func (p *StatsWorkerPool) Start(ctx context.Context) error {
	// Create consumer group if it doesn't exist
	_, err := p.rdb.XGroupCreateMkStream(ctx, p.stream, p.group, "$").Result()
	if err != nil && err.Error() != "BUSYGROUP Consumer Group name already exists" {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	for i := 0; i < p.numWorkers; i++ {
		worker := NewStatsWorker(
			fmt.Sprintf("StatsWorker-%d", i+1),
			p.rdb,
			p.stream,
			p.group,
			p.cache,
		)

		worker.Start(ctx)
		p.workers[i] = worker
	}

	logger.Log.Info("Stats worker pool started",
		zap.Int("num_workers", p.numWorkers))

	return nil
}

func (p *StatsWorkerPool) Stop() {
	for _, worker := range p.workers {
		worker.Stop()
	}
}
