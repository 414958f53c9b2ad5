package events

import (
	"context"

	"leetlab/internal/logger"
	"leetlab/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// Stream carries one entry per finalized graded submission.
	Stream = "submission_events"
	// Group is the consumer group the stats workers read under.
	Group = "stats_refreshers"
)

// Publisher pushes submission-completed events onto the redis stream.
// Publishing is best effort: a failed publish only delays a cache refresh,
// it never fails the submission.
type Publisher struct {
	rdb    *redis.Client
	stream string
}

func NewPublisher(rdb *redis.Client, stream string) *Publisher {
	return &Publisher{rdb: rdb, stream: stream}
}

func (p *Publisher) SubmissionCompleted(ctx context.Context, sub *models.Submission) {
	err := p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		ID:     "*", // Auto-generate ID
		Values: map[string]interface{}{
			"submission_id": sub.ID,
			"problem_id":    sub.ProblemID,
			"status":        sub.Status,
		},
	}).Err()

	if err != nil {
		logger.Log.Error("Failed to publish submission event",
			zap.Int("submission_id", sub.ID),
			zap.Error(err))
	}
}
