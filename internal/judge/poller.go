package judge

import (
	"context"
	"errors"
	"time"

	"leetlab/internal/logger"

	"go.uber.org/zap"
)

const (
	DefaultPollInterval = time.Second
	DefaultMaxWait      = 30 * time.Second
)

// Poller drives the wait-for-completion loop against the execution client.
type Poller struct {
	client   ExecutionClient
	interval time.Duration
	maxWait  time.Duration
}

func NewPoller(client ExecutionClient, interval, maxWait time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}

	return &Poller{
		client:   client,
		interval: interval,
		maxWait:  maxWait,
	}
}

// AwaitCompletion fetches results until every token has settled. Transient
// fetch failures are retried on the next tick. The wait between iterations is
// a real suspension: the goroutine parks on the timer instead of spinning.
// If maxWait elapses first, the evaluation is inconclusive.
func (p *Poller) AwaitCompletion(ctx context.Context, tokens []string) ([]TestCaseResult, error) {
	if len(tokens) == 0 {
		return nil, &ConfigurationError{Reason: "no tokens to await"}
	}

	parent := ctx
	ctx, cancel := context.WithTimeout(ctx, p.maxWait)
	defer cancel()

	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	for {
		results, err := p.client.FetchResults(ctx, tokens)
		switch {
		case err == nil && allSettled(results):
			return results, nil
		case err != nil:
			logger.Log.Warn("Result fetch failed, retrying on next tick",
				zap.Int("token_count", len(tokens)),
				zap.Error(err))
		}

		select {
		case <-ctx.Done():
			// A caller deadline or cancellation is the caller's to
			// report; only the wait budget itself is a timeout.
			if err := parent.Err(); err != nil {
				return nil, err
			}
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, &EvaluationTimeoutError{Waited: p.maxWait}
			}
			return nil, ctx.Err()
		case <-timer.C:
			timer.Reset(p.interval)
		}
	}
}

func allSettled(results []TestCaseResult) bool {
	for _, res := range results {
		if !res.Status.Settled() {
			return false
		}
	}
	return true
}
