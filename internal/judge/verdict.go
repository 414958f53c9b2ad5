package judge

import "leetlab/internal/models"

// Status is the execution engine's per-test-case status code.
type Status int

const (
	StatusInQueue    Status = 1
	StatusProcessing Status = 2
	StatusAccepted   Status = 3
	// The engine reports its execution-error family (crashes, time limit
	// blowups) as code 4. Every other settled, non-accepted code is a
	// wrong answer.
	StatusRuntimeError Status = 4
)

// Settled reports whether the engine has finished with this test case.
func (s Status) Settled() bool {
	return s > StatusProcessing
}

// errorClass reports whether a non-accepted status counts as an execution
// error rather than a plain wrong answer.
func (s Status) errorClass() bool {
	return s == StatusRuntimeError
}

func (s Status) String() string {
	switch s {
	case StatusInQueue:
		return "in queue"
	case StatusProcessing:
		return "processing"
	case StatusAccepted:
		return "accepted"
	case StatusRuntimeError:
		return "runtime error"
	default:
		return "wrong answer"
	}
}

// TestCaseResult is one test case's outcome as reported by the engine.
type TestCaseResult struct {
	Status      Status  `json:"status_id"`
	TimeSeconds float64 `json:"time_seconds"`
	MemoryKB    int     `json:"memory_kb"`
	Stdout      string  `json:"stdout"`
	Stderr      string  `json:"stderr"`
}

// AggregateVerdict is the reduction of all per-test-case results for one
// evaluation run.
type AggregateVerdict struct {
	// One of models.StatusAccepted, models.StatusWrongAnswer,
	// models.StatusError.
	OverallStatus string

	PassedCount    int
	TotalCount     int
	RuntimeSeconds float64
	PeakMemoryKB   int

	// FirstFailure is the first non-accepted result in submission order;
	// later failures never overwrite it. Nil when everything passed.
	FirstFailure      *TestCaseResult
	FirstFailureIndex int
}

// Aggregate folds per-test-case results into a single verdict. Runtime sums
// over accepted cases only; peak memory is the running maximum across all
// results, failing ones included.
func Aggregate(results []TestCaseResult) (AggregateVerdict, error) {
	if len(results) == 0 {
		return AggregateVerdict{}, &ConfigurationError{Reason: "no test case results to aggregate"}
	}

	verdict := AggregateVerdict{
		TotalCount:        len(results),
		FirstFailureIndex: -1,
	}

	sawErrorClass := false
	for i := range results {
		res := &results[i]

		if res.MemoryKB > verdict.PeakMemoryKB {
			verdict.PeakMemoryKB = res.MemoryKB
		}

		if res.Status == StatusAccepted {
			verdict.PassedCount++
			verdict.RuntimeSeconds += res.TimeSeconds
			continue
		}

		if res.Status.errorClass() {
			sawErrorClass = true
		}
		if verdict.FirstFailure == nil {
			verdict.FirstFailure = res
			verdict.FirstFailureIndex = i
		}
	}

	switch {
	case verdict.PassedCount == verdict.TotalCount:
		verdict.OverallStatus = models.StatusAccepted
	case sawErrorClass:
		verdict.OverallStatus = models.StatusError
	default:
		verdict.OverallStatus = models.StatusWrongAnswer
	}

	return verdict, nil
}
