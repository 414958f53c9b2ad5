package judge

import (
	"fmt"
	"time"
)

// ConfigurationError reports a caller bug such as an unknown language or an
// empty test-case set. It is never retried.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// DispatchError means the execution engine rejected or never received the
// batch. A dispatch failure aborts the whole evaluation.
type DispatchError struct {
	Err error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("failed to dispatch batch to execution engine: %v", e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// FetchError is a transient read failure while polling for results. The
// poller retries it until the overall wait budget runs out.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch results from execution engine: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// EvaluationTimeoutError means not every token settled before the wait budget
// elapsed. The evaluation is inconclusive.
type EvaluationTimeoutError struct {
	Waited time.Duration
}

func (e *EvaluationTimeoutError) Error() string {
	return fmt.Sprintf("evaluation did not complete within %s", e.Waited)
}
