package judge

import (
	"context"
	"fmt"
	"sort"

	"leetlab/internal/logger"
	"leetlab/internal/models"

	"go.uber.org/zap"
)

// Source selects which of a problem's test-case sets a run is judged against.
type Source int

const (
	SourceVisible Source = iota
	SourceHidden
)

// Policy is the only thing that differs between a trial run, a graded
// submission and a reference-solution check. The pipeline itself is shared.
type Policy struct {
	Source          Source
	Persist         bool
	UpdateSolvedSet bool
}

var (
	trialPolicy  = Policy{Source: SourceVisible}
	gradedPolicy = Policy{Source: SourceHidden, Persist: true, UpdateSolvedSet: true}
	verifyPolicy = Policy{Source: SourceVisible}
)

// SubmissionStore persists graded submissions. A submission is created once
// in PENDING and finalized once to a terminal status.
type SubmissionStore interface {
	CreateSubmission(ctx context.Context, sub *models.Submission) error
	FinalizeSubmission(ctx context.Context, sub *models.Submission) error
}

// SolvedSetStore records which problems a user has solved. The insert must be
// idempotent.
type SolvedSetStore interface {
	AddSolvedProblem(ctx context.Context, userID, problemID int) error
}

// CompletionNotifier is told about every finalized graded submission, for
// after-the-fact bookkeeping such as cache invalidation. Best effort.
type CompletionNotifier interface {
	SubmissionCompleted(ctx context.Context, sub *models.Submission)
}

// Orchestrator sequences dispatch, polling and aggregation for one
// code/problem pair and applies the side effects the policy asks for.
type Orchestrator struct {
	client      ExecutionClient
	poller      *Poller
	submissions SubmissionStore
	solved      SolvedSetStore
	notifier    CompletionNotifier
}

func NewOrchestrator(client ExecutionClient, poller *Poller, submissions SubmissionStore, solved SolvedSetStore, notifier CompletionNotifier) *Orchestrator {
	return &Orchestrator{
		client:      client,
		poller:      poller,
		submissions: submissions,
		solved:      solved,
		notifier:    notifier,
	}
}

// TrialResult is returned to the user for an ungraded run against the
// visible cases, including the raw per-case results so expected vs actual
// output can be shown.
type TrialResult struct {
	Success        bool             `json:"success"`
	TestCases      []TestCaseResult `json:"test_cases"`
	RuntimeSeconds float64          `json:"runtime"`
	PeakMemoryKB   int              `json:"memory"`
}

// GradedResult is always well-formed, even when the pipeline failed before a
// verdict existed; counts then default to zero out of the full set.
type GradedResult struct {
	SubmissionID    int     `json:"submission_id"`
	Accepted        bool    `json:"accepted"`
	TotalTestCases  int     `json:"total_test_cases"`
	PassedTestCases int     `json:"passed_test_cases"`
	RuntimeSeconds  float64 `json:"runtime"`
	PeakMemoryKB    int     `json:"memory"`
	Message         string  `json:"message,omitempty"`
}

// RunTrial evaluates code against the problem's visible test cases. Nothing
// is persisted, whatever the outcome.
func (o *Orchestrator) RunTrial(ctx context.Context, problem *models.Problem, language, code string) (*TrialResult, error) {
	_, verdict, results, err := o.run(ctx, 0, problem, language, code, trialPolicy)
	if err != nil {
		return nil, err
	}

	return &TrialResult{
		Success:        verdict.OverallStatus == models.StatusAccepted,
		TestCases:      results,
		RuntimeSeconds: verdict.RuntimeSeconds,
		PeakMemoryKB:   verdict.PeakMemoryKB,
	}, nil
}

// SubmitGraded evaluates code against the problem's hidden test cases,
// recording a submission that ends in a terminal state no matter how the
// pipeline fares. An accepted verdict marks the problem solved for the user,
// at most once.
func (o *Orchestrator) SubmitGraded(ctx context.Context, userID int, problem *models.Problem, language, code string) (*GradedResult, error) {
	sub, verdict, _, err := o.run(ctx, userID, problem, language, code, gradedPolicy)
	if err != nil {
		if sub == nil {
			// Nothing was recorded: the pipeline failed validation
			// before a PENDING row existed.
			return nil, err
		}

		return &GradedResult{
			SubmissionID:   sub.ID,
			TotalTestCases: sub.TestCasesTotal,
			Message:        err.Error(),
		}, nil
	}

	result := &GradedResult{
		SubmissionID:    sub.ID,
		Accepted:        verdict.OverallStatus == models.StatusAccepted,
		TotalTestCases:  verdict.TotalCount,
		PassedTestCases: verdict.PassedCount,
		RuntimeSeconds:  verdict.RuntimeSeconds,
		PeakMemoryKB:    verdict.PeakMemoryKB,
	}
	if verdict.FirstFailure != nil && verdict.FirstFailure.Stderr != "" {
		result.Message = verdict.FirstFailure.Stderr
	}
	return result, nil
}

// VerifyReferenceSolutions runs every declared reference solution against the
// problem's visible test cases. Any non-accepted case blocks the problem,
// with an error naming the language and the failing case. No submission is
// recorded and the solved set is untouched.
func (o *Orchestrator) VerifyReferenceSolutions(ctx context.Context, problem *models.Problem) error {
	if len(problem.ReferenceSolutions) == 0 {
		return &ConfigurationError{Reason: "problem has no reference solutions"}
	}

	languages := make([]string, 0, len(problem.ReferenceSolutions))
	for language := range problem.ReferenceSolutions {
		languages = append(languages, language)
	}
	sort.Strings(languages)

	for _, language := range languages {
		code := problem.ReferenceSolutions[language]
		_, verdict, _, err := o.run(ctx, 0, problem, language, code, verifyPolicy)
		if err != nil {
			return fmt.Errorf("reference solution check failed for language %q: %w", language, err)
		}

		if verdict.OverallStatus != models.StatusAccepted {
			return fmt.Errorf("reference solution for language %q failed on test case %d: %s",
				language, verdict.FirstFailureIndex+1, verdict.FirstFailure.Status)
		}
	}
	return nil
}

// run is the shared pipeline: validate, optionally open a PENDING submission,
// dispatch, await, aggregate, then apply the policy's side effects. Every
// failure past submission creation finalizes the submission to ERROR so no
// row is ever left PENDING.
func (o *Orchestrator) run(ctx context.Context, userID int, problem *models.Problem, language, code string, policy Policy) (*models.Submission, *AggregateVerdict, []TestCaseResult, error) {
	languageID, err := LanguageID(language)
	if err != nil {
		return nil, nil, nil, err
	}

	testCases := problem.VisibleTestCases
	if policy.Source == SourceHidden {
		testCases = problem.HiddenTestCases
	}
	if len(testCases) == 0 {
		return nil, nil, nil, &ConfigurationError{Reason: fmt.Sprintf("problem %d has no test cases to judge against", problem.ID)}
	}

	var sub *models.Submission
	if policy.Persist {
		sub = &models.Submission{
			UserID:         userID,
			ProblemID:      problem.ID,
			Language:       language,
			SourceCode:     code,
			Status:         models.StatusPending,
			TestCasesTotal: len(testCases),
		}
		if err := o.submissions.CreateSubmission(ctx, sub); err != nil {
			return nil, nil, nil, fmt.Errorf("failed to create submission: %w", err)
		}
	}

	verdict, results, err := o.evaluate(ctx, code, languageID, testCases)
	if err != nil {
		if sub != nil {
			o.finalizeError(ctx, sub, err)
		}
		return sub, nil, nil, err
	}

	if sub != nil {
		sub.Status = verdict.OverallStatus
		sub.TestCasesPassed = verdict.PassedCount
		sub.RuntimeSeconds = verdict.RuntimeSeconds
		sub.MemoryKB = verdict.PeakMemoryKB
		if verdict.FirstFailure != nil && verdict.FirstFailure.Stderr != "" {
			stderr := verdict.FirstFailure.Stderr
			sub.ErrorMessage = &stderr
		}

		if err := o.submissions.FinalizeSubmission(ctx, sub); err != nil {
			return sub, nil, nil, fmt.Errorf("failed to finalize submission: %w", err)
		}

		if policy.UpdateSolvedSet && verdict.OverallStatus == models.StatusAccepted {
			if err := o.solved.AddSolvedProblem(ctx, userID, problem.ID); err != nil {
				logger.Log.Error("Failed to record solved problem",
					zap.Int("user_id", userID),
					zap.Int("problem_id", problem.ID),
					zap.Error(err))
			}
		}

		o.notify(ctx, sub)
	}

	return sub, &verdict, results, nil
}

// evaluate is the dispatch-poll-aggregate sequence with no side effects.
func (o *Orchestrator) evaluate(ctx context.Context, code string, languageID int, testCases []models.TestCase) (AggregateVerdict, []TestCaseResult, error) {
	job := EvaluationJob{
		SourceCode: code,
		LanguageID: languageID,
		TestCases:  testCases,
	}

	tokens, err := o.client.SubmitBatch(ctx, job)
	if err != nil {
		return AggregateVerdict{}, nil, err
	}

	results, err := o.poller.AwaitCompletion(ctx, tokens)
	if err != nil {
		return AggregateVerdict{}, nil, err
	}

	verdict, err := Aggregate(results)
	if err != nil {
		return AggregateVerdict{}, nil, err
	}
	return verdict, results, nil
}

func (o *Orchestrator) finalizeError(ctx context.Context, sub *models.Submission, cause error) {
	msg := cause.Error()
	sub.Status = models.StatusError
	sub.ErrorMessage = &msg

	if err := o.submissions.FinalizeSubmission(ctx, sub); err != nil {
		logger.Log.Error("Failed to finalize submission after pipeline failure",
			zap.Int("submission_id", sub.ID),
			zap.NamedError("cause", cause),
			zap.Error(err))
		return
	}

	o.notify(ctx, sub)
}

func (o *Orchestrator) notify(ctx context.Context, sub *models.Submission) {
	if o.notifier != nil {
		o.notifier.SubmissionCompleted(ctx, sub)
	}
}
