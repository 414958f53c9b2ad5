package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"leetlab/internal/judge"
	"leetlab/internal/models"

	"github.com/gin-gonic/gin"
)

type fakeProblemRepo struct {
	problem *models.Problem
}

func (r *fakeProblemRepo) GetProblems(ctx context.Context) ([]models.ProblemListItem, error) {
	return nil, nil
}

func (r *fakeProblemRepo) GetProblemByID(ctx context.Context, problemID int) (*models.ProblemDetail, error) {
	return nil, errors.New("not implemented")
}

func (r *fakeProblemRepo) GetProblemForJudging(ctx context.Context, problemID int) (*models.Problem, error) {
	if r.problem == nil || r.problem.ID != problemID {
		return nil, errors.New("problem not found")
	}
	return r.problem, nil
}

func (r *fakeProblemRepo) CreateProblem(ctx context.Context, problem *models.Problem) error {
	return nil
}

func (r *fakeProblemRepo) UpdateProblem(ctx context.Context, problem *models.Problem) error {
	return nil
}

type fakeSubmissionRepo struct {
	nextID    int
	finalized []models.Submission
}

func (r *fakeSubmissionRepo) CreateSubmission(ctx context.Context, sub *models.Submission) error {
	r.nextID++
	sub.ID = r.nextID
	return nil
}

func (r *fakeSubmissionRepo) FinalizeSubmission(ctx context.Context, sub *models.Submission) error {
	r.finalized = append(r.finalized, *sub)
	return nil
}

func (r *fakeSubmissionRepo) GetSubmissionByID(ctx context.Context, submissionID int) (*models.Submission, error) {
	return nil, errors.New("not implemented")
}

func (r *fakeSubmissionRepo) GetSubmissionsByUserAndProblem(ctx context.Context, userID, problemID int) ([]models.SubmissionListItem, error) {
	return nil, nil
}

type fakeSolvedRepo struct{}

func (r *fakeSolvedRepo) AddSolvedProblem(ctx context.Context, userID, problemID int) error {
	return nil
}

// cannedEngine answers every batch with the same settled results.
type cannedEngine struct {
	results []judge.TestCaseResult
	err     error
}

func (e *cannedEngine) SubmitBatch(ctx context.Context, job judge.EvaluationJob) ([]string, error) {
	if e.err != nil {
		return nil, e.err
	}
	tokens := make([]string, len(job.TestCases))
	for i := range tokens {
		tokens[i] = "tok"
	}
	return tokens, nil
}

func (e *cannedEngine) FetchResults(ctx context.Context, tokens []string) ([]judge.TestCaseResult, error) {
	return e.results, nil
}

func stubAuth(userID int) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	}
}

func newTestRouter(t *testing.T, engine judge.ExecutionClient, problem *models.Problem) (*gin.Engine, *fakeSubmissionRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	subs := &fakeSubmissionRepo{}
	poller := judge.NewPoller(engine, time.Millisecond, time.Second)
	orch := judge.NewOrchestrator(engine, poller, subs, &fakeSolvedRepo{}, nil)
	handler := NewSubmissionHandler(orch, &fakeProblemRepo{problem: problem}, subs)

	router := gin.New()
	handler.RegisterRoutes(router, stubAuth(42))
	return router, subs
}

func handlerTestProblem() *models.Problem {
	return &models.Problem{
		ID:               7,
		VisibleTestCases: []models.TestCase{{Input: "1", ExpectedOutput: "2", Visible: true}},
		HiddenTestCases: []models.TestCase{
			{Input: "3", ExpectedOutput: "6"},
			{Input: "5", ExpectedOutput: "10"},
		},
	}
}

func postJSON(router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRunCodeEndpoint(t *testing.T) {
	engine := &cannedEngine{
		results: []judge.TestCaseResult{{Status: judge.StatusAccepted, TimeSeconds: 0.01, MemoryKB: 128}},
	}
	router, subs := newTestRouter(t, engine, handlerTestProblem())

	rec := postJSON(router, "/problems/7/run", models.SubmissionRequest{
		Language:   "java",
		SourceCode: "class Main {}",
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result judge.TrialResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !result.Success || len(result.TestCases) != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(subs.finalized) != 0 {
		t.Fatalf("trial run persisted a submission: %+v", subs.finalized)
	}
}

func TestSubmitCodeEndpoint(t *testing.T) {
	engine := &cannedEngine{
		results: []judge.TestCaseResult{
			{Status: judge.StatusAccepted, TimeSeconds: 0.01, MemoryKB: 128},
			{Status: judge.StatusAccepted, TimeSeconds: 0.02, MemoryKB: 256},
		},
	}
	router, subs := newTestRouter(t, engine, handlerTestProblem())

	rec := postJSON(router, "/problems/7/submit", models.SubmissionRequest{
		Language:   "c++",
		SourceCode: "int main(){}",
	})

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var result judge.GradedResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !result.Accepted || result.PassedTestCases != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(subs.finalized) != 1 || subs.finalized[0].Status != models.StatusAccepted {
		t.Fatalf("expected one accepted finalization, got %+v", subs.finalized)
	}
}

func TestSubmitCodeUnknownLanguage(t *testing.T) {
	router, subs := newTestRouter(t, &cannedEngine{}, handlerTestProblem())

	rec := postJSON(router, "/problems/7/submit", models.SubmissionRequest{
		Language:   "cobol",
		SourceCode: "x",
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(subs.finalized) != 0 {
		t.Fatalf("validation failure persisted a submission: %+v", subs.finalized)
	}
}

func TestSubmitCodeEngineDownStillRecords(t *testing.T) {
	engine := &cannedEngine{err: &judge.DispatchError{Err: errors.New("engine down")}}
	router, subs := newTestRouter(t, engine, handlerTestProblem())

	rec := postJSON(router, "/problems/7/submit", models.SubmissionRequest{
		Language:   "java",
		SourceCode: "x",
	})

	// Pipeline failures after the submission exists come back as a verdict.
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var result judge.GradedResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.Accepted || result.Message == "" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(subs.finalized) != 1 || subs.finalized[0].Status != models.StatusError {
		t.Fatalf("expected submission finalized to error, got %+v", subs.finalized)
	}
}

func TestRunCodeUnknownProblem(t *testing.T) {
	router, _ := newTestRouter(t, &cannedEngine{}, handlerTestProblem())

	rec := postJSON(router, "/problems/999/run", models.SubmissionRequest{
		Language:   "java",
		SourceCode: "x",
	})

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestEvaluationErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "configuration", err: &judge.ConfigurationError{Reason: "bad"}, want: http.StatusBadRequest},
		{name: "dispatch", err: &judge.DispatchError{Err: errors.New("down")}, want: http.StatusBadGateway},
		{name: "timeout", err: &judge.EvaluationTimeoutError{Waited: time.Second}, want: http.StatusGatewayTimeout},
		{name: "unknown", err: errors.New("boom"), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := evaluationErrorStatus(tt.err); got != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, got)
			}
		})
	}
}
