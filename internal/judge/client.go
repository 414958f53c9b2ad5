package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"leetlab/internal/models"
)

// EvaluationJob is one orchestration call's unit of work: candidate code plus
// the test cases it must be judged against.
type EvaluationJob struct {
	SourceCode string
	LanguageID int
	TestCases  []models.TestCase
}

// ExecutionClient is the transport boundary to the execution engine.
type ExecutionClient interface {
	SubmitBatch(ctx context.Context, job EvaluationJob) ([]string, error)
	FetchResults(ctx context.Context, tokens []string) ([]TestCaseResult, error)
}

// EngineClient talks to a Judge0-compatible engine over HTTP. It holds no
// state besides its connection settings.
type EngineClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	apiHost    string
}

func NewEngineClient(baseURL, apiKey, apiHost string, httpClient *http.Client) *EngineClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	return &EngineClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		apiHost:    apiHost,
	}
}

type engineSubmission struct {
	SourceCode     string `json:"source_code"`
	LanguageID     int    `json:"language_id"`
	Stdin          string `json:"stdin"`
	ExpectedOutput string `json:"expected_output"`
}

type engineResult struct {
	StatusID int     `json:"status_id"`
	Time     string  `json:"time"`
	Memory   int     `json:"memory"`
	Stdout   *string `json:"stdout"`
	Stderr   *string `json:"stderr"`
}

// SubmitBatch maps each test case to one engine submission unit and returns
// the opaque job tokens in submission order.
func (c *EngineClient) SubmitBatch(ctx context.Context, job EvaluationJob) ([]string, error) {
	units := make([]engineSubmission, len(job.TestCases))
	for i, tc := range job.TestCases {
		units[i] = engineSubmission{
			SourceCode:     job.SourceCode,
			LanguageID:     job.LanguageID,
			Stdin:          tc.Input,
			ExpectedOutput: tc.ExpectedOutput,
		}
	}

	body, err := json.Marshal(map[string]interface{}{"submissions": units})
	if err != nil {
		return nil, &DispatchError{Err: fmt.Errorf("failed to encode batch: %w", err)}
	}

	endpoint := c.baseURL + "/submissions/batch?base64_encoded=false"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &DispatchError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuthHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &DispatchError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &DispatchError{Err: fmt.Errorf("engine returned status %d", resp.StatusCode)}
	}

	var created []struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, &DispatchError{Err: fmt.Errorf("failed to decode batch response: %w", err)}
	}

	if len(created) != len(job.TestCases) {
		return nil, &DispatchError{Err: fmt.Errorf("engine returned %d tokens for %d test cases", len(created), len(job.TestCases))}
	}

	tokens := make([]string, len(created))
	for i, entry := range created {
		tokens[i] = entry.Token
	}
	return tokens, nil
}

// FetchResults looks up all tokens in one call. Results come back in token
// order, one per token.
func (c *EngineClient) FetchResults(ctx context.Context, tokens []string) ([]TestCaseResult, error) {
	params := url.Values{}
	params.Set("tokens", strings.Join(tokens, ","))
	params.Set("base64_encoded", "false")
	params.Set("fields", "*")

	endpoint := c.baseURL + "/submissions/batch?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	c.setAuthHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{Err: fmt.Errorf("engine returned status %d", resp.StatusCode)}
	}

	var payload struct {
		Submissions []engineResult `json:"submissions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &FetchError{Err: fmt.Errorf("failed to decode results: %w", err)}
	}

	if len(payload.Submissions) != len(tokens) {
		return nil, &FetchError{Err: fmt.Errorf("engine returned %d results for %d tokens", len(payload.Submissions), len(tokens))}
	}

	results := make([]TestCaseResult, len(payload.Submissions))
	for i, raw := range payload.Submissions {
		results[i] = TestCaseResult{
			Status:      Status(raw.StatusID),
			TimeSeconds: parseSeconds(raw.Time),
			MemoryKB:    raw.Memory,
			Stdout:      deref(raw.Stdout),
			Stderr:      deref(raw.Stderr),
		}
	}
	return results, nil
}

func (c *EngineClient) setAuthHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("X-RapidAPI-Key", c.apiKey)
	}
	if c.apiHost != "" {
		req.Header.Set("X-RapidAPI-Host", c.apiHost)
	}
}

// The engine reports time as a decimal-string of seconds, empty until the
// case has run.
func parseSeconds(raw string) float64 {
	if raw == "" {
		return 0
	}
	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return seconds
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
