package models

import (
	"errors"
	"strings"
)

// TestCase is owned by a problem and never mutated by the judging pipeline.
type TestCase struct {
	ID             int    `db:"id" json:"id"`
	Input          string `db:"input" json:"input"`
	ExpectedOutput string `db:"expected_output" json:"expected_output"`
	Visible        bool   `db:"visible" json:"visible"`
}

type Problem struct {
	ID          int    `db:"id" json:"id"`
	Title       string `db:"title" json:"title"`
	Description string `db:"description" json:"description"`
	Difficulty  string `db:"difficulty" json:"difficulty"`

	VisibleTestCases []TestCase `json:"visible_test_cases"`
	HiddenTestCases  []TestCase `json:"hidden_test_cases"`

	// Keyed by language name ("c++", "java", "javascript").
	StarterCode        map[string]string `json:"starter_code,omitempty"`
	ReferenceSolutions map[string]string `json:"reference_solutions,omitempty"`
}

type ProblemListItem struct {
	ID         int    `db:"id" json:"id"`
	Title      string `db:"title" json:"title"`
	Difficulty string `db:"difficulty" json:"difficulty"`
	IsSolved   bool   `json:"is_solved"`
}

type ProblemDetail struct {
	ID                  int               `db:"id" json:"id"`
	Title               string            `db:"title" json:"title"`
	Description         string            `db:"description" json:"description"`
	Difficulty          string            `db:"difficulty" json:"difficulty"`
	VisibleTestCases    []TestCase        `json:"visible_test_cases"`
	StarterCode         map[string]string `json:"starter_code,omitempty"`
	IsSolved            bool              `json:"is_solved"`
	TotalSubmissions    int               `json:"total_submissions"`
	AcceptedSubmissions int               `json:"accepted_submissions"`
	AcceptanceRate      float64           `json:"acceptance_rate"`
}

type ReferenceSolution struct {
	Language     string `json:"language" binding:"required"`
	CompleteCode string `json:"complete_code" binding:"required"`
}

type ProblemRequest struct {
	Title              string              `json:"title" binding:"required"`
	Description        string              `json:"description" binding:"required"`
	Difficulty         string              `json:"difficulty" binding:"required"`
	VisibleTestCases   []TestCase          `json:"visible_test_cases" binding:"required"`
	HiddenTestCases    []TestCase          `json:"hidden_test_cases" binding:"required"`
	StarterCode        map[string]string   `json:"starter_code"`
	ReferenceSolutions []ReferenceSolution `json:"reference_solutions" binding:"required"`
}

func (r *ProblemRequest) ValidateRequest() error {
	if strings.TrimSpace(r.Title) == "" {
		return errors.New("title cannot be empty")
	}

	if len(r.VisibleTestCases) == 0 {
		return errors.New("at least one visible test case is required")
	}

	if len(r.HiddenTestCases) == 0 {
		return errors.New("at least one hidden test case is required")
	}

	if len(r.ReferenceSolutions) == 0 {
		return errors.New("at least one reference solution is required")
	}

	for _, ref := range r.ReferenceSolutions {
		if strings.TrimSpace(ref.CompleteCode) == "" {
			return errors.New("reference solution code cannot be empty for language " + ref.Language)
		}
	}

	return nil
}

func (r *ProblemRequest) ToProblem() *Problem {
	refs := make(map[string]string, len(r.ReferenceSolutions))
	for _, ref := range r.ReferenceSolutions {
		refs[ref.Language] = ref.CompleteCode
	}

	return &Problem{
		Title:              r.Title,
		Description:        r.Description,
		Difficulty:         r.Difficulty,
		VisibleTestCases:   r.VisibleTestCases,
		HiddenTestCases:    r.HiddenTestCases,
		StarterCode:        r.StarterCode,
		ReferenceSolutions: refs,
	}
}
