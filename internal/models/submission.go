package models

import (
	"errors"
	"strings"
	"time"
)

const (
	StatusPending     = "PENDING"
	StatusAccepted    = "ACCEPTED"
	StatusWrongAnswer = "WRONG_ANSWER"
	StatusError       = "ERROR"
)

// Submission is created in PENDING before dispatch and finalized exactly once.
type Submission struct {
	ID              int       `db:"id" json:"id"`
	UserID          int       `db:"user_id" json:"user_id"`
	ProblemID       int       `db:"problem_id" json:"problem_id"`
	Language        string    `db:"language" json:"language"`
	SourceCode      string    `db:"source_code" json:"source_code"`
	Status          string    `db:"status" json:"status"`
	TestCasesTotal  int       `db:"test_cases_total" json:"test_cases_total"`
	TestCasesPassed int       `db:"test_cases_passed" json:"test_cases_passed"`
	RuntimeSeconds  float64   `db:"runtime_seconds" json:"runtime_seconds"`
	MemoryKB        int       `db:"memory_kb" json:"memory_kb"`
	ErrorMessage    *string   `db:"error_message" json:"error_message,omitempty"`
	SubmittedAt     time.Time `db:"submitted_at" json:"submitted_at"`
}

type SubmissionRequest struct {
	Language   string `json:"language" binding:"required"`
	SourceCode string `json:"source_code" binding:"required"`
}

func (r *SubmissionRequest) ValidateRequest() error {
	if strings.TrimSpace(r.Language) == "" {
		return errors.New("language cannot be empty")
	}

	if strings.TrimSpace(r.SourceCode) == "" {
		return errors.New("source code cannot be empty")
	}

	return nil
}

type SubmissionListItem struct {
	ID          int       `db:"id" json:"id"`
	Language    string    `db:"language" json:"language"`
	Status      string    `db:"status" json:"status"`
	SubmittedAt time.Time `db:"submitted_at" json:"submitted_at"`
	// Derived field filled in by the handler
	FormattedTime string `db:"-" json:"submitted_time"`
}
