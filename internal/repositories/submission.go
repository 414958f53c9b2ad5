package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"leetlab/internal/models"

	"github.com/jmoiron/sqlx"
)

type SubmissionRepository interface {
	CreateSubmission(ctx context.Context, sub *models.Submission) error
	FinalizeSubmission(ctx context.Context, sub *models.Submission) error
	GetSubmissionByID(ctx context.Context, submissionID int) (*models.Submission, error)
	GetSubmissionsByUserAndProblem(ctx context.Context, userID, problemID int) ([]models.SubmissionListItem, error)
}

type submissionRepository struct {
	db *sqlx.DB
}

func NewSubmissionRepository(db *sqlx.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) CreateSubmission(ctx context.Context, sub *models.Submission) error {
	query := `INSERT INTO submissions (user_id, problem_id, language, source_code, status, test_cases_total)
              VALUES (?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		sub.UserID,
		sub.ProblemID,
		sub.Language,
		sub.SourceCode,
		sub.Status,
		sub.TestCasesTotal,
	)
	if err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}

	sub.ID = int(id)
	return nil
}

// FinalizeSubmission moves a PENDING submission to its terminal state. The
// status guard in the WHERE clause makes the transition single-shot: a row
// already finalized (or raced by another pipeline) is not rewritten.
func (r *submissionRepository) FinalizeSubmission(ctx context.Context, sub *models.Submission) error {
	query := `UPDATE submissions
              SET status = ?, test_cases_passed = ?, runtime_seconds = ?, memory_kb = ?, error_message = ?
              WHERE id = ? AND status = ?`

	result, err := r.db.ExecContext(ctx, query,
		sub.Status,
		sub.TestCasesPassed,
		sub.RuntimeSeconds,
		sub.MemoryKB,
		sub.ErrorMessage,
		sub.ID,
		models.StatusPending,
	)
	if err != nil {
		return fmt.Errorf("failed to finalize submission: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check finalized rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("submission %d is not pending", sub.ID)
	}
	return nil
}

func (r *submissionRepository) GetSubmissionByID(ctx context.Context, submissionID int) (*models.Submission, error) {
	query := `SELECT id, user_id, problem_id, language, source_code, status,
                  test_cases_total, test_cases_passed, runtime_seconds, memory_kb,
                  error_message, submitted_at
              FROM submissions WHERE id = ?`

	var sub models.Submission
	if err := r.db.GetContext(ctx, &sub, query, submissionID); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("submission not found: %d", submissionID)
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	return &sub, nil
}

func (r *submissionRepository) GetSubmissionsByUserAndProblem(ctx context.Context, userID, problemID int) ([]models.SubmissionListItem, error) {
	query := `SELECT id, language, status, submitted_at
              FROM submissions
              WHERE user_id = ? AND problem_id = ?
              ORDER BY submitted_at DESC`

	var submissions []models.SubmissionListItem
	if err := r.db.SelectContext(ctx, &submissions, query, userID, problemID); err != nil {
		return nil, fmt.Errorf("failed to get submissions: %w", err)
	}

	return submissions, nil
}
