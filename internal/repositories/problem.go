package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"leetlab/internal/logger"
	"leetlab/internal/models"
	"leetlab/internal/services"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const problemDetailTTL = 5 * time.Minute

type ProblemRepository interface {
	GetProblems(ctx context.Context) ([]models.ProblemListItem, error)
	GetProblemByID(ctx context.Context, problemID int) (*models.ProblemDetail, error)
	GetProblemForJudging(ctx context.Context, problemID int) (*models.Problem, error)
	CreateProblem(ctx context.Context, problem *models.Problem) error
	UpdateProblem(ctx context.Context, problem *models.Problem) error
}

type problemRepository struct {
	db    *sqlx.DB
	cache services.Cache
}

func NewProblemRepository(db *sqlx.DB, cache services.Cache) ProblemRepository {
	return &problemRepository{db: db, cache: cache}
}

func (r *problemRepository) GetProblems(ctx context.Context) ([]models.ProblemListItem, error) {
	query := `SELECT id, title, difficulty FROM problems ORDER BY id`

	var problems []models.ProblemListItem
	if err := r.db.SelectContext(ctx, &problems, query); err != nil {
		return nil, fmt.Errorf("failed to get problems: %w", err)
	}

	return problems, nil
}

func (r *problemRepository) GetProblemByID(ctx context.Context, problemID int) (*models.ProblemDetail, error) {
	cacheKey := services.ProblemDetailKey(problemID)

	var cached models.ProblemDetail
	if err := r.cache.Get(ctx, cacheKey, &cached); err == nil {
		return &cached, nil
	}

	query := `SELECT id, title, description, difficulty FROM problems WHERE id = ?`

	var detail models.ProblemDetail
	if err := r.db.GetContext(ctx, &detail, query, problemID); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("problem not found: %d", problemID)
		}
		return nil, fmt.Errorf("failed to get problem: %w", err)
	}

	visible, err := r.getTestCases(ctx, problemID, true)
	if err != nil {
		return nil, err
	}
	detail.VisibleTestCases = visible

	detail.StarterCode, err = r.getCodeMap(ctx, "starter_code", problemID)
	if err != nil {
		return nil, err
	}

	statsQuery := `
        SELECT
            COUNT(*) as total_submissions,
            COUNT(CASE WHEN status = 'ACCEPTED' THEN 1 END) as accepted_submissions
        FROM submissions
        WHERE problem_id = ?`

	var stats struct {
		TotalSubmissions    int `db:"total_submissions"`
		AcceptedSubmissions int `db:"accepted_submissions"`
	}
	if err := r.db.GetContext(ctx, &stats, statsQuery, problemID); err != nil {
		return nil, fmt.Errorf("failed to get submission stats: %w", err)
	}

	detail.TotalSubmissions = stats.TotalSubmissions
	detail.AcceptedSubmissions = stats.AcceptedSubmissions
	if stats.TotalSubmissions > 0 {
		detail.AcceptanceRate = (float64(stats.AcceptedSubmissions) / float64(stats.TotalSubmissions)) * 100
	}

	if err := r.cache.Set(ctx, cacheKey, &detail, problemDetailTTL); err != nil {
		logger.Log.Warn("Failed to cache problem detail",
			zap.Int("problem_id", problemID),
			zap.Error(err))
	}

	return &detail, nil
}

// GetProblemForJudging loads the full problem, hidden test cases and
// reference solutions included. Only the judging pipeline and problem
// authoring should see this view.
func (r *problemRepository) GetProblemForJudging(ctx context.Context, problemID int) (*models.Problem, error) {
	query := `SELECT id, title, description, difficulty FROM problems WHERE id = ?`

	var problem models.Problem
	if err := r.db.GetContext(ctx, &problem, query, problemID); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("problem not found: %d", problemID)
		}
		return nil, fmt.Errorf("failed to get problem: %w", err)
	}

	var err error
	if problem.VisibleTestCases, err = r.getTestCases(ctx, problemID, true); err != nil {
		return nil, err
	}
	if problem.HiddenTestCases, err = r.getTestCases(ctx, problemID, false); err != nil {
		return nil, err
	}
	if problem.StarterCode, err = r.getCodeMap(ctx, "starter_code", problemID); err != nil {
		return nil, err
	}
	if problem.ReferenceSolutions, err = r.getCodeMap(ctx, "reference_solutions", problemID); err != nil {
		return nil, err
	}

	return &problem, nil
}

func (r *problemRepository) CreateProblem(ctx context.Context, problem *models.Problem) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO problems (title, description, difficulty) VALUES (?, ?, ?)`,
		problem.Title, problem.Description, problem.Difficulty)
	if err != nil {
		return fmt.Errorf("failed to insert problem: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	problem.ID = int(id)

	if err := r.insertProblemData(ctx, tx, problem); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit problem: %w", err)
	}
	return nil
}

func (r *problemRepository) UpdateProblem(ctx context.Context, problem *models.Problem) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE problems SET title = ?, description = ?, difficulty = ? WHERE id = ?`,
		problem.Title, problem.Description, problem.Difficulty, problem.ID)
	if err != nil {
		return fmt.Errorf("failed to update problem: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		// MySQL reports 0 for a no-change update too, so double-check.
		var exists int
		if err := tx.GetContext(ctx, &exists, `SELECT COUNT(*) FROM problems WHERE id = ?`, problem.ID); err != nil || exists == 0 {
			return fmt.Errorf("problem not found: %d", problem.ID)
		}
	}

	for _, table := range []string{"test_cases", "starter_code", "reference_solutions"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE problem_id = ?`, problem.ID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if err := r.insertProblemData(ctx, tx, problem); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit problem update: %w", err)
	}

	if err := r.cache.Delete(ctx, services.ProblemDetailKey(problem.ID)); err != nil {
		logger.Log.Warn("Failed to invalidate problem detail cache",
			zap.Int("problem_id", problem.ID),
			zap.Error(err))
	}
	return nil
}

func (r *problemRepository) insertProblemData(ctx context.Context, tx *sqlx.Tx, problem *models.Problem) error {
	insertCase := `INSERT INTO test_cases (problem_id, input, expected_output, visible) VALUES (?, ?, ?, ?)`
	for _, tc := range problem.VisibleTestCases {
		if _, err := tx.ExecContext(ctx, insertCase, problem.ID, tc.Input, tc.ExpectedOutput, true); err != nil {
			return fmt.Errorf("failed to insert visible test case: %w", err)
		}
	}
	for _, tc := range problem.HiddenTestCases {
		if _, err := tx.ExecContext(ctx, insertCase, problem.ID, tc.Input, tc.ExpectedOutput, false); err != nil {
			return fmt.Errorf("failed to insert hidden test case: %w", err)
		}
	}

	for language, code := range problem.StarterCode {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO starter_code (problem_id, language, code) VALUES (?, ?, ?)`,
			problem.ID, language, code); err != nil {
			return fmt.Errorf("failed to insert starter code: %w", err)
		}
	}

	for language, code := range problem.ReferenceSolutions {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO reference_solutions (problem_id, language, code) VALUES (?, ?, ?)`,
			problem.ID, language, code); err != nil {
			return fmt.Errorf("failed to insert reference solution: %w", err)
		}
	}

	return nil
}

func (r *problemRepository) getTestCases(ctx context.Context, problemID int, visible bool) ([]models.TestCase, error) {
	query := `SELECT id, input, expected_output, visible
              FROM test_cases
              WHERE problem_id = ? AND visible = ?
              ORDER BY id`

	var cases []models.TestCase
	if err := r.db.SelectContext(ctx, &cases, query, problemID, visible); err != nil {
		return nil, fmt.Errorf("failed to get test cases: %w", err)
	}
	return cases, nil
}

func (r *problemRepository) getCodeMap(ctx context.Context, table string, problemID int) (map[string]string, error) {
	query := `SELECT language, code FROM ` + table + ` WHERE problem_id = ?`

	var rows []struct {
		Language string `db:"language"`
		Code     string `db:"code"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, problemID); err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", table, err)
	}

	codeMap := make(map[string]string, len(rows))
	for _, row := range rows {
		codeMap[row.Language] = row.Code
	}
	return codeMap, nil
}
