package repositories

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// SolvedSetRepository tracks which problems a user has at least one accepted
// submission for.
type SolvedSetRepository interface {
	AddSolvedProblem(ctx context.Context, userID, problemID int) error
	GetSolvedProblemIDs(ctx context.Context, userID int) (map[int]bool, error)
}

type solvedSetRepository struct {
	db *sqlx.DB
}

func NewSolvedSetRepository(db *sqlx.DB) SolvedSetRepository {
	return &solvedSetRepository{db: db}
}

// AddSolvedProblem is idempotent: the (user_id, problem_id) pair is unique,
// and re-solving an already solved problem is a no-op.
func (r *solvedSetRepository) AddSolvedProblem(ctx context.Context, userID, problemID int) error {
	query := `INSERT IGNORE INTO solved_problems (user_id, problem_id) VALUES (?, ?)`

	if _, err := r.db.ExecContext(ctx, query, userID, problemID); err != nil {
		return fmt.Errorf("failed to record solved problem: %w", err)
	}
	return nil
}

func (r *solvedSetRepository) GetSolvedProblemIDs(ctx context.Context, userID int) (map[int]bool, error) {
	query := `SELECT problem_id FROM solved_problems WHERE user_id = ?`

	var problemIDs []int
	if err := r.db.SelectContext(ctx, &problemIDs, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get solved problem IDs: %w", err)
	}

	solved := make(map[int]bool, len(problemIDs))
	for _, id := range problemIDs {
		solved[id] = true
	}
	return solved, nil
}
