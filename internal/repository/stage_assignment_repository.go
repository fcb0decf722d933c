package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/haryzobo/quickSubmit/internal/models"
)

// StageAssignmentRepository persists stage assignments.
type StageAssignmentRepository struct {
	db *sqlx.DB
}

// NewStageAssignmentRepository constructs the repository.
func NewStageAssignmentRepository(db *sqlx.DB) *StageAssignmentRepository {
	return &StageAssignmentRepository{db: db}
}

// Create inserts an assignment and fills in its id. UserGroupID may be nil
// when the submitter holds no manager role in the journal.
func (r *StageAssignmentRepository) Create(ctx context.Context, a *models.StageAssignment) error {
	const query = `
INSERT INTO stage_assignments (submission_id, user_group_id, user_id, created_at)
VALUES ($1, $2, $3, $4)
RETURNING id`

	a.CreatedAt = time.Now().UTC()
	if err := r.db.QueryRowxContext(ctx, query, a.SubmissionID, a.UserGroupID, a.UserID, a.CreatedAt).Scan(&a.ID); err != nil {
		return fmt.Errorf("insert stage assignment: %w", err)
	}
	return nil
}

// ListBySubmission returns the assignments for a submission.
func (r *StageAssignmentRepository) ListBySubmission(ctx context.Context, submissionID int64) ([]models.StageAssignment, error) {
	const query = `
SELECT id, submission_id, user_group_id, user_id, created_at
FROM stage_assignments
WHERE submission_id = $1
ORDER BY id ASC`

	var assignments []models.StageAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, submissionID); err != nil {
		return nil, fmt.Errorf("list stage assignments: %w", err)
	}
	return assignments, nil
}
