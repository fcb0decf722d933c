package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/haryzobo/quickSubmit/internal/models"
)

// UserGroupRepository resolves user group membership within a journal.
type UserGroupRepository struct {
	db *sqlx.DB
}

// NewUserGroupRepository constructs the repository.
func NewUserGroupRepository(db *sqlx.DB) *UserGroupRepository {
	return &UserGroupRepository{db: db}
}

// FirstManagerGroup returns the first manager-role group the user belongs to
// in the journal, or nil when the user holds no manager role there. Order
// among multiple groups is by group id, matching "first found".
func (r *UserGroupRepository) FirstManagerGroup(ctx context.Context, userID, journalID int64) (*models.UserGroup, error) {
	const query = `
SELECT g.id, g.journal_id, g.role_id, g.name
FROM user_groups g
JOIN user_group_assignments a ON a.user_group_id = g.id
WHERE a.user_id = $1 AND g.journal_id = $2 AND g.role_id = $3
ORDER BY g.id ASC
LIMIT 1`

	var group models.UserGroup
	if err := r.db.GetContext(ctx, &group, query, userID, journalID, models.RoleIDManager); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find manager group: %w", err)
	}
	return &group, nil
}
