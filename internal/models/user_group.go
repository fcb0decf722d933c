package models

// Editorial role identifiers carried by user groups.
const (
	RoleIDManager    = 16
	RoleIDEditor     = 17
	RoleIDAuthor     = 65536
	RoleIDReviewer   = 4096
	RoleIDAssistant  = 4097
	RoleIDSubscriber = 1048576
)

// UserGroup is a named role grouping within a journal. Stage assignments
// reference the group a user acts under.
type UserGroup struct {
	ID        int64  `db:"id" json:"id"`
	JournalID int64  `db:"journal_id" json:"journal_id"`
	RoleID    int    `db:"role_id" json:"role_id"`
	Name      string `db:"name" json:"name"`
}

// UserGroupAssignment binds a user to a group.
type UserGroupAssignment struct {
	UserID      int64 `db:"user_id" json:"user_id"`
	UserGroupID int64 `db:"user_group_id" json:"user_group_id"`
}
