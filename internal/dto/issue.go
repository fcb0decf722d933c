package dto

// IssueOption is one selectable issue with its display label.
type IssueOption struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
}

// IssueOptionGroups partitions the journal's issues for presentation:
// future (unpublished), current (at most one) and back issues. Dates maps
// issue id to a human-readable publication date string.
type IssueOptionGroups struct {
	Future  []IssueOption    `json:"future"`
	Current *IssueOption     `json:"current,omitempty"`
	Back    []IssueOption    `json:"back"`
	Dates   map[int64]string `json:"dates"`
}
