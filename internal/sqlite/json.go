package sqlite

// issueJSON is one line of an issues JSONL file. Times use the stored
// fixed-width layout.
type issueJSON struct {
	IssueID          int64   `json:"issue_id"`
	Title            string  `json:"title"`
	Description      string  `json:"description"`
	Status           string  `json:"status"`
	CreatedAt        string  `json:"created_at"`
	UpdatedAt        string  `json:"updated_at"`
	AssignedToUserID *string `json:"assigned_to_user_id"`
}
