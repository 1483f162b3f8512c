package models

// Pagination describes offset pagination metadata attached to list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// Report section status sentinels. Sections that cannot be computed carry an
// explicit status instead of zeroed numbers so clients can render placeholders.
const (
	StatusOK               = "ok"
	StatusInsufficientData = "insufficient_data"
	StatusNoSessions       = "no_sessions"
	StatusNotComputed      = "not_computed"
)
