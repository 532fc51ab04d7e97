package activity

import "time"

// ActivityType represents the type of activity event
type ActivityType string

const (
	TypeQuery          ActivityType = "query"
	TypeQueryRejected  ActivityType = "query_rejected"
	TypeAggregate      ActivityType = "aggregate"
	TypeFetchFailed    ActivityType = "fetch_failed"
	TypeProjectsListed ActivityType = "projects_listed"
)

// ActivityEntry records one settled fetch issued on behalf of a viewer
type ActivityEntry struct {
	ID           int64        `json:"id"`
	SessionID    string       `json:"session_id,omitempty"`
	ProjectID    string       `json:"project_id,omitempty"`
	ActivityType ActivityType `json:"type"`
	Summary      string       `json:"summary"`
	Details      string       `json:"details,omitempty"` // JSON string
	ResultCount  int          `json:"result_count"`
	CreatedAt    time.Time    `json:"created_at"`
	Tick         int64        `json:"tick"`
}
