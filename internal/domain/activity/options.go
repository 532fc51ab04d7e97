package activity

import "time"

// ListActivityOptions filters a listing. Zero values match everything.
type ListActivityOptions struct {
	SessionID    string
	ProjectID    string
	ActivityType *ActivityType
	// Since keeps entries created at or after the instant.
	Since  time.Time
	Limit  int
	Offset int
}
