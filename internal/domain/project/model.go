package project

// ProjectSummary is one entry of the project picker
type ProjectSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	DisplayID string `json:"display_id"`
}
