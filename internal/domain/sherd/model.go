package sherd

import "time"

// UnspecifiedDiagnostic replaces an absent or empty diagnostic type.
const UnspecifiedDiagnostic = "Unspecified"

// BoundingBox locates a sherd inside its source image.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// SherdRecord is a normalized record of the universal collection.
type SherdRecord struct {
	ID                 string      `json:"id"`
	SherdID            string      `json:"sherd_id"`
	ProjectID          string      `json:"project_id"`
	StudyAreaID        string      `json:"study_area_id"`
	StratUnitID        string      `json:"strat_unit_id"`
	ContainerID        string      `json:"container_id"`
	ObjectGroupID      string      `json:"object_group_id"`
	DiagnosticType     string      `json:"diagnostic_type"`
	QualificationType  string      `json:"qualification_type"`
	Weight             float64     `json:"weight"`
	OriginalImageURL   string      `json:"original_image_url,omitempty"`
	BoundingBox        BoundingBox `json:"bounding_box"`
	CreatedAt          time.Time   `json:"created_at"`
	AnalysisConfidence *float64    `json:"analysis_confidence,omitempty"`
	Notes              string      `json:"notes,omitempty"`

	// untagged marks a diagnostic type filled in by Normalize.
	untagged bool
}

// Filter selects records of the universal collection. Zero values mean
// no predicate.
type Filter struct {
	ProjectID   string   `json:"project_id,omitempty"`
	Diagnostics []string `json:"diagnostics,omitempty"`
}

// Stats are derived from exactly the retrieved page.
type Stats struct {
	TotalSherds      int            `json:"total_sherds"`
	TotalWeight      float64        `json:"total_weight"`
	Projects         int            `json:"projects"`
	ProjectCounts    map[string]int `json:"project_counts"`
	DiagnosticCounts map[string]int `json:"diagnostic_counts"`
}

// DistributionEntry is one bar of the diagnostic distribution.
type DistributionEntry struct {
	Name       string  `json:"name"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Result is the outcome of one filtered query.
type Result struct {
	Filter              Filter              `json:"filter"`
	Rows                []SherdRecord       `json:"rows"`
	Stats               Stats               `json:"stats"`
	DistinctDiagnostics []string            `json:"distinct_diagnostics"`
	Distribution        []DistributionEntry `json:"distribution"`
}

// EmptyResult has zero stats and no rows.
func EmptyResult() *Result {
	return &Result{
		Rows:                []SherdRecord{},
		Stats:               emptyStats(),
		DistinctDiagnostics: []string{},
		Distribution:        []DistributionEntry{},
	}
}

// Record returns the row with the given document id.
func (r *Result) Record(id string) (SherdRecord, bool) {
	for _, rec := range r.Rows {
		if rec.ID == id {
			return rec, true
		}
	}
	return SherdRecord{}, false
}
