package hierarchy

// Source labels of a flattened row.
const (
	SourceAI     = "AI Analysis"
	SourceManual = "Manual Entry"
)

// Placeholders for absent values.
const (
	UnknownGroup       = "Unknown"
	MissingSherdID     = "-"
	MissingConfidence  = "-"
	UnspecifiedDiagTag = "Unspecified"
)

// FlatRow is one leaf object merged with its ancestor identifiers.
type FlatRow struct {
	ID            string  `json:"id"`
	StudyArea     string  `json:"study_area"`
	StratUnit     string  `json:"strat_unit"`
	Container     string  `json:"container"`
	Group         string  `json:"group"`
	ObjectID      string  `json:"object_id"`
	Diagnostic    string  `json:"diagnostic"`
	Qualification string  `json:"qualification"`
	Weight        float64 `json:"weight"`
	Count         int     `json:"count"`
	SherdID       string  `json:"sherd_id"`
	Source        string  `json:"source"`
	Confidence    string  `json:"confidence"`
}

// Stats are the running totals of one aggregation.
type Stats struct {
	TotalSherds      int            `json:"total_sherds"`
	TotalWeight      float64        `json:"total_weight"`
	StudyAreas       int            `json:"study_areas"`
	Containers       int            `json:"containers"`
	DiagnosticCounts map[string]int `json:"diagnostic_counts"`
}

// Result is the flattened table of a project and its totals.
type Result struct {
	ProjectID string    `json:"project_id"`
	Rows      []FlatRow `json:"rows"`
	Stats     Stats     `json:"stats"`
}

// EmptyResult is the "no selection" state.
func EmptyResult() *Result {
	return &Result{
		Rows:  []FlatRow{},
		Stats: Stats{DiagnosticCounts: map[string]int{}},
	}
}

// Row returns the row with the given id.
func (r *Result) Row(id string) (FlatRow, bool) {
	for _, row := range r.Rows {
		if row.ID == id {
			return row, true
		}
	}
	return FlatRow{}, false
}
