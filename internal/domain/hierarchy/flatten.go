package hierarchy

import (
	"fmt"
	"strings"

	"github.com/rpggio/arcview/internal/docvalue"
	"github.com/rpggio/arcview/internal/repository"
)

// ancestry carries the identifiers of the levels above an object.
type ancestry struct {
	studyArea string
	stratUnit string
	container string
	groupID   string
	group     string
}

// flattenObject merges an object document with its ancestors.
func flattenObject(a ancestry, doc repository.Document) FlatRow {
	data := doc.Data

	weight, ok := docvalue.Float(data, "weight")
	if !ok || weight < 0 {
		weight = 0
	}
	count, ok := docvalue.Int(data, "count")
	if !ok || count < 1 {
		count = 1
	}

	sherdID := docvalue.String(data, "sherd_id")
	if sherdID == "" {
		sherdID = MissingSherdID
	}

	source := SourceManual
	if docvalue.Bool(data, "created_from_image") {
		source = SourceAI
	}

	confidence := MissingConfidence
	if c, ok := docvalue.Confidence(data, "analysis_confidence"); ok {
		confidence = fmt.Sprintf("%.1f%%", c*100)
	}

	return FlatRow{
		ID:            strings.Join([]string{a.studyArea, a.stratUnit, a.container, a.groupID, doc.ID}, "-"),
		StudyArea:     a.studyArea,
		StratUnit:     a.stratUnit,
		Container:     a.container,
		Group:         a.group,
		ObjectID:      doc.ID,
		Diagnostic:    docvalue.String(data, "diagnostic"),
		Qualification: docvalue.String(data, "qualification"),
		Weight:        weight,
		Count:         count,
		SherdID:       sherdID,
		Source:        source,
		Confidence:    confidence,
	}
}

// groupLabel returns the display label of a group document.
func groupLabel(doc repository.Document) string {
	if label := docvalue.String(doc.Data, "label"); label != "" {
		return label
	}
	return UnknownGroup
}

// branch accumulates the rows and totals of one study area.
type branch struct {
	rows       []FlatRow
	sherds     int
	weight     float64
	containers int
	diagnostic map[string]int
}

func newBranch() *branch {
	return &branch{rows: []FlatRow{}, diagnostic: map[string]int{}}
}

func (b *branch) add(row FlatRow) {
	b.rows = append(b.rows, row)
	b.sherds += row.Count
	b.weight += row.Weight

	tag := row.Diagnostic
	if tag == "" {
		tag = UnspecifiedDiagTag
	}
	b.diagnostic[tag] += row.Count
}

// merge folds study area branches into one result, in the given order.
func merge(projectID string, branches []*branch) *Result {
	res := EmptyResult()
	res.ProjectID = projectID
	res.Stats.StudyAreas = len(branches)

	for _, b := range branches {
		res.Rows = append(res.Rows, b.rows...)
		res.Stats.TotalSherds += b.sherds
		res.Stats.TotalWeight += b.weight
		res.Stats.Containers += b.containers
		for tag, n := range b.diagnostic {
			res.Stats.DiagnosticCounts[tag] += n
		}
	}

	return res
}
