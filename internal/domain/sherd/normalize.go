package sherd

import (
	"github.com/rpggio/arcview/internal/docvalue"
	"github.com/rpggio/arcview/internal/repository"
)

// Normalize converts a stored document into a SherdRecord, filling every
// absent field with its default. A missing or unreadable createdAt stays
// the zero time and sorts last. A confidence outside [0,1] is dropped.
func Normalize(doc repository.Document) SherdRecord {
	data := doc.Data

	rec := SherdRecord{
		ID:                doc.ID,
		SherdID:           docvalue.String(data, "sherdId"),
		ProjectID:         docvalue.String(data, "projectId"),
		StudyAreaID:       docvalue.String(data, "studyAreaId"),
		StratUnitID:       docvalue.String(data, "stratUnitId"),
		ContainerID:       docvalue.String(data, "containerId"),
		ObjectGroupID:     docvalue.String(data, "objectGroupId"),
		DiagnosticType:    docvalue.String(data, "diagnosticType"),
		QualificationType: docvalue.String(data, "qualificationType"),
		OriginalImageURL:  docvalue.String(data, "originalImageUrl"),
		Notes:             docvalue.String(data, "notes"),
		BoundingBox:       boundingBox(data),
	}

	if rec.DiagnosticType == "" {
		rec.DiagnosticType = UnspecifiedDiagnostic
		rec.untagged = true
	}
	if w, ok := docvalue.Float(data, "weight"); ok && w > 0 {
		rec.Weight = w
	}
	if c, ok := docvalue.Confidence(data, "analysisConfidence"); ok {
		rec.AnalysisConfidence = &c
	}
	if t, ok := docvalue.Time(data, "createdAt"); ok {
		rec.CreatedAt = t.UTC()
	}

	return rec
}

// boundingBox prefers the nested boundingBox object, then the flat
// x/y/width/height fields.
func boundingBox(data map[string]any) BoundingBox {
	prefix := ""
	if _, ok := docvalue.Lookup(data, "boundingBox").(map[string]any); ok {
		prefix = "boundingBox."
	}

	coord := func(name string) float64 {
		v, ok := docvalue.Float(data, prefix+name)
		if !ok || v < 0 {
			return 0
		}
		return v
	}

	return BoundingBox{
		X:      coord("x"),
		Y:      coord("y"),
		Width:  coord("width"),
		Height: coord("height"),
	}
}
