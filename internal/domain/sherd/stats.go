package sherd

import "sort"

func emptyStats() Stats {
	return Stats{
		ProjectCounts:    map[string]int{},
		DiagnosticCounts: map[string]int{},
	}
}

// computeStats derives totals from the given records only.
func computeStats(rows []SherdRecord) Stats {
	stats := emptyStats()
	for _, rec := range rows {
		stats.TotalSherds++
		stats.TotalWeight += rec.Weight
		stats.ProjectCounts[rec.ProjectID]++
		stats.DiagnosticCounts[rec.DiagnosticType]++
	}
	stats.Projects = len(stats.ProjectCounts)
	return stats
}

// distinctDiagnostics lists the diagnostic types in order of first
// occurrence. Records whose tag was absent are skipped, since no stored
// value matches them; a stored "Unspecified" tag is listed.
func distinctDiagnostics(rows []SherdRecord) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, rec := range rows {
		tag := rec.DiagnosticType
		if tag == "" || rec.untagged || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

// distribution turns diagnostic counts into percentages, largest first.
func distribution(stats Stats) []DistributionEntry {
	out := make([]DistributionEntry, 0, len(stats.DiagnosticCounts))
	if stats.TotalSherds == 0 {
		return out
	}
	for name, count := range stats.DiagnosticCounts {
		out = append(out, DistributionEntry{
			Name:       name,
			Count:      count,
			Percentage: float64(count) / float64(stats.TotalSherds) * 100,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// sortNewestFirst orders records by creation instant, most recent first.
// Records with equal instants keep their retrieval order.
func sortNewestFirst(rows []SherdRecord) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})
}
