package trials

import (
	"sort"
	"strings"
)

// Filter returns the records whose status is in statuses and at least one of
// whose phase labels is in phases. Phase membership is exact per label: the
// joined phase string is split on ", " and each token compared whole, so
// selecting "Phase 1" does not match a "Phase 1/2" trial. An empty phase or
// status selection yields an empty result. Output preserves input order.
func Filter(records []TrialSummary, phases, statuses []string) []TrialSummary {
	phaseSet := toSet(phases)
	statusSet := toSet(statuses)
	if len(phaseSet) == 0 || len(statusSet) == 0 {
		return nil
	}

	var out []TrialSummary
	for _, rec := range records {
		if _, ok := statusSet[rec.Status]; !ok {
			continue
		}
		if !anyPhaseSelected(rec, phaseSet) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func anyPhaseSelected(rec TrialSummary, selected map[string]struct{}) bool {
	for _, label := range SplitPhases(rec.JoinedPhases()) {
		if _, ok := selected[label]; ok {
			return true
		}
	}
	return false
}

// SplitPhases undoes JoinedPhases, turning a comma-joined phase string back
// into its labels.
func SplitPhases(joined string) []string {
	var labels []string
	for _, part := range strings.Split(joined, ",") {
		if label := strings.TrimSpace(part); label != "" {
			labels = append(labels, label)
		}
	}
	return labels
}

// PhaseOptions collects the sorted distinct phase labels across records, for
// populating a filter control.
func PhaseOptions(records []TrialSummary) []string {
	seen := map[string]struct{}{}
	for _, rec := range records {
		for _, label := range rec.Phases {
			seen[label] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

// StatusOptions collects the sorted distinct status labels across records.
func StatusOptions(records []TrialSummary) []string {
	seen := map[string]struct{}{}
	for _, rec := range records {
		if rec.Status != "" {
			seen[rec.Status] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

func toSet(values []string) map[string]struct{} {
	set := map[string]struct{}{}
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
