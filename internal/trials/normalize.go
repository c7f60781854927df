package trials

import (
	"sort"
	"strings"
)

// NormalizeSummary flattens one raw study object from the registry into a
// TrialSummary. It is total: any missing sub-object or leaf degrades to the
// field's placeholder, never an error.
func NormalizeSummary(raw map[string]any) TrialSummary {
	proto := sub(raw, "protocolSection")
	ident := sub(proto, "identificationModule")

	title := str(ident["briefTitle"])
	if title == "" {
		title = str(ident["officialTitle"])
	}
	if title == "" {
		title = PlaceholderTitle
	}

	status := str(sub(proto, "statusModule")["overallStatus"])
	if status == "" {
		status = PlaceholderStatus
	}

	sponsor := str(sub(sub(proto, "sponsorCollaboratorsModule"), "leadSponsor")["name"])
	if sponsor == "" {
		sponsor = PlaceholderSponsor
	}

	return TrialSummary{
		ID:       strings.TrimSpace(str(ident["nctId"])),
		Title:    title,
		Phases:   extractPhases(proto),
		Status:   status,
		Sponsor:  sponsor,
		Products: extractProducts(proto),
	}
}

// NormalizeDetail flattens a full study object, including the conditions
// list (verbatim) and the outcome measures. A study without a results
// section yields an empty outcome list.
func NormalizeDetail(raw map[string]any) TrialDetail {
	detail := TrialDetail{TrialSummary: NormalizeSummary(raw)}

	proto := sub(raw, "protocolSection")
	for _, c := range list(sub(proto, "conditionsModule")["conditions"]) {
		if name := str(c); name != "" {
			detail.Conditions = append(detail.Conditions, name)
		}
	}

	results := sub(raw, "resultsSection")
	for _, o := range list(sub(results, "outcomeMeasuresModule")["outcomeMeasures"]) {
		m, ok := o.(map[string]any)
		if !ok {
			continue
		}
		detail.Outcomes = append(detail.Outcomes, Outcome{
			Title:       str(m["title"]),
			Description: str(m["description"]),
		})
	}
	return detail
}

func extractPhases(proto map[string]any) []string {
	var phases []string
	for _, p := range list(sub(proto, "designModule")["phases"]) {
		if label := strings.TrimSpace(str(p)); label != "" {
			phases = append(phases, label)
		}
	}
	if len(phases) == 0 {
		return []string{PlaceholderPhase}
	}
	return phases
}

// extractProducts merges the flat intervention list and the per-arm
// intervention name lists into one trimmed, deduplicated, sorted set.
func extractProducts(proto map[string]any) []string {
	arms := sub(proto, "armsInterventionsModule")
	seen := map[string]struct{}{}

	add := func(name string) {
		name = strings.TrimSpace(name)
		if name != "" {
			seen[name] = struct{}{}
		}
	}

	for _, item := range list(arms["interventions"]) {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		add(str(m["name"]))
	}
	for _, item := range list(arms["armGroups"]) {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		for _, name := range list(m["interventionNames"]) {
			add(str(name))
		}
	}

	if len(seen) == 0 {
		return []string{PlaceholderProduct}
	}
	products := make([]string, 0, len(seen))
	for name := range seen {
		products = append(products, name)
	}
	sort.Strings(products)
	return products
}

func sub(raw map[string]any, key string) map[string]any {
	if raw == nil {
		return nil
	}
	m, _ := raw[key].(map[string]any)
	return m
}

func list(v any) []any {
	arr, _ := v.([]any)
	return arr
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
