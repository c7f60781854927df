// Package trials holds the flat trial records the rest of the platform works
// with, plus the pure transformations over them: normalization of raw
// ClinicalTrials.gov study JSON, phase/status filtering, and the product
// match predicate used by competitor analysis.
package trials

import "strings"

const (
	PlaceholderTitle   = "No title"
	PlaceholderPhase   = "Not reported"
	PlaceholderStatus  = "Unknown"
	PlaceholderSponsor = "Unknown"
	PlaceholderProduct = "Not reported"
)

// TrialSummary is one row in a listing view. ID is the registry NCT
// identifier and is immutable once the record is constructed from a fetch.
// Phases and Products are never empty after normalization; the placeholder
// is substituted instead.
type TrialSummary struct {
	ID       string   `json:"nct_id"`
	Title    string   `json:"title"`
	Phases   []string `json:"phases"`
	Status   string   `json:"status"`
	Sponsor  string   `json:"sponsor"`
	Products []string `json:"products"`
}

// Outcome is one reported outcome measure. Description may be empty.
type Outcome struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// TrialDetail extends TrialSummary with the disease conditions as reported
// (verbatim, not deduplicated) and the outcome measures from the results
// section when one exists.
type TrialDetail struct {
	TrialSummary
	Conditions []string  `json:"conditions"`
	Outcomes   []Outcome `json:"outcomes"`
}

// JoinedPhases is the comma-joined display form, e.g. "Phase 2, Phase 3".
// The filter engine splits this string back into labels.
func (t TrialSummary) JoinedPhases() string {
	return strings.Join(t.Phases, ", ")
}

// JoinedProducts is the comma-joined product set in display order. Product
// matching is defined over this string, see ProductMatch.
func (t TrialSummary) JoinedProducts() string {
	return strings.Join(t.Products, ", ")
}
