// Package report renders disease searches and competitor analyses into
// markdown, HTML, and PDF for sharing outside the dashboard.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/vaxwatch/vaxwatch/internal/competitor"
	"github.com/vaxwatch/vaxwatch/internal/trials"
)

// Envelope is the saved form of a generated report, round-tripped by
// cmd/render-trial-report.
type Envelope struct {
	Kind           string               `json:"kind"` // "disease" or "competitor"
	Disease        string               `json:"disease,omitempty"`
	Records        []trials.TrialSummary `json:"records,omitempty"`
	Analysis       *competitor.Analysis `json:"analysis,omitempty"`
	GeneratedAt    time.Time            `json:"generated_at"`
	ReportMarkdown string               `json:"report_markdown"`
}

// BuildDiseaseReport renders a disease search result set.
func BuildDiseaseReport(disease string, records []trials.TrialSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Vaccine Trial Report: %s\n\n", disease)
	fmt.Fprintf(&b, "- Date: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(&b, "- Trials found: %d\n\n", len(records))

	if len(records) == 0 {
		fmt.Fprintf(&b, "No vaccine studies found for %q. Try another disease.\n", disease)
		return b.String()
	}

	buildSponsorFrequency(&b, records)
	buildPhaseBreakdown(&b, records)
	buildTrialsTable(&b, "Trials", records)
	return b.String()
}

// BuildCompetitorReport renders a competitor analysis.
func BuildCompetitorReport(analysis competitor.Analysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Competitor Analysis: %s\n\n", analysis.Product)
	fmt.Fprintf(&b, "- Date: %s\n", time.Now().Format(time.RFC3339))
	if len(analysis.DerivedDiseases) > 0 {
		fmt.Fprintf(&b, "- Primary disease(s): %s\n", strings.Join(analysis.DerivedDiseases, ", "))
	}
	fmt.Fprintf(&b, "- Own trials: %d\n", len(analysis.OwnTrials))
	fmt.Fprintf(&b, "- Competitor trials: %d\n\n", len(analysis.CompetitorTrials))

	if analysis.Degraded {
		fmt.Fprintf(&b, "**Note:** %s\n\n", analysis.DegradedReason)
	}

	if len(analysis.OwnTrials) == 0 && len(analysis.CompetitorTrials) == 0 {
		fmt.Fprintf(&b, "No trials found for %q.\n", analysis.Product)
		return b.String()
	}

	if len(analysis.OwnTrials) > 0 {
		buildTrialsTable(&b, fmt.Sprintf("Trials for %s", analysis.Product), analysis.OwnTrials)
	}
	if len(analysis.CompetitorTrials) > 0 {
		buildSponsorFrequency(&b, analysis.CompetitorTrials)
		buildTrialsTable(&b, "Competitor Trials", analysis.CompetitorTrials)
	} else if len(analysis.DerivedDiseases) == 0 {
		fmt.Fprintf(&b, "No disease could be derived from the seed trial, so no competitor search was run.\n")
	}
	return b.String()
}

// BuildDetailSection renders one trial's drill-in detail.
func BuildDetailSection(detail trials.TrialDetail) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Study Details: %s\n\n", detail.ID)
	fmt.Fprintf(&b, "- Title: %s\n", detail.Title)
	fmt.Fprintf(&b, "- Phase: %s\n", detail.JoinedPhases())
	fmt.Fprintf(&b, "- Status: %s\n", detail.Status)
	fmt.Fprintf(&b, "- Sponsor: %s\n\n", detail.Sponsor)

	fmt.Fprintf(&b, "### Vaccine Products\n\n")
	for _, p := range detail.Products {
		fmt.Fprintf(&b, "- %s\n", p)
	}
	b.WriteString("\n")

	if len(detail.Conditions) > 0 {
		fmt.Fprintf(&b, "### Conditions\n\n")
		for _, c := range detail.Conditions {
			fmt.Fprintf(&b, "- %s\n", c)
		}
		b.WriteString("\n")
	}

	if len(detail.Outcomes) > 0 {
		fmt.Fprintf(&b, "### Outcome Measures\n\n")
		for _, o := range detail.Outcomes {
			fmt.Fprintf(&b, "- %s\n", o.Title)
			if o.Description != "" {
				fmt.Fprintf(&b, "  - %s\n", o.Description)
			}
		}
		b.WriteString("\n")
	} else {
		fmt.Fprintf(&b, "No outcomes reported yet.\n\n")
	}
	return b.String()
}

func buildTrialsTable(b *strings.Builder, heading string, records []trials.TrialSummary) {
	fmt.Fprintf(b, "## %s\n\n", heading)
	fmt.Fprintf(b, "| NCT ID | Title | Phase | Status | Sponsor | Vaccines |\n")
	fmt.Fprintf(b, "|---|---|---|---|---|---|\n")
	for _, rec := range records {
		fmt.Fprintf(b, "| [%s](%s) | %s | %s | %s | %s | %s |\n",
			rec.ID, trialURL(rec.ID), cell(rec.Title), cell(rec.JoinedPhases()),
			cell(rec.Status), cell(rec.Sponsor), cell(rec.JoinedProducts()))
	}
	b.WriteString("\n")
}

func buildSponsorFrequency(b *strings.Builder, records []trials.TrialSummary) {
	counts := map[string]int{}
	for _, rec := range records {
		counts[rec.Sponsor]++
	}
	type sponsorCount struct {
		name  string
		count int
	}
	ranked := make([]sponsorCount, 0, len(counts))
	for name, n := range counts {
		ranked = append(ranked, sponsorCount{name, n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].name < ranked[j].name
	})
	if len(ranked) > 10 {
		ranked = ranked[:10]
	}

	fmt.Fprintf(b, "## Top Sponsors\n\n")
	for _, s := range ranked {
		fmt.Fprintf(b, "- %s: %d\n", s.name, s.count)
	}
	b.WriteString("\n")
}

func buildPhaseBreakdown(b *strings.Builder, records []trials.TrialSummary) {
	counts := map[string]int{}
	for _, rec := range records {
		for _, label := range rec.Phases {
			counts[label]++
		}
	}
	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	fmt.Fprintf(b, "## Phase Breakdown\n\n")
	for _, label := range labels {
		fmt.Fprintf(b, "- %s: %d\n", label, counts[label])
	}
	b.WriteString("\n")
}

func trialURL(id string) string {
	return "https://clinicaltrials.gov/study/" + id
}

// cell escapes the pipe so a title cannot break the table row.
func cell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
