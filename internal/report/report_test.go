package report

import (
	"strings"
	"testing"

	"github.com/vaxwatch/vaxwatch/internal/competitor"
	"github.com/vaxwatch/vaxwatch/internal/trials"
)

func sampleRecords() []trials.TrialSummary {
	return []trials.TrialSummary{
		{ID: "NCT1", Title: "RSV | Pivotal Study", Phases: []string{"Phase 3"}, Status: "RECRUITING", Sponsor: "Acme Bio", Products: []string{"Acme-Vax"}},
		{ID: "NCT2", Title: "Older Adults Study", Phases: []string{"Phase 2"}, Status: "COMPLETED", Sponsor: "Acme Bio", Products: []string{"Acme-Vax", "Placebo"}},
		{ID: "NCT3", Title: "Rival Study", Phases: []string{"Phase 3"}, Status: "RECRUITING", Sponsor: "Rival Inc", Products: []string{"Rivalix"}},
	}
}

func TestBuildDiseaseReportSections(t *testing.T) {
	md := BuildDiseaseReport("RSV", sampleRecords())
	for _, want := range []string{
		"# Vaccine Trial Report: RSV",
		"Trials found: 3",
		"## Top Sponsors",
		"- Acme Bio: 2",
		"## Phase Breakdown",
		"- Phase 3: 2",
		"[NCT1](https://clinicaltrials.gov/study/NCT1)",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("report missing %q:\n%s", want, md)
		}
	}
	// Pipes in titles must not break table rows.
	if !strings.Contains(md, `RSV \| Pivotal Study`) {
		t.Fatalf("expected escaped pipe in title cell:\n%s", md)
	}
}

func TestBuildDiseaseReportEmpty(t *testing.T) {
	md := BuildDiseaseReport("Nosuchitis", nil)
	if !strings.Contains(md, "No vaccine studies found") {
		t.Fatalf("expected empty-result message:\n%s", md)
	}
}

func TestBuildCompetitorReport(t *testing.T) {
	analysis := competitor.Analysis{
		Product:          "Acme-Vax",
		DerivedDiseases:  []string{"RSV"},
		OwnTrials:        sampleRecords()[:2],
		CompetitorTrials: sampleRecords()[2:],
	}
	md := BuildCompetitorReport(analysis)
	for _, want := range []string{
		"# Competitor Analysis: Acme-Vax",
		"Primary disease(s): RSV",
		"Own trials: 2",
		"Competitor trials: 1",
		"## Trials for Acme-Vax",
		"## Competitor Trials",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("report missing %q:\n%s", want, md)
		}
	}
}

func TestBuildCompetitorReportDegraded(t *testing.T) {
	md := BuildCompetitorReport(competitor.Analysis{
		Product:         "Acme-Vax",
		OwnTrials:       sampleRecords()[:1],
		DerivedDiseases: []string{"RSV"},
		Degraded:        true,
		DegradedReason:  "competitor fetch failed; results limited to the product's own trials",
	})
	if !strings.Contains(md, "**Note:** competitor fetch failed") {
		t.Fatalf("expected degradation note:\n%s", md)
	}
}

func TestBuildDetailSection(t *testing.T) {
	detail := trials.TrialDetail{
		TrialSummary: trials.TrialSummary{
			ID: "NCT1", Title: "T", Phases: []string{"Phase 1"}, Status: "RECRUITING",
			Sponsor: "Acme Bio", Products: []string{"Acme-Vax"},
		},
		Conditions: []string{"RSV"},
		Outcomes:   []trials.Outcome{{Title: "Titers", Description: "Day 28"}},
	}
	md := BuildDetailSection(detail)
	for _, want := range []string{"## Study Details: NCT1", "### Vaccine Products", "### Conditions", "- Titers", "  - Day 28"} {
		if !strings.Contains(md, want) {
			t.Fatalf("detail section missing %q:\n%s", want, md)
		}
	}

	md = BuildDetailSection(trials.TrialDetail{TrialSummary: detail.TrialSummary})
	if !strings.Contains(md, "No outcomes reported yet.") {
		t.Fatalf("expected no-outcomes note:\n%s", md)
	}
}

func TestRenderHTML(t *testing.T) {
	htmlDoc, err := RenderHTML("Report", "# Heading\n\n| a | b |\n|---|---|\n| 1 | 2 |\n")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"<!doctype html>", "<h1", "Heading", "<table>"} {
		if !strings.Contains(htmlDoc, want) {
			t.Fatalf("html missing %q:\n%s", want, htmlDoc)
		}
	}
}
