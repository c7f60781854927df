package competitor

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/vaxwatch/vaxwatch/internal/registry"
	"github.com/vaxwatch/vaxwatch/internal/trials"
)

// fakeRegistry scripts the three registry operations the resolver composes.
type fakeRegistry struct {
	searchPage  registry.Page
	searchErr   error
	detail      trials.TrialDetail
	detailErr   error
	fetchAll    []trials.TrialSummary
	fetchAllErr error

	searchCalls   int
	detailCalls   int
	fetchAllCalls int
	lastCondition string
	lastMaxPages  int
}

func (f *fakeRegistry) SearchPage(ctx context.Context, q registry.Query) (registry.Page, error) {
	f.searchCalls++
	return f.searchPage, f.searchErr
}

func (f *fakeRegistry) FetchDetail(ctx context.Context, id string) (trials.TrialDetail, error) {
	f.detailCalls++
	return f.detail, f.detailErr
}

func (f *fakeRegistry) FetchAll(ctx context.Context, condition, intervention string, maxPages int) ([]trials.TrialSummary, error) {
	f.fetchAllCalls++
	f.lastCondition = condition
	f.lastMaxPages = maxPages
	return f.fetchAll, f.fetchAllErr
}

func rawHit(t *testing.T, id, product string) map[string]any {
	t.Helper()
	blob := fmt.Sprintf(`{"protocolSection": {
		"identificationModule": {"nctId": %q, "briefTitle": "Hit"},
		"armsInterventionsModule": {"interventions": [{"name": %q}]}
	}}`, id, product)
	var raw map[string]any
	if err := json.Unmarshal([]byte(blob), &raw); err != nil {
		t.Fatal(err)
	}
	return raw
}

func TestResolveZeroHitsShortCircuits(t *testing.T) {
	reg := &fakeRegistry{}
	analysis, err := NewResolver(reg).Resolve(context.Background(), "Acme-Vax")
	if err != nil {
		t.Fatalf("zero hits must not be an error, got %v", err)
	}
	if len(analysis.OwnTrials) != 0 || len(analysis.CompetitorTrials) != 0 || len(analysis.DerivedDiseases) != 0 {
		t.Fatalf("expected empty triple, got %+v", analysis)
	}
	if reg.detailCalls != 0 || reg.fetchAllCalls != 0 {
		t.Fatal("expected no detail or disease fetch after zero hits")
	}
}

func TestResolveEmptyProductRejected(t *testing.T) {
	if _, err := NewResolver(&fakeRegistry{}).Resolve(context.Background(), "   "); err == nil {
		t.Fatal("expected validation error for blank product")
	}
}

func TestResolveSearchFailureSurfaces(t *testing.T) {
	reg := &fakeRegistry{searchErr: &registry.Error{Code: registry.CodeTransport, Message: "boom"}}
	_, err := NewResolver(reg).Resolve(context.Background(), "Acme-Vax")
	if !registry.IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestResolveFullAnalysisWithCaseFoldedExclusion(t *testing.T) {
	reg := &fakeRegistry{
		searchPage: registry.Page{Studies: []map[string]any{
			rawHit(t, "NCT1", "ACME-Vax 20µg"),
			rawHit(t, "NCT2", "Rivalix"),
		}},
		detail: trials.TrialDetail{
			TrialSummary: trials.TrialSummary{ID: "NCT1"},
			Conditions:   []string{"RSV", "Respiratory Syncytial Virus"},
		},
		fetchAll: []trials.TrialSummary{
			{ID: "NCT3", Products: []string{"Rivalix"}, Status: "RECRUITING"},
			{ID: "NCT4", Products: []string{"ACME-VAX booster"}, Status: "RECRUITING"},
			{ID: "NCT5", Products: []string{"OtherVax"}, Status: "COMPLETED"},
		},
	}

	analysis, err := NewResolver(reg).Resolve(context.Background(), "acme-vax")
	if err != nil {
		t.Fatal(err)
	}
	if len(analysis.OwnTrials) != 1 || analysis.OwnTrials[0].ID != "NCT1" {
		t.Fatalf("expected one own trial NCT1, got %+v", analysis.OwnTrials)
	}
	if len(analysis.DerivedDiseases) != 2 || analysis.DerivedDiseases[0] != "RSV" {
		t.Fatalf("unexpected derived diseases: %v", analysis.DerivedDiseases)
	}
	if reg.lastCondition != "RSV" {
		t.Fatalf("expected competitor fetch for first derived disease, got %q", reg.lastCondition)
	}
	if reg.lastMaxPages != registry.CompetitorSearchPages {
		t.Fatalf("expected competitor page budget %d, got %d", registry.CompetitorSearchPages, reg.lastMaxPages)
	}
	// NCT4 carries the seed product in different capitalization and must be excluded.
	if len(analysis.CompetitorTrials) != 2 {
		t.Fatalf("expected 2 competitors after exclusion, got %+v", analysis.CompetitorTrials)
	}
	for _, c := range analysis.CompetitorTrials {
		if trials.ProductMatch(c.JoinedProducts(), "acme-vax") {
			t.Fatalf("competitor set contains the seed product: %+v", c)
		}
	}
}

func TestResolveSelfExclusionCanEmptyCompetitors(t *testing.T) {
	reg := &fakeRegistry{
		searchPage: registry.Page{Studies: []map[string]any{rawHit(t, "NCT1", "Acme-Vax")}},
		detail: trials.TrialDetail{
			TrialSummary: trials.TrialSummary{ID: "NCT1"},
			Conditions:   []string{"RSV"},
		},
		fetchAll: []trials.TrialSummary{
			{ID: "NCT6", Products: []string{"Acme-Vax", "Placebo"}},
		},
	}
	analysis, err := NewResolver(reg).Resolve(context.Background(), "Acme-Vax")
	if err != nil {
		t.Fatal(err)
	}
	if len(analysis.CompetitorTrials) != 0 {
		t.Fatalf("expected exclusion to empty the competitor set, got %+v", analysis.CompetitorTrials)
	}
}

func TestResolveNoDerivedDiseasesSkipsCompetitorFetch(t *testing.T) {
	reg := &fakeRegistry{
		searchPage: registry.Page{Studies: []map[string]any{rawHit(t, "NCT1", "Acme-Vax")}},
		detail:     trials.TrialDetail{TrialSummary: trials.TrialSummary{ID: "NCT1"}},
	}
	analysis, err := NewResolver(reg).Resolve(context.Background(), "Acme-Vax")
	if err != nil {
		t.Fatal(err)
	}
	if reg.fetchAllCalls != 0 {
		t.Fatal("expected no competitor fetch without a derived disease")
	}
	if len(analysis.CompetitorTrials) != 0 {
		t.Fatalf("expected empty competitor set, got %+v", analysis.CompetitorTrials)
	}
}

func TestResolveDetailFailureDegradesToNoDiseases(t *testing.T) {
	reg := &fakeRegistry{
		searchPage: registry.Page{Studies: []map[string]any{rawHit(t, "NCT1", "Acme-Vax")}},
		detailErr:  registry.ErrNotFound,
	}
	analysis, err := NewResolver(reg).Resolve(context.Background(), "Acme-Vax")
	if err != nil {
		t.Fatalf("detail failure must not fail the analysis, got %v", err)
	}
	if len(analysis.DerivedDiseases) != 0 || reg.fetchAllCalls != 0 {
		t.Fatalf("expected disease derivation to degrade, got %+v", analysis)
	}
	if len(analysis.OwnTrials) != 1 {
		t.Fatalf("expected own trials preserved, got %+v", analysis.OwnTrials)
	}
}

func TestResolveCompetitorFetchFailureDegrades(t *testing.T) {
	reg := &fakeRegistry{
		searchPage: registry.Page{Studies: []map[string]any{rawHit(t, "NCT1", "Acme-Vax")}},
		detail: trials.TrialDetail{
			TrialSummary: trials.TrialSummary{ID: "NCT1"},
			Conditions:   []string{"RSV"},
		},
		fetchAllErr: &registry.Error{Code: registry.CodeTransport, Message: "boom"},
	}
	analysis, err := NewResolver(reg).Resolve(context.Background(), "Acme-Vax")
	if err != nil {
		t.Fatalf("secondary fetch failure must degrade, not fail: %v", err)
	}
	if !analysis.Degraded || analysis.DegradedReason == "" {
		t.Fatalf("expected degraded analysis, got %+v", analysis)
	}
	if len(analysis.OwnTrials) != 1 || len(analysis.CompetitorTrials) != 0 {
		t.Fatalf("expected own trials kept and competitors empty, got %+v", analysis)
	}
}
