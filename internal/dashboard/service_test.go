package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"testing"

	"github.com/vaxwatch/vaxwatch/internal/registry"
	"github.com/vaxwatch/vaxwatch/internal/trials"
)

type fakeRegistry struct {
	fetchAll    []trials.TrialSummary
	fetchAllErr error
	searchPage  registry.Page
	detail      trials.TrialDetail
	detailErr   error

	lastCondition string
	lastMaxPages  int
}

func (f *fakeRegistry) FetchAll(ctx context.Context, condition, intervention string, maxPages int) ([]trials.TrialSummary, error) {
	f.lastCondition = condition
	f.lastMaxPages = maxPages
	return f.fetchAll, f.fetchAllErr
}

func (f *fakeRegistry) SearchPage(ctx context.Context, q registry.Query) (registry.Page, error) {
	return f.searchPage, nil
}

func (f *fakeRegistry) FetchDetail(ctx context.Context, id string) (trials.TrialDetail, error) {
	return f.detail, f.detailErr
}

func sampleStudies() []trials.TrialSummary {
	return []trials.TrialSummary{
		{ID: "NCT1", Phases: []string{"Phase 1"}, Status: "RECRUITING", Products: []string{"Vax-A"}},
		{ID: "NCT2", Phases: []string{"Phase 3"}, Status: "COMPLETED", Products: []string{"Vax-B"}},
	}
}

func TestFetchByDiseasePopulatesStateWithSelectAllFilters(t *testing.T) {
	reg := &fakeRegistry{fetchAll: sampleStudies()}
	svc := NewService(reg)
	state := &State{}

	if err := svc.FetchByDisease(context.Background(), state, " RSV "); err != nil {
		t.Fatal(err)
	}
	if state.Disease != "RSV" || len(state.Studies) != 2 {
		t.Fatalf("unexpected state: %+v", state)
	}
	if reg.lastCondition != "RSV" || reg.lastMaxPages != registry.PrimarySearchPages {
		t.Fatalf("expected primary fetch for RSV with %d pages, got %q/%d",
			registry.PrimarySearchPages, reg.lastCondition, reg.lastMaxPages)
	}
	// Fresh fetch defaults to every option selected, so nothing is hidden.
	if got := svc.FilteredStudies(state); len(got) != 2 {
		t.Fatalf("expected select-all defaults to pass everything, got %d", len(got))
	}
}

func TestFetchByDiseaseFailureClearsStaleResults(t *testing.T) {
	reg := &fakeRegistry{fetchAll: sampleStudies()}
	svc := NewService(reg)
	state := &State{}
	if err := svc.FetchByDisease(context.Background(), state, "RSV"); err != nil {
		t.Fatal(err)
	}

	reg.fetchAll = nil
	reg.fetchAllErr = &registry.Error{Code: registry.CodeTransport, Message: "boom"}
	err := svc.FetchByDisease(context.Background(), state, "Influenza")
	if !registry.IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if len(state.Studies) != 0 {
		t.Fatalf("expected stale studies cleared on failure, got %d", len(state.Studies))
	}
}

func TestFetchByDiseaseRequiresName(t *testing.T) {
	svc := NewService(&fakeRegistry{})
	if err := svc.FetchByDisease(context.Background(), &State{}, "  "); err == nil {
		t.Fatal("expected validation error for blank disease")
	}
}

func TestFilteredStudiesHonorsSelection(t *testing.T) {
	svc := NewService(&fakeRegistry{fetchAll: sampleStudies()})
	state := &State{}
	if err := svc.FetchByDisease(context.Background(), state, "RSV"); err != nil {
		t.Fatal(err)
	}

	state.SelectStudyFilters([]string{"Phase 3"}, []string{"COMPLETED"})
	got := svc.FilteredStudies(state)
	if len(got) != 1 || got[0].ID != "NCT2" {
		t.Fatalf("expected only NCT2, got %+v", got)
	}

	state.SelectStudyFilters(nil, []string{"COMPLETED"})
	if got := svc.FilteredStudies(state); len(got) != 0 {
		t.Fatalf("expected empty selection to hide everything, got %+v", got)
	}
}

func TestSearchVaccinePopulatesCompetitorState(t *testing.T) {
	seed := fmt.Sprintf(`{"protocolSection": {
		"identificationModule": {"nctId": "NCT1", "briefTitle": "Seed"},
		"armsInterventionsModule": {"interventions": [{"name": %q}]}
	}}`, "Acme-Vax")
	var raw map[string]any
	if err := json.Unmarshal([]byte(seed), &raw); err != nil {
		t.Fatal(err)
	}

	reg := &fakeRegistry{
		searchPage: registry.Page{Studies: []map[string]any{raw}},
		detail: trials.TrialDetail{
			TrialSummary: trials.TrialSummary{ID: "NCT1"},
			Conditions:   []string{"RSV"},
		},
		fetchAll: []trials.TrialSummary{
			{ID: "NCT7", Phases: []string{"Phase 2"}, Status: "RECRUITING", Products: []string{"Rivalix"}},
		},
	}
	svc := NewService(reg)
	state := &State{}

	if err := svc.SearchVaccine(context.Background(), state, "Acme-Vax"); err != nil {
		t.Fatal(err)
	}
	if state.TargetVaccine != "Acme-Vax" || !reflect.DeepEqual(state.TargetDiseases, []string{"RSV"}) {
		t.Fatalf("unexpected target state: %+v", state)
	}
	if len(state.VaccineTrials) != 1 || len(state.CompetitorTrials) != 1 {
		t.Fatalf("unexpected result sets: %+v", state)
	}
	if got := svc.FilteredCompetitors(state); len(got) != 1 {
		t.Fatalf("expected select-all competitor defaults, got %d", len(got))
	}
}

func TestLoadDetailPassesThroughNotFound(t *testing.T) {
	svc := NewService(&fakeRegistry{detailErr: registry.ErrNotFound})
	if _, err := svc.LoadDetail(context.Background(), "NCT404"); !registry.IsNotFound(err) {
		t.Fatalf("expected not-found sentinel, got %v", err)
	}
}
