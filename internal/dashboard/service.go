package dashboard

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/vaxwatch/vaxwatch/internal/competitor"
	"github.com/vaxwatch/vaxwatch/internal/registry"
	"github.com/vaxwatch/vaxwatch/internal/trials"
)

// Service composes the registry client and competitor resolver into the
// operations the presentation layer calls. All methods mutate the caller's
// State; the caller serializes access per session.
type Service struct {
	reg      competitor.Registry
	resolver *competitor.Resolver
}

func NewService(reg competitor.Registry) *Service {
	return &Service{reg: reg, resolver: competitor.NewResolver(reg)}
}

// FetchByDisease replaces the session's disease result set with a fresh
// vaccine-trial fetch. On a fetch failure the old result set is cleared so
// the UI never keeps presenting stale data behind an error message.
func (s *Service) FetchByDisease(ctx context.Context, state *State, disease string) error {
	disease = strings.TrimSpace(disease)
	if disease == "" {
		return errors.New("disease name is required")
	}

	records, err := s.reg.FetchAll(ctx, disease, registry.VaccineIntervention, registry.PrimarySearchPages)
	if err != nil {
		state.Disease = disease
		state.Studies = nil
		state.StudyFilters = Filters{}
		return err
	}

	state.Disease = disease
	state.Studies = records
	state.StudyFilters = selectAll(records)
	log.Printf("dashboard disease fetch disease=%q records=%d", disease, len(records))
	return nil
}

// FilteredStudies applies the session's current disease-view selection.
func (s *Service) FilteredStudies(state *State) []trials.TrialSummary {
	return trials.Filter(state.Studies, state.StudyFilters.Phases, state.StudyFilters.Statuses)
}

// FilteredCompetitors applies the session's competitor-view selection.
func (s *Service) FilteredCompetitors(state *State) []trials.TrialSummary {
	return trials.Filter(state.CompetitorTrials, state.CompetitorFilters.Phases, state.CompetitorFilters.Statuses)
}

// LoadDetail fetches the full record for a drill-in. The registry's
// ErrNotFound sentinel passes through for the caller to render as an empty
// state.
func (s *Service) LoadDetail(ctx context.Context, id string) (trials.TrialDetail, error) {
	return s.reg.FetchDetail(ctx, id)
}

// SearchVaccine runs competitor analysis for a product and replaces the
// session's vaccine-view state with the outcome.
func (s *Service) SearchVaccine(ctx context.Context, state *State, product string) error {
	analysis, err := s.resolver.Resolve(ctx, product)
	if err != nil {
		state.TargetVaccine = strings.TrimSpace(product)
		state.TargetDiseases = nil
		state.VaccineTrials = nil
		state.CompetitorTrials = nil
		state.CompetitorFilters = Filters{}
		return err
	}

	state.TargetVaccine = analysis.Product
	state.TargetDiseases = analysis.DerivedDiseases
	state.VaccineTrials = analysis.OwnTrials
	state.CompetitorTrials = analysis.CompetitorTrials
	state.CompetitorFilters = selectAll(analysis.CompetitorTrials)
	if analysis.Degraded {
		log.Printf("dashboard vaccine search degraded product=%q reason=%s", analysis.Product, analysis.DegradedReason)
	}
	return nil
}

// Analyze runs competitor analysis without touching session state, for
// callers like the report CLI that want the raw result.
func (s *Service) Analyze(ctx context.Context, product string) (competitor.Analysis, error) {
	return s.resolver.Resolve(ctx, product)
}
