// Package dashboard owns the per-session working set behind the vaccine
// trials UI: the fetched record sets, the current filter selections, and the
// operations the presentation layer invokes against them. State is an
// explicit struct owned by the caller, not ambient session storage; one
// State belongs to one user session and is not shared across goroutines.
package dashboard

import "github.com/vaxwatch/vaxwatch/internal/trials"

// Filters is one view's phase/status multiselect selection. An empty
// selection filters everything out, matching the filter engine's contract.
type Filters struct {
	Phases   []string `json:"phases"`
	Statuses []string `json:"statuses"`
}

// State is the session working set. Records are replaced wholesale on every
// fetch and live only as long as the session.
type State struct {
	// Disease search view.
	Disease      string                `json:"disease"`
	Studies      []trials.TrialSummary `json:"studies"`
	StudyFilters Filters               `json:"study_filters"`

	// Vaccine product / competitor view.
	TargetVaccine     string                `json:"target_vaccine"`
	TargetDiseases    []string              `json:"target_diseases"`
	VaccineTrials     []trials.TrialSummary `json:"vaccine_trials"`
	CompetitorTrials  []trials.TrialSummary `json:"competitor_trials"`
	CompetitorFilters Filters               `json:"competitor_filters"`
}

// StudyPhaseOptions lists the phase labels available for the disease view's
// filter control.
func (s *State) StudyPhaseOptions() []string {
	return trials.PhaseOptions(s.Studies)
}

func (s *State) StudyStatusOptions() []string {
	return trials.StatusOptions(s.Studies)
}

func (s *State) CompetitorPhaseOptions() []string {
	return trials.PhaseOptions(s.CompetitorTrials)
}

func (s *State) CompetitorStatusOptions() []string {
	return trials.StatusOptions(s.CompetitorTrials)
}

// SelectStudyFilters records the disease view's filter selection.
func (s *State) SelectStudyFilters(phases, statuses []string) {
	s.StudyFilters = Filters{Phases: phases, Statuses: statuses}
}

// SelectCompetitorFilters records the competitor view's filter selection.
func (s *State) SelectCompetitorFilters(phases, statuses []string) {
	s.CompetitorFilters = Filters{Phases: phases, Statuses: statuses}
}

// selectAll resets a view's filters to every available option, the default
// after a fresh fetch.
func selectAll(records []trials.TrialSummary) Filters {
	return Filters{
		Phases:   trials.PhaseOptions(records),
		Statuses: trials.StatusOptions(records),
	}
}
