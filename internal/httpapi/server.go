// Package httpapi exposes the dashboard service over JSON for the frontend.
// Session state lives server-side, keyed by an opaque session id; the
// handlers serialize access per session.
package httpapi

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/vaxwatch/vaxwatch/internal/dashboard"
	"github.com/vaxwatch/vaxwatch/internal/registry"
	"github.com/vaxwatch/vaxwatch/internal/trials"
)

type session struct {
	state dashboard.State
}

type Server struct {
	svc *dashboard.Service

	mu       sync.Mutex
	sessions map[string]*session
}

func NewServer(svc *dashboard.Service) http.Handler {
	s := &Server{svc: svc, sessions: map[string]*session{}}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/health", s.handleHealth)
	mux.HandleFunc("/v1/sessions", s.handleCreateSession)
	mux.HandleFunc("/v1/sessions/", s.handleSession)
	mux.HandleFunc("/v1/trials/", s.handleTrialDetail)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	var re *registry.Error
	if errors.As(err, &re) {
		status := re.Status
		if status < 400 {
			status = http.StatusBadGateway
		}
		writeJSON(w, status, map[string]any{
			"ok": false,
			"error": map[string]any{
				"code":      re.Code,
				"message":   re.Message,
				"transient": re.Transient,
			},
		})
		return
	}
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"ok": false,
		"error": map[string]any{
			"code":    "validation",
			"message": err.Error(),
		},
	})
}

func methodOnly(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func decodeBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	blob, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return err
	}
	if len(blob) == 0 {
		blob = []byte("{}")
	}
	return json.Unmarshal(blob, dst)
}

func newSessionID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, 200, map[string]any{"ok": true})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	id := newSessionID()
	s.mu.Lock()
	s.sessions[id] = &session{}
	s.mu.Unlock()
	writeJSON(w, 200, map[string]any{"ok": true, "session_id": id})
}

// handleSession routes /v1/sessions/{id}/{action}. The server lock is held
// across the whole action: sessions are single-user working sets and the
// dashboard core assumes exclusive ownership of the state it mutates.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/sessions/")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessions[parts[0]]
	if sess == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"ok":    false,
			"error": map[string]any{"code": "not_found", "message": "unknown session"},
		})
		return
	}

	switch parts[1] {
	case "disease-search":
		s.handleDiseaseSearch(w, r, sess)
	case "vaccine-search":
		s.handleVaccineSearch(w, r, sess)
	case "filters":
		s.handleFilters(w, r, sess)
	case "studies":
		s.handleStudies(w, r, sess)
	case "competitors":
		s.handleCompetitors(w, r, sess)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleDiseaseSearch(w http.ResponseWriter, r *http.Request, sess *session) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	var req struct {
		Disease string `json:"disease"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.svc.FetchByDisease(r.Context(), &sess.state, req.Disease); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, map[string]any{
		"ok":      true,
		"disease": sess.state.Disease,
		"total":   len(sess.state.Studies),
	})
}

func (s *Server) handleVaccineSearch(w http.ResponseWriter, r *http.Request, sess *session) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	var req struct {
		Vaccine string `json:"vaccine"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.svc.SearchVaccine(r.Context(), &sess.state, req.Vaccine); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, map[string]any{
		"ok":                true,
		"target_vaccine":    sess.state.TargetVaccine,
		"target_diseases":   sess.state.TargetDiseases,
		"own_trials":        len(sess.state.VaccineTrials),
		"competitor_trials": len(sess.state.CompetitorTrials),
	})
}

func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request, sess *session) {
	if !methodOnly(w, r, http.MethodPut) {
		return
	}
	var req struct {
		View     string   `json:"view"`
		Phases   []string `json:"phases"`
		Statuses []string `json:"statuses"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	switch req.View {
	case "studies":
		sess.state.SelectStudyFilters(req.Phases, req.Statuses)
	case "competitors":
		sess.state.SelectCompetitorFilters(req.Phases, req.Statuses)
	default:
		writeError(w, errors.New(`view must be "studies" or "competitors"`))
		return
	}
	writeJSON(w, 200, map[string]any{"ok": true})
}

func (s *Server) handleStudies(w http.ResponseWriter, r *http.Request, sess *session) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	filtered := s.svc.FilteredStudies(&sess.state)
	writeJSON(w, 200, map[string]any{
		"ok":             true,
		"disease":        sess.state.Disease,
		"total":          len(sess.state.Studies),
		"showing":        len(filtered),
		"studies":        emptyIfNil(filtered),
		"phase_options":  sess.state.StudyPhaseOptions(),
		"status_options": sess.state.StudyStatusOptions(),
	})
}

func (s *Server) handleCompetitors(w http.ResponseWriter, r *http.Request, sess *session) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	filtered := s.svc.FilteredCompetitors(&sess.state)
	writeJSON(w, 200, map[string]any{
		"ok":              true,
		"target_vaccine":  sess.state.TargetVaccine,
		"target_diseases": sess.state.TargetDiseases,
		"own_trials":      emptyIfNil(sess.state.VaccineTrials),
		"total":           len(sess.state.CompetitorTrials),
		"showing":         len(filtered),
		"competitors":     emptyIfNil(filtered),
		"phase_options":   sess.state.CompetitorPhaseOptions(),
		"status_options":  sess.state.CompetitorStatusOptions(),
	})
}

func (s *Server) handleTrialDetail(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/v1/trials/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	detail, err := s.svc.LoadDetail(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, map[string]any{"ok": true, "trial": detail})
}

func emptyIfNil(records []trials.TrialSummary) []trials.TrialSummary {
	if records == nil {
		return []trials.TrialSummary{}
	}
	return records
}
