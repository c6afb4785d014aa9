package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/fenestra-io/configurator/internal/core"
	"github.com/fenestra-io/configurator/internal/session"
)

// sessionSnapshot is the JSON view of one session's public state.
type sessionSnapshot struct {
	ID        string               `json:"id"`
	ModelCode string               `json:"modelCode"`
	ModelGUID string               `json:"modelGuid,omitempty"`
	Updating  bool                 `json:"updating"`
	Fallback  bool                 `json:"fallback"`
	Selected  core.SelectedOptions `json:"selected"`
}

func snapshotOf(s *session.Session) sessionSnapshot {
	return sessionSnapshot{
		ID:        s.ID(),
		ModelCode: s.ModelCode(),
		ModelGUID: s.ModelGUID(),
		Updating:  s.IsUpdating(),
		Fallback:  s.UsingFallback(),
		Selected:  s.Selected(),
	}
}

type createSessionRequest struct {
	ModelCode string `json:"modelCode"`
}

// handleCreateSession starts a configuration session for a model code.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.ModelCode) == "" {
		respondError(w, http.StatusBadRequest, "modelCode is required")
		return
	}

	sess, err := s.sessions.Create(r.Context(), req.ModelCode)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, snapshotOf(sess))
}

// handleListSessions lists live session IDs.
func (s *Server) handleListSessions(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{"sessions": s.sessions.List()})
}

// handleGetSession returns one session's state snapshot.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, snapshotOf(sess))
}

// handleCloseSession tears down a session.
func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if err := s.sessions.Close(id); err != nil {
		s.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

// sessionFromRequest resolves the {sessionID} path parameter. A false return
// means the error response has already been written.
func (s *Server) sessionFromRequest(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := chi.URLParam(r, "sessionID")
	sess, err := s.sessions.Get(id)
	if err != nil {
		s.respondDomainError(w, err)
		return nil, false
	}
	return sess, true
}
