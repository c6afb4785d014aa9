package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fenestra-io/configurator/internal/core"
)

// handleExport packages the session's current selections into the manual
// export blob. The blob goes to the caller; nothing is persisted unless it
// is POSTed back to /configurations.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = sess.ModelCode()
	}
	respondJSON(w, http.StatusOK, sess.Export(name))
}

// handleImport applies an export blob to the session.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}

	var cfg core.ExportedConfiguration
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := sess.Import(r.Context(), cfg); err != nil {
		s.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snapshotOf(sess))
}

// handleListConfigurations lists saved configurations.
func (s *Server) handleListConfigurations(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondError(w, http.StatusServiceUnavailable, "no configuration store configured")
		return
	}
	list, err := s.store.List(r.Context())
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"configurations": list})
}

// handleSaveConfiguration persists an export blob under its name.
func (s *Server) handleSaveConfiguration(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondError(w, http.StatusServiceUnavailable, "no configuration store configured")
		return
	}

	var cfg core.ExportedConfiguration
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.store.Save(r.Context(), &cfg); err != nil {
		s.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"name": cfg.Name})
}

// handleGetConfiguration loads one saved configuration.
func (s *Server) handleGetConfiguration(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondError(w, http.StatusServiceUnavailable, "no configuration store configured")
		return
	}
	cfg, err := s.store.Load(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cfg)
}

// handleDeleteConfiguration removes a saved configuration.
func (s *Server) handleDeleteConfiguration(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondError(w, http.StatusServiceUnavailable, "no configuration store configured")
		return
	}
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleApplyConfiguration loads a saved configuration and imports it into
// the session named by ?session=.
func (s *Server) handleApplyConfiguration(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondError(w, http.StatusServiceUnavailable, "no configuration store configured")
		return
	}

	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "session query parameter is required")
		return
	}
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}

	cfg, err := s.store.Load(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.respondDomainError(w, err)
		return
	}

	if err := sess.Import(r.Context(), *cfg); err != nil {
		s.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snapshotOf(sess))
}
