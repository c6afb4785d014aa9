package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sahilm/fuzzy"

	"github.com/fenestra-io/configurator/internal/core"
)

// definitionResponse carries the full tree plus the flags the front-end
// needs to grey out controls during a refresh.
type definitionResponse struct {
	Name     string              `json:"name"`
	Options  []core.ConfigOption `json:"options"`
	Updating bool                `json:"updating"`
	Fallback bool                `json:"fallback"`
}

// handleGetDefinition returns the session's current option tree.
func (s *Server) handleGetDefinition(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}

	def := sess.Definition()
	if def == nil {
		respondError(w, http.StatusServiceUnavailable, "definition not loaded yet")
		return
	}
	respondJSON(w, http.StatusOK, definitionResponse{
		Name:     def.Name,
		Options:  def.Options,
		Updating: sess.IsUpdating(),
		Fallback: sess.UsingFallback(),
	})
}

// tabResponse is one tab with its section names in display order.
type tabResponse struct {
	Name     string   `json:"name"`
	Sections []string `json:"sections"`
}

// handleGetTabs returns the tab/section skeleton of the tree.
func (s *Server) handleGetTabs(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}

	def := sess.Definition()
	if def == nil {
		respondError(w, http.StatusServiceUnavailable, "definition not loaded yet")
		return
	}

	tabs := make([]tabResponse, 0)
	for _, tab := range def.Tabs() {
		tabs = append(tabs, tabResponse{Name: tab, Sections: def.Sections(tab)})
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"tabs": tabs})
}

// optionSearchTarget adapts options to the fuzzy matcher.
type optionSearchTarget []core.ConfigOption

func (t optionSearchTarget) String(i int) string {
	return t[i].BareName() + " " + t[i].Description
}

func (t optionSearchTarget) Len() int { return len(t) }

// handleGetOptions returns visible options, filtered by ?tab=, ?section=
// and fuzzy-matched against ?q=.
func (s *Server) handleGetOptions(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}

	def := sess.Definition()
	if def == nil {
		respondError(w, http.StatusServiceUnavailable, "definition not loaded yet")
		return
	}

	tab := r.URL.Query().Get("tab")
	section := r.URL.Query().Get("section")
	query := r.URL.Query().Get("q")

	var options []core.ConfigOption
	switch {
	case tab != "" && section != "":
		options = def.OptionsForSection(tab, section)
	case tab != "":
		options = def.OptionsForTab(tab)
	default:
		options = make([]core.ConfigOption, 0, len(def.Options))
		for _, opt := range def.Options {
			if !opt.Hidden {
				options = append(options, opt)
			}
		}
	}

	if query != "" {
		matches := fuzzy.FindFrom(query, optionSearchTarget(options))
		ranked := make([]core.ConfigOption, 0, len(matches))
		for _, m := range matches {
			ranked = append(ranked, options[m.Index])
		}
		options = ranked
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"options": options})
}

type selectOptionRequest struct {
	Value string `json:"value"`
}

// handleSelectOption applies one option value. The local write is
// optimistic; the vendor push and the definition refresh run before the
// response, so the 202 snapshot already reflects the refreshed tree.
func (s *Server) handleSelectOption(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}

	code := chi.URLParam(r, "code")
	def := sess.Definition()
	if def == nil {
		respondError(w, http.StatusServiceUnavailable, "definition not loaded yet")
		return
	}
	if _, found := def.Option(code); !found {
		s.respondDomainError(w, core.ErrValidation(core.CodeUnknownOption, "no such option: "+code))
		return
	}

	var req selectOptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	sess.SelectOption(r.Context(), code, req.Value)
	respondJSON(w, http.StatusAccepted, snapshotOf(sess))
}
