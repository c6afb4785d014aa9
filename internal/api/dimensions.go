package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fenestra-io/configurator/internal/core"
)

// dimensionsResponse pairs the raw map with its master/sub grouping.
type dimensionsResponse struct {
	Dimensions core.Dimensions       `json:"dimensions"`
	Groups     []core.DimensionGroup `json:"groups"`
}

// handleGetDimensions returns the session's dimension state.
func (s *Server) handleGetDimensions(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, dimensionsResponse{
		Dimensions: sess.Dimensions(),
		Groups:     sess.DimensionGroups(),
	})
}

type setDimensionRequest struct {
	Value float64 `json:"value"`
}

// handleSetDimension sets one dimension. Unlike option selection this is
// not optimistic: the response carries the vendor's post-cascade state.
func (s *Server) handleSetDimension(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}

	key := chi.URLParam(r, "key")
	var req setDimensionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Value <= 0 {
		s.respondDomainError(w, core.ErrValidation(core.CodeInvalidDimension, "dimension value must be positive"))
		return
	}

	if err := sess.UpdateDimension(r.Context(), key, req.Value); err != nil {
		s.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dimensionsResponse{
		Dimensions: sess.Dimensions(),
		Groups:     sess.DimensionGroups(),
	})
}

// handleRefreshDimensions re-fetches the dimension map from the vendor.
func (s *Server) handleRefreshDimensions(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	sess.RefreshDimensions(r.Context())
	respondJSON(w, http.StatusOK, dimensionsResponse{
		Dimensions: sess.Dimensions(),
		Groups:     sess.DimensionGroups(),
	})
}
