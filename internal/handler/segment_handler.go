// internal/handler/segment_handler.go
package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	appErrors "github.com/brightsend/campaign-engine/internal/errors"
	"github.com/brightsend/campaign-engine/internal/model"
	"github.com/brightsend/campaign-engine/internal/service"
)

// SegmentHandler exposes audience estimation and match checks.
type SegmentHandler struct {
	Audience *service.AudienceService
}

// EstimateAudience handles POST /segments/estimate. An invalid rule group is
// a 400; a store failure degrades to a zero count with the error included in
// the body so the caller can surface it.
func (h *SegmentHandler) EstimateAudience(w http.ResponseWriter, r *http.Request) {
	var group model.RuleGroup
	if err := json.NewDecoder(r.Body).Decode(&group); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	count, err := h.Audience.EstimateAudience(r.Context(), group)
	if err != nil {
		var vErr *appErrors.ValidationError
		if errors.As(err, &vErr) {
			http.Error(w, vErr.Error(), http.StatusBadRequest)
			return
		}

		// Degraded estimate: count is 0 but the failure stays visible.
		log.Printf("estimate audience: %v", err)
		writeJSON(w, map[string]any{"count": 0, "error": err.Error()})
		return
	}

	writeJSON(w, map[string]any{"count": count})
}

// MatchCustomer handles POST /segments/match.
func (h *SegmentHandler) MatchCustomer(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CustomerID int             `json:"customer_id"`
		Rules      model.RuleGroup `json:"rules"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	matches, err := h.Audience.MatchCustomer(r.Context(), body.Rules, body.CustomerID)
	if err != nil {
		var vErr *appErrors.ValidationError
		if errors.As(err, &vErr) {
			http.Error(w, vErr.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{"customer_id": body.CustomerID, "matches": matches})
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}
