// internal/handler/campaign_handler.go
package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	appErrors "github.com/brightsend/campaign-engine/internal/errors"
	"github.com/brightsend/campaign-engine/internal/service"
)

// SimulationEnqueuer lets the handler hand a run to a broker instead of
// executing it inline.
type SimulationEnqueuer interface {
	PublishSimulation(campaignID int) error
}

// CampaignHandler holds the dependencies for campaign-related HTTP handlers
type CampaignHandler struct {
	Campaigns *service.CampaignService
	Delivery  *service.DeliveryService
	Enqueuer  SimulationEnqueuer // optional; nil means sync-only
}

// CreateCampaign handles POST /campaigns.
func (h *CampaignHandler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name         string          `json:"name"`
		Message      string          `json:"message"`
		SegmentRules json.RawMessage `json:"segment_rules"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	campaign, err := h.Campaigns.CreateCampaign(r.Context(), body.Name, body.Message, body.SegmentRules)
	if err != nil {
		var vErr *appErrors.ValidationError
		if errors.As(err, &vErr) {
			http.Error(w, vErr.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, campaign)
}

// ListCampaigns handles GET /campaigns with pagination.
func (h *CampaignHandler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	status := r.URL.Query().Get("status")

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	campaigns, pagination, err := h.Campaigns.ListCampaigns(r.Context(), page, pageSize, status)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"data":       campaigns,
		"pagination": pagination,
	})
}

// GetCampaign handles GET /campaigns/{id}, returning details plus delivery
// stats grouped from the logs.
func (h *CampaignHandler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := campaignID(r)
	if err != nil {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}

	details, err := h.Campaigns.GetCampaignDetailsWithStats(r.Context(), id)
	if err != nil {
		var notFound *appErrors.ErrCampaignNotFound
		if errors.As(err, &notFound) {
			http.Error(w, notFound.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, "failed to fetch campaign: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, details)
}

// SimulateDelivery handles POST /campaigns/{id}/simulate. With ?async=true
// and a configured broker the run is enqueued; otherwise it executes inline
// and returns the run's stats. A failed run returns an error and no stats.
func (h *CampaignHandler) SimulateDelivery(w http.ResponseWriter, r *http.Request) {
	id, err := campaignID(r)
	if err != nil {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}

	var body struct {
		Message *string `json:"message,omitempty"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}
	}

	if r.URL.Query().Get("async") == "true" && h.Enqueuer != nil {
		if err := h.Enqueuer.PublishSimulation(id); err != nil {
			http.Error(w, "failed to enqueue simulation: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusAccepted)
		writeJSON(w, map[string]any{"campaign_id": id, "queued": true})
		return
	}

	result, err := h.Delivery.SimulateDelivery(r.Context(), id, body.Message)
	if err != nil {
		var notFound *appErrors.ErrCampaignNotFound
		var vErr *appErrors.ValidationError
		switch {
		case errors.As(err, &notFound):
			http.Error(w, notFound.Error(), http.StatusNotFound)
		case errors.As(err, &vErr):
			http.Error(w, vErr.Error(), http.StatusBadRequest)
		default:
			log.Printf("simulate campaign %d: %v", id, err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, result)
}

// PersonalizedPreview handles POST /campaigns/{id}/personalized-preview.
func (h *CampaignHandler) PersonalizedPreview(w http.ResponseWriter, r *http.Request) {
	id, err := campaignID(r)
	if err != nil {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}

	var body struct {
		CustomerID       int     `json:"customer_id"`
		OverrideTemplate *string `json:"override_template"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	rendered, err := h.Delivery.PreviewMessage(r.Context(), id, body.CustomerID, body.OverrideTemplate)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"rendered_message": rendered,
		"customer_id":      body.CustomerID,
	})
}

func campaignID(r *http.Request) (int, error) {
	return strconv.Atoi(chi.URLParam(r, "id"))
}
