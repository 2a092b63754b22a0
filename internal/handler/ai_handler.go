// internal/handler/ai_handler.go
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/brightsend/campaign-engine/internal/ai"
)

// AIHandler exposes campaign message generation.
type AIHandler struct {
	Generator *ai.Generator
}

// GenerateMessages handles POST /ai/messages. Never errors outward: the
// adapter falls back to a fixed message set on any provider failure.
func (h *AIHandler) GenerateMessages(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Intent string `json:"intent"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	messages := h.Generator.GenerateMessages(r.Context(), body.Intent)
	writeJSON(w, map[string]any{"messages": messages})
}
