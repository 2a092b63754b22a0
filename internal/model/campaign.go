// internal/model/campaign.go
package model

import (
	"encoding/json"
	"time"
)

type Campaign struct {
	ID           int             `db:"id" json:"id"`
	Name         string          `db:"name" json:"name"`
	Message      string          `db:"message" json:"message"`
	SegmentRules json.RawMessage `db:"segment_rules" json:"segment_rules,omitempty"`
	Status       string          `db:"status" json:"status"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    *time.Time      `db:"updated_at" json:"updated_at,omitempty"`
}

// Campaign statuses. A campaign moves draft -> sending -> completed, or to
// failed when a simulation run aborts.
const (
	CampaignDraft     = "draft"
	CampaignSending   = "sending"
	CampaignCompleted = "completed"
	CampaignFailed    = "failed"
)
