// internal/model/delivery_log.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// DeliveryStatus is the terminal state of one simulated delivery.
type DeliveryStatus string

const (
	DeliverySent   DeliveryStatus = "sent"
	DeliveryFailed DeliveryStatus = "failed"
)

// DeliveryLog is one append-only record per (campaign, customer, run).
// Records are never mutated after creation.
type DeliveryLog struct {
	ID         int            `db:"id" json:"id"`
	CampaignID int            `db:"campaign_id" json:"campaign_id"`
	CustomerID int            `db:"customer_id" json:"customer_id"`
	RunID      uuid.UUID      `db:"run_id" json:"run_id"`
	Status     DeliveryStatus `db:"status" json:"status"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}

// DeliveryStats is derived from delivery logs, never stored independently.
// Total is always Sent + Failed.
type DeliveryStats struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
	Total  int `json:"total"`
}
