// internal/model/customer.go
package model

import "time"

// Customer is owned by the external store; the engine only ever reads it.
type Customer struct {
	ID           int       `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	TotalSpend   float64   `db:"total_spend" json:"total_spend"`
	Visits       int       `db:"visits" json:"visits"`
	LastActiveAt time.Time `db:"last_active_at" json:"last_active_at"`
}
