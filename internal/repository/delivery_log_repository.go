package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/brightsend/campaign-engine/internal/errors"
	"github.com/brightsend/campaign-engine/internal/model"
)

// DeliveryLogRepositoryInterface is the append-only delivery log store.
// Records are written once per (campaign, customer, run) and never updated.
type DeliveryLogRepositoryInterface interface {
	Append(ctx context.Context, rec *model.DeliveryLog) error
	ListByCampaign(ctx context.Context, campaignID int) ([]model.DeliveryLog, error)
	StatsByCampaign(ctx context.Context, campaignID int) (model.DeliveryStats, error)
	StatsByRun(ctx context.Context, campaignID int, runID uuid.UUID) (model.DeliveryStats, error)
}

type DeliveryLogRepository struct {
	DB *sql.DB
}

// Append inserts one delivery log record and fills in its ID.
func (r *DeliveryLogRepository) Append(ctx context.Context, rec *model.DeliveryLog) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	query := `
        INSERT INTO delivery_logs (campaign_id, customer_id, run_id, status, created_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id
    `
	err := r.DB.QueryRowContext(ctx, query,
		rec.CampaignID, rec.CustomerID, rec.RunID, rec.Status, rec.CreatedAt,
	).Scan(&rec.ID)
	if err != nil {
		return appErrors.NewPersistence("delivery log", err)
	}
	return nil
}

func (r *DeliveryLogRepository) ListByCampaign(ctx context.Context, campaignID int) ([]model.DeliveryLog, error) {
	query := `
        SELECT id, campaign_id, customer_id, run_id, status, created_at
        FROM delivery_logs
        WHERE campaign_id=$1
        ORDER BY id
    `
	rows, err := r.DB.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, appErrors.NewQuery("list delivery logs", err)
	}
	defer rows.Close()

	logs := []model.DeliveryLog{}
	for rows.Next() {
		var l model.DeliveryLog
		if err := rows.Scan(&l.ID, &l.CampaignID, &l.CustomerID, &l.RunID, &l.Status, &l.CreatedAt); err != nil {
			return nil, appErrors.NewQuery("scan delivery log", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, appErrors.NewQuery("iterate delivery logs", err)
	}
	return logs, nil
}

// StatsByCampaign groups the campaign's persisted logs by status. Total is
// always sent+failed, never a separate count.
func (r *DeliveryLogRepository) StatsByCampaign(ctx context.Context, campaignID int) (model.DeliveryStats, error) {
	query := `SELECT status, COUNT(*) FROM delivery_logs WHERE campaign_id=$1 GROUP BY status`
	return r.groupedStats(ctx, query, campaignID)
}

// StatsByRun groups one run's logs by status, so concurrent runs for the same
// campaign never conflate.
func (r *DeliveryLogRepository) StatsByRun(ctx context.Context, campaignID int, runID uuid.UUID) (model.DeliveryStats, error) {
	query := `SELECT status, COUNT(*) FROM delivery_logs WHERE campaign_id=$1 AND run_id=$2 GROUP BY status`
	return r.groupedStats(ctx, query, campaignID, runID)
}

func (r *DeliveryLogRepository) groupedStats(ctx context.Context, query string, args ...interface{}) (model.DeliveryStats, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return model.DeliveryStats{}, appErrors.NewQuery("delivery stats", err)
	}
	defer rows.Close()

	var stats model.DeliveryStats
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return model.DeliveryStats{}, appErrors.NewQuery("scan delivery stats", err)
		}
		switch model.DeliveryStatus(status) {
		case model.DeliverySent:
			stats.Sent = count
		case model.DeliveryFailed:
			stats.Failed = count
		}
	}
	if err := rows.Err(); err != nil {
		return model.DeliveryStats{}, appErrors.NewQuery("iterate delivery stats", err)
	}
	stats.Total = stats.Sent + stats.Failed
	return stats, nil
}

var _ DeliveryLogRepositoryInterface = (*DeliveryLogRepository)(nil)
