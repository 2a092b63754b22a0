package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/brightsend/campaign-engine/internal/errors"
	"github.com/brightsend/campaign-engine/internal/model"
	"github.com/brightsend/campaign-engine/internal/segment"
)

type fakeCampaignRepo struct {
	campaigns map[int]*model.Campaign
	nextID    int
	statuses  []string
}

func newFakeCampaignRepo(campaigns ...*model.Campaign) *fakeCampaignRepo {
	repo := &fakeCampaignRepo{campaigns: map[int]*model.Campaign{}, nextID: 1}
	for _, c := range campaigns {
		if c.ID == 0 {
			c.ID = repo.nextID
		}
		if c.ID >= repo.nextID {
			repo.nextID = c.ID + 1
		}
		repo.campaigns[c.ID] = c
	}
	return repo
}

func (r *fakeCampaignRepo) Create(_ context.Context, c *model.Campaign) error {
	c.ID = r.nextID
	r.nextID++
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	r.campaigns[c.ID] = c
	return nil
}

func (r *fakeCampaignRepo) GetByID(_ context.Context, id int) (*model.Campaign, error) {
	c, ok := r.campaigns[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	copied := *c
	return &copied, nil
}

func (r *fakeCampaignRepo) ListCampaigns(_ context.Context, offset, limit int, status string) ([]*model.Campaign, int, error) {
	matched := []*model.Campaign{}
	for id := 1; id < r.nextID; id++ {
		c, ok := r.campaigns[id]
		if !ok {
			continue
		}
		if status != "" && c.Status != status {
			continue
		}
		matched = append(matched, c)
	}

	total := len(matched)
	if offset >= total {
		return []*model.Campaign{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (r *fakeCampaignRepo) UpdateStatus(_ context.Context, campaignID int, status string) error {
	if c, ok := r.campaigns[campaignID]; ok {
		c.Status = status
	}
	r.statuses = append(r.statuses, status)
	return nil
}

type fakeCustomerRepo struct {
	customers []model.Customer
	queryErr  error
}

func (r *fakeCustomerRepo) GetByID(_ context.Context, id int) (*model.Customer, error) {
	if r.queryErr != nil {
		return nil, r.queryErr
	}
	for _, c := range r.customers {
		if c.ID == id {
			copied := c
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeCustomerRepo) ListAll(_ context.Context) ([]model.Customer, error) {
	if r.queryErr != nil {
		return nil, r.queryErr
	}
	return r.customers, nil
}

func (r *fakeCustomerRepo) CountMatching(ctx context.Context, filter *segment.CompiledFilter) (int, error) {
	matched, err := r.ListMatching(ctx, filter)
	if err != nil {
		return 0, err
	}
	return len(matched), nil
}

func (r *fakeCustomerRepo) ListMatching(_ context.Context, _ *segment.CompiledFilter) ([]model.Customer, error) {
	if r.queryErr != nil {
		return nil, r.queryErr
	}
	return r.customers, nil
}

// fakeLogRepo keeps appended records in memory. failAfter > 0 makes the
// append that would exceed it fail, to exercise mid-run aborts.
type fakeLogRepo struct {
	logs      []model.DeliveryLog
	failAfter int
}

func (r *fakeLogRepo) Append(_ context.Context, rec *model.DeliveryLog) error {
	if r.failAfter > 0 && len(r.logs) >= r.failAfter {
		return appErrors.NewPersistence("delivery log", context.DeadlineExceeded)
	}
	rec.ID = len(r.logs) + 1
	r.logs = append(r.logs, *rec)
	return nil
}

func (r *fakeLogRepo) ListByCampaign(_ context.Context, campaignID int) ([]model.DeliveryLog, error) {
	out := []model.DeliveryLog{}
	for _, l := range r.logs {
		if l.CampaignID == campaignID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *fakeLogRepo) StatsByCampaign(_ context.Context, campaignID int) (model.DeliveryStats, error) {
	return r.tally(func(l model.DeliveryLog) bool { return l.CampaignID == campaignID }), nil
}

func (r *fakeLogRepo) StatsByRun(_ context.Context, campaignID int, runID uuid.UUID) (model.DeliveryStats, error) {
	return r.tally(func(l model.DeliveryLog) bool {
		return l.CampaignID == campaignID && l.RunID == runID
	}), nil
}

func (r *fakeLogRepo) tally(keep func(model.DeliveryLog) bool) model.DeliveryStats {
	var stats model.DeliveryStats
	for _, l := range r.logs {
		if !keep(l) {
			continue
		}
		switch l.Status {
		case model.DeliverySent:
			stats.Sent++
		default:
			stats.Failed++
		}
	}
	stats.Total = stats.Sent + stats.Failed
	return stats
}
