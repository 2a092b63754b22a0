// internal/service/campaign_service.go
package service

import (
	"context"
	"encoding/json"
	"time"

	appErrors "github.com/brightsend/campaign-engine/internal/errors"
	"github.com/brightsend/campaign-engine/internal/model"
	"github.com/brightsend/campaign-engine/internal/repository"
	"github.com/brightsend/campaign-engine/internal/segment"
)

type CampaignService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	LogRepo      repository.DeliveryLogRepositoryInterface
}

type CampaignDetails struct {
	ID        int                 `json:"id"`
	Name      string              `json:"name"`
	Message   string              `json:"message"`
	Status    string              `json:"status"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt *time.Time          `json:"updated_at,omitempty"`
	Stats     model.DeliveryStats `json:"stats"`
}

// CreateCampaign persists a draft campaign. Segment rules are compiled once
// up front so a campaign can never be saved with a filter that would fail at
// send time.
func (s *CampaignService) CreateCampaign(ctx context.Context, name, message string, rules json.RawMessage) (*model.Campaign, error) {
	if len(rules) > 0 {
		var group model.RuleGroup
		if err := json.Unmarshal(rules, &group); err != nil {
			return nil, appErrors.NewValidation("segment rules: %v", err)
		}
		if _, err := segment.NewCompiler().Compile(group); err != nil {
			return nil, err
		}
	}

	c := &model.Campaign{
		Name:         name,
		Message:      message,
		SegmentRules: rules,
		Status:       model.CampaignDraft,
	}
	if err := s.CampaignRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ListCampaigns fetches campaigns with pagination
func (s *CampaignService) ListCampaigns(ctx context.Context, page, pageSize int, status string) ([]model.Campaign, map[string]int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	ptrs, total, err := s.CampaignRepo.ListCampaigns(ctx, offset, pageSize, status)
	if err != nil {
		return nil, nil, err
	}

	campaigns := make([]model.Campaign, len(ptrs))
	for i, c := range ptrs {
		campaigns[i] = *c
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}

	return campaigns, pagination, nil
}

// GetCampaignDetailsWithStats fetches a campaign plus its delivery stats,
// grouped from the persisted logs.
func (s *CampaignService) GetCampaignDetailsWithStats(ctx context.Context, campaignID int) (*CampaignDetails, error) {
	campaign, err := s.CampaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	stats, err := s.LogRepo.StatsByCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	return &CampaignDetails{
		ID:        campaign.ID,
		Name:      campaign.Name,
		Message:   campaign.Message,
		Status:    campaign.Status,
		CreatedAt: campaign.CreatedAt,
		UpdatedAt: campaign.UpdatedAt,
		Stats:     stats,
	}, nil
}
