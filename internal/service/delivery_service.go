// internal/service/delivery_service.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/brightsend/campaign-engine/internal/errors"
	"github.com/brightsend/campaign-engine/internal/model"
	"github.com/brightsend/campaign-engine/internal/repository"
	"github.com/brightsend/campaign-engine/internal/segment"
)

// OutcomePolicy decides the terminal delivery status for one recipient.
// Pluggable so tests can inject deterministic failure rates.
type OutcomePolicy func(model.Customer) model.DeliveryStatus

// AlwaysSent is the default policy: every simulated delivery succeeds.
func AlwaysSent(model.Customer) model.DeliveryStatus { return model.DeliverySent }

// RunResult is what one completed delivery run reports back.
type RunResult struct {
	CampaignID int                 `json:"campaign_id"`
	RunID      uuid.UUID           `json:"run_id"`
	Stats      model.DeliveryStats `json:"stats"`
}

// DeliveryService simulates sending a campaign to its resolved audience,
// appending exactly one delivery log per recipient per run.
type DeliveryService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	CustomerRepo repository.CustomerRepositoryInterface
	LogRepo      repository.DeliveryLogRepositoryInterface
	Policy       OutcomePolicy
}

// SimulateDelivery resolves the campaign's audience from its stored segment
// rules and simulates a delivery run. The campaign moves draft -> sending ->
// completed, or to failed when a log write aborts the run.
func (s *DeliveryService) SimulateDelivery(ctx context.Context, campaignID int, overrideMessage *string) (*RunResult, error) {
	campaign, err := s.CampaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	message := campaign.Message
	if overrideMessage != nil && strings.TrimSpace(*overrideMessage) != "" {
		message = *overrideMessage
	}
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("campaign %d has no message to send", campaignID)
	}

	if len(campaign.SegmentRules) == 0 {
		return nil, appErrors.NewValidation("campaign %d has no segment rules", campaignID)
	}
	var group model.RuleGroup
	if err := json.Unmarshal(campaign.SegmentRules, &group); err != nil {
		return nil, appErrors.NewValidation("campaign %d segment rules: %v", campaignID, err)
	}

	filter, err := segment.NewCompiler().Compile(group)
	if err != nil {
		return nil, err
	}

	recipients, err := s.CustomerRepo.ListMatching(ctx, filter)
	if err != nil {
		return nil, err
	}

	if err := s.CampaignRepo.UpdateStatus(ctx, campaignID, model.CampaignSending); err != nil {
		return nil, err
	}

	result, err := s.SimulateRecipients(ctx, campaign, message, recipients)
	if err != nil {
		if statusErr := s.CampaignRepo.UpdateStatus(ctx, campaignID, model.CampaignFailed); statusErr != nil {
			log.Printf("campaign %d: mark failed: %v", campaignID, statusErr)
		}
		return nil, err
	}

	if err := s.CampaignRepo.UpdateStatus(ctx, campaignID, model.CampaignCompleted); err != nil {
		return nil, err
	}
	return result, nil
}

// SimulateRecipients runs one delivery simulation over an explicit recipient
// set. Each recipient gets exactly one appended log record with a terminal
// status; a failed append aborts the whole run with a PersistenceError and no
// stats, so the aggregate never diverges from what was durably logged. Stats
// come only from this run's own writes, never from an independent re-read.
func (s *DeliveryService) SimulateRecipients(ctx context.Context, campaign *model.Campaign, message string, recipients []model.Customer) (*RunResult, error) {
	policy := s.Policy
	if policy == nil {
		policy = AlwaysSent
	}

	runID := uuid.New()
	var stats model.DeliveryStats

	for _, customer := range recipients {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("delivery run %s aborted: %w", runID, err)
		}

		rendered := RenderTemplate(message, customerPlaceholders(customer))
		status := policy(customer)

		ts := time.Now()
		if ts.Before(campaign.CreatedAt) {
			ts = campaign.CreatedAt
		}
		rec := &model.DeliveryLog{
			CampaignID: campaign.ID,
			CustomerID: customer.ID,
			RunID:      runID,
			Status:     status,
			CreatedAt:  ts,
		}
		if err := s.LogRepo.Append(ctx, rec); err != nil {
			return nil, err
		}

		switch status {
		case model.DeliverySent:
			stats.Sent++
		default:
			stats.Failed++
		}
		log.Printf("campaign %d run %s: %s to customer %d (%d bytes)",
			campaign.ID, runID, status, customer.ID, len(rendered))
	}

	stats.Total = stats.Sent + stats.Failed
	return &RunResult{CampaignID: campaign.ID, RunID: runID, Stats: stats}, nil
}

// PreviewMessage renders the campaign message for one customer.
func (s *DeliveryService) PreviewMessage(ctx context.Context, campaignID, customerID int, overrideTemplate *string) (string, error) {
	campaign, err := s.CampaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return "", err
	}

	customer, err := s.CustomerRepo.GetByID(ctx, customerID)
	if err != nil {
		return "", err
	}
	if customer == nil {
		return "", fmt.Errorf("customer %d not found", customerID)
	}

	template := campaign.Message
	if overrideTemplate != nil && strings.TrimSpace(*overrideTemplate) != "" {
		template = *overrideTemplate
	}
	if strings.TrimSpace(template) == "" {
		return "", fmt.Errorf("template cannot be empty")
	}

	return RenderTemplate(template, customerPlaceholders(*customer)), nil
}
