// internal/service/audience_service.go
package service

import (
	"context"
	"fmt"
	"log"

	"github.com/brightsend/campaign-engine/internal/model"
	"github.com/brightsend/campaign-engine/internal/repository"
	"github.com/brightsend/campaign-engine/internal/segment"
)

// AudienceService estimates how many customers a rule group matches.
type AudienceService struct {
	CustomerRepo repository.CustomerRepositoryInterface
}

// EstimateAudience compiles the rule group and counts matching customers.
// A ValidationError from the compiler surfaces as-is: an unsafe filter must
// not degrade into a different match set. A QueryError from the store comes
// back alongside a zero count; the caller decides how to present the
// degraded result but the error stays observable.
func (s *AudienceService) EstimateAudience(ctx context.Context, group model.RuleGroup) (int, error) {
	filter, err := segment.NewCompiler().Compile(group)
	if err != nil {
		return 0, err
	}

	count, err := s.CustomerRepo.CountMatching(ctx, filter)
	if err != nil {
		log.Printf("audience estimate degraded to 0 (filter %s): %v", filter.Debug(), err)
		return 0, err
	}
	return count, nil
}

// MatchCustomer checks a single customer against a rule group without a
// filtered store query.
func (s *AudienceService) MatchCustomer(ctx context.Context, group model.RuleGroup, customerID int) (bool, error) {
	// Compile first so an invalid group fails the same way estimation does.
	if _, err := segment.NewCompiler().Compile(group); err != nil {
		return false, err
	}

	customer, err := s.CustomerRepo.GetByID(ctx, customerID)
	if err != nil {
		return false, err
	}
	if customer == nil {
		return false, fmt.Errorf("customer %d not found", customerID)
	}
	return segment.Evaluate(group, *customer)
}
