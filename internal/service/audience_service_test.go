package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/brightsend/campaign-engine/internal/errors"
	"github.com/brightsend/campaign-engine/internal/model"
)

func highSpenderGroup() model.RuleGroup {
	return model.RuleGroup{
		Operator: model.LogicAnd,
		Rules: []model.Rule{
			{Field: "total_spend", Operator: model.OpGt, Value: float64(1000)},
		},
	}
}

func TestEstimateAudience(t *testing.T) {
	svc := &AudienceService{CustomerRepo: &fakeCustomerRepo{customers: testRecipients()}}

	count, err := svc.EstimateAudience(context.Background(), highSpenderGroup())
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestEstimateAudienceInvalidGroup(t *testing.T) {
	svc := &AudienceService{CustomerRepo: &fakeCustomerRepo{customers: testRecipients()}}

	count, err := svc.EstimateAudience(context.Background(), model.RuleGroup{Operator: model.LogicAnd})
	require.Error(t, err)
	assert.Zero(t, count)

	var vErr *appErrors.ValidationError
	assert.ErrorAs(t, err, &vErr, "an invalid group must never degrade into a count")
}

func TestEstimateAudienceQueryFailureDegradesToZero(t *testing.T) {
	queryErr := appErrors.NewQuery("count matching customers", context.DeadlineExceeded)
	svc := &AudienceService{CustomerRepo: &fakeCustomerRepo{queryErr: queryErr}}

	count, err := svc.EstimateAudience(context.Background(), highSpenderGroup())
	assert.Zero(t, count)
	require.Error(t, err, "the degraded estimate must keep the failure observable")

	var qErr *appErrors.QueryError
	assert.ErrorAs(t, err, &qErr)
}

func TestMatchCustomer(t *testing.T) {
	customers := testRecipients()
	customers[0].TotalSpend = 500
	svc := &AudienceService{CustomerRepo: &fakeCustomerRepo{customers: customers}}

	matched, err := svc.MatchCustomer(context.Background(), highSpenderGroup(), 1)
	require.NoError(t, err)
	assert.False(t, matched)

	matched, err = svc.MatchCustomer(context.Background(), highSpenderGroup(), 2)
	require.NoError(t, err)
	assert.True(t, matched)
}

func TestMatchCustomerUnknownCustomer(t *testing.T) {
	svc := &AudienceService{CustomerRepo: &fakeCustomerRepo{customers: testRecipients()}}

	_, err := svc.MatchCustomer(context.Background(), highSpenderGroup(), 99)
	assert.Error(t, err)
}

func TestMatchCustomerInvalidGroup(t *testing.T) {
	svc := &AudienceService{CustomerRepo: &fakeCustomerRepo{customers: testRecipients()}}

	group := model.RuleGroup{Operator: model.LogicAnd, Rules: []model.Rule{
		{Field: "name", Operator: model.OpGt, Value: "Z"},
	}}
	_, err := svc.MatchCustomer(context.Background(), group, 1)
	require.Error(t, err)

	var vErr *appErrors.ValidationError
	assert.ErrorAs(t, err, &vErr)
}
