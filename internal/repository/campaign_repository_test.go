package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/brightsend/campaign-engine/internal/errors"
	"github.com/brightsend/campaign-engine/internal/model"
)

const campaignColumns = "id, name, message, segment_rules, status, created_at, updated_at"

func TestCampaignCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rules := json.RawMessage(`{"operator":"AND","rules":[{"field":"visits","operator":">","value":3}]}`)
	mock.ExpectQuery("INSERT INTO campaigns").
		WithArgs("June VIPs", "Hi {name}!", []byte(rules), model.CampaignDraft, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))

	repo := &CampaignRepository{DB: db}
	c := &model.Campaign{Name: "June VIPs", Message: "Hi {name}!", SegmentRules: rules}
	require.NoError(t, repo.Create(context.Background(), c))

	assert.Equal(t, 5, c.ID)
	assert.Equal(t, model.CampaignDraft, c.Status)
	assert.False(t, c.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignGetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM campaigns").
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "message", "segment_rules", "status", "created_at", "updated_at"}).
			AddRow(5, "June VIPs", "Hi {name}!", []byte(`{}`), "draft", now, nil))

	repo := &CampaignRepository{DB: db}
	c, err := repo.GetByID(context.Background(), 5)
	require.NoError(t, err)

	assert.Equal(t, "June VIPs", c.Name)
	assert.Equal(t, model.CampaignDraft, c.Status)
	assert.Nil(t, c.UpdatedAt)
}

func TestCampaignGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM campaigns").
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "message", "segment_rules", "status", "created_at", "updated_at"}))

	repo := &CampaignRepository{DB: db}
	_, err = repo.GetByID(context.Background(), 99)
	require.Error(t, err)

	var nfErr *appErrors.ErrCampaignNotFound
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, 99, nfErr.CampaignID)
}

func TestCampaignListWithStatusFilter(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("SELECT " + campaignColumns + " FROM campaigns").
		WithArgs("completed", 10, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "message", "segment_rules", "status", "created_at", "updated_at"}).
			AddRow(2, "b", "m", []byte(`{}`), "completed", now, nil).
			AddRow(1, "a", "m", []byte(`{}`), "completed", now, nil))
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("completed").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	repo := &CampaignRepository{DB: db}
	campaigns, total, err := repo.ListCampaigns(context.Background(), 0, 10, "completed")
	require.NoError(t, err)

	assert.Len(t, campaigns, 2)
	assert.Equal(t, 2, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignUpdateStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE campaigns SET status").
		WithArgs(model.CampaignSending, sqlmock.AnyArg(), 5).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := &CampaignRepository{DB: db}
	require.NoError(t, repo.UpdateStatus(context.Background(), 5, model.CampaignSending))
	assert.NoError(t, mock.ExpectationsWereMet())
}
