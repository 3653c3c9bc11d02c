package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mercadolito/strategia/internal/runstore/domain"
	simulationdomain "github.com/mercadolito/strategia/internal/simulation/domain"
	validatordomain "github.com/mercadolito/strategia/internal/validator/domain"
	"github.com/mercadolito/strategia/pkg/db/pagination"
)

func newTestStore(t *testing.T) domain.Service {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc, err := NewService(ServiceParam{Log: zap.NewNop(), DB: conn, Node: node})
	require.NoError(t, err)
	return svc
}

func sampleReport() *validatordomain.RunReport {
	started := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	results := []simulationdomain.Result{
		{
			Strategy:                  simulationdomain.StrategyCombo,
			Investment:                150_000,
			IncrementalRevenueMonthly: 10_000,
			IncrementalMarginMonthly:  2_500,
			ROIPercentage:             20,
			PaybackMonths:             simulationdomain.Months(60),
			ConfidenceScore:           0.05,
			Figures:                   map[string]float64{"current_adoption_rate": 0.05},
			Breakdown:                 []simulationdomain.Record{{"segment": 0, "weekday": "Friday"}},
		},
		{
			Strategy:        simulationdomain.StrategyMarcaPropia,
			Investment:      500_000,
			ROIPercentage:   0,
			PaybackMonths:   simulationdomain.MonthsInf(),
			ConfidenceScore: 0,
		},
	}
	return &validatordomain.RunReport{
		StartedAt:   started,
		CompletedAt: started.Add(3 * time.Second),
		Results:     results,
		Summary: []validatordomain.SummaryRow{
			{Strategy: results[0].Strategy, ROIPercentage: 20},
			{Strategy: results[1].Strategy, ROIPercentage: 0},
		},
		Errors: map[string]string{"baseline": "model_not_fitted"},
	}
}

func TestSaveRun_RoundTrip(t *testing.T) {
	svc := newTestStore(t)
	ctx := context.Background()

	run, err := svc.SaveRun(ctx, sampleReport(), 600)
	require.NoError(t, err)
	require.NotZero(t, run.ID)
	assert.Equal(t, 600, run.TicketCount)
	assert.Equal(t, 2, run.StrategiesCompleted)
	assert.Equal(t, 1, run.StrategiesFailed)

	latest, results, err := svc.LatestRun(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, run.ID, latest.ID)
	assert.Equal(t, "model_not_fitted", latest.Errors["baseline"])

	require.Len(t, results, 2)
	// Results come back ROI-descending.
	assert.Equal(t, simulationdomain.StrategyCombo, results[0].Strategy)
	require.NotNil(t, results[0].PaybackMonths)
	assert.InDelta(t, 60, *results[0].PaybackMonths, 1e-9)
	assert.InDelta(t, 0.05, results[0].Figures["current_adoption_rate"].(float64), 1e-9)
	assert.NotEmpty(t, results[0].Breakdown)

	// An unrecoverable payback is stored as NULL.
	assert.Nil(t, results[1].PaybackMonths)
}

func TestLatestRun_Empty(t *testing.T) {
	svc := newTestStore(t)

	run, results, err := svc.LatestRun(context.Background())
	require.NoError(t, err)
	assert.Nil(t, run)
	assert.Nil(t, results)
}

func TestListRuns_Pagination(t *testing.T) {
	svc := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.SaveRun(ctx, sampleReport(), 100+i)
		require.NoError(t, err)
	}

	first, info, err := svc.ListRuns(ctx, pagination.Pagination{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.True(t, info.HasMore)
	// Newest first.
	assert.True(t, first[0].ID > first[1].ID)

	second, info, err := svc.ListRuns(ctx, pagination.Pagination{PageSize: 2, PageToken: info.NextPageToken})
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.True(t, second[0].ID < first[1].ID)
	assert.True(t, info.HasMore)

	third, info, err := svc.ListRuns(ctx, pagination.Pagination{PageSize: 2, PageToken: info.NextPageToken})
	require.NoError(t, err)
	assert.Len(t, third, 1)
	assert.False(t, info.HasMore)
}

func TestRunStore_Disabled(t *testing.T) {
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc, err := NewService(ServiceParam{Log: zap.NewNop(), DB: nil, Node: node})
	require.NoError(t, err)

	_, err = svc.SaveRun(context.Background(), sampleReport(), 10)
	assert.ErrorIs(t, err, domain.ErrPersistenceDisabled)

	_, _, err = svc.LatestRun(context.Background())
	assert.ErrorIs(t, err, domain.ErrPersistenceDisabled)
}
