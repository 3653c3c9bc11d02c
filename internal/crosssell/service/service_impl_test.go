package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mercadolito/strategia/internal/config"
	"github.com/mercadolito/strategia/internal/dataset"
	simulationdomain "github.com/mercadolito/strategia/internal/simulation/domain"
)

func newTestService(cfg config.StrategyConfig) *Service {
	return NewService(ServiceParam{Cfg: cfg, Log: zap.NewNop()}).(*Service)
}

func TestIdentifyOpportunities(t *testing.T) {
	svc := newTestService(config.DefaultStrategyConfig())

	rules := dataset.NewAssociationRules([]dataset.AssociationRule{
		{Antecedent: "FERNET", Consequent: "COCA", Lift: 8.1, Confidence: 0.24, AntecedentSupport: 0.05},
		{Antecedent: "PAN", Consequent: "FIAMBRE", Lift: 4.0, Confidence: 0.20, AntecedentSupport: 0.10},
		{Antecedent: "CARBON", Consequent: "CARNE", Lift: 12.3, Confidence: 0.18, AntecedentSupport: 0.02},
		{Antecedent: "QUESO", Consequent: "VINO", Lift: 6.5, Confidence: 0.45, AntecedentSupport: 0.03},
	})

	got, err := svc.IdentifyOpportunities(rules, 5.0, 0.30)
	require.NoError(t, err)

	// Lift must exceed the floor and confidence must still have headroom;
	// survivors come back sorted by lift descending.
	require.Len(t, got, 2)
	assert.Equal(t, "CARBON", got[0].Antecedent)
	assert.Equal(t, "FERNET", got[1].Antecedent)
}

func TestIdentifyOpportunities_MissingColumns(t *testing.T) {
	svc := newTestService(config.DefaultStrategyConfig())

	rules := &dataset.AssociationRules{
		Rows:    []dataset.AssociationRule{{Antecedent: "FERNET"}},
		Columns: dataset.NewColumnSet(dataset.ColAntecedent, dataset.ColConsequent),
	}

	_, err := svc.IdentifyOpportunities(rules, 5.0, 0.30)

	var missing *dataset.MissingColumnsError
	require.ErrorAs(t, err, &missing)
	assert.Contains(t, missing.Columns, dataset.ColLift)
}

func TestSimulateLayoutChange(t *testing.T) {
	cfg := config.DefaultStrategyConfig()
	svc := newTestService(cfg)

	opportunities := []dataset.AssociationRule{
		{Antecedent: "FERNET", Consequent: "COCA", Lift: 8.1, Confidence: 0.20, AntecedentSupport: 0.05},
	}

	result, err := svc.SimulateLayoutChange(context.Background(), opportunities, 1.5, 2_800, 0.32)
	require.NoError(t, err)

	assert.Equal(t, simulationdomain.StrategyCrossSell, result.Strategy)
	assert.Equal(t, 80_000.0, result.Investment)

	// 306000/12 monthly tickets, 5% carry the antecedent, confidence
	// 0.20 -> 0.30: 127.5 incremental purchases at 2800 each.
	assert.InDelta(t, 127.5*2_800, result.IncrementalRevenueMonthly, 1e-6)
	assert.InDelta(t, 127.5*2_800*0.32, result.IncrementalMarginMonthly, 1e-6)
	assert.InDelta(t, 1.5, result.Figures["avg_confidence_lift"], 1e-9)
	assert.InDelta(t, 1, result.Figures["top_pairs_implemented"], 1e-9)

	require.Len(t, result.Breakdown, 1)
	assert.InDelta(t, 0.30, result.Breakdown[0]["target_confidence"].(float64), 1e-9)
}

func TestSimulateLayoutChange_ConfidenceCap(t *testing.T) {
	svc := newTestService(config.DefaultStrategyConfig())

	// 0.40 * 1.5 = 0.60 exceeds the cap, so the target clamps to 0.50.
	opportunities := []dataset.AssociationRule{
		{Antecedent: "ASADO", Consequent: "CARBON", Lift: 9.0, Confidence: 0.40, AntecedentSupport: 0.04},
	}

	result, err := svc.SimulateLayoutChange(context.Background(), opportunities, 1.5, 2_800, 0.32)
	require.NoError(t, err)

	require.Len(t, result.Breakdown, 1)
	assert.InDelta(t, 0.50, result.Breakdown[0]["target_confidence"].(float64), 1e-9)
}

func TestSimulateLayoutChange_TopPairsLimit(t *testing.T) {
	cfg := config.DefaultStrategyConfig()
	cfg.CrossSell.TopPairs = 2
	svc := newTestService(cfg)

	opportunities := []dataset.AssociationRule{
		{Antecedent: "A", Consequent: "B", Lift: 10, Confidence: 0.10, AntecedentSupport: 0.02},
		{Antecedent: "C", Consequent: "D", Lift: 9, Confidence: 0.10, AntecedentSupport: 0.02},
		{Antecedent: "E", Consequent: "F", Lift: 8, Confidence: 0.10, AntecedentSupport: 0.02},
	}

	result, err := svc.SimulateLayoutChange(context.Background(), opportunities, 1.5, 2_800, 0.32)
	require.NoError(t, err)

	assert.Len(t, result.Breakdown, 2)
	assert.InDelta(t, 3, result.Figures["num_opportunities"], 1e-9)
	assert.InDelta(t, 2, result.Figures["top_pairs_implemented"], 1e-9)
}

func TestSimulateLayoutChange_NoOpportunities(t *testing.T) {
	svc := newTestService(config.DefaultStrategyConfig())

	result, err := svc.SimulateLayoutChange(context.Background(), nil, 1.5, 2_800, 0.32)
	require.NoError(t, err)

	assert.Equal(t, 0.0, result.ROIPercentage)
	assert.Equal(t, 0.0, result.Figures["num_opportunities"])
	assert.True(t, result.PaybackMonths.IsInf())
}
