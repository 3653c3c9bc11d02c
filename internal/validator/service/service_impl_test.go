package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	comboservice "github.com/mercadolito/strategia/internal/combo/service"
	"github.com/mercadolito/strategia/internal/config"
	crosssellservice "github.com/mercadolito/strategia/internal/crosssell/service"
	"github.com/mercadolito/strategia/internal/dataset"
	fidelizacionservice "github.com/mercadolito/strategia/internal/fidelizacion/service"
	marcapropiaservice "github.com/mercadolito/strategia/internal/marcapropia/service"
	predictorservice "github.com/mercadolito/strategia/internal/predictor/service"
	simulationdomain "github.com/mercadolito/strategia/internal/simulation/domain"
	upsellingservice "github.com/mercadolito/strategia/internal/upselling/service"
	"github.com/mercadolito/strategia/internal/validator/domain"
)

func newTestValidator(cfg config.StrategyConfig) domain.Service {
	log := zap.NewNop()
	return NewService(ServiceParam{
		Cfg:          cfg,
		Log:          log,
		Predictor:    predictorservice.NewService(predictorservice.ServiceParam{Cfg: cfg, Log: log}),
		Combo:        comboservice.NewService(comboservice.ServiceParam{Cfg: cfg, Log: log}),
		MarcaPropia:  marcapropiaservice.NewService(marcapropiaservice.ServiceParam{Cfg: cfg, Log: log}),
		CrossSell:    crosssellservice.NewService(crosssellservice.ServiceParam{Cfg: cfg, Log: log}),
		Upselling:    upsellingservice.NewService(upsellingservice.ServiceParam{Cfg: cfg, Log: log}),
		Fidelizacion: fidelizacionservice.NewService(fidelizacionservice.ServiceParam{Cfg: cfg, Log: log}),
	})
}

// engineInputs builds a small but fully populated dataset where every
// strategy has signal.
func engineInputs() *dataset.Inputs {
	var tickets []dataset.Ticket
	var detail []dataset.DetailLine

	for i := 0; i < 30; i++ {
		id := fmt.Sprintf("C%04d", i)
		tickets = append(tickets, dataset.Ticket{
			TicketID: id, Revenue: 7_000, Margin: 2_000,
			ItemCount: 4, DistinctSKUs: 3,
			Weekday: "Friday", DayType: "weekday", PaymentMedium: "cash",
		})
		detail = append(detail,
			dataset.DetailLine{TicketID: id, Description: "FERNET BRANCA 750", Category: "BEBIDAS", Revenue: 4_500, Margin: 1_300},
			dataset.DetailLine{TicketID: id, Description: "COCA COLA 2.25L", Category: "BEBIDAS", Revenue: 2_500, Margin: 700},
		)
	}
	for i := 0; i < 570; i++ {
		id := fmt.Sprintf("N%04d", i)
		tickets = append(tickets, dataset.Ticket{
			TicketID: id, Revenue: 4_000 + float64(i%10)*1_500, Margin: 1_200 + float64(i%10)*450,
			ItemCount: 1 + i%6, DistinctSKUs: 1 + i%4,
			Weekday: "Friday", DayType: "weekday", PaymentMedium: "card",
		})
		detail = append(detail, dataset.DetailLine{
			TicketID: id, Description: "PAN LACTAL", Category: "ALMACEN", Revenue: 4_000, Margin: 1_200,
		})
	}

	rules := []dataset.AssociationRule{
		{Antecedent: "FERNET BRANCA 750", Consequent: "COCA COLA 2.25L", Support: 0.012, AntecedentSupport: 0.05, Confidence: 0.24, Lift: 8.1},
		{Antecedent: "CARBON", Consequent: "CARNE", Support: 0.008, AntecedentSupport: 0.02, Confidence: 0.18, Lift: 12.3},
	}
	pareto := []dataset.ParetoEntry{
		{Category: "BEBIDAS", Revenue: 1_800_000, Margin: 540_000, Classification: "A"},
		{Category: "ALMACEN", Revenue: 1_200_000, Margin: 300_000, Classification: "A"},
		{Category: "LIMPIEZA", Revenue: 150_000, Margin: 45_000, Classification: "C"},
	}

	return &dataset.Inputs{
		Tickets: dataset.NewTickets(tickets),
		Detail:  dataset.NewDetailLines(detail),
		Rules:   dataset.NewAssociationRules(rules),
		Pareto:  dataset.NewCategoryPareto(pareto),
	}
}

func TestRunAllStrategies(t *testing.T) {
	cfg := config.DefaultStrategyConfig()
	cfg.Predictor = config.PredictorConfig{Estimators: 20, MaxDepth: 3, LearningRate: 0.2, Subsample: 1.0}
	svc := newTestValidator(cfg)

	report, err := svc.RunAllStrategies(context.Background(), engineInputs())
	require.NoError(t, err)

	// One summary row per strategy, none failed.
	require.Len(t, report.Summary, 5)
	assert.Empty(t, report.Errors)
	require.NotNil(t, report.Baseline)

	seen := map[string]bool{}
	for _, row := range report.Summary {
		seen[row.Strategy] = true
	}
	for _, name := range []string{
		simulationdomain.StrategyCombo,
		simulationdomain.StrategyMarcaPropia,
		simulationdomain.StrategyCrossSell,
		simulationdomain.StrategyUpselling,
		simulationdomain.StrategyFidelizacion,
	} {
		assert.Truef(t, seen[name], "missing summary row for %s", name)
	}

	// Sorted non-increasing by ROI.
	for i := 1; i < len(report.Summary); i++ {
		assert.GreaterOrEqual(t, report.Summary[i-1].ROIPercentage, report.Summary[i].ROIPercentage)
	}
	require.Len(t, report.Results, 5)
	assert.Equal(t, report.Summary[0].Strategy, report.Results[0].Strategy)

	assert.False(t, report.CompletedAt.Before(report.StartedAt))
}

func TestRunAllStrategies_SingleUse(t *testing.T) {
	cfg := config.DefaultStrategyConfig()
	cfg.Predictor = config.PredictorConfig{Estimators: 5, MaxDepth: 2, LearningRate: 0.3, Subsample: 1.0}
	svc := newTestValidator(cfg)

	_, err := svc.RunAllStrategies(context.Background(), engineInputs())
	require.NoError(t, err)

	_, err = svc.RunAllStrategies(context.Background(), engineInputs())
	assert.ErrorIs(t, err, domain.ErrRunAlreadyStarted)
}

func TestRunAllStrategies_EmptyTickets(t *testing.T) {
	svc := newTestValidator(config.DefaultStrategyConfig())

	inputs := engineInputs()
	inputs.Tickets = dataset.NewTickets(nil)

	_, err := svc.RunAllStrategies(context.Background(), inputs)
	assert.ErrorIs(t, err, domain.ErrEmptyTickets)

	// A rejected run leaves the validator reusable.
	_, err = svc.RunAllStrategies(context.Background(), engineInputs())
	assert.NoError(t, err)
}

func TestRunAllStrategies_FailureIsolation(t *testing.T) {
	cfg := config.DefaultStrategyConfig()
	cfg.Predictor = config.PredictorConfig{Estimators: 5, MaxDepth: 2, LearningRate: 0.3, Subsample: 1.0}
	svc := newTestValidator(cfg)

	// Poison the rule dataset: the cross-sell simulator fails on its
	// column check while every other strategy still completes.
	inputs := engineInputs()
	inputs.Rules.Columns = dataset.NewColumnSet(dataset.ColAntecedent)

	report, err := svc.RunAllStrategies(context.Background(), inputs)
	require.NoError(t, err)

	assert.Len(t, report.Summary, 4)
	require.Contains(t, report.Errors, simulationdomain.StrategyCrossSell)
	assert.Contains(t, report.Errors[simulationdomain.StrategyCrossSell], "missing required columns")
	for _, row := range report.Summary {
		assert.NotEqual(t, simulationdomain.StrategyCrossSell, row.Strategy)
	}
}

func TestExportResults(t *testing.T) {
	cfg := config.DefaultStrategyConfig()
	cfg.Predictor = config.PredictorConfig{Estimators: 5, MaxDepth: 2, LearningRate: 0.3, Subsample: 1.0}
	svc := newTestValidator(cfg)

	report, err := svc.RunAllStrategies(context.Background(), engineInputs())
	require.NoError(t, err)

	outDir := filepath.Join(t.TempDir(), "reports")
	require.NoError(t, svc.ExportResults(report, outDir))

	f, err := os.Open(filepath.Join(outDir, summaryFileName))
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 6)
	assert.Equal(t, []string{"Strategy", "Investment", "Incremental Monthly Margin", "ROI %", "Payback (months)", "Confidence %"}, records[0])

	// Summary rows carry the short strategy names.
	assert.Equal(t, shortStrategyName(report.Summary[0].Strategy), records[1][0])
	assert.NotContains(t, records[1][0], "Estrategia")

	raw, err := os.ReadFile(filepath.Join(outDir, detailFileName))
	require.NoError(t, err)

	var decoded domain.RunReport
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Len(t, decoded.Results, 5)
	assert.Equal(t, report.Summary[0].Strategy, decoded.Results[0].Strategy)
}

func TestShortStrategyName(t *testing.T) {
	assert.Equal(t, "Combos Focalizados (Fernet+Coca)", shortStrategyName(simulationdomain.StrategyCombo))
	assert.Equal(t, "Programa Fidelización", shortStrategyName(simulationdomain.StrategyFidelizacion))
	assert.Equal(t, "sin prefijo", shortStrategyName("sin prefijo"))
}

func TestFormatMonths(t *testing.T) {
	assert.Equal(t, "14.5", formatMonths(simulationdomain.Months(14.5)))
	assert.Equal(t, "inf", formatMonths(simulationdomain.MonthsInf()))
}
