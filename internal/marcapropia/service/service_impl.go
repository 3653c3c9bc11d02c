package service

import (
	"context"
	"strings"

	"github.com/mercadolito/strategia/internal/config"
	"github.com/mercadolito/strategia/internal/dataset"
	marcapropiadomain "github.com/mercadolito/strategia/internal/marcapropia/domain"
	simulationdomain "github.com/mercadolito/strategia/internal/simulation/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const monthsPerYear = 12.0

type Service struct {
	cfg config.StrategyConfig
	log *zap.Logger
}

type ServiceParam struct {
	fx.In

	Cfg config.StrategyConfig
	Log *zap.Logger
}

func NewService(p ServiceParam) marcapropiadomain.Service {
	return &Service{
		cfg: p.Cfg,
		log: p.Log.Named("marcapropia.service"),
	}
}

func (s *Service) EstimatePriceElasticity(category string) float64 {
	category = strings.ToUpper(strings.TrimSpace(category))
	if elasticity, ok := s.cfg.MarcaPropia.Elasticities[category]; ok {
		return elasticity
	}
	return s.cfg.MarcaPropia.ElasticityFallback
}

func (s *Service) SimulateMarcaPropia(ctx context.Context, pareto *dataset.CategoryPareto, detail *dataset.DetailLines,
	conversionRate, marginGainPoints, priceReductionPct float64) (simulationdomain.Result, error) {

	if err := pareto.Require(dataset.ColCategory, dataset.ColClassification); err != nil {
		return simulationdomain.Result{}, err
	}

	investment := s.cfg.MarcaPropia.Investment
	revenueByCategory, marginPctByCategory := s.categoryAggregates(detail)

	var impacts []marcapropiadomain.CategoryImpact
	for _, entry := range pareto.Rows {
		if strings.ToUpper(entry.Classification) != "A" {
			continue
		}

		annualRevenue := entry.Revenue
		if !pareto.Columns.Has(dataset.ColRevenue) {
			annualRevenue = revenueByCategory[entry.Category]
		}
		marginPct, ok := marginPctByCategory[entry.Category]
		if !ok {
			marginPct = s.cfg.MarcaPropia.DefaultMarginPct
		}

		elasticity := s.EstimatePriceElasticity(entry.Category)
		volumeLift := elasticity * -priceReductionPct
		convertible := annualRevenue * conversionRate
		adjusted := convertible * (1 + volumeLift) * (1 - priceReductionPct)
		incremental := adjusted * (marginGainPoints / 100)

		impacts = append(impacts, marcapropiadomain.CategoryImpact{
			Category:                entry.Category,
			AnnualRevenue:           annualRevenue,
			ConvertibleRevenue:      convertible,
			Elasticity:              elasticity,
			VolumeLift:              volumeLift,
			AdjustedRevenue:         adjusted,
			CurrentMarginPct:        marginPct,
			IncrementalMarginAnnual: incremental,
		})
	}

	if len(impacts) == 0 {
		s.log.Info("no A-tier categories, returning zero impact")
		result := simulationdomain.ZeroImpact(simulationdomain.StrategyMarcaPropia, investment)
		result.Figures["incremental_margin_annual"] = 0
		result.Figures["total_convertible_revenue"] = 0
		return result, nil
	}

	var totalIncremental, totalConvertible, sumElasticity, sumVolumeLift float64
	breakdown := make([]simulationdomain.Record, len(impacts))
	for i, impact := range impacts {
		totalIncremental += impact.IncrementalMarginAnnual
		totalConvertible += impact.ConvertibleRevenue
		sumElasticity += impact.Elasticity
		sumVolumeLift += impact.VolumeLift
		breakdown[i] = simulationdomain.Record{
			"category":                  impact.Category,
			"annual_revenue":            impact.AnnualRevenue,
			"convertible_revenue":       impact.ConvertibleRevenue,
			"elasticity":                impact.Elasticity,
			"volume_lift":               impact.VolumeLift,
			"adjusted_revenue":          impact.AdjustedRevenue,
			"current_margin_pct":        impact.CurrentMarginPct,
			"incremental_margin_annual": impact.IncrementalMarginAnnual,
		}
	}
	n := float64(len(impacts))
	monthlyMargin := totalIncremental / monthsPerYear

	return simulationdomain.Result{
		Strategy:                 simulationdomain.StrategyMarcaPropia,
		Investment:               investment,
		IncrementalMarginMonthly: monthlyMargin,
		// ROI stays non-annualized: the margin base is already annual.
		ROIPercentage:   simulationdomain.SimpleROI(totalIncremental, investment),
		PaybackMonths:   simulationdomain.PaybackMonths(investment, monthlyMargin),
		ConfidenceScore: s.cfg.DefaultConfidence,
		Figures: map[string]float64{
			"incremental_margin_annual": totalIncremental,
			"total_convertible_revenue": totalConvertible,
			"avg_elasticity":            sumElasticity / n,
			"avg_volume_lift":           sumVolumeLift / n,
			"target_category_count":     n,
		},
		Breakdown: breakdown,
	}, nil
}

// categoryAggregates derives per-category annual revenue and realized
// margin percentage from detail lines, used when the Pareto dataset does
// not carry them.
func (s *Service) categoryAggregates(detail *dataset.DetailLines) (map[string]float64, map[string]float64) {
	revenue := map[string]float64{}
	margin := map[string]float64{}
	for _, line := range detail.Rows {
		revenue[line.Category] += line.Revenue
		margin[line.Category] += line.Margin
	}
	marginPct := make(map[string]float64, len(revenue))
	for category, rev := range revenue {
		if rev > 0 {
			marginPct[category] = margin[category] / rev
		}
	}
	return revenue, marginPct
}
