package service

import (
	"context"
	"sort"

	"github.com/mercadolito/strategia/internal/config"
	crossselldomain "github.com/mercadolito/strategia/internal/crosssell/domain"
	"github.com/mercadolito/strategia/internal/dataset"
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

func NewService(p ServiceParam) crossselldomain.Service {
	return &Service{
		cfg: p.Cfg,
		log: p.Log.Named("crosssell.service"),
	}
}

func (s *Service) IdentifyOpportunities(rules *dataset.AssociationRules, minLift, maxCurrentConfidence float64) ([]dataset.AssociationRule, error) {
	if err := rules.Require(
		dataset.ColAntecedent, dataset.ColConsequent,
		dataset.ColAntecedentSupp, dataset.ColConfidence, dataset.ColLift,
	); err != nil {
		return nil, err
	}

	var opportunities []dataset.AssociationRule
	for _, rule := range rules.Rows {
		if rule.Lift > minLift && rule.Confidence < maxCurrentConfidence {
			opportunities = append(opportunities, rule)
		}
	}
	sort.SliceStable(opportunities, func(a, b int) bool {
		return opportunities[a].Lift > opportunities[b].Lift
	})
	return opportunities, nil
}

func (s *Service) SimulateLayoutChange(ctx context.Context, opportunities []dataset.AssociationRule,
	confidenceMultiplier, avgConsequentPrice, avgMarginRate float64) (simulationdomain.Result, error) {

	investment := s.cfg.CrossSell.Investment
	if len(opportunities) == 0 {
		s.log.Info("no cross-sell opportunities, returning zero impact")
		result := simulationdomain.ZeroImpact(simulationdomain.StrategyCrossSell, investment)
		result.Figures["num_opportunities"] = 0
		result.Figures["top_pairs_implemented"] = 0
		result.Figures["avg_confidence_lift"] = 0
		return result, nil
	}

	top := opportunities
	if len(top) > s.cfg.CrossSell.TopPairs {
		top = top[:s.cfg.CrossSell.TopPairs]
	}

	monthlyTickets := s.cfg.AnnualTicketBaseline / monthsPerYear

	var totalMargin, totalRevenue, sumConfidenceLift float64
	confidenceLiftN := 0
	breakdown := make([]simulationdomain.Record, 0, len(top))
	for _, rule := range top {
		targetConfidence := rule.Confidence * confidenceMultiplier
		if targetConfidence > s.cfg.CrossSell.ConfidenceCap {
			targetConfidence = s.cfg.CrossSell.ConfidenceCap
		}

		ticketsWithAntecedent := monthlyTickets * rule.AntecedentSupport
		incrementalPurchases := (targetConfidence - rule.Confidence) * ticketsWithAntecedent
		if incrementalPurchases < 0 {
			incrementalPurchases = 0
		}
		incrementalRevenue := incrementalPurchases * avgConsequentPrice
		incrementalMargin := incrementalRevenue * avgMarginRate

		totalRevenue += incrementalRevenue
		totalMargin += incrementalMargin
		if rule.Confidence > 0 {
			sumConfidenceLift += targetConfidence / rule.Confidence
			confidenceLiftN++
		}

		breakdown = append(breakdown, simulationdomain.Record{
			"antecedent":                    rule.Antecedent,
			"consequent":                    rule.Consequent,
			"lift":                          rule.Lift,
			"current_confidence":            rule.Confidence,
			"target_confidence":             targetConfidence,
			"incremental_purchases_monthly": incrementalPurchases,
			"incremental_revenue_monthly":   incrementalRevenue,
			"incremental_margin_monthly":    incrementalMargin,
		})
	}

	avgConfidenceLift := 0.0
	if confidenceLiftN > 0 {
		avgConfidenceLift = sumConfidenceLift / float64(confidenceLiftN)
	}

	return simulationdomain.Result{
		Strategy:                  simulationdomain.StrategyCrossSell,
		Investment:                investment,
		IncrementalRevenueMonthly: totalRevenue,
		IncrementalMarginMonthly:  totalMargin,
		ROIPercentage:             simulationdomain.AnnualizedROI(totalMargin, investment),
		PaybackMonths:             simulationdomain.PaybackMonths(investment, totalMargin),
		ConfidenceScore:           s.cfg.DefaultConfidence,
		Figures: map[string]float64{
			"num_opportunities":     float64(len(opportunities)),
			"top_pairs_implemented": float64(len(breakdown)),
			"avg_confidence_lift":   avgConfidenceLift,
		},
		Breakdown: breakdown,
	}, nil
}
