package service

import (
	"context"

	"github.com/mercadolito/strategia/internal/config"
	"github.com/mercadolito/strategia/internal/dataset"
	simulationdomain "github.com/mercadolito/strategia/internal/simulation/domain"
	upsellingdomain "github.com/mercadolito/strategia/internal/upselling/domain"
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

func NewService(p ServiceParam) upsellingdomain.Service {
	return &Service{
		cfg: p.Cfg,
		log: p.Log.Named("upselling.service"),
	}
}

func (s *Service) ClassifyTickets(tickets *dataset.Tickets) ([]string, error) {
	if err := tickets.Require(dataset.ColRevenue); err != nil {
		return nil, err
	}
	labels := make([]string, tickets.Len())
	for i, t := range tickets.Rows {
		labels[i] = s.segmentFor(t.Revenue)
	}
	return labels, nil
}

func (s *Service) segmentFor(revenue float64) string {
	bounds := s.cfg.Upselling
	switch {
	case revenue < bounds.ConvenienciaBound:
		return upsellingdomain.SegmentConveniencia
	case revenue < bounds.EstandarBound:
		return upsellingdomain.SegmentEstandar
	case revenue < bounds.AbastecimientoBound:
		return upsellingdomain.SegmentAbastecimiento
	default:
		return upsellingdomain.SegmentGrande
	}
}

func (s *Service) SimulateUpselling(ctx context.Context, tickets *dataset.Tickets,
	successRate, avgUpsellValue, trainingInvestment, marginRate float64) (simulationdomain.Result, error) {

	labels, err := s.ClassifyTickets(tickets)
	if err != nil {
		return simulationdomain.Result{}, err
	}
	if tickets.Len() == 0 {
		return simulationdomain.Result{}, simulationdomain.ErrEmptyTickets
	}

	segmentCounts := map[string]int{}
	targetCount := 0
	for i, t := range tickets.Rows {
		segmentCounts[labels[i]]++
		if t.Revenue < s.cfg.Upselling.EstandarBound {
			targetCount++
		}
	}

	monthlyTargetTickets := float64(targetCount) / monthsPerYear
	successfulUpsells := monthlyTargetTickets * successRate
	incrementalRevenue := successfulUpsells * avgUpsellValue
	incrementalMargin := incrementalRevenue * marginRate

	breakdown := []simulationdomain.Record{
		{"segment": upsellingdomain.SegmentConveniencia, "tickets": segmentCounts[upsellingdomain.SegmentConveniencia], "targeted": true},
		{"segment": upsellingdomain.SegmentEstandar, "tickets": segmentCounts[upsellingdomain.SegmentEstandar], "targeted": true},
		{"segment": upsellingdomain.SegmentAbastecimiento, "tickets": segmentCounts[upsellingdomain.SegmentAbastecimiento], "targeted": false},
		{"segment": upsellingdomain.SegmentGrande, "tickets": segmentCounts[upsellingdomain.SegmentGrande], "targeted": false},
	}

	return simulationdomain.Result{
		Strategy:                  simulationdomain.StrategyUpselling,
		Investment:                trainingInvestment,
		IncrementalRevenueMonthly: incrementalRevenue,
		IncrementalMarginMonthly:  incrementalMargin,
		ROIPercentage:             simulationdomain.AnnualizedROI(incrementalMargin, trainingInvestment),
		PaybackMonths:             simulationdomain.PaybackMonths(trainingInvestment, incrementalMargin),
		ConfidenceScore:           s.cfg.DefaultConfidence,
		Figures: map[string]float64{
			"monthly_target_tickets":     monthlyTargetTickets,
			"success_rate":               successRate,
			"successful_upsells_monthly": successfulUpsells,
			"avg_upsell_value":           avgUpsellValue,
		},
		Breakdown: breakdown,
	}, nil
}
