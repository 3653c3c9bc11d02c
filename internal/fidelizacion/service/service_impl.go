package service

import (
	"context"

	"github.com/mercadolito/strategia/internal/config"
	"github.com/mercadolito/strategia/internal/dataset"
	fidelizaciondomain "github.com/mercadolito/strategia/internal/fidelizacion/domain"
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

func NewService(p ServiceParam) fidelizaciondomain.Service {
	return &Service{
		cfg: p.Cfg,
		log: p.Log.Named("fidelizacion.service"),
	}
}

func (s *Service) EstimateCustomerBase(tickets *dataset.Tickets) float64 {
	if tickets.Len() == 0 {
		return 0
	}
	monthlyTickets := float64(tickets.Len()) / monthsPerYear
	return monthlyTickets * s.cfg.Fidelizacion.CustomerProxyRatio
}

func (s *Service) SimulateLoyaltyProgram(ctx context.Context, tickets *dataset.Tickets,
	enrollmentRate, frequencyLift, ticketLift, discountPct, setupInvestment float64) (simulationdomain.Result, error) {

	if err := tickets.Require(dataset.ColRevenue, dataset.ColMargin); err != nil {
		return simulationdomain.Result{}, err
	}
	if tickets.Len() == 0 {
		return simulationdomain.Result{}, simulationdomain.ErrEmptyTickets
	}

	monthlyCustomers := s.EstimateCustomerBase(tickets)
	enrolledCustomers := monthlyCustomers * enrollmentRate

	var sumRevenue, sumMargin float64
	for _, t := range tickets.Rows {
		sumRevenue += t.Revenue
		sumMargin += t.Margin
	}
	avgTicket := sumRevenue / float64(tickets.Len())
	avgMargin := sumMargin / float64(tickets.Len())

	baselineFrequency := s.cfg.Fidelizacion.BaselineVisitFrequency
	newFrequency := baselineFrequency * (1 + frequencyLift)
	incrementalVisits := enrolledCustomers * (newFrequency - baselineFrequency)

	incrementalTicketValue := enrolledCustomers * baselineFrequency * avgTicket * ticketLift

	incrementalRevenue := incrementalVisits*avgTicket + incrementalTicketValue
	marginRatio := 0.0
	if avgTicket != 0 {
		marginRatio = avgMargin / avgTicket
	}
	grossIncrementalMargin := incrementalRevenue * marginRatio

	enrolledSales := enrolledCustomers * newFrequency * avgTicket * (1 + ticketLift)
	discountCost := enrolledSales * discountPct

	netMarginMonthly := grossIncrementalMargin - discountCost

	return simulationdomain.Result{
		Strategy:                  simulationdomain.StrategyFidelizacion,
		Investment:                setupInvestment,
		IncrementalRevenueMonthly: incrementalRevenue,
		IncrementalMarginMonthly:  netMarginMonthly,
		ROIPercentage:             simulationdomain.AnnualizedROI(netMarginMonthly, setupInvestment),
		PaybackMonths:             simulationdomain.PaybackMonths(setupInvestment, netMarginMonthly),
		ConfidenceScore:           s.cfg.DefaultConfidence,
		Figures: map[string]float64{
			"estimated_monthly_customers":      monthlyCustomers,
			"enrolled_customers":               enrolledCustomers,
			"enrollment_rate":                  enrollmentRate,
			"frequency_lift":                   frequencyLift,
			"ticket_lift":                      ticketLift,
			"incremental_visits_monthly":       incrementalVisits,
			"incremental_margin_gross_monthly": grossIncrementalMargin,
			"discount_cost_monthly":            discountCost,
			"net_margin_monthly":               netMarginMonthly,
		},
	}, nil
}
