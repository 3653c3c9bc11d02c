package service

import (
	"context"
	"math/rand"

	"github.com/mercadolito/strategia/internal/config"
	"github.com/mercadolito/strategia/internal/dataset"
	predictordomain "github.com/mercadolito/strategia/internal/predictor/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Service fits two independent gradient-boosted regressors, one for ticket
// revenue and one for margin. The feature schema frozen at Train time is the
// prediction-time contract.
type Service struct {
	cfg config.StrategyConfig
	log *zap.Logger

	schema       *featureSchema
	revenueModel *gbtRegressor
	marginModel  *gbtRegressor
}

type ServiceParam struct {
	fx.In

	Cfg config.StrategyConfig
	Log *zap.Logger
}

func NewService(p ServiceParam) predictordomain.Service {
	return &Service{
		cfg: p.Cfg,
		log: p.Log.Named("predictor.service"),
	}
}

func (s *Service) Train(ctx context.Context, tickets *dataset.Tickets) (predictordomain.Diagnostics, error) {
	if err := tickets.Require(
		dataset.ColRevenue, dataset.ColMargin,
		dataset.ColItemCount, dataset.ColDistinctSKUs,
		dataset.ColWeekday, dataset.ColDayType, dataset.ColPaymentMedium,
	); err != nil {
		return predictordomain.Diagnostics{}, err
	}
	if tickets.Len() == 0 {
		return predictordomain.Diagnostics{}, predictordomain.ErrEmptyTickets
	}

	s.schema = fitSchema(tickets.Rows)
	matrix := buildMatrix(s.schema, tickets.Rows)

	revenue := make([]float64, tickets.Len())
	margin := make([]float64, tickets.Len())
	for i, t := range tickets.Rows {
		revenue[i] = t.Revenue
		margin[i] = t.Margin
	}

	s.revenueModel = newGBT(s.cfg.Predictor)
	s.revenueModel.fit(matrix, revenue, rand.New(rand.NewSource(s.cfg.Seed)))
	s.marginModel = newGBT(s.cfg.Predictor)
	s.marginModel.fit(matrix, margin, rand.New(rand.NewSource(s.cfg.Seed)))

	predRevenue := s.revenueModel.predictBatch(matrix)
	predMargin := s.marginModel.predictBatch(matrix)

	diag := predictordomain.Diagnostics{
		R2Revenue:  rSquared(revenue, predRevenue),
		R2Margin:   rSquared(margin, predMargin),
		MAERevenue: meanAbsError(revenue, predRevenue),
		MAEMargin:  meanAbsError(margin, predMargin),
	}
	s.log.Info("baseline models fitted",
		zap.Int("tickets", tickets.Len()),
		zap.Int("features", s.schema.width()),
		zap.Float64("r2_revenue", diag.R2Revenue),
		zap.Float64("r2_margin", diag.R2Margin),
	)
	return diag, nil
}

func (s *Service) Predict(ctx context.Context, tickets *dataset.Tickets) ([]float64, []float64, error) {
	if s.schema == nil {
		return nil, nil, predictordomain.ErrNotFitted
	}
	matrix := buildMatrix(s.schema, tickets.Rows)
	return s.revenueModel.predictBatch(matrix), s.marginModel.predictBatch(matrix), nil
}
