package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/mercadolito/strategia/internal/runstore/domain"
	simulationdomain "github.com/mercadolito/strategia/internal/simulation/domain"
	validatordomain "github.com/mercadolito/strategia/internal/validator/domain"
	"github.com/mercadolito/strategia/pkg/db/option"
	"github.com/mercadolito/strategia/pkg/db/pagination"
	"github.com/mercadolito/strategia/pkg/repository"
)

type ServiceParam struct {
	fx.In

	Log  *zap.Logger
	DB   *gorm.DB
	Node *snowflake.Node
}

type service struct {
	log     *zap.Logger
	db      *gorm.DB
	node    *snowflake.Node
	runs    repository.Repository[domain.StrategyRun]
	results repository.Repository[domain.StrategyResultRecord]
}

func NewService(p ServiceParam) (domain.Service, error) {
	s := &service{
		log:  p.Log.Named("runstore.service"),
		db:   p.DB,
		node: p.Node,
	}
	if p.DB == nil {
		return s, nil
	}

	if err := p.DB.AutoMigrate(&domain.StrategyRun{}, &domain.StrategyResultRecord{}); err != nil {
		return nil, fmt.Errorf("migrate run store: %w", err)
	}
	s.runs = repository.ProvideStore[domain.StrategyRun](p.DB)
	s.results = repository.ProvideStore[domain.StrategyResultRecord](p.DB)
	return s, nil
}

func (s *service) SaveRun(ctx context.Context, report *validatordomain.RunReport, ticketCount int) (*domain.StrategyRun, error) {
	if s.db == nil {
		return nil, domain.ErrPersistenceDisabled
	}

	run := &domain.StrategyRun{
		ID:                  s.node.Generate(),
		StartedAt:           report.StartedAt,
		CompletedAt:         report.CompletedAt,
		TicketCount:         ticketCount,
		StrategiesCompleted: len(report.Summary),
		StrategiesFailed:    len(report.Errors),
		Errors:              errorsMap(report.Errors),
	}

	records := make([]*domain.StrategyResultRecord, 0, len(report.Results))
	for _, result := range report.Results {
		record, err := s.toRecord(run.ID, result)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.runs.WithTrx(tx).Create(ctx, run); err != nil {
			return err
		}
		return s.results.WithTrx(tx).BatchCreate(ctx, records)
	})
	if err != nil {
		return nil, fmt.Errorf("save run: %w", err)
	}

	s.log.Info("run persisted",
		zap.Int64("run_id", run.ID.Int64()),
		zap.Int("results", len(records)),
	)
	return run, nil
}

func (s *service) LatestRun(ctx context.Context) (*domain.StrategyRun, []*domain.StrategyResultRecord, error) {
	if s.db == nil {
		return nil, nil, domain.ErrPersistenceDisabled
	}

	run, err := s.runs.FindOne(ctx, &domain.StrategyRun{}, option.WithOrderBy("id desc"))
	if err != nil {
		return nil, nil, err
	}
	if run == nil {
		return nil, nil, nil
	}

	results, err := s.results.Find(ctx, &domain.StrategyResultRecord{RunID: run.ID},
		option.WithOrderBy("roi_percentage desc"),
	)
	if err != nil {
		return nil, nil, err
	}
	return run, results, nil
}

func (s *service) ListRuns(ctx context.Context, p pagination.Pagination) ([]*domain.StrategyRun, *pagination.PageInfo, error) {
	if s.db == nil {
		return nil, nil, domain.ErrPersistenceDisabled
	}

	size := p.Size()
	opts := []option.QueryOption{
		option.WithOrderBy("id desc"),
		option.WithLimit(size + 1),
	}
	if p.PageToken != "" {
		cursor, err := pagination.DecodeCursor(p.PageToken)
		if err != nil {
			return nil, nil, fmt.Errorf("decode page token: %w", err)
		}
		id, err := snowflake.ParseString(cursor.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("decode page token: %w", err)
		}
		opts = append(opts, option.WithWhere("id < ?", id))
	}

	runs, err := s.runs.Find(ctx, &domain.StrategyRun{}, opts...)
	if err != nil {
		return nil, nil, err
	}

	runs, info := pagination.BuildCursorPageInfo(runs, size, func(r *domain.StrategyRun) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{ID: r.ID.String()})
		return token
	})
	return runs, info, nil
}

func (s *service) toRecord(runID snowflake.ID, result simulationdomain.Result) (*domain.StrategyResultRecord, error) {
	breakdown, err := json.Marshal(result.Breakdown)
	if err != nil {
		return nil, fmt.Errorf("marshal breakdown: %w", err)
	}

	return &domain.StrategyResultRecord{
		ID:                        s.node.Generate(),
		RunID:                     runID,
		Strategy:                  result.Strategy,
		Investment:                result.Investment,
		IncrementalRevenueMonthly: result.IncrementalRevenueMonthly,
		IncrementalMarginMonthly:  result.IncrementalMarginMonthly,
		ROIPercentage:             result.ROIPercentage,
		PaybackMonths:             paybackValue(result.PaybackMonths),
		ConfidenceScore:           result.ConfidenceScore,
		Figures:                   figuresMap(result.Figures),
		Breakdown:                 datatypes.JSON(breakdown),
	}, nil
}

// paybackValue maps an unrecoverable payback to SQL NULL.
func paybackValue(m simulationdomain.Months) *float64 {
	v := float64(m)
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

func errorsMap(errs map[string]string) datatypes.JSONMap {
	if len(errs) == 0 {
		return nil
	}
	out := datatypes.JSONMap{}
	for k, v := range errs {
		out[k] = v
	}
	return out
}

func figuresMap(figures map[string]float64) datatypes.JSONMap {
	if len(figures) == 0 {
		return nil
	}
	out := datatypes.JSONMap{}
	for k, v := range figures {
		out[k] = v
	}
	return out
}
