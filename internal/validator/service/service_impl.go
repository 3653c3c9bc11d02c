package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	combodomain "github.com/mercadolito/strategia/internal/combo/domain"
	"github.com/mercadolito/strategia/internal/config"
	crossselldomain "github.com/mercadolito/strategia/internal/crosssell/domain"
	"github.com/mercadolito/strategia/internal/dataset"
	fidelizaciondomain "github.com/mercadolito/strategia/internal/fidelizacion/domain"
	marcapropiadomain "github.com/mercadolito/strategia/internal/marcapropia/domain"
	"github.com/mercadolito/strategia/internal/observability/metrics"
	predictordomain "github.com/mercadolito/strategia/internal/predictor/domain"
	simulationdomain "github.com/mercadolito/strategia/internal/simulation/domain"
	upsellingdomain "github.com/mercadolito/strategia/internal/upselling/domain"
	"github.com/mercadolito/strategia/internal/validator/domain"
)

const (
	summaryFileName = "strategy_roi_summary.csv"
	detailFileName  = "strategy_roi_details.json"
)

type ServiceParam struct {
	fx.In

	Cfg          config.StrategyConfig
	Log          *zap.Logger
	Metrics      *metrics.Metrics
	Predictor    predictordomain.Service
	Combo        combodomain.Service
	MarcaPropia  marcapropiadomain.Service
	CrossSell    crossselldomain.Service
	Upselling    upsellingdomain.Service
	Fidelizacion fidelizaciondomain.Service
}

type service struct {
	log     *zap.Logger
	cfg     config.StrategyConfig
	metrics *metrics.Metrics

	predictor    predictordomain.Service
	combo        combodomain.Service
	marcaPropia  marcapropiadomain.Service
	crossSell    crossselldomain.Service
	upselling    upsellingdomain.Service
	fidelizacion fidelizaciondomain.Service

	mu    sync.Mutex
	state domain.State
}

func NewService(p ServiceParam) domain.Service {
	return &service{
		log:          p.Log.Named("validator.service"),
		cfg:          p.Cfg,
		metrics:      p.Metrics,
		predictor:    p.Predictor,
		combo:        p.Combo,
		marcaPropia:  p.MarcaPropia,
		crossSell:    p.CrossSell,
		upselling:    p.Upselling,
		fidelizacion: p.Fidelizacion,
	}
}

func (s *service) RunAllStrategies(ctx context.Context, inputs *dataset.Inputs) (*domain.RunReport, error) {
	if err := s.begin(); err != nil {
		return nil, err
	}
	if inputs == nil || inputs.Tickets == nil || inputs.Tickets.Len() == 0 {
		s.reset()
		return nil, domain.ErrEmptyTickets
	}

	report := &domain.RunReport{
		StartedAt: time.Now().UTC(),
		Errors:    map[string]string{},
	}
	s.metrics.RecordRun(ctx, inputs.Tickets.Len())

	// The predictor is diagnostic only. A training failure is logged and
	// surfaced in the report, never fatal.
	if diag, err := s.predictor.Train(ctx, inputs.Tickets); err != nil {
		s.log.Warn("baseline predictor training failed", zap.Error(err))
		report.Errors["baseline"] = err.Error()
	} else {
		report.Baseline = &diag
	}

	runs := []struct {
		name string
		run  func() (simulationdomain.Result, error)
	}{
		{simulationdomain.StrategyCombo, func() (simulationdomain.Result, error) {
			return s.combo.SimulateROI(ctx, inputs.Tickets, inputs.Detail,
				s.cfg.Combo.TargetAdoptionRate, s.cfg.Combo.PromoInvestment)
		}},
		{simulationdomain.StrategyMarcaPropia, func() (simulationdomain.Result, error) {
			return s.marcaPropia.SimulateMarcaPropia(ctx, inputs.Pareto, inputs.Detail,
				s.cfg.MarcaPropia.ConversionRate, s.cfg.MarcaPropia.MarginGainPoints, s.cfg.MarcaPropia.PriceReductionPct)
		}},
		{simulationdomain.StrategyCrossSell, func() (simulationdomain.Result, error) {
			opportunities, err := s.crossSell.IdentifyOpportunities(inputs.Rules,
				s.cfg.CrossSell.MinLift, s.cfg.CrossSell.MaxCurrentConfidence)
			if err != nil {
				return simulationdomain.Result{}, err
			}
			return s.crossSell.SimulateLayoutChange(ctx, opportunities,
				s.cfg.CrossSell.ConfidenceMultiplier, s.cfg.CrossSell.AvgConsequentPrice, s.cfg.CrossSell.AvgMarginRate)
		}},
		{simulationdomain.StrategyUpselling, func() (simulationdomain.Result, error) {
			return s.upselling.SimulateUpselling(ctx, inputs.Tickets,
				s.cfg.Upselling.SuccessRate, s.cfg.Upselling.AvgUpsellValue,
				s.cfg.Upselling.TrainingInvestment, s.cfg.Upselling.MarginRate)
		}},
		{simulationdomain.StrategyFidelizacion, func() (simulationdomain.Result, error) {
			return s.fidelizacion.SimulateLoyaltyProgram(ctx, inputs.Tickets,
				s.cfg.Fidelizacion.EnrollmentRate, s.cfg.Fidelizacion.FrequencyLift,
				s.cfg.Fidelizacion.TicketLift, s.cfg.Fidelizacion.DiscountPct,
				s.cfg.Fidelizacion.SetupInvestment)
		}},
	}

	for _, r := range runs {
		started := time.Now()
		result, err := r.run()
		s.metrics.RecordStrategy(ctx, r.name, time.Since(started), err)
		if err != nil {
			s.log.Error("strategy simulation failed",
				zap.String("strategy", r.name),
				zap.Error(err),
			)
			report.Errors[r.name] = err.Error()
			continue
		}
		report.Results = append(report.Results, result)
		report.Summary = append(report.Summary, summaryRow(result))
	}

	sort.SliceStable(report.Summary, func(i, j int) bool {
		return report.Summary[i].ROIPercentage > report.Summary[j].ROIPercentage
	})
	sort.SliceStable(report.Results, func(i, j int) bool {
		return report.Results[i].ROIPercentage > report.Results[j].ROIPercentage
	})

	report.CompletedAt = time.Now().UTC()
	s.complete()

	s.log.Info("strategy run completed",
		zap.Int("strategies_completed", len(report.Summary)),
		zap.Int("strategies_failed", len(report.Errors)),
		zap.Duration("elapsed", report.CompletedAt.Sub(report.StartedAt)),
	)
	return report, nil
}

func (s *service) ExportResults(report *domain.RunReport, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := s.exportSummaryCSV(report, filepath.Join(outputDir, summaryFileName)); err != nil {
		return err
	}
	return s.exportDetailJSON(report, filepath.Join(outputDir, detailFileName))
}

func (s *service) exportSummaryCSV(report *domain.RunReport, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create summary csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"Strategy", "Investment", "Incremental Monthly Margin", "ROI %", "Payback (months)", "Confidence %"}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write summary header: %w", err)
	}
	for _, row := range report.Summary {
		record := []string{
			shortStrategyName(row.Strategy),
			formatAmount(row.Investment),
			formatAmount(row.IncrementalMarginMonthly),
			formatPct(row.ROIPercentage),
			formatMonths(row.PaybackMonths),
			formatPct(row.ConfidencePct),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write summary row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush summary csv: %w", err)
	}
	s.log.Info("summary exported", zap.String("path", path), zap.Int("rows", len(report.Summary)))
	return nil
}

func (s *service) exportDetailJSON(report *domain.RunReport, path string) error {
	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run report: %w", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("write detail json: %w", err)
	}
	s.log.Info("details exported", zap.String("path", path))
	return nil
}

func (s *service) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != domain.StateIdle {
		return domain.ErrRunAlreadyStarted
	}
	s.state = domain.StateRunning
	return nil
}

func (s *service) complete() {
	s.mu.Lock()
	s.state = domain.StateCompleted
	s.mu.Unlock()
}

func (s *service) reset() {
	s.mu.Lock()
	s.state = domain.StateIdle
	s.mu.Unlock()
}

func summaryRow(r simulationdomain.Result) domain.SummaryRow {
	return domain.SummaryRow{
		Strategy:                 r.Strategy,
		Investment:               r.Investment,
		IncrementalMarginMonthly: r.IncrementalMarginMonthly,
		ROIPercentage:            r.ROIPercentage,
		PaybackMonths:            r.PaybackMonths,
		ConfidencePct:            r.ConfidenceScore * 100,
	}
}

// shortStrategyName trims the "Estrategia #N:" prefix for the flat table.
func shortStrategyName(name string) string {
	if _, rest, found := strings.Cut(name, ":"); found {
		return strings.TrimSpace(rest)
	}
	return name
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatPct(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func formatMonths(m simulationdomain.Months) string {
	v := float64(m)
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return "inf"
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}
