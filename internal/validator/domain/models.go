// Package domain defines the orchestrator contract: one validator instance
// runs every strategy simulator exactly once and collates the results.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/mercadolito/strategia/internal/dataset"
	predictordomain "github.com/mercadolito/strategia/internal/predictor/domain"
	simulationdomain "github.com/mercadolito/strategia/internal/simulation/domain"
)

// State is the validator lifecycle. The only legal path is
// Idle -> Running -> Completed; a validator is single-use.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
)

var (
	ErrRunAlreadyStarted = errors.New("run_already_started")
	ErrEmptyTickets      = errors.New("empty_tickets_dataset")
)

// SummaryRow is one line of the ranked strategy table.
type SummaryRow struct {
	Strategy                 string                  `json:"strategy"`
	Investment               float64                 `json:"investment"`
	IncrementalMarginMonthly float64                 `json:"incremental_margin_monthly"`
	ROIPercentage            float64                 `json:"roi_percentage"`
	PaybackMonths            simulationdomain.Months `json:"payback_months"`
	ConfidencePct            float64                 `json:"confidence_pct"`
}

// RunReport is the consolidated outcome of one engine run.
type RunReport struct {
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`

	// Summary holds one row per completed strategy, sorted non-increasing
	// by ROI percentage.
	Summary []SummaryRow `json:"summary"`

	// Results carries the full per-strategy detail in summary order.
	Results []simulationdomain.Result `json:"results"`

	// Baseline is nil when the diagnostic predictor failed; a baseline
	// failure never aborts the run.
	Baseline *predictordomain.Diagnostics `json:"baseline,omitempty"`

	// Errors maps strategy name to the captured failure, if any.
	Errors map[string]string `json:"errors,omitempty"`
}

// Service orchestrates the five simulators plus the baseline predictor.
type Service interface {
	// RunAllStrategies executes every simulator once with the configured
	// default parameters. A simulator failure is captured per strategy
	// and never prevents the others from completing.
	RunAllStrategies(ctx context.Context, inputs *dataset.Inputs) (*RunReport, error)

	// ExportResults persists the summary as a flat CSV table and the
	// per-strategy detail as a structured JSON document.
	ExportResults(report *RunReport, outputDir string) error
}
