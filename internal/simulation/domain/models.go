// Package domain contains the shared result model produced by every
// strategy simulator and the financial-metric conventions they follow.
package domain

import (
	"encoding/json"
	"errors"
	"math"
)

// Strategy display names. The text before the colon is stripped when the
// orchestrator builds the summary table.
const (
	StrategyCombo        = "Estrategia #1: Combos Focalizados (Fernet+Coca)"
	StrategyMarcaPropia  = "Estrategia #2: Marca Propia en Categorías A"
	StrategyCrossSell    = "Estrategia #3: Cross-Merchandising (Layout Impulsor)"
	StrategyUpselling    = "Estrategia #4: Upselling en Caja"
	StrategyFidelizacion = "Estrategia #5: Programa Fidelización"
)

var (
	ErrEmptyTickets = errors.New("empty_tickets_dataset")
	ErrEmptyDetail  = errors.New("empty_detail_dataset")
)

// Months is a payback period. Positive infinity is a legitimate value
// (the investment is never recovered) and serialises to JSON null.
type Months float64

// MonthsInf marks an investment that is never paid back.
func MonthsInf() Months { return Months(math.Inf(1)) }

func (m Months) IsInf() bool { return math.IsInf(float64(m), 1) }

func (m Months) MarshalJSON() ([]byte, error) {
	if math.IsInf(float64(m), 0) || math.IsNaN(float64(m)) {
		return []byte("null"), nil
	}
	return json.Marshal(float64(m))
}

func (m *Months) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = MonthsInf()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = Months(v)
	return nil
}

// Record is one flat row of a strategy-specific breakdown table. Keys are
// snake_case column names; values are scalars only, so the JSON detail
// artifact stays tabular.
type Record map[string]any

// Result is the immutable outcome of a single simulator run. Simulators
// construct one fresh Result per invocation and never mutate it afterwards.
type Result struct {
	Strategy   string  `json:"strategy"`
	Investment float64 `json:"investment"`

	// IncrementalMarginMonthly holds the net monthly margin for the
	// loyalty strategy, the gross incremental monthly margin elsewhere.
	IncrementalRevenueMonthly float64 `json:"incremental_revenue_monthly"`
	IncrementalMarginMonthly  float64 `json:"incremental_margin_monthly"`

	ROIPercentage   float64 `json:"roi_percentage"`
	PaybackMonths   Months  `json:"payback_months"`
	ConfidenceScore float64 `json:"confidence_score"`

	// Figures holds strategy-specific scalar outputs keyed by snake_case
	// name (adoption rates, uplift averages, enrolled customers and so on).
	Figures map[string]float64 `json:"figures,omitempty"`

	// Breakdown is the strategy-specific detail table.
	Breakdown []Record `json:"breakdown,omitempty"`
}

// ZeroImpact builds the well-formed degenerate result every simulator must
// return when its input is structurally empty for the strategy. Not an error:
// the summary always carries one row per strategy.
func ZeroImpact(strategy string, investment float64) Result {
	return Result{
		Strategy:        strategy,
		Investment:      investment,
		ROIPercentage:   0,
		PaybackMonths:   MonthsInf(),
		ConfidenceScore: 0,
		Figures:         map[string]float64{},
	}
}

// AnnualizedROI returns the ROI percentage for a monthly-margin basis:
// (monthly margin x 12) / investment x 100. Zero investment yields zero.
func AnnualizedROI(monthlyMargin, investment float64) float64 {
	if investment == 0 {
		return 0
	}
	return monthlyMargin * 12 / investment * 100
}

// SimpleROI returns the ROI percentage when the margin base is already
// annual: annual margin / investment x 100. Zero investment yields zero.
func SimpleROI(annualMargin, investment float64) float64 {
	if investment == 0 {
		return 0
	}
	return annualMargin / investment * 100
}

// PaybackMonths returns investment / monthly margin, or +Inf when the
// monthly margin is not positive.
func PaybackMonths(investment, monthlyMargin float64) Months {
	if monthlyMargin <= 0 {
		return MonthsInf()
	}
	return Months(investment / monthlyMargin)
}
