// Package domain defines the bundled-promotion simulator contract.
package domain

import (
	"context"

	"github.com/mercadolito/strategia/internal/dataset"
	simulationdomain "github.com/mercadolito/strategia/internal/simulation/domain"
)

// CohortUplift is the realised revenue/margin difference between combo and
// size-matched control tickets inside one (segment, weekday) cohort.
type CohortUplift struct {
	Segment       int     `json:"segment"`
	Weekday       string  `json:"weekday"`
	UpliftRevenue float64 `json:"uplift_revenue"`
	UpliftMargin  float64 `json:"uplift_margin"`
	NCombo        int     `json:"n_combo"`
	NControl      int     `json:"n_control"`
}

// Service estimates the ROI of a focused product-bundle promotion via
// matched historical-cohort uplift.
type Service interface {
	// IdentifyComboTickets returns the sorted ids of tickets whose detail
	// lines contain every bundle keyword (case-insensitive substring).
	IdentifyComboTickets(detail *dataset.DetailLines) []string

	// CalculateHistoricalUplift measures per-cohort uplift between combo
	// tickets and seeded size-matched control samples.
	CalculateHistoricalUplift(tickets *dataset.Tickets, detail *dataset.DetailLines) []CohortUplift

	// SimulateROI projects the financial impact of lifting combo adoption
	// to the target rate. An empty combo set yields a zero-impact result.
	SimulateROI(ctx context.Context, tickets *dataset.Tickets, detail *dataset.DetailLines,
		targetAdoptionRate, promoInvestment float64) (simulationdomain.Result, error)
}
