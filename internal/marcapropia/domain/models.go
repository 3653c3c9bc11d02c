// Package domain defines the private-label estimator contract.
package domain

import (
	"context"

	"github.com/mercadolito/strategia/internal/dataset"
	simulationdomain "github.com/mercadolito/strategia/internal/simulation/domain"
)

// CategoryImpact is the projected effect of converting one "A" category to
// a private-label alternative.
type CategoryImpact struct {
	Category                string
	AnnualRevenue           float64
	ConvertibleRevenue      float64
	Elasticity              float64
	VolumeLift              float64
	AdjustedRevenue         float64
	CurrentMarginPct        float64
	IncrementalMarginAnnual float64
}

// Service estimates the ROI of introducing private-label substitutes in the
// top revenue-concentration categories via elasticity heuristics.
type Service interface {
	// EstimatePriceElasticity looks up the per-category elasticity
	// coefficient, falling back to the configured constant.
	EstimatePriceElasticity(category string) float64

	// SimulateMarcaPropia projects incremental margin across every "A"
	// category. No "A" categories yields a zero-impact result.
	SimulateMarcaPropia(ctx context.Context, pareto *dataset.CategoryPareto, detail *dataset.DetailLines,
		conversionRate, marginGainPoints, priceReductionPct float64) (simulationdomain.Result, error)
}
