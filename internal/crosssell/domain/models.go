// Package domain defines the cross-merchandising optimizer contract.
package domain

import (
	"context"

	"github.com/mercadolito/strategia/internal/dataset"
	simulationdomain "github.com/mercadolito/strategia/internal/simulation/domain"
)

// Service estimates the ROI of layout changes that raise the realized
// confidence of under-exploited, high-lift association rules.
type Service interface {
	// IdentifyOpportunities filters rules with lift above minLift whose
	// current confidence is still below maxCurrentConfidence, sorted by
	// lift descending.
	IdentifyOpportunities(rules *dataset.AssociationRules, minLift, maxCurrentConfidence float64) ([]dataset.AssociationRule, error)

	// SimulateLayoutChange projects incremental margin from lifting the
	// top opportunity pairs toward the capped target confidence. No
	// opportunities yields a zero-impact result.
	SimulateLayoutChange(ctx context.Context, opportunities []dataset.AssociationRule,
		confidenceMultiplier, avgConsequentPrice, avgMarginRate float64) (simulationdomain.Result, error)
}
