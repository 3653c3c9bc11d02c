// Package domain defines the baseline ticket model contract.
package domain

import (
	"context"
	"errors"

	"github.com/mercadolito/strategia/internal/dataset"
)

// Diagnostics reports in-sample fit quality for the two baseline models.
type Diagnostics struct {
	R2Revenue  float64 `json:"r2_revenue"`
	R2Margin   float64 `json:"r2_margin"`
	MAERevenue float64 `json:"mae_revenue"`
	MAEMargin  float64 `json:"mae_margin"`
}

// Service is the supervised baseline estimating expected ticket revenue and
// margin from contextual features. Used for diagnostic calibration only;
// the strategy simulators do not depend on its output.
type Service interface {
	// Train fits both models and freezes the feature schema. The column
	// set observed here becomes the prediction-time contract.
	Train(ctx context.Context, tickets *dataset.Tickets) (Diagnostics, error)

	// Predict returns expected revenue and margin per ticket. Input rows
	// are re-aligned to the training schema: columns absent in the new
	// data are zero-filled, unseen categories are dropped.
	Predict(ctx context.Context, tickets *dataset.Tickets) (revenue, margin []float64, err error)
}

var (
	ErrNotFitted    = errors.New("model_not_fitted")
	ErrEmptyTickets = errors.New("empty_tickets_dataset")
)
