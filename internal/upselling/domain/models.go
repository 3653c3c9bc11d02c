// Package domain defines the checkout-upselling detector contract.
package domain

import (
	"context"

	"github.com/mercadolito/strategia/internal/dataset"
	simulationdomain "github.com/mercadolito/strategia/internal/simulation/domain"
)

// Basket-size segment labels, from revenue thresholds with inclusive-lower
// exclusive-upper bounds.
const (
	SegmentConveniencia   = "Conveniencia"
	SegmentEstandar       = "Estándar"
	SegmentAbastecimiento = "Abastecimiento"
	SegmentGrande         = "Grande"
)

// Service estimates the ROI of a checkout upselling script targeted at
// mid-size baskets.
type Service interface {
	// ClassifyTickets assigns each ticket its basket-size segment,
	// parallel to the input rows.
	ClassifyTickets(tickets *dataset.Tickets) ([]string, error)

	// SimulateUpselling projects incremental margin from upselling the
	// two smallest segments at the given success rate.
	SimulateUpselling(ctx context.Context, tickets *dataset.Tickets,
		successRate, avgUpsellValue, trainingInvestment, marginRate float64) (simulationdomain.Result, error)
}
