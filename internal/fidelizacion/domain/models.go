// Package domain defines the loyalty-program simulator contract.
package domain

import (
	"context"

	"github.com/mercadolito/strategia/internal/dataset"
	simulationdomain "github.com/mercadolito/strategia/internal/simulation/domain"
)

// Service estimates the ROI of a loyalty program from ticket-count-derived
// customer proxies; the dataset carries no customer identifiers.
type Service interface {
	// EstimateCustomerBase approximates distinct monthly shoppers from
	// ticket volume via the configured proxy ratio.
	EstimateCustomerBase(tickets *dataset.Tickets) float64

	// SimulateLoyaltyProgram projects the net monthly margin of the
	// program: frequency and ticket-value lifts minus the discount cost.
	SimulateLoyaltyProgram(ctx context.Context, tickets *dataset.Tickets,
		enrollmentRate, frequencyLift, ticketLift, discountPct, setupInvestment float64) (simulationdomain.Result, error)
}
