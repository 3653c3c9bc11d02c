// Package dataset defines the four read-only tabular inputs the engine
// consumes and the column contract each simulator validates against.
package dataset

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Canonical ticket dataset columns.
const (
	ColTicketID       = "ticket_id"
	ColRevenue        = "revenue"
	ColMargin         = "margin"
	ColItemCount      = "item_count"
	ColDistinctSKUs   = "distinct_sku_count"
	ColWeekday        = "weekday"
	ColDayType        = "day_type"
	ColPaymentMedium  = "payment_medium"
	ColSegment        = "segment"
	ColTimestamp      = "timestamp"
	ColProductDesc    = "product_description"
	ColCategory       = "category"
	ColUnitPrice      = "unit_price"
	ColAntecedent     = "antecedent"
	ColConsequent     = "consequent"
	ColSupport        = "support"
	ColAntecedentSupp = "antecedent_support"
	ColConfidence     = "confidence"
	ColLift           = "lift"
	ColClassification = "classification"
)

// MissingColumnsError reports every required column absent from a dataset.
// Raised before any model fitting, per the fail-fast validation contract.
type MissingColumnsError struct {
	Dataset string
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s dataset missing required columns: %s",
		e.Dataset, strings.Join(e.Columns, ", "))
}

// ColumnSet tracks which columns were present in the source of a dataset.
type ColumnSet map[string]struct{}

func NewColumnSet(cols ...string) ColumnSet {
	set := make(ColumnSet, len(cols))
	for _, c := range cols {
		set[strings.ToLower(strings.TrimSpace(c))] = struct{}{}
	}
	return set
}

func (s ColumnSet) Has(col string) bool {
	_, ok := s[col]
	return ok
}

// Missing returns the requested columns not present in the set, sorted.
func (s ColumnSet) Missing(cols ...string) []string {
	var missing []string
	for _, c := range cols {
		if !s.Has(c) {
			missing = append(missing, c)
		}
	}
	sort.Strings(missing)
	return missing
}

// Require returns a MissingColumnsError naming every absent column.
func (s ColumnSet) Require(dataset string, cols ...string) error {
	if missing := s.Missing(cols...); len(missing) > 0 {
		return &MissingColumnsError{Dataset: dataset, Columns: missing}
	}
	return nil
}

// Ticket is one completed transaction. Revenue is non-negative; margin may
// be negative on loss-making tickets.
type Ticket struct {
	TicketID      string
	Timestamp     time.Time
	Revenue       float64
	Margin        float64
	ItemCount     int
	DistinctSKUs  int
	Weekday       string
	DayType       string
	PaymentMedium string
	Segment       int
	HasSegment    bool
}

// Hour is the transaction hour, a pass-through numeric model feature.
func (t Ticket) Hour() int { return t.Timestamp.Hour() }

// SegmentOrDefault returns the externally computed cluster label, or zero
// when the segmentation step did not run.
func (t Ticket) SegmentOrDefault() int {
	if t.HasSegment {
		return t.Segment
	}
	return 0
}

// DetailLine is one product line on a ticket.
type DetailLine struct {
	TicketID    string
	Description string
	Category    string
	Revenue     float64
	Margin      float64
	UnitPrice   float64
}

// AssociationRule is a mined antecedent => consequent rule with its
// strength measures. Itemsets are flattened to comma-joined strings.
type AssociationRule struct {
	Antecedent        string
	Consequent        string
	Support           float64
	AntecedentSupport float64
	Confidence        float64
	Lift              float64
}

// ParetoEntry is one category row of the revenue-concentration tiering.
// Classification A marks the top tier.
type ParetoEntry struct {
	Category       string
	Revenue        float64
	Margin         float64
	Classification string
}

// Tickets couples ticket rows with the columns their source carried.
type Tickets struct {
	Rows    []Ticket
	Columns ColumnSet
}

// NewTickets wraps in-memory rows, marking the full canonical column set
// as present.
func NewTickets(rows []Ticket) *Tickets {
	return &Tickets{
		Rows: rows,
		Columns: NewColumnSet(
			ColTicketID, ColRevenue, ColMargin, ColItemCount, ColDistinctSKUs,
			ColWeekday, ColDayType, ColPaymentMedium, ColSegment, ColTimestamp,
		),
	}
}

func (t *Tickets) Len() int { return len(t.Rows) }

func (t *Tickets) Require(cols ...string) error {
	return t.Columns.Require("tickets", cols...)
}

// DetailLines couples detail rows with their source columns.
type DetailLines struct {
	Rows    []DetailLine
	Columns ColumnSet
}

func NewDetailLines(rows []DetailLine) *DetailLines {
	return &DetailLines{
		Rows: rows,
		Columns: NewColumnSet(
			ColTicketID, ColProductDesc, ColCategory, ColRevenue, ColMargin, ColUnitPrice,
		),
	}
}

func (d *DetailLines) Len() int { return len(d.Rows) }

func (d *DetailLines) Require(cols ...string) error {
	return d.Columns.Require("detail_lines", cols...)
}

// AssociationRules couples rule rows with their source columns.
type AssociationRules struct {
	Rows    []AssociationRule
	Columns ColumnSet
}

func NewAssociationRules(rows []AssociationRule) *AssociationRules {
	return &AssociationRules{
		Rows: rows,
		Columns: NewColumnSet(
			ColAntecedent, ColConsequent, ColSupport, ColAntecedentSupp, ColConfidence, ColLift,
		),
	}
}

func (r *AssociationRules) Len() int { return len(r.Rows) }

func (r *AssociationRules) Require(cols ...string) error {
	return r.Columns.Require("association_rules", cols...)
}

// CategoryPareto couples Pareto rows with their source columns.
type CategoryPareto struct {
	Rows    []ParetoEntry
	Columns ColumnSet
}

func NewCategoryPareto(rows []ParetoEntry) *CategoryPareto {
	return &CategoryPareto{
		Rows:    rows,
		Columns: NewColumnSet(ColCategory, ColRevenue, ColMargin, ColClassification),
	}
}

func (p *CategoryPareto) Len() int { return len(p.Rows) }

func (p *CategoryPareto) Require(cols ...string) error {
	return p.Columns.Require("category_pareto", cols...)
}
