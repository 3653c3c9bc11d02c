package service

import (
	"fmt"
	"sort"

	"github.com/mercadolito/strategia/internal/dataset"
)

// Numeric pass-through features, in fixed column order.
var numericColumns = []string{"hora", "num_items", "num_skus"}

// featureSchema is the encoded column set frozen on first fit. Alignment to
// this exact set is what lets every simulator call prediction on a
// differently-shaped slice of the ticket population.
type featureSchema struct {
	columns []string
	index   map[string]int
}

func newSchema(columns []string) *featureSchema {
	idx := make(map[string]int, len(columns))
	for i, c := range columns {
		idx[c] = i
	}
	return &featureSchema{columns: columns, index: idx}
}

func (s *featureSchema) width() int { return len(s.columns) }

// encodeRow maps one ticket to sparse column => value pairs: numeric fields
// pass through, categorical fields become one-hot indicator columns.
func encodeRow(t dataset.Ticket) map[string]float64 {
	row := map[string]float64{
		"hora":      float64(t.Hour()),
		"num_items": float64(t.ItemCount),
		"num_skus":  float64(t.DistinctSKUs),
	}
	row[fmt.Sprintf("cluster=%d", t.SegmentOrDefault())] = 1
	row["dia_semana="+t.Weekday] = 1
	row["tipo_dia="+t.DayType] = 1
	row["medio_pago="+t.PaymentMedium] = 1
	return row
}

// fitSchema derives the design-matrix columns from the training rows:
// numeric columns first, then every observed dummy column sorted.
func fitSchema(tickets []dataset.Ticket) *featureSchema {
	dummies := map[string]struct{}{}
	for _, t := range tickets {
		for col := range encodeRow(t) {
			dummies[col] = struct{}{}
		}
	}
	for _, c := range numericColumns {
		delete(dummies, c)
	}

	columns := append([]string{}, numericColumns...)
	sorted := make([]string, 0, len(dummies))
	for c := range dummies {
		sorted = append(sorted, c)
	}
	sort.Strings(sorted)
	columns = append(columns, sorted...)
	return newSchema(columns)
}

// buildMatrix encodes rows against the schema. Columns the schema does not
// know are dropped; schema columns the row lacks stay zero.
func buildMatrix(schema *featureSchema, tickets []dataset.Ticket) [][]float64 {
	matrix := make([][]float64, len(tickets))
	for i, t := range tickets {
		vec := make([]float64, schema.width())
		for col, v := range encodeRow(t) {
			if j, ok := schema.index[col]; ok {
				vec[j] = v
			}
		}
		matrix[i] = vec
	}
	return matrix
}
