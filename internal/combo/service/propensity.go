package service

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/mercadolito/strategia/internal/dataset"
	"go.uber.org/zap"
)

const (
	propensityEpochs = 25
	propensityRate   = 0.1
)

// fitPropensityModel trains a small logistic model predicting combo
// adoption from ticket context. Diagnostic only: the ROI projection never
// depends on it, and an empty combo set simply skips the fit.
func (s *Service) fitPropensityModel(tickets *dataset.Tickets, comboIDs []string) {
	if len(comboIDs) == 0 || tickets.Len() == 0 {
		return
	}
	comboSet := make(map[string]struct{}, len(comboIDs))
	for _, id := range comboIDs {
		comboSet[id] = struct{}{}
	}

	columns, matrix := encodePropensityFeatures(tickets.Rows)
	labels := make([]float64, tickets.Len())
	for i, t := range tickets.Rows {
		if _, ok := comboSet[t.TicketID]; ok {
			labels[i] = 1
		}
	}

	weights := make([]float64, len(columns))
	bias := 0.0
	rng := rand.New(rand.NewSource(s.cfg.Seed))

	order := make([]int, len(matrix))
	for i := range order {
		order[i] = i
	}
	for epoch := 0; epoch < propensityEpochs; epoch++ {
		rng.Shuffle(len(order), func(a, b int) { order[a], order[b] = order[b], order[a] })
		for _, i := range order {
			p := sigmoid(dot(weights, matrix[i]) + bias)
			grad := p - labels[i]
			for j, x := range matrix[i] {
				weights[j] -= propensityRate * grad * x
			}
			bias -= propensityRate * grad
		}
	}

	correct := 0
	for i, row := range matrix {
		p := sigmoid(dot(weights, row) + bias)
		if (p >= 0.5) == (labels[i] == 1) {
			correct++
		}
	}
	s.log.Debug("combo propensity model fitted",
		zap.Int("features", len(columns)),
		zap.Int("combo_tickets", len(comboIDs)),
		zap.Float64("train_accuracy", float64(correct)/float64(len(matrix))),
	)
}

func encodePropensityFeatures(rows []dataset.Ticket) ([]string, [][]float64) {
	dummySet := map[string]struct{}{}
	sparse := make([]map[string]float64, len(rows))
	for i, t := range rows {
		row := map[string]float64{
			fmt.Sprintf("cluster=%d", t.SegmentOrDefault()): 1,
			"dia_semana=" + t.Weekday:                       1,
			"tipo_dia=" + t.DayType:                         1,
			"medio_pago=" + t.PaymentMedium:                 1,
		}
		for col := range row {
			dummySet[col] = struct{}{}
		}
		row["hora"] = float64(t.Hour())
		sparse[i] = row
	}

	columns := []string{"hora"}
	dummies := make([]string, 0, len(dummySet))
	for col := range dummySet {
		dummies = append(dummies, col)
	}
	sort.Strings(dummies)
	columns = append(columns, dummies...)

	index := make(map[string]int, len(columns))
	for j, col := range columns {
		index[col] = j
	}

	matrix := make([][]float64, len(rows))
	for i, row := range sparse {
		vec := make([]float64, len(columns))
		for col, v := range row {
			vec[index[col]] = v
		}
		matrix[i] = vec
	}
	return columns, matrix
}

func sigmoid(z float64) float64 { return 1 / (1 + math.Exp(-z)) }

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
