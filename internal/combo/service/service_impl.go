package service

import (
	"context"
	"math/rand"
	"sort"
	"strings"

	combodomain "github.com/mercadolito/strategia/internal/combo/domain"
	"github.com/mercadolito/strategia/internal/config"
	"github.com/mercadolito/strategia/internal/dataset"
	simulationdomain "github.com/mercadolito/strategia/internal/simulation/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const monthsPerYear = 12.0

type Service struct {
	cfg config.StrategyConfig
	log *zap.Logger
}

type ServiceParam struct {
	fx.In

	Cfg config.StrategyConfig
	Log *zap.Logger
}

func NewService(p ServiceParam) combodomain.Service {
	return &Service{
		cfg: p.Cfg,
		log: p.Log.Named("combo.service"),
	}
}

func (s *Service) IdentifyComboTickets(detail *dataset.DetailLines) []string {
	var intersection map[string]struct{}
	for _, keyword := range s.cfg.Combo.Keywords {
		keyword = strings.ToLower(keyword)
		matches := map[string]struct{}{}
		for _, line := range detail.Rows {
			if strings.Contains(strings.ToLower(line.Description), keyword) {
				matches[line.TicketID] = struct{}{}
			}
		}
		if intersection == nil {
			intersection = matches
			continue
		}
		for id := range intersection {
			if _, ok := matches[id]; !ok {
				delete(intersection, id)
			}
		}
	}

	ids := make([]string, 0, len(intersection))
	for id := range intersection {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

type cohortKey struct {
	segment int
	weekday string
}

func (s *Service) CalculateHistoricalUplift(tickets *dataset.Tickets, detail *dataset.DetailLines) []combodomain.CohortUplift {
	comboIDs := s.IdentifyComboTickets(detail)
	if len(comboIDs) == 0 {
		return nil
	}
	comboSet := make(map[string]struct{}, len(comboIDs))
	for _, id := range comboIDs {
		comboSet[id] = struct{}{}
	}

	// Cohort rows keep input order so the seeded sample is reproducible.
	comboByCohort := map[cohortKey][]int{}
	controlByCohort := map[cohortKey][]int{}
	for i, t := range tickets.Rows {
		key := cohortKey{segment: t.SegmentOrDefault(), weekday: t.Weekday}
		if _, ok := comboSet[t.TicketID]; ok {
			comboByCohort[key] = append(comboByCohort[key], i)
		} else {
			controlByCohort[key] = append(controlByCohort[key], i)
		}
	}

	keys := make([]cohortKey, 0, len(comboByCohort))
	for key := range comboByCohort {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(a, b int) bool {
		if keys[a].segment != keys[b].segment {
			return keys[a].segment < keys[b].segment
		}
		return keys[a].weekday < keys[b].weekday
	})

	minRecords := s.cfg.Combo.MinCohortRecords
	var uplifts []combodomain.CohortUplift
	for _, key := range keys {
		comboIdx := comboByCohort[key]
		controlIdx := controlByCohort[key]
		if len(controlIdx) == 0 {
			continue
		}

		sampleN := len(comboIdx) * s.cfg.Combo.ControlRatio
		if len(controlIdx) < sampleN {
			sampleN = len(controlIdx)
		}
		if sampleN > s.cfg.Combo.MaxControlSample {
			sampleN = s.cfg.Combo.MaxControlSample
		}
		if len(comboIdx) < minRecords || sampleN < minRecords {
			continue
		}

		controlSample := sampleRows(controlIdx, sampleN, rand.New(rand.NewSource(s.cfg.Seed)))

		comboRevenue, comboMargin := meanRevenueMargin(tickets.Rows, comboIdx)
		controlRevenue, controlMargin := meanRevenueMargin(tickets.Rows, controlSample)

		uplifts = append(uplifts, combodomain.CohortUplift{
			Segment:       key.segment,
			Weekday:       key.weekday,
			UpliftRevenue: comboRevenue - controlRevenue,
			UpliftMargin:  comboMargin - controlMargin,
			NCombo:        len(comboIdx),
			NControl:      len(controlSample),
		})
	}
	return uplifts
}

func (s *Service) SimulateROI(ctx context.Context, tickets *dataset.Tickets, detail *dataset.DetailLines,
	targetAdoptionRate, promoInvestment float64) (simulationdomain.Result, error) {

	if err := tickets.Require(dataset.ColTicketID, dataset.ColRevenue, dataset.ColMargin, dataset.ColWeekday); err != nil {
		return simulationdomain.Result{}, err
	}
	if err := detail.Require(dataset.ColTicketID, dataset.ColProductDesc); err != nil {
		return simulationdomain.Result{}, err
	}
	if tickets.Len() == 0 {
		return simulationdomain.Result{}, simulationdomain.ErrEmptyTickets
	}
	if detail.Len() == 0 {
		return simulationdomain.Result{}, simulationdomain.ErrEmptyDetail
	}

	comboIDs := s.IdentifyComboTickets(detail)
	s.fitPropensityModel(tickets, comboIDs)

	uplifts := s.CalculateHistoricalUplift(tickets, detail)
	if len(uplifts) == 0 {
		s.log.Info("no qualifying combo cohorts, returning zero impact",
			zap.Int("combo_tickets", len(comboIDs)))
		result := simulationdomain.ZeroImpact(simulationdomain.StrategyCombo, promoInvestment)
		result.Figures["current_adoption_rate"] = 0
		result.Figures["target_adoption_rate"] = targetAdoptionRate
		result.Figures["avg_uplift_revenue_per_ticket"] = 0
		result.Figures["avg_uplift_margin_per_ticket"] = 0
		result.Figures["incremental_tickets_monthly"] = 0
		return result, nil
	}

	var sumRevenue, sumMargin float64
	matchedCombo := 0
	for _, u := range uplifts {
		sumRevenue += u.UpliftRevenue
		sumMargin += u.UpliftMargin
		matchedCombo += u.NCombo
	}
	avgUpliftRevenue := sumRevenue / float64(len(uplifts))
	avgUpliftMargin := sumMargin / float64(len(uplifts))

	total := float64(tickets.Len())
	currentAdoption := float64(len(comboIDs)) / total
	incrementalAdoption := targetAdoptionRate - currentAdoption
	if incrementalAdoption < 0 {
		incrementalAdoption = 0
	}

	monthlyTickets := total / monthsPerYear
	incrementalTickets := monthlyTickets * incrementalAdoption
	incrementalRevenue := incrementalTickets * avgUpliftRevenue
	incrementalMargin := incrementalTickets * avgUpliftMargin

	breakdown := make([]simulationdomain.Record, len(uplifts))
	for i, u := range uplifts {
		breakdown[i] = simulationdomain.Record{
			"segment":        u.Segment,
			"weekday":        u.Weekday,
			"uplift_revenue": u.UpliftRevenue,
			"uplift_margin":  u.UpliftMargin,
			"n_combo":        u.NCombo,
			"n_control":      u.NControl,
		}
	}

	return simulationdomain.Result{
		Strategy:                  simulationdomain.StrategyCombo,
		Investment:                promoInvestment,
		IncrementalRevenueMonthly: incrementalRevenue,
		IncrementalMarginMonthly:  incrementalMargin,
		ROIPercentage:             simulationdomain.AnnualizedROI(incrementalMargin, promoInvestment),
		PaybackMonths:             simulationdomain.PaybackMonths(promoInvestment, incrementalMargin),
		ConfidenceScore:           float64(matchedCombo) / total,
		Figures: map[string]float64{
			"current_adoption_rate":         currentAdoption,
			"target_adoption_rate":          targetAdoptionRate,
			"avg_uplift_revenue_per_ticket": avgUpliftRevenue,
			"avg_uplift_margin_per_ticket":  avgUpliftMargin,
			"incremental_tickets_monthly":   incrementalTickets,
		},
		Breakdown: breakdown,
	}, nil
}

// sampleRows draws n rows from idx without replacement: shuffle, take n.
func sampleRows(idx []int, n int, rng *rand.Rand) []int {
	if n >= len(idx) {
		return idx
	}
	shuffled := append([]int{}, idx...)
	rng.Shuffle(len(shuffled), func(a, b int) {
		shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
	})
	return shuffled[:n]
}

func meanRevenueMargin(rows []dataset.Ticket, idx []int) (revenue, margin float64) {
	if len(idx) == 0 {
		return 0, 0
	}
	for _, i := range idx {
		revenue += rows[i].Revenue
		margin += rows[i].Margin
	}
	n := float64(len(idx))
	return revenue / n, margin / n
}
