package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// Default file names inside the configured data directory.
const (
	TicketsFile = "tickets.csv"
	DetailFile  = "ticket_details.csv"
	RulesFile   = "association_rules.csv"
	ParetoFile  = "category_pareto.csv"
)

// Inputs bundles the four datasets one engine run consumes.
type Inputs struct {
	Tickets *Tickets
	Detail  *DetailLines
	Rules   *AssociationRules
	Pareto  *CategoryPareto
}

// LoadInputs reads the four CSV datasets from dir concurrently. Ingestion
// and cleaning happen upstream; this only maps already-normalized columns
// into typed rows.
func LoadInputs(dir string) (*Inputs, error) {
	in := &Inputs{}
	var g errgroup.Group
	g.Go(func() (err error) {
		in.Tickets, err = LoadTickets(filepath.Join(dir, TicketsFile))
		return err
	})
	g.Go(func() (err error) {
		in.Detail, err = LoadDetailLines(filepath.Join(dir, DetailFile))
		return err
	})
	g.Go(func() (err error) {
		in.Rules, err = LoadAssociationRules(filepath.Join(dir, RulesFile))
		return err
	})
	g.Go(func() (err error) {
		in.Pareto, err = LoadCategoryPareto(filepath.Join(dir, ParetoFile))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return in, nil
}

// row is one CSV record addressed by lower-cased header name.
type row struct {
	header map[string]int
	fields []string
}

func (r row) str(col string) string {
	idx, ok := r.header[col]
	if !ok || idx >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[idx])
}

func (r row) float(col string) float64 {
	v, _ := strconv.ParseFloat(r.str(col), 64)
	return v
}

func (r row) int(col string) int {
	v, _ := strconv.Atoi(r.str(col))
	return v
}

func readCSV(path string, fn func(row)) (ColumnSet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	head, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header %s: %w", filepath.Base(path), err)
	}
	header := make(map[string]int, len(head))
	cols := make(ColumnSet, len(head))
	for i, name := range head {
		name = strings.ToLower(strings.TrimSpace(name))
		header[name] = i
		cols[name] = struct{}{}
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
		}
		fn(row{header: header, fields: record})
	}
	return cols, nil
}

func parseTimestamp(raw string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts
		}
	}
	return time.Time{}
}

// LoadTickets reads the ticket dataset. The segment column is optional;
// every other canonical column is expected but validated lazily by the
// simulator that needs it.
func LoadTickets(path string) (*Tickets, error) {
	var rows []Ticket
	cols, err := readCSV(path, func(r row) {
		t := Ticket{
			TicketID:      r.str(ColTicketID),
			Timestamp:     parseTimestamp(r.str(ColTimestamp)),
			Revenue:       r.float(ColRevenue),
			Margin:        r.float(ColMargin),
			ItemCount:     r.int(ColItemCount),
			DistinctSKUs:  r.int(ColDistinctSKUs),
			Weekday:       r.str(ColWeekday),
			DayType:       r.str(ColDayType),
			PaymentMedium: r.str(ColPaymentMedium),
		}
		if seg := r.str(ColSegment); seg != "" {
			t.Segment = r.int(ColSegment)
			t.HasSegment = true
		}
		rows = append(rows, t)
	})
	if err != nil {
		return nil, err
	}
	return &Tickets{Rows: rows, Columns: cols}, nil
}

// LoadDetailLines reads the per-product detail dataset.
func LoadDetailLines(path string) (*DetailLines, error) {
	var rows []DetailLine
	cols, err := readCSV(path, func(r row) {
		rows = append(rows, DetailLine{
			TicketID:    r.str(ColTicketID),
			Description: r.str(ColProductDesc),
			Category:    r.str(ColCategory),
			Revenue:     r.float(ColRevenue),
			Margin:      r.float(ColMargin),
			UnitPrice:   r.float(ColUnitPrice),
		})
	})
	if err != nil {
		return nil, err
	}
	return &DetailLines{Rows: rows, Columns: cols}, nil
}

// LoadAssociationRules reads the mined-rule dataset.
func LoadAssociationRules(path string) (*AssociationRules, error) {
	var rows []AssociationRule
	cols, err := readCSV(path, func(r row) {
		rows = append(rows, AssociationRule{
			Antecedent:        r.str(ColAntecedent),
			Consequent:        r.str(ColConsequent),
			Support:           r.float(ColSupport),
			AntecedentSupport: r.float(ColAntecedentSupp),
			Confidence:        r.float(ColConfidence),
			Lift:              r.float(ColLift),
		})
	})
	if err != nil {
		return nil, err
	}
	return &AssociationRules{Rows: rows, Columns: cols}, nil
}

// LoadCategoryPareto reads the category tiering dataset.
func LoadCategoryPareto(path string) (*CategoryPareto, error) {
	var rows []ParetoEntry
	cols, err := readCSV(path, func(r row) {
		rows = append(rows, ParetoEntry{
			Category:       r.str(ColCategory),
			Revenue:        r.float(ColRevenue),
			Margin:         r.float(ColMargin),
			Classification: strings.ToUpper(r.str(ColClassification)),
		})
	})
	if err != nil {
		return nil, err
	}
	return &CategoryPareto{Rows: rows, Columns: cols}, nil
}
