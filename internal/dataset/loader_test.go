package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func seedDataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	writeFile(t, dir, TicketsFile,
		"ticket_id,timestamp,revenue,margin,item_count,distinct_sku_count,weekday,day_type,payment_medium,segment\n"+
			"T1,2024-03-01 18:30:00,5200.50,1500,4,3,Friday,weekday,cash,2\n"+
			"T2,2024-03-02,980,200,1,1,Saturday,weekend,card,\n")

	writeFile(t, dir, DetailFile,
		"ticket_id,product_description,category,revenue,margin,unit_price\n"+
			"T1,FERNET BRANCA 750,BEBIDAS,3200,900,3200\n"+
			"T1,COCA COLA 2.25L,BEBIDAS,2000,600,2000\n")

	writeFile(t, dir, RulesFile,
		"antecedent,consequent,support,antecedent_support,confidence,lift\n"+
			"FERNET BRANCA 750,COCA COLA 2.25L,0.012,0.05,0.24,8.1\n")

	writeFile(t, dir, ParetoFile,
		"category,revenue,margin,classification\n"+
			"BEBIDAS,1800000,540000,a\n"+
			"LIMPIEZA,300000,90000,C\n")

	return dir
}

func TestLoadInputs(t *testing.T) {
	dir := seedDataDir(t)

	in, err := LoadInputs(dir)
	require.NoError(t, err)

	require.Equal(t, 2, in.Tickets.Len())
	require.Equal(t, 2, in.Detail.Len())
	require.Equal(t, 1, in.Rules.Len())
	require.Equal(t, 2, in.Pareto.Len())

	first := in.Tickets.Rows[0]
	assert.Equal(t, "T1", first.TicketID)
	assert.InDelta(t, 5200.50, first.Revenue, 1e-9)
	assert.Equal(t, 18, first.Hour())
	assert.True(t, first.HasSegment)
	assert.Equal(t, 2, first.SegmentOrDefault())

	// Blank segment cell means the segmentation step did not run.
	second := in.Tickets.Rows[1]
	assert.False(t, second.HasSegment)
	assert.Equal(t, 0, second.SegmentOrDefault())

	assert.InDelta(t, 8.1, in.Rules.Rows[0].Lift, 1e-9)

	// Classification is normalized to upper case on load.
	assert.Equal(t, "A", in.Pareto.Rows[0].Classification)
	assert.Equal(t, "C", in.Pareto.Rows[1].Classification)
}

func TestLoadInputs_MissingFile(t *testing.T) {
	dir := seedDataDir(t)
	require.NoError(t, os.Remove(filepath.Join(dir, RulesFile)))

	_, err := LoadInputs(dir)
	require.Error(t, err)
}

func TestColumnSet_Require(t *testing.T) {
	cols := NewColumnSet("Ticket_ID", " revenue ")

	assert.True(t, cols.Has(ColTicketID))
	assert.True(t, cols.Has(ColRevenue))
	assert.False(t, cols.Has(ColMargin))

	err := cols.Require("tickets", ColRevenue, ColWeekday, ColMargin)
	require.Error(t, err)

	var missing *MissingColumnsError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "tickets", missing.Dataset)
	assert.Equal(t, []string{ColMargin, ColWeekday}, missing.Columns)
	assert.Contains(t, missing.Error(), "margin")

	assert.NoError(t, cols.Require("tickets", ColTicketID, ColRevenue))
}

func TestLoadTickets_ColumnsFromHeader(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, TicketsFile,
		"ticket_id,revenue\nT1,100\n")

	tickets, err := LoadTickets(filepath.Join(dir, TicketsFile))
	require.NoError(t, err)

	require.Equal(t, 1, tickets.Len())
	assert.NoError(t, tickets.Require(ColTicketID, ColRevenue))
	assert.Error(t, tickets.Require(ColMargin))
}
