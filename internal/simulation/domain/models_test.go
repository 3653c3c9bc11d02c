package domain

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnualizedROI(t *testing.T) {
	assert.InDelta(t, 120.0, AnnualizedROI(10_000, 100_000), 1e-9)
	assert.InDelta(t, -120.0, AnnualizedROI(-10_000, 100_000), 1e-9)

	// Zero investment never divides.
	assert.Equal(t, 0.0, AnnualizedROI(10_000, 0))
}

func TestSimpleROI(t *testing.T) {
	assert.InDelta(t, 50.0, SimpleROI(250_000, 500_000), 1e-9)
	assert.Equal(t, 0.0, SimpleROI(250_000, 0))
}

func TestPaybackMonths(t *testing.T) {
	assert.InDelta(t, 15.0, float64(PaybackMonths(150_000, 10_000)), 1e-9)

	assert.True(t, PaybackMonths(150_000, 0).IsInf())
	assert.True(t, PaybackMonths(150_000, -5_000).IsInf())
}

func TestMonths_JSON(t *testing.T) {
	b, err := json.Marshal(Months(4.5))
	require.NoError(t, err)
	assert.Equal(t, "4.5", string(b))

	b, err = json.Marshal(MonthsInf())
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))

	var m Months
	require.NoError(t, json.Unmarshal([]byte("null"), &m))
	assert.True(t, m.IsInf())

	require.NoError(t, json.Unmarshal([]byte("7.25"), &m))
	assert.InDelta(t, 7.25, float64(m), 1e-9)
}

func TestZeroImpact(t *testing.T) {
	result := ZeroImpact(StrategyCombo, 150_000)

	assert.Equal(t, StrategyCombo, result.Strategy)
	assert.Equal(t, 150_000.0, result.Investment)
	assert.Equal(t, 0.0, result.ROIPercentage)
	assert.Equal(t, 0.0, result.ConfidenceScore)
	assert.True(t, result.PaybackMonths.IsInf())
	require.NotNil(t, result.Figures)

	// The degenerate result still serializes cleanly.
	b, err := json.Marshal(result)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "Inf")
	assert.False(t, math.IsInf(result.ROIPercentage, 0))
}
