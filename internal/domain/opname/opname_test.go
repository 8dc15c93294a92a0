package opname_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/opname-api/internal/domain/entity"
	"github.com/jhoicas/opname-api/internal/domain/opname"
)

func TestDiscrepancy(t *testing.T) {
	assert.Equal(t, -5, opname.Discrepancy(45, 50), "merma")
	assert.Equal(t, 5, opname.Discrepancy(25, 20), "sobrante")
	assert.Equal(t, 0, opname.Discrepancy(30, 30))
}

func TestSummarize(t *testing.T) {
	items := []*entity.CountItem{
		{ProductID: "a", SystemStock: 50, ActualStock: 45},
		{ProductID: "b", SystemStock: 20, ActualStock: 25},
		{ProductID: "c", SystemStock: 30, ActualStock: 30},
		{ProductID: "d", SystemStock: 10, ActualStock: 0},
	}

	s := opname.Summarize(items)

	assert.Equal(t, opname.Summary{
		ItemsCounted:   4,
		Matched:        1,
		Gains:          1,
		Losses:         2,
		GainUnits:      5,
		LossUnits:      15,
		NetDiscrepancy: -10,
	}, s)
}

func TestSummarize_SinItems(t *testing.T) {
	assert.Equal(t, opname.Summary{}, opname.Summarize(nil))
}

func TestValueImpact(t *testing.T) {
	adjs := []*entity.StockAdjustment{
		{Adjustment: -5, UnitCost: decimal.RequireFromString("2.50")},
		{Adjustment: 3, UnitCost: decimal.RequireFromString("10")},
	}
	assert.True(t, decimal.RequireFromString("17.5").Equal(opname.ValueImpact(adjs)))
	assert.True(t, opname.ValueImpact(nil).IsZero())
}

func TestFormatNumber(t *testing.T) {
	at := time.Date(2024, 3, 7, 23, 30, 0, 0, time.FixedZone("UTC-5", -5*3600))

	n := opname.FormatNumber(at, 42)

	assert.Equal(t, "OPN-20240308-0042", n, "la fecha se toma en UTC")
	assert.True(t, opname.ValidNumber(n))
	assert.Equal(t, "OPN-20240308-0001", opname.FormatNumber(at, 10001))
}

func TestRandomNumber_Formato(t *testing.T) {
	at := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 50; i++ {
		n := opname.RandomNumber(at)
		assert.True(t, opname.ValidNumber(n), "número %q fuera de formato", n)
		assert.Contains(t, n, "OPN-20240102-")
	}
}

func TestValidNumber_Rechaza(t *testing.T) {
	for _, s := range []string{"", "OPN-2024-0001", "OPN-20240101-001", "XYZ-20240101-0001", "OPN-20240101-00011"} {
		assert.False(t, opname.ValidNumber(s), "%q", s)
	}
}
