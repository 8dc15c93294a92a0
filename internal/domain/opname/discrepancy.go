package opname

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/opname-api/internal/domain/entity"
)

// Discrepancy calcula la diferencia de conteo (servicio de dominio puro).
// Positivo = se encontró más de lo esperado (sobrante); negativo = merma.
func Discrepancy(actual, system int) int {
	return actual - system
}

// Summary resumen de una sesión mostrado al operador antes de cerrar o cancelar.
type Summary struct {
	ItemsCounted   int `json:"items_counted"`
	Matched        int `json:"matched"`
	Gains          int `json:"gains"`  // ítems con discrepancia > 0
	Losses         int `json:"losses"` // ítems con discrepancia < 0
	GainUnits      int `json:"gain_units"`
	LossUnits      int `json:"loss_units"` // valor absoluto de las unidades faltantes
	NetDiscrepancy int `json:"net_discrepancy"`
}

// Summarize agrega las discrepancias de los ítems de una sesión.
func Summarize(items []*entity.CountItem) Summary {
	s := Summary{ItemsCounted: len(items)}
	for _, it := range items {
		d := Discrepancy(it.ActualStock, it.SystemStock)
		switch {
		case d > 0:
			s.Gains++
			s.GainUnits += d
		case d < 0:
			s.Losses++
			s.LossUnits -= d
		default:
			s.Matched++
		}
		s.NetDiscrepancy += d
	}
	return s
}

// ValueImpact suma el impacto valorizado de un conjunto de ajustes.
func ValueImpact(adjs []*entity.StockAdjustment) decimal.Decimal {
	total := decimal.Zero
	for _, a := range adjs {
		total = total.Add(a.ValueImpact())
	}
	return total
}
