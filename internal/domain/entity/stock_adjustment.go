package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Motivos de ajuste registrados en el log.
const (
	AdjustmentReasonOpname = "stock_opname"
)

// StockAdjustment es una entrada inmutable del log de ajustes; nunca se actualiza ni se borra.
type StockAdjustment struct {
	ID            string
	SessionID     string
	ProductID     string
	OutletID      *string
	PreviousStock int // system_stock del ítem
	NewStock      int // actual_stock del ítem
	Adjustment    int // = NewStock - PreviousStock
	ObservedStock int // stock agregado leído al momento del cierre
	UnitCost      decimal.Decimal
	Reason        string
	CreatedBy     string
	CreatedAt     time.Time
}

// ValueImpact devuelve el impacto valorizado del ajuste (Adjustment * UnitCost).
func (a *StockAdjustment) ValueImpact() decimal.Decimal {
	return a.UnitCost.Mul(decimal.NewFromInt(int64(a.Adjustment)))
}

// Drifted indica si el stock agregado cambió entre el primer escaneo y el cierre.
func (a *StockAdjustment) Drifted() bool {
	return a.ObservedStock != a.PreviousStock
}
