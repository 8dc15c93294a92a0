package entity

import (
	"math"
	"time"
)

// MaxQuantity cantidad máxima representable (columna INTEGER).
const MaxQuantity = math.MaxInt32

// OutletStock es la cantidad de un producto en un outlet; único por (OutletID, ProductID).
// Quantity nunca es negativa.
type OutletStock struct {
	OutletID  string
	ProductID string
	Quantity  int
	UpdatedAt time.Time
}

// StockKey identifica una entrada del ledger de stock por outlet.
type StockKey struct {
	OutletID  string
	ProductID string
}

// Key devuelve la clave (outlet, producto) del registro.
func (s *OutletStock) Key() StockKey {
	return StockKey{OutletID: s.OutletID, ProductID: s.ProductID}
}
