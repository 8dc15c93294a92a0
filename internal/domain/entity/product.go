package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo.
// StockQuantity es el stock agregado de toda la tienda, distinto del stock por outlet (OutletStock).
type Product struct {
	ID            string
	Name          string
	Barcode       string
	StockQuantity int
	MinStock      int
	Cost          decimal.Decimal // costo unitario, usado para valorizar ajustes
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// BelowMinimum indica si el stock agregado está por debajo del mínimo configurado.
func (p *Product) BelowMinimum() bool {
	return p.MinStock > 0 && p.StockQuantity < p.MinStock
}
