package entity

import "time"

// Outlet representa una tienda o punto de venta con su propio ledger de stock.
type Outlet struct {
	ID        string
	Code      string // código humano único (p. ej. "JKT-01")
	Name      string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
