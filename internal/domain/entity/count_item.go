package entity

import "time"

// CountItem es el conteo de un producto dentro de una sesión; único por (SessionID, ProductID).
// SystemStock se toma en el primer escaneo y no se refresca en reconteos.
type CountItem struct {
	ID          string
	SessionID   string
	ProductID   string
	SystemStock int
	ActualStock int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Discrepancy devuelve actual - sistema. Positivo = sobrante, negativo = faltante.
func (i *CountItem) Discrepancy() int {
	return i.ActualStock - i.SystemStock
}

// Recount reemplaza el conteo físico; SystemStock no cambia.
func (i *CountItem) Recount(actual int, at time.Time) {
	i.ActualStock = actual
	i.UpdatedAt = at
}
