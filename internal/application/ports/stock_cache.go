package ports

import (
	"context"

	"github.com/jhoicas/opname-api/internal/domain/entity"
)

// StockCache caché de lectura del stock por outlet. Un StockCache nil desactiva el caché.
// Los escritores del ledger usan Set tras confirmar; los lectores solo pueblan con SetIfAbsent,
// así una lectura vieja nunca pisa el valor escrito por un ajuste posterior.
type StockCache interface {
	// Get devuelve ok=false si la clave no está en caché.
	Get(ctx context.Context, key entity.StockKey) (qty int, ok bool, err error)
	// Set sobrescribe la entrada con el valor confirmado.
	Set(ctx context.Context, key entity.StockKey, qty int) error
	// SetIfAbsent escribe solo si la clave no existe. Devuelve true si escribió.
	SetIfAbsent(ctx context.Context, key entity.StockKey, qty int) (bool, error)
	Invalidate(ctx context.Context, keys ...entity.StockKey) error
}
