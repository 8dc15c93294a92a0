package repository

import (
	"context"

	"github.com/jhoicas/opname-api/internal/domain/entity"
)

// OutletStockRepository define el puerto del ledger de stock por (outlet, producto).
// Cada par tiene su propia fila: escribir en un outlet no toca la de otro.
type OutletStockRepository interface {
	// Get devuelve nil, nil si no existe registro.
	Get(ctx context.Context, outletID, productID string) (*entity.OutletStock, error)
	// GetForUpdate bloquea la fila para update (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, outletID, productID string) (*entity.OutletStock, error)
	// Upsert escribe la cantidad absoluta (crea el registro si falta).
	Upsert(ctx context.Context, stock *entity.OutletStock) error
	// InsertIfAbsent crea el registro con la cantidad dada solo si no existe. Devuelve true si lo creó.
	InsertIfAbsent(ctx context.Context, stock *entity.OutletStock) (bool, error)
	ListByProduct(ctx context.Context, productID string) ([]*entity.OutletStock, error)
}
