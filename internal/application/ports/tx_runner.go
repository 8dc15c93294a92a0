package ports

import (
	"context"

	"github.com/jhoicas/opname-api/internal/domain/repository"
)

// Repositories agrupa los repositorios atados a una misma transacción.
type Repositories struct {
	Products    repository.ProductRepository
	OutletStock repository.OutletStockRepository
	Sessions    repository.OpnameSessionRepository
	Items       repository.CountItemRepository
	Adjustments repository.StockAdjustmentRepository
}

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback y ningún efecto queda visible.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos Repositories) error) error
}
