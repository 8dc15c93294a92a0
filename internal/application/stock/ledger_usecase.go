package stock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/opname-api/internal/application/ports"
	"github.com/jhoicas/opname-api/internal/domain"
	"github.com/jhoicas/opname-api/internal/domain/entity"
	"github.com/jhoicas/opname-api/internal/domain/repository"
)

// LedgerUseCase gestiona el stock por (outlet, producto): lectura, escritura absoluta,
// ajuste por delta e inicialización de líneas base. Es el único escritor del ledger fuera del cierre de opname.
type LedgerUseCase struct {
	txRunner ports.TxRunner
	stock    repository.OutletStockRepository
	products repository.ProductRepository
	outlets  repository.OutletRepository
	cache    ports.StockCache
	log      zerolog.Logger
	now      func() time.Time
}

// NewLedgerUseCase construye el caso de uso. cache puede ser nil.
func NewLedgerUseCase(
	txRunner ports.TxRunner,
	stock repository.OutletStockRepository,
	products repository.ProductRepository,
	outlets repository.OutletRepository,
	cache ports.StockCache,
	log zerolog.Logger,
) *LedgerUseCase {
	return &LedgerUseCase{
		txRunner: txRunner,
		stock:    stock,
		products: products,
		outlets:  outlets,
		cache:    cache,
		log:      log.With().Str("component", "stock_ledger").Logger(),
		now:      time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (uc *LedgerUseCase) WithClock(now func() time.Time) *LedgerUseCase {
	uc.now = now
	return uc
}

// AdjustResult resultado de un ajuste aceptado.
type AdjustResult struct {
	OutletID         string
	ProductID        string
	PreviousQuantity int
	NewQuantity      int
}

// Get devuelve la cantidad del producto en el outlet; 0 si no hay registro.
func (uc *LedgerUseCase) Get(ctx context.Context, outletID, productID string) (int, error) {
	if outletID == "" || productID == "" {
		return 0, domain.ErrInvalidInput
	}
	if err := uc.ensureExists(ctx, outletID, productID); err != nil {
		return 0, err
	}
	key := entity.StockKey{OutletID: outletID, ProductID: productID}
	if uc.cache != nil {
		qty, ok, err := uc.cache.Get(ctx, key)
		if err != nil {
			uc.log.Warn().Err(err).Str("outlet_id", outletID).Str("product_id", productID).Msg("cache de stock no disponible")
		} else if ok {
			return qty, nil
		}
	}
	rec, err := uc.stock.Get(ctx, outletID, productID)
	if err != nil {
		return 0, err
	}
	qty := 0
	if rec != nil {
		qty = rec.Quantity
	}
	if uc.cache != nil {
		if _, err := uc.cache.SetIfAbsent(ctx, key, qty); err != nil {
			uc.log.Warn().Err(err).Msg("no se pudo poblar cache de stock")
		}
	}
	return qty, nil
}

// Set escribe una cantidad absoluta (upsert idempotente).
func (uc *LedgerUseCase) Set(ctx context.Context, outletID, productID string, quantity int) error {
	if outletID == "" || productID == "" || quantity < 0 || quantity > entity.MaxQuantity {
		return domain.ErrInvalidInput
	}
	if err := uc.ensureExists(ctx, outletID, productID); err != nil {
		return err
	}
	now := uc.now()
	err := uc.txRunner.Run(ctx, func(repos ports.Repositories) error {
		return repos.OutletStock.Upsert(ctx, &entity.OutletStock{
			OutletID: outletID, ProductID: productID, Quantity: quantity, UpdatedAt: now,
		})
	})
	if err != nil {
		return err
	}
	uc.refresh(ctx, entity.StockKey{OutletID: outletID, ProductID: productID}, quantity)
	return nil
}

// Adjust aplica current + delta bajo bloqueo de fila. Si el resultado sería negativo devuelve
// *domain.InsufficientStockError y la transacción se revierte: el registro queda como estaba.
func (uc *LedgerUseCase) Adjust(ctx context.Context, outletID, productID string, delta int) (*AdjustResult, error) {
	if outletID == "" || productID == "" || delta > entity.MaxQuantity || delta < -entity.MaxQuantity {
		return nil, domain.ErrInvalidInput
	}
	if err := uc.ensureExists(ctx, outletID, productID); err != nil {
		return nil, err
	}
	now := uc.now()
	var result AdjustResult
	err := uc.txRunner.Run(ctx, func(repos ports.Repositories) error {
		// Garantiza que exista la fila a bloquear; si luego se rechaza, el Rollback la elimina.
		if _, err := repos.OutletStock.InsertIfAbsent(ctx, &entity.OutletStock{
			OutletID: outletID, ProductID: productID, Quantity: 0, UpdatedAt: now,
		}); err != nil {
			return err
		}
		rec, err := repos.OutletStock.GetForUpdate(ctx, outletID, productID)
		if err != nil {
			return err
		}
		current := 0
		if rec != nil {
			current = rec.Quantity
		}
		next := int64(current) + int64(delta)
		if next < 0 {
			return &domain.InsufficientStockError{OutletID: outletID, ProductID: productID, Current: current, Delta: delta}
		}
		if next > entity.MaxQuantity {
			return fmt.Errorf("%w: el ajuste supera la cantidad máxima %d", domain.ErrInvalidInput, entity.MaxQuantity)
		}
		if err := repos.OutletStock.Upsert(ctx, &entity.OutletStock{
			OutletID: outletID, ProductID: productID, Quantity: int(next), UpdatedAt: now,
		}); err != nil {
			return err
		}
		result = AdjustResult{OutletID: outletID, ProductID: productID, PreviousQuantity: current, NewQuantity: int(next)}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) {
			uc.log.Debug().Err(err).Msg("ajuste rechazado")
		}
		return nil, err
	}
	uc.refresh(ctx, entity.StockKey{OutletID: outletID, ProductID: productID}, result.NewQuantity)
	return &result, nil
}

// InitializeForOutlets crea un registro en 0 para cada outlet que aún no lo tenga.
// Nunca sobrescribe registros existentes. Devuelve cuántos registros se crearon.
func (uc *LedgerUseCase) InitializeForOutlets(ctx context.Context, outletIDs []string, productID string) (int, error) {
	if productID == "" {
		return 0, domain.ErrInvalidInput
	}
	now := uc.now()
	created := 0
	err := uc.txRunner.Run(ctx, func(repos ports.Repositories) error {
		created = 0
		seen := make(map[string]struct{}, len(outletIDs))
		for _, id := range outletIDs {
			if id == "" {
				return domain.ErrInvalidInput
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ok, err := repos.OutletStock.InsertIfAbsent(ctx, &entity.OutletStock{
				OutletID: id, ProductID: productID, Quantity: 0, UpdatedAt: now,
			})
			if err != nil {
				return err
			}
			if ok {
				created++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

// InitializeProductStock siembra líneas base en 0 para el producto en todos los outlets activos.
func (uc *LedgerUseCase) InitializeProductStock(ctx context.Context, productID string) (int, error) {
	if productID == "" {
		return 0, domain.ErrInvalidInput
	}
	p, err := uc.products.GetByID(ctx, productID)
	if err != nil {
		return 0, err
	}
	if p == nil {
		return 0, domain.ErrNotFound
	}
	ids, err := uc.outlets.ListActiveIDs(ctx)
	if err != nil {
		return 0, err
	}
	created, err := uc.InitializeForOutlets(ctx, ids, productID)
	if err != nil {
		return 0, err
	}
	uc.log.Info().Str("product_id", productID).Int("outlets", len(ids)).Int("created", created).Msg("stock inicializado")
	return created, nil
}

// ListProductStock lista los registros de stock del producto en todos los outlets.
func (uc *LedgerUseCase) ListProductStock(ctx context.Context, productID string) ([]*entity.OutletStock, error) {
	if productID == "" {
		return nil, domain.ErrInvalidInput
	}
	p, err := uc.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	return uc.stock.ListByProduct(ctx, productID)
}

func (uc *LedgerUseCase) ensureExists(ctx context.Context, outletID, productID string) error {
	o, err := uc.outlets.GetByID(ctx, outletID)
	if err != nil {
		return err
	}
	if o == nil {
		return domain.ErrNotFound
	}
	p, err := uc.products.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if p == nil {
		return domain.ErrNotFound
	}
	return nil
}

// refresh escribe en caché el valor ya confirmado. Si falla, intenta borrar la entrada.
func (uc *LedgerUseCase) refresh(ctx context.Context, key entity.StockKey, qty int) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Set(ctx, key, qty); err != nil {
		uc.log.Warn().Err(err).Str("outlet_id", key.OutletID).Str("product_id", key.ProductID).Msg("no se pudo actualizar cache de stock")
		if err := uc.cache.Invalidate(ctx, key); err != nil {
			uc.log.Warn().Err(err).Msg("no se pudo invalidar cache de stock")
		}
	}
}
