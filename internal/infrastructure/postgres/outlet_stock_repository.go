package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/opname-api/internal/domain"
	"github.com/jhoicas/opname-api/internal/domain/entity"
	"github.com/jhoicas/opname-api/internal/domain/repository"
)

var _ repository.OutletStockRepository = (*OutletStockRepo)(nil)

// OutletStockRepo implementación del ledger de stock por outlet sobre PostgreSQL (usable con pool o tx).
type OutletStockRepo struct {
	q Querier
}

// NewOutletStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewOutletStockRepository(q Querier) *OutletStockRepo {
	return &OutletStockRepo{q: q}
}

// Get obtiene el registro de stock; nil si no existe.
func (r *OutletStockRepo) Get(ctx context.Context, outletID, productID string) (*entity.OutletStock, error) {
	return r.getOne(ctx, `
		SELECT outlet_id, product_id, quantity, updated_at
		FROM outlet_stock WHERE outlet_id = $1 AND product_id = $2`, outletID, productID, "get outlet stock")
}

// GetForUpdate obtiene el stock y bloquea la fila para update (SELECT FOR UPDATE).
func (r *OutletStockRepo) GetForUpdate(ctx context.Context, outletID, productID string) (*entity.OutletStock, error) {
	return r.getOne(ctx, `
		SELECT outlet_id, product_id, quantity, updated_at
		FROM outlet_stock WHERE outlet_id = $1 AND product_id = $2
		FOR UPDATE`, outletID, productID, "get outlet stock for update")
}

// Upsert inserta o sobrescribe la cantidad (por outlet y producto).
func (r *OutletStockRepo) Upsert(ctx context.Context, s *entity.OutletStock) error {
	if !validIDs(s.OutletID, s.ProductID) {
		return domain.ErrNotFound
	}
	query := `
		INSERT INTO outlet_stock (outlet_id, product_id, quantity, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (outlet_id, product_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = now()`
	if _, err := r.q.Exec(ctx, query, s.OutletID, s.ProductID, s.Quantity); err != nil {
		if isCheckViolation(err) {
			return fmt.Errorf("%w: cantidad negativa", domain.ErrInvalidInput)
		}
		return fmt.Errorf("upsert outlet stock: %w", err)
	}
	return nil
}

// InsertIfAbsent crea el registro solo si no existe (ON CONFLICT DO NOTHING).
func (r *OutletStockRepo) InsertIfAbsent(ctx context.Context, s *entity.OutletStock) (bool, error) {
	if !validIDs(s.OutletID, s.ProductID) {
		return false, domain.ErrNotFound
	}
	query := `
		INSERT INTO outlet_stock (outlet_id, product_id, quantity, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (outlet_id, product_id) DO NOTHING`
	tag, err := r.q.Exec(ctx, query, s.OutletID, s.ProductID, s.Quantity)
	if err != nil {
		return false, fmt.Errorf("insert outlet stock: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListByProduct lista el stock del producto en todos los outlets.
func (r *OutletStockRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.OutletStock, error) {
	if !validIDs(productID) {
		return nil, nil
	}
	rows, err := r.q.Query(ctx, `
		SELECT outlet_id, product_id, quantity, updated_at
		FROM outlet_stock WHERE product_id = $1 ORDER BY outlet_id`, productID)
	if err != nil {
		return nil, fmt.Errorf("list outlet stock: %w", err)
	}
	defer rows.Close()
	var list []*entity.OutletStock
	for rows.Next() {
		var s entity.OutletStock
		if err := rows.Scan(&s.OutletID, &s.ProductID, &s.Quantity, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan outlet stock: %w", err)
		}
		list = append(list, &s)
	}
	return list, rows.Err()
}

func (r *OutletStockRepo) getOne(ctx context.Context, query, outletID, productID, op string) (*entity.OutletStock, error) {
	if !validIDs(outletID, productID) {
		return nil, nil
	}
	var s entity.OutletStock
	err := r.q.QueryRow(ctx, query, outletID, productID).Scan(&s.OutletID, &s.ProductID, &s.Quantity, &s.UpdatedAt)
	if err != nil {
		if missing(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &s, nil
}
