package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/opname-api/internal/domain"
	"github.com/jhoicas/opname-api/internal/domain/entity"
	"github.com/jhoicas/opname-api/internal/domain/repository"
)

var _ repository.OutletRepository = (*OutletRepo)(nil)

// OutletRepo implementación de OutletRepository sobre PostgreSQL.
type OutletRepo struct {
	q Querier
}

// NewOutletRepository construye el adaptador de outlets.
func NewOutletRepository(q Querier) *OutletRepo {
	return &OutletRepo{q: q}
}

// Create persiste un outlet; código duplicado -> domain.ErrDuplicate.
func (r *OutletRepo) Create(ctx context.Context, o *entity.Outlet) error {
	query := `
		INSERT INTO outlets (id, code, name, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(ctx, query, o.ID, o.Code, o.Name, o.Active, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert outlet: %w", err)
	}
	return nil
}

// GetByID obtiene un outlet por ID.
func (r *OutletRepo) GetByID(ctx context.Context, id string) (*entity.Outlet, error) {
	if !validIDs(id) {
		return nil, nil
	}
	var o entity.Outlet
	err := r.q.QueryRow(ctx, `
		SELECT id, code, name, active, created_at, updated_at
		FROM outlets WHERE id = $1`, id).Scan(
		&o.ID, &o.Code, &o.Name, &o.Active, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if missing(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get outlet: %w", err)
	}
	return &o, nil
}

// List lista outlets por orden de creación.
func (r *OutletRepo) List(ctx context.Context, limit, offset int) ([]*entity.Outlet, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, code, name, active, created_at, updated_at
		FROM outlets ORDER BY created_at, code
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list outlets: %w", err)
	}
	defer rows.Close()
	var list []*entity.Outlet
	for rows.Next() {
		var o entity.Outlet
		if err := rows.Scan(&o.ID, &o.Code, &o.Name, &o.Active, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan outlet: %w", err)
		}
		list = append(list, &o)
	}
	return list, rows.Err()
}

// ListActiveIDs devuelve los ids de los outlets activos.
func (r *OutletRepo) ListActiveIDs(ctx context.Context) ([]string, error) {
	rows, err := r.q.Query(ctx, `SELECT id FROM outlets WHERE active ORDER BY created_at, code`)
	if err != nil {
		return nil, fmt.Errorf("list active outlets: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan outlet id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
