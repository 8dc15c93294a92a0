package repository

import (
	"context"

	"github.com/jhoicas/opname-api/internal/domain/entity"
)

// OutletRepository define el puerto de persistencia para Outlet (DIP).
type OutletRepository interface {
	Create(ctx context.Context, outlet *entity.Outlet) error
	GetByID(ctx context.Context, id string) (*entity.Outlet, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Outlet, error)
	// ListActiveIDs devuelve los ids de outlets activos (OutletDirectory).
	ListActiveIDs(ctx context.Context) ([]string, error)
}
