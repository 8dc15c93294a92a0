package repository

import (
	"context"

	"github.com/jhoicas/opname-api/internal/domain/entity"
)

// SessionFilter filtros para listar sesiones de opname.
type SessionFilter struct {
	Status   entity.SessionStatus // vacío = todos
	OutletID string               // vacío = todos
	Limit    int
	Offset   int
}

// OpnameSessionRepository define el puerto de persistencia para sesiones de opname.
type OpnameSessionRepository interface {
	// Create devuelve domain.ErrDuplicate si el número de sesión ya existe.
	Create(ctx context.Context, session *entity.OpnameSession) error
	GetByID(ctx context.Context, id string) (*entity.OpnameSession, error)
	GetForUpdate(ctx context.Context, id string) (*entity.OpnameSession, error)
	// UpdateStatus persiste el estado y los timestamps finales.
	UpdateStatus(ctx context.Context, session *entity.OpnameSession) error
	List(ctx context.Context, filter SessionFilter) ([]*entity.OpnameSession, error)
}

// CountItemRepository define el puerto de persistencia para ítems contados.
type CountItemRepository interface {
	Get(ctx context.Context, sessionID, productID string) (*entity.CountItem, error)
	// Upsert inserta el ítem nuevo o actualiza solo actual_stock del existente.
	Upsert(ctx context.Context, item *entity.CountItem) error
	// ListBySession devuelve los ítems en orden de primer escaneo.
	ListBySession(ctx context.Context, sessionID string) ([]*entity.CountItem, error)
}

// StockAdjustmentRepository log de ajustes append-only.
type StockAdjustmentRepository interface {
	Append(ctx context.Context, adj *entity.StockAdjustment) error
	// ListBySession devuelve los ajustes en orden de creación.
	ListBySession(ctx context.Context, sessionID string) ([]*entity.StockAdjustment, error)
}
