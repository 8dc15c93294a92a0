package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/opname-api/internal/domain"
	"github.com/jhoicas/opname-api/internal/domain/entity"
	"github.com/jhoicas/opname-api/internal/domain/repository"
)

var (
	_ repository.OpnameSessionRepository   = (*SessionRepo)(nil)
	_ repository.CountItemRepository       = (*CountItemRepo)(nil)
	_ repository.StockAdjustmentRepository = (*AdjustmentRepo)(nil)
)

const sessionColumns = `id, number, outlet_id, status, notes, created_by, created_at, completed_at, cancelled_at`

// SessionRepo implementación de OpnameSessionRepository sobre PostgreSQL.
type SessionRepo struct {
	q Querier
}

// NewSessionRepository construye el adaptador de sesiones de opname.
func NewSessionRepository(q Querier) *SessionRepo {
	return &SessionRepo{q: q}
}

// Create persiste la sesión; número repetido -> domain.ErrDuplicate.
func (r *SessionRepo) Create(ctx context.Context, s *entity.OpnameSession) error {
	query := `
		INSERT INTO opname_sessions (` + sessionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		s.ID, s.Number, s.OutletID, string(s.Status), s.Notes, s.CreatedBy, s.CreatedAt, s.CompletedAt, s.CancelledAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert opname session: %w", err)
	}
	return nil
}

// GetByID obtiene una sesión por ID.
func (r *SessionRepo) GetByID(ctx context.Context, id string) (*entity.OpnameSession, error) {
	return r.getOne(ctx, `SELECT `+sessionColumns+` FROM opname_sessions WHERE id = $1`, id)
}

// GetForUpdate obtiene la sesión y bloquea la fila (SELECT FOR UPDATE).
func (r *SessionRepo) GetForUpdate(ctx context.Context, id string) (*entity.OpnameSession, error) {
	return r.getOne(ctx, `SELECT `+sessionColumns+` FROM opname_sessions WHERE id = $1 FOR UPDATE`, id)
}

// UpdateStatus persiste estado y timestamps finales.
func (r *SessionRepo) UpdateStatus(ctx context.Context, s *entity.OpnameSession) error {
	if !validIDs(s.ID) {
		return domain.ErrNotFound
	}
	tag, err := r.q.Exec(ctx, `
		UPDATE opname_sessions
		SET status = $2, completed_at = $3, cancelled_at = $4
		WHERE id = $1`, s.ID, string(s.Status), s.CompletedAt, s.CancelledAt)
	if err != nil {
		return fmt.Errorf("update opname session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List lista sesiones, más recientes primero.
func (r *SessionRepo) List(ctx context.Context, f repository.SessionFilter) ([]*entity.OpnameSession, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.OutletID != "" {
		if !validIDs(f.OutletID) {
			return nil, nil
		}
		args = append(args, f.OutletID)
		where = append(where, fmt.Sprintf("outlet_id = $%d", len(args)))
	}
	query := `SELECT ` + sessionColumns + ` FROM opname_sessions`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, f.Limit, f.Offset)
	query += fmt.Sprintf(` ORDER BY created_at DESC, number DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list opname sessions: %w", err)
	}
	defer rows.Close()
	var list []*entity.OpnameSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan opname session: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

func (r *SessionRepo) getOne(ctx context.Context, query, id string) (*entity.OpnameSession, error) {
	if !validIDs(id) {
		return nil, nil
	}
	s, err := scanSession(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if missing(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get opname session: %w", err)
	}
	return s, nil
}

func scanSession(row pgx.Row) (*entity.OpnameSession, error) {
	var (
		s      entity.OpnameSession
		status string
	)
	if err := row.Scan(&s.ID, &s.Number, &s.OutletID, &status, &s.Notes, &s.CreatedBy,
		&s.CreatedAt, &s.CompletedAt, &s.CancelledAt); err != nil {
		return nil, err
	}
	s.Status = entity.SessionStatus(status)
	return &s, nil
}

// CountItemRepo implementación de CountItemRepository sobre PostgreSQL.
type CountItemRepo struct {
	q Querier
}

// NewCountItemRepository construye el adaptador de ítems contados.
func NewCountItemRepository(q Querier) *CountItemRepo {
	return &CountItemRepo{q: q}
}

// Get obtiene el ítem de la sesión para el producto; nil si aún no se escaneó.
func (r *CountItemRepo) Get(ctx context.Context, sessionID, productID string) (*entity.CountItem, error) {
	if !validIDs(sessionID, productID) {
		return nil, nil
	}
	var it entity.CountItem
	err := r.q.QueryRow(ctx, `
		SELECT id, session_id, product_id, system_stock, actual_stock, created_at, updated_at
		FROM opname_items WHERE session_id = $1 AND product_id = $2`, sessionID, productID).Scan(
		&it.ID, &it.SessionID, &it.ProductID, &it.SystemStock, &it.ActualStock, &it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		if missing(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get opname item: %w", err)
	}
	return &it, nil
}

// Upsert inserta el ítem; en conflicto solo actualiza actual_stock (system_stock se conserva).
func (r *CountItemRepo) Upsert(ctx context.Context, it *entity.CountItem) error {
	query := `
		INSERT INTO opname_items (id, session_id, product_id, system_stock, actual_stock, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (session_id, product_id)
		DO UPDATE SET actual_stock = EXCLUDED.actual_stock, updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query,
		it.ID, it.SessionID, it.ProductID, it.SystemStock, it.ActualStock, it.CreatedAt, it.UpdatedAt,
	)
	if err != nil {
		if isCheckViolation(err) {
			return fmt.Errorf("%w: actual_stock negativo", domain.ErrInvalidInput)
		}
		return fmt.Errorf("upsert opname item: %w", err)
	}
	return nil
}

// ListBySession devuelve los ítems en orden de primer escaneo.
func (r *CountItemRepo) ListBySession(ctx context.Context, sessionID string) ([]*entity.CountItem, error) {
	if !validIDs(sessionID) {
		return nil, nil
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, session_id, product_id, system_stock, actual_stock, created_at, updated_at
		FROM opname_items WHERE session_id = $1
		ORDER BY created_at, id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list opname items: %w", err)
	}
	defer rows.Close()
	var list []*entity.CountItem
	for rows.Next() {
		var it entity.CountItem
		if err := rows.Scan(&it.ID, &it.SessionID, &it.ProductID, &it.SystemStock, &it.ActualStock,
			&it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan opname item: %w", err)
		}
		list = append(list, &it)
	}
	return list, rows.Err()
}

// AdjustmentRepo log de ajustes sobre PostgreSQL. Solo INSERT: nunca se actualiza ni se borra.
type AdjustmentRepo struct {
	q Querier
}

// NewAdjustmentRepository construye el adaptador del log de ajustes.
func NewAdjustmentRepository(q Querier) *AdjustmentRepo {
	return &AdjustmentRepo{q: q}
}

// Append agrega un ajuste al log.
func (r *AdjustmentRepo) Append(ctx context.Context, a *entity.StockAdjustment) error {
	query := `
		INSERT INTO stock_adjustments (id, session_id, product_id, outlet_id, previous_stock, new_stock,
			adjustment, observed_stock, unit_cost, reason, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		a.ID, a.SessionID, a.ProductID, a.OutletID, a.PreviousStock, a.NewStock,
		a.Adjustment, a.ObservedStock, a.UnitCost, a.Reason, a.CreatedBy, a.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("append stock adjustment: %w", err)
	}
	return nil
}

// ListBySession devuelve los ajustes de la sesión en orden de creación.
func (r *AdjustmentRepo) ListBySession(ctx context.Context, sessionID string) ([]*entity.StockAdjustment, error) {
	if !validIDs(sessionID) {
		return nil, nil
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, session_id, product_id, outlet_id, previous_stock, new_stock, adjustment,
			observed_stock, unit_cost, reason, created_by, created_at
		FROM stock_adjustments WHERE session_id = $1
		ORDER BY created_at, seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list stock adjustments: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockAdjustment
	for rows.Next() {
		var a entity.StockAdjustment
		if err := rows.Scan(&a.ID, &a.SessionID, &a.ProductID, &a.OutletID, &a.PreviousStock, &a.NewStock,
			&a.Adjustment, &a.ObservedStock, &a.UnitCost, &a.Reason, &a.CreatedBy, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan stock adjustment: %w", err)
		}
		list = append(list, &a)
	}
	return list, rows.Err()
}
