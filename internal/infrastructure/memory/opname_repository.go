package memory

import (
	"context"

	"github.com/jhoicas/opname-api/internal/domain"
	"github.com/jhoicas/opname-api/internal/domain/entity"
	"github.com/jhoicas/opname-api/internal/domain/repository"
)

var (
	_ repository.OpnameSessionRepository   = (*SessionRepo)(nil)
	_ repository.CountItemRepository       = (*CountItemRepo)(nil)
	_ repository.StockAdjustmentRepository = (*AdjustmentRepo)(nil)
)

// SessionRepo implementación en memoria de OpnameSessionRepository.
type SessionRepo struct {
	v view
}

func (r *SessionRepo) Create(_ context.Context, s *entity.OpnameSession) error {
	return r.v.do(func(st *state) error {
		if _, ok := st.sessions[s.ID]; ok {
			return domain.ErrDuplicate
		}
		if _, ok := st.numbers[s.Number]; ok {
			return domain.ErrDuplicate
		}
		st.sessions[s.ID] = *s
		st.numbers[s.Number] = s.ID
		st.sessionOrder = append(st.sessionOrder, s.ID)
		return nil
	})
}

func (r *SessionRepo) GetByID(_ context.Context, id string) (*entity.OpnameSession, error) {
	var out *entity.OpnameSession
	err := r.v.do(func(st *state) error {
		if s, ok := st.sessions[id]; ok {
			out = &s
		}
		return nil
	})
	return out, err
}

func (r *SessionRepo) GetForUpdate(ctx context.Context, id string) (*entity.OpnameSession, error) {
	return r.GetByID(ctx, id)
}

func (r *SessionRepo) UpdateStatus(_ context.Context, s *entity.OpnameSession) error {
	return r.v.do(func(st *state) error {
		cur, ok := st.sessions[s.ID]
		if !ok {
			return domain.ErrNotFound
		}
		cur.Status = s.Status
		cur.CompletedAt = s.CompletedAt
		cur.CancelledAt = s.CancelledAt
		st.sessions[s.ID] = cur
		return nil
	})
}

// List devuelve las sesiones más recientes primero.
func (r *SessionRepo) List(_ context.Context, f repository.SessionFilter) ([]*entity.OpnameSession, error) {
	var out []*entity.OpnameSession
	err := r.v.do(func(st *state) error {
		skipped := 0
		for i := len(st.sessionOrder) - 1; i >= 0; i-- {
			s := st.sessions[st.sessionOrder[i]]
			if f.Status != "" && s.Status != f.Status {
				continue
			}
			if f.OutletID != "" && (s.OutletID == nil || *s.OutletID != f.OutletID) {
				continue
			}
			if skipped < f.Offset {
				skipped++
				continue
			}
			if f.Limit > 0 && len(out) >= f.Limit {
				break
			}
			out = append(out, &s)
		}
		return nil
	})
	return out, err
}

// CountItemRepo implementación en memoria de CountItemRepository.
type CountItemRepo struct {
	v view
}

func (r *CountItemRepo) Get(_ context.Context, sessionID, productID string) (*entity.CountItem, error) {
	var out *entity.CountItem
	err := r.v.do(func(st *state) error {
		if it, ok := st.items[itemKey{SessionID: sessionID, ProductID: productID}]; ok {
			out = &it
		}
		return nil
	})
	return out, err
}

// Upsert inserta el ítem o, si ya existe, actualiza solo actual_stock.
func (r *CountItemRepo) Upsert(_ context.Context, it *entity.CountItem) error {
	return r.v.do(func(st *state) error {
		k := itemKey{SessionID: it.SessionID, ProductID: it.ProductID}
		if cur, ok := st.items[k]; ok {
			cur.ActualStock = it.ActualStock
			cur.UpdatedAt = it.UpdatedAt
			st.items[k] = cur
			return nil
		}
		st.items[k] = *it
		st.itemOrder[it.SessionID] = append(st.itemOrder[it.SessionID], it.ProductID)
		return nil
	})
}

func (r *CountItemRepo) ListBySession(_ context.Context, sessionID string) ([]*entity.CountItem, error) {
	var out []*entity.CountItem
	err := r.v.do(func(st *state) error {
		for _, pid := range st.itemOrder[sessionID] {
			it := st.items[itemKey{SessionID: sessionID, ProductID: pid}]
			out = append(out, &it)
		}
		return nil
	})
	return out, err
}

// AdjustmentRepo log de ajustes en memoria, solo append.
type AdjustmentRepo struct {
	v view
}

func (r *AdjustmentRepo) Append(_ context.Context, a *entity.StockAdjustment) error {
	return r.v.do(func(st *state) error {
		for _, existing := range st.adjustments {
			if existing.ID == a.ID {
				return domain.ErrDuplicate
			}
		}
		st.adjustments = append(st.adjustments, *a)
		return nil
	})
}

func (r *AdjustmentRepo) ListBySession(_ context.Context, sessionID string) ([]*entity.StockAdjustment, error) {
	var out []*entity.StockAdjustment
	err := r.v.do(func(st *state) error {
		for _, a := range st.adjustments {
			if a.SessionID == sessionID {
				a := a
				out = append(out, &a)
			}
		}
		return nil
	})
	return out, err
}
