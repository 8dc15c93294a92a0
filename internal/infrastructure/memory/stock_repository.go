package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/opname-api/internal/domain/entity"
	"github.com/jhoicas/opname-api/internal/domain/repository"
)

var _ repository.OutletStockRepository = (*OutletStockRepo)(nil)

// OutletStockRepo implementación en memoria del ledger de stock por outlet.
type OutletStockRepo struct {
	v view
}

func (r *OutletStockRepo) Get(_ context.Context, outletID, productID string) (*entity.OutletStock, error) {
	var out *entity.OutletStock
	err := r.v.do(func(st *state) error {
		if rec, ok := st.stock[entity.StockKey{OutletID: outletID, ProductID: productID}]; ok {
			out = &rec
		}
		return nil
	})
	return out, err
}

func (r *OutletStockRepo) GetForUpdate(ctx context.Context, outletID, productID string) (*entity.OutletStock, error) {
	return r.Get(ctx, outletID, productID)
}

func (r *OutletStockRepo) Upsert(_ context.Context, s *entity.OutletStock) error {
	if s.Quantity < 0 {
		return fmt.Errorf("upsert outlet stock: cantidad negativa %d", s.Quantity)
	}
	return r.v.do(func(st *state) error {
		st.stock[s.Key()] = *s
		return nil
	})
}

func (r *OutletStockRepo) InsertIfAbsent(_ context.Context, s *entity.OutletStock) (bool, error) {
	if s.Quantity < 0 {
		return false, fmt.Errorf("insert outlet stock: cantidad negativa %d", s.Quantity)
	}
	created := false
	err := r.v.do(func(st *state) error {
		if _, ok := st.stock[s.Key()]; ok {
			return nil
		}
		st.stock[s.Key()] = *s
		created = true
		return nil
	})
	return created, err
}

func (r *OutletStockRepo) ListByProduct(_ context.Context, productID string) ([]*entity.OutletStock, error) {
	var out []*entity.OutletStock
	err := r.v.do(func(st *state) error {
		for k, rec := range st.stock {
			if k.ProductID == productID {
				rec := rec
				out = append(out, &rec)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].OutletID < out[j].OutletID })
	return out, err
}
