package memory

import (
	"context"

	"github.com/jhoicas/opname-api/internal/domain"
	"github.com/jhoicas/opname-api/internal/domain/entity"
	"github.com/jhoicas/opname-api/internal/domain/repository"
)

var _ repository.OutletRepository = (*OutletRepo)(nil)

// OutletRepo implementación en memoria de OutletRepository.
type OutletRepo struct {
	v view
}

func (r *OutletRepo) Create(_ context.Context, o *entity.Outlet) error {
	return r.v.do(func(st *state) error {
		if _, ok := st.outlets[o.ID]; ok {
			return domain.ErrDuplicate
		}
		for _, existing := range st.outlets {
			if existing.Code == o.Code {
				return domain.ErrDuplicate
			}
		}
		st.outlets[o.ID] = *o
		st.outletOrder = append(st.outletOrder, o.ID)
		return nil
	})
}

func (r *OutletRepo) GetByID(_ context.Context, id string) (*entity.Outlet, error) {
	var out *entity.Outlet
	err := r.v.do(func(st *state) error {
		if o, ok := st.outlets[id]; ok {
			out = &o
		}
		return nil
	})
	return out, err
}

func (r *OutletRepo) List(_ context.Context, limit, offset int) ([]*entity.Outlet, error) {
	var out []*entity.Outlet
	err := r.v.do(func(st *state) error {
		for _, id := range page(st.outletOrder, limit, offset) {
			o := st.outlets[id]
			out = append(out, &o)
		}
		return nil
	})
	return out, err
}

func (r *OutletRepo) ListActiveIDs(_ context.Context) ([]string, error) {
	var out []string
	err := r.v.do(func(st *state) error {
		for _, id := range st.outletOrder {
			if st.outlets[id].Active {
				out = append(out, id)
			}
		}
		return nil
	})
	return out, err
}

func page(ids []string, limit, offset int) []string {
	if offset >= len(ids) {
		return nil
	}
	ids = ids[offset:]
	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}
	return ids
}
