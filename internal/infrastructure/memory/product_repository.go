package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/opname-api/internal/domain"
	"github.com/jhoicas/opname-api/internal/domain/entity"
	"github.com/jhoicas/opname-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación en memoria de ProductRepository.
type ProductRepo struct {
	v view
}

func (r *ProductRepo) Create(_ context.Context, p *entity.Product) error {
	return r.v.do(func(st *state) error {
		if _, ok := st.products[p.ID]; ok {
			return domain.ErrDuplicate
		}
		if _, ok := st.barcodes[p.Barcode]; ok {
			return domain.ErrDuplicate
		}
		st.products[p.ID] = *p
		st.barcodes[p.Barcode] = p.ID
		return nil
	})
}

func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	var out *entity.Product
	err := r.v.do(func(st *state) error {
		if p, ok := st.products[id]; ok {
			out = &p
		}
		return nil
	})
	return out, err
}

func (r *ProductRepo) GetByBarcode(ctx context.Context, barcode string) (*entity.Product, error) {
	var id string
	_ = r.v.do(func(st *state) error {
		id = st.barcodes[barcode]
		return nil
	})
	if id == "" {
		return nil, nil
	}
	return r.GetByID(ctx, id)
}

// GetForUpdate equivale a GetByID: dentro de TxRunner.Run el store ya está bloqueado.
func (r *ProductRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.GetByID(ctx, id)
}

func (r *ProductRepo) SetStock(_ context.Context, id string, quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("set stock %s: cantidad negativa %d", id, quantity)
	}
	return r.v.do(func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return domain.ErrNotFound
		}
		p.StockQuantity = quantity
		p.UpdatedAt = time.Now()
		st.products[id] = p
		return nil
	})
}
