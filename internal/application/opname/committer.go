package opname

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/opname-api/internal/application/ports"
	"github.com/jhoicas/opname-api/internal/domain"
	"github.com/jhoicas/opname-api/internal/domain/entity"
)

// Drift producto cuyo stock agregado cambió entre el primer escaneo y el cierre.
type Drift struct {
	ProductID string `json:"product_id"`
	Baseline  int    `json:"baseline"` // system_stock del ítem
	Observed  int    `json:"observed"` // stock agregado al cerrar
}

// Outcome resultado de aplicar una sesión.
type Outcome struct {
	Adjustments []*entity.StockAdjustment
	Drifts      []Drift
}

// Committer aplica los ítems con discrepancia de una sesión: por cada uno agrega un ajuste al log,
// sobrescribe el stock agregado del producto y, si la sesión es de un outlet, su registro de stock.
// Debe ejecutarse con repositorios atados a una única transacción.
type Committer struct {
	strictBaseline bool
	log            zerolog.Logger
}

// NewCommitter construye el committer. strictBaseline rechaza el cierre ante cualquier drift.
func NewCommitter(strictBaseline bool, log zerolog.Logger) *Committer {
	return &Committer{strictBaseline: strictBaseline, log: log}
}

type pending struct {
	item    *entity.CountItem
	product *entity.Product
}

// Apply procesa los ítems; los de discrepancia 0 se omiten. Cualquier error deja la transacción
// para Rollback: los errores de infraestructura se devuelven como *domain.CommitError.
func (c *Committer) Apply(
	ctx context.Context,
	repos ports.Repositories,
	session *entity.OpnameSession,
	items []*entity.CountItem,
	actorID string,
	now time.Time,
) (*Outcome, error) {
	discrepant := make([]*entity.CountItem, 0, len(items))
	for _, it := range items {
		if it.Discrepancy() != 0 {
			discrepant = append(discrepant, it)
		}
	}
	// Orden estable de bloqueo entre cierres concurrentes.
	sort.SliceStable(discrepant, func(i, j int) bool { return discrepant[i].ProductID < discrepant[j].ProductID })

	out := &Outcome{}
	work := make([]pending, 0, len(discrepant))
	for _, it := range discrepant {
		p, err := repos.Products.GetForUpdate(ctx, it.ProductID)
		if err != nil {
			return nil, commitErr(session.ID, it.ProductID, err)
		}
		if p == nil {
			return nil, commitErr(session.ID, it.ProductID, domain.ErrNotFound)
		}
		if p.StockQuantity != it.SystemStock {
			out.Drifts = append(out.Drifts, Drift{ProductID: it.ProductID, Baseline: it.SystemStock, Observed: p.StockQuantity})
			c.log.Warn().
				Str("session_id", session.ID).
				Str("product_id", it.ProductID).
				Int("baseline", it.SystemStock).
				Int("observed", p.StockQuantity).
				Msg("stock agregado cambió durante el conteo")
		}
		work = append(work, pending{item: it, product: p})
	}
	if c.strictBaseline && len(out.Drifts) > 0 {
		ids := make([]string, 0, len(out.Drifts))
		for _, d := range out.Drifts {
			ids = append(ids, d.ProductID)
		}
		return nil, &domain.StockChangedError{SessionID: session.ID, ProductIDs: ids}
	}

	for _, w := range work {
		it := w.item
		adj := &entity.StockAdjustment{
			ID:            uuid.New().String(),
			SessionID:     session.ID,
			ProductID:     it.ProductID,
			OutletID:      session.OutletID,
			PreviousStock: it.SystemStock,
			NewStock:      it.ActualStock,
			Adjustment:    it.Discrepancy(),
			ObservedStock: w.product.StockQuantity,
			UnitCost:      w.product.Cost,
			Reason:        entity.AdjustmentReasonOpname,
			CreatedBy:     actorID,
			CreatedAt:     now,
		}
		if err := repos.Adjustments.Append(ctx, adj); err != nil {
			return nil, commitErr(session.ID, it.ProductID, err)
		}
		if err := repos.Products.SetStock(ctx, it.ProductID, it.ActualStock); err != nil {
			return nil, commitErr(session.ID, it.ProductID, err)
		}
		if session.OutletScoped() {
			if err := repos.OutletStock.Upsert(ctx, &entity.OutletStock{
				OutletID:  *session.OutletID,
				ProductID: it.ProductID,
				Quantity:  it.ActualStock,
				UpdatedAt: now,
			}); err != nil {
				return nil, commitErr(session.ID, it.ProductID, err)
			}
		}
		out.Adjustments = append(out.Adjustments, adj)
	}
	return out, nil
}

func commitErr(sessionID, productID string, err error) error {
	var ce *domain.CommitError
	if errors.As(err, &ce) {
		return err
	}
	return &domain.CommitError{SessionID: sessionID, ProductID: productID, Err: err}
}
