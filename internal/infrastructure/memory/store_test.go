package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/opname-api/internal/application/ports"
	"github.com/jhoicas/opname-api/internal/domain"
	"github.com/jhoicas/opname-api/internal/domain/entity"
	"github.com/jhoicas/opname-api/internal/domain/repository"
	"github.com/jhoicas/opname-api/internal/infrastructure/memory"
)

func seedProduct(t *testing.T, repos ports.Repositories, id string, stock int) {
	t.Helper()
	require.NoError(t, repos.Products.Create(context.Background(), &entity.Product{
		ID: id, Name: "Producto " + id, Barcode: "bc-" + id, StockQuantity: stock,
	}))
}

func TestTxRunner_ErrorRestauraEstado(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	repos := store.Repositories()
	seedProduct(t, repos, "p1", 10)

	boom := errors.New("boom")
	err := memory.NewTxRunner(store).Run(ctx, func(tx ports.Repositories) error {
		require.NoError(t, tx.Products.SetStock(ctx, "p1", 3))
		require.NoError(t, tx.Adjustments.Append(ctx, &entity.StockAdjustment{ID: "a1", SessionID: "s1", ProductID: "p1"}))
		require.NoError(t, tx.OutletStock.Upsert(ctx, &entity.OutletStock{OutletID: "o1", ProductID: "p1", Quantity: 3}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	p, err := repos.Products.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 10, p.StockQuantity, "el stock agregado vuelve al valor previo")

	adjs, err := repos.Adjustments.ListBySession(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, adjs, "ningún ajuste queda escrito")

	rec, err := repos.OutletStock.Get(ctx, "o1", "p1")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestTxRunner_ExitoPersiste(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	repos := store.Repositories()
	seedProduct(t, repos, "p1", 10)

	require.NoError(t, memory.NewTxRunner(store).Run(ctx, func(tx ports.Repositories) error {
		return tx.Products.SetStock(ctx, "p1", 7)
	}))

	p, err := repos.Products.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 7, p.StockQuantity)
}

func TestTxRunner_ContextoCancelado(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := memory.NewTxRunner(memory.NewStore()).Run(ctx, func(ports.Repositories) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestOutletStock_FilaPorParIndependiente(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewStore().Repositories()

	require.NoError(t, repos.OutletStock.Upsert(ctx, &entity.OutletStock{OutletID: "A", ProductID: "p1", Quantity: 5}))
	require.NoError(t, repos.OutletStock.Upsert(ctx, &entity.OutletStock{OutletID: "B", ProductID: "p1", Quantity: 9}))

	created, err := repos.OutletStock.InsertIfAbsent(ctx, &entity.OutletStock{OutletID: "A", ProductID: "p1", Quantity: 0})
	require.NoError(t, err)
	assert.False(t, created, "InsertIfAbsent no sobrescribe")

	a, err := repos.OutletStock.Get(ctx, "A", "p1")
	require.NoError(t, err)
	assert.Equal(t, 5, a.Quantity)

	list, err := repos.OutletStock.ListByProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestSessionRepo_NumeroUnico(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewStore().Repositories()
	now := time.Now()

	require.NoError(t, repos.Sessions.Create(ctx, &entity.OpnameSession{ID: "s1", Number: "OPN-20240101-0001", Status: entity.SessionInProgress, CreatedAt: now}))
	err := repos.Sessions.Create(ctx, &entity.OpnameSession{ID: "s2", Number: "OPN-20240101-0001", Status: entity.SessionInProgress, CreatedAt: now})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestSessionRepo_ListFiltraYOrdena(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewStore().Repositories()
	outlet := "o1"
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repos.Sessions.Create(ctx, &entity.OpnameSession{ID: "s1", Number: "OPN-20240101-0001", Status: entity.SessionInProgress, CreatedAt: base}))
	require.NoError(t, repos.Sessions.Create(ctx, &entity.OpnameSession{ID: "s2", Number: "OPN-20240101-0002", OutletID: &outlet, Status: entity.SessionInProgress, CreatedAt: base.Add(time.Hour)}))
	require.NoError(t, repos.Sessions.Create(ctx, &entity.OpnameSession{ID: "s3", Number: "OPN-20240101-0003", OutletID: &outlet, Status: entity.SessionCancelled, CreatedAt: base.Add(2 * time.Hour)}))

	all, err := repos.Sessions.List(ctx, repository.SessionFilter{Limit: 10})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "s3", all[0].ID, "más recientes primero")

	byOutlet, err := repos.Sessions.List(ctx, repository.SessionFilter{OutletID: outlet, Status: entity.SessionInProgress, Limit: 10})
	require.NoError(t, err)
	require.Len(t, byOutlet, 1)
	assert.Equal(t, "s2", byOutlet[0].ID)
}

func TestCountItemRepo_UpsertMantieneOrdenYSystemStock(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewStore().Repositories()

	require.NoError(t, repos.Items.Upsert(ctx, &entity.CountItem{ID: "i1", SessionID: "s1", ProductID: "b", SystemStock: 10, ActualStock: 8}))
	require.NoError(t, repos.Items.Upsert(ctx, &entity.CountItem{ID: "i2", SessionID: "s1", ProductID: "a", SystemStock: 5, ActualStock: 5}))
	require.NoError(t, repos.Items.Upsert(ctx, &entity.CountItem{ID: "i1", SessionID: "s1", ProductID: "b", SystemStock: 99, ActualStock: 9}))

	items, err := repos.Items.ListBySession(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "b", items[0].ProductID, "orden de primer escaneo")
	assert.Equal(t, 10, items[0].SystemStock)
	assert.Equal(t, 9, items[0].ActualStock)
}
