package stock_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/opname-api/internal/application/ports"
	"github.com/jhoicas/opname-api/internal/application/stock"
	"github.com/jhoicas/opname-api/internal/domain"
	"github.com/jhoicas/opname-api/internal/domain/entity"
	"github.com/jhoicas/opname-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

type fixture struct {
	store *memory.Store
	uc    *stock.LedgerUseCase
}

func newFixture(t *testing.T, cache *fakeCache) *fixture {
	t.Helper()
	store := memory.NewStore()
	repos := store.Repositories()
	var c ports.StockCache
	if cache != nil {
		c = cache
	}
	uc := stock.NewLedgerUseCase(memory.NewTxRunner(store), repos.OutletStock, repos.Products, store.Outlets(), c, zerolog.Nop())
	f := &fixture{store: store, uc: uc}
	f.outlet(t, "A", true)
	f.outlet(t, "B", true)
	f.product(t, "p1", 0)
	return f
}

func (f *fixture) outlet(t *testing.T, id string, active bool) {
	t.Helper()
	require.NoError(t, f.store.Outlets().Create(context.Background(), &entity.Outlet{ID: id, Code: "OUT-" + id, Name: "Outlet " + id, Active: active}))
}

func (f *fixture) product(t *testing.T, id string, stockQty int) {
	t.Helper()
	require.NoError(t, f.store.Repositories().Products.Create(context.Background(), &entity.Product{
		ID: id, Name: "Producto " + id, Barcode: "bc-" + id, StockQuantity: stockQty,
	}))
}

// fakeCache caché en memoria que registra invalidaciones.
// Con fillStarted/releaseFill, SetIfAbsent se detiene hasta que el test lo libera.
type fakeCache struct {
	mu          sync.Mutex
	data        map[entity.StockKey]int
	invalidated []entity.StockKey
	failGet     bool
	fillStarted chan struct{}
	releaseFill chan struct{}
}

func newFakeCache() *fakeCache { return &fakeCache{data: map[entity.StockKey]int{}} }

func (c *fakeCache) Get(_ context.Context, k entity.StockKey) (int, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet {
		return 0, false, errors.New("redis caído")
	}
	v, ok := c.data[k]
	return v, ok, nil
}

func (c *fakeCache) Set(_ context.Context, k entity.StockKey, qty int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[k] = qty
	return nil
}

func (c *fakeCache) SetIfAbsent(_ context.Context, k entity.StockKey, qty int) (bool, error) {
	if c.fillStarted != nil {
		c.fillStarted <- struct{}{}
		<-c.releaseFill
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.data[k]; ok {
		return false, nil
	}
	c.data[k] = qty
	return true, nil
}

func (c *fakeCache) cached(k entity.StockKey) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[k]
	return v, ok
}

func (c *fakeCache) Invalidate(_ context.Context, keys ...entity.StockKey) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
		c.invalidated = append(c.invalidated, k)
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Get / Set
// ──────────────────────────────────────────────────────────────────────────────

func TestGet_SinRegistroDevuelveCero(t *testing.T) {
	f := newFixture(t, nil)

	qty, err := f.uc.Get(context.Background(), "A", "p1")
	require.NoError(t, err)
	assert.Equal(t, 0, qty)
}

func TestGet_OutletOProductoInexistente(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.uc.Get(ctx, "Z", "p1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.uc.Get(ctx, "A", "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.uc.Get(ctx, "", "p1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSet_AisladoPorOutlet(t *testing.T) {
	// GIVEN dos outlets con el mismo producto
	f := newFixture(t, nil)
	ctx := context.Background()

	// WHEN se escribe solo en A
	require.NoError(t, f.uc.Set(ctx, "A", "p1", 12))

	// THEN B no cambia
	a, err := f.uc.Get(ctx, "A", "p1")
	require.NoError(t, err)
	b, err := f.uc.Get(ctx, "B", "p1")
	require.NoError(t, err)
	assert.Equal(t, 12, a)
	assert.Equal(t, 0, b)
}

func TestSet_Idempotente(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	require.NoError(t, f.uc.Set(ctx, "A", "p1", 7))
	require.NoError(t, f.uc.Set(ctx, "A", "p1", 7))

	qty, err := f.uc.Get(ctx, "A", "p1")
	require.NoError(t, err)
	assert.Equal(t, 7, qty)
}

func TestSet_NegativoRechazado(t *testing.T) {
	f := newFixture(t, nil)

	err := f.uc.Set(context.Background(), "A", "p1", -1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Adjust
// ──────────────────────────────────────────────────────────────────────────────

func TestAdjust_Tabla(t *testing.T) {
	cases := []struct {
		name    string
		start   int
		delta   int
		want    int
		wantErr bool
	}{
		{name: "suma", start: 5, delta: 3, want: 8},
		{name: "resta hasta cero", start: 5, delta: -5, want: 0},
		{name: "delta cero", start: 5, delta: 0, want: 5},
		{name: "resta excesiva", start: 5, delta: -6, want: 5, wantErr: true},
		{name: "sin registro y negativo", start: -1, delta: -1, want: 0, wantErr: true},
		{name: "sin registro y positivo", start: -1, delta: 4, want: 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, nil)
			ctx := context.Background()
			if tc.start >= 0 {
				require.NoError(t, f.uc.Set(ctx, "A", "p1", tc.start))
			}

			res, err := f.uc.Adjust(ctx, "A", "p1", tc.delta)
			if tc.wantErr {
				var ise *domain.InsufficientStockError
				require.ErrorAs(t, err, &ise)
				assert.ErrorIs(t, err, domain.ErrInsufficientStock)
				assert.Equal(t, tc.delta, ise.Delta)
				assert.Nil(t, res)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.want, res.NewQuantity)
				assert.Equal(t, tc.want-tc.delta, res.PreviousQuantity)
			}

			qty, err := f.uc.Get(ctx, "A", "p1")
			require.NoError(t, err)
			assert.Equal(t, tc.want, qty, "la cantidad nunca queda negativa")
		})
	}
}

func TestAdjust_FueraDeRango(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.uc.Set(ctx, "A", "p1", 5))

	_, err := f.uc.Adjust(ctx, "A", "p1", math.MaxInt)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "delta enorme es entrada inválida, no stock insuficiente")
	assert.NotErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = f.uc.Adjust(ctx, "A", "p1", math.MinInt)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	require.NoError(t, f.uc.Set(ctx, "A", "p1", entity.MaxQuantity))
	_, err = f.uc.Adjust(ctx, "A", "p1", 1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "el resultado supera el máximo")

	qty, err := f.uc.Get(ctx, "A", "p1")
	require.NoError(t, err)
	assert.Equal(t, entity.MaxQuantity, qty, "el rechazo no modifica el registro")

	assert.ErrorIs(t, f.uc.Set(ctx, "A", "p1", entity.MaxQuantity+1), domain.ErrInvalidInput)
}

func TestAdjust_RechazoNoCreaRegistro(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.uc.Adjust(ctx, "A", "p1", -1)
	require.Error(t, err)

	rec, err := f.store.Repositories().OutletStock.Get(ctx, "A", "p1")
	require.NoError(t, err)
	assert.Nil(t, rec, "el rollback elimina la fila sembrada para bloquear")
}

// Dos ajustes concurrentes de -3 sobre 5: exactamente uno gana.
func TestAdjust_ConcurrenteNuncaNegativo(t *testing.T) {
	// GIVEN outlet A con p1 = 5
	f := newFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.uc.Set(ctx, "A", "p1", 5))

	// WHEN dos ajustes de -3 compiten
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.uc.Adjust(ctx, "A", "p1", -3)
		}(i)
	}
	wg.Wait()

	// THEN uno es aceptado y el otro rechazado por stock insuficiente
	ok, rejected := 0, 0
	for _, err := range errs {
		if err == nil {
			ok++
		} else if errors.Is(err, domain.ErrInsufficientStock) {
			rejected++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, rejected)

	qty, err := f.uc.Get(ctx, "A", "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, qty)
}

// ──────────────────────────────────────────────────────────────────────────────
// Inicialización
// ──────────────────────────────────────────────────────────────────────────────

func TestInitializeForOutlets_NoSobrescribe(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.outlet(t, "C", true)
	require.NoError(t, f.uc.Set(ctx, "B", "p1", 9))

	created, err := f.uc.InitializeForOutlets(ctx, []string{"A", "B", "C", "A"}, "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, created, "B ya existía y A se repite")

	b, err := f.uc.Get(ctx, "B", "p1")
	require.NoError(t, err)
	assert.Equal(t, 9, b)

	again, err := f.uc.InitializeForOutlets(ctx, []string{"A", "B", "C"}, "p1")
	require.NoError(t, err)
	assert.Zero(t, again)
}

func TestInitializeProductStock_SoloOutletsActivos(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.outlet(t, "X", false)

	created, err := f.uc.InitializeProductStock(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	list, err := f.uc.ListProductStock(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, list, 2)
	for _, rec := range list {
		assert.NotEqual(t, "X", rec.OutletID)
		assert.Zero(t, rec.Quantity)
	}

	_, err = f.uc.InitializeProductStock(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Caché
// ──────────────────────────────────────────────────────────────────────────────

func TestCache_LecturaPoblaYEscrituraSobrescribe(t *testing.T) {
	cache := newFakeCache()
	f := newFixture(t, cache)
	ctx := context.Background()
	key := entity.StockKey{OutletID: "A", ProductID: "p1"}

	require.NoError(t, f.uc.Set(ctx, "A", "p1", 4))
	v, ok := cache.cached(key)
	require.True(t, ok, "Set escribe el valor confirmado")
	assert.Equal(t, 4, v)

	qty, err := f.uc.Get(ctx, "A", "p1")
	require.NoError(t, err)
	assert.Equal(t, 4, qty)

	_, err = f.uc.Adjust(ctx, "A", "p1", 2)
	require.NoError(t, err)
	v, _ = cache.cached(key)
	assert.Equal(t, 6, v, "el ajuste sobrescribe la entrada")

	qty, err = f.uc.Get(ctx, "A", "p1")
	require.NoError(t, err)
	assert.Equal(t, 6, qty)
	assert.Empty(t, cache.invalidated)
}

func TestCache_LecturaLentaNoPisaAjustePosterior(t *testing.T) {
	// GIVEN A/p1 = 100 sin entrada en caché y un lector cuyo poblado queda detenido
	cache := newFakeCache()
	f := newFixture(t, cache)
	ctx := context.Background()
	require.NoError(t, f.uc.Set(ctx, "A", "p1", 100))
	require.NoError(t, cache.Invalidate(ctx, entity.StockKey{OutletID: "A", ProductID: "p1"}))
	cache.fillStarted = make(chan struct{})
	cache.releaseFill = make(chan struct{})

	readerDone := make(chan int)
	go func() {
		qty, _ := f.uc.Get(ctx, "A", "p1")
		readerDone <- qty
	}()
	<-cache.fillStarted

	// WHEN se ajusta -10 mientras el lector aún no pobló el caché
	res, err := f.uc.Adjust(ctx, "A", "p1", -10)
	require.NoError(t, err)
	require.Equal(t, 90, res.NewQuantity)
	close(cache.releaseFill)
	assert.Equal(t, 100, <-readerDone, "el lector leyó antes del ajuste")
	cache.fillStarted = nil

	// THEN la lectura siguiente ve el valor confirmado, no el del lector lento
	qty, err := f.uc.Get(ctx, "A", "p1")
	require.NoError(t, err)
	assert.Equal(t, 90, qty)
}

func TestCache_EntradaNoOcultaOutletInexistente(t *testing.T) {
	cache := newFakeCache()
	cache.data[entity.StockKey{OutletID: "Z", ProductID: "p1"}] = 7
	f := newFixture(t, cache)

	_, err := f.uc.Get(context.Background(), "Z", "p1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCache_FallaNoRompeLectura(t *testing.T) {
	cache := newFakeCache()
	cache.failGet = true
	f := newFixture(t, cache)
	ctx := context.Background()
	require.NoError(t, f.uc.Set(ctx, "A", "p1", 3))

	qty, err := f.uc.Get(ctx, "A", "p1")
	require.NoError(t, err)
	assert.Equal(t, 3, qty)
}

func TestCache_RechazoNoInvalida(t *testing.T) {
	cache := newFakeCache()
	f := newFixture(t, cache)

	_, err := f.uc.Adjust(context.Background(), "A", "p1", -1)
	require.Error(t, err)
	assert.Empty(t, cache.invalidated)
	_, ok := cache.cached(entity.StockKey{OutletID: "A", ProductID: "p1"})
	assert.False(t, ok, "un rechazo no escribe en caché")
}
