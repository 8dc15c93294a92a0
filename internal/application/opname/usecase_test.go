package opname_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/opname-api/internal/application/opname"
	"github.com/jhoicas/opname-api/internal/application/ports"
	"github.com/jhoicas/opname-api/internal/domain"
	"github.com/jhoicas/opname-api/internal/domain/entity"
	"github.com/jhoicas/opname-api/internal/domain/repository"
	"github.com/jhoicas/opname-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const testActor = "00000000-0000-0000-0000-0000000000aa"

var testNow = time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC)

type fixture struct {
	store *memory.Store
	repos ports.Repositories
	uc    *opname.UseCase
}

func newFixture(t *testing.T, cfg opname.Config, opts ...opname.Option) *fixture {
	t.Helper()
	return newFixtureWithRunner(t, cfg, nil, opts...)
}

// newFixtureWithRunner permite envolver el TxRunner en memoria (p. ej. para inyectar fallas).
func newFixtureWithRunner(t *testing.T, cfg opname.Config, wrap func(ports.TxRunner) ports.TxRunner, opts ...opname.Option) *fixture {
	t.Helper()
	store := memory.NewStore()
	var runner ports.TxRunner = memory.NewTxRunner(store)
	if wrap != nil {
		runner = wrap(runner)
	}
	opts = append([]opname.Option{opname.WithClock(func() time.Time { return testNow })}, opts...)
	f := &fixture{
		store: store,
		repos: store.Repositories(),
		uc:    opname.NewUseCase(runner, store.Repositories(), store.Outlets(), cfg, zerolog.Nop(), opts...),
	}
	require.NoError(t, store.Outlets().Create(context.Background(), &entity.Outlet{ID: "O1", Code: "O1", Name: "Outlet 1", Active: true}))
	require.NoError(t, store.Outlets().Create(context.Background(), &entity.Outlet{ID: "O2", Code: "O2", Name: "Outlet 2", Active: false}))
	return f
}

func (f *fixture) product(t *testing.T, id string, aggregate int) {
	t.Helper()
	require.NoError(t, f.repos.Products.Create(context.Background(), &entity.Product{
		ID: id, Name: "Producto " + id, Barcode: "bc-" + id, StockQuantity: aggregate, Cost: decimal.NewFromInt(2),
	}))
}

func (f *fixture) outletStock(t *testing.T, outletID, productID string, qty int) {
	t.Helper()
	require.NoError(t, f.repos.OutletStock.Upsert(context.Background(), &entity.OutletStock{OutletID: outletID, ProductID: productID, Quantity: qty}))
}

func (f *fixture) aggregate(t *testing.T, productID string) int {
	t.Helper()
	p, err := f.repos.Products.GetByID(context.Background(), productID)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.StockQuantity
}

func (f *fixture) ledger(t *testing.T, outletID, productID string) *entity.OutletStock {
	t.Helper()
	rec, err := f.repos.OutletStock.Get(context.Background(), outletID, productID)
	require.NoError(t, err)
	return rec
}

func (f *fixture) count(t *testing.T, sessionID, productID string, actual int) *entity.CountItem {
	t.Helper()
	it, err := f.uc.RecordCount(context.Background(), opname.RecordCountInput{SessionID: sessionID, ProductID: productID, ActualStock: actual})
	require.NoError(t, err)
	return it
}

func (f *fixture) session(t *testing.T, outletID string) *entity.OpnameSession {
	t.Helper()
	s, err := f.uc.CreateSession(context.Background(), opname.CreateSessionInput{OutletID: outletID, ActorID: testActor})
	require.NoError(t, err)
	return s
}

func (f *fixture) adjustments(t *testing.T, sessionID string) []*entity.StockAdjustment {
	t.Helper()
	adjs, err := f.repos.Adjustments.ListBySession(context.Background(), sessionID)
	require.NoError(t, err)
	return adjs
}

// failingRunner hace fallar SetStock para un producto dentro de la transacción.
type failingRunner struct {
	inner  ports.TxRunner
	failOn string
}

type failingProducts struct {
	repository.ProductRepository
	failOn string
}

func (p failingProducts) SetStock(ctx context.Context, id string, qty int) error {
	if id == p.failOn {
		return errors.New("conexión perdida")
	}
	return p.ProductRepository.SetStock(ctx, id, qty)
}

func (r failingRunner) Run(ctx context.Context, fn func(ports.Repositories) error) error {
	return r.inner.Run(ctx, func(repos ports.Repositories) error {
		repos.Products = failingProducts{ProductRepository: repos.Products, failOn: r.failOn}
		return fn(repos)
	})
}

type fakeCache struct {
	written     map[entity.StockKey]int
	invalidated []entity.StockKey
}

func (c *fakeCache) Get(context.Context, entity.StockKey) (int, bool, error) { return 0, false, nil }

func (c *fakeCache) Set(_ context.Context, k entity.StockKey, qty int) error {
	if c.written == nil {
		c.written = map[entity.StockKey]int{}
	}
	c.written[k] = qty
	return nil
}

func (c *fakeCache) SetIfAbsent(context.Context, entity.StockKey, int) (bool, error) { return false, nil }

func (c *fakeCache) Invalidate(_ context.Context, keys ...entity.StockKey) error {
	c.invalidated = append(c.invalidated, keys...)
	return nil
}

type fakeReport struct {
	data opname.ReportData
}

func (r *fakeReport) GenerateOpnameReport(_ context.Context, data opname.ReportData) ([]byte, error) {
	r.data = data
	return []byte("%PDF-fake"), nil
}

// ──────────────────────────────────────────────────────────────────────────────
// CreateSession
// ──────────────────────────────────────────────────────────────────────────────

func TestCreateSession_NumeroYEstado(t *testing.T) {
	f := newFixture(t, opname.Config{})

	s := f.session(t, "O1")

	assert.Equal(t, entity.SessionInProgress, s.Status)
	assert.Regexp(t, `^OPN-20240510-\d{4}$`, s.Number)
	require.NotNil(t, s.OutletID)
	assert.Equal(t, "O1", *s.OutletID)
	assert.Equal(t, testActor, s.CreatedBy)
}

func TestCreateSession_SinOutlet(t *testing.T) {
	f := newFixture(t, opname.Config{})

	s := f.session(t, "")
	assert.False(t, s.OutletScoped())
}

func TestCreateSession_Validaciones(t *testing.T) {
	f := newFixture(t, opname.Config{})
	ctx := context.Background()

	_, err := f.uc.CreateSession(ctx, opname.CreateSessionInput{OutletID: "O1"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "actor requerido")

	_, err = f.uc.CreateSession(ctx, opname.CreateSessionInput{OutletID: "nope", ActorID: testActor})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.uc.CreateSession(ctx, opname.CreateSessionInput{OutletID: "O2", ActorID: testActor})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "outlet inactivo")
}

func TestCreateSession_ReintentaNumeroRepetido(t *testing.T) {
	// GIVEN un generador que repite el primer número
	seq := []int{1, 1, 2}
	calls := 0
	gen := func(at time.Time) string {
		n := seq[calls]
		calls++
		return fmt.Sprintf("OPN-%s-%04d", at.Format("20060102"), n)
	}
	f := newFixture(t, opname.Config{NumberAttempts: 3}, opname.WithNumberGenerator(gen))

	// WHEN se crean dos sesiones el mismo día
	first := f.session(t, "")
	second := f.session(t, "")

	// THEN la segunda obtiene un número distinto tras reintentar
	assert.Equal(t, "OPN-20240510-0001", first.Number)
	assert.Equal(t, "OPN-20240510-0002", second.Number)
	assert.Equal(t, 3, calls)
}

func TestCreateSession_AgotaIntentos(t *testing.T) {
	gen := func(time.Time) string { return "OPN-20240510-0007" }
	f := newFixture(t, opname.Config{NumberAttempts: 2}, opname.WithNumberGenerator(gen))
	f.session(t, "")

	_, err := f.uc.CreateSession(context.Background(), opname.CreateSessionInput{ActorID: testActor})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

// ──────────────────────────────────────────────────────────────────────────────
// RecordCount
// ──────────────────────────────────────────────────────────────────────────────

func TestRecordCount_SnapshotYReconteo(t *testing.T) {
	f := newFixture(t, opname.Config{})
	f.product(t, "P1", 50)
	s := f.session(t, "O1")

	first := f.count(t, s.ID, "P1", 45)
	assert.Equal(t, 50, first.SystemStock)
	assert.Equal(t, -5, first.Discrepancy())

	// El stock agregado cambia entre escaneos: el reconteo no refresca system_stock.
	require.NoError(t, f.repos.Products.SetStock(context.Background(), "P1", 60))
	second := f.count(t, s.ID, "P1", 47)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 50, second.SystemStock)
	assert.Equal(t, 47, second.ActualStock)

	detail, err := f.uc.GetSession(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Items, 1, "un ítem por producto")
	assert.Equal(t, -3, detail.Summary.NetDiscrepancy)
}

func TestRecordCount_PorBarcode(t *testing.T) {
	f := newFixture(t, opname.Config{})
	f.product(t, "P1", 8)
	s := f.session(t, "")

	it, err := f.uc.RecordCount(context.Background(), opname.RecordCountInput{SessionID: s.ID, Barcode: "bc-P1", ActualStock: 8})
	require.NoError(t, err)
	assert.Equal(t, "P1", it.ProductID)

	_, err = f.uc.RecordCount(context.Background(), opname.RecordCountInput{SessionID: s.ID, Barcode: "desconocido", ActualStock: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecordCount_Validaciones(t *testing.T) {
	f := newFixture(t, opname.Config{})
	f.product(t, "P1", 8)
	s := f.session(t, "")
	ctx := context.Background()

	_, err := f.uc.RecordCount(ctx, opname.RecordCountInput{SessionID: s.ID, ProductID: "P1", ActualStock: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.uc.RecordCount(ctx, opname.RecordCountInput{SessionID: s.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.uc.RecordCount(ctx, opname.RecordCountInput{SessionID: s.ID, ProductID: "P1", ActualStock: entity.MaxQuantity + 1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "fuera del rango de la columna")

	_, err = f.uc.RecordCount(ctx, opname.RecordCountInput{SessionID: s.ID, ProductID: "nope", ActualStock: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.uc.RecordCount(ctx, opname.RecordCountInput{SessionID: "nope", ProductID: "P1", ActualStock: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// CompleteSession
// ──────────────────────────────────────────────────────────────────────────────

func TestCompleteSession_OutletScoped(t *testing.T) {
	// GIVEN O1 con P1 = 100 y stock agregado 100
	cache := &fakeCache{}
	f := newFixture(t, opname.Config{}, opname.WithStockCache(cache))
	f.product(t, "P1", 100)
	f.outletStock(t, "O1", "P1", 100)
	s := f.session(t, "O1")

	// WHEN se cuenta 85 y se cierra
	f.count(t, s.ID, "P1", 85)
	res, err := f.uc.CompleteSession(context.Background(), s.ID, testActor)
	require.NoError(t, err)

	// THEN un ajuste de -15 y ambos stocks quedan en 85
	require.Len(t, res.Adjustments, 1)
	adj := res.Adjustments[0]
	assert.Equal(t, 100, adj.PreviousStock)
	assert.Equal(t, 85, adj.NewStock)
	assert.Equal(t, -15, adj.Adjustment)
	assert.Equal(t, entity.AdjustmentReasonOpname, adj.Reason)
	assert.Equal(t, testActor, adj.CreatedBy)
	require.NotNil(t, adj.OutletID)
	assert.Equal(t, "O1", *adj.OutletID)
	assert.True(t, decimal.NewFromInt(-30).Equal(adj.ValueImpact()))

	assert.Equal(t, 85, f.ledger(t, "O1", "P1").Quantity)
	assert.Equal(t, 85, f.aggregate(t, "P1"))
	assert.Equal(t, entity.SessionCompleted, res.Session.Status)
	require.NotNil(t, res.Session.CompletedAt)
	assert.Equal(t, testNow, *res.Session.CompletedAt)

	assert.Equal(t, map[entity.StockKey]int{{OutletID: "O1", ProductID: "P1"}: 85}, cache.written,
		"el caché recibe el valor confirmado")
	assert.Empty(t, cache.invalidated)
}

func TestCompleteSession_OmiteSinDiscrepancia(t *testing.T) {
	// GIVEN P1 (10 -> 7) y P2 (5 -> 5)
	f := newFixture(t, opname.Config{})
	f.product(t, "P1", 10)
	f.product(t, "P2", 5)
	s := f.session(t, "")
	f.count(t, s.ID, "P1", 7)
	f.count(t, s.ID, "P2", 5)

	// WHEN se cierra
	res, err := f.uc.CompleteSession(context.Background(), s.ID, testActor)
	require.NoError(t, err)

	// THEN solo P1 genera ajuste
	require.Len(t, res.Adjustments, 1)
	assert.Equal(t, "P1", res.Adjustments[0].ProductID)
	assert.Equal(t, -3, res.Adjustments[0].Adjustment)
	assert.Nil(t, res.Adjustments[0].OutletID)
	assert.Equal(t, 7, f.aggregate(t, "P1"))
	assert.Equal(t, 5, f.aggregate(t, "P2"))
	assert.Nil(t, f.ledger(t, "O1", "P1"), "sesión sin outlet no toca ledgers por outlet")
	assert.Len(t, f.adjustments(t, s.ID), 1)
}

func TestCompleteSession_SinItems(t *testing.T) {
	f := newFixture(t, opname.Config{})
	s := f.session(t, "O1")

	res, err := f.uc.CompleteSession(context.Background(), s.ID, testActor)
	require.NoError(t, err)
	assert.Empty(t, res.Adjustments)
	assert.Equal(t, entity.SessionCompleted, res.Session.Status)
}

func TestCompleteSession_Terminal(t *testing.T) {
	// GIVEN una sesión ya completada
	f := newFixture(t, opname.Config{})
	f.product(t, "P1", 10)
	s := f.session(t, "")
	f.count(t, s.ID, "P1", 7)
	_, err := f.uc.CompleteSession(context.Background(), s.ID, testActor)
	require.NoError(t, err)

	// WHEN se intenta contar, cerrar o cancelar de nuevo
	_, err = f.uc.RecordCount(context.Background(), opname.RecordCountInput{SessionID: s.ID, ProductID: "P1", ActualStock: 1})
	assert.ErrorIs(t, err, domain.ErrSessionNotInProgress)
	_, err = f.uc.CompleteSession(context.Background(), s.ID, testActor)
	assert.ErrorIs(t, err, domain.ErrSessionNotInProgress)
	_, err = f.uc.CancelSession(context.Background(), s.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotInProgress)

	// THEN no hay efectos adicionales
	assert.Len(t, f.adjustments(t, s.ID), 1)
	assert.Equal(t, 7, f.aggregate(t, "P1"))
	detail, err := f.uc.GetSession(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, detail.Items[0].ActualStock)
}

func TestCompleteSession_FallaRevierteTodo(t *testing.T) {
	// GIVEN SetStock falla para P2; P1 se procesa antes por orden de producto
	wrap := func(r ports.TxRunner) ports.TxRunner { return failingRunner{inner: r, failOn: "P2"} }
	f := newFixtureWithRunner(t, opname.Config{}, wrap)
	f.product(t, "P1", 10)
	f.product(t, "P2", 20)
	f.outletStock(t, "O1", "P1", 10)
	s := f.session(t, "O1")
	f.count(t, s.ID, "P1", 8)
	f.count(t, s.ID, "P2", 25)

	// WHEN se cierra
	_, err := f.uc.CompleteSession(context.Background(), s.ID, testActor)

	// THEN CommitFailure y nada queda aplicado
	require.ErrorIs(t, err, domain.ErrCommitFailure)
	var ce *domain.CommitError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "P2", ce.ProductID)

	assert.Empty(t, f.adjustments(t, s.ID))
	assert.Equal(t, 10, f.aggregate(t, "P1"))
	assert.Equal(t, 20, f.aggregate(t, "P2"))
	assert.Equal(t, 10, f.ledger(t, "O1", "P1").Quantity)

	detail, err := f.uc.GetSession(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SessionInProgress, detail.Session.Status, "la sesión sigue en curso")
}

func TestCompleteSession_DriftSeReportaYSobrescribe(t *testing.T) {
	// GIVEN P1 contado con system 10 y luego una venta externa deja el agregado en 9
	f := newFixture(t, opname.Config{})
	f.product(t, "P1", 10)
	s := f.session(t, "")
	f.count(t, s.ID, "P1", 6)
	require.NoError(t, f.repos.Products.SetStock(context.Background(), "P1", 9))

	// WHEN se cierra en modo por defecto
	res, err := f.uc.CompleteSession(context.Background(), s.ID, testActor)
	require.NoError(t, err)

	// THEN el conteo físico gana y el drift queda registrado
	require.Len(t, res.Drifts, 1)
	assert.Equal(t, opname.Drift{ProductID: "P1", Baseline: 10, Observed: 9}, res.Drifts[0])
	require.Len(t, res.Adjustments, 1)
	assert.Equal(t, 10, res.Adjustments[0].PreviousStock)
	assert.Equal(t, 9, res.Adjustments[0].ObservedStock)
	assert.True(t, res.Adjustments[0].Drifted())
	assert.Equal(t, 6, f.aggregate(t, "P1"))
}

func TestCompleteSession_StrictBaselineRechaza(t *testing.T) {
	f := newFixture(t, opname.Config{StrictBaseline: true})
	f.product(t, "P1", 10)
	s := f.session(t, "")
	f.count(t, s.ID, "P1", 6)
	require.NoError(t, f.repos.Products.SetStock(context.Background(), "P1", 9))

	_, err := f.uc.CompleteSession(context.Background(), s.ID, testActor)

	var sce *domain.StockChangedError
	require.ErrorAs(t, err, &sce)
	assert.Equal(t, []string{"P1"}, sce.ProductIDs)
	assert.NotErrorIs(t, err, domain.ErrCommitFailure)
	assert.Equal(t, 9, f.aggregate(t, "P1"))
	assert.Empty(t, f.adjustments(t, s.ID))
}

func TestCompleteSession_ActorRequerido(t *testing.T) {
	f := newFixture(t, opname.Config{})
	s := f.session(t, "")

	_, err := f.uc.CompleteSession(context.Background(), s.ID, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// CancelSession
// ──────────────────────────────────────────────────────────────────────────────

func TestCancelSession_SinEfectos(t *testing.T) {
	// GIVEN una sesión con ítems con discrepancia
	f := newFixture(t, opname.Config{})
	f.product(t, "P1", 10)
	f.outletStock(t, "O1", "P1", 10)
	s := f.session(t, "O1")
	f.count(t, s.ID, "P1", 3)

	// WHEN se cancela
	cancelled, err := f.uc.CancelSession(context.Background(), s.ID)
	require.NoError(t, err)

	// THEN ningún ajuste ni cambio de stock
	assert.Equal(t, entity.SessionCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)
	assert.Empty(t, f.adjustments(t, s.ID))
	assert.Equal(t, 10, f.aggregate(t, "P1"))
	assert.Equal(t, 10, f.ledger(t, "O1", "P1").Quantity)

	_, err = f.uc.CompleteSession(context.Background(), s.ID, testActor)
	assert.ErrorIs(t, err, domain.ErrSessionNotInProgress)

	detail, err := f.uc.GetSession(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Items, 1, "los ítems quedan como historial")
}

// ──────────────────────────────────────────────────────────────────────────────
// Consultas
// ──────────────────────────────────────────────────────────────────────────────

func TestListSessions_FiltroYValidacion(t *testing.T) {
	f := newFixture(t, opname.Config{})
	a := f.session(t, "O1")
	f.session(t, "")
	_, err := f.uc.CancelSession(context.Background(), a.ID)
	require.NoError(t, err)

	list, err := f.uc.ListSessions(context.Background(), repository.SessionFilter{Status: entity.SessionCancelled})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, list[0].ID)

	_, err = f.uc.ListSessions(context.Background(), repository.SessionFilter{Status: "archived"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestListAdjustments_SesionInexistente(t *testing.T) {
	f := newFixture(t, opname.Config{})

	_, err := f.uc.ListAdjustments(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReport_DatosDelActa(t *testing.T) {
	gen := &fakeReport{}
	f := newFixture(t, opname.Config{}, opname.WithReportGenerator(gen))
	f.product(t, "P1", 10)
	s := f.session(t, "O1")
	f.count(t, s.ID, "P1", 7)
	_, err := f.uc.CompleteSession(context.Background(), s.ID, testActor)
	require.NoError(t, err)

	doc, err := f.uc.Report(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-fake", string(doc))

	require.NotNil(t, gen.data.Outlet)
	assert.Equal(t, "O1", gen.data.Outlet.ID)
	require.Len(t, gen.data.Lines, 1)
	assert.Equal(t, "Producto P1", gen.data.Lines[0].ProductName)
	assert.Equal(t, -3, gen.data.Lines[0].Discrepancy)
	assert.Len(t, gen.data.Adjustments, 1)
}

func TestReport_SinGenerador(t *testing.T) {
	f := newFixture(t, opname.Config{})
	s := f.session(t, "")

	_, err := f.uc.Report(context.Background(), s.ID)
	assert.ErrorIs(t, err, opname.ErrReportUnavailable)
}
