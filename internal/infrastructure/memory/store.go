// Package memory implementa los repositorios sobre mapas en memoria (desarrollo y tests).
// Cada par (outlet, producto) tiene su propia entrada en un mapa plano; no hay contenedores anidados por outlet.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/opname-api/internal/application/ports"
	"github.com/jhoicas/opname-api/internal/domain/entity"
)

var _ ports.TxRunner = (*TxRunner)(nil)

type itemKey struct {
	SessionID string
	ProductID string
}

type state struct {
	outlets      map[string]entity.Outlet
	outletOrder  []string
	products     map[string]entity.Product
	barcodes     map[string]string // barcode -> product id
	stock        map[entity.StockKey]entity.OutletStock
	sessions     map[string]entity.OpnameSession
	numbers      map[string]string // número -> session id
	sessionOrder []string
	items        map[itemKey]entity.CountItem
	itemOrder    map[string][]string // session id -> product ids en orden de primer escaneo
	adjustments  []entity.StockAdjustment
}

func newState() *state {
	return &state{
		outlets:   make(map[string]entity.Outlet),
		products:  make(map[string]entity.Product),
		barcodes:  make(map[string]string),
		stock:     make(map[entity.StockKey]entity.OutletStock),
		sessions:  make(map[string]entity.OpnameSession),
		numbers:   make(map[string]string),
		items:     make(map[itemKey]entity.CountItem),
		itemOrder: make(map[string][]string),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.outlets {
		c.outlets[k] = v
	}
	c.outletOrder = append([]string(nil), s.outletOrder...)
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.barcodes {
		c.barcodes[k] = v
	}
	for k, v := range s.stock {
		c.stock[k] = v
	}
	for k, v := range s.sessions {
		c.sessions[k] = v
	}
	for k, v := range s.numbers {
		c.numbers[k] = v
	}
	c.sessionOrder = append([]string(nil), s.sessionOrder...)
	for k, v := range s.items {
		c.items[k] = v
	}
	for k, v := range s.itemOrder {
		c.itemOrder[k] = append([]string(nil), v...)
	}
	c.adjustments = append([]entity.StockAdjustment(nil), s.adjustments...)
	return c
}

// Store es el almacenamiento en memoria compartido por todos los repositorios.
// Las transacciones se serializan con un único mutex.
type Store struct {
	mu sync.Mutex
	st *state
}

// NewStore crea un almacenamiento vacío.
func NewStore() *Store {
	return &Store{st: newState()}
}

// view acceso al estado: inTx=true significa que el mutex ya lo tiene TxRunner.Run.
type view struct {
	store *Store
	inTx  bool
}

func (v view) do(fn func(st *state) error) error {
	if !v.inTx {
		v.store.mu.Lock()
		defer v.store.mu.Unlock()
	}
	return fn(v.store.st)
}

// Repositories devuelve los repositorios fuera de transacción.
func (s *Store) Repositories() ports.Repositories {
	return s.repositories(view{store: s})
}

// Outlets devuelve el repositorio de outlets.
func (s *Store) Outlets() *OutletRepo {
	return &OutletRepo{v: view{store: s}}
}

func (s *Store) repositories(v view) ports.Repositories {
	return ports.Repositories{
		Products:    &ProductRepo{v: v},
		OutletStock: &OutletStockRepo{v: v},
		Sessions:    &SessionRepo{v: v},
		Items:       &CountItemRepo{v: v},
		Adjustments: &AdjustmentRepo{v: v},
	}
}

// TxRunner simula transacciones con snapshot del estado y restauración si fn falla.
type TxRunner struct {
	store *Store
}

// NewTxRunner construye el runner sobre el store.
func NewTxRunner(store *Store) *TxRunner {
	return &TxRunner{store: store}
}

// Run ejecuta fn con acceso exclusivo al store. Si fn devuelve error el estado vuelve al snapshot.
func (r *TxRunner) Run(ctx context.Context, fn func(repos ports.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	snapshot := r.store.st.clone()
	if err := fn(r.store.repositories(view{store: r.store, inTx: true})); err != nil {
		r.store.st = snapshot
		return err
	}
	return nil
}
