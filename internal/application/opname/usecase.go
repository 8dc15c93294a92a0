package opname

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/opname-api/internal/application/ports"
	"github.com/jhoicas/opname-api/internal/domain"
	"github.com/jhoicas/opname-api/internal/domain/entity"
	domainopname "github.com/jhoicas/opname-api/internal/domain/opname"
	"github.com/jhoicas/opname-api/internal/domain/repository"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Config políticas del motor de conciliación.
type Config struct {
	StrictBaseline bool
	NumberAttempts int
}

// UseCase casos de uso de sesiones de opname: crear, registrar conteos, completar, cancelar y consultar.
type UseCase struct {
	txRunner  ports.TxRunner
	reads     ports.Repositories // repositorios fuera de transacción, solo lectura
	outlets   repository.OutletRepository
	committer *Committer
	cache     ports.StockCache
	report    ReportGenerator
	numbers   domainopname.NumberGenerator
	now       func() time.Time
	attempts  int
	log       zerolog.Logger
}

// Option configura dependencias opcionales del caso de uso.
type Option func(*UseCase)

// WithClock reemplaza el reloj.
func WithClock(now func() time.Time) Option { return func(uc *UseCase) { uc.now = now } }

// WithNumberGenerator reemplaza el generador de números de sesión.
func WithNumberGenerator(g domainopname.NumberGenerator) Option {
	return func(uc *UseCase) { uc.numbers = g }
}

// WithStockCache invalida el caché de stock por outlet tras cada cierre.
func WithStockCache(c ports.StockCache) Option { return func(uc *UseCase) { uc.cache = c } }

// WithReportGenerator habilita la generación del acta de opname.
func WithReportGenerator(g ReportGenerator) Option { return func(uc *UseCase) { uc.report = g } }

// NewUseCase construye el caso de uso.
func NewUseCase(
	txRunner ports.TxRunner,
	reads ports.Repositories,
	outlets repository.OutletRepository,
	cfg Config,
	log zerolog.Logger,
	opts ...Option,
) *UseCase {
	l := log.With().Str("component", "opname").Logger()
	uc := &UseCase{
		txRunner:  txRunner,
		reads:     reads,
		outlets:   outlets,
		committer: NewCommitter(cfg.StrictBaseline, l),
		numbers:   domainopname.RandomNumber,
		now:       time.Now,
		attempts:  cfg.NumberAttempts,
		log:       l,
	}
	if uc.attempts <= 0 {
		uc.attempts = 1
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// CreateSessionInput entrada para abrir una sesión.
type CreateSessionInput struct {
	OutletID string // vacío = sesión sin outlet
	Notes    string
	ActorID  string
}

// CreateSession abre una sesión en curso y le asigna un número OPN-YYYYMMDD-XXXX único.
func (uc *UseCase) CreateSession(ctx context.Context, in CreateSessionInput) (*entity.OpnameSession, error) {
	if in.ActorID == "" {
		return nil, domain.ErrInvalidInput
	}
	var outletID *string
	if in.OutletID != "" {
		o, err := uc.outlets.GetByID(ctx, in.OutletID)
		if err != nil {
			return nil, err
		}
		if o == nil {
			return nil, domain.ErrNotFound
		}
		if !o.Active {
			return nil, fmt.Errorf("%w: outlet %s inactivo", domain.ErrInvalidInput, o.Code)
		}
		id := in.OutletID
		outletID = &id
	}

	now := uc.now()
	for attempt := 1; attempt <= uc.attempts; attempt++ {
		s := &entity.OpnameSession{
			ID:        uuid.New().String(),
			Number:    uc.numbers(now),
			OutletID:  outletID,
			Status:    entity.SessionInProgress,
			Notes:     in.Notes,
			CreatedBy: in.ActorID,
			CreatedAt: now,
		}
		err := uc.reads.Sessions.Create(ctx, s)
		if err == nil {
			uc.log.Info().Str("session_id", s.ID).Str("number", s.Number).Msg("sesión de opname creada")
			return s, nil
		}
		if !errors.Is(err, domain.ErrDuplicate) {
			return nil, err
		}
		uc.log.Debug().Str("number", s.Number).Int("attempt", attempt).Msg("número de sesión repetido, reintentando")
	}
	return nil, fmt.Errorf("%w: no se pudo generar un número de sesión único", domain.ErrDuplicate)
}

// RecordCountInput conteo de un producto; se acepta ProductID o Barcode.
type RecordCountInput struct {
	SessionID   string
	ProductID   string
	Barcode     string
	ActualStock int
}

// RecordCount registra o reemplaza el conteo de un producto. En el primer escaneo toma el stock
// agregado como system_stock; los reconteos solo cambian actual_stock.
func (uc *UseCase) RecordCount(ctx context.Context, in RecordCountInput) (*entity.CountItem, error) {
	if in.SessionID == "" || (in.ProductID == "" && in.Barcode == "") {
		return nil, domain.ErrInvalidInput
	}
	if in.ActualStock < 0 {
		return nil, fmt.Errorf("%w: actual_stock no puede ser negativo", domain.ErrInvalidInput)
	}
	if in.ActualStock > entity.MaxQuantity {
		return nil, fmt.Errorf("%w: actual_stock supera la cantidad máxima %d", domain.ErrInvalidInput, entity.MaxQuantity)
	}
	productID := in.ProductID
	if productID == "" {
		p, err := uc.reads.Products.GetByBarcode(ctx, in.Barcode)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, domain.ErrNotFound
		}
		productID = p.ID
	}

	now := uc.now()
	var item *entity.CountItem
	err := uc.txRunner.Run(ctx, func(repos ports.Repositories) error {
		if _, err := lockInProgress(ctx, repos, in.SessionID); err != nil {
			return err
		}
		existing, err := repos.Items.Get(ctx, in.SessionID, productID)
		if err != nil {
			return err
		}
		if existing != nil {
			existing.Recount(in.ActualStock, now)
			item = existing
		} else {
			p, err := repos.Products.GetByID(ctx, productID)
			if err != nil {
				return err
			}
			if p == nil {
				return domain.ErrNotFound
			}
			item = &entity.CountItem{
				ID:          uuid.New().String(),
				SessionID:   in.SessionID,
				ProductID:   productID,
				SystemStock: p.StockQuantity,
				ActualStock: in.ActualStock,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
		}
		return repos.Items.Upsert(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Debug().
		Str("session_id", in.SessionID).
		Str("product_id", productID).
		Int("system", item.SystemStock).
		Int("actual", item.ActualStock).
		Msg("conteo registrado")
	return item, nil
}

// CompletionResult resultado de un cierre exitoso.
type CompletionResult struct {
	Session     *entity.OpnameSession
	Adjustments []*entity.StockAdjustment
	Drifts      []Drift
}

// CompleteSession aplica los ítems con discrepancia y marca la sesión como completada, todo en una
// transacción. Si algo falla la sesión sigue en curso y no queda ningún ajuste escrito.
func (uc *UseCase) CompleteSession(ctx context.Context, sessionID, actorID string) (*CompletionResult, error) {
	if sessionID == "" || actorID == "" {
		return nil, domain.ErrInvalidInput
	}
	now := uc.now()
	var result CompletionResult
	err := uc.txRunner.Run(ctx, func(repos ports.Repositories) error {
		s, err := lockInProgress(ctx, repos, sessionID)
		if err != nil {
			return err
		}
		items, err := repos.Items.ListBySession(ctx, sessionID)
		if err != nil {
			return commitErr(sessionID, "", err)
		}
		out, err := uc.committer.Apply(ctx, repos, s, items, actorID, now)
		if err != nil {
			return err
		}
		if err := s.Complete(now); err != nil {
			return err
		}
		if err := repos.Sessions.UpdateStatus(ctx, s); err != nil {
			return commitErr(sessionID, "", err)
		}
		result = CompletionResult{Session: s, Adjustments: out.Adjustments, Drifts: out.Drifts}
		return nil
	})
	if err != nil {
		if !isBusinessError(err) {
			err = commitErr(sessionID, "", err)
		}
		if errors.Is(err, domain.ErrCommitFailure) {
			uc.log.Error().Err(err).Str("session_id", sessionID).Msg("falló el cierre de opname, sesión sigue en curso")
		}
		return nil, err
	}

	if result.Session.OutletScoped() {
		for _, a := range result.Adjustments {
			uc.refresh(ctx, entity.StockKey{OutletID: *result.Session.OutletID, ProductID: a.ProductID}, a.NewStock)
		}
	}
	uc.log.Info().
		Str("session_id", sessionID).
		Int("adjustments", len(result.Adjustments)).
		Int("drifts", len(result.Drifts)).
		Msg("sesión de opname completada")
	return &result, nil
}

// CancelSession cancela la sesión. Los ítems quedan como historial y nunca se aplican.
func (uc *UseCase) CancelSession(ctx context.Context, sessionID string) (*entity.OpnameSession, error) {
	if sessionID == "" {
		return nil, domain.ErrInvalidInput
	}
	now := uc.now()
	var session *entity.OpnameSession
	err := uc.txRunner.Run(ctx, func(repos ports.Repositories) error {
		s, err := lockInProgress(ctx, repos, sessionID)
		if err != nil {
			return err
		}
		if err := s.Cancel(now); err != nil {
			return err
		}
		if err := repos.Sessions.UpdateStatus(ctx, s); err != nil {
			return err
		}
		session = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("session_id", sessionID).Msg("sesión de opname cancelada")
	return session, nil
}

// SessionDetail sesión con sus ítems y el resumen de discrepancias.
type SessionDetail struct {
	Session *entity.OpnameSession
	Items   []*entity.CountItem
	Summary domainopname.Summary
}

// GetSession devuelve la sesión con sus ítems en orden de primer escaneo.
func (uc *UseCase) GetSession(ctx context.Context, sessionID string) (*SessionDetail, error) {
	s, err := uc.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	items, err := uc.reads.Items.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &SessionDetail{Session: s, Items: items, Summary: domainopname.Summarize(items)}, nil
}

// ListSessions lista sesiones con filtros opcionales de estado y outlet.
func (uc *UseCase) ListSessions(ctx context.Context, filter repository.SessionFilter) ([]*entity.OpnameSession, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: estado %q desconocido", domain.ErrInvalidInput, filter.Status)
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return uc.reads.Sessions.List(ctx, filter)
}

// ListAdjustments devuelve los ajustes de la sesión en orden de creación.
func (uc *UseCase) ListAdjustments(ctx context.Context, sessionID string) ([]*entity.StockAdjustment, error) {
	if _, err := uc.getSession(ctx, sessionID); err != nil {
		return nil, err
	}
	return uc.reads.Adjustments.ListBySession(ctx, sessionID)
}

func (uc *UseCase) getSession(ctx context.Context, sessionID string) (*entity.OpnameSession, error) {
	if sessionID == "" {
		return nil, domain.ErrInvalidInput
	}
	s, err := uc.reads.Sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, domain.ErrNotFound
	}
	return s, nil
}

// refresh escribe en caché el stock del outlet ya confirmado; si falla, borra la entrada.
func (uc *UseCase) refresh(ctx context.Context, key entity.StockKey, qty int) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Set(ctx, key, qty); err != nil {
		uc.log.Warn().Err(err).Str("product_id", key.ProductID).Msg("no se pudo actualizar cache de stock")
		if err := uc.cache.Invalidate(ctx, key); err != nil {
			uc.log.Warn().Err(err).Msg("no se pudo invalidar cache de stock")
		}
	}
}

// lockInProgress bloquea la sesión y verifica que siga en curso.
func lockInProgress(ctx context.Context, repos ports.Repositories, sessionID string) (*entity.OpnameSession, error) {
	s, err := repos.Sessions.GetForUpdate(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, domain.ErrNotFound
	}
	if !s.InProgress() {
		return nil, domain.ErrSessionNotInProgress
	}
	return s, nil
}

// isBusinessError distingue los rechazos de negocio de las fallas de infraestructura.
func isBusinessError(err error) bool {
	return errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrInvalidInput) ||
		errors.Is(err, domain.ErrSessionNotInProgress) ||
		errors.Is(err, domain.ErrStockChanged) ||
		errors.Is(err, domain.ErrCommitFailure) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
