package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound             = errors.New("recurso no encontrado")
	ErrInvalidInput         = errors.New("entrada inválida")
	ErrDuplicate            = errors.New("recurso duplicado")
	ErrUnauthorized         = errors.New("no autorizado")
	ErrForbidden            = errors.New("acceso denegado")
	ErrInsufficientStock    = errors.New("stock insuficiente")
	ErrSessionNotInProgress = errors.New("la sesión de opname no está en curso")
	ErrCommitFailure        = errors.New("falló la aplicación de ajustes de opname")
	ErrStockChanged         = errors.New("el stock cambió durante el conteo")
)

// InsufficientStockError detalla un ajuste rechazado porque dejaría el stock del outlet negativo.
type InsufficientStockError struct {
	OutletID  string
	ProductID string
	Current   int
	Delta     int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente en outlet %s para producto %s: actual %d, ajuste %d",
		e.OutletID, e.ProductID, e.Current, e.Delta)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// CommitError envuelve la falla al aplicar un ítem durante el cierre de una sesión.
// La transacción completa se revierte: ningún ajuste queda persistido y la sesión sigue en curso.
type CommitError struct {
	SessionID string
	ProductID string
	Err       error
}

func (e *CommitError) Error() string {
	if e.ProductID == "" {
		return fmt.Sprintf("opname %s: %v", e.SessionID, e.Err)
	}
	return fmt.Sprintf("opname %s, producto %s: %v", e.SessionID, e.ProductID, e.Err)
}

func (e *CommitError) Is(target error) bool { return target == ErrCommitFailure }

func (e *CommitError) Unwrap() error { return e.Err }

// StockChangedError lista los productos cuyo stock agregado difiere de la instantánea del conteo.
type StockChangedError struct {
	SessionID  string
	ProductIDs []string
}

func (e *StockChangedError) Error() string {
	return fmt.Sprintf("opname %s: stock modificado durante el conteo para %d producto(s)", e.SessionID, len(e.ProductIDs))
}

func (e *StockChangedError) Unwrap() error { return ErrStockChanged }
