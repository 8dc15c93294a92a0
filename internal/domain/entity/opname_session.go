package entity

import (
	"time"

	"github.com/jhoicas/opname-api/internal/domain"
)

// SessionStatus estado de una sesión de opname (conteo físico).
type SessionStatus string

const (
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionCancelled  SessionStatus = "cancelled"
)

// Valid indica si el estado es uno de los conocidos.
func (s SessionStatus) Valid() bool {
	switch s {
	case SessionInProgress, SessionCompleted, SessionCancelled:
		return true
	}
	return false
}

// OpnameSession representa un ejercicio de conteo físico, opcionalmente acotado a un outlet.
// Transiciones: in_progress -> completed | cancelled. Ambos estados finales son inmutables.
type OpnameSession struct {
	ID          string
	Number      string  // OPN-YYYYMMDD-XXXX
	OutletID    *string // nil = sesión sin outlet (solo stock agregado)
	Status      SessionStatus
	Notes       string
	CreatedBy   string
	CreatedAt   time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time
}

// InProgress indica si la sesión acepta conteos, cierre o cancelación.
func (s *OpnameSession) InProgress() bool {
	return s.Status == SessionInProgress
}

// OutletScoped indica si la sesión está acotada a un outlet.
func (s *OpnameSession) OutletScoped() bool {
	return s.OutletID != nil && *s.OutletID != ""
}

// Complete marca la sesión como completada.
func (s *OpnameSession) Complete(at time.Time) error {
	if !s.InProgress() {
		return domain.ErrSessionNotInProgress
	}
	s.Status = SessionCompleted
	s.CompletedAt = &at
	return nil
}

// Cancel marca la sesión como cancelada.
func (s *OpnameSession) Cancel(at time.Time) error {
	if !s.InProgress() {
		return domain.ErrSessionNotInProgress
	}
	s.Status = SessionCancelled
	s.CancelledAt = &at
	return nil
}
