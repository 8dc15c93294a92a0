package postgres

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeUniqueViolation = "23505"
	codeCheckViolation  = "23514"
	codeInvalidText     = "22P02"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	return hasCode(err, codeUniqueViolation)
}

// isCheckViolation verifica si un error es una violación de CHECK (23514), p. ej. cantidad negativa.
func isCheckViolation(err error) bool {
	return hasCode(err, codeCheckViolation)
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return false
}

// isInvalidText verifica si el servidor rechazó un valor mal formado para el tipo (22P02), p. ej. un uuid.
func isInvalidText(err error) bool {
	return hasCode(err, codeInvalidText)
}

// noRows indica ausencia de fila; los repositorios la traducen a nil, nil.
func noRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// missing indica que la fila buscada no puede existir: sin filas o id mal formado.
func missing(err error) bool {
	return noRows(err) || isInvalidText(err)
}

// validIDs indica si todos los ids tienen formato UUID. Un id mal formado no existe en la base:
// las búsquedas lo tratan como ausente en vez de enviarlo al servidor.
func validIDs(ids ...string) bool {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return false
		}
	}
	return true
}
