package service

import "errors"

// Sentinel errors for the workflow taxonomy. Handlers map them to HTTP status
// codes with errors.Is; services wrap them with fmt.Errorf("...: %w", ...) to
// add detail without losing the class.
var (
	// ErrValidation marks malformed or out-of-range input (bad tipo,
	// non-positive monto, invalid nuevoEstado).
	ErrValidation = errors.New("entrada inválida")

	// ErrForbidden marks an authenticated actor failing a role or ownership
	// check.
	ErrForbidden = errors.New("no autorizado")

	// ErrNotFound marks an unknown project or solicitud id.
	ErrNotFound = errors.New("no encontrado")

	// ErrConflict marks a solicitud that was no longer PENDIENTE at decision
	// time, or an optimistic revision mismatch.
	ErrConflict = errors.New("la solicitud ya no está pendiente")

	// ErrLocked marks a direct project edit refused because the project is in
	// a terminal state or a terminal-state solicitud is pending.
	ErrLocked = errors.New("edición bloqueada")
)
