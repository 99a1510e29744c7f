package store

import "github.com/pkg/errors"

var (
	// ErrNotFound is returned when a referenced row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrVersionConflict is returned when an agenda update was based on a stale version.
	ErrVersionConflict = errors.New("agenda version conflict")

	// ErrActiveAgendaConflict is returned when a concurrent create already
	// activated another agenda for the same user.
	ErrActiveAgendaConflict = errors.New("another active agenda exists for user")
)
