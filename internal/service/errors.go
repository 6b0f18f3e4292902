package service

import "fmt"

// Kind classifies a validation failure so handlers can map it to an
// HTTP status without string matching.
type Kind int

const (
	// KindValidation marks client-correctable input errors (bad type,
	// negative cost, out-of-range lag).
	KindValidation Kind = iota + 1
	// KindNotFound marks references to tasks, projects or dependencies
	// that do not exist inside the caller's project scope.
	KindNotFound
	// KindConflict marks duplicates: an existing edge for the same pair,
	// a reverse edge, or a second root task.
	KindConflict
	// KindStructural marks WBS and graph shape violations: level
	// mismatch, max depth, cycles, deleting a task that has children.
	KindStructural
)

// Error is a typed validation failure returned by the schedule services.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Errorf builds an Error of the given kind.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
