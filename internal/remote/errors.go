package remote

import (
	"errors"
	"fmt"
)

// Error codes the sync engine special-cases during replay.
const (
	// CodeUniqueViolation is returned when an insert hits an existing row.
	CodeUniqueViolation = "23505"
	// CodeNotFound is returned when an update or delete matches no row.
	CodeNotFound = "PGRST116"
)

// Error is the structured error contract of the remote datastore.
type Error struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("remote: %s (code %s, http %d)", e.Message, e.Code, e.Status)
	}
	return fmt.Sprintf("remote: code %s (http %d)", e.Code, e.Status)
}

// IsUniqueViolation reports whether err is a uniqueness-constraint failure.
// An insert replay hitting this means the row already exists.
func IsUniqueViolation(err error) bool {
	var re *Error
	return errors.As(err, &re) && re.Code == CodeUniqueViolation
}

// IsNotFound reports whether err means the target row does not exist. An
// update/delete replay hitting this means the entry was removed elsewhere.
func IsNotFound(err error) bool {
	var re *Error
	return errors.As(err, &re) && re.Code == CodeNotFound
}
