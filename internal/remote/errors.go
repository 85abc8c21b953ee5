package remote

import (
	"errors"
	"fmt"
)

// NotFoundError indicates the server has no report with the given id.
// It is returned for 404 responses and is distinct from transport
// failures: absence does not trigger local synthesis.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("report %s not found", e.ID)
}

// IsNotFound reports whether err (or any error in its chain) is a
// NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// ValidationError indicates the server rejected a payload, or its own
// response could not be decoded. The core never raises these itself
// but must tolerate them.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return "invalid payload: " + e.Message
}

// IsValidation reports whether err (or any error in its chain) is a
// ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// TransportError indicates the server could not be reached or answered
// with an unexpected status. These trigger the repository's local
// fallback paths.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure on %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether err (or any error in its chain) is a
// TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
