package crawler

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindInvalidInput     ErrorKind = "invalid_input"
	KindTransportFailure ErrorKind = "transport_failure"
	KindResponseStatus   ErrorKind = "response_status"
)

// ServiceError is returned by crawler implementations for every failure they own.
type ServiceError struct {
	Kind       ErrorKind
	Message    string
	StatusCode int // set for KindResponseStatus
	Err        error
}

func (e *ServiceError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Message == "" && e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func InvalidInput(message string) *ServiceError {
	return &ServiceError{Kind: KindInvalidInput, Message: message}
}

// TransportFailure wraps err, keeping its text in the message.
func TransportFailure(prefix string, err error) *ServiceError {
	msg := prefix
	if err != nil {
		msg = prefix + ": " + err.Error()
	}
	return &ServiceError{Kind: KindTransportFailure, Message: msg, Err: err}
}

// IsKind reports whether err carries a ServiceError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var serviceErr *ServiceError
	if !errors.As(err, &serviceErr) {
		return false
	}
	return serviceErr.Kind == kind
}
