package domain

import (
	"fmt"
)

// ConfigurationError reports missing or unusable provider settings.
type ConfigurationError struct {
	Field string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("catalog not configured: %s", e.Field)
}

// TransportError is a network or non-2xx failure talking to the provider.
// Status is 0 when no HTTP response was received.
type TransportError struct {
	Status int
	Body   string
	Err    error
}

func (e *TransportError) Error() string {
	switch {
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("catalog transport: status %d: %v", e.Status, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("catalog transport: status %d", e.Status)
	case e.Err != nil:
		return fmt.Sprintf("catalog transport: %v", e.Err)
	default:
		return "catalog transport failure"
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedResponseError is a 2xx provider body that is not a JSON object.
type MalformedResponseError struct {
	Snippet string
	Err     error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed catalog response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// PersistenceError is a saved-state store failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
