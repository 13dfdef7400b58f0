package geo

import "fmt"

// InvalidQueryError reports a query that cannot be resolved against any table
// version (empty or malformed country code).
type InvalidQueryError struct {
	Query string
}

func (e *InvalidQueryError) Error() string {
	return fmt.Sprintf("geo: invalid query %q", e.Query)
}

// Code identifies the error class for handler summary logs.
func (e *InvalidQueryError) Code() string { return "VALIDATION" }

// NotFoundError reports a well-formed code absent from the reference table.
type NotFoundError struct {
	Query string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("geo: country code %q not found", e.Query)
}

// Code identifies the error class for handler summary logs.
func (e *NotFoundError) Code() string { return "LOOKUP_NOT_FOUND" }

// TransportError wraps a failed refresh call against the remote reference
// endpoint after retries were exhausted.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("geo: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Code identifies the error class for handler summary logs.
func (e *TransportError) Code() string { return "LOOKUP_TRANSPORT" }
