package apicache

import "fmt"

// TransportError wraps a network or HTTP-level failure from the
// transport collaborator. It is propagated to the caller unchanged
// in meaning: the failed response is never cached and never triggers
// invalidation.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s %s: %s", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
