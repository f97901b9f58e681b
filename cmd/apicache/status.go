package main

import "fmt"

type fwdReason string

const (
	// The request method's semantics require the request to be
	// forwarded.
	fwdReasonMethod fwdReason = "method"

	// The cache did not contain any response that matched the
	// request URI.
	fwdReasonMiss fwdReason = "uri-miss"
)

// cacheStatus renders a Cache-Status response header value.
type cacheStatus struct {
	hit    bool
	reason fwdReason
	stored bool
}

func (s *cacheStatus) Hit() {
	s.hit = true
}

func (s *cacheStatus) Forward(reason fwdReason) {
	s.hit = false
	s.reason = reason
}

func (s *cacheStatus) Stored() {
	s.stored = true
}

func (s *cacheStatus) String() string {
	if s.hit {
		return "apicache; hit"
	}
	status := fmt.Sprintf("apicache; fwd=%s", s.reason)
	if s.stored {
		status += "; stored"
	}
	return status
}
