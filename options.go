package apicache

import (
	"io"

	"github.com/apicache/apicache/pkg/invalidation"
)

type callOptions struct {
	scope *invalidation.Scope
	body  io.Reader
}

// Option adjusts a single call.
type Option func(*callOptions)

func applyOptions(opts []Option) callOptions {
	var options callOptions
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// WithInvalidation overrides the verb's default invalidation scope.
func WithInvalidation(scope invalidation.Scope) Option {
	return func(o *callOptions) {
		o.scope = &scope
	}
}

// WithoutInvalidation skips invalidation for this call.
func WithoutInvalidation() Option {
	return WithInvalidation(invalidation.None())
}

// WithBody sets the request body for write calls.
func WithBody(body io.Reader) Option {
	return func(o *callOptions) {
		o.body = body
	}
}
