// Package apicache is a caching layer between application code and a
// RESTful HTTP API. Repeated reads are served from a local cache, writes
// invalidate the affected entries, and all cache and network activity is
// emitted on a structured event log.
//
// Only GET responses are cached. Write verbs always go to the transport;
// on success they invalidate cache entries according to a per-verb
// default that the caller can override per call. Entries live until
// explicitly invalidated - there is no expiry and no eviction.
package apicache

import (
	"context"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/apicache/apicache/cache"
	"github.com/apicache/apicache/eventlog"
	"github.com/apicache/apicache/metrics"
	cachekey "github.com/apicache/apicache/pkg/cache-key"
	"github.com/apicache/apicache/pkg/invalidation"
)

type Config struct {
	// Storage for cache entries. Defaults to an in-memory cache.
	Cache cache.Provider
	// Transport used for cache misses and writes.
	// Defaults to an HTTP transport over net/http.
	Transport Transport
	// Base URL of the API. Request paths are resolved against it,
	// and it doubles as the cache key namespace.
	OriginURL string
	// Event log for cache and network activity.
	// Defaults to a new, inactive log.
	Log *eventlog.Log
	// Optional metrics recorder. Nil records nothing.
	Metrics *metrics.Recorder
}

// Client dispatches logical HTTP calls through the cache.
// All state is held explicitly, so independent clients are fully
// isolated from each other.
type Client struct {
	cache     cache.Provider
	keyer     cachekey.Keyer
	transport Transport
	log       *eventlog.Log
	metrics   *metrics.Recorder
	origin    string
}

func New(config Config) *Client {
	c := &Client{
		cache:     config.Cache,
		transport: config.Transport,
		log:       config.Log,
		metrics:   config.Metrics,
		origin:    strings.TrimRight(config.OriginURL, "/"),
	}
	if c.cache == nil {
		c.cache = cache.NewMemCache()
	}
	if c.transport == nil {
		c.transport = NewHTTPTransport("")
	}
	if c.log == nil {
		c.log = eventlog.New()
	}
	c.keyer = cachekey.NewKeyer(c.origin)
	return c
}

// Get performs a read. The response is served from the cache when
// possible and stored in it otherwise.
func (c *Client) Get(ctx context.Context, uri string, params url.Values, opts ...Option) (*Response, error) {
	options := applyOptions(opts)
	display := cachekey.Canonicalize(uri, params)
	key := c.keyer.Key("GET", uri, params)

	if entry, ok := c.cache.Get(key); ok {
		c.metrics.Lookup(metrics.LookupHit)
		c.log.Hit(entry.URL)
		return &Response{
			Status:    entry.Status,
			Header:    entry.Header,
			Body:      entry.Body,
			FromCache: true,
		}, nil
	}
	c.metrics.Lookup(metrics.LookupMiss)

	res, err := c.fetch(ctx, "GET", uri, params, options.body)
	if err != nil {
		return nil, err
	}

	c.cache.Put(key, cache.Entry{
		Method: "GET",
		URL:    display,
		Status: res.Status,
		Header: res.Header,
		Body:   res.Body,
	})
	c.metrics.Store()
	c.log.Set(display)
	return res, nil
}

// Post creates a resource. By default only the exact request URL is
// invalidated: creation adds a subresource, so cached subresource
// entries stay valid.
func (c *Client) Post(ctx context.Context, uri string, params url.Values, opts ...Option) (*Response, error) {
	return c.write(ctx, "POST", uri, params, opts)
}

// Put replaces a resource, invalidating it and everything below it.
func (c *Client) Put(ctx context.Context, uri string, params url.Values, opts ...Option) (*Response, error) {
	return c.write(ctx, "PUT", uri, params, opts)
}

// Patch updates a resource, invalidating it and everything below it.
func (c *Client) Patch(ctx context.Context, uri string, params url.Values, opts ...Option) (*Response, error) {
	return c.write(ctx, "PATCH", uri, params, opts)
}

// Delete removes a resource, invalidating it and everything below it.
func (c *Client) Delete(ctx context.Context, uri string, params url.Values, opts ...Option) (*Response, error) {
	return c.write(ctx, "DELETE", uri, params, opts)
}

// write dispatches a write verb. Writes never consult the cache for
// their own response; invalidation happens only after a confirmed
// successful call.
func (c *Client) write(ctx context.Context, method, uri string, params url.Values, opts []Option) (*Response, error) {
	options := applyOptions(opts)

	res, err := c.fetch(ctx, method, uri, params, options.body)
	if err != nil {
		return nil, err
	}

	scope := invalidation.DefaultFor(method, uri)
	if options.scope != nil {
		scope = *options.scope
	}
	if _, err := c.invalidate(scope); err != nil {
		return res, err
	}
	return res, nil
}

// fetch delegates to the transport and emits the HTTP event.
func (c *Client) fetch(ctx context.Context, method, uri string, params url.Values, body io.Reader) (*Response, error) {
	start := time.Now()
	res, err := c.transport.RoundTrip(ctx, method, c.resolve(uri), params, body)
	elapsed := time.Since(start)
	if err != nil {
		c.metrics.HTTPError(method, elapsed)
		c.log.HTTPError(method, uri, elapsed, err)
		return nil, &TransportError{Method: method, URL: uri, Err: err}
	}
	c.metrics.HTTPRequest(method, res.Status, elapsed)
	c.log.HTTP(method, uri, res.Status, elapsed)
	return res, nil
}

// resolve joins a request path with the origin URL.
// Absolute URLs pass through untouched.
func (c *Client) resolve(uri string) string {
	if c.origin == "" || strings.Contains(uri, "://") {
		return uri
	}
	if !strings.HasPrefix(uri, "/") {
		uri = "/" + uri
	}
	return c.origin + uri
}

// invalidate applies a scope to the cache and emits one drop event per
// removed entry. A malformed scope leaves the cache untouched.
func (c *Client) invalidate(scope invalidation.Scope) (int, error) {
	if scope.IsNone() {
		return 0, nil
	}
	match, err := scope.Matcher()
	if err != nil {
		return 0, err
	}
	removed := c.cache.PurgeMatching(func(entry cache.Entry) bool {
		return match(entry.URL)
	})
	c.metrics.Drop(len(removed))
	for _, entry := range removed {
		c.log.Drop(entry.URL)
	}
	return len(removed), nil
}

// ClearCache removes every entry. It is a deliberate, explicit
// operation: no verb ever maps to it.
func (c *Client) ClearCache() {
	count := c.cache.Clear()
	c.metrics.Drop(count)
	c.log.Drop("*")
}

// DropExact removes the cache entry for the given URL.
func (c *Client) DropExact(uri string) error {
	_, err := c.invalidate(invalidation.Exact(uri))
	return err
}

// DropPrefix removes the entry for the given URL and every entry
// hierarchically below it.
func (c *Client) DropPrefix(uri string) error {
	_, err := c.invalidate(invalidation.Hierarchical(uri))
	return err
}

// DropMatching removes every entry whose URL satisfies the matcher.
func (c *Client) DropMatching(match func(uri string) bool) error {
	_, err := c.invalidate(invalidation.Matching(match))
	return err
}

// StartLog binds the event log to a sink.
func (c *Client) StartLog(sink io.Writer) {
	c.log.Start(sink)
}

// StopLog unbinds the event log sink.
func (c *Client) StopLog() {
	c.log.Stop()
}

// LogMessage interleaves a custom message into the event stream.
func (c *Client) LogMessage(msg string) {
	c.log.Message(msg)
}

// Log returns the client's event log.
func (c *Client) Log() *eventlog.Log {
	return c.log
}
