package cachekey

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

const separator = ":"

// Keyer derives deterministic cache keys from request descriptions.
// Two logically identical requests always hash to the same key,
// regardless of query parameter order.
type Keyer struct {
	// Unique identifier for the origin.
	// Usually this should be the origin - well - origin.
	OriginId string
}

func NewKeyer(originId string) Keyer {
	return Keyer{OriginId: originId}
}

// Key returns the cache key for the given method, URL and parameters.
// The key is the origin and method followed by a sha256 digest of the
// canonicalized request description. Hashing bounds the key length and
// keeps semantically different requests from colliding.
func (k Keyer) Key(method, uri string, params url.Values) string {
	sum := sha256.Sum256([]byte(Canonicalize(uri, params)))
	return k.MethodPrefix(method) + hex.EncodeToString(sum[:])
}

// MethodPrefix gets the key prefix for the origin with the given method.
// E.g. prefix for all GET requests in the cache.
func (k Keyer) MethodPrefix(method string) string {
	return k.OriginId + separator + method + separator
}

// Canonicalize returns the normalized request description the key digest
// is computed over: the URL path, kept host-qualified for absolute URLs
// so distinct origins never collide, followed by the query parameters
// with keys and per-key values in sorted order. A trailing slash is
// stripped, so "/projects" and "/projects/" describe the same resource.
// Parameters given in the URL and parameters passed separately are merged.
func Canonicalize(uri string, params url.Values) string {
	path := uri
	query := url.Values{}
	if u, err := url.Parse(uri); err == nil {
		path = u.Path
		if u.Host != "" {
			path = u.Scheme + "://" + u.Host + u.Path
		}
		query = u.Query()
	}
	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	}
	for name, values := range params {
		for _, value := range values {
			query.Add(name, value)
		}
	}
	if len(query) == 0 {
		return path
	}

	names := make([]string, 0, len(query))
	for name := range query {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		values := append([]string(nil), query[name]...)
		sort.Strings(values)
		for _, value := range values {
			parts = append(parts, url.QueryEscape(name)+"="+url.QueryEscape(value))
		}
	}
	return path + "?" + strings.Join(parts, "&")
}
