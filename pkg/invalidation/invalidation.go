// Package invalidation decides which cache entries a write removes.
//
// Scopes form a small closed set: exact, hierarchical, custom matcher,
// or none. Hierarchical matching is path-segment aware, so invalidating
// "/projects/1" covers "/projects/1/users" but never "/projects/10".
package invalidation

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// InvalidPatternError reports a malformed invalidation scope.
// The cache is left unmodified when it is returned.
type InvalidPatternError struct {
	Pattern string
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid invalidation pattern %q", e.Pattern)
}

type kind int

const (
	kindNone kind = iota
	kindExact
	kindHierarchical
	kindMatching
)

// Scope describes the blast radius of a single invalidation.
type Scope struct {
	kind  kind
	root  string
	match func(uri string) bool
}

// None skips invalidation entirely.
func None() Scope {
	return Scope{kind: kindNone}
}

// Exact removes only the entry for the given URL.
func Exact(uri string) Scope {
	return Scope{kind: kindExact, root: uri}
}

// Hierarchical removes the entry for the given URL
// and every entry whose URL is path-prefixed by it.
func Hierarchical(root string) Scope {
	return Scope{kind: kindHierarchical, root: root}
}

// Matching removes every entry whose URL satisfies the given matcher.
func Matching(match func(uri string) bool) Scope {
	return Scope{kind: kindMatching, match: match}
}

// DefaultFor returns the default scope for a write verb.
// POST busts only the collection URL itself: creation adds a subresource,
// so existing subresource entries stay valid. Replacement, update and
// deletion all invalidate the resource and everything below it.
func DefaultFor(method, uri string) Scope {
	if method == http.MethodPost {
		return Exact(uri)
	}
	return Hierarchical(uri)
}

// IsNone reports whether the scope skips invalidation.
func (s Scope) IsNone() bool {
	return s.kind == kindNone
}

// Matcher resolves the scope into a URL predicate.
// It returns an InvalidPatternError for an empty root or nil matcher.
func (s Scope) Matcher() (func(uri string) bool, error) {
	switch s.kind {
	case kindExact:
		root := NormalizePath(s.root)
		if root == "" {
			return nil, &InvalidPatternError{Pattern: s.root}
		}
		return func(uri string) bool {
			return NormalizePath(uri) == root
		}, nil
	case kindHierarchical:
		if NormalizePath(s.root) == "" {
			return nil, &InvalidPatternError{Pattern: s.root}
		}
		root := s.root
		return func(uri string) bool {
			return PathPrefixMatch(root, uri)
		}, nil
	case kindMatching:
		if s.match == nil {
			return nil, &InvalidPatternError{Pattern: "<nil matcher>"}
		}
		return s.match, nil
	}
	return func(string) bool { return false }, nil
}

// NormalizePath reduces a URL to its path with the query and any
// trailing slash stripped, so "/projects/" and "/projects" compare
// equal. Absolute URLs keep their scheme and host, so invalidating
// a URL on one origin never touches entries from another.
func NormalizePath(uri string) string {
	path := uri
	if u, err := url.Parse(uri); err == nil {
		path = u.Path
		if u.Host != "" {
			path = u.Scheme + "://" + u.Host + u.Path
		}
	}
	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	}
	return path
}

// PathPrefixMatch reports whether uri is root itself or hierarchically
// below it. Matching is done segment by segment, never by character
// prefix: "/projects/1" does not match "/projects/10".
func PathPrefixMatch(root, uri string) bool {
	rootSegments := segments(root)
	uriSegments := segments(uri)
	if len(uriSegments) < len(rootSegments) {
		return false
	}
	for i, segment := range rootSegments {
		if uriSegments[i] != segment {
			return false
		}
	}
	return true
}

func segments(uri string) []string {
	path := strings.TrimPrefix(NormalizePath(uri), "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
