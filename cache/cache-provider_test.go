package cache

import (
	"net/http"
	"strings"
	"testing"
)

func TestGetReturnsCopy(t *testing.T) {
	mem := NewMemCache()
	mem.Put("key", Entry{
		URL:    "/a",
		Status: 200,
		Header: http.Header{"Content-Type": []string{"text/test"}},
		Body:   []byte("hello"),
	})

	entry, ok := mem.Get("key")
	if !ok {
		t.Fatal("Entry not found")
	}
	entry.Body[0] = 'X'
	entry.Header.Set("Content-Type", "text/evil")

	again, _ := mem.Get("key")
	if string(again.Body) != "hello" {
		t.Fatalf("Stored body mutated, is %s", again.Body)
	}
	if ct := again.Header.Get("Content-Type"); ct != "text/test" {
		t.Fatalf("Stored header mutated, is %s", ct)
	}
}

func TestPutOverwrites(t *testing.T) {
	mem := NewMemCache()
	mem.Put("key", Entry{Body: []byte("one")})
	mem.Put("key", Entry{Body: []byte("two")})

	if entry, _ := mem.Get("key"); string(entry.Body) != "two" {
		t.Fatalf("Body is %s", entry.Body)
	}
	if mem.Len() != 1 {
		t.Fatalf("Cache has %d entries", mem.Len())
	}
}

func TestPurgeAbsentKeyIsNoop(t *testing.T) {
	mem := NewMemCache()
	mem.Put("key", Entry{})
	mem.Purge("other")
	if mem.Len() != 1 {
		t.Fatalf("Cache has %d entries", mem.Len())
	}
	mem.Purge("key")
	if mem.Len() != 0 {
		t.Fatalf("Cache has %d entries", mem.Len())
	}
}

func TestPurgeMatching(t *testing.T) {
	mem := NewMemCache()
	mem.Put("a", Entry{URL: "/projects/1"})
	mem.Put("b", Entry{URL: "/projects/1/users"})
	mem.Put("c", Entry{URL: "/users"})

	removed := mem.PurgeMatching(func(e Entry) bool {
		return strings.HasPrefix(e.URL, "/projects")
	})

	if len(removed) != 2 {
		t.Fatalf("Removed %d entries", len(removed))
	}
	if mem.Len() != 1 {
		t.Fatalf("Cache has %d entries", mem.Len())
	}
	if _, ok := mem.Get("c"); !ok {
		t.Fatal("Unrelated entry removed")
	}
}

func TestClear(t *testing.T) {
	mem := NewMemCache()
	mem.Put("a", Entry{})
	mem.Put("b", Entry{})

	if count := mem.Clear(); count != 2 {
		t.Fatalf("Cleared %d entries", count)
	}
	if mem.Len() != 0 {
		t.Fatalf("Cache has %d entries", mem.Len())
	}
}

func TestKeys(t *testing.T) {
	mem := NewMemCache()
	mem.Put("a", Entry{})
	mem.Put("b", Entry{})

	seen := make(map[string]bool)
	mem.Keys(func(key string) { seen[key] = true })
	if !seen["a"] || !seen["b"] || len(seen) != 2 {
		t.Fatalf("Keys are %v", seen)
	}
}
