package apicache

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestClientAgainstHttpOrigin(t *testing.T) {
	var getCount, putCount int
	router := chi.NewRouter()
	router.Get("/projects/{id}", func(w http.ResponseWriter, r *http.Request) {
		getCount++
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"id":%q,"serve":%d}`, chi.URLParam(r, "id"), getCount)
	})
	router.Put("/projects/{id}", func(w http.ResponseWriter, r *http.Request) {
		putCount++
		w.WriteHeader(http.StatusNoContent)
	})
	server := httptest.NewServer(router)
	defer server.Close()

	client := New(Config{OriginURL: server.URL})
	ctx := context.Background()

	first, err := client.Get(ctx, "/projects/1", nil)
	if err != nil {
		t.Fatal(err)
	}
	if first.Status != 200 || getCount != 1 {
		t.Fatalf("Status %d after %d origin calls", first.Status, getCount)
	}
	if ct := first.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type is %s", ct)
	}

	second, err := client.Get(ctx, "/projects/1", nil)
	if err != nil {
		t.Fatal(err)
	}
	if getCount != 1 || !second.FromCache {
		t.Fatalf("Second GET hit origin (%d calls)", getCount)
	}
	if string(first.Body) != string(second.Body) {
		t.Fatalf("Bodies differ: %s vs %s", first.Body, second.Body)
	}

	if res, err := client.Put(ctx, "/projects/1", nil); err != nil || res.Status != http.StatusNoContent {
		t.Fatalf("PUT failed: %v", err)
	}
	if putCount != 1 {
		t.Fatalf("Origin PUT called %d times", putCount)
	}

	if _, err := client.Get(ctx, "/projects/1", nil); err != nil {
		t.Fatal(err)
	}
	if getCount != 2 {
		t.Fatalf("GET after PUT hit origin %d times", getCount)
	}
}

func TestHTTPTransportEncodesParams(t *testing.T) {
	var gotQuery url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
	}))
	defer server.Close()

	transport := NewHTTPTransport("")
	_, err := transport.RoundTrip(context.Background(), "GET", server.URL+"/search?q=cache", url.Values{"page": {"2"}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if gotQuery.Get("q") != "cache" || gotQuery.Get("page") != "2" {
		t.Fatalf("Origin got query %v", gotQuery)
	}
}

func TestHTTPTransportDoesNotFollowRedirects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/moved" {
			http.Redirect(w, r, "/target", http.StatusFound)
			return
		}
		w.Write([]byte("target"))
	}))
	defer server.Close()

	transport := NewHTTPTransport("")
	res, err := transport.RoundTrip(context.Background(), "GET", server.URL+"/moved", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != http.StatusFound {
		t.Fatalf("Status is %d", res.Status)
	}
}
