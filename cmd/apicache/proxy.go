package main

import (
	"net/http"

	"github.com/apicache/apicache"

	"github.com/rs/zerolog/log"
)

// proxyHandler forwards incoming requests through the caching client.
// GETs are served through the cache; write verbs invalidate it.
func proxyHandler(client *apicache.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var res *apicache.Response
		var err error
		var status cacheStatus

		switch r.Method {
		case http.MethodGet:
			res, err = client.Get(ctx, r.URL.Path, r.URL.Query())
		case http.MethodPost:
			res, err = client.Post(ctx, r.URL.Path, r.URL.Query(), apicache.WithBody(r.Body))
			status.Forward(fwdReasonMethod)
		case http.MethodPut:
			res, err = client.Put(ctx, r.URL.Path, r.URL.Query(), apicache.WithBody(r.Body))
			status.Forward(fwdReasonMethod)
		case http.MethodPatch:
			res, err = client.Patch(ctx, r.URL.Path, r.URL.Query(), apicache.WithBody(r.Body))
			status.Forward(fwdReasonMethod)
		case http.MethodDelete:
			res, err = client.Delete(ctx, r.URL.Path, r.URL.Query(), apicache.WithBody(r.Body))
			status.Forward(fwdReasonMethod)
		default:
			http.Error(w, "Method not supported", http.StatusMethodNotAllowed)
			return
		}

		if err != nil {
			log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("Could not reach origin")
			http.Error(w, "Error contacting origin", http.StatusBadGateway)
			return
		}

		if r.Method == http.MethodGet {
			if res.FromCache {
				status.Hit()
			} else {
				status.Forward(fwdReasonMiss)
				status.Stored()
			}
		}

		for name, values := range res.Header {
			for _, value := range values {
				w.Header().Add(name, value)
			}
		}
		w.Header().Set("Cache-Status", status.String())
		w.WriteHeader(res.Status)
		if _, err := w.Write(res.Body); err != nil {
			log.Error().Err(err).Msg("Error writing to client")
		}
	}
}
