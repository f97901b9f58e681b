package apicache

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"net/url"
)

// Response is a fully drained HTTP response owned by the caller.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
	// FromCache is true when the response was served from the cache
	// without a transport call.
	FromCache bool
}

// Transport performs the actual network I/O for cache misses and writes.
// It is synchronous from the dispatcher's point of view; any timeout or
// retry behavior lives behind this interface.
type Transport interface {
	RoundTrip(ctx context.Context, method, uri string, params url.Values, body io.Reader) (*Response, error)
}

// HTTPTransport is the default Transport over net/http.
type HTTPTransport struct {
	client *http.Client
	host   string
}

// NewHTTPTransport creates a transport with the given host header
// override. Pass an empty host to use the URL host as-is.
func NewHTTPTransport(host string) *HTTPTransport {
	client := &http.Client{
		// do not follow redirects
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	if host != "" {
		client.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{
				ServerName: host,
			},
		}
	}
	return &HTTPTransport{client: client, host: host}
}

func (t *HTTPTransport) RoundTrip(ctx context.Context, method, uri string, params url.Values, body io.Reader) (*Response, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, err
	}
	if len(params) > 0 {
		query := u.Query()
		for name, values := range params {
			for _, value := range values {
				query.Add(name, value)
			}
		}
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	if t.host != "" {
		req.Host = t.host
	}

	res, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	payload, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	return &Response{
		Status: res.StatusCode,
		Header: res.Header.Clone(),
		Body:   payload,
	}, nil
}
