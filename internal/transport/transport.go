// Package transport issues rate-limited HTTP requests against the catalog
// sources and hands raw bodies back to the listing layer.
package transport

import (
	"context"
	"net/url"
)

// Request describes one outgoing call
type Request struct {
	Method string     // Defaults to GET
	URL    string     // Absolute URL, may already carry a query string
	Query  url.Values // Merged into URL
}

// Response carries the body of a successful call.
// Data is usually []byte, but fakes and caches may hand over a decoded value.
type Response struct {
	Status int
	Data   any
}

// Transport is the single operation the rest of the module needs from the network
type Transport interface {
	Schedule(ctx context.Context, req Request) (*Response, error)
}

// Func adapts a function to Transport
type Func func(ctx context.Context, req Request) (*Response, error)

// Schedule calls f
func (f Func) Schedule(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}

// EncodeURL joins req.URL and req.Query
func EncodeURL(req Request) string {
	if len(req.Query) == 0 {
		return req.URL
	}
	u, err := url.Parse(req.URL)
	if err != nil {
		return req.URL + "?" + req.Query.Encode()
	}
	q := u.Query()
	for k, vs := range req.Query {
		q.Del(k)
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}
