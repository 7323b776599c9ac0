package transport_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/komsync/internal/domain"
	"github.com/mmcdole/komsync/internal/log"
	"github.com/mmcdole/komsync/internal/transport"
)

// newTestServer creates a test server with keep-alives disabled so closing it
// does not disturb parallel tests sharing the default HTTP transport.
func newTestServer(handler http.Handler) *httptest.Server {
	server := httptest.NewServer(handler)
	server.Config.SetKeepAlivesEnabled(false)
	return server
}

func newTransport(opts transport.Options) *transport.HTTPTransport {
	if opts.RequestsPerSecond == 0 {
		opts.RequestsPerSecond = 1000
	}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = time.Millisecond
	}
	return transport.NewHTTPTransport(opts, log.NullLogger())
}

func TestHTTPTransport_Success(t *testing.T) {
	t.Parallel()

	var gotQuery url.Values
	var gotUser, gotPass string
	var gotAuth bool
	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotUser, gotPass, gotAuth = r.BasicAuth()
		_, _ = w.Write([]byte(`{"content":[]}`))
	}))
	defer server.Close()

	tr := newTransport(transport.Options{Username: "reader", Password: "secret"})
	resp, err := tr.Schedule(context.Background(), transport.Request{
		URL:   server.URL + "/api/v1/series/new?deleted=false",
		Query: url.Values{"page": {"2"}, "size": {"20"}},
	})

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, []byte(`{"content":[]}`), resp.Data)
	assert.Equal(t, "2", gotQuery.Get("page"))
	assert.Equal(t, "20", gotQuery.Get("size"))
	assert.Equal(t, "false", gotQuery.Get("deleted"))
	assert.True(t, gotAuth)
	assert.Equal(t, "reader", gotUser)
	assert.Equal(t, "secret", gotPass)
}

func TestHTTPTransport_RetriesServerErrors(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	tr := newTransport(transport.Options{MaxRetries: 3})
	resp, err := tr.Schedule(context.Background(), transport.Request{URL: server.URL})

	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), resp.Data)
	assert.Equal(t, int32(3), hits.Load())
}

func TestHTTPTransport_GivesUpAfterMaxRetries(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	tr := newTransport(transport.Options{MaxRetries: 2})
	_, err := tr.Schedule(context.Background(), transport.Request{URL: server.URL})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.Equal(t, int32(3), hits.Load())
}

func TestHTTPTransport_PermanentErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		statusCode int
		wantErr    error
	}{
		{name: "401 Unauthorized", statusCode: http.StatusUnauthorized, wantErr: domain.ErrAuthFailed},
		{name: "403 Forbidden", statusCode: http.StatusForbidden, wantErr: domain.ErrAuthFailed},
		{name: "404 Not Found", statusCode: http.StatusNotFound, wantErr: domain.ErrItemNotFound},
		{name: "400 Bad Request", statusCode: http.StatusBadRequest, wantErr: domain.ErrTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var hits atomic.Int32
			server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				w.WriteHeader(tt.statusCode)
			}))
			defer server.Close()

			tr := newTransport(transport.Options{MaxRetries: 3})
			_, err := tr.Schedule(context.Background(), transport.Request{URL: server.URL})

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, domain.ErrTransport)
			assert.Equal(t, int32(1), hits.Load(), "permanent errors are not retried")
		})
	}
}

func TestHTTPTransport_ServerOffline(t *testing.T) {
	t.Parallel()

	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	serverURL := server.URL
	server.Close()

	tr := newTransport(transport.Options{})
	_, err := tr.Schedule(context.Background(), transport.Request{URL: serverURL})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrServerOffline)
	assert.ErrorIs(t, err, domain.ErrTransport)
}

func TestEncodeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		req  transport.Request
		want string
	}{
		{
			name: "no query",
			req:  transport.Request{URL: "http://host/api/v1/series"},
			want: "http://host/api/v1/series",
		},
		{
			name: "query appended",
			req:  transport.Request{URL: "http://host/series", Query: url.Values{"page": {"1"}}},
			want: "http://host/series?page=1",
		},
		{
			name: "query overrides existing keys",
			req:  transport.Request{URL: "http://host/series?page=0&deleted=false", Query: url.Values{"page": {"3"}}},
			want: "http://host/series?deleted=false&page=3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, transport.EncodeURL(tt.req))
		})
	}
}
