// Package listing fetches paged listings from the REST source and walks them
// page by page.
package listing

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/mmcdole/komsync/internal/domain"
	"github.com/mmcdole/komsync/internal/transport"
)

// Endpoint describes one remote listing
type Endpoint struct {
	URL       string     // Absolute listing URL
	Query     url.Values // Fixed query parameters; page and size are added per call
	IDField   string     // Path of the identity field in each record
	ThumbBase string     // Prefix thumbnails are resolved against
}

// PageEnvelope is one decoded page of a listing.
// IsLastPage is inferred: a page is last iff it has no records.
type PageEnvelope struct {
	Page       int
	Records    []gjson.Result
	Total      int // totalElements hint, -1 when absent
	IsLastPage bool
}

// PageFetcher fetches a single page of a listing
type PageFetcher interface {
	FetchPage(ctx context.Context, ep Endpoint, page, size int) (PageEnvelope, error)
}

// Fetcher is the PageFetcher backed by a Transport
type Fetcher struct {
	transport transport.Transport
	logger    *slog.Logger
}

// NewFetcher creates a new listing fetcher
func NewFetcher(t transport.Transport, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{transport: t, logger: logger}
}

// FetchPage requests one page and decodes it. Transport errors are returned
// unchanged; undecodable bodies fail with domain.ErrDecode.
func (f *Fetcher) FetchPage(ctx context.Context, ep Endpoint, page, size int) (PageEnvelope, error) {
	query := make(url.Values, len(ep.Query)+2)
	for k, vs := range ep.Query {
		query[k] = append([]string(nil), vs...)
	}
	query.Set("page", strconv.Itoa(page))
	query.Set("size", strconv.Itoa(size))

	resp, err := f.transport.Schedule(ctx, transport.Request{
		Method: http.MethodGet,
		URL:    ep.URL,
		Query:  query,
	})
	if err != nil {
		return PageEnvelope{}, err
	}

	env, err := DecodePage(resp.Data)
	if err != nil {
		f.logger.Debug("failed to decode page", "url", ep.URL, "page", page, "error", err)
		return PageEnvelope{}, err
	}
	env.Page = page

	f.logger.Debug("fetched page", "url", ep.URL, "page", page, "records", len(env.Records), "total", env.Total)
	return env, nil
}

// DecodePage decodes a paged listing body ({"content": [...], "totalElements": n})
func DecodePage(data any) (PageEnvelope, error) {
	root, err := Decode(data)
	if err != nil {
		return PageEnvelope{}, err
	}

	content := root.Get("content")
	if !content.IsArray() {
		return PageEnvelope{}, fmt.Errorf("%w: missing content array", domain.ErrDecode)
	}
	records := content.Array()

	total := -1
	if t := root.Get("totalElements"); t.Exists() {
		total = int(t.Int())
	}

	return PageEnvelope{
		Records:    records,
		Total:      total,
		IsLastPage: len(records) == 0,
	}, nil
}

// Decode turns a response body into a queryable JSON value. The body may be
// serialized text or a value that was already decoded upstream.
func Decode(data any) (gjson.Result, error) {
	raw, err := bodyBytes(data)
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.ValidBytes(raw) {
		return gjson.Result{}, fmt.Errorf("%w: invalid JSON", domain.ErrDecode)
	}
	return gjson.ParseBytes(raw), nil
}

func bodyBytes(data any) ([]byte, error) {
	switch v := data.(type) {
	case nil:
		return nil, fmt.Errorf("%w: empty body", domain.ErrDecode)
	case []byte:
		return v, nil
	case json.RawMessage:
		return v, nil
	case string:
		return []byte(v), nil
	case gjson.Result:
		return []byte(v.Raw), nil
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrDecode, err)
		}
		return raw, nil
	}
}
