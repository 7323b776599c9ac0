package komga

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"

	"github.com/mmcdole/komsync/internal/domain"
	"github.com/mmcdole/komsync/internal/listing"
	"github.com/mmcdole/komsync/internal/transport"
)

// Client implements domain.Source against the Komga REST API.
// The API base is read from settings on every call, so a server configured
// after startup is picked up without rebuilding the client.
type Client struct {
	transport transport.Transport
	fetcher   *listing.Fetcher
	settings  domain.Settings
	logger    *slog.Logger
}

// NewClient creates a new Komga API client
func NewClient(t transport.Transport, settings domain.Settings, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		transport: t,
		fetcher:   listing.NewFetcher(t, logger),
		settings:  settings,
		logger:    logger,
	}
}

// APIBase returns the configured API root or domain.ErrConfigurationMissing
func (c *Client) APIBase() (string, error) {
	base, ok := c.settings.APIBaseURL()
	if !ok {
		return "", domain.ErrConfigurationMissing
	}
	return base, nil
}

// get fetches a single JSON document
func (c *Client) get(ctx context.Context, reqURL string, query url.Values) (gjson.Result, error) {
	resp, err := c.transport.Schedule(ctx, transport.Request{
		Method: http.MethodGet,
		URL:    reqURL,
		Query:  query,
	})
	if err != nil {
		return gjson.Result{}, err
	}
	return listing.Decode(resp.Data)
}

// Ping checks that the server answers with the configured credentials
func (c *Client) Ping(ctx context.Context) error {
	base, err := c.APIBase()
	if err != nil {
		return err
	}
	if _, err := c.get(ctx, base+"/libraries", nil); err != nil {
		return fmt.Errorf("failed to reach server: %w", err)
	}
	return nil
}

// Search returns one page of series matching query
func (c *Client) Search(ctx context.Context, query string, page int) (domain.PagedTiles, error) {
	base, err := c.APIBase()
	if err != nil {
		return domain.PagedTiles{}, err
	}

	ep := SeriesEndpoint(base, query)
	env, err := c.fetcher.FetchPage(ctx, ep, page, PageSize)
	if err != nil {
		c.logger.Error("search failed", "query", query, "page", page, "error", err)
		return domain.PagedTiles{}, err
	}

	return PagedTiles(env, ep, c.logger), nil
}

// ItemDetail returns the metadata of a series
func (c *Client) ItemDetail(ctx context.Context, itemID string) (*domain.ItemDetail, error) {
	base, err := c.APIBase()
	if err != nil {
		return nil, err
	}

	rec, err := c.get(ctx, fmt.Sprintf("%s/series/%s", base, url.PathEscape(itemID)), nil)
	if err != nil {
		c.logger.Error("failed to fetch series", "itemID", itemID, "error", err)
		return nil, err
	}
	return MapDetail(rec, base)
}

// Chapters returns the books of a series, newest first
func (c *Client) Chapters(ctx context.Context, itemID string) ([]domain.Chapter, error) {
	base, err := c.APIBase()
	if err != nil {
		return nil, err
	}

	query := url.Values{
		"unpaged":      {"true"},
		"media_status": {"READY"},
		"deleted":      {"false"},
		"sort":         {"metadata.numberSort,desc"},
	}
	body, err := c.get(ctx, fmt.Sprintf("%s/series/%s/books", base, url.PathEscape(itemID)), query)
	if err != nil {
		c.logger.Error("failed to fetch books", "itemID", itemID, "error", err)
		return nil, err
	}

	content := body.Get("content")
	if !content.IsArray() {
		return nil, fmt.Errorf("%w: missing content array", domain.ErrDecode)
	}
	return MapChapters(content.Array(), itemID), nil
}

// ChapterDetails returns the page URLs of a book and whether the series reads
// as a long strip
func (c *Client) ChapterDetails(ctx context.Context, itemID, chapterID string) (*domain.ChapterDetails, error) {
	base, err := c.APIBase()
	if err != nil {
		return nil, err
	}

	pages, err := c.get(ctx, fmt.Sprintf("%s/books/%s/pages", base, url.PathEscape(chapterID)), nil)
	if err != nil {
		return nil, err
	}
	if !pages.IsArray() {
		return nil, fmt.Errorf("%w: page list is not an array", domain.ErrDecode)
	}

	// The reading direction is only available in the series metadata
	series, err := c.get(ctx, fmt.Sprintf("%s/series/%s", base, url.PathEscape(itemID)), nil)
	if err != nil {
		return nil, err
	}

	return &domain.ChapterDetails{
		ID:        chapterID,
		ItemID:    itemID,
		Pages:     MapPages(pages, base, chapterID),
		LongStrip: IsLongStrip(series),
	}, nil
}

// PagedTiles maps a fetched page to tiles. NextPage is nil once the page is empty.
func PagedTiles(env listing.PageEnvelope, ep listing.Endpoint, logger *slog.Logger) domain.PagedTiles {
	result := domain.PagedTiles{
		Tiles: MapTiles(env.Records, ep.IDField, ep.ThumbBase, logger),
	}
	if !env.IsLastPage {
		next := env.Page + 1
		result.NextPage = &next
	}
	return result
}
