package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/mmcdole/komsync/internal/domain"
	"github.com/mmcdole/komsync/internal/transport"
)

// Client implements domain.Source by scraping the site's HTML pages
type Client struct {
	baseURL   string
	transport transport.Transport
	logger    *slog.Logger
}

// NewClient creates a new scraping client for the site at baseURL
func NewClient(baseURL string, t transport.Transport, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		transport: t,
		logger:    logger,
	}
}

func (c *Client) fetch(ctx context.Context, reqURL string, query url.Values) ([]byte, error) {
	resp, err := c.transport.Schedule(ctx, transport.Request{
		Method: http.MethodGet,
		URL:    reqURL,
		Query:  query,
	})
	if err != nil {
		return nil, err
	}
	switch body := resp.Data.(type) {
	case []byte:
		return body, nil
	case string:
		return []byte(body), nil
	}
	return nil, fmt.Errorf("%w: expected an HTML body, got %T", domain.ErrDecode, resp.Data)
}

// Search returns the site's search results. It never fails on an unreachable
// site: the placeholder tiles are returned instead. The site serves a single
// result page, so NextPage is always nil.
func (c *Client) Search(ctx context.Context, query string, page int) (domain.PagedTiles, error) {
	if page > 0 {
		return domain.PagedTiles{}, nil
	}

	body, err := c.fetch(ctx, c.baseURL+"/", url.Values{
		"s":         {query},
		"post_type": {"wp-manga"},
	})
	if err != nil {
		c.logger.Warn("search request failed", "query", query, "error", err)
		return domain.PagedTiles{Tiles: domain.PlaceholderTiles()}, nil
	}

	doc, err := LoadDocument(body)
	if err != nil {
		return domain.PagedTiles{}, err
	}

	return domain.PagedTiles{Tiles: MapSearchResults(doc)}, nil
}

func (c *Client) itemPage(ctx context.Context, itemID string) ([]byte, error) {
	body, err := c.fetch(ctx, fmt.Sprintf("%s/manga/%s", c.baseURL, url.PathEscape(itemID)), nil)
	if err != nil {
		c.logger.Error("failed to fetch item page", "itemID", itemID, "error", err)
		return nil, err
	}
	return body, nil
}

// ItemDetail returns the metadata on an item's page
func (c *Client) ItemDetail(ctx context.Context, itemID string) (*domain.ItemDetail, error) {
	body, err := c.itemPage(ctx, itemID)
	if err != nil {
		return nil, err
	}
	doc, err := LoadDocument(body)
	if err != nil {
		return nil, err
	}
	return MapDetail(doc, itemID), nil
}

// Chapters returns the chapters listed on an item's page, newest first
func (c *Client) Chapters(ctx context.Context, itemID string) ([]domain.Chapter, error) {
	body, err := c.itemPage(ctx, itemID)
	if err != nil {
		return nil, err
	}
	doc, err := LoadDocument(body)
	if err != nil {
		return nil, err
	}
	return MapChapters(doc, itemID), nil
}
