// Package scrape reads the secondary source, a WordPress manga site, by
// parsing its HTML pages.
package scrape

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mmcdole/komsync/internal/domain"
)

// Selector contract of the site's theme
const (
	searchResultSelector = ".search-wrap .c-tabs-item > .c-tabs-item__content"
	resultAnchorSelector = ".tab-summary .post-title a"
	resultThumbSelector  = ".tab-thumb img"
	detailTitleSelector  = "h1"
	detailThumbSelector  = ".summary_image img"
	detailStatusSelector = ".post-status .summary-content"
	chapterSelector      = ".listing-chapters_wrap .wp-manga-chapter"

	// Images are lazy-loaded; src holds a placeholder
	lazyImageAttr = "data-src"
)

// LoadDocument parses an HTML body. The body may be bytes or a string.
func LoadDocument(data any) (*goquery.Document, error) {
	var raw []byte
	switch v := data.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return nil, fmt.Errorf("%w: expected an HTML body, got %T", domain.ErrDecode, data)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDecode, err)
	}
	return doc, nil
}

// IDFromHref derives an item id from its page link: a single trailing slash
// is dropped, then the last path segment is the id.
//
//	"/manga/title-x/" -> "title-x"
//	"/manga/title-x"  -> "title-x"
func IDFromHref(href string) string {
	href = strings.TrimSuffix(href, "/")
	if i := strings.LastIndex(href, "/"); i >= 0 {
		return href[i+1:]
	}
	return href
}

// MapSearchResult converts one search result node to a tile
func MapSearchResult(node *goquery.Selection) (domain.Tile, error) {
	anchor := node.Find(resultAnchorSelector).First()
	href, _ := anchor.Attr("href")

	id := IDFromHref(href)
	if id == "" {
		return domain.Tile{}, fmt.Errorf("%w: result link %q has no id", domain.ErrNormalize, href)
	}

	thumb, _ := node.Find(resultThumbSelector).First().Attr(lazyImageAttr)

	return domain.Tile{
		ID:        id,
		Title:     strings.TrimSpace(anchor.Text()),
		Thumbnail: thumb,
	}, nil
}

// MapSearchResults converts a search page to tiles, dropping results
// without an id
func MapSearchResults(doc *goquery.Document) []domain.Tile {
	var tiles []domain.Tile
	doc.Find(searchResultSelector).Each(func(_ int, node *goquery.Selection) {
		if tile, err := MapSearchResult(node); err == nil {
			tiles = append(tiles, tile)
		}
	})
	return tiles
}

// MapDetail converts an item page to an item detail
func MapDetail(doc *goquery.Document, itemID string) *domain.ItemDetail {
	thumb, _ := doc.Find(detailThumbSelector).First().Attr(lazyImageAttr)

	return &domain.ItemDetail{
		ID:        itemID,
		Titles:    []string{strings.TrimSpace(doc.Find(detailTitleSelector).First().Text())},
		Thumbnail: thumb,
		Status:    domain.ParseStatus(statusCode(doc.Find(detailStatusSelector).Last().Text())),
	}
}

// statusCode maps the site's status label onto the server's status codes
func statusCode(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	switch {
	case strings.Contains(label, "complet"), strings.Contains(label, "termin"):
		return "ENDED"
	case strings.Contains(label, "abandon"):
		return "ABANDONED"
	case strings.Contains(label, "hiatus"), strings.Contains(label, "pause"):
		return "HIATUS"
	}
	return "ONGOING"
}

// MapChapters numbers the chapters of an item page by position. The page
// lists newest first, so the first node gets the highest number.
func MapChapters(doc *goquery.Document, itemID string) []domain.Chapter {
	nodes := doc.Find(chapterSelector)
	n := nodes.Length()

	chapters := make([]domain.Chapter, 0, n)
	for i := range n {
		num := n - i
		chapters = append(chapters, domain.Chapter{
			ID:      strconv.Itoa(num),
			ItemID:  itemID,
			Number:  num,
			Name:    fmt.Sprintf("Ch. %d", num),
			SortKey: num,
		})
	}
	return chapters
}
