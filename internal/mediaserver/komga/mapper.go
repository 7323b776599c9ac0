package komga

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/tidwall/gjson"

	"github.com/mmcdole/komsync/internal/domain"
)

// supportedImageTypes are served as is; other page types are converted to png
var supportedImageTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
	"application/pdf",
}

// MapTile converts a series or book record to a tile. The tile id comes from
// idField; the thumbnail always hangs off the record's own id.
func MapTile(rec gjson.Result, idField, thumbBase string) (domain.Tile, error) {
	if idField == "" {
		idField = "id"
	}
	id := rec.Get(idField).String()
	if id == "" {
		return domain.Tile{}, fmt.Errorf("%w: field %q is empty", domain.ErrNormalize, idField)
	}

	tile := domain.Tile{
		ID:    id,
		Title: rec.Get("metadata.title").String(),
	}
	if recID := rec.Get("id").String(); recID != "" {
		tile.Thumbnail = fmt.Sprintf("%s/%s/thumbnail", thumbBase, recID)
	}
	return tile, nil
}

// MapTiles converts records to tiles, dropping the ones without identity
func MapTiles(records []gjson.Result, idField, thumbBase string, logger *slog.Logger) []domain.Tile {
	tiles := make([]domain.Tile, 0, len(records))
	for i, rec := range records {
		tile, err := MapTile(rec, idField, thumbBase)
		if err != nil {
			if logger != nil {
				logger.Debug("dropping record", "index", i, "error", err)
			}
			continue
		}
		tiles = append(tiles, tile)
	}
	return tiles
}

// MapDetail converts a series record to an item detail
func MapDetail(rec gjson.Result, apiBase string) (*domain.ItemDetail, error) {
	id := rec.Get("id").String()
	if id == "" {
		return nil, fmt.Errorf("%w: series has no id", domain.ErrNormalize)
	}

	metadata := rec.Get("metadata")
	books := rec.Get("booksMetadata")

	titles := []string{metadata.Get("title").String()}
	metadata.Get("alternateTitles.#.title").ForEach(func(_, t gjson.Result) bool {
		if s := t.String(); s != "" && !slices.Contains(titles, s) {
			titles = append(titles, s)
		}
		return true
	})

	var authors, artists []string
	books.Get("authors").ForEach(func(_, a gjson.Result) bool {
		name := a.Get("name").String()
		switch strings.ToLower(a.Get("role").String()) {
		case "writer":
			authors = appendUnique(authors, name)
		case "penciller", "inker", "colorist", "letterer", "cover":
			artists = appendUnique(artists, name)
		}
		return true
	})

	summary := metadata.Get("summary").String()
	if summary == "" {
		// Series summary is often empty while the books carry one
		summary = books.Get("summary").String()
	}

	var tags []string
	for _, path := range []string{"metadata.genres", "metadata.tags"} {
		rec.Get(path).ForEach(func(_, t gjson.Result) bool {
			tags = appendUnique(tags, capitalize(t.String()))
			return true
		})
	}

	detail := &domain.ItemDetail{
		ID:        id,
		Titles:    titles,
		Thumbnail: fmt.Sprintf("%s/series/%s/thumbnail", apiBase, id),
		Status:    domain.ParseStatus(metadata.Get("status").String()),
		Author:    strings.Join(authors, ", "),
		Artist:    strings.Join(artists, ", "),
		Summary:   summary,
		Tags:      tags,
	}

	if t, err := LastModified(rec); err == nil {
		detail.LastUpdate = t
	}

	return detail, nil
}

// LastModified returns the metadata modification time of a series record.
// Timestamps without a zone are taken as UTC.
func LastModified(rec gjson.Result) (time.Time, error) {
	ts := rec.Get("metadata.lastModified").String()
	if ts == "" {
		return time.Time{}, fmt.Errorf("%w: series %q has no lastModified", domain.ErrDecode, rec.Get("id").String())
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, ts); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unparseable lastModified %q", domain.ErrDecode, ts)
}

// MapChapters converts book records, listed newest first, to chapters.
// Numbers are positional: the first record gets the highest number.
func MapChapters(records []gjson.Result, itemID string) []domain.Chapter {
	chapters := make([]domain.Chapter, 0, len(records))
	n := len(records)
	for i, rec := range records {
		num := n - i
		name := rec.Get("metadata.title").String()
		if name == "" {
			name = fmt.Sprintf("Ch. %d", num)
		}
		chapters = append(chapters, domain.Chapter{
			ID:      rec.Get("id").String(),
			ItemID:  itemID,
			Number:  num,
			Name:    name,
			SortKey: num,
		})
	}
	return chapters
}

// MapPages converts a book's page list to page URLs
func MapPages(pages gjson.Result, apiBase, chapterID string) []string {
	var urls []string
	pages.ForEach(func(_, page gjson.Result) bool {
		u := fmt.Sprintf("%s/books/%s/pages/%d", apiBase, chapterID, page.Get("number").Int())
		if !slices.Contains(supportedImageTypes, page.Get("mediaType").String()) {
			u += "?convert=png"
		}
		urls = append(urls, u)
		return true
	})
	return urls
}

// IsLongStrip reports whether a series should be read as a vertical strip
func IsLongStrip(series gjson.Result) bool {
	switch series.Get("metadata.readingDirection").String() {
	case "VERTICAL", "WEBTOON":
		return true
	}
	return false
}

// capitalize upper-cases the first letter of a tag
func capitalize(tag string) string {
	r, size := utf8.DecodeRuneInString(tag)
	if r == utf8.RuneError {
		return tag
	}
	return string(unicode.ToUpper(r)) + tag[size:]
}

func appendUnique(list []string, v string) []string {
	if v == "" || slices.Contains(list, v) {
		return list
	}
	return append(list, v)
}
