package komga

import (
	"fmt"
	"net/url"

	"github.com/mmcdole/komsync/internal/domain"
	"github.com/mmcdole/komsync/internal/listing"
)

const (
	// SectionPageSize is the number of tiles fetched for a homepage section
	SectionPageSize = 20

	// PageSize is the number of items requested for paged requests
	PageSize = 40
)

// SectionSpec is the fixed description of one homepage section
type SectionSpec struct {
	Title     string
	ViewMore  bool
	Path      string // Relative to the API base
	ThumbPath string // Relative to the API base
	IDField   string // Record field holding the series id
	Query     url.Values
}

// Sections maps every section kind to its endpoint. Adding a section is a
// change to this table only.
var Sections = map[domain.SectionKind]SectionSpec{
	domain.SectionOnDeck: {
		Title:     "On Deck",
		Path:      "/books/ondeck",
		ThumbPath: "/books",
		IDField:   "seriesId",
		Query:     url.Values{"deleted": {"false"}},
	},
	domain.SectionContinue: {
		Title:     "Continue Reading",
		Path:      "/books",
		ThumbPath: "/books",
		IDField:   "seriesId",
		Query: url.Values{
			"sort":        {"readProgress.readDate,desc"},
			"read_status": {"IN_PROGRESS"},
			"deleted":     {"false"},
		},
	},
	domain.SectionNew: {
		Title:     "Recently added series",
		ViewMore:  true,
		Path:      "/series/new",
		ThumbPath: "/series",
		IDField:   "id",
		Query:     url.Values{"deleted": {"false"}},
	},
	domain.SectionUpdated: {
		Title:     "Recently updated series",
		ViewMore:  true,
		Path:      "/series/updated",
		ThumbPath: "/series",
		IDField:   "id",
		Query:     url.Values{"deleted": {"false"}},
	},
}

// SectionEndpoint resolves the listing endpoint of a section against apiBase
func SectionEndpoint(apiBase string, kind domain.SectionKind) (listing.Endpoint, error) {
	spec, ok := Sections[kind]
	if !ok {
		return listing.Endpoint{}, fmt.Errorf("unknown section: %s", kind)
	}
	return listing.Endpoint{
		URL:       apiBase + spec.Path,
		Query:     spec.Query,
		IDField:   spec.IDField,
		ThumbBase: apiBase + spec.ThumbPath,
	}, nil
}

// UpdatedSeriesEndpoint lists series newest-modified first
func UpdatedSeriesEndpoint(apiBase string) listing.Endpoint {
	ep, _ := SectionEndpoint(apiBase, domain.SectionUpdated)
	return ep
}

// SeriesEndpoint lists every series, optionally filtered by a search term
func SeriesEndpoint(apiBase, search string) listing.Endpoint {
	query := url.Values{"deleted": {"false"}}
	if search != "" {
		query.Set("search", search)
	}
	return listing.Endpoint{
		URL:       apiBase + "/series",
		Query:     query,
		IDField:   "id",
		ThumbBase: apiBase + "/series",
	}
}
