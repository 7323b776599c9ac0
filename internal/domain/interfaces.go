package domain

import "context"

// Source is the capability set every catalog backend provides.
// The backend is chosen once from configuration, never per call.
type Source interface {
	// Search returns one page of tiles whose title matches query
	Search(ctx context.Context, query string, page int) (PagedTiles, error)

	// ItemDetail returns the full metadata record of an item
	ItemDetail(ctx context.Context, itemID string) (*ItemDetail, error)

	// Chapters returns the chapters of an item, newest first
	Chapters(ctx context.Context, itemID string) ([]Chapter, error)
}

// SectionSink receives homepage sections. It is called at least twice per
// section; the last call for a section id is its settled state.
type SectionSink func(Section)

// UpdateSink receives cumulative update batches during a scan
type UpdateSink func(UpdateBatch)

// MirrorStore persists the local view of the catalog
type MirrorStore interface {
	GetTiles() ([]Tile, bool)
	SaveTiles(tiles []Tile) error

	GetDetail(itemID string) (*ItemDetail, bool)
	SaveDetail(detail *ItemDetail) error
	InvalidateDetail(itemID string)

	LastSync() (int64, bool)
	SaveLastSync(ts int64) error

	InvalidateAll()
	Close() error
}

// HomeOptions toggles the optional homepage sections
type HomeOptions struct {
	ShowOnDeck          bool
	ShowContinueReading bool
}

// Settings is the read side of the settings store.
// A missing base URL is a valid state, reported through ok.
type Settings interface {
	APIBaseURL() (url string, ok bool)
	HomeOptions() HomeOptions
}
