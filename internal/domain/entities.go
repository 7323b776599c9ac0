package domain

import "time"

// Status is the publication status of an item
type Status int

const (
	StatusOngoing Status = iota
	StatusCompleted
)

// String returns the display name of the status
func (s Status) String() string {
	if s == StatusCompleted {
		return "completed"
	}
	return "ongoing"
}

// ParseStatus maps a remote status code to a Status.
// Every code maps somewhere: unknown codes are ongoing.
func ParseStatus(code string) Status {
	switch code {
	case "ENDED":
		return StatusCompleted
	case "ONGOING", "ABANDONED", "HIATUS":
		return StatusOngoing
	}
	return StatusOngoing
}

// Tile is the summary record shown in browsing grids
type Tile struct {
	ID        string `json:"id"`                 // Stable identity, reused for details and chapters
	Title     string `json:"title"`              // Display title
	Subtitle  string `json:"subtitle,omitempty"` // Secondary line (placeholders only)
	Thumbnail string `json:"thumbnail"`          // Thumbnail URL
}

// ItemDetail is the full metadata record of one item
type ItemDetail struct {
	ID         string    `json:"id"`
	Titles     []string  `json:"titles"`
	Thumbnail  string    `json:"thumbnail"`
	Status     Status    `json:"status"`
	Author     string    `json:"author,omitempty"`
	Artist     string    `json:"artist,omitempty"`
	Summary    string    `json:"summary,omitempty"`
	Tags       []string  `json:"tags,omitempty"`
	LastUpdate time.Time `json:"last_update,omitzero"`
}

// Chapter is one chapter of an item.
// Number is positional: the newest chapter gets the highest number.
type Chapter struct {
	ID      string `json:"id"`
	ItemID  string `json:"item_id"`
	Number  int    `json:"number"`
	Name    string `json:"name"`
	SortKey int    `json:"sort_key"`
}

// ChapterDetails lists the page image URLs of a chapter
type ChapterDetails struct {
	ID        string   `json:"id"`
	ItemID    string   `json:"item_id"`
	Pages     []string `json:"pages"`
	LongStrip bool     `json:"long_strip"`
}

// SectionKind identifies one homepage section
type SectionKind string

const (
	SectionOnDeck   SectionKind = "ondeck"
	SectionContinue SectionKind = "continue"
	SectionNew      SectionKind = "new"
	SectionUpdated  SectionKind = "updated"
)

// Section is a homepage row. It is emitted empty first and populated later.
type Section struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	ViewMore bool   `json:"view_more"`
	Items    []Tile `json:"items"`
}

// UpdateBatch carries the known ids found changed so far in an update scan
type UpdateBatch struct {
	IDs []string `json:"ids"`
}

// PagedTiles is one page of a browsable listing.
// NextPage is nil once a page comes back empty.
type PagedTiles struct {
	Tiles    []Tile `json:"tiles"`
	NextPage *int   `json:"next_page,omitempty"`
}
