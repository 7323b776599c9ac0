package domain

// PlaceholderID is the id carried by every placeholder tile
const PlaceholderID = "placeholder-id"

// PlaceholderTiles returns the fixed tile set shown in place of real content
// when the server is unset or unreachable.
func PlaceholderTiles() []Tile {
	return []Tile{
		{
			ID:       PlaceholderID,
			Title:    "Server",
			Subtitle: "unavailable",
		},
	}
}
