// Package search matches queries against mirrored titles offline.
package search

import (
	"strings"
	"sync"

	lfuzzy "github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/sahilm/fuzzy"

	"github.com/mmcdole/komsync/internal/domain"
)

// Result is a matched tile with match metadata for highlighting
type Result struct {
	Tile           domain.Tile
	MatchedIndexes []int // Character positions that matched, nil for alias matches
	Score          int
}

// TileIndex implements sahilm/fuzzy.Source over tile titles
type TileIndex struct {
	mu          sync.RWMutex
	tiles       []domain.Tile
	lowerTitles []string            // Pre-computed lowercase titles
	aliases     map[string][]string // item id -> alternate titles
	seen        map[string]bool
}

// NewTileIndex creates an empty index
func NewTileIndex() *TileIndex {
	return &TileIndex{
		aliases: make(map[string][]string),
		seen:    make(map[string]bool),
	}
}

// String returns the lowercase title at index i (implements fuzzy.Source)
func (idx *TileIndex) String(i int) string { return idx.lowerTitles[i] }

// Len returns the number of tiles (implements fuzzy.Source)
func (idx *TileIndex) Len() int { return len(idx.tiles) }

// Count returns the number of indexed tiles
func (idx *TileIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.tiles)
}

// Add indexes tiles, skipping ids that are already present. It returns the
// number of tiles added.
func (idx *TileIndex) Add(tiles []domain.Tile) int {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.add(tiles)
}

// Reset replaces the indexed tiles. Aliases are kept only for items that
// are still indexed.
func (idx *TileIndex) Reset(tiles []domain.Tile) int {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.tiles = nil
	idx.lowerTitles = nil
	idx.seen = make(map[string]bool)
	added := idx.add(tiles)

	for id := range idx.aliases {
		if !idx.seen[id] {
			delete(idx.aliases, id)
		}
	}
	return added
}

func (idx *TileIndex) add(tiles []domain.Tile) int {
	added := 0
	for _, tile := range tiles {
		if tile.ID == "" || idx.seen[tile.ID] {
			continue
		}
		idx.seen[tile.ID] = true
		idx.tiles = append(idx.tiles, tile)
		idx.lowerTitles = append(idx.lowerTitles, strings.ToLower(tile.Title))
		added++
	}
	return added
}

// AddAliases records alternate titles of an indexed item
func (idx *TileIndex) AddAliases(itemID string, titles []string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.aliases[itemID] = append([]string(nil), titles...)
}

// Find ranks indexed tiles against query, best first. Tiles whose display
// title does not match but one of whose alternate titles contains the query
// (ignoring case and accents) are appended after the ranked matches.
func (idx *TileIndex) Find(query string) []Result {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if query == "" || len(idx.tiles) == 0 {
		return nil
	}

	matches := fuzzy.FindFrom(strings.ToLower(query), idx)

	results := make([]Result, 0, len(matches))
	matched := make(map[int]bool, len(matches))
	for _, m := range matches {
		matched[m.Index] = true
		results = append(results, Result{
			Tile:           idx.tiles[m.Index],
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		})
	}

	for i, tile := range idx.tiles {
		if matched[i] {
			continue
		}
		if aliases := idx.aliases[tile.ID]; len(aliases) > 0 && matchesAny(query, aliases) {
			results = append(results, Result{Tile: tile})
		}
	}

	return results
}

// matchesAny reports whether query fuzzily matches any title, folding case
// and diacritics ("Shingeki" matches "Shingéki no Kyojin")
func matchesAny(query string, titles []string) bool {
	return len(lfuzzy.FindNormalizedFold(query, titles)) > 0
}
