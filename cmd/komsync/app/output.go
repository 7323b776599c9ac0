package app

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/mmcdole/komsync/internal/domain"
)

func printJSON(w io.Writer, v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("error formatting output as JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(output))
	return err
}

func printTiles(w io.Writer, tiles []domain.Tile) {
	for _, tile := range tiles {
		if tile.Subtitle != "" {
			fmt.Fprintf(w, "%s\t%s (%s)\n", tile.ID, tile.Title, tile.Subtitle)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\n", tile.ID, tile.Title)
	}
}

func printPaged(w io.Writer, paged domain.PagedTiles) {
	printTiles(w, paged.Tiles)
	if paged.NextPage != nil {
		fmt.Fprintf(w, "-- more: --page %d\n", *paged.NextPage)
	}
}

func printJSONLine(w io.Writer, v any) error {
	output, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("error formatting output as JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(output))
	return err
}
