package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmcdole/komsync/internal/mediaserver/komga"
	"github.com/mmcdole/komsync/internal/tui/styles"
)

func newSearchCmd(e *env) *cobra.Command {
	var page int
	var local bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the configured source, or the local mirror with --local",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if local {
				mirror, closeMirror, err := e.mirror()
				if err != nil {
					return err
				}
				defer closeMirror()

				results := mirror.SearchLocal(args[0])
				if len(results) == 0 {
					fmt.Fprintln(out, "No matches in the local mirror. Run komsync sync first if it is empty.")
					return nil
				}
				for _, r := range results {
					fmt.Fprintf(out, "%s\t%s\n", r.Tile.ID, styles.HighlightMatches(r.Tile.Title, r.MatchedIndexes))
				}
				return nil
			}

			source, err := e.source()
			if err != nil {
				return err
			}
			paged, err := source.Search(cmd.Context(), args[0], page)
			if err != nil {
				return err
			}
			printPaged(out, paged)
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 0, "page to fetch")
	cmd.Flags().BoolVar(&local, "local", false, "search the local mirror without network access")

	return cmd
}

func newDetailsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "details <item-id>",
		Short: "Print the metadata of an item, cached in the local mirror",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mirror, closeMirror, err := e.mirror()
			if err != nil {
				return err
			}
			defer closeMirror()

			detail, err := mirror.ItemDetail(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), detail)
		},
	}
}

func newChaptersCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "chapters <item-id>",
		Short: "List the chapters of an item, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := e.source()
			if err != nil {
				return err
			}
			chapters, err := source.Chapters(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, ch := range chapters {
				fmt.Fprintf(out, "%d\t%s\t%s\n", ch.Number, ch.ID, ch.Name)
			}
			return nil
		},
	}
}

func newPagesCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "pages <item-id> <chapter-id>",
		Short: "Print the page image URLs of a Komga chapter",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := komga.NewClient(e.transport, e.settings, e.logger)
			details, err := client.ChapterDetails(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), details)
		},
	}
}
