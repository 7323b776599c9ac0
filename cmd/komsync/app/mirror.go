package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmcdole/komsync/internal/domain"
)

func newSyncCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Mirror every series of the server locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mirror, closeMirror, err := e.mirror()
			if err != nil {
				return err
			}
			defer closeMirror()

			out := cmd.ErrOrStderr()
			tiles, err := mirror.Sync(cmd.Context(), func(loaded, total int) {
				if total >= 0 {
					fmt.Fprintf(out, "\rSyncing... %d/%d", loaded, total)
				} else {
					fmt.Fprintf(out, "\rSyncing... %d", loaded)
				}
			})
			fmt.Fprint(out, clearLine)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Mirrored %d series\n", len(tiles))
			return nil
		},
	}
}

func newUpdatesCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "updates",
		Short: "List mirrored series updated since the last sync",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mirror, closeMirror, err := e.mirror()
			if err != nil {
				return err
			}
			defer closeMirror()

			// Batches are cumulative, so only the last one needs printing
			var latest domain.UpdateBatch
			err = mirror.Updates(cmd.Context(), func(batch domain.UpdateBatch) {
				latest = batch
				e.logger.Debug("update batch", "count", len(batch.IDs))
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(latest.IDs) == 0 {
				fmt.Fprintln(out, "No updates")
				return nil
			}
			for _, id := range latest.IDs {
				fmt.Fprintln(out, id)
			}
			return nil
		},
	}
}
