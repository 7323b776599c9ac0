package app

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/mmcdole/komsync/internal/domain"
	"github.com/mmcdole/komsync/internal/service"
	"github.com/mmcdole/komsync/internal/tui"
)

func newHomeCmd(e *env) *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "home",
		Short: "Show the homepage sections",
		Long: `Show the homepage sections. Every section appears empty first and fills in
as its request completes. With --plain, each delivery is printed as one JSON line.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			home := service.NewHomeService(e.settings, e.fetcher, e.logger)

			if plain {
				out := cmd.OutOrStdout()
				var printErr error
				err := home.BuildSections(cmd.Context(), func(s domain.Section) {
					if err := printJSONLine(out, s); err != nil && printErr == nil {
						printErr = err
					}
				})
				if err != nil {
					return err
				}
				return printErr
			}

			p := tea.NewProgram(tui.NewHomeModel(home), tea.WithAltScreen())
			e.logger.Info("starting TUI")
			if _, err := p.Run(); err != nil {
				e.logger.Error("TUI error", "error", err)
				return fmt.Errorf("TUI error: %w", err)
			}
			e.logger.Info("shutting down")
			return nil
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "print sections as JSON lines instead of the interactive view")

	return cmd
}

func newMoreCmd(e *env) *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:       "more <new|updated>",
		Short:     "Browse a homepage section past its first row",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(domain.SectionNew), string(domain.SectionUpdated)},
		RunE: func(cmd *cobra.Command, args []string) error {
			home := service.NewHomeService(e.settings, e.fetcher, e.logger)
			paged, err := home.ViewMore(cmd.Context(), domain.SectionKind(args[0]), page)
			if err != nil {
				return err
			}
			printPaged(cmd.OutOrStdout(), paged)
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 0, "page to fetch")

	return cmd
}
