// Package app wires the komsync command tree.
package app

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mmcdole/komsync/internal/config"
	"github.com/mmcdole/komsync/internal/domain"
	"github.com/mmcdole/komsync/internal/listing"
	"github.com/mmcdole/komsync/internal/log"
	"github.com/mmcdole/komsync/internal/mediaserver"
	"github.com/mmcdole/komsync/internal/service"
	"github.com/mmcdole/komsync/internal/store"
	"github.com/mmcdole/komsync/internal/transport"
)

// env holds everything a command needs, built once per invocation
type env struct {
	settings  *config.Store
	cfg       *config.Config
	logger    *slog.Logger
	transport *transport.HTTPTransport
	fetcher   *listing.Fetcher
}

// NewRootCmd creates the komsync command tree
func NewRootCmd(version string) *cobra.Command {
	var configDir string
	e := &env{}

	root := &cobra.Command{
		Use:           "komsync",
		Short:         "Mirror a Komga library into a local, normalized view",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := e.load(configDir); err != nil {
				return err
			}
			e.logger.Info("starting komsync", "version", version, "command", cmd.Name())
			return nil
		},
	}
	root.SetVersionTemplate("komsync {{.Version}}\n")
	root.PersistentFlags().StringVar(&configDir, "config", "", "config directory (default "+config.DefaultConfigPath()+")")

	root.AddCommand(
		newHomeCmd(e),
		newMoreCmd(e),
		newUpdatesCmd(e),
		newSyncCmd(e),
		newSearchCmd(e),
		newDetailsCmd(e),
		newChaptersCmd(e),
		newPagesCmd(e),
		newConfigCmd(e),
	)

	return root
}

func (e *env) load(configDir string) error {
	settings, err := config.Load(configDir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg, err := settings.Config()
	if err != nil {
		return err
	}

	logger, err := log.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = log.NullLogger()
	}
	slog.SetDefault(logger)

	e.settings = settings
	e.cfg = cfg
	e.logger = logger
	e.transport = transport.NewHTTPTransport(transport.Options{
		RequestsPerSecond: cfg.Transport.RequestsPerSecond,
		Timeout:           cfg.Transport.Timeout,
		MaxRetries:        cfg.Transport.MaxRetries,
		Username:          cfg.Server.Username,
		Password:          cfg.Server.Password,
	}, logger)
	e.fetcher = listing.NewFetcher(e.transport, logger)
	return nil
}

func (e *env) source() (domain.Source, error) {
	return mediaserver.NewSource(e.cfg, e.settings, e.transport, e.logger)
}

func (e *env) mirror() (*service.MirrorService, func() error, error) {
	// The mirror is keyed by server URL
	if !e.cfg.IsConfigured() {
		return nil, nil, fmt.Errorf("%w: run 'komsync config set server.url <url>' first", domain.ErrConfigurationMissing)
	}
	source, err := e.source()
	if err != nil {
		return nil, nil, err
	}
	st, err := store.NewMirrorStore(e.cfg.Cache.Dir, e.cfg.Server.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open mirror: %w", err)
	}
	return service.NewMirrorService(e.settings, e.fetcher, source, st, e.logger), st.Close, nil
}
