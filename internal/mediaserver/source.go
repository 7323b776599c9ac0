package mediaserver

import (
	"fmt"
	"log/slog"

	"github.com/mmcdole/komsync/internal/config"
	"github.com/mmcdole/komsync/internal/domain"
	"github.com/mmcdole/komsync/internal/mediaserver/komga"
	"github.com/mmcdole/komsync/internal/mediaserver/scrape"
	"github.com/mmcdole/komsync/internal/transport"
)

// NewSource creates the domain.Source selected by the server type.
// This factory function abstracts away the specific backend implementation.
func NewSource(cfg *config.Config, settings domain.Settings, t transport.Transport, logger *slog.Logger) (domain.Source, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	switch cfg.Server.Type {
	case config.SourceTypeKomga, "":
		return komga.NewClient(t, settings, logger), nil

	case config.SourceTypeScrape:
		if cfg.Scrape.URL == "" {
			return nil, fmt.Errorf("scrape source requires scrape.url")
		}
		return scrape.NewClient(cfg.Scrape.URL, t, logger), nil

	default:
		return nil, fmt.Errorf("unknown server type: %s", cfg.Server.Type)
	}
}
