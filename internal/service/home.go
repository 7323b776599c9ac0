package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mmcdole/komsync/internal/domain"
	"github.com/mmcdole/komsync/internal/listing"
	"github.com/mmcdole/komsync/internal/mediaserver/komga"
)

const (
	// UnsetSectionID is the id of the placeholder section shown while no
	// server is configured
	UnsetSectionID    = "unset"
	unsetSectionTitle = "Go to source settings to set your Komga server credentials."
)

// HomeService builds the homepage sections and their view-more pages
type HomeService struct {
	settings domain.Settings
	fetcher  listing.PageFetcher
	logger   *slog.Logger
}

// NewHomeService creates a new homepage service
func NewHomeService(settings domain.Settings, fetcher listing.PageFetcher, logger *slog.Logger) *HomeService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HomeService{settings: settings, fetcher: fetcher, logger: logger}
}

// SectionKinds returns the sections to build, in display order
func (s *HomeService) SectionKinds() []domain.SectionKind {
	opts := s.settings.HomeOptions()

	var kinds []domain.SectionKind
	if opts.ShowOnDeck {
		kinds = append(kinds, domain.SectionOnDeck)
	}
	if opts.ShowContinueReading {
		kinds = append(kinds, domain.SectionContinue)
	}
	return append(kinds, domain.SectionNew, domain.SectionUpdated)
}

// BuildSections delivers every homepage section to sink, first empty and then
// populated. All empty deliveries happen before any populated one; populated
// deliveries arrive in whatever order the fetches finish. A section whose
// fetch fails is logged and delivered empty. Calls to sink are never
// concurrent, and each one receives a snapshot.
//
// BuildSections never fails because the server is unset or unreachable: with
// no server configured it delivers a single placeholder section instead.
func (s *HomeService) BuildSections(ctx context.Context, sink domain.SectionSink) error {
	apiBase, ok := s.settings.APIBaseURL()
	if !ok {
		s.logger.Info("server settings are unset, showing placeholder section")
		sink(domain.Section{
			ID:    UnsetSectionID,
			Title: unsetSectionTitle,
			Items: domain.PlaceholderTiles(),
		})
		return nil
	}

	var mu sync.Mutex
	emit := func(section domain.Section) {
		mu.Lock()
		defer mu.Unlock()
		sink(section)
	}

	kinds := s.SectionKinds()
	sections := make([]*domain.Section, len(kinds))
	for i, kind := range kinds {
		spec := komga.Sections[kind]
		sections[i] = &domain.Section{
			ID:       string(kind),
			Title:    spec.Title,
			ViewMore: spec.ViewMore,
			Items:    []domain.Tile{},
		}
		// Let the caller render empty sections right away
		emit(*sections[i])
	}

	// Each goroutine owns exactly one section
	var g errgroup.Group
	for i, kind := range kinds {
		section := sections[i]
		g.Go(func() error {
			tiles, err := s.fetchSection(ctx, apiBase, kind)
			if err != nil {
				s.logger.Warn("failed to load section", "section", kind, "error", err)
			} else {
				section.Items = tiles
			}
			emit(*section)
			return nil
		})
	}

	return g.Wait()
}

func (s *HomeService) fetchSection(ctx context.Context, apiBase string, kind domain.SectionKind) ([]domain.Tile, error) {
	ep, err := komga.SectionEndpoint(apiBase, kind)
	if err != nil {
		return nil, err
	}

	env, err := s.fetcher.FetchPage(ctx, ep, 0, komga.SectionPageSize)
	if err != nil {
		return nil, err
	}

	tiles := komga.MapTiles(env.Records, ep.IDField, ep.ThumbBase, s.logger)
	s.logger.Debug("loaded section", "section", kind, "count", len(tiles))
	return tiles, nil
}

// ViewMore returns one page of a section that allows browsing past the
// homepage row
func (s *HomeService) ViewMore(ctx context.Context, kind domain.SectionKind, page int) (domain.PagedTiles, error) {
	apiBase, ok := s.settings.APIBaseURL()
	if !ok {
		return domain.PagedTiles{}, domain.ErrConfigurationMissing
	}

	spec, ok := komga.Sections[kind]
	if !ok || !spec.ViewMore {
		return domain.PagedTiles{}, fmt.Errorf("section %q has no view more", kind)
	}

	ep, err := komga.SectionEndpoint(apiBase, kind)
	if err != nil {
		return domain.PagedTiles{}, err
	}

	env, err := s.fetcher.FetchPage(ctx, ep, page, komga.PageSize)
	if err != nil {
		s.logger.Error("failed to load view more page", "section", kind, "page", page, "error", err)
		return domain.PagedTiles{}, err
	}

	return komga.PagedTiles(env, ep, s.logger), nil
}
