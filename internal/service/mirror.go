package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mmcdole/komsync/internal/domain"
	"github.com/mmcdole/komsync/internal/listing"
	"github.com/mmcdole/komsync/internal/mediaserver/komga"
	"github.com/mmcdole/komsync/internal/search"
)

// ErrNeverSynced is returned by Updates before the first full sync
var ErrNeverSynced = errors.New("mirror has never been synced")

// MirrorService keeps the local mirror of the catalog up to date
type MirrorService struct {
	settings domain.Settings
	fetcher  listing.PageFetcher
	source   domain.Source
	store    domain.MirrorStore
	scanner  *UpdateScanner
	index    *search.TileIndex
	logger   *slog.Logger

	now func() time.Time
}

// NewMirrorService creates a new mirror service
func NewMirrorService(
	settings domain.Settings,
	fetcher listing.PageFetcher,
	source domain.Source,
	store domain.MirrorStore,
	logger *slog.Logger,
) *MirrorService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MirrorService{
		settings: settings,
		fetcher:  fetcher,
		source:   source,
		store:    store,
		scanner:  NewUpdateScanner(settings, fetcher, logger),
		index:    search.NewTileIndex(),
		logger:   logger,
		now:      time.Now,
	}
}

// Sync exhausts the series listing and replaces the mirrored tiles.
// The sync time is recorded only when every page was fetched.
func (s *MirrorService) Sync(ctx context.Context, onProgress listing.ProgressFunc) ([]domain.Tile, error) {
	apiBase, ok := s.settings.APIBaseURL()
	if !ok {
		return nil, domain.ErrConfigurationMissing
	}

	started := s.now()
	ep := komga.SeriesEndpoint(apiBase, "")

	records, err := listing.CollectAll(ctx, s.fetcher, ep, komga.PageSize, onProgress)
	if err != nil {
		s.logger.Error("mirror sync failed", "error", err)
		return nil, err
	}

	tiles := komga.MapTiles(records, ep.IDField, ep.ThumbBase, s.logger)
	if err := s.store.SaveTiles(tiles); err != nil {
		return nil, err
	}
	if err := s.store.SaveLastSync(started.Unix()); err != nil {
		return nil, err
	}
	s.index.Reset(tiles)

	s.logger.Info("mirror synced", "series", len(tiles), "records", len(records))
	return tiles, nil
}

// Updates scans for series changed since the last sync among the mirrored
// ones, drops their cached details, and forwards every batch to sink.
// The sync time advances only when the scan completes.
func (s *MirrorService) Updates(ctx context.Context, sink domain.UpdateSink) error {
	last, ok := s.store.LastSync()
	if !ok {
		return ErrNeverSynced
	}

	tiles, _ := s.store.GetTiles()
	known := make([]string, 0, len(tiles))
	for _, tile := range tiles {
		known = append(known, tile.ID)
	}

	started := s.now()
	err := s.scanner.ScanUpdates(ctx, time.Unix(last, 0), known, func(batch domain.UpdateBatch) {
		for _, id := range batch.IDs {
			s.store.InvalidateDetail(id)
		}
		sink(batch)
	})
	if err != nil {
		return err
	}

	return s.store.SaveLastSync(started.Unix())
}

// ItemDetail returns the mirrored detail of an item, fetching and storing it
// on a miss
func (s *MirrorService) ItemDetail(ctx context.Context, itemID string) (*domain.ItemDetail, error) {
	if detail, ok := s.store.GetDetail(itemID); ok {
		s.logger.Debug("detail cache hit", "id", itemID)
		return detail, nil
	}

	detail, err := s.source.ItemDetail(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if err := s.store.SaveDetail(detail); err != nil {
		s.logger.Warn("failed to store detail", "id", itemID, "error", err)
	}
	s.index.AddAliases(detail.ID, detail.Titles)

	return detail, nil
}

// SearchLocal fuzzy-matches the mirrored tiles without touching the network
func (s *MirrorService) SearchLocal(query string) []search.Result {
	if s.index.Count() == 0 {
		tiles, ok := s.store.GetTiles()
		if !ok {
			return nil
		}
		s.index.Add(tiles)
		for _, tile := range tiles {
			if detail, ok := s.store.GetDetail(tile.ID); ok {
				s.index.AddAliases(tile.ID, detail.Titles)
			}
		}
	}

	results := s.index.Find(query)
	s.logger.Debug("local search", "query", query, "results", len(results))
	return results
}
