package service

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/mmcdole/komsync/internal/domain"
	"github.com/mmcdole/komsync/internal/listing"
	"github.com/mmcdole/komsync/internal/mediaserver/komga"
)

// UpdateScanner finds which known series changed since a point in time
type UpdateScanner struct {
	settings domain.Settings
	fetcher  listing.PageFetcher
	logger   *slog.Logger
}

// NewUpdateScanner creates a new update scanner
func NewUpdateScanner(settings domain.Settings, fetcher listing.PageFetcher, logger *slog.Logger) *UpdateScanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &UpdateScanner{settings: settings, fetcher: fetcher, logger: logger}
}

// ScanUpdates walks the recently updated listing, newest first, collecting
// the ids in knownIDs whose modification time is at or after since. The walk
// ends at the first series older than since, or at the end of the listing.
//
// After every page, if anything was found, sink receives everything found so
// far. Errors end the scan and are returned; batches already delivered stand.
func (s *UpdateScanner) ScanUpdates(ctx context.Context, since time.Time, knownIDs []string, sink domain.UpdateSink) error {
	apiBase, ok := s.settings.APIBaseURL()
	if !ok {
		return domain.ErrConfigurationMissing
	}

	known := make(map[string]struct{}, len(knownIDs))
	for _, id := range knownIDs {
		known[id] = struct{}{}
	}

	var found []string
	ep := komga.UpdatedSeriesEndpoint(apiBase)

	err := listing.ForEachPage(ctx, s.fetcher, ep, komga.PageSize, func(page listing.PageEnvelope) error {
		crossed := false
		for _, rec := range page.Records {
			modified, err := komga.LastModified(rec)
			if err != nil {
				return err
			}
			// The listing is sorted newest first, so nothing past here qualifies
			if modified.Before(since) {
				crossed = true
				break
			}
			if _, ok := known[rec.Get("id").String()]; ok {
				found = append(found, rec.Get("id").String())
			}
		}

		if len(found) > 0 {
			sink(domain.UpdateBatch{IDs: slices.Clone(found)})
		}

		if crossed {
			s.logger.Debug("update scan crossed window", "page", page.Page, "since", since)
			return listing.ErrStopPaging
		}
		return nil
	})
	if err != nil {
		s.logger.Error("update scan failed", "error", err, "found", len(found))
		return err
	}

	s.logger.Info("update scan finished", "found", len(found), "since", since)
	return nil
}
