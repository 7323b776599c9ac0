package listing

import (
	"context"
	"errors"

	"github.com/tidwall/gjson"
)

// ErrStopPaging can be returned by a PageFunc to end ForEachPage early
// without an error.
var ErrStopPaging = errors.New("stop paging")

// PageFunc is called once per fetched page, in page order
type PageFunc func(page PageEnvelope) error

// ProgressFunc reports pagination progress: (40, 120), (80, 120), ...
// total is -1 when the source gives no hint.
type ProgressFunc func(loaded, total int)

// ForEachPage fetches pages 0, 1, 2, ... one at a time and hands each to fn.
// It stops right after the first page without records. There is no page cap:
// callers that need a bound stop through fn. Errors from the fetcher or fn
// are returned as is; pages already handed to fn stay delivered.
func ForEachPage(ctx context.Context, f PageFetcher, ep Endpoint, size int, fn PageFunc) error {
	for page := 0; ; page++ {
		env, err := f.FetchPage(ctx, ep, page, size)
		if err != nil {
			return err
		}

		if err := fn(env); err != nil {
			if errors.Is(err, ErrStopPaging) {
				return nil
			}
			return err
		}

		if env.IsLastPage {
			return nil
		}
	}
}

// CollectAll exhausts a listing and returns every record in order
func CollectAll(ctx context.Context, f PageFetcher, ep Endpoint, size int, onProgress ProgressFunc) ([]gjson.Result, error) {
	var all []gjson.Result

	err := ForEachPage(ctx, f, ep, size, func(page PageEnvelope) error {
		all = append(all, page.Records...)
		if onProgress != nil {
			onProgress(len(all), page.Total)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return all, nil
}
