package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/mmcdole/komsync/internal/domain"
	"github.com/mmcdole/komsync/internal/listing"
)

const apiBase = "http://komga.local/api/v1"

type fakeSettings struct {
	base string
	opts domain.HomeOptions
}

func (s fakeSettings) APIBaseURL() (string, bool)      { return s.base, s.base != "" }
func (s fakeSettings) HomeOptions() domain.HomeOptions { return s.opts }

func configured() fakeSettings {
	return fakeSettings{base: apiBase, opts: domain.HomeOptions{ShowOnDeck: true, ShowContinueReading: true}}
}

// page builds a listing page from record bodies
func page(records ...string) listing.PageEnvelope {
	env, err := listing.DecodePage(`{"content":[` + strings.Join(records, ",") + `]}`)
	if err != nil {
		panic(err)
	}
	return env
}

func series(id, title, modified string) string {
	return fmt.Sprintf(`{"id":%q,"metadata":{"title":%q,"lastModified":%q}}`, id, title, modified)
}

// listingPage shortens test tables
type listingPage = listing.PageEnvelope

type call struct {
	url  string
	page int
	size int
}

// fakeFetcher serves pages per listing URL. A listing URL with a gate blocks
// until the gate is closed.
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string][]listing.PageEnvelope
	errs  map[string]error
	gates map[string]chan struct{}
	calls []call
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		pages: make(map[string][]listing.PageEnvelope),
		errs:  make(map[string]error),
		gates: make(map[string]chan struct{}),
	}
}

func (f *fakeFetcher) FetchPage(ctx context.Context, ep listing.Endpoint, pageNum, size int) (listing.PageEnvelope, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{url: ep.URL, page: pageNum, size: size})
	gate := f.gates[ep.URL]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return listing.PageEnvelope{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.errs[ep.URL]; err != nil {
		return listing.PageEnvelope{}, err
	}
	pages := f.pages[ep.URL]
	if pageNum >= len(pages) {
		return page(), nil
	}
	env := pages[pageNum]
	env.Page = pageNum
	return env, nil
}

func (f *fakeFetcher) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

type fakeSource struct {
	mu      sync.Mutex
	details map[string]*domain.ItemDetail
	hits    int
}

func (s *fakeSource) Search(ctx context.Context, query string, pageNum int) (domain.PagedTiles, error) {
	return domain.PagedTiles{}, nil
}

func (s *fakeSource) ItemDetail(ctx context.Context, itemID string) (*domain.ItemDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits++
	detail, ok := s.details[itemID]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	return detail, nil
}

func (s *fakeSource) Chapters(ctx context.Context, itemID string) ([]domain.Chapter, error) {
	return nil, nil
}

// failingAfter serves the first pages from the embedded fetcher, then fails
type failingAfter struct {
	*fakeFetcher
	after int
}

func (f *failingAfter) FetchPage(ctx context.Context, ep listing.Endpoint, pageNum, size int) (listing.PageEnvelope, error) {
	if pageNum >= f.after {
		return listing.PageEnvelope{}, fmt.Errorf("%w: connection reset", domain.ErrTransport)
	}
	return f.fakeFetcher.FetchPage(ctx, ep, pageNum, size)
}
