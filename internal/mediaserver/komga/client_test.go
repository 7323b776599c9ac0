package komga_test

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/komsync/internal/domain"
	"github.com/mmcdole/komsync/internal/log"
	"github.com/mmcdole/komsync/internal/mediaserver/komga"
	"github.com/mmcdole/komsync/internal/transport"
)

const apiBase = "http://komga.local/api/v1"

type staticSettings struct {
	base string
}

func (s staticSettings) APIBaseURL() (string, bool) { return s.base, s.base != "" }
func (s staticSettings) HomeOptions() domain.HomeOptions {
	return domain.HomeOptions{ShowOnDeck: true, ShowContinueReading: true}
}

// routes answers requests by URL path; unknown paths are a 404
type routes map[string]string

func (r routes) transport(calls *[]transport.Request) transport.Transport {
	return transport.Func(func(_ context.Context, req transport.Request) (*transport.Response, error) {
		*calls = append(*calls, req)
		body, ok := r[req.URL]
		if !ok {
			return nil, domain.ErrItemNotFound
		}
		return &transport.Response{Status: 200, Data: body}, nil
	})
}

func TestClient_RequiresConfiguration(t *testing.T) {
	t.Parallel()

	var calls []transport.Request
	client := komga.NewClient(routes{}.transport(&calls), staticSettings{}, log.NullLogger())
	ctx := context.Background()

	_, err := client.Search(ctx, "x", 0)
	assert.ErrorIs(t, err, domain.ErrConfigurationMissing)
	_, err = client.ItemDetail(ctx, "S1")
	assert.ErrorIs(t, err, domain.ErrConfigurationMissing)
	_, err = client.Chapters(ctx, "S1")
	assert.ErrorIs(t, err, domain.ErrConfigurationMissing)
	assert.ErrorIs(t, client.Ping(ctx), domain.ErrConfigurationMissing)
	assert.Empty(t, calls)
}

func TestClient_Search(t *testing.T) {
	t.Parallel()

	var calls []transport.Request
	client := komga.NewClient(routes{
		apiBase + "/series": `{"content":[{"id":"S1","metadata":{"title":"Blame!"}}],"totalElements":1}`,
	}.transport(&calls), staticSettings{base: apiBase}, log.NullLogger())

	result, err := client.Search(context.Background(), "blame", 0)
	require.NoError(t, err)

	require.Len(t, result.Tiles, 1)
	assert.Equal(t, "S1", result.Tiles[0].ID)
	require.NotNil(t, result.NextPage)
	assert.Equal(t, 1, *result.NextPage)

	require.Len(t, calls, 1)
	assert.Equal(t, "blame", calls[0].Query.Get("search"))
	assert.Equal(t, "40", calls[0].Query.Get("size"))
}

func TestClient_DetailAndChapters(t *testing.T) {
	t.Parallel()

	var calls []transport.Request
	client := komga.NewClient(routes{
		apiBase + "/series/S1":       `{"id":"S1","metadata":{"title":"Blame!","status":"HIATUS","readingDirection":"WEBTOON"}}`,
		apiBase + "/series/S1/books": `{"content":[{"id":"b2","metadata":{"title":"Vol. 2"}},{"id":"b1","metadata":{"title":"Vol. 1"}}]}`,
		apiBase + "/books/b2/pages":  `[{"number":1,"mediaType":"image/png"},{"number":2,"mediaType":"image/heic"}]`,
	}.transport(&calls), staticSettings{base: apiBase}, log.NullLogger())
	ctx := context.Background()

	detail, err := client.ItemDetail(ctx, "S1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Blame!"}, detail.Titles)
	assert.Equal(t, domain.StatusOngoing, detail.Status)

	chapters, err := client.Chapters(ctx, "S1")
	require.NoError(t, err)
	require.Len(t, chapters, 2)
	assert.Equal(t, "b2", chapters[0].ID)
	assert.Equal(t, 2, chapters[0].Number)
	assert.Equal(t, url.Values{
		"unpaged":      {"true"},
		"media_status": {"READY"},
		"deleted":      {"false"},
		"sort":         {"metadata.numberSort,desc"},
	}, calls[1].Query)

	pages, err := client.ChapterDetails(ctx, "S1", "b2")
	require.NoError(t, err)
	assert.True(t, pages.LongStrip)
	assert.Equal(t, []string{
		apiBase + "/books/b2/pages/1",
		apiBase + "/books/b2/pages/2?convert=png",
	}, pages.Pages)

	_, err = client.ItemDetail(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
}

func TestSectionEndpoint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind      domain.SectionKind
		url       string
		idField   string
		thumbBase string
	}{
		{domain.SectionOnDeck, apiBase + "/books/ondeck", "seriesId", apiBase + "/books"},
		{domain.SectionContinue, apiBase + "/books", "seriesId", apiBase + "/books"},
		{domain.SectionNew, apiBase + "/series/new", "id", apiBase + "/series"},
		{domain.SectionUpdated, apiBase + "/series/updated", "id", apiBase + "/series"},
	}

	for _, tt := range tests {
		ep, err := komga.SectionEndpoint(apiBase, tt.kind)
		require.NoError(t, err, tt.kind)
		assert.Equal(t, tt.url, ep.URL, tt.kind)
		assert.Equal(t, tt.idField, ep.IDField, tt.kind)
		assert.Equal(t, tt.thumbBase, ep.ThumbBase, tt.kind)
		assert.Equal(t, "false", ep.Query.Get("deleted"), tt.kind)
	}

	continueEp, _ := komga.SectionEndpoint(apiBase, domain.SectionContinue)
	assert.Equal(t, "IN_PROGRESS", continueEp.Query.Get("read_status"))

	_, err := komga.SectionEndpoint(apiBase, "bogus")
	assert.Error(t, err)
}
