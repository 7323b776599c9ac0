package mediaserver_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/komsync/internal/config"
	"github.com/mmcdole/komsync/internal/domain"
	"github.com/mmcdole/komsync/internal/log"
	"github.com/mmcdole/komsync/internal/mediaserver"
	"github.com/mmcdole/komsync/internal/mediaserver/komga"
	"github.com/mmcdole/komsync/internal/mediaserver/scrape"
	"github.com/mmcdole/komsync/internal/transport"
)

func respond(body string) transport.Transport {
	return transport.Func(func(context.Context, transport.Request) (*transport.Response, error) {
		return &transport.Response{Status: 200, Data: body}, nil
	})
}

func TestNewSource(t *testing.T) {
	t.Parallel()

	settings, err := config.Load(t.TempDir())
	require.NoError(t, err)

	cfg := config.DefaultConfig()
	src, err := mediaserver.NewSource(cfg, settings, respond(""), log.NullLogger())
	require.NoError(t, err)
	assert.IsType(t, &komga.Client{}, src)

	cfg.Server.Type = config.SourceTypeScrape
	src, err = mediaserver.NewSource(cfg, settings, respond(""), log.NullLogger())
	require.NoError(t, err)
	assert.IsType(t, &scrape.Client{}, src)

	cfg.Scrape.URL = ""
	_, err = mediaserver.NewSource(cfg, settings, respond(""), log.NullLogger())
	assert.Error(t, err)

	cfg.Server.Type = "plex"
	_, err = mediaserver.NewSource(cfg, settings, respond(""), log.NullLogger())
	assert.Error(t, err)

	_, err = mediaserver.NewSource(nil, settings, respond(""), log.NullLogger())
	assert.Error(t, err)
}

func TestDetectKomga(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	assert.NoError(t, mediaserver.DetectKomga(ctx, respond(`{"isClaimed":true}`), "http://komga:25600/"))
	assert.Error(t, mediaserver.DetectKomga(ctx, respond(`{"isClaimed":false}`), "http://komga:25600"))
	assert.Error(t, mediaserver.DetectKomga(ctx, respond(`{"status":"ok"}`), "http://komga:25600"))
	assert.Error(t, mediaserver.DetectKomga(ctx, respond(`<html></html>`), "http://komga:25600"))
	assert.ErrorIs(t, mediaserver.DetectKomga(ctx, respond(""), ""), domain.ErrConfigurationMissing)

	offline := transport.Func(func(context.Context, transport.Request) (*transport.Response, error) {
		return nil, domain.ErrServerOffline
	})
	assert.ErrorIs(t, mediaserver.DetectKomga(ctx, offline, "http://komga:25600"), domain.ErrServerOffline)
}
