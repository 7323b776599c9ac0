package mediaserver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mmcdole/komsync/internal/domain"
	"github.com/mmcdole/komsync/internal/listing"
	"github.com/mmcdole/komsync/internal/transport"
)

// DetectKomga probes a server URL to check it is a Komga server.
// /api/v1/claim answers without credentials and reports whether the server
// has an admin account.
func DetectKomga(ctx context.Context, t transport.Transport, serverURL string) error {
	// Normalize URL (remove trailing slash)
	serverURL = strings.TrimRight(serverURL, "/")
	if serverURL == "" {
		return domain.ErrConfigurationMissing
	}

	resp, err := t.Schedule(ctx, transport.Request{URL: serverURL + "/api/v1/claim"})
	if err != nil {
		return fmt.Errorf("could not reach %s: %w", serverURL, err)
	}

	body, err := listing.Decode(resp.Data)
	if err != nil {
		return fmt.Errorf("not a Komga server: %w", err)
	}

	claimed := body.Get("isClaimed")
	if !claimed.Exists() {
		return errors.New("not a Komga server")
	}
	if !claimed.Bool() {
		return errors.New("Komga server has no account yet")
	}
	return nil
}
