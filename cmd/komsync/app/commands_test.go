package app

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/komsync/internal/domain"
)

// newKomga serves a tiny Komga library
func newKomga(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	page := func(records ...string) string {
		return `{"content":[` + strings.Join(records, ",") + `]}`
	}
	series := func(id, title, modified string) string {
		return fmt.Sprintf(`{"id":%q,"metadata":{"title":%q,"lastModified":%q}}`, id, title, modified)
	}

	mux.HandleFunc("/api/v1/claim", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"isClaimed":true}`)
	})
	mux.HandleFunc("/api/v1/libraries", func(w http.ResponseWriter, r *http.Request) {
		if user, pass, ok := r.BasicAuth(); !ok || user != "reader" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `[]`)
	})
	listing := func(records ...string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("page") != "0" {
				fmt.Fprint(w, page())
				return
			}
			fmt.Fprint(w, page(records...))
		}
	}
	mux.HandleFunc("/api/v1/series/new", listing(series("s1", "Berserk", "2099-01-01T00:00:00Z")))
	mux.HandleFunc("/api/v1/series/updated", listing(series("s2", "Vagabond", "2099-01-01T00:00:00Z")))
	mux.HandleFunc("/api/v1/series", listing(
		series("s1", "Berserk", "2099-01-01T00:00:00Z"),
		series("s2", "Vagabond", "2099-01-01T00:00:00Z"),
	))

	server := httptest.NewServer(mux)
	server.Config.SetKeepAlivesEnabled(false)
	t.Cleanup(server.Close)
	return server
}

func configDir(t *testing.T, serverURL string) string {
	t.Helper()
	dir := t.TempDir()
	body := fmt.Sprintf(`
server:
  url: %s
  username: reader
  password: secret
preferences:
  show_on_deck: false
  show_continue_reading: false
cache:
  dir: %s
logging:
  file: %s
  level: ERROR
`, serverURL, filepath.Join(dir, "cache"), filepath.Join(dir, "komsync.log"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0644))
	return dir
}

func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd("test")
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append([]string{"--config", dir}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestHomePlain(t *testing.T) {
	server := newKomga(t)
	dir := configDir(t, server.URL)

	out, err := run(t, dir, "home", "--plain")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], `"id":"new"`)
	assert.Contains(t, lines[1], `"id":"updated"`)
	assert.Contains(t, out, "Berserk")
	assert.Contains(t, out, "Vagabond")
}

func TestHomePlain_UnsetServer(t *testing.T) {
	dir := configDir(t, "")

	out, err := run(t, dir, "home", "--plain")
	require.NoError(t, err)
	assert.Contains(t, out, `"id":"unset"`)
	assert.Contains(t, out, "placeholder-id")
}

func TestMore(t *testing.T) {
	server := newKomga(t)
	dir := configDir(t, server.URL)

	out, err := run(t, dir, "more", "new")
	require.NoError(t, err)
	assert.Contains(t, out, "s1\tBerserk")
	assert.Contains(t, out, "--page 1")
}

func TestSyncThenSearchLocal(t *testing.T) {
	server := newKomga(t)
	dir := configDir(t, server.URL)

	out, err := run(t, dir, "sync")
	require.NoError(t, err)
	assert.Contains(t, out, "Mirrored 2 series")

	out, err = run(t, dir, "search", "--local", "vgbnd")
	require.NoError(t, err)
	assert.Contains(t, out, "s2")
	assert.NotContains(t, out, "s1")

	out, err = run(t, dir, "updates")
	require.NoError(t, err)
	assert.Contains(t, out, "s2")
}

func TestConfigSet(t *testing.T) {
	server := newKomga(t)
	dir := configDir(t, "")

	_, err := run(t, dir, "config", "set", "server.url", server.URL)
	require.NoError(t, err)

	out, err := run(t, dir, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, server.URL)

	_, err = run(t, dir, "config", "set", "server.url", "http://127.0.0.1:1")
	assert.Error(t, err, "unreachable servers are rejected")
}

func TestConfigSet_RejectsBadCredentials(t *testing.T) {
	server := newKomga(t)
	dir := configDir(t, "")
	t.Setenv("KOMSYNC_SERVER_PASSWORD", "wrong")

	_, err := run(t, dir, "config", "set", "server.url", server.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAuthFailed)

	out, err := run(t, dir, "config", "show", "server.url")
	require.NoError(t, err)
	assert.NotContains(t, out, server.URL, "a rejected url is not saved")
}

func TestConfigShowKey(t *testing.T) {
	dir := configDir(t, "http://komga.local")

	out, err := run(t, dir, "config", "show", "server.url")
	require.NoError(t, err)
	assert.Equal(t, "http://komga.local\n", out)

	out, err = run(t, dir, "config", "show", "server.password")
	require.NoError(t, err)
	assert.Equal(t, "********\n", out)

	_, err = run(t, dir, "config", "show", "server.nope")
	assert.Error(t, err)
}

func TestSync_UnsetServer(t *testing.T) {
	dir := configDir(t, "")

	_, err := run(t, dir, "sync")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfigurationMissing)
}
