package main

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fascraper/pkg/auth"
	"fascraper/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fileBody = []byte("\x89PNG\r\n\x1a\nnot really an image")

const submissionPage = `<html><head><title>Red Fox by fakeartist -- Fur Affinity [dot] net</title></head>
<body>
<a id="my-username" href="/user/tester/">~tester</a>
<div class="submission-description">A fox in the snow.</div>
<a href="/files/fox.png">Download</a>
</body></html>`

// site serves a logged in front page, one submission, a one page gallery
// and the file behind the submission.
func newSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		if c, err := r.Cookie("a"); err != nil || c.Value != "cookie-a" {
			w.Write([]byte(`<html><body><a href="/login">Log In</a></body></html>`))
			return
		}
		w.Write([]byte(`<html><body><a id="my-username" href="/user/tester/">~tester</a></body></html>`))
	})
	mux.HandleFunc("/view/123/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(submissionPage))
	})
	mux.HandleFunc("/view/150/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Replace(submissionPage, "Red Fox by", "Chapter 1.5 final by", 1)))
	})
	mux.HandleFunc("/view/404/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>System Error</title></head><body><p>The submission you are trying to find is not in our database.</p></body></html>`))
	})
	mux.HandleFunc("/gallery/fakeartist/1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><section id="gallery-gallery">
<figure id="sid-11" class="r-general t-image"></figure>
<figure id="sid-12" class="r-adult t-text"></figure>
</section></body></html>`))
	})
	mux.HandleFunc("/files/fox.png", func(w http.ResponseWriter, r *http.Request) {
		w.Write(fileBody)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// run executes the CLI against srv with env cookies unless withCookies is
// false, returning combined output.
func run(t *testing.T, a *app, srv *httptest.Server, withCookies bool, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("FASCRAPER_BASE_URL", srv.URL)
	t.Setenv("FASCRAPER_REQUESTS_PER_MINUTE", "0")
	t.Setenv("FASCRAPER_COOKIE_A", "")
	t.Setenv("FASCRAPER_COOKIE_B", "")
	if withCookies {
		t.Setenv("FASCRAPER_COOKIE_A", "cookie-a")
		t.Setenv("FASCRAPER_COOKIE_B", "cookie-b")
	}

	var out bytes.Buffer
	cmd := newRootCmd(a)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--no-color"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func testApp(t *testing.T) (*app, *auth.MemoryStore) {
	t.Helper()
	manager, store := auth.NewMemoryManager()
	a := newApp()
	a.in = strings.NewReader("")
	a.interactive = false
	a.log = logger.NewNopLogger()
	a.credentials = func() (*auth.Manager, error) { return manager, nil }
	return a, store
}

func TestSubmissionCommandPrintsAndDownloads(t *testing.T) {
	srv := newSite(t)
	a, _ := testApp(t)
	dir := t.TempDir()

	out, err := run(t, a, srv, true, "submission", "123", "--download", "--output", dir, "--hash", "sha256")
	require.NoError(t, err)

	assert.Contains(t, out, "Red Fox")
	assert.Contains(t, out, "fakeartist")
	assert.Contains(t, out, srv.URL+"/files/fox.png")

	saved := filepath.Join(dir, "fakeartist", "123 - Red Fox.png")
	got, err := os.ReadFile(saved)
	require.NoError(t, err)
	assert.Equal(t, fileBody, got)
	assert.Contains(t, out, "Saved "+saved)

	sum := sha256.Sum256(fileBody)
	assert.Contains(t, out, hex.EncodeToString(sum[:])+"  fox.png")
}

func TestSubmissionCommandKeepsDotsInTitle(t *testing.T) {
	srv := newSite(t)
	a, _ := testApp(t)
	dir := t.TempDir()

	_, err := run(t, a, srv, true, "submission", "150", "--download", "--output", dir)
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(dir, "fakeartist", "150 - Chapter 1.5 final.png"))
	require.NoError(t, err)
	assert.Equal(t, fileBody, got)
}

func TestSubmissionCommandExplainsMissingSubmission(t *testing.T) {
	srv := newSite(t)
	a, _ := testApp(t)

	_, err := run(t, a, srv, true, "submission", "404")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist or was taken down")
}

func TestSubmissionCommandRejectsReplaceWithSkip(t *testing.T) {
	srv := newSite(t)
	a, _ := testApp(t)

	_, err := run(t, a, srv, true, "submission", "123", "--download", "--replace", "--skip")
	assert.Error(t, err)
}

func TestGalleryCommandUsesStoredAccount(t *testing.T) {
	srv := newSite(t)
	a, store := testApp(t)
	require.NoError(t, store.Store(&auth.Account{Username: "tester", CookieA: "cookie-a", CookieB: "cookie-b"}))

	out, err := run(t, a, srv, false, "gallery", "FakeArtist", "--account", "tester")
	require.NoError(t, err)
	assert.Contains(t, out, "11\timage")
	assert.Contains(t, out, "12\ttext")
	assert.Contains(t, out, "Submissions: 2")
}

func TestCommandsNeedCredentials(t *testing.T) {
	srv := newSite(t)
	a, _ := testApp(t)

	_, err := run(t, a, srv, false, "gallery", "fakeartist")
	require.Error(t, err)
	assert.ErrorIs(t, err, errNoCredentials)
}

func TestRejectedCookiesFailLogin(t *testing.T) {
	srv := newSite(t)
	a, store := testApp(t)
	require.NoError(t, store.Store(&auth.Account{Username: "tester", CookieA: "expired", CookieB: "expired"}))

	_, err := run(t, a, srv, false, "watchlist", "--account", "tester")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rejected")
}

func TestAuthLoginStoresAccount(t *testing.T) {
	srv := newSite(t)
	a, store := testApp(t)
	a.in = strings.NewReader("tester\ncookie-a-value\ncookie-b-value\n\n")

	out, err := run(t, a, srv, false, "auth", "login", "--no-guide")
	require.NoError(t, err)
	assert.Contains(t, out, "Account saved: tester")

	account, err := store.Retrieve("tester")
	require.NoError(t, err)
	assert.Equal(t, "cookie-a-value", account.CookieA)
	assert.Equal(t, "cookie-b-value", account.CookieB)
	assert.Empty(t, account.UserAgent)
}

func TestAuthListMasksCookies(t *testing.T) {
	srv := newSite(t)
	a, store := testApp(t)
	require.NoError(t, store.Store(&auth.Account{Username: "tester", CookieA: "aaaa-1234-5678-zzzz", CookieB: "bbbb-1234-5678-yyyy"}))

	out, err := run(t, a, srv, false, "auth", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "tester")
	assert.Contains(t, out, "aaaa...zzzz")
	assert.NotContains(t, out, "aaaa-1234-5678-zzzz")
}

func TestAuthLogoutSingleAccount(t *testing.T) {
	srv := newSite(t)
	a, store := testApp(t)
	require.NoError(t, store.Store(&auth.Account{Username: "tester", CookieA: "a", CookieB: "b"}))

	out, err := run(t, a, srv, false, "auth", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Account removed: tester")
	assert.Equal(t, 0, store.Count())
}

func TestConfigShowMasksCookies(t *testing.T) {
	srv := newSite(t)
	a, _ := testApp(t)

	out, err := run(t, a, srv, true, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "base_url: "+srv.URL)
	assert.Contains(t, out, "cookie_a:")
	assert.NotContains(t, out, "cookie-a")
}

func TestParseRatingsAndTypes(t *testing.T) {
	ratings, err := parseRatings([]string{"General", " adult"})
	require.NoError(t, err)
	assert.True(t, ratings.General)
	assert.False(t, ratings.Mature)
	assert.True(t, ratings.Adult)

	types, err := parseTypes([]string{"story", "poetry"})
	require.NoError(t, err)
	assert.True(t, types.Story)
	assert.True(t, types.Poetry)
	assert.False(t, types.Art)

	_, err = parseTypes([]string{"sculpture"})
	assert.Error(t, err)
}
