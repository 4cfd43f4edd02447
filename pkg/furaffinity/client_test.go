package furaffinity

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"fascraper/pkg/config"
	errs "fascraper/pkg/errors"
	"fascraper/pkg/logger"
	"fascraper/pkg/ratelimit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSite serves canned pages and records requests
type fakeSite struct {
	t        *testing.T
	srv      *httptest.Server
	mu       sync.Mutex
	pages    map[string]string
	forms    []url.Values
	requests []string
	latency  time.Duration
	hits     []hit
}

// hit is when the site started and finished serving one page request
type hit struct {
	start, end time.Time
}

func newFakeSite(t *testing.T) *fakeSite {
	t.Helper()
	fs := &fakeSite{t: t, pages: map[string]string{}}
	fs.srv = httptest.NewServer(http.HandlerFunc(fs.serve))
	t.Cleanup(fs.srv.Close)
	return fs
}

func (fs *fakeSite) serve(w http.ResponseWriter, r *http.Request) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.requests = append(fs.requests, r.Method+" "+r.URL.RequestURI())
	if r.URL.Path != "/" {
		h := hit{start: time.Now()}
		time.Sleep(fs.latency)
		defer func() {
			h.end = time.Now()
			fs.hits = append(fs.hits, h)
		}()
	}

	if r.URL.Path == "/" {
		if c, err := r.Cookie("a"); err == nil && c.Value == "good" {
			fmt.Fprint(w, `<html><a id="my-username" href="/user/tester/">~tester</a></html>`)
			return
		}
		fmt.Fprint(w, `<html><a href="/login">Log in</a></html>`)
		return
	}

	if r.Method == http.MethodPost {
		require.NoError(fs.t, r.ParseForm())
		fs.forms = append(fs.forms, r.PostForm)
		key := "POST " + r.URL.Path + "#" + r.PostForm.Get("page")
		if body, ok := fs.pages[key]; ok {
			fmt.Fprint(w, body)
			return
		}
		fmt.Fprint(w, `<html><div id="gallery-search-results"></div></html>`)
		return
	}

	if r.URL.Path == "/throttled/" {
		w.WriteHeader(http.StatusTooManyRequests)
		return
	}

	body, ok := fs.pages[r.URL.RequestURI()]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `<html><title>System Error</title></html>`)
		return
	}
	fmt.Fprint(w, body)
}

func (fs *fakeSite) set(path, body string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.pages[path] = body
}

func (fs *fakeSite) requested() []string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]string(nil), fs.requests...)
}

func (fs *fakeSite) setLatency(d time.Duration) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.latency = d
}

func (fs *fakeSite) resetHits() {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.hits = nil
}

func (fs *fakeSite) pageHits() []hit {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]hit(nil), fs.hits...)
}

func (fs *fakeSite) postedForms() []url.Values {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]url.Values(nil), fs.forms...)
}

func newTestClient(t *testing.T, fs *fakeSite, log logger.Logger) *Client {
	t.Helper()
	if log == nil {
		log = logger.NewNopLogger()
	}
	c := NewClient(5*time.Second, log)
	c.SetBaseURL(fs.srv.URL)
	c.SetHTTPClient(&http.Client{Transport: fs.srv.Client().Transport, Timeout: 5 * time.Second})
	c.SetPageLimiter(ratelimit.Nop{})
	return c
}

func loggedInClient(t *testing.T, fs *fakeSite) *Client {
	t.Helper()
	c := newTestClient(t, fs, nil)
	require.NoError(t, c.LoginWithCookies(context.Background(), map[string]string{"a": "good", "b": "cookie"}))
	return c
}

func figures(container string, ids ...int) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<html><section id="%s">`, container)
	for _, id := range ids {
		fmt.Fprintf(&b, `<figure id="sid-%d" class="r-general t-image"><a href="/view/%d/">x</a></figure>`, id, id)
	}
	b.WriteString(`</section></html>`)
	return b.String()
}

func TestNewClient(t *testing.T) {
	log := logger.NewTestLogger()
	c := NewClient(30*time.Second, log)

	assert.NotNil(t, c.httpClient)
	assert.NotNil(t, c.httpClient.Jar)
	assert.Equal(t, BaseURL, c.baseURL)
	assert.Equal(t, DefaultUserAgent, c.headers["User-Agent"])
	assert.Equal(t, log, c.logger)
	assert.False(t, c.LoggedIn())

	c.SetUserAgent("fascraper-test")
	assert.Equal(t, "fascraper-test", c.headers["User-Agent"])
}

func TestNewClientFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Session.BaseURL = "http://localhost:8080/"
	cfg.Session.UserAgent = "custom"
	cfg.Session.Location = "America/New_York"

	c, err := NewClientFromConfig(cfg, logger.NewNopLogger())
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", c.baseURL)
	assert.Equal(t, "custom", c.headers["User-Agent"])
	assert.Equal(t, "America/New_York", c.location.String())

	cfg.Session.Location = "Mars/Olympus"
	_, err = NewClientFromConfig(cfg, logger.NewNopLogger())
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)
}

func TestLoginWithCookies(t *testing.T) {
	fs := newFakeSite(t)
	ctx := context.Background()

	c := newTestClient(t, fs, nil)
	err := c.LoginWithCookies(ctx, map[string]string{"a": "bad", "b": "bad"})
	assert.ErrorIs(t, err, errs.ErrLoginFailed)
	assert.False(t, c.LoggedIn())

	c = newTestClient(t, fs, nil)
	require.NoError(t, c.LoginWithCookies(ctx, map[string]string{"a": "good", "b": "cookie"}))
	assert.True(t, c.LoggedIn())

	ok, err := c.CheckLogin(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLoginWithCookiesTransportFailureLogsOut(t *testing.T) {
	fs := newFakeSite(t)
	c := loggedInClient(t, fs)
	require.True(t, c.LoggedIn())

	fs.srv.Close()
	err := c.LoginWithCookies(context.Background(), map[string]string{"a": "other", "b": "cookie"})
	assert.Equal(t, errs.ErrorTypeNetwork, errs.TypeOf(err))
	assert.False(t, c.LoggedIn())

	_, err = c.Gallery(context.Background(), "someartist", PageOptions{})
	assert.ErrorIs(t, err, errs.ErrNotAuthenticated)
}

func TestLoginWithCredentials(t *testing.T) {
	c := NewClient(time.Second, logger.NewNopLogger())
	assert.ErrorIs(t, c.LoginWithCredentials(context.Background(), "user", "pass"), errs.ErrNotImplemented)
}

func TestOperationsRequireLogin(t *testing.T) {
	fs := newFakeSite(t)
	c := newTestClient(t, fs, nil)
	ctx := context.Background()

	_, err := c.GetSubmission(ctx, "1")
	assert.ErrorIs(t, err, errs.ErrNotAuthenticated)
	_, err = c.Gallery(ctx, "someone", PageOptions{})
	assert.ErrorIs(t, err, errs.ErrNotAuthenticated)
	_, err = c.Queue(ctx, QueueOptions{})
	assert.ErrorIs(t, err, errs.ErrNotAuthenticated)
	assert.ErrorIs(t, c.NukeQueue(ctx), errs.ErrNotAuthenticated)
	_, err = c.Watchlist(ctx)
	assert.ErrorIs(t, err, errs.ErrNotAuthenticated)
	_, err = c.AccountSettings(ctx)
	assert.ErrorIs(t, err, errs.ErrNotAuthenticated)
	_, err = c.SiteSettings(ctx)
	assert.ErrorIs(t, err, errs.ErrNotAuthenticated)

	assert.Empty(t, fs.requested(), "nothing should reach the site")
}

func TestGetSubmission(t *testing.T) {
	fs := newFakeSite(t)
	body, err := os.ReadFile("testdata/submission.html")
	require.NoError(t, err)
	fs.set("/view/00001/", string(body))
	fs.set("/view/2/", `<html><title>None</title>This submission contains Mature or Adult content</html>`)

	c := loggedInClient(t, fs)
	ctx := context.Background()

	sub, err := c.GetSubmission(ctx, "00001")
	require.NoError(t, err)
	assert.Equal(t, "00001", sub.ID)
	title, err := sub.Title()
	require.NoError(t, err)
	assert.Equal(t, "Test / File", title)

	_, err = c.GetSubmissionEntry(ctx, ListingEntry{ID: 2, Kind: "image"})
	assert.ErrorIs(t, err, errs.ErrMaturityRestricted)

	_, err = c.GetSubmission(ctx, "404")
	assert.ErrorIs(t, err, errs.ErrSubmissionNotFound)

	_, err = c.GetSubmission(ctx, " ")
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)
}

func TestGallery(t *testing.T) {
	fs := newFakeSite(t)
	fs.set("/gallery/someartist/1", figures("gallery-gallery", 10, 11))
	fs.set("/gallery/someartist/2", figures("gallery-gallery", 12))
	fs.set("/gallery/someartist/3", `<html><div id="no-images">There are no submissions to list</div></html>`)

	c := loggedInClient(t, fs)
	entries, err := c.Gallery(context.Background(), "SomeArtist", PageOptions{NumPages: 5})
	require.NoError(t, err)
	assert.Equal(t, []ListingEntry{{10, "image"}, {11, "image"}, {12, "image"}}, entries)
	assert.NotContains(t, fs.requested(), "GET /gallery/someartist/4", "must stop at the no-images marker")
}

func TestUserSubmissionsAndFavourites(t *testing.T) {
	fs := newFakeSite(t)
	fs.set("/gallery/someartist/1", figures("gallery-gallery", 1))
	fs.set("/scraps/someartist/1", figures("gallery-gallery", 2))
	fs.set("/favorites/someartist/1", figures("gallery-gallery", 3))

	c := loggedInClient(t, fs)
	ctx := context.Background()

	entries, err := c.UserSubmissions(ctx, "someartist", PageOptions{})
	require.NoError(t, err)
	assert.Equal(t, []ListingEntry{{1, "image"}, {2, "image"}}, entries)

	favs, err := c.Favourites(ctx, "someartist", PageOptions{})
	require.NoError(t, err)
	assert.Equal(t, []ListingEntry{{3, "image"}}, favs)

	_, err = c.ListUserSubmissions(ctx, ListingKind("journals"), "someartist", PageOptions{})
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)

	_, err = c.Gallery(ctx, "someartist", PageOptions{Page: -1})
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)
}

func TestGalleryBadFigure(t *testing.T) {
	fs := newFakeSite(t)
	fs.set("/gallery/someartist/1", `<html><section id="gallery-gallery"><figure id="oops" class="r-general t-image"></figure></section></html>`)

	c := loggedInClient(t, fs)
	_, err := c.Gallery(context.Background(), "someartist", PageOptions{})
	assert.Equal(t, errs.ErrorTypeParsing, errs.TypeOf(err))
}

func TestListingPacesPages(t *testing.T) {
	const delay = 100 * time.Millisecond

	tests := []struct {
		name  string
		setup func(fs *fakeSite)
		run   func(ctx context.Context, c *Client) ([]ListingEntry, error)
	}{
		{
			name: "gallery",
			setup: func(fs *fakeSite) {
				fs.set("/gallery/someartist/1", figures("gallery-gallery", 1))
				fs.set("/gallery/someartist/2", figures("gallery-gallery", 2))
				fs.set("/gallery/someartist/3", figures("gallery-gallery", 3))
			},
			run: func(ctx context.Context, c *Client) ([]ListingEntry, error) {
				return c.Gallery(ctx, "someartist", PageOptions{NumPages: 3})
			},
		},
		{
			name: "queue",
			setup: func(fs *fakeSite) {
				fs.set("/msg/submissions/old/", figures("messagecenter-submissions", 3)+`<a class="more" href="/msg/submissions/old~2@72/">Next</a>`)
				fs.set("/msg/submissions/old~2@72/", figures("messagecenter-submissions", 2)+`<a class="more" href="/msg/submissions/old~1@72/">Next</a>`)
				fs.set("/msg/submissions/old~1@72/", figures("messagecenter-submissions", 1)+`<a class="more" href="/msg/submissions/old@72/">Next</a>`)
			},
			run: func(ctx context.Context, c *Client) ([]ListingEntry, error) {
				return c.Queue(ctx, QueueOptions{PageOptions: PageOptions{NumPages: 3}})
			},
		},
		{
			name: "search",
			setup: func(fs *fakeSite) {
				fs.set("POST /search/#1", figures("gallery-search-results", 1))
				fs.set("POST /search/#2", figures("gallery-search-results", 2))
				fs.set("POST /search/#3", figures("gallery-search-results", 3))
			},
			run: func(ctx context.Context, c *Client) ([]ListingEntry, error) {
				return c.Search(ctx, SearchOptions{Query: "fox", NumPages: 3})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := newFakeSite(t)
			tt.setup(fs)
			c := loggedInClient(t, fs)
			c.SetPageLimiter(ratelimit.NewPacer(delay))
			// pages take longer to serve than the delay between them
			fs.setLatency(delay + 20*time.Millisecond)

			for round := 0; round < 2; round++ {
				fs.resetHits()
				start := time.Now()
				entries, err := tt.run(context.Background(), c)
				require.NoError(t, err)
				require.Len(t, entries, 3)

				hits := fs.pageHits()
				require.Len(t, hits, 3)
				assert.Less(t, hits[0].start.Sub(start), delay, "first page is not delayed")
				for i := 1; i < len(hits); i++ {
					assert.GreaterOrEqual(t, hits[i].start.Sub(hits[i-1].end), delay, "page %d waits the full delay", i+1)
				}
			}
		})
	}
}

func TestQueue(t *testing.T) {
	fs := newFakeSite(t)
	fs.set("/msg/submissions/old/", figures("messagecenter-submissions", 5, 4)+`<a class="more" href="/msg/submissions/old~3@72/">Next</a>`)
	fs.set("/msg/submissions/old~3@72/", figures("messagecenter-submissions", 3)+`<a class="more" href="/msg/submissions/old@72/">Next</a>`)

	c := loggedInClient(t, fs)
	entries, err := c.Queue(context.Background(), QueueOptions{PageOptions: PageOptions{NumPages: 10}, Nuke: true})
	require.NoError(t, err)
	assert.Equal(t, []ListingEntry{{5, "image"}, {4, "image"}, {3, "image"}}, entries)

	reqs := fs.requested()
	assert.NotContains(t, reqs, "GET /msg/submissions/old@72/")
	assert.Contains(t, reqs, "POST /msg/submissions/")

	forms := fs.postedForms()
	require.Len(t, forms, 1)
	assert.Equal(t, "Nuke all Submissions", forms[0].Get("messagecenter-action"))
}

func TestQueueEmpty(t *testing.T) {
	fs := newFakeSite(t)
	fs.set("/msg/submissions/old/", `<html><section id="messagecenter-submissions">There are no submissions to list</section></html>`)

	c := loggedInClient(t, fs)
	entries, err := c.Queue(context.Background(), QueueOptions{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestQueueStopsAtPageCount(t *testing.T) {
	fs := newFakeSite(t)
	fs.set("/msg/submissions/old/", figures("messagecenter-submissions", 9)+`<a class="more" href="/msg/submissions/old~8@72/">Next</a>`)

	c := loggedInClient(t, fs)
	entries, err := c.Queue(context.Background(), QueueOptions{})
	require.NoError(t, err)
	assert.Equal(t, []ListingEntry{{9, "image"}}, entries)
	assert.NotContains(t, fs.requested(), "GET /msg/submissions/old~8@72/")
}

func TestSearch(t *testing.T) {
	fs := newFakeSite(t)
	fs.set("POST /search/#1", figures("gallery-search-results", 100, 101))
	fs.set("POST /search/#2", figures("gallery-search-results", 102))

	c := newTestClient(t, fs, nil)
	entries, err := c.Search(context.Background(), SearchOptions{
		Query:    "fox",
		NumPages: 5,
		Types:    &Types{Story: true},
	})
	require.NoError(t, err)
	assert.Equal(t, []ListingEntry{{100, "image"}, {101, "image"}, {102, "image"}}, entries)

	forms := fs.postedForms()
	require.Len(t, forms, 3, "stops after the first empty page")

	first := forms[0]
	assert.Equal(t, "fox", first.Get("q"))
	assert.Equal(t, "1", first.Get("page"))
	assert.Equal(t, "72", first.Get("perpage"))
	assert.Equal(t, "relevancy", first.Get("order-by"))
	assert.Equal(t, "desc", first.Get("order-direction"))
	assert.Equal(t, "all", first.Get("range"))
	assert.Equal(t, "Search", first.Get("do_search"))
	assert.Equal(t, "extended", first.Get("mode"))
	assert.Equal(t, "on", first.Get("rating-general"))
	assert.Equal(t, "on", first.Get("rating-adult"))
	assert.Equal(t, "on", first.Get("type-story"))
	assert.NotContains(t, first, "type-art", "unset flags are omitted")
	assert.Equal(t, "2", forms[1].Get("page"))
}

func TestSearchTags(t *testing.T) {
	fs := newFakeSite(t)
	c := newTestClient(t, fs, nil)

	entries, err := c.SearchTags(context.Background(), []string{"fox", "canine"}, SearchOptions{Ratings: &Ratings{General: true}})
	require.NoError(t, err)
	assert.Empty(t, entries)

	forms := fs.postedForms()
	require.Len(t, forms, 1)
	assert.Equal(t, "@keywords fox canine", forms[0].Get("q"))
	assert.Equal(t, "on", forms[0].Get("rating-general"))
	assert.NotContains(t, forms[0], "rating-mature")
	assert.Equal(t, "on", forms[0].Get("type-art"))
	assert.Equal(t, "on", forms[0].Get("type-photo"))

	_, err = c.SearchTags(context.Background(), nil, SearchOptions{})
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)
	_, err = c.Search(context.Background(), SearchOptions{})
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)
}

func watchPage(names ...string) string {
	var b strings.Builder
	b.WriteString("<html>")
	for _, n := range names {
		fmt.Fprintf(&b, `<a href="/unwatch/%s/?key=abc123">Unwatch</a>`, n)
	}
	b.WriteString("</html>")
	return b.String()
}

func TestWatchlist(t *testing.T) {
	fs := newFakeSite(t)
	fs.set("/controls/buddylist/1", watchPage("alpha", "beta"))
	fs.set("/controls/buddylist/2", watchPage("gamma"))
	fs.set("/controls/buddylist/3", watchPage("alpha", "beta"))

	c := loggedInClient(t, fs)
	users, err := c.Watchlist(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, users)
}

func TestWatchlistStopsOnEmptyPage(t *testing.T) {
	fs := newFakeSite(t)
	fs.set("/controls/buddylist/1", watchPage("alpha"))
	fs.set("/controls/buddylist/2", watchPage())

	c := loggedInClient(t, fs)
	users, err := c.Watchlist(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha"}, users)
}

func TestAccountSettings(t *testing.T) {
	fs := newFakeSite(t)
	fs.set("/controls/settings/", `<html><form>
		<input name="fullname" value="Test User">
		<input name="fa_useremail" value="test@example.com">
		<select name="timezone"><option value="-0500">EST</option><option value="+0000" selected="selected">GMT</option></select>
		<select name="bdayday"><option value="21" selected="selected">21</option></select>
		<select name="bdaymonth"><option value="10" selected="selected">Oct</option></select>
		<select name="bdayyear"><option value="1990" selected="selected">1990</option></select>
		<select name="viewmature"><option value="0" selected="selected">General</option></select>
		<select name="style"><option value="beta" selected="selected">Beta</option></select>
	</form></html>`)

	c := loggedInClient(t, fs)
	settings, err := c.AccountSettings(context.Background())
	require.NoError(t, err)

	require.NotNil(t, settings.FullName)
	assert.Equal(t, "Test User", *settings.FullName)
	assert.Equal(t, "+0000", *settings.Timezone)
	assert.Nil(t, settings.Stylesheet)

	values := settings.Values()
	assert.Equal(t, "test@example.com", values["useremail"])
	assert.Equal(t, "1990", values["bdayyear"])
	assert.NotContains(t, values, "stylesheet")
	assert.Len(t, values, 8)
}

func TestSiteSettings(t *testing.T) {
	fs := newFakeSite(t)
	fs.set("/controls/site-settings/", `<html><form>
		<input type="radio" id="disable_avatars_yes" name="disable_avatars" value="1" checked>
		<input type="radio" id="switch-date-format-full" name="date_format" value="1">
		<select id="select-preferred-perpage"><option value="48">48</option><option value="72" selected>72</option></select>
		<select id="select-newsubmissions-direction"><option value="desc" selected>Newest first</option></select>
		<select id="select-thumbnail-size"><option value="200" selected>200</option></select>
		<select id="hide-favorites"><option value="0" selected>No</option></select>
		<select id="no-guests"><option value="1" selected>Yes</option></select>
		<select id="no-notes"><option value="0" selected>No</option></select>
	</form></html>`)

	c := loggedInClient(t, fs)
	settings, err := c.SiteSettings(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"disable_avatars":          "1",
		"date_format":              "0",
		"perpage":                  "72",
		"newsubmissions_direction": "desc",
		"thumbnail_size":           "200",
		"hide_favorites":           "0",
		"no_guests":                "1",
		"no_notes":                 "0",
	}, settings.Values())
}

func TestThrottledResponse(t *testing.T) {
	fs := newFakeSite(t)
	c := loggedInClient(t, fs)

	_, err := c.get(context.Background(), fs.srv.URL+"/throttled/")
	require.Error(t, err)
	assert.Equal(t, errs.ErrorTypeRateLimit, errs.TypeOf(err))
}

func TestNetworkFailureIsTyped(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c := NewClient(time.Second, logger.NewNopLogger())
	c.SetBaseURL(base)

	_, err := c.CheckLogin(context.Background())
	assert.Equal(t, errs.ErrorTypeNetwork, errs.TypeOf(err))
}

func TestRequestLogging(t *testing.T) {
	fs := newFakeSite(t)
	log := logger.NewTestLogger()
	c := newTestClient(t, fs, log)

	_, err := c.CheckLogin(context.Background())
	require.NoError(t, err)
	assert.True(t, log.HasMessage("DEBUG", "sending HTTP request"))
	assert.True(t, log.HasMessage("DEBUG", "HTTP request completed"))

	err = c.LoginWithCookies(context.Background(), map[string]string{"a": "bad"})
	assert.Error(t, err)
	assert.True(t, log.HasMessage("WARN", "rejected"))
}
