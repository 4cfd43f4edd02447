package furaffinity

import (
	"context"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	errs "fascraper/pkg/errors"
	"fascraper/pkg/logger"
	"fascraper/pkg/textutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/duke-git/lancet/v2/slice"
)

var (
	figureClassRegex = regexp.MustCompile(`r-([a-z]+) t-([a-z]+)`)
	watchlistRegex   = regexp.MustCompile(`/unwatch/(.*)/\?key=[0-9a-f]*`)
)

const (
	galleryFigures  = "#gallery-gallery figure"
	queueFigures    = "#messagecenter-submissions figure"
	searchFigures   = "#gallery-search-results figure"
	figureIDPrefix  = "sid-"
	queueEmptyText  = "There are no submissions to list"
	queueEndMarker  = "old@"
	nukeFormAction  = "Nuke all Submissions"
	noImagesElement = "div#no-images"
)

// parseFigures reads every listing entry matched by selector
func parseFigures(page *Page, selector string) ([]ListingEntry, error) {
	var entries []ListingEntry
	var parseErr error

	page.Doc.Find(selector).EachWithBreak(func(_ int, fig *goquery.Selection) bool {
		entry, err := parseFigure(fig)
		if err != nil {
			parseErr = err
			return false
		}
		entries = append(entries, entry)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return entries, nil
}

func parseFigure(fig *goquery.Selection) (ListingEntry, error) {
	rawID := fig.AttrOr("id", "")
	id, err := strconv.Atoi(strings.TrimPrefix(rawID, figureIDPrefix))
	if err != nil {
		return ListingEntry{}, errs.Wrap(errs.ErrorTypeParsing, err, "figure id %q is not a submission id", rawID)
	}

	m := figureClassRegex.FindStringSubmatch(fig.AttrOr("class", ""))
	if m == nil {
		return ListingEntry{}, errs.New(errs.ErrorTypeParsing, "figure %d has no rating/type classes", id)
	}
	return ListingEntry{ID: id, Kind: m[2]}, nil
}

// paceListing waits between pages of one listing; the first page is never
// delayed.
func (c *Client) paceListing(ctx context.Context, first bool) error {
	if first {
		c.pageLimiter.Reset()
	}
	return c.pageLimiter.Wait(ctx)
}

// ListUserSubmissions reads opts.NumPages pages of a user's listing starting
// at opts.Page, stopping early at the "no images" marker.
func (c *Client) ListUserSubmissions(ctx context.Context, kind ListingKind, username string, opts PageOptions) ([]ListingEntry, error) {
	if err := c.requireLogin(); err != nil {
		return nil, err
	}
	if !kind.Valid() {
		return nil, errs.New(errs.ErrorTypeInvalidArgument, "unknown listing %q", kind)
	}
	if SanitizeUsername(username) == "" {
		return nil, errs.New(errs.ErrorTypeInvalidArgument, "username is required")
	}
	opts, err := opts.normalize()
	if err != nil {
		return nil, err
	}

	log := c.logger.WithFields(map[string]interface{}{
		"listing":  string(kind),
		"username": SanitizeUsername(username),
	})

	results := []ListingEntry{}
	for page := opts.Page; page < opts.Page+opts.NumPages; page++ {
		if err := c.paceListing(ctx, page == opts.Page); err != nil {
			return results, err
		}

		p, err := c.get(ctx, ListingURL(c.baseURL, kind, username, page))
		if err != nil {
			return results, err
		}
		if p.Doc.Find(noImagesElement).Length() > 0 {
			log.DebugWithFields("listing exhausted", map[string]interface{}{"page": page})
			break
		}

		entries, err := parseFigures(p, galleryFigures)
		if err != nil {
			return results, err
		}
		logger.LogPage(log, string(kind), page, len(entries))
		results = append(results, entries...)
	}
	return results, nil
}

// Gallery lists a user's main gallery
func (c *Client) Gallery(ctx context.Context, username string, opts PageOptions) ([]ListingEntry, error) {
	return c.ListUserSubmissions(ctx, ListingGallery, username, opts)
}

// Scraps lists a user's scraps
func (c *Client) Scraps(ctx context.Context, username string, opts PageOptions) ([]ListingEntry, error) {
	return c.ListUserSubmissions(ctx, ListingScraps, username, opts)
}

// Favorites lists a user's favorites
func (c *Client) Favorites(ctx context.Context, username string, opts PageOptions) ([]ListingEntry, error) {
	return c.ListUserSubmissions(ctx, ListingFavorites, username, opts)
}

// Favourites is Favorites
func (c *Client) Favourites(ctx context.Context, username string, opts PageOptions) ([]ListingEntry, error) {
	return c.Favorites(ctx, username, opts)
}

// UserSubmissions lists a user's gallery followed by their scraps
func (c *Client) UserSubmissions(ctx context.Context, username string, opts PageOptions) ([]ListingEntry, error) {
	gallery, err := c.Gallery(ctx, username, opts)
	if err != nil {
		return gallery, err
	}
	scraps, err := c.Scraps(ctx, username, opts)
	return append(gallery, scraps...), err
}

// Queue reads the new submissions inbox, following "more" links until the
// site signals the end or opts.NumPages pages were read. With opts.Nuke the
// inbox is cleared afterwards.
func (c *Client) Queue(ctx context.Context, opts QueueOptions) ([]ListingEntry, error) {
	if err := c.requireLogin(); err != nil {
		return nil, err
	}
	pages, err := opts.PageOptions.normalize()
	if err != nil {
		return nil, err
	}

	results := []ListingEntry{}
	if err := c.paceListing(ctx, true); err != nil {
		return nil, err
	}
	p, err := c.get(ctx, QueueURL(c.baseURL))
	if err != nil {
		return nil, err
	}
	if p.Contains(queueEmptyText) {
		return results, nil
	}

	for i := 0; i < pages.NumPages; i++ {
		entries, err := parseFigures(p, queueFigures)
		if err != nil {
			return results, err
		}
		logger.LogPage(c.logger, "queue", pages.Page+i, len(entries))
		results = append(results, entries...)

		if i == pages.NumPages-1 {
			break
		}
		next, ok := p.Doc.Find("a.more").First().Attr("href")
		if !ok || next == "" || strings.Contains(next, queueEndMarker) {
			break
		}

		if err := c.paceListing(ctx, false); err != nil {
			return results, err
		}
		if p, err = c.get(ctx, ResolveURL(c.baseURL, next)); err != nil {
			return results, err
		}
	}

	if opts.Nuke {
		if err := c.NukeQueue(ctx); err != nil {
			return results, err
		}
	}
	return results, nil
}

// NukeQueue posts the "nuke all submissions" inbox action. The site gives
// no confirmation, so success only means the request was accepted.
func (c *Client) NukeQueue(ctx context.Context) error {
	if err := c.requireLogin(); err != nil {
		return err
	}

	c.logger.Info("nuking submission queue")
	form := url.Values{"messagecenter-action": {nukeFormAction}}
	_, err := c.postForm(ctx, NukeURL(c.baseURL), form)
	return err
}

// Search posts the search form once per page until a page has no results
func (c *Client) Search(ctx context.Context, opts SearchOptions) ([]ListingEntry, error) {
	opts, err := opts.normalize()
	if err != nil {
		return nil, err
	}

	results := []ListingEntry{}
	for page := opts.Page; page < opts.Page+opts.NumPages; page++ {
		if err := c.paceListing(ctx, page == opts.Page); err != nil {
			return results, err
		}

		p, err := c.postForm(ctx, SearchURL(c.baseURL), opts.form(page))
		if err != nil {
			return results, err
		}

		entries, err := parseFigures(p, searchFigures)
		if err != nil {
			return results, err
		}
		logger.LogPage(c.logger, "search", page, len(entries))
		if len(entries) == 0 {
			break
		}
		results = append(results, entries...)
	}
	return results, nil
}

// SearchTags searches for submissions carrying every one of tags
func (c *Client) SearchTags(ctx context.Context, tags []string, opts SearchOptions) ([]ListingEntry, error) {
	if len(tags) == 0 {
		return nil, errs.New(errs.ErrorTypeInvalidArgument, "at least one tag is required")
	}
	opts.Query = "@keywords " + strings.Join(tags, " ")
	return c.Search(ctx, opts)
}

// Watchlist returns the usernames the logged in user watches. Pages are read
// until one repeats a name already seen or lists nobody.
func (c *Client) Watchlist(ctx context.Context) ([]string, error) {
	if err := c.requireLogin(); err != nil {
		return nil, err
	}

	users := []string{}
	for page := 1; ; page++ {
		if err := c.paceListing(ctx, page == 1); err != nil {
			return users, err
		}

		p, err := c.get(ctx, WatchlistURL(c.baseURL, page))
		if err != nil {
			return users, err
		}

		found := 0
		repeated := false
		p.Doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			m := watchlistRegex.FindStringSubmatch(a.AttrOr("href", ""))
			if m == nil {
				return true
			}
			found++
			name := textutil.Normalize(m[1])
			if slice.Contain(users, name) {
				repeated = true
				return false
			}
			users = append(users, name)
			return true
		})

		logger.LogPage(c.logger, "watchlist", page, found)
		if repeated || found == 0 {
			return users, nil
		}
	}
}
