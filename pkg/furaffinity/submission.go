package furaffinity

import (
	"net/http"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	errs "fascraper/pkg/errors"
	"fascraper/pkg/logger"
	"fascraper/pkg/textutil"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var (
	titleUploaderRegex = regexp.MustCompile(`^(.+) by (.+) --`)
	categoryThemeRegex = regexp.MustCompile(`^ ?(.+) > (.+)$`)
	keywordsHrefRegex  = regexp.MustCompile(`/search/@keywords .+`)
	ordinalRegex       = regexp.MustCompile(`(\d+)(st|nd|rd|th)\b`)
	widthStyleRegex    = regexp.MustCompile(`width:\s*(\d+)%`)
	digitsRegex        = regexp.MustCompile(`\d[\d,]*`)
)

// Layouts accepted for a submission's posted time, after ordinal suffixes
// are stripped.
var timeLayouts = []string{
	"Jan 2, 2006 03:04 PM",
	"Jan 2, 2006 3:04 PM",
	"January 2, 2006 03:04 PM",
	"January 2, 2006 3:04 PM",
	"Jan 2, 2006 15:04",
}

const (
	commentIDPrefix     = "cid:"
	userLinkPrefixLen   = len("/user/")
	formattedTimeLayout = "02/01/2006 15:04"
)

// Submission is a lazily parsed view over one submission page. Every field
// is extracted on first access and cached; the page never changes for the
// lifetime of the value.
type Submission struct {
	ID string

	page     *Page
	baseURL  string
	http     HTTPDoer
	logger   logger.Logger
	location *time.Location

	mu    sync.Mutex
	cache map[string]any
}

// NewSubmission wraps an already fetched and classified page. Files it
// hands out use http.DefaultClient; times are read as UTC.
func NewSubmission(id string, page *Page) *Submission {
	return &Submission{
		ID:       id,
		page:     page,
		baseURL:  BaseURL,
		http:     http.DefaultClient,
		logger:   logger.NewNopLogger(),
		location: time.UTC,
		cache:    make(map[string]any),
	}
}

// Page returns the snapshot the submission reads from
func (s *Submission) Page() *Page {
	return s.page
}

// memo returns the cached value for key or computes and stores it. The lock
// only guards the map; errors are not cached.
func memo[T any](s *Submission, key string, compute func() (T, error)) (T, error) {
	s.mu.Lock()
	if v, ok := s.cache[key]; ok {
		s.mu.Unlock()
		return v.(T), nil
	}
	s.mu.Unlock()

	v, err := compute()
	if err != nil {
		var zero T
		return zero, err
	}

	s.mu.Lock()
	s.cache[key] = v
	s.mu.Unlock()
	return v, nil
}

func (s *Submission) titleParts() ([2]string, error) {
	return memo(s, "title_parts", func() ([2]string, error) {
		m := titleUploaderRegex.FindStringSubmatch(s.page.Title())
		if m == nil {
			return [2]string{}, errs.New(errs.ErrorTypeParsing, "title %q does not name an uploader", s.page.Title())
		}
		return [2]string{m[1], m[2]}, nil
	})
}

// Title returns the submission title as written
func (s *Submission) Title() (string, error) {
	parts, err := s.titleParts()
	return parts[0], err
}

// TitleSafe returns the title with filesystem-unsafe characters removed
func (s *Submission) TitleSafe() (string, error) {
	title, err := s.Title()
	if err != nil {
		return "", err
	}
	return textutil.NormalizeSafe(title), nil
}

// Uploader returns the uploader's display name, safe-normalized
func (s *Submission) Uploader() (string, error) {
	return memo(s, "uploader", func() (string, error) {
		parts, err := s.titleParts()
		if err != nil {
			return "", err
		}
		return textutil.NormalizeSafe(parts[1]), nil
	})
}

func (s *Submission) descriptionSelection() (*goquery.Selection, error) {
	sel := s.page.Doc.Find("div.submission-description").First()
	if sel.Length() == 0 {
		return nil, s.page.missing("description")
	}
	return sel, nil
}

// Description returns the description as normalized plain text
func (s *Submission) Description() (string, error) {
	return memo(s, "description", func() (string, error) {
		sel, err := s.descriptionSelection()
		if err != nil {
			return "", err
		}
		return textutil.Normalize(sel.Text()), nil
	})
}

// DescriptionHTML returns the description element serialized as HTML
func (s *Submission) DescriptionHTML() (string, error) {
	return memo(s, "description_html", func() (string, error) {
		sel, err := s.descriptionSelection()
		if err != nil {
			return "", err
		}
		out, err := goquery.OuterHtml(sel)
		if err != nil {
			return "", errs.Wrap(errs.ErrorTypeParsing, err, "failed to render description")
		}
		return out, nil
	})
}

// TimeRaw returns the posted time as shown on the page. Relative times such
// as "5 years ago" are replaced by the absolute time in the title attribute.
func (s *Submission) TimeRaw() (string, error) {
	return memo(s, "time_raw", func() (string, error) {
		sel := s.page.Doc.Find("span.popup_date").First()
		if sel.Length() == 0 {
			return "", s.page.missing("posted time")
		}
		raw := strings.TrimSpace(sel.Text())
		if strings.HasSuffix(raw, "ago") {
			raw = sel.AttrOr("title", raw)
		}
		return textutil.Normalize(raw), nil
	})
}

// Time parses TimeRaw in the client's location
func (s *Submission) Time() (time.Time, error) {
	return memo(s, "time", func() (time.Time, error) {
		raw, err := s.TimeRaw()
		if err != nil {
			return time.Time{}, err
		}
		return parsePostedTime(raw, s.location)
	})
}

// TimeFormatted returns Time as dd/mm/yyyy HH:MM
func (s *Submission) TimeFormatted() (string, error) {
	t, err := s.Time()
	if err != nil {
		return "", err
	}
	return t.Format(formattedTimeLayout), nil
}

func parsePostedTime(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	cleaned := ordinalRegex.ReplaceAllString(raw, "$1")
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, cleaned, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errs.New(errs.ErrorTypeParsing, "unrecognized posted time %q", raw)
}

// labeledText returns the normalized text that follows a <strong>label</strong>
// element, or an error when the label is absent.
func (s *Submission) labeledText(label string) (string, error) {
	var node *html.Node
	s.page.Doc.Find("strong").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if strings.TrimSpace(sel.Text()) == label {
			node = sel.Get(0)
			return false
		}
		return true
	})
	if node == nil {
		return "", s.page.missing(label)
	}

	sib := node.NextSibling
	if sib == nil {
		return "", s.page.missing(label + " value")
	}
	if sib.Type == html.TextNode {
		return textutil.Normalize(sib.Data), nil
	}
	return textutil.Normalize(goquery.NewDocumentFromNode(sib).Text()), nil
}

func (s *Submission) categoryTheme() ([2]string, error) {
	return memo(s, "category_theme", func() ([2]string, error) {
		text, err := s.labeledText("Category:")
		if err != nil {
			return [2]string{}, err
		}
		m := categoryThemeRegex.FindStringSubmatch(text)
		if m == nil {
			return [2]string{}, errs.New(errs.ErrorTypeParsing, "category %q has no theme", text)
		}
		return [2]string{textutil.Normalize(m[1]), textutil.Normalize(m[2])}, nil
	})
}

// Category returns the first half of the "Category: X > Y" field
func (s *Submission) Category() (string, error) {
	parts, err := s.categoryTheme()
	return parts[0], err
}

// Theme returns the second half of the "Category: X > Y" field
func (s *Submission) Theme() (string, error) {
	parts, err := s.categoryTheme()
	return parts[1], err
}

// Species returns the species field
func (s *Submission) Species() (string, error) {
	return memo(s, "species", func() (string, error) { return s.labeledText("Species:") })
}

// Gender returns the gender field
func (s *Submission) Gender() (string, error) {
	return memo(s, "gender", func() (string, error) { return s.labeledText("Gender:") })
}

type stats struct {
	views, favorites, comments int
}

// stats reads the "views | favorites | comments" region. Pages that render
// each count under its own heading are read from those headings instead.
func (s *Submission) stats() (stats, error) {
	return memo(s, "stats", func() (stats, error) {
		region := s.page.Doc.Find(".stats-container").First()
		if region.Length() > 0 {
			return parseStatsRegion(textutil.Normalize(region.Text()))
		}

		var st stats
		for _, f := range []struct {
			heading string
			dst     *int
		}{
			{"Views", &st.views},
			{"Favs", &st.favorites},
			{"Comments", &st.comments},
		} {
			n, err := s.headingCount(f.heading)
			if err != nil {
				return stats{}, err
			}
			*f.dst = n
		}
		return st, nil
	})
}

func parseStatsRegion(text string) (stats, error) {
	segments := strings.Split(text, "|")
	if len(segments) != 3 {
		return stats{}, errs.New(errs.ErrorTypeParsing, "stats %q do not have three parts", text)
	}

	var counts [3]int
	for i, seg := range segments {
		n, err := parseCount(seg)
		if err != nil {
			return stats{}, err
		}
		counts[i] = n
	}
	return stats{views: counts[0], favorites: counts[1], comments: counts[2]}, nil
}

func (s *Submission) headingCount(heading string) (int, error) {
	var text string
	found := false
	s.page.Doc.Find("h3").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if strings.TrimSpace(sel.Text()) != heading {
			return true
		}
		found = true
		text = sel.NextAllFiltered("span").First().Text()
		if text == "" {
			text = sel.Parent().Find("span").First().Text()
		}
		return false
	})
	if !found {
		return 0, s.page.missing(heading + " count")
	}
	return parseCount(text)
}

func parseCount(text string) (int, error) {
	m := digitsRegex.FindString(text)
	if m == "" {
		return 0, errs.New(errs.ErrorTypeParsing, "no number in %q", textutil.Normalize(text))
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m, ",", ""))
	if err != nil {
		return 0, errs.Wrap(errs.ErrorTypeParsing, err, "bad number %q", m)
	}
	return n, nil
}

// ViewCount returns the number of views
func (s *Submission) ViewCount() (int, error) {
	st, err := s.stats()
	return st.views, err
}

// FavoriteCount returns the number of favorites
func (s *Submission) FavoriteCount() (int, error) {
	st, err := s.stats()
	return st.favorites, err
}

// CommentCount returns the number of comments
func (s *Submission) CommentCount() (int, error) {
	st, err := s.stats()
	return st.comments, err
}

// Rating returns General, Mature or Adult
func (s *Submission) Rating() (string, error) {
	return memo(s, "rating", func() (string, error) {
		sel := s.page.Doc.Find("div.rating-box").First()
		if sel.Length() == 0 {
			return "", s.page.missing("rating")
		}
		return textutil.Normalize(sel.Text()), nil
	})
}

// Keywords returns keyword link texts in document order, duplicates kept
func (s *Submission) Keywords() ([]string, error) {
	kw, err := memo(s, "keywords", func() ([]string, error) {
		keywords := []string{}
		s.page.Doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
			if keywordsHrefRegex.MatchString(sel.AttrOr("href", "")) {
				keywords = append(keywords, textutil.Normalize(sel.Text()))
			}
		})
		return keywords, nil
	})
	return slices.Clone(kw), err
}

// TaggedUsers returns usernames linked with the user icon marker
func (s *Submission) TaggedUsers() ([]string, error) {
	users, err := memo(s, "tagged_users", func() ([]string, error) {
		users := []string{}
		s.page.Doc.Find("a.iconusername").Each(func(_ int, sel *goquery.Selection) {
			href := sel.AttrOr("href", "")
			if len(href) <= userLinkPrefixLen {
				return
			}
			users = append(users, textutil.Normalize(strings.TrimSuffix(href[userLinkPrefixLen:], "/")))
		})
		return users, nil
	})
	return slices.Clone(users), err
}

// Comments returns the flattened comment thread in display order
func (s *Submission) Comments() ([]Comment, error) {
	comments, err := memo(s, "comments", func() ([]Comment, error) {
		comments := []Comment{}
		var parseErr error
		s.page.Doc.Find(".container-comment").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			c, err := parseComment(sel)
			if err != nil {
				parseErr = err
				return false
			}
			comments = append(comments, c)
			return true
		})
		if parseErr != nil {
			return nil, parseErr
		}
		return comments, nil
	})
	return slices.Clone(comments), err
}

func parseComment(sel *goquery.Selection) (Comment, error) {
	id := strings.TrimPrefix(sel.AttrOr("id", ""), commentIDPrefix)

	width := 100
	if m := widthStyleRegex.FindStringSubmatch(sel.AttrOr("style", "")); m != nil {
		w, err := strconv.Atoi(m[1])
		if err != nil {
			return Comment{}, errs.Wrap(errs.ErrorTypeParsing, err, "comment %s has a bad width", id)
		}
		width = w
	}
	depth := width - 100
	if depth < 0 {
		depth = -depth
	}

	return Comment{
		ID:     id,
		Depth:  depth / 3,
		Author: textutil.Normalize(sel.Find(".replyto-name").First().Text()),
		Text:   textutil.Normalize(sel.Find(".replyto-message").First().Text()),
	}, nil
}

func (s *Submission) newFile(rawURL string) *File {
	f := NewFile(rawURL, s.http)
	f.logger = s.logger
	return f
}

// File returns the submission's full-size file
func (s *Submission) File() (*File, error) {
	return memo(s, "file", func() (*File, error) {
		var href string
		s.page.Doc.Find("a").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			if strings.TrimSpace(sel.Text()) == "Download" {
				href = sel.AttrOr("href", "")
				return false
			}
			return true
		})
		if href == "" {
			return nil, s.page.missing("download link")
		}
		return s.newFile(ResolveURL(s.baseURL, href)), nil
	})
}

// Thumb returns the submission's preview image
func (s *Submission) Thumb() (*File, error) {
	return memo(s, "thumb", func() (*File, error) {
		src, ok := s.page.Doc.Find("img#submissionImg").First().Attr("data-preview-src")
		if !ok || src == "" {
			return nil, s.page.missing("preview image")
		}
		return s.newFile(ResolveURL(s.baseURL, src)), nil
	})
}

// HTML returns the whole page re-serialized
func (s *Submission) HTML() (string, error) {
	out, err := s.page.Doc.Html()
	if err != nil {
		return "", errs.Wrap(errs.ErrorTypeParsing, err, "failed to render page")
	}
	return out, nil
}
