package furaffinity

import (
	"net/url"
	"strconv"

	errs "fascraper/pkg/errors"
)

// ListingEntry is one submission reference found on a listing page
type ListingEntry struct {
	ID   int    `json:"id"`
	Kind string `json:"kind"`
}

// Comment is one entry of a submission's flattened comment thread
type Comment struct {
	ID     string `json:"id"`
	Depth  int    `json:"depth"`
	Author string `json:"author"`
	Text   string `json:"text"`
}

// PageOptions selects a run of consecutive listing pages. Zero values mean 1.
type PageOptions struct {
	Page     int
	NumPages int
}

func (o PageOptions) normalize() (PageOptions, error) {
	if o.Page < 0 || o.NumPages < 0 {
		return o, errs.New(errs.ErrorTypeInvalidArgument, "page and page count must not be negative")
	}
	if o.Page == 0 {
		o.Page = 1
	}
	if o.NumPages == 0 {
		o.NumPages = 1
	}
	return o, nil
}

// QueueOptions controls a read of the new submissions inbox
type QueueOptions struct {
	PageOptions
	// Nuke clears the inbox after reading it
	Nuke bool
}

// Ratings selects which content ratings a search includes
type Ratings struct {
	General bool
	Mature  bool
	Adult   bool
}

// Types selects which submission types a search includes
type Types struct {
	Art    bool
	Flash  bool
	Photo  bool
	Music  bool
	Story  bool
	Poetry bool
}

// Search defaults used when SearchOptions leaves them empty
const (
	DefaultSearchRange = "all"
	DefaultSearchSort  = "relevancy"
	DefaultSearchOrder = "desc"
)

// SearchOptions describes a search form submission
type SearchOptions struct {
	Query string
	// Range is one of day, 3days, week, month, all
	Range string
	// Sort is one of relevancy, date, popularity
	Sort string
	// Order is asc or desc
	Order    string
	Page     int
	NumPages int
	// Ratings defaults to all three ratings when nil
	Ratings *Ratings
	// Types defaults to art and photo when nil
	Types *Types
}

func (o SearchOptions) normalize() (SearchOptions, error) {
	if o.Query == "" {
		return o, errs.New(errs.ErrorTypeInvalidArgument, "search query is required")
	}
	pages, err := PageOptions{Page: o.Page, NumPages: o.NumPages}.normalize()
	if err != nil {
		return o, err
	}
	o.Page, o.NumPages = pages.Page, pages.NumPages

	if o.Range == "" {
		o.Range = DefaultSearchRange
	}
	if o.Sort == "" {
		o.Sort = DefaultSearchSort
	}
	if o.Order == "" {
		o.Order = DefaultSearchOrder
	}
	if o.Ratings == nil {
		o.Ratings = &Ratings{General: true, Mature: true, Adult: true}
	}
	if o.Types == nil {
		o.Types = &Types{Art: true, Photo: true}
	}
	return o, nil
}

// form builds the POST body for one page. Unset flags are omitted.
func (o SearchOptions) form(page int) url.Values {
	form := url.Values{}
	form.Set("q", o.Query)
	form.Set("page", strconv.Itoa(page))
	form.Set("perpage", strconv.Itoa(SearchResultsPerPage))
	form.Set("order-by", o.Sort)
	form.Set("order-direction", o.Order)
	form.Set("range", o.Range)
	form.Set("do_search", "Search")
	form.Set("mode", "extended")

	flags := []struct {
		name string
		on   bool
	}{
		{"rating-general", o.Ratings.General},
		{"rating-mature", o.Ratings.Mature},
		{"rating-adult", o.Ratings.Adult},
		{"type-art", o.Types.Art},
		{"type-flash", o.Types.Flash},
		{"type-photo", o.Types.Photo},
		{"type-music", o.Types.Music},
		{"type-story", o.Types.Story},
		{"type-poetry", o.Types.Poetry},
	}
	for _, f := range flags {
		if f.on {
			form.Set(f.name, "on")
		}
	}
	return form
}

// AccountSettings holds the account settings form values. A field is nil
// when the form did not carry it.
type AccountSettings struct {
	FullName   *string `json:"fullname,omitempty"`
	UserEmail  *string `json:"useremail,omitempty"`
	Timezone   *string `json:"timezone,omitempty"`
	BirthDay   *string `json:"bdayday,omitempty"`
	BirthMonth *string `json:"bdaymonth,omitempty"`
	BirthYear  *string `json:"bdayyear,omitempty"`
	ViewMature *string `json:"viewmature,omitempty"`
	Style      *string `json:"style,omitempty"`
	Stylesheet *string `json:"stylesheet,omitempty"`
}

// Values returns the settings keyed by their form names, skipping unset ones
func (s AccountSettings) Values() map[string]string {
	return collectValues(map[string]*string{
		"fullname":   s.FullName,
		"useremail":  s.UserEmail,
		"timezone":   s.Timezone,
		"bdayday":    s.BirthDay,
		"bdaymonth":  s.BirthMonth,
		"bdayyear":   s.BirthYear,
		"viewmature": s.ViewMature,
		"style":      s.Style,
		"stylesheet": s.Stylesheet,
	})
}

// SiteSettings holds the site settings form values. Checkbox settings are
// "1" or "0".
type SiteSettings struct {
	DisableAvatars          *string `json:"disable_avatars,omitempty"`
	DateFormat              *string `json:"date_format,omitempty"`
	PerPage                 *string `json:"perpage,omitempty"`
	NewSubmissionsDirection *string `json:"newsubmissions_direction,omitempty"`
	ThumbnailSize           *string `json:"thumbnail_size,omitempty"`
	HideFavorites           *string `json:"hide_favorites,omitempty"`
	NoGuests                *string `json:"no_guests,omitempty"`
	NoNotes                 *string `json:"no_notes,omitempty"`
}

// Values returns the settings keyed by their form names, skipping unset ones
func (s SiteSettings) Values() map[string]string {
	return collectValues(map[string]*string{
		"disable_avatars":          s.DisableAvatars,
		"date_format":              s.DateFormat,
		"perpage":                  s.PerPage,
		"newsubmissions_direction": s.NewSubmissionsDirection,
		"thumbnail_size":           s.ThumbnailSize,
		"hide_favorites":           s.HideFavorites,
		"no_guests":                s.NoGuests,
		"no_notes":                 s.NoNotes,
	})
}

func collectValues(in map[string]*string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		if v != nil {
			out[k] = *v
		}
	}
	return out
}
