package furaffinity

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// BaseURL is the site root every endpoint hangs off
	BaseURL = "https://www.furaffinity.net"

	// SearchResultsPerPage is the page size requested from the search form
	SearchResultsPerPage = 72

	queuePath          = "/msg/submissions/old/"
	nukePath           = "/msg/submissions/"
	searchPath         = "/search/"
	accountSettingPath = "/controls/settings/"
	siteSettingPath    = "/controls/site-settings/"
)

// ListingKind names one of the per-user submission listings
type ListingKind string

const (
	ListingGallery   ListingKind = "gallery"
	ListingScraps    ListingKind = "scraps"
	ListingFavorites ListingKind = "favorites"
)

// Valid reports whether k is a known listing
func (k ListingKind) Valid() bool {
	switch k {
	case ListingGallery, ListingScraps, ListingFavorites:
		return true
	default:
		return false
	}
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + path
}

// HomeURL returns the front page used to check the session
func HomeURL(base string) string {
	return joinURL(base, "/")
}

// ListingURL returns the URL of one page of a user's listing. Usernames
// are case-insensitive on the site and always requested lowercased.
func ListingURL(base string, kind ListingKind, username string, page int) string {
	return joinURL(base, fmt.Sprintf("/%s/%s/%d", kind, url.PathEscape(SanitizeUsername(username)), page))
}

// SubmissionURL returns the view page of a submission
func SubmissionURL(base, id string) string {
	return joinURL(base, fmt.Sprintf("/view/%s/", url.PathEscape(id)))
}

// QueueURL returns the first page of the new submissions inbox
func QueueURL(base string) string {
	return joinURL(base, queuePath)
}

// NukeURL returns the form target for clearing the inbox
func NukeURL(base string) string {
	return joinURL(base, nukePath)
}

// SearchURL returns the search form target
func SearchURL(base string) string {
	return joinURL(base, searchPath)
}

// WatchlistURL returns one page of the logged in user's watch list
func WatchlistURL(base string, page int) string {
	return joinURL(base, fmt.Sprintf("/controls/buddylist/%d", page))
}

// AccountSettingsURL returns the account settings form
func AccountSettingsURL(base string) string {
	return joinURL(base, accountSettingPath)
}

// SiteSettingsURL returns the site settings form
func SiteSettingsURL(base string) string {
	return joinURL(base, siteSettingPath)
}

// ResolveURL resolves a link found on a page against the site root. Protocol
// relative links get an https scheme.
func ResolveURL(base, href string) string {
	switch {
	case strings.HasPrefix(href, "//"):
		return "https:" + href
	case strings.HasPrefix(href, "/"):
		return joinURL(base, href)
	default:
		return href
	}
}

// SanitizeUsername strips a leading "~" or "@", surrounding slashes and
// spaces, and lowercases the name.
func SanitizeUsername(username string) string {
	username = strings.TrimSpace(username)
	username = strings.TrimLeft(username, "~@")
	username = strings.Trim(username, "/ ")
	return strings.ToLower(username)
}
