package furaffinity

import (
	errs "fascraper/pkg/errors"
)

// Markers the site renders in place of a submission
const (
	SystemErrorTitle   = "System Error"
	IPBanMarker        = "Your IP address has been banned."
	MaturityMarker     = "This submission contains Mature or Adult content"
	AccessDeniedMarker = "You are not allowed to view this image"
)

// Classify returns the domain error for a failure page, or nil when the page
// looks like a real submission. Checks run in a fixed priority order and the
// first hit wins.
func Classify(p *Page) error {
	switch {
	case p.Title() == SystemErrorTitle:
		return errs.New(errs.ErrorTypeSubmissionNotFound, "submission at %s has been taken down or does not exist", p.URL)
	case p.Contains(IPBanMarker):
		return errs.New(errs.ErrorTypeIPBanned, "the site reports this IP address as banned")
	case p.Contains(MaturityMarker):
		return errs.New(errs.ErrorTypeMaturityRestricted, "submission at %s is hidden by the account maturity filter", p.URL)
	case p.Contains(AccessDeniedMarker):
		return errs.New(errs.ErrorTypeAccessDenied, "access to submission at %s was denied", p.URL)
	default:
		return nil
	}
}
