// Package furaffinity scrapes Fur Affinity pages into structured values.
//
// A Client holds a cookie session. Listings (gallery, scraps, favorites,
// search, the submissions inbox) return ListingEntry values; GetSubmission
// returns a Submission whose fields are parsed lazily from one page
// snapshot. Failure pages are detected by Classify before any field is read
// and surface as errors from fascraper/pkg/errors:
//
//	client := furaffinity.NewClient(30*time.Second, log)
//	if err := client.LoginWithCookies(ctx, map[string]string{"a": a, "b": b}); err != nil {
//	    return err
//	}
//	sub, err := client.GetSubmission(ctx, "12345")
//	if errors.Is(err, errs.ErrMaturityRestricted) {
//	    // account filter hides it
//	}
//	file, _ := sub.File()
//	path, err := file.Download(ctx, "downloads/12345", furaffinity.DownloadOptions{Skip: true})
package furaffinity
