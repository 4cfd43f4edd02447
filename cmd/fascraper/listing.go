package main

import (
	"fmt"
	"strings"

	errs "fascraper/pkg/errors"
	"fascraper/pkg/furaffinity"

	"github.com/duke-git/lancet/v2/slice"
	"github.com/spf13/cobra"
)

type listingCommand struct {
	kind    furaffinity.ListingKind
	aliases []string
	short   string
}

var (
	listingGallery   = listingCommand{kind: furaffinity.ListingGallery, short: "List a user's gallery"}
	listingScraps    = listingCommand{kind: furaffinity.ListingScraps, short: "List a user's scraps"}
	listingFavorites = listingCommand{kind: furaffinity.ListingFavorites, aliases: []string{"favourites", "favs"}, short: "List a user's favorites"}
)

func addPageFlags(cmd *cobra.Command, opts *furaffinity.PageOptions) {
	cmd.Flags().IntVar(&opts.Page, "page", 1, "first page to read")
	cmd.Flags().IntVarP(&opts.NumPages, "pages", "n", 1, "number of pages to read")
}

func (a *app) printEntries(entries []furaffinity.ListingEntry) {
	for _, e := range entries {
		a.out.Raw("%d\t%s", e.ID, e.Kind)
	}
	a.out.Info("Submissions", fmt.Sprintf("%d", len(entries)))
}

func newListingCmd(a *app, lc listingCommand) *cobra.Command {
	var opts furaffinity.PageOptions

	cmd := &cobra.Command{
		Use:     string(lc.kind) + " <username>",
		Aliases: lc.aliases,
		Short:   lc.short,
		Long: lc.short + `.

Each line holds a submission id and its type. Reading stops early when a
page reports that the listing has no more submissions.`,
		Example: fmt.Sprintf("  fascraper %s fakeartist --pages 3", lc.kind),
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd, nil)
			if err != nil {
				return err
			}
			client, err := a.session(cmd.Context(), cmd, cfg, false)
			if err != nil {
				return err
			}

			entries, err := client.ListUserSubmissions(cmd.Context(), lc.kind, args[0], opts)
			a.printEntries(entries)
			return err
		},
	}
	addPageFlags(cmd, &opts)
	return cmd
}

func newSearchCmd(a *app) *cobra.Command {
	var (
		opts    furaffinity.SearchOptions
		tags    bool
		ratings []string
		types   []string
	)

	cmd := &cobra.Command{
		Use:   "search <query...>",
		Short: "Search submissions",
		Long: `Search submissions using the extended search form.

Without --tags the arguments are joined into one query. With --tags each
argument is a keyword the results must carry. Search works without a
stored session, but the site then only returns general rated results.`,
		Example: `  fascraper search red fox --sort date --pages 2
  fascraper search --tags fox wolf --ratings general,mature`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if cmd.Flags().Changed("ratings") {
				if opts.Ratings, err = parseRatings(ratings); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("types") {
				if opts.Types, err = parseTypes(types); err != nil {
					return err
				}
			}

			cfg, err := a.loadConfig(cmd, nil)
			if err != nil {
				return err
			}
			client, err := a.session(cmd.Context(), cmd, cfg, true)
			if err != nil {
				return err
			}

			var entries []furaffinity.ListingEntry
			if tags {
				entries, err = client.SearchTags(cmd.Context(), args, opts)
			} else {
				opts.Query = strings.Join(args, " ")
				entries, err = client.Search(cmd.Context(), opts)
			}
			a.printEntries(entries)
			return err
		},
	}

	f := cmd.Flags()
	f.BoolVar(&tags, "tags", false, "treat the arguments as required keywords")
	f.StringVar(&opts.Range, "range", furaffinity.DefaultSearchRange, "time range: day, 3days, week, month, all")
	f.StringVar(&opts.Sort, "sort", furaffinity.DefaultSearchSort, "sort by relevancy, date or popularity")
	f.StringVar(&opts.Order, "order", furaffinity.DefaultSearchOrder, "asc or desc")
	f.StringSliceVar(&ratings, "ratings", nil, "ratings to include: general, mature, adult (default all)")
	f.StringSliceVar(&types, "types", nil, "types to include: art, flash, photo, music, story, poetry (default art,photo)")
	f.IntVar(&opts.Page, "page", 1, "first page to read")
	f.IntVarP(&opts.NumPages, "pages", "n", 1, "number of pages to read")
	return cmd
}

var (
	ratingNames = []string{"general", "mature", "adult"}
	typeNames   = []string{"art", "flash", "photo", "music", "story", "poetry"}
)

func checkNames(kind string, given, valid []string) ([]string, error) {
	given = slice.Map(given, func(_ int, s string) string { return strings.ToLower(strings.TrimSpace(s)) })
	for _, g := range given {
		if !slice.Contain(valid, g) {
			return nil, errs.New(errs.ErrorTypeInvalidArgument, "unknown %s %q (expected one of %s)", kind, g, strings.Join(valid, ", "))
		}
	}
	return given, nil
}

func parseRatings(names []string) (*furaffinity.Ratings, error) {
	names, err := checkNames("rating", names, ratingNames)
	if err != nil {
		return nil, err
	}
	return &furaffinity.Ratings{
		General: slice.Contain(names, "general"),
		Mature:  slice.Contain(names, "mature"),
		Adult:   slice.Contain(names, "adult"),
	}, nil
}

func parseTypes(names []string) (*furaffinity.Types, error) {
	names, err := checkNames("type", names, typeNames)
	if err != nil {
		return nil, err
	}
	return &furaffinity.Types{
		Art:    slice.Contain(names, "art"),
		Flash:  slice.Contain(names, "flash"),
		Photo:  slice.Contain(names, "photo"),
		Music:  slice.Contain(names, "music"),
		Story:  slice.Contain(names, "story"),
		Poetry: slice.Contain(names, "poetry"),
	}, nil
}

func newQueueCmd(a *app) *cobra.Command {
	var opts furaffinity.QueueOptions

	cmd := &cobra.Command{
		Use:   "queue",
		Short: "List the new submissions in your inbox",
		Long: `List the new submissions in your inbox, newest first.

--nuke afterwards asks the site to clear the inbox. The site does not
confirm the action, so check the inbox yourself.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd, nil)
			if err != nil {
				return err
			}
			client, err := a.session(cmd.Context(), cmd, cfg, false)
			if err != nil {
				return err
			}

			entries, err := client.Queue(cmd.Context(), opts)
			a.printEntries(entries)
			if err == nil && opts.Nuke {
				a.out.Warning("Requested the inbox to be cleared")
			}
			return err
		},
	}
	addPageFlags(cmd, &opts.PageOptions)
	cmd.Flags().BoolVar(&opts.Nuke, "nuke", false, "clear the inbox after reading it")
	return cmd
}

func newWatchlistCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watchlist",
		Short: "List the users you watch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd, nil)
			if err != nil {
				return err
			}
			client, err := a.session(cmd.Context(), cmd, cfg, false)
			if err != nil {
				return err
			}

			users, err := client.Watchlist(cmd.Context())
			for _, u := range users {
				a.out.Raw("%s", u)
			}
			a.out.Info("Watching", fmt.Sprintf("%d", len(users)))
			return err
		},
	}
}
