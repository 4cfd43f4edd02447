package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	errs "fascraper/pkg/errors"
	"fascraper/pkg/furaffinity"
	"fascraper/pkg/storage"
	"fascraper/pkg/ui"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

type submissionOptions struct {
	download     bool
	output       string
	replace      bool
	skip         bool
	hash         string
	showComments bool
}

func newSubmissionCmd(a *app) *cobra.Command {
	var opts submissionOptions

	cmd := &cobra.Command{
		Use:     "submission <id>",
		Aliases: []string{"view"},
		Short:   "Print a submission's details, optionally downloading its file",
		Example: `  # Show title, uploader, tags and stats
  fascraper submission 21590131

  # Download the file into ./downloads/<uploader>/ and print its digest
  fascraper submission 21590131 --download --hash blake2b`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSubmission(cmd, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.BoolVarP(&opts.download, "download", "d", false, "download the submission file")
	f.StringVarP(&opts.output, "output", "o", "", "download directory (default from configuration)")
	f.BoolVar(&opts.replace, "replace", false, "overwrite an existing file")
	f.BoolVar(&opts.skip, "skip", false, "keep an existing file and skip the download")
	f.StringVar(&opts.hash, "hash", "", "print the file digest with this algorithm")
	f.BoolVar(&opts.showComments, "comments", false, "print the comment thread")
	cmd.MarkFlagsMutuallyExclusive("replace", "skip")
	return cmd
}

func (a *app) runSubmission(cmd *cobra.Command, id string, opts submissionOptions) error {
	extra := map[string]interface{}{}
	if opts.output != "" {
		extra["output"] = opts.output
	}
	if cmd.Flags().Changed("replace") {
		extra["replace"] = opts.replace
	}
	if cmd.Flags().Changed("skip") {
		extra["skip"] = opts.skip
	}
	if opts.hash != "" {
		extra["hash"] = opts.hash
	}

	cfg, err := a.loadConfig(cmd, extra)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	client, err := a.session(ctx, cmd, cfg, false)
	if err != nil {
		return err
	}

	sub, err := client.GetSubmission(ctx, id)
	if err != nil {
		if errs.IsDomainError(err) {
			a.log.WarnWithFields("site refused submission", map[string]interface{}{
				"id":   id,
				"kind": string(errs.TypeOf(err)),
			})
		}
		return describeSubmissionError(id, err)
	}

	a.printSubmission(sub)
	if opts.showComments {
		a.printComments(sub)
	}

	if !opts.download && opts.hash == "" {
		return nil
	}

	file, err := sub.File()
	if err != nil {
		return err
	}

	if opts.download {
		manager, err := storage.NewManager(cfg.Download.BaseDirectory)
		if err != nil {
			return err
		}
		uploader, _ := sub.Uploader()
		name := sub.ID
		if title, err := sub.TitleSafe(); err == nil && title != "" {
			name = sub.ID + " - " + title
		}

		// Download swaps the extension, so dots inside the title need one after them
		final, err := file.Download(ctx, manager.Path(uploader, name)+".tmp", furaffinity.DownloadOptions{
			Replace: cfg.Download.Replace,
			Skip:    cfg.Download.Skip,
		})
		if err != nil {
			return err
		}
		if file.LocalPath() == "" {
			a.out.Warning("Kept existing file " + final)
		} else {
			var size int64
			if info, err := os.Stat(final); err == nil {
				size = info.Size()
			}
			manager.Record(final, size)
			a.out.Success(fmt.Sprintf("Saved %s (%s)", final, humanize.Bytes(uint64(manager.TotalBytes()))))
		}
	}

	if opts.hash != "" {
		sum, err := file.Hash(ctx, cfg.Download.HashAlgorithm)
		if err != nil {
			return err
		}
		a.out.Raw("%s  %s", hex.EncodeToString(sum), file.Filename())
	}
	return nil
}

// describeSubmissionError adds a hint for the failure pages the site serves
func describeSubmissionError(id string, err error) error {
	switch {
	case errors.Is(err, errs.ErrSubmissionNotFound):
		return fmt.Errorf("submission %s does not exist or was taken down: %w", id, err)
	case errors.Is(err, errs.ErrMaturityRestricted):
		return fmt.Errorf("submission %s is hidden by your maturity filter; enable mature content in the account settings: %w", id, err)
	case errors.Is(err, errs.ErrAccessDenied):
		return fmt.Errorf("submission %s is restricted by its owner: %w", id, err)
	case errors.Is(err, errs.ErrIPBanned):
		return fmt.Errorf("the site has banned this IP address: %w", err)
	default:
		return err
	}
}

func orDash(v string, err error) string {
	if err != nil || v == "" {
		return "-"
	}
	return v
}

func countOrDash(n int, err error) string {
	if err != nil {
		return "-"
	}
	return humanize.Comma(int64(n))
}

func listOrDash(v []string, err error) string {
	if err != nil || len(v) == 0 {
		return "-"
	}
	return strings.Join(v, ", ")
}

func (a *app) printSubmission(sub *furaffinity.Submission) {
	fileURL := "-"
	if f, err := sub.File(); err == nil {
		fileURL = f.URL()
	}
	posted := orDash(sub.TimeFormatted())
	if t, err := sub.Time(); err == nil {
		posted += " (" + humanize.Time(t) + ")"
	}

	a.out.Highlight(orDash(sub.Title()))
	a.out.Fields([]ui.Field{
		{Label: "ID", Value: sub.ID},
		{Label: "Uploader", Value: orDash(sub.Uploader())},
		{Label: "Posted", Value: posted},
		{Label: "Category", Value: orDash(sub.Category())},
		{Label: "Theme", Value: orDash(sub.Theme())},
		{Label: "Species", Value: orDash(sub.Species())},
		{Label: "Gender", Value: orDash(sub.Gender())},
		{Label: "Rating", Value: orDash(sub.Rating())},
		{Label: "Views", Value: countOrDash(sub.ViewCount())},
		{Label: "Favorites", Value: countOrDash(sub.FavoriteCount())},
		{Label: "Comments", Value: countOrDash(sub.CommentCount())},
		{Label: "Keywords", Value: listOrDash(sub.Keywords())},
		{Label: "Tagged", Value: listOrDash(sub.TaggedUsers())},
		{Label: "File", Value: fileURL},
	})
	if desc, err := sub.Description(); err == nil && desc != "" {
		a.out.Raw("")
		a.out.Raw("%s", desc)
	}
}

func (a *app) printComments(sub *furaffinity.Submission) {
	comments, err := sub.Comments()
	if err != nil {
		a.out.Warning("Comments could not be read: " + err.Error())
		return
	}
	a.out.Raw("")
	a.out.Highlight("Comments (" + strconv.Itoa(len(comments)) + ")")
	for _, c := range comments {
		indent := strings.Repeat("  ", c.Depth)
		a.out.Raw("%s#%s %s: %s", indent, c.ID, c.Author, c.Text)
	}
}
