package main

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"fascraper/pkg/auth"
	"fascraper/pkg/config"
	"fascraper/pkg/logger"
	"fascraper/pkg/ui"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	version   = "0.1.0"
	gitCommit = "unknown"
	buildDate = "unknown"
)

// app carries global flag values and the collaborators commands share
type app struct {
	configFile        string
	logLevel          string
	noColor           bool
	quiet             bool
	account           string
	userAgent         string
	requestsPerMinute int
	timeout           time.Duration

	out *ui.Printer
	in  io.Reader
	log logger.Logger

	// interactive is set when standard input is a terminal
	interactive bool

	// credentials opens the credential manager; tests swap in memory stores
	credentials func() (*auth.Manager, error)
}

func newApp() *app {
	return &app{
		in:          os.Stdin,
		interactive: term.IsTerminal(int(os.Stdin.Fd())),
		credentials: auth.NewManager,
	}
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fascraper",
		Short: "Read submissions, galleries and searches from Fur Affinity",
		Long: `fascraper reads Fur Affinity pages with your browser session cookies.

It can print a submission's details, download and hash its file, list
galleries, scraps, favorites, search results, your submission inbox and
watchlist, and show your account settings.

Store your cookies once with 'fascraper auth login'.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if a.out == nil {
				a.out = ui.NewPrinter(cmd.OutOrStdout())
			}
			if a.noColor {
				a.out.SetColor(false)
			}
			a.out.SetQuiet(a.quiet)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.configFile, "config", "c", "", "config file (default is ./.fascraper.yaml or ~/.config/fascraper/config.yaml)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error, disabled)")
	flags.BoolVar(&a.noColor, "no-color", false, "disable colored output")
	flags.BoolVarP(&a.quiet, "quiet", "q", false, "print only results and errors")
	flags.StringVarP(&a.account, "account", "a", "", "use a specific stored account")
	flags.StringVar(&a.userAgent, "user-agent", "", "override the User-Agent header")
	flags.IntVar(&a.requestsPerMinute, "rate-limit", 0, "cap on requests per minute (0 keeps the configured value)")
	flags.DurationVar(&a.timeout, "timeout", 0, "HTTP timeout (0 keeps the configured value)")

	cmd.SetVersionTemplate(`fascraper {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)
	cmd.CompletionOptions.DisableDefaultCmd = true

	cmd.AddCommand(
		newAuthCmd(a),
		newConfigCmd(a),
		newSubmissionCmd(a),
		newListingCmd(a, listingGallery),
		newListingCmd(a, listingScraps),
		newListingCmd(a, listingFavorites),
		newSearchCmd(a),
		newQueueCmd(a),
		newWatchlistCmd(a),
		newSettingsCmd(a),
	)
	return cmd
}

// loadConfig resolves configuration for cmd, merging only the flags the
// user actually set.
func (a *app) loadConfig(cmd *cobra.Command, extra map[string]interface{}) (*config.Config, error) {
	flags := make(map[string]interface{})
	if cmd.Flags().Changed("log-level") {
		flags["log-level"] = a.logLevel
	}
	if cmd.Flags().Changed("user-agent") {
		flags["user-agent"] = a.userAgent
	}
	if cmd.Flags().Changed("rate-limit") {
		flags["requests-per-minute"] = a.requestsPerMinute
	}
	if cmd.Flags().Changed("timeout") {
		flags["timeout"] = a.timeout
	}
	for k, v := range extra {
		flags[k] = v
	}

	cfg, err := config.Load(a.configFile, flags)
	if err != nil {
		return nil, err
	}

	if a.log == nil {
		if err := logger.Initialize(&cfg.Logging); err != nil {
			return nil, err
		}
		a.log = logger.GetLogger()
	}
	a.log.DebugWithFields("configuration loaded", map[string]interface{}{
		"command":  cmd.CommandPath(),
		"base_url": cfg.Session.BaseURL,
	})
	return cfg, nil
}
