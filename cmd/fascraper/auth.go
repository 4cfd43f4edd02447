package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"fascraper/pkg/auth"
	"fascraper/pkg/ui"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newAuthCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage stored session cookies",
		Long: `Manage the Fur Affinity session cookies fascraper logs in with.

Cookies are stored in:
  - the system keychain, when available
  - an encrypted file (PBKDF2 key derivation, AES-GCM)

FASCRAPER_COOKIE_A and FASCRAPER_COOKIE_B are read from the environment
as a read-only fallback. Never share your cookies or config files.`,
	}

	cmd.AddCommand(newLoginCmd(a), newLogoutCmd(a), newAuthListCmd(a), newGuideCmd(a))
	return cmd
}

func newLoginCmd(a *app) *cobra.Command {
	var skipGuide bool

	cmd := &cobra.Command{
		Use:   "login [username]",
		Short: "Store session cookies securely",
		Long: `Store the "a" and "b" session cookies of a logged in browser.

You will be prompted for your username (unless given), both cookie values
(hidden while typing) and an optional User-Agent.`,
		Example: `  # Interactive login
  fascraper auth login

  # Login with username
  fascraper auth login myusername`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runLogin(cmd, args, skipGuide)
		},
	}
	cmd.Flags().BoolVar(&skipGuide, "no-guide", false, "skip the cookie extraction guide")
	return cmd
}

func (a *app) runLogin(cmd *cobra.Command, args []string, skipGuide bool) error {
	manager, err := a.credentials()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}
	w := cmd.OutOrStdout()
	reader := a.reader()

	if skipGuide {
		auth.WriteQuickGuide(w)
	} else {
		auth.WriteCookieGuide(w)
	}
	fmt.Fprintln(w)

	var username string
	if len(args) > 0 {
		username = strings.TrimSpace(args[0])
	}
	if username == "" {
		if username, err = prompt(w, reader, "Username: "); err != nil {
			return err
		}
	}
	if username == "" {
		return errors.New("username is required")
	}

	if existing, _ := manager.Retrieve(username); existing != nil {
		answer, err := prompt(w, reader, fmt.Sprintf("Account '%s' already exists. Update cookies? (y/N): ", username))
		if err != nil {
			return err
		}
		if !strings.HasPrefix(strings.ToLower(answer), "y") {
			return nil
		}
	}

	cookieA, err := a.readSecret(w, reader, `Cookie "a": `)
	if err != nil {
		return err
	}
	cookieB, err := a.readSecret(w, reader, `Cookie "b": `)
	if err != nil {
		return err
	}
	userAgent, err := prompt(w, reader, "User-Agent (Enter for default): ")
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	account := &auth.Account{
		Username:  username,
		CookieA:   cookieA,
		CookieB:   cookieB,
		UserAgent: userAgent,
	}
	if err := manager.Store(account); err != nil {
		return fmt.Errorf("failed to store cookies: %w", err)
	}

	a.out.Success("Account saved: " + username)
	a.out.Dim("Try: fascraper gallery <username>")
	return nil
}

func newLogoutCmd(a *app) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "logout [username]",
		Short: "Remove stored cookies",
		Example: `  # Remove one account
  fascraper auth logout myusername

  # Remove every stored account
  fascraper auth logout --all`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := a.credentials()
			if err != nil {
				return fmt.Errorf("failed to initialize credential manager: %w", err)
			}

			if all {
				if err := manager.DeleteAll(); err != nil {
					return fmt.Errorf("failed to remove accounts: %w", err)
				}
				a.out.Success("All accounts removed")
				return nil
			}

			username := a.account
			if len(args) > 0 {
				username = args[0]
			}
			if username == "" {
				accounts, err := manager.List()
				if err != nil {
					return err
				}
				if len(accounts) != 1 {
					return errors.New("specify the account to remove, or use --all")
				}
				username = accounts[0].Username
			}

			if err := manager.Delete(username); err != nil {
				return fmt.Errorf("failed to remove account: %w", err)
			}
			a.out.Success("Account removed: " + username)
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "remove every stored account")
	return cmd
}

func newAuthListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored accounts with masked cookies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := a.credentials()
			if err != nil {
				return fmt.Errorf("failed to initialize credential manager: %w", err)
			}

			accounts, err := manager.List()
			if err != nil {
				return err
			}
			if len(accounts) == 0 {
				a.out.Info("No stored accounts", "use 'fascraper auth login' to add one")
				return nil
			}

			a.out.Highlight("Stored accounts")
			for _, account := range accounts {
				s := auth.SanitizeAccount(account)
				rows := []ui.Field{
					{Label: "Username", Value: s.Username},
					{Label: "Cookie a", Value: s.CookieA},
					{Label: "Cookie b", Value: s.CookieB},
				}
				if s.UserAgent != "" {
					rows = append(rows, ui.Field{Label: "User-Agent", Value: s.UserAgent})
				}
				if !s.LastModified.IsZero() {
					rows = append(rows, ui.Field{Label: "Saved", Value: humanize.Time(s.LastModified)})
				}
				a.out.Fields(rows)
				a.out.Raw("")
			}
			return nil
		},
	}
}

func newGuideCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "guide",
		Short: "Explain how to copy the session cookies from a browser",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			auth.WriteCookieGuide(cmd.OutOrStdout())
		},
	}
}

func (a *app) reader() *bufio.Reader {
	if br, ok := a.in.(*bufio.Reader); ok {
		return br
	}
	br := bufio.NewReader(a.in)
	a.in = br
	return br
}

func prompt(w io.Writer, r *bufio.Reader, label string) (string, error) {
	fmt.Fprint(w, label)
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return strings.TrimSpace(line), err
	}
	return strings.TrimSpace(line), nil
}

// readSecret reads without echo when standard input is a terminal
func (a *app) readSecret(w io.Writer, r *bufio.Reader, label string) (string, error) {
	if a.interactive {
		fmt.Fprint(w, label)
		secret, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(w)
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}
	return prompt(w, r, label)
}
