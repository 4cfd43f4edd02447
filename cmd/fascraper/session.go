package main

import (
	"context"
	"errors"

	"fascraper/pkg/auth"
	"fascraper/pkg/config"
	"fascraper/pkg/furaffinity"

	"github.com/spf13/cobra"
)

// errNoCredentials is returned when a command needs a session and none of
// the credential sources has one
var errNoCredentials = errors.New("no session cookies found; run 'fascraper auth login' or set FASCRAPER_COOKIE_A and FASCRAPER_COOKIE_B")

// cookieSource picks the cookies to log in with: a named stored account,
// then cookies from configuration, then the default stored account.
func (a *app) cookieSource(cfg *config.Config) (map[string]string, string, error) {
	if a.account == "" && cfg.HasCookies() {
		return cfg.Cookies(), "", nil
	}

	manager, err := a.credentials()
	if err != nil {
		return nil, "", err
	}

	var account *auth.Account
	if a.account != "" {
		account, err = manager.Retrieve(a.account)
	} else {
		account, err = manager.RetrieveDefault()
	}
	if errors.Is(err, auth.ErrCredentialsNotFound) {
		return nil, "", errNoCredentials
	}
	if err != nil {
		return nil, "", err
	}
	return account.Cookies(), account.UserAgent, nil
}

// session builds a client from configuration and logs it in. With
// optional set, a missing cookie source yields an anonymous client instead
// of an error.
func (a *app) session(ctx context.Context, cmd *cobra.Command, cfg *config.Config, optional bool) (*furaffinity.Client, error) {
	client, err := furaffinity.NewClientFromConfig(cfg, a.log)
	if err != nil {
		return nil, err
	}

	cookies, userAgent, err := a.cookieSource(cfg)
	if errors.Is(err, errNoCredentials) && optional {
		a.log.Debug("no session cookies, continuing anonymously")
		return client, nil
	}
	if err != nil {
		return nil, err
	}
	if userAgent != "" && !cmd.Flags().Changed("user-agent") {
		client.SetUserAgent(userAgent)
	}

	if err := client.LoginWithCookies(ctx, cookies); err != nil {
		return nil, err
	}
	return client, nil
}
