package main

import (
	"github.com/spf13/cobra"
)

func newSettingsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show your account or site settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "account",
		Short: "Show the account settings form values",
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

			settings, err := client.AccountSettings(cmd.Context())
			if err != nil {
				return err
			}
			a.out.Map(settings.Values())
			return nil
		},
	}, &cobra.Command{
		Use:   "site",
		Short: "Show the site settings form values",
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

			settings, err := client.SiteSettings(cmd.Context())
			if err != nil {
				return err
			}
			a.out.Map(settings.Values())
			return nil
		},
	})
	return cmd
}
