package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"fascraper/pkg/config"
	"fascraper/pkg/furaffinity"
	"fascraper/pkg/ui"

	"github.com/duke-git/lancet/v2/slice"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration files",
		Long: `Manage fascraper configuration.

Values are resolved in this order, highest first:
  - command line flags
  - FASCRAPER_* environment variables
  - .env files (./.env, ~/.fascraper.env)
  - the YAML configuration file
  - defaults`,
	}

	cmd.AddCommand(newConfigInitCmd(a), newConfigShowCmd(a), newConfigValidateCmd(a))
	return cmd
}

func newConfigInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init [path]",
		Short: "Write a configuration file with the default values",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ".fascraper.yaml"
			if a.configFile != "" {
				path = a.configFile
			}
			if len(args) > 0 {
				path = args[0]
			}

			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("configuration file already exists: %s", path)
			}
			if err := config.DefaultConfig().Save(path); err != nil {
				return err
			}

			a.out.Success("Configuration file created: " + path)
			a.out.Dim("Cookies are better kept out of it; use 'fascraper auth login'.")
			return nil
		},
	}
}

func newConfigShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration with cookies masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd, nil)
			if err != nil {
				return err
			}

			display := *cfg
			display.Session.CookieA = mask(display.Session.CookieA)
			display.Session.CookieB = mask(display.Session.CookieB)

			data, err := yaml.Marshal(&display)
			if err != nil {
				return fmt.Errorf("failed to format configuration: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func newConfigValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration for errors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd, nil)
			if err != nil {
				return err
			}

			var problems []error
			if cfg.Download.BaseDirectory != "" {
				if err := os.MkdirAll(cfg.Download.BaseDirectory, 0755); err != nil {
					problems = append(problems, fmt.Errorf("cannot create download directory: %w", err))
				}
			}
			if !supportedHash(cfg.Download.HashAlgorithm) {
				problems = append(problems, fmt.Errorf("unsupported hash algorithm %q", cfg.Download.HashAlgorithm))
			}
			if err := errors.Join(problems...); err != nil {
				return err
			}

			if !cfg.HasCookies() {
				a.out.Warning("No cookies configured; stored accounts will be used")
			}
			a.out.Success("Configuration is valid")
			a.out.Fields([]ui.Field{
				{Label: "Base URL", Value: cfg.Session.BaseURL},
				{Label: "Download directory", Value: cfg.Download.BaseDirectory},
				{Label: "Rate limit", Value: fmt.Sprintf("%d requests/minute", cfg.RateLimit.RequestsPerMinute)},
				{Label: "Page delay", Value: cfg.RateLimit.PageDelay.String()},
				{Label: "Log level", Value: cfg.Logging.Level},
			})
			return nil
		},
	}
}

func supportedHash(name string) bool {
	name = strings.ReplaceAll(strings.ToLower(name), "-", "_")
	return slice.Contain(furaffinity.SupportedHashes(), name)
}

func mask(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) <= 8:
		return "********"
	default:
		return s[:4] + "..." + s[len(s)-4:]
	}
}
