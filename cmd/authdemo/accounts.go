package main

import (
	"encoding/json"
	"fmt"

	"github.com/jrsteele09/go-social-login/users"
	"github.com/spf13/cobra"
)

func newRegisterCmd(c *cli) *cobra.Command {
	var req users.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a local account and sign it in",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(c.cfg, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			if req.ConfirmPassword == "" {
				req.ConfirmPassword = req.Password
			}
			user, err := a.service.Register(req)
			if err != nil {
				return err
			}
			return printJSON(cmd, user)
		},
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "email address")
	cmd.Flags().StringVar(&req.Username, "username", "", "username (letters, digits, underscore)")
	cmd.Flags().StringVar(&req.Password, "password", "", "password")
	cmd.Flags().StringVar(&req.ConfirmPassword, "confirm-password", "", "password confirmation (defaults to --password)")
	cmd.Flags().BoolVar(&req.Newsletter, "newsletter", false, "subscribe to the newsletter")
	cmd.Flags().BoolVar(&req.AcceptTerms, "accept-terms", false, "accept the terms of service")
	return cmd
}

func newLocalLoginCmd(c *cli) *cobra.Command {
	var username, password string
	var remember bool
	cmd := &cobra.Command{
		Use:   "local-login",
		Short: "Sign in with a local username (or email) and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(c.cfg, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			if username == "" {
				if name, ok, err := a.accounts.RememberedUsername(); err == nil && ok {
					username = name
				}
			}
			user, err := a.service.Authenticate(username, password, remember)
			if err != nil {
				return err
			}
			return printJSON(cmd, user)
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "username or email (defaults to the remembered one)")
	cmd.Flags().StringVar(&password, "password", "", "password")
	cmd.Flags().BoolVar(&remember, "remember", false, "remember the username")
	return cmd
}

func newWhoamiCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(c.cfg, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			user, ok, err := a.service.CurrentUser()
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "not signed in")
				return nil
			}
			return printJSON(cmd, user)
		},
	}
}

func newLogoutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and drop every provider token",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(c.cfg, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()
			return a.service.Logout()
		},
	}
}

func newUsersCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List the known accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(c.cfg, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			all, err := a.accounts.List()
			if err != nil {
				return err
			}
			return printJSON(cmd, all)
		},
	}
}

func newClearCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every stored account and sign out",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(c.cfg, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()
			return a.service.ClearAll()
		},
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
