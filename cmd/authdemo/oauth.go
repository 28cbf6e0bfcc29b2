package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// newOAuthCmd builds "login" or "signup": one OAuth attempt with the named provider.
func newOAuthCmd(c *cli, action string) *cobra.Command {
	var deny string
	cmd := &cobra.Command{
		Use:       action + " <provider>",
		Short:     fmt.Sprintf("OAuth %s with google or github", action),
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"google", "github"},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(c.cfg, appOptions{denyReason: deny})
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), c.cfg.GetConsentTimeout())
			defer cancel()

			out := a.service.OAuthLogin
			if action == "signup" {
				out = a.service.OAuthSignup
			}
			res := out(ctx, args[0])
			if !res.Success {
				return fmt.Errorf("%s %s failed: %s", args[0], action, res.Error)
			}
			return printJSON(cmd, res.User)
		},
	}
	cmd.Flags().StringVar(&deny, "deny", "", "simulate the user declining consent with this error code (mock provider only)")
	return cmd
}
