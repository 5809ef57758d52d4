package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sportsbuddy/internal/domain"
)

func (c *cli) promoteCmd() *cobra.Command {
	var email, role string
	cmd := &cobra.Command{
		Use:   "promote",
		Short: "Set the role of a registered user",
		Long:  "Sets a user's role. This is the only way to grant the admin role.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, ok := domain.ParseRole(role)
			if !ok {
				return fmt.Errorf("unknown role %q", role)
			}
			a, err := openApp(cmd.Context(), c.cfg, c.logger)
			if err != nil {
				return err
			}
			defer a.Close()

			user, err := a.auth.Promote(cmd.Context(), email, r)
			if err != nil {
				return fmt.Errorf("promote %s: %w", email, err)
			}
			fmt.Fprintf(c.out, "%s is now %s\n", user.Email, user.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email of the user")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleAdmin), "role to grant (user, organizer, admin)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
