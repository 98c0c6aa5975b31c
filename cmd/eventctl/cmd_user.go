package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/sudanchapagain/event-booking-system/internal/models"

	"github.com/spf13/cobra"
)

type userCreator interface {
	Create(ctx context.Context, in *models.UserCreate) (*models.User, error)
}

type userDeps func(ctx context.Context) (userCreator, func(), error)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(newUserCreateCmdWith(func(ctx context.Context) (userCreator, func(), error) {
		a, err := openApp(ctx)
		if err != nil {
			return nil, nil, err
		}
		return a.Users, a.Close, nil
	}))
	return cmd
}

// newUserCreateCmdWith creates "eventctl user create". The printed ID is what
// clients send in the X-User-ID header.
func newUserCreateCmdWith(open userDeps) *cobra.Command {
	var in models.UserCreate
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user and print its ID",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Email = strings.TrimSpace(in.Email)
			in.Username = strings.TrimSpace(in.Username)
			if in.Email == "" || in.Username == "" {
				return fmt.Errorf("user create: --email and --username are required")
			}
			if in.Phone != "" {
				if err := models.ValidatePhone(in.Phone); err != nil {
					return fmt.Errorf("user create: %w", err)
				}
			}

			users, release, err := open(cmd.Context())
			if err != nil {
				return fmt.Errorf("user create: %w", err)
			}
			defer release()

			user, err := users.Create(cmd.Context(), &in)
			if err != nil {
				return fmt.Errorf("user create: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (%s)\n", user.ID, user.Username)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.Email, "email", "", "email address (required)")
	f.StringVar(&in.Username, "username", "", "username (required)")
	f.StringVar(&in.FirstName, "first-name", "", "first name")
	f.StringVar(&in.Phone, "phone", "", "mobile number starting with 98 or 97")
	f.BoolVar(&in.IsOrganizer, "organizer", false, "grant organizer access")
	f.BoolVar(&in.IsSiteAdmin, "admin", false, "grant site administrator access")
	return cmd
}
