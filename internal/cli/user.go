package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anchalk04/smart-parking/internal/app"
	"github.com/anchalk04/smart-parking/internal/storage/postgres"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	cmd.AddCommand(newUserAddCmd())
	return cmd
}

func newUserAddCmd() *cobra.Command {
	var email, password string

	c := &cobra.Command{
		Use:   "add",
		Short: "Register a user (email/password)",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			defer e.Close()

			pool, err := e.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := app.NewAuthService(postgres.NewUserRepository(pool), nil)
			user, err := svc.Register(cmd.Context(), app.Credentials{Email: email, Password: password})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %q (%s)\n", user.Email, user.ID)
			return nil
		},
	}

	c.Flags().StringVar(&email, "email", "", "email")
	c.Flags().StringVar(&password, "password", "", "password")
	_ = c.MarkFlagRequired("email")
	_ = c.MarkFlagRequired("password")
	return c
}
