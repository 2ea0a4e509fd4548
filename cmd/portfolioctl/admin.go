package main

import (
	"fmt"
	"os"

	"portfolio-backend-go/internal/services"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var adminName string

//nolint:gochecknoglobals // Cobra boilerplate
var adminEmail string

//nolint:gochecknoglobals // Cobra boilerplate
var adminPassword string

//nolint:gochecknoglobals // Cobra boilerplate
var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create the admin account used to sign in",
	Example: `  portfolioctl create-admin --email me@example.com --password 's3cret-pass'
  ADMIN_PASSWORD=... portfolioctl create-admin --email me@example.com`,
	Args: cobra.NoArgs,
	RunE: runCreateAdmin,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(createAdminCmd)
	createAdminCmd.Flags().StringVar(&adminName, "name", "Admin", "Display name")
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "Sign-in email")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "Sign-in password (default $ADMIN_PASSWORD)")
	_ = createAdminCmd.MarkFlagRequired("email")
}

func runCreateAdmin(cmd *cobra.Command, args []string) error {
	password := adminPassword
	if password == "" {
		password = envPassword()
	}
	docs, err := openDocstore(cmd.Context())
	if err != nil {
		return err
	}
	defer docs.Close()

	accounts := services.Accounts{Docs: docs}
	user, err := accounts.Create(cmd.Context(), adminName, adminEmail, password)
	if err != nil {
		return errors.Wrap(err, "create admin")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", user.Email, user.ID)
	return nil
}

func envPassword() string {
	return os.Getenv("ADMIN_PASSWORD")
}
