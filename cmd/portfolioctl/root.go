package main

import (
	"context"

	"portfolio-backend-go/internal/config"
	"portfolio-backend-go/internal/db"
	"portfolio-backend-go/internal/docstore"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var driver string

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "portfolioctl",
	Short: "Maintenance tasks for the portfolio backend",
	Long: `portfolioctl prepares and inspects the document store used by the
portfolio server: schema migrations, admin accounts, seed content and view stats.

Connection settings come from the same environment variables as the server.`,
	SilenceUsage: true,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.PersistentFlags().StringVar(&driver, "driver", "", "docstore driver (overrides DOCSTORE_DRIVER)")
}

func openDocstore(ctx context.Context) (docstore.Store, error) {
	cfg := config.LoadDocstore()
	if driver != "" {
		cfg.Driver = driver
	}
	docs, err := db.OpenDocstore(ctx, cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s docstore", cfg.Driver)
	}
	return docs, nil
}
