package main

import (
	"encoding/json"
	"time"

	"portfolio-backend-go/internal/services"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var snapshot bool

//nolint:gochecknoglobals // Cobra boilerplate
var viewsCmd = &cobra.Command{
	Use:   "views",
	Short: "Show page view statistics",
	Long: `Print the view counter document. With --snapshot the weekly snapshot is
rolled first when it is due.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		docs, err := openDocstore(cmd.Context())
		if err != nil {
			return err
		}
		defer docs.Close()

		portfolio := services.NewPortfolio(docs)
		stats, err := portfolio.FetchViewStats(cmd.Context())
		if snapshot && err == nil {
			stats, err = portfolio.SnapshotViews(cmd.Context(), time.Now())
		}
		if err != nil {
			return errors.Wrap(err, "view stats")
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	},
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(viewsCmd)
	viewsCmd.Flags().BoolVar(&snapshot, "snapshot", false, "Roll the weekly snapshot when due")
}
