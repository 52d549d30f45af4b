package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/openfueldata/cardata/internal/statcan"
)

var registrationsCmd = &cobra.Command{
	Use:   "registrations",
	Short: "Ingest the Statistics Canada vehicle registration tables",
	Long: `Downloads the StatCan bulk zip for each registration and fuel-sale
table, extracts the data CSV member, normalizes headers and reference months,
and replaces the corresponding DuckDB table.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return statcan.Ingest(context.Background(), appConfig, dataStore, rootLogger)
	},
}
