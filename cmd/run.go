package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/openfueldata/cardata/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full ingestion pipeline",
	Long: `Fetches the dataset catalog, downloads every English CSV resource,
reconciles the fuel-only, hybrid, and electric families into the unified
schema, and replaces the fuel, hybrid, electric, and all_vehicles tables in
the DuckDB file. Exits with status 1 when the catalog endpoint misbehaves or
any transformation step fails.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return pipeline.Run(context.Background(), appConfig, dataStore, rootLogger, nil)
	},
}
