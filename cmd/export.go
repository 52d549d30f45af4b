package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/openfueldata/cardata/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the persisted tables to Parquet files",
	RunE: func(cmd *cobra.Command, args []string) error {
		return export.Tables(context.Background(), dataStore.DB(), appConfig.OutputDir, rootLogger)
	},
}
