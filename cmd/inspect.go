package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openfueldata/cardata/internal/inspector"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print row counts and column summaries for the persisted tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		summaries, err := inspector.Inspect(context.Background(), dataStore.DB(), rootLogger)
		if err != nil {
			return err
		}
		fmt.Print(inspector.Render(summaries))
		return nil
	},
}
