package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/openfueldata/cardata/internal/app"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Interactive terminal UI over the pipeline operations",
	RunE: func(cmd *cobra.Command, args []string) error {
		model := app.New(appConfig, dataStore, rootLogger)
		if _, err := tea.NewProgram(model).Run(); err != nil {
			return fmt.Errorf("run tui: %w", err)
		}
		return nil
	},
}
