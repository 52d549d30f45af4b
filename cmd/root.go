package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openfueldata/cardata/internal/config"
	"github.com/openfueldata/cardata/internal/store"
)

var (
	// Config flags, bound in init().
	catalogURL      string
	listingURL      string
	inputDir        string
	outputDir       string
	dbPath          string
	typeSampleLimit int
	logFormat       string
	logLevel        string
	logOutput       string

	// Populated in PersistentPreRunE.
	rootLogger *slog.Logger
	dataStore  *store.Store
	appConfig  config.Config
)

var rootCmd = &cobra.Command{
	Use:   "cardata",
	Short: "Ingest Canadian vehicle fuel consumption data into DuckDB.",
	Long: `cardata pulls the NRCan fuel consumption ratings from the open.canada.ca
catalog, reconciles the fuel-only, hybrid, and electric CSV families into one
superset schema, and persists the result into an embedded DuckDB file.

The primary command is 'run', which executes the whole pipeline. Other
commands ingest the Statistics Canada registration tables, inspect or export
the persisted tables, or start an interactive UI.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var level slog.Level
		switch strings.ToLower(logLevel) {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		default:
			level = slog.LevelInfo
		}

		var logWriter io.Writer = os.Stderr
		switch strings.ToLower(logOutput) {
		case "", "stderr":
		case "stdout":
			logWriter = os.Stdout
		default:
			f, err := os.OpenFile(logOutput, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
			if err != nil {
				return fmt.Errorf("open log file %s: %w", logOutput, err)
			}
			logWriter = f
		}

		opts := &slog.HandlerOptions{Level: level}
		var handler slog.Handler
		if logFormat == "json" {
			handler = slog.NewJSONHandler(logWriter, opts)
		} else {
			handler = slog.NewTextHandler(logWriter, opts)
		}
		rootLogger = slog.New(handler)
		slog.SetDefault(rootLogger)

		appConfig = config.Config{
			CatalogURL:      catalogURL,
			ListingURL:      listingURL,
			InputDir:        inputDir,
			OutputDir:       outputDir,
			DBPath:          dbPath,
			TypeSampleLimit: typeSampleLimit,
		}
		if appConfig.CatalogURL == "" || appConfig.InputDir == "" || appConfig.DBPath == "" {
			return fmt.Errorf("--catalog-url, --input-dir, and --db-path are required")
		}

		var err error
		dataStore, err = store.Open(appConfig.DBPath, rootLogger)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if dataStore != nil {
			if err := dataStore.Close(); err != nil {
				rootLogger.Error("Failed to close database cleanly.", "error", err)
			}
		}
		return nil
	},
}

// Execute runs the root command. Called once from main.
func Execute() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(registrationsCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(tuiCmd)

	if err := rootCmd.Execute(); err != nil {
		if rootLogger != nil {
			rootLogger.Error("Command failed.", "error", err)
		} else {
			fmt.Fprintf(os.Stderr, "command failed: %v\n", err)
		}
		os.Exit(1)
	}
}

func init() {
	defaults := config.Default()
	rootCmd.PersistentFlags().StringVar(&catalogURL, "catalog-url", defaults.CatalogURL, "CKAN package_show endpoint for the fuel consumption dataset")
	rootCmd.PersistentFlags().StringVar(&listingURL, "listing-url", defaults.ListingURL, "HTML listing page scraped for .csv links when the catalog yields nothing")
	rootCmd.PersistentFlags().StringVarP(&inputDir, "input-dir", "i", defaults.InputDir, "Directory for downloaded raw CSV payloads")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output-dir", "o", defaults.OutputDir, "Directory for exported Parquet files")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db-path", "d", defaults.DBPath, "Path to the DuckDB database file (:memory: for in-memory)")
	rootCmd.PersistentFlags().IntVar(&typeSampleLimit, "type-sample", defaults.TypeSampleLimit, "Rows sampled per column for type inference (0 scans all)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log output format (text or json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logOutput, "log-output", "stderr", "Log output destination (stderr, stdout, or file path)")

	rootCmd.Version = "0.1.0"
}
