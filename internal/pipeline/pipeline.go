// Package pipeline runs the full ingestion sequence: catalog discovery,
// download, normalization, categorical decoding, reshaping, union, and
// persistence. Everything is sequential; a transformation failure anywhere
// stops the run, while per-dataset download failures only skip that dataset.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"

	"github.com/openfueldata/cardata/internal/catalog"
	"github.com/openfueldata/cardata/internal/clean"
	"github.com/openfueldata/cardata/internal/config"
	"github.com/openfueldata/cardata/internal/fetch"
	"github.com/openfueldata/cardata/internal/store"
	"github.com/openfueldata/cardata/internal/transform"
	"github.com/openfueldata/cardata/internal/util"
)

// Pipeline stages reported through the progress callback.
const (
	StageCatalog   = "catalog"
	StageDownload  = "download"
	StageTransform = "transform"
	StagePersist   = "persist"
)

// Progress receives stage updates; nil disables reporting. Used by the TUI,
// the plain run command passes nil and relies on logs.
type Progress func(stage string, current, total int, detail string)

// Run executes the whole pipeline against the configured catalog and DuckDB
// file. The returned error is fatal: either the catalog contract was violated
// (bad status / non-JSON) or a transformation or persistence step failed.
func Run(ctx context.Context, cfg config.Config, st *store.Store, logger *slog.Logger, notify Progress) error {
	report := func(stage string, current, total int, detail string) {
		if notify != nil {
			notify(stage, current, total, detail)
		}
	}

	report(StageCatalog, 0, 1, cfg.CatalogURL)
	client := util.DefaultHTTPClient()
	datasets, err := catalog.Fetch(ctx, client, cfg.CatalogURL, logger)
	if err != nil {
		return err
	}
	if len(datasets) == 0 && cfg.ListingURL != "" {
		logger.Warn("Catalog yielded nothing, scraping the listing page instead.", "url", cfg.ListingURL)
		if datasets, err = catalog.ScrapeListing(ctx, client, cfg.ListingURL, logger); err != nil {
			return err
		}
	}
	if len(datasets) == 0 {
		return fmt.Errorf("catalog yielded no english datasets")
	}
	report(StageCatalog, 1, 1, fmt.Sprintf("%d datasets", len(datasets)))

	var (
		fuelFrames   []dataframe.DataFrame
		hybridDF     dataframe.DataFrame
		electricDF   dataframe.DataFrame
		hasHybrid    bool
		hasElec      bool
		downloadErrs []error
	)

	for i, ds := range datasets {
		report(StageDownload, i, len(datasets), ds.Name)
		l := logger.With(slog.String("dataset", ds.Name))

		// "Original" resources are the unnormalized agency extracts; the
		// conventional files carry the same data.
		if strings.Contains(ds.Name, "Original") {
			l.Debug("Skipping original-format resource.")
			continue
		}

		// Hybrid and electric payloads land under the stripped dataset
		// label; the yearly fuel-only files keep their full names.
		cat := transform.Categorize(ds.Name)
		saveName := ds.Name
		if cat != transform.FuelOnly {
			saveName = transform.CanonicalLabel(ds.Name)
		}

		start := time.Now()
		path, err := fetch.Download(ctx, client, l, cfg.InputDir, saveName, ds.URL)
		if err != nil {
			return err
		}
		if path == "" {
			// Download failure already logged; record it and carry on.
			if err := st.LogEvent(ctx, ds.Name, store.EventError, 0, time.Since(start), "download failed"); err != nil {
				l.Warn("Ingest log write failed.", "error", err)
			}
			downloadErrs = append(downloadErrs, fmt.Errorf("dataset %s: download failed", ds.Name))
			continue
		}
		if err := st.LogEvent(ctx, ds.Name, store.EventDownload, 0, time.Since(start), path); err != nil {
			l.Warn("Ingest log write failed.", "error", err)
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		df, err := prepare(raw)
		if err != nil {
			return fmt.Errorf("dataset %s: %w", ds.Name, err)
		}

		switch cat {
		case transform.Hybrid:
			if hybridDF, err = transform.Reshape(df, transform.Hybrid); err != nil {
				return fmt.Errorf("reshape %s: %w", ds.Name, err)
			}
			hasHybrid = true
		case transform.Electric:
			if electricDF, err = transform.Reshape(df, transform.Electric); err != nil {
				return fmt.Errorf("reshape %s: %w", ds.Name, err)
			}
			hasElec = true
		default:
			decorated, err := transform.DecorateFuelOnly(df)
			if err != nil {
				return fmt.Errorf("decorate %s: %w", ds.Name, err)
			}
			fuelFrames = append(fuelFrames, decorated)
		}
		l.Info("Dataset transformed.", slog.String("category", string(cat)), slog.Int("rows", df.Nrow()))
	}
	report(StageDownload, len(datasets), len(datasets), "")

	report(StageTransform, 0, 1, "binding fuel-only vintages")
	if len(fuelFrames) == 0 {
		return errors.Join(append([]error{fmt.Errorf("no fuel-only datasets discovered")}, downloadErrs...)...)
	}
	if !hasHybrid || !hasElec {
		return errors.Join(append([]error{fmt.Errorf("catalog missing a category (hybrid=%t electric=%t)", hasHybrid, hasElec)}, downloadErrs...)...)
	}

	fuelDF, err := transform.BindRows(fuelFrames)
	if err != nil {
		return err
	}
	if fuelDF, err = transform.Reshape(fuelDF, transform.FuelOnly); err != nil {
		return fmt.Errorf("reshape fuel-only: %w", err)
	}

	allDF, err := transform.Union(fuelDF, hybridDF, electricDF)
	if err != nil {
		return err
	}
	report(StageTransform, 1, 1, fmt.Sprintf("%d unified rows", allDF.Nrow()))

	tables := []struct {
		name string
		df   dataframe.DataFrame
	}{
		{transform.TableName(transform.FuelOnly), fuelDF},
		{transform.TableName(transform.Electric), electricDF},
		{transform.TableName(transform.Hybrid), hybridDF},
		{"all_vehicles", allDF},
	}
	for i, t := range tables {
		report(StagePersist, i, len(tables), t.name)
		start := time.Now()
		rows, err := st.ReplaceTable(ctx, t.name, t.df, cfg.TypeSampleLimit)
		if err != nil {
			return fmt.Errorf("persist %s: %w", t.name, err)
		}
		if err := st.LogEvent(ctx, t.name, store.EventPersist, rows, time.Since(start), ""); err != nil {
			logger.Warn("Ingest log write failed.", "error", err)
		}
	}
	report(StagePersist, len(tables), len(tables), "")

	logger.Info("Pipeline finished.",
		slog.Int("fuel_rows", fuelDF.Nrow()),
		slog.Int("hybrid_rows", hybridDF.Nrow()),
		slog.Int("electric_rows", electricDF.Nrow()),
		slog.Int("all_rows", allDF.Nrow()),
	)
	return nil
}

// prepare runs the shared per-file steps: header collapse, text cleanup, and
// the transmission split.
func prepare(raw []byte) (dataframe.DataFrame, error) {
	df, err := clean.Normalize(raw)
	if err != nil {
		return df, err
	}
	if df, err = transform.CleanText(df); err != nil {
		return df, err
	}
	return transform.SplitTransmission(df)
}
