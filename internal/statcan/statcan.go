// Package statcan ingests the Statistics Canada vehicle-registration and
// motor-fuel-sale bulk tables: zip download, CSV member extraction, header
// normalization, reference month normalization, persistence.
package statcan

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/openfueldata/cardata/internal/codes"
	"github.com/openfueldata/cardata/internal/config"
	"github.com/openfueldata/cardata/internal/fetch"
	"github.com/openfueldata/cardata/internal/store"
	"github.com/openfueldata/cardata/internal/util"
)

// refMonthRe matches month-abbreviation reference dates like "Jan-23" or
// "Jan 2023". Already-numeric dates ("2023-01") pass through untouched.
var refMonthRe = regexp.MustCompile(`^([A-Za-z]{3})[- ](\d{2,4})$`)

// Ingest downloads every StatCan table and persists each one under its table
// key. Download failures skip the table; parse and persistence failures stop
// the run, mirroring the main pipeline's error split.
func Ingest(ctx context.Context, cfg config.Config, st *store.Store, logger *slog.Logger) error {
	client := util.DefaultHTTPClient()

	keys := make([]string, 0, len(codes.StatCanTables))
	for k := range codes.StatCanTables {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		url := codes.StatCanTables[key]
		l := logger.With(slog.String("table", key))

		start := time.Now()
		payload, err := util.Get(ctx, client, url)
		if err != nil {
			l.Error("StatCan download failed, table skipped.", "url", url, "error", err)
			if lerr := st.LogEvent(ctx, key, store.EventError, 0, time.Since(start), err.Error()); lerr != nil {
				l.Warn("Ingest log write failed.", "error", lerr)
			}
			continue
		}

		member, data, err := fetch.ExtractZipCSV(payload)
		if err != nil {
			return fmt.Errorf("table %s: %w", key, err)
		}
		l.Info("StatCan zip extracted.", slog.String("member", member), slog.Int("bytes", len(data)))

		df, err := load(data)
		if err != nil {
			return fmt.Errorf("table %s: %w", key, err)
		}

		rows, err := st.ReplaceTable(ctx, key, df, cfg.TypeSampleLimit)
		if err != nil {
			return fmt.Errorf("persist %s: %w", key, err)
		}
		if err := st.LogEvent(ctx, key, store.EventPersist, rows, time.Since(start), url); err != nil {
			l.Warn("Ingest log write failed.", "error", err)
		}
	}
	return nil
}

// load parses a single-header StatCan CSV into a string frame with
// lowercase, underscored column names and normalized reference months.
func load(data []byte) (dataframe.DataFrame, error) {
	r := csv.NewReader(strings.NewReader(string(data)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) < 2 {
		return dataframe.DataFrame{}, fmt.Errorf("csv has no data rows")
	}

	width := len(records[0])
	for j, col := range records[0] {
		records[0][j] = normalizeHeader(col)
	}
	for i := 1; i < len(records); i++ {
		if len(records[i]) < width {
			padded := make([]string, width)
			copy(padded, records[i])
			records[i] = padded
		} else if len(records[i]) > width {
			records[i] = records[i][:width]
		}
	}

	df := dataframe.LoadRecords(records,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return df, fmt.Errorf("load frame: %w", df.Err)
	}

	for _, name := range df.Names() {
		if name != "ref_date" {
			continue
		}
		dates := df.Col(name).Records()
		for i, v := range dates {
			dates[i] = NormalizeRefMonth(v)
		}
		df = df.Mutate(series.New(dates, series.String, name))
	}
	return df, df.Err
}

func normalizeHeader(col string) string {
	col = strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")) // strip UTF-8 BOM
	col = strings.ToLower(col)
	col = strings.ReplaceAll(col, " ", "_")
	return col
}

// NormalizeRefMonth rewrites month-abbreviation reference dates to the
// numeric "YYYY-MM" form through the month lookup. Unrecognized values are
// returned unchanged.
func NormalizeRefMonth(v string) string {
	m := refMonthRe.FindStringSubmatch(strings.TrimSpace(v))
	if m == nil {
		return v
	}
	month, ok := codes.Months[strings.ToLower(m[1])]
	if !ok {
		return v
	}
	year := m[2]
	if len(year) == 2 {
		year = "20" + year
	}
	return year + "-" + month
}
