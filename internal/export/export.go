// Package export writes the persisted DuckDB tables out as Parquet files.
package export

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

// Tables written by the pipeline, in export order.
var pipelineTables = []string{"fuel", "electric", "hybrid", "all_vehicles"}

// Tables exports every pipeline table present in the database to
// <outputDir>/<table>.parquet. Tables missing from the database are skipped
// with a warning so an export after a partial run still produces the rest.
func Tables(ctx context.Context, db *sql.DB, outputDir string, logger *slog.Logger) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory %s: %w", outputDir, err)
	}

	existing, err := tableSet(ctx, db)
	if err != nil {
		return err
	}

	for _, table := range pipelineTables {
		if !existing[table] {
			logger.Warn("Table not present, skipping export.", slog.String("table", table))
			continue
		}
		path := filepath.Join(outputDir, table+".parquet")
		if err := exportTable(ctx, db, table, path, logger); err != nil {
			return fmt.Errorf("export %s: %w", table, err)
		}
	}
	return nil
}

func tableSet(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, `PRAGMA show_tables;`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		out[name] = true
	}
	return out, rows.Err()
}

// exportTable streams one table through a parquet CSVWriter. Column metadata
// is derived from the DuckDB column types: BIGINT and DOUBLE stay typed,
// everything else is written as UTF8. All columns are optional so NULLs
// survive the round trip.
func exportTable(ctx context.Context, db *sql.DB, table, path string, logger *slog.Logger) error {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`SELECT * FROM "%s";`, strings.ReplaceAll(table, `"`, `""`)))
	if err != nil {
		return fmt.Errorf("query table: %w", err)
	}
	defer rows.Close()

	cols, err := rows.ColumnTypes()
	if err != nil {
		return fmt.Errorf("column types: %w", err)
	}

	meta := make([]string, len(cols))
	for i, col := range cols {
		switch col.DatabaseTypeName() {
		case "BIGINT":
			meta[i] = fmt.Sprintf("name=%s, type=INT64, repetitiontype=OPTIONAL", col.Name())
		case "DOUBLE":
			meta[i] = fmt.Sprintf("name=%s, type=DOUBLE, repetitiontype=OPTIONAL", col.Name())
		default:
			meta[i] = fmt.Sprintf("name=%s, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY, repetitiontype=OPTIONAL", col.Name())
		}
	}

	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("create parquet file: %w", err)
	}
	pw, err := writer.NewCSVWriter(meta, fw, 4)
	if err != nil {
		fw.Close()
		return fmt.Errorf("init parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	scans := make([]sql.NullString, len(cols))
	ptrs := make([]any, len(cols))
	for i := range scans {
		ptrs[i] = &scans[i]
	}

	written := 0
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			fw.Close()
			return fmt.Errorf("scan row: %w", err)
		}
		rec := make([]*string, len(cols))
		for i := range scans {
			if scans[i].Valid {
				v := scans[i].String
				rec[i] = &v
			}
		}
		if err := pw.WriteString(rec); err != nil {
			fw.Close()
			return fmt.Errorf("write row: %w", err)
		}
		written++
	}
	if err := rows.Err(); err != nil {
		fw.Close()
		return fmt.Errorf("iterate rows: %w", err)
	}

	if err := pw.WriteStop(); err != nil {
		fw.Close()
		return fmt.Errorf("finalize parquet: %w", err)
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("close parquet file: %w", err)
	}
	logger.Info("Table exported.", slog.String("table", table), slog.String("path", path), slog.Int("rows", written))
	return nil
}
