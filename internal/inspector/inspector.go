// Package inspector prints summaries of the persisted vehicle tables.
package inspector

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Summary describes one persisted table.
type Summary struct {
	Table      string
	Rows       int64
	Columns    []string
	VehicleMix map[string]int64 // vehicle_type -> rows, when the column exists
}

// Inspect gathers a summary for every user table in the database, skipping
// the ingest log.
func Inspect(ctx context.Context, db *sql.DB, logger *slog.Logger) ([]Summary, error) {
	rows, err := db.QueryContext(ctx, `PRAGMA show_tables;`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		if name == "ingest_log" {
			continue
		}
		tables = append(tables, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	summaries := make([]Summary, 0, len(tables))
	for _, table := range tables {
		s, err := summarize(ctx, db, table)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
		logger.Debug("Table summarized.", slog.String("table", table), slog.Int64("rows", s.Rows))
	}
	return summaries, nil
}

func summarize(ctx context.Context, db *sql.DB, table string) (Summary, error) {
	s := Summary{Table: table}
	quoted := `"` + strings.ReplaceAll(table, `"`, `""`) + `"`

	if err := db.QueryRowContext(ctx, fmt.Sprintf(`SELECT count(*) FROM %s;`, quoted)).Scan(&s.Rows); err != nil {
		return s, fmt.Errorf("count %s: %w", table, err)
	}

	cols, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s);`, quoted))
	if err != nil {
		return s, fmt.Errorf("describe %s: %w", table, err)
	}
	hasVehicleType := false
	for cols.Next() {
		var (
			cid       int
			name, typ string
			notnull   bool
			dflt      sql.NullString
			pk        bool
		)
		if err := cols.Scan(&cid, &name, &typ, &notnull, &dflt, &pk); err != nil {
			cols.Close()
			return s, fmt.Errorf("scan column info for %s: %w", table, err)
		}
		s.Columns = append(s.Columns, name)
		if name == "vehicle_type" {
			hasVehicleType = true
		}
	}
	cols.Close()
	if err := cols.Err(); err != nil {
		return s, err
	}

	if hasVehicleType {
		s.VehicleMix = make(map[string]int64)
		mix, err := db.QueryContext(ctx, fmt.Sprintf(`SELECT vehicle_type, count(*) FROM %s GROUP BY vehicle_type ORDER BY 1;`, quoted))
		if err != nil {
			return s, fmt.Errorf("vehicle mix for %s: %w", table, err)
		}
		for mix.Next() {
			var (
				vt sql.NullString
				n  int64
			)
			if err := mix.Scan(&vt, &n); err != nil {
				mix.Close()
				return s, fmt.Errorf("scan vehicle mix for %s: %w", table, err)
			}
			key := vt.String
			if !vt.Valid {
				key = "(null)"
			}
			s.VehicleMix[key] = n
		}
		mix.Close()
		if err := mix.Err(); err != nil {
			return s, err
		}
	}
	return s, nil
}

// Render formats summaries for terminal output.
func Render(summaries []Summary) string {
	var b strings.Builder
	for _, s := range summaries {
		fmt.Fprintf(&b, "%s: %d rows, %d columns\n", s.Table, s.Rows, len(s.Columns))
		if len(s.VehicleMix) > 0 {
			kinds := make([]string, 0, len(s.VehicleMix))
			for vt := range s.VehicleMix {
				kinds = append(kinds, vt)
			}
			sort.Strings(kinds)
			for _, vt := range kinds {
				fmt.Fprintf(&b, "  %-12s %d\n", vt, s.VehicleMix[vt])
			}
		}
	}
	return b.String()
}
