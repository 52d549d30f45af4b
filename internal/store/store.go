// Package store persists the unified vehicle tables into the embedded DuckDB
// file and keeps the append-only ingest event log.
package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/marcboeker/go-duckdb"
)

// Ingest log event types.
const (
	EventDownload = "download_end"
	EventPersist  = "persist_end"
	EventError    = "error"
)

const schemaSequenceSQL = `CREATE SEQUENCE IF NOT EXISTS ingest_log_id_seq;`
const schemaTableSQL = `
CREATE TABLE IF NOT EXISTS ingest_log (
    log_id          BIGINT PRIMARY KEY DEFAULT nextval('ingest_log_id_seq'),
    dataset         VARCHAR NOT NULL,
    event           VARCHAR NOT NULL,
    event_timestamp TIMESTAMP NOT NULL,
    row_count       BIGINT,
    duration_ms     BIGINT,
    message         VARCHAR
);
`

// Store wraps one open DuckDB file: a pooled handle for DDL and queries plus
// a dedicated driver connection for Appender bulk loads, the connection pair
// the go-duckdb appender API requires.
type Store struct {
	db     *sql.DB
	conn   driver.Conn
	logger *slog.Logger
}

// Open creates the database directory if needed, opens the DuckDB file, and
// ensures the ingest log schema exists.
func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	connector, err := duckdb.NewConnector(dbPath, nil)
	if err != nil {
		return nil, fmt.Errorf("create duckdb connector (%s): %w", dbPath, err)
	}

	db := sql.OpenDB(connector)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping duckdb (%s): %w", dbPath, err)
	}

	conn, err := connector.Connect(context.Background())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open appender connection: %w", err)
	}

	s := &Store{db: db, conn: conn, logger: logger}
	if err := s.initSchema(); err != nil {
		s.Close()
		return nil, err
	}
	logger.Info("DuckDB opened.", slog.String("path", dbPath))
	return s, nil
}

func (s *Store) initSchema() error {
	if _, err := s.db.Exec(schemaSequenceSQL); err != nil && !strings.Contains(strings.ToLower(err.Error()), "already exists") {
		return fmt.Errorf("create ingest log sequence: %w", err)
	}
	if _, err := s.db.Exec(schemaTableSQL); err != nil && !strings.Contains(strings.ToLower(err.Error()), "already exists") {
		return fmt.Errorf("create ingest log table: %w", err)
	}
	return nil
}

// DB exposes the pooled handle for read-side consumers (inspector, export).
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close releases both connections.
func (s *Store) Close() error {
	return errors.Join(s.conn.Close(), s.db.Close())
}

// ReplaceTable drops and recreates name from the frame and bulk-loads every
// row through a DuckDB appender. Column types are inferred from the frame's
// values; empty and NA cells become SQL NULL. Returns the number of rows
// loaded.
func (s *Store) ReplaceTable(ctx context.Context, name string, df dataframe.DataFrame, sampleLimit int) (int, error) {
	records := df.Records()
	if len(records) == 0 || len(records[0]) == 0 {
		return 0, fmt.Errorf("table %s: frame has no columns", name)
	}
	header, rows := records[0], records[1:]
	types := inferColumnTypes(rows, sampleLimit)

	cols := make([]string, len(header))
	for j, col := range header {
		cols[j] = fmt.Sprintf("%s %s", quoteIdent(col), types[j])
	}

	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s;`, quoteIdent(name))); err != nil {
		return 0, fmt.Errorf("drop table %s: %w", name, err)
	}
	createSQL := fmt.Sprintf(`CREATE TABLE %s (%s);`, quoteIdent(name), strings.Join(cols, ", "))
	if _, err := s.db.ExecContext(ctx, createSQL); err != nil {
		return 0, fmt.Errorf("create table %s: %w", name, err)
	}

	appender, err := duckdb.NewAppenderFromConn(s.conn, "", name)
	if err != nil {
		return 0, fmt.Errorf("create appender for %s: %w", name, err)
	}

	for i, row := range rows {
		values := make([]driver.Value, len(row))
		for j, cell := range row {
			v, err := convertCell(cell, types[j])
			if err != nil {
				appender.Close()
				return 0, fmt.Errorf("table %s row %d column %s: %w", name, i+1, header[j], err)
			}
			values[j] = v
		}
		if err := appender.AppendRow(values...); err != nil {
			appender.Close()
			return 0, fmt.Errorf("append row %d to %s: %w", i+1, name, err)
		}
	}

	if err := appender.Close(); err != nil {
		return 0, fmt.Errorf("flush appender for %s: %w", name, err)
	}
	s.logger.Info("Table replaced.", slog.String("table", name), slog.Int("rows", len(rows)), slog.Int("columns", len(header)))
	return len(rows), nil
}

// LogEvent appends one record to the ingest log. Log failures are reported
// but are never worth failing a run over, so callers typically just warn.
func (s *Store) LogEvent(ctx context.Context, dataset, event string, rowCount int, duration time.Duration, message string) error {
	query := `
        INSERT INTO ingest_log (dataset, event, event_timestamp, row_count, duration_ms, message)
        VALUES (?, ?, ?, ?, ?, ?);
    `
	_, err := s.db.ExecContext(ctx, query,
		dataset,
		event,
		time.Now().UTC(),
		int64(rowCount),
		duration.Milliseconds(),
		sql.NullString{String: message, Valid: message != ""},
	)
	if err != nil {
		return fmt.Errorf("log event %q for %q: %w", event, dataset, err)
	}
	return nil
}

// convertCell turns a frame cell into the driver value matching the column
// type. Empty strings and gota's NA marker are NULL.
func convertCell(cell, colType string) (driver.Value, error) {
	if isNull(cell) {
		return nil, nil
	}
	switch colType {
	case typeBigint:
		n, err := strconv.ParseInt(strings.TrimSpace(cell), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("value %q does not fit BIGINT: %w", cell, err)
		}
		return n, nil
	case typeDouble:
		f, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
		if err != nil {
			return nil, fmt.Errorf("value %q does not fit DOUBLE: %w", cell, err)
		}
		return f, nil
	default:
		return cell, nil
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
