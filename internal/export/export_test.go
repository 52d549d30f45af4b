package export

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"

	"github.com/openfueldata/cardata/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seededStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(":memory:", testLogger())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	df := dataframe.LoadRecords([][]string{
		{"id", "model", "enginesize_l", "vehicle_type"},
		{"1", "ilx", "2.4", "fuel-only"},
		{"2", "civic", "", "fuel-only"},
	}, dataframe.DetectTypes(false), dataframe.DefaultType(series.String))
	if df.Err != nil {
		t.Fatalf("load frame: %v", df.Err)
	}
	if _, err := st.ReplaceTable(context.Background(), "fuel", df, 0); err != nil {
		t.Fatalf("seed table: %v", err)
	}
	return st
}

func TestTables(t *testing.T) {
	st := seededStore(t)
	outputDir := t.TempDir()

	if err := Tables(context.Background(), st.DB(), outputDir, testLogger()); err != nil {
		t.Fatalf("Tables: %v", err)
	}

	// Only the seeded table exists; the other pipeline tables are skipped.
	path := filepath.Join(outputDir, "fuel.parquet")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("missing export: %v", err)
	}
	for _, table := range []string{"electric", "hybrid", "all_vehicles"} {
		if _, err := os.Stat(filepath.Join(outputDir, table+".parquet")); err == nil {
			t.Errorf("unexpected export for absent table %s", table)
		}
	}

	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		t.Fatalf("open parquet: %v", err)
	}
	defer fr.Close()
	pr, err := reader.NewParquetReader(fr, nil, 1)
	if err != nil {
		t.Fatalf("read parquet: %v", err)
	}
	defer pr.ReadStop()
	if pr.GetNumRows() != 2 {
		t.Errorf("parquet rows = %d, want 2", pr.GetNumRows())
	}
}

func TestTablesEmptyDatabase(t *testing.T) {
	st, err := store.Open(":memory:", testLogger())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	outputDir := t.TempDir()
	if err := Tables(context.Background(), st.DB(), outputDir, testLogger()); err != nil {
		t.Fatalf("Tables on empty database: %v", err)
	}
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		t.Fatalf("read output dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no exports, got %d entries", len(entries))
	}
}
