package inspector

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/openfueldata/cardata/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInspect(t *testing.T) {
	st, err := store.Open(":memory:", testLogger())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	df := dataframe.LoadRecords([][]string{
		{"id", "model", "vehicle_type"},
		{"1", "ilx", "fuel-only"},
		{"2", "330e", "hybrid"},
		{"3", "model 3", "electric"},
		{"4", "civic", "fuel-only"},
	}, dataframe.DetectTypes(false), dataframe.DefaultType(series.String))
	if df.Err != nil {
		t.Fatalf("load frame: %v", df.Err)
	}
	ctx := context.Background()
	if _, err := st.ReplaceTable(ctx, "all_vehicles", df, 0); err != nil {
		t.Fatalf("seed table: %v", err)
	}

	summaries, err := Inspect(ctx, st.DB(), testLogger())
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("got %d summaries, want 1 (ingest_log must be skipped): %+v", len(summaries), summaries)
	}

	s := summaries[0]
	if s.Table != "all_vehicles" || s.Rows != 4 {
		t.Errorf("summary = %+v", s)
	}
	if len(s.Columns) != 3 {
		t.Errorf("columns = %v", s.Columns)
	}
	if s.VehicleMix["fuel-only"] != 2 || s.VehicleMix["hybrid"] != 1 || s.VehicleMix["electric"] != 1 {
		t.Errorf("vehicle mix = %v", s.VehicleMix)
	}
}

func TestRender(t *testing.T) {
	out := Render([]Summary{
		{
			Table:   "all_vehicles",
			Rows:    4,
			Columns: []string{"id", "model", "vehicle_type"},
			VehicleMix: map[string]int64{
				"fuel-only": 2,
				"hybrid":    1,
				"electric":  1,
			},
		},
	})
	if !strings.Contains(out, "all_vehicles: 4 rows, 3 columns") {
		t.Errorf("render output missing header line:\n%s", out)
	}
	// Mix lines come out sorted by vehicle type.
	electric := strings.Index(out, "electric")
	hybrid := strings.Index(out, "hybrid")
	if electric == -1 || hybrid == -1 || electric > hybrid {
		t.Errorf("mix lines out of order:\n%s", out)
	}
}
