package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/openfueldata/cardata/internal/config"
	"github.com/openfueldata/cardata/internal/store"
)

const fuelCSV = `Model,Make,Model,Vehicle Class,Engine Size,Transmission,Fuel,Fuel Consumption,,CO2 Emissions
Year,,,,(L),,Type,City (L/100 km),Hwy (L/100 km),(g/km)
2024,ACURA,ILX 4wd/4X4,Compact,2.4,AM8,Z,9.9,7.0,199
2024,HONDA,Civic,Compact,2.0,AV,X,7.9,6.1,160
`

const hybridCSV = `Model,Make,Model,Vehicle Class,Motor,Engine Size,Transmission,Fuel,Fuel,Fuel Consumption,Range2,CO2 Emissions
Year,,,,(kW),(L),,Type1,Type2,City (L/100 km),(km),(g/km)
2024,BMW,330e,Compact,83,2.0,A8,B/X,Z,2.1,50,40
`

const electricCSV = `Model,Make,Model,Vehicle Class,Motor,Transmission,Fuel,Consumption,Range,Recharge,CO2 Emissions
Year,,,,(kW),,Type,City (kWh/100 km),(km),Time (h),(g/km)
2024,TESLA,Model 3,Mid-size,208,A1,B,15.0,430,10,0
`

// testServer hosts a CKAN-shaped catalog whose resources point back at the
// server's own CSV endpoints, including one French and one "Original" resource
// the pipeline must skip.
func testServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	var baseURL string

	mux.HandleFunc("/catalog", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{
  "result": {
    "resources": [
      {"name": "Fuel consumption ratings 2024", "url": "%[1]s/fuel.csv", "language": ["en"]},
      {"name": "Fuel consumption ratings 1995", "url": "%[1]s/missing.csv", "language": ["en"]},
      {"name": "Original Fuel consumption ratings", "url": "%[1]s/fuel.csv", "language": ["en"]},
      {"name": "Cotes de consommation 2024", "url": "%[1]s/fuel.csv", "language": ["fr"]},
      {"name": "Plug-in hybrid electric vehicles 2024", "url": "%[1]s/hybrid.csv", "language": ["en"]},
      {"name": "Battery-electric vehicles 2024", "url": "%[1]s/electric.csv", "language": ["en"]}
    ]
  }
}`, baseURL)
	})
	serveCSV := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/csv")
			io.WriteString(w, body)
		}
	}
	mux.HandleFunc("/fuel.csv", serveCSV(fuelCSV))
	mux.HandleFunc("/hybrid.csv", serveCSV(hybridCSV))
	mux.HandleFunc("/electric.csv", serveCSV(electricCSV))

	srv := httptest.NewServer(mux)
	baseURL = srv.URL
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, srv *httptest.Server) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.CatalogURL = srv.URL + "/catalog"
	cfg.InputDir = t.TempDir()
	cfg.DBPath = ":memory:"
	return cfg
}

func tableCount(t *testing.T, st *store.Store, table string) int {
	t.Helper()
	var n int
	if err := st.DB().QueryRow(fmt.Sprintf(`SELECT count(*) FROM %q`, table)).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func TestRun(t *testing.T) {
	srv := testServer(t)
	cfg := testConfig(t, srv)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := store.Open(cfg.DBPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	if err := Run(context.Background(), cfg, st, logger, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}

	wantCounts := map[string]int{
		"fuel":         2,
		"hybrid":       1,
		"electric":     1,
		"all_vehicles": 4,
	}
	for table, want := range wantCounts {
		if got := tableCount(t, st, table); got != want {
			t.Errorf("%s rows = %d, want %d", table, got, want)
		}
	}

	// Fuel-only payloads keep their full dataset names; hybrid and electric
	// land under the stripped canonical labels.
	for _, name := range []string{
		"Fuel_consumption_ratings_2024.csv",
		"Plugin_hybrid_electric_vehicles_.csv",
		"Batteryelectric_vehicles_.csv",
	} {
		if _, err := os.Stat(filepath.Join(cfg.InputDir, name)); err != nil {
			t.Errorf("missing saved payload: %v", err)
		}
	}

	// The 404ing vintage is skipped and recorded as an error event.
	var errEvents int
	err = st.DB().QueryRow(`SELECT count(*) FROM ingest_log WHERE event = ?`, store.EventError).Scan(&errEvents)
	if err != nil {
		t.Fatalf("error events: %v", err)
	}
	if errEvents != 1 {
		t.Errorf("error events = %d, want 1", errEvents)
	}

	var drive string
	err = st.DB().QueryRow(`SELECT type_of_wheel_drive FROM fuel WHERE model = 'ilx 4wd/4x4'`).Scan(&drive)
	if err != nil {
		t.Fatalf("drivetrain lookup: %v", err)
	}
	if drive != "Four-wheel drive" {
		t.Errorf("type_of_wheel_drive = %q", drive)
	}

	var hybridFuels, mapped string
	err = st.DB().QueryRow(`SELECT hybrid_fuels, mapped_fuel_type FROM hybrid`).Scan(&hybridFuels, &mapped)
	if err != nil {
		t.Fatalf("hybrid lookup: %v", err)
	}
	if hybridFuels != "electricity & regular gasoline" {
		t.Errorf("hybrid_fuels = %q", hybridFuels)
	}
	if mapped != "premium gasoline" {
		t.Errorf("hybrid mapped_fuel_type = %q", mapped)
	}

	var transType, gears string
	err = st.DB().QueryRow(`SELECT transmission_type, CAST(number_of_gears AS VARCHAR) FROM electric`).Scan(&transType, &gears)
	if err != nil {
		t.Fatalf("electric lookup: %v", err)
	}
	if transType != "automatic" || gears != "1" {
		t.Errorf("transmission = %q / %q gears", transType, gears)
	}

	var mix int
	err = st.DB().QueryRow(`SELECT count(DISTINCT vehicle_type) FROM all_vehicles`).Scan(&mix)
	if err != nil {
		t.Fatalf("vehicle mix: %v", err)
	}
	if mix != 3 {
		t.Errorf("distinct vehicle_type = %d, want 3", mix)
	}

	var persists int
	err = st.DB().QueryRow(`SELECT count(*) FROM ingest_log WHERE event = ?`, store.EventPersist).Scan(&persists)
	if err != nil {
		t.Fatalf("ingest log: %v", err)
	}
	if persists != 4 {
		t.Errorf("persist events = %d, want 4", persists)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	srv := testServer(t)
	cfg := testConfig(t, srv)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := store.Open(cfg.DBPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	if err := Run(ctx, cfg, st, logger, nil); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := Run(ctx, cfg, st, logger, nil); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if got := tableCount(t, st, "all_vehicles"); got != 4 {
		t.Errorf("all_vehicles rows after rerun = %d, want 4", got)
	}
}

func TestRunFailsOnBadCatalog(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, "<html>not json</html>")
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.CatalogURL = srv.URL
	cfg.InputDir = t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := store.Open(":memory:", logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	if err := Run(context.Background(), cfg, st, logger, nil); err == nil {
		t.Error("expected error for non-JSON catalog response")
	}
}

func TestRunFallsBackToListing(t *testing.T) {
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	catalogURL := dead.URL
	dead.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("/listing/", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/"):
			w.Header().Set("Content-Type", "text/html")
			io.WriteString(w, `<html><body>
<a href="Fuel%20consumption%20ratings%202024.csv">fuel</a>
<a href="Plug-in%20hybrid%20electric%20vehicles%202024.csv">hybrid</a>
<a href="Battery-electric%20vehicles%202024.csv">electric</a>
</body></html>`)
		case strings.Contains(r.URL.Path, "hybrid"):
			io.WriteString(w, hybridCSV)
		case strings.Contains(r.URL.Path, "electric"):
			io.WriteString(w, electricCSV)
		default:
			io.WriteString(w, fuelCSV)
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := config.Default()
	cfg.CatalogURL = catalogURL
	cfg.ListingURL = srv.URL + "/listing/"
	cfg.InputDir = t.TempDir()
	cfg.DBPath = ":memory:"
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := store.Open(cfg.DBPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	if err := Run(context.Background(), cfg, st, logger, nil); err != nil {
		t.Fatalf("Run with listing fallback: %v", err)
	}
	if got := tableCount(t, st, "all_vehicles"); got != 4 {
		t.Errorf("all_vehicles rows = %d, want 4", got)
	}
}

func TestRunReportsFailedDownloads(t *testing.T) {
	mux := http.NewServeMux()
	var baseURL string
	mux.HandleFunc("/catalog", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{
  "result": {
    "resources": [
      {"name": "Fuel consumption ratings 2024", "url": "%[1]s/fuel.csv", "language": ["en"]},
      {"name": "Plug-in hybrid electric vehicles 2024", "url": "%[1]s/missing.csv", "language": ["en"]},
      {"name": "Battery-electric vehicles 2024", "url": "%[1]s/electric.csv", "language": ["en"]}
    ]
  }
}`, baseURL)
	})
	mux.HandleFunc("/fuel.csv", func(w http.ResponseWriter, r *http.Request) { io.WriteString(w, fuelCSV) })
	mux.HandleFunc("/electric.csv", func(w http.ResponseWriter, r *http.Request) { io.WriteString(w, electricCSV) })
	srv := httptest.NewServer(mux)
	baseURL = srv.URL
	defer srv.Close()

	cfg := config.Default()
	cfg.CatalogURL = srv.URL + "/catalog"
	cfg.InputDir = t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := store.Open(":memory:", logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	err = Run(context.Background(), cfg, st, logger, nil)
	if err == nil {
		t.Fatal("expected error when a whole category fails to download")
	}
	if !strings.Contains(err.Error(), "missing a category") {
		t.Errorf("error does not name the missing category: %v", err)
	}
	// The failed dataset is named alongside the category error.
	if !strings.Contains(err.Error(), "Plug-in hybrid electric vehicles 2024") {
		t.Errorf("error does not name the failed download: %v", err)
	}
}

func TestRunReportsProgress(t *testing.T) {
	srv := testServer(t)
	cfg := testConfig(t, srv)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := store.Open(cfg.DBPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	stages := map[string]bool{}
	notify := func(stage string, current, total int, detail string) {
		stages[stage] = true
	}
	if err := Run(context.Background(), cfg, st, logger, notify); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, stage := range []string{StageCatalog, StageDownload, StageTransform, StagePersist} {
		if !stages[stage] {
			t.Errorf("stage %q never reported", stage)
		}
	}
}
