package config

import "path/filepath"

// Catalog endpoint for the NRCan fuel consumption ratings dataset on the
// open.canada.ca CKAN API.
const DefaultCatalogURL = "https://open.canada.ca/data/api/action/package_show?id=98f1a129-f628-4ce4-b24d-6f16bf24dd64"

// DefaultListingURL is empty: the HTML listing scrape only runs as a fallback
// when a listing page is configured and the catalog API yields nothing.
const DefaultListingURL = ""

// Default locations, relative to the working directory so a bare `cardata run`
// leaves everything under ./data.
var (
	DefaultInputDir  = filepath.Join("data", "raw")
	DefaultOutputDir = filepath.Join("data", "parquet")
	DefaultDBPath    = filepath.Join("data", "database", "car_data.duckdb")
)

const (
	// Maximum number of data rows sampled per column when inferring DuckDB
	// column types. 0 scans every row, which is cheap at these table sizes
	// and cannot mis-type a column from an unlucky sample.
	DefaultTypeSampleLimit = 0
)

// Config holds application settings.
type Config struct {
	CatalogURL      string
	ListingURL      string
	InputDir        string
	OutputDir       string
	DBPath          string
	TypeSampleLimit int
}

// Default returns a Config populated with the package defaults.
func Default() Config {
	return Config{
		CatalogURL:      DefaultCatalogURL,
		ListingURL:      DefaultListingURL,
		InputDir:        DefaultInputDir,
		OutputDir:       DefaultOutputDir,
		DBPath:          DefaultDBPath,
		TypeSampleLimit: DefaultTypeSampleLimit,
	}
}
