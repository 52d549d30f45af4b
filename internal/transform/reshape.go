package transform

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/openfueldata/cardata/internal/codes"
)

// Category tags the three source families. The tag decides which rename map
// and which fuel lookup apply, and is written verbatim into the vehicle_type
// column.
type Category string

const (
	FuelOnly Category = "fuel-only"
	Hybrid   Category = "hybrid"
	Electric Category = "electric"
)

// Categorize assigns a category from the catalog dataset name.
func Categorize(datasetName string) Category {
	switch {
	case strings.Contains(datasetName, "hybrid"):
		return Hybrid
	case strings.Contains(datasetName, "electric"):
		return Electric
	default:
		return FuelOnly
	}
}

// TableName maps a category to its persisted table.
func TableName(cat Category) string {
	switch cat {
	case Hybrid:
		return "hybrid"
	case Electric:
		return "electric"
	default:
		return "fuel"
	}
}

var digitsRe = regexp.MustCompile(`\d+`)

// CanonicalLabel derives a stable output label from a catalog dataset name by
// stripping model-year digits and parenthetical/dash decorations, with spaces
// replaced by underscores ("Plug-in hybrid electric vehicles 2012-2024" ->
// "Plugin_hybrid_electric_vehicles_").
func CanonicalLabel(datasetName string) string {
	name := digitsRe.ReplaceAllString(datasetName, "")
	name = strings.NewReplacer("(", "", ")", "", "-", "").Replace(name)
	return strings.ReplaceAll(name, " ", "_")
}

// renames holds the per-category maps from normalized source column names
// (which encode units and the synthetic header labels) to canonical names. Keys
// absent from a given file are ignored, so the maps double as documentation
// of every unit-suffixed column each family has carried over the years.
var renames = map[Category]map[string]string{
	FuelOnly: {
		"model.1_":                      "model",
		"enginesize_(l)":                "enginesize_l",
		"consumption_combinedle/100km":  "consumption_combinedle_100km",
		"fuelconsumption_city(l/100km)": "fuelconsumption_city_l_100km",
		"fuelconsumption_hwy(l/100km)":  "fuelconsumption_hwy_l_100km",
		"fuelconsumption_comb(l/100km)": "fuelconsumption_comb_l_100km",
		"fuelconsumption_comb(mpg)":     "fuelconsumption_comb_mpg",
		"co2emissions_(g/km)":           "co2emissions_g_km",
	},
	Hybrid: {
		"model.1_":                      "model",
		"fuel.1_type2":                  "fuel_type2",
		"consumption.1_city(l/100km)":   "fuelconsumption_city_l_100km",
		"motor_(kw)":                    "motor_kw",
		"enginesize_(l)":                "enginesize_l",
		"consumption_combinedle/100km":  "consumption_combinedle_100km",
		"range1_(km)":                   "range1_km",
		"recharge_time(h)":              "recharge_time_h",
		"fuelconsumption_city(l/100km)": "fuelconsumption_city_l_100km",
		"fuelconsumption_hwy(l/100km)":  "fuelconsumption_hwy_l_100km",
		"fuelconsumption_comb(l/100km)": "fuelconsumption_comb_l_100km",
		"range2_(km)":                   "range2_km",
		"co2emissions_(g/km)":           "co2emissions_g_km",
	},
	Electric: {
		"model.1_":                        "model",
		"motor_(kw)":                      "motor_kw",
		"range_(km)":                      "range1_km",
		"recharge_time(h)":                "recharge_time_h",
		"consumption_city(kwh/100km)":     "consumption_city_kwh_100km",
		"fuelconsumption_city(le/100km)":  "fuelconsumption_city_l_100km",
		"fuelconsumption_hwy(le/100km)":   "fuelconsumption_hwy_l_100km",
		"fuelconsumption_hwy(kwh/100km)":  "fuelconsumption_hwy_kwh_100km",
		"fuelconsumption_comb(kwh/100km)": "fuelconsumption_comb_kwh_100km",
		"fuelconsumption_comb(le/100km)":  "fuelconsumption_comb_l_100km",
		"co2emissions_(g/km)":             "co2emissions_g_km",
	},
}

// DecorateFuelOnly applies the per-file decoding only the fuel-only family
// gets: mapped_fuel_type from the fuel code and drivetrain keywords from the
// model field. Runs before the fuel-only files are bound together, while the
// pre-rename column names are still in place.
func DecorateFuelOnly(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	df, err := MapColumn(df, colFuelType, "mapped_fuel_type", codes.Fuel)
	if err != nil {
		return df, err
	}
	return DecodeDrivetrain(df)
}

// BindRows stacks frames with identical purpose (the yearly fuel-only files)
// into one frame, unioning columns across vintages whose schemas drifted.
func BindRows(frames []dataframe.DataFrame) (dataframe.DataFrame, error) {
	if len(frames) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("no frames to bind")
	}
	out := frames[0]
	for _, df := range frames[1:] {
		out = out.Concat(df)
		if out.Err != nil {
			return out, fmt.Errorf("bind frames: %w", out.Err)
		}
	}
	return out, nil
}

// Reshape aligns one category's frame with the unified naming scheme: rename
// map, secondary fuel decoding for hybrid/electric, the per-category
// sequential id, and the vehicle_type tag.
//
// Fuel-only input is expected to already be decorated and bound (see
// DecorateFuelOnly and BindRows).
func Reshape(df dataframe.DataFrame, cat Category) (dataframe.DataFrame, error) {
	// Sorted keys keep the rename order deterministic. Two sources can share
	// a target (the city consumption column moved between vintages); the
	// first rename wins and the later source keeps its original name.
	srcs := make([]string, 0, len(renames[cat]))
	for src := range renames[cat] {
		srcs = append(srcs, src)
	}
	sort.Strings(srcs)
	for _, src := range srcs {
		dst := renames[cat][src]
		if !hasCol(df, src) || hasCol(df, dst) {
			continue
		}
		df = df.Rename(dst, src)
		if df.Err != nil {
			return df, fmt.Errorf("rename %s -> %s: %w", src, dst, df.Err)
		}
	}

	var err error
	switch cat {
	case Hybrid:
		if df, err = MapColumn(df, "fuel_type2", "mapped_fuel_type", codes.Fuel); err != nil {
			return df, err
		}
		if df, err = MapColumn(df, "fuel_type1", "hybrid_fuels", codes.HybridFuel); err != nil {
			return df, err
		}
	case Electric:
		if df, err = MapColumn(df, colFuelType, "mapped_fuel_type", codes.Fuel); err != nil {
			return df, err
		}
	}

	ids := make([]int, df.Nrow())
	for i := range ids {
		ids[i] = i + 1
	}
	df = df.Mutate(series.New(ids, series.Int, "id"))

	tags := make([]string, df.Nrow())
	for i := range tags {
		tags[i] = string(cat)
	}
	df = df.Mutate(series.New(tags, series.String, "vehicle_type"))

	return df, df.Err
}
