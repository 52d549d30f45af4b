// Package codes holds the static lookup tables used to decode the
// abbreviation codes that appear in the NRCan fuel consumption files and the
// Statistics Canada registration tables. All tables are read-only package
// data; callers never mutate them.
package codes

import "strings"

// Rule is one ordered (keyword, label) decoding rule. Rules are evaluated in
// slice order and the first keyword contained in the input wins, so the
// declaration order below is load-bearing: "4wd/4x4" must be checked before
// the more generic keywords.
type Rule struct {
	Keyword string
	Label   string
}

// DefaultDrive is the label applied when no drivetrain rule matches.
const DefaultDrive = "unspecified"

// DriveRules decodes drivetrain and body keywords embedded in the model field
// of the fuel-only files.
var DriveRules = []Rule{
	{"4wd/4x4", "Four-wheel drive"},
	{"awd", "All-wheel drive"},
	{"ffv", "Flexible-fuel vehicle"},
	{"swb", "Short wheelbase"},
	{"lwb", "Long wheelbase"},
	{"ewb", "Extended wheelbase"},
	{"cng", "Compressed natural gas"},
	{"ngv", "Natural gas vehicle"},
	{"#", "High output engine that provides more power than the standard engine of the same size"},
}

// DecodeDrive scans the model text against DriveRules and returns the first
// matching label, or DefaultDrive when nothing matches. Matching is
// case-insensitive because the source files mix cases freely ("4X4", "4x4").
func DecodeDrive(model string) string {
	lowered := strings.ToLower(model)
	for _, r := range DriveRules {
		if strings.Contains(lowered, r.Keyword) {
			return r.Label
		}
	}
	return DefaultDrive
}

// Transmission letter codes. The trailing digits of a transmission code are
// the gear count and are handled separately.
var Transmission = map[string]string{
	"A":  "automatic",
	"AM": "automated manual",
	"AS": "automatic with select Shift",
	"AV": "continuously variable",
	"M":  "manual",
}

// Fuel type codes shared by the fuel-only and electric files.
var Fuel = map[string]string{
	"X": "regular gasoline",
	"Z": "premium gasoline",
	"D": "diesel",
	"E": "ethanol (E85)",
	"N": "natural gas",
	"B": "electricity",
}

// HybridFuel decodes the combined fuel codes of plug-in hybrids. Starred
// variants carry a footnote in the source file but decode identically.
var HybridFuel = map[string]string{
	"B/X":  "electricity & regular gasoline",
	"B/Z":  "electricity & premium gasoline",
	"B/Z*": "electricity & premium gasoline",
	"B/X*": "electricity & regular gasoline",
	"B":    "electricity",
}

// Months maps english month abbreviations to their zero-padded numbers, used
// to normalize StatCan reference dates.
var Months = map[string]string{
	"jan": "01",
	"feb": "02",
	"mar": "03",
	"apr": "04",
	"may": "05",
	"jun": "06",
	"jul": "07",
	"aug": "08",
	"sep": "09",
	"oct": "10",
	"nov": "11",
	"dec": "12",
}

// StatCanTables maps a table key (used as the DuckDB table name) to the
// StatCan bulk zip download for that table.
var StatCanTables = map[string]string{
	"new_motor_vehicle_reg":              "https://www150.statcan.gc.ca/n1/tbl/csv/20100024-eng.zip",
	"near_zero_vehicle_registrations":    "https://www150.statcan.gc.ca/n1/tbl/csv/20100025-eng.zip",
	"fuel_sold_motor_vehicles":           "https://www150.statcan.gc.ca/n1/tbl/csv/23100066-eng.zip",
	"vehicle_registrations_type_vehicle": "https://www150.statcan.gc.ca/n1/tbl/csv/23100067-eng.zip",
}
