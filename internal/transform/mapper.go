// Package transform turns normalized frames into the unified vehicle tables:
// categorical decoding, per-category reshaping, and the superset-schema
// union.
package transform

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/openfueldata/cardata/internal/codes"
)

// Normalized column names the mapper operates on. These are the collapsed
// names produced by the clean package, before any per-category renames.
const (
	colMake         = "make_"
	colModel        = "model.1_"
	colVehicleClass = "vehicleclass_"
	colTransmission = "transmission_"
	colFuelType     = "fuel_type"
)

// transmissionRe captures the leading letter code and the trailing gear count
// of a transmission code ("AS6" -> "AS", "6"; "AV" -> "AV", "").
var transmissionRe = regexp.MustCompile(`^([A-Za-z]+)(\d*)$`)

func hasCol(df dataframe.DataFrame, name string) bool {
	for _, n := range df.Names() {
		if n == name {
			return true
		}
	}
	return false
}

// CleanText normalizes the free-text make, model, and vehicle class fields:
// lowercase, whitespace trim on make, and the ":" -> " -" rewrite on vehicle
// class for display consistency.
func CleanText(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	for _, name := range []string{colMake, colModel, colVehicleClass} {
		if !hasCol(df, name) {
			return df, fmt.Errorf("missing expected column %q", name)
		}
	}

	makes := df.Col(colMake).Records()
	for i, v := range makes {
		makes[i] = strings.TrimSpace(strings.ToLower(v))
	}
	df = df.Mutate(series.New(makes, series.String, colMake))

	models := df.Col(colModel).Records()
	for i, v := range models {
		models[i] = strings.ToLower(v)
	}
	df = df.Mutate(series.New(models, series.String, colModel))

	classes := df.Col(colVehicleClass).Records()
	for i, v := range classes {
		classes[i] = strings.ReplaceAll(strings.ToLower(v), ":", " -")
	}
	df = df.Mutate(series.New(classes, series.String, colVehicleClass))

	return df, df.Err
}

// SplitTransmission splits the transmission code into transmission_type
// (letter code decoded through the transmission table) and number_of_gears
// (the digit group, kept as a string). Codes that do not match the table or
// the pattern leave the respective value empty.
func SplitTransmission(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	if !hasCol(df, colTransmission) {
		return df, fmt.Errorf("missing expected column %q", colTransmission)
	}

	raw := df.Col(colTransmission).Records()
	types := make([]string, len(raw))
	gears := make([]string, len(raw))
	for i, v := range raw {
		m := transmissionRe.FindStringSubmatch(strings.TrimSpace(v))
		if m == nil {
			continue
		}
		types[i] = codes.Transmission[strings.ToUpper(m[1])]
		gears[i] = m[2]
	}

	df = df.Mutate(series.New(types, series.String, "transmission_type"))
	df = df.Mutate(series.New(gears, series.String, "number_of_gears"))
	return df, df.Err
}

// MapColumn decodes the values of src through table into a new column named
// dst. Unmatched codes yield an empty value. The source column is kept.
func MapColumn(df dataframe.DataFrame, src, dst string, table map[string]string) (dataframe.DataFrame, error) {
	if !hasCol(df, src) {
		return df, fmt.Errorf("missing expected column %q", src)
	}
	raw := df.Col(src).Records()
	mapped := make([]string, len(raw))
	for i, v := range raw {
		mapped[i] = table[strings.TrimSpace(v)]
	}
	df = df.Mutate(series.New(mapped, series.String, dst))
	return df, df.Err
}

// DecodeDrivetrain derives type_of_wheel_drive from the drivetrain and body
// keywords embedded in the model field. Only the fuel-only family carries
// those keywords.
func DecodeDrivetrain(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	if !hasCol(df, colModel) {
		return df, fmt.Errorf("missing expected column %q", colModel)
	}
	models := df.Col(colModel).Records()
	drives := make([]string, len(models))
	for i, v := range models {
		drives[i] = codes.DecodeDrive(v)
	}
	df = df.Mutate(series.New(drives, series.String, "type_of_wheel_drive"))
	return df, df.Err
}
