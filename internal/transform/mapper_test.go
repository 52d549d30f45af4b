package transform

import (
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

func frameFromRecords(t *testing.T, records [][]string) dataframe.DataFrame {
	t.Helper()
	df := dataframe.LoadRecords(records,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		t.Fatalf("load test frame: %v", df.Err)
	}
	return df
}

func TestCleanText(t *testing.T) {
	df := frameFromRecords(t, [][]string{
		{"make_", "model.1_", "vehicleclass_"},
		{"  ACURA ", "ILX", "Station wagon: Small"},
		{"HONDA", "Civic Type-R", "Two-seater"},
	})

	out, err := CleanText(df)
	if err != nil {
		t.Fatalf("CleanText: %v", err)
	}

	makes := out.Col("make_").Records()
	if makes[0] != "acura" || makes[1] != "honda" {
		t.Errorf("make_ = %v", makes)
	}
	models := out.Col("model.1_").Records()
	if models[1] != "civic type-r" {
		t.Errorf("model.1_ = %v", models)
	}
	classes := out.Col("vehicleclass_").Records()
	if classes[0] != "station wagon - small" {
		t.Errorf("vehicleclass_ = %v", classes)
	}
}

func TestCleanTextMissingColumn(t *testing.T) {
	df := frameFromRecords(t, [][]string{{"make_"}, {"acura"}})
	if _, err := CleanText(df); err == nil {
		t.Error("expected error for missing columns")
	}
}

func TestSplitTransmission(t *testing.T) {
	df := frameFromRecords(t, [][]string{
		{"transmission_"},
		{"A6"},
		{"AS10"},
		{"AV"},
		{"M5"},
		{"AM7"},
		{"??"},
		{""},
	})

	out, err := SplitTransmission(df)
	if err != nil {
		t.Fatalf("SplitTransmission: %v", err)
	}

	types := out.Col("transmission_type").Records()
	gears := out.Col("number_of_gears").Records()

	wantTypes := []string{"automatic", "automatic with select Shift", "continuously variable", "manual", "automated manual", "", ""}
	wantGears := []string{"6", "10", "", "5", "7", "", ""}
	for i := range wantTypes {
		if types[i] != wantTypes[i] {
			t.Errorf("row %d: transmission_type = %q, want %q", i, types[i], wantTypes[i])
		}
		if gears[i] != wantGears[i] {
			t.Errorf("row %d: number_of_gears = %q, want %q", i, gears[i], wantGears[i])
		}
	}
}

func TestMapColumn(t *testing.T) {
	df := frameFromRecords(t, [][]string{
		{"fuel_type"},
		{"X"},
		{"Z"},
		{"?"},
	})

	out, err := MapColumn(df, "fuel_type", "mapped_fuel_type", map[string]string{"X": "regular gasoline", "Z": "premium gasoline"})
	if err != nil {
		t.Fatalf("MapColumn: %v", err)
	}
	got := out.Col("mapped_fuel_type").Records()
	if got[0] != "regular gasoline" || got[1] != "premium gasoline" || got[2] != "" {
		t.Errorf("mapped_fuel_type = %v", got)
	}

	if _, err := MapColumn(df, "nope", "x", nil); err == nil {
		t.Error("expected error for missing source column")
	}
}

func TestDecodeDrivetrain(t *testing.T) {
	df := frameFromRecords(t, [][]string{
		{"model.1_"},
		{"suv 4wd/4x4"},
		{"mdx awd"},
		{"civic"},
	})

	out, err := DecodeDrivetrain(df)
	if err != nil {
		t.Fatalf("DecodeDrivetrain: %v", err)
	}
	got := out.Col("type_of_wheel_drive").Records()
	want := []string{"Four-wheel drive", "All-wheel drive", "unspecified"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d: type_of_wheel_drive = %q, want %q", i, got[i], want[i])
		}
	}
}
