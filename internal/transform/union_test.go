package transform

import "testing"

func TestUnion(t *testing.T) {
	fuel := frameFromRecords(t, [][]string{
		{"id", "model_year", "model", "vehicle_type", "type_of_wheel_drive"},
		{"1", "2024", "ilx", "fuel-only", "unspecified"},
		{"2", "2024", "civic", "fuel-only", "unspecified"},
	})
	hybrid := frameFromRecords(t, [][]string{
		{"id", "model_year", "model", "vehicle_type", "hybrid_fuels"},
		{"1", "2024", "330e", "hybrid", "electricity & regular gasoline"},
	})
	electric := frameFromRecords(t, [][]string{
		{"id", "model_year", "model", "vehicle_type", "range1_km"},
		{"1", "2024", "model 3", "electric", "430"},
	})

	out, err := Union(fuel, hybrid, electric)
	if err != nil {
		t.Fatalf("Union: %v", err)
	}

	if out.Nrow() != 4 {
		t.Fatalf("Nrow = %d, want 4", out.Nrow())
	}
	for _, name := range []string{"type_of_wheel_drive", "hybrid_fuels", "range1_km"} {
		if !hasCol(out, name) {
			t.Errorf("missing unioned column %q", name)
		}
	}

	// Rows keep their input order: fuel-only first, then hybrid, then electric.
	tags := out.Col("vehicle_type").Records()
	want := []string{"fuel-only", "fuel-only", "hybrid", "electric"}
	for i := range want {
		if tags[i] != want[i] {
			t.Errorf("row %d: vehicle_type = %q, want %q", i, tags[i], want[i])
		}
	}

	// Columns absent from a source frame pad with NA.
	if got := out.Col("hybrid_fuels").Records()[0]; got != "NaN" {
		t.Errorf("fuel-only row hybrid_fuels = %q, want NaN", got)
	}
	if got := out.Col("range1_km").Records()[3]; got != "430" {
		t.Errorf("electric row range1_km = %q", got)
	}
}
