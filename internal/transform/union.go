package transform

import (
	"fmt"

	"github.com/go-gota/gota/dataframe"
)

// Union stacks the three reshaped category frames into the superset schema:
// fuel-only rows first, then hybrid, then electric. The output column set is
// the union of the inputs' column sets; cells for columns a given input lacks
// are NA.
//
// Invariant: output row count equals the sum of the input row counts.
func Union(fuel, hybrid, electric dataframe.DataFrame) (dataframe.DataFrame, error) {
	out := fuel.Concat(hybrid)
	if out.Err != nil {
		return out, fmt.Errorf("concat fuel+hybrid: %w", out.Err)
	}
	out = out.Concat(electric)
	if out.Err != nil {
		return out, fmt.Errorf("concat +electric: %w", out.Err)
	}

	want := fuel.Nrow() + hybrid.Nrow() + electric.Nrow()
	if out.Nrow() != want {
		return out, fmt.Errorf("union row count %d, want %d", out.Nrow(), want)
	}
	return out, nil
}
