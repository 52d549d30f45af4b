package store

import (
	"strconv"
	"strings"
)

// DuckDB column types produced by inference. Types only ever widen:
// BIGINT -> DOUBLE -> VARCHAR.
const (
	typeBigint  = "BIGINT"
	typeDouble  = "DOUBLE"
	typeVarchar = "VARCHAR"
)

// isNull reports whether a frame cell carries no value. gota renders NA
// elements (union-padded cells) as "NaN" in Records().
func isNull(cell string) bool {
	return cell == "" || cell == "NaN"
}

// inferColumnTypes scans up to sampleLimit rows per column (every row when
// sampleLimit is 0) and picks the narrowest DuckDB type all sampled values
// fit. Columns that never show a value default to VARCHAR.
func inferColumnTypes(rows [][]string, sampleLimit int) []string {
	if len(rows) == 0 {
		return nil
	}
	numCols := len(rows[0])
	types := make([]string, numCols)
	seen := make([]bool, numCols)

	for j := 0; j < numCols; j++ {
		sampled := 0
		for _, row := range rows {
			if sampleLimit > 0 && sampled >= sampleLimit {
				break
			}
			cell := row[j]
			if isNull(cell) {
				continue
			}
			sampled++
			seen[j] = true
			types[j] = widen(types[j], classify(cell))
			if types[j] == typeVarchar {
				break
			}
		}
		if !seen[j] {
			types[j] = typeVarchar
		}
	}
	return types
}

func classify(cell string) string {
	v := strings.TrimSpace(cell)
	if _, err := strconv.ParseInt(v, 10, 64); err == nil {
		return typeBigint
	}
	if _, err := strconv.ParseFloat(v, 64); err == nil {
		return typeDouble
	}
	return typeVarchar
}

func widen(current, next string) string {
	if current == "" {
		return next
	}
	if current == next {
		return current
	}
	if current == typeVarchar || next == typeVarchar {
		return typeVarchar
	}
	// BIGINT and DOUBLE mix as DOUBLE.
	return typeDouble
}
