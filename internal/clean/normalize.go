// Package clean collapses the two-row headers of the NRCan fuel consumption
// CSVs into single machine-usable column names.
//
// The source files carry a section label row ("Fuel Consumption", merged
// cells left blank), a field row ("City (L/100 km)", with footnote markers),
// trailing footnote rows after the data, and blank padding rows and columns.
// Everything downstream keys on the exact column names this package
// produces, e.g. "fuelconsumption_city(l/100km)" or "model.1_".
package clean

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// minFooterCells is the minimum number of populated cells a row needs to
// count as data. The explanatory footnotes appended after the data populate
// only one or two cells.
const minFooterCells = 3

var unnamedRe = regexp.MustCompile(`unnamed: \d*`)

// Normalize parses a raw two-header CSV payload and returns a string-typed
// frame with collapsed column names. Column count is preserved relative to
// the surviving (non-empty) columns; data values are untouched apart from
// dropping the redundant field-name row, blank padding, footers, and exact
// duplicate rows.
func Normalize(raw []byte) (dataframe.DataFrame, error) {
	records, err := parseCSV(raw)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	collapsed, err := CollapseHeader(records)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	collapsed = dropDuplicateRows(collapsed)

	df := dataframe.LoadRecords(collapsed,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("load frame: %w", df.Err)
	}
	return df, nil
}

// CollapseHeader applies the header-surgery steps to raw CSV records and
// returns records whose first row is the final single-row header.
//
// Steps, in order:
//  1. label the raw header (blank cells become "unnamed: <idx>", duplicates
//     get ".1", ".2", ... suffixes), lowercased
//  2. drop fully-empty columns and fully-empty rows
//  3. drop footer rows (fewer than three populated cells)
//  4. rewrite "unnamed: N" labels to "fuel consumption" (merged-cell
//     continuations of the consumption section)
//  5. join each label with the field name from the first surviving data row,
//     stripping "*", spaces, and the "#=highoutputengine" footnote token
//  6. drop that field-name row
func CollapseHeader(records [][]string) ([][]string, error) {
	if len(records) < 2 {
		return nil, fmt.Errorf("need a header row and a field row, got %d rows", len(records))
	}
	records = padRecords(records)

	header := mangleHeader(records[0])
	data := records[1:]

	// Fully-empty columns are padding in the source layout.
	keep := make([]bool, len(header))
	for j := range header {
		for _, row := range data {
			if row[j] != "" {
				keep[j] = true
				break
			}
		}
	}
	header = filterCols(header, keep)
	kept := make([][]string, 0, len(data))
	for _, row := range data {
		row = filterCols(row, keep)
		if populated(row) >= minFooterCells {
			kept = append(kept, row)
		}
	}
	if len(kept) < 2 {
		return nil, fmt.Errorf("no data rows survived footer stripping")
	}

	for j, label := range header {
		if strings.Contains(label, "unnamed") {
			header[j] = unnamedRe.ReplaceAllString(label, "fuel consumption")
		}
	}

	// The first surviving row is the field-name row of the two-row header.
	fields := kept[0]
	final := make([]string, len(header))
	for j := range header {
		name := strings.ToLower(header[j] + "_" + fields[j])
		name = strings.ReplaceAll(name, "*", "")
		name = strings.ReplaceAll(name, " ", "")
		name = strings.ReplaceAll(name, "#=highoutputengine", "")
		final[j] = name
	}

	out := make([][]string, 0, len(kept))
	out = append(out, final)
	out = append(out, kept[1:]...)
	return out, nil
}

// mangleHeader assigns usable labels to the raw header cells: blank cells
// become "unnamed: <position>", repeated labels get a ".<count>" suffix. The
// per-category rename maps key on these labels, so the mangling has to stay
// stable. Labels come out lowercased.
func mangleHeader(raw []string) []string {
	seen := make(map[string]int, len(raw))
	out := make([]string, len(raw))
	for j, cell := range raw {
		label := strings.TrimSpace(cell)
		if label == "" {
			out[j] = fmt.Sprintf("unnamed: %d", j)
			continue
		}
		if n, ok := seen[label]; ok {
			seen[label] = n + 1
			out[j] = fmt.Sprintf("%s.%d", label, n+1)
		} else {
			seen[label] = 0
			out[j] = label
		}
	}
	for j := range out {
		out[j] = strings.ToLower(out[j])
	}
	return out
}

func parseCSV(raw []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(raw))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var records [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty csv payload")
	}
	return records, nil
}

// padRecords right-pads ragged rows so every record has the same width, then
// drops rows with no populated cells at all.
func padRecords(records [][]string) [][]string {
	width := 0
	for _, row := range records {
		if len(row) > width {
			width = len(row)
		}
	}
	out := make([][]string, 0, len(records))
	for i, row := range records {
		padded := make([]string, width)
		copy(padded, row)
		if i == 0 || populated(padded) > 0 {
			out = append(out, padded)
		}
	}
	return out
}

func populated(row []string) int {
	n := 0
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			n++
		}
	}
	return n
}

func filterCols(row []string, keep []bool) []string {
	out := make([]string, 0, len(row))
	for j, cell := range row {
		if keep[j] {
			out = append(out, cell)
		}
	}
	return out
}

// dropDuplicateRows removes exact duplicate data rows, keeping the first
// occurrence. The header row is left alone.
func dropDuplicateRows(records [][]string) [][]string {
	if len(records) == 0 {
		return records
	}
	out := make([][]string, 0, len(records))
	out = append(out, records[0])
	seen := make(map[string]struct{}, len(records))
	for _, row := range records[1:] {
		key := strings.Join(row, "\x1f")
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, row)
	}
	return out
}
