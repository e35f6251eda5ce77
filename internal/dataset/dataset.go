// Package dataset reads and writes survey tables as delimited text.
//
// Typing follows the convention of the training-side tooling: a column is
// numeric only when every non-missing cell parses as a number, otherwise
// the whole column stays text. Empty cells and the NA/NaN markers load as
// missing.
package dataset

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/JemmyKuria/Vaccine-Project/internal/frame"
)

// Dataset is a loaded survey file with derived metadata.
type Dataset struct {
	Path  string
	Hash  string // "sha256:<hex>"
	Table *frame.Frame
}

// Load reads a CSV file from disk, computes its hash, and parses it into a
// typed table.
func Load(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}
	table, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	sum := sha256.Sum256(data)
	return &Dataset{
		Path:  path,
		Hash:  fmt.Sprintf("sha256:%x", sum),
		Table: table,
	}, nil
}

// Parse reads CSV from r into a Frame. The first record is the header;
// duplicate column names are rejected.
func Parse(r io.Reader) (*frame.Frame, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("input is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	seen := make(map[string]bool, len(header))
	for _, name := range header {
		if seen[name] {
			return nil, fmt.Errorf("duplicate column %q in header", name)
		}
		seen[name] = true
	}

	raw := make([][]string, len(header))
	rows := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", rows+1, err)
		}
		for i := range header {
			raw[i] = append(raw[i], record[i])
		}
		rows++
	}

	f := frame.New(rows)
	for i, name := range header {
		var err error
		f, err = f.WithColumn(name, typeColumn(raw[i]))
		if err != nil {
			return nil, err
		}
	}
	return f, nil
}

// typeColumn converts one column of raw cells into typed values, numeric
// only if every non-missing cell parses.
func typeColumn(cells []string) []frame.Value {
	numeric := true
	for _, c := range cells {
		if isMissing(c) {
			continue
		}
		if _, err := strconv.ParseFloat(c, 64); err != nil {
			numeric = false
			break
		}
	}
	vals := make([]frame.Value, len(cells))
	for i, c := range cells {
		switch {
		case isMissing(c):
			vals[i] = frame.NA()
		case numeric:
			n, _ := strconv.ParseFloat(c, 64)
			vals[i] = frame.Num(n)
		default:
			vals[i] = frame.Str(c)
		}
	}
	return vals
}

func isMissing(cell string) bool {
	switch cell {
	case "", "NA", "NaN":
		return true
	}
	return false
}

// WriteCSV writes the table back out, header first, numbers in minimal
// form, missing cells empty.
func WriteCSV(w io.Writer, f *frame.Frame) error {
	cols := f.Columns()
	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	record := make([]string, len(cols))
	for row := 0; row < f.Rows(); row++ {
		for i, name := range cols {
			record[i] = f.At(name, row).String()
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing row %d: %w", row, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
