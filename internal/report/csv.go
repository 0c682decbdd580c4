// Package report serializes flat record slices to CSV.
//
// The header row holds the record's property names (the `csv` struct tag
// when present, otherwise the Go field name); every following row is one
// record.
package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"reflect"

	"github.com/gocarina/gocsv"
)

var ErrNotStruct = errors.New("report: rows must be structs")

// WriteCSV writes a header plus one line per row and returns the number of
// lines written (len(rows) + 1).
func WriteCSV[T any](w io.Writer, rows []T) (int, error) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t.Kind() != reflect.Struct {
		return 0, ErrNotStruct
	}

	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(csv.NewWriter(w))); err != nil {
		return 0, fmt.Errorf("write csv: %w", err)
	}

	return len(rows) + 1, nil
}
