// Package common provides CSV helpers shared by the tabular feed parsers.
package common

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
)

// ErrNoHeader is returned for input without a header row.
var ErrNoHeader = errors.New("csv input has no header row")

// ReadCSV binds CSV data into a slice of structs using gocsv. Columns are
// matched to `csv:"..."` tags by header name, so column order is irrelevant.
func ReadCSV[TCSVRow any](data []byte) ([]TCSVRow, error) {
	var rows []TCSVRow
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		return nil, fmt.Errorf("error parsing CSV data: %w", err)
	}
	return rows, nil
}

// ReadHeader returns the header names of the first CSV record, verbatim.
func ReadHeader(data []byte) ([]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoHeader
		}
		return nil, fmt.Errorf("error reading CSV header: %w", err)
	}
	return header, nil
}

// RecordLines returns, for every data record after the header, the physical
// line on which it starts. Blank lines are skipped and quoted fields may span
// lines, matching the records ReadCSV binds.
func RecordLines(data []byte) ([]int, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	if _, err := r.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoHeader
		}
		return nil, fmt.Errorf("error reading CSV header: %w", err)
	}
	var lines []int
	for {
		if _, err := r.Read(); err != nil {
			if errors.Is(err, io.EOF) {
				return lines, nil
			}
			return nil, fmt.Errorf("error reading CSV record: %w", err)
		}
		line, _ := r.FieldPos(0)
		lines = append(lines, line)
	}
}

// MissingHeaders lists the required column names absent from the header row
// of data, in the order given.
func MissingHeaders(data []byte, required []string) ([]string, error) {
	header, err := ReadHeader(data)
	if err != nil {
		return nil, err
	}
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}
	var missing []string
	for _, name := range required {
		if !present[name] {
			missing = append(missing, name)
		}
	}
	return missing, nil
}
