package dataprep

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/orderlens/orderlens/internal/schema"
)

var csvHeader = []string{"filename", "email", "expected_output"}

// WriteCSV writes matched records as UTF-8 CSV with the expected output
// JSON-encoded per row.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, rec := range records {
		expected, err := rec.ExpectedJSON()
		if err != nil {
			return fmt.Errorf("record %s: %w", rec.Filename, err)
		}
		if err := cw.Write([]string{rec.Filename, rec.Email, expected}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV reads records back from a matched CSV, for dataset upload.
func ReadCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) != len(csvHeader) {
		return nil, fmt.Errorf("expected columns %v, got %v", csvHeader, header)
	}

	var records []Record
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		rec := Record{Filename: row[0], Email: row[1]}
		if row[2] != "" {
			var expected schema.OrderExtraction
			if err := json.Unmarshal([]byte(row[2]), &expected); err != nil {
				return nil, fmt.Errorf("record %s: malformed expected output: %w", rec.Filename, err)
			}
			rec.Expected = &expected
		}
		records = append(records, rec)
	}

	return records, nil
}
