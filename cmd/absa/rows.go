package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/absa_attention/pkg/preprocess"
)

// openInput returns stdin for "-" and the named file otherwise.
func openInput(path string, stdin io.Reader) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(stdin), nil
	}
	return os.Open(path)
}

// readRows parses CSV with a header line into rows keyed by column name.
func readRows(r io.Reader) ([]preprocess.Row, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = false

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("input has no header line")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	var rows []preprocess.Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(rows)+1, err)
		}
		row := make(preprocess.Row, len(header))
		for i, col := range header {
			row[col] = record[i]
		}
		rows = append(rows, row)
	}

	return rows, nil
}
