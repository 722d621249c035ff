package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// SweepParser parses a measured IV sweep.
//
// Expected format, voltage ascending:
//
//	voltage_v,current_a
//	0.0,8.02
//	0.5,8.01
type SweepParser struct{}

func NewSweepParser() *SweepParser {
	return &SweepParser{}
}

func (p *SweepParser) Parse(r io.Reader) (v, i []float64, err error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("reading CSV header: %w", err)
	}
	if err := validateSweepHeader(header); err != nil {
		return nil, nil, err
	}

	lineNum := 1
	for {
		lineNum++
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("reading CSV line %d: %w", lineNum, err)
		}

		voltage, err := strconv.ParseFloat(strings.TrimSpace(record[0]), 64)
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: bad voltage %q", lineNum, record[0])
		}
		current, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: bad current %q", lineNum, record[1])
		}

		v = append(v, voltage)
		i = append(i, current)
	}

	return v, i, nil
}

func validateSweepHeader(header []string) error {
	if len(header) < 2 {
		return fmt.Errorf("expected at least 2 columns, got %d", len(header))
	}

	expected := []string{"voltage_v", "current_a"}
	for i, col := range expected {
		if strings.TrimSpace(header[i]) != col {
			return fmt.Errorf("expected column %d to be %q, got %q", i, col, header[i])
		}
	}
	return nil
}
