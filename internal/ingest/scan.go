package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ScanParser parses per-cell irradiance scan CSV exports.
//
// Expected format, one row per cell, cells of a module grouped together:
//
//	module_id,cell,irradiance_wm2
//	roof-a,0,1000
//	roof-a,1,982.5
type ScanParser struct{}

func NewScanParser() *ScanParser {
	return &ScanParser{}
}

func (p *ScanParser) Parse(r io.Reader) ([]Scan, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	if err := validateScanHeader(header); err != nil {
		return nil, err
	}

	cells := make(map[string]map[int]float64)
	var order []string

	lineNum := 1 // header was line 1
	for {
		lineNum++
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV line %d: %w", lineNum, err)
		}

		id := strings.TrimSpace(record[0])
		if id == "" {
			return nil, fmt.Errorf("line %d: empty module id", lineNum)
		}

		cell, err := strconv.Atoi(strings.TrimSpace(record[1]))
		if err != nil {
			return nil, fmt.Errorf("line %d: bad cell index %q", lineNum, record[1])
		}
		if cell < 0 {
			return nil, fmt.Errorf("line %d: negative cell index %d", lineNum, cell)
		}

		irr, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad irradiance %q", lineNum, record[2])
		}

		if cells[id] == nil {
			cells[id] = make(map[int]float64)
			order = append(order, id)
		}
		cells[id][cell] = irr
	}

	scans := make([]Scan, 0, len(order))
	for _, id := range order {
		byCell := cells[id]
		irr := make([]float64, len(byCell))
		for c := range irr {
			v, ok := byCell[c]
			if !ok {
				return nil, fmt.Errorf("module %s: missing cell %d (have %d cells)", id, c, len(byCell))
			}
			irr[c] = v
		}
		scans = append(scans, Scan{ID: id, Irradiances: irr})
	}

	return scans, nil
}

func validateScanHeader(header []string) error {
	if len(header) < 3 {
		return fmt.Errorf("expected at least 3 columns, got %d", len(header))
	}

	expected := []string{"module_id", "cell", "irradiance_wm2"}
	for i, col := range expected {
		if strings.TrimSpace(header[i]) != col {
			return fmt.Errorf("expected column %d to be %q, got %q", i, col, header[i])
		}
	}
	return nil
}
