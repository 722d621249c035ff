package ingest

import "io"

// Scan is one per-cell irradiance capture for a module.
type Scan struct {
	ID          string
	Irradiances []float64
}

// Parser reads irradiance scans from a source.
type Parser interface {
	Parse(r io.Reader) ([]Scan, error)
}
