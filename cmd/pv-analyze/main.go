// pv-analyze runs the full diagnostic set over a CSV of per-cell irradiance
// scans and prints one JSON report per module.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"pv_diagnostics/internal/diag"
	"pv_diagnostics/internal/ingest"
	"pv_diagnostics/internal/log"
	"pv_diagnostics/internal/model"
	"pv_diagnostics/internal/pvcell"
	"pv_diagnostics/internal/worker"
)

type scanOutput struct {
	ID     string              `json:"id"`
	Report *model.ModuleReport `json:"report,omitempty"`
	Error  string              `json:"error,omitempty"`
}

func main() {
	scansPath := flag.String("scans", "", "CSV file of per-cell irradiance scans")
	cells := flag.Int("cells", 60, "cells per module")
	groups := flag.Int("groups", 3, "bypass-diode groups per module")
	workers := flag.Int("workers", 4, "analysis worker count")
	debug := flag.Bool("debug", false, "verbose logging")
	flag.Parse()

	if err := log.Init(*debug); err != nil {
		panic(err)
	}
	defer log.Sync()

	if *scansPath == "" {
		log.Fatalf("-scans is required")
	}

	f, err := os.Open(*scansPath)
	if err != nil {
		log.Fatalf("opening %s: %v", *scansPath, err)
	}
	scans, err := ingest.NewScanParser().Parse(f)
	f.Close()
	if err != nil {
		log.Fatalf("parsing %s: %v", *scansPath, err)
	}
	log.Infof("loaded %d scan(s) from %s", len(scans), *scansPath)

	cell := pvcell.NewCellModel(pvcell.DefaultCellParams())
	module, err := pvcell.NewModule(cell, *cells, *groups, pvcell.DefaultDiodeDrop)
	if err != nil {
		log.Fatalf("building module: %v", err)
	}
	engine, err := diag.NewEngine(module, diag.DefaultEngineConfig())
	if err != nil {
		log.Fatalf("building engine: %v", err)
	}

	pool := worker.New(worker.Options{Workers: *workers, Processor: engine.Analyze})
	defer pool.Shutdown()

	go func() {
		for _, scan := range scans {
			pool.Submit(worker.Job{ID: scan.ID, Irradiances: scan.Irradiances})
		}
	}()

	byID := make(map[string]scanOutput, len(scans))
	for range scans {
		res := <-pool.Results()
		out := scanOutput{ID: res.ID}
		if res.Err != nil {
			out.Error = res.Err.Error()
			log.Warnf("scan %s rejected: %v", res.ID, res.Err)
		} else {
			report := res.Report
			out.Report = &report
		}
		byID[res.ID] = out
	}

	// Emit in input order regardless of worker completion order.
	outputs := make([]scanOutput, 0, len(scans))
	for _, scan := range scans {
		outputs = append(outputs, byID[scan.ID])
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(outputs); err != nil {
		log.Fatalf("encoding output: %v", err)
	}

	var losses []float64
	faults := 0
	for _, out := range outputs {
		if out.Error != "" {
			fmt.Fprintf(os.Stderr, "scan %s failed validation\n", out.ID)
			continue
		}
		losses = append(losses, out.Report.PowerLoss.LossPercentage)
		faults += len(out.Report.Faults)
	}
	if len(losses) > 0 {
		log.Infof("analyzed %d scan(s): mean loss %.1f%% (max %.1f%%), %d fault(s) total",
			len(losses), stat.Mean(losses, nil), floats.Max(losses), faults)
	}
}
