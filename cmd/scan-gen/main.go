// scan-gen synthesizes per-cell irradiance scan CSVs for a shading scenario
// sampled across a clear-sky day. The output feeds pv-analyze or the
// scan:analyze WebSocket request.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strconv"

	"pv_diagnostics/internal/log"
	"pv_diagnostics/internal/scenario"
)

func main() {
	cells := flag.Int("cells", 60, "cells per module")
	pattern := flag.String("pattern", "pole", "shading pattern: none, edge, pole, soiling")
	peak := flag.Float64("peak", 1000, "clear-sky peak irradiance in W/m²")
	from := flag.Float64("from", 7, "first sample hour")
	to := flag.Float64("to", 19, "last sample hour")
	step := flag.Float64("step", 2, "hours between samples")
	out := flag.String("out", "", "output file (default stdout)")
	debug := flag.Bool("debug", false, "verbose logging")
	flag.Parse()

	if err := log.Init(*debug); err != nil {
		panic(err)
	}
	defer log.Sync()

	if *step <= 0 || *to < *from {
		log.Fatalf("sample range must ascend with a positive step")
	}

	p, err := scenario.ParsePattern(*pattern)
	if err != nil {
		log.Fatalf("%v", err)
	}
	gen, err := scenario.New(*cells, *peak)
	if err != nil {
		log.Fatalf("%v", err)
	}

	w := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			log.Fatalf("creating %s: %v", *out, err)
		}
		defer f.Close()
		w = f
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"module_id", "cell", "irradiance_wm2"}); err != nil {
		log.Fatalf("writing header: %v", err)
	}

	scans := 0
	for hour := *from; hour <= *to+1e-9; hour += *step {
		id := fmt.Sprintf("%s-%04.1fh", p, hour)
		for c, irr := range gen.At(p, hour) {
			record := []string{
				id,
				strconv.Itoa(c),
				strconv.FormatFloat(irr, 'f', 1, 64),
			}
			if err := cw.Write(record); err != nil {
				log.Fatalf("writing scan %s: %v", id, err)
			}
		}
		scans++
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		log.Fatalf("flushing output: %v", err)
	}
	log.Infof("wrote %d %s scan(s) for %d cells", scans, p, *cells)
}
