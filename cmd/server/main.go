package main

import (
	"flag"
	"fmt"
	"net/http"

	"pv_diagnostics/internal/diag"
	"pv_diagnostics/internal/log"
	"pv_diagnostics/internal/pvcell"
	"pv_diagnostics/internal/store"
	"pv_diagnostics/internal/worker"
	"pv_diagnostics/internal/ws"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	cells := flag.Int("cells", 60, "cells per module")
	groups := flag.Int("groups", 3, "bypass-diode groups per module")
	workers := flag.Int("workers", 4, "analysis worker count")
	debug := flag.Bool("debug", false, "verbose logging")
	flag.Parse()

	if err := log.Init(*debug); err != nil {
		panic(err)
	}
	defer log.Sync()

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

	reports := store.New()
	hub := ws.NewHub()
	bridge := ws.NewBridge(hub, reports, pool.Results())
	go bridge.Run()

	handler := ws.NewHandler(hub, engine, pool, reports)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	mux.Handle("/ws", handler)

	log.Infof("diagnostics server listening on %s (%d cells, %d groups)", *addr, *cells, *groups)
	if err := http.ListenAndServe(*addr, mux); err != nil {
		log.Fatalf("server: %v", err)
	}
}
