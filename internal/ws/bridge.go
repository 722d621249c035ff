package ws

import (
	"pv_diagnostics/internal/log"
	"pv_diagnostics/internal/store"
	"pv_diagnostics/internal/worker"
)

// Bridge drains worker pool results, caches them and broadcasts them to the
// WebSocket hub.
type Bridge struct {
	hub     *Hub
	reports *store.Store
	results <-chan worker.Result
}

func NewBridge(hub *Hub, reports *store.Store, results <-chan worker.Result) *Bridge {
	return &Bridge{hub: hub, reports: reports, results: results}
}

// Run consumes results until the channel is closed. Meant to run in its own
// goroutine for the lifetime of the server.
func (b *Bridge) Run() {
	for res := range b.results {
		if res.Err != nil {
			log.Warnf("scan %s rejected: %v", res.ID, res.Err)
			b.broadcastError(res.ID + ": " + res.Err.Error())
			continue
		}

		b.reports.Put(res.Report)

		msg, err := NewEnvelope(TypeScanReport, res.Report)
		if err != nil {
			log.Errorf("marshaling scan report: %v", err)
			continue
		}
		b.hub.Broadcast(msg)
		log.Debugf("scan %s analyzed in %s", res.ID, res.Elapsed)
	}
}

func (b *Bridge) broadcastError(message string) {
	msg, err := NewEnvelope(TypeError, ErrorPayload{Message: message})
	if err != nil {
		log.Errorf("marshaling error payload: %v", err)
		return
	}
	b.hub.Broadcast(msg)
}
