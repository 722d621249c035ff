package ws

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"pv_diagnostics/internal/diag"
	"pv_diagnostics/internal/log"
	"pv_diagnostics/internal/model"
	"pv_diagnostics/internal/store"
	"pv_diagnostics/internal/worker"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler manages WebSocket connections and routes diagnostic requests.
// Irradiance scans go through the worker pool; curve and telemetry requests
// are cheap enough to answer inline.
type Handler struct {
	hub     *Hub
	engine  *diag.Engine
	pool    *worker.Pool
	reports *store.Store
}

func NewHandler(hub *Hub, engine *diag.Engine, pool *worker.Pool, reports *store.Store) *Handler {
	return &Handler{hub: hub, engine: engine, pool: pool, reports: reports}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("WebSocket upgrade error: %v", err)
		return
	}

	client := &Client{
		hub:  h.hub,
		conn: conn,
		send: make(chan []byte, 256),
	}

	h.hub.Register(client)
	go client.writePump()

	// Catch the new client up on module geometry and cached reports.
	h.sendModuleInfo(client)
	h.sendCachedReports(client)

	h.readPump(client)
}

func (h *Handler) readPump(c *Client) {
	defer func() {
		h.hub.Unregister(c)
		c.conn.Close()
	}()

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warnf("WebSocket read error: %v", err)
			}
			return
		}

		h.handleMessage(c, msg)
	}
}

func (h *Handler) handleMessage(c *Client, msg []byte) {
	var env Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		log.Warnf("invalid message: %v", err)
		return
	}

	switch env.Type {
	case TypeScanAnalyze:
		var p ScanPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			log.Warnf("invalid scan payload: %v", err)
			return
		}
		h.pool.Submit(worker.Job{ID: p.ID, Irradiances: p.Irradiances})

	case TypeCurveAnalyze:
		var p CurvePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			log.Warnf("invalid curve payload: %v", err)
			return
		}
		an, faults, err := h.engine.AnalyzeCurve(p.Voltage, p.Current)
		if err != nil {
			h.sendError(c, err.Error())
			return
		}
		h.send(c, TypeCurveReport, CurveReportPayload{ID: p.ID, Analysis: an, Faults: faults})

	case TypeHealthEvaluate:
		var p model.Telemetry
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			log.Warnf("invalid telemetry payload: %v", err)
			return
		}
		report, err := h.engine.EvaluateHealth(p)
		if err != nil {
			h.sendError(c, err.Error())
			return
		}
		h.send(c, TypeHealthReport, report)

	default:
		log.Warnf("unknown message type: %s", env.Type)
	}
}

func (h *Handler) sendModuleInfo(c *Client) {
	m := h.engine.Module()
	sizes := make([]int, 0, m.Nb())
	for _, cells := range m.Groups() {
		sizes = append(sizes, len(cells))
	}
	h.send(c, TypeModuleInfo, ModuleInfoPayload{
		Ns:         m.Ns(),
		Nb:         m.Nb(),
		GroupSizes: sizes,
		Reference:  h.engine.Reference(),
	})
}

func (h *Handler) sendCachedReports(c *Client) {
	for _, report := range h.reports.Snapshot() {
		h.send(c, TypeScanReport, report)
	}
}

func (h *Handler) send(c *Client, msgType string, payload any) {
	msg, err := NewEnvelope(msgType, payload)
	if err != nil {
		log.Errorf("marshaling %s: %v", msgType, err)
		return
	}
	select {
	case c.send <- msg:
	default:
		log.Warnf("client buffer full, dropping %s", msgType)
	}
}

func (h *Handler) sendError(c *Client, message string) {
	h.send(c, TypeError, ErrorPayload{Message: message})
}
