package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pv_diagnostics/internal/diag"
	"pv_diagnostics/internal/model"
	"pv_diagnostics/internal/pvcell"
	"pv_diagnostics/internal/store"
	"pv_diagnostics/internal/worker"
)

// testHandler wires a full server-side stack around a 60-cell module.
func testHandler(t *testing.T) (*Handler, *diag.Engine, func()) {
	t.Helper()

	m, err := pvcell.NewModule(pvcell.NewCellModel(pvcell.DefaultCellParams()), 60, 3, pvcell.DefaultDiodeDrop)
	require.NoError(t, err)
	engine, err := diag.NewEngine(m, diag.DefaultEngineConfig())
	require.NoError(t, err)

	pool := worker.New(worker.Options{Workers: 2, Processor: engine.Analyze})
	reports := store.New()
	hub := NewHub()

	bridge := NewBridge(hub, reports, pool.Results())
	go bridge.Run()

	return NewHandler(hub, engine, pool, reports), engine, pool.Shutdown
}

// dialHandler sets up a test server with the handler and returns a WS connection.
func dialHandler(t *testing.T, handler *Handler) (*websocket.Conn, func()) {
	t.Helper()
	server := httptest.NewServer(handler)
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	return conn, func() {
		conn.Close()
		server.Close()
	}
}

// readJSON reads the next JSON message from the connection.
func readJSON(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var env Envelope
	require.NoError(t, json.Unmarshal(msg, &env))
	return env
}

// sendJSON sends a JSON message on the connection.
func sendJSON(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	data, err := NewEnvelope(msgType, payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func uniformIrradiance(ns int, level float64) []float64 {
	irr := make([]float64, ns)
	for i := range irr {
		irr[i] = level
	}
	return irr
}

func TestHandler_SendsModuleInfoOnConnect(t *testing.T) {
	handler, engine, shutdown := testHandler(t)
	defer shutdown()

	conn, cleanup := dialHandler(t, handler)
	defer cleanup()

	env := readJSON(t, conn)
	assert.Equal(t, TypeModuleInfo, env.Type)

	var info ModuleInfoPayload
	require.NoError(t, json.Unmarshal(env.Payload, &info))
	assert.Equal(t, 60, info.Ns)
	assert.Equal(t, 3, info.Nb)
	assert.Equal(t, []int{20, 20, 20}, info.GroupSizes)
	assert.InDelta(t, engine.Reference().Voc, info.Reference.Voc, 1e-9)
}

func TestHandler_ScanAnalyzeRoundTrip(t *testing.T) {
	handler, _, shutdown := testHandler(t)
	defer shutdown()

	conn, cleanup := dialHandler(t, handler)
	defer cleanup()

	readJSON(t, conn) // module:info

	irr := uniformIrradiance(60, 1000)
	for c := 40; c < 60; c++ {
		irr[c] = 200
	}
	sendJSON(t, conn, TypeScanAnalyze, ScanPayload{ID: "roof-a", Irradiances: irr})

	env := readJSON(t, conn)
	assert.Equal(t, TypeScanReport, env.Type)

	var report model.ModuleReport
	require.NoError(t, json.Unmarshal(env.Payload, &report))
	assert.Equal(t, "roof-a", report.ID)
	assert.Equal(t, 20, report.Shading.NumShadedCells)
	assert.Equal(t, "moderate", report.Shading.Severity)
	assert.Equal(t, 59, report.Hotspot.WeakestCellIndex)
}

func TestHandler_ScanAnalyzeBadVector(t *testing.T) {
	handler, _, shutdown := testHandler(t)
	defer shutdown()

	conn, cleanup := dialHandler(t, handler)
	defer cleanup()

	readJSON(t, conn) // module:info

	sendJSON(t, conn, TypeScanAnalyze, ScanPayload{ID: "short", Irradiances: []float64{1000}})

	env := readJSON(t, conn)
	assert.Equal(t, TypeError, env.Type)

	var p ErrorPayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.Contains(t, p.Message, "short")
}

func TestHandler_CurveAnalyze(t *testing.T) {
	handler, engine, shutdown := testHandler(t)
	defer shutdown()

	conn, cleanup := dialHandler(t, handler)
	defer cleanup()

	readJSON(t, conn) // module:info

	v, i, err := engine.Module().IVSweep(uniformIrradiance(60, 1000), 200)
	require.NoError(t, err)
	sendJSON(t, conn, TypeCurveAnalyze, CurvePayload{ID: "sweep-1", Voltage: v, Current: i})

	env := readJSON(t, conn)
	assert.Equal(t, TypeCurveReport, env.Type)

	var report CurveReportPayload
	require.NoError(t, json.Unmarshal(env.Payload, &report))
	assert.Equal(t, "sweep-1", report.ID)
	assert.InDelta(t, 8, report.Analysis.Isc, 1e-6)
	assert.Empty(t, report.Faults)
}

func TestHandler_HealthEvaluate(t *testing.T) {
	handler, _, shutdown := testHandler(t)
	defer shutdown()

	conn, cleanup := dialHandler(t, handler)
	defer cleanup()

	readJSON(t, conn) // module:info

	sendJSON(t, conn, TypeHealthEvaluate, model.Telemetry{
		CurrentPower: 850,
		RatedPower:   1000,
		Irradiance:   1000,
		Temperature:  25,
	})

	env := readJSON(t, conn)
	assert.Equal(t, TypeHealthReport, env.Type)

	var report model.HealthReport
	require.NoError(t, json.Unmarshal(env.Payload, &report))
	assert.InDelta(t, 85, report.PRPercentage, 1e-9)
	assert.Equal(t, "good", report.HealthGrade)
}

func TestHandler_NewClientReceivesCachedReports(t *testing.T) {
	handler, _, shutdown := testHandler(t)
	defer shutdown()

	first, cleanupFirst := dialHandler(t, handler)
	readJSON(t, first) // module:info
	sendJSON(t, first, TypeScanAnalyze, ScanPayload{ID: "roof-a", Irradiances: uniformIrradiance(60, 1000)})
	env := readJSON(t, first)
	require.Equal(t, TypeScanReport, env.Type)
	cleanupFirst()

	second, cleanupSecond := dialHandler(t, handler)
	defer cleanupSecond()

	env = readJSON(t, second)
	assert.Equal(t, TypeModuleInfo, env.Type)

	env = readJSON(t, second)
	assert.Equal(t, TypeScanReport, env.Type)

	var report model.ModuleReport
	require.NoError(t, json.Unmarshal(env.Payload, &report))
	assert.Equal(t, "roof-a", report.ID)
}

func TestHandler_IgnoresUnknownMessageType(t *testing.T) {
	handler, _, shutdown := testHandler(t)
	defer shutdown()

	conn, cleanup := dialHandler(t, handler)
	defer cleanup()

	readJSON(t, conn) // module:info

	sendJSON(t, conn, "sim:start", nil)

	// Connection stays healthy and keeps answering requests.
	sendJSON(t, conn, TypeHealthEvaluate, model.Telemetry{
		CurrentPower: 0, RatedPower: 1000, Irradiance: 0, Temperature: 10,
	})
	env := readJSON(t, conn)
	assert.Equal(t, TypeHealthReport, env.Type)
}
