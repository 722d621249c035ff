package ws

import (
	"encoding/json"

	"pv_diagnostics/internal/model"
)

// Envelope wraps all WebSocket messages with a type discriminator.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Message type constants
const (
	// Client -> Server
	TypeScanAnalyze    = "scan:analyze"
	TypeCurveAnalyze   = "curve:analyze"
	TypeHealthEvaluate = "health:evaluate"

	// Server -> Client
	TypeModuleInfo   = "module:info"
	TypeScanReport   = "scan:report"
	TypeCurveReport  = "curve:report"
	TypeHealthReport = "health:report"
	TypeError        = "error"
)

// Client -> Server payloads

type ScanPayload struct {
	ID          string    `json:"id"`
	Irradiances []float64 `json:"irradiances"`
}

type CurvePayload struct {
	ID      string    `json:"id"`
	Voltage []float64 `json:"voltage"`
	Current []float64 `json:"current"`
}

// Server -> Client payloads

type ModuleInfoPayload struct {
	Ns         int             `json:"ns"`
	Nb         int             `json:"nb"`
	GroupSizes []int           `json:"group_sizes"`
	Reference  model.Reference `json:"reference"`
}

type CurveReportPayload struct {
	ID       string              `json:"id"`
	Analysis model.CurveAnalysis `json:"analysis"`
	Faults   []model.Fault       `json:"faults,omitempty"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func NewEnvelope(msgType string, payload any) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return json.Marshal(Envelope{Type: msgType, Payload: raw})
}
