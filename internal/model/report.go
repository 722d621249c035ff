package model

import "fmt"

// ShadingReport classifies the shading pattern of one irradiance scan.
type ShadingReport struct {
	NumShadedCells    int     `json:"num_shaded_cells"`
	ShadingRatio      float64 `json:"shading_ratio"`
	Severity          string  `json:"severity"`
	NumAffectedGroups int     `json:"num_affected_groups"`
}

// HotspotReport describes the weakest cell and its overheating risk.
type HotspotReport struct {
	WeakestCellIndex      int     `json:"weakest_cell_index"`
	WeakestCellIrradiance float64 `json:"weakest_cell_irradiance"`
	EstimatedTempRise     float64 `json:"estimated_temp_rise_c"`
	RiskLevel             string  `json:"risk_level"`
	WillBypassActivate    bool    `json:"will_bypass_activate"`
}

// PowerLossReport compares module power against the uniform-irradiance baseline.
type PowerLossReport struct {
	BaselinePower  float64 `json:"baseline_power_w"`
	ShadedPower    float64 `json:"shaded_power_w"`
	PowerLoss      float64 `json:"power_loss_w"`
	LossPercentage float64 `json:"loss_percentage"`
}

// CurveAnalysis holds the shape metrics of one IV sweep.
type CurveAnalysis struct {
	Isc        float64 `json:"isc_a"`
	Voc        float64 `json:"voc_v"`
	Pmpp       float64 `json:"pmpp_w"`
	FF         float64 `json:"ff"`
	NumSteps   int     `json:"num_steps"`
	HasShading bool    `json:"has_shading"`
}

// FaultKind tags a detected curve anomaly.
type FaultKind string

const (
	FaultShadingSteps FaultKind = "shading_steps"
	FaultLowCurrent   FaultKind = "low_isc"
	FaultLowVoltage   FaultKind = "low_voc"
	FaultLowShunt     FaultKind = "low_shunt_resistance"
	FaultHighSeries   FaultKind = "high_series_resistance"
	FaultOpenCircuit  FaultKind = "open_circuit"
	FaultShortCircuit FaultKind = "short_circuit"
)

// Fault is an advisory finding. Faults never abort an analysis; an empty
// list means no detected anomaly.
type Fault struct {
	Kind    FaultKind `json:"kind"`
	Message string    `json:"message"`
}

// Reference holds the expected curve figures for the module under
// known-good conditions.
type Reference struct {
	Voc float64 `json:"voc_v"`
	Isc float64 `json:"isc_a"`
	FF  float64 `json:"ff"`
}

// Telemetry is one scalar sample of module output and weather.
type Telemetry struct {
	CurrentPower float64 `json:"current_power_w"`
	RatedPower   float64 `json:"rated_power_w"`
	Irradiance   float64 `json:"irradiance_wm2"`
	Temperature  float64 `json:"temperature_c"`
}

// HealthReport grades measured output against weather-corrected expectation.
type HealthReport struct {
	CurrentPower  float64 `json:"current_power_w"`
	ExpectedPower float64 `json:"expected_power_w"`
	PRPercentage  float64 `json:"pr_percentage"`
	HealthGrade   string  `json:"health_grade"`
}

// GradeIndeterminate is reported when expected power is too low to form a
// meaningful performance ratio (e.g. night-time telemetry).
const GradeIndeterminate = "indeterminate"

// ModuleReport bundles every diagnostic for one irradiance scan.
type ModuleReport struct {
	ID        string          `json:"id"`
	Shading   ShadingReport   `json:"shading"`
	Hotspot   HotspotReport   `json:"hotspot"`
	PowerLoss PowerLossReport `json:"power_loss"`
	Curve     CurveAnalysis   `json:"curve"`
	Faults    []Fault         `json:"faults,omitempty"`
}

// ValidationError reports malformed input: wrong vector length, negative
// irradiance, empty or mismatched curve arrays. It is the only error class
// the engine surfaces; physically implausible but well-formed data comes
// back as a classified report instead.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
