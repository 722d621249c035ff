package diag

import (
	"math"

	"pv_diagnostics/internal/model"
)

// HealthConfig tunes the performance-ratio evaluation.
type HealthConfig struct {
	// TempCoeff is the power temperature coefficient per °C, typically
	// around -0.004 (-0.4%/°C) for crystalline silicon.
	TempCoeff float64
	// RefTemperature is the cell temperature at which no derate applies.
	RefTemperature float64
	// RefIrradiance converts irradiance into the expected-power scale factor.
	RefIrradiance float64
	// MinExpectedPower guards the performance ratio against near-zero
	// expectations (night-time or sensor dropout telemetry).
	MinExpectedPower float64

	GradeBands []model.Band
}

func DefaultHealthConfig() HealthConfig {
	return HealthConfig{
		TempCoeff:        -0.004,
		RefTemperature:   25,
		RefIrradiance:    1000,
		MinExpectedPower: 1e-6,
		GradeBands:       model.DefaultGradeBands(),
	}
}

// PerformanceEvaluator grades scalar telemetry against weather-corrected
// expected output.
type PerformanceEvaluator struct {
	cfg HealthConfig
}

func NewPerformanceEvaluator(cfg HealthConfig) *PerformanceEvaluator {
	return &PerformanceEvaluator{cfg: cfg}
}

// EvaluateHealth computes expected power from rated power, irradiance and a
// linear temperature derate, then buckets the performance ratio into the
// grade bands. Zero or near-zero expected power reports an indeterminate
// grade instead of dividing by zero.
func (e *PerformanceEvaluator) EvaluateHealth(t model.Telemetry) (model.HealthReport, error) {
	if math.IsNaN(t.CurrentPower) || math.IsNaN(t.RatedPower) || math.IsNaN(t.Irradiance) || math.IsNaN(t.Temperature) {
		return model.HealthReport{}, model.NewValidationError("telemetry", "fields must be numeric")
	}
	if t.RatedPower < 0 || t.Irradiance < 0 {
		return model.HealthReport{}, model.NewValidationError("telemetry", "rated power and irradiance must be non-negative")
	}

	derate := 1 + e.cfg.TempCoeff*(t.Temperature-e.cfg.RefTemperature)
	if derate < 0 {
		derate = 0
	}
	expected := t.RatedPower * (t.Irradiance / e.cfg.RefIrradiance) * derate

	report := model.HealthReport{
		CurrentPower:  t.CurrentPower,
		ExpectedPower: expected,
	}

	if expected <= e.cfg.MinExpectedPower {
		report.HealthGrade = model.GradeIndeterminate
		return report, nil
	}

	report.PRPercentage = t.CurrentPower / expected * 100
	report.HealthGrade = model.Classify(e.cfg.GradeBands, report.PRPercentage)
	return report, nil
}
