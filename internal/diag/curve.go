package diag

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"pv_diagnostics/internal/model"
)

// CurveConfig tunes the IV-curve shape metrics and the fault heuristics.
type CurveConfig struct {
	// FFShadingThreshold flags shading when the fill factor drops below it.
	FFShadingThreshold float64
	// StepProminence is the fraction of Pmpp a local power maximum must rise
	// and fall by to count as a distinct bypass step feature.
	StepProminence float64
	// IscDeviation / VocDeviation are the relative drops below reference
	// that trigger the low-current / low-voltage faults.
	IscDeviation float64
	VocDeviation float64
	// FFDeviation is the fraction of the reference fill factor below which
	// the series-resistance check arms.
	FFDeviation float64
	// ShuntWindow is the fraction of Voc near short circuit inspected for a
	// steep initial slope; ShuntSlopeThreshold is the normalized slope
	// (dI/dV scaled by Voc/Isc) above which shunt leakage is reported.
	ShuntWindow         float64
	ShuntSlopeThreshold float64
	// SeriesWindow is the fraction of Voc near open circuit inspected;
	// SeriesSlopeThreshold is the normalized resistance (dV/dI scaled by
	// Isc/Voc) above which series resistance is reported.
	SeriesWindow         float64
	SeriesSlopeThreshold float64
	// DegenerateRatio: Isc or Voc below this fraction of reference counts
	// as a degenerate curve.
	DegenerateRatio float64
}

func DefaultCurveConfig() CurveConfig {
	return CurveConfig{
		FFShadingThreshold:   0.70,
		StepProminence:       0.05,
		IscDeviation:         0.15,
		VocDeviation:         0.15,
		FFDeviation:          0.90,
		ShuntWindow:          0.20,
		ShuntSlopeThreshold:  0.20,
		SeriesWindow:         0.10,
		SeriesSlopeThreshold: 0.25,
		DegenerateRatio:      0.02,
	}
}

// CurveDiagnostics analyzes measured or synthesized IV sweeps.
type CurveDiagnostics struct {
	cfg CurveConfig
}

func NewCurveDiagnostics(cfg CurveConfig) *CurveDiagnostics {
	return &CurveDiagnostics{cfg: cfg}
}

func validateCurve(v, i []float64) error {
	if len(v) == 0 || len(i) == 0 {
		return model.NewValidationError("curve", "empty voltage or current array")
	}
	if len(v) != len(i) {
		return model.NewValidationError("curve", "voltage has %d points, current has %d", len(v), len(i))
	}
	for k := 1; k < len(v); k++ {
		if v[k] < v[k-1]-1e-9 {
			return model.NewValidationError("curve", "voltage not monotonic at point %d", k)
		}
	}
	return nil
}

// AnalyzeShape extracts Isc, Voc, Pmpp and fill factor from a sweep and
// counts bypass-diode step features. Degenerate curves (Isc or Voc at zero)
// report FF as zero instead of dividing by zero.
func (d *CurveDiagnostics) AnalyzeShape(v, i []float64) (model.CurveAnalysis, error) {
	if err := validateCurve(v, i); err != nil {
		return model.CurveAnalysis{}, err
	}

	// Isc: current at the point nearest V=0. First minimal |V| wins, which
	// on clamped sweeps picks the highest current of the V=0 plateau.
	iscIdx := 0
	for k := range v {
		if math.Abs(v[k]) < math.Abs(v[iscIdx]) {
			iscIdx = k
		}
	}
	isc := i[iscIdx]

	// Voc: voltage at the point nearest I=0. Last minimal |I| wins so a
	// trailing zero-current tail reports the true open-circuit voltage.
	vocIdx := 0
	for k := range i {
		if math.Abs(i[k]) <= math.Abs(i[vocIdx]) {
			vocIdx = k
		}
	}
	voc := v[vocIdx]

	powers := make([]float64, len(v))
	for k := range v {
		powers[k] = v[k] * i[k]
	}
	pmpp := floats.Max(powers)

	ff := 0.0
	if voc*isc > 0 {
		ff = pmpp / (voc * isc)
	}

	steps := 0
	if pmpp > 0 {
		steps = countPeaks(powers, d.cfg.StepProminence*pmpp) - 1
		if steps < 0 {
			steps = 0
		}
	}

	return model.CurveAnalysis{
		Isc:        isc,
		Voc:        voc,
		Pmpp:       pmpp,
		FF:         ff,
		NumSteps:   steps,
		HasShading: steps >= 1 || (ff > 0 && ff < d.cfg.FFShadingThreshold),
	}, nil
}

// countPeaks counts local maxima of p separated by dips of at least prom,
// using a hysteresis scan: a peak begins once the signal rises prom above
// the running minimum and ends once it falls prom below the running maximum.
// Sampling noise below the prominence floor never creates a feature.
func countPeaks(p []float64, prom float64) int {
	if len(p) == 0 || prom <= 0 {
		return 0
	}

	count := 0
	minSince := p[0]
	maxSince := p[0]
	inPeak := false

	for _, x := range p[1:] {
		if inPeak {
			if x > maxSince {
				maxSince = x
			}
			if x <= maxSince-prom {
				count++
				inPeak = false
				minSince = x
			}
		} else {
			if x < minSince {
				minSince = x
			}
			if x >= minSince+prom {
				inPeak = true
				maxSince = x
			}
		}
	}
	if inPeak {
		count++
	}
	return count
}

// DetectFaults runs the fault checks in fixed priority order. Checks are
// independent; several faults may co-occur. A degenerate curve reports only
// its open/short fault, skipping the ratio-based checks.
func (d *CurveDiagnostics) DetectFaults(v, i []float64, ref model.Reference) ([]model.Fault, error) {
	if ref.Voc <= 0 || ref.Isc <= 0 || ref.FF <= 0 {
		return nil, model.NewValidationError("reference", "Voc, Isc and FF must all be positive")
	}

	an, err := d.AnalyzeShape(v, i)
	if err != nil {
		return nil, err
	}

	if an.Isc < d.cfg.DegenerateRatio*ref.Isc {
		return []model.Fault{{
			Kind:    model.FaultOpenCircuit,
			Message: fmt.Sprintf("short-circuit current near zero (%.3f A); open circuit in series path suspected", an.Isc),
		}}, nil
	}
	if an.Voc < d.cfg.DegenerateRatio*ref.Voc {
		return []model.Fault{{
			Kind:    model.FaultShortCircuit,
			Message: fmt.Sprintf("open-circuit voltage near zero (%.3f V); short circuit suspected", an.Voc),
		}}, nil
	}

	var faults []model.Fault

	if an.NumSteps >= 1 {
		faults = append(faults, model.Fault{
			Kind:    model.FaultShadingSteps,
			Message: fmt.Sprintf("partial shading signature: %d bypass-diode step(s) in curve", an.NumSteps),
		})
	}

	if an.Isc < (1-d.cfg.IscDeviation)*ref.Isc {
		drop := (1 - an.Isc/ref.Isc) * 100
		faults = append(faults, model.Fault{
			Kind:    model.FaultLowCurrent,
			Message: fmt.Sprintf("Isc %.2f A is %.0f%% below reference %.2f A; shading or soiling suspected", an.Isc, drop, ref.Isc),
		})
	}

	if an.Voc < (1-d.cfg.VocDeviation)*ref.Voc {
		drop := (1 - an.Voc/ref.Voc) * 100
		faults = append(faults, model.Fault{
			Kind:    model.FaultLowVoltage,
			Message: fmt.Sprintf("Voc %.1f V is %.0f%% below reference %.1f V; failed cell or substring suspected", an.Voc, drop, ref.Voc),
		})
	}

	// Bypass steps distort both slope windows, so the resistance checks only
	// run on step-free curves.
	if slope, ok := d.shortCircuitSlope(v, i, an); ok && an.NumSteps == 0 && slope > d.cfg.ShuntSlopeThreshold {
		faults = append(faults, model.Fault{
			Kind:    model.FaultLowShunt,
			Message: fmt.Sprintf("steep slope near short circuit (normalized %.2f); low shunt resistance suspected", slope),
		})
	}

	if rs, ok := d.openCircuitSlope(v, i, an); ok && an.NumSteps == 0 && an.FF < d.cfg.FFDeviation*ref.FF && rs > d.cfg.SeriesSlopeThreshold {
		faults = append(faults, model.Fault{
			Kind:    model.FaultHighSeries,
			Message: fmt.Sprintf("reduced fill factor %.2f with resistive slope near open circuit (normalized %.2f); high series resistance suspected", an.FF, rs),
		})
	}

	return faults, nil
}

// shortCircuitSlope returns the current decline over the window near V=0,
// normalized so a value of 1 corresponds to losing all of Isc across Voc.
func (d *CurveDiagnostics) shortCircuitSlope(v, i []float64, an model.CurveAnalysis) (float64, bool) {
	if an.Isc <= 0 || an.Voc <= 0 {
		return 0, false
	}
	limit := d.cfg.ShuntWindow * an.Voc

	end := 0
	for k := range v {
		if v[k] > limit {
			break
		}
		end = k
	}
	if end == 0 || v[end] <= v[0] {
		return 0, false
	}

	slope := (i[0] - i[end]) / (v[end] - v[0])
	return slope * an.Voc / an.Isc, true
}

// openCircuitSlope estimates dV/dI over the window near Voc, normalized by
// Isc/Voc so the value reads as a unitless series resistance.
func (d *CurveDiagnostics) openCircuitSlope(v, i []float64, an model.CurveAnalysis) (float64, bool) {
	if an.Isc <= 0 || an.Voc <= 0 {
		return 0, false
	}
	limit := (1 - d.cfg.SeriesWindow) * an.Voc

	start := len(v) - 1
	for k := len(v) - 1; k >= 0; k-- {
		if v[k] < limit {
			break
		}
		start = k
	}
	last := len(v) - 1
	if start >= last || i[start] <= i[last] {
		return 0, false
	}

	rs := (v[last] - v[start]) / (i[start] - i[last])
	return rs * an.Isc / an.Voc, true
}
