package diag

import (
	"gonum.org/v1/gonum/floats"

	"pv_diagnostics/internal/model"
	"pv_diagnostics/internal/pvcell"
)

// ShadingConfig tunes the shading classifier. Band tables are injectable so
// boundary behavior can be probed without touching the analyzer.
type ShadingConfig struct {
	// ShadingThreshold marks a cell as shaded when its irradiance falls below
	// this fraction of the best-illuminated cell.
	ShadingThreshold float64
	// TempRiseCoeff is the estimated hot-spot temperature rise in °C at a
	// full irradiance deficit. 93.75 maps an 80% deficit to 75 °C.
	TempRiseCoeff float64
	// BypassDeficit is the irradiance deficit (relative to the string current
	// forced by the rest of the string) beyond which the weakest cell's group
	// goes into reverse bias far enough to open its bypass diode.
	BypassDeficit float64

	SeverityBands []model.Band
	RiskBands     []model.Band
}

func DefaultShadingConfig() ShadingConfig {
	return ShadingConfig{
		ShadingThreshold: 0.90,
		TempRiseCoeff:    93.75,
		BypassDeficit:    0.5,
		SeverityBands:    model.DefaultSeverityBands(),
		RiskBands:        model.DefaultRiskBands(),
	}
}

// ShadingAnalyzer turns a per-cell irradiance vector into shading, hot-spot
// and power-loss reports. Stateless: every call is a pure function of its
// input vector and the module geometry.
type ShadingAnalyzer struct {
	module *pvcell.Module
	cfg    ShadingConfig
}

func NewShadingAnalyzer(module *pvcell.Module, cfg ShadingConfig) *ShadingAnalyzer {
	return &ShadingAnalyzer{module: module, cfg: cfg}
}

// AnalyzePattern counts shaded cells relative to the best-illuminated cell
// and maps the shaded ratio onto the severity bands. A fully dark string
// counts every cell as shaded.
func (a *ShadingAnalyzer) AnalyzePattern(irr []float64) (model.ShadingReport, error) {
	if err := a.module.ValidateIrradiances(irr); err != nil {
		return model.ShadingReport{}, err
	}

	maxIrr := floats.Max(irr)
	shaded := make([]bool, len(irr))
	numShaded := 0
	for i, g := range irr {
		if maxIrr <= 0 || g < a.cfg.ShadingThreshold*maxIrr {
			shaded[i] = true
			numShaded++
		}
	}

	affected := 0
	for _, cells := range a.module.Groups() {
		for _, c := range cells {
			if shaded[c] {
				affected++
				break
			}
		}
	}

	ratio := float64(numShaded) / float64(a.module.Ns())
	return model.ShadingReport{
		NumShadedCells:    numShaded,
		ShadingRatio:      ratio,
		Severity:          model.Classify(a.cfg.SeverityBands, ratio),
		NumAffectedGroups: affected,
	}, nil
}

// DetectHotSpotRisk locates the weakest cell and estimates how hot it runs
// when the rest of the string forces current through it. The temperature
// rise grows linearly with the irradiance deficit against the dominant
// irradiance; risk is banded on that rise.
func (a *ShadingAnalyzer) DetectHotSpotRisk(irr []float64) (model.HotspotReport, error) {
	if err := a.module.ValidateIrradiances(irr); err != nil {
		return model.HotspotReport{}, err
	}

	// Ties resolve to the last cell scanned, i.e. the cell furthest along
	// the string.
	weakest := 0
	for i, g := range irr {
		if g <= irr[weakest] {
			weakest = i
		}
	}

	dominant := floats.Max(irr)
	deficit := 0.0
	if dominant > 0 {
		deficit = (dominant - irr[weakest]) / dominant
	}
	rise := deficit * a.cfg.TempRiseCoeff

	return model.HotspotReport{
		WeakestCellIndex:      weakest,
		WeakestCellIrradiance: irr[weakest],
		EstimatedTempRise:     rise,
		RiskLevel:             model.Classify(a.cfg.RiskBands, rise),
		WillBypassActivate:    a.bypassActivates(irr, weakest),
	}, nil
}

// bypassActivates reports whether the group holding the weakest cell would
// conduct through its diode: the string current is set by the weakest cell
// outside the group, and the diode opens once the in-group deficit against
// that forced current exceeds the activation threshold.
func (a *ShadingAnalyzer) bypassActivates(irr []float64, weakest int) bool {
	group := a.module.GroupOf(weakest)

	forced := -1.0
	for g, cells := range a.module.Groups() {
		if g == group {
			continue
		}
		for _, c := range cells {
			if forced < 0 || irr[c] < forced {
				forced = irr[c]
			}
		}
	}
	if forced <= 0 {
		// Single-group module or dark remainder: nothing forces current
		// through the weak group.
		return false
	}

	deficit := (forced - irr[weakest]) / forced
	return deficit > a.cfg.BypassDeficit
}

// EstimatePowerLoss compares module power under the given vector against the
// baseline of every cell at the vector's dominant irradiance, so a uniformly
// lit module at any level reports zero loss. Loss is driven by the weakest
// series element, not an area-weighted average, so small shaded fractions
// produce disproportionate losses.
func (a *ShadingAnalyzer) EstimatePowerLoss(irr []float64) (model.PowerLossReport, error) {
	if err := a.module.ValidateIrradiances(irr); err != nil {
		return model.PowerLossReport{}, err
	}

	dominant := floats.Max(irr)
	uniform := make([]float64, a.module.Ns())
	for i := range uniform {
		uniform[i] = dominant
	}

	baseline, err := a.module.MaxPower(uniform)
	if err != nil {
		return model.PowerLossReport{}, err
	}
	shaded, err := a.module.MaxPower(irr)
	if err != nil {
		return model.PowerLossReport{}, err
	}

	loss := baseline - shaded
	pct := 0.0
	if baseline > 0 {
		pct = loss / baseline * 100
	}

	return model.PowerLossReport{
		BaselinePower:  baseline,
		ShadedPower:    shaded,
		PowerLoss:      loss,
		LossPercentage: pct,
	}, nil
}
