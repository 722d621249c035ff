package diag

import (
	"pv_diagnostics/internal/model"
	"pv_diagnostics/internal/pvcell"
)

// EngineConfig bundles the tuning of all three analyzers.
type EngineConfig struct {
	Shading ShadingConfig
	Curve   CurveConfig
	Health  HealthConfig

	// Reference supplies the known-good curve figures used by fault
	// detection. Nil derives them from the module's own uniform-irradiance
	// sweep at construction time.
	Reference *model.Reference

	// SweepSamples is the sample count for synthesized IV sweeps.
	SweepSamples int
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Shading:      DefaultShadingConfig(),
		Curve:        DefaultCurveConfig(),
		Health:       DefaultHealthConfig(),
		SweepSamples: 400,
	}
}

// Engine runs the full diagnostic set for one module geometry. All analyses
// are pure functions of their inputs; an Engine is safe for concurrent use.
type Engine struct {
	module  *pvcell.Module
	shading *ShadingAnalyzer
	curves  *CurveDiagnostics
	health  *PerformanceEvaluator
	ref     model.Reference
	samples int
}

func NewEngine(module *pvcell.Module, cfg EngineConfig) (*Engine, error) {
	if cfg.SweepSamples < 2 {
		cfg.SweepSamples = DefaultEngineConfig().SweepSamples
	}

	e := &Engine{
		module:  module,
		shading: NewShadingAnalyzer(module, cfg.Shading),
		curves:  NewCurveDiagnostics(cfg.Curve),
		health:  NewPerformanceEvaluator(cfg.Health),
		samples: cfg.SweepSamples,
	}

	if cfg.Reference != nil {
		e.ref = *cfg.Reference
		return e, nil
	}

	ref, err := e.deriveReference()
	if err != nil {
		return nil, err
	}
	e.ref = ref
	return e, nil
}

// deriveReference sweeps the module at uniform full irradiance and reads the
// known-good Voc/Isc/FF off that curve.
func (e *Engine) deriveReference() (model.Reference, error) {
	uniform := make([]float64, e.module.Ns())
	for i := range uniform {
		uniform[i] = pvcell.ReferenceIrradiance
	}
	v, i, err := e.module.IVSweep(uniform, e.samples)
	if err != nil {
		return model.Reference{}, err
	}
	an, err := e.curves.AnalyzeShape(v, i)
	if err != nil {
		return model.Reference{}, err
	}
	return model.Reference{Voc: an.Voc, Isc: an.Isc, FF: an.FF}, nil
}

func (e *Engine) Module() *pvcell.Module     { return e.module }
func (e *Engine) Reference() model.Reference { return e.ref }

// Analyze runs every irradiance-vector diagnostic plus the synthesized-sweep
// curve checks and bundles the results under the given scan ID.
func (e *Engine) Analyze(id string, irr []float64) (model.ModuleReport, error) {
	shading, err := e.shading.AnalyzePattern(irr)
	if err != nil {
		return model.ModuleReport{}, err
	}
	hotspot, err := e.shading.DetectHotSpotRisk(irr)
	if err != nil {
		return model.ModuleReport{}, err
	}
	loss, err := e.shading.EstimatePowerLoss(irr)
	if err != nil {
		return model.ModuleReport{}, err
	}

	v, i, err := e.module.IVSweep(irr, e.samples)
	if err != nil {
		return model.ModuleReport{}, err
	}
	curve, err := e.curves.AnalyzeShape(v, i)
	if err != nil {
		return model.ModuleReport{}, err
	}
	faults, err := e.curves.DetectFaults(v, i, e.ref)
	if err != nil {
		return model.ModuleReport{}, err
	}

	return model.ModuleReport{
		ID:        id,
		Shading:   shading,
		Hotspot:   hotspot,
		PowerLoss: loss,
		Curve:     curve,
		Faults:    faults,
	}, nil
}

// AnalyzeCurve checks a measured sweep against the engine reference.
func (e *Engine) AnalyzeCurve(v, i []float64) (model.CurveAnalysis, []model.Fault, error) {
	an, err := e.curves.AnalyzeShape(v, i)
	if err != nil {
		return model.CurveAnalysis{}, nil, err
	}
	faults, err := e.curves.DetectFaults(v, i, e.ref)
	if err != nil {
		return model.CurveAnalysis{}, nil, err
	}
	return an, faults, nil
}

// EvaluateHealth grades one telemetry sample.
func (e *Engine) EvaluateHealth(t model.Telemetry) (model.HealthReport, error) {
	return e.health.EvaluateHealth(t)
}
