package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pv_diagnostics/internal/model"
	"pv_diagnostics/internal/pvcell"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	m, err := pvcell.NewModule(pvcell.NewCellModel(pvcell.DefaultCellParams()), 60, 3, pvcell.DefaultDiodeDrop)
	require.NoError(t, err)
	e, err := NewEngine(m, DefaultEngineConfig())
	require.NoError(t, err)
	return e
}

func TestNewEngine_DerivesReference(t *testing.T) {
	e := newTestEngine(t)

	ref := e.Reference()
	assert.InDelta(t, 36, ref.Voc, 1e-6)
	assert.InDelta(t, 8, ref.Isc, 1e-9)
	assert.InDelta(t, 0.76, ref.FF, 0.02)
}

func TestNewEngine_ExplicitReferenceWins(t *testing.T) {
	m, err := pvcell.NewModule(pvcell.NewCellModel(pvcell.DefaultCellParams()), 60, 3, pvcell.DefaultDiodeDrop)
	require.NoError(t, err)

	cfg := DefaultEngineConfig()
	cfg.Reference = &model.Reference{Voc: 40, Isc: 9, FF: 0.80}
	e, err := NewEngine(m, cfg)
	require.NoError(t, err)

	assert.Equal(t, *cfg.Reference, e.Reference())
}

func TestEngine_AnalyzeShadedModule(t *testing.T) {
	e := newTestEngine(t)

	irr := uniform(60, 1000)
	for c := 40; c < 60; c++ {
		irr[c] = 200
	}

	rep, err := e.Analyze("mod-7", irr)
	require.NoError(t, err)

	assert.Equal(t, "mod-7", rep.ID)
	assert.Equal(t, 20, rep.Shading.NumShadedCells)
	assert.Equal(t, "moderate", rep.Shading.Severity)
	assert.Equal(t, "high", rep.Hotspot.RiskLevel)
	assert.True(t, rep.Hotspot.WillBypassActivate)
	assert.InDelta(t, 35.8, rep.PowerLoss.LossPercentage, 0.1)
	assert.Equal(t, 1, rep.Curve.NumSteps)
	assert.Equal(t, []model.FaultKind{model.FaultShadingSteps}, faultKinds(rep.Faults))
}

func TestEngine_AnalyzeHealthyModule(t *testing.T) {
	e := newTestEngine(t)

	rep, err := e.Analyze("mod-1", uniform(60, 1000))
	require.NoError(t, err)

	assert.Equal(t, "none", rep.Shading.Severity)
	assert.Equal(t, "low", rep.Hotspot.RiskLevel)
	assert.InDelta(t, 0, rep.PowerLoss.PowerLoss, 1e-9)
	assert.False(t, rep.Curve.HasShading)
	assert.Empty(t, rep.Faults)
}

func TestEngine_AnalyzeRejectsBadVector(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Analyze("mod-1", uniform(10, 1000))
	assert.Error(t, err)
}

func TestEngine_AnalyzeCurve(t *testing.T) {
	e := newTestEngine(t)

	v, i, err := e.Module().IVSweep(uniform(60, 1000), 400)
	require.NoError(t, err)

	an, faults, err := e.AnalyzeCurve(v, i)
	require.NoError(t, err)
	assert.InDelta(t, 8, an.Isc, 1e-9)
	assert.Empty(t, faults)
}

func TestEngine_EvaluateHealth(t *testing.T) {
	e := newTestEngine(t)

	rep, err := e.EvaluateHealth(model.Telemetry{
		CurrentPower: 850,
		RatedPower:   1000,
		Irradiance:   1000,
		Temperature:  25,
	})
	require.NoError(t, err)
	assert.Equal(t, "good", rep.HealthGrade)
}
