package diag

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pv_diagnostics/internal/model"
)

func TestPerformanceEvaluator_EvaluateHealthAtReference(t *testing.T) {
	e := NewPerformanceEvaluator(DefaultHealthConfig())

	rep, err := e.EvaluateHealth(model.Telemetry{
		CurrentPower: 850,
		RatedPower:   1000,
		Irradiance:   1000,
		Temperature:  25,
	})
	require.NoError(t, err)

	assert.InDelta(t, 1000, rep.ExpectedPower, 1e-9)
	assert.InDelta(t, 85, rep.PRPercentage, 1e-9)
	assert.Equal(t, "good", rep.HealthGrade)
}

func TestPerformanceEvaluator_EvaluateHealthTemperatureDerate(t *testing.T) {
	e := NewPerformanceEvaluator(DefaultHealthConfig())

	// 50 °C derates by 10%, so the same output earns a better ratio.
	rep, err := e.EvaluateHealth(model.Telemetry{
		CurrentPower: 850,
		RatedPower:   1000,
		Irradiance:   1000,
		Temperature:  50,
	})
	require.NoError(t, err)

	assert.InDelta(t, 900, rep.ExpectedPower, 1e-9)
	assert.InDelta(t, 94.4, rep.PRPercentage, 0.1)
	assert.Equal(t, "good", rep.HealthGrade)
}

func TestPerformanceEvaluator_EvaluateHealthGradeBoundaries(t *testing.T) {
	e := NewPerformanceEvaluator(DefaultHealthConfig())

	cases := []struct {
		power float64
		grade string
	}{
		{999, "excellent"},
		{950, "excellent"},
		{949, "good"},
		{850, "good"},
		{849, "fair"},
		{700, "fair"},
		{699, "poor"},
		{0, "poor"},
	}
	for _, c := range cases {
		rep, err := e.EvaluateHealth(model.Telemetry{
			CurrentPower: c.power,
			RatedPower:   1000,
			Irradiance:   1000,
			Temperature:  25,
		})
		require.NoError(t, err)
		assert.Equal(t, c.grade, rep.HealthGrade, "power %.0f", c.power)
	}
}

func TestPerformanceEvaluator_EvaluateHealthIndeterminate(t *testing.T) {
	e := NewPerformanceEvaluator(DefaultHealthConfig())

	// Night-time telemetry: no irradiance, no meaningful ratio.
	rep, err := e.EvaluateHealth(model.Telemetry{
		CurrentPower: 0,
		RatedPower:   1000,
		Irradiance:   0,
		Temperature:  15,
	})
	require.NoError(t, err)
	assert.Equal(t, model.GradeIndeterminate, rep.HealthGrade)
	assert.Equal(t, 0.0, rep.PRPercentage)
}

func TestPerformanceEvaluator_EvaluateHealthDerateClampsAtZero(t *testing.T) {
	e := NewPerformanceEvaluator(DefaultHealthConfig())

	// Far beyond the linear range the derate floors at zero instead of
	// turning the expectation negative.
	rep, err := e.EvaluateHealth(model.Telemetry{
		CurrentPower: 100,
		RatedPower:   1000,
		Irradiance:   1000,
		Temperature:  300,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, rep.ExpectedPower)
	assert.Equal(t, model.GradeIndeterminate, rep.HealthGrade)
}

func TestPerformanceEvaluator_EvaluateHealthValidation(t *testing.T) {
	e := NewPerformanceEvaluator(DefaultHealthConfig())

	_, err := e.EvaluateHealth(model.Telemetry{CurrentPower: math.NaN(), RatedPower: 1000, Irradiance: 1000, Temperature: 25})
	assert.Error(t, err)
	_, err = e.EvaluateHealth(model.Telemetry{CurrentPower: 100, RatedPower: -1, Irradiance: 1000, Temperature: 25})
	assert.Error(t, err)
	_, err = e.EvaluateHealth(model.Telemetry{CurrentPower: 100, RatedPower: 1000, Irradiance: -10, Temperature: 25})
	assert.Error(t, err)
}
