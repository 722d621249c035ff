package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_GradeBandEdges(t *testing.T) {
	bands := DefaultGradeBands()

	// Boundaries fall into the upper band.
	assert.Equal(t, "excellent", Classify(bands, 95))
	assert.Equal(t, "excellent", Classify(bands, 100))
	assert.Equal(t, "good", Classify(bands, 85))
	assert.Equal(t, "good", Classify(bands, 94.99))
	assert.Equal(t, "fair", Classify(bands, 70))
	assert.Equal(t, "fair", Classify(bands, 84.99))
	assert.Equal(t, "poor", Classify(bands, 69.99))
	assert.Equal(t, "poor", Classify(bands, 0))
}

func TestClassify_SeverityBands(t *testing.T) {
	bands := DefaultSeverityBands()

	assert.Equal(t, "none", Classify(bands, 0))
	assert.Equal(t, "none", Classify(bands, 0.049))
	assert.Equal(t, "light", Classify(bands, 0.05))
	assert.Equal(t, "moderate", Classify(bands, 1.0/3.0))
	assert.Equal(t, "severe", Classify(bands, 0.45))
	assert.Equal(t, "extreme", Classify(bands, 0.75))
	assert.Equal(t, "extreme", Classify(bands, 1))
}

func TestClassify_RiskBands(t *testing.T) {
	bands := DefaultRiskBands()

	assert.Equal(t, "low", Classify(bands, 0))
	assert.Equal(t, "medium", Classify(bands, 55))
	assert.Equal(t, "high", Classify(bands, 75))
	assert.Equal(t, "critical", Classify(bands, 150))
}

func TestClassify_Empty(t *testing.T) {
	assert.Equal(t, "", Classify(nil, 10))
}

func TestValidationError_Message(t *testing.T) {
	err := NewValidationError("irradiances", "length %d does not match cell count %d", 10, 60)
	assert.EqualError(t, err, "invalid irradiances: length 10 does not match cell count 60")
}
