package model

import "math"

// Band maps values below Threshold to Label. Band tables are ordered by
// ascending threshold; the last band uses +Inf as a catch-all. Keeping the
// tables as plain data lets callers tune the edges without touching the
// classification logic.
type Band struct {
	Threshold float64 `json:"threshold"`
	Label     string  `json:"label"`
}

// Classify returns the label of the first band whose threshold exceeds v.
// Values at a boundary fall into the upper band (v < threshold is exclusive),
// so with bands {85, 95, +Inf} a value of exactly 85 classifies as the
// middle label.
func Classify(bands []Band, v float64) string {
	if len(bands) == 0 {
		return ""
	}
	for _, b := range bands {
		if v < b.Threshold {
			return b.Label
		}
	}
	return bands[len(bands)-1].Label
}

// DefaultSeverityBands keys shading severity on the shaded-cell ratio.
func DefaultSeverityBands() []Band {
	return []Band{
		{Threshold: 0.05, Label: "none"},
		{Threshold: 0.20, Label: "light"},
		{Threshold: 0.40, Label: "moderate"},
		{Threshold: 0.60, Label: "severe"},
		{Threshold: math.Inf(1), Label: "extreme"},
	}
}

// DefaultRiskBands keys hot-spot risk on the estimated temperature rise in °C.
func DefaultRiskBands() []Band {
	return []Band{
		{Threshold: 50, Label: "low"},
		{Threshold: 70, Label: "medium"},
		{Threshold: 110, Label: "high"},
		{Threshold: math.Inf(1), Label: "critical"},
	}
}

// DefaultGradeBands keys the health grade on the performance ratio percentage.
func DefaultGradeBands() []Band {
	return []Band{
		{Threshold: 70, Label: "poor"},
		{Threshold: 85, Label: "fair"},
		{Threshold: 95, Label: "good"},
		{Threshold: math.Inf(1), Label: "excellent"},
	}
}
