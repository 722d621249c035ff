// Package scenario synthesizes per-cell irradiance scans for named shading
// situations along a clear-sky day. Useful for demos, load tests and for
// exercising the analysis pipeline without field data.
package scenario

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Pattern names a shading situation to synthesize.
type Pattern string

const (
	// PatternNone is an unshaded clear-sky module.
	PatternNone Pattern = "none"
	// PatternEdge shades the leading cells, the way a roof edge or parapet
	// does. The shadow is deep at low sun and retreats toward noon.
	PatternEdge Pattern = "edge"
	// PatternPole sweeps a narrow deep shadow across the string as the sun
	// moves, like a utility pole or antenna mast.
	PatternPole Pattern = "pole"
	// PatternSoiling attenuates every cell uniformly.
	PatternSoiling Pattern = "soiling"
)

// Patterns lists every supported pattern.
func Patterns() []Pattern {
	return []Pattern{PatternNone, PatternEdge, PatternPole, PatternSoiling}
}

// ParsePattern validates a pattern name from user input.
func ParsePattern(s string) (Pattern, error) {
	for _, p := range Patterns() {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown pattern %q", s)
}

const (
	defaultSunrise = 6.0
	defaultSunset  = 20.0

	edgeFraction  = 0.25
	poleWidthFrac = 0.08
	poleDepth     = 0.15
	soilingFactor = 0.75
)

// Generator produces irradiance vectors for one module geometry. The
// clear-sky level is precomputed as an hourly factor table and interpolated
// for fractional hours, peaking at 1.0 over solar noon.
type Generator struct {
	ns      int
	peak    float64
	sunrise float64
	sunset  float64
	hourly  [24]float64
}

// New builds a generator for ns cells with the given clear-sky peak
// irradiance in W/m². Daylight runs 06:00 to 20:00.
func New(ns int, peak float64) (*Generator, error) {
	if ns <= 0 {
		return nil, fmt.Errorf("scenario: cell count must be positive, got %d", ns)
	}
	if peak <= 0 {
		return nil, fmt.Errorf("scenario: peak irradiance must be positive, got %g", peak)
	}

	g := &Generator{ns: ns, peak: peak, sunrise: defaultSunrise, sunset: defaultSunset}
	for h := 0; h < 24; h++ {
		g.hourly[h] = g.skyFactor(float64(h))
	}
	return g, nil
}

func (g *Generator) Ns() int { return g.ns }

// skyFactor is the sine arc between sunrise and sunset, zero at night.
func (g *Generator) skyFactor(hour float64) float64 {
	if hour <= g.sunrise || hour >= g.sunset {
		return 0
	}
	return math.Sin(math.Pi * (hour - g.sunrise) / (g.sunset - g.sunrise))
}

// ClearSky returns the unshaded plane-of-array irradiance at a fractional
// hour, linearly interpolated from the hourly table.
func (g *Generator) ClearSky(hour float64) float64 {
	for hour < 0 {
		hour += 24
	}
	for hour >= 24 {
		hour -= 24
	}

	lo := int(math.Floor(hour)) % 24
	hi := (lo + 1) % 24
	frac := hour - math.Floor(hour)

	factor := g.hourly[lo]*(1-frac) + g.hourly[hi]*frac
	return factor * g.peak
}

// At returns the per-cell irradiance vector for a pattern at a fractional
// hour. Night hours yield an all-dark vector regardless of pattern.
func (g *Generator) At(p Pattern, hour float64) []float64 {
	sky := g.ClearSky(hour)
	irr := make([]float64, g.ns)
	for c := range irr {
		irr[c] = sky
	}
	if sky <= 0 {
		return irr
	}

	switch p {
	case PatternEdge:
		// Shadow depth follows sun elevation: deep near the horizon, gone at
		// the top of the arc.
		elevation := sky / (g.peak * floats.Max(g.hourly[:]))
		depth := 1 - 0.85*(1-elevation)
		shaded := int(float64(g.ns) * edgeFraction)
		for c := 0; c < shaded; c++ {
			irr[c] = sky * depth
		}

	case PatternPole:
		// A narrow shadow tracks the sun across the string over the day.
		span := g.sunset - g.sunrise
		center := float64(g.ns) * (hour - g.sunrise) / span
		halfWidth := float64(g.ns) * poleWidthFrac / 2
		for c := range irr {
			if math.Abs(float64(c)-center) <= halfWidth {
				irr[c] = sky * poleDepth
			}
		}

	case PatternSoiling:
		for c := range irr {
			irr[c] = sky * soilingFactor
		}
	}

	return irr
}
