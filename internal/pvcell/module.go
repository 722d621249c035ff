package pvcell

import (
	"fmt"

	"pv_diagnostics/internal/model"
)

// DefaultDiodeDrop is the forward voltage of a conducting bypass diode in V.
const DefaultDiodeDrop = 0.7

// Module is a series string of Ns cells split into Nb contiguous
// bypass-diode groups. The partition covers every cell exactly once.
type Module struct {
	cell      *CellModel
	ns        int
	nb        int
	diodeDrop float64
	groups    [][]int
}

// NewModule builds a module. Cells are split into contiguous groups; when Ns
// is not divisible by Nb the leading groups take the extra cells.
func NewModule(cell *CellModel, ns, nb int, diodeDrop float64) (*Module, error) {
	if cell == nil {
		return nil, fmt.Errorf("pvcell: nil cell model")
	}
	if ns <= 0 {
		return nil, fmt.Errorf("pvcell: cell count must be positive, got %d", ns)
	}
	if nb <= 0 || nb > ns {
		return nil, fmt.Errorf("pvcell: group count must be in [1, %d], got %d", ns, nb)
	}
	if diodeDrop < 0 {
		return nil, fmt.Errorf("pvcell: diode drop must be non-negative, got %g", diodeDrop)
	}

	groups := make([][]int, nb)
	base := ns / nb
	extra := ns % nb
	idx := 0
	for g := 0; g < nb; g++ {
		size := base
		if g < extra {
			size++
		}
		groups[g] = make([]int, size)
		for c := 0; c < size; c++ {
			groups[g][c] = idx
			idx++
		}
	}

	return &Module{cell: cell, ns: ns, nb: nb, diodeDrop: diodeDrop, groups: groups}, nil
}

func (m *Module) Ns() int          { return m.ns }
func (m *Module) Nb() int          { return m.nb }
func (m *Module) Cell() *CellModel { return m.cell }

// Groups returns the bypass-group partition as ordered cell index slices.
func (m *Module) Groups() [][]int { return m.groups }

// GroupOf returns the bypass group index that protects cell i.
func (m *Module) GroupOf(i int) int {
	for g, cells := range m.groups {
		last := cells[len(cells)-1]
		if i <= last {
			return g
		}
	}
	return m.nb - 1
}

// ValidateIrradiances checks vector shape and value range against this module.
func (m *Module) ValidateIrradiances(irr []float64) error {
	if len(irr) != m.ns {
		return model.NewValidationError("irradiances", "length %d does not match cell count %d", len(irr), m.ns)
	}
	for i, g := range irr {
		if g < 0 {
			return model.NewValidationError("irradiances", "cell %d has negative irradiance %g", i, g)
		}
	}
	return nil
}

// groupMinIrradiance returns the minimum irradiance inside each group. The
// weakest cell caps the current its whole group can carry.
func (m *Module) groupMinIrradiance(irr []float64) []float64 {
	mins := make([]float64, m.nb)
	for g, cells := range m.groups {
		min := irr[cells[0]]
		for _, c := range cells[1:] {
			if irr[c] < min {
				min = irr[c]
			}
		}
		mins[g] = min
	}
	return mins
}

// MaxPower returns the module maximum power under the given irradiance
// vector, applying the series-current-limiting law: an un-bypassed segment
// carries no more than its weakest cell allows, and every bypassed group
// trades its cells' voltage for one diode drop. Each possible count of
// bypassed groups (weakest first) is evaluated and the best operating point
// wins, mirroring what an MPP tracker settles on.
func (m *Module) MaxPower(irr []float64) (float64, error) {
	if err := m.ValidateIrradiances(irr); err != nil {
		return 0, err
	}

	mins := m.groupMinIrradiance(irr)

	// Order group indices by ascending minimum irradiance.
	order := make([]int, m.nb)
	for g := range order {
		order[g] = g
	}
	for a := 1; a < len(order); a++ {
		for b := a; b > 0 && mins[order[b]] < mins[order[b-1]]; b-- {
			order[b], order[b-1] = order[b-1], order[b]
		}
	}

	best := 0.0
	for bypassed := 0; bypassed < m.nb; bypassed++ {
		limiting := mins[order[bypassed]]
		for _, g := range order[bypassed+1:] {
			if mins[g] < limiting {
				limiting = mins[g]
			}
		}

		activeCells := 0
		for _, g := range order[bypassed:] {
			activeCells += len(m.groups[g])
		}

		op := m.cell.At(limiting)
		power := float64(activeCells)*op.Pmp - op.Imp*float64(bypassed)*m.diodeDrop
		if power > best {
			best = power
		}
	}

	return best, nil
}

// IVSweep synthesizes the full-module current–voltage sweep at the given
// irradiance vector. Voltage ascends from 0 toward Voc while current descends
// from Isc toward 0; bypass-diode engagement shows up as steps. A module that
// cannot source any current yields the degenerate two-point zero curve.
func (m *Module) IVSweep(irr []float64, samples int) (v, i []float64, err error) {
	if err := m.ValidateIrradiances(irr); err != nil {
		return nil, nil, err
	}
	if samples < 2 {
		return nil, nil, model.NewValidationError("samples", "need at least 2 sample points, got %d", samples)
	}

	mins := m.groupMinIrradiance(irr)
	limits := make([]float64, m.nb)
	iMax := 0.0
	for g := range mins {
		limits[g] = m.cell.At(mins[g]).Isc
		if limits[g] > iMax {
			iMax = limits[g]
		}
	}
	if iMax <= 0 {
		return []float64{0, 0}, []float64{0, 0}, nil
	}

	v = make([]float64, samples)
	i = make([]float64, samples)
	for s := 0; s < samples; s++ {
		// Current descends from Isc to 0; voltage points come out ascending.
		cur := iMax * (1 - float64(s)/float64(samples-1))

		total := 0.0
		for g, cells := range m.groups {
			if cur > limits[g] {
				// Weakest cell cannot carry this current; the diode conducts
				// around the whole group.
				total -= m.diodeDrop
				continue
			}
			for _, c := range cells {
				total += m.cell.VoltageAt(cur, irr[c])
			}
		}
		if total < 0 {
			total = 0
		}
		if s > 0 && total < v[s-1] {
			total = v[s-1]
		}

		v[s] = total
		i[s] = cur
	}

	return v, i, nil
}
