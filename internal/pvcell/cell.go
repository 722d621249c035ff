package pvcell

import "math"

// ReferenceIrradiance is the STC plane-of-array irradiance in W/m².
const ReferenceIrradiance = 1000.0

// CellParams holds the reference electrical data of one cell at STC
// (1000 W/m², 25 °C).
type CellParams struct {
	// IscRef is the short-circuit current at STC in A.
	IscRef float64 `json:"isc_ref_a"`
	// VocRef is the open-circuit voltage at STC in V.
	VocRef float64 `json:"voc_ref_v"`
	// FF is the fill factor at STC.
	FF float64 `json:"ff"`
	// VocLogCoeff scales Voc with ln(G/Gref); roughly the diode thermal
	// voltage times the ideality factor.
	VocLogCoeff float64 `json:"voc_log_coeff_v"`
	// CurveShape controls the knee sharpness of the synthesized IV curve.
	// Larger values give squarer curves (higher fill factor).
	CurveShape float64 `json:"curve_shape"`
}

// DefaultCellParams returns parameters for a typical 60-cell-module
// crystalline cell: module-level Voc 36 V and Isc 8 A.
func DefaultCellParams() CellParams {
	return CellParams{
		IscRef:      8.0,
		VocRef:      0.6,
		FF:          0.75,
		VocLogCoeff: 0.025,
		CurveShape:  15,
	}
}

// OperatingPoint is the electrical state of one cell at a given irradiance.
type OperatingPoint struct {
	Isc float64 `json:"isc_a"`
	Voc float64 `json:"voc_v"`
	Imp float64 `json:"imp_a"`
	Vmp float64 `json:"vmp_v"`
	Pmp float64 `json:"pmp_w"`
}

// CellModel converts irradiance into cell operating values. Isc scales
// proportionally with irradiance, Voc logarithmically, and the maximum power
// point follows from the reference fill factor. Immutable after creation.
type CellModel struct {
	params CellParams
}

func NewCellModel(p CellParams) *CellModel {
	return &CellModel{params: p}
}

func (m *CellModel) Params() CellParams {
	return m.params
}

// At returns the cell operating point at the given irradiance in W/m².
// A dark cell (irradiance <= 0) produces the zero point.
func (m *CellModel) At(irradiance float64) OperatingPoint {
	if irradiance <= 0 {
		return OperatingPoint{}
	}

	ratio := irradiance / ReferenceIrradiance
	isc := m.params.IscRef * ratio
	voc := m.params.VocRef + m.params.VocLogCoeff*math.Log(ratio)
	if voc < 0 {
		voc = 0
	}

	pmp := m.params.FF * isc * voc
	// Imp/Vmp from the usual square-curve approximation: the MPP current sits
	// a few percent below Isc.
	imp := 0.95 * isc
	vmp := 0.0
	if imp > 0 {
		vmp = pmp / imp
	}

	return OperatingPoint{Isc: isc, Voc: voc, Imp: imp, Vmp: vmp, Pmp: pmp}
}

// VoltageAt returns the cell voltage when forced to carry current i at the
// given irradiance. The shape is the exponential-knee approximation
//
//	v(i) = Voc * ln(1 + (1 - i/Isc)(e^K - 1)) / K
//
// which hits Voc at i=0 and 0 at i=Isc. Currents at or above Isc return 0;
// the bypass diode of the owning group handles anything beyond that.
func (m *CellModel) VoltageAt(current, irradiance float64) float64 {
	op := m.At(irradiance)
	if op.Isc <= 0 || current >= op.Isc {
		return 0
	}
	if current < 0 {
		current = 0
	}

	k := m.params.CurveShape
	frac := 1 - current/op.Isc
	return op.Voc * math.Log(1+frac*(math.Exp(k)-1)) / k
}
