package subgrid

import (
	"github.com/emtools/gofdtd/grid"
	"github.com/emtools/gofdtd/utils"
)

type axis uint8

const (
	axisX axis = iota
	axisY
	axisZ
)

// tangentAxes returns the two in-plane axes of a face normal, in (x,y,z)
// order. The (l,m) loop variables of every injection follow this order.
func tangentAxes(n axis) (l, m axis) {
	switch n {
	case axisX:
		return axisY, axisZ
	case axisY:
		return axisX, axisZ
	default:
		return axisX, axisY
	}
}

// nodeAt places a plane index and two tangential indices into (i,j,k).
func nodeAt(n axis, p, l, m int) (i, j, k int) {
	switch n {
	case axisX:
		return p, l, m
	case axisY:
		return l, p, m
	default:
		return l, m, p
	}
}

// isOp describes one inner-surface injection: a face pair on which one fine
// component is corrected with a time-interpolated precursor of one main-grid
// component. The twelve instances (six electric, six magnetic) are built once
// at construction; applying a sub-step is a walk over this table.
type isOp struct {
	Field   grid.Component // fine component corrected
	PreComp grid.Component // main component the precursors sample
	Co      int            // curl coefficient column
	Normal  axis
	PlaneL, PlaneU int // fine node index along Normal, per side
	SignL, SignU   float64
	L0, L1, M0, M1 int // half-open fine node ranges on the tangent axes
	// Normal coordinate of the precursor sample in main-grid cells, per
	// side. Tangential coordinates follow the corrected node's stagger.
	PreNormL, PreNormU float64
}

// osOp describes one outer-surface injection: main-grid nodes on a face pair
// corrected with spatially averaged fine-grid field.
type osOp struct {
	Field    grid.Component // main component corrected
	FineComp grid.Component // fine component averaged
	Co       int
	Normal   axis
	PlaneL, PlaneU int // main node index along Normal, per side
	SignL, SignU   float64
	L0, L1, M0, M1 int // half-open main-grid tangential node ranges
	// Fine node index along Normal of the sampled fine plane, per side.
	FinePlaneL, FinePlaneU int
	// AvgAlongL selects which tangent axis carries the Ratio-sample
	// average; the fine component is staggered along that axis.
	AvgAlongL bool
}

type isSpec struct {
	field, pre   grid.Component
	co           int
	normal       axis
	signL, signU float64
	lStag, mStag bool
}

type osSpec struct {
	field, fine  grid.Component
	co           int
	normal       axis
	signL, signU float64
	lStag, mStag bool
	avgAlongL    bool
}

func (sg *SubGrid) nw(a axis) int {
	switch a {
	case axisX:
		return sg.NwX
	case axisY:
		return sg.NwY
	default:
		return sg.NwZ
	}
}

// coarseLo/coarseHi are the working-region bounds along an axis in
// main-grid cells.
func (sg *SubGrid) coarseLo(a axis) int {
	switch a {
	case axisX:
		return sg.I0
	case axisY:
		return sg.J0
	default:
		return sg.K0
	}
}

func (sg *SubGrid) coarseHi(a axis) int {
	switch a {
	case axisX:
		return sg.I1
	case axisY:
		return sg.J1
	default:
		return sg.K1
	}
}

// fineBase maps a main-grid node index to the co-located fine node index.
func (sg *SubGrid) fineBase(a axis, t int) int {
	return sg.NB + (t-sg.coarseLo(a))*sg.Ratio
}

// isTanRange is the fine node range of an inner-surface injection along one
// tangent axis. A component staggered along the axis spans the working cells;
// a node-aligned one spans the nodes inclusive. Node ranges of adjacent face
// pairs meet on the box edges: an edge node is corrected once per face, each
// time with a different incident component, and needs both.
func (sg *SubGrid) isTanRange(a axis, staggered bool) (lo, hi int) {
	if staggered {
		return sg.NB, sg.NB + sg.nw(a)
	}
	return sg.NB, sg.NB + sg.nw(a) + 1
}

// osTanRange is the analogous main-grid node range on the outer surface.
func (sg *SubGrid) osTanRange(a axis, staggered bool) (lo, hi int) {
	l, h := sg.coarseLo(a)-sg.IsOsSep, sg.coarseHi(a)+sg.IsOsSep
	if staggered {
		return l, h
	}
	return l, h + 1
}

func (sg *SubGrid) buildISOps() {
	// Electric corrections: fine E on the IS planes, fed by H precursors.
	eSpecs := []isSpec{
		{grid.CompEx, grid.CompHy, 3, axisZ, +1, -1, true, false},
		{grid.CompEy, grid.CompHx, 3, axisZ, -1, +1, false, true},
		{grid.CompEy, grid.CompHz, 1, axisX, +1, -1, true, false},
		{grid.CompEz, grid.CompHy, 1, axisX, -1, +1, false, true},
		{grid.CompEx, grid.CompHz, 2, axisY, -1, +1, true, false},
		{grid.CompEz, grid.CompHx, 2, axisY, +1, -1, false, true},
	}
	// Magnetic corrections: fine H on the staggered planes half a fine cell
	// outside the IS, fed by E precursors sampled on the IS itself.
	hSpecs := []isSpec{
		{grid.CompHy, grid.CompEx, 3, axisZ, +1, -1, true, false},
		{grid.CompHx, grid.CompEy, 3, axisZ, -1, +1, false, true},
		{grid.CompHz, grid.CompEy, 1, axisX, +1, -1, true, false},
		{grid.CompHy, grid.CompEz, 1, axisX, -1, +1, false, true},
		{grid.CompHz, grid.CompEx, 2, axisY, -1, +1, true, false},
		{grid.CompHx, grid.CompEz, 2, axisY, +1, -1, false, true},
	}

	h := 0.5 / float64(sg.Ratio)
	for _, s := range eSpecs {
		op := sg.newISOp(s, sg.NB, sg.NB+sg.nw(s.normal))
		// E corrections use the precursor half a fine cell outside the
		// corrected plane, where the missing curl neighbour sits.
		op.PreNormL = float64(sg.coarseLo(s.normal)) - h
		op.PreNormU = float64(sg.coarseHi(s.normal)) + h
		sg.electricIS = append(sg.electricIS, op)
	}
	for _, s := range hSpecs {
		op := sg.newISOp(s, sg.NB-1, sg.NB+sg.nw(s.normal))
		// H corrections use the precursor exactly on the IS plane.
		op.PreNormL = float64(sg.coarseLo(s.normal))
		op.PreNormU = float64(sg.coarseHi(s.normal))
		sg.magneticIS = append(sg.magneticIS, op)
	}
}

func (sg *SubGrid) newISOp(s isSpec, planeL, planeU int) isOp {
	la, ma := tangentAxes(s.normal)
	op := isOp{
		Field: s.field, PreComp: s.pre, Co: s.co, Normal: s.normal,
		PlaneL: planeL, PlaneU: planeU,
		SignL: s.signL, SignU: s.signU,
	}
	op.L0, op.L1 = sg.isTanRange(la, s.lStag)
	op.M0, op.M1 = sg.isTanRange(ma, s.mStag)
	return op
}

func (sg *SubGrid) buildOSOps() {
	// Main-grid E on the OS planes, fed by fine H averaged half a main cell
	// inside the surface.
	eSpecs := []osSpec{
		{grid.CompEx, grid.CompHy, 3, axisZ, -1, +1, true, false, true},
		{grid.CompEy, grid.CompHx, 3, axisZ, +1, -1, false, true, false},
		{grid.CompEy, grid.CompHz, 1, axisX, -1, +1, true, false, true},
		{grid.CompEz, grid.CompHy, 1, axisX, +1, -1, false, true, false},
		{grid.CompEx, grid.CompHz, 2, axisY, +1, -1, true, false, true},
		{grid.CompEz, grid.CompHx, 2, axisY, -1, +1, false, true, false},
	}
	// Main-grid H on the staggered planes half a main cell outside the OS,
	// fed by fine E averaged on the OS plane itself.
	hSpecs := []osSpec{
		{grid.CompHy, grid.CompEx, 3, axisZ, -1, +1, true, false, true},
		{grid.CompHx, grid.CompEy, 3, axisZ, +1, -1, false, true, false},
		{grid.CompHz, grid.CompEy, 1, axisX, -1, +1, true, false, true},
		{grid.CompHy, grid.CompEz, 1, axisX, +1, -1, false, true, false},
		{grid.CompHz, grid.CompEx, 2, axisY, +1, -1, true, false, true},
		{grid.CompHx, grid.CompEz, 2, axisY, -1, +1, false, true, false},
	}

	for _, s := range eSpecs {
		pl := sg.coarseLo(s.normal) - sg.IsOsSep
		pu := sg.coarseHi(s.normal) + sg.IsOsSep
		op := sg.newOSOp(s, pl, pu)
		op.FinePlaneL = sg.fineBase(s.normal, pl) + (sg.Ratio-1)/2
		op.FinePlaneU = sg.fineBase(s.normal, pu) - (sg.Ratio+1)/2
		sg.electricOS = append(sg.electricOS, op)
	}
	for _, s := range hSpecs {
		pl := sg.coarseLo(s.normal) - sg.IsOsSep
		pu := sg.coarseHi(s.normal) + sg.IsOsSep
		op := sg.newOSOp(s, pl, pu)
		op.PlaneL = pl - 1 // staggered H node just outside the surface
		op.FinePlaneL = sg.fineBase(s.normal, pl)
		op.FinePlaneU = sg.fineBase(s.normal, pu)
		sg.magneticOS = append(sg.magneticOS, op)
	}
}

func (sg *SubGrid) newOSOp(s osSpec, planeL, planeU int) osOp {
	la, ma := tangentAxes(s.normal)
	op := osOp{
		Field: s.field, FineComp: s.fine, Co: s.co, Normal: s.normal,
		PlaneL: planeL, PlaneU: planeU,
		SignL: s.signL, SignU: s.signU,
		AvgAlongL: s.avgAlongL,
	}
	op.L0, op.L1 = sg.osTanRange(la, s.lStag)
	op.M0, op.M1 = sg.osTanRange(ma, s.mStag)
	return op
}

// UpdateElectricIS corrects the fine E nodes on the six IS faces with the
// current magnetic precursor samples. Call after the fine-grid electric
// update and before source injection, once per sub-step.
func (sg *SubGrid) UpdateElectricIS(p *Precursors) {
	for n := range sg.electricIS {
		sg.applyIS(&sg.electricIS[n], p.HCur(n, 0), p.HCur(n, 1))
	}
}

// UpdateMagneticIS corrects the fine H nodes just outside the six IS faces
// with the current electric precursor samples.
func (sg *SubGrid) UpdateMagneticIS(p *Precursors) {
	for n := range sg.magneticIS {
		sg.applyIS(&sg.magneticIS[n], p.ECur(n, 0), p.ECur(n, 1))
	}
}

func (sg *SubGrid) applyIS(op *isOp, lower, upper utils.Matrix) {
	coeffs := sg.CoeffsE
	if !op.Field.IsElectric() {
		coeffs = sg.CoeffsH
	}
	cd := coeffs.DataP()
	f := sg.Field(op.Field)
	for side := 0; side < 2; side++ {
		plane, sign, pre := op.PlaneL, op.SignL, lower
		if side == 1 {
			plane, sign, pre = op.PlaneU, op.SignU, upper
		}
		pd, nm := pre.DataP(), op.M1-op.M0
		for l := op.L0; l < op.L1; l++ {
			for m := op.M0; m < op.M1; m++ {
				i, j, k := nodeAt(op.Normal, plane, l, m)
				idx := sg.Idx(i, j, k)
				mat := sg.MaterialID(op.Field, i, j, k)
				f[idx] += sign * cd[mat*5+op.Co] * pd[(l-op.L0)*nm+(m-op.M0)]
			}
		}
	}
}

// UpdateElectricOS feeds the fine solution back into the main grid: E nodes
// on the six OS faces pick up the spatial average of the co-located fine H.
// Call once per main-grid step, at the end of the first sub-cycle phase.
func (sg *SubGrid) UpdateElectricOS(main *grid.Grid) {
	for n := range sg.electricOS {
		sg.applyOS(&sg.electricOS[n], main)
	}
}

// UpdateMagneticOS is the magnetic half of the feedback, applied at the end
// of the second sub-cycle phase.
func (sg *SubGrid) UpdateMagneticOS(main *grid.Grid) {
	for n := range sg.magneticOS {
		sg.applyOS(&sg.magneticOS[n], main)
	}
}

func (sg *SubGrid) applyOS(op *osOp, main *grid.Grid) {
	coeffs := main.CoeffsE
	if !op.Field.IsElectric() {
		coeffs = main.CoeffsH
	}
	cd := coeffs.DataP()
	f := main.Field(op.Field)
	fine := sg.Field(op.FineComp)
	la, ma := tangentAxes(op.Normal)
	inv := 1.0 / float64(sg.Ratio)
	for side := 0; side < 2; side++ {
		plane, sign, fp := op.PlaneL, op.SignL, op.FinePlaneL
		if side == 1 {
			plane, sign, fp = op.PlaneU, op.SignU, op.FinePlaneU
		}
		for l := op.L0; l < op.L1; l++ {
			fl := sg.fineBase(la, l)
			for m := op.M0; m < op.M1; m++ {
				fm := sg.fineBase(ma, m)
				var sum float64
				if op.AvgAlongL {
					for s := 0; s < sg.Ratio; s++ {
						fi, fj, fk := nodeAt(op.Normal, fp, fl+s, fm)
						sum += fine[sg.Idx(fi, fj, fk)]
					}
				} else {
					for s := 0; s < sg.Ratio; s++ {
						fi, fj, fk := nodeAt(op.Normal, fp, fl, fm+s)
						sum += fine[sg.Idx(fi, fj, fk)]
					}
				}
				i, j, k := nodeAt(op.Normal, plane, l, m)
				mat := main.MaterialID(op.Field, i, j, k)
				f[main.Idx(i, j, k)] += sign * cd[mat*5+op.Co] * sum * inv
			}
		}
	}
}
