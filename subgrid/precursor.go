package subgrid

import (
	"math"

	"github.com/emtools/gofdtd/grid"
	"github.com/emtools/gofdtd/utils"
)

// PrecursorSource supplies the IS corrections with main-grid field values.
// Update* snapshots the main grid after its corresponding half step;
// Interpolate*InTime produces the value for fine sub-step `step` of Ratio;
// CalcExact*InTime pins the value to the newest snapshot at the point in the
// sub-cycle where fine and main time levels coincide.
type PrecursorSource interface {
	UpdateElectric()
	UpdateMagnetic()
	InterpolateElectricInTime(step int)
	InterpolateMagneticInTime(step int)
	CalcExactElectricInTime()
	CalcExactMagneticInTime()
	Buffers() *Precursors
}

// faceBuffer holds the two bracketing main-grid snapshots of one IS face and
// the interpolated value handed to the injection.
type faceBuffer struct {
	prev, next, cur utils.Matrix
}

func newFaceBuffer(nl, nm int) faceBuffer {
	return faceBuffer{
		prev: utils.NewMatrix(nl, nm),
		next: utils.NewMatrix(nl, nm),
		cur:  utils.NewMatrix(nl, nm),
	}
}

// Precursors is the buffer state shared by the precursor variants. The e
// buffers align index-for-index with the subgrid's magnetic IS table (fine H
// is corrected with main-grid E) and the h buffers with the electric one.
type Precursors struct {
	main  *grid.Grid
	sg    *SubGrid
	ratio float64

	e, h [6][2]faceBuffer // [op][side], side 0 = lower face
}

func newPrecursorState(main *grid.Grid, sg *SubGrid) Precursors {
	p := Precursors{main: main, sg: sg, ratio: float64(sg.Ratio)}
	for n := range sg.magneticIS {
		op := &sg.magneticIS[n]
		for s := 0; s < 2; s++ {
			p.e[n][s] = newFaceBuffer(op.L1-op.L0, op.M1-op.M0)
		}
	}
	for n := range sg.electricIS {
		op := &sg.electricIS[n]
		for s := 0; s < 2; s++ {
			p.h[n][s] = newFaceBuffer(op.L1-op.L0, op.M1-op.M0)
		}
	}
	return p
}

// ECur returns the interpolated electric face value feeding magnetic IS op n.
func (p *Precursors) ECur(n, side int) utils.Matrix { return p.e[n][side].cur }

// HCur returns the interpolated magnetic face value feeding electric IS op n.
func (p *Precursors) HCur(n, side int) utils.Matrix { return p.h[n][side].cur }

func (p *Precursors) Buffers() *Precursors { return p }

// sampleInto fills dst with the main-grid component of op at the precursor
// positions of one face: the corrected node's tangential stagger, with the
// normal coordinate fixed by the op.
func (p *Precursors) sampleInto(dst utils.Matrix, op *isOp, side int) {
	la, ma := tangentAxes(op.Normal)
	ofx, ofy, ofz := op.Field.Offset()
	off := [3]float64{ofx, ofy, ofz}
	pn := op.PreNormL
	if side == 1 {
		pn = op.PreNormU
	}
	d, nm := dst.DataP(), op.M1-op.M0
	var pos [3]float64
	pos[op.Normal] = pn
	for l := op.L0; l < op.L1; l++ {
		pos[la] = p.tanCoord(la, l, off[la])
		for m := op.M0; m < op.M1; m++ {
			pos[ma] = p.tanCoord(ma, m, off[ma])
			d[(l-op.L0)*nm+(m-op.M0)] = sampleField(p.main, op.PreComp, pos[0], pos[1], pos[2])
		}
	}
}

// tanCoord maps a fine tangential node index (plus stagger) to main-grid
// cell coordinates.
func (p *Precursors) tanCoord(a axis, t int, off float64) float64 {
	return float64(p.sg.coarseLo(a)) + (float64(t)+off-float64(p.sg.NB))/p.ratio
}

// sampleField trilinearly interpolates one component of g at a position in
// cell coordinates, honouring the component's Yee stagger.
func sampleField(g *grid.Grid, c grid.Component, x, y, z float64) float64 {
	ox, oy, oz := c.Offset()
	f := g.Field(c)
	i, fx := cellOf(x-ox, g.Nx)
	j, fy := cellOf(y-oy, g.Ny)
	k, fz := cellOf(z-oz, g.Nz)
	sy := g.Nz + 1
	sx := (g.Ny + 1) * sy
	base := i*sx + j*sy + k
	c00 := f[base]*(1-fz) + f[base+1]*fz
	c01 := f[base+sy]*(1-fz) + f[base+sy+1]*fz
	c10 := f[base+sx]*(1-fz) + f[base+sx+1]*fz
	c11 := f[base+sx+sy]*(1-fz) + f[base+sx+sy+1]*fz
	return (c00*(1-fy)+c01*fy)*(1-fx) + (c10*(1-fy)+c11*fy)*fx
}

func cellOf(u float64, n int) (int, float64) {
	i := int(math.Floor(u))
	if i < 0 {
		i = 0
	}
	if i > n-1 {
		i = n - 1
	}
	return i, u - float64(i)
}

// PrecursorNodes linearly interpolates between the two newest main-grid
// snapshots of each IS face.
type PrecursorNodes struct {
	Precursors
}

// NewPrecursorNodes builds the plain linear-interpolation precursors.
func NewPrecursorNodes(main *grid.Grid, sg *SubGrid) *PrecursorNodes {
	return &PrecursorNodes{Precursors: newPrecursorState(main, sg)}
}

// UpdateElectric snapshots main-grid E on the six faces after a main-grid
// electric update, retiring the previous snapshot to the lower bracket.
func (p *PrecursorNodes) UpdateElectric() {
	for n := range p.sg.magneticIS {
		op := &p.sg.magneticIS[n]
		for s := 0; s < 2; s++ {
			b := &p.e[n][s]
			b.prev.CopyFrom(b.next)
			p.sampleInto(b.next, op, s)
		}
	}
}

// UpdateMagnetic snapshots main-grid H after a main-grid magnetic update.
func (p *PrecursorNodes) UpdateMagnetic() {
	for n := range p.sg.electricIS {
		op := &p.sg.electricIS[n]
		for s := 0; s < 2; s++ {
			b := &p.h[n][s]
			b.prev.CopyFrom(b.next)
			p.sampleInto(b.next, op, s)
		}
	}
}

// InterpolateElectricInTime sets the current electric face values to the
// fraction step/Ratio between the bracketing snapshots.
func (p *PrecursorNodes) InterpolateElectricInTime(step int) {
	w := float64(step) / p.ratio
	for n := range p.e {
		for s := range p.e[n] {
			b := &p.e[n][s]
			b.cur.Blend(b.prev, b.next, w)
		}
	}
}

// InterpolateMagneticInTime is the magnetic counterpart.
func (p *PrecursorNodes) InterpolateMagneticInTime(step int) {
	w := float64(step) / p.ratio
	for n := range p.h {
		for s := range p.h[n] {
			b := &p.h[n][s]
			b.cur.Blend(b.prev, b.next, w)
		}
	}
}

// CalcExactElectricInTime pins the current electric values to the newest
// snapshot; the fine and main electric time levels coincide here.
func (p *PrecursorNodes) CalcExactElectricInTime() {
	for n := range p.e {
		for s := range p.e[n] {
			p.e[n][s].cur.CopyFrom(p.e[n][s].next)
		}
	}
}

// CalcExactMagneticInTime is the magnetic counterpart.
func (p *PrecursorNodes) CalcExactMagneticInTime() {
	for n := range p.h {
		for s := range p.h[n] {
			p.h[n][s].cur.CopyFrom(p.h[n][s].next)
		}
	}
}

// PrecursorNodesFiltered additionally low-pass filters the lower bracket with
// a three-tap binomial kernel over the last three snapshots, damping the
// late-time instability the raw exchange can develop. The weights sum to one,
// so uniform fields pass through unchanged, and CalcExact* still returns the
// newest snapshot exactly.
type PrecursorNodesFiltered struct {
	PrecursorNodes
	eOld, hOld [6][2]utils.Matrix // snapshot before prev
	eSm, hSm   [6][2]utils.Matrix // filtered lower bracket
}

// NewPrecursorNodesFiltered builds the filtered variant.
func NewPrecursorNodesFiltered(main *grid.Grid, sg *SubGrid) *PrecursorNodesFiltered {
	p := &PrecursorNodesFiltered{
		PrecursorNodes: PrecursorNodes{Precursors: newPrecursorState(main, sg)},
	}
	for n := range p.e {
		for s := range p.e[n] {
			nl, nm := p.e[n][s].next.Dims()
			p.eOld[n][s] = utils.NewMatrix(nl, nm)
			p.eSm[n][s] = utils.NewMatrix(nl, nm)
			nl, nm = p.h[n][s].next.Dims()
			p.hOld[n][s] = utils.NewMatrix(nl, nm)
			p.hSm[n][s] = utils.NewMatrix(nl, nm)
		}
	}
	return p
}

func (p *PrecursorNodesFiltered) UpdateElectric() {
	for n := range p.e {
		for s := range p.e[n] {
			p.eOld[n][s].CopyFrom(p.e[n][s].prev)
		}
	}
	p.PrecursorNodes.UpdateElectric()
	for n := range p.e {
		for s := range p.e[n] {
			b := &p.e[n][s]
			p.eSm[n][s].CopyFrom(p.eOld[n][s]).Scale(0.25).
				AddScaled(b.prev, 0.5).AddScaled(b.next, 0.25)
		}
	}
}

func (p *PrecursorNodesFiltered) UpdateMagnetic() {
	for n := range p.h {
		for s := range p.h[n] {
			p.hOld[n][s].CopyFrom(p.h[n][s].prev)
		}
	}
	p.PrecursorNodes.UpdateMagnetic()
	for n := range p.h {
		for s := range p.h[n] {
			b := &p.h[n][s]
			p.hSm[n][s].CopyFrom(p.hOld[n][s]).Scale(0.25).
				AddScaled(b.prev, 0.5).AddScaled(b.next, 0.25)
		}
	}
}

func (p *PrecursorNodesFiltered) InterpolateElectricInTime(step int) {
	w := float64(step) / p.ratio
	for n := range p.e {
		for s := range p.e[n] {
			b := &p.e[n][s]
			b.cur.Blend(p.eSm[n][s], b.next, w)
		}
	}
}

func (p *PrecursorNodesFiltered) InterpolateMagneticInTime(step int) {
	w := float64(step) / p.ratio
	for n := range p.h {
		for s := range p.h[n] {
			b := &p.h[n][s]
			b.cur.Blend(p.hSm[n][s], b.next, w)
		}
	}
}

// NewPrecursors builds the precursor variant matching the subgrid's kind and
// filter setting. An unrecognised kind is a configuration error.
func NewPrecursors(main *grid.Grid, sg *SubGrid) (PrecursorSource, error) {
	switch sg.Kind {
	case KindHSG:
		if sg.Filter {
			return NewPrecursorNodesFiltered(main, sg), nil
		}
		return NewPrecursorNodes(main, sg), nil
	default:
		return nil, grid.ConfigErrorf("subgrid [%s] has unrecognised type %s", sg.Name, sg.Kind)
	}
}
