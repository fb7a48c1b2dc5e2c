package subgrid

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/emtools/gofdtd/grid"
)

func TestPrecursorBufferShapes(t *testing.T) {
	main := testMain()
	sg, err := NewSubGridHSG(main, testParams())
	assert.NoError(t, err)
	p := NewPrecursorNodes(main, sg)

	// Buffers align index-for-index with the injection tables
	for n, op := range sg.magneticIS {
		nl, nm := p.e[n][0].next.Dims()
		assert.Equal(t, op.L1-op.L0, nl)
		assert.Equal(t, op.M1-op.M0, nm)
	}
	// The z-face Hy correction spans staggered-x by node-y
	nl, nm := p.e[0][0].next.Dims()
	assert.Equal(t, sg.NwX, nl)
	assert.Equal(t, sg.NwY+1, nm)
}

func TestPrecursorSamplingUniformField(t *testing.T) {
	main := testMain()
	sg, err := NewSubGridHSG(main, testParams())
	assert.NoError(t, err)
	p := NewPrecursorNodes(main, sg)

	fill(main.Ex, 3)
	p.UpdateElectric()
	for n, op := range sg.magneticIS {
		for s := 0; s < 2; s++ {
			for _, v := range p.e[n][s].next.DataP() {
				if op.PreComp == grid.CompEx {
					assert.InDelta(t, 3.0, v, 1.e-12)
				} else {
					assert.Equal(t, 0.0, v)
				}
			}
		}
	}

	fill(main.Hy, 2)
	p.UpdateMagnetic()
	for n, op := range sg.electricIS {
		for s := 0; s < 2; s++ {
			for _, v := range p.h[n][s].next.DataP() {
				if op.PreComp == grid.CompHy {
					assert.InDelta(t, 2.0, v, 1.e-12)
				} else {
					assert.Equal(t, 0.0, v)
				}
			}
		}
	}
}

func TestPrecursorTimeInterpolation(t *testing.T) {
	main := testMain()
	sg, err := NewSubGridHSG(main, testParams())
	assert.NoError(t, err)
	p := NewPrecursorNodes(main, sg)

	fill(main.Ex, 1)
	p.UpdateElectric()
	fill(main.Ex, 4)
	p.UpdateElectric()

	// cur = prev + (next-prev)*step/ratio
	p.InterpolateElectricInTime(1)
	assert.InDelta(t, 2.0, p.e[0][0].cur.At(0, 0), 1.e-12)
	p.InterpolateElectricInTime(2)
	assert.InDelta(t, 3.0, p.e[0][0].cur.At(0, 0), 1.e-12)

	// At the coinciding time level the value is the snapshot itself
	p.CalcExactElectricInTime()
	assert.InDelta(t, 4.0, p.e[0][0].cur.At(0, 0), 1.e-12)
}

func TestFilteredPrecursors(t *testing.T) {
	main := testMain()
	sg, err := NewSubGridHSG(main, testParams())
	assert.NoError(t, err)
	p := NewPrecursorNodesFiltered(main, sg)

	// The filter weights sum to one: a steady field passes unchanged
	fill(main.Ex, 5)
	for n := 0; n < 3; n++ {
		p.UpdateElectric()
	}
	p.InterpolateElectricInTime(1)
	assert.InDelta(t, 5.0, p.e[0][0].cur.At(0, 0), 1.e-9)

	// Three-tap smoothing of the lower bracket: snapshots 0, 4, 8
	p2 := NewPrecursorNodesFiltered(main, sg)
	fill(main.Ex, 4)
	p2.UpdateElectric()
	fill(main.Ex, 8)
	p2.UpdateElectric()
	// smoothed lower bracket = 0.25*0 + 0.5*4 + 0.25*8 = 4
	p2.InterpolateElectricInTime(3)
	assert.InDelta(t, 8.0, p2.e[0][0].cur.At(0, 0), 1.e-9)
	p2.InterpolateElectricInTime(0)
	assert.InDelta(t, 4.0, p2.e[0][0].cur.At(0, 0), 1.e-9)

	// CalcExact still returns the newest snapshot, not the filtered value
	p2.CalcExactElectricInTime()
	assert.InDelta(t, 8.0, p2.e[0][0].cur.At(0, 0), 1.e-9)
}

func TestPrecursorFactory(t *testing.T) {
	main := testMain()
	sg, err := NewSubGridHSG(main, testParams())
	assert.NoError(t, err)

	pre, err := NewPrecursors(main, sg)
	assert.NoError(t, err)
	assert.IsType(t, &PrecursorNodes{}, pre)

	p := testParams()
	p.Filter = true
	sgf, err := NewSubGridHSG(main, p)
	assert.NoError(t, err)
	pre, err = NewPrecursors(main, sgf)
	assert.NoError(t, err)
	assert.IsType(t, &PrecursorNodesFiltered{}, pre)

	// The factory matches on the kind tag, never on the concrete type
	sg.Kind = Kind(7)
	_, err = NewPrecursors(main, sg)
	assert.Error(t, err)
	assert.IsType(t, &grid.ConfigurationError{}, err)
}
