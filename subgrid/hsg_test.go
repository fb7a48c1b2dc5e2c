package subgrid

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/emtools/gofdtd/grid"
)

func fill(f []float64, v float64) {
	for i := range f {
		f[i] = v
	}
}

func maxAbs(f []float64) (m float64) {
	for _, v := range f {
		if a := math.Abs(v); a > m {
			m = a
		}
	}
	return
}

// A uniform x-polarised field is an exact solution on both grids: the fine
// grid holds the total field inside the inner surface and nothing outside,
// and every sub-step the curl across the total-field boundary must be
// cancelled exactly by the twelve IS injections. Any sign, plane or range
// mistake in the injection table shows up here as a residual of order the
// curl coefficient (~1e3), against a tolerance twelve orders smaller.
func TestISInjectionCancelsTotalFieldBoundary(t *testing.T) {
	main := testMain()
	sg, err := NewSubGridHSG(main, testParams())
	assert.NoError(t, err)

	fill(main.Ex, 1)

	// Total field region of Ex: staggered in x, node-aligned in y and z.
	nb := sg.NB
	for i := nb; i < nb+sg.NwX; i++ {
		for j := nb; j <= nb+sg.NwY; j++ {
			for k := nb; k <= nb+sg.NwZ; k++ {
				sg.Ex[sg.Idx(i, j, k)] = 1
			}
		}
	}
	init := make([]float64, len(sg.Ex))
	copy(init, sg.Ex)

	pre, err := NewPrecursors(main, sg)
	assert.NoError(t, err)
	pre.UpdateElectric()
	pre.UpdateMagnetic()
	pre.CalcExactElectricInTime()
	pre.CalcExactMagneticInTime()

	for cycle := 0; cycle < 3; cycle++ {
		sg.UpdateElectricA()
		sg.UpdateElectricIS(pre.Buffers())
		sg.UpdateMagnetic()
		sg.UpdateMagneticIS(pre.Buffers())
	}

	const eps = 1.e-6
	assert.Less(t, maxAbs(sg.Hx), eps)
	assert.Less(t, maxAbs(sg.Hy), eps)
	assert.Less(t, maxAbs(sg.Hz), eps)
	assert.Less(t, maxAbs(sg.Ey), eps)
	assert.Less(t, maxAbs(sg.Ez), eps)
	for idx := range sg.Ex {
		assert.Less(t, math.Abs(sg.Ex[idx]-init[idx]), eps)
	}

	// The IS never writes the main grid
	for _, v := range main.Ex {
		assert.Equal(t, 1.0, v)
	}
	assert.Equal(t, 0.0, maxAbs(main.Hy))
}

// The magnetic counterpart: a uniform H field, total inside the inner
// surface and zero outside, must leave E exactly zero everywhere. Every
// fine E node bordering the total-field region picks up a spurious curl
// from each discontinuous H component, so all six electric injections must
// cover their full face ranges — including the box edges, where two faces
// meet and the node needs one correction per adjacent face.
func TestISInjectionCancelsMagneticBoundary(t *testing.T) {
	main := testMain()
	sg, err := NewSubGridHSG(main, testParams())
	assert.NoError(t, err)

	fill(main.Hx, 1)
	fill(main.Hy, 1)
	fill(main.Hz, 1)

	nb := sg.NB
	// Total field regions follow each component's stagger.
	for i := nb; i <= nb+sg.NwX; i++ {
		for j := nb; j < nb+sg.NwY; j++ {
			for k := nb; k < nb+sg.NwZ; k++ {
				sg.Hx[sg.Idx(i, j, k)] = 1
			}
		}
	}
	for i := nb; i < nb+sg.NwX; i++ {
		for j := nb; j <= nb+sg.NwY; j++ {
			for k := nb; k < nb+sg.NwZ; k++ {
				sg.Hy[sg.Idx(i, j, k)] = 1
			}
		}
	}
	for i := nb; i < nb+sg.NwX; i++ {
		for j := nb; j < nb+sg.NwY; j++ {
			for k := nb; k <= nb+sg.NwZ; k++ {
				sg.Hz[sg.Idx(i, j, k)] = 1
			}
		}
	}
	initHx := append([]float64(nil), sg.Hx...)
	initHy := append([]float64(nil), sg.Hy...)
	initHz := append([]float64(nil), sg.Hz...)

	pre, err := NewPrecursors(main, sg)
	assert.NoError(t, err)
	pre.UpdateElectric()
	pre.UpdateMagnetic()
	pre.CalcExactElectricInTime()
	pre.CalcExactMagneticInTime()

	for cycle := 0; cycle < 3; cycle++ {
		sg.UpdateElectricA()
		sg.UpdateElectricIS(pre.Buffers())
		sg.UpdateMagnetic()
		sg.UpdateMagneticIS(pre.Buffers())
	}

	const eps = 1.e-6
	assert.Less(t, maxAbs(sg.Ex), eps)
	assert.Less(t, maxAbs(sg.Ey), eps)
	assert.Less(t, maxAbs(sg.Ez), eps)
	for idx := range sg.Hx {
		assert.InDelta(t, initHx[idx], sg.Hx[idx], eps)
		assert.InDelta(t, initHy[idx], sg.Hy[idx], eps)
		assert.InDelta(t, initHz[idx], sg.Hz[idx], eps)
	}
}

func TestElectricOSInjection(t *testing.T) {
	main := testMain()
	sg, err := NewSubGridHSG(main, testParams())
	assert.NoError(t, err)

	const v = 2.0
	fill(sg.Hy, v)
	sg.UpdateElectricOS(main)

	cE3 := main.CoeffsE.At(0, 3)
	cE1 := main.CoeffsE.At(0, 1)
	il, iu := 8-2, 12+2

	// Fine Hy feeds main Ex on the z-normal faces and main Ez on the
	// x-normal faces; everything else stays zero.
	var nEx, nEz int
	for i := 0; i <= main.Nx; i++ {
		for j := 0; j <= main.Ny; j++ {
			for k := 0; k <= main.Nz; k++ {
				ex := main.Ex[main.Idx(i, j, k)]
				if ex != 0 {
					nEx++
					want := cE3 * v
					if k == il {
						want = -want
					} else {
						assert.Equal(t, iu, k)
					}
					assert.InDelta(t, want, ex, math.Abs(want)*1.e-12)
				}
				ez := main.Ez[main.Idx(i, j, k)]
				if ez != 0 {
					nEz++
					want := cE1 * v
					if i == iu {
						want = -want
					} else {
						assert.Equal(t, il, i)
					}
					assert.InDelta(t, want, ez, math.Abs(want)*1.e-12)
				}
			}
		}
	}
	// 8 staggered by 9 node positions per face, two faces each
	assert.Equal(t, 2*8*9, nEx)
	assert.Equal(t, 2*9*8, nEz)
	assert.Equal(t, 0.0, maxAbs(main.Ey))
	assert.Equal(t, 0.0, maxAbs(main.Hx))
	assert.Equal(t, 0.0, maxAbs(main.Hy))
	assert.Equal(t, 0.0, maxAbs(main.Hz))

	// The OS never writes the fine grid
	for _, w := range sg.Hy {
		assert.Equal(t, v, w)
	}
}

func TestMagneticOSInjection(t *testing.T) {
	main := testMain()
	sg, err := NewSubGridHSG(main, testParams())
	assert.NoError(t, err)

	const v = 2.0
	fill(sg.Ex, v)
	sg.UpdateMagneticOS(main)

	cH3 := main.CoeffsH.At(0, 3)
	cH2 := main.CoeffsH.At(0, 2)
	il, iu := 8-2, 12+2

	// Fine Ex feeds main Hy on the z-normal faces (staggered planes just
	// outside) and main Hz on the y-normal faces.
	var nHy, nHz int
	for i := 0; i <= main.Nx; i++ {
		for j := 0; j <= main.Ny; j++ {
			for k := 0; k <= main.Nz; k++ {
				hy := main.Hy[main.Idx(i, j, k)]
				if hy != 0 {
					nHy++
					want := cH3 * v
					if k == il-1 {
						want = -want
					} else {
						assert.Equal(t, iu, k)
					}
					assert.InDelta(t, want, hy, math.Abs(want)*1.e-12)
				}
				hz := main.Hz[main.Idx(i, j, k)]
				if hz != 0 {
					nHz++
					want := cH2 * v
					if j == iu {
						want = -want
					} else {
						assert.Equal(t, il-1, j)
					}
					assert.InDelta(t, want, hz, math.Abs(want)*1.e-12)
				}
			}
		}
	}
	assert.Equal(t, 2*8*9, nHy)
	assert.Equal(t, 2*8*9, nHz)
	assert.Equal(t, 0.0, maxAbs(main.Hx))
	assert.Equal(t, 0.0, maxAbs(main.Ex))
	assert.Equal(t, 0.0, maxAbs(main.Ey))
	assert.Equal(t, 0.0, maxAbs(main.Ez))
}

// With both grids all-zero and no sources, a full sub-cycle must leave every
// field exactly zero: the exchange injects nothing it did not sample.
func TestZeroFieldInvariance(t *testing.T) {
	main := testMain()
	sg, err := NewSubGridHSG(main, testParams())
	assert.NoError(t, err)
	u, err := NewUpdater(main, sg)
	assert.NoError(t, err)

	for it := 0; it < 2; it++ {
		main.UpdateMagnetic()
		u.HSG2()
		main.UpdateElectricA()
		u.HSG1()
		main.UpdateElectricB()
	}
	for c := grid.CompEx; c < grid.NumComponents; c++ {
		assert.Equal(t, 0.0, maxAbs(main.Field(c)))
		assert.Equal(t, 0.0, maxAbs(sg.Field(c)))
	}
}
