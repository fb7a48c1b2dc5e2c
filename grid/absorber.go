package grid

import "math"

// absorber is a graded-conductivity absorbing layer applied as a
// multiplicative loss at the end of each half-update. The polynomial grading
// keeps the inner interface reflection small without split fields.
type absorber struct {
	thickness int
	fe        [3][]float64 // per-axis node damping for E
	fh        [3][]float64 // per-axis stagger damping for H
}

// EnableAbsorber installs an absorbing boundary layer of the given thickness
// (in cells) on all six sides. A thickness of 0 disables absorption, leaving
// the default PEC walls.
func (g *Grid) EnableAbsorber(thickness int) {
	if thickness <= 0 {
		g.absorber = nil
		return
	}
	a := &absorber{thickness: thickness}
	sigmaMax := 0.8 * 4.0 / (math.Sqrt(Mu0/Eps0) * g.Dx)
	dims := [3]int{g.Nx, g.Ny, g.Nz}
	for axis := 0; axis < 3; axis++ {
		n := dims[axis]
		a.fe[axis] = dampingProfile(n, thickness, sigmaMax, g.Dt, 0)
		a.fh[axis] = dampingProfile(n, thickness, sigmaMax, g.Dt, 0.5)
	}
	g.absorber = a
}

func dampingProfile(n, thickness int, sigmaMax, dt, stagger float64) []float64 {
	f := make([]float64, n+1)
	for i := 0; i <= n; i++ {
		f[i] = 1
		pos := float64(i) + stagger
		depth := 0.0
		if pos < float64(thickness) {
			depth = float64(thickness) - pos
		} else if pos > float64(n-thickness) {
			depth = pos - float64(n-thickness)
		}
		if depth > 0 {
			x := depth / float64(thickness)
			sigma := sigmaMax * x * x * x
			f[i] = math.Exp(-sigma * dt / Eps0)
		}
	}
	return f
}

// ApplyPMLElectric damps the electric field inside the absorbing layer.
// No-op when no absorber is installed.
func (g *Grid) ApplyPMLElectric() {
	a := g.absorber
	if a == nil {
		return
	}
	g.applyDamping(g.Ex, a.fh[0], a.fe[1], a.fe[2])
	g.applyDamping(g.Ey, a.fe[0], a.fh[1], a.fe[2])
	g.applyDamping(g.Ez, a.fe[0], a.fe[1], a.fh[2])
}

// ApplyPMLMagnetic damps the magnetic field inside the absorbing layer.
func (g *Grid) ApplyPMLMagnetic() {
	a := g.absorber
	if a == nil {
		return
	}
	g.applyDamping(g.Hx, a.fe[0], a.fh[1], a.fh[2])
	g.applyDamping(g.Hy, a.fh[0], a.fe[1], a.fh[2])
	g.applyDamping(g.Hz, a.fh[0], a.fh[1], a.fe[2])
}

func (g *Grid) applyDamping(field []float64, fx, fy, fz []float64) {
	g.forEachISlab(func(iLo, iHi int) {
		lo, hi := clampRange(iLo, iHi, 0, g.Nx+1)
		for i := lo; i < hi; i++ {
			for j := 0; j <= g.Ny; j++ {
				f := fx[i] * fy[j]
				base := g.Idx(i, j, 0)
				for k := 0; k <= g.Nz; k++ {
					w := f * fz[k]
					if w != 1 {
						field[base+k] *= w
					}
				}
			}
		}
	})
}
