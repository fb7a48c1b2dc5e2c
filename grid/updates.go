package grid

import "sync"

// The update kernels below implement the standard Yee leapfrog in the form
//
//	Ex = c0(Ex) + c2(dHz) - c3(dHy)
//	Ey = c0(Ey) + c3(dHx) - c1(dHz)
//	Ez = c0(Ez) + c1(dHy) - c2(dHx)
//
//	Hx = c0(Hx) - c2(dEz) + c3(dEy)
//	Hy = c0(Hy) - c3(dEx) + c1(dEz)
//	Hz = c0(Hz) - c1(dEy) + c2(dEx)
//
// with per-node material coefficients. Each kernel advances its field by one
// full step of this grid's Dt and may be called at arbitrary sub-step
// granularity; none of them sub-steps internally. Cell updates are data
// parallel and split into i-slabs across workers; the slab join is a hard
// barrier before the kernel returns.

// forEachISlab runs f over worker-owned half-open i-ranges and waits for all.
func (g *Grid) forEachISlab(f func(iLo, iHi int)) {
	var wg sync.WaitGroup
	for n := 0; n < g.pm.ParallelDegree; n++ {
		lo, hi := g.pm.GetBucketRange(n)
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			f(lo, hi)
		}(lo, hi)
	}
	wg.Wait()
}

func clampRange(lo, hi, min, max int) (int, int) {
	if lo < min {
		lo = min
	}
	if hi > max {
		hi = max
	}
	return lo, hi
}

// UpdateElectricA advances the electric field one step (standard update plus
// the dispersive polarisation-current term where present).
func (g *Grid) UpdateElectricA() {
	var (
		cE    = g.CoeffsE.DataP()
		nodes = g.nodes()
		sy    = g.Nz + 1
		sx    = (g.Ny + 1) * (g.Nz + 1)
	)
	g.forEachISlab(func(iLo, iHi int) {
		// Ex: i in [0,Nx), j in [1,Ny), k in [1,Nz)
		lo, hi := clampRange(iLo, iHi, 0, g.Nx)
		for i := lo; i < hi; i++ {
			for j := 1; j < g.Ny; j++ {
				base := i*sx + j*sy
				for k := 1; k < g.Nz; k++ {
					idx := base + k
					m := 5 * int(g.ID[int(CompEx)*nodes+idx])
					g.Ex[idx] = cE[m]*g.Ex[idx] +
						cE[m+2]*(g.Hz[idx]-g.Hz[idx-sy]) -
						cE[m+3]*(g.Hy[idx]-g.Hy[idx-1])
				}
			}
		}
		// Ey: i in [1,Nx), j in [0,Ny), k in [1,Nz)
		lo, hi = clampRange(iLo, iHi, 1, g.Nx)
		for i := lo; i < hi; i++ {
			for j := 0; j < g.Ny; j++ {
				base := i*sx + j*sy
				for k := 1; k < g.Nz; k++ {
					idx := base + k
					m := 5 * int(g.ID[int(CompEy)*nodes+idx])
					g.Ey[idx] = cE[m]*g.Ey[idx] +
						cE[m+3]*(g.Hx[idx]-g.Hx[idx-1]) -
						cE[m+1]*(g.Hz[idx]-g.Hz[idx-sx])
				}
			}
		}
		// Ez: i in [1,Nx), j in [1,Ny), k in [0,Nz)
		lo, hi = clampRange(iLo, iHi, 1, g.Nx)
		for i := lo; i < hi; i++ {
			for j := 1; j < g.Ny; j++ {
				base := i*sx + j*sy
				for k := 0; k < g.Nz; k++ {
					idx := base + k
					m := 5 * int(g.ID[int(CompEz)*nodes+idx])
					g.Ez[idx] = cE[m]*g.Ez[idx] +
						cE[m+1]*(g.Hy[idx]-g.Hy[idx-sx]) -
						cE[m+2]*(g.Hx[idx]-g.Hx[idx-sy])
				}
			}
		}
	})
	if g.jx != nil {
		g.subtractPolarisationCurrents()
	}
}

// UpdateElectricB is the second electric phase: it advances the dispersive
// polarisation currents using the freshly updated electric field. For a grid
// with no dispersive materials it is a no-op.
func (g *Grid) UpdateElectricB() {
	if g.jx == nil {
		return
	}
	var (
		nodes = g.nodes()
	)
	g.forEachISlab(func(iLo, iHi int) {
		lo, hi := clampRange(iLo, iHi, 0, g.Nx+1)
		for i := lo; i < hi; i++ {
			for j := 0; j <= g.Ny; j++ {
				for k := 0; k <= g.Nz; k++ {
					idx := g.Idx(i, j, k)
					mx := g.Materials[g.ID[int(CompEx)*nodes+idx]]
					if mx.dispersive() {
						a, b := debyeCoefficients(mx, g.Dt)
						g.jx[idx] = a*g.jx[idx] + b*g.Ex[idx]
					}
					my := g.Materials[g.ID[int(CompEy)*nodes+idx]]
					if my.dispersive() {
						a, b := debyeCoefficients(my, g.Dt)
						g.jy[idx] = a*g.jy[idx] + b*g.Ey[idx]
					}
					mz := g.Materials[g.ID[int(CompEz)*nodes+idx]]
					if mz.dispersive() {
						a, b := debyeCoefficients(mz, g.Dt)
						g.jz[idx] = a*g.jz[idx] + b*g.Ez[idx]
					}
				}
			}
		}
	})
}

func (g *Grid) subtractPolarisationCurrents() {
	cE := g.CoeffsE.DataP()
	nodes := g.nodes()
	for idx := range g.jx {
		if g.jx[idx] != 0 {
			m := 5 * int(g.ID[int(CompEx)*nodes+idx])
			g.Ex[idx] -= cE[m+4] * g.Dx * g.Dy * g.Dz * g.jx[idx]
		}
		if g.jy[idx] != 0 {
			m := 5 * int(g.ID[int(CompEy)*nodes+idx])
			g.Ey[idx] -= cE[m+4] * g.Dx * g.Dy * g.Dz * g.jy[idx]
		}
		if g.jz[idx] != 0 {
			m := 5 * int(g.ID[int(CompEz)*nodes+idx])
			g.Ez[idx] -= cE[m+4] * g.Dx * g.Dy * g.Dz * g.jz[idx]
		}
	}
}

func debyeCoefficients(m Material, dt float64) (alpha, beta float64) {
	alpha = (2*m.Tau - dt) / (2*m.Tau + dt)
	beta = 2 * Eps0 * m.DeltaEr * dt / (m.Tau * (2*m.Tau + dt))
	return
}

// UpdateMagnetic advances the magnetic field one step.
func (g *Grid) UpdateMagnetic() {
	var (
		cH    = g.CoeffsH.DataP()
		nodes = g.nodes()
		sy    = g.Nz + 1
		sx    = (g.Ny + 1) * (g.Nz + 1)
	)
	g.forEachISlab(func(iLo, iHi int) {
		// Hx: i in [0,Nx], j in [0,Ny), k in [0,Nz)
		lo, hi := clampRange(iLo, iHi, 0, g.Nx+1)
		for i := lo; i < hi; i++ {
			for j := 0; j < g.Ny; j++ {
				base := i*sx + j*sy
				for k := 0; k < g.Nz; k++ {
					idx := base + k
					m := 5 * int(g.ID[int(CompHx)*nodes+idx])
					g.Hx[idx] = cH[m]*g.Hx[idx] -
						cH[m+2]*(g.Ez[idx+sy]-g.Ez[idx]) +
						cH[m+3]*(g.Ey[idx+1]-g.Ey[idx])
				}
			}
		}
		// Hy: i in [0,Nx), j in [0,Ny], k in [0,Nz)
		lo, hi = clampRange(iLo, iHi, 0, g.Nx)
		for i := lo; i < hi; i++ {
			for j := 0; j <= g.Ny; j++ {
				base := i*sx + j*sy
				for k := 0; k < g.Nz; k++ {
					idx := base + k
					m := 5 * int(g.ID[int(CompHy)*nodes+idx])
					g.Hy[idx] = cH[m]*g.Hy[idx] -
						cH[m+3]*(g.Ex[idx+1]-g.Ex[idx]) +
						cH[m+1]*(g.Ez[idx+sx]-g.Ez[idx])
				}
			}
		}
		// Hz: i in [0,Nx), j in [0,Ny), k in [0,Nz]
		lo, hi = clampRange(iLo, iHi, 0, g.Nx)
		for i := lo; i < hi; i++ {
			for j := 0; j < g.Ny; j++ {
				base := i*sx + j*sy
				for k := 0; k <= g.Nz; k++ {
					idx := base + k
					m := 5 * int(g.ID[int(CompHz)*nodes+idx])
					g.Hz[idx] = cH[m]*g.Hz[idx] -
						cH[m+1]*(g.Ey[idx+sx]-g.Ey[idx]) +
						cH[m+2]*(g.Ex[idx+sy]-g.Ex[idx])
				}
			}
		}
	})
}
