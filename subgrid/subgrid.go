package subgrid

import (
	"fmt"

	"github.com/emtools/gofdtd/grid"
)

// Kind tags the coupling algorithm a subgrid was built for. The precursor
// factory matches on it rather than inspecting concrete types.
type Kind uint8

const (
	// KindHSG couples through a Huygens Surface Gridding IS/OS pair.
	KindHSG Kind = iota
)

func (k Kind) String() string {
	if k == KindHSG {
		return "3DSUBGRID"
	}
	return fmt.Sprintf("unknown(%d)", uint8(k))
}

// Params is the immutable construction-time description of one subgrid.
type Params struct {
	ID      string
	Ratio   int // odd, >= 3
	IsOsSep int // main-grid cells between inner and outer surface, >= 1
	// Working-region bounding box in main-grid cells.
	I0, J0, K0 int
	I1, J1, K1 int
	// Filter selects the filtered precursor variant.
	Filter bool
	// Absorbing boundary sizing in fine cells. Zero takes the defaults
	// (ratio/2+2 separation, 6 cells thickness); negative disables.
	PMLSeparation int
	PMLThickness  int
}

// SubGrid is a fine-resolution grid embedded in a main grid, coupled through
// the IS/OS exchange. It embeds its own Yee grid: the working region is
// spatially co-located with the main-grid box [I0,I1]x[J0,J1]x[K0,K1], and
// boundary cells extend outward by NB fine cells on every side.
type SubGrid struct {
	*grid.Grid
	Kind    Kind
	Ratio   int
	IsOsSep int
	Filter  bool

	I0, J0, K0 int
	I1, J1, K1 int

	// Working region extent in fine cells.
	NwX, NwY, NwZ int
	// NB is the count of fine boundary cells between the working region and
	// the grid edge: IsOsSep*Ratio + PMLSeparation + PMLThickness.
	NB            int
	PMLSeparation int
	PMLThickness  int

	electricIS []isOp
	magneticIS []isOp
	electricOS []osOp
	magneticOS []osOp
}

// NewSubGridHSG validates the geometry against the main grid and allocates
// the fine grid plus the static injection tables. All violations surface as
// ConfigurationError before any time-stepping begins.
func NewSubGridHSG(main *grid.Grid, p Params) (*SubGrid, error) {
	if p.Ratio < 3 || p.Ratio%2 == 0 {
		return nil, grid.ConfigErrorf("subgrid [%s] ratio must be an odd integer >= 3, got %d", p.ID, p.Ratio)
	}
	if p.IsOsSep < 1 {
		return nil, grid.ConfigErrorf("subgrid [%s] is_os_sep must be >= 1, got %d", p.ID, p.IsOsSep)
	}
	if p.I0 >= p.I1 || p.J0 >= p.J1 || p.K0 >= p.K1 {
		return nil, grid.ConfigErrorf("subgrid [%s] bounding box is empty or inverted", p.ID)
	}
	// The OS shell needs one further cell of main grid outside it for the
	// magnetic correction planes.
	if p.I0-p.IsOsSep < 1 || p.J0-p.IsOsSep < 1 || p.K0-p.IsOsSep < 1 ||
		p.I1+p.IsOsSep > main.Nx-1 || p.J1+p.IsOsSep > main.Ny-1 || p.K1+p.IsOsSep > main.Nz-1 {
		return nil, grid.ConfigErrorf("subgrid [%s] IS/OS shells extend outside grid [%s] bounds", p.ID, main.Name)
	}

	pmlSep := p.PMLSeparation
	if pmlSep == 0 {
		pmlSep = p.Ratio/2 + 2
	} else if pmlSep < 0 {
		pmlSep = 0
	}
	pmlThick := p.PMLThickness
	if pmlThick == 0 {
		pmlThick = 6
	} else if pmlThick < 0 {
		pmlThick = 0
	}
	nb := p.IsOsSep*p.Ratio + pmlSep + pmlThick

	sg := &SubGrid{
		Kind:    KindHSG,
		Ratio:   p.Ratio,
		IsOsSep: p.IsOsSep,
		Filter:  p.Filter,
		I0:      p.I0, J0: p.J0, K0: p.K0,
		I1: p.I1, J1: p.J1, K1: p.K1,
		NwX: (p.I1 - p.I0) * p.Ratio,
		NwY: (p.J1 - p.J0) * p.Ratio,
		NwZ: (p.K1 - p.K0) * p.Ratio,
		NB:  nb,
		PMLSeparation: pmlSep,
		PMLThickness:  pmlThick,
	}
	name := p.ID
	if name == "" {
		name = "subgrid"
	}
	sg.Grid = grid.NewGrid(name,
		sg.NwX+2*nb, sg.NwY+2*nb, sg.NwZ+2*nb,
		main.Dx/float64(p.Ratio), main.Dy/float64(p.Ratio), main.Dz/float64(p.Ratio))
	// Lock-step sub-cycling: exactly Ratio fine steps per main step.
	sg.SetTimeStep(main.Dt / float64(p.Ratio))
	if pmlThick > 0 {
		sg.EnableAbsorber(pmlThick)
	}

	sg.buildISOps()
	sg.buildOSOps()
	return sg, nil
}

// UpperM is the number of fine sub-steps in each half of the sub-cycle,
// ratio/2 - 0.5. The odd-ratio requirement keeps it integral.
func (sg *SubGrid) UpperM() int { return (sg.Ratio - 1) / 2 }

// Overlaps reports whether the main-grid write footprints of two subgrids
// intersect. The magnetic OS correction writes the staggered H nodes one cell
// outside the OS box, so the footprint extends one cell beyond it per side.
// Overlapping subgrids are disallowed by model construction.
func (sg *SubGrid) Overlaps(o *SubGrid) bool {
	am, bm := sg.IsOsSep+1, o.IsOsSep+1
	ax0, ay0, az0 := sg.I0-am, sg.J0-am, sg.K0-am
	ax1, ay1, az1 := sg.I1+am, sg.J1+am, sg.K1+am
	bx0, by0, bz0 := o.I0-bm, o.J0-bm, o.K0-bm
	bx1, by1, bz1 := o.I1+bm, o.J1+bm, o.K1+bm
	return ax0 <= bx1 && bx0 <= ax1 && ay0 <= by1 && by0 <= ay1 && az0 <= bz1 && bz0 <= az1
}

// OriginCoarse returns the coarse-cell coordinate of fine node index 0 along
// each axis; fine position fi maps to origin + fi/ratio in main-grid cells.
func (sg *SubGrid) OriginCoarse() (x, y, z float64) {
	r := float64(sg.Ratio)
	return float64(sg.I0) - float64(sg.NB)/r,
		float64(sg.J0) - float64(sg.NB)/r,
		float64(sg.K0) - float64(sg.NB)/r
}

// PrintInfo reports the subgrid geometry in the usual register.
func (sg *SubGrid) PrintInfo() {
	fmt.Printf("\n[%s] Type: %s\n", sg.Name, sg.Kind)
	fmt.Printf("[%s] Ratio: 1:%d\n", sg.Name, sg.Ratio)
	fmt.Printf("[%s] Spatial discretisation: %g x %g x %g m\n", sg.Name, sg.Dx, sg.Dy, sg.Dz)
	fmt.Printf("[%s] Working region: %d x %d x %d cells\n", sg.Name, sg.NwX, sg.NwY, sg.NwZ)
	fmt.Printf("[%s] Total region: %d x %d x %d cells\n", sg.Name, sg.Nx, sg.Ny, sg.Nz)
	fmt.Printf("[%s] Time step (at CFL limit): %g secs\n", sg.Name, sg.Dt)
}
