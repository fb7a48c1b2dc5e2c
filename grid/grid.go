package grid

import (
	"fmt"
	"math"
	"strings"

	"github.com/emtools/gofdtd/utils"
)

const (
	C0   = 299792458.0
	Eps0 = 8.8541878128e-12
	Mu0  = 4.0e-7 * math.Pi
)

// Component identifies one of the six Yee field components. The integer value
// doubles as the row block index into the material ID lookup.
type Component int

const (
	CompEx Component = iota
	CompEy
	CompEz
	CompHx
	CompHy
	CompHz
	NumComponents
)

var componentNames = []string{"Ex", "Ey", "Ez", "Hx", "Hy", "Hz"}

func (c Component) String() string { return componentNames[c] }

func (c Component) IsElectric() bool { return c <= CompEz }

// Offset returns the Yee half-cell stagger of the component in cell units.
func (c Component) Offset() (ox, oy, oz float64) {
	switch c {
	case CompEx:
		return 0.5, 0, 0
	case CompEy:
		return 0, 0.5, 0
	case CompEz:
		return 0, 0, 0.5
	case CompHx:
		return 0, 0.5, 0.5
	case CompHy:
		return 0.5, 0, 0.5
	case CompHz:
		return 0.5, 0.5, 0
	}
	panic("invalid component")
}

// Material carries the constitutive parameters of one medium. DeltaEr/Tau
// describe an optional single-pole Debye term handled by the second electric
// update phase.
type Material struct {
	Name    string
	Er      float64 // relative permittivity
	Sigma   float64 // electric conductivity
	Mr      float64 // relative permeability
	SigmaM  float64 // magnetic loss
	DeltaEr float64 // Debye pole strength (0 = non-dispersive)
	Tau     float64 // Debye relaxation time
}

func (m Material) dispersive() bool { return m.DeltaEr != 0 && m.Tau > 0 }

// FreeSpace is material index 0 in every grid.
func FreeSpace() Material {
	return Material{Name: "free_space", Er: 1, Mr: 1}
}

// Grid is a 3D Yee lattice of electric and magnetic field samples plus the
// per-material update-coefficient tables and the per-cell material lookup.
// Field arrays are allocated once and mutated in place every step.
type Grid struct {
	Name       string
	Nx, Ny, Nz int
	Dx, Dy, Dz float64
	Dt         float64

	Ex, Ey, Ez []float64
	Hx, Hy, Hz []float64

	// CoeffsE/CoeffsH hold one row per material:
	// [c0, c1 (x-derivative), c2 (y), c3 (z), cSrc]
	CoeffsE, CoeffsH utils.Matrix
	Materials        []Material
	ID               []uint16

	// Single-pole dispersive state, allocated lazily when a dispersive
	// material is registered.
	jx, jy, jz []float64

	absorber *absorber

	Sources   []*HertzianDipole
	MSources  []*MagneticDipole
	Receivers []*Receiver

	// SnapshotFunc, when set, is invoked by StoreSnapshot.
	SnapshotFunc func(step int, g *Grid)

	eSourceIter int
	hSourceIter int

	pm *utils.PartitionMap
}

// NewGrid allocates a grid of nx*ny*nz cells with spatial step d{x,y,z} and
// the time step at the 3D CFL limit. Material 0 is free space.
func NewGrid(name string, nx, ny, nz int, dx, dy, dz float64) *Grid {
	n := (nx + 1) * (ny + 1) * (nz + 1)
	g := &Grid{
		Name: name,
		Nx:   nx, Ny: ny, Nz: nz,
		Dx: dx, Dy: dy, Dz: dz,
		Ex: make([]float64, n), Ey: make([]float64, n), Ez: make([]float64, n),
		Hx: make([]float64, n), Hy: make([]float64, n), Hz: make([]float64, n),
		ID: make([]uint16, int(NumComponents)*n),
		pm: utils.NewPartitionMap(utils.DefaultParallelDegree(), nx+1),
	}
	g.Dt = 1.0 / (C0 * math.Sqrt(1.0/(dx*dx)+1.0/(dy*dy)+1.0/(dz*dz)))
	g.AddMaterial(FreeSpace())
	return g
}

// ParseComponent maps a field-component name ("Ex" .. "Hz") onto a Component.
func ParseComponent(s string) (Component, error) {
	for c := CompEx; c < NumComponents; c++ {
		if strings.EqualFold(s, c.String()) {
			return c, nil
		}
	}
	return CompEx, ConfigErrorf("unrecognised field component %q", s)
}

// SetTimeStep overrides the CFL-limit time step and rebuilds the update
// coefficients. Subgrids use it to lock their sub-cycle to the main grid.
func (g *Grid) SetTimeStep(dt float64) {
	g.Dt = dt
	g.buildCoefficients()
}

// Idx maps node coordinates to the flat field-array index.
func (g *Grid) Idx(i, j, k int) int {
	return (i*(g.Ny+1)+j)*(g.Nz+1) + k
}

func (g *Grid) nodes() int { return (g.Nx + 1) * (g.Ny + 1) * (g.Nz + 1) }

// Field returns the flat array backing one component.
func (g *Grid) Field(c Component) []float64 {
	switch c {
	case CompEx:
		return g.Ex
	case CompEy:
		return g.Ey
	case CompEz:
		return g.Ez
	case CompHx:
		return g.Hx
	case CompHy:
		return g.Hy
	case CompHz:
		return g.Hz
	}
	panic("invalid component")
}

// MaterialID returns the material row for a component at a node.
func (g *Grid) MaterialID(c Component, i, j, k int) int {
	return int(g.ID[int(c)*g.nodes()+g.Idx(i, j, k)])
}

func (g *Grid) setMaterialID(c Component, i, j, k, id int) {
	g.ID[int(c)*g.nodes()+g.Idx(i, j, k)] = uint16(id)
}

// AddMaterial registers a material and rebuilds the coefficient tables.
// It returns the new material's row index.
func (g *Grid) AddMaterial(m Material) int {
	g.Materials = append(g.Materials, m)
	g.buildCoefficients()
	if m.dispersive() && g.jx == nil {
		n := g.nodes()
		g.jx = make([]float64, n)
		g.jy = make([]float64, n)
		g.jz = make([]float64, n)
	}
	return len(g.Materials) - 1
}

func (g *Grid) buildCoefficients() {
	nm := len(g.Materials)
	cE := utils.NewMatrix(nm, 5)
	cH := utils.NewMatrix(nm, 5)
	for r, m := range g.Materials {
		eDen := 2*Eps0*m.Er + m.Sigma*g.Dt
		cE.Set(r, 0, (2*Eps0*m.Er-m.Sigma*g.Dt)/eDen)
		cE.Set(r, 1, 2*g.Dt/(eDen*g.Dx))
		cE.Set(r, 2, 2*g.Dt/(eDen*g.Dy))
		cE.Set(r, 3, 2*g.Dt/(eDen*g.Dz))
		cE.Set(r, 4, 2*g.Dt/(eDen*g.Dx*g.Dy*g.Dz))

		hDen := 2*Mu0*m.Mr + m.SigmaM*g.Dt
		cH.Set(r, 0, (2*Mu0*m.Mr-m.SigmaM*g.Dt)/hDen)
		cH.Set(r, 1, 2*g.Dt/(hDen*g.Dx))
		cH.Set(r, 2, 2*g.Dt/(hDen*g.Dy))
		cH.Set(r, 3, 2*g.Dt/(hDen*g.Dz))
		cH.Set(r, 4, 2*g.Dt/(hDen*g.Dx*g.Dy*g.Dz))
	}
	g.CoeffsE = cE
	g.CoeffsH = cH
}

// SetMaterialBox assigns a material to every component node within the cell
// box [i0,i1) x [j0,j1) x [k0,k1). This is the hook the geometry layer uses
// to populate the lookup; the solver core only reads it.
func (g *Grid) SetMaterialBox(id, i0, j0, k0, i1, j1, k1 int) error {
	if id < 0 || id >= len(g.Materials) {
		return ConfigErrorf("material index %d out of range", id)
	}
	if i0 < 0 || j0 < 0 || k0 < 0 || i1 > g.Nx || j1 > g.Ny || k1 > g.Nz || i0 >= i1 || j0 >= j1 || k0 >= k1 {
		return ConfigErrorf("material box [%d %d %d]-[%d %d %d] outside grid [%s]", i0, j0, k0, i1, j1, k1, g.Name)
	}
	for c := CompEx; c < NumComponents; c++ {
		for i := i0; i < i1; i++ {
			for j := j0; j < j1; j++ {
				for k := k0; k < k1; k++ {
					g.setMaterialID(c, i, j, k, id)
				}
			}
		}
	}
	return nil
}

// CheckFinite scans the field arrays for NaN/Inf contamination.
func (g *Grid) CheckFinite(iteration int) error {
	for c := CompEx; c < NumComponents; c++ {
		for _, v := range g.Field(c) {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return &NumericalDivergenceError{
					GridName:  g.Name,
					Component: c.String(),
					Iteration: iteration,
				}
			}
		}
	}
	return nil
}

// PrintInfo reports the grid extents and time step.
func (g *Grid) PrintInfo() {
	fmt.Printf("[%s] Domain: %d x %d x %d cells\n", g.Name, g.Nx, g.Ny, g.Nz)
	fmt.Printf("[%s] Spatial discretisation: %g x %g x %g m\n", g.Name, g.Dx, g.Dy, g.Dz)
	fmt.Printf("[%s] Time step (at CFL limit): %g secs\n", g.Name, g.Dt)
}
