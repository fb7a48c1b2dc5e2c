package solver

import (
	"fmt"

	ip "github.com/emtools/gofdtd/InputParameters"
	"github.com/emtools/gofdtd/grid"
	"github.com/emtools/gofdtd/subgrid"
)

// Model is a fully constructed simulation: main grid, subgrids wired to it,
// and the run parameters that came off the deck.
type Model struct {
	G        *grid.Grid
	SubGrids []*subgrid.SubGrid
	Updates  *subgrid.Updates

	Iterations int
	Backend    Backend
	CheckEvery int
	LogEvery   int
}

// defaultIsOsSep is the inner/outer surface separation used when the deck
// leaves it unset.
const defaultIsOsSep = 3

// BuildModel turns validated deck parameters into grids, materials, sources
// and subgrid updaters. All geometry violations surface here as
// ConfigurationError, before the first iteration.
func BuildModel(sp *ip.SimulationParameters) (*Model, error) {
	backend, err := ParseBackend(sp.Backend)
	if err != nil {
		return nil, err
	}

	g := grid.NewGrid("main",
		sp.Cells[0], sp.Cells[1], sp.Cells[2],
		sp.Discretisation[0], sp.Discretisation[1], sp.Discretisation[2])
	if sp.PMLThickness > 0 {
		g.EnableAbsorber(sp.PMLThickness)
	}

	m := &Model{
		G:          g,
		Iterations: sp.Iterations,
		Backend:    backend,
		CheckEvery: sp.CheckEvery,
		LogEvery:   sp.LogEvery,
	}

	grids := map[string]*grid.Grid{"": g, "main": g}
	for _, s := range sp.SubGrids {
		sep := s.IsOsSep
		if sep == 0 {
			sep = defaultIsOsSep
		}
		sg, err := subgrid.NewSubGridHSG(g, subgrid.Params{
			ID:      s.ID,
			Ratio:   s.Ratio,
			IsOsSep: sep,
			I0:      s.Lower[0], J0: s.Lower[1], K0: s.Lower[2],
			I1: s.Upper[0], J1: s.Upper[1], K1: s.Upper[2],
			Filter:        s.Filter,
			PMLSeparation: s.PMLSeparation,
			PMLThickness:  s.PMLThickness,
		})
		if err != nil {
			return nil, err
		}
		for _, prev := range m.SubGrids {
			if sg.Overlaps(prev) {
				return nil, grid.ConfigErrorf("subgrids [%s] and [%s] overlap", sg.Name, prev.Name)
			}
		}
		m.SubGrids = append(m.SubGrids, sg)
		grids[s.ID] = sg.Grid
	}

	// Every grid carries the full material table so a deck box can target
	// any of them by the same name.
	matID := make(map[string]int, len(sp.Materials))
	for _, ms := range sp.Materials {
		mat := grid.Material{
			Name: ms.Name,
			Er:   orOne(ms.Er), Sigma: ms.Sigma,
			Mr: orOne(ms.Mr), SigmaM: ms.SigmaM,
			DeltaEr: ms.DeltaEr, Tau: ms.Tau,
		}
		matID[ms.Name] = g.AddMaterial(mat)
		for _, sg := range m.SubGrids {
			sg.AddMaterial(mat)
		}
	}

	for _, b := range sp.Boxes {
		target, ok := grids[b.Grid]
		if !ok {
			return nil, grid.ConfigErrorf("box targets unknown grid %q", b.Grid)
		}
		id, ok := matID[b.Material]
		if !ok {
			return nil, grid.ConfigErrorf("box references unknown material %q", b.Material)
		}
		if err := target.SetMaterialBox(id,
			b.Lower[0], b.Lower[1], b.Lower[2],
			b.Upper[0], b.Upper[1], b.Upper[2]); err != nil {
			return nil, err
		}
	}

	for _, s := range sp.Sources {
		target, ok := grids[s.Grid]
		if !ok {
			return nil, grid.ConfigErrorf("source targets unknown grid %q", s.Grid)
		}
		pol, err := grid.ParseComponent(s.Polarisation)
		if err != nil {
			return nil, err
		}
		switch s.Type {
		case "hertzian":
			err = target.AddHertzianDipole(&grid.HertzianDipole{
				Polarisation: pol,
				I:            s.Position[0], J: s.Position[1], K: s.Position[2],
				DL: s.DL, W: s.Waveform,
			})
		case "magnetic":
			err = target.AddMagneticDipole(&grid.MagneticDipole{
				Polarisation: pol,
				I:            s.Position[0], J: s.Position[1], K: s.Position[2],
				W: s.Waveform,
			})
		default:
			err = grid.ConfigErrorf("source type %q", s.Type)
		}
		if err != nil {
			return nil, err
		}
	}

	for _, r := range sp.Receivers {
		target, ok := grids[r.Grid]
		if !ok {
			return nil, grid.ConfigErrorf("receiver targets unknown grid %q", r.Grid)
		}
		if err := target.AddReceiver(&grid.Receiver{
			Name: r.Name,
			I:    r.Position[0], J: r.Position[1], K: r.Position[2],
		}); err != nil {
			return nil, err
		}
	}

	var updaters []*subgrid.Updater
	for _, sg := range m.SubGrids {
		u, err := subgrid.NewUpdater(g, sg)
		if err != nil {
			return nil, err
		}
		updaters = append(updaters, u)
	}
	m.Updates = subgrid.NewUpdates(sp.ParallelSubGrids, updaters...)
	return m, nil
}

// NewSolver builds the time-loop driver for the model's backend.
func (m *Model) NewSolver() (*Solver, error) {
	s, err := New(m.G, m.Updates, m.Backend)
	if err != nil {
		return nil, err
	}
	if m.CheckEvery > 0 {
		s.CheckEvery = m.CheckEvery
	}
	s.LogEvery = m.LogEvery
	return s, nil
}

// PrintInfo reports the constructed geometry.
func (m *Model) PrintInfo() {
	m.G.PrintInfo()
	for _, sg := range m.SubGrids {
		sg.PrintInfo()
	}
	fmt.Printf("\nIterations: %d (%g secs)\n", m.Iterations, float64(m.Iterations)*m.G.Dt)
}

func orOne(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}
