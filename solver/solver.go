package solver

import (
	"fmt"
	"strings"
	"time"

	"github.com/emtools/gofdtd/grid"
	"github.com/emtools/gofdtd/subgrid"
)

// Backend selects the execution engine for the update kernels.
type Backend uint8

const (
	BackendCPU Backend = iota
	BackendAccelerated
)

func (b Backend) String() string {
	switch b {
	case BackendCPU:
		return "cpu"
	case BackendAccelerated:
		return "accelerated"
	}
	return fmt.Sprintf("unknown(%d)", uint8(b))
}

// ParseBackend maps a deck string onto a Backend.
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "cpu":
		return BackendCPU, nil
	case "accelerated", "gpu":
		return BackendAccelerated, nil
	}
	return BackendCPU, grid.ConfigErrorf("unrecognised backend %q (want cpu or accelerated)", s)
}

// SubgridPhases is the subgrid side of the time loop. *subgrid.Updates
// satisfies it.
type SubgridPhases interface {
	Empty() bool
	HSG1()
	HSG2()
	StoreSnapshots(step int)
	CheckFinite(iteration int) error
}

// Solver owns the canonical time loop. One iteration advances main grid and
// subgrids together by one main-grid time step.
type Solver struct {
	kernel subgrid.Kernel
	g      *grid.Grid // nil when kernel is not a real grid
	sub    SubgridPhases

	// CheckEvery is the divergence-scan interval in iterations; <= 0
	// disables the scan.
	CheckEvery int
	// LogEvery is the progress-report interval; <= 0 keeps the loop quiet.
	LogEvery int
}

// New builds a solver for a main grid and its (possibly empty) subgrid set
// on the requested backend. Only the CPU backend is compiled into this
// build; asking for another is a configuration error rather than a silent
// fallback.
func New(g *grid.Grid, sub SubgridPhases, backend Backend) (*Solver, error) {
	switch backend {
	case BackendCPU:
	case BackendAccelerated:
		return nil, grid.ConfigErrorf("backend %s is not available in this build", backend)
	default:
		return nil, grid.ConfigErrorf("no execution backend selected")
	}
	return &Solver{kernel: g, g: g, sub: sub, CheckEvery: 250}, nil
}

// Step advances the simulation by one main-grid time step. The interleaving
// is fixed: the magnetic half update precedes the second sub-cycle phase, the
// electric A half update precedes the first, and the dispersive B correction
// closes the iteration.
func (s *Solver) Step(iteration int) error {
	hasSub := s.sub != nil && !s.sub.Empty()

	s.kernel.StoreOutputs()
	s.kernel.StoreSnapshot(iteration)
	if hasSub {
		s.sub.StoreSnapshots(iteration)
	}

	s.kernel.UpdateMagnetic()
	s.kernel.ApplyPMLMagnetic()
	s.kernel.InjectMagneticSources()
	if hasSub {
		s.sub.HSG2()
	}

	s.kernel.UpdateElectricA()
	s.kernel.ApplyPMLElectric()
	s.kernel.InjectElectricSources()
	if hasSub {
		s.sub.HSG1()
	}
	s.kernel.UpdateElectricB()

	if s.CheckEvery > 0 && iteration > 0 && iteration%s.CheckEvery == 0 {
		if s.g != nil {
			if err := s.g.CheckFinite(iteration); err != nil {
				return err
			}
		}
		if hasSub {
			if err := s.sub.CheckFinite(iteration); err != nil {
				return err
			}
		}
	}
	return nil
}

// Solve runs the loop for the requested number of iterations and returns the
// wall-clock time spent stepping.
func (s *Solver) Solve(iterations int) (time.Duration, error) {
	start := time.Now()
	for it := 0; it < iterations; it++ {
		if err := s.Step(it); err != nil {
			return time.Since(start), err
		}
		if s.LogEvery > 0 && (it+1)%s.LogEvery == 0 {
			fmt.Printf("iteration %d/%d, elapsed %v\n", it+1, iterations, time.Since(start).Round(time.Millisecond))
		}
	}
	return time.Since(start), nil
}
