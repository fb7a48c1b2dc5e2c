package subgrid

import (
	"sync"

	"github.com/emtools/gofdtd/grid"
)

// Kernel is the per-grid update contract the sub-cycle orchestrator drives.
// *grid.Grid satisfies it; tests substitute recording fakes.
type Kernel interface {
	StoreOutputs()
	StoreSnapshot(step int)
	UpdateElectricA()
	UpdateElectricB()
	UpdateMagnetic()
	ApplyPMLElectric()
	ApplyPMLMagnetic()
	InjectElectricSources()
	InjectMagneticSources()
}

// Exchanger applies the IS/OS boundary corrections. *SubGrid satisfies it.
type Exchanger interface {
	UpdateElectricIS(p *Precursors)
	UpdateMagneticIS(p *Precursors)
	UpdateElectricOS(main *grid.Grid)
	UpdateMagneticOS(main *grid.Grid)
}

// Updater runs one subgrid's sub-cycle: Ratio fine steps per main-grid step,
// split into the two phases that interleave with the main grid's magnetic
// and electric half updates.
type Updater struct {
	main   *grid.Grid
	fine   *grid.Grid
	kernel Kernel
	ex     Exchanger
	pre    PrecursorSource
	upperM int
}

// NewUpdater wires a subgrid to its main grid, building the precursor
// variant matching the subgrid kind.
func NewUpdater(main *grid.Grid, sg *SubGrid) (*Updater, error) {
	pre, err := NewPrecursors(main, sg)
	if err != nil {
		return nil, err
	}
	return &Updater{
		main:   main,
		fine:   sg.Grid,
		kernel: sg.Grid,
		ex:     sg,
		pre:    pre,
		upperM: sg.UpperM(),
	}, nil
}

// CheckFinite scans the fine fields for numerical divergence.
func (u *Updater) CheckFinite(iteration int) error {
	if u.fine == nil {
		return nil
	}
	return u.fine.CheckFinite(iteration)
}

// Precursors exposes the buffer state, mainly for inspection in tests.
func (u *Updater) Precursors() PrecursorSource { return u.pre }

// HSG1 advances the fine grid through the first half of the sub-cycle. Call
// after the main grid's electric update; the final act feeds the fine
// magnetic field back into the main grid's electric nodes on the OS.
func (u *Updater) HSG1() {
	u.pre.UpdateElectric()
	for m := 1; m <= u.upperM; m++ {
		u.kernel.StoreOutputs()
		u.kernel.UpdateElectricA()
		u.kernel.ApplyPMLElectric()
		u.pre.InterpolateMagneticInTime(m + u.upperM)
		u.ex.UpdateElectricIS(u.pre.Buffers())
		u.kernel.InjectElectricSources()
		u.kernel.UpdateElectricB()

		u.kernel.UpdateMagnetic()
		u.kernel.ApplyPMLMagnetic()
		u.pre.InterpolateElectricInTime(m)
		u.ex.UpdateMagneticIS(u.pre.Buffers())
		u.kernel.InjectMagneticSources()
	}
	// Final electric sub-step lands on the main grid's time level, so the
	// magnetic precursor is exact rather than interpolated.
	u.kernel.StoreOutputs()
	u.kernel.UpdateElectricA()
	u.kernel.ApplyPMLElectric()
	u.pre.CalcExactMagneticInTime()
	u.ex.UpdateElectricIS(u.pre.Buffers())
	u.kernel.InjectElectricSources()
	u.kernel.UpdateElectricB()

	u.ex.UpdateElectricOS(u.main)
}

// HSG2 is the mirror phase. Call after the main grid's magnetic update; the
// final act feeds fine E back into the main grid's magnetic nodes on the OS.
func (u *Updater) HSG2() {
	u.pre.UpdateMagnetic()
	for m := 1; m <= u.upperM; m++ {
		u.kernel.UpdateMagnetic()
		u.kernel.ApplyPMLMagnetic()
		u.pre.InterpolateElectricInTime(m + u.upperM)
		u.ex.UpdateMagneticIS(u.pre.Buffers())
		u.kernel.InjectMagneticSources()

		u.kernel.StoreOutputs()
		u.kernel.UpdateElectricA()
		u.kernel.ApplyPMLElectric()
		u.pre.InterpolateMagneticInTime(m)
		u.ex.UpdateElectricIS(u.pre.Buffers())
		u.kernel.InjectElectricSources()
		u.kernel.UpdateElectricB()
	}
	u.kernel.UpdateMagnetic()
	u.kernel.ApplyPMLMagnetic()
	u.pre.CalcExactElectricInTime()
	u.ex.UpdateMagneticIS(u.pre.Buffers())
	u.kernel.InjectMagneticSources()

	u.ex.UpdateMagneticOS(u.main)
}

// StoreSnapshot forwards a snapshot request for the main-grid iteration.
func (u *Updater) StoreSnapshot(step int) { u.kernel.StoreSnapshot(step) }

// Updates fans one sub-cycle phase out over independent subgrids. Each
// subgrid touches only its own fine fields and a disjoint set of main-grid
// OS nodes (overlap is rejected at model build), so the phases run
// concurrently with a barrier at the end.
type Updates struct {
	updaters []*Updater
	parallel bool
}

// NewUpdates aggregates per-subgrid updaters. With parallel set, phases run
// one goroutine per subgrid.
func NewUpdates(parallel bool, us ...*Updater) *Updates {
	return &Updates{updaters: us, parallel: parallel}
}

func (s *Updates) Empty() bool { return s == nil || len(s.updaters) == 0 }

func (s *Updates) each(f func(u *Updater)) {
	if !s.parallel || len(s.updaters) < 2 {
		for _, u := range s.updaters {
			f(u)
		}
		return
	}
	var wg sync.WaitGroup
	for _, u := range s.updaters {
		wg.Add(1)
		go func(u *Updater) {
			defer wg.Done()
			f(u)
		}(u)
	}
	wg.Wait()
}

// HSG1 runs the first sub-cycle phase on every subgrid.
func (s *Updates) HSG1() { s.each(func(u *Updater) { u.HSG1() }) }

// HSG2 runs the second sub-cycle phase on every subgrid.
func (s *Updates) HSG2() { s.each(func(u *Updater) { u.HSG2() }) }

// CheckFinite scans every subgrid for numerical divergence.
func (s *Updates) CheckFinite(iteration int) error {
	for _, u := range s.updaters {
		if err := u.CheckFinite(iteration); err != nil {
			return err
		}
	}
	return nil
}

// StoreSnapshots forwards the main-grid iteration number to every subgrid.
func (s *Updates) StoreSnapshots(step int) {
	for _, u := range s.updaters {
		u.StoreSnapshot(step)
	}
}
