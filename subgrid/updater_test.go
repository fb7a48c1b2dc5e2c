package subgrid

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/emtools/gofdtd/grid"
)

type fakeKernel struct{ log *[]string }

func (f *fakeKernel) StoreOutputs() { *f.log = append(*f.log, "StoreOutputs") }
func (f *fakeKernel) StoreSnapshot(step int) { *f.log = append(*f.log, "StoreSnapshot") }
func (f *fakeKernel) UpdateElectricA() { *f.log = append(*f.log, "UpdateElectricA") }
func (f *fakeKernel) UpdateElectricB() { *f.log = append(*f.log, "UpdateElectricB") }
func (f *fakeKernel) UpdateMagnetic() { *f.log = append(*f.log, "UpdateMagnetic") }
func (f *fakeKernel) ApplyPMLElectric() { *f.log = append(*f.log, "ApplyPMLElectric") }
func (f *fakeKernel) ApplyPMLMagnetic() { *f.log = append(*f.log, "ApplyPMLMagnetic") }
func (f *fakeKernel) InjectElectricSources() { *f.log = append(*f.log, "InjectElectricSources") }
func (f *fakeKernel) InjectMagneticSources() { *f.log = append(*f.log, "InjectMagneticSources") }

type fakeExchanger struct{ log *[]string }

func (f *fakeExchanger) UpdateElectricIS(p *Precursors) { *f.log = append(*f.log, "ElectricIS") }
func (f *fakeExchanger) UpdateMagneticIS(p *Precursors) { *f.log = append(*f.log, "MagneticIS") }
func (f *fakeExchanger) UpdateElectricOS(main *grid.Grid) { *f.log = append(*f.log, "ElectricOS") }
func (f *fakeExchanger) UpdateMagneticOS(main *grid.Grid) { *f.log = append(*f.log, "MagneticOS") }

type fakePrecursors struct {
	log  *[]string
	bufs Precursors
}

func (f *fakePrecursors) UpdateElectric() { *f.log = append(*f.log, "PreUpdateE") }
func (f *fakePrecursors) UpdateMagnetic() { *f.log = append(*f.log, "PreUpdateH") }
func (f *fakePrecursors) InterpolateElectricInTime(step int) {
	*f.log = append(*f.log, fmt.Sprintf("PreInterpE(%d)", step))
}
func (f *fakePrecursors) InterpolateMagneticInTime(step int) {
	*f.log = append(*f.log, fmt.Sprintf("PreInterpH(%d)", step))
}
func (f *fakePrecursors) CalcExactElectricInTime() { *f.log = append(*f.log, "PreExactE") }
func (f *fakePrecursors) CalcExactMagneticInTime() { *f.log = append(*f.log, "PreExactH") }
func (f *fakePrecursors) Buffers() *Precursors     { return &f.bufs }

// The sub-cycle interleaving is load-bearing: each fine update must see
// precursors interpolated to its own time level, and the OS feedback happens
// exactly once, after the final sub-step.
func TestHSG1Ordering(t *testing.T) {
	var log []string
	u := &Updater{
		kernel: &fakeKernel{&log},
		ex:     &fakeExchanger{&log},
		pre:    &fakePrecursors{log: &log},
		upperM: 1, // ratio 3
	}
	u.HSG1()

	want := []string{
		"PreUpdateE",
		// sub-step 1
		"StoreOutputs", "UpdateElectricA", "ApplyPMLElectric",
		"PreInterpH(2)", "ElectricIS", "InjectElectricSources", "UpdateElectricB",
		"UpdateMagnetic", "ApplyPMLMagnetic",
		"PreInterpE(1)", "MagneticIS", "InjectMagneticSources",
		// final sub-step coincides with the main grid time level
		"StoreOutputs", "UpdateElectricA", "ApplyPMLElectric",
		"PreExactH", "ElectricIS", "InjectElectricSources", "UpdateElectricB",
		"ElectricOS",
	}
	assert.Equal(t, want, log)
}

func TestHSG2Ordering(t *testing.T) {
	var log []string
	u := &Updater{
		kernel: &fakeKernel{&log},
		ex:     &fakeExchanger{&log},
		pre:    &fakePrecursors{log: &log},
		upperM: 1,
	}
	u.HSG2()

	want := []string{
		"PreUpdateH",
		// sub-step 1
		"UpdateMagnetic", "ApplyPMLMagnetic",
		"PreInterpE(2)", "MagneticIS", "InjectMagneticSources",
		"StoreOutputs", "UpdateElectricA", "ApplyPMLElectric",
		"PreInterpH(1)", "ElectricIS", "InjectElectricSources", "UpdateElectricB",
		// final magnetic sub-step
		"UpdateMagnetic", "ApplyPMLMagnetic",
		"PreExactE", "MagneticIS", "InjectMagneticSources",
		"MagneticOS",
	}
	assert.Equal(t, want, log)
}

// At ratio 5 one main step spends five fine steps split across the two
// phases. Count kernel calls rather than scripting the whole sequence.
func TestSubStepCounts(t *testing.T) {
	var log []string
	u := &Updater{
		kernel: &fakeKernel{&log},
		ex:     &fakeExchanger{&log},
		pre:    &fakePrecursors{log: &log},
		upperM: 2, // ratio 5
	}
	u.HSG2()
	u.HSG1()

	counts := map[string]int{}
	for _, c := range log {
		counts[c]++
	}
	// One full main step = ratio electric sub-steps and ratio magnetic ones
	assert.Equal(t, 5, counts["UpdateElectricA"])
	assert.Equal(t, 5, counts["UpdateElectricB"])
	assert.Equal(t, 5, counts["UpdateMagnetic"])
	assert.Equal(t, 5, counts["ElectricIS"])
	assert.Equal(t, 5, counts["MagneticIS"])
	assert.Equal(t, 1, counts["ElectricOS"])
	assert.Equal(t, 1, counts["MagneticOS"])
	assert.Equal(t, 1, counts["PreExactE"])
	assert.Equal(t, 1, counts["PreExactH"])
}

func TestUpdatesFanOut(t *testing.T) {
	main := testMain()
	sg, err := NewSubGridHSG(main, testParams())
	assert.NoError(t, err)
	u, err := NewUpdater(main, sg)
	assert.NoError(t, err)

	assert.True(t, NewUpdates(false).Empty())
	var nilUpdates *Updates
	assert.True(t, nilUpdates.Empty())

	s := NewUpdates(true, u)
	assert.False(t, s.Empty())
	// Parallel path with real grids: zero fields stay zero
	s.HSG2()
	s.HSG1()
	assert.NoError(t, s.CheckFinite(1))
	assert.Equal(t, 0.0, maxAbs(sg.Ex))
}
