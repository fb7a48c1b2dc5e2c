package grid

// Receiver records the six field components at one node over time.
type Receiver struct {
	Name    string
	I, J, K int
	Data    map[string][]float64
}

func (g *Grid) AddReceiver(r *Receiver) error {
	if r.I < 0 || r.I > g.Nx || r.J < 0 || r.J > g.Ny || r.K < 0 || r.K > g.Nz {
		return ConfigErrorf("receiver [%s] at [%d %d %d] outside grid [%s]", r.Name, r.I, r.J, r.K, g.Name)
	}
	if r.Data == nil {
		r.Data = make(map[string][]float64, int(NumComponents))
	}
	g.Receivers = append(g.Receivers, r)
	return nil
}

// StoreOutputs appends the current field values at every receiver.
func (g *Grid) StoreOutputs() {
	for _, r := range g.Receivers {
		idx := g.Idx(r.I, r.J, r.K)
		for c := CompEx; c < NumComponents; c++ {
			r.Data[c.String()] = append(r.Data[c.String()], g.Field(c)[idx])
		}
	}
}

// StoreSnapshot hands the grid to the registered snapshot sink, if any.
func (g *Grid) StoreSnapshot(step int) {
	if g.SnapshotFunc != nil {
		g.SnapshotFunc(step, g)
	}
}
