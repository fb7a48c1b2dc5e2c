package grid

import "math"

// Waveform is the time signature driving a source.
type Waveform struct {
	Type      string  `yaml:"Type"`
	Amplitude float64 `yaml:"Amplitude"`
	Frequency float64 `yaml:"Frequency"`
}

// Value evaluates the waveform at time t.
func (w Waveform) Value(t float64) float64 {
	var (
		zeta  = 2 * math.Pi * math.Pi * w.Frequency * w.Frequency
		delay = 1.0 / w.Frequency
		x     = t - delay
	)
	switch w.Type {
	case "gaussian":
		return w.Amplitude * math.Exp(-zeta*x*x)
	case "gaussiandot":
		return -w.Amplitude * 2 * zeta * x * math.Exp(-zeta*x*x)
	case "ricker":
		return -w.Amplitude * (2*zeta*x*x - 1) * math.Exp(-zeta*x*x)
	case "sine":
		return w.Amplitude * math.Sin(2*math.Pi*w.Frequency*t)
	case "contsine":
		ramp := 0.25 * w.Frequency * t
		if ramp > 1 {
			ramp = 1
		}
		return w.Amplitude * ramp * math.Sin(2*math.Pi*w.Frequency*t)
	}
	return 0
}

func ValidWaveform(typ string) bool {
	switch typ {
	case "gaussian", "gaussiandot", "ricker", "sine", "contsine":
		return true
	}
	return false
}

// HertzianDipole is a current source on a single electric field node.
type HertzianDipole struct {
	Polarisation Component
	I, J, K      int
	DL           float64 // dipole length; defaults to the cell size along the polarisation
	W            Waveform
}

// MagneticDipole is the dual source on a single magnetic field node.
type MagneticDipole struct {
	Polarisation Component
	I, J, K      int
	W            Waveform
}

// AddHertzianDipole attaches a source, defaulting DL to the cell size.
func (g *Grid) AddHertzianDipole(s *HertzianDipole) error {
	if !s.Polarisation.IsElectric() {
		return ConfigErrorf("hertzian dipole polarisation %s is not an electric component", s.Polarisation)
	}
	if s.I < 0 || s.I > g.Nx || s.J < 0 || s.J > g.Ny || s.K < 0 || s.K > g.Nz {
		return ConfigErrorf("hertzian dipole at [%d %d %d] outside grid [%s]", s.I, s.J, s.K, g.Name)
	}
	if s.DL == 0 {
		switch s.Polarisation {
		case CompEx:
			s.DL = g.Dx
		case CompEy:
			s.DL = g.Dy
		default:
			s.DL = g.Dz
		}
	}
	g.Sources = append(g.Sources, s)
	return nil
}

func (g *Grid) AddMagneticDipole(s *MagneticDipole) error {
	if s.Polarisation.IsElectric() {
		return ConfigErrorf("magnetic dipole polarisation %s is not a magnetic component", s.Polarisation)
	}
	if s.I < 0 || s.I > g.Nx || s.J < 0 || s.J > g.Ny || s.K < 0 || s.K > g.Nz {
		return ConfigErrorf("magnetic dipole at [%d %d %d] outside grid [%s]", s.I, s.J, s.K, g.Name)
	}
	g.MSources = append(g.MSources, s)
	return nil
}

// InjectElectricSources applies all electric sources for the current source
// iteration of this grid. Each call advances the electric source clock by
// one grid time step.
func (g *Grid) InjectElectricSources() {
	t := float64(g.eSourceIter) * g.Dt
	g.eSourceIter++
	if len(g.Sources) == 0 {
		return
	}
	cE := g.CoeffsE.DataP()
	nodes := g.nodes()
	for _, s := range g.Sources {
		idx := g.Idx(s.I, s.J, s.K)
		m := 5 * int(g.ID[int(s.Polarisation)*nodes+idx])
		g.Field(s.Polarisation)[idx] -= cE[m+4] * s.W.Value(t) * s.DL
	}
}

// InjectMagneticSources applies all magnetic sources at the half-step time.
func (g *Grid) InjectMagneticSources() {
	t := (float64(g.hSourceIter) + 0.5) * g.Dt
	g.hSourceIter++
	if len(g.MSources) == 0 {
		return
	}
	cH := g.CoeffsH.DataP()
	nodes := g.nodes()
	for _, s := range g.MSources {
		idx := g.Idx(s.I, s.J, s.K)
		m := 5 * int(g.ID[int(s.Polarisation)*nodes+idx])
		g.Field(s.Polarisation)[idx] -= cH[m+4] * s.W.Value(t) * g.Dx * g.Dy * g.Dz
	}
}
