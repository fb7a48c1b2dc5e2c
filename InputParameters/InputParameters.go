package InputParameters

import (
	"fmt"

	"github.com/ghodss/yaml"

	"github.com/emtools/gofdtd/grid"
)

// Parameters obtained from the YAML input file
type SimulationParameters struct {
	Title          string     `yaml:"Title"`
	Cells          [3]int     `yaml:"Cells"`          // main grid size in cells
	Discretisation [3]float64 `yaml:"Discretisation"` // dx, dy, dz in metres
	Iterations     int        `yaml:"Iterations"`
	Backend        string     `yaml:"Backend"`      // cpu (default) or accelerated
	PMLThickness   int        `yaml:"PMLThickness"` // main-grid absorber cells; 0 means PEC walls
	CheckEvery     int        `yaml:"CheckEvery"`   // divergence-scan interval, 0 takes the default
	LogEvery       int        `yaml:"LogEvery"`

	Materials []MaterialSpec `yaml:"Materials"`
	Boxes     []BoxSpec      `yaml:"Boxes"`
	Sources   []SourceSpec   `yaml:"Sources"`
	Receivers []ReceiverSpec `yaml:"Receivers"`
	SubGrids  []SubGridSpec  `yaml:"SubGrids"`

	// ParallelSubGrids runs independent subgrids concurrently.
	ParallelSubGrids bool `yaml:"ParallelSubGrids"`
}

// MaterialSpec names a material; zero relative permittivity/permeability
// default to 1 (free space). DeltaEr and Tau add a single Debye pole.
type MaterialSpec struct {
	Name    string  `yaml:"Name"`
	Er      float64 `yaml:"Er"`
	Sigma   float64 `yaml:"Sigma"`
	Mr      float64 `yaml:"Mr"`
	SigmaM  float64 `yaml:"SigmaM"`
	DeltaEr float64 `yaml:"DeltaEr"`
	Tau     float64 `yaml:"Tau"`
}

// BoxSpec fills a cell box with a named material. Grid "" targets the main
// grid; otherwise the subgrid with that ID, in fine cells.
type BoxSpec struct {
	Material string `yaml:"Material"`
	Grid     string `yaml:"Grid"`
	Lower    [3]int `yaml:"Lower"`
	Upper    [3]int `yaml:"Upper"`
}

// SourceSpec places a dipole source. Type is hertzian or magnetic.
type SourceSpec struct {
	Type         string        `yaml:"Type"`
	Grid         string        `yaml:"Grid"`
	Polarisation string        `yaml:"Polarisation"`
	Position     [3]int        `yaml:"Position"`
	DL           float64       `yaml:"DL"`
	Waveform     grid.Waveform `yaml:"Waveform"`
}

// ReceiverSpec records all six components at a node every iteration.
type ReceiverSpec struct {
	Name     string `yaml:"Name"`
	Grid     string `yaml:"Grid"`
	Position [3]int `yaml:"Position"`
}

// SubGridSpec embeds a fine grid over a main-grid cell box. The absorber
// sizing is in fine cells; zero takes the defaults and negative disables.
type SubGridSpec struct {
	ID            string `yaml:"ID"`
	Ratio         int    `yaml:"Ratio"`
	IsOsSep       int    `yaml:"IsOsSep"` // 0 takes the default of 3
	Lower         [3]int `yaml:"Lower"`
	Upper         [3]int `yaml:"Upper"`
	Filter        bool   `yaml:"Filter"`
	PMLSeparation int    `yaml:"PMLSeparation"`
	PMLThickness  int    `yaml:"PMLThickness"`
}

func (sp *SimulationParameters) Parse(data []byte) error {
	if err := yaml.Unmarshal(data, sp); err != nil {
		return err
	}
	return sp.Validate()
}

// Validate rejects decks the model builder could only fail on later. Geometry
// that needs the constructed grids (box bounds, subgrid shells, overlap) is
// checked at build time.
func (sp *SimulationParameters) Validate() error {
	if sp.Iterations <= 0 {
		return grid.ConfigErrorf("Iterations must be positive, got %d", sp.Iterations)
	}
	for a := 0; a < 3; a++ {
		if sp.Cells[a] <= 0 {
			return grid.ConfigErrorf("Cells must be positive, got %v", sp.Cells)
		}
		if sp.Discretisation[a] <= 0 {
			return grid.ConfigErrorf("Discretisation must be positive, got %v", sp.Discretisation)
		}
	}
	if sp.PMLThickness < 0 {
		return grid.ConfigErrorf("PMLThickness must be >= 0, got %d", sp.PMLThickness)
	}
	seen := make(map[string]bool, len(sp.Materials))
	for _, m := range sp.Materials {
		if m.Name == "" {
			return grid.ConfigErrorf("material with empty name")
		}
		if seen[m.Name] {
			return grid.ConfigErrorf("duplicate material %q", m.Name)
		}
		seen[m.Name] = true
	}
	for _, s := range sp.Sources {
		if s.Type != "hertzian" && s.Type != "magnetic" {
			return grid.ConfigErrorf("source type %q (want hertzian or magnetic)", s.Type)
		}
		if !grid.ValidWaveform(s.Waveform.Type) {
			return grid.ConfigErrorf("unrecognised waveform type %q", s.Waveform.Type)
		}
		if s.Waveform.Frequency <= 0 {
			return grid.ConfigErrorf("waveform frequency must be positive, got %g", s.Waveform.Frequency)
		}
	}
	ids := make(map[string]bool, len(sp.SubGrids))
	for _, sg := range sp.SubGrids {
		if sg.ID == "" {
			return grid.ConfigErrorf("subgrid with empty ID")
		}
		if ids[sg.ID] {
			return grid.ConfigErrorf("duplicate subgrid ID %q", sg.ID)
		}
		ids[sg.ID] = true
		if sg.Ratio < 3 || sg.Ratio%2 == 0 {
			return grid.ConfigErrorf("subgrid [%s] Ratio must be an odd integer >= 3, got %d", sg.ID, sg.Ratio)
		}
	}
	return nil
}

func (sp *SimulationParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", sp.Title)
	fmt.Printf("%v\t= Cells\n", sp.Cells)
	fmt.Printf("%v\t= Discretisation\n", sp.Discretisation)
	fmt.Printf("[%d]\t\t\t= Iterations\n", sp.Iterations)
	fmt.Printf("[%s]\t\t\t= Backend\n", sp.Backend)
	fmt.Printf("[%d]\t\t\t= PML Thickness\n", sp.PMLThickness)
	for _, m := range sp.Materials {
		fmt.Printf("Material[%s] = %+v\n", m.Name, m)
	}
	for _, sg := range sp.SubGrids {
		fmt.Printf("SubGrid[%s] = 1:%d over %v..%v\n", sg.ID, sg.Ratio, sg.Lower, sg.Upper)
	}
}
