/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"io/ioutil"
	"os"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	ip "github.com/emtools/gofdtd/InputParameters"
	"github.com/emtools/gofdtd/solver"
)

type ModelRun struct {
	InputFile string
	Profile   bool
}

// RunCmd represents the run command
var RunCmd = &cobra.Command{
	Use:   "run",
	Short: "Runs a simulation described by a YAML input deck",
	Long:  `Runs a simulation described by a YAML input deck`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			err error
		)
		fmt.Println("run called")
		mr := &ModelRun{}
		if mr.InputFile, err = cmd.Flags().GetString("inputFile"); err != nil {
			panic(err)
		}
		mr.Profile, _ = cmd.Flags().GetBool("profile")
		sp := processInput(mr)
		RunModel(mr, sp)
	},
}

func processInput(mr *ModelRun) (sp *ip.SimulationParameters) {
	var (
		err error
	)
	if len(mr.InputFile) == 0 {
		err := fmt.Errorf("must supply an input deck (-I, --inputFile) in YAML format")
		fmt.Printf("error: %s\n", err.Error())
		exampleFile := `
########################################
Title: "Test Case"
Cells: [100, 100, 100]
Discretisation: [1.e-3, 1.e-3, 1.e-3]
Iterations: 500
PMLThickness: 6
Sources:
  - Type: hertzian
    Polarisation: Ez
    Position: [50, 50, 50]
    Waveform: {Type: ricker, Amplitude: 1, Frequency: 9.e+8}
Receivers:
  - {Name: rx1, Position: [70, 50, 50]}
SubGrids:
  - ID: sg
    Ratio: 5
    Lower: [40, 40, 40]
    Upper: [60, 60, 60]
########################################
`
		fmt.Printf("Example File:%s\n", exampleFile)
		os.Exit(1)
	}
	var data []byte
	if data, err = ioutil.ReadFile(mr.InputFile); err != nil {
		panic(err)
	}
	sp = &ip.SimulationParameters{}
	if err = sp.Parse(data); err != nil {
		fmt.Printf("error: %s\n", err.Error())
		os.Exit(1)
	}
	return
}

func init() {
	rootCmd.AddCommand(RunCmd)
	RunCmd.Flags().StringP("inputFile", "I", "", "YAML input deck describing grid, materials, sources and subgrids")
	RunCmd.Flags().BoolP("profile", "p", false, "generate a runtime profile of the solver")
}

func RunModel(mr *ModelRun, sp *ip.SimulationParameters) {
	sp.Print()
	m, err := solver.BuildModel(sp)
	if err != nil {
		fmt.Printf("error: %s\n", err.Error())
		os.Exit(1)
	}
	m.PrintInfo()
	s, err := m.NewSolver()
	if err != nil {
		fmt.Printf("error: %s\n", err.Error())
		os.Exit(1)
	}
	if mr.Profile {
		defer profile.Start().Stop()
	}
	elapsed, err := s.Solve(m.Iterations)
	if err != nil {
		fmt.Printf("error: %s\n", err.Error())
		os.Exit(1)
	}
	fmt.Printf("solve completed in %v\n", elapsed)
	for _, r := range m.G.Receivers {
		fmt.Printf("receiver [%s]: %d samples stored\n", r.Name, len(r.Data["Ez"]))
	}
}
