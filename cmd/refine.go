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
	"sort"
	"strconv"

	"github.com/notargets/goiga/InputParameters"
	"github.com/notargets/goiga/nurbs"
	"github.com/notargets/goiga/utils"
	"github.com/spf13/cobra"
)

type RefineJob struct {
	MeshFile   string
	ParamsFile string
	OutputFile string
}

// refineCmd represents the refine command
var refineCmd = &cobra.Command{
	Use:   "refine",
	Short: "Refine a NURBS mesh by knot insertion, degree elevation and uniform refinement",
	Long:  `Refine a NURBS mesh by knot insertion, degree elevation and uniform refinement`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			err error
		)
		fmt.Println("refine called")
		job := &RefineJob{}
		if job.MeshFile, err = cmd.Flags().GetString("meshFile"); err != nil {
			panic(err)
		}
		if job.ParamsFile, err = cmd.Flags().GetString("inputParametersFile"); err != nil {
			panic(err)
		}
		job.OutputFile, _ = cmd.Flags().GetString("outputFile")
		rp := processRefineInput(job)
		RunRefine(job, rp)
	},
}

func processRefineInput(job *RefineJob) (rp *InputParameters.RefinementParameters) {
	var (
		err      error
		willExit bool
	)
	if len(job.MeshFile) == 0 {
		err := fmt.Errorf("must supply a mesh file (-F, --meshFile) in patches form")
		fmt.Printf("error: %s\n", err.Error())
		willExit = true
	}
	if len(job.ParamsFile) == 0 {
		err := fmt.Errorf("must supply an input parameters file (-I, --inputParametersFile)")
		fmt.Printf("error: %s\n", err.Error())
		exampleFile := `
########################################
Title: "Refinement Case"
PolynomialOrder: 3
RefinementLevels: 2
KnotInserts:
  "0": [0.25, 0.75]
########################################
`
		fmt.Printf("Example File:%s\n", exampleFile)
		willExit = true
	}
	if willExit {
		os.Exit(1)
	}
	var data []byte
	if data, err = ioutil.ReadFile(job.ParamsFile); err != nil {
		panic(err)
	}
	rp = &InputParameters.RefinementParameters{}
	if err = rp.Parse(data); err != nil {
		panic(err)
	}
	return
}

func init() {
	rootCmd.AddCommand(refineCmd)
	refineCmd.Flags().StringP("meshFile", "F", "", "NURBS mesh file to read, must carry patches")
	refineCmd.Flags().StringP("inputParametersFile", "I", "", "YAML file for refinement parameters like:\n\t- PolynomialOrder\n\t- RefinementLevels\n\t- KnotInserts")
	refineCmd.Flags().StringP("outputFile", "o", "", "file to write the refined mesh to (default stdout)")
}

func RunRefine(job *RefineJob, rp *InputParameters.RefinementParameters) {
	ext := readMesh(job.MeshFile)
	if !ext.HasPatches() {
		fmt.Println("error: mesh file does not carry patches, geometry is not refinable")
		os.Exit(1)
	}
	rp.Print()

	if rp.PolynomialOrder > ext.GetOrder() {
		ext.DegreeElevate(rp.PolynomialOrder - ext.GetOrder())
		// sync the shared knot vectors so the insertion targets pick up
		// the elevated order
		ext.SetKnotsFromPatches()
	}

	if len(rp.KnotInserts) > 0 {
		ext.KnotInsert(targetKnotVectors(ext, rp.KnotInserts))
	}

	for l := 0; l < rp.RefinementLevels; l++ {
		ext.UniformRefinement()
	}

	ext.SetKnotsFromPatches()

	coords := utils.NewVector(ext.GetNDof() * ext.Dimension())
	ext.SetCoordsFromPatches(coords)

	w := os.Stdout
	if len(job.OutputFile) != 0 {
		f, err := os.Create(job.OutputFile)
		if err != nil {
			panic(err)
		}
		defer f.Close()
		w = f
	}
	ext.Print(w)

	ext.PrintCharacteristics(os.Stderr)
}

// targetKnotVectors merges the requested knot values into copies of the
// current knot vectors, one target per knot vector index.
func targetKnotVectors(ext *nurbs.Extension, inserts map[string][]float64) (kvs []*nurbs.KnotVector) {
	kvs = make([]*nurbs.KnotVector, ext.GetNKV())
	for i := range kvs {
		kvs[i] = ext.GetKnotVector(i).Copy()
	}
	for key, values := range inserts {
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || i >= len(kvs) {
			panic(fmt.Errorf("KnotInserts: bad knot vector index %q", key))
		}
		old := kvs[i]
		merged := make([]float64, 0, old.Size()+len(values))
		for j := 0; j < old.Size(); j++ {
			merged = append(merged, old.Knot(j))
		}
		merged = append(merged, values...)
		sort.Float64s(merged)
		kvs[i] = nurbs.NewKnotVectorFromKnots(old.GetOrder(), merged)
	}
	return
}
