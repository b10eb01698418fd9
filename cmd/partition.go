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
	"os"

	"github.com/notargets/goiga/nurbs"
	"github.com/spf13/cobra"
)

// partitionCmd represents the partition command
var partitionCmd = &cobra.Command{
	Use:   "partition",
	Short: "Partition the elements of a NURBS mesh for parallel runs",
	Long:  `Partition the elements of a NURBS mesh for parallel runs`,
	Run: func(cmd *cobra.Command, args []string) {
		meshFile, err := cmd.Flags().GetString("meshFile")
		if err != nil {
			panic(err)
		}
		if len(meshFile) == 0 {
			fmt.Println("error: must supply a mesh file (-F, --meshFile)")
			os.Exit(1)
		}
		nparts, _ := cmd.Flags().GetInt("nparts")
		objective, _ := cmd.Flags().GetString("objective")

		ext := readMesh(meshFile)

		config := nurbs.DefaultPartitionConfig(int32(nparts))
		config.Objective = objective
		part, err := nurbs.PartitionElements(ext, config)
		if err != nil {
			panic(err)
		}

		reportPartition(ext, part, nparts)
	},
}

func init() {
	rootCmd.AddCommand(partitionCmd)
	partitionCmd.Flags().StringP("meshFile", "F", "", "NURBS mesh file to read")
	partitionCmd.Flags().IntP("nparts", "n", 2, "number of partitions")
	partitionCmd.Flags().StringP("objective", "O", "vol", "METIS objective, \"cut\" or \"vol\"")
}

func reportPartition(ext *nurbs.Extension, part []int, nparts int) {
	elems := make([]int, nparts)
	for _, p := range part {
		elems[p]++
	}

	// count dofs per rank and the dofs shared between ranks
	elDof := ext.GetElementDofTable()
	dofRanks := make([]map[int]bool, ext.GetNDof())
	for el := 0; el < elDof.Size(); el++ {
		for _, d := range elDof.GetRow(el) {
			if dofRanks[d] == nil {
				dofRanks[d] = make(map[int]bool)
			}
			dofRanks[d][part[el]] = true
		}
	}
	shared := 0
	dofs := make([]int, nparts)
	for _, ranks := range dofRanks {
		for r := range ranks {
			dofs[r]++
		}
		if len(ranks) > 1 {
			shared++
		}
	}

	fmt.Printf("Partitioned %d elements into %d parts\n", ext.GetNE(), nparts)
	for r := 0; r < nparts; r++ {
		fmt.Printf("  rank %d: %d elements, %d dofs\n", r, elems[r], dofs[r])
	}
	fmt.Printf("  shared dofs: %d of %d\n", shared, ext.GetNDof())

	for i, p := range part {
		fmt.Printf("%d %d\n", i, p)
	}
}
