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

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print the entity counts and knot vectors of a mesh file",
	Long:  `Print the entity counts and knot vectors of a mesh file`,
	Run: func(cmd *cobra.Command, args []string) {
		meshFile, err := cmd.Flags().GetString("meshFile")
		if err != nil {
			panic(err)
		}
		if len(meshFile) == 0 {
			fmt.Println("error: must supply a mesh file (-F, --meshFile)")
			os.Exit(1)
		}
		ext := readMesh(meshFile)
		ext.PrintCharacteristics(os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
	infoCmd.Flags().StringP("meshFile", "F", "", "NURBS mesh file to read")
}

func readMesh(meshFile string) *nurbs.Extension {
	f, err := os.Open(meshFile)
	if err != nil {
		panic(err)
	}
	defer f.Close()
	return nurbs.ReadExtension(f)
}
