package InputParameters

import (
	"fmt"
	"sort"

	"github.com/ghodss/yaml"
)

// Parameters obtained from the YAML input file
type RefinementParameters struct {
	Title            string               `yaml:"Title"`
	MeshFile         string               `yaml:"MeshFile"`
	OutputFile       string               `yaml:"OutputFile"`
	PolynomialOrder  int                  `yaml:"PolynomialOrder"`
	RefinementLevels int                  `yaml:"RefinementLevels"`
	KnotInserts      map[string][]float64 `yaml:"KnotInserts"` // Key is the knot vector number
	NumPartitions    int                  `yaml:"NumPartitions"`
	ImbalanceFactor  float64              `yaml:"ImbalanceFactor"`
	Objective        string               `yaml:"Objective"`
	PrintStats       bool                 `yaml:"PrintStats"`
}

func (rp *RefinementParameters) Parse(data []byte) error {
	if err := yaml.Unmarshal(data, rp); err != nil {
		return err
	}
	if rp.ImbalanceFactor == 0 {
		rp.ImbalanceFactor = 1.05
	}
	if rp.Objective == "" {
		rp.Objective = "vol"
	}
	return nil
}

func (rp *RefinementParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", rp.Title)
	fmt.Printf("[%s]\t\t= MeshFile\n", rp.MeshFile)
	fmt.Printf("[%d]\t\t\t\t= Polynomial Order\n", rp.PolynomialOrder)
	fmt.Printf("[%d]\t\t\t\t= Refinement Levels\n", rp.RefinementLevels)
	fmt.Printf("[%d]\t\t\t\t= Num Partitions\n", rp.NumPartitions)
	keys := make([]string, len(rp.KnotInserts))
	i := 0
	for k := range rp.KnotInserts {
		keys[i] = k
		i++
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("KnotInserts[%s] = %v\n", key, rp.KnotInserts[key])
	}
}
