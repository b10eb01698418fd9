package utils

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

type Matrix struct {
	M *mat.Dense
}

func NewMatrix(nr, nc int, dataO ...[]float64) (R Matrix) {
	var m *mat.Dense
	if len(dataO) != 0 {
		if len(dataO[0]) != nr*nc {
			err := fmt.Errorf("mismatch in allocation: NewMatrix nr,nc = %v,%v, len(data[0]) = %v\n", nr, nc, len(dataO[0]))
			panic(err)
		}
		m = mat.NewDense(nr, nc, dataO[0])
	} else {
		m = mat.NewDense(nr, nc, make([]float64, nr*nc))
	}
	R = Matrix{m}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m Matrix) Dims() (r, c int)    { return m.M.Dims() }
func (m Matrix) At(i, j int) float64 { return m.M.At(i, j) }
func (m Matrix) T() mat.Matrix       { return m.M.T() }

func (m Matrix) DataP() []float64 { return m.M.RawMatrix().Data }

func (m Matrix) Set(i, j int, val float64) Matrix {
	m.M.Set(i, j, val)
	return m
}

func (m Matrix) Row(i int) []float64 { return m.M.RawRowView(i) }

func (m Matrix) Scale(a float64) Matrix {
	m.M.Scale(a, m.M)
	return m
}

// MulVec3 applies the 3x3 matrix m to the first three entries at x, writing
// the result to the first three entries at y. Used for batched point
// transforms over raw control point storage.
func (m Matrix) MulVec3(x, y []float64) {
	var (
		data = m.DataP()
	)
	for i := 0; i < 3; i++ {
		y[i] = data[3*i]*x[0] + data[3*i+1]*x[1] + data[3*i+2]*x[2]
	}
}
