package nurbs

import (
	"fmt"
	"io"
)

// Table is a ragged array of integer connections, rows packed back to back
// with an offsets index.
type Table struct {
	offsets     []int
	connections []int
}

// NewTable allocates a table of nrows rows of equal rowSize.
func NewTable(nrows, rowSize int) (t *Table) {
	t = &Table{
		offsets:     make([]int, nrows+1),
		connections: make([]int, nrows*rowSize),
	}
	for i := 0; i <= nrows; i++ {
		t.offsets[i] = i * rowSize
	}
	return
}

// NewTableFromRows packs the given rows; the row slices are copied.
func NewTableFromRows(rows [][]int) (t *Table) {
	t = &Table{offsets: make([]int, len(rows)+1)}
	for i, r := range rows {
		t.offsets[i+1] = t.offsets[i] + len(r)
	}
	t.connections = make([]int, t.offsets[len(rows)])
	for i, r := range rows {
		copy(t.connections[t.offsets[i]:t.offsets[i+1]], r)
	}
	return
}

func (t *Table) Size() int           { return len(t.offsets) - 1 }
func (t *Table) NumConnections() int { return len(t.connections) }
func (t *Table) RowSize(i int) int   { return t.offsets[i+1] - t.offsets[i] }

// GetRow returns row i as a live sub slice.
func (t *Table) GetRow(i int) []int {
	return t.connections[t.offsets[i]:t.offsets[i+1]]
}

// Transpose returns the reversed mapping: connection value j holds every row
// index that contains j. Values must lie in [0, ncols).
func (t *Table) Transpose(ncols int) (tr *Table) {
	tr = &Table{offsets: make([]int, ncols+1)}
	for _, j := range t.connections {
		if j < 0 || j >= ncols {
			panic(fmt.Errorf("Table.Transpose: connection %d out of range [0,%d)", j, ncols))
		}
		tr.offsets[j+1]++
	}
	for j := 0; j < ncols; j++ {
		tr.offsets[j+1] += tr.offsets[j]
	}
	tr.connections = make([]int, len(t.connections))
	pos := make([]int, ncols)
	for i := 0; i < t.Size(); i++ {
		for _, j := range t.GetRow(i) {
			tr.connections[tr.offsets[j]+pos[j]] = i
			pos[j]++
		}
	}
	return
}

func (t *Table) Print(w io.Writer) {
	for i := 0; i < t.Size(); i++ {
		for _, j := range t.GetRow(i) {
			fmt.Fprintf(w, " %d", j)
		}
		fmt.Fprintln(w)
	}
}
