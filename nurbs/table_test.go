package nurbs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTable(t *testing.T) {
	tbl := NewTableFromRows([][]int{{0, 1, 2}, {2, 3}, {3}})
	assert.Equal(t, 3, tbl.Size())
	assert.Equal(t, 6, tbl.NumConnections())
	assert.Equal(t, 2, tbl.RowSize(1))
	assert.Equal(t, []int{2, 3}, tbl.GetRow(1))

	// rows of a fixed-width table are writable in place
	fixed := NewTable(2, 3)
	row := fixed.GetRow(1)
	row[0], row[1], row[2] = 4, 5, 6
	assert.Equal(t, []int{4, 5, 6}, fixed.GetRow(1))

	// transpose inverts the incidence
	tr := tbl.Transpose(4)
	assert.Equal(t, 4, tr.Size())
	assert.Equal(t, []int{0}, tr.GetRow(0))
	assert.Equal(t, []int{0}, tr.GetRow(1))
	assert.Equal(t, []int{0, 1}, tr.GetRow(2))
	assert.Equal(t, []int{1, 2}, tr.GetRow(3))

	// transposing twice restores the original incidence
	back := tr.Transpose(3)
	assert.Equal(t, tbl.NumConnections(), back.NumConnections())
	assert.Equal(t, []int{0, 1, 2}, back.GetRow(0))
}
