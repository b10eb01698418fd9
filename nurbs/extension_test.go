package nurbs

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/notargets/goiga/utils"
)

// single patch on the unit square, biquadratic
const squareMesh = `
patchtopo_2D
vertices
4
elements
1
1 0 1 2 3
boundary
4
1 0 1
1 1 2
1 3 2
1 0 3
edge_to_knot
4
0 0 1
1 1 2
0 3 2
1 0 3

knotvectors
2
2 3 0 0 0 1 1 1
2 3 0 0 0 1 1 1

unitweights
`

// two patches sharing the edge (1,2)
const twoPatchMesh = `
patchtopo_2D
vertices
6
elements
2
1 0 1 2 3
2 1 4 5 2
boundary
6
1 0 1
1 1 4
1 4 5
1 2 5
1 3 2
1 0 3
edge_to_knot
7
0 0 1
1 1 2
0 3 2
1 0 3
0 1 4
1 4 5
0 2 5

knotvectors
2
2 3 0 0 0 1 1 1
2 3 0 0 0 1 1 1

unitweights
`

// single patch on the unit cube, triquadratic
const cubeMesh = `
patchtopo_3D
vertices
8
elements
1
1 0 1 2 3 4 5 6 7
boundary
6
1 0 1 2 3
1 4 5 6 7
1 0 1 5 4
1 1 2 6 5
1 3 2 6 7
1 0 3 7 4
edge_to_knot
12
0 0 1
1 1 2
0 3 2
1 0 3
0 4 5
1 5 6
0 7 6
1 4 7
2 0 4
2 1 5
2 2 6
2 3 7

knotvectors
3
2 3 0 0 0 1 1 1
2 3 0 0 0 1 1 1
2 3 0 0 0 1 1 1

unitweights
`

// two elements along x, only the first one active
const activeMesh = `
patchtopo_2D
vertices
4
elements
1
1 0 1 2 3
boundary
4
1 0 1
1 1 2
1 3 2
1 0 3
edge_to_knot
4
0 0 1
1 1 2
0 3 2
1 0 3

knotvectors
2
1 3 0 0 0.5 1 1
1 2 0 0 1 1

mesh_elements
1
0

unitweights
`

// patches form of the unit square, bilinear
const squarePatchesMesh = `
patchtopo_2D
vertices
4
elements
1
1 0 1 2 3
boundary
4
1 0 1
1 1 2
1 3 2
1 0 3
edge_to_knot
4
0 0 1
1 1 2
0 3 2
1 0 3

patches

knotvectors
2
1 2 0 0 1 1
1 2 0 0 1 1

dimension
2

controlpoints_cartesian
0 0 1
1 0 1
0 1 1
1 1 1
`

func readMeshString(s string) *Extension {
	return ReadExtension(strings.NewReader(s))
}

func sortedRow(tbl *Table, i int) []int {
	row := append([]int(nil), tbl.GetRow(i)...)
	sort.Ints(row)
	return row
}

func intersect(a, b []int) (c []int) {
	in := make(map[int]bool, len(a))
	for _, v := range a {
		in[v] = true
	}
	for _, v := range b {
		if in[v] {
			c = append(c, v)
		}
	}
	sort.Ints(c)
	return
}

func TestExtensionSquare(t *testing.T) {
	e := readMeshString(squareMesh)

	assert.Equal(t, 2, e.Dimension())
	assert.Equal(t, 2, e.GetOrder())
	assert.Equal(t, 2, e.GetNKV())
	assert.Equal(t, 1, e.GetNP())
	assert.Equal(t, 4, e.GetNBP())
	assert.Equal(t, 4, e.GetGNV())
	assert.Equal(t, 1, e.GetGNE())
	assert.Equal(t, 4, e.GetGNBE())
	assert.Equal(t, 9, e.GetNTotalDof())
	assert.Equal(t, 4, e.GetNV())
	assert.Equal(t, 1, e.GetNE())
	assert.Equal(t, 4, e.GetNBE())
	assert.Equal(t, 9, e.GetNDof())

	assert.NotPanics(t, func() { e.CheckBdrPatches() })

	// one element holding the full biquadratic dof set
	elDof := e.GetElementDofTable()
	assert.Equal(t, 1, elDof.Size())
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8}, sortedRow(elDof, 0))

	// boundary rows: two corner dofs plus the edge interior dof
	belDof := e.GetBdrElementDofTable()
	assert.Equal(t, 4, belDof.Size())
	assert.Equal(t, []int{0, 1, 4}, sortedRow(belDof, 0))
	assert.Equal(t, []int{1, 2, 5}, sortedRow(belDof, 1))
	assert.Equal(t, []int{2, 3, 6}, sortedRow(belDof, 2))
	assert.Equal(t, []int{0, 3, 7}, sortedRow(belDof, 3))

	w := e.GetWeights()
	assert.Equal(t, 9, w.Len())
	assert.True(t, near(w.Min(), 1.))
	assert.True(t, near(w.Max(), 1.))

	elems := e.GetElementTopo()
	assert.Equal(t, 1, len(elems))
	verts := append([]int(nil), elems[0].Verts...)
	sort.Ints(verts)
	assert.Equal(t, []int{0, 1, 2, 3}, verts)
	assert.Equal(t, 1, elems[0].Attr)

	bdr := e.GetBdrElementTopo()
	assert.Equal(t, 4, len(bdr))
	assert.Equal(t, 2, len(bdr[0].Verts))

	p, ijk := e.GetElementPatch(0)
	assert.Equal(t, 0, p)
	assert.Equal(t, []int{0, 0}, ijk)

	// every dof couples with every other on a single element
	pattern := DofSparsityPattern(e)
	r, c := pattern.Dims()
	assert.Equal(t, 9, r)
	assert.Equal(t, 9, c)
	assert.True(t, pattern.At(0, 8) != 0)

	var buf bytes.Buffer
	e.PrintCharacteristics(&buf)
	fmt.Printf("%s", buf.String())
	assert.True(t, strings.Contains(buf.String(), "NumOfActiveDofs     = 9"))
}

func TestExtensionTwoPatch(t *testing.T) {
	e := readMeshString(twoPatchMesh)

	assert.Equal(t, 2, e.GetNP())
	assert.Equal(t, 2, e.GetGNE())
	assert.Equal(t, 6, e.GetGNBE())
	assert.Equal(t, 15, e.GetNTotalDof())
	assert.Equal(t, 15, e.GetNDof())

	// the patches share the three dofs of the interface edge:
	// its two vertices and its interior dof
	elDof := e.GetElementDofTable()
	shared := intersect(elDof.GetRow(0), elDof.GetRow(1))
	assert.Equal(t, []int{1, 2, 7}, shared)

	p0, _ := e.GetElementPatch(0)
	p1, _ := e.GetElementPatch(1)
	assert.Equal(t, 0, p0)
	assert.Equal(t, 1, p1)

	// dofs of disjoint patches do not couple, interface dofs do
	pattern := DofSparsityPattern(e)
	assert.True(t, pattern.At(0, 4) == 0)
	assert.True(t, pattern.At(1, 4) != 0)
	assert.True(t, pattern.At(7, 7) != 0)

	// the interface edge and the patch interiors are not on the boundary
	marker := BdrDofMarker(e)
	nmarked := 0
	for _, m := range marker {
		nmarked += m
	}
	assert.Equal(t, 12, nmarked)
	assert.Equal(t, 0, marker[7])
	assert.Equal(t, 0, marker[13])
	assert.Equal(t, 0, marker[14])
	assert.Equal(t, 1, marker[0])
}

func TestExtensionImplicitWeights(t *testing.T) {
	// the weight block is optional, absence means unit weights
	trunc := squareMesh[:strings.Index(squareMesh, "unitweights")]
	e := readMeshString(trunc)

	assert.Equal(t, 9, e.GetNDof())
	w := e.GetWeights()
	assert.Equal(t, 9, w.Len())
	assert.True(t, near(w.Min(), 1.))
	assert.True(t, near(w.Max(), 1.))
}

func TestCheckPatchesRejectsMismatch(t *testing.T) {
	// the patches disagree on the direction of the interface edge (1,2)
	bad := strings.Replace(twoPatchMesh, "0 0 1\n1 1 2", "0 0 1\n1 2 1", 1)
	assert.NotEqual(t, twoPatchMesh, bad)
	assert.Panics(t, func() { readMeshString(bad) })

	// opposite patch edges referencing inconsistent knot directions
	bad = strings.Replace(squareMesh, "1 1 2\n0 3 2", "1 1 2\n0 2 3", 1)
	assert.NotEqual(t, squareMesh, bad)
	assert.Panics(t, func() { readMeshString(bad) })
}

func TestExtensionCube(t *testing.T) {
	e := readMeshString(cubeMesh)

	assert.Equal(t, 3, e.Dimension())
	assert.Equal(t, 3, e.GetNKV())
	assert.Equal(t, 6, e.GetNBP())
	assert.Equal(t, 8, e.GetGNV())
	assert.Equal(t, 1, e.GetGNE())
	assert.Equal(t, 6, e.GetGNBE())
	assert.Equal(t, 27, e.GetNTotalDof())
	assert.Equal(t, 27, e.GetNDof())

	assert.NotPanics(t, func() { e.CheckBdrPatches() })

	elDof := e.GetElementDofTable()
	assert.Equal(t, 1, elDof.Size())
	row := sortedRow(elDof, 0)
	for i := 0; i < 27; i++ {
		assert.Equal(t, i, row[i])
	}

	// boundary faces carry the 3x3 dof net of their face: four vertices,
	// four edge interiors and the face interior
	belDof := e.GetBdrElementDofTable()
	assert.Equal(t, 6, belDof.Size())
	assert.Equal(t, []int{0, 1, 2, 3, 8, 9, 10, 11, 20}, sortedRow(belDof, 0))
	assert.Equal(t, []int{4, 5, 6, 7, 12, 13, 14, 15, 25}, sortedRow(belDof, 1))

	elems := e.GetElementTopo()
	assert.Equal(t, 8, len(elems[0].Verts))
}

func TestExtensionActiveSubset(t *testing.T) {
	e := readMeshString(activeMesh)

	assert.Equal(t, 1, e.GetOrder())
	assert.Equal(t, 2, e.GetGNE())
	assert.Equal(t, 1, e.GetNE())
	assert.Equal(t, 6, e.GetGNV())
	assert.Equal(t, 4, e.GetNV())
	assert.Equal(t, 6, e.GetNTotalDof())
	assert.Equal(t, 4, e.GetNDof())
	assert.Equal(t, 6, e.GetGNBE())
	// boundary elements stay inactive on a partially active mesh
	assert.Equal(t, 0, e.GetNBE())

	elDof := e.GetElementDofTable()
	assert.Equal(t, 1, elDof.Size())
	assert.Equal(t, []int{0, 1, 2, 3}, sortedRow(elDof, 0))

	assert.Equal(t, []int{0, 3, 4, 5}, e.GetVertexLocalToGlobal())
	assert.Equal(t, []int{0}, e.GetElementLocalToGlobal())

	assert.Equal(t, 4, e.GetWeights().Len())
}

func TestRaisedOrderExtension(t *testing.T) {
	e := readMeshString(squareMesh)
	ne := NewRaisedOrderExtension(e, 3)

	assert.Equal(t, 3, ne.GetOrder())
	assert.Equal(t, 16, ne.GetNTotalDof())
	assert.Equal(t, 16, ne.GetNDof())
	assert.Equal(t, 1, ne.GetGNE())
	assert.Equal(t, 4, ne.GetNBE())

	elDof := ne.GetElementDofTable()
	assert.Equal(t, 16, elDof.RowSize(0))
	row := sortedRow(elDof, 0)
	for i := range row {
		assert.Equal(t, i, row[i])
	}
}

func TestMergedExtension(t *testing.T) {
	e := readMeshString(squareMesh)
	merged := NewMergedExtension([]*Extension{e})

	assert.Equal(t, 9, merged.GetNDof())
	assert.Equal(t, 1, merged.GetNE())
	w := merged.GetWeights()
	assert.True(t, near(w.Min(), 1.))
	assert.True(t, near(w.Max(), 1.))
}

func TestExtensionPatchPipeline(t *testing.T) {
	e := readMeshString(squarePatchesMesh)
	assert.True(t, e.HasPatches())
	assert.Equal(t, 1, e.GetOrder())
	assert.Equal(t, 4, e.GetNTotalDof())

	// the weights live in the patches until SetCoordsFromPatches runs
	assert.Panics(t, func() { e.Print(&bytes.Buffer{}) })

	e.DegreeElevate(1)
	e.SetKnotsFromPatches()
	assert.Equal(t, 2, e.GetOrder())
	assert.Equal(t, 9, e.GetNTotalDof())
	assert.Equal(t, 1, e.GetGNE())

	e.UniformRefinement()
	e.SetKnotsFromPatches()
	assert.Equal(t, 4, e.GetGNE())
	assert.Equal(t, 8, e.GetGNBE())
	assert.Equal(t, 16, e.GetNTotalDof())

	nodes := utils.NewVector(e.GetNDof() * e.Dimension())
	e.SetCoordsFromPatches(nodes)
	assert.False(t, e.HasPatches())

	// refinement left the unit square geometry and weights untouched
	nd := nodes.DataP()
	for _, v := range nd {
		assert.True(t, v > -1.e-12 && v < 1.+1.e-12)
	}
	assert.True(t, near(nd[0], 0.) && near(nd[1], 0.))
	assert.True(t, near(nd[2], 1.) && near(nd[3], 0.))
	assert.True(t, near(nd[4], 1.) && near(nd[5], 1.))
	assert.True(t, near(nd[6], 0.) && near(nd[7], 1.))

	w := e.GetWeights()
	assert.Equal(t, 16, w.Len())
	assert.True(t, near(w.Min(), 1.))
	assert.True(t, near(w.Max(), 1.))
}

func TestExtensionKnotInsert(t *testing.T) {
	e := readMeshString(squarePatchesMesh)

	target := []*KnotVector{
		NewKnotVectorFromKnots(1, []float64{0, 0, 0.25, 1, 1}),
		NewKnotVectorFromKnots(1, []float64{0, 0, 1, 1}),
	}
	e.KnotInsert(target)
	e.SetKnotsFromPatches()

	assert.Equal(t, 2, e.GetGNE())
	assert.Equal(t, 6, e.GetNTotalDof())
	assert.True(t, near(e.GetKnotVector(0).Knot(2), 0.25))
}

func TestExtensionIO(t *testing.T) {
	e := readMeshString(twoPatchMesh)

	var buf bytes.Buffer
	e.Print(&buf)
	fmt.Printf("%s", buf.String())

	ne := ReadExtension(strings.NewReader(buf.String()))
	assert.Equal(t, e.GetNP(), ne.GetNP())
	assert.Equal(t, e.GetGNE(), ne.GetGNE())
	assert.Equal(t, e.GetGNBE(), ne.GetGNBE())
	assert.Equal(t, e.GetNDof(), ne.GetNDof())
	assert.Equal(t, e.GetNKV(), ne.GetNKV())
	assert.Equal(t, sortedRow(e.GetElementDofTable(), 1),
		sortedRow(ne.GetElementDofTable(), 1))
}
