package nurbs

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuadOrientation(t *testing.T) {
	base := [4]int{10, 11, 12, 13}
	assert.Equal(t, 0, quadOrientation(base, [4]int{10, 11, 12, 13}))
	assert.Equal(t, 1, quadOrientation(base, [4]int{10, 13, 12, 11}))
	assert.Equal(t, 2, quadOrientation(base, [4]int{13, 10, 11, 12}))
	assert.Equal(t, 3, quadOrientation(base, [4]int{11, 10, 13, 12}))
	assert.Equal(t, 4, quadOrientation(base, [4]int{12, 13, 10, 11}))
	assert.Equal(t, 5, quadOrientation(base, [4]int{12, 11, 10, 13}))
	assert.Equal(t, 6, quadOrientation(base, [4]int{11, 12, 13, 10}))
	assert.Equal(t, 7, quadOrientation(base, [4]int{13, 12, 11, 10}))
}

func TestPatchTopology2D(t *testing.T) {
	// two quads sharing the edge (1,2)
	elems := [][]int{{0, 1, 2, 3}, {1, 4, 5, 2}}
	bdr := [][]int{{0, 1}, {1, 4}, {4, 5}, {2, 5}, {3, 2}, {0, 3}}
	e2k := map[[2]int]int{
		{0, 1}: 0, {1, 2}: 1, {3, 2}: 0, {0, 3}: 1,
		{1, 4}: 0, {4, 5}: 1, {2, 5}: 0,
	}
	topo := NewPatchTopology(2, 6, elems, bdr, nil, nil, e2k)

	assert.Equal(t, 6, topo.GetNV())
	assert.Equal(t, 7, topo.GetNEdges())
	assert.Equal(t, 2, topo.GetNE())
	assert.Equal(t, 6, topo.GetNBE())
	assert.Equal(t, 1, topo.GetAttribute(0))

	// first patch: edges in creation order, edge 3 (3,0) runs against
	// vertex order
	edges, oedge := topo.GetElementEdges(0)
	assert.Equal(t, []int{0, 1, 2, 3}, edges)
	assert.Equal(t, []int{1, 1, 1, -1}, oedge)

	// shared edge (1,2) appears in both patches
	edges1, oedge1 := topo.GetElementEdges(1)
	assert.Equal(t, 1, edges1[3])
	assert.Equal(t, -1, oedge1[3])

	// signed knot indices: assignment (3,2)->0 is stored reversed
	assert.Equal(t, 0, topo.KnotInd(0))
	assert.Equal(t, 1, topo.KnotInd(1))
	assert.Equal(t, -1, topo.KnotInd(2))

	// boundary segments resolve to element edges with direction
	bedges, boedge := topo.GetBdrElementEdges(4) // (3,2)
	assert.Equal(t, 2, bedges[0])
	assert.Equal(t, -1, boedge[0])

	ev := topo.GetEdgeVertices(2)
	assert.Equal(t, [2]int{2, 3}, ev)
}

func TestPatchTopology3D(t *testing.T) {
	elems := [][]int{{0, 1, 2, 3, 4, 5, 6, 7}}
	bdr := [][]int{
		{0, 1, 2, 3}, {4, 5, 6, 7}, {0, 1, 5, 4},
		{1, 2, 6, 5}, {3, 2, 6, 7}, {0, 3, 7, 4},
	}
	e2k := map[[2]int]int{
		{0, 1}: 0, {3, 2}: 0, {4, 5}: 0, {7, 6}: 0,
		{1, 2}: 1, {0, 3}: 1, {5, 6}: 1, {4, 7}: 1,
		{0, 4}: 2, {1, 5}: 2, {2, 6}: 2, {3, 7}: 2,
	}
	topo := NewPatchTopology(3, 8, elems, bdr, []int{7}, nil, e2k)

	assert.Equal(t, 8, topo.GetNV())
	assert.Equal(t, 12, topo.GetNEdges())
	assert.Equal(t, 6, topo.GetNFaces())
	assert.Equal(t, 1, topo.GetNE())
	assert.Equal(t, 6, topo.GetNBE())
	assert.Equal(t, 7, topo.GetAttribute(0))

	edges, oedge := topo.GetElementEdges(0)
	assert.Equal(t, 12, len(edges))
	// edges 2 and 6 run against their sorted vertex pairs
	assert.Equal(t, -1, oedge[2])
	assert.Equal(t, -1, oedge[6])
	assert.Equal(t, 1, oedge[0])

	faces, oface := topo.GetElementFaces(0)
	assert.Equal(t, 6, len(faces))
	for _, o := range oface {
		assert.Equal(t, 0, o) // single element owns every face
	}

	// boundary quads resolve to faces with their rotation
	face, orient := topo.GetBdrElementFace(1) // (4,5,6,7) is stored face order
	fv := topo.GetFaceVertices(face)
	assert.Equal(t, [4]int{4, 5, 6, 7}, fv)
	assert.Equal(t, 0, orient)

	// bottom face was stored as {3,2,1,0}; the boundary lists {0,1,2,3}
	face, orient = topo.GetBdrElementFace(0)
	fv = topo.GetFaceVertices(face)
	assert.Equal(t, [4]int{3, 2, 1, 0}, fv)
	assert.Equal(t, quadOrientation(fv, [4]int{0, 1, 2, 3}), orient)

	fe := topo.GetFaceEdges(face)
	for _, fedge := range fe {
		verts := topo.GetEdgeVertices(fedge)
		assert.True(t, verts[0] < 4 && verts[1] < 4)
	}
}

func TestTopologyIO(t *testing.T) {
	elems := [][]int{{0, 1, 2, 3}, {1, 4, 5, 2}}
	bdr := [][]int{{0, 1}, {1, 4}, {4, 5}, {2, 5}, {3, 2}, {0, 3}}
	e2k := map[[2]int]int{
		{0, 1}: 0, {1, 2}: 1, {3, 2}: 0, {0, 3}: 1,
		{1, 4}: 0, {4, 5}: 1, {2, 5}: 0,
	}
	topo := NewPatchTopology(2, 6, elems, bdr, nil, nil, e2k)

	var buf bytes.Buffer
	topo.PrintTopo(&buf)

	loaded := LoadPatchTopo(newTokenReader(strings.NewReader(buf.String())))
	assert.Equal(t, topo.GetNV(), loaded.GetNV())
	assert.Equal(t, topo.GetNEdges(), loaded.GetNEdges())
	assert.Equal(t, topo.GetNE(), loaded.GetNE())
	assert.Equal(t, topo.GetNBE(), loaded.GetNBE())
	for i := 0; i < topo.GetNEdges(); i++ {
		assert.Equal(t, topo.KnotInd(i), loaded.KnotInd(i))
		assert.Equal(t, topo.GetEdgeVertices(i), loaded.GetEdgeVertices(i))
	}
	for i := 0; i < topo.GetNE(); i++ {
		assert.Equal(t, topo.GetElementVertices(i), loaded.GetElementVertices(i))
	}
}
