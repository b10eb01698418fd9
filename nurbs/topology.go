package nurbs

import (
	"fmt"
	"io"
)

// Local vertex numbering of the reference quadrilateral and hexahedron, and
// the derived edge and face tables. Edge vertices are ordered so that
// parallel edge bundles of the hexahedron run in the same parametric
// direction; edges 0-3 follow axis 0 and 1, 4-7 repeat them on the top face,
// 8-11 follow axis 2.
var (
	quadEdgeVerts = [4][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}}

	hexEdgeVerts = [12][2]int{
		{0, 1}, {1, 2}, {3, 2}, {0, 3},
		{4, 5}, {5, 6}, {7, 6}, {4, 7},
		{0, 4}, {1, 5}, {2, 6}, {3, 7},
	}

	hexFaceVerts = [6][4]int{
		{3, 2, 1, 0}, {0, 1, 5, 4}, {1, 2, 6, 5},
		{2, 3, 7, 6}, {3, 0, 4, 7}, {4, 5, 6, 7},
	}
)

// PatchTopology is the coarse inter-patch connectivity: one linear quad or
// hex element per patch, with shared vertices, deduplicated edges and faces,
// and the assignment of a knot vector index to every edge.
type PatchTopology struct {
	Dim int // topological dimension, 2 or 3

	NumOfVertices    int
	elemVerts        [][]int
	elemAttr         []int
	bdrVerts         [][]int
	bdrAttr          []int
	edgeVerts        [][2]int // vertex pairs, low index first
	faceVerts        [][4]int // vertex order of the first element that touched the face
	edgeToKnotSigned []int

	elemEdges, elemOEdges [][]int
	elemFaces, elemOFaces [][]int
	bdrEdges, bdrOEdges   [][]int
	bdrFace, bdrOFace     []int
}

func (t *PatchTopology) GetNV() int      { return t.NumOfVertices }
func (t *PatchTopology) GetNEdges() int  { return len(t.edgeVerts) }
func (t *PatchTopology) GetNFaces() int  { return len(t.faceVerts) }
func (t *PatchTopology) GetNE() int      { return len(t.elemVerts) }
func (t *PatchTopology) GetNBE() int     { return len(t.bdrVerts) }

func (t *PatchTopology) GetElementVertices(i int) []int { return t.elemVerts[i] }
func (t *PatchTopology) GetAttribute(i int) int         { return t.elemAttr[i] }
func (t *PatchTopology) GetBdrElementVertices(i int) []int {
	return t.bdrVerts[i]
}
func (t *PatchTopology) GetBdrAttribute(i int) int { return t.bdrAttr[i] }

// GetElementEdges returns the global edge indices of element i and, per
// edge, +1 when the element traverses the edge from its low vertex to its
// high vertex and -1 otherwise.
func (t *PatchTopology) GetElementEdges(i int) (edges, oedge []int) {
	return t.elemEdges[i], t.elemOEdges[i]
}

// GetElementFaces returns the global face indices of element i and the
// orientation of each local face relative to the stored face.
func (t *PatchTopology) GetElementFaces(i int) (faces, oface []int) {
	return t.elemFaces[i], t.elemOFaces[i]
}

func (t *PatchTopology) GetBdrElementEdges(i int) (edges, oedge []int) {
	return t.bdrEdges[i], t.bdrOEdges[i]
}

// GetBdrElementFace returns the face carrying boundary element i and the
// orientation of the boundary element relative to the stored face.
func (t *PatchTopology) GetBdrElementFace(i int) (face, orient int) {
	return t.bdrFace[i], t.bdrOFace[i]
}

func (t *PatchTopology) GetEdgeVertices(i int) [2]int { return t.edgeVerts[i] }
func (t *PatchTopology) GetFaceVertices(i int) [4]int { return t.faceVerts[i] }

// GetFaceEdges returns the four edge indices bounding face f in the stored
// vertex order.
func (t *PatchTopology) GetFaceEdges(f int) (edges [4]int) {
	index := t.edgeIndexMap()
	fv := t.faceVerts[f]
	for le := 0; le < 4; le++ {
		a, b := fv[quadEdgeVerts[le][0]], fv[quadEdgeVerts[le][1]]
		edges[le] = index[edgeKey(a, b)]
	}
	return
}

// KnotInd returns the knot vector index attached to the given edge; negative
// return values encode index -1-KnotInd for edges running against the knot
// vector direction.
func (t *PatchTopology) KnotInd(edge int) int { return t.edgeToKnotSigned[edge] }

func edgeKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

func faceKey(v []int) (key [4]int) {
	copy(key[:], v)
	// insertion sort, four entries
	for i := 1; i < 4; i++ {
		for j := i; j > 0 && key[j-1] > key[j]; j-- {
			key[j-1], key[j] = key[j], key[j-1]
		}
	}
	return
}

// quadOrientation encodes how test is rotated/reflected relative to base:
// 2*i when base[0] appears at test position i and both run the same way
// around, 2*i+1 for the reflected traversal.
func quadOrientation(base, test [4]int) int {
	for i := 0; i < 4; i++ {
		if test[i] == base[0] {
			if test[(i+1)%4] == base[1] {
				return 2 * i
			}
			return 2*i + 1
		}
	}
	panic(fmt.Errorf("quadOrientation: face vertex sets differ: %v vs %v", base, test))
}

func (t *PatchTopology) edgeIndexMap() map[[2]int]int {
	index := make(map[[2]int]int, len(t.edgeVerts))
	for i, ev := range t.edgeVerts {
		index[edgeKey(ev[0], ev[1])] = i
	}
	return index
}

// finalize derives the edge, face and boundary tables from the element
// vertex lists.
func (t *PatchTopology) finalize() {
	edgeIndex := make(map[[2]int]int)
	faceIndex := make(map[[4]int]int)

	addEdge := func(a, b int) (id, ori int) {
		key := edgeKey(a, b)
		id, ok := edgeIndex[key]
		if !ok {
			id = len(t.edgeVerts)
			edgeIndex[key] = id
			t.edgeVerts = append(t.edgeVerts, key)
		}
		if a < b {
			return id, 1
		}
		return id, -1
	}

	ne := len(t.elemVerts)
	t.elemEdges = make([][]int, ne)
	t.elemOEdges = make([][]int, ne)
	if t.Dim == 3 {
		t.elemFaces = make([][]int, ne)
		t.elemOFaces = make([][]int, ne)
	}

	for i, ev := range t.elemVerts {
		if t.Dim == 2 {
			t.elemEdges[i] = make([]int, 4)
			t.elemOEdges[i] = make([]int, 4)
			for le := 0; le < 4; le++ {
				a, b := ev[quadEdgeVerts[le][0]], ev[quadEdgeVerts[le][1]]
				t.elemEdges[i][le], t.elemOEdges[i][le] = addEdge(a, b)
			}
			continue
		}

		t.elemEdges[i] = make([]int, 12)
		t.elemOEdges[i] = make([]int, 12)
		for le := 0; le < 12; le++ {
			a, b := ev[hexEdgeVerts[le][0]], ev[hexEdgeVerts[le][1]]
			t.elemEdges[i][le], t.elemOEdges[i][le] = addEdge(a, b)
		}

		t.elemFaces[i] = make([]int, 6)
		t.elemOFaces[i] = make([]int, 6)
		for lf := 0; lf < 6; lf++ {
			var local [4]int
			for v := 0; v < 4; v++ {
				local[v] = ev[hexFaceVerts[lf][v]]
			}
			key := faceKey(local[:])
			id, ok := faceIndex[key]
			if !ok {
				id = len(t.faceVerts)
				faceIndex[key] = id
				t.faceVerts = append(t.faceVerts, local)
				t.elemOFaces[i][lf] = 0
			} else {
				t.elemOFaces[i][lf] = quadOrientation(t.faceVerts[id], local)
			}
			t.elemFaces[i][lf] = id
		}
	}

	nbe := len(t.bdrVerts)
	t.bdrEdges = make([][]int, nbe)
	t.bdrOEdges = make([][]int, nbe)
	if t.Dim == 3 {
		t.bdrFace = make([]int, nbe)
		t.bdrOFace = make([]int, nbe)
	}

	for i, bv := range t.bdrVerts {
		if t.Dim == 2 {
			key := edgeKey(bv[0], bv[1])
			id, ok := edgeIndex[key]
			if !ok {
				panic(fmt.Errorf("PatchTopology: boundary segment %v is not an element edge", bv))
			}
			ori := 1
			if bv[0] > bv[1] {
				ori = -1
			}
			t.bdrEdges[i] = []int{id}
			t.bdrOEdges[i] = []int{ori}
			continue
		}

		t.bdrEdges[i] = make([]int, 4)
		t.bdrOEdges[i] = make([]int, 4)
		for le := 0; le < 4; le++ {
			a, b := bv[quadEdgeVerts[le][0]], bv[quadEdgeVerts[le][1]]
			key := edgeKey(a, b)
			id, ok := edgeIndex[key]
			if !ok {
				panic(fmt.Errorf("PatchTopology: boundary quad %v edge (%d,%d) is not an element edge", bv, a, b))
			}
			ori := 1
			if a > b {
				ori = -1
			}
			t.bdrEdges[i][le] = id
			t.bdrOEdges[i][le] = ori
		}

		var local [4]int
		copy(local[:], bv)
		id, ok := faceIndex[faceKey(local[:])]
		if !ok {
			panic(fmt.Errorf("PatchTopology: boundary quad %v is not an element face", bv))
		}
		t.bdrFace[i] = id
		t.bdrOFace[i] = quadOrientation(t.faceVerts[id], local)
	}
}

// NewPatchTopology builds a topology from explicit element and boundary
// vertex lists. edgeToKnot assigns a knot vector index to each vertex pair;
// the sign convention of KnotInd applies.
func NewPatchTopology(dim, nv int, elems, bdr [][]int, elemAttr, bdrAttr []int,
	edgeToKnot map[[2]int]int) (t *PatchTopology) {
	t = &PatchTopology{
		Dim:           dim,
		NumOfVertices: nv,
		elemVerts:     elems,
		elemAttr:      elemAttr,
		bdrVerts:      bdr,
		bdrAttr:       bdrAttr,
	}
	if t.elemAttr == nil {
		t.elemAttr = make([]int, len(elems))
		for i := range t.elemAttr {
			t.elemAttr[i] = 1
		}
	}
	if t.bdrAttr == nil {
		t.bdrAttr = make([]int, len(bdr))
		for i := range t.bdrAttr {
			t.bdrAttr[i] = 1
		}
	}
	t.finalize()

	t.edgeToKnotSigned = make([]int, len(t.edgeVerts))
	for i := range t.edgeToKnotSigned {
		t.edgeToKnotSigned[i] = -1 - i // placeholder, overwritten below
	}
	assigned := make([]bool, len(t.edgeVerts))
	index := t.edgeIndexMap()
	for pair, kvi := range edgeToKnot {
		id, ok := index[edgeKey(pair[0], pair[1])]
		if !ok {
			panic(fmt.Errorf("NewPatchTopology: edge (%d,%d) not present in topology", pair[0], pair[1]))
		}
		if pair[0] > pair[1] {
			t.edgeToKnotSigned[id] = -1 - kvi
		} else {
			t.edgeToKnotSigned[id] = kvi
		}
		assigned[id] = true
	}
	for id, ok := range assigned {
		if !ok {
			panic(fmt.Errorf("NewPatchTopology: no knot vector assigned to edge %d %v", id, t.edgeVerts[id]))
		}
	}
	return
}

// LoadPatchTopo reads the topology section of a mesh stream.
func LoadPatchTopo(tr *tokenReader) (t *PatchTopology) {
	header := tr.readString()
	var dim int
	switch header {
	case "patchtopo_2D":
		dim = 2
	case "patchtopo_3D":
		dim = 3
	default:
		panic(fmt.Errorf("LoadPatchTopo: unknown header %q", header))
	}

	tr.expect("vertices")
	nv := tr.readInt()

	nev := 4
	if dim == 3 {
		nev = 8
	}
	tr.expect("elements")
	ne := tr.readInt()
	elems := make([][]int, ne)
	elemAttr := make([]int, ne)
	for i := 0; i < ne; i++ {
		elemAttr[i] = tr.readInt()
		elems[i] = make([]int, nev)
		for v := range elems[i] {
			elems[i][v] = tr.readInt()
		}
	}

	nbv := 2
	if dim == 3 {
		nbv = 4
	}
	tr.expect("boundary")
	nb := tr.readInt()
	bdr := make([][]int, nb)
	bdrAttr := make([]int, nb)
	for i := 0; i < nb; i++ {
		bdrAttr[i] = tr.readInt()
		bdr[i] = make([]int, nbv)
		for v := range bdr[i] {
			bdr[i][v] = tr.readInt()
		}
	}

	tr.expect("edge_to_knot")
	nedge := tr.readInt()
	e2k := make(map[[2]int]int, nedge)
	for i := 0; i < nedge; i++ {
		kvi := tr.readInt()
		v0 := tr.readInt()
		v1 := tr.readInt()
		if kvi < 0 {
			kvi = -1 - kvi
			v0, v1 = v1, v0
		}
		e2k[[2]int{v0, v1}] = kvi
	}

	return NewPatchTopology(dim, nv, elems, bdr, elemAttr, bdrAttr, e2k)
}

// PrintTopo writes the topology section in the format read by LoadPatchTopo.
func (t *PatchTopology) PrintTopo(w io.Writer) {
	fmt.Fprintf(w, "patchtopo_%dD\n", t.Dim)
	fmt.Fprintf(w, "vertices\n%d\n", t.NumOfVertices)

	fmt.Fprintf(w, "elements\n%d\n", len(t.elemVerts))
	for i, ev := range t.elemVerts {
		fmt.Fprintf(w, "%d", t.elemAttr[i])
		for _, v := range ev {
			fmt.Fprintf(w, " %d", v)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "boundary\n%d\n", len(t.bdrVerts))
	for i, bv := range t.bdrVerts {
		fmt.Fprintf(w, "%d", t.bdrAttr[i])
		for _, v := range bv {
			fmt.Fprintf(w, " %d", v)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "edge_to_knot\n%d\n", len(t.edgeVerts))
	for i, ev := range t.edgeVerts {
		kvi := t.edgeToKnotSigned[i]
		v0, v1 := ev[0], ev[1]
		if kvi < 0 {
			kvi = -1 - kvi
			v0, v1 = v1, v0
		}
		fmt.Fprintf(w, "%d %d %d\n", kvi, v0, v1)
	}
}
