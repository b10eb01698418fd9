package nurbs

import (
	"fmt"
	"io"

	"github.com/notargets/goiga/utils"
)

// Extension carries the full isogeometric discretization on top of a patch
// topology: the knot vectors, the entity offset blocks that define the
// global mesh node and dof numberings, the active entity sets, and the
// element to dof connectivity.
type Extension struct {
	patchTopo *PatchTopology
	ownTopo   bool

	order            int
	numOfKnotVectors int
	knotVectors      []*KnotVector

	patches []*Patch
	weights utils.Vector

	NumOfVertices, NumOfElements, NumOfBdrElements, NumOfDofs                  int
	NumOfActiveVertices, NumOfActiveElems, NumOfActiveBdrElems, NumOfActiveDofs int

	vMeshOffsets, eMeshOffsets, fMeshOffsets, pMeshOffsets     []int
	vSpaceOffsets, eSpaceOffsets, fSpaceOffsets, pSpaceOffsets []int

	activeVert    []int
	activeElem    []bool
	activeBdrElem []bool
	activeDof     []int

	elDof, belDof          *Table
	elToPatch, belToPatch  []int
	elToIJK, belToIJK      [][]int
}

func (e *Extension) Dimension() int { return e.patchTopo.Dim }
func (e *Extension) GetNP() int     { return e.patchTopo.GetNE() }
func (e *Extension) GetNBP() int    { return e.patchTopo.GetNBE() }
func (e *Extension) GetNKV() int    { return e.numOfKnotVectors }
func (e *Extension) GetOrder() int  { return e.order }

func (e *Extension) GetGNV() int       { return e.NumOfVertices }
func (e *Extension) GetNV() int        { return e.NumOfActiveVertices }
func (e *Extension) GetGNE() int       { return e.NumOfElements }
func (e *Extension) GetNE() int        { return e.NumOfActiveElems }
func (e *Extension) GetGNBE() int      { return e.NumOfBdrElements }
func (e *Extension) GetNBE() int       { return e.NumOfActiveBdrElems }
func (e *Extension) GetNTotalDof() int { return e.NumOfDofs }
func (e *Extension) GetNDof() int      { return e.NumOfActiveDofs }

func (e *Extension) GetKnotVector(i int) *KnotVector { return e.knotVectors[i] }
func (e *Extension) GetElementDofTable() *Table      { return e.elDof }
func (e *Extension) GetBdrElementDofTable() *Table   { return e.belDof }
func (e *Extension) GetWeights() utils.Vector        { return e.weights }
func (e *Extension) GetPatchTopo() *PatchTopology    { return e.patchTopo }

// HasPatches reports whether the per patch control nets are present, either
// read from a patches form mesh file or rebuilt by ConvertToPatches.
func (e *Extension) HasPatches() bool { return len(e.patches) != 0 }

// GetPatch returns the control net of patch p; only valid while patches are
// present.
func (e *Extension) GetPatch(p int) *Patch { return e.patches[p] }

// KnotInd decodes the knot vector index attached to an edge, dropping the
// direction sign.
func (e *Extension) KnotInd(edge int) int {
	kv := e.patchTopo.KnotInd(edge)
	if kv >= 0 {
		return kv
	}
	return -1 - kv
}

func (e *Extension) KnotVec(edge int) *KnotVector {
	return e.knotVectors[e.KnotInd(edge)]
}

// KnotVecO resolves the knot vector of an edge together with the traversal
// sign okv, combining the edge direction with the knot vector direction.
func (e *Extension) KnotVecO(edge, oedge int, okv *int) *KnotVector {
	kv := e.patchTopo.KnotInd(edge)
	if kv >= 0 {
		*okv = oedge
		return e.knotVectors[kv]
	}
	*okv = -oedge
	return e.knotVectors[-1-kv]
}

// ReadExtension parses a full mesh stream: topology, then either the shared
// knot vectors or the per patch control nets, an optional active element
// list, and the dof weights.
func ReadExtension(r io.Reader) (e *Extension) {
	tr := newTokenReader(r)

	e = &Extension{ownTopo: true}
	e.patchTopo = LoadPatchTopo(tr)

	e.CheckPatches()

	ident := tr.readString()
	switch ident {
	case "knotvectors":
		e.numOfKnotVectors = tr.readInt()
		e.knotVectors = make([]*KnotVector, e.numOfKnotVectors)
		for i := range e.knotVectors {
			e.knotVectors[i] = ReadKnotVector(tr)
			if e.knotVectors[i].GetOrder() != e.knotVectors[0].GetOrder() {
				panic(fmt.Errorf("ReadExtension: variable orders are not supported"))
			}
		}
		e.order = e.knotVectors[0].GetOrder()
	case "patches":
		e.patches = make([]*Patch, e.GetNP())
		for p := range e.patches {
			e.patches[p] = ReadPatch(tr)
		}

		e.numOfKnotVectors = 0
		for i := 0; i < e.patchTopo.GetNEdges(); i++ {
			if e.numOfKnotVectors < e.KnotInd(i) {
				e.numOfKnotVectors = e.KnotInd(i)
			}
		}
		e.numOfKnotVectors++
		e.knotVectors = make([]*KnotVector, e.numOfKnotVectors)

		for p := range e.patches {
			edges, _ := e.patchTopo.GetElementEdges(p)
			if e.Dimension() == 2 {
				for d, le := range []int{0, 1} {
					if e.knotVectors[e.KnotInd(edges[le])] == nil {
						e.knotVectors[e.KnotInd(edges[le])] = e.patches[p].GetKV(d).Copy()
					}
				}
			} else {
				for d, le := range []int{0, 3, 8} {
					if e.knotVectors[e.KnotInd(edges[le])] == nil {
						e.knotVectors[e.KnotInd(edges[le])] = e.patches[p].GetKV(d).Copy()
					}
				}
			}
		}
		e.order = e.knotVectors[0].GetOrder()
	default:
		panic(fmt.Errorf("ReadExtension: expected knotvectors or patches, got %q", ident))
	}

	e.GenerateOffsets()
	e.CountElements()
	e.CountBdrElements()

	// the trailing mesh_elements and weight blocks are optional; a stream
	// ending after the knot vectors means all elements active, unit weights
	if len(e.patches) == 0 {
		ident, _ = tr.tryReadString()
	}
	if len(e.patches) == 0 && ident == "mesh_elements" {
		e.NumOfActiveElems = tr.readInt()
		e.activeElem = make([]bool, e.GetGNE())
		for i := 0; i < e.NumOfActiveElems; i++ {
			e.activeElem[tr.readInt()] = true
		}
		ident, _ = tr.tryReadString()
	} else {
		e.NumOfActiveElems = e.NumOfElements
		e.activeElem = make([]bool, e.NumOfElements)
		for i := range e.activeElem {
			e.activeElem[i] = true
		}
	}

	e.GenerateActiveVertices()
	e.GenerateElementDofTable()
	e.GenerateActiveBdrElems()
	e.GenerateBdrElementDofTable()

	if len(e.patches) == 0 {
		if ident == "weights" {
			e.weights = utils.NewVector(e.GetNDof())
			wd := e.weights.DataP()
			for i := range wd {
				wd[i] = tr.readFloat()
			}
		} else { // "unitweights" or "autoweights"
			e.weights = utils.NewVectorConst(e.GetNDof(), 1.)
		}
	}
	return
}

// NewRaisedOrderExtension derives an extension of higher order from a
// parent, elevating every knot vector and renumbering the dofs; the mesh
// entities and active sets carry over unchanged.
func NewRaisedOrderExtension(parent *Extension, order int) (e *Extension) {
	e = &Extension{
		order:     order,
		patchTopo: parent.patchTopo,
		ownTopo:   false,
	}

	e.numOfKnotVectors = parent.GetNKV()
	e.knotVectors = make([]*KnotVector, e.numOfKnotVectors)
	for i := range e.knotVectors {
		e.knotVectors[i] = parent.GetKnotVector(i).DegreeElevate(order - parent.GetOrder())
	}

	e.NumOfElements = parent.NumOfElements
	e.NumOfBdrElements = parent.NumOfBdrElements

	e.GenerateOffsets()

	e.NumOfActiveVertices = parent.NumOfActiveVertices
	e.NumOfActiveElems = parent.NumOfActiveElems
	e.NumOfActiveBdrElems = parent.NumOfActiveBdrElems
	e.activeVert = append([]int(nil), parent.activeVert...)
	e.activeElem = append([]bool(nil), parent.activeElem...)
	e.activeBdrElem = append([]bool(nil), parent.activeBdrElem...)

	e.GenerateElementDofTable()
	e.GenerateBdrElementDofTable()

	e.weights = utils.NewVectorConst(e.GetNDof(), 1.)
	return
}

// NewMergedExtension reassembles a serial extension from per piece
// extensions that partition the element set of a shared topology. The first
// piece must own the topology; ownership moves to the merged extension.
func NewMergedExtension(pieces []*Extension) (e *Extension) {
	parent := pieces[0]
	if !parent.ownTopo {
		panic(fmt.Errorf("NewMergedExtension: parent does not own the patch topology"))
	}

	e = &Extension{
		patchTopo: parent.patchTopo,
		ownTopo:   true,
		order:     parent.GetOrder(),
	}
	parent.ownTopo = false

	e.numOfKnotVectors = parent.GetNKV()
	e.knotVectors = make([]*KnotVector, e.numOfKnotVectors)
	for i := range e.knotVectors {
		e.knotVectors[i] = parent.GetKnotVector(i).Copy()
	}

	e.GenerateOffsets()
	e.CountElements()
	e.CountBdrElements()

	e.NumOfActiveElems = e.NumOfElements
	e.activeElem = make([]bool, e.NumOfElements)
	for i := range e.activeElem {
		e.activeElem[i] = true
	}

	e.GenerateActiveVertices()
	e.GenerateElementDofTable()
	e.GenerateActiveBdrElems()
	e.GenerateBdrElementDofTable()

	e.weights = utils.NewVector(e.GetNDof())
	e.MergeWeights(pieces)
	return
}

// Print writes the mesh in knot vector form. An extension read in patches
// form carries its weights inside the patch control points until
// SetCoordsFromPatches merges them, so it must be converted before printing.
func (e *Extension) Print(w io.Writer) {
	if e.weights.V == nil {
		panic(fmt.Errorf("Extension.Print: weights not set, call SetCoordsFromPatches first"))
	}
	e.patchTopo.PrintTopo(w)
	fmt.Fprintf(w, "\nknotvectors\n%d\n", e.numOfKnotVectors)
	for _, kv := range e.knotVectors {
		kv.Print(w)
	}

	if e.NumOfActiveElems < e.NumOfElements {
		fmt.Fprintf(w, "\nmesh_elements\n%d\n", e.NumOfActiveElems)
		for i := 0; i < e.NumOfElements; i++ {
			if e.activeElem[i] {
				fmt.Fprintln(w, i)
			}
		}
	}

	fmt.Fprintf(w, "\nweights\n")
	e.weights.Print(w)
}

func (e *Extension) PrintCharacteristics(w io.Writer) {
	fmt.Fprintf(w,
		"NURBS Mesh entity sizes:\n"+
			"Dimension           = %d\n"+
			"Order               = %d\n"+
			"NumOfKnotVectors    = %d\n"+
			"NumOfPatches        = %d\n"+
			"NumOfBdrPatches     = %d\n"+
			"NumOfVertices       = %d\n"+
			"NumOfElements       = %d\n"+
			"NumOfBdrElements    = %d\n"+
			"NumOfDofs           = %d\n"+
			"NumOfActiveVertices = %d\n"+
			"NumOfActiveElems    = %d\n"+
			"NumOfActiveBdrElems = %d\n"+
			"NumOfActiveDofs     = %d\n",
		e.Dimension(), e.GetOrder(), e.GetNKV(), e.GetNP(), e.GetNBP(),
		e.GetGNV(), e.GetGNE(), e.GetGNBE(), e.GetNTotalDof(),
		e.GetNV(), e.GetNE(), e.GetNBE(), e.GetNDof())
	for i, kv := range e.knotVectors {
		fmt.Fprintf(w, " %d) ", i+1)
		kv.Print(w)
	}
	fmt.Fprintln(w)
}

// GenerateActiveVertices marks every mesh vertex touched by an active
// element and renumbers the marked ones consecutively.
func (e *Extension) GenerateActiveVertices() {
	var (
		vert [8]int
		nv   int
		dim  = e.Dimension()
		p2g  = patchMap{ext: e}
	)

	gel := 0
	e.activeVert = make([]int, e.GetGNV())
	for i := range e.activeVert {
		e.activeVert[i] = -1
	}
	for p := 0; p < e.GetNP(); p++ {
		p2g.setPatchVertexMap(p)

		nx := p2g.nx()
		ny := p2g.ny()
		nz := 1
		if dim == 3 {
			nz = p2g.nz()
		}

		for k := 0; k < nz; k++ {
			for j := 0; j < ny; j++ {
				for i := 0; i < nx; i++ {
					if e.activeElem[gel] {
						if dim == 2 {
							vert[0] = p2g.idx2(i, j)
							vert[1] = p2g.idx2(i+1, j)
							vert[2] = p2g.idx2(i+1, j+1)
							vert[3] = p2g.idx2(i, j+1)
							nv = 4
						} else {
							vert[0] = p2g.idx3(i, j, k)
							vert[1] = p2g.idx3(i+1, j, k)
							vert[2] = p2g.idx3(i+1, j+1, k)
							vert[3] = p2g.idx3(i, j+1, k)
							vert[4] = p2g.idx3(i, j, k+1)
							vert[5] = p2g.idx3(i+1, j, k+1)
							vert[6] = p2g.idx3(i+1, j+1, k+1)
							vert[7] = p2g.idx3(i, j+1, k+1)
							nv = 8
						}
						for v := 0; v < nv; v++ {
							e.activeVert[vert[v]] = 1
						}
					}
					gel++
				}
			}
		}
	}

	e.NumOfActiveVertices = 0
	for i := 0; i < e.GetGNV(); i++ {
		if e.activeVert[i] == 1 {
			e.activeVert[i] = e.NumOfActiveVertices
			e.NumOfActiveVertices++
		}
	}
}

// GenerateActiveBdrElems activates the whole boundary when every element is
// active. With a partial element set the actual boundary would include
// inter-processor faces; generating it is left to the mesh layer.
func (e *Extension) GenerateActiveBdrElems() {
	e.activeBdrElem = make([]bool, e.GetGNBE())
	if e.GetGNE() == e.GetNE() {
		for i := range e.activeBdrElem {
			e.activeBdrElem[i] = true
		}
		e.NumOfActiveBdrElems = e.GetGNBE()
		return
	}
	e.NumOfActiveBdrElems = 0
}

// MergeWeights copies the dof weights of each piece into the global weight
// vector through the element local to global map.
func (e *Extension) MergeWeights(pieces []*Extension) {
	wd := e.weights.DataP()
	for _, lext := range pieces {
		lelemElem := lext.GetElementLocalToGlobal()
		lwd := lext.weights.DataP()

		for lel := 0; lel < lext.GetNE(); lel++ {
			gel := lelemElem[lel]
			gdofs := e.elDof.GetRow(gel)
			ldofs := lext.elDof.GetRow(lel)
			for j := range gdofs {
				wd[gdofs[j]] = lwd[ldofs[j]]
			}
		}
	}
}

// CheckPatches verifies that opposite edges of every patch reference the
// same knot vector with consistent directions, and that the parametric axes
// run along the knot vector directions.
func (e *Extension) CheckPatches() {
	for p := 0; p < e.GetNP(); p++ {
		edges, oedge := e.patchTopo.GetElementEdges(p)

		signed := make([]int, len(edges))
		for i := range edges {
			signed[i] = e.patchTopo.KnotInd(edges[i])
			if oedge[i] < 0 {
				signed[i] = -1 - signed[i]
			}
		}

		if (e.Dimension() == 2 &&
			(signed[0] != -1-signed[2] || signed[1] != -1-signed[3])) ||
			(e.Dimension() == 3 &&
				(signed[0] != signed[2] || signed[0] != signed[4] ||
					signed[0] != signed[6] || signed[1] != signed[3] ||
					signed[1] != signed[5] || signed[1] != signed[7] ||
					signed[8] != signed[9] || signed[8] != signed[10] ||
					signed[8] != signed[11])) {
			panic(fmt.Errorf("Extension.CheckPatches (patch = %d): inconsistent edge-to-knot mapping", p))
		}

		if (e.Dimension() == 2 && (signed[0] < 0 || signed[1] < 0)) ||
			(e.Dimension() == 3 && (signed[0] < 0 || signed[3] < 0 || signed[8] < 0)) {
			panic(fmt.Errorf("Extension.CheckPatches (patch = %d): bad orientation", p))
		}
	}
}

// CheckBdrPatches verifies that boundary patches run along their knot
// vector directions.
func (e *Extension) CheckBdrPatches() {
	for p := 0; p < e.GetNBP(); p++ {
		edges, oedge := e.patchTopo.GetBdrElementEdges(p)

		signed := make([]int, len(edges))
		for i := range edges {
			signed[i] = e.patchTopo.KnotInd(edges[i])
			if oedge[i] < 0 {
				signed[i] = -1 - signed[i]
			}
		}

		if (e.Dimension() == 2 && signed[0] < 0) ||
			(e.Dimension() == 3 && (signed[0] < 0 || signed[1] < 0)) {
			panic(fmt.Errorf("Extension.CheckBdrPatches (boundary patch = %d): bad orientation", p))
		}
	}
}

// GetPatchKnotVectors returns the knot vectors of patch p along its
// parametric axes.
func (e *Extension) GetPatchKnotVectors(p int) (kv []*KnotVector) {
	edges, _ := e.patchTopo.GetElementEdges(p)
	if e.Dimension() == 2 {
		kv = []*KnotVector{e.KnotVec(edges[0]), e.KnotVec(edges[1])}
	} else {
		kv = []*KnotVector{e.KnotVec(edges[0]), e.KnotVec(edges[3]), e.KnotVec(edges[8])}
	}
	return
}

func (e *Extension) GetBdrPatchKnotVectors(p int) (kv []*KnotVector) {
	edges, _ := e.patchTopo.GetBdrElementEdges(p)
	if e.Dimension() == 2 {
		kv = []*KnotVector{e.KnotVec(edges[0])}
	} else {
		kv = []*KnotVector{e.KnotVec(edges[0]), e.KnotVec(edges[1])}
	}
	return
}

// GenerateOffsets assigns each topological entity its block of global mesh
// node and space dof numbers: vertices first, then edge interiors, face
// interiors and patch interiors.
func (e *Extension) GenerateOffsets() {
	var (
		nv  = e.patchTopo.GetNV()
		ne  = e.patchTopo.GetNEdges()
		nf  = e.patchTopo.GetNFaces()
		np  = e.patchTopo.GetNE()
		dim = e.Dimension()
	)

	e.vMeshOffsets = make([]int, nv)
	e.eMeshOffsets = make([]int, ne)
	e.fMeshOffsets = make([]int, nf)
	e.pMeshOffsets = make([]int, np)

	e.vSpaceOffsets = make([]int, nv)
	e.eSpaceOffsets = make([]int, ne)
	e.fSpaceOffsets = make([]int, nf)
	e.pSpaceOffsets = make([]int, np)

	meshCounter := 0
	for ; meshCounter < nv; meshCounter++ {
		e.vMeshOffsets[meshCounter] = meshCounter
		e.vSpaceOffsets[meshCounter] = meshCounter
	}
	spaceCounter := meshCounter

	for edge := 0; edge < ne; edge++ {
		e.eMeshOffsets[edge] = meshCounter
		e.eSpaceOffsets[edge] = spaceCounter
		meshCounter += e.KnotVec(edge).GetNE() - 1
		spaceCounter += e.KnotVec(edge).GetNCP() - 2
	}

	for f := 0; f < nf; f++ {
		e.fMeshOffsets[f] = meshCounter
		e.fSpaceOffsets[f] = spaceCounter

		edges := e.patchTopo.GetFaceEdges(f)
		meshCounter +=
			(e.KnotVec(edges[0]).GetNE() - 1) *
				(e.KnotVec(edges[1]).GetNE() - 1)
		spaceCounter +=
			(e.KnotVec(edges[0]).GetNCP() - 2) *
				(e.KnotVec(edges[1]).GetNCP() - 2)
	}

	for p := 0; p < np; p++ {
		e.pMeshOffsets[p] = meshCounter
		e.pSpaceOffsets[p] = spaceCounter

		edges, _ := e.patchTopo.GetElementEdges(p)
		if dim == 2 {
			meshCounter +=
				(e.KnotVec(edges[0]).GetNE() - 1) *
					(e.KnotVec(edges[1]).GetNE() - 1)
			spaceCounter +=
				(e.KnotVec(edges[0]).GetNCP() - 2) *
					(e.KnotVec(edges[1]).GetNCP() - 2)
		} else {
			meshCounter +=
				(e.KnotVec(edges[0]).GetNE() - 1) *
					(e.KnotVec(edges[3]).GetNE() - 1) *
					(e.KnotVec(edges[8]).GetNE() - 1)
			spaceCounter +=
				(e.KnotVec(edges[0]).GetNCP() - 2) *
					(e.KnotVec(edges[3]).GetNCP() - 2) *
					(e.KnotVec(edges[8]).GetNCP() - 2)
		}
	}
	e.NumOfVertices = meshCounter
	e.NumOfDofs = spaceCounter
}

func (e *Extension) CountElements() {
	e.NumOfElements = 0
	for p := 0; p < e.GetNP(); p++ {
		kv := e.GetPatchKnotVectors(p)
		ne := kv[0].GetNE()
		for d := 1; d < len(kv); d++ {
			ne *= kv[d].GetNE()
		}
		e.NumOfElements += ne
	}
}

func (e *Extension) CountBdrElements() {
	e.NumOfBdrElements = 0
	for p := 0; p < e.GetNBP(); p++ {
		kv := e.GetBdrPatchKnotVectors(p)
		ne := kv[0].GetNE()
		for d := 1; d < len(kv); d++ {
			ne *= kv[d].GetNE()
		}
		e.NumOfBdrElements += ne
	}
}


// ElementTopo is a linear element of the refined control mesh, vertices
// numbered in the active vertex numbering.
type ElementTopo struct {
	Verts []int
	Attr  int
}

// GetElementTopo assembles the active elements of the refined mesh as
// linear quads or hexes over the active vertices.
func (e *Extension) GetElementTopo() (elements []ElementTopo) {
	elements = make([]ElementTopo, 0, e.GetNE())
	if e.Dimension() == 2 {
		elements = e.get2DElementTopo(elements)
	} else {
		elements = e.get3DElementTopo(elements)
	}
	return
}

func (e *Extension) get2DElementTopo(elements []ElementTopo) []ElementTopo {
	eg := 0
	p2g := patchMap{ext: e}

	for p := 0; p < e.GetNP(); p++ {
		p2g.setPatchVertexMap(p)
		nx := p2g.nx()
		ny := p2g.ny()

		patchAttr := e.patchTopo.GetAttribute(p)

		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				if e.activeElem[eg] {
					elements = append(elements, ElementTopo{
						Verts: []int{
							e.activeVert[p2g.idx2(i, j)],
							e.activeVert[p2g.idx2(i+1, j)],
							e.activeVert[p2g.idx2(i+1, j+1)],
							e.activeVert[p2g.idx2(i, j+1)],
						},
						Attr: patchAttr,
					})
				}
				eg++
			}
		}
	}
	return elements
}

func (e *Extension) get3DElementTopo(elements []ElementTopo) []ElementTopo {
	eg := 0
	p2g := patchMap{ext: e}

	for p := 0; p < e.GetNP(); p++ {
		p2g.setPatchVertexMap(p)
		nx := p2g.nx()
		ny := p2g.ny()
		nz := p2g.nz()

		patchAttr := e.patchTopo.GetAttribute(p)

		for k := 0; k < nz; k++ {
			for j := 0; j < ny; j++ {
				for i := 0; i < nx; i++ {
					if e.activeElem[eg] {
						elements = append(elements, ElementTopo{
							Verts: []int{
								e.activeVert[p2g.idx3(i, j, k)],
								e.activeVert[p2g.idx3(i+1, j, k)],
								e.activeVert[p2g.idx3(i+1, j+1, k)],
								e.activeVert[p2g.idx3(i, j+1, k)],
								e.activeVert[p2g.idx3(i, j, k+1)],
								e.activeVert[p2g.idx3(i+1, j, k+1)],
								e.activeVert[p2g.idx3(i+1, j+1, k+1)],
								e.activeVert[p2g.idx3(i, j+1, k+1)],
							},
							Attr: patchAttr,
						})
					}
					eg++
				}
			}
		}
	}
	return elements
}

// GetBdrElementTopo assembles the active boundary elements of the refined
// mesh.
func (e *Extension) GetBdrElementTopo() (boundary []ElementTopo) {
	boundary = make([]ElementTopo, 0, e.GetNBE())
	if e.Dimension() == 2 {
		boundary = e.get2DBdrElementTopo(boundary)
	} else {
		boundary = e.get3DBdrElementTopo(boundary)
	}
	return
}

func (e *Extension) get2DBdrElementTopo(boundary []ElementTopo) []ElementTopo {
	gbe := 0
	p2g := patchMap{ext: e}

	for b := 0; b < e.GetNBP(); b++ {
		_, okv := p2g.setBdrPatchVertexMap(b)
		nx := p2g.nx()

		bdrPatchAttr := e.patchTopo.GetBdrAttribute(b)

		for i := 0; i < nx; i++ {
			if e.activeBdrElem[gbe] {
				ii := i
				if okv[0] < 0 {
					ii = nx - 1 - i
				}
				boundary = append(boundary, ElementTopo{
					Verts: []int{
						e.activeVert[p2g.idx1(ii)],
						e.activeVert[p2g.idx1(ii+1)],
					},
					Attr: bdrPatchAttr,
				})
			}
			gbe++
		}
	}
	return boundary
}

func (e *Extension) get3DBdrElementTopo(boundary []ElementTopo) []ElementTopo {
	gbe := 0
	p2g := patchMap{ext: e}

	for b := 0; b < e.GetNBP(); b++ {
		_, okv := p2g.setBdrPatchVertexMap(b)
		nx := p2g.nx()
		ny := p2g.ny()

		bdrPatchAttr := e.patchTopo.GetBdrAttribute(b)

		for j := 0; j < ny; j++ {
			jj := j
			if okv[1] < 0 {
				jj = ny - 1 - j
			}
			for i := 0; i < nx; i++ {
				if e.activeBdrElem[gbe] {
					ii := i
					if okv[0] < 0 {
						ii = nx - 1 - i
					}
					boundary = append(boundary, ElementTopo{
						Verts: []int{
							e.activeVert[p2g.idx2(ii, jj)],
							e.activeVert[p2g.idx2(ii+1, jj)],
							e.activeVert[p2g.idx2(ii+1, jj+1)],
							e.activeVert[p2g.idx2(ii, jj+1)],
						},
						Attr: bdrPatchAttr,
					})
				}
				gbe++
			}
		}
	}
	return boundary
}

// GenerateElementDofTable builds the element to dof table over the active
// elements and compacts the dof numbering to the dofs they reference.
func (e *Extension) GenerateElementDofTable() {
	e.activeDof = make([]int, e.GetNTotalDof())

	if e.Dimension() == 2 {
		e.generate2DElementDofTable()
	} else {
		e.generate3DElementDofTable()
	}

	e.NumOfActiveDofs = 0
	for d := 0; d < e.GetNTotalDof(); d++ {
		if e.activeDof[d] != 0 {
			e.NumOfActiveDofs++
			e.activeDof[d] = e.NumOfActiveDofs
		}
	}

	dof := e.elDof.connections
	for i := range dof {
		dof[i] = e.activeDof[dof[i]] - 1
	}
}

func (e *Extension) generate2DElementDofTable() {
	el := 0
	eg := 0
	p2g := patchMap{ext: e}

	e.elDof = NewTable(e.NumOfActiveElems, (e.order+1)*(e.order+1))
	e.elToPatch = make([]int, e.NumOfActiveElems)
	e.elToIJK = make([][]int, e.NumOfActiveElems)

	for p := 0; p < e.GetNP(); p++ {
		kv := p2g.setPatchDofMap(p)

		for j := 0; j < kv[1].GetNKS(); j++ {
			if !kv[1].isElement(j) {
				continue
			}
			for i := 0; i < kv[0].GetNKS(); i++ {
				if !kv[0].isElement(i) {
					continue
				}
				if e.activeElem[eg] {
					dofs := e.elDof.GetRow(el)
					idx := 0
					for jj := 0; jj <= e.order; jj++ {
						for ii := 0; ii <= e.order; ii++ {
							dofs[idx] = p2g.idx2(i+ii, j+jj)
							e.activeDof[dofs[idx]] = 1
							idx++
						}
					}
					e.elToPatch[el] = p
					e.elToIJK[el] = []int{i, j}
					el++
				}
				eg++
			}
		}
	}
}

func (e *Extension) generate3DElementDofTable() {
	el := 0
	eg := 0
	p2g := patchMap{ext: e}

	e.elDof = NewTable(e.NumOfActiveElems, (e.order+1)*(e.order+1)*(e.order+1))
	e.elToPatch = make([]int, e.NumOfActiveElems)
	e.elToIJK = make([][]int, e.NumOfActiveElems)

	for p := 0; p < e.GetNP(); p++ {
		kv := p2g.setPatchDofMap(p)

		for k := 0; k < kv[2].GetNKS(); k++ {
			if !kv[2].isElement(k) {
				continue
			}
			for j := 0; j < kv[1].GetNKS(); j++ {
				if !kv[1].isElement(j) {
					continue
				}
				for i := 0; i < kv[0].GetNKS(); i++ {
					if !kv[0].isElement(i) {
						continue
					}
					if e.activeElem[eg] {
						dofs := e.elDof.GetRow(el)
						idx := 0
						for kk := 0; kk <= e.order; kk++ {
							for jj := 0; jj <= e.order; jj++ {
								for ii := 0; ii <= e.order; ii++ {
									dofs[idx] = p2g.idx3(i+ii, j+jj, k+kk)
									e.activeDof[dofs[idx]] = 1
									idx++
								}
							}
						}
						e.elToPatch[el] = p
						e.elToIJK[el] = []int{i, j, k}
						el++
					}
					eg++
				}
			}
		}
	}
}

// GenerateBdrElementDofTable builds the boundary element to dof table in
// the compacted dof numbering.
func (e *Extension) GenerateBdrElementDofTable() {
	if e.Dimension() == 2 {
		e.generate2DBdrElementDofTable()
	} else {
		e.generate3DBdrElementDofTable()
	}

	dof := e.belDof.connections
	for i := range dof {
		dof[i] = e.activeDof[dof[i]] - 1
	}
}

func (e *Extension) generate2DBdrElementDofTable() {
	gbe := 0
	lbe := 0
	p2g := patchMap{ext: e}

	e.belDof = NewTable(e.NumOfActiveBdrElems, e.order+1)
	e.belToPatch = make([]int, e.NumOfActiveBdrElems)
	e.belToIJK = make([][]int, e.NumOfActiveBdrElems)

	for b := 0; b < e.GetNBP(); b++ {
		kv, okv := p2g.setBdrPatchDofMap(b)
		nx := p2g.nx() // NCP-1

		for i := 0; i < kv[0].GetNKS(); i++ {
			if !kv[0].isElement(i) {
				continue
			}
			if e.activeBdrElem[gbe] {
				dofs := e.belDof.GetRow(lbe)
				for ii := 0; ii <= e.order; ii++ {
					if okv[0] >= 0 {
						dofs[ii] = p2g.idx1(i + ii)
					} else {
						dofs[ii] = p2g.idx1(nx - i - ii)
					}
				}
				e.belToPatch[lbe] = b
				if okv[0] >= 0 {
					e.belToIJK[lbe] = []int{i}
				} else {
					e.belToIJK[lbe] = []int{-1 - i}
				}
				lbe++
			}
			gbe++
		}
	}
}

func (e *Extension) generate3DBdrElementDofTable() {
	gbe := 0
	lbe := 0
	p2g := patchMap{ext: e}

	e.belDof = NewTable(e.NumOfActiveBdrElems, (e.order+1)*(e.order+1))
	e.belToPatch = make([]int, e.NumOfActiveBdrElems)
	e.belToIJK = make([][]int, e.NumOfActiveBdrElems)

	for b := 0; b < e.GetNBP(); b++ {
		kv, okv := p2g.setBdrPatchDofMap(b)
		nx := p2g.nx() // NCP0-1
		ny := p2g.ny() // NCP1-1

		for j := 0; j < kv[1].GetNKS(); j++ {
			if !kv[1].isElement(j) {
				continue
			}
			for i := 0; i < kv[0].GetNKS(); i++ {
				if !kv[0].isElement(i) {
					continue
				}
				if e.activeBdrElem[gbe] {
					dofs := e.belDof.GetRow(lbe)
					idx := 0
					for jj := 0; jj <= e.order; jj++ {
						lj := j + jj
						if okv[1] < 0 {
							lj = ny - j - jj
						}
						for ii := 0; ii <= e.order; ii++ {
							li := i + ii
							if okv[0] < 0 {
								li = nx - i - ii
							}
							dofs[idx] = p2g.idx2(li, lj)
							idx++
						}
					}
					e.belToPatch[lbe] = b
					ci, cj := i, j
					if okv[0] < 0 {
						ci = -1 - i
					}
					if okv[1] < 0 {
						cj = -1 - j
					}
					e.belToIJK[lbe] = []int{ci, cj}
					lbe++
				}
				gbe++
			}
		}
	}
}

// GetVertexLocalToGlobal maps active vertex numbers back to global mesh
// vertex numbers.
func (e *Extension) GetVertexLocalToGlobal() (lvertVert []int) {
	lvertVert = make([]int, e.GetNV())
	for gv := 0; gv < e.GetGNV(); gv++ {
		if e.activeVert[gv] >= 0 {
			lvertVert[e.activeVert[gv]] = gv
		}
	}
	return
}

// GetElementLocalToGlobal maps active element numbers back to global
// element numbers.
func (e *Extension) GetElementLocalToGlobal() (lelemElem []int) {
	lelemElem = make([]int, e.GetNE())
	le := 0
	for ge := 0; ge < e.GetGNE(); ge++ {
		if e.activeElem[ge] {
			lelemElem[le] = ge
			le++
		}
	}
	return
}

// GetElementPatch returns the patch owning active element el and the
// element's knot span indices inside the patch.
func (e *Extension) GetElementPatch(el int) (p int, ijk []int) {
	return e.elToPatch[el], e.elToIJK[el]
}

func (e *Extension) GetBdrElementPatch(bel int) (b int, ijk []int) {
	return e.belToPatch[bel], e.belToIJK[bel]
}

// ConvertToPatches reconstructs the per patch control nets from a node
// coordinate vector, invalidating the dof tables.
func (e *Extension) ConvertToPatches(nodes utils.Vector) {
	e.elDof = nil
	e.belDof = nil

	if len(e.patches) == 0 {
		e.GetPatchNets(nodes)
	}
}

// SetCoordsFromPatches writes the patch control nets back into a node
// coordinate vector and drops the patches.
func (e *Extension) SetCoordsFromPatches(nodes utils.Vector) {
	if len(e.patches) == 0 {
		return
	}
	e.SetSolutionVector(nodes)
	e.patches = nil
}

// SetKnotsFromPatches adopts the (refined) knot vectors of the patches and
// regenerates all numbering tables.
func (e *Extension) SetKnotsFromPatches() {
	if len(e.patches) == 0 {
		panic(fmt.Errorf("Extension.SetKnotsFromPatches: no patches available"))
	}

	for p := range e.patches {
		kv := e.GetPatchKnotVectors(p)
		for i := range kv {
			*kv[i] = *e.patches[p].GetKV(i).Copy()
		}
	}

	e.order = e.knotVectors[0].GetOrder()
	for i := range e.knotVectors {
		if e.order != e.knotVectors[i].GetOrder() {
			panic(fmt.Errorf("Extension.SetKnotsFromPatches: variable orders are not supported"))
		}
	}

	e.GenerateOffsets()
	e.CountElements()
	e.CountBdrElements()

	e.NumOfActiveElems = e.NumOfElements
	e.activeElem = make([]bool, e.NumOfElements)
	for i := range e.activeElem {
		e.activeElem[i] = true
	}

	e.GenerateActiveVertices()
	e.GenerateElementDofTable()
	e.GenerateActiveBdrElems()
	e.GenerateBdrElementDofTable()
}

// DegreeElevate raises the order of every patch by t.
func (e *Extension) DegreeElevate(t int) {
	for _, p := range e.patches {
		p.DegreeElevateAll(t)
	}
}

// UniformRefinement splits every knot span of every patch at its midpoint.
func (e *Extension) UniformRefinement() {
	for _, p := range e.patches {
		p.UniformRefinement()
	}
}

// KnotInsert refines every patch to the target knot vectors, one per knot
// vector index.
func (e *Extension) KnotInsert(kv []*KnotVector) {
	for p, patch := range e.patches {
		edges, _ := e.patchTopo.GetElementEdges(p)

		var pkv []*KnotVector
		if e.Dimension() == 2 {
			pkv = []*KnotVector{
				kv[e.KnotInd(edges[0])],
				kv[e.KnotInd(edges[1])],
			}
		} else {
			pkv = []*KnotVector{
				kv[e.KnotInd(edges[0])],
				kv[e.KnotInd(edges[3])],
				kv[e.KnotInd(edges[8])],
			}
		}

		patch.KnotInsertKVs(pkv)
	}
}

// GetPatchNets lifts the dof coordinates and weights into homogeneous per
// patch control nets.
func (e *Extension) GetPatchNets(coords utils.Vector) {
	if e.Dimension() == 2 {
		e.get2DPatchNets(coords)
	} else {
		e.get3DPatchNets(coords)
	}
}

func (e *Extension) get2DPatchNets(coords utils.Vector) {
	p2g := patchMap{ext: e}
	cd := coords.DataP()
	wd := e.weights.DataP()

	e.patches = make([]*Patch, e.GetNP())
	for p := range e.patches {
		kv := p2g.setPatchDofMap(p)
		e.patches[p] = NewPatch(kv, 2+1)
		patch := e.patches[p]

		for j := 0; j < kv[1].GetNCP(); j++ {
			for i := 0; i < kv[0].GetNCP(); i++ {
				l := p2g.idx2(i, j)
				for d := 0; d < 2; d++ {
					patch.set2(i, j, d, cd[l*2+d]*wd[l])
				}
				patch.set2(i, j, 2, wd[l])
			}
		}
	}
}

func (e *Extension) get3DPatchNets(coords utils.Vector) {
	p2g := patchMap{ext: e}
	cd := coords.DataP()
	wd := e.weights.DataP()

	e.patches = make([]*Patch, e.GetNP())
	for p := range e.patches {
		kv := p2g.setPatchDofMap(p)
		e.patches[p] = NewPatch(kv, 3+1)
		patch := e.patches[p]

		for k := 0; k < kv[2].GetNCP(); k++ {
			for j := 0; j < kv[1].GetNCP(); j++ {
				for i := 0; i < kv[0].GetNCP(); i++ {
					l := p2g.idx3(i, j, k)
					for d := 0; d < 3; d++ {
						patch.set3(i, j, k, d, cd[l*3+d]*wd[l])
					}
					patch.set3(i, j, k, 3, wd[l])
				}
			}
		}
	}
}

// SetSolutionVector writes the dehomogenized control net coordinates and
// weights back into the dof numbering.
func (e *Extension) SetSolutionVector(coords utils.Vector) {
	if e.Dimension() == 2 {
		e.set2DSolutionVector(coords)
	} else {
		e.set3DSolutionVector(coords)
	}
}

func (e *Extension) set2DSolutionVector(coords utils.Vector) {
	p2g := patchMap{ext: e}
	cd := coords.DataP()

	e.weights = utils.NewVector(e.GetNDof())
	wd := e.weights.DataP()
	for p := range e.patches {
		kv := p2g.setPatchDofMap(p)
		patch := e.patches[p]

		for j := 0; j < kv[1].GetNCP(); j++ {
			for i := 0; i < kv[0].GetNCP(); i++ {
				l := p2g.idx2(i, j)
				for d := 0; d < 2; d++ {
					cd[l*2+d] = patch.at2(i, j, d) / patch.at2(i, j, 2)
				}
				wd[l] = patch.at2(i, j, 2)
			}
		}
		e.patches[p] = nil
	}
}

func (e *Extension) set3DSolutionVector(coords utils.Vector) {
	p2g := patchMap{ext: e}
	cd := coords.DataP()

	e.weights = utils.NewVector(e.GetNDof())
	wd := e.weights.DataP()
	for p := range e.patches {
		kv := p2g.setPatchDofMap(p)
		patch := e.patches[p]

		for k := 0; k < kv[2].GetNCP(); k++ {
			for j := 0; j < kv[1].GetNCP(); j++ {
				for i := 0; i < kv[0].GetNCP(); i++ {
					l := p2g.idx3(i, j, k)
					for d := 0; d < 3; d++ {
						cd[l*3+d] = patch.at3(i, j, k, d) / patch.at3(i, j, k, 3)
					}
					wd[l] = patch.at3(i, j, k, 3)
				}
			}
		}
		e.patches[p] = nil
	}
}
