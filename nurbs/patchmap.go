package nurbs

// patchMap resolves the (i,j,k) tensor index of an entity inside a patch to
// its global number, dispatching interior indices to the patch block and
// boundary indices to the vertex, edge and face blocks with the proper
// orientation correction.
type patchMap struct {
	ext *Extension

	I, J, K int
	pOffset int
	opatch  int

	verts, edges, faces []int
	oedge, oface        []int
}

// Patch extents in elements per direction.
func (m *patchMap) nx() int { return m.I + 1 }
func (m *patchMap) ny() int { return m.J + 1 }
func (m *patchMap) nz() int { return m.K + 1 }

// side classifies a zero-based index against a block of n interior entries:
// 0 below, 1 inside, 2 above.
func side(n, N int) int {
	switch {
	case n < 0:
		return 0
	case n >= N:
		return 2
	default:
		return 1
	}
}

func or1D(n, N, Or int) int {
	if Or > 0 {
		return n
	}
	return N - 1 - n
}

func or2D(n1, n2, N1, N2, Or int) int {
	switch Or {
	case 0:
		return n1 + n2*N1
	case 1:
		return n2 + n1*N2
	case 2:
		return n2 + (N1-1-n1)*N2
	case 3:
		return (N1 - 1 - n1) + n2*N1
	case 4:
		return (N1 - 1 - n1) + (N2-1-n2)*N1
	case 5:
		return (N2 - 1 - n2) + (N1-1-n1)*N2
	case 6:
		return (N2 - 1 - n2) + n1*N2
	case 7:
		return n1 + (N2-1-n2)*N1
	}
	return -1
}

func (m *patchMap) getPatchKnotVectors(p int) (kvs []*KnotVector) {
	m.verts = append([]int(nil), m.ext.patchTopo.GetElementVertices(p)...)
	edges, oedge := m.ext.patchTopo.GetElementEdges(p)
	m.edges = append([]int(nil), edges...)
	m.oedge = oedge

	if m.ext.Dimension() == 2 {
		kvs = []*KnotVector{
			m.ext.KnotVec(m.edges[0]),
			m.ext.KnotVec(m.edges[1]),
		}
	} else {
		faces, oface := m.ext.patchTopo.GetElementFaces(p)
		m.faces = append([]int(nil), faces...)
		m.oface = oface

		kvs = []*KnotVector{
			m.ext.KnotVec(m.edges[0]),
			m.ext.KnotVec(m.edges[3]),
			m.ext.KnotVec(m.edges[8]),
		}
	}
	m.opatch = 0
	return
}

func (m *patchMap) getBdrPatchKnotVectors(p int) (kvs []*KnotVector, okv []int) {
	m.verts = append([]int(nil), m.ext.patchTopo.GetBdrElementVertices(p)...)
	edges, oedge := m.ext.patchTopo.GetBdrElementEdges(p)
	m.edges = append([]int(nil), edges...)
	m.oedge = oedge

	if m.ext.Dimension() == 3 {
		okv = make([]int, 2)
		kvs = make([]*KnotVector, 2)
		kvs[0] = m.ext.KnotVecO(m.edges[0], m.oedge[0], &okv[0])
		face, orient := m.ext.patchTopo.GetBdrElementFace(p)
		m.faces = []int{face}
		m.opatch = orient
		kvs[1] = m.ext.KnotVecO(m.edges[1], m.oedge[1], &okv[1])
	} else {
		okv = make([]int, 1)
		kvs = make([]*KnotVector, 1)
		kvs[0] = m.ext.KnotVecO(m.edges[0], m.oedge[0], &okv[0])
		m.opatch = m.oedge[0]
	}
	return
}

func (m *patchMap) setPatchVertexMap(p int) (kvs []*KnotVector) {
	kvs = m.getPatchKnotVectors(p)

	m.I = kvs[0].GetNE() - 1
	m.J = kvs[1].GetNE() - 1

	for i := range m.verts {
		m.verts[i] = m.ext.vMeshOffsets[m.verts[i]]
	}
	for i := range m.edges {
		m.edges[i] = m.ext.eMeshOffsets[m.edges[i]]
	}
	if m.ext.Dimension() == 3 {
		m.K = kvs[2].GetNE() - 1
		for i := range m.faces {
			m.faces[i] = m.ext.fMeshOffsets[m.faces[i]]
		}
	}
	m.pOffset = m.ext.pMeshOffsets[p]
	return
}

func (m *patchMap) setPatchDofMap(p int) (kvs []*KnotVector) {
	kvs = m.getPatchKnotVectors(p)

	m.I = kvs[0].GetNCP() - 2
	m.J = kvs[1].GetNCP() - 2

	for i := range m.verts {
		m.verts[i] = m.ext.vSpaceOffsets[m.verts[i]]
	}
	for i := range m.edges {
		m.edges[i] = m.ext.eSpaceOffsets[m.edges[i]]
	}
	if m.ext.Dimension() == 3 {
		m.K = kvs[2].GetNCP() - 2
		for i := range m.faces {
			m.faces[i] = m.ext.fSpaceOffsets[m.faces[i]]
		}
	}
	m.pOffset = m.ext.pSpaceOffsets[p]
	return
}

func (m *patchMap) setBdrPatchVertexMap(p int) (kvs []*KnotVector, okv []int) {
	kvs, okv = m.getBdrPatchKnotVectors(p)

	m.I = kvs[0].GetNE() - 1

	for i := range m.verts {
		m.verts[i] = m.ext.vMeshOffsets[m.verts[i]]
	}
	if m.ext.Dimension() == 2 {
		m.pOffset = m.ext.eMeshOffsets[m.edges[0]]
	} else {
		m.J = kvs[1].GetNE() - 1
		for i := range m.edges {
			m.edges[i] = m.ext.eMeshOffsets[m.edges[i]]
		}
		m.pOffset = m.ext.fMeshOffsets[m.faces[0]]
	}
	return
}

func (m *patchMap) setBdrPatchDofMap(p int) (kvs []*KnotVector, okv []int) {
	kvs, okv = m.getBdrPatchKnotVectors(p)

	m.I = kvs[0].GetNCP() - 2

	for i := range m.verts {
		m.verts[i] = m.ext.vSpaceOffsets[m.verts[i]]
	}
	if m.ext.Dimension() == 2 {
		m.pOffset = m.ext.eSpaceOffsets[m.edges[0]]
	} else {
		m.J = kvs[1].GetNCP() - 2
		for i := range m.edges {
			m.edges[i] = m.ext.eSpaceOffsets[m.edges[i]]
		}
		m.pOffset = m.ext.fSpaceOffsets[m.faces[0]]
	}
	return
}

// idx1 maps the one dimensional local index onto a boundary patch in 2D.
func (m *patchMap) idx1(i int) int {
	i1 := i - 1
	switch side(i1, m.I) {
	case 0:
		return m.verts[0]
	case 1:
		return m.pOffset + or1D(i1, m.I, m.opatch)
	default:
		return m.verts[1]
	}
}

// idx2 maps the (i,j) local index of a 2D patch, or of a boundary patch in
// 3D.
func (m *patchMap) idx2(i, j int) int {
	i1, j1 := i-1, j-1
	switch 3*side(j1, m.J) + side(i1, m.I) {
	case 0:
		return m.verts[0]
	case 1:
		return m.edges[0] + or1D(i1, m.I, m.oedge[0])
	case 2:
		return m.verts[1]
	case 3:
		return m.edges[3] + or1D(j1, m.J, -m.oedge[3])
	case 4:
		return m.pOffset + or2D(i1, j1, m.I, m.J, m.opatch)
	case 5:
		return m.edges[1] + or1D(j1, m.J, m.oedge[1])
	case 6:
		return m.verts[3]
	case 7:
		return m.edges[2] + or1D(i1, m.I, -m.oedge[2])
	default:
		return m.verts[2]
	}
}

// idx3 maps the (i,j,k) local index of a 3D patch.
func (m *patchMap) idx3(i, j, k int) int {
	i1, j1, k1 := i-1, j-1, k-1
	switch 3*(3*side(k1, m.K)+side(j1, m.J)) + side(i1, m.I) {
	case 0:
		return m.verts[0]
	case 1:
		return m.edges[0] + or1D(i1, m.I, m.oedge[0])
	case 2:
		return m.verts[1]
	case 3:
		return m.edges[3] + or1D(j1, m.J, m.oedge[3])
	case 4:
		return m.faces[0] + or2D(i1, j1, m.I, m.J, m.oface[0])
	case 5:
		return m.edges[1] + or1D(j1, m.J, m.oedge[1])
	case 6:
		return m.verts[3]
	case 7:
		return m.edges[2] + or1D(i1, m.I, m.oedge[2])
	case 8:
		return m.verts[2]
	case 9:
		return m.edges[8] + or1D(k1, m.K, m.oedge[8])
	case 10:
		return m.faces[1] + or2D(i1, k1, m.I, m.K, m.oface[1])
	case 11:
		return m.edges[9] + or1D(k1, m.K, m.oedge[9])
	case 12:
		return m.faces[4] + or2D(j1, k1, m.J, m.K, m.oface[4])
	case 13:
		return m.pOffset + m.I*(m.J*k1+j1) + i1
	case 14:
		return m.faces[2] + or2D(j1, k1, m.J, m.K, m.oface[2])
	case 15:
		return m.edges[11] + or1D(k1, m.K, m.oedge[11])
	case 16:
		return m.faces[3] + or2D(i1, k1, m.I, m.K, m.oface[3])
	case 17:
		return m.edges[10] + or1D(k1, m.K, m.oedge[10])
	case 18:
		return m.verts[4]
	case 19:
		return m.edges[4] + or1D(i1, m.I, m.oedge[4])
	case 20:
		return m.verts[5]
	case 21:
		return m.edges[7] + or1D(j1, m.J, m.oedge[7])
	case 22:
		return m.faces[5] + or2D(i1, j1, m.I, m.J, m.oface[5])
	case 23:
		return m.edges[5] + or1D(j1, m.J, m.oedge[5])
	case 24:
		return m.verts[7]
	case 25:
		return m.edges[6] + or1D(i1, m.I, m.oedge[6])
	default:
		return m.verts[6]
	}
}
