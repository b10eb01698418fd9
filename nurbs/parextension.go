package nurbs

import (
	"fmt"
	"sort"

	"github.com/notargets/goiga/utils"
)

// GroupTopology records, for one rank of a partitioned mesh, the groups of
// ranks that share dofs with it. Group 0 is always the local group {rank}.
type GroupTopology struct {
	myRank, nRanks int
	groups         [][]int
	index          map[string]int
}

func NewGroupTopology(myRank, nRanks int) (gt *GroupTopology) {
	gt = &GroupTopology{
		myRank: myRank,
		nRanks: nRanks,
		index:  make(map[string]int),
	}
	gt.Insert([]int{myRank})
	return
}

func (gt *GroupTopology) MyRank() int  { return gt.myRank }
func (gt *GroupTopology) NRanks() int  { return gt.nRanks }
func (gt *GroupTopology) NGroups() int { return len(gt.groups) }

func (gt *GroupTopology) GetGroup(g int) []int { return gt.groups[g] }

// Insert registers the set of ranks (duplicates allowed in the input) and
// returns its group number, reusing the number of an equal existing group.
func (gt *GroupTopology) Insert(ranks []int) int {
	set := append([]int(nil), ranks...)
	sort.Ints(set)
	n := 0
	for i, r := range set {
		if i == 0 || set[n-1] != r {
			set[n] = r
			n++
		}
	}
	set = set[:n]

	key := fmt.Sprint(set)
	if g, ok := gt.index[key]; ok {
		return g
	}
	g := len(gt.groups)
	gt.groups = append(gt.groups, set)
	gt.index[key] = g
	return g
}

// ParExtension is the per rank restriction of a serial extension: only the
// elements assigned to the rank are active, and every local dof is tagged
// with the group of ranks sharing it.
type ParExtension struct {
	Extension

	gtopo        *GroupTopology
	partitioning []int
	ldofGroup    []int
}

func (pe *ParExtension) GetGroupTopology() *GroupTopology { return pe.gtopo }
func (pe *ParExtension) GetPartitioning() []int           { return pe.partitioning }

// GetDofGroup returns the group number of local dof ldof.
func (pe *ParExtension) GetDofGroup(ldof int) int { return pe.ldofGroup[ldof] }

// NewParExtension restricts a fully active parent to the elements that part
// assigns to myRank. activeBel selects which global boundary elements the
// rank keeps.
func NewParExtension(myRank, nRanks int, parent *Extension, part []int,
	activeBel []bool) (pe *ParExtension) {
	if parent.NumOfActiveElems < parent.NumOfElements {
		// SetActive and the weight copy assume a fully active parent.
		panic(fmt.Errorf("NewParExtension: all elements in the parent must be active"))
	}
	if !parent.ownTopo {
		panic(fmt.Errorf("NewParExtension: parent does not own the patch topology"))
	}

	pe = &ParExtension{gtopo: NewGroupTopology(myRank, nRanks)}
	e := &pe.Extension

	e.patchTopo = parent.patchTopo
	e.ownTopo = true
	parent.ownTopo = false

	e.order = parent.GetOrder()

	e.numOfKnotVectors = parent.GetNKV()
	e.knotVectors = make([]*KnotVector, e.numOfKnotVectors)
	for i := range e.knotVectors {
		e.knotVectors[i] = parent.GetKnotVector(i).Copy()
	}

	e.GenerateOffsets()
	e.CountElements()
	e.CountBdrElements()

	pe.partitioning = append([]int(nil), part...)
	pe.SetActive(pe.partitioning, activeBel)

	e.GenerateActiveVertices()
	e.GenerateElementDofTable()
	// active boundary elements were set by SetActive
	e.GenerateBdrElementDofTable()

	serialElemDof := parent.GetElementDofTable()
	pe.BuildGroups(pe.partitioning, serialElemDof)

	e.weights = utils.NewVector(e.GetNDof())
	wd := e.weights.DataP()
	pwd := parent.weights.DataP()
	lel := 0
	for gel := 0; gel < e.GetGNE(); gel++ {
		if e.activeElem[gel] {
			ldofs := e.elDof.GetRow(lel)
			gdofs := serialElemDof.GetRow(gel)
			for i := range ldofs {
				wd[ldofs[i]] = pwd[gdofs[i]]
			}
			lel++
		}
	}
	return
}

// NewParExtensionFromSerial adopts the data of a serial extension that was
// derived from parParent (typically by order elevation) and rebuilds the dof
// groups with parParent's partitioning. The serial parent must not be used
// afterwards.
func NewParExtensionFromSerial(parent *Extension, parParent *ParExtension) (pe *ParExtension) {
	if parParent.partitioning == nil {
		panic(fmt.Errorf("NewParExtensionFromSerial: parent ParExtension has no partitioning"))
	}

	pe = &ParExtension{
		gtopo: NewGroupTopology(parParent.gtopo.MyRank(), parParent.gtopo.NRanks()),
	}
	pe.Extension = *parent
	parent.ownTopo = false
	parent.elDof, parent.belDof = nil, nil

	serialElemDof := pe.GetGlobalElementDofTable()
	pe.BuildGroups(parParent.partitioning, serialElemDof)
	return
}

// GetGlobalElementDofTable numbers the dofs of every global element in the
// uncompacted dof numbering.
func (pe *ParExtension) GetGlobalElementDofTable() *Table {
	if pe.Dimension() == 2 {
		return pe.get2DGlobalElementDofTable()
	}
	return pe.get3DGlobalElementDofTable()
}

func (pe *ParExtension) get2DGlobalElementDofTable() (gelDof *Table) {
	el := 0
	p2g := patchMap{ext: &pe.Extension}

	gelDof = NewTable(pe.GetGNE(), (pe.order+1)*(pe.order+1))

	for p := 0; p < pe.GetNP(); p++ {
		kv := p2g.setPatchDofMap(p)

		for j := 0; j < kv[1].GetNKS(); j++ {
			if !kv[1].isElement(j) {
				continue
			}
			for i := 0; i < kv[0].GetNKS(); i++ {
				if !kv[0].isElement(i) {
					continue
				}
				dofs := gelDof.GetRow(el)
				idx := 0
				for jj := 0; jj <= pe.order; jj++ {
					for ii := 0; ii <= pe.order; ii++ {
						dofs[idx] = p2g.idx2(i+ii, j+jj)
						idx++
					}
				}
				el++
			}
		}
	}
	return
}

func (pe *ParExtension) get3DGlobalElementDofTable() (gelDof *Table) {
	el := 0
	p2g := patchMap{ext: &pe.Extension}

	gelDof = NewTable(pe.GetGNE(), (pe.order+1)*(pe.order+1)*(pe.order+1))

	for p := 0; p < pe.GetNP(); p++ {
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
					dofs := gelDof.GetRow(el)
					idx := 0
					for kk := 0; kk <= pe.order; kk++ {
						for jj := 0; jj <= pe.order; jj++ {
							for ii := 0; ii <= pe.order; ii++ {
								dofs[idx] = p2g.idx3(i+ii, j+jj, k+kk)
								idx++
							}
						}
					}
					el++
				}
			}
		}
	}
	return
}

// SetActive activates the elements assigned to this rank and adopts the
// given boundary element selection.
func (pe *ParExtension) SetActive(partitioning []int, activeBel []bool) {
	e := &pe.Extension

	e.activeElem = make([]bool, e.GetGNE())
	e.NumOfActiveElems = 0
	myRank := pe.gtopo.MyRank()
	for i := 0; i < e.GetGNE(); i++ {
		if partitioning[i] == myRank {
			e.activeElem[i] = true
			e.NumOfActiveElems++
		}
	}

	e.activeBdrElem = append([]bool(nil), activeBel...)
	e.NumOfActiveBdrElems = 0
	for i := 0; i < e.GetGNBE(); i++ {
		if e.activeBdrElem[i] {
			e.NumOfActiveBdrElems++
		}
	}
}

// BuildGroups assigns every local dof the group of ranks whose elements
// reference it, using the global element dof table.
func (pe *ParExtension) BuildGroups(partitioning []int, elemDof *Table) {
	e := &pe.Extension

	dofProc := elemDof.Transpose(e.GetNTotalDof()) // dof -> elements
	// convert elements to processors
	for i := range dofProc.connections {
		dofProc.connections[i] = partitioning[dofProc.connections[i]]
	}

	pe.ldofGroup = make([]int, e.GetNDof())
	dof := 0
	for d := 0; d < e.GetNTotalDof(); d++ {
		if e.activeDof[d] != 0 {
			pe.ldofGroup[dof] = pe.gtopo.Insert(dofProc.GetRow(d))
			dof++
		}
	}
}
