package nurbs

import (
	"github.com/james-bowman/sparse"
)

// DofSparsityPattern assembles the dof coupling pattern of the
// discretization: entry (i,j) is nonzero when dofs i and j are supported on
// a common element. This is the nonzero structure of any Galerkin operator
// assembled on the space.
func DofSparsityPattern(e *Extension) *sparse.CSR {
	var (
		ndof  = e.GetNDof()
		elDof = e.GetElementDofTable()
	)
	pattern := sparse.NewDOK(ndof, ndof)
	for el := 0; el < elDof.Size(); el++ {
		dofs := elDof.GetRow(el)
		for _, i := range dofs {
			for _, j := range dofs {
				pattern.Set(i, j, 1)
			}
		}
	}
	return pattern.ToCSR()
}

// BdrDofMarker returns a marker over the active dofs, 1 where the dof lies
// on an active boundary element.
func BdrDofMarker(e *Extension) (marker []int) {
	marker = make([]int, e.GetNDof())
	belDof := e.GetBdrElementDofTable()
	for bel := 0; bel < belDof.Size(); bel++ {
		for _, d := range belDof.GetRow(bel) {
			marker[d] = 1
		}
	}
	return
}
