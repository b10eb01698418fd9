package nurbs

import (
	"fmt"
	"io"

	"github.com/notargets/goiga/utils"
)

// MaxOrder bounds the polynomial order of any knot vector; the basis
// evaluation scratch arrays are sized from it.
const MaxOrder = 10

// KnotVector is a clamped, non-decreasing knot sequence of length
// NumOfControlPoints+Order+1 together with its polynomial order.
// NumOfElements caches the count of non-degenerate knot spans and must be
// refreshed via GetElements after any mutation of the knots.
type KnotVector struct {
	Order              int
	NumOfControlPoints int
	NumOfElements      int
	knot               utils.Vector
}

func NewKnotVector(order, NCP int) (kv *KnotVector) {
	kv = &KnotVector{
		Order:              order,
		NumOfControlPoints: NCP,
		knot:               utils.NewVectorConst(NCP+order+1, -1.),
	}
	return
}

// NewKnotVectorFromKnots builds a knot vector of the given order directly
// from the full knot sequence.
func NewKnotVectorFromKnots(order int, knots []float64) (kv *KnotVector) {
	if len(knots) < 2*(order+1) {
		panic(fmt.Errorf("NewKnotVectorFromKnots: too few knots (%d) for order %d", len(knots), order))
	}
	kv = NewKnotVector(order, len(knots)-order-1)
	copy(kv.knot.DataP(), knots)
	kv.GetElements()
	return
}

func ReadKnotVector(tr *tokenReader) (kv *KnotVector) {
	order := tr.readInt()
	NCP := tr.readInt()
	kv = NewKnotVector(order, NCP)
	kd := kv.knot.DataP()
	for i := range kd {
		kd[i] = tr.readFloat()
	}
	kv.GetElements()
	return
}

func (kv *KnotVector) Copy() (nkv *KnotVector) {
	nkv = &KnotVector{
		Order:              kv.Order,
		NumOfControlPoints: kv.NumOfControlPoints,
		NumOfElements:      kv.NumOfElements,
		knot:               kv.knot.Copy(),
	}
	return
}

func (kv *KnotVector) GetOrder() int { return kv.Order }
func (kv *KnotVector) GetNCP() int   { return kv.NumOfControlPoints }
func (kv *KnotVector) GetNE() int    { return kv.NumOfElements }
func (kv *KnotVector) Size() int     { return kv.knot.Len() }

// GetNKS returns the number of knot spans scanned by the element/DOF table
// generators, degenerate spans included.
func (kv *KnotVector) GetNKS() int { return kv.NumOfControlPoints - kv.Order }

// isElement reports whether knot span i (counted from the first interior
// span) is non-degenerate.
func (kv *KnotVector) isElement(i int) bool {
	kd := kv.knot.DataP()
	return kd[kv.Order+i] != kd[kv.Order+i+1]
}

func (kv *KnotVector) Knot(i int) float64 { return kv.knot.AtVec(i) }

// GetElements recounts the non-degenerate knot spans over the interior index
// range [Order, NumOfControlPoints).
func (kv *KnotVector) GetElements() {
	var (
		kd = kv.knot.DataP()
	)
	kv.NumOfElements = 0
	for i := kv.Order; i < kv.NumOfControlPoints; i++ {
		if kd[i] != kd[i+1] {
			kv.NumOfElements++
		}
	}
}

// DegreeElevate returns a new knot vector of order Order+t whose two end knot
// values are repeated Order+t+1 times and whose interior knots are copied
// verbatim. Interior multiplicities are raised by the patch-level elevation,
// not here.
func (kv *KnotVector) DegreeElevate(t int) (nkv *KnotVector) {
	if t < 0 {
		panic(fmt.Errorf("KnotVector.DegreeElevate: parent order higher than child, t = %d", t))
	}
	var (
		kd     = kv.knot.DataP()
		nOrder = kv.Order + t
	)
	nkv = NewKnotVector(nOrder, kv.GetNCP()+t)
	nd := nkv.knot.DataP()
	for i := 0; i <= nOrder; i++ {
		nd[i] = kd[0]
	}
	for i := nOrder + 1; i < nkv.GetNCP(); i++ {
		nd[i] = kd[i-t]
	}
	for i := 0; i <= nOrder; i++ {
		nd[nkv.GetNCP()+i] = kd[len(kd)-1]
	}
	nkv.GetElements()
	return
}

// UniformRefinement returns the midpoint of every non-degenerate knot span,
// one new knot value per element, for later insertion.
func (kv *KnotVector) UniformRefinement() (newknots utils.Vector) {
	var (
		kd = kv.knot.DataP()
	)
	newknots = utils.NewVector(kv.NumOfElements)
	nd := newknots.DataP()
	var j int
	for i := 0; i < len(kd)-1; i++ {
		if kd[i] != kd[i+1] {
			nd[j] = 0.5 * (kd[i] + kd[i+1])
			j++
		}
	}
	return
}

// Flip reverses the knot vector in place about knot[0]+knot[last], used to
// reverse a shared edge's parametrization.
func (kv *KnotVector) Flip() {
	var (
		kd  = kv.knot.DataP()
		apb = kd[0] + kd[len(kd)-1]
		ns  = (kv.NumOfControlPoints - kv.Order) / 2
	)
	for i := 1; i <= ns; i++ {
		tmp := apb - kd[kv.Order+i]
		kd[kv.Order+i] = apb - kd[kv.NumOfControlPoints-i]
		kd[kv.NumOfControlPoints-i] = tmp
	}
}

func (kv *KnotVector) Print(w io.Writer) {
	fmt.Fprintf(w, "%d %d", kv.Order, kv.NumOfControlPoints)
	for _, val := range kv.knot.DataP() {
		fmt.Fprintf(w, " %.12g", val)
	}
	fmt.Fprintln(w)
}

// getKnotLocation maps local coordinate xi in [0,1] on the span starting at
// knot index ni into the global parameter.
func (kv *KnotVector) getKnotLocation(xi float64, ni int) float64 {
	kd := kv.knot.DataP()
	return xi*kd[ni+1] + (1.-xi)*kd[ni]
}

// CalcShape evaluates the Order+1 nonzero B-spline basis functions supported
// at local element index i at coordinate xi in [0,1]. A negative i addresses
// element -1-i with the parametrization flipped.
// Routine from "The NURBS Book" - 2nd ed - Piegl and Tiller, A2.2.
func (kv *KnotVector) CalcShape(shape utils.Vector, i int, xi float64) {
	var (
		p  = kv.Order
		kd = kv.knot.DataP()
		sd = shape.DataP()

		left, right [MaxOrder + 1]float64
		saved, tmp  float64
	)
	if p > MaxOrder {
		panic(fmt.Errorf("KnotVector.CalcShape: Order = %d > MaxOrder", p))
	}
	ip := i + p
	if i < 0 {
		ip = -1 - i + p
		xi = 1. - xi
	}
	u := kv.getKnotLocation(xi, ip)

	sd[0] = 1.
	for j := 1; j <= p; j++ {
		left[j] = u - kd[ip+1-j]
		right[j] = kd[ip+j] - u
		saved = 0.
		for r := 0; r < j; r++ {
			tmp = sd[r] / (right[r+1] + left[j-r])
			sd[r] = saved + right[r+1]*tmp
			saved = left[j-r] * tmp
		}
		sd[j] = saved
	}
}

// CalcDShape evaluates the parametric derivatives of the Order+1 nonzero
// basis functions at local element index i, coordinate xi, with the same
// flipped-element convention as CalcShape.
// Routine from "The NURBS Book" - 2nd ed - Piegl and Tiller, A2.3.
func (kv *KnotVector) CalcDShape(grad utils.Vector, i int, xi float64) {
	var (
		p  = kv.Order
		kd = kv.knot.DataP()
		gd = grad.DataP()

		ndu         [MaxOrder + 1][MaxOrder + 1]float64
		left, right [MaxOrder + 1]float64
		temp, saved float64
	)
	if p > MaxOrder {
		panic(fmt.Errorf("KnotVector.CalcDShape: Order = %d > MaxOrder", p))
	}
	ip := i + p
	if i < 0 {
		ip = -1 - i + p
	}
	var u float64
	if i >= 0 {
		u = kv.getKnotLocation(xi, ip)
	} else {
		u = kv.getKnotLocation(1.-xi, ip)
	}

	ndu[0][0] = 1.
	for j := 1; j <= p; j++ {
		left[j] = u - kd[ip-j+1]
		right[j] = kd[ip+j] - u
		saved = 0.
		for r := 0; r < j; r++ {
			ndu[j][r] = right[r+1] + left[j-r]
			temp = ndu[r][j-1] / ndu[j][r]
			ndu[r][j] = saved + right[r+1]*temp
			saved = left[j-r] * temp
		}
		ndu[j][j] = saved
	}

	for r := 0; r <= p; r++ {
		var d float64
		rk := r - 1
		pk := p - 1
		if r >= 1 {
			d = ndu[rk][pk] / ndu[p][rk]
		}
		if r <= pk {
			d -= ndu[r][pk] / ndu[p][r]
		}
		gd[r] = d
	}

	// Scale from the parametric span to the local [0,1] element coordinate;
	// reversed elements pick up the sign flip.
	var scale float64
	if i >= 0 {
		scale = float64(p) * (kd[ip+1] - kd[ip])
	} else {
		scale = float64(p) * (kd[ip] - kd[ip+1])
	}
	for r := 0; r <= p; r++ {
		gd[r] *= scale
	}
}

// findKnotSpan returns mid in [Order, NumOfControlPoints] such that u lies in
// [knot[mid-1], knot[mid]), with the closed-top special case at the final
// knot. u must be inside the valid parametric range.
func (kv *KnotVector) findKnotSpan(u float64) (mid int) {
	var (
		kd        = kv.knot.DataP()
		low, high int
	)
	if u == kd[kv.NumOfControlPoints+kv.Order] {
		mid = kv.NumOfControlPoints
	} else {
		low = kv.Order
		high = kv.NumOfControlPoints + 1
		mid = (low + high) / 2
		for (u < kd[mid-1]) || (u > kd[mid]) {
			if u < kd[mid-1] {
				high = mid
			} else {
				low = mid
			}
			mid = (low + high) / 2
		}
	}
	return
}

// Difference returns the knot values present in the larger of the two vectors
// but absent from the smaller, assuming one is a refinement of the other. The
// roles swap automatically when kv2 is the smaller.
func (kv *KnotVector) Difference(kv2 *KnotVector) (diff utils.Vector) {
	if kv.Order != kv2.GetOrder() {
		panic(fmt.Errorf("KnotVector.Difference: orders differ, %d vs %d", kv.Order, kv2.GetOrder()))
	}

	s := kv2.Size() - kv.Size()
	if s < 0 {
		return kv2.Difference(kv)
	}

	diff = utils.NewVector(s)
	var (
		dd  = diff.DataP()
		kd  = kv.knot.DataP()
		kd2 = kv2.knot.DataP()
	)
	s = 0
	var i int
	for j := 0; j < kv2.Size(); j++ {
		if i < len(kd) && kd[i] == kd2[j] {
			i++
		} else {
			dd[s] = kd2[j]
			s++
		}
	}
	return
}
