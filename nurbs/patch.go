package nurbs

import (
	"fmt"
	"io"
	"math"

	"github.com/notargets/goiga/utils"
)

// Patch is a tensor product (2D or 3D) grid of weighted control points over
// two or three knot vectors. Control points are stored in homogeneous form,
// physical coordinates pre-multiplied by the weight with the weight itself as
// the last component, in a flat buffer with index0 fastest.
type Patch struct {
	kv   []*KnotVector
	Dim  int // physical dimension + 1 (homogeneous storage)
	data []float64

	ni, nj, nk int
	sd, nd     int // loop direction stride and row count, see SetLoopDirection
}

func (p *Patch) init(dim int) {
	p.Dim = dim
	p.sd, p.nd = -1, -1

	switch len(p.kv) {
	case 2:
		p.ni = p.kv[0].GetNCP()
		p.nj = p.kv[1].GetNCP()
		p.nk = -1
		p.data = make([]float64, p.ni*p.nj*p.Dim)
	case 3:
		p.ni = p.kv[0].GetNCP()
		p.nj = p.kv[1].GetNCP()
		p.nk = p.kv[2].GetNCP()
		p.data = make([]float64, p.ni*p.nj*p.nk*p.Dim)
	default:
		panic(fmt.Errorf("Patch.init: wrong number of knotvectors: %d", len(p.kv)))
	}
}

func NewPatch(kvs []*KnotVector, dim int) (p *Patch) {
	p = &Patch{kv: make([]*KnotVector, len(kvs))}
	for i, kv := range kvs {
		p.kv[i] = kv.Copy()
	}
	p.init(dim)
	return
}

// newChildPatch clones the parent's knot vectors except along dir, which gets
// a fresh placeholder vector of the given order and control point count.
func newChildPatch(parent *Patch, dir, order, NCP int) (p *Patch) {
	p = &Patch{kv: make([]*KnotVector, len(parent.kv))}
	for i := range p.kv {
		if i != dir {
			p.kv[i] = parent.kv[i].Copy()
		} else {
			p.kv[i] = NewKnotVector(order, NCP)
		}
	}
	p.init(parent.Dim)
	return
}

func ReadPatch(tr *tokenReader) (p *Patch) {
	tr.expect("knotvectors")
	pdim := tr.readInt()
	p = &Patch{kv: make([]*KnotVector, pdim)}
	size := 1
	for i := 0; i < pdim; i++ {
		p.kv[i] = ReadKnotVector(tr)
		size *= p.kv[i].GetNCP()
	}

	tr.expect("dimension")
	dim := tr.readInt()
	p.init(dim + 1)

	ident := tr.readString()
	switch ident {
	case "controlpoints", "controlpoints_homogeneous":
		for j := 0; j < size*p.Dim; j++ {
			p.data[j] = tr.readFloat()
		}
	case "controlpoints_cartesian":
		// Cartesian coordinates with a trailing weight; pre-multiply on read.
		for j := 0; j < size*p.Dim; j += p.Dim {
			for d := 0; d <= dim; d++ {
				p.data[j+d] = tr.readFloat()
			}
			for d := 0; d < dim; d++ {
				p.data[j+d] *= p.data[j+dim]
			}
		}
	default:
		panic(fmt.Errorf("ReadPatch: unknown controlpoints identifier %q", ident))
	}
	return
}

func (p *Patch) Print(w io.Writer) {
	size := 1
	fmt.Fprintf(w, "knotvectors\n%d\n", len(p.kv))
	for _, kv := range p.kv {
		kv.Print(w)
		size *= kv.GetNCP()
	}
	fmt.Fprintf(w, "\ndimension\n%d\n\ncontrolpoints\n", p.Dim-1)
	for i, j := 0, 0; i < size; i++ {
		fmt.Fprintf(w, "%.12g", p.data[j])
		j++
		for d := 1; d < p.Dim; d++ {
			fmt.Fprintf(w, " %.12g", p.data[j])
			j++
		}
		fmt.Fprintln(w)
	}
}

func (p *Patch) GetKV(i int) *KnotVector { return p.kv[i] }
func (p *Patch) NumKV() int              { return len(p.kv) }

// swap replaces p's contents with those of the donor patch, which must not be
// used afterwards.
func (p *Patch) swap(np *Patch) {
	p.data = np.data
	p.kv = np.kv
	p.ni, p.nj, p.nk = np.ni, np.nj, np.nk
	p.Dim = np.Dim
	p.sd, p.nd = -1, -1
	np.data = nil
	np.kv = nil
}

// Direct accessors into the homogeneous control net.
func (p *Patch) at2(i, j, d int) float64 { return p.data[(j*p.ni+i)*p.Dim+d] }
func (p *Patch) set2(i, j, d int, val float64) {
	p.data[(j*p.ni+i)*p.Dim+d] = val
}
func (p *Patch) at3(i, j, k, d int) float64 {
	return p.data[((k*p.nj+j)*p.ni+i)*p.Dim+d]
}
func (p *Patch) set3(i, j, k, d int, val float64) {
	p.data[((k*p.nj+j)*p.ni+i)*p.Dim+d] = val
}

// SetLoopDirection selects dir as the fast traversal axis for the row
// oriented algorithms and returns the row width: the flat buffer is then
// addressed as nd rows of that many values through lidx.
func (p *Patch) SetLoopDirection(dir int) (size int) {
	if p.nk == -1 {
		switch dir {
		case 0:
			p.sd = p.Dim
			p.nd = p.ni
			return p.nj * p.Dim
		case 1:
			p.sd = p.ni * p.Dim
			p.nd = p.nj
			return p.ni * p.Dim
		default:
			panic(fmt.Errorf("Patch.SetLoopDirection: direction error in 2D patch, dir = %d", dir))
		}
	}
	switch dir {
	case 0:
		p.sd = p.Dim
		p.nd = p.ni
		return p.nj * p.nk * p.Dim
	case 1:
		p.sd = p.ni * p.Dim
		p.nd = p.nj
		return p.ni * p.nk * p.Dim
	case 2:
		p.sd = p.ni * p.nj * p.Dim
		p.nd = p.nk
		return p.ni * p.nj * p.Dim
	default:
		panic(fmt.Errorf("Patch.SetLoopDirection: direction error in 3D patch, dir = %d", dir))
	}
}

// lidx addresses entry ll of row i in the current loop direction.
func (p *Patch) lidx(i, ll int) int {
	return ll%p.sd + p.sd*(i+(ll/p.sd)*p.nd)
}

func (p *Patch) lat(i, ll int) float64       { return p.data[p.lidx(i, ll)] }
func (p *Patch) lset(i, ll int, val float64) { p.data[p.lidx(i, ll)] = val }

// UniformRefinement inserts the midpoint of every knot span along every
// direction.
func (p *Patch) UniformRefinement() {
	for dir := range p.kv {
		newknots := p.kv[dir].UniformRefinement()
		p.KnotInsert(dir, newknots)
	}
}

// KnotInsertKVs merges each direction's knot vector with the corresponding
// target vector.
func (p *Patch) KnotInsertKVs(newkv []*KnotVector) {
	for dir := range p.kv {
		p.KnotInsertKV(dir, newkv[dir])
	}
}

// KnotInsertKV refines direction dir to the target knot vector: the patch is
// degree elevated first when the target order is higher, then the missing
// knot values are inserted.
func (p *Patch) KnotInsertKV(dir int, newkv *KnotVector) {
	if dir >= len(p.kv) || dir < 0 {
		panic(fmt.Errorf("Patch.KnotInsertKV: incorrect direction %d", dir))
	}
	t := newkv.GetOrder() - p.kv[dir].GetOrder()
	if t > 0 {
		p.DegreeElevate(dir, t)
	} else if t < 0 {
		panic(fmt.Errorf("Patch.KnotInsertKV: incorrect order %d < %d", newkv.GetOrder(), p.kv[dir].GetOrder()))
	}

	diff := p.kv[dir].Difference(newkv)
	if diff.Len() > 0 {
		p.KnotInsert(dir, diff)
	}
}

// KnotInsert inserts the given non-decreasing knot values along direction
// dir, leaving the represented geometry unchanged.
// Routine from "The NURBS Book" - 2nd ed - Piegl and Tiller, A5.5, applied
// per row of the loop-direction view.
func (p *Patch) KnotInsert(dir int, knot utils.Vector) {
	if dir >= len(p.kv) || dir < 0 {
		panic(fmt.Errorf("Patch.KnotInsert: incorrect direction %d", dir))
	}
	var (
		oldp  = p
		oldkv = p.kv[dir]
		kd    = knot.DataP()
	)
	newpatch := newChildPatch(p, dir, oldkv.GetOrder(), oldkv.GetNCP()+knot.Len())
	newp := newpatch
	newkv := newp.GetKV(dir)
	var (
		okd = oldkv.knot.DataP()
		nkd = newkv.knot.DataP()
	)

	size := oldp.SetLoopDirection(dir)
	if size != newp.SetLoopDirection(dir) {
		panic(fmt.Errorf("Patch.KnotInsert: size mismatch"))
	}

	rr := knot.Len() - 1
	a := oldkv.findKnotSpan(kd[0]) - 1
	b := oldkv.findKnotSpan(kd[rr]) - 1
	pl := oldkv.GetOrder()
	ml := oldkv.GetNCP()

	for j := 0; j <= a; j++ {
		nkd[j] = okd[j]
	}
	for j := b + pl; j <= ml+pl; j++ {
		nkd[j+rr+1] = okd[j]
	}
	for k := 0; k <= a-pl; k++ {
		for ll := 0; ll < size; ll++ {
			newp.lset(k, ll, oldp.lat(k, ll))
		}
	}
	for k := b - 1; k < ml; k++ {
		for ll := 0; ll < size; ll++ {
			newp.lset(k+rr+1, ll, oldp.lat(k, ll))
		}
	}

	i := b + pl - 1
	k := b + pl + rr

	for j := rr; j >= 0; j-- {
		for kd[j] <= okd[i] && i > a {
			nkd[k] = okd[i]
			for ll := 0; ll < size; ll++ {
				newp.lset(k-pl-1, ll, oldp.lat(i-pl-1, ll))
			}
			k--
			i--
		}

		for ll := 0; ll < size; ll++ {
			newp.lset(k-pl-1, ll, newp.lat(k-pl, ll))
		}

		for l := 1; l <= pl; l++ {
			ind := k - pl + l
			alfa := nkd[k+l] - kd[j]
			if math.Abs(alfa) == 0. {
				for ll := 0; ll < size; ll++ {
					newp.lset(ind-1, ll, newp.lat(ind, ll))
				}
			} else {
				alfa = alfa / (nkd[k+l] - okd[i-pl+l])
				for ll := 0; ll < size; ll++ {
					newp.lset(ind-1, ll, alfa*newp.lat(ind-1, ll)+(1.-alfa)*newp.lat(ind, ll))
				}
			}
		}

		nkd[k] = kd[j]
		k--
	}

	newkv.GetElements()

	p.swap(newpatch)
}

// DegreeElevateAll raises the order along every direction by t.
func (p *Patch) DegreeElevateAll(t int) {
	for dir := range p.kv {
		p.DegreeElevate(dir, t)
	}
}

// DegreeElevate raises the order along direction dir by t without changing
// the represented geometry: each knot span segment is converted to Bezier
// form, elevated, and the excess continuity removed in the merge step.
// Routine from "The NURBS Book" - 2nd ed - Piegl and Tiller, A5.9, applied
// per row of the loop-direction view.
func (p *Patch) DegreeElevate(dir, t int) {
	if dir >= len(p.kv) || dir < 0 {
		panic(fmt.Errorf("Patch.DegreeElevate: incorrect direction %d", dir))
	}
	var (
		oldp  = p
		oldkv = p.kv[dir]
	)
	newpatch := newChildPatch(p, dir, oldkv.GetOrder()+t,
		oldkv.GetNCP()+oldkv.GetNE()*t)
	newp := newpatch
	newkv := newp.GetKV(dir)
	var (
		okd = oldkv.knot.DataP()
		nkd = newkv.knot.DataP()
	)

	size := oldp.SetLoopDirection(dir)
	if size != newp.SetLoopDirection(dir) {
		panic(fmt.Errorf("Patch.DegreeElevate: size mismatch"))
	}

	var (
		pp = oldkv.GetOrder()
		n  = oldkv.GetNCP() - 1

		bezalfs  = utils.NewMatrix(pp+t+1, pp+1)
		bpts     = utils.NewMatrix(pp+1, size)
		ebpts    = utils.NewMatrix(pp+t+1, size)
		nextbpts = utils.NewMatrix(maxInt(pp-1, 1), size)
		alphas   = utils.NewVector(maxInt(pp-1, 1))
		alf      = alphas.DataP()

		m   = n + pp + 1
		ph  = pp + t
		ph2 = ph / 2
	)

	// Bezier degree elevation coefficients from the binomial table.
	{
		binom := make([][]int, ph+1)
		for i := 0; i <= ph; i++ {
			binom[i] = make([]int, ph+1)
			binom[i][0] = 1
			binom[i][i] = 1
			for j := 1; j < i; j++ {
				binom[i][j] = binom[i-1][j] + binom[i-1][j-1]
			}
		}

		bezalfs.Set(0, 0, 1.)
		bezalfs.Set(ph, pp, 1.)

		for i := 1; i <= ph2; i++ {
			inv := 1. / float64(binom[ph][i])
			mpi := minInt(pp, i)
			for j := maxInt(0, i-t); j <= mpi; j++ {
				bezalfs.Set(i, j, inv*float64(binom[pp][j]*binom[t][i-j]))
			}
		}
	}

	for i := ph2 + 1; i < ph; i++ {
		mpi := minInt(pp, i)
		for j := maxInt(0, i-t); j <= mpi; j++ {
			bezalfs.Set(i, j, bezalfs.At(ph-i, pp-j))
		}
	}

	kind := ph + 1
	r := -1
	a := pp
	b := pp + 1
	cind := 1
	ua := okd[0]
	for l := 0; l < size; l++ {
		newp.lset(0, l, oldp.lat(0, l))
	}
	for i := 0; i <= ph; i++ {
		nkd[i] = ua
	}

	for i := 0; i <= pp; i++ {
		for l := 0; l < size; l++ {
			bpts.Set(i, l, oldp.lat(i, l))
		}
	}

	for b < m {
		i := b
		for b < m && okd[b] == okd[b+1] {
			b++
		}

		mul := b - i + 1
		ub := okd[b]
		oldr := r
		r = pp - mul

		var lbz, rbz int
		if oldr > 0 {
			lbz = (oldr + 2) / 2
		} else {
			lbz = 1
		}
		if r > 0 {
			rbz = ph - (r+1)/2
		} else {
			rbz = ph
		}

		if r > 0 {
			numer := ub - ua
			for k := pp; k > mul; k-- {
				alf[k-mul-1] = numer / (okd[a+k] - ua)
			}
			for j := 1; j <= r; j++ {
				save := r - j
				s := mul + j
				for k := pp; k >= s; k-- {
					for l := 0; l < size; l++ {
						bpts.Set(k, l, alf[k-s]*bpts.At(k, l)+
							(1.-alf[k-s])*bpts.At(k-1, l))
					}
				}
				for l := 0; l < size; l++ {
					nextbpts.Set(save, l, bpts.At(pp, l))
				}
			}
		}

		for i := lbz; i <= ph; i++ {
			for l := 0; l < size; l++ {
				ebpts.Set(i, l, 0.)
			}
			mpi := minInt(pp, i)
			for j := maxInt(0, i-t); j <= mpi; j++ {
				for l := 0; l < size; l++ {
					ebpts.Set(i, l, ebpts.At(i, l)+bezalfs.At(i, j)*bpts.At(j, l))
				}
			}
		}

		if oldr > 1 {
			first := kind - 2
			last := kind
			den := ub - ua
			bet := (ub - nkd[kind-1]) / den

			for tr := 1; tr < oldr; tr++ {
				i := first
				j := last
				kj := j - kind + 1
				for j-i > tr {
					if i < cind {
						alfa := (ub - nkd[i]) / (ua - nkd[i])
						for l := 0; l < size; l++ {
							newp.lset(i, l, alfa*newp.lat(i, l)-(1.-alfa)*newp.lat(i-1, l))
						}
					}
					if j >= lbz {
						if j-tr <= kind-ph+oldr {
							gam := (ub - nkd[j-tr]) / den
							for l := 0; l < size; l++ {
								ebpts.Set(kj, l, gam*ebpts.At(kj, l)+(1.-gam)*ebpts.At(kj+1, l))
							}
						} else {
							for l := 0; l < size; l++ {
								ebpts.Set(kj, l, bet*ebpts.At(kj, l)+(1.-bet)*ebpts.At(kj+1, l))
							}
						}
					}
					i++
					j--
					kj--
				}
				first--
				last++
			}
		}

		if a != pp {
			for i := 0; i < ph-oldr; i++ {
				nkd[kind] = ua
				kind++
			}
		}
		for j := lbz; j <= rbz; j++ {
			for l := 0; l < size; l++ {
				newp.lset(cind, l, ebpts.At(j, l))
			}
			cind++
		}

		if b < m {
			for j := 0; j < r; j++ {
				for l := 0; l < size; l++ {
					bpts.Set(j, l, nextbpts.At(j, l))
				}
			}
			for j := r; j <= pp; j++ {
				for l := 0; l < size; l++ {
					bpts.Set(j, l, oldp.lat(b-pp+j, l))
				}
			}
			a = b
			b++
			ua = ub
		} else {
			for i := 0; i <= ph; i++ {
				nkd[kind+i] = ub
			}
		}
	}
	newkv.GetElements()

	p.swap(newpatch)
}

// FlipDirection reverses the control point order along dir and flips the
// corresponding knot vector.
func (p *Patch) FlipDirection(dir int) {
	size := p.SetLoopDirection(dir)

	for id := 0; id < p.nd/2; id++ {
		for i := 0; i < size; i++ {
			tmp := p.lat(id, i)
			p.lset(id, i, p.lat(p.nd-1-id, i))
			p.lset(p.nd-1-id, i, tmp)
		}
	}
	p.kv[dir].Flip()
}

// SwapDirections exchanges two parametric axes. The 0/2 swap in 3D is not
// supported; compose two consecutive swaps instead.
func (p *Patch) SwapDirections(dir1, dir2 int) {
	if absInt(dir1-dir2) == 2 {
		panic(fmt.Errorf("Patch.SwapDirections: directions 0 and 2 are not supported"))
	}
	nkv := make([]*KnotVector, len(p.kv))
	copy(nkv, p.kv)
	nkv[dir1], nkv[dir2] = nkv[dir2], nkv[dir1]
	newpatch := NewPatch(nkv, p.Dim)

	size := p.SetLoopDirection(dir1)
	newpatch.SetLoopDirection(dir2)

	for id := 0; id < p.nd; id++ {
		for i := 0; i < size; i++ {
			newpatch.lset(id, i, p.lat(id, i))
		}
	}

	p.swap(newpatch)
}

// MakeUniformDegree elevates every axis whose order is below the maximum
// observed order and returns the shared order.
func (p *Patch) MakeUniformDegree() (maxd int) {
	maxd = -1
	for dir := range p.kv {
		if maxd < p.kv[dir].GetOrder() {
			maxd = p.kv[dir].GetOrder()
		}
	}
	for dir := range p.kv {
		if maxd > p.kv[dir].GetOrder() {
			p.DegreeElevate(dir, maxd-p.kv[dir].GetOrder())
		}
	}
	return
}

// PointAt evaluates the physical surface/volume point at the given parameter
// values, one per direction, by the weighted tensor product of the nonzero
// basis functions. Follows the surface evaluation in go-verb.
func (p *Patch) PointAt(params ...float64) (pt []float64) {
	if len(params) != len(p.kv) {
		panic(fmt.Errorf("Patch.PointAt: expected %d parameters, got %d", len(p.kv), len(params)))
	}
	var (
		elem   [3]int
		shapes [3]utils.Vector
	)
	for dir, u := range params {
		kv := p.kv[dir]
		ip := kv.findKnotSpan(u) - 1
		kd := kv.knot.DataP()
		// a repeated interior knot leaves zero length spans behind the
		// located one
		for kd[ip+1] == kd[ip] {
			ip++
		}
		xi := (u - kd[ip]) / (kd[ip+1] - kd[ip])
		elem[dir] = ip - kv.GetOrder()
		shapes[dir] = utils.NewVector(kv.GetOrder() + 1)
		kv.CalcShape(shapes[dir], elem[dir], xi)
	}

	hp := make([]float64, p.Dim)
	if p.nk == -1 {
		for jj := 0; jj <= p.kv[1].GetOrder(); jj++ {
			for ii := 0; ii <= p.kv[0].GetOrder(); ii++ {
				w := shapes[0].AtVec(ii) * shapes[1].AtVec(jj)
				for d := 0; d < p.Dim; d++ {
					hp[d] += w * p.at2(elem[0]+ii, elem[1]+jj, d)
				}
			}
		}
	} else {
		for kk := 0; kk <= p.kv[2].GetOrder(); kk++ {
			for jj := 0; jj <= p.kv[1].GetOrder(); jj++ {
				for ii := 0; ii <= p.kv[0].GetOrder(); ii++ {
					w := shapes[0].AtVec(ii) * shapes[1].AtVec(jj) * shapes[2].AtVec(kk)
					for d := 0; d < p.Dim; d++ {
						hp[d] += w * p.at3(elem[0]+ii, elem[1]+jj, elem[2]+kk, d)
					}
				}
			}
		}
	}

	pt = make([]float64, p.Dim-1)
	for d := range pt {
		pt[d] = hp[d] / hp[p.Dim-1]
	}
	return
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func absInt(a int) int {
	if a < 0 {
		return -a
	}
	return a
}
