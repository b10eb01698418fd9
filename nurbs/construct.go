package nurbs

import (
	"fmt"
	"math"

	"github.com/notargets/goiga/utils"
)

// Get3DRotationMatrix builds the scaled rotation matrix for angle radians
// about the axis n (not necessarily normalized) with radial scale r. Angles
// of exactly +-pi/2 and +-pi use exact trigonometric values so that rotated
// control points land on the axes without roundoff.
func Get3DRotationMatrix(n [3]float64, angle, r float64) (T utils.Matrix) {
	var (
		c, s, c1 float64
		l2       = n[0]*n[0] + n[1]*n[1] + n[2]*n[2]
		l        = math.Sqrt(l2)
	)

	switch {
	case math.Abs(angle) == math.Pi/2:
		s = r * math.Copysign(1., angle)
		c = 0.
		c1 = -1.
	case math.Abs(angle) == math.Pi:
		s = 0.
		c = -r
		c1 = c - 1.
	default:
		s = r * math.Sin(angle)
		c = r * math.Cos(angle)
		c1 = c - 1.
	}

	T = utils.NewMatrix(3, 3)
	T.Set(0, 0, (n[0]*n[0]+(n[1]*n[1]+n[2]*n[2])*c)/l2)
	T.Set(0, 1, -(n[0]*n[1]*c1)/l2-(n[2]*s)/l)
	T.Set(0, 2, -(n[0]*n[2]*c1)/l2+(n[1]*s)/l)
	T.Set(1, 0, -(n[0]*n[1]*c1)/l2+(n[2]*s)/l)
	T.Set(1, 1, (n[1]*n[1]+(n[0]*n[0]+n[2]*n[2])*c)/l2)
	T.Set(1, 2, -(n[1]*n[2]*c1)/l2-(n[0]*s)/l)
	T.Set(2, 0, -(n[0]*n[2]*c1)/l2-(n[1]*s)/l)
	T.Set(2, 1, -(n[1]*n[2]*c1)/l2+(n[0]*s)/l)
	T.Set(2, 2, (n[2]*n[2]+(n[0]*n[0]+n[1]*n[1])*c)/l2)
	return
}

// Rotate3D rotates all control points of a 3D patch by angle radians about
// the axis n.
func (p *Patch) Rotate3D(n [3]float64, angle float64) {
	if p.Dim != 4 {
		panic(fmt.Errorf("Patch.Rotate3D: not a 3D patch"))
	}

	T := Get3DRotationMatrix(n, angle, 1.)

	size := 1
	for _, kv := range p.kv {
		size *= kv.GetNCP()
	}

	var x [3]float64
	for i := 0; i < size; i++ {
		y := p.data[i*p.Dim : i*p.Dim+3]
		copy(x[:], y)
		T.MulVec3(x[:], y)
	}
}

// newLinearKV returns the order 1, two point knot vector [0 0 1 1].
func newLinearKV() (kv *KnotVector) {
	kv = NewKnotVector(1, 2)
	kd := kv.knot.DataP()
	kd[0], kd[1] = 0., 0.
	kd[2], kd[3] = 1., 1.
	kv.GetElements()
	return
}

// Interpolate rules a patch between two compatible patches of equal
// parametric dimension, first merging their knot vectors so the control nets
// are conforming. Both inputs are refined in place.
func Interpolate(p1, p2 *Patch) (patch *Patch) {
	if len(p1.kv) != len(p2.kv) || p1.Dim != p2.Dim {
		panic(fmt.Errorf("Interpolate: incompatible patches"))
	}

	size, dim := 1, p1.Dim
	kvs := make([]*KnotVector, len(p1.kv)+1)

	for i := range p1.kv {
		if p1.kv[i].GetOrder() < p2.kv[i].GetOrder() {
			p1.KnotInsertKV(i, p2.kv[i])
			p2.KnotInsertKV(i, p1.kv[i])
		} else {
			p2.KnotInsertKV(i, p1.kv[i])
			p1.KnotInsertKV(i, p2.kv[i])
		}
		kvs[i] = p1.kv[i]
		size *= kvs[i].GetNCP()
	}

	kvs[len(kvs)-1] = newLinearKV()

	patch = NewPatch(kvs, dim)

	for i := 0; i < size; i++ {
		for d := 0; d < dim; d++ {
			patch.data[i*dim+d] = p1.data[i*dim+d]
			patch.data[(i+size)*dim+d] = p2.data[i*dim+d]
		}
	}
	return
}

// Revolve3D sweeps a 3D patch about the axis n, producing times consecutive
// circular arc segments of ang radians each. The swept direction is degree 2
// with interior knots of multiplicity two; the mid arc control points carry
// weight cos(ang/2) so each segment is an exact conic.
func Revolve3D(patch *Patch, n [3]float64, ang float64, times int) (newpatch *Patch) {
	if patch.Dim != 4 {
		panic(fmt.Errorf("Revolve3D: not a 3D patch"))
	}

	size := 1
	nkvs := make([]*KnotVector, len(patch.kv)+1)
	for i := range patch.kv {
		nkvs[i] = patch.kv[i]
		size *= nkvs[i].GetNCP()
	}

	ns := 2*times + 1
	lkv := NewKnotVector(2, ns)
	lkd := lkv.knot.DataP()
	lkd[0], lkd[1], lkd[2] = 0., 0., 0.
	for i := 1; i < times; i++ {
		lkd[2*i+1] = float64(i)
		lkd[2*i+2] = float64(i)
	}
	lkd[ns], lkd[ns+1], lkd[ns+2] = float64(times), float64(times), float64(times)
	lkv.GetElements()
	nkvs[len(nkvs)-1] = lkv

	newpatch = NewPatch(nkvs, 4)

	T := Get3DRotationMatrix(n, ang, 1.)
	c := math.Cos(ang / 2)
	T2 := Get3DRotationMatrix(n, ang/2, 1./c)
	T2.Scale(c)

	var u [3]float64
	for i := 0; i < size; i++ {
		op := patch.data[4*i : 4*i+4]
		np := i * 4
		copy(newpatch.data[np:np+4], op)
		for j := 0; j < times; j++ {
			copy(u[:], newpatch.data[np:np+3])
			uw := newpatch.data[np+3]
			np += 4 * size
			v := newpatch.data[np : np+4]
			T2.MulVec3(u[:], v[:3])
			v[3] = c * uw
			np += 4 * size
			v = newpatch.data[np : np+4]
			T.MulVec3(u[:], v[:3])
			v[3] = uw
		}
	}
	return
}
