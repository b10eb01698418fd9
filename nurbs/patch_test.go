package nurbs

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/notargets/goiga/utils"
)

// skewPatch2D is a bilinear patch over a non-rectangular quadrilateral, unit
// weights.
func skewPatch2D() (p *Patch) {
	kvs := []*KnotVector{
		NewKnotVectorFromKnots(1, []float64{0, 0, 1, 1}),
		NewKnotVectorFromKnots(1, []float64{0, 0, 1, 1}),
	}
	p = NewPatch(kvs, 3)
	pts := [4][2]float64{{0, 0}, {2, 0}, {0.5, 1}, {2.5, 1.5}}
	for idx, pt := range pts {
		i, j := idx%2, idx/2
		p.set2(i, j, 0, pt[0])
		p.set2(i, j, 1, pt[1])
		p.set2(i, j, 2, 1.)
	}
	return
}

// skewMap is the bilinear map the control net of skewPatch2D represents.
func skewMap(u, v float64) (x, y float64) {
	pts := [4][2]float64{{0, 0}, {2, 0}, {0.5, 1}, {2.5, 1.5}}
	w := [4]float64{(1 - u) * (1 - v), u * (1 - v), (1 - u) * v, u * v}
	for i := range pts {
		x += w[i] * pts[i][0]
		y += w[i] * pts[i][1]
	}
	return
}

func TestPatchEvaluation(t *testing.T) {
	p := skewPatch2D()
	for _, u := range []float64{0., 0.25, 0.5, 1.} {
		for _, v := range []float64{0., 0.3, 1.} {
			x, y := skewMap(u, v)
			pt := p.PointAt(u, v)
			assert.True(t, near(pt[0], x))
			assert.True(t, near(pt[1], y))
		}
	}
}

func TestPatchRefinementPreservesGeometry(t *testing.T) {
	samples := []float64{0., 0.2, 0.45, 0.5, 0.8, 1.}

	check := func(p *Patch) {
		for _, u := range samples {
			for _, v := range samples {
				x, y := skewMap(u, v)
				pt := p.PointAt(u, v)
				assert.True(t, near(pt[0], x))
				assert.True(t, near(pt[1], y))
			}
		}
	}

	// knot insertion
	p := skewPatch2D()
	p.KnotInsert(0, utils.NewVector(2, []float64{0.25, 0.75}))
	p.KnotInsert(1, utils.NewVector(1, []float64{0.5}))
	assert.Equal(t, 4, p.GetKV(0).GetNCP())
	assert.Equal(t, 3, p.GetKV(1).GetNCP())
	check(p)

	// degree elevation
	p = skewPatch2D()
	p.DegreeElevateAll(2)
	assert.Equal(t, 3, p.GetKV(0).GetOrder())
	assert.Equal(t, 3, p.GetKV(1).GetOrder())
	check(p)

	// uniform refinement, repeated
	p = skewPatch2D()
	p.UniformRefinement()
	p.UniformRefinement()
	assert.Equal(t, 4, p.GetKV(0).GetNE())
	check(p)

	// elevation after insertion exercises the Bezier merge step
	p = skewPatch2D()
	p.KnotInsert(0, utils.NewVector(1, []float64{0.5}))
	p.DegreeElevate(0, 1)
	assert.Equal(t, 2, p.GetKV(0).GetOrder())
	check(p)

	// refinement to a target knot vector of higher order
	p = skewPatch2D()
	p.KnotInsertKV(0, NewKnotVectorFromKnots(2, []float64{0, 0, 0, 0.5, 1, 1, 1}))
	assert.Equal(t, 2, p.GetKV(0).GetOrder())
	assert.Equal(t, 2, p.GetKV(0).GetNE())
	check(p)

	// full multiplicity interior knot; evaluation exactly at the repeated
	// knot must skip the zero length span
	p = skewPatch2D()
	p.DegreeElevateAll(1)
	p.KnotInsert(0, utils.NewVector(2, []float64{0.5, 0.5}))
	assert.Equal(t, 2, p.GetKV(0).GetNE())
	check(p)
}

func TestPatchDirections(t *testing.T) {
	samples := []float64{0., 0.3, 0.7, 1.}

	// flipping a direction reverses its parametrization
	p := skewPatch2D()
	p.UniformRefinement()
	p.FlipDirection(0)
	for _, u := range samples {
		for _, v := range samples {
			x, y := skewMap(1.-u, v)
			pt := p.PointAt(u, v)
			assert.True(t, near(pt[0], x))
			assert.True(t, near(pt[1], y))
		}
	}
	p.FlipDirection(0)
	pt := p.PointAt(0.3, 0.7)
	x, y := skewMap(0.3, 0.7)
	assert.True(t, near(pt[0], x))
	assert.True(t, near(pt[1], y))

	// swapping directions transposes the parameters
	p = skewPatch2D()
	p.KnotInsert(0, utils.NewVector(1, []float64{0.5}))
	p.SwapDirections(0, 1)
	assert.Equal(t, 3, p.GetKV(1).GetNCP())
	for _, u := range samples {
		for _, v := range samples {
			x, y = skewMap(v, u)
			pt = p.PointAt(u, v)
			assert.True(t, near(pt[0], x))
			assert.True(t, near(pt[1], y))
		}
	}

	// degree unification
	p = skewPatch2D()
	p.DegreeElevate(0, 2)
	maxd := p.MakeUniformDegree()
	assert.Equal(t, 3, maxd)
	assert.Equal(t, 3, p.GetKV(1).GetOrder())
}

func TestPatchIO(t *testing.T) {
	p := skewPatch2D()
	p.DegreeElevateAll(1)

	var buf bytes.Buffer
	p.Print(&buf)
	fmt.Printf("%s", buf.String())

	np := ReadPatch(newTokenReader(strings.NewReader(buf.String())))
	assert.Equal(t, p.NumKV(), np.NumKV())
	assert.Equal(t, p.Dim, np.Dim)
	for i := 0; i < p.NumKV(); i++ {
		assert.Equal(t, p.GetKV(i).GetNCP(), np.GetKV(i).GetNCP())
	}
	for _, u := range []float64{0., 0.4, 1.} {
		pt1 := p.PointAt(u, 1.-u)
		pt2 := np.PointAt(u, 1.-u)
		assert.True(t, near(pt1[0], pt2[0]))
		assert.True(t, near(pt1[1], pt2[1]))
	}
}

func TestRotationMatrix(t *testing.T) {
	// exact quarter turn about z
	T := Get3DRotationMatrix([3]float64{0, 0, 1}, math.Pi/2, 1.)
	var y [3]float64
	T.MulVec3([]float64{1, 0, 0}, y[:])
	assert.True(t, near(y[0], 0.))
	assert.True(t, near(y[1], 1.))
	assert.True(t, near(y[2], 0.))

	// exact half turn
	T = Get3DRotationMatrix([3]float64{0, 0, 1}, math.Pi, 1.)
	T.MulVec3([]float64{1, 0, 0}, y[:])
	assert.True(t, near(y[0], -1.))
	assert.True(t, near(y[1], 0.))

	// generic angle about a skew axis keeps length
	T = Get3DRotationMatrix([3]float64{1, 1, 0}, 0.4, 1.)
	T.MulVec3([]float64{0.3, -0.2, 0.9}, y[:])
	l0 := math.Sqrt(0.3*0.3 + 0.2*0.2 + 0.9*0.9)
	l1 := math.Sqrt(y[0]*y[0] + y[1]*y[1] + y[2]*y[2])
	assert.True(t, near(l0, l1))
}

// annulusStrip3D is a bilinear patch spanning radii 1 to 2 on the x axis,
// heights 0 to 1, ready to be revolved about z.
func annulusStrip3D() (p *Patch) {
	kvs := []*KnotVector{
		NewKnotVectorFromKnots(1, []float64{0, 0, 1, 1}),
		NewKnotVectorFromKnots(1, []float64{0, 0, 1, 1}),
	}
	p = NewPatch(kvs, 4)
	for j := 0; j < 2; j++ {
		for i := 0; i < 2; i++ {
			p.set2(i, j, 0, float64(1+i))
			p.set2(i, j, 1, 0.)
			p.set2(i, j, 2, float64(j))
			p.set2(i, j, 3, 1.)
		}
	}
	return
}

func TestRevolve3D(t *testing.T) {
	{
		p := annulusStrip3D()
		np := Revolve3D(p, [3]float64{0, 0, 1}, math.Pi/2, 1)
		assert.Equal(t, 3, np.NumKV())
		assert.Equal(t, 2, np.GetKV(2).GetOrder())
		assert.Equal(t, 3, np.GetKV(2).GetNCP())

		pt := np.PointAt(0, 0, 0)
		assert.True(t, near(pt[0], 1.) && near(pt[1], 0.) && near(pt[2], 0.))
		pt = np.PointAt(0, 0, 1)
		assert.True(t, near(pt[0], 0.) && near(pt[1], 1.))
		pt = np.PointAt(1, 1, 1)
		assert.True(t, near(pt[0], 0.) && near(pt[1], 2.) && near(pt[2], 1.))

		// every parameter on the swept arc lies exactly on the circle
		for _, s := range []float64{0.1, 0.333, 0.5, 0.8} {
			pt = np.PointAt(0, 0, s)
			assert.True(t, near(math.Hypot(pt[0], pt[1]), 1.))
			pt = np.PointAt(1, 0.5, s)
			assert.True(t, near(math.Hypot(pt[0], pt[1]), 2.))
		}
		pt = np.PointAt(0, 0, 0.5)
		assert.True(t, near(pt[0], math.Sqrt2/2))
		assert.True(t, near(pt[1], math.Sqrt2/2))
	}
	// two segments sweep a half circle
	{
		p := annulusStrip3D()
		np := Revolve3D(p, [3]float64{0, 0, 1}, math.Pi/2, 2)
		assert.Equal(t, 5, np.GetKV(2).GetNCP())

		pt := np.PointAt(0, 0, 1)
		assert.True(t, near(pt[0], 0.) && near(pt[1], 1.))
		pt = np.PointAt(0, 0, 2)
		assert.True(t, near(pt[0], -1.) && near(pt[1], 0.))
	}
}

func TestRotate3D(t *testing.T) {
	p := annulusStrip3D()
	p.Rotate3D([3]float64{0, 0, 1}, math.Pi/2)
	pt := p.PointAt(0, 1)
	assert.True(t, near(pt[0], 0.))
	assert.True(t, near(pt[1], 1.))
	assert.True(t, near(pt[2], 1.))
}

func TestInterpolate(t *testing.T) {
	p1 := skewPatch2D()
	p2 := skewPatch2D()
	// offset the second patch and refine it so the knot vectors disagree
	for j := 0; j < 2; j++ {
		for i := 0; i < 2; i++ {
			p2.set2(i, j, 0, p2.at2(i, j, 0)+3.)
		}
	}
	p2.KnotInsert(0, utils.NewVector(1, []float64{0.5}))

	patch := Interpolate(p1, p2)
	assert.Equal(t, 3, patch.NumKV())
	assert.Equal(t, 1, patch.GetKV(2).GetOrder())
	// both inputs were refined to the merged knot vector
	assert.Equal(t, p1.GetKV(0).GetNCP(), p2.GetKV(0).GetNCP())

	for _, u := range []float64{0., 0.3, 0.75, 1.} {
		for _, v := range []float64{0., 0.5, 1.} {
			x, y := skewMap(u, v)
			pt := patch.PointAt(u, v, 0)
			assert.True(t, near(pt[0], x))
			assert.True(t, near(pt[1], y))
			pt = patch.PointAt(u, v, 1)
			assert.True(t, near(pt[0], x+3.))
			assert.True(t, near(pt[1], y))
			// ruling is linear between the faces
			pt = patch.PointAt(u, v, 0.5)
			assert.True(t, near(pt[0], x+1.5))
			assert.True(t, near(pt[1], y))
		}
	}
}
