package moonquake

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

const epsilon = 1e-9

func vecNear(a, b mgl64.Vec3, tol float64) bool {
	return math.Abs(a[0]-b[0]) <= tol && math.Abs(a[1]-b[1]) <= tol && math.Abs(a[2]-b[2]) <= tol
}

func TestLocalMatrixIdentity(t *testing.T) {
	g := NewGraph()
	n := g.Node(g.NewContainer("n"))
	if !computeLocalMatrix(n).ApproxEqual(mgl64.Ident4()) {
		t.Errorf("local matrix = %v, want identity", computeLocalMatrix(n))
	}
}

func TestLocalMatrixScaleRotateTranslate(t *testing.T) {
	g := NewGraph()
	n := g.Node(g.NewContainer("n"))
	n.SetScale(mgl64.Vec3{2, 2, 2})
	n.SetRotation(mgl64.QuatRotate(math.Pi/2, axisZ))
	n.SetPosition(mgl64.Vec3{10, 0, 0})

	got := mgl64.TransformCoordinate(mgl64.Vec3{1, 0, 0}, computeLocalMatrix(n))
	want := mgl64.Vec3{10, 2, 0}
	if !vecNear(got, want, epsilon) {
		t.Errorf("transformed = %v, want %v", got, want)
	}
}

func TestWorldTransformInheritsParent(t *testing.T) {
	g := NewGraph()
	root := g.NewContainer("root")
	child := g.NewContainer("child")
	g.AddChild(root, child)
	g.Node(root).SetPosition(mgl64.Vec3{1, 2, 3})
	g.Node(child).SetPosition(mgl64.Vec3{0, 1, 0})

	g.UpdateTransforms(root)

	got := g.Node(child).WorldPosition()
	if !vecNear(got, mgl64.Vec3{1, 3, 3}, epsilon) {
		t.Errorf("child world position = %v, want (1, 3, 3)", got)
	}
	if g.Node(child).transformDirty {
		t.Error("child should be clean after update")
	}
}

func TestWorldTransformRecomputesCleanChildren(t *testing.T) {
	g := NewGraph()
	root := g.NewContainer("root")
	child := g.NewContainer("child")
	g.AddChild(root, child)
	g.UpdateTransforms(root)

	g.Node(root).SetPosition(mgl64.Vec3{5, 0, 0})
	g.UpdateTransforms(root)

	if got := g.Node(child).WorldPosition(); !vecNear(got, mgl64.Vec3{5, 0, 0}, epsilon) {
		t.Errorf("child world position = %v, want (5, 0, 0)", got)
	}
}

func TestWorldAlphaMultiplies(t *testing.T) {
	g := NewGraph()
	root := g.NewContainer("root")
	child := g.NewContainer("child")
	g.AddChild(root, child)
	g.Node(root).SetAlpha(0.5)
	g.Node(child).SetAlpha(0.5)
	g.UpdateTransforms(root)

	if got := g.Node(child).worldAlpha; math.Abs(got-0.25) > epsilon {
		t.Errorf("worldAlpha = %v, want 0.25", got)
	}
}

func TestLocalToWorld(t *testing.T) {
	g := NewGraph()
	id := g.NewContainer("n")
	n := g.Node(id)
	n.SetPosition(mgl64.Vec3{0, 0, 1})
	n.SetUniformScale(3)
	g.UpdateTransforms(id)

	if got := n.LocalToWorld(mgl64.Vec3{1, 0, 0}); !vecNear(got, mgl64.Vec3{3, 0, 1}, epsilon) {
		t.Errorf("LocalToWorld = %v, want (3, 0, 1)", got)
	}
}

func TestFaceAwayFromPointsZOutward(t *testing.T) {
	pos := mgl64.Vec3{0, 2, 0}
	q := FaceAwayFrom(pos, mgl64.Vec3{})
	if got := q.Rotate(axisZ); !vecNear(got, axisY, 1e-9) {
		t.Errorf("+Z rotated = %v, want +Y", got)
	}
}

func TestFaceAwayFromDegenerate(t *testing.T) {
	q := FaceAwayFrom(mgl64.Vec3{1, 1, 1}, mgl64.Vec3{1, 1, 1})
	if q != mgl64.QuatIdent() {
		t.Errorf("degenerate FaceAwayFrom = %v, want identity", q)
	}
}

func TestSurfaceOrientationUpIsNormal(t *testing.T) {
	positions := []mgl64.Vec3{
		{1, 0, 0},
		{0, 1, 0},
		{0.3, -0.4, 0.866},
		{-0.5, 0.5, -0.7071},
		{0, 0, -1},
	}
	for _, p := range positions {
		q := SurfaceOrientation(p)
		up := q.Rotate(axisY)
		if !vecNear(up, p.Normalize(), 1e-6) {
			t.Errorf("SurfaceOrientation(%v): up = %v, want %v", p, up, p.Normalize())
		}
	}
}

func TestRotationBetweenNearlyOpposite(t *testing.T) {
	to := mgl64.Vec3{0.01, 0, -1}.Normalize()
	if got := rotationBetween(axisZ, to).Rotate(axisZ); !vecNear(got, to, 1e-9) {
		t.Errorf("rotated = %v, want %v", got, to)
	}
	if got := rotationBetween(axisZ, axisZ.Mul(-1)).Rotate(axisZ); !vecNear(got, axisZ.Mul(-1), 1e-12) {
		t.Errorf("opposite rotated = %v, want -Z", got)
	}
}
