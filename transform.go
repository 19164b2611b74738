package moonquake

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// computeLocalMatrix computes the local matrix from the node's transform
// properties.
//
// Composition order:
//
//	Scale -> Rotate -> Translate(Position)
func computeLocalMatrix(n *Node) mgl64.Mat4 {
	t := mgl64.Translate3D(n.Position[0], n.Position[1], n.Position[2])
	r := n.Rotation.Mat4()
	s := mgl64.Scale3D(n.Scale[0], n.Scale[1], n.Scale[2])
	return t.Mul4(r).Mul4(s)
}

// updateWorldTransforms recomputes world matrices and alpha below id.
// parentRecomputed forces recomputation of clean children.
func (g *Graph) updateWorldTransforms(id NodeID, parent mgl64.Mat4, parentAlpha float64, parentRecomputed bool) {
	n := g.Node(id)
	if n == nil {
		return
	}
	recompute := n.transformDirty || parentRecomputed
	if recompute {
		n.worldMatrix = parent.Mul4(computeLocalMatrix(n))
		n.worldAlpha = parentAlpha * n.Alpha
		n.transformDirty = false
	}
	for _, c := range n.children {
		g.updateWorldTransforms(c, n.worldMatrix, n.worldAlpha, recompute)
	}
}

// UpdateTransforms refreshes the world matrix of id and every descendant.
func (g *Graph) UpdateTransforms(id NodeID) {
	g.updateWorldTransforms(id, mgl64.Ident4(), 1, false)
}

// --- Transform property setters ---

// SetPosition sets the node's local position and marks it dirty.
func (n *Node) SetPosition(p mgl64.Vec3) {
	n.Position = p
	n.transformDirty = true
}

// SetRotation sets the node's local orientation and marks it dirty.
func (n *Node) SetRotation(q mgl64.Quat) {
	n.Rotation = q
	n.transformDirty = true
}

// SetScale sets the node's local scale and marks it dirty.
func (n *Node) SetScale(s mgl64.Vec3) {
	n.Scale = s
	n.transformDirty = true
}

// SetUniformScale sets all three scale components to s.
func (n *Node) SetUniformScale(s float64) {
	n.SetScale(mgl64.Vec3{s, s, s})
}

// SetAlpha sets the node's alpha and marks it dirty.
func (n *Node) SetAlpha(a float64) {
	n.Alpha = a
	n.transformDirty = true
}

// SetVisible toggles rendering of the node and its subtree.
func (n *Node) SetVisible(v bool) {
	n.Visible = v
}

// MarkDirty marks the node's transform as dirty, forcing recomputation
// on the next frame. Useful after bulk-setting fields directly.
func (n *Node) MarkDirty() {
	n.transformDirty = true
}

// WorldPosition returns the translation part of the last computed world matrix.
func (n *Node) WorldPosition() mgl64.Vec3 {
	return n.worldMatrix.Col(3).Vec3()
}

// LocalToWorld converts a local-space point to world space using the last
// computed world matrix.
func (n *Node) LocalToWorld(p mgl64.Vec3) mgl64.Vec3 {
	return mgl64.TransformCoordinate(p, n.worldMatrix)
}

// --- Orientation helpers ---

var (
	axisX = mgl64.Vec3{1, 0, 0}
	axisY = mgl64.Vec3{0, 1, 0}
	axisZ = mgl64.Vec3{0, 0, 1}
)

// FaceAwayFrom returns the rotation that points the local +Z axis from
// center through position. A position equal to center yields identity.
func FaceAwayFrom(position, center mgl64.Vec3) mgl64.Quat {
	dir := position.Sub(center)
	if dir.Len() < 1e-12 {
		return mgl64.QuatIdent()
	}
	return rotationBetween(axisZ, dir.Normalize())
}

// rotationBetween returns the shortest rotation taking unit vector from onto
// unit vector to. Opposite vectors rotate half a turn about an axis
// perpendicular to from.
func rotationBetween(from, to mgl64.Vec3) mgl64.Quat {
	d := from.Dot(to)
	if d < -1+1e-12 {
		axis := axisX.Cross(from)
		if axis.Len() < 1e-6 {
			axis = axisY.Cross(from)
		}
		return mgl64.QuatRotate(math.Pi, axis.Normalize())
	}
	s := math.Sqrt((1 + d) * 2)
	return mgl64.Quat{W: s / 2, V: from.Cross(to).Mul(1 / s)}.Normalize()
}

// SurfaceOrientation returns the rotation that stands a model upright on a
// sphere centred at the origin: +Z is first pointed away from the centre,
// then the model is turned a quarter turn about its local X axis so that its
// +Y axis coincides with the surface normal.
func SurfaceOrientation(position mgl64.Vec3) mgl64.Quat {
	away := FaceAwayFrom(position, mgl64.Vec3{})
	return away.Mul(mgl64.QuatRotate(math.Pi/2, axisX)).Normalize()
}
