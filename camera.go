package moonquake

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// maxPitch keeps the orbit away from the poles where the up vector degenerates.
const maxPitch = math.Pi/2 - 0.01

// orbitAnim holds active orbit-to tweens for yaw, pitch and distance.
type orbitAnim struct {
	tweenYaw   *gween.Tween
	tweenPitch *gween.Tween
	tweenDist  *gween.Tween
	doneYaw    bool
	donePitch  bool
	doneDist   bool
}

// Camera is a perspective orbit camera. It looks at Target from Distance
// units away, in the direction given by Yaw (about +Y) and Pitch (above the
// XZ plane). Yaw 0 and Pitch 0 place the eye on +Z.
type Camera struct {
	Target   mgl64.Vec3
	Distance float64
	Yaw      float64
	Pitch    float64
	// FOV is the vertical field of view in radians.
	FOV       float64
	Near, Far float64
	// Viewport is the screen-space rectangle this camera renders into.
	Viewport Rect

	// MinDistance and MaxDistance bound Zoom. Zero disables a bound.
	MinDistance, MaxDistance float64
	// AutoRotate is added to Yaw every second while no orbit tween runs.
	AutoRotate float64

	view     mgl64.Mat4
	viewProj mgl64.Mat4
	invVP    mgl64.Mat4
	dirty    bool

	orbitTween *orbitAnim
}

// newCamera creates a Camera with default values and the given viewport.
func newCamera(viewport Rect) *Camera {
	return &Camera{
		Distance:    3,
		FOV:         mgl64.DegToRad(45),
		Near:        0.01,
		Far:         100,
		Viewport:    viewport,
		MinDistance: 1.2,
		MaxDistance: 8,
		dirty:       true,
	}
}

// Eye returns the world-space camera position.
func (c *Camera) Eye() mgl64.Vec3 {
	cp := math.Cos(c.Pitch)
	dir := mgl64.Vec3{cp * math.Sin(c.Yaw), math.Sin(c.Pitch), cp * math.Cos(c.Yaw)}
	return c.Target.Add(dir.Mul(c.Distance))
}

// Rotate orbits the camera by the given yaw and pitch deltas in radians.
// Pitch is clamped short of the poles.
func (c *Camera) Rotate(dyaw, dpitch float64) {
	c.Yaw += dyaw
	c.Pitch = clampPitch(c.Pitch + dpitch)
	c.dirty = true
}

// Zoom multiplies the orbit distance by factor, honoring MinDistance and
// MaxDistance.
func (c *Camera) Zoom(factor float64) {
	c.Distance = c.clampDistance(c.Distance * factor)
	c.dirty = true
}

// OrbitTo animates yaw, pitch and distance to the given values over duration
// seconds. Yaw takes the shortest way around.
func (c *Camera) OrbitTo(yaw, pitch, distance float64, duration float32, easeFn ease.TweenFunc) {
	yaw = c.Yaw + wrapAngle(yaw-c.Yaw)
	c.orbitTween = &orbitAnim{
		tweenYaw:   gween.New(float32(c.Yaw), float32(yaw), duration, easeFn),
		tweenPitch: gween.New(float32(c.Pitch), float32(clampPitch(pitch)), duration, easeFn),
		tweenDist:  gween.New(float32(c.Distance), float32(c.clampDistance(distance)), duration, easeFn),
	}
}

// LookAtPoint animates the camera so that p sits in front of the target,
// keeping the current distance.
func (c *Camera) LookAtPoint(p mgl64.Vec3, duration float32, easeFn ease.TweenFunc) {
	yaw, pitch, ok := orbitAngles(p.Sub(c.Target))
	if !ok {
		return
	}
	c.OrbitTo(yaw, pitch, c.Distance, duration, easeFn)
}

// Orbiting reports whether an OrbitTo animation is in progress.
func (c *Camera) Orbiting() bool {
	return c.orbitTween != nil
}

// update advances the orbit animation and auto-rotation. Called from Scene.Update().
func (c *Camera) update(dt float32) {
	prevYaw, prevPitch, prevDist := c.Yaw, c.Pitch, c.Distance

	if c.orbitTween != nil {
		if !c.orbitTween.doneYaw {
			val, done := c.orbitTween.tweenYaw.Update(dt)
			c.Yaw = float64(val)
			c.orbitTween.doneYaw = done
		}
		if !c.orbitTween.donePitch {
			val, done := c.orbitTween.tweenPitch.Update(dt)
			c.Pitch = float64(val)
			c.orbitTween.donePitch = done
		}
		if !c.orbitTween.doneDist {
			val, done := c.orbitTween.tweenDist.Update(dt)
			c.Distance = float64(val)
			c.orbitTween.doneDist = done
		}
		if c.orbitTween.doneYaw && c.orbitTween.donePitch && c.orbitTween.doneDist {
			c.orbitTween = nil
		}
	} else if c.AutoRotate != 0 {
		c.Yaw = math.Mod(c.Yaw+c.AutoRotate*float64(dt), 2*math.Pi)
	}

	if c.Yaw != prevYaw || c.Pitch != prevPitch || c.Distance != prevDist {
		c.dirty = true
	}
}

// computeViewProjection recomputes the cached matrices if dirty.
func (c *Camera) computeViewProjection() mgl64.Mat4 {
	if !c.dirty {
		return c.viewProj
	}
	c.dirty = false

	aspect := 1.0
	if c.Viewport.Height > 0 {
		aspect = c.Viewport.Width / c.Viewport.Height
	}
	proj := mgl64.Perspective(c.FOV, aspect, c.Near, c.Far)
	c.view = mgl64.LookAtV(c.Eye(), c.Target, axisY)
	c.viewProj = proj.Mul4(c.view)
	c.invVP = c.viewProj.Inv()
	return c.viewProj
}

// ViewProjection returns the combined projection * view matrix.
func (c *Camera) ViewProjection() mgl64.Mat4 {
	return c.computeViewProjection()
}

// View returns the view matrix.
func (c *Camera) View() mgl64.Mat4 {
	c.computeViewProjection()
	return c.view
}

// WorldToScreen projects a world-space point into the viewport. depth is the
// distance along the view axis; ok is false for points behind the near plane.
func (c *Camera) WorldToScreen(p mgl64.Vec3) (sx, sy, depth float64, ok bool) {
	clip := c.computeViewProjection().Mul4x1(p.Vec4(1))
	w := clip.W()
	if w < c.Near {
		return 0, 0, w, false
	}
	sx = c.Viewport.X + (clip.X()/w+1)/2*c.Viewport.Width
	sy = c.Viewport.Y + (1-clip.Y()/w)/2*c.Viewport.Height
	return sx, sy, w, true
}

// ScreenRay returns the world-space ray through the screen point (sx, sy).
func (c *Camera) ScreenRay(sx, sy float64) (origin, dir mgl64.Vec3) {
	c.computeViewProjection()
	nx := (sx-c.Viewport.X)/c.Viewport.Width*2 - 1
	ny := 1 - (sy-c.Viewport.Y)/c.Viewport.Height*2
	near := mgl64.TransformCoordinate(mgl64.Vec3{nx, ny, -1}, c.invVP)
	far := mgl64.TransformCoordinate(mgl64.Vec3{nx, ny, 1}, c.invVP)
	return near, far.Sub(near).Normalize()
}

// PixelsPerUnit returns how many screen pixels one world unit spans at the
// given view depth.
func (c *Camera) PixelsPerUnit(depth float64) float64 {
	if depth <= 0 {
		return 0
	}
	return c.Viewport.Height / (2 * depth * math.Tan(c.FOV/2))
}

// MarkDirty forces a recomputation of the view matrices.
func (c *Camera) MarkDirty() {
	c.dirty = true
}

func (c *Camera) clampDistance(d float64) float64 {
	if c.MinDistance > 0 && d < c.MinDistance {
		d = c.MinDistance
	}
	if c.MaxDistance > 0 && d > c.MaxDistance {
		d = c.MaxDistance
	}
	return d
}

func clampPitch(p float64) float64 {
	return math.Max(-maxPitch, math.Min(p, maxPitch))
}

// wrapAngle maps a to (-π, π].
func wrapAngle(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a <= 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}

// orbitAngles returns the yaw and pitch of an eye placed along dir.
func orbitAngles(dir mgl64.Vec3) (yaw, pitch float64, ok bool) {
	l := dir.Len()
	if l == 0 {
		return 0, 0, false
	}
	dir = dir.Mul(1 / l)
	return math.Atan2(dir.X(), dir.Z()), math.Asin(dir.Y()), true
}
