package moonquake

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TweenGroup animates up to 3 float64 fields on a Node simultaneously.
// Create one via the convenience constructors (TweenPosition, TweenScale,
// TweenAlpha) and call Update(dt) each frame, or hand it to Scene.AddTween.
// The group auto-applies values and marks the node dirty. If the target node
// is disposed, the group stops immediately.
type TweenGroup struct {
	tweens [3]*gween.Tween
	count  int
	fields [3]*float64
	target *Node
	Done   bool
}

// Update advances all tweens by dt seconds, writes values to the target fields,
// and marks the node dirty. If the target node has been disposed, Done is set
// to true and no writes occur.
func (g *TweenGroup) Update(dt float32) {
	if g.Done {
		return
	}

	if g.target != nil && g.target.IsDisposed() {
		g.Done = true
		return
	}

	allDone := true
	for i := 0; i < g.count; i++ {
		val, finished := g.tweens[i].Update(dt)
		*g.fields[i] = float64(val)
		if !finished {
			allDone = false
		}
	}
	g.Done = allDone

	if g.target != nil {
		g.target.MarkDirty()
	}
}

// Stop ends the group without writing further values.
func (g *TweenGroup) Stop() {
	g.Done = true
}

// TweenPosition creates a TweenGroup that animates node.Position to the
// given target over the specified duration using the easing function.
func TweenPosition(node *Node, to mgl64.Vec3, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{count: 3, target: node}
	for i := range 3 {
		g.tweens[i] = gween.New(float32(node.Position[i]), float32(to[i]), duration, fn)
		g.fields[i] = &node.Position[i]
	}
	return g
}

// TweenScale creates a TweenGroup that animates node.Scale to the given
// target values over the specified duration using the easing function.
func TweenScale(node *Node, to mgl64.Vec3, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{count: 3, target: node}
	for i := range 3 {
		g.tweens[i] = gween.New(float32(node.Scale[i]), float32(to[i]), duration, fn)
		g.fields[i] = &node.Scale[i]
	}
	return g
}

// TweenAlpha creates a TweenGroup that animates node.Alpha to the target value
// over the specified duration using the easing function.
func TweenAlpha(node *Node, to float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{count: 1, target: node}
	g.tweens[0] = gween.New(float32(node.Alpha), float32(to), duration, fn)
	g.fields[0] = &node.Alpha
	return g
}
