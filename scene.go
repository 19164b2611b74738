package moonquake

import (
	"image"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/rs/zerolog"
)

const defaultCommandCap = 8192

// Scene is the top-level object that owns the node graph, the camera, running
// tweens and render buffers.
type Scene struct {
	graph  *Graph
	root   NodeID
	camera *Camera
	debug  bool
	log    zerolog.Logger

	// Ambient is added to every light contribution of lit materials.
	Ambient Color
	// LineWidth is the wireframe edge width in pixels.
	LineWidth float64

	// OrbitControls lets left-drag rotate and wheel or pinch zoom the camera.
	OrbitControls bool
	// OrbitSpeed is the camera rotation in radians per dragged pixel.
	OrbitSpeed float64
	// PickRadius is the click tolerance around markers in pixels.
	PickRadius float64
	// ShowFPS draws an FPS/TPS readout in the viewport corner.
	ShowFPS bool
	// ScreenshotDir receives screenshots; empty means DefaultScreenshotDir.
	ScreenshotDir string

	tweens []*TweenGroup

	// Input state
	handlers       handlerRegistry
	pointers       [maxPointers]pointerState
	touchMap       [maxPointers]ebiten.TouchID
	touchUsed      [maxPointers]bool
	prevTouchIDs   []ebiten.TouchID
	pinch          pinchState
	dragDeadZone   float64
	occluderCenter mgl64.Vec3
	occluderRadius float64
	injectQueue    []syntheticPointerEvent
	scriptRunner   *ScriptRunner

	screenshotQueue []string
	fps             fpsOverlay

	// Render state
	lights      []lightState
	projBuf     []projected
	commands    []RenderCommand
	sortBuf     []RenderCommand
	batchVerts  []ebiten.Vertex
	reliefVerts []ebiten.Vertex
	batchInds   []uint32
}

// NewScene creates a scene with a fresh graph, a root container and an orbit
// camera rendering into viewport.
func NewScene(viewport Rect) *Scene {
	g := NewGraph()
	return &Scene{
		graph:     g,
		root:      g.NewContainer("root"),
		camera:    newCamera(viewport),
		log:       zerolog.Nop(),
		LineWidth: 1,

		OrbitControls: true,
		OrbitSpeed:    defaultOrbitSpeed,
		PickRadius:    defaultPickRadius,
		dragDeadZone:  defaultDragDeadZone,

		commands: make([]RenderCommand, 0, defaultCommandCap),
		sortBuf:  make([]RenderCommand, 0, defaultCommandCap),
	}
}

// Graph returns the scene's node graph.
func (s *Scene) Graph() *Graph {
	return s.graph
}

// Root returns the scene's root container node.
func (s *Scene) Root() NodeID {
	return s.root
}

// Camera returns the scene's camera.
func (s *Scene) Camera() *Camera {
	return s.camera
}

// SetLogger sets the logger for the scene and its graph.
func (s *Scene) SetLogger(l zerolog.Logger) {
	s.log = l
	s.graph.SetLogger(l)
}

// SetDebugMode enables or disables debug mode. When enabled, tree depth and
// child count warnings and per-frame timing stats are logged at debug level.
func (s *Scene) SetDebugMode(enabled bool) {
	s.debug = enabled
	s.graph.SetDebugMode(enabled)
}

// AddTween registers a tween group to be advanced by Update until it is done.
func (s *Scene) AddTween(t *TweenGroup) {
	if t == nil || t.Done {
		return
	}
	s.tweens = append(s.tweens, t)
}

// ActiveTweens returns the number of registered tweens that are not done.
func (s *Scene) ActiveTweens() int {
	return len(s.tweens)
}

// Update runs the attached script, processes input and advances the camera
// and tweens by one tick.
func (s *Scene) Update() {
	dt := 1.0 / float64(ebiten.TPS())
	if s.scriptRunner != nil {
		s.scriptRunner.step(s)
	}
	s.processInput()
	if s.ShowFPS {
		s.fps.update(dt)
	}
	s.step(float32(dt))
}

// step advances the scene by dt seconds.
func (s *Scene) step(dt float32) {
	s.camera.update(dt)

	live := s.tweens[:0]
	for _, t := range s.tweens {
		t.Update(dt)
		if !t.Done {
			live = append(live, t)
		}
	}
	clear(s.tweens[len(live):])
	s.tweens = live

	s.graph.UpdateTransforms(s.root)
}

// Draw traverses the scene graph, emits render commands, sorts them and
// submits batches to the camera's viewport of screen.
func (s *Scene) Draw(screen *ebiten.Image) {
	vp := s.camera.Viewport
	target := screen.SubImage(image.Rect(
		int(vp.X), int(vp.Y),
		int(vp.X+vp.Width), int(vp.Y+vp.Height),
	)).(*ebiten.Image)

	var stats debugStats
	var t0 time.Time
	if s.debug {
		t0 = time.Now()
	}

	s.buildCommands()

	if s.debug {
		stats.traverseTime = time.Since(t0)
		t0 = time.Now()
	}

	s.mergeSort()

	if s.debug {
		stats.sortTime = time.Since(t0)
		stats.commandCount = len(s.commands)
		t0 = time.Now()
	}

	s.submitBatches(target)

	if s.debug {
		stats.submitTime = time.Since(t0)
		stats.batchCount = countBatches(s.commands)
		stats.drawCallCount = countDrawCalls(s.commands)
		s.debugLog(stats)
	}

	s.drawFPS(target)
	s.flushScreenshots(screen)
}

// buildCommands refreshes transforms and lights, then fills s.commands in
// traversal order.
func (s *Scene) buildCommands() {
	s.commands = s.commands[:0]
	s.graph.UpdateTransforms(s.root)
	s.collectLights()
	treeOrder := 0
	if root := s.graph.Node(s.root); root != nil {
		s.traverse(root, &treeOrder)
	}
}

// Pick returns the visible point-primitive node whose projection lies within
// radius pixels of (sx, sy), preferring the one nearest the camera. Points on
// the far side of sphere (a body centred at center) are ignored.
func (s *Scene) Pick(sx, sy, radius float64, center mgl64.Vec3, sphere float64) NodeID {
	s.graph.UpdateTransforms(s.root)
	eye := s.camera.Eye()
	best := None
	bestDepth := math.Inf(1)
	var visit func(id NodeID)
	visit = func(id NodeID) {
		n := s.graph.Node(id)
		if n == nil || !n.Visible {
			return
		}
		if n.Type == NodeTypeMesh && n.Mesh != nil && n.Mesh.Geometry != nil &&
			n.Mesh.Geometry.Primitive == PrimitivePoints {
			p := n.WorldPosition()
			x, y, depth, ok := s.camera.WorldToScreen(p)
			if ok && math.Hypot(x-sx, y-sy) <= radius && depth < bestDepth &&
				!segmentHitsSphere(eye, p, center, sphere) {
				best, bestDepth = id, depth
			}
		}
		for _, c := range n.children {
			visit(c)
		}
	}
	visit(s.root)
	return best
}

// segmentHitsSphere reports whether the open segment a→b passes through the
// interior of the sphere, excluding a small band around b.
func segmentHitsSphere(a, b, center mgl64.Vec3, radius float64) bool {
	if radius <= 0 {
		return false
	}
	d := b.Sub(a)
	l := d.Len()
	if l == 0 {
		return false
	}
	d = d.Mul(1 / l)
	oc := a.Sub(center)
	half := d.Dot(oc)
	disc := half*half - (oc.Dot(oc) - radius*radius)
	if disc <= 0 {
		return false
	}
	t := -half - math.Sqrt(disc)
	return t > 0 && t < l-1e-6*(1+l)
}
