package moonquake

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
)

// CommandType identifies the kind of render command.
type CommandType uint8

const (
	CommandTriangle CommandType = iota // one mesh triangle
	CommandQuad                        // a point sprite or a wireframe edge
)

// minTriangleArea is the smallest screen area, in square pixels, a triangle
// needs to be drawn.
const minTriangleArea = 1e-6

// reliefSaturation is the NormalScale at which the relief map reaches full
// strength.
const reliefSaturation = 8

// color32 is a compact premultiplied RGBA color using float32, for render
// commands only.
type color32 struct {
	R, G, B, A float32
}

// vertex2D is a projected vertex: screen position, normalized texture
// coordinates and color.
type vertex2D struct {
	X, Y  float32
	U, V  float32
	Color color32
}

// RenderCommand is a single draw instruction emitted during scene traversal.
type RenderCommand struct {
	Type CommandType
	// Depth is the mean view-space distance of the command's vertices.
	Depth float64
	// Transparent commands sort after opaque ones at equal depth.
	Transparent bool
	Image       *ebiten.Image
	Relief      *ebiten.Image
	ReliefAlpha float32
	BlendMode   BlendMode
	RenderLayer uint8
	treeOrder   int // assigned during traversal for stable sort

	verts [4]vertex2D
}

func (c *RenderCommand) vertexCount() int {
	if c.Type == CommandTriangle {
		return 3
	}
	return 4
}

// projected is a vertex after the model, view and projection transforms.
type projected struct {
	x, y, depth float64
	world       mgl64.Vec3
	ok          bool
}

// lightState is a visible light resolved for the current frame.
type lightState struct {
	dir   mgl64.Vec3 // unit vector towards the light
	color Color      // light color scaled by intensity
}

func premultiply(c Color) color32 {
	a := clamp01(c.A)
	return color32{
		R: float32(clamp01(c.R) * a),
		G: float32(clamp01(c.G) * a),
		B: float32(clamp01(c.B) * a),
		A: float32(a),
	}
}

// collectLights gathers the visible lights below the root. Transforms must be
// up to date.
func (s *Scene) collectLights() {
	s.lights = s.lights[:0]
	s.graph.Walk(s.root, func(n *Node) bool {
		if !n.Visible {
			return false
		}
		if n.Type == NodeTypeLight && n.Light != nil {
			pos := n.WorldPosition()
			if pos.Len() > 0 {
				s.lights = append(s.lights, lightState{
					dir:   pos.Normalize(),
					color: n.Light.Color.scale(n.Light.Intensity),
				})
			}
		}
		return true
	})
}

// shade returns base lit by the ambient color and every collected light for
// a surface with world-space unit normal.
func (s *Scene) shade(base Color, normal mgl64.Vec3) Color {
	r, g, b := s.Ambient.R, s.Ambient.G, s.Ambient.B
	for _, l := range s.lights {
		d := normal.Dot(l.dir)
		if d <= 0 {
			continue
		}
		r += l.color.R * d
		g += l.color.G * d
		b += l.color.B * d
	}
	return Color{base.R * r, base.G * g, base.B * b, base.A}
}

// traverse walks the node tree depth-first and emits render commands for
// visible mesh nodes. A hidden node hides its whole subtree.
func (s *Scene) traverse(n *Node, treeOrder *int) {
	if !n.Visible {
		return
	}
	if n.Type == NodeTypeMesh && n.Mesh != nil && n.worldAlpha > 0 {
		*treeOrder++
		s.emitMesh(n, *treeOrder)
	}
	for _, c := range n.children {
		if child := s.graph.Node(c); child != nil {
			s.traverse(child, treeOrder)
		}
	}
}

func (s *Scene) emitMesh(n *Node, order int) {
	g, mat := n.Mesh.Geometry, n.Mesh.Material
	if g == nil || mat == nil || len(g.Vertices) == 0 {
		return
	}
	verts := s.projectVertices(n, g)
	switch {
	case g.Primitive == PrimitivePoints:
		s.emitPoints(n, mat, verts, order)
	case mat.Wireframe:
		s.emitWireframe(n, g, mat, verts, order)
	default:
		s.emitTriangles(n, g, mat, verts, order)
	}
}

// projectVertices transforms every vertex of g to screen space. Billboard
// nodes keep their world position but lay the geometry out in the camera's
// right/up plane.
func (s *Scene) projectVertices(n *Node, g *Geometry) []projected {
	if cap(s.projBuf) < len(g.Vertices) {
		s.projBuf = make([]projected, len(g.Vertices))
	}
	out := s.projBuf[:len(g.Vertices)]

	m := n.worldMatrix
	var center, right, up mgl64.Vec3
	if n.Billboard {
		view := s.camera.View()
		center = n.WorldPosition()
		sx := m.Col(0).Vec3().Len()
		sy := m.Col(1).Vec3().Len()
		right = view.Row(0).Vec3().Mul(sx)
		up = view.Row(1).Vec3().Mul(sy)
	}

	for i, v := range g.Vertices {
		var w mgl64.Vec3
		if n.Billboard {
			w = center.Add(right.Mul(v.Pos.X())).Add(up.Mul(v.Pos.Y()))
		} else {
			w = m.Mul4x1(v.Pos.Vec4(1)).Vec3()
		}
		x, y, depth, ok := s.camera.WorldToScreen(w)
		out[i] = projected{x: x, y: y, depth: depth, world: w, ok: ok}
	}
	return out
}

func (s *Scene) emitTriangles(n *Node, g *Geometry, mat *Material, verts []projected, order int) {
	img := mat.Texture
	if img == nil {
		img = WhitePixel
	}
	base := mat.Color
	base.A *= n.worldAlpha
	lit := !mat.Unlit

	var normalMat mgl64.Mat3
	if lit {
		normalMat = n.worldMatrix.Mat3().Inv().Transpose()
	}

	var relief *ebiten.Image
	var reliefAlpha float32
	if lit && mat.NormalMap != nil && mat.NormalScale > 0 {
		relief = mat.NormalMap
		reliefAlpha = float32(clamp01(mat.NormalScale / reliefSaturation))
	}

	idx := g.Indices
	for i := 0; i+2 < len(idx); i += 3 {
		ia, ib, ic := idx[i], idx[i+1], idx[i+2]
		a, b, c := &verts[ia], &verts[ib], &verts[ic]
		if !a.ok || !b.ok || !c.ok {
			continue
		}
		// Screen Y grows downward, so counter-clockwise faces have negative area.
		area := (b.x-a.x)*(c.y-a.y) - (c.x-a.x)*(b.y-a.y)
		if math.Abs(area) < minTriangleArea {
			continue
		}
		front := area < 0
		if !n.Billboard {
			if mat.Side == FrontSide && !front || mat.Side == BackSide && front {
				continue
			}
		}

		cmd := RenderCommand{
			Type:        CommandTriangle,
			Depth:       (a.depth + b.depth + c.depth) / 3,
			Transparent: mat.Transparent,
			Image:       img,
			Relief:      relief,
			ReliefAlpha: reliefAlpha,
			BlendMode:   mat.Blend,
			RenderLayer: n.RenderLayer,
			treeOrder:   order,
		}
		for k, vi := range [3]uint16{ia, ib, ic} {
			p := &verts[vi]
			src := g.Vertices[vi]
			col := base
			if lit {
				col = s.shade(base, normalMat.Mul3x1(src.Normal).Normalize())
			}
			cmd.verts[k] = vertex2D{
				X: float32(p.x), Y: float32(p.y),
				U: float32(src.U), V: float32(src.V),
				Color: premultiply(col),
			}
		}
		s.commands = append(s.commands, cmd)
	}
}

// emitPoints draws every vertex as a screen-aligned square of
// Material.PointSize pixels.
func (s *Scene) emitPoints(n *Node, mat *Material, verts []projected, order int) {
	col := mat.Color
	col.A *= n.worldAlpha
	c := premultiply(col)
	half := float32(mat.PointSize / 2)
	for _, p := range verts {
		if !p.ok {
			continue
		}
		x, y := float32(p.x), float32(p.y)
		cmd := RenderCommand{
			Type:        CommandQuad,
			Depth:       p.depth,
			Transparent: mat.Transparent,
			Image:       WhitePixel,
			BlendMode:   mat.Blend,
			RenderLayer: n.RenderLayer,
			treeOrder:   order,
		}
		cmd.verts = [4]vertex2D{
			{X: x - half, Y: y - half, Color: c},
			{X: x - half, Y: y + half, Color: c},
			{X: x + half, Y: y + half, Color: c},
			{X: x + half, Y: y - half, Color: c},
		}
		s.commands = append(s.commands, cmd)
	}
}

// emitWireframe draws each unique triangle edge as a thin quad. Front-sided
// materials drop edges whose vertex normals both face away from the eye.
func (s *Scene) emitWireframe(n *Node, g *Geometry, mat *Material, verts []projected, order int) {
	col := mat.Color
	col.A *= n.worldAlpha
	c := premultiply(col)
	width := s.LineWidth
	if width <= 0 {
		width = 1
	}

	eye := s.camera.Eye()
	normalMat := n.worldMatrix.Mat3().Inv().Transpose()
	facing := func(i uint16) bool {
		nrm := normalMat.Mul3x1(g.Vertices[i].Normal)
		return nrm.Dot(eye.Sub(verts[i].world)) > 0
	}

	for _, e := range g.edges() {
		a, b := &verts[e[0]], &verts[e[1]]
		if !a.ok || !b.ok {
			continue
		}
		if mat.Side == FrontSide && !facing(e[0]) && !facing(e[1]) {
			continue
		}
		dx, dy := b.x-a.x, b.y-a.y
		l := math.Hypot(dx, dy)
		if l == 0 {
			continue
		}
		px := float32(-dy / l * width / 2)
		py := float32(dx / l * width / 2)
		ax, ay, bx, by := float32(a.x), float32(a.y), float32(b.x), float32(b.y)

		cmd := RenderCommand{
			Type:        CommandQuad,
			Depth:       (a.depth + b.depth) / 2,
			Transparent: mat.Transparent || col.A < 1,
			Image:       WhitePixel,
			BlendMode:   mat.Blend,
			RenderLayer: n.RenderLayer,
			treeOrder:   order,
		}
		cmd.verts = [4]vertex2D{
			{X: ax + px, Y: ay + py, Color: c},
			{X: ax - px, Y: ay - py, Color: c},
			{X: bx - px, Y: by - py, Color: c},
			{X: bx + px, Y: by + py, Color: c},
		}
		s.commands = append(s.commands, cmd)
	}
}

// --- Merge sort ---

// commandLessOrEqual returns true if a should sort before or at the same
// position as b: lower layers first, then far to near, then opaque before
// transparent. Using <= for treeOrder ensures stability.
func commandLessOrEqual(a, b *RenderCommand) bool {
	if a.RenderLayer != b.RenderLayer {
		return a.RenderLayer < b.RenderLayer
	}
	if a.Depth != b.Depth {
		return a.Depth > b.Depth
	}
	if a.Transparent != b.Transparent {
		return !a.Transparent
	}
	return a.treeOrder <= b.treeOrder
}

// mergeSort sorts s.commands in-place using s.sortBuf as scratch space.
// Bottom-up merge sort: zero allocations after the sort buffer reaches high-water mark.
func (s *Scene) mergeSort() {
	n := len(s.commands)
	if n <= 1 {
		return
	}
	if cap(s.sortBuf) < n {
		s.sortBuf = make([]RenderCommand, n)
	}
	s.sortBuf = s.sortBuf[:n]

	a := s.commands
	b := s.sortBuf
	swapped := false

	for width := 1; width < n; width *= 2 {
		for i := 0; i < n; i += 2 * width {
			lo := i
			mid := min(lo+width, n)
			hi := min(lo+2*width, n)
			mergeRun(a, b, lo, mid, hi)
		}
		a, b = b, a
		swapped = !swapped
	}

	if swapped {
		copy(s.commands, s.sortBuf)
	}
}

// mergeRun merges two sorted runs [lo, mid) and [mid, hi) from src into dst.
func mergeRun(src, dst []RenderCommand, lo, mid, hi int) {
	i, j, k := lo, mid, lo
	for i < mid && j < hi {
		if commandLessOrEqual(&src[i], &src[j]) {
			dst[k] = src[i]
			i++
		} else {
			dst[k] = src[j]
			j++
		}
		k++
	}
	for i < mid {
		dst[k] = src[i]
		i++
		k++
	}
	for j < hi {
		dst[k] = src[j]
		j++
		k++
	}
}
