package moonquake

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
)

// maxVertices is the largest vertex count addressable by uint16 indices.
const maxVertices = math.MaxUint16 + 1

// Vertex is a single model-space vertex. U and V are normalized texture
// coordinates with V increasing downward, matching ebiten image space.
type Vertex struct {
	Pos    mgl64.Vec3
	Normal mgl64.Vec3
	U, V   float64
}

// Geometry is an indexed vertex list. For PrimitivePoints the indices are
// ignored and every vertex is drawn.
type Geometry struct {
	Vertices  []Vertex
	Indices   []uint16
	Primitive Primitive

	edgeList [][2]uint16 // cached by edges
}

// Material controls how a mesh is shaded and composited.
type Material struct {
	// Texture is sampled with the vertex UVs. Nil means WhitePixel.
	Texture *ebiten.Image
	// NormalMap adds relief shading scaled by NormalScale.
	NormalMap   *ebiten.Image
	NormalScale float64
	// Color tints the texture.
	Color Color
	// Unlit materials ignore scene lights.
	Unlit bool
	Side  Side
	// Transparent meshes are drawn after opaque ones, back to front.
	Transparent bool
	Blend       BlendMode
	// Wireframe draws triangle edges instead of filled faces.
	Wireframe bool
	// PointSize is the on-screen size in pixels for PrimitivePoints.
	PointSize float64
}

// NewMaterial returns an opaque, lit, front-sided white material.
func NewMaterial() *Material {
	return &Material{Color: ColorWhite, NormalScale: 1, PointSize: 4}
}

// Mesh pairs a geometry with a material. Geometry and material may be shared
// between meshes.
type Mesh struct {
	Geometry *Geometry
	Material *Material
}

// Bounds returns the model-space axis-aligned bounding box of g.
func (g *Geometry) Bounds() (lo, hi mgl64.Vec3) {
	if len(g.Vertices) == 0 {
		return
	}
	lo = g.Vertices[0].Pos
	hi = lo
	for _, v := range g.Vertices[1:] {
		for i := 0; i < 3; i++ {
			lo[i] = math.Min(lo[i], v.Pos[i])
			hi[i] = math.Max(hi[i], v.Pos[i])
		}
	}
	return lo, hi
}

// edges returns each unique triangle edge once, as index pairs. The result is
// cached; Indices must not change afterwards.
func (g *Geometry) edges() [][2]uint16 {
	if g.edgeList != nil {
		return g.edgeList
	}
	seen := make(map[[2]uint16]struct{}, len(g.Indices))
	var out [][2]uint16
	add := func(a, b uint16) {
		if a > b {
			a, b = b, a
		}
		if a == b {
			return
		}
		e := [2]uint16{a, b}
		if _, ok := seen[e]; ok {
			return
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	for i := 0; i+2 < len(g.Indices); i += 3 {
		a, b, c := g.Indices[i], g.Indices[i+1], g.Indices[i+2]
		add(a, b)
		add(b, c)
		add(c, a)
	}
	g.edgeList = out
	return out
}

// NewSphereGeometry builds a UV sphere centred at the origin with its poles on
// the Y axis. widthSegments and heightSegments are clamped to at least 3 and 2
// and reduced until the vertex count fits uint16 indices.
func NewSphereGeometry(radius float64, widthSegments, heightSegments int) *Geometry {
	if widthSegments < 3 {
		widthSegments = 3
	}
	if heightSegments < 2 {
		heightSegments = 2
	}
	for (widthSegments+1)*(heightSegments+1) > maxVertices {
		widthSegments /= 2
		heightSegments /= 2
	}

	cols := widthSegments + 1
	verts := make([]Vertex, 0, cols*(heightSegments+1))
	for iy := 0; iy <= heightSegments; iy++ {
		v := float64(iy) / float64(heightSegments)
		theta := v * math.Pi
		for ix := 0; ix <= widthSegments; ix++ {
			u := float64(ix) / float64(widthSegments)
			phi := u * 2 * math.Pi
			n := mgl64.Vec3{
				-math.Cos(phi) * math.Sin(theta),
				math.Cos(theta),
				math.Sin(phi) * math.Sin(theta),
			}
			verts = append(verts, Vertex{Pos: n.Mul(radius), Normal: n, U: u, V: v})
		}
	}

	inds := make([]uint16, 0, widthSegments*(heightSegments-1)*6)
	for iy := 0; iy < heightSegments; iy++ {
		for ix := 0; ix < widthSegments; ix++ {
			a := uint16(iy*cols + ix + 1)
			b := uint16(iy*cols + ix)
			c := uint16((iy+1)*cols + ix)
			d := uint16((iy+1)*cols + ix + 1)
			if iy != 0 {
				inds = append(inds, a, b, d)
			}
			if iy != heightSegments-1 {
				inds = append(inds, b, c, d)
			}
		}
	}
	return &Geometry{Vertices: verts, Indices: inds}
}

// NewPlaneGeometry builds a width x height quad in the XY plane, centred at
// the origin and facing +Z. UV (0, 0) is the top-left corner.
func NewPlaneGeometry(width, height float64) *Geometry {
	hw, hh := width/2, height/2
	n := axisZ
	return &Geometry{
		Vertices: []Vertex{
			{Pos: mgl64.Vec3{-hw, hh, 0}, Normal: n, U: 0, V: 0},
			{Pos: mgl64.Vec3{-hw, -hh, 0}, Normal: n, U: 0, V: 1},
			{Pos: mgl64.Vec3{hw, -hh, 0}, Normal: n, U: 1, V: 1},
			{Pos: mgl64.Vec3{hw, hh, 0}, Normal: n, U: 1, V: 0},
		},
		Indices: []uint16{0, 1, 2, 0, 2, 3},
	}
}

// NewPointGeometry returns a single point at the origin.
func NewPointGeometry() *Geometry {
	return &Geometry{
		Vertices:  []Vertex{{Normal: axisY}},
		Primitive: PrimitivePoints,
	}
}

// NewOctahedronGeometry returns a flat-shaded octahedron of the given radius.
func NewOctahedronGeometry(radius float64) *Geometry {
	corners := [6]mgl64.Vec3{
		{radius, 0, 0}, {-radius, 0, 0},
		{0, radius, 0}, {0, -radius, 0},
		{0, 0, radius}, {0, 0, -radius},
	}
	faces := [8][3]int{
		{0, 2, 4}, {0, 4, 3}, {0, 3, 5}, {0, 5, 2},
		{1, 2, 5}, {1, 5, 3}, {1, 3, 4}, {1, 4, 2},
	}
	g := &Geometry{
		Vertices: make([]Vertex, 0, len(faces)*3),
		Indices:  make([]uint16, 0, len(faces)*3),
	}
	for _, f := range faces {
		a, b, c := corners[f[0]], corners[f[1]], corners[f[2]]
		n := b.Sub(a).Cross(c.Sub(a)).Normalize()
		for _, p := range [3]mgl64.Vec3{a, b, c} {
			g.Indices = append(g.Indices, uint16(len(g.Vertices)))
			g.Vertices = append(g.Vertices, Vertex{Pos: p, Normal: n, U: 0.5, V: 0.5})
		}
	}
	return g
}

// ModelPart is one mesh of a Model with its transform relative to the model
// origin.
type ModelPart struct {
	Name      string
	Mesh      *Mesh
	Transform mgl64.Mat4
}

// Model is a loaded, shareable multi-part asset. Instantiate creates nodes
// that reference its meshes without copying them.
type Model struct {
	Name  string
	Parts []ModelPart
}

// Bounds returns the model-space bounding box over all parts.
func (m *Model) Bounds() (lo, hi mgl64.Vec3) {
	first := true
	for _, p := range m.Parts {
		if p.Mesh == nil || p.Mesh.Geometry == nil {
			continue
		}
		for _, v := range p.Mesh.Geometry.Vertices {
			w := mgl64.TransformCoordinate(v.Pos, p.Transform)
			if first {
				lo, hi = w, w
				first = false
				continue
			}
			for i := 0; i < 3; i++ {
				lo[i] = math.Min(lo[i], w[i])
				hi[i] = math.Max(hi[i], w[i])
			}
		}
	}
	return lo, hi
}

// Instantiate adds a container named name holding one mesh node per part and
// returns the container. Each call produces an independent node set sharing
// the model's geometry and materials.
func (g *Graph) Instantiate(name string, m *Model) NodeID {
	root := g.NewContainer(name)
	for _, p := range m.Parts {
		id := g.NewMeshNode(p.Name, p.Mesh)
		n := g.Node(id)
		scale, rot, pos := decompose(p.Transform)
		n.Position = pos
		n.Rotation = rot
		n.Scale = scale
		g.AddChild(root, id)
	}
	return root
}

// decompose splits an affine TRS matrix into scale, rotation and translation.
// Shear is discarded.
func decompose(m mgl64.Mat4) (scale mgl64.Vec3, rot mgl64.Quat, pos mgl64.Vec3) {
	pos = m.Col(3).Vec3()
	c0, c1, c2 := m.Col(0).Vec3(), m.Col(1).Vec3(), m.Col(2).Vec3()
	scale = mgl64.Vec3{c0.Len(), c1.Len(), c2.Len()}
	if scale[0] == 0 || scale[1] == 0 || scale[2] == 0 {
		return scale, mgl64.QuatIdent(), pos
	}
	r := mgl64.Mat3FromCols(c0.Mul(1/scale[0]), c1.Mul(1/scale[1]), c2.Mul(1/scale[2]))
	return scale, mgl64.Mat4ToQuat(r.Mat4()).Normalize(), pos
}
