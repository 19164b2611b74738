package moonquake

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // register decoders for lroc/stars textures
	_ "image/png"
	"math"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// DirLoader loads textures (PNG, JPEG) and glTF models from a directory.
type DirLoader struct {
	Dir string
}

// NewDirLoader returns a loader rooted at dir.
func NewDirLoader(dir string) *DirLoader {
	return &DirLoader{Dir: dir}
}

func (l *DirLoader) path(name string) string {
	return filepath.Join(l.Dir, filepath.FromSlash(name))
}

// LoadTexture implements AssetLoader.
func (l *DirLoader) LoadTexture(ctx context.Context, name string) (*ebiten.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(l.path(name))
	if err != nil {
		return nil, &AssetError{Name: name, Err: err}
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, &AssetError{Name: name, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ebiten.NewImageFromImage(img), nil
}

// LoadModel implements AssetLoader. Only triangle primitives are imported;
// node transforms of the default scene are baked into the parts.
func (l *DirLoader) LoadModel(ctx context.Context, name string) (*Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := gltf.Open(l.path(name))
	if err != nil {
		return nil, &AssetError{Name: name, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := modelFromDocument(name, doc)
	if err != nil {
		return nil, &AssetError{Name: name, Err: err}
	}
	return m, nil
}

// modelFromDocument converts the default scene of doc into a Model.
func modelFromDocument(name string, doc *gltf.Document) (*Model, error) {
	m := &Model{Name: name}
	materials := make(map[int]*Material)

	var walk func(idx int, parent mgl64.Mat4) error
	walk = func(idx int, parent mgl64.Mat4) error {
		if idx < 0 || idx >= len(doc.Nodes) {
			return fmt.Errorf("node index %d out of range", idx)
		}
		n := doc.Nodes[idx]
		world := parent.Mul4(gltfNodeMatrix(n))
		if n.Mesh != nil {
			gm := doc.Meshes[*n.Mesh]
			for pi, p := range gm.Primitives {
				if p.Mode != gltf.PrimitiveTriangles {
					continue
				}
				geom, err := readPrimitive(doc, p)
				if err != nil {
					return fmt.Errorf("mesh %q primitive %d: %w", gm.Name, pi, err)
				}
				mat := NewMaterial()
				if p.Material != nil {
					mi := int(*p.Material)
					if cached, ok := materials[mi]; ok {
						mat = cached
					} else {
						mat = gltfMaterial(doc.Materials[mi])
						materials[mi] = mat
					}
				}
				m.Parts = append(m.Parts, ModelPart{
					Name:      fmt.Sprintf("%s/%d", gm.Name, pi),
					Mesh:      &Mesh{Geometry: geom, Material: mat},
					Transform: world,
				})
			}
		}
		for _, c := range n.Children {
			if err := walk(int(c), world); err != nil {
				return err
			}
		}
		return nil
	}

	var roots []int
	switch {
	case doc.Scene != nil && int(*doc.Scene) < len(doc.Scenes):
		for _, r := range doc.Scenes[*doc.Scene].Nodes {
			roots = append(roots, int(r))
		}
	case len(doc.Scenes) > 0:
		for _, r := range doc.Scenes[0].Nodes {
			roots = append(roots, int(r))
		}
	}
	for _, r := range roots {
		if err := walk(r, mgl64.Ident4()); err != nil {
			return nil, err
		}
	}
	if len(m.Parts) == 0 {
		return nil, fmt.Errorf("no triangle meshes in default scene")
	}
	return m, nil
}

// gltfNodeMatrix returns the local transform of a glTF node, preferring an
// explicit matrix over TRS.
func gltfNodeMatrix(n *gltf.Node) mgl64.Mat4 {
	if m := mgl64.Mat4(n.MatrixOrDefault()); m != mgl64.Ident4() {
		return m
	}
	t := n.TranslationOrDefault()
	r := n.RotationOrDefault()
	s := n.ScaleOrDefault()
	q := mgl64.Quat{W: r[3], V: mgl64.Vec3{r[0], r[1], r[2]}}
	return mgl64.Translate3D(t[0], t[1], t[2]).
		Mul4(q.Normalize().Mat4()).
		Mul4(mgl64.Scale3D(s[0], s[1], s[2]))
}

func gltfMaterial(gm *gltf.Material) *Material {
	mat := NewMaterial()
	if gm == nil {
		return mat
	}
	if pbr := gm.PBRMetallicRoughness; pbr != nil && pbr.BaseColorFactor != nil {
		c := *pbr.BaseColorFactor
		mat.Color = Color{c[0], c[1], c[2], c[3]}
		mat.Transparent = c[3] < 1
	}
	if gm.DoubleSided {
		mat.Side = DoubleSide
	}
	return mat
}

// readPrimitive decodes positions, normals, UVs and indices of a triangle
// primitive into a Geometry.
func readPrimitive(doc *gltf.Document, p *gltf.Primitive) (*Geometry, error) {
	posIdx, ok := p.Attributes[gltf.POSITION]
	if !ok {
		return nil, fmt.Errorf("missing POSITION attribute")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}
	if len(positions) > maxVertices {
		return nil, fmt.Errorf("%d vertices exceed the uint16 index range", len(positions))
	}

	var normals [][3]float32
	if idx, ok := p.Attributes[gltf.NORMAL]; ok {
		if normals, err = modeler.ReadNormal(doc, doc.Accessors[idx], nil); err != nil {
			return nil, fmt.Errorf("read normals: %w", err)
		}
	}
	var uvs [][2]float32
	if idx, ok := p.Attributes[gltf.TEXCOORD_0]; ok {
		if uvs, err = modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil); err != nil {
			return nil, fmt.Errorf("read texcoords: %w", err)
		}
	}

	g := &Geometry{Vertices: make([]Vertex, len(positions))}
	for i, pos := range positions {
		v := Vertex{Pos: mgl64.Vec3{float64(pos[0]), float64(pos[1]), float64(pos[2])}}
		if i < len(normals) {
			n := normals[i]
			v.Normal = mgl64.Vec3{float64(n[0]), float64(n[1]), float64(n[2])}
		}
		if i < len(uvs) {
			v.U, v.V = float64(uvs[i][0]), float64(uvs[i][1])
		}
		g.Vertices[i] = v
	}

	if p.Indices == nil {
		g.Indices = make([]uint16, len(positions))
		for i := range g.Indices {
			g.Indices[i] = uint16(i)
		}
	} else {
		raw, err := modeler.ReadIndices(doc, doc.Accessors[*p.Indices], nil)
		if err != nil {
			return nil, fmt.Errorf("read indices: %w", err)
		}
		g.Indices = make([]uint16, len(raw))
		for i, ix := range raw {
			if int(ix) >= len(positions) || ix > math.MaxUint16 {
				return nil, fmt.Errorf("index %d out of range", ix)
			}
			g.Indices[i] = uint16(ix)
		}
	}
	if normals == nil {
		computeFlatNormals(g)
	}
	return g, nil
}

// computeFlatNormals assigns each vertex the normal of the last triangle that
// references it.
func computeFlatNormals(g *Geometry) {
	for i := 0; i+2 < len(g.Indices); i += 3 {
		a, b, c := g.Indices[i], g.Indices[i+1], g.Indices[i+2]
		pa, pb, pc := g.Vertices[a].Pos, g.Vertices[b].Pos, g.Vertices[c].Pos
		n := pb.Sub(pa).Cross(pc.Sub(pa))
		if n.Len() == 0 {
			continue
		}
		n = n.Normalize()
		g.Vertices[a].Normal = n
		g.Vertices[b].Normal = n
		g.Vertices[c].Normal = n
	}
}
