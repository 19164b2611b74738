package moonquake

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// One triangle in the XY plane, translated to z=2, with a double-sided
// orange material.
const testGLTF = `{"asset": {"version": "2.0"}, "scene": 0, "scenes": [{"nodes": [0]}],
"nodes": [{"name": "lander", "translation": [0, 0, 2], "mesh": 0}],
"meshes": [{"name": "body", "primitives": [{"attributes": {"POSITION": 0}, "indices": 1, "material": 0}]}],
"materials": [{"pbrMetallicRoughness": {"baseColorFactor": [1, 0.5, 0.25, 1]}, "doubleSided": true}],
"buffers": [{"byteLength": 44, "uri": "data:application/octet-stream;base64,AAAAAAAAAAAAAAAAAACAPwAAAAAAAAAAAAAAAAAAgD8AAAAAAAABAAIAAAA="}],
"bufferViews": [{"buffer": 0, "byteOffset": 0, "byteLength": 36, "target": 34962}, {"buffer": 0, "byteOffset": 36, "byteLength": 6, "target": 34963}],
"accessors": [{"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3", "min": [0, 0, 0], "max": [1, 1, 0]},
{"bufferView": 1, "componentType": 5123, "count": 3, "type": "SCALAR"}]}`

func writeFile(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDirLoaderLoadModel(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lander.gltf", []byte(testGLTF))

	m, err := NewDirLoader(dir).LoadModel(context.Background(), "lander.gltf")
	if err != nil {
		t.Fatalf("LoadModel: %v", err)
	}
	if len(m.Parts) != 1 {
		t.Fatalf("parts = %d, want 1", len(m.Parts))
	}
	p := m.Parts[0]
	if got := p.Transform.Col(3).Vec3(); got != (mgl64.Vec3{0, 0, 2}) {
		t.Errorf("translation = %v, want (0, 0, 2)", got)
	}
	g := p.Mesh.Geometry
	if len(g.Vertices) != 3 || len(g.Indices) != 3 {
		t.Fatalf("vertices/indices = %d/%d, want 3/3", len(g.Vertices), len(g.Indices))
	}
	if g.Vertices[1].Pos != (mgl64.Vec3{1, 0, 0}) {
		t.Errorf("vertex 1 = %v, want (1, 0, 0)", g.Vertices[1].Pos)
	}
	if !vecNear(g.Vertices[0].Normal, axisZ, 1e-9) {
		t.Errorf("computed normal = %v, want +Z", g.Vertices[0].Normal)
	}
	mat := p.Mesh.Material
	if mat.Color != (Color{1, 0.5, 0.25, 1}) {
		t.Errorf("color = %v", mat.Color)
	}
	if mat.Side != DoubleSide {
		t.Errorf("side = %d, want DoubleSide", mat.Side)
	}
}

func TestDirLoaderLoadModelMissing(t *testing.T) {
	_, err := NewDirLoader(t.TempDir()).LoadModel(context.Background(), "nope.glb")
	if !errors.Is(err, ErrAssetUnavailable) {
		t.Errorf("err = %v, want ErrAssetUnavailable", err)
	}
	var ae *AssetError
	if !errors.As(err, &ae) || ae.Name != "nope.glb" {
		t.Errorf("err = %v, want AssetError for nope.glb", err)
	}
}

func TestDirLoaderLoadModelCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewDirLoader(t.TempDir()).LoadModel(ctx, "lander.gltf")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestDirLoaderLoadTexture(t *testing.T) {
	dir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})
	f, err := os.Create(filepath.Join(dir, "stars.png"))
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	f.Close()

	tex, err := NewDirLoader(dir).LoadTexture(context.Background(), "stars.png")
	if err != nil {
		t.Fatalf("LoadTexture: %v", err)
	}
	if b := tex.Bounds(); b.Dx() != 4 || b.Dy() != 2 {
		t.Errorf("size = %dx%d, want 4x2", b.Dx(), b.Dy())
	}
}

func TestDirLoaderLoadTextureCorrupt(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.jpg", []byte("not an image"))
	_, err := NewDirLoader(dir).LoadTexture(context.Background(), "bad.jpg")
	if !errors.Is(err, ErrAssetUnavailable) {
		t.Errorf("err = %v, want ErrAssetUnavailable", err)
	}
}

func TestComputeFlatNormals(t *testing.T) {
	g := &Geometry{
		Vertices: []Vertex{{Pos: mgl64.Vec3{0, 0, 0}}, {Pos: mgl64.Vec3{0, 0, 1}}, {Pos: mgl64.Vec3{1, 0, 0}}},
		Indices:  []uint16{0, 1, 2},
	}
	computeFlatNormals(g)
	if !vecNear(g.Vertices[2].Normal, axisY, 1e-12) {
		t.Errorf("normal = %v, want +Y", g.Vertices[2].Normal)
	}
}
