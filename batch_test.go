package moonquake

import (
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

func TestBatchKeySameImageSameBlend(t *testing.T) {
	img := ebiten.NewImage(2, 2)
	a := RenderCommand{BlendMode: BlendNormal, Image: img}
	b := RenderCommand{BlendMode: BlendNormal, Image: img}
	if commandBatchKey(&a) != commandBatchKey(&b) {
		t.Error("same image + same blend should produce same batch key")
	}
}

func TestBatchKeyDifferentBlend(t *testing.T) {
	a := RenderCommand{BlendMode: BlendNormal, Image: WhitePixel}
	b := RenderCommand{BlendMode: BlendAdd, Image: WhitePixel}
	if commandBatchKey(&a) == commandBatchKey(&b) {
		t.Error("different blend modes should produce different batch keys")
	}
}

func TestBatchKeyDifferentImage(t *testing.T) {
	a := RenderCommand{Image: WhitePixel}
	b := RenderCommand{Image: ebiten.NewImage(1, 1)}
	if commandBatchKey(&a) == commandBatchKey(&b) {
		t.Error("different images should produce different batch keys")
	}
}

func TestBatchKeyDifferentRelief(t *testing.T) {
	a := RenderCommand{Image: WhitePixel}
	b := RenderCommand{Image: WhitePixel, Relief: ebiten.NewImage(1, 1)}
	if commandBatchKey(&a) == commandBatchKey(&b) {
		t.Error("a relief map should produce a different batch key")
	}
}

func TestBatchCountSameImage(t *testing.T) {
	cmds := []RenderCommand{
		{Image: WhitePixel},
		{Image: WhitePixel},
		{Image: WhitePixel},
	}
	if got := countBatches(cmds); got != 1 {
		t.Errorf("batches = %d, want 1", got)
	}
}

func TestBatchCountInterleavedImages(t *testing.T) {
	label := ebiten.NewImage(4, 4)
	cmds := []RenderCommand{
		{Image: WhitePixel},
		{Image: label},
		{Image: WhitePixel},
	}
	if got := countBatches(cmds); got != 3 {
		t.Errorf("batches = %d, want 3", got)
	}
}

func TestBatchCountEmpty(t *testing.T) {
	if got := countBatches(nil); got != 0 {
		t.Errorf("batches = %d, want 0", got)
	}
}

func assertVertexNear(t *testing.T, label string, got, want float32) {
	t.Helper()
	if diff := got - want; diff > 0.001 || diff < -0.001 {
		t.Errorf("%s = %f, want %f", label, got, want)
	}
}

func TestAppendCommandTriangle(t *testing.T) {
	s := testScene()
	img := ebiten.NewImage(4, 2)
	cmd := &RenderCommand{Type: CommandTriangle, Image: img}
	cmd.verts[0] = vertex2D{X: 10, Y: 20, U: 0, V: 0, Color: color32{1, 1, 1, 1}}
	cmd.verts[1] = vertex2D{X: 10, Y: 40, U: 0.5, V: 1, Color: color32{0.5, 0, 0, 0.5}}
	cmd.verts[2] = vertex2D{X: 30, Y: 40, U: 1, V: 1}

	s.appendCommand(cmd)

	if len(s.batchVerts) != 3 || len(s.batchInds) != 3 {
		t.Fatalf("verts/inds = %d/%d, want 3/3", len(s.batchVerts), len(s.batchInds))
	}
	v := s.batchVerts[1]
	assertVertexNear(t, "DstY", v.DstY, 40)
	assertVertexNear(t, "SrcX", v.SrcX, 2)
	assertVertexNear(t, "SrcY", v.SrcY, 2)
	assertVertexNear(t, "ColorR", v.ColorR, 0.5)
	assertVertexNear(t, "ColorA", v.ColorA, 0.5)
	if len(s.reliefVerts) != 0 {
		t.Errorf("reliefVerts = %d, want 0", len(s.reliefVerts))
	}
}

func TestAppendCommandQuadIndices(t *testing.T) {
	s := testScene()
	s.appendCommand(&RenderCommand{Type: CommandTriangle, Image: WhitePixel})
	s.appendCommand(&RenderCommand{Type: CommandQuad, Image: WhitePixel})

	want := []uint32{0, 1, 2, 3, 4, 5, 3, 5, 6}
	if len(s.batchInds) != len(want) {
		t.Fatalf("indices = %v, want %v", s.batchInds, want)
	}
	for i := range want {
		if s.batchInds[i] != want[i] {
			t.Fatalf("indices = %v, want %v", s.batchInds, want)
		}
	}
}

func TestAppendCommandSolidSamplesPixelCenter(t *testing.T) {
	s := testScene()
	cmd := &RenderCommand{Type: CommandQuad, Image: WhitePixel}
	cmd.verts[2] = vertex2D{U: 1, V: 1}
	s.appendCommand(cmd)
	for i, v := range s.batchVerts {
		if v.SrcX != 0.5 || v.SrcY != 0.5 {
			t.Errorf("vertex %d src = (%f,%f), want (0.5,0.5)", i, v.SrcX, v.SrcY)
		}
	}
}

func TestAppendCommandRelief(t *testing.T) {
	s := testScene()
	cmd := &RenderCommand{
		Type:        CommandTriangle,
		Image:       ebiten.NewImage(2, 2),
		Relief:      ebiten.NewImage(8, 4),
		ReliefAlpha: 0.25,
	}
	cmd.verts[2] = vertex2D{U: 1, V: 0.5}
	s.appendCommand(cmd)

	if len(s.reliefVerts) != 3 {
		t.Fatalf("reliefVerts = %d, want 3", len(s.reliefVerts))
	}
	v := s.reliefVerts[2]
	assertVertexNear(t, "SrcX", v.SrcX, 8)
	assertVertexNear(t, "SrcY", v.SrcY, 2)
	assertVertexNear(t, "ColorR", v.ColorR, 0.25)
	assertVertexNear(t, "ColorA", v.ColorA, 0.25)
}

func TestFlushBatchResetsBuffers(t *testing.T) {
	s := testScene()
	s.appendCommand(&RenderCommand{Type: CommandQuad, Image: WhitePixel})
	s.flushBatch(ebiten.NewImage(16, 16), batchKey{image: WhitePixel})
	if len(s.batchVerts) != 0 || len(s.batchInds) != 0 || len(s.reliefVerts) != 0 {
		t.Error("flushBatch should reset all batch buffers")
	}
}

func TestDrawComposedScene(t *testing.T) {
	s := testScene()
	l := fullLoader()
	h, err := testComposer(l).Compose(t.Context(), s.Graph(), s.Root())
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	h.SetMarkersVisible(s.Graph(), true)
	h.SetLabelsVisible(s.Graph(), true)

	screen := ebiten.NewImage(800, 600)
	// Should not panic
	s.Draw(screen)

	if len(s.commands) == 0 {
		t.Fatal("composed scene emitted no commands")
	}
	relief := false
	for _, cmd := range s.commands {
		if cmd.Relief != nil {
			relief = true
			break
		}
	}
	if !relief {
		t.Error("body should be drawn with its relief map")
	}
}
