package moonquake

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// reliefBlend multiplies the destination color by lerp(1, src, srcAlpha) and
// leaves destination alpha untouched.
var reliefBlend = ebiten.Blend{
	BlendFactorSourceRGB:        ebiten.BlendFactorDestinationColor,
	BlendFactorSourceAlpha:      ebiten.BlendFactorZero,
	BlendFactorDestinationRGB:   ebiten.BlendFactorOneMinusSourceAlpha,
	BlendFactorDestinationAlpha: ebiten.BlendFactorOne,
	BlendOperationRGB:           ebiten.BlendOperationAdd,
	BlendOperationAlpha:         ebiten.BlendOperationAdd,
}

// batchKey groups commands that can be submitted in one DrawTriangles32 call.
type batchKey struct {
	image  *ebiten.Image
	relief *ebiten.Image
	blend  BlendMode
}

// commandBatchKey extracts the batch key from a render command.
func commandBatchKey(cmd *RenderCommand) batchKey {
	return batchKey{
		image:  cmd.Image,
		relief: cmd.Relief,
		blend:  cmd.BlendMode,
	}
}

// submitBatches iterates sorted commands, coalescing consecutive same-key
// commands into a single DrawTriangles32 call.
func (s *Scene) submitBatches(target *ebiten.Image) {
	if len(s.commands) == 0 {
		return
	}

	s.batchVerts = s.batchVerts[:0]
	s.reliefVerts = s.reliefVerts[:0]
	s.batchInds = s.batchInds[:0]

	var currentKey batchKey
	inRun := false

	for i := range s.commands {
		cmd := &s.commands[i]
		key := commandBatchKey(cmd)
		if inRun && key != currentKey {
			s.flushBatch(target, currentKey)
		}
		currentKey = key
		inRun = true
		s.appendCommand(cmd)
	}

	s.flushBatch(target, currentKey)
}

// appendCommand writes a command's vertices and indices into the batch buffers.
func (s *Scene) appendCommand(cmd *RenderCommand) {
	base := uint32(len(s.batchVerts))
	n := cmd.vertexCount()

	img := cmd.Image
	if img == nil {
		img = WhitePixel
	}
	b := img.Bounds()
	solid := img == WhitePixel
	for i := 0; i < n; i++ {
		v := &cmd.verts[i]
		sx := float32(b.Min.X) + v.U*float32(b.Dx())
		sy := float32(b.Min.Y) + v.V*float32(b.Dy())
		if solid {
			sx, sy = 0.5, 0.5
		}
		s.batchVerts = append(s.batchVerts, ebiten.Vertex{
			DstX: v.X, DstY: v.Y,
			SrcX: sx, SrcY: sy,
			ColorR: v.Color.R, ColorG: v.Color.G, ColorB: v.Color.B, ColorA: v.Color.A,
		})
	}

	if cmd.Relief != nil {
		rb := cmd.Relief.Bounds()
		a := cmd.ReliefAlpha
		for i := 0; i < n; i++ {
			v := &cmd.verts[i]
			s.reliefVerts = append(s.reliefVerts, ebiten.Vertex{
				DstX: v.X, DstY: v.Y,
				SrcX:   float32(rb.Min.X) + v.U*float32(rb.Dx()),
				SrcY:   float32(rb.Min.Y) + v.V*float32(rb.Dy()),
				ColorR: a, ColorG: a, ColorB: a, ColorA: a,
			})
		}
	}

	if n == 3 {
		s.batchInds = append(s.batchInds, base, base+1, base+2)
	} else {
		s.batchInds = append(s.batchInds, base, base+1, base+2, base, base+2, base+3)
	}
}

// flushBatch submits the accumulated batch and resets the buffers. A relief
// pass over the same triangles follows when the key carries a relief map.
func (s *Scene) flushBatch(target *ebiten.Image, key batchKey) {
	if len(s.batchVerts) == 0 {
		return
	}

	img := key.image
	if img == nil {
		img = WhitePixel
	}

	var triOp ebiten.DrawTrianglesOptions
	triOp.Blend = key.blend.EbitenBlend()
	triOp.ColorScaleMode = ebiten.ColorScaleModePremultipliedAlpha
	triOp.Filter = ebiten.FilterLinear
	target.DrawTriangles32(s.batchVerts, s.batchInds, img, &triOp)

	if key.relief != nil && len(s.reliefVerts) == len(s.batchVerts) {
		triOp.Blend = reliefBlend
		target.DrawTriangles32(s.reliefVerts, s.batchInds, key.relief, &triOp)
	}

	s.batchVerts = s.batchVerts[:0]
	s.reliefVerts = s.reliefVerts[:0]
	s.batchInds = s.batchInds[:0]
}
