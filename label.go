package moonquake

import (
	"fmt"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// LabelSize sizes a label. WorldTextHeight is the height the glyphs occupy
// in world units, WorldTotalHeight the height of the whole plane including
// padding, and PixelTextHeight the raster size used for sharpness.
type LabelSize struct {
	WorldTextHeight  float64
	WorldTotalHeight float64
	PixelTextHeight  float64
}

// LabelMetrics are the derived measurements of a built label.
type LabelMetrics struct {
	WorldWidth     float64
	WorldHeight    float64
	TextWorldWidth float64
	TextPixelWidth float64

	CanvasPixelWidth  int
	CanvasPixelHeight int
}

// LabelMesh is a textured, double-sided plane showing one string.
type LabelMesh struct {
	LabelMetrics
	Plane *Mesh
}

// LabelOption customizes a single Build call.
type LabelOption func(*labelOptions)

type labelOptions struct {
	foreground Color
	background *Color
}

// WithForeground sets the text colour. The default is opaque white.
func WithForeground(c Color) LabelOption {
	return func(o *labelOptions) { o.foreground = c }
}

// WithBackground fills the label surface before drawing text.
func WithBackground(c Color) LabelOption {
	return func(o *labelOptions) { o.background = &c }
}

// LabelBuilder turns strings into label meshes using a Typeface.
type LabelBuilder struct {
	Typeface Typeface
}

// NewLabelBuilder returns a builder using tf.
func NewLabelBuilder(tf Typeface) *LabelBuilder {
	return &LabelBuilder{Typeface: tf}
}

// Build measures text, rasterizes it centred on a fresh surface and returns
// a world-sized plane textured with that surface.
//
// With k = WorldTextHeight / PixelTextHeight the plane is
//
//	width  = measured*k + (WorldTotalHeight - WorldTextHeight)
//	height = WorldTotalHeight
//
// and the surface is ceil(width/k) x ceil(height/k) pixels.
func (b *LabelBuilder) Build(text string, size LabelSize, opts ...LabelOption) (*LabelMesh, error) {
	if b.Typeface == nil {
		return nil, ErrNoTypeface
	}
	if !(size.PixelTextHeight > 0) || !(size.WorldTextHeight > 0) {
		return nil, fmt.Errorf("moonquake: label %q: text heights must be positive, got world %v pixel %v",
			text, size.WorldTextHeight, size.PixelTextHeight)
	}

	o := labelOptions{foreground: ColorWhite}
	for _, opt := range opts {
		opt(&o)
	}

	measured, err := b.Typeface.Measure(text, size.PixelTextHeight)
	if err != nil {
		return nil, fmt.Errorf("moonquake: measure label %q: %w", text, err)
	}

	m := labelMetrics(measured, size)

	// Ebitengine rejects empty images; the metrics keep the computed size.
	surface := ebiten.NewImage(max(m.CanvasPixelWidth, 1), max(m.CanvasPixelHeight, 1))
	if o.background != nil {
		surface.Fill(o.background.toRGBA())
	}
	if text != "" {
		cx := float64(m.CanvasPixelWidth) / 2
		cy := float64(m.CanvasPixelHeight) / 2
		if err := b.Typeface.DrawCentered(surface, text, size.PixelTextHeight, cx, cy, o.foreground); err != nil {
			surface.Deallocate()
			return nil, fmt.Errorf("moonquake: draw label %q: %w", text, err)
		}
	}

	mat := NewMaterial()
	mat.Texture = surface
	mat.Side = DoubleSide
	mat.Transparent = true
	mat.Unlit = true

	return &LabelMesh{
		LabelMetrics: m,
		Plane: &Mesh{
			Geometry: NewPlaneGeometry(m.WorldWidth, m.WorldHeight),
			Material: mat,
		},
	}, nil
}

// labelMetrics derives every label measurement from the measured text width.
func labelMetrics(measured float64, size LabelSize) LabelMetrics {
	k := size.WorldTextHeight / size.PixelTextHeight
	textWorld := measured * k
	width := textWorld + (size.WorldTotalHeight - size.WorldTextHeight)
	return LabelMetrics{
		WorldWidth:        width,
		WorldHeight:       size.WorldTotalHeight,
		TextWorldWidth:    textWorld,
		TextPixelWidth:    measured,
		CanvasPixelWidth:  int(math.Ceil(width / k)),
		CanvasPixelHeight: int(math.Ceil(size.WorldTotalHeight / k)),
	}
}
