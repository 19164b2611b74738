package moonquake

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

const fpsRefresh = 0.5 // seconds

// fpsOverlay caches the FPS/TPS readout and redraws it every fpsRefresh
// seconds.
type fpsOverlay struct {
	img   *ebiten.Image
	since float64
	text  string
}

func (o *fpsOverlay) update(dt float64) {
	o.since += dt
	if o.img != nil && o.since < fpsRefresh {
		return
	}
	o.since = 0
	o.text = fmt.Sprintf("FPS: %.1f\nTPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS())
	if o.img == nil {
		// 100x32 is enough for "FPS: 60.0\nTPS: 60.0"
		o.img = ebiten.NewImage(100, 32)
	}
	o.img.Fill(color.RGBA{0, 0, 0, 128})
	ebitenutil.DebugPrint(o.img, o.text)
}

// drawFPS draws the readout in the top-right corner of the viewport.
func (s *Scene) drawFPS(target *ebiten.Image) {
	if !s.ShowFPS || s.fps.img == nil {
		return
	}
	b := target.Bounds()
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(b.Max.X-s.fps.img.Bounds().Dx()-4), float64(b.Min.Y+4))
	target.DrawImage(s.fps.img, op)
}
