package main

import (
	"context"
	"fmt"
	"image/color"
	"math"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/phanxgames/moonquake"
	"github.com/phanxgames/moonquake/internal/config"
	"github.com/rs/zerolog"
	"github.com/tanema/gween/ease"
)

const (
	msPerDay   = 24 * 60 * 60 * 1000
	allWindow  = int64(1) << 62
	lookTime   = 1.2 // seconds
	autoRotate = 0.05
)

var highlight = color.RGBA{R: 255, G: 220, B: 64, A: 255}

type game struct {
	log      zerolog.Logger
	scene    *moonquake.Scene
	store    *moonquake.EventStore
	handles  *moonquake.Handles
	timeline *moonquake.Timeline
	runner   *moonquake.ScriptRunner

	window   int64
	ordinals map[moonquake.NodeID]int
	points   []moonquake.NodeID // by ordinal

	labels    bool
	wireframe bool
	landers   bool
	showAll   bool
}

func composeConfig(cfg *config.Config, log zerolog.Logger) moonquake.ComposeConfig {
	cc := moonquake.DefaultComposeConfig()
	if u, ok := moonquake.ParseAngleUnit(cfg.Compose.AngleUnit); ok {
		cc.AngleUnit = u
	} else {
		log.Warn().Str("angleUnit", cfg.Compose.AngleUnit).Msg("Unknown angle unit, using legacy")
	}
	cc.Flattening = cfg.Compose.Flattening
	if h := cfg.Compose.LabelPixelHeight; h > 0 {
		cc.MarkerLabel.PixelTextHeight = h
		cc.LanderLabel.PixelTextHeight = h
	}
	cc.PlaceholderOnAssetFailure = cfg.Compose.Placeholders
	return cc
}

func newGame(ctx context.Context, cfg *config.Config, store *moonquake.EventStore, log zerolog.Logger) (*game, error) {
	tf, err := moonquake.DefaultTypeface()
	if err != nil {
		return nil, err
	}
	cc := composeConfig(cfg, log)
	composer := moonquake.NewComposer(store, moonquake.NewDirLoader(cfg.AssetDir), moonquake.NewLabelBuilder(tf), cc)
	composer.SetLogger(log)

	scene := moonquake.NewScene(moonquake.Rect{Width: float64(cfg.Window.Width), Height: float64(cfg.Window.Height)})
	scene.SetLogger(log)
	scene.SetOccluder(mgl64.Vec3{}, cc.BodyRadius)

	start := time.Now()
	h, err := composer.Compose(ctx, scene.Graph(), scene.Root())
	if err != nil {
		return nil, fmt.Errorf("compose: %w", err)
	}
	log.Info().
		Int("markers", len(h.Markers)).
		Int("landers", len(h.Landers)).
		Int("assetErrors", len(h.AssetErrors)).
		Dur("took", time.Since(start)).
		Msg("Scene composed")

	g := &game{
		log:      log,
		scene:    scene,
		store:    store,
		handles:  h,
		window:   int64(cfg.Timeline.WindowDays * msPerDay),
		ordinals: make(map[moonquake.NodeID]int, len(h.Markers)),
		points:   make([]moonquake.NodeID, store.Len()),
		labels:   true,
		landers:  true,
	}
	for _, m := range h.Markers {
		g.ordinals[m.Point] = m.Record.OrdinalIndex()
		g.points[m.Record.OrdinalIndex()] = m.Point
	}

	g.timeline = moonquake.NewTimeline(scene, store, h)
	g.timeline.Window = g.window
	g.timeline.FadeIn = float32(cfg.Timeline.FadeIn)

	h.SetLandersVisible(scene.Graph(), true)
	g.applyLabels()
	g.setWireframe(false)
	g.timeline.Step(0)

	scene.OnClick(g.onClick)
	return g, nil
}

func (g *game) onClick(ctx moonquake.ClickContext) {
	ord, ok := g.ordinals[ctx.Node]
	if !ok {
		return
	}
	rec, _ := g.timeline.Select(ord)
	g.lookAt(ord)
	g.log.Debug().Int("ordinal", ord).Str("type", rec.TypeCode).Msg("Marker selected")
}

func (g *game) lookAt(ord int) {
	n := g.scene.Graph().Node(g.points[ord])
	if n == nil {
		return
	}
	g.scene.Camera().LookAtPoint(n.WorldPosition(), lookTime, ease.OutCubic)
}

func (g *game) step(delta int) {
	if _, ok := g.timeline.Step(delta); !ok {
		return
	}
	if cur, ok := g.timeline.Current(); ok {
		g.lookAt(cur.OrdinalIndex())
	}
}

func (g *game) applyLabels() {
	graph := g.scene.Graph()
	g.handles.SetLabelsVisible(graph, g.labels)
	if !g.landers {
		g.handles.SetLandersVisible(graph, false)
	}
}

func (g *game) setWireframe(on bool) {
	g.wireframe = on
	if n := g.scene.Graph().Node(g.handles.Overlay); n != nil {
		n.SetVisible(on)
	}
}

func (g *game) Update() error {
	if g.runner != nil && g.runner.Done() {
		return ebiten.Termination
	}

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowRight):
		g.step(1)
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft):
		g.step(-1)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		cam := g.scene.Camera()
		if cam.AutoRotate == 0 {
			cam.AutoRotate = autoRotate
		} else {
			cam.AutoRotate = 0
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyL) {
		g.labels = !g.labels
		g.applyLabels()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyW) {
		g.setWireframe(!g.wireframe)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyK) {
		g.landers = !g.landers
		g.handles.SetLandersVisible(g.scene.Graph(), g.landers)
		g.applyLabels()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyM) {
		g.showAll = !g.showAll
		g.timeline.Window = g.window
		if g.showAll {
			g.timeline.Window = allWindow
		}
		g.timeline.ShowAround(g.timeline.Center())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF) {
		g.scene.ShowFPS = !g.scene.ShowFPS
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		g.scene.Screenshot("moonquake")
	}

	g.scene.Update()
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	g.scene.Draw(screen)
	g.drawSelection(screen)
	ebitenutil.DebugPrintAt(screen, g.hud(), 8, 8)
}

// drawSelection circles the selected marker when it faces the camera.
func (g *game) drawSelection(screen *ebiten.Image) {
	cur, ok := g.timeline.Current()
	if !ok {
		return
	}
	n := g.scene.Graph().Node(g.points[cur.OrdinalIndex()])
	if n == nil || !n.Visible {
		return
	}
	cam := g.scene.Camera()
	p := n.WorldPosition()
	if p.Dot(cam.Eye().Sub(p)) <= 0 {
		return
	}
	x, y, _, ok := cam.WorldToScreen(p)
	if !ok {
		return
	}
	vector.StrokeCircle(screen, float32(x), float32(y), 12, 2, highlight, true)
}

func (g *game) hud() string {
	var b strings.Builder
	if cur, ok := g.timeline.Current(); ok {
		t := time.UnixMilli(cur.TimestampMs).UTC()
		fmt.Fprintf(&b, "Event %d/%d  %s  %s\n", cur.OrdinalIndex()+1, g.store.Len(), cur.TypeCode, t.Format("2006-01-02 15:04 MST"))
		fmt.Fprintf(&b, "lat %.2f  lon %.2f\n", cur.LatitudeDeg, cur.LongitudeDeg)
	}
	window := "all events"
	if !g.showAll {
		window = fmt.Sprintf("within %.0f days", math.Round(float64(g.window)/msPerDay))
	}
	fmt.Fprintf(&b, "showing %d %s\n", len(g.timeline.Shown()), window)
	b.WriteString("<-/-> step  space rotate  L labels  W wire  K landers  M all")
	return b.String()
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	cam := g.scene.Camera()
	vp := moonquake.Rect{Width: float64(outsideWidth), Height: float64(outsideHeight)}
	if cam.Viewport != vp {
		cam.Viewport = vp
		cam.MarkDirty()
	}
	return outsideWidth, outsideHeight
}
