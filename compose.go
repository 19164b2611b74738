package moonquake

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/rs/zerolog"
)

// ComposeConfig controls the layout and assets of a composed scene.
type ComposeConfig struct {
	BodyRadius     float64
	BackdropRadius float64
	// OverlayRadius is the wireframe overlay sphere, slightly above the body.
	OverlayRadius float64
	// MarkerRadius is the distance of event markers from the centre.
	MarkerRadius float64
	// LanderLabelAltitude raises lander labels above the surface.
	LanderLabelAltitude float64
	LanderScale         float64

	SphereSegments int
	SphereRings    int

	MarkerColor     Color
	MarkerPointSize float64
	MarkerLabel     LabelSize
	LanderLabel     LabelSize
	LabelForeground Color

	LightPosition  mgl64.Vec3
	LightColor     Color
	LightIntensity float64
	NormalScale    float64
	OverlayColor   Color

	AngleUnit  AngleUnit
	Flattening float64

	BackdropTexture string
	BodyTexture     string
	BodyNormalMap   string
	LanderModel     string

	// PlaceholderOnAssetFailure substitutes placeholders for assets that fail
	// to load and records the failure in Handles.AssetErrors. When false the
	// failure aborts Compose.
	PlaceholderOnAssetFailure bool
}

// DefaultComposeConfig returns the layout of the lunar scene.
func DefaultComposeConfig() ComposeConfig {
	return ComposeConfig{
		BodyRadius:          1,
		BackdropRadius:      10,
		OverlayRadius:       1.002,
		MarkerRadius:        1.01,
		LanderLabelAltitude: 0.06,
		LanderScale:         0.01,
		SphereSegments:      64,
		SphereRings:         32,
		MarkerColor:         ColorHex(0xff4040),
		MarkerPointSize:     6,
		MarkerLabel:         LabelSize{WorldTextHeight: 0.02, WorldTotalHeight: 0.03, PixelTextHeight: 40},
		LanderLabel:         LabelSize{WorldTextHeight: 0.025, WorldTotalHeight: 0.035, PixelTextHeight: 40},
		LabelForeground:     ColorWhite,
		LightPosition:       mgl64.Vec3{0, 0, 1},
		LightColor:          ColorWhite,
		LightIntensity:      1.4,
		NormalScale:         4,
		OverlayColor:        Color{1, 1, 1, 0.08},
		AngleUnit:           AngleLegacy,
		BackdropTexture:     "stars.jpg",
		BodyTexture:         "lroc_color_poles_4k.jpg",
		BodyNormalMap:       "ldem_16_uint.jpg",
		LanderModel:         "lander.glb",

		PlaceholderOnAssetFailure: true,
	}
}

// Marker is the node pair created for one event. Label is a child of Point.
type Marker struct {
	Point  NodeID
	Label  NodeID
	Record EventRecord
	Metric LabelMetrics
}

// Lander is the node pair created for one lander site. Both nodes are
// children of the body.
type Lander struct {
	Model  NodeID
	Label  NodeID
	Record LanderRecord
}

// Handles references every node created by Compose.
type Handles struct {
	Backdrop NodeID
	Body     NodeID
	Light    NodeID
	Overlay  NodeID
	Markers  []Marker
	Landers  []Lander

	// AssetErrors lists assets replaced by placeholders.
	AssetErrors []error
}

// SetMarkersVisible shows or hides every marker point and its label.
func (h *Handles) SetMarkersVisible(g *Graph, visible bool) {
	for _, m := range h.Markers {
		setVisible(g, m.Point, visible)
		setVisible(g, m.Label, visible)
	}
}

// SetLabelsVisible shows or hides marker and lander labels only.
func (h *Handles) SetLabelsVisible(g *Graph, visible bool) {
	for _, m := range h.Markers {
		setVisible(g, m.Label, visible)
	}
	for _, l := range h.Landers {
		setVisible(g, l.Label, visible)
	}
}

// SetLandersVisible shows or hides every lander model and its label.
func (h *Handles) SetLandersVisible(g *Graph, visible bool) {
	for _, l := range h.Landers {
		setVisible(g, l.Model, visible)
		setVisible(g, l.Label, visible)
	}
}

func setVisible(g *Graph, id NodeID, visible bool) {
	if n := g.Node(id); n != nil {
		n.SetVisible(visible)
	}
}

// Composer builds the lunar scene from an event store.
type Composer struct {
	Store  *EventStore
	Assets AssetLoader
	Labels *LabelBuilder
	Config ComposeConfig

	log zerolog.Logger
}

// NewComposer returns a composer using cfg. A nil assets loader yields
// untextured spheres and placeholder landers.
func NewComposer(store *EventStore, assets AssetLoader, labels *LabelBuilder, cfg ComposeConfig) *Composer {
	return &Composer{
		Store:  store,
		Assets: assets,
		Labels: labels,
		Config: cfg,
		log:    zerolog.Nop(),
	}
}

// SetLogger sets the logger used for asset warnings and build statistics.
func (c *Composer) SetLogger(l zerolog.Logger) {
	c.log = l
}

// Compose attaches a complete scene below root and returns its handles.
//
// The lander model loads in the background while the body, backdrop, light,
// overlay and markers are built; Compose then waits for it before adding
// landers. On error or cancellation every node created by this call is
// disposed and root is left as it was.
func (c *Composer) Compose(ctx context.Context, g *Graph, root NodeID) (h *Handles, err error) {
	g.mustNode(root, "Compose (root)")
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg := c.Config
	proj := Projector{Flattening: cfg.Flattening}

	pending := c.loadModel(ctx)
	defer pending.Cancel()

	h = &Handles{}
	defer func() {
		if err != nil {
			for _, id := range []NodeID{h.Backdrop, h.Body, h.Light, h.Overlay} {
				g.Dispose(id)
			}
			h = nil
		}
	}()

	// Backdrop
	backdrop := NewMaterial()
	backdrop.Unlit = true
	backdrop.Side = DoubleSide
	if backdrop.Texture, err = c.texture(ctx, cfg.BackdropTexture, h); err != nil {
		return h, err
	}
	h.Backdrop = g.NewMeshNode("backdrop", &Mesh{
		Geometry: NewSphereGeometry(cfg.BackdropRadius, cfg.SphereSegments, cfg.SphereRings),
		Material: backdrop,
	})
	g.AddChild(root, h.Backdrop)

	// Body
	body := NewMaterial()
	body.NormalScale = cfg.NormalScale
	if body.Texture, err = c.texture(ctx, cfg.BodyTexture, h); err != nil {
		return h, err
	}
	if body.NormalMap, err = c.texture(ctx, cfg.BodyNormalMap, h); err != nil {
		return h, err
	}
	h.Body = g.NewMeshNode("body", &Mesh{
		Geometry: NewSphereGeometry(cfg.BodyRadius, cfg.SphereSegments, cfg.SphereRings),
		Material: body,
	})
	g.AddChild(root, h.Body)

	// Light
	h.Light = g.NewLight("light", Light{Color: cfg.LightColor, Intensity: cfg.LightIntensity})
	g.Node(h.Light).SetPosition(cfg.LightPosition)
	g.AddChild(root, h.Light)

	// Overlay
	overlay := NewMaterial()
	overlay.Wireframe = true
	overlay.Unlit = true
	overlay.Transparent = true
	overlay.Color = cfg.OverlayColor
	h.Overlay = g.NewMeshNode("overlay", &Mesh{
		Geometry: NewSphereGeometry(cfg.OverlayRadius, cfg.SphereSegments/2, cfg.SphereRings/2),
		Material: overlay,
	})
	g.AddChild(root, h.Overlay)

	// Markers
	pointMat := NewMaterial()
	pointMat.Unlit = true
	pointMat.Color = cfg.MarkerColor
	pointMat.PointSize = cfg.MarkerPointSize
	point := &Mesh{Geometry: NewPointGeometry(), Material: pointMat}

	events := c.Store.Events()
	h.Markers = make([]Marker, 0, len(events))
	for _, rec := range events {
		if err := ctx.Err(); err != nil {
			return h, err
		}
		m, err := c.marker(g, proj, point, rec)
		if err != nil {
			return h, err
		}
		g.AddChild(h.Body, m.Point)
		h.Markers = append(h.Markers, m)
	}

	// Landers
	model, err := pending.Wait(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return h, ctxErr
		}
		if model, err = c.assetFailure(cfg.LanderModel, err, h); err != nil {
			return h, err
		}
	}

	landers := c.Store.Landers()
	h.Landers = make([]Lander, 0, len(landers))
	for _, rec := range landers {
		l, err := c.lander(g, proj, model, rec)
		if err != nil {
			return h, err
		}
		g.AddChild(h.Body, l.Model)
		g.AddChild(h.Body, l.Label)
		h.Landers = append(h.Landers, l)
	}

	c.log.Debug().
		Int("markers", len(h.Markers)).
		Int("landers", len(h.Landers)).
		Int("asset_errors", len(h.AssetErrors)).
		Msg("scene composed")
	return h, nil
}

// loadModel starts the lander model load. Without a loader it resolves to a
// placeholder immediately.
func (c *Composer) loadModel(ctx context.Context) *Pending[*Model] {
	name := c.Config.LanderModel
	return LoadAsync(ctx, func(ctx context.Context) (*Model, error) {
		if c.Assets == nil {
			return PlaceholderModel(name, 1), nil
		}
		return c.Assets.LoadModel(ctx, name)
	})
}

// texture loads name, substituting a placeholder on failure when allowed.
func (c *Composer) texture(ctx context.Context, name string, h *Handles) (tex *ebiten.Image, err error) {
	if c.Assets == nil || name == "" {
		return nil, nil
	}
	tex, err = c.Assets.LoadTexture(ctx, name)
	if err == nil {
		return tex, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if !c.Config.PlaceholderOnAssetFailure {
		return nil, asAssetError(name, err)
	}
	err = asAssetError(name, err)
	c.log.Warn().Err(err).Str("asset", name).Msg("using placeholder texture")
	h.AssetErrors = append(h.AssetErrors, err)
	return PlaceholderTexture(ColorHex(0x808080)), nil
}

// assetFailure handles a failed model load.
func (c *Composer) assetFailure(name string, err error, h *Handles) (*Model, error) {
	err = asAssetError(name, err)
	if !c.Config.PlaceholderOnAssetFailure {
		return nil, err
	}
	c.log.Warn().Err(err).Str("asset", name).Msg("using placeholder model")
	h.AssetErrors = append(h.AssetErrors, err)
	return PlaceholderModel(name, 1), nil
}

func asAssetError(name string, err error) error {
	if errors.Is(err, ErrAssetUnavailable) {
		return err
	}
	return &AssetError{Name: name, Err: err}
}

// marker builds the hidden point and label nodes for one event.
func (c *Composer) marker(g *Graph, proj Projector, point *Mesh, rec EventRecord) (Marker, error) {
	cfg := c.Config
	lat := cfg.AngleUnit.radians(rec.LatitudeDeg)
	lon := cfg.AngleUnit.radians(rec.LongitudeDeg)

	lm, err := c.Labels.Build(rec.TypeCode, cfg.MarkerLabel, WithForeground(cfg.LabelForeground))
	if err != nil {
		return Marker{}, fmt.Errorf("moonquake: marker %d: %w", rec.OrdinalIndex(), err)
	}

	name := "marker/" + strconv.Itoa(rec.OrdinalIndex())
	m := Marker{
		Point:  g.NewMeshNode(name, point),
		Label:  g.NewMeshNode(name+"/label", lm.Plane),
		Record: rec,
		Metric: lm.LabelMetrics,
	}
	p := g.Node(m.Point)
	p.SetPosition(proj.Project(lat, lon, cfg.MarkerRadius, 0))
	p.UserData = rec
	p.Visible = false

	l := g.Node(m.Label)
	l.SetPosition(mgl64.Vec3{0, lm.WorldHeight, 0})
	l.Billboard = true
	l.Visible = false
	g.AddChild(m.Point, m.Label)
	return m, nil
}

// lander builds the oriented model instance and label for one lander site.
func (c *Composer) lander(g *Graph, proj Projector, model *Model, rec LanderRecord) (Lander, error) {
	cfg := c.Config
	lat := cfg.AngleUnit.radians(rec.LatitudeDeg)
	lon := cfg.AngleUnit.radians(rec.LongitudeDeg)

	lm, err := c.Labels.Build(rec.MissionTypeCode, cfg.LanderLabel, WithForeground(cfg.LabelForeground))
	if err != nil {
		return Lander{}, fmt.Errorf("moonquake: lander %q: %w", rec.MissionTypeCode, err)
	}

	name := "lander/" + rec.MissionTypeCode
	l := Lander{
		Model:  g.Instantiate(name, model),
		Label:  g.NewMeshNode(name+"/label", lm.Plane),
		Record: rec,
	}
	surface := proj.Project(lat, lon, cfg.BodyRadius, 0)
	n := g.Node(l.Model)
	n.SetPosition(surface)
	n.SetRotation(SurfaceOrientation(surface))
	n.SetUniformScale(cfg.LanderScale)
	n.UserData = rec

	label := g.Node(l.Label)
	label.SetPosition(proj.Project(lat, lon, cfg.BodyRadius, cfg.LanderLabelAltitude))
	label.Billboard = true
	label.UserData = rec
	return l, nil
}
