package moonquake

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
)

// memLoader serves textures and models from memory.
type memLoader struct {
	mu       sync.Mutex
	textures map[string]*ebiten.Image
	model    *Model
	modelErr error
	// block makes LoadModel wait for ctx after signalling started.
	block   bool
	started chan struct{}
	calls   []string
}

func newMemLoader() *memLoader {
	return &memLoader{
		textures: map[string]*ebiten.Image{},
		model:    PlaceholderModel("test-lander", 1),
		started:  make(chan struct{}, 1),
	}
}

func (l *memLoader) LoadTexture(_ context.Context, name string) (*ebiten.Image, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, "texture:"+name)
	if img, ok := l.textures[name]; ok {
		return img, nil
	}
	return nil, errors.New("not found")
}

func (l *memLoader) LoadModel(ctx context.Context, name string) (*Model, error) {
	l.mu.Lock()
	l.calls = append(l.calls, "model:"+name)
	l.mu.Unlock()
	if l.block {
		l.started <- struct{}{}
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return l.model, l.modelErr
}

func fullLoader() *memLoader {
	l := newMemLoader()
	cfg := DefaultComposeConfig()
	for _, name := range []string{cfg.BackdropTexture, cfg.BodyTexture, cfg.BodyNormalMap} {
		l.textures[name] = ebiten.NewImage(2, 2)
	}
	return l
}

func testStore() *EventStore {
	return NewEventStore(
		[]RawEvent{
			{Type: "M", Long: 0.5, Lat: 0.2, Date: 300},
			{Type: "SH", Long: -1, Lat: -0.4, Date: 100},
			{Type: "A12", Long: 2, Lat: 1, Date: 200},
		},
		[]RawLander{
			{Type: "12 LM", Long: -0.3, Lat: -0.05, Date: 0},
			{Type: "15 LM", Long: 0.004, Lat: 0.46, Date: 50},
		},
	)
}

func testComposer(l AssetLoader) *Composer {
	cfg := DefaultComposeConfig()
	cfg.SphereSegments, cfg.SphereRings = 8, 4
	return NewComposer(testStore(), l, NewLabelBuilder(&fixedTypeface{perRune: 0.5}), cfg)
}

func TestComposeCounts(t *testing.T) {
	g := NewGraph()
	root := g.NewContainer("root")
	c := testComposer(fullLoader())

	h, err := c.Compose(context.Background(), g, root)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if len(h.Markers) != 3 {
		t.Errorf("markers = %d, want 3", len(h.Markers))
	}
	if len(h.Landers) != 2 {
		t.Errorf("landers = %d, want 2", len(h.Landers))
	}
	if len(h.AssetErrors) != 0 {
		t.Errorf("asset errors = %v, want none", h.AssetErrors)
	}
	// backdrop, body, light, overlay
	if g.NumChildren(root) != 4 {
		t.Errorf("root children = %d, want 4", g.NumChildren(root))
	}
	// one point per marker, plus model and label per lander
	if got, want := g.NumChildren(h.Body), 3+2*2; got != want {
		t.Errorf("body children = %d, want %d", got, want)
	}
}

func TestComposeMarkersFollowStoreOrder(t *testing.T) {
	g := NewGraph()
	root := g.NewContainer("root")
	h, err := testComposer(fullLoader()).Compose(context.Background(), g, root)
	if err != nil {
		t.Fatal(err)
	}
	for i, m := range h.Markers {
		if m.Record.OrdinalIndex() != i {
			t.Errorf("marker %d has ordinal %d", i, m.Record.OrdinalIndex())
		}
		if g.Parent(m.Point) != h.Body {
			t.Errorf("marker %d point not attached to body", i)
		}
		if g.Parent(m.Label) != m.Point {
			t.Errorf("marker %d label not a child of its point", i)
		}
	}
	if h.Markers[0].Record.TypeCode != "SH" {
		t.Errorf("first marker = %q, want SH", h.Markers[0].Record.TypeCode)
	}
}

func TestComposeMarkersHiddenAndPlaced(t *testing.T) {
	g := NewGraph()
	root := g.NewContainer("root")
	c := testComposer(fullLoader())
	h, err := c.Compose(context.Background(), g, root)
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range h.Markers {
		p, l := g.Node(m.Point), g.Node(m.Label)
		if p.Visible || l.Visible {
			t.Errorf("marker %s should start hidden", m.Record.TypeCode)
		}
		want := Project(m.Record.LatitudeDeg, m.Record.LongitudeDeg, c.Config.MarkerRadius, 0)
		if !vecNear(p.Position, want, 1e-12) {
			t.Errorf("marker %s at %v, want %v", m.Record.TypeCode, p.Position, want)
		}
		if math.Abs(p.Position.Len()-c.Config.MarkerRadius) > 1e-9 {
			t.Errorf("marker radius = %v", p.Position.Len())
		}
		if l.Position[1] != m.Metric.WorldHeight {
			t.Errorf("label offset = %v, want %v", l.Position[1], m.Metric.WorldHeight)
		}
		if !l.Billboard {
			t.Error("labels should be billboards")
		}
		if p.Mesh.Geometry.Primitive != PrimitivePoints {
			t.Error("marker should be a point primitive")
		}
	}
}

func TestComposeDegreesUnit(t *testing.T) {
	g := NewGraph()
	root := g.NewContainer("root")
	c := testComposer(fullLoader())
	c.Config.AngleUnit = AngleDegrees
	h, err := c.Compose(context.Background(), g, root)
	if err != nil {
		t.Fatal(err)
	}
	m := h.Markers[0]
	want := Project(m.Record.LatitudeDeg*math.Pi/180, m.Record.LongitudeDeg*math.Pi/180, c.Config.MarkerRadius, 0)
	if got := g.Node(m.Point).Position; !vecNear(got, want, 1e-12) {
		t.Errorf("position = %v, want %v", got, want)
	}
}

func TestComposeLandersOrientedToSurface(t *testing.T) {
	g := NewGraph()
	root := g.NewContainer("root")
	c := testComposer(fullLoader())
	h, err := c.Compose(context.Background(), g, root)
	if err != nil {
		t.Fatal(err)
	}
	for _, l := range h.Landers {
		n := g.Node(l.Model)
		normal := n.Position.Normalize()
		if math.Abs(n.Position.Len()-c.Config.BodyRadius) > 1e-9 {
			t.Errorf("%s not on the surface: |p| = %v", l.Record.MissionTypeCode, n.Position.Len())
		}
		if up := n.Rotation.Rotate(axisY); !vecNear(up, normal, 1e-6) {
			t.Errorf("%s up = %v, want normal %v", l.Record.MissionTypeCode, up, normal)
		}
		label := g.Node(l.Label)
		if g.Parent(l.Label) != h.Body || g.Parent(l.Model) != h.Body {
			t.Errorf("%s nodes should be direct children of the body", l.Record.MissionTypeCode)
		}
		if label.Position.Len() <= n.Position.Len() {
			t.Errorf("%s label should sit above the model", l.Record.MissionTypeCode)
		}
	}
}

func TestComposeModelFailureUsesPlaceholder(t *testing.T) {
	l := fullLoader()
	l.modelErr = errors.New("corrupt glb")
	g := NewGraph()
	root := g.NewContainer("root")
	h, err := testComposer(l).Compose(context.Background(), g, root)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if len(h.Landers) != 2 {
		t.Errorf("landers = %d, want 2", len(h.Landers))
	}
	if len(h.AssetErrors) != 1 || !errors.Is(h.AssetErrors[0], ErrAssetUnavailable) {
		t.Errorf("asset errors = %v, want one ErrAssetUnavailable", h.AssetErrors)
	}
}

func TestComposeModelFailureWithoutPlaceholder(t *testing.T) {
	l := fullLoader()
	l.modelErr = errors.New("corrupt glb")
	c := testComposer(l)
	c.Config.PlaceholderOnAssetFailure = false
	g := NewGraph()
	root := g.NewContainer("root")

	h, err := c.Compose(context.Background(), g, root)
	if !errors.Is(err, ErrAssetUnavailable) {
		t.Fatalf("err = %v, want ErrAssetUnavailable", err)
	}
	if h != nil {
		t.Error("handles should be nil on failure")
	}
	if g.NumChildren(root) != 0 || g.Len() != 1 {
		t.Errorf("graph should be rolled back: root children %d, nodes %d", g.NumChildren(root), g.Len())
	}
}

func TestComposeTextureFailureUsesPlaceholder(t *testing.T) {
	l := newMemLoader()
	g := NewGraph()
	root := g.NewContainer("root")
	h, err := testComposer(l).Compose(context.Background(), g, root)
	if err != nil {
		t.Fatal(err)
	}
	if len(h.AssetErrors) != 3 {
		t.Errorf("asset errors = %d, want 3", len(h.AssetErrors))
	}
	if tex := g.Node(h.Body).Mesh.Material.Texture; tex == nil {
		t.Error("body should carry a placeholder texture")
	}
}

func TestComposeCancelledWhileWaiting(t *testing.T) {
	l := fullLoader()
	l.block = true
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-l.started
		cancel()
	}()

	g := NewGraph()
	root := g.NewContainer("root")
	h, err := testComposer(l).Compose(ctx, g, root)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if h != nil {
		t.Error("handles should be nil after cancellation")
	}
	if g.NumChildren(root) != 0 || g.Len() != 1 {
		t.Errorf("no nodes should remain: root children %d, nodes %d", g.NumChildren(root), g.Len())
	}
}

func TestComposeAlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g := NewGraph()
	root := g.NewContainer("root")
	if _, err := testComposer(fullLoader()).Compose(ctx, g, root); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestComposeIndependentCalls(t *testing.T) {
	g := NewGraph()
	root := g.NewContainer("root")
	c := testComposer(fullLoader())
	a, err := c.Compose(context.Background(), g, root)
	if err != nil {
		t.Fatal(err)
	}
	b, err := c.Compose(context.Background(), g, root)
	if err != nil {
		t.Fatal(err)
	}
	if a.Body == b.Body {
		t.Error("bodies should be distinct")
	}
	seen := map[NodeID]bool{}
	for _, h := range []*Handles{a, b} {
		for _, m := range h.Markers {
			if seen[m.Point] || seen[m.Label] {
				t.Fatal("marker nodes shared between calls")
			}
			seen[m.Point], seen[m.Label] = true, true
		}
	}
	if g.NumChildren(root) != 8 {
		t.Errorf("root children = %d, want 8", g.NumChildren(root))
	}
}

func TestComposeLabelErrorPropagates(t *testing.T) {
	boom := errors.New("font missing")
	c := testComposer(fullLoader())
	c.Labels = NewLabelBuilder(&fixedTypeface{measureErr: boom})
	g := NewGraph()
	root := g.NewContainer("root")
	if _, err := c.Compose(context.Background(), g, root); !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
	if g.Len() != 1 {
		t.Errorf("nodes = %d, want only root", g.Len())
	}
}

func TestComposeWithoutLoader(t *testing.T) {
	g := NewGraph()
	root := g.NewContainer("root")
	h, err := testComposer(nil).Compose(context.Background(), g, root)
	if err != nil {
		t.Fatal(err)
	}
	if len(h.Landers) != 2 || len(h.AssetErrors) != 0 {
		t.Errorf("landers=%d errors=%d, want 2 and 0", len(h.Landers), len(h.AssetErrors))
	}
	if g.Node(h.Body).Mesh.Material.Texture != nil {
		t.Error("body should be untextured without a loader")
	}
}

func TestHandlesVisibility(t *testing.T) {
	g := NewGraph()
	root := g.NewContainer("root")
	h, err := testComposer(fullLoader()).Compose(context.Background(), g, root)
	if err != nil {
		t.Fatal(err)
	}
	h.SetMarkersVisible(g, true)
	for _, m := range h.Markers {
		if !g.Node(m.Point).Visible || !g.Node(m.Label).Visible {
			t.Fatal("markers should be visible")
		}
	}
	h.SetLabelsVisible(g, false)
	for _, m := range h.Markers {
		if !g.Node(m.Point).Visible || g.Node(m.Label).Visible {
			t.Fatal("labels hidden, points shown")
		}
	}
	h.SetLandersVisible(g, false)
	for _, l := range h.Landers {
		if g.Node(l.Model).Visible || g.Node(l.Label).Visible {
			t.Fatal("landers should be hidden")
		}
	}
}

func TestSurfaceOrientationOnProjectedSites(t *testing.T) {
	for _, rec := range DefaultEventStore().Landers() {
		p := Project(rec.LatitudeDeg, rec.LongitudeDeg, 1, 0)
		up := SurfaceOrientation(p).Rotate(mgl64.Vec3{0, 1, 0})
		if !vecNear(up, p.Normalize(), 1e-6) {
			t.Errorf("%s: up = %v, want %v", rec.MissionTypeCode, up, p.Normalize())
		}
	}
}
