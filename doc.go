// Package moonquake builds and renders a 3D scene of recorded lunar seismic
// events for [Ebitengine].
//
// The package turns a table of moonquakes and Apollo lander sites into a scene
// graph: a textured Moon, a starfield backdrop, one point marker and billboard
// label per event, and a model per lander. The scene is drawn with a small
// software 3D pipeline on top of ebiten's triangle API.
//
// # Quick start
//
// Compose a store into a [Scene] and drive it from an [ebiten.Game]:
//
//	store := moonquake.DefaultEventStore()
//	tf, _ := moonquake.DefaultTypeface()
//	c := moonquake.NewComposer(store, moonquake.NewDirLoader("assets"),
//		moonquake.NewLabelBuilder(tf), moonquake.DefaultComposeConfig())
//
//	scene := moonquake.NewScene(moonquake.Rect{Width: 1280, Height: 720})
//	h, err := c.Compose(ctx, scene.Graph(), scene.Root())
//	if err != nil {
//		return err
//	}
//	h.SetMarkersVisible(scene.Graph(), true)
//
//	type Game struct{ scene *moonquake.Scene }
//
//	func (g *Game) Update() error         { g.scene.Update(); return nil }
//	func (g *Game) Draw(s *ebiten.Image)  { g.scene.Draw(s) }
//	func (g *Game) Layout(w, h int) (int, int) { return w, h }
//
// # Scene graph
//
// Every element is a [Node] owned by a [Graph] and addressed by [NodeID].
// Children inherit their parent's transform and alpha. Meshes pair a
// [Geometry] with a [Material]; lights illuminate lit materials.
//
// # Geodetic projection
//
// [Projector] maps latitude and longitude on a sphere to scene coordinates
// with +Z through the north pole and longitude zero on +X. Angles may be
// given in radians or degrees, see [AngleUnit].
//
// # Labels
//
// [LabelBuilder] rasterises text into a padded canvas and wraps it in a
// billboard plane whose aspect ratio matches the text. Any [Typeface] works;
// [TTFTypeface] and [BitmapTypeface] are provided.
//
// # Timeline
//
// [Timeline] reveals only the markers of events near a selected time, fading
// new ones in with [gween] tweens.
//
// [Ebitengine]: https://ebitengine.org
// [gween]: https://github.com/tanema/gween
package moonquake
