package moonquake

import (
	"context"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

// setupBenchScene composes the built-in dataset into a scene with all
// markers and labels visible.
func setupBenchScene(b *testing.B) (*Scene, *Handles) {
	b.Helper()
	s := NewScene(Rect{Width: 1280, Height: 720})
	c := NewComposer(DefaultEventStore(), fullLoader(),
		NewLabelBuilder(&fixedTypeface{perRune: 0.5}), DefaultComposeConfig())
	h, err := c.Compose(context.Background(), s.Graph(), s.Root())
	if err != nil {
		b.Fatalf("Compose: %v", err)
	}
	h.SetMarkersVisible(s.Graph(), true)
	h.SetLabelsVisible(s.Graph(), true)
	return s, h
}

// --- Compose ---

func BenchmarkCompose_DefaultDataset(b *testing.B) {
	store := DefaultEventStore()
	labels := NewLabelBuilder(&fixedTypeface{perRune: 0.5})
	loader := fullLoader()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		s := NewScene(Rect{Width: 1280, Height: 720})
		c := NewComposer(store, loader, labels, DefaultComposeConfig())
		if _, err := c.Compose(context.Background(), s.Graph(), s.Root()); err != nil {
			b.Fatal(err)
		}
	}
}

// --- Command emission ---

func BenchmarkBuildCommands_Static(b *testing.B) {
	s, _ := setupBenchScene(b)
	s.buildCommands() // warmup

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		s.buildCommands()
	}
}

func BenchmarkBuildCommands_Orbiting(b *testing.B) {
	s, _ := setupBenchScene(b)
	cam := s.Camera()
	s.buildCommands()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		cam.Rotate(0.01, 0)
		s.buildCommands()
	}
}

func BenchmarkCommandSort(b *testing.B) {
	s, _ := setupBenchScene(b)
	s.buildCommands()
	snapshot := make([]RenderCommand, len(s.commands))
	copy(snapshot, s.commands)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		s.commands = append(s.commands[:0], snapshot...)
		s.mergeSort()
	}
}

// --- Drawing ---

func BenchmarkDraw_DefaultDataset(b *testing.B) {
	s, _ := setupBenchScene(b)
	screen := ebiten.NewImage(1280, 720)
	s.Draw(screen) // warmup

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		s.Draw(screen)
	}
}

// --- Geodetic projection ---

func BenchmarkProject(b *testing.B) {
	p := Projector{Flattening: 0.0012}
	var sink float64

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		lat := AngleDegrees.radians(float64(i%180) - 90)
		lon := AngleDegrees.radians(float64(i%360) - 180)
		v := p.Project(lat, lon, 1, 0)
		sink += v[0]
	}
	_ = sink
}

// --- Timeline and picking ---

func BenchmarkTimelineStep(b *testing.B) {
	s, h := setupBenchScene(b)
	tl := NewTimeline(s, DefaultEventStore(), h)
	tl.FadeIn = 0
	tl.Step(0)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if i%2 == 0 {
			tl.Step(1)
		} else {
			tl.Step(-1)
		}
	}
}

func BenchmarkPick(b *testing.B) {
	s, _ := setupBenchScene(b)
	s.buildCommands()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		s.Pick(float64(i%1280), float64(i%720), 8, s.occluderCenter, 1)
	}
}
