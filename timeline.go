package moonquake

import (
	"github.com/tanema/gween/ease"
)

// DefaultTimelineWindow is the default half-width of the visible time window:
// about one synodic month either side of the selected time.
const DefaultTimelineWindow int64 = 15 * 24 * 60 * 60 * 1000

// Timeline shows the markers of events that occurred near a selected time and
// hides the rest. Newly shown markers fade in.
type Timeline struct {
	// Window is the half-width of the visible time range in milliseconds.
	Window int64
	// FadeIn is the fade duration in seconds. Zero shows markers at full alpha.
	FadeIn float32
	// Ease shapes the fade. Nil means ease.OutQuad.
	Ease ease.TweenFunc

	scene   *Scene
	store   *EventStore
	markers []NodeID // point node per ordinal index
	shown   []bool
	fades   []*TweenGroup
	center  int64
	cursor  int
}

// NewTimeline binds the markers in h to the store they were composed from.
// Fades are registered with scene.
func NewTimeline(scene *Scene, store *EventStore, h *Handles) *Timeline {
	n := store.Len()
	t := &Timeline{
		Window:  DefaultTimelineWindow,
		FadeIn:  0.4,
		scene:   scene,
		store:   store,
		markers: make([]NodeID, n),
		shown:   make([]bool, n),
		fades:   make([]*TweenGroup, n),
		cursor:  -1,
	}
	for _, m := range h.Markers {
		if i := m.Record.OrdinalIndex(); i >= 0 && i < n {
			t.markers[i] = m.Point
		}
	}
	return t
}

// Center returns the time the timeline was last centred on.
func (t *Timeline) Center() int64 {
	return t.center
}

// Current returns the event selected by the last Step, if any.
func (t *Timeline) Current() (EventRecord, bool) {
	if t.cursor < 0 || t.cursor >= t.store.Len() {
		return EventRecord{}, false
	}
	return t.store.Event(t.cursor), true
}

// Shown returns the ordinal indexes of the currently visible markers in
// ascending order.
func (t *Timeline) Shown() []int {
	var out []int
	for i, v := range t.shown {
		if v {
			out = append(out, i)
		}
	}
	return out
}

// ShowAround makes visible exactly the markers whose events lie within Window
// of centerMs and returns how many are shown.
func (t *Timeline) ShowAround(centerMs int64) int {
	t.center = centerMs
	want := make([]bool, len(t.shown))
	for _, rec := range t.store.Query(centerMs, t.Window) {
		want[rec.OrdinalIndex()] = true
	}

	g := t.scene.Graph()
	count := 0
	for i, id := range t.markers {
		n := g.Node(id)
		if n == nil {
			continue
		}
		switch {
		case want[i] && !t.shown[i]:
			t.show(i, n)
		case !want[i] && t.shown[i]:
			t.stopFade(i)
			n.SetVisible(false)
		}
		t.shown[i] = want[i]
		if want[i] {
			count++
		}
	}
	return count
}

func (t *Timeline) show(i int, n *Node) {
	t.stopFade(i)
	n.SetVisible(true)
	if t.FadeIn <= 0 {
		n.SetAlpha(1)
		return
	}
	fn := t.Ease
	if fn == nil {
		fn = ease.OutQuad
	}
	n.SetAlpha(0)
	tw := TweenAlpha(n, 1, t.FadeIn, fn)
	t.fades[i] = tw
	t.scene.AddTween(tw)
}

func (t *Timeline) stopFade(i int) {
	if tw := t.fades[i]; tw != nil {
		tw.Stop()
		t.fades[i] = nil
	}
}

// Step moves the selection delta events forward (or backward when negative),
// clamped to the store, and centres the timeline on the selected event.
// Without a prior selection the first step starts from the event nearest the
// current centre. Returns false for an empty store.
func (t *Timeline) Step(delta int) (EventRecord, bool) {
	n := t.store.Len()
	if n == 0 {
		return EventRecord{}, false
	}
	next := t.cursor
	if next < 0 {
		next = t.store.Nearest(t.center)
	} else {
		next += delta
	}
	next = max(0, min(next, n-1))
	t.cursor = next
	rec := t.store.Event(next)
	t.ShowAround(rec.TimestampMs)
	return rec, true
}

// Select centres the timeline on the event with the given ordinal index.
func (t *Timeline) Select(ordinal int) (EventRecord, bool) {
	if ordinal < 0 || ordinal >= t.store.Len() {
		return EventRecord{}, false
	}
	t.cursor = ordinal
	rec := t.store.Event(ordinal)
	t.ShowAround(rec.TimestampMs)
	return rec, true
}
