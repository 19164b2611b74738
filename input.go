package moonquake

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
)

// --- Constants ---

const (
	maxPointers         = 10  // pointer 0 = mouse, 1-9 = touch
	defaultDragDeadZone = 4.0 // pixels
	defaultPickRadius   = 8.0 // pixels
	defaultOrbitSpeed   = 0.005
	wheelZoomStep       = 0.1
)

// MouseButton identifies a mouse button.
type MouseButton uint8

const (
	MouseButtonLeft MouseButton = iota
	MouseButtonRight
	MouseButtonMiddle
)

// ClickContext describes a press and release without a drag. Node is the
// picked marker or None when the click hit empty space.
type ClickContext struct {
	Node      NodeID
	ScreenX   float64
	ScreenY   float64
	Button    MouseButton
	PointerID int
}

// DragContext describes a drag gesture. Deltas are relative to the previous
// drag event, Start is where the pointer was pressed.
type DragContext struct {
	ScreenX, ScreenY float64
	StartX, StartY   float64
	DeltaX, DeltaY   float64
	Button           MouseButton
	PointerID        int
}

// PinchContext describes a two-finger pinch.
type PinchContext struct {
	CenterX, CenterY float64
	// Scale is the distance ratio since the pinch started.
	Scale float64
	// ScaleDelta is the ratio change since the previous frame, minus one.
	ScaleDelta float64
}

// --- Per-pointer state ---

type pointerState struct {
	down     bool
	startX   float64
	startY   float64
	lastX    float64
	lastY    float64
	hitNode  NodeID
	dragging bool
	button   MouseButton
}

type pinchState struct {
	active      bool
	initialDist float64
	prevDist    float64
}

// --- Handler registry ---

type eventKind uint8

const (
	eventClick eventKind = iota
	eventDragStart
	eventDrag
	eventDragEnd
	eventPinch
)

type clickHandler struct {
	id uint32
	fn func(ClickContext)
}

type dragHandler struct {
	id uint32
	fn func(DragContext)
}

type pinchHandler struct {
	id uint32
	fn func(PinchContext)
}

type handlerRegistry struct {
	click     []clickHandler
	dragStart []dragHandler
	drag      []dragHandler
	dragEnd   []dragHandler
	pinch     []pinchHandler
	nextID    uint32
}

// CallbackHandle allows removing a registered scene-level callback.
type CallbackHandle struct {
	id    uint32
	reg   *handlerRegistry
	event eventKind
}

// Remove unregisters this callback so it no longer fires.
func (h CallbackHandle) Remove() {
	if h.reg == nil {
		return
	}
	switch h.event {
	case eventClick:
		h.reg.click = removeHandler(h.reg.click, h.id, func(c clickHandler) uint32 { return c.id })
	case eventDragStart:
		h.reg.dragStart = removeHandler(h.reg.dragStart, h.id, func(d dragHandler) uint32 { return d.id })
	case eventDrag:
		h.reg.drag = removeHandler(h.reg.drag, h.id, func(d dragHandler) uint32 { return d.id })
	case eventDragEnd:
		h.reg.dragEnd = removeHandler(h.reg.dragEnd, h.id, func(d dragHandler) uint32 { return d.id })
	case eventPinch:
		h.reg.pinch = removeHandler(h.reg.pinch, h.id, func(p pinchHandler) uint32 { return p.id })
	}
}

func removeHandler[T any](s []T, id uint32, idOf func(T) uint32) []T {
	for i, h := range s {
		if idOf(h) == id {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}

func (r *handlerRegistry) next() uint32 {
	r.nextID++
	return r.nextID
}

// OnClick registers fn for clicks anywhere in the viewport.
func (s *Scene) OnClick(fn func(ClickContext)) CallbackHandle {
	id := s.handlers.next()
	s.handlers.click = append(s.handlers.click, clickHandler{id: id, fn: fn})
	return CallbackHandle{id: id, reg: &s.handlers, event: eventClick}
}

// OnDragStart registers fn for the start of a drag.
func (s *Scene) OnDragStart(fn func(DragContext)) CallbackHandle {
	id := s.handlers.next()
	s.handlers.dragStart = append(s.handlers.dragStart, dragHandler{id: id, fn: fn})
	return CallbackHandle{id: id, reg: &s.handlers, event: eventDragStart}
}

// OnDrag registers fn for every drag movement.
func (s *Scene) OnDrag(fn func(DragContext)) CallbackHandle {
	id := s.handlers.next()
	s.handlers.drag = append(s.handlers.drag, dragHandler{id: id, fn: fn})
	return CallbackHandle{id: id, reg: &s.handlers, event: eventDrag}
}

// OnDragEnd registers fn for the end of a drag.
func (s *Scene) OnDragEnd(fn func(DragContext)) CallbackHandle {
	id := s.handlers.next()
	s.handlers.dragEnd = append(s.handlers.dragEnd, dragHandler{id: id, fn: fn})
	return CallbackHandle{id: id, reg: &s.handlers, event: eventDragEnd}
}

// OnPinch registers fn for two-finger pinches.
func (s *Scene) OnPinch(fn func(PinchContext)) CallbackHandle {
	id := s.handlers.next()
	s.handlers.pinch = append(s.handlers.pinch, pinchHandler{id: id, fn: fn})
	return CallbackHandle{id: id, reg: &s.handlers, event: eventPinch}
}

// SetDragDeadZone sets the distance in pixels a pointer must move before a
// press becomes a drag.
func (s *Scene) SetDragDeadZone(pixels float64) {
	s.dragDeadZone = pixels
}

// SetOccluder sets the sphere that hides markers behind it from picking,
// normally the body.
func (s *Scene) SetOccluder(center mgl64.Vec3, radius float64) {
	s.occluderCenter = center
	s.occluderRadius = radius
}

// pickAt picks the marker under a screen point using the scene's pick radius
// and occluder.
func (s *Scene) pickAt(sx, sy float64) NodeID {
	return s.Pick(sx, sy, s.PickRadius, s.occluderCenter, s.occluderRadius)
}

// --- Input processing ---

// processInput is called from Scene.Update to handle mouse, touch and wheel
// input. Injected events replace real input for the frame they are consumed.
func (s *Scene) processInput() {
	if s.processInjectedInput() {
		return
	}
	s.processMousePointer()
	s.processTouchPointers()
	s.detectPinch()

	if _, wy := ebiten.Wheel(); wy != 0 && s.OrbitControls {
		s.camera.Zoom(1 - wy*wheelZoomStep)
	}
}

// processMousePointer handles mouse input (pointer 0).
func (s *Scene) processMousePointer() {
	mx, my := ebiten.CursorPosition()

	var pressed bool
	var button MouseButton
	left := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	right := ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight)
	middle := ebiten.IsMouseButtonPressed(ebiten.MouseButtonMiddle)
	if left || right || middle {
		pressed = true
		switch {
		case left:
			button = MouseButtonLeft
		case right:
			button = MouseButtonRight
		default:
			button = MouseButtonMiddle
		}
	}

	s.processPointer(0, float64(mx), float64(my), pressed, button)
}

// processTouchPointers handles touch input (pointers 1-9).
func (s *Scene) processTouchPointers() {
	touchIDs := ebiten.AppendTouchIDs(s.prevTouchIDs[:0])
	s.prevTouchIDs = touchIDs

	var activeSlots [maxPointers]bool
	for _, tid := range touchIDs {
		slot := s.touchSlot(tid)
		if slot < 0 {
			continue
		}
		activeSlots[slot] = true
		tx, ty := ebiten.TouchPosition(tid)
		s.processPointer(slot, float64(tx), float64(ty), true, MouseButtonLeft)
	}

	for i := 1; i < maxPointers; i++ {
		if s.touchUsed[i] && !activeSlots[i] {
			ps := &s.pointers[i]
			if ps.down {
				s.processPointer(i, ps.lastX, ps.lastY, false, MouseButtonLeft)
			}
			s.touchUsed[i] = false
			s.touchMap[i] = 0
		}
	}
}

// touchSlot maps an ebiten.TouchID to a pointer slot (1-9).
// Returns -1 if all slots are in use.
func (s *Scene) touchSlot(tid ebiten.TouchID) int {
	for i := 1; i < maxPointers; i++ {
		if s.touchUsed[i] && s.touchMap[i] == tid {
			return i
		}
	}
	for i := 1; i < maxPointers; i++ {
		if !s.touchUsed[i] {
			s.touchUsed[i] = true
			s.touchMap[i] = tid
			return i
		}
	}
	return -1
}

// processPointer runs the pointer state machine for a single pointer in
// screen coordinates.
func (s *Scene) processPointer(pointerID int, sx, sy float64, pressed bool, button MouseButton) {
	ps := &s.pointers[pointerID]

	switch {
	case pressed && !ps.down:
		ps.down = true
		ps.button = button
		ps.startX, ps.startY = sx, sy
		ps.lastX, ps.lastY = sx, sy
		ps.hitNode = s.pickAt(sx, sy)
		ps.dragging = false

	case !pressed && ps.down:
		if ps.dragging {
			s.fireDrag(s.handlers.dragEnd, ps, pointerID, sx, sy)
		} else if hit := s.pickAt(sx, sy); hit == ps.hitNode {
			s.fireClick(ClickContext{
				Node: hit, ScreenX: sx, ScreenY: sy,
				Button: ps.button, PointerID: pointerID,
			})
		}
		ps.down = false
		ps.hitNode = None
		ps.dragging = false

	case pressed && ps.down:
		if sx != ps.lastX || sy != ps.lastY {
			if !ps.dragging && math.Hypot(sx-ps.startX, sy-ps.startY) > s.dragDeadZone {
				ps.dragging = true
				s.fireDrag(s.handlers.dragStart, ps, pointerID, sx, sy)
			}
			if ps.dragging {
				s.fireDrag(s.handlers.drag, ps, pointerID, sx, sy)
				if s.OrbitControls && !s.pinch.active && ps.button == MouseButtonLeft {
					s.camera.Rotate(-(sx-ps.lastX)*s.OrbitSpeed, (sy-ps.lastY)*s.OrbitSpeed)
				}
			}
		}
		ps.lastX, ps.lastY = sx, sy

	default:
		ps.lastX, ps.lastY = sx, sy
	}
}

// --- Pinch detection ---

func (s *Scene) detectPinch() {
	var p0, p1 *pointerState
	count := 0
	for i := 1; i < maxPointers; i++ {
		if s.pointers[i].down {
			switch count {
			case 0:
				p0 = &s.pointers[i]
			case 1:
				p1 = &s.pointers[i]
			}
			count++
		}
	}

	if count != 2 {
		s.pinch.active = false
		return
	}

	dist := math.Hypot(p1.lastX-p0.lastX, p1.lastY-p0.lastY)
	if !s.pinch.active {
		s.pinch = pinchState{active: true, initialDist: dist, prevDist: dist}
	} else {
		ctx := PinchContext{
			CenterX: (p0.lastX + p1.lastX) / 2,
			CenterY: (p0.lastY + p1.lastY) / 2,
			Scale:   1,
		}
		if s.pinch.initialDist > 0 {
			ctx.Scale = dist / s.pinch.initialDist
		}
		if s.pinch.prevDist > 0 {
			ctx.ScaleDelta = dist/s.pinch.prevDist - 1
		}
		for _, h := range s.handlers.pinch {
			h.fn(ctx)
		}
		if s.OrbitControls && ctx.ScaleDelta > -1 {
			s.camera.Zoom(1 / (1 + ctx.ScaleDelta))
		}
		s.pinch.prevDist = dist
	}

	// Pinch pointers never drag.
	p0.dragging = false
	p1.dragging = false
}

// --- Event dispatch ---

func (s *Scene) fireClick(ctx ClickContext) {
	for _, h := range s.handlers.click {
		h.fn(ctx)
	}
}

func (s *Scene) fireDrag(handlers []dragHandler, ps *pointerState, pointerID int, sx, sy float64) {
	ctx := DragContext{
		ScreenX: sx, ScreenY: sy,
		StartX: ps.startX, StartY: ps.startY,
		DeltaX: sx - ps.lastX, DeltaY: sy - ps.lastY,
		Button: ps.button, PointerID: pointerID,
	}
	for _, h := range handlers {
		h.fn(ctx)
	}
}
