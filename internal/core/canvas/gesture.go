package canvas

import (
	"math"
	"time"
)

// Gesture arbitration: the single-pointer family (drag XOR tap) races the
// two-pointer family (pinch AND twist, simultaneous). The first family to
// exceed its activation threshold wins the touch sequence and the other is
// cancelled. Within the single-pointer family, drag and tap are mutually
// exclusive: movement past the slop promotes to drag, a quick release
// within the slop resolves as tap.

type GestureKind int

const (
	GestureNone GestureKind = iota
	GestureTap
	GestureDrag
	GesturePinchRotate
)

// GestureResult is the completed outcome of one touch sequence. Drag
// carries the total translation; PinchRotate carries the multiplicative
// scale factor and the rotation delta in radians, both applied at once.
type GestureResult struct {
	Kind     GestureKind
	DX, DY   float64
	Scale    float64
	Rotation float64
}

const (
	defaultTapMaxDuration = 250 * time.Millisecond
	defaultDragSlop       = 8.0
)

type recognizerState int

const (
	stateIdle recognizerState = iota
	stateSinglePending // one pointer down, no family has won yet
	stateDragging      // single-pointer family won as drag
	stateTwoPointer    // two-pointer family won
	stateSpent         // sequence resolved or cancelled, waiting for all up
)

type pointer struct {
	x, y float64
}

// Recognizer interprets raw pointer events into gestures. It is not safe
// for concurrent use; one recognizer serves one touch surface.
type Recognizer struct {
	TapMaxDuration time.Duration
	DragSlop       float64

	state    recognizerState
	pointers map[int]pointer
	order    []int // pointer ids in down order, keeps pair geometry stable

	startX, startY float64
	startAt        time.Time
	dragDX, dragDY float64

	pinchStartDist  float64
	pinchStartAngle float64
	pinchScale      float64
	pinchRotation   float64
}

func NewRecognizer() *Recognizer {
	return &Recognizer{
		TapMaxDuration: defaultTapMaxDuration,
		DragSlop:       defaultDragSlop,
		pointers:       map[int]pointer{},
	}
}

// PointerDown registers a new touch. When a second pointer lands on an
// already-won drag, the drag completes with its translation so far and the
// rest of the sequence is swallowed.
func (r *Recognizer) PointerDown(id int, x, y float64, at time.Time) GestureResult {
	if _, ok := r.pointers[id]; !ok {
		r.order = append(r.order, id)
	}
	r.pointers[id] = pointer{x: x, y: y}

	switch r.state {
	case stateIdle:
		r.state = stateSinglePending
		r.startX, r.startY = x, y
		r.startAt = at
	case stateSinglePending:
		// Second pointer lands before the single family activated: the
		// two-pointer family wins the race and the tap/drag candidates are
		// cancelled.
		r.beginTwoPointer()
	case stateDragging:
		// Drag already won the race; the two-pointer family stays out. The
		// extra pointer ends the drag instead of restarting arbitration.
		r.state = stateSpent
		return GestureResult{Kind: GestureDrag, DX: r.dragDX, DY: r.dragDY}
	case stateTwoPointer, stateSpent:
		// Extra pointers beyond two change nothing.
	}
	return GestureResult{}
}

func (r *Recognizer) PointerMove(id int, x, y float64, _ time.Time) {
	if _, ok := r.pointers[id]; !ok {
		return
	}
	r.pointers[id] = pointer{x: x, y: y}

	switch r.state {
	case stateSinglePending:
		dx, dy := x-r.startX, y-r.startY
		if math.Hypot(dx, dy) > r.DragSlop {
			// Movement threshold exceeded first: drag wins, tap is out.
			r.state = stateDragging
		}
		r.dragDX, r.dragDY = dx, dy
	case stateDragging:
		r.dragDX, r.dragDY = x-r.startX, y-r.startY
	case stateTwoPointer:
		r.updateTwoPointer()
	}
}

// PointerUp resolves the sequence. The completed gesture, if any, is
// reported exactly once, on the release that ends the winning family.
func (r *Recognizer) PointerUp(id int, at time.Time) GestureResult {
	if _, ok := r.pointers[id]; !ok {
		return GestureResult{}
	}
	inPair := len(r.order) >= 2 && (r.order[0] == id || r.order[1] == id)
	delete(r.pointers, id)
	for i, pid := range r.order {
		if pid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	if r.state == stateTwoPointer && !inPair {
		// A third finger lifting does not end the active pinch.
		return GestureResult{}
	}

	var result GestureResult
	switch r.state {
	case stateSinglePending:
		if at.Sub(r.startAt) <= r.TapMaxDuration {
			result = GestureResult{Kind: GestureTap}
		}
	case stateDragging:
		result = GestureResult{Kind: GestureDrag, DX: r.dragDX, DY: r.dragDY}
	case stateTwoPointer:
		r.updateTwoPointer()
		result = GestureResult{
			Kind:     GesturePinchRotate,
			Scale:    r.pinchScale,
			Rotation: r.pinchRotation,
		}
	}

	if len(r.pointers) == 0 {
		r.reset()
	} else {
		// A finger is still down after the gesture resolved; swallow the
		// remainder of this touch sequence.
		r.state = stateSpent
	}
	return result
}

// Cancel aborts the sequence without emitting a gesture.
func (r *Recognizer) Cancel() {
	r.reset()
}

func (r *Recognizer) beginTwoPointer() {
	r.state = stateTwoPointer
	d, a := r.pairDistAngle()
	r.pinchStartDist = d
	r.pinchStartAngle = a
	r.pinchScale = 1
	r.pinchRotation = 0
}

func (r *Recognizer) updateTwoPointer() {
	if len(r.pointers) < 2 {
		return
	}
	d, a := r.pairDistAngle()
	if r.pinchStartDist > 0 {
		r.pinchScale = d / r.pinchStartDist
	}
	r.pinchRotation = a - r.pinchStartAngle
}

func (r *Recognizer) pairDistAngle() (dist, angle float64) {
	if len(r.order) < 2 {
		return 0, 0
	}
	a := r.pointers[r.order[0]]
	b := r.pointers[r.order[1]]
	dx := b.x - a.x
	dy := b.y - a.y
	return math.Hypot(dx, dy), math.Atan2(dy, dx)
}

func (r *Recognizer) reset() {
	r.state = stateIdle
	r.dragDX, r.dragDY = 0, 0
	r.pinchScale, r.pinchRotation = 0, 0
	for id := range r.pointers {
		delete(r.pointers, id)
	}
	r.order = r.order[:0]
}
