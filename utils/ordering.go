package utils

import (
	"errors"
	"sync"
	"time"

	"outreachflow/models"
)

// Drag gesture tuning. A drag begins only after a press-and-hold dwell on a
// step header, and is abandoned if the pointer wanders before the dwell
// elapses.
const (
	DragDwell         = 200 * time.Millisecond
	DragSlopPx        = 5.0
	AutoscrollBandPx  = 80.0
	AutoscrollMaxMult = 3.0
)

var (
	ErrDragActive        = errors.New("a drag is already active")
	ErrNoActiveDrag      = errors.New("no active drag")
	ErrInteractiveRegion = errors.New("press landed on an interactive region")
)

// Reorder removes the step from its current index, reinserts it at
// targetIndex (computed against the list excluding the dragged item), and
// renumbers every step's Position to its array index. The returned flag is
// false when nothing changed and no write should happen.
func Reorder(steps []models.SequenceStep, stepID uint, targetIndex int) ([]models.SequenceStep, bool) {
	if len(steps) < 2 {
		return steps, false
	}

	current := -1
	for i := range steps {
		if steps[i].ID == stepID {
			current = i
			break
		}
	}
	if current == -1 {
		return steps, false
	}

	remaining := make([]models.SequenceStep, 0, len(steps)-1)
	remaining = append(remaining, steps[:current]...)
	remaining = append(remaining, steps[current+1:]...)

	if targetIndex < 0 {
		targetIndex = 0
	}
	if targetIndex > len(remaining) {
		targetIndex = len(remaining)
	}
	if targetIndex == current {
		return steps, false
	}

	reordered := make([]models.SequenceStep, 0, len(steps))
	reordered = append(reordered, remaining[:targetIndex]...)
	reordered = append(reordered, steps[current])
	reordered = append(reordered, remaining[targetIndex:]...)

	Renumber(reordered)
	return reordered, true
}

// Renumber rewrites every step's Position to its array index
func Renumber(steps []models.SequenceStep) {
	for i := range steps {
		steps[i].Position = i
	}
}

// PositionsContiguous reports whether Position equals array index for every
// step, with no gaps or duplicates.
func PositionsContiguous(steps []models.SequenceStep) bool {
	for i := range steps {
		if steps[i].Position != i {
			return false
		}
	}
	return true
}

// TargetIndex computes the insertion slot for a dragged step: the first
// entry (the midpoints already exclude the dragged item) whose vertical
// midpoint lies below the pointer, else append at the end.
func TargetIndex(pointerY float64, midpoints []float64) int {
	for i, mid := range midpoints {
		if mid > pointerY {
			return i
		}
	}
	return len(midpoints)
}

// AutoscrollSpeed returns the signed scroll speed for a pointer position
// against a scroll container spanning [top, bottom]. Within the edge band
// the speed grows as the pointer nears the edge, capped at 3x base speed;
// negative means scroll up.
func AutoscrollSpeed(pointerY, top, bottom, baseSpeed float64) float64 {
	if dist := pointerY - top; dist < AutoscrollBandPx {
		if dist < 0 {
			dist = 0
		}
		mult := 1 + (AutoscrollBandPx-dist)/AutoscrollBandPx*(AutoscrollMaxMult-1)
		return -baseSpeed * mult
	}
	if dist := bottom - pointerY; dist < AutoscrollBandPx {
		if dist < 0 {
			dist = 0
		}
		mult := 1 + (AutoscrollBandPx-dist)/AutoscrollBandPx*(AutoscrollMaxMult-1)
		return baseSpeed * mult
	}
	return 0
}

// PointerEvent is one pointer sample fed into the drag session
type PointerEvent struct {
	X  float64
	Y  float64
	At time.Time
}

// DragCommit is the outcome of releasing a drag
type DragCommit struct {
	StepID      uint
	OriginIndex int
	TargetIndex int
	Changed     bool
}

// DragEngine owns at most one drag gesture at a time. It holds no DOM or
// rendering concerns: callers feed pointer geometry in and get insertion
// indexes out; the commit decides whether persistence is needed.
type DragEngine struct {
	mu      sync.Mutex
	pending *pendingPress
	active  *dragState
}

type pendingPress struct {
	stepID      uint
	originIndex int
	start       PointerEvent
	stepCount   int
}

type dragState struct {
	stepID      uint
	originIndex int
	lastIndex   int
}

func NewDragEngine() *DragEngine {
	return &DragEngine{}
}

// Press records a press-and-hold candidate on a step header. Presses on
// interactive sub-regions (inputs, editors, toolbars) never start a drag,
// and a second gesture is rejected while one is active.
func (d *DragEngine) Press(stepID uint, originIndex, stepCount int, ev PointerEvent, interactive bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if interactive {
		return ErrInteractiveRegion
	}
	if d.active != nil || d.pending != nil {
		return ErrDragActive
	}
	d.pending = &pendingPress{stepID: stepID, originIndex: originIndex, start: ev, stepCount: stepCount}
	return nil
}

// Move advances the gesture. Before the dwell elapses, moving more than the
// slop aborts the press. Once active, the insertion index is recomputed from
// the supplied midpoints (excluding the dragged step), the same call the
// adapter makes after every autoscroll tick.
func (d *DragEngine) Move(ev PointerEvent, midpoints []float64) (index int, active bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending != nil {
		p := d.pending
		dx := ev.X - p.start.X
		dy := ev.Y - p.start.Y
		if ev.At.Sub(p.start.At) < DragDwell {
			if dx*dx+dy*dy > DragSlopPx*DragSlopPx {
				d.pending = nil
			}
			return 0, false
		}
		d.pending = nil
		// Dragging the sole remaining step is always a no-op
		if p.stepCount < 2 {
			return 0, false
		}
		d.active = &dragState{stepID: p.stepID, originIndex: p.originIndex, lastIndex: p.originIndex}
	}

	if d.active == nil {
		return 0, false
	}
	d.active.lastIndex = TargetIndex(ev.Y, midpoints)
	return d.active.lastIndex, true
}

// Release commits the gesture using the last computed index. Changed is
// false when the step would land back in its pre-drag slot, in which case
// the caller skips persistence entirely.
func (d *DragEngine) Release() (DragCommit, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = nil
	if d.active == nil {
		return DragCommit{}, ErrNoActiveDrag
	}
	st := d.active
	d.active = nil
	return DragCommit{
		StepID:      st.stepID,
		OriginIndex: st.originIndex,
		TargetIndex: st.lastIndex,
		Changed:     st.lastIndex != st.originIndex,
	}, nil
}

// Active reports whether a drag is currently in flight
func (d *DragEngine) Active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active != nil
}
