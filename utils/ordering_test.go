package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"outreachflow/models"
)

func makeSteps(n int) []models.SequenceStep {
	steps := make([]models.SequenceStep, n)
	for i := range steps {
		steps[i] = models.SequenceStep{
			Model:    gorm.Model{ID: uint(i + 1)},
			Type:     models.StepTypeCustomTask,
			Position: i,
		}
	}
	return steps
}

func TestReorderMovesAndRenumbers(t *testing.T) {
	steps := makeSteps(4)

	// Move the first step to the last slot
	reordered, changed := Reorder(steps, 1, 3)
	require.True(t, changed)
	require.Len(t, reordered, 4)

	assert.Equal(t, []uint{2, 3, 4, 1}, stepIDs(reordered))
	assert.True(t, PositionsContiguous(reordered))
}

func TestReorderMoveUp(t *testing.T) {
	steps := makeSteps(4)

	reordered, changed := Reorder(steps, 4, 0)
	require.True(t, changed)

	assert.Equal(t, []uint{4, 1, 2, 3}, stepIDs(reordered))
	assert.True(t, PositionsContiguous(reordered))
}

func TestReorderSameSlotIsNoOp(t *testing.T) {
	steps := makeSteps(3)

	_, changed := Reorder(steps, 2, 1)
	assert.False(t, changed)
}

func TestReorderClampsTarget(t *testing.T) {
	steps := makeSteps(3)

	reordered, changed := Reorder(steps, 1, 99)
	require.True(t, changed)
	assert.Equal(t, []uint{2, 3, 1}, stepIDs(reordered))

	reordered, changed = Reorder(steps, 3, -5)
	require.True(t, changed)
	assert.Equal(t, []uint{3, 1, 2}, stepIDs(reordered))
}

func TestReorderSingleStepIsNoOp(t *testing.T) {
	steps := makeSteps(1)
	_, changed := Reorder(steps, 1, 0)
	assert.False(t, changed)
}

func TestReorderUnknownStepIsNoOp(t *testing.T) {
	steps := makeSteps(3)
	_, changed := Reorder(steps, 42, 0)
	assert.False(t, changed)
}

func stepIDs(steps []models.SequenceStep) []uint {
	ids := make([]uint, len(steps))
	for i := range steps {
		ids[i] = steps[i].ID
	}
	return ids
}

func TestTargetIndex(t *testing.T) {
	midpoints := []float64{100, 200, 300}

	assert.Equal(t, 0, TargetIndex(50, midpoints))
	assert.Equal(t, 1, TargetIndex(150, midpoints))
	assert.Equal(t, 2, TargetIndex(250, midpoints))
	assert.Equal(t, 3, TargetIndex(350, midpoints))
	assert.Equal(t, 0, TargetIndex(50, nil))
}

func TestAutoscrollSpeed(t *testing.T) {
	const top, bottom, base = 0.0, 600.0, 10.0

	// Middle of the container: no scrolling
	assert.Zero(t, AutoscrollSpeed(300, top, bottom, base))

	// Inside the bottom band: positive, growing toward the edge
	mild := AutoscrollSpeed(530, top, bottom, base)
	strong := AutoscrollSpeed(595, top, bottom, base)
	assert.Greater(t, mild, 0.0)
	assert.Greater(t, strong, mild)

	// Inside the top band: negative
	assert.Less(t, AutoscrollSpeed(10, top, bottom, base), 0.0)

	// At the very edge the speed caps at 3x base
	assert.InDelta(t, base*AutoscrollMaxMult, AutoscrollSpeed(bottom, top, bottom, base), 0.001)
	assert.InDelta(t, -base*AutoscrollMaxMult, AutoscrollSpeed(top, top, bottom, base), 0.001)

	// Past the edge stays capped
	assert.InDelta(t, base*AutoscrollMaxMult, AutoscrollSpeed(bottom+50, top, bottom, base), 0.001)
}

func TestDragEngineDwellAndSlop(t *testing.T) {
	d := NewDragEngine()
	start := time.Now()

	require.NoError(t, d.Press(1, 0, 3, PointerEvent{X: 10, Y: 10, At: start}, false))

	// Moving within the slop before the dwell keeps the press pending
	_, active := d.Move(PointerEvent{X: 12, Y: 11, At: start.Add(50 * time.Millisecond)}, nil)
	assert.False(t, active)

	// After the dwell the drag activates and indexes are computed
	index, active := d.Move(PointerEvent{X: 12, Y: 250, At: start.Add(DragDwell + 10*time.Millisecond)}, []float64{100, 200, 300})
	assert.True(t, active)
	assert.Equal(t, 2, index)
	assert.True(t, d.Active())

	commit, err := d.Release()
	require.NoError(t, err)
	assert.Equal(t, uint(1), commit.StepID)
	assert.Equal(t, 0, commit.OriginIndex)
	assert.Equal(t, 2, commit.TargetIndex)
	assert.True(t, commit.Changed)
	assert.False(t, d.Active())
}

func TestDragEngineSlopAbortsPress(t *testing.T) {
	d := NewDragEngine()
	start := time.Now()

	require.NoError(t, d.Press(1, 0, 3, PointerEvent{X: 10, Y: 10, At: start}, false))

	// Wandering past the slop before the dwell abandons the gesture
	_, active := d.Move(PointerEvent{X: 30, Y: 10, At: start.Add(50 * time.Millisecond)}, nil)
	assert.False(t, active)

	_, active = d.Move(PointerEvent{X: 30, Y: 10, At: start.Add(DragDwell * 2)}, []float64{100})
	assert.False(t, active)

	_, err := d.Release()
	assert.ErrorIs(t, err, ErrNoActiveDrag)
}

func TestDragEngineInteractiveRegion(t *testing.T) {
	d := NewDragEngine()
	err := d.Press(1, 0, 3, PointerEvent{At: time.Now()}, true)
	assert.ErrorIs(t, err, ErrInteractiveRegion)
	assert.False(t, d.Active())
}

func TestDragEngineRejectsSecondGesture(t *testing.T) {
	d := NewDragEngine()
	start := time.Now()

	require.NoError(t, d.Press(1, 0, 3, PointerEvent{At: start}, false))
	assert.ErrorIs(t, d.Press(2, 1, 3, PointerEvent{At: start}, false), ErrDragActive)
}

func TestDragEngineSoleStepNeverDrags(t *testing.T) {
	d := NewDragEngine()
	start := time.Now()

	require.NoError(t, d.Press(1, 0, 1, PointerEvent{At: start}, false))

	_, active := d.Move(PointerEvent{At: start.Add(DragDwell * 2)}, nil)
	assert.False(t, active)

	_, err := d.Release()
	assert.ErrorIs(t, err, ErrNoActiveDrag)
}

func TestDragEngineUnchangedRelease(t *testing.T) {
	d := NewDragEngine()
	start := time.Now()

	require.NoError(t, d.Press(2, 1, 3, PointerEvent{X: 10, Y: 150, At: start}, false))

	// Activate and land back on the origin slot
	index, active := d.Move(PointerEvent{X: 10, Y: 150, At: start.Add(DragDwell + time.Millisecond)}, []float64{100, 300})
	require.True(t, active)
	require.Equal(t, 1, index)

	commit, err := d.Release()
	require.NoError(t, err)
	assert.False(t, commit.Changed)
}
