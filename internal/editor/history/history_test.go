package history

import (
	"fmt"
	"testing"

	"floorplan-studio/internal/editor/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snap(n int) models.Floorplan {
	return models.Floorplan{
		ID:    "fp-1",
		Rooms: []models.Room{{ID: "r1", Name: fmt.Sprintf("room %d", n), X: float64(n)}},
	}
}

func TestUndoRedoInverseLaw(t *testing.T) {
	e := NewEngine(DefaultDepth)
	const n = 6
	for i := 0; i <= n; i++ {
		require.True(t, e.Record("fp-1", snap(i)))
	}

	for i := n - 1; i >= 0; i-- {
		got, ok := e.Undo("fp-1")
		require.True(t, ok)
		assert.Equal(t, snap(i), got)
	}
	_, ok := e.Undo("fp-1")
	assert.False(t, ok)

	for i := 1; i <= n; i++ {
		got, ok := e.Redo("fp-1")
		require.True(t, ok)
		assert.Equal(t, snap(i), got)
	}
	_, ok = e.Redo("fp-1")
	assert.False(t, ok)
}

func TestRedoInvalidation(t *testing.T) {
	e := NewEngine(DefaultDepth)
	e.Record("fp-1", snap(0))
	e.Record("fp-1", snap(1))

	_, ok := e.Undo("fp-1")
	require.True(t, ok)
	assert.True(t, e.CanRedo("fp-1"))

	e.Record("fp-1", snap(2))

	_, ok = e.Redo("fp-1")
	assert.False(t, ok)
	assert.False(t, e.CanRedo("fp-1"))
}

func TestNoOpSuppression(t *testing.T) {
	e := NewEngine(DefaultDepth)
	e.Record("fp-1", snap(0))
	assert.True(t, e.Record("fp-1", snap(1)))
	assert.False(t, e.Record("fp-1", snap(1)))

	_, ok := e.Undo("fp-1")
	assert.True(t, ok)
	_, ok = e.Undo("fp-1")
	assert.False(t, ok)
}

func TestBoundedDepth(t *testing.T) {
	e := NewEngine(DefaultDepth)
	for i := 0; i <= DefaultDepth+1; i++ {
		e.Record("fp-1", snap(i))
	}

	undos := 0
	for {
		if _, ok := e.Undo("fp-1"); !ok {
			break
		}
		undos++
	}
	assert.Equal(t, DefaultDepth, undos)
	assert.Equal(t, DefaultDepth, e.Status("fp-1").Future)
}

func TestUntrackedBehavesEmpty(t *testing.T) {
	e := NewEngine(0)

	_, ok := e.Undo("ghost")
	assert.False(t, ok)
	_, ok = e.Redo("ghost")
	assert.False(t, ok)
	assert.False(t, e.CanUndo("ghost"))
	assert.False(t, e.CanRedo("ghost"))
	assert.Equal(t, Status{}, e.Status("ghost"))

	assert.True(t, e.Record("ghost", snap(0)))
	assert.Equal(t, Status{Tracked: true}, e.Status("ghost"))
}

func TestSnapshotsAreIsolated(t *testing.T) {
	e := NewEngine(DefaultDepth)
	s0 := snap(0)
	e.Record("fp-1", s0)
	s0.Rooms[0].Name = "mutated"

	e.Record("fp-1", snap(1))
	got, ok := e.Undo("fp-1")
	require.True(t, ok)
	assert.Equal(t, "room 0", got.Rooms[0].Name)

	got.Rooms[0].Name = "mutated again"
	present, _ := e.Present("fp-1")
	assert.Equal(t, "room 0", present.Rooms[0].Name)
}

func TestFramesAreIndependent(t *testing.T) {
	e := NewEngine(DefaultDepth)
	e.Record("a", snap(0))
	e.Record("a", snap(1))
	e.Record("b", snap(5))

	assert.True(t, e.CanUndo("a"))
	assert.False(t, e.CanUndo("b"))

	e.Clear("a")
	assert.False(t, e.CanUndo("a"))
	assert.False(t, e.Status("a").Tracked)
}
