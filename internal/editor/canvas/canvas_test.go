package canvas

import (
	"context"
	"math"
	"sync"
	"testing"

	"floorplan-studio/internal/common/logger"
	"floorplan-studio/internal/editor/history"
	"floorplan-studio/internal/editor/models"
	"floorplan-studio/internal/editor/repository"
	"floorplan-studio/internal/editor/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store    *store.Store
	history  *history.Engine
	registry *Registry
	fp       models.Floorplan
}

func newFixture(t *testing.T, seed func(fp *models.FloorplanPatch)) *fixture {
	t.Helper()
	ctx := context.Background()

	st := store.New(repository.NewMemory(), "floorplans-storage", logger.Nop())
	require.NoError(t, st.Load(ctx))
	c, err := st.CreateComplex(ctx, "Complex")
	require.NoError(t, err)
	sp, err := st.CreateSitePlan(ctx, c.ID, store.SitePlanInput{Name: "Site"})
	require.NoError(t, err)
	b, err := st.CreateBuilding(ctx, sp.ID, store.BuildingInput{Name: "Building 1"})
	require.NoError(t, err)
	fp, err := st.CreateFloorplan(ctx, b.ID, models.FloorplanMetadata{})
	require.NoError(t, err)

	if seed != nil {
		var patch models.FloorplanPatch
		seed(&patch)
		require.NoError(t, st.UpdateFloorplan(ctx, fp.ID, patch))
	}

	eng := history.NewEngine(history.DefaultDepth)
	return &fixture{
		store:    st,
		history:  eng,
		registry: NewRegistry(st, eng, DefaultGrid, logger.Nop()),
		fp:       fp,
	}
}

func (f *fixture) open(t *testing.T) *Session {
	t.Helper()
	sess, err := f.registry.Open(context.Background(), f.fp.ID)
	require.NoError(t, err)
	return sess
}

func (f *fixture) doc(t *testing.T) models.Floorplan {
	t.Helper()
	fp, ok := f.store.GetFloorplan(f.fp.ID)
	require.True(t, ok)
	return fp
}

func kitchen() models.Room {
	return models.Room{ID: "room-1", Name: "Kitchen", X: 0, Y: 0, Width: 100, Height: 100}
}

func withKitchen(p *models.FloorplanPatch) {
	rooms := []models.Room{kitchen()}
	p.Rooms = &rooms
}

// ============================================================
// Grid & measurement
// ============================================================

func TestSnap(t *testing.T) {
	cases := []struct {
		value, grid float64
		enabled     bool
		want        float64
	}{
		{27, 20, true, 20},
		{30, 20, true, 40},
		{-30, 20, true, -20},
		{27, 20, false, 27},
		{27, 0, true, 27},
		{0.26, 0.5, true, 0.5},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Snap(tc.value, tc.grid, tc.enabled), "snap(%v, %v, %v)", tc.value, tc.grid, tc.enabled)
	}
}

func TestSnapIdempotent(t *testing.T) {
	for _, g := range []float64{1, 7, 10, 20, 0.3, 33.3} {
		for x := -500.0; x <= 500; x += 3.7 {
			once := Snap(x, g, true)
			assert.Equal(t, once, Snap(once, g, true), "x=%v g=%v", x, g)
		}
	}
}

func TestMeasure(t *testing.T) {
	m := Measure(Point{0, 0}, Point{30, 40})
	assert.Equal(t, 50.0, m.Distance)
	assert.Equal(t, 50, m.Inches)
	assert.Equal(t, 4, m.Feet)
	assert.Equal(t, 2, m.Remainder)
	assert.Equal(t, `4' 2"`, m.Text)

	m = Measure(Point{10, 10}, Point{10, 34})
	assert.Equal(t, `2'`, m.Text)

	m = Measure(Point{0, 0}, Point{0, 0})
	assert.Equal(t, `0'`, m.Text)
}

// ============================================================
// Forward direction
// ============================================================

func TestLoadRebuildsSurface(t *testing.T) {
	f := newFixture(t, func(p *models.FloorplanPatch) {
		withKitchen(p)
		walls := []models.Wall{{ID: "wall-1", X2: 100}}
		labels := []models.Label{{ID: "label-1", Text: "Pantry", RoomID: "room-1"}}
		p.Walls = &walls
		p.Labels = &labels
	})
	sess := f.open(t)

	objs := sess.Scene.Objects()
	require.Len(t, objs, 4)
	assert.Equal(t, ElementKey(models.KindWall, "wall-1"), objs[0].Key())
	assert.Equal(t, ElementKey(models.KindRoom, "room-1"), objs[1].Key())
	require.NotNil(t, objs[2].Overlay)
	assert.Equal(t, OverlayRoomCaption, objs[2].Overlay.Kind)
	assert.Equal(t, "Kitchen", objs[2].Overlay.Text)
	assert.Equal(t, ElementKey(models.KindLabel, "label-1"), objs[3].Key())

	assert.Equal(t, history.Status{Tracked: true}, f.history.Status(f.fp.ID))
}

func TestRegistryReusesSessions(t *testing.T) {
	f := newFixture(t, nil)
	a := f.open(t)
	b := f.open(t)
	assert.Same(t, a, b)

	_, err := f.registry.Open(context.Background(), "floorplan-missing")
	assert.ErrorIs(t, err, ErrUnknownFloorplan)

	f.registry.Close(f.fp.ID)
	_, ok := f.registry.Lookup(f.fp.ID)
	assert.False(t, ok)
	assert.NoError(t, f.registry.Refresh(f.fp.ID))
}

// ============================================================
// Reverse direction
// ============================================================

func TestMoveUndoRedoScenario(t *testing.T) {
	f := newFixture(t, withKitchen)
	sess := f.open(t)
	ctx := context.Background()

	moved := kitchen()
	moved.X, moved.Y = 20, 20
	require.NoError(t, sess.Scene.Modify(ctx, moved))

	doc := f.doc(t)
	assert.Equal(t, 20.0, doc.Rooms[0].X)
	assert.Equal(t, 20.0, doc.Rooms[0].Y)

	fp, ok, err := sess.Syncer.Undo(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0.0, fp.Rooms[0].X)
	assert.Equal(t, 0.0, fp.Rooms[0].Y)
	obj, found := sess.Scene.Get(ElementKey(models.KindRoom, "room-1"))
	require.True(t, found)
	assert.Equal(t, 0.0, obj.Element.(models.Room).X)

	fp, ok, err = sess.Syncer.Redo(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 20.0, fp.Rooms[0].X)
	assert.Equal(t, 20.0, fp.Rooms[0].Y)
	assert.Equal(t, 20.0, f.doc(t).Rooms[0].X)
}

func TestModifySnapsOnCommit(t *testing.T) {
	f := newFixture(t, func(p *models.FloorplanPatch) {
		withKitchen(p)
		doors := []models.Door{{ID: "door-1", X: 100, Y: 40, Swing: models.SwingRight, Width: 30}}
		p.Doors = &doors
	})
	sess := f.open(t)
	ctx := context.Background()

	live := kitchen()
	live.X, live.Width, live.Name = 27, 113, "ignored"
	require.NoError(t, sess.Scene.Modify(ctx, live))

	room := f.doc(t).Rooms[0]
	assert.Equal(t, 20.0, room.X)
	assert.Equal(t, 120.0, room.Width)
	assert.Equal(t, "Kitchen", room.Name)

	obj, _ := sess.Scene.Get(ElementKey(models.KindRoom, "room-1"))
	assert.Equal(t, 20.0, obj.Element.(models.Room).X)
	caption, _ := sess.Scene.Get(overlayKey(OverlayRoomCaption, "room-1"))
	assert.Equal(t, 30.0, caption.Overlay.X)

	require.NoError(t, sess.Scene.Modify(ctx, models.Door{ID: "door-1", X: 93, Y: 41, Rotation: 45}))
	door := f.doc(t).Doors[0]
	assert.Equal(t, 100.0, door.X)
	assert.Equal(t, 40.0, door.Y)
	assert.Equal(t, 45.0, door.Rotation)
	assert.Equal(t, models.SwingRight, door.Swing)
}

func TestModifyWithoutChangeRecordsNothing(t *testing.T) {
	f := newFixture(t, withKitchen)
	sess := f.open(t)

	live := kitchen()
	live.X = 3
	require.NoError(t, sess.Scene.Modify(context.Background(), live))
	assert.False(t, f.history.CanUndo(f.fp.ID))
}

func TestModifyOnlyTouchesOneCollection(t *testing.T) {
	f := newFixture(t, func(p *models.FloorplanPatch) {
		withKitchen(p)
		walls := []models.Wall{{ID: "wall-1", X1: 0, Y1: 0, X2: 100, Y2: 0}}
		p.Walls = &walls
	})
	sess := f.open(t)
	before := f.doc(t)

	require.NoError(t, sess.Scene.Modify(context.Background(), models.Wall{ID: "wall-1", X1: 0, Y1: 0, X2: 200, Y2: 0}))

	after := f.doc(t)
	assert.Equal(t, 200.0, after.Walls[0].X2)
	assert.Equal(t, before.Rooms, after.Rooms)
}

func TestSyncerIgnoresUnknownElement(t *testing.T) {
	f := newFixture(t, withKitchen)
	sess := f.open(t)
	ctx := context.Background()

	before := f.doc(t)
	require.NoError(t, sess.Syncer.ObjectModified(ctx, models.Room{ID: "room-ghost", X: 40}))
	require.NoError(t, sess.Syncer.ObjectRemoved(ctx, models.Wall{ID: "wall-ghost"}))
	assert.Equal(t, before, f.doc(t))

	assert.ErrorIs(t, sess.Scene.Modify(ctx, models.Room{ID: "room-ghost"}), ErrUnknownObject)
	assert.ErrorIs(t, sess.Scene.Delete(ctx, "room:room-ghost"), ErrUnknownObject)
}

func TestDeleteRoomCascadesToLabels(t *testing.T) {
	f := newFixture(t, func(p *models.FloorplanPatch) {
		withKitchen(p)
		labels := []models.Label{
			{ID: "label-1", Text: "Pantry", X: 10, Y: 10, RoomID: "room-1"},
			{ID: "label-2", Text: "North", X: 500, Y: 20},
		}
		p.Labels = &labels
	})
	sess := f.open(t)

	require.NoError(t, sess.Scene.Delete(context.Background(), ElementKey(models.KindRoom, "room-1")))

	doc := f.doc(t)
	assert.Empty(t, doc.Rooms)
	require.Len(t, doc.Labels, 1)
	assert.Equal(t, "label-2", doc.Labels[0].ID)

	_, found := sess.Scene.Get(ElementKey(models.KindLabel, "label-1"))
	assert.False(t, found)
	_, found = sess.Scene.Get(overlayKey(OverlayRoomCaption, "room-1"))
	assert.False(t, found)
	_, found = sess.Scene.Get(ElementKey(models.KindLabel, "label-2"))
	assert.True(t, found)

	assert.True(t, f.history.CanUndo(f.fp.ID))
}

func TestDeleteOverlayIsRejected(t *testing.T) {
	f := newFixture(t, withKitchen)
	sess := f.open(t)

	err := sess.Scene.Delete(context.Background(), overlayKey(OverlayRoomCaption, "room-1"))
	assert.ErrorIs(t, err, ErrUnknownObject)
	_, found := sess.Scene.Get(overlayKey(OverlayRoomCaption, "room-1"))
	assert.True(t, found)
}

func TestEditElement(t *testing.T) {
	f := newFixture(t, withKitchen)
	sess := f.open(t)
	ctx := context.Background()

	renamed := kitchen()
	renamed.Name = "Dining"
	_, err := sess.Syncer.EditElement(ctx, renamed)
	require.NoError(t, err)

	assert.Equal(t, "Dining", f.doc(t).Rooms[0].Name)
	caption, _ := sess.Scene.Get(overlayKey(OverlayRoomCaption, "room-1"))
	assert.Equal(t, "Dining", caption.Overlay.Text)

	_, err = sess.Syncer.EditElement(ctx, models.Wall{ID: "wall-ghost"})
	assert.ErrorIs(t, err, ErrUnknownObject)
}

// ============================================================
// Tools
// ============================================================

func TestDrawTools(t *testing.T) {
	f := newFixture(t, nil)
	sess := f.open(t)
	ctx := context.Background()

	res, err := sess.Syncer.Draw(ctx, Stroke{Tool: ToolLine, Start: Point{3, 4}, End: Point{198, 2}})
	require.NoError(t, err)
	wall := res.Element.(models.Wall)
	assert.Equal(t, models.Wall{ID: wall.ID, X1: 0, Y1: 0, X2: 200, Y2: 0, Thickness: 3}, wall)

	res, err = sess.Syncer.Draw(ctx, Stroke{Tool: ToolRectangle, Start: Point{0, 0}, End: Point{120, 80}})
	require.NoError(t, err)
	assert.Equal(t, "Room", res.Element.(models.Room).Name)

	res, err = sess.Syncer.Draw(ctx, Stroke{Tool: ToolDoor, End: Point{60, 0}})
	require.NoError(t, err)
	assert.Equal(t, 30.0, res.Element.(models.Door).Width)

	res, err = sess.Syncer.Draw(ctx, Stroke{Tool: ToolWindow, End: Point{100, 80}})
	require.NoError(t, err)
	assert.Equal(t, 60.0, res.Element.(models.Window).Width)

	_, err = sess.Syncer.Draw(ctx, Stroke{Tool: ToolLabel, End: Point{10, 10}})
	assert.ErrorIs(t, err, ErrEmptyLabel)

	res, err = sess.Syncer.Draw(ctx, Stroke{Tool: ToolFurniture, Start: Point{41, 41}, Furniture: &FurnitureSpec{Type: "sofa", Name: "Sofa", Width: 80, Height: 40}})
	require.NoError(t, err)
	assert.Equal(t, 40.0, res.Element.(models.Furniture).X)

	_, err = sess.Syncer.Draw(ctx, Stroke{Tool: "spray"})
	assert.Error(t, err)

	doc := f.doc(t)
	assert.Len(t, doc.Walls, 1)
	assert.Len(t, doc.Rooms, 1)
	assert.Len(t, doc.Doors, 1)
	assert.Len(t, doc.Windows, 1)
	assert.Len(t, doc.Furniture, 1)
	assert.Equal(t, 5, f.history.Status(f.fp.ID).Past)
}

func TestMeasureIsTransient(t *testing.T) {
	f := newFixture(t, nil)
	sess := f.open(t)

	res, err := sess.Syncer.Draw(context.Background(), Stroke{Tool: ToolMeasure, Start: Point{0, 0}, End: Point{0, 120}})
	require.NoError(t, err)
	require.NotNil(t, res.Measurement)
	assert.Equal(t, `10'`, res.Measurement.Text)

	obj, found := sess.Scene.Get(overlayKey(OverlayMeasurement, ""))
	require.True(t, found)
	assert.Equal(t, `10'`, obj.Overlay.Text)

	assert.Empty(t, f.doc(t).Labels)
	assert.False(t, f.history.CanUndo(f.fp.ID))

	sess.Syncer.ClearMeasurement()
	_, found = sess.Scene.Get(overlayKey(OverlayMeasurement, ""))
	assert.False(t, found)
}

func TestMeasureOrderedWithRebuild(t *testing.T) {
	f := newFixture(t, nil)
	sess := f.open(t)
	before := len(sess.Syncer.Objects())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			sess.Syncer.Measure(Point{0, 0}, Point{30, 40})
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, sess.Syncer.Rebuild())
		}()
	}
	wg.Wait()

	sess.Syncer.Measure(Point{0, 0}, Point{30, 40})
	assert.Len(t, sess.Syncer.Objects(), before+1)

	require.NoError(t, sess.Syncer.Rebuild())
	assert.Len(t, sess.Syncer.Objects(), before)
}

// ============================================================
// External changes
// ============================================================

func TestApplyBatchScenario(t *testing.T) {
	f := newFixture(t, nil)
	sess := f.open(t)

	batch := models.Batch{
		Rooms: []models.Room{
			{Name: "Living", X: 0, Y: 0, Width: 300, Height: 200},
			{Name: "Bedroom", X: 300, Y: 0, Width: 200, Height: 200},
		},
		Walls: []models.Wall{
			{X1: 0, Y1: 0, X2: 500, Y2: 0, Thickness: 3},
			{X1: 0, Y1: 200, X2: 500, Y2: 200, Thickness: 3},
			{X1: 300, Y1: 0, X2: 300, Y2: 200, Thickness: 3},
		},
	}
	applied, err := sess.Syncer.ApplyBatch(context.Background(), batch)
	require.NoError(t, err)

	doc := f.doc(t)
	assert.Len(t, doc.Rooms, 2)
	assert.Len(t, doc.Walls, 3)
	assert.Equal(t, applied.Rooms, doc.Rooms)

	seen := map[string]bool{f.fp.ID: true}
	for _, el := range doc.Elements() {
		assert.NotEmpty(t, el.ElementID())
		assert.False(t, seen[el.ElementID()], "duplicate id %s", el.ElementID())
		seen[el.ElementID()] = true
	}
	assert.Len(t, sess.Scene.Objects(), 7)
	assert.True(t, f.history.CanUndo(f.fp.ID))
}

func TestApplyBatchAppendsAndRemapsRoomLabels(t *testing.T) {
	f := newFixture(t, withKitchen)
	sess := f.open(t)

	applied, err := sess.Syncer.ApplyBatch(context.Background(), models.Batch{
		Rooms:  []models.Room{{ID: "room-1", Name: "Kitchen copy"}},
		Labels: []models.Label{{Text: "K", RoomID: "room-1"}, {Text: "free"}},
	})
	require.NoError(t, err)

	doc := f.doc(t)
	require.Len(t, doc.Rooms, 2)
	assert.Equal(t, "room-1", doc.Rooms[0].ID)
	assert.NotEqual(t, "room-1", applied.Rooms[0].ID)
	assert.Equal(t, applied.Rooms[0].ID, doc.Labels[0].RoomID)
	assert.Empty(t, doc.Labels[1].RoomID)
}

func TestRestoreVersionIsUndoable(t *testing.T) {
	f := newFixture(t, withKitchen)
	ctx := context.Background()
	v, _, err := f.store.SaveVersion(ctx, f.fp.ID, "baseline", true)
	require.NoError(t, err)

	sess := f.open(t)
	moved := kitchen()
	moved.X = 60
	require.NoError(t, sess.Scene.Modify(ctx, moved))

	fp, err := sess.Syncer.RestoreVersion(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, fp.Rooms[0].X)
	assert.Len(t, fp.VersionHistory, 1)

	fp, ok, err := sess.Syncer.Undo(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 60.0, fp.Rooms[0].X)
}

func TestUndoWithEmptyHistory(t *testing.T) {
	f := newFixture(t, nil)
	sess := f.open(t)

	_, ok, err := sess.Syncer.Undo(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = sess.Syncer.Redo(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetGrid(t *testing.T) {
	f := newFixture(t, withKitchen)
	sess := f.open(t)

	sess.Syncer.SetGrid(GridSettings{Size: 0, Snap: false})
	assert.Equal(t, GridSettings{Size: 20, Snap: false}, sess.Syncer.Grid())

	live := kitchen()
	live.X = 7
	require.NoError(t, sess.Scene.Modify(context.Background(), live))
	assert.Equal(t, 7.0, f.doc(t).Rooms[0].X)
	assert.False(t, math.IsNaN(f.doc(t).Rooms[0].Y))
}
