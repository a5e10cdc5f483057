package svgimport

import (
	"errors"
	"strings"
	"testing"

	"floorplan-studio/internal/common/logger"
	"floorplan-studio/internal/editor/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const apartmentSVG = `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="400" height="300">
  <g id="walls">
    <rect id="Wall_top" x="5" y="0" width="395" height="10"/>
    <rect id="Wall_left" x="0" y="5" width="10" height="295"/>
    <path id="Hui_Wall_mid" d="M200,5 L205,5 L205,300 L200,300 Z"/>
  </g>
  <rect id="Door_1" x="80" y="0" width="40" height="10"/>
  <rect id="Window_1" x="0" y="100" width="10" height="60"/>
  <path id="Kitchen_room" d="M10 10 H200 V300 H10 Z"/>
  <rect id="Balcony_1" x="210" y="10" width="100" height="50"/>
  <rect id="decoration" x="0" y="0" width="5" height="5"/>
</svg>`

func TestImport_Apartment(t *testing.T) {
	batch, err := New(logger.Nop()).Import(strings.NewReader(apartmentSVG))
	require.NoError(t, err)

	// верхняя стена режется примыканием средней
	require.Len(t, batch.Walls, 4)
	for _, w := range batch.Walls {
		assert.True(t, w.X1 == w.X2 || w.Y1 == w.Y2, "wall %s is not axis-aligned", w.ID)
	}
	assert.Equal(t, "Wall_top_1", batch.Walls[0].ID)
	assert.Equal(t, 10.0, batch.Walls[0].Thickness)
	assert.Equal(t, 5.0, batch.Walls[3].Thickness)

	require.Len(t, batch.Doors, 1)
	door := batch.Doors[0]
	assert.InDelta(t, 100.0, door.X, 1e-9)
	assert.InDelta(t, 5.0, door.Y, 1e-9)
	assert.Equal(t, 0.0, door.Rotation)
	assert.Equal(t, 40.0, door.Width)
	assert.Equal(t, models.SwingLeft, door.Swing)

	require.Len(t, batch.Windows, 1)
	win := batch.Windows[0]
	assert.InDelta(t, 5.0, win.X, 1e-9)
	assert.InDelta(t, 130.0, win.Y, 1e-9)
	assert.Equal(t, 90.0, win.Rotation)
	assert.Equal(t, 60.0, win.Width)

	require.Len(t, batch.Rooms, 2)
	kitchen := batch.Rooms[1]
	assert.Equal(t, "Kitchen", kitchen.Name)
	assert.Equal(t, models.Room{ID: "Kitchen_room", Name: "Kitchen", X: 10, Y: 10, Width: 190, Height: 290}, kitchen)
	assert.Equal(t, "Balcony", batch.Rooms[0].Name)

	require.Len(t, batch.Labels, 2)
	assert.Equal(t, "Kitchen_room", batch.Labels[1].RoomID)
	assert.Equal(t, 105.0, batch.Labels[1].X)
	assert.Equal(t, 155.0, batch.Labels[1].Y)
}

func TestImport_Scale(t *testing.T) {
	svg := `<svg><rect id="Room_Living_Room" x="10" y="20" width="30" height="40"/></svg>`
	batch, err := New(logger.Nop(), WithScale(2, 100, 0)).Import(strings.NewReader(svg))
	require.NoError(t, err)
	require.Len(t, batch.Rooms, 1)
	assert.Equal(t, models.Room{ID: "Room_Living_Room", Name: "Living Room", X: 120, Y: 40, Width: 60, Height: 80}, batch.Rooms[0])
	assert.Empty(t, batch.Walls)
}

func TestImport_Errors(t *testing.T) {
	_, err := New(logger.Nop()).Import(strings.NewReader("not xml at all"))
	assert.True(t, errors.Is(err, ErrInvalidSVG))

	_, err = New(logger.Nop()).Import(strings.NewReader(`<svg><rect id="logo" width="1" height="1"/></svg>`))
	assert.ErrorIs(t, err, ErrNoElements)
}

func TestParsePath(t *testing.T) {
	points, err := parsePath("m10,10 h20 v20 l-20,0 z")
	require.NoError(t, err)
	assert.Equal(t, []Point{{10, 10}, {30, 10}, {30, 30}, {10, 30}, {10, 10}}, points)

	points, err = parsePath("M0 0 10 0 10 10")
	require.NoError(t, err)
	assert.Len(t, points, 3)

	_, err = parsePath("   ")
	assert.Error(t, err)
}

func TestClassifyAndName(t *testing.T) {
	cases := map[string]elementKind{
		"Wall_1":      kindWall,
		"Hui_Wall_7":  kindWall,
		"Door_a":      kindDoor,
		"Window_2":    kindWindow,
		"Room_Bath":   kindRoom,
		"Hall_room":   kindRoom,
		"Toilet_Room": kindRoom,
		"Balcony":     kindBalcony,
		"background":  "",
	}
	for id, want := range cases {
		assert.Equal(t, want, classifyID(id), id)
	}
	assert.Equal(t, "Hall", roomName("Hall_room", kindRoom))
	assert.Equal(t, "Room", roomName("Room_", kindRoom))
}

func TestWallGraph_MergesCloseEndpoints(t *testing.T) {
	g := buildWallGraph([]segment{
		{id: "a", p1: Point{0, 0}, p2: Point{100, 0}, thickness: 3},
		{id: "b", p1: Point{103, 2}, p2: Point{103, 100}, thickness: 3},
	})
	require.Len(t, g.edges, 2)
	for _, e := range g.edges {
		p1, p2 := g.segment(e)
		assert.True(t, p1.X == p2.X || p1.Y == p2.Y)
	}
}
