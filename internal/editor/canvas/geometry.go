package canvas

import (
	"fmt"
	"math"

	"floorplan-studio/internal/editor/models"
)

// ============================================================
// Grid & measurement
// ============================================================

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// GridSettings настройки сетки редактора.
type GridSettings struct {
	Size float64 `json:"gridSize"`
	Snap bool    `json:"snapToGrid"`
}

// DefaultGrid сетка 20 с привязкой.
var DefaultGrid = GridSettings{Size: 20, Snap: true}

// Snap округляет значение к ближайшему кратному gridSize (половина вверх).
func Snap(value, gridSize float64, enabled bool) float64 {
	if !enabled || gridSize <= 0 {
		return value
	}
	return math.Floor(value/gridSize+0.5) * gridSize
}

func (g GridSettings) snap(v float64) float64 {
	return Snap(v, g.Size, g.Snap)
}

// snapElement квантует позиционные и размерные поля. Поворот не трогается.
func (g GridSettings) snapElement(el models.Element) models.Element {
	switch v := el.(type) {
	case models.Room:
		v.X, v.Y, v.Width, v.Height = g.snap(v.X), g.snap(v.Y), g.snap(v.Width), g.snap(v.Height)
		return v
	case models.Wall:
		v.X1, v.Y1, v.X2, v.Y2 = g.snap(v.X1), g.snap(v.Y1), g.snap(v.X2), g.snap(v.Y2)
		return v
	case models.Door:
		v.X, v.Y = g.snap(v.X), g.snap(v.Y)
		return v
	case models.Window:
		v.X, v.Y, v.Width = g.snap(v.X), g.snap(v.Y), g.snap(v.Width)
		return v
	case models.Label:
		v.X, v.Y = g.snap(v.X), g.snap(v.Y)
		return v
	case models.Furniture:
		v.X, v.Y, v.Width, v.Height = g.snap(v.X), g.snap(v.Y), g.snap(v.Width), g.snap(v.Height)
		return v
	}
	return el
}

// Measurement результат инструмента измерения (1 px = 1 дюйм).
type Measurement struct {
	Start     Point   `json:"start"`
	End       Point   `json:"end"`
	Distance  float64 `json:"distance"`
	Inches    int     `json:"inches"`
	Feet      int     `json:"feet"`
	Remainder int     `json:"remainder"`
	Text      string  `json:"text"`
}

// Measure считает расстояние и форматирует его в футах и дюймах.
func Measure(start, end Point) Measurement {
	dx, dy := end.X-start.X, end.Y-start.Y
	dist := math.Hypot(dx, dy)
	inches := int(math.Floor(dist + 0.5))
	feet := inches / 12
	rem := inches % 12

	text := fmt.Sprintf("%d'", feet)
	if rem > 0 {
		text = fmt.Sprintf("%d' %d\"", feet, rem)
	}
	return Measurement{
		Start:     start,
		End:       end,
		Distance:  dist,
		Inches:    inches,
		Feet:      feet,
		Remainder: rem,
		Text:      text,
	}
}

// overlay строит временную подпись посередине отрезка.
func (m Measurement) overlay() Overlay {
	return Overlay{
		Kind:     OverlayMeasurement,
		Text:     m.Text,
		X:        (m.Start.X + m.End.X) / 2,
		Y:        (m.Start.Y+m.End.Y)/2 - 20,
		FontSize: 12,
		Line:     []Point{m.Start, m.End},
	}
}

func roomCaption(r models.Room) Overlay {
	return Overlay{
		Kind:     OverlayRoomCaption,
		OwnerID:  r.ID,
		Text:     r.Name,
		X:        r.X + 10,
		Y:        r.Y + 10,
		FontSize: 14,
	}
}
