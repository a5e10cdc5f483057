package canvas

import (
	"context"
	"errors"
	"fmt"

	"floorplan-studio/internal/editor/models"
)

// ============================================================
// Drawing tools
// ============================================================

type Tool string

const (
	ToolLine      Tool = "line"
	ToolRectangle Tool = "rectangle"
	ToolDoor      Tool = "door"
	ToolWindow    Tool = "window"
	ToolLabel     Tool = "label"
	ToolFurniture Tool = "furniture"
	ToolMeasure   Tool = "measure"
)

const (
	defaultWallThickness = 3
	defaultDoorWidth     = 30
	defaultWindowWidth   = 60
	defaultLabelFontSize = 16
)

var (
	ErrEmptyLabel       = errors.New("canvas: label text is required")
	ErrMissingFurniture = errors.New("canvas: furniture spec is required")
	ErrUnknownTool      = errors.New("canvas: unknown tool")
)

// FurnitureSpec элемент библиотеки мебели.
type FurnitureSpec struct {
	Type   string  `json:"type"`
	Name   string  `json:"name"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Stroke жест пользователя от нажатия до отпускания.
type Stroke struct {
	Tool      Tool           `json:"tool"`
	Start     Point          `json:"start"`
	End       Point          `json:"end"`
	Text      string         `json:"text,omitempty"`
	Furniture *FurnitureSpec `json:"furniture,omitempty"`
}

// DrawResult: либо новый примитив, либо временная мера.
type DrawResult struct {
	Element     models.Element `json:"element,omitempty"`
	Measurement *Measurement   `json:"measurement,omitempty"`
}

// Draw превращает жест в примитив документа (или в меру для measure).
func (s *Syncer) Draw(ctx context.Context, st Stroke) (DrawResult, error) {
	grid := s.Grid()
	start := Point{X: grid.snap(st.Start.X), Y: grid.snap(st.Start.Y)}
	end := Point{X: grid.snap(st.End.X), Y: grid.snap(st.End.Y)}

	var el models.Element
	switch st.Tool {
	case ToolMeasure:
		m := s.Measure(start, end)
		return DrawResult{Measurement: &m}, nil
	case ToolLine:
		el = models.Wall{X1: start.X, Y1: start.Y, X2: end.X, Y2: end.Y, Thickness: defaultWallThickness}
	case ToolRectangle:
		el = models.Room{Name: "Room", X: start.X, Y: start.Y, Width: end.X - start.X, Height: end.Y - start.Y}
	case ToolDoor:
		el = models.Door{X: end.X, Y: end.Y, Rotation: 0, Swing: models.SwingLeft, Width: defaultDoorWidth}
	case ToolWindow:
		el = models.Window{X: end.X, Y: end.Y, Width: defaultWindowWidth, Rotation: 0}
	case ToolLabel:
		if st.Text == "" {
			return DrawResult{}, ErrEmptyLabel
		}
		el = models.Label{Text: st.Text, X: end.X, Y: end.Y, FontSize: defaultLabelFontSize}
	case ToolFurniture:
		if st.Furniture == nil {
			return DrawResult{}, ErrMissingFurniture
		}
		f := st.Furniture
		el = models.Furniture{Type: f.Type, Name: f.Name, X: start.X, Y: start.Y, Width: f.Width, Height: f.Height}
	default:
		return DrawResult{}, fmt.Errorf("%w %q", ErrUnknownTool, st.Tool)
	}

	added, err := s.AddElement(ctx, el)
	if err != nil {
		return DrawResult{}, err
	}
	return DrawResult{Element: added}, nil
}

// AddElement добавляет примитив с новым id и квантованной геометрией.
func (s *Syncer) AddElement(ctx context.Context, el models.Element) (models.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fp, ok := s.docs.GetFloorplan(s.id)
	if !ok {
		return nil, fmt.Errorf("%s: %w", s.id, ErrUnknownFloorplan)
	}

	el = s.grid.snapElement(models.WithID(el, models.NewElementID(el.ElementKind())))

	var patch models.FloorplanPatch
	switch v := el.(type) {
	case models.Room:
		rooms := append(fp.Rooms, v)
		patch.Rooms = &rooms
	case models.Wall:
		walls := append(fp.Walls, v)
		patch.Walls = &walls
	case models.Door:
		if v.Swing == "" {
			v.Swing = models.SwingLeft
		}
		el = v
		doors := append(fp.Doors, v)
		patch.Doors = &doors
	case models.Window:
		windows := append(fp.Windows, v)
		patch.Windows = &windows
	case models.Label:
		labels := append(fp.Labels, v)
		patch.Labels = &labels
	case models.Furniture:
		furniture := append(fp.Furniture, v)
		patch.Furniture = &furniture
	default:
		return nil, fmt.Errorf("canvas: unsupported element %T", el)
	}

	if _, err := s.commitLocked(ctx, patch); err != nil {
		return nil, fmt.Errorf("commit add: %w", err)
	}
	s.addLocked(el)
	return el, nil
}

// Measure кладет на поверхность временную подпись; в документ она не попадает.
func (s *Syncer) Measure(start, end Point) Measurement {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := Measure(start, end)
	ov := m.overlay()
	s.surface.Add(Object{Overlay: &ov})
	return m
}

// ClearMeasurement убирает временную подпись.
func (s *Syncer) ClearMeasurement() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.surface.Remove(overlayKey(OverlayMeasurement, ""))
}
