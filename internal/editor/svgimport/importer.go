package svgimport

import (
	"fmt"
	"io"
	"math"

	"floorplan-studio/internal/common/logger"
	"floorplan-studio/internal/editor/models"
)

// ============================================================
// Importer
// ============================================================

const (
	defaultWallThickness = 3
	defaultDoorWidth     = 30
	defaultWindowWidth   = 60
	defaultLabelFontSize = 16
)

// Option настраивает импорт.
type Option func(*Importer)

// WithTransform задает преобразование координат (масштаб, сдвиг, зеркалирование).
func WithTransform(f func(Point) Point) Option {
	return func(im *Importer) {
		if f != nil {
			im.transform = f
		}
	}
}

// WithScale масштабирует и сдвигает чертеж.
func WithScale(scale, offsetX, offsetY float64) Option {
	return WithTransform(func(p Point) Point {
		return Point{X: p.X*scale + offsetX, Y: p.Y*scale + offsetY}
	})
}

// Importer переводит размеченный SVG в примитивы документа.
type Importer struct {
	transform func(Point) Point
	log       *logger.Logger
}

func New(log *logger.Logger, opts ...Option) *Importer {
	im := &Importer{
		transform: func(p Point) Point { return p },
		log:       log.With("service", "svgimport"),
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Import возвращает пакет без постоянных id; метки ссылаются на
// временные id комнат из того же пакета.
func (im *Importer) Import(r io.Reader) (models.Batch, error) {
	shapes, err := parseSVG(r)
	if err != nil {
		return models.Batch{}, err
	}

	var walls, doors, windows, rooms []shape
	for _, s := range shapes {
		for i, p := range s.points {
			s.points[i] = im.transform(p)
		}
		switch s.kind {
		case kindWall:
			walls = append(walls, s)
		case kindDoor:
			doors = append(doors, s)
		case kindWindow:
			windows = append(windows, s)
		case kindRoom, kindBalcony:
			rooms = append(rooms, s)
		}
	}

	segments := make([]segment, 0, len(walls))
	for _, w := range walls {
		segments = append(segments, centerline(w))
	}
	graph := buildWallGraph(segments)

	var batch models.Batch
	for _, e := range graph.edges {
		p1, p2 := graph.segment(e)
		thickness := e.thickness
		if thickness <= 0 {
			thickness = defaultWallThickness
		}
		batch.Walls = append(batch.Walls, models.Wall{
			ID: e.id, X1: p1.X, Y1: p1.Y, X2: p2.X, Y2: p2.Y, Thickness: thickness,
		})
	}

	for _, d := range doors {
		pos, rotation, width := graph.place(d, defaultDoorWidth)
		batch.Doors = append(batch.Doors, models.Door{
			ID: d.id, X: pos.X, Y: pos.Y, Width: width, Rotation: rotation, Swing: models.SwingLeft,
		})
	}
	for _, w := range windows {
		pos, rotation, width := graph.place(w, defaultWindowWidth)
		batch.Windows = append(batch.Windows, models.Window{
			ID: w.id, X: pos.X, Y: pos.Y, Width: width, Rotation: rotation,
		})
	}

	for _, s := range rooms {
		b := s.bounds()
		if b.width() <= 0 || b.height() <= 0 {
			continue
		}
		name := roomName(s.id, s.kind)
		batch.Rooms = append(batch.Rooms, models.Room{
			ID: s.id, Name: name, X: b.minX, Y: b.minY, Width: b.width(), Height: b.height(),
		})
		c := b.center()
		batch.Labels = append(batch.Labels, models.Label{
			ID: s.id + "_label", Text: name, X: c.X, Y: c.Y, FontSize: defaultLabelFontSize, RoomID: s.id,
		})
	}

	if batch.Len() == 0 {
		return models.Batch{}, fmt.Errorf("%w: nothing usable after cleanup", ErrNoElements)
	}
	im.log.Info("svg imported",
		"walls", len(batch.Walls),
		"doors", len(batch.Doors),
		"windows", len(batch.Windows),
		"rooms", len(batch.Rooms),
	)
	return batch, nil
}

// place ставит проем на ближайшую стену: позиция на оси, поворот по стене,
// ширина по протяженности вдоль стены.
func (g *wallGraph) place(s shape, defWidth float64) (Point, float64, float64) {
	b := s.bounds()
	center := b.center()

	e, proj, ok := g.nearest(center)
	if !ok {
		width := math.Max(b.width(), b.height())
		if width <= 0 {
			width = defWidth
		}
		return center, 0, width
	}

	p1, p2 := g.segment(e)
	rotation := math.Atan2(p2.Y-p1.Y, p2.X-p1.X) * 180 / math.Pi
	if rotation < 0 {
		rotation += 180
	}
	if rotation >= 180 {
		rotation -= 180
	}
	rotation = math.Round(rotation*1e6) / 1e6

	width := b.width()
	if math.Abs(p2.Y-p1.Y) > math.Abs(p2.X-p1.X) {
		width = b.height()
	}
	if width <= 0 {
		width = defWidth
	}
	return proj, rotation, width
}
