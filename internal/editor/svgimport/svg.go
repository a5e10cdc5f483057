package svgimport

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ============================================================
// Tagged SVG
// ============================================================

var (
	ErrInvalidSVG = errors.New("svgimport: invalid svg")
	ErrNoElements = errors.New("svgimport: no tagged elements")
)

type elementKind string

const (
	kindWall    elementKind = "wall"
	kindDoor    elementKind = "door"
	kindWindow  elementKind = "window"
	kindRoom    elementKind = "room"
	kindBalcony elementKind = "balcony"
)

type svgDoc struct {
	XMLName xml.Name `xml:"svg"`
	svgGroup
}

// svgGroup: теги rect/path могут лежать внутри вложенных <g>.
type svgGroup struct {
	Rects  []svgRect  `xml:"rect"`
	Paths  []svgPath  `xml:"path"`
	Groups []svgGroup `xml:"g"`
}

type svgRect struct {
	ID     string  `xml:"id,attr"`
	X      float64 `xml:"x,attr"`
	Y      float64 `xml:"y,attr"`
	Width  float64 `xml:"width,attr"`
	Height float64 `xml:"height,attr"`
}

type svgPath struct {
	ID string `xml:"id,attr"`
	D  string `xml:"d,attr"`
}

// shape размеченный элемент чертежа с контуром.
type shape struct {
	id     string
	kind   elementKind
	points []Point
	rect   bool
}

func (s shape) bounds() bbox {
	return boundsOf(s.points)
}

func parseSVG(r io.Reader) ([]shape, error) {
	var doc svgDoc
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSVG, err)
	}

	var shapes []shape
	var walk func(g svgGroup)
	walk = func(g svgGroup) {
		for _, rect := range g.Rects {
			kind := classifyID(rect.ID)
			if kind == "" {
				continue
			}
			shapes = append(shapes, shape{
				id:   rect.ID,
				kind: kind,
				rect: true,
				points: []Point{
					{X: rect.X, Y: rect.Y},
					{X: rect.X + rect.Width, Y: rect.Y},
					{X: rect.X + rect.Width, Y: rect.Y + rect.Height},
					{X: rect.X, Y: rect.Y + rect.Height},
				},
			})
		}
		for _, p := range g.Paths {
			kind := classifyID(p.ID)
			if kind == "" {
				continue
			}
			points, err := parsePath(p.D)
			if err != nil || len(points) == 0 {
				continue
			}
			shapes = append(shapes, shape{id: p.ID, kind: kind, points: points})
		}
		for _, child := range g.Groups {
			walk(child)
		}
	}
	walk(doc.svgGroup)

	if len(shapes) == 0 {
		return nil, ErrNoElements
	}
	return shapes, nil
}

func classifyID(id string) elementKind {
	switch {
	case strings.HasPrefix(id, "Wall_"), strings.HasPrefix(id, "Hui_Wall_"):
		return kindWall
	case strings.HasPrefix(id, "Door_"):
		return kindDoor
	case strings.HasPrefix(id, "Window_"):
		return kindWindow
	case strings.HasPrefix(id, "Room_"), strings.HasSuffix(id, "_room"), strings.HasSuffix(id, "_Room"):
		return kindRoom
	case strings.HasPrefix(id, "Balcony"):
		return kindBalcony
	}
	return ""
}

// roomName выводит подпись комнаты из id: Room_Living_Room -> "Living Room", Hall_room -> "Hall".
func roomName(id string, kind elementKind) string {
	if kind == kindBalcony {
		return "Balcony"
	}
	name := id
	switch {
	case strings.HasPrefix(name, "Room_"):
		name = strings.TrimPrefix(name, "Room_")
	case strings.HasSuffix(name, "_room"):
		name = strings.TrimSuffix(name, "_room")
	case strings.HasSuffix(name, "_Room"):
		name = strings.TrimSuffix(name, "_Room")
	}
	name = strings.TrimSpace(strings.ReplaceAll(name, "_", " "))
	if name == "" {
		return "Room"
	}
	return name
}
