package models

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// ============================================================
// Drawing primitives
// ============================================================

// Kind различает варианты Element.
type Kind string

const (
	KindRoom      Kind = "room"
	KindWall      Kind = "wall"
	KindDoor      Kind = "door"
	KindWindow    Kind = "window"
	KindLabel     Kind = "label"
	KindFurniture Kind = "furniture"
)

// Kinds перечисляет все варианты в порядке отрисовки.
var Kinds = []Kind{KindWall, KindRoom, KindDoor, KindWindow, KindLabel, KindFurniture}

// Element объединяет все примитивы чертежа.
type Element interface {
	ElementID() string
	ElementKind() Kind
}

type DoorSwing string

const (
	SwingLeft  DoorSwing = "left"
	SwingRight DoorSwing = "right"
)

type Room struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Type   string  `json:"type,omitempty"`
}

// Wall задается отрезком от (X1,Y1) до (X2,Y2).
type Wall struct {
	ID        string  `json:"id"`
	X1        float64 `json:"x1"`
	Y1        float64 `json:"y1"`
	X2        float64 `json:"x2"`
	Y2        float64 `json:"y2"`
	Thickness float64 `json:"thickness,omitempty"`
}

type Door struct {
	ID       string    `json:"id"`
	X        float64   `json:"x"`
	Y        float64   `json:"y"`
	Rotation float64   `json:"rotation"`
	Swing    DoorSwing `json:"swing"`
	Width    float64   `json:"width,omitempty"`
}

type Window struct {
	ID       string  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Rotation float64 `json:"rotation"`
}

// Label может принадлежать комнате через RoomID.
type Label struct {
	ID       string  `json:"id"`
	Text     string  `json:"text"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	FontSize float64 `json:"fontSize,omitempty"`
	RoomID   string  `json:"roomId,omitempty"`
}

type Furniture struct {
	ID       string  `json:"id"`
	Type     string  `json:"type"`
	Name     string  `json:"name"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation,omitempty"`
}

func (r Room) ElementID() string      { return r.ID }
func (w Wall) ElementID() string      { return w.ID }
func (d Door) ElementID() string      { return d.ID }
func (w Window) ElementID() string    { return w.ID }
func (l Label) ElementID() string     { return l.ID }
func (f Furniture) ElementID() string { return f.ID }

func (Room) ElementKind() Kind      { return KindRoom }
func (Wall) ElementKind() Kind      { return KindWall }
func (Door) ElementKind() Kind      { return KindDoor }
func (Window) ElementKind() Kind    { return KindWindow }
func (Label) ElementKind() Kind     { return KindLabel }
func (Furniture) ElementKind() Kind { return KindFurniture }

// ============================================================
// IDs & decoding
// ============================================================

// NewID генерирует идентификатор вида "<prefix>-<uuid>".
func NewID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// NewElementID генерирует идентификатор для примитива данного вида.
func NewElementID(kind Kind) string {
	return NewID(string(kind))
}

// WithID возвращает копию элемента с другим идентификатором.
func WithID(el Element, id string) Element {
	switch v := el.(type) {
	case Room:
		v.ID = id
		return v
	case Wall:
		v.ID = id
		return v
	case Door:
		v.ID = id
		return v
	case Window:
		v.ID = id
		return v
	case Label:
		v.ID = id
		return v
	case Furniture:
		v.ID = id
		return v
	}
	return el
}

// ParseKind проверяет строковое имя вида.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown element kind %q", s)
}

// DecodeElement разбирает JSON примитива по его виду.
func DecodeElement(kind Kind, raw json.RawMessage) (Element, error) {
	var (
		el  Element
		err error
	)
	switch kind {
	case KindRoom:
		var v Room
		err = json.Unmarshal(raw, &v)
		el = v
	case KindWall:
		var v Wall
		err = json.Unmarshal(raw, &v)
		el = v
	case KindDoor:
		var v Door
		err = json.Unmarshal(raw, &v)
		if v.Swing == "" {
			v.Swing = SwingLeft
		}
		el = v
	case KindWindow:
		var v Window
		err = json.Unmarshal(raw, &v)
		el = v
	case KindLabel:
		var v Label
		err = json.Unmarshal(raw, &v)
		el = v
	case KindFurniture:
		var v Furniture
		err = json.Unmarshal(raw, &v)
		el = v
	default:
		return nil, fmt.Errorf("unknown element kind %q", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}
	return el, nil
}

// ============================================================
// Collection helpers
// ============================================================

// IndexByID возвращает позицию элемента или -1.
func IndexByID[T Element](items []T, id string) int {
	for i, it := range items {
		if it.ElementID() == id {
			return i
		}
	}
	return -1
}

// ReplaceByID заменяет элемент с тем же id, сохраняя порядок.
func ReplaceByID[T Element](items []T, item T) ([]T, bool) {
	idx := IndexByID(items, item.ElementID())
	if idx < 0 {
		return items, false
	}
	out := append([]T(nil), items...)
	out[idx] = item
	return out, true
}

// RemoveByID фильтрует элементы по идентичности id.
func RemoveByID[T Element](items []T, id string) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if it.ElementID() != id {
			out = append(out, it)
		}
	}
	return out
}
