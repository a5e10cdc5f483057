package canvas

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"floorplan-studio/internal/editor/models"
)

// ============================================================
// Drawing surface
// ============================================================

var ErrUnknownObject = errors.New("canvas: unknown object")

type OverlayKind string

const (
	OverlayRoomCaption OverlayKind = "room-caption"
	OverlayMeasurement OverlayKind = "measurement"
)

// Overlay не принадлежит документу: подпись комнаты или временная мера.
type Overlay struct {
	Kind     OverlayKind `json:"kind"`
	OwnerID  string      `json:"ownerId,omitempty"`
	Text     string      `json:"text"`
	X        float64     `json:"x"`
	Y        float64     `json:"y"`
	FontSize float64     `json:"fontSize"`
	Line     []Point     `json:"line,omitempty"`
}

// Object это либо примитив документа, либо оверлей.
type Object struct {
	Element models.Element
	Overlay *Overlay
}

// ElementKey строит ключ объекта поверхности по виду и id примитива.
func ElementKey(kind models.Kind, id string) string {
	return string(kind) + ":" + id
}

func overlayKey(kind OverlayKind, owner string) string {
	if owner == "" {
		return "overlay:" + string(kind)
	}
	return "overlay:" + string(kind) + ":" + owner
}

func (o Object) Key() string {
	if o.Element != nil {
		return ElementKey(o.Element.ElementKind(), o.Element.ElementID())
	}
	if o.Overlay != nil {
		return overlayKey(o.Overlay.Kind, o.Overlay.OwnerID)
	}
	return ""
}

func (o Object) MarshalJSON() ([]byte, error) {
	out := struct {
		Key     string         `json:"key"`
		Kind    string         `json:"kind"`
		Element models.Element `json:"element,omitempty"`
		Overlay *Overlay       `json:"overlay,omitempty"`
	}{Key: o.Key(), Element: o.Element, Overlay: o.Overlay}
	switch {
	case o.Element != nil:
		out.Kind = string(o.Element.ElementKind())
	case o.Overlay != nil:
		out.Kind = string(o.Overlay.Kind)
	}
	return json.Marshal(out)
}

// Listener получает события завершения интерактивной правки.
type Listener interface {
	ObjectModified(ctx context.Context, el models.Element) error
	ObjectRemoved(ctx context.Context, el models.Element) error
}

// Surface минимальный интерфейс поверхности рисования.
type Surface interface {
	Clear()
	Add(obj Object)
	Remove(key string)
	Objects() []Object
	Subscribe(l Listener)
}

// ============================================================
// Scene (in-memory surface)
// ============================================================

// Scene хранит объекты в порядке добавления. Add с существующим ключом
// заменяет объект на месте.
type Scene struct {
	mu        sync.RWMutex
	order     []string
	objects   map[string]Object
	listeners []Listener
}

func NewScene() *Scene {
	return &Scene{objects: make(map[string]Object)}
}

func (s *Scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = nil
	s.objects = make(map[string]Object)
}

func (s *Scene) Add(obj Object) {
	key := obj.Key()
	if key == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; !ok {
		s.order = append(s.order, key)
	}
	s.objects[key] = obj
}

func (s *Scene) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(key)
}

func (s *Scene) removeLocked(key string) (Object, bool) {
	obj, ok := s.objects[key]
	if !ok {
		return Object{}, false
	}
	delete(s.objects, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
	return obj, true
}

func (s *Scene) Objects() []Object {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Object, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.objects[k])
	}
	return out
}

// Get ищет объект по ключу.
func (s *Scene) Get(key string) (Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	return obj, ok
}

func (s *Scene) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

func (s *Scene) snapshotListeners() []Listener {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Listener(nil), s.listeners...)
}

// Modify применяет живое значение объекта и сообщает о завершении правки.
func (s *Scene) Modify(ctx context.Context, el models.Element) error {
	key := ElementKey(el.ElementKind(), el.ElementID())
	s.mu.Lock()
	if _, ok := s.objects[key]; !ok {
		s.mu.Unlock()
		return ErrUnknownObject
	}
	s.objects[key] = Object{Element: el}
	s.mu.Unlock()

	for _, l := range s.snapshotListeners() {
		if err := l.ObjectModified(ctx, el); err != nil {
			return err
		}
	}
	return nil
}

// Delete убирает объект-примитив и сообщает слушателям.
func (s *Scene) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	obj, ok := s.objects[key]
	if !ok || obj.Element == nil {
		s.mu.Unlock()
		return ErrUnknownObject
	}
	s.removeLocked(key)
	s.mu.Unlock()

	for _, l := range s.snapshotListeners() {
		if err := l.ObjectRemoved(ctx, obj.Element); err != nil {
			return err
		}
	}
	return nil
}
