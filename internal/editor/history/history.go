package history

import (
	"bytes"
	"encoding/json"
	"reflect"
	"sync"

	"floorplan-studio/internal/editor/models"
)

// ============================================================
// History Engine
// ============================================================

const DefaultDepth = 50

// Frame хранит линейную историю одного документа.
type Frame struct {
	Past    []models.Floorplan
	Present models.Floorplan
	Future  []models.Floorplan
}

// Status описывает состояние стеков для клиента.
type Status struct {
	Tracked bool `json:"tracked"`
	CanUndo bool `json:"canUndo"`
	CanRedo bool `json:"canRedo"`
	Past    int  `json:"past"`
	Future  int  `json:"future"`
}

// Engine ведет undo/redo по снимкам документов с ограниченной глубиной.
type Engine struct {
	mu     sync.Mutex
	depth  int
	frames map[string]*Frame
}

func NewEngine(depth int) *Engine {
	if depth <= 0 {
		depth = DefaultDepth
	}
	return &Engine{
		depth:  depth,
		frames: make(map[string]*Frame),
	}
}

// Record добавляет снимок. Возвращает false, если снимок совпал с текущим.
func (e *Engine) Record(id string, snapshot models.Floorplan) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	snapshot = snapshot.Clone()
	f, ok := e.frames[id]
	if !ok {
		e.frames[id] = &Frame{Present: snapshot}
		return true
	}
	if equal(f.Present, snapshot) {
		return false
	}

	f.Past = append(f.Past, f.Present)
	if len(f.Past) > e.depth {
		f.Past = append([]models.Floorplan(nil), f.Past[len(f.Past)-e.depth:]...)
	}
	f.Present = snapshot
	f.Future = nil
	return true
}

// Undo возвращает предыдущий снимок или false, если отменять нечего.
func (e *Engine) Undo(id string) (models.Floorplan, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	f, ok := e.frames[id]
	if !ok || len(f.Past) == 0 {
		return models.Floorplan{}, false
	}

	prev := f.Past[len(f.Past)-1]
	f.Past = f.Past[:len(f.Past)-1]

	future := make([]models.Floorplan, 0, len(f.Future)+1)
	future = append(future, f.Present)
	future = append(future, f.Future...)
	if len(future) > e.depth {
		future = future[:e.depth]
	}
	f.Future = future
	f.Present = prev
	return prev.Clone(), true
}

// Redo симметричен Undo.
func (e *Engine) Redo(id string) (models.Floorplan, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	f, ok := e.frames[id]
	if !ok || len(f.Future) == 0 {
		return models.Floorplan{}, false
	}

	next := f.Future[0]
	f.Future = f.Future[1:]
	f.Past = append(f.Past, f.Present)
	if len(f.Past) > e.depth {
		f.Past = append([]models.Floorplan(nil), f.Past[len(f.Past)-e.depth:]...)
	}
	f.Present = next
	return next.Clone(), true
}

func (e *Engine) CanUndo(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	f, ok := e.frames[id]
	return ok && len(f.Past) > 0
}

func (e *Engine) CanRedo(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	f, ok := e.frames[id]
	return ok && len(f.Future) > 0
}

// Present возвращает текущий снимок, если документ отслеживается.
func (e *Engine) Present(id string) (models.Floorplan, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	f, ok := e.frames[id]
	if !ok {
		return models.Floorplan{}, false
	}
	return f.Present.Clone(), true
}

// Clear забывает историю документа.
func (e *Engine) Clear(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.frames, id)
}

func (e *Engine) Status(id string) Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	f, ok := e.frames[id]
	if !ok {
		return Status{}
	}
	return Status{
		Tracked: true,
		CanUndo: len(f.Past) > 0,
		CanRedo: len(f.Future) > 0,
		Past:    len(f.Past),
		Future:  len(f.Future),
	}
}

// equal сравнивает снимки по JSON-представлению.
func equal(a, b models.Floorplan) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return reflect.DeepEqual(a, b)
	}
	return bytes.Equal(ja, jb)
}
