package canvas

import (
	"context"
	"sync"

	"floorplan-studio/internal/common/logger"
)

// Session поверхность и синхронизатор одного открытого документа.
type Session struct {
	Scene  *Scene
	Syncer *Syncer
}

// Registry лениво открывает по одной сессии на документ.
type Registry struct {
	mu       sync.Mutex
	docs     Documents
	hist     History
	grid     GridSettings
	log      *logger.Logger
	sessions map[string]*Session
}

func NewRegistry(docs Documents, hist History, grid GridSettings, log *logger.Logger) *Registry {
	return &Registry{
		docs:     docs,
		hist:     hist,
		grid:     grid,
		log:      log,
		sessions: make(map[string]*Session),
	}
}

// Open возвращает существующую сессию или загружает документ на новую поверхность.
func (r *Registry) Open(ctx context.Context, floorplanID string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sess, ok := r.sessions[floorplanID]; ok {
		return sess, nil
	}

	scene := NewScene()
	syncer := NewSyncer(floorplanID, r.docs, r.hist, scene, r.grid, r.log)
	scene.Subscribe(syncer)
	if err := syncer.Load(ctx); err != nil {
		return nil, err
	}

	sess := &Session{Scene: scene, Syncer: syncer}
	r.sessions[floorplanID] = sess
	return sess, nil
}

// Lookup возвращает сессию без открытия.
func (r *Registry) Lookup(floorplanID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[floorplanID]
	return sess, ok
}

// Close забывает сессию; история документа остается в движке.
func (r *Registry) Close(floorplanID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, floorplanID)
}

// Refresh перестраивает открытую поверхность после изменения документа в обход нее.
func (r *Registry) Refresh(floorplanID string) error {
	sess, ok := r.Lookup(floorplanID)
	if !ok {
		return nil
	}
	return sess.Syncer.Rebuild()
}
