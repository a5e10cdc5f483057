package canvas

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"floorplan-studio/internal/common/logger"
	"floorplan-studio/internal/editor/models"
)

// ============================================================
// Canvas Sync
// ============================================================

var ErrUnknownFloorplan = errors.New("canvas: unknown floorplan")

// Documents доступ к документам (реализуется store.Store).
type Documents interface {
	GetFloorplan(id string) (models.Floorplan, bool)
	UpdateFloorplan(ctx context.Context, id string, patch models.FloorplanPatch) error
	RestoreVersion(ctx context.Context, id, versionID string) (models.Floorplan, error)
}

// History стек отмены (реализуется history.Engine).
type History interface {
	Record(id string, snapshot models.Floorplan) bool
	Undo(id string) (models.Floorplan, bool)
	Redo(id string) (models.Floorplan, bool)
}

// Syncer держит поверхность одного документа согласованной с хранилищем.
type Syncer struct {
	mu      sync.Mutex
	id      string
	docs    Documents
	hist    History
	surface Surface
	grid    GridSettings
	log     *logger.Logger
}

func NewSyncer(floorplanID string, docs Documents, hist History, surface Surface, grid GridSettings, log *logger.Logger) *Syncer {
	return &Syncer{
		id:      floorplanID,
		docs:    docs,
		hist:    hist,
		surface: surface,
		grid:    grid,
		log:     log.With("service", "canvas", "floorplan_id", floorplanID),
	}
}

func (s *Syncer) FloorplanID() string { return s.id }

// Load перестраивает поверхность и записывает начальный снимок.
func (s *Syncer) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fp, ok := s.docs.GetFloorplan(s.id)
	if !ok {
		return fmt.Errorf("%s: %w", s.id, ErrUnknownFloorplan)
	}
	s.rebuildLocked(fp)
	s.hist.Record(s.id, fp.Snapshot())
	return nil
}

// Rebuild отбрасывает все объекты и строит их заново из документа.
func (s *Syncer) Rebuild() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fp, ok := s.docs.GetFloorplan(s.id)
	if !ok {
		return fmt.Errorf("%s: %w", s.id, ErrUnknownFloorplan)
	}
	s.rebuildLocked(fp)
	return nil
}

func (s *Syncer) rebuildLocked(fp models.Floorplan) {
	s.surface.Clear()
	for _, el := range fp.Elements() {
		s.addLocked(el)
	}
	s.log.Debug("surface rebuilt", "objects", len(s.surface.Objects()))
}

func (s *Syncer) addLocked(el models.Element) {
	s.surface.Add(Object{Element: el})
	if r, ok := el.(models.Room); ok {
		caption := roomCaption(r)
		s.surface.Add(Object{Overlay: &caption})
	}
}

func (s *Syncer) removeLocked(el models.Element) {
	s.surface.Remove(ElementKey(el.ElementKind(), el.ElementID()))
	if el.ElementKind() == models.KindRoom {
		s.surface.Remove(overlayKey(OverlayRoomCaption, el.ElementID()))
	}
}

func (s *Syncer) Objects() []Object {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.surface.Objects()
}

func (s *Syncer) Grid() GridSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grid
}

func (s *Syncer) SetGrid(g GridSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g.Size <= 0 {
		g.Size = DefaultGrid.Size
	}
	s.grid = g
}

// commitLocked пишет изменение в хранилище и кладет новый снимок в историю.
func (s *Syncer) commitLocked(ctx context.Context, patch models.FloorplanPatch) (models.Floorplan, error) {
	if err := s.docs.UpdateFloorplan(ctx, s.id, patch); err != nil {
		return models.Floorplan{}, err
	}
	fp, ok := s.docs.GetFloorplan(s.id)
	if !ok {
		return models.Floorplan{}, fmt.Errorf("%s: %w", s.id, ErrUnknownFloorplan)
	}
	s.hist.Record(s.id, fp.Snapshot())
	return fp, nil
}

// ============================================================
// Surface -> document
// ============================================================

// ObjectModified переносит геометрию правленого объекта в документ.
// Прочие поля берутся из документа; отсутствующий id игнорируется.
func (s *Syncer) ObjectModified(ctx context.Context, el models.Element) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fp, ok := s.docs.GetFloorplan(s.id)
	if !ok {
		return nil
	}

	current, found := findElement(fp, el.ElementKind(), el.ElementID())
	if !found {
		s.log.Debug("modified object not in document", "kind", el.ElementKind(), "element_id", el.ElementID())
		return nil
	}

	updated := s.grid.snapElement(mergeGeometry(current, el))
	s.addLocked(updated)
	if reflect.DeepEqual(updated, current) {
		return nil
	}

	patch := replacePatch(fp, updated)
	if _, err := s.commitLocked(ctx, patch); err != nil {
		return fmt.Errorf("commit modification: %w", err)
	}
	return nil
}

// ObjectRemoved убирает примитив из коллекции. Удаление комнаты
// удаляет и метки с этим roomId (один уровень).
func (s *Syncer) ObjectRemoved(ctx context.Context, el models.Element) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fp, ok := s.docs.GetFloorplan(s.id)
	if !ok {
		return nil
	}
	if _, found := findElement(fp, el.ElementKind(), el.ElementID()); !found {
		return nil
	}

	patch := removePatch(fp, el.ElementKind(), el.ElementID())
	s.removeLocked(el)
	if el.ElementKind() == models.KindRoom {
		for _, l := range fp.Labels {
			if l.RoomID == el.ElementID() {
				s.removeLocked(l)
			}
		}
	}

	if _, err := s.commitLocked(ctx, patch); err != nil {
		return fmt.Errorf("commit removal: %w", err)
	}
	return nil
}

// EditElement заменяет запись целиком (переименование, текст, створка, толщина).
func (s *Syncer) EditElement(ctx context.Context, el models.Element) (models.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fp, ok := s.docs.GetFloorplan(s.id)
	if !ok {
		return nil, fmt.Errorf("%s: %w", s.id, ErrUnknownFloorplan)
	}
	if _, found := findElement(fp, el.ElementKind(), el.ElementID()); !found {
		return nil, ErrUnknownObject
	}

	if _, err := s.commitLocked(ctx, replacePatch(fp, el)); err != nil {
		return nil, fmt.Errorf("commit edit: %w", err)
	}
	s.addLocked(el)
	return el, nil
}

// ============================================================
// External changes
// ============================================================

// Undo восстанавливает предыдущий снимок и перестраивает поверхность.
func (s *Syncer) Undo(ctx context.Context) (models.Floorplan, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.hist.Undo(s.id)
	if !ok {
		return models.Floorplan{}, false, nil
	}
	fp, err := s.applySnapshotLocked(ctx, snap)
	return fp, err == nil, err
}

func (s *Syncer) Redo(ctx context.Context) (models.Floorplan, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.hist.Redo(s.id)
	if !ok {
		return models.Floorplan{}, false, nil
	}
	fp, err := s.applySnapshotLocked(ctx, snap)
	return fp, err == nil, err
}

func (s *Syncer) applySnapshotLocked(ctx context.Context, snap models.Floorplan) (models.Floorplan, error) {
	if err := s.docs.UpdateFloorplan(ctx, s.id, models.ContentPatch(snap)); err != nil {
		return models.Floorplan{}, fmt.Errorf("apply snapshot: %w", err)
	}
	fp, ok := s.docs.GetFloorplan(s.id)
	if !ok {
		return models.Floorplan{}, fmt.Errorf("%s: %w", s.id, ErrUnknownFloorplan)
	}
	s.rebuildLocked(fp)
	return fp, nil
}

// ApplyBatch дописывает внешние примитивы с новыми id одной записью.
// Ссылки меток на комнаты из того же пакета переназначаются.
func (s *Syncer) ApplyBatch(ctx context.Context, batch models.Batch) (models.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fp, ok := s.docs.GetFloorplan(s.id)
	if !ok {
		return models.Batch{}, fmt.Errorf("%s: %w", s.id, ErrUnknownFloorplan)
	}

	fresh := reidentify(batch)
	rooms := append(fp.Rooms, fresh.Rooms...)
	walls := append(fp.Walls, fresh.Walls...)
	doors := append(fp.Doors, fresh.Doors...)
	windows := append(fp.Windows, fresh.Windows...)
	labels := append(fp.Labels, fresh.Labels...)
	patch := models.FloorplanPatch{
		Rooms:   &rooms,
		Walls:   &walls,
		Doors:   &doors,
		Windows: &windows,
		Labels:  &labels,
	}
	if len(fresh.Furniture) > 0 {
		furniture := append(fp.Furniture, fresh.Furniture...)
		patch.Furniture = &furniture
	}

	updated, err := s.commitLocked(ctx, patch)
	if err != nil {
		return models.Batch{}, fmt.Errorf("commit batch: %w", err)
	}
	s.rebuildLocked(updated)
	s.log.Info("batch applied", "rooms", len(fresh.Rooms), "walls", len(fresh.Walls), "doors", len(fresh.Doors), "windows", len(fresh.Windows), "labels", len(fresh.Labels))
	return fresh, nil
}

// RestoreVersion возвращает содержимое версии и пишет его в историю отмены.
func (s *Syncer) RestoreVersion(ctx context.Context, versionID string) (models.Floorplan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fp, err := s.docs.RestoreVersion(ctx, s.id, versionID)
	if err != nil {
		return models.Floorplan{}, err
	}
	s.hist.Record(s.id, fp.Snapshot())
	s.rebuildLocked(fp)
	return fp, nil
}

// ============================================================
// Helpers
// ============================================================

func reidentify(b models.Batch) models.Batch {
	out := models.Batch{}
	roomIDs := make(map[string]string, len(b.Rooms))
	for _, r := range b.Rooms {
		id := models.NewElementID(models.KindRoom)
		if r.ID != "" {
			roomIDs[r.ID] = id
		}
		r.ID = id
		out.Rooms = append(out.Rooms, r)
	}
	for _, w := range b.Walls {
		w.ID = models.NewElementID(models.KindWall)
		out.Walls = append(out.Walls, w)
	}
	for _, d := range b.Doors {
		d.ID = models.NewElementID(models.KindDoor)
		out.Doors = append(out.Doors, d)
	}
	for _, w := range b.Windows {
		w.ID = models.NewElementID(models.KindWindow)
		out.Windows = append(out.Windows, w)
	}
	for _, l := range b.Labels {
		l.ID = models.NewElementID(models.KindLabel)
		if l.RoomID != "" {
			l.RoomID = roomIDs[l.RoomID]
		}
		out.Labels = append(out.Labels, l)
	}
	for _, f := range b.Furniture {
		f.ID = models.NewElementID(models.KindFurniture)
		out.Furniture = append(out.Furniture, f)
	}
	return out
}

func findElement(fp models.Floorplan, kind models.Kind, id string) (models.Element, bool) {
	switch kind {
	case models.KindRoom:
		if i := models.IndexByID(fp.Rooms, id); i >= 0 {
			return fp.Rooms[i], true
		}
	case models.KindWall:
		if i := models.IndexByID(fp.Walls, id); i >= 0 {
			return fp.Walls[i], true
		}
	case models.KindDoor:
		if i := models.IndexByID(fp.Doors, id); i >= 0 {
			return fp.Doors[i], true
		}
	case models.KindWindow:
		if i := models.IndexByID(fp.Windows, id); i >= 0 {
			return fp.Windows[i], true
		}
	case models.KindLabel:
		if i := models.IndexByID(fp.Labels, id); i >= 0 {
			return fp.Labels[i], true
		}
	case models.KindFurniture:
		if i := models.IndexByID(fp.Furniture, id); i >= 0 {
			return fp.Furniture[i], true
		}
	}
	return nil, false
}

// mergeGeometry берет из живого объекта только то, что меняет перетаскивание.
func mergeGeometry(current, live models.Element) models.Element {
	switch cur := current.(type) {
	case models.Room:
		if v, ok := live.(models.Room); ok {
			cur.X, cur.Y, cur.Width, cur.Height = v.X, v.Y, v.Width, v.Height
		}
		return cur
	case models.Wall:
		if v, ok := live.(models.Wall); ok {
			cur.X1, cur.Y1, cur.X2, cur.Y2 = v.X1, v.Y1, v.X2, v.Y2
		}
		return cur
	case models.Door:
		if v, ok := live.(models.Door); ok {
			cur.X, cur.Y, cur.Rotation = v.X, v.Y, v.Rotation
		}
		return cur
	case models.Window:
		if v, ok := live.(models.Window); ok {
			cur.X, cur.Y, cur.Width, cur.Rotation = v.X, v.Y, v.Width, v.Rotation
		}
		return cur
	case models.Label:
		if v, ok := live.(models.Label); ok {
			cur.X, cur.Y, cur.Text = v.X, v.Y, v.Text
		}
		return cur
	case models.Furniture:
		if v, ok := live.(models.Furniture); ok {
			cur.X, cur.Y, cur.Width, cur.Height, cur.Rotation = v.X, v.Y, v.Width, v.Height, v.Rotation
		}
		return cur
	}
	return current
}

// replacePatch затрагивает только коллекцию элемента.
func replacePatch(fp models.Floorplan, el models.Element) models.FloorplanPatch {
	var patch models.FloorplanPatch
	switch v := el.(type) {
	case models.Room:
		rooms, _ := models.ReplaceByID(fp.Rooms, v)
		patch.Rooms = &rooms
	case models.Wall:
		walls, _ := models.ReplaceByID(fp.Walls, v)
		patch.Walls = &walls
	case models.Door:
		doors, _ := models.ReplaceByID(fp.Doors, v)
		patch.Doors = &doors
	case models.Window:
		windows, _ := models.ReplaceByID(fp.Windows, v)
		patch.Windows = &windows
	case models.Label:
		labels, _ := models.ReplaceByID(fp.Labels, v)
		patch.Labels = &labels
	case models.Furniture:
		furniture, _ := models.ReplaceByID(fp.Furniture, v)
		patch.Furniture = &furniture
	}
	return patch
}

func removePatch(fp models.Floorplan, kind models.Kind, id string) models.FloorplanPatch {
	var patch models.FloorplanPatch
	switch kind {
	case models.KindRoom:
		rooms := models.RemoveByID(fp.Rooms, id)
		labels := make([]models.Label, 0, len(fp.Labels))
		for _, l := range fp.Labels {
			if l.RoomID != id {
				labels = append(labels, l)
			}
		}
		patch.Rooms = &rooms
		patch.Labels = &labels
	case models.KindWall:
		walls := models.RemoveByID(fp.Walls, id)
		patch.Walls = &walls
	case models.KindDoor:
		doors := models.RemoveByID(fp.Doors, id)
		patch.Doors = &doors
	case models.KindWindow:
		windows := models.RemoveByID(fp.Windows, id)
		patch.Windows = &windows
	case models.KindLabel:
		labels := models.RemoveByID(fp.Labels, id)
		patch.Labels = &labels
	case models.KindFurniture:
		furniture := models.RemoveByID(fp.Furniture, id)
		patch.Furniture = &furniture
	}
	return patch
}
