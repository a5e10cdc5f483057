package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"floorplan-studio/internal/common/logger"
	"floorplan-studio/internal/editor/models"
	"floorplan-studio/internal/editor/repository"
	"floorplan-studio/internal/editor/versions"
)

// ============================================================
// Document Store
// ============================================================

// ErrNotFound возвращается при создании под несуществующим родителем.
var ErrNotFound = errors.New("store: not found")

// Store хранит всю иерархию проекта и сохраняет ее целиком после каждого изменения.
type Store struct {
	mu          sync.Mutex
	backend     repository.Backend
	key         string
	log         *logger.Logger
	now         func() time.Time
	maxVersions int
	autoSave    time.Duration
	state       models.ProjectState
}

type Option func(*Store)

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithVersionPolicy задает лимит версий и интервал автосохранения.
func WithVersionPolicy(max int, interval time.Duration) Option {
	return func(s *Store) {
		s.maxVersions = max
		s.autoSave = interval
	}
}

func New(backend repository.Backend, key string, log *logger.Logger, opts ...Option) *Store {
	s := &Store{
		backend:     backend,
		key:         key,
		log:         log.With("service", "store"),
		now:         time.Now,
		maxVersions: versions.DefaultMaxVersions,
		autoSave:    versions.DefaultAutoSaveInterval,
		state:       models.ProjectState{Complexes: []models.Complex{}},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load читает сохраненное состояние. Отсутствие ключа дает пустой проект.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.backend.Get(ctx, s.key)
	if errors.Is(err, repository.ErrNotFound) {
		s.log.Info("no persisted state, starting empty", "key", s.key)
		s.state = models.ProjectState{Complexes: []models.Complex{}}
		return nil
	}
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	var st models.ProjectState
	if err := json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("decode state: %w", err)
	}
	if st.Complexes == nil {
		st.Complexes = []models.Complex{}
	}
	s.state = st
	s.log.Info("state loaded", "complexes", len(st.Complexes))
	return nil
}

// State возвращает копию всего состояния.
func (s *Store) State() models.ProjectState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// persistLocked пишет состояние в backend; память при ошибке не откатывается.
func (s *Store) persistLocked(ctx context.Context) error {
	data, err := json.Marshal(s.state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := s.backend.Put(ctx, s.key, data); err != nil {
		s.log.Error("write-through failed, memory and storage diverged", "key", s.key, "error", err)
		return fmt.Errorf("persist state: %w", err)
	}
	return nil
}

// ============================================================
// Lookups (caller holds mu)
// ============================================================

func (s *Store) complexLocked(id string) *models.Complex {
	for i := range s.state.Complexes {
		if s.state.Complexes[i].ID == id {
			return &s.state.Complexes[i]
		}
	}
	return nil
}

func (s *Store) sitePlanLocked(id string) (*models.Complex, *models.SitePlan) {
	for i := range s.state.Complexes {
		c := &s.state.Complexes[i]
		for j := range c.SitePlans {
			if c.SitePlans[j].ID == id {
				return c, &c.SitePlans[j]
			}
		}
	}
	return nil, nil
}

func (s *Store) buildingLocked(id string) (*models.SitePlan, *models.Building) {
	for i := range s.state.Complexes {
		c := &s.state.Complexes[i]
		for j := range c.SitePlans {
			sp := &c.SitePlans[j]
			for k := range sp.Buildings {
				if sp.Buildings[k].ID == id {
					return sp, &sp.Buildings[k]
				}
			}
		}
	}
	return nil, nil
}

func (s *Store) floorplanLocked(id string) (*models.Building, *models.Floorplan) {
	for i := range s.state.Complexes {
		c := &s.state.Complexes[i]
		for j := range c.SitePlans {
			sp := &c.SitePlans[j]
			for k := range sp.Buildings {
				b := &sp.Buildings[k]
				for l := range b.Floorplans {
					if b.Floorplans[l].ID == id {
						return b, &b.Floorplans[l]
					}
				}
			}
		}
	}
	return nil, nil
}

// ============================================================
// Complex
// ============================================================

func (s *Store) CreateComplex(ctx context.Context, name string) (models.Complex, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	c := models.Complex{
		ID:        models.NewID("complex"),
		Name:      name,
		SitePlans: []models.SitePlan{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.state.Complexes = append(s.state.Complexes, c)
	s.state.CurrentComplexID = c.ID
	return c.Clone(), s.persistLocked(ctx)
}

// UpdateComplex: неизвестный id молча игнорируется.
func (s *Store) UpdateComplex(ctx context.Context, id string, patch models.ComplexPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.complexLocked(id)
	if c == nil {
		return nil
	}
	patch.Apply(c)
	c.UpdatedAt = s.now()
	return s.persistLocked(ctx)
}

func (s *Store) GetComplex(id string) (models.Complex, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.complexLocked(id)
	if c == nil {
		return models.Complex{}, false
	}
	return c.Clone(), true
}

func (s *Store) Complexes() []models.Complex {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone().Complexes
}

// ============================================================
// SitePlan
// ============================================================

type SitePlanInput struct {
	Name           string             `json:"name"`
	OriginalUpload string             `json:"originalUpload"`
	CleanedSVG     string             `json:"cleanedSVG,omitempty"`
	ProjectType    models.ProjectType `json:"projectType"`
}

// CreateSitePlan добавляет генплан и обновляет метку комплекса.
func (s *Store) CreateSitePlan(ctx context.Context, complexID string, in SitePlanInput) (models.SitePlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.complexLocked(complexID)
	if c == nil {
		return models.SitePlan{}, fmt.Errorf("complex %s: %w", complexID, ErrNotFound)
	}
	if in.ProjectType == "" {
		in.ProjectType = models.ProjectMultiBuilding
	}

	now := s.now()
	sp := models.SitePlan{
		ID:             models.NewID("siteplan"),
		Name:           in.Name,
		OriginalUpload: in.OriginalUpload,
		CleanedSVG:     in.CleanedSVG,
		Buildings:      []models.Building{},
		ProjectType:    in.ProjectType,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	c.SitePlans = append(c.SitePlans, sp)
	c.UpdatedAt = now
	s.state.CurrentSitePlanID = sp.ID
	return sp.Clone(), s.persistLocked(ctx)
}

func (s *Store) UpdateSitePlan(ctx context.Context, id string, patch models.SitePlanPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, sp := s.sitePlanLocked(id)
	if sp == nil {
		return nil
	}
	patch.Apply(sp)
	sp.UpdatedAt = s.now()
	return s.persistLocked(ctx)
}

func (s *Store) GetSitePlan(id string) (models.SitePlan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, sp := s.sitePlanLocked(id)
	if sp == nil {
		return models.SitePlan{}, false
	}
	return sp.Clone(), true
}

// ============================================================
// Building
// ============================================================

type BuildingInput struct {
	Name           string                 `json:"name"`
	Outline        models.BuildingOutline `json:"outline"`
	CleanedOutline string                 `json:"cleanedOutline,omitempty"`
}

func (s *Store) CreateBuilding(ctx context.Context, sitePlanID string, in BuildingInput) (models.Building, error) {
	b := models.Building{
		Name:           in.Name,
		Outline:        in.Outline,
		CleanedOutline: in.CleanedOutline,
	}
	added, err := s.AddBuildings(ctx, sitePlanID, []models.Building{b})
	if err != nil {
		return models.Building{}, err
	}
	return added[0], nil
}

// AddBuildings добавляет готовые здания (например, из детектора контуров).
func (s *Store) AddBuildings(ctx context.Context, sitePlanID string, buildings []models.Building) ([]models.Building, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, sp := s.sitePlanLocked(sitePlanID)
	if sp == nil {
		return nil, fmt.Errorf("site plan %s: %w", sitePlanID, ErrNotFound)
	}

	out := make([]models.Building, 0, len(buildings))
	for _, b := range buildings {
		b.ID = models.NewID("building")
		b.SitePlanID = sitePlanID
		if b.Outline.ID == "" {
			b.Outline.ID = models.NewID("outline")
		}
		if b.Outline.Name == "" {
			b.Outline.Name = b.Name
		}
		if b.Floorplans == nil {
			b.Floorplans = []models.Floorplan{}
		}
		sp.Buildings = append(sp.Buildings, b)
		out = append(out, b.Clone())
	}
	sp.UpdatedAt = s.now()
	return out, s.persistLocked(ctx)
}

// UpdateBuilding: у зданий нет временных меток.
func (s *Store) UpdateBuilding(ctx context.Context, id string, patch models.BuildingPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, b := s.buildingLocked(id)
	if b == nil {
		return nil
	}
	patch.Apply(b)
	return s.persistLocked(ctx)
}

func (s *Store) GetBuilding(id string) (models.Building, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, b := s.buildingLocked(id)
	if b == nil {
		return models.Building{}, false
	}
	return b.Clone(), true
}

// ============================================================
// Floorplan
// ============================================================

// CreateFloorplan создает пустой документ в здании.
func (s *Store) CreateFloorplan(ctx context.Context, buildingID string, meta models.FloorplanMetadata) (models.Floorplan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, b := s.buildingLocked(buildingID)
	if b == nil {
		return models.Floorplan{}, fmt.Errorf("building %s: %w", buildingID, ErrNotFound)
	}

	now := s.now()
	fp := models.Floorplan{
		ID:         models.NewID("floorplan"),
		BuildingID: buildingID,
		Metadata:   meta.Clone(),
		Rooms:      []models.Room{},
		Walls:      []models.Wall{},
		Doors:      []models.Door{},
		Windows:    []models.Window{},
		Labels:     []models.Label{},
		Furniture:  []models.Furniture{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	b.Floorplans = append(b.Floorplans, fp)
	return fp.Clone(), s.persistLocked(ctx)
}

// UpdateFloorplan сливает поля и всегда обновляет updatedAt.
// Неизвестный id: состояние не меняется, запись не выполняется.
func (s *Store) UpdateFloorplan(ctx context.Context, id string, patch models.FloorplanPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, fp := s.floorplanLocked(id)
	if fp == nil {
		s.log.Debug("update on unknown floorplan ignored", "floorplan_id", id)
		return nil
	}
	patch.Apply(fp)
	fp.UpdatedAt = s.now()
	return s.persistLocked(ctx)
}

func (s *Store) GetFloorplan(id string) (models.Floorplan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, fp := s.floorplanLocked(id)
	if fp == nil {
		return models.Floorplan{}, false
	}
	return fp.Clone(), true
}

// Floorplans возвращает копии всех документов проекта.
func (s *Store) Floorplans() []models.Floorplan {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Floorplan
	for _, c := range s.state.Complexes {
		for _, sp := range c.SitePlans {
			for _, b := range sp.Buildings {
				for _, fp := range b.Floorplans {
					out = append(out, fp.Clone())
				}
			}
		}
	}
	return out
}

// DuplicateFloorplan копирует документ в то же здание с новым id и слитыми метаданными.
func (s *Store) DuplicateFloorplan(ctx context.Context, id string, meta models.FloorplanMetadata) (models.Floorplan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, src := s.floorplanLocked(id)
	if src == nil {
		return models.Floorplan{}, fmt.Errorf("floorplan %s: %w", id, ErrNotFound)
	}

	now := s.now()
	dup := src.Snapshot()
	dup.ID = models.NewID("floorplan")
	dup.Metadata = mergeMetadata(src.Metadata, meta)
	dup.CreatedAt = now
	dup.UpdatedAt = now
	b.Floorplans = append(b.Floorplans, dup)
	return dup.Clone(), s.persistLocked(ctx)
}

// mergeMetadata накладывает заданные поля over на base.
func mergeMetadata(base, over models.FloorplanMetadata) models.FloorplanMetadata {
	out := base.Clone()
	over = over.Clone()
	if over.BuildingID != "" {
		out.BuildingID = over.BuildingID
	}
	if over.FloorNumber != nil {
		out.FloorNumber = over.FloorNumber
	}
	if over.UnitNumbers != nil {
		out.UnitNumbers = over.UnitNumbers
	}
	if over.Address != "" {
		out.Address = over.Address
	}
	if over.FloorplanType != "" {
		out.FloorplanType = over.FloorplanType
	}
	if over.Bedrooms != nil {
		out.Bedrooms = over.Bedrooms
	}
	if over.Bathrooms != nil {
		out.Bathrooms = over.Bathrooms
	}
	if over.SquareFootage != nil {
		out.SquareFootage = over.SquareFootage
	}
	if over.CustomNotes != "" {
		out.CustomNotes = over.CustomNotes
	}
	return out
}

// ============================================================
// Selection
// ============================================================

type Selection struct {
	ComplexID   string `json:"currentComplexId"`
	SitePlanID  string `json:"currentSitePlanId"`
	BuildingID  string `json:"currentBuildingId"`
	FloorplanID string `json:"currentFloorplanId"`
}

func (s *Store) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Selection{
		ComplexID:   s.state.CurrentComplexID,
		SitePlanID:  s.state.CurrentSitePlanID,
		BuildingID:  s.state.CurrentBuildingID,
		FloorplanID: s.state.CurrentFloorplanID,
	}
}

// SetSelection сохраняет текущие идентификаторы (пустая строка сбрасывает выбор).
func (s *Store) SetSelection(ctx context.Context, sel Selection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.CurrentComplexID = sel.ComplexID
	s.state.CurrentSitePlanID = sel.SitePlanID
	s.state.CurrentBuildingID = sel.BuildingID
	s.state.CurrentFloorplanID = sel.FloorplanID
	return s.persistLocked(ctx)
}
