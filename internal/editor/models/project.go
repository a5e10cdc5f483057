package models

import "time"

// ============================================================
// Project hierarchy
// ============================================================

type ProjectType string

const (
	ProjectMultiBuilding  ProjectType = "multi-building"
	ProjectSingleBuilding ProjectType = "single-building"
	ProjectSingleLayout   ProjectType = "single-layout"
)

// Valid сообщает, известен ли тип проекта.
func (p ProjectType) Valid() bool {
	switch p {
	case ProjectMultiBuilding, ProjectSingleBuilding, ProjectSingleLayout:
		return true
	}
	return false
}

type Complex struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	SitePlans []SitePlan `json:"sitePlans"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type SitePlan struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	OriginalUpload string      `json:"originalUpload"`
	CleanedSVG     string      `json:"cleanedSVG,omitempty"`
	Buildings      []Building  `json:"buildings"`
	ProjectType    ProjectType `json:"projectType"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// BuildingOutline очерчивает здание на генплане.
type BuildingOutline struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Path   string  `json:"path"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Building не хранит временных меток.
type Building struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Outline        BuildingOutline `json:"outline"`
	CleanedOutline string          `json:"cleanedOutline,omitempty"`
	Floorplans     []Floorplan     `json:"floorplans"`
	SitePlanID     string          `json:"sitePlanId"`
}

type FloorplanMetadata struct {
	BuildingID    string   `json:"buildingId,omitempty"`
	FloorNumber   *int     `json:"floorNumber,omitempty"`
	UnitNumbers   []string `json:"unitNumbers,omitempty"`
	Address       string   `json:"address,omitempty"`
	FloorplanType string   `json:"floorplanType,omitempty"`
	Bedrooms      *int     `json:"bedrooms,omitempty"`
	Bathrooms     *float64 `json:"bathrooms,omitempty"`
	SquareFootage *float64 `json:"squareFootage,omitempty"`
	CustomNotes   string   `json:"customNotes,omitempty"`
}

type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// OCRResult тип: label, measurement или note.
type OCRResult struct {
	Text        string      `json:"text"`
	BoundingBox BoundingBox `json:"boundingBox"`
	Confidence  float64     `json:"confidence"`
	Type        string      `json:"type"`
}

type Floorplan struct {
	ID             string            `json:"id"`
	BuildingID     string            `json:"buildingId"`
	Metadata       FloorplanMetadata `json:"metadata"`
	Rooms          []Room            `json:"rooms"`
	Walls          []Wall            `json:"walls"`
	Doors          []Door            `json:"doors"`
	Windows        []Window          `json:"windows"`
	Labels         []Label           `json:"labels"`
	Furniture      []Furniture       `json:"furniture,omitempty"`
	Logo           string            `json:"logo,omitempty"`
	BaseImage      string            `json:"baseImage,omitempty"`
	CleanedSVG     string            `json:"cleanedSVG,omitempty"`
	OCRResults     []OCRResult       `json:"ocrResults,omitempty"`
	VersionHistory []Version         `json:"versionHistory,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// Version хранит снимок документа без собственного списка версий.
type Version struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Data      Floorplan `json:"data"`
	Note      string    `json:"note,omitempty"`
}

// ProjectState сохраняется целиком одним блобом.
type ProjectState struct {
	Complexes          []Complex `json:"complexes"`
	CurrentComplexID   string    `json:"currentComplexId"`
	CurrentSitePlanID  string    `json:"currentSitePlanId"`
	CurrentBuildingID  string    `json:"currentBuildingId"`
	CurrentFloorplanID string    `json:"currentFloorplanId"`
}

// Batch набор примитивов, полученных извне (анализ, импорт SVG).
type Batch struct {
	Rooms     []Room      `json:"rooms"`
	Walls     []Wall      `json:"walls"`
	Doors     []Door      `json:"doors"`
	Windows   []Window    `json:"windows"`
	Labels    []Label     `json:"labels"`
	Furniture []Furniture `json:"furniture,omitempty"`
}

// Len возвращает общее число примитивов.
func (b Batch) Len() int {
	return len(b.Rooms) + len(b.Walls) + len(b.Doors) + len(b.Windows) + len(b.Labels) + len(b.Furniture)
}

// Elements возвращает все примитивы документа в порядке отрисовки.
func (fp Floorplan) Elements() []Element {
	out := make([]Element, 0, len(fp.Walls)+len(fp.Rooms)+len(fp.Doors)+len(fp.Windows)+len(fp.Labels)+len(fp.Furniture))
	for _, w := range fp.Walls {
		out = append(out, w)
	}
	for _, r := range fp.Rooms {
		out = append(out, r)
	}
	for _, d := range fp.Doors {
		out = append(out, d)
	}
	for _, w := range fp.Windows {
		out = append(out, w)
	}
	for _, l := range fp.Labels {
		out = append(out, l)
	}
	for _, f := range fp.Furniture {
		out = append(out, f)
	}
	return out
}

// ============================================================
// Deep copies
// ============================================================

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func (m FloorplanMetadata) Clone() FloorplanMetadata {
	m.FloorNumber = clonePtr(m.FloorNumber)
	m.UnitNumbers = cloneSlice(m.UnitNumbers)
	m.Bedrooms = clonePtr(m.Bedrooms)
	m.Bathrooms = clonePtr(m.Bathrooms)
	m.SquareFootage = clonePtr(m.SquareFootage)
	return m
}

// Clone возвращает независимую копию документа.
func (fp Floorplan) Clone() Floorplan {
	out := fp.Snapshot()
	if fp.VersionHistory != nil {
		out.VersionHistory = make([]Version, len(fp.VersionHistory))
		for i, v := range fp.VersionHistory {
			v.Data = v.Data.Clone()
			out.VersionHistory[i] = v
		}
	}
	return out
}

// Snapshot возвращает копию документа без истории версий.
func (fp Floorplan) Snapshot() Floorplan {
	fp.Metadata = fp.Metadata.Clone()
	fp.Rooms = cloneSlice(fp.Rooms)
	fp.Walls = cloneSlice(fp.Walls)
	fp.Doors = cloneSlice(fp.Doors)
	fp.Windows = cloneSlice(fp.Windows)
	fp.Labels = cloneSlice(fp.Labels)
	fp.Furniture = cloneSlice(fp.Furniture)
	fp.OCRResults = cloneSlice(fp.OCRResults)
	fp.VersionHistory = nil
	return fp
}

func (b Building) Clone() Building {
	if b.Floorplans != nil {
		fps := make([]Floorplan, len(b.Floorplans))
		for i, fp := range b.Floorplans {
			fps[i] = fp.Clone()
		}
		b.Floorplans = fps
	}
	return b
}

func (s SitePlan) Clone() SitePlan {
	if s.Buildings != nil {
		bs := make([]Building, len(s.Buildings))
		for i, b := range s.Buildings {
			bs[i] = b.Clone()
		}
		s.Buildings = bs
	}
	return s
}

func (c Complex) Clone() Complex {
	if c.SitePlans != nil {
		sps := make([]SitePlan, len(c.SitePlans))
		for i, sp := range c.SitePlans {
			sps[i] = sp.Clone()
		}
		c.SitePlans = sps
	}
	return c
}

func (p ProjectState) Clone() ProjectState {
	if p.Complexes != nil {
		cs := make([]Complex, len(p.Complexes))
		for i, c := range p.Complexes {
			cs[i] = c.Clone()
		}
		p.Complexes = cs
	}
	return p
}
