package models

import (
	"errors"
	"fmt"
)

var ErrDuplicateID = errors.New("models: duplicate element id")

// ============================================================
// Partial updates
// ============================================================

// FloorplanPatch: nil-поля не меняются, метаданные заменяются целиком.
type FloorplanPatch struct {
	Metadata       *FloorplanMetadata `json:"metadata,omitempty"`
	Rooms          *[]Room            `json:"rooms,omitempty"`
	Walls          *[]Wall            `json:"walls,omitempty"`
	Doors          *[]Door            `json:"doors,omitempty"`
	Windows        *[]Window          `json:"windows,omitempty"`
	Labels         *[]Label           `json:"labels,omitempty"`
	Furniture      *[]Furniture       `json:"furniture,omitempty"`
	Logo           *string            `json:"logo,omitempty"`
	BaseImage      *string            `json:"baseImage,omitempty"`
	CleanedSVG     *string            `json:"cleanedSVG,omitempty"`
	OCRResults     *[]OCRResult       `json:"ocrResults,omitempty"`
	VersionHistory *[]Version         `json:"versionHistory,omitempty"`
}

// Apply сливает изменения в документ. Метка updatedAt ставится вызывающим.
func (p FloorplanPatch) Apply(fp *Floorplan) {
	if p.Metadata != nil {
		fp.Metadata = p.Metadata.Clone()
	}
	if p.Rooms != nil {
		fp.Rooms = cloneSlice(*p.Rooms)
	}
	if p.Walls != nil {
		fp.Walls = cloneSlice(*p.Walls)
	}
	if p.Doors != nil {
		fp.Doors = cloneSlice(*p.Doors)
	}
	if p.Windows != nil {
		fp.Windows = cloneSlice(*p.Windows)
	}
	if p.Labels != nil {
		fp.Labels = cloneSlice(*p.Labels)
	}
	if p.Furniture != nil {
		fp.Furniture = cloneSlice(*p.Furniture)
	}
	if p.Logo != nil {
		fp.Logo = *p.Logo
	}
	if p.BaseImage != nil {
		fp.BaseImage = *p.BaseImage
	}
	if p.CleanedSVG != nil {
		fp.CleanedSVG = *p.CleanedSVG
	}
	if p.OCRResults != nil {
		fp.OCRResults = cloneSlice(*p.OCRResults)
	}
	if p.VersionHistory != nil {
		versions := make([]Version, len(*p.VersionHistory))
		for i, v := range *p.VersionHistory {
			v.Data = v.Data.Snapshot()
			versions[i] = v
		}
		fp.VersionHistory = versions
	}
}

// AssignMissingIDs выдает новые id примитивам патча, пришедшим без id.
func (p FloorplanPatch) AssignMissingIDs() {
	if p.Rooms != nil {
		fillIDs(*p.Rooms, KindRoom)
	}
	if p.Walls != nil {
		fillIDs(*p.Walls, KindWall)
	}
	if p.Doors != nil {
		fillIDs(*p.Doors, KindDoor)
	}
	if p.Windows != nil {
		fillIDs(*p.Windows, KindWindow)
	}
	if p.Labels != nil {
		fillIDs(*p.Labels, KindLabel)
	}
	if p.Furniture != nil {
		fillIDs(*p.Furniture, KindFurniture)
	}
}

func fillIDs[T Element](items []T, kind Kind) {
	for i, it := range items {
		if it.ElementID() == "" {
			items[i] = WithID(it, NewElementID(kind)).(T)
		}
	}
}

// CheckIDs проверяет, что id примитивов документа непусты и уникальны.
func (fp Floorplan) CheckIDs() error {
	seen := make(map[string]struct{})
	for _, el := range fp.Elements() {
		id := el.ElementID()
		if id == "" {
			return fmt.Errorf("%w: empty id in %s", ErrDuplicateID, el.ElementKind())
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateID, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// ContentPatch переносит все примитивы и вложения снимка, кроме версий.
func ContentPatch(snap Floorplan) FloorplanPatch {
	meta := snap.Metadata.Clone()
	rooms := cloneSlice(snap.Rooms)
	walls := cloneSlice(snap.Walls)
	doors := cloneSlice(snap.Doors)
	windows := cloneSlice(snap.Windows)
	labels := cloneSlice(snap.Labels)
	furniture := cloneSlice(snap.Furniture)
	ocr := cloneSlice(snap.OCRResults)
	logo, base, cleaned := snap.Logo, snap.BaseImage, snap.CleanedSVG
	return FloorplanPatch{
		Metadata:   &meta,
		Rooms:      &rooms,
		Walls:      &walls,
		Doors:      &doors,
		Windows:    &windows,
		Labels:     &labels,
		Furniture:  &furniture,
		Logo:       &logo,
		BaseImage:  &base,
		CleanedSVG: &cleaned,
		OCRResults: &ocr,
	}
}

type ComplexPatch struct {
	Name *string `json:"name,omitempty"`
}

func (p ComplexPatch) Apply(c *Complex) {
	if p.Name != nil {
		c.Name = *p.Name
	}
}

type SitePlanPatch struct {
	Name           *string      `json:"name,omitempty"`
	OriginalUpload *string      `json:"originalUpload,omitempty"`
	CleanedSVG     *string      `json:"cleanedSVG,omitempty"`
	ProjectType    *ProjectType `json:"projectType,omitempty"`
}

func (p SitePlanPatch) Apply(s *SitePlan) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.OriginalUpload != nil {
		s.OriginalUpload = *p.OriginalUpload
	}
	if p.CleanedSVG != nil {
		s.CleanedSVG = *p.CleanedSVG
	}
	if p.ProjectType != nil {
		s.ProjectType = *p.ProjectType
	}
}

type BuildingPatch struct {
	Name           *string          `json:"name,omitempty"`
	Outline        *BuildingOutline `json:"outline,omitempty"`
	CleanedOutline *string          `json:"cleanedOutline,omitempty"`
}

func (p BuildingPatch) Apply(b *Building) {
	if p.Name != nil {
		b.Name = *p.Name
	}
	if p.Outline != nil {
		b.Outline = *p.Outline
	}
	if p.CleanedOutline != nil {
		b.CleanedOutline = *p.CleanedOutline
	}
}
