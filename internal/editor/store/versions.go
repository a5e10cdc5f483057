package store

import (
	"context"
	"fmt"

	"floorplan-studio/internal/editor/models"
	"floorplan-studio/internal/editor/versions"
)

// ============================================================
// Version checkpoints
// ============================================================

// SaveVersion снимает версию документа. Без force версия пишется
// только если с прошлой прошло больше интервала автосохранения.
func (s *Store) SaveVersion(ctx context.Context, id, note string, force bool) (models.Version, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, fp := s.floorplanLocked(id)
	if fp == nil {
		return models.Version{}, false, fmt.Errorf("floorplan %s: %w", id, ErrNotFound)
	}

	now := s.now()
	if !force && !versions.ShouldAutoSave(fp.VersionHistory, now, s.autoSave) {
		return models.Version{}, false, nil
	}

	v := versions.Create(*fp, note, now)
	fp.VersionHistory = versions.Add(fp.VersionHistory, v, s.maxVersions)
	fp.UpdatedAt = now
	return v, true, s.persistLocked(ctx)
}

// Versions возвращает версии, самые свежие первыми.
func (s *Store) Versions(id string) ([]models.Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, fp := s.floorplanLocked(id)
	if fp == nil {
		return nil, fmt.Errorf("floorplan %s: %w", id, ErrNotFound)
	}
	out := make([]models.Version, len(fp.VersionHistory))
	for i, v := range fp.VersionHistory {
		v.Data = v.Data.Clone()
		out[i] = v
	}
	return out, nil
}

// RestoreVersion заменяет содержимое документа данными версии; список версий остается.
func (s *Store) RestoreVersion(ctx context.Context, id, versionID string) (models.Floorplan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, fp := s.floorplanLocked(id)
	if fp == nil {
		return models.Floorplan{}, fmt.Errorf("floorplan %s: %w", id, ErrNotFound)
	}
	v, err := versions.Find(fp.VersionHistory, versionID)
	if err != nil {
		return models.Floorplan{}, err
	}

	models.ContentPatch(v.Data).Apply(fp)
	fp.UpdatedAt = s.now()
	return fp.Clone(), s.persistLocked(ctx)
}

// NeedsCheckpoint сообщает, менялся ли документ после последней версии
// и истек ли интервал автосохранения.
func (s *Store) NeedsCheckpoint(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, fp := s.floorplanLocked(id)
	if fp == nil {
		return false
	}
	last, ok := versions.LastSaved(fp.VersionHistory)
	if ok && !fp.UpdatedAt.After(last) {
		return false
	}
	return versions.ShouldAutoSave(fp.VersionHistory, s.now(), s.autoSave)
}
