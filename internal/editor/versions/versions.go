package versions

import (
	"errors"
	"time"

	"floorplan-studio/internal/editor/models"
)

// ============================================================
// Version checkpoints
// ============================================================

const (
	DefaultMaxVersions      = 20
	DefaultAutoSaveInterval = 30 * time.Second
)

var ErrVersionNotFound = errors.New("version not found")

// Create снимает версию документа без его списка версий.
func Create(fp models.Floorplan, note string, now time.Time) models.Version {
	return models.Version{
		ID:        models.NewID("version"),
		Timestamp: now,
		Data:      fp.Snapshot(),
		Note:      note,
	}
}

// Add ставит версию первой и обрезает список до max.
func Add(history []models.Version, v models.Version, max int) []models.Version {
	if max <= 0 {
		max = DefaultMaxVersions
	}
	out := make([]models.Version, 0, len(history)+1)
	out = append(out, v)
	out = append(out, history...)
	if len(out) > max {
		out = out[:max]
	}
	return out
}

// LastSaved возвращает время самой свежей версии.
func LastSaved(history []models.Version) (time.Time, bool) {
	if len(history) == 0 {
		return time.Time{}, false
	}
	latest := history[0].Timestamp
	for _, v := range history[1:] {
		if v.Timestamp.After(latest) {
			latest = v.Timestamp
		}
	}
	return latest, true
}

// ShouldAutoSave: без предыдущей версии всегда true, иначе строго больше интервала.
func ShouldAutoSave(history []models.Version, now time.Time, interval time.Duration) bool {
	last, ok := LastSaved(history)
	if !ok {
		return true
	}
	return now.Sub(last) > interval
}

// Find ищет версию по id.
func Find(history []models.Version, id string) (models.Version, error) {
	for _, v := range history {
		if v.ID == id {
			return v, nil
		}
	}
	return models.Version{}, ErrVersionNotFound
}
