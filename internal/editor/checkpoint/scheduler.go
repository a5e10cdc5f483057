package checkpoint

import (
	"context"
	"fmt"
	"time"

	"floorplan-studio/internal/common/logger"
	"floorplan-studio/internal/editor/models"

	"github.com/robfig/cron/v3"
)

// ============================================================
// Auto-save scheduler
// ============================================================

const AutoSaveNote = "Auto-save"

// Documents источник документов и версий (реализуется store.Store).
type Documents interface {
	Floorplans() []models.Floorplan
	NeedsCheckpoint(id string) bool
	SaveVersion(ctx context.Context, id, note string, force bool) (models.Version, bool, error)
}

// Scheduler периодически снимает автоверсии измененных документов.
type Scheduler struct {
	docs    Documents
	spec    string
	timeout time.Duration
	log     *logger.Logger
	cron    *cron.Cron
}

func NewScheduler(docs Documents, spec string, log *logger.Logger) *Scheduler {
	return &Scheduler{
		docs:    docs,
		spec:    spec,
		timeout: 10 * time.Second,
		log:     log.With("service", "checkpoint"),
		cron:    cron.New(cron.WithSeconds()),
	}
}

// Start регистрирует задачу и запускает cron.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		s.RunOnce(ctx)
	}); err != nil {
		return fmt.Errorf("schedule checkpoint %q: %w", s.spec, err)
	}
	s.cron.Start()
	s.log.Info("checkpoint scheduler started", "spec", s.spec)
	return nil
}

// Stop останавливает cron и ждет текущий проход.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("checkpoint scheduler stopped")
}

// RunOnce выполняет один проход и возвращает число снятых версий.
func (s *Scheduler) RunOnce(ctx context.Context) int {
	saved := 0
	for _, fp := range s.docs.Floorplans() {
		if ctx.Err() != nil {
			break
		}
		if !s.docs.NeedsCheckpoint(fp.ID) {
			continue
		}
		v, ok, err := s.docs.SaveVersion(ctx, fp.ID, AutoSaveNote, false)
		if err != nil {
			s.log.Error("auto-save failed", "floorplan_id", fp.ID, "error", err)
			continue
		}
		if ok {
			saved++
			s.log.Debug("auto-save created", "floorplan_id", fp.ID, "version_id", v.ID)
		}
	}
	if saved > 0 {
		s.log.Info("checkpoint sweep done", "saved", saved)
	}
	return saved
}
