package analysis

import (
	"context"

	"floorplan-studio/internal/common/logger"
	"floorplan-studio/internal/editor/models"

	"golang.org/x/sync/errgroup"
)

// Analyzer внешний сервис анализа изображений.
type Analyzer interface {
	Cleanup(ctx context.Context, image string, doc DocType) (CleanupResult, error)
	DetectBuildings(ctx context.Context, image string) ([]DetectedBuilding, error)
	ExtractText(ctx context.Context, image string) ([]models.OCRResult, error)
}

var _ Analyzer = (*Client)(nil)

// Report объединяет очистку и распознавание текста.
type Report struct {
	Cleanup CleanupResult      `json:"cleanup"`
	OCR     []models.OCRResult `json:"ocrResults"`
}

// Analyze выполняет очистку и OCR параллельно. Ошибка очистки отменяет оба вызова,
// ошибка OCR только пишется в лог: отчет уходит с пустым списком надписей.
func Analyze(ctx context.Context, a Analyzer, image string, doc DocType, log *logger.Logger) (Report, error) {
	var rep Report
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := a.Cleanup(gctx, image, doc)
		if err != nil {
			return err
		}
		rep.Cleanup = res
		return nil
	})
	g.Go(func() error {
		res, err := a.ExtractText(gctx, image)
		if err != nil {
			if gctx.Err() == nil {
				log.Warn("ocr failed, continuing without text", "error", err)
			}
			rep.OCR = []models.OCRResult{}
			return nil
		}
		rep.OCR = res
		return nil
	})
	if err := g.Wait(); err != nil {
		return Report{}, err
	}
	return rep, nil
}
