package handlers

import (
	"net/http"

	"floorplan-studio/internal/editor/analysis"
	"floorplan-studio/internal/editor/models"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Image analysis
// ============================================================

type imageRequest struct {
	Image   string           `json:"image"`
	DocType analysis.DocType `json:"docType"`
	// SetBase сохраняет изображение подложкой документа.
	SetBase bool `json:"setBaseImage"`
}

type analyzeResponse struct {
	Description string             `json:"description"`
	Applied     models.Batch       `json:"applied"`
	OCRResults  []models.OCRResult `json:"ocrResults"`
	Floorplan   models.Floorplan   `json:"floorplan"`
}

// Analyze чистит изображение и распознает текст; разобранные примитивы
// дописываются в документ одним шагом истории.
func (h *EditorHandler) Analyze(c fiber.Ctx) error {
	var req imageRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	if req.DocType == "" {
		req.DocType = analysis.DocFloorplan
	}
	if req.DocType != analysis.DocFloorplan && req.DocType != analysis.DocSitePlan {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid docType"})
	}

	sess, err := h.session(c)
	if err != nil {
		return h.fail(c, err)
	}

	report, err := analysis.Analyze(c.Context(), h.analyzer, req.Image, req.DocType, h.log)
	if err != nil {
		return h.fail(c, err)
	}

	id := c.Params("id")
	patch := models.FloorplanPatch{OCRResults: &report.OCR}
	if req.SetBase {
		patch.BaseImage = &req.Image
	}
	if err := h.store.UpdateFloorplan(c.Context(), id, patch); err != nil {
		return h.fail(c, err)
	}

	var applied models.Batch
	if report.Cleanup.Elements != nil {
		applied, err = sess.Syncer.ApplyBatch(c.Context(), report.Cleanup.Elements.ToBatch())
		if err != nil {
			return h.fail(c, err)
		}
	} else if err := sess.Syncer.Rebuild(); err != nil {
		return h.fail(c, err)
	}

	fp, _ := h.store.GetFloorplan(id)
	return c.JSON(analyzeResponse{
		Description: report.Cleanup.Description,
		Applied:     applied,
		OCRResults:  report.OCR,
		Floorplan:   fp,
	})
}

// ExtractText сохраняет результаты OCR в документе.
func (h *EditorHandler) ExtractText(c fiber.Ctx) error {
	var req imageRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	id := c.Params("id")
	if _, ok := h.store.GetFloorplan(id); !ok {
		return h.fail(c, notFound("floorplan", id))
	}

	results, err := h.analyzer.ExtractText(c.Context(), req.Image)
	if err != nil {
		return h.fail(c, err)
	}
	if err := h.store.UpdateFloorplan(c.Context(), id, models.FloorplanPatch{OCRResults: &results}); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"ocrResults": results})
}

// DetectBuildings находит контуры зданий на изображении генплана и добавляет их.
func (h *EditorHandler) DetectBuildings(c fiber.Ctx) error {
	var req imageRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	id := c.Params("id")
	if _, ok := h.store.GetSitePlan(id); !ok {
		return h.fail(c, notFound("site plan", id))
	}

	detected, err := h.analyzer.DetectBuildings(c.Context(), req.Image)
	if err != nil {
		return h.fail(c, err)
	}
	added, err := h.store.AddBuildings(c.Context(), id, analysis.BuildingsFromDetection(detected, id))
	if err != nil {
		return h.fail(c, err)
	}
	if req.SetBase {
		upload := req.Image
		if err := h.store.UpdateSitePlan(c.Context(), id, models.SitePlanPatch{OriginalUpload: &upload}); err != nil {
			return h.fail(c, err)
		}
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"detected":  detected,
		"buildings": added,
	})
}
