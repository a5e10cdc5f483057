package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"floorplan-studio/internal/common/logger"
	"floorplan-studio/internal/editor/analysis"
	"floorplan-studio/internal/editor/canvas"
	"floorplan-studio/internal/editor/export"
	"floorplan-studio/internal/editor/history"
	"floorplan-studio/internal/editor/models"
	"floorplan-studio/internal/editor/repository"
	"floorplan-studio/internal/editor/store"
	"floorplan-studio/internal/editor/svgimport"
	"floorplan-studio/internal/editor/versions"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Editor Handler
// ============================================================

type EditorHandler struct {
	store        *store.Store
	history      *history.Engine
	canvas       *canvas.Registry
	analyzer     analysis.Analyzer
	importer     *svgimport.Importer
	canvasWidth  int
	canvasHeight int
	log          *logger.Logger
}

type Deps struct {
	Store        *store.Store
	History      *history.Engine
	Canvas       *canvas.Registry
	Analyzer     analysis.Analyzer
	Importer     *svgimport.Importer
	CanvasWidth  int
	CanvasHeight int
	Log          *logger.Logger
}

func NewEditorHandler(d Deps) *EditorHandler {
	w, h := d.CanvasWidth, d.CanvasHeight
	if w <= 0 || h <= 0 {
		w, h = analysis.CanvasWidth, analysis.CanvasHeight
	}
	return &EditorHandler{
		store:        d.Store,
		history:      d.History,
		canvas:       d.Canvas,
		analyzer:     d.Analyzer,
		importer:     d.Importer,
		canvasWidth:  w,
		canvasHeight: h,
		log:          d.Log.With("service", "handlers"),
	}
}

// Register вешает маршруты редактора на группу /api/v1.
func (h *EditorHandler) Register(api fiber.Router) {
	api.Get("/state", h.GetState)
	api.Get("/search", h.Search)
	api.Get("/selection", h.GetSelection)
	api.Put("/selection", h.SetSelection)

	api.Get("/complexes", h.ListComplexes)
	api.Post("/complexes", h.CreateComplex)
	api.Get("/complexes/:id", h.GetComplex)
	api.Patch("/complexes/:id", h.UpdateComplex)
	api.Post("/complexes/:id/siteplans", h.CreateSitePlan)

	api.Get("/siteplans/:id", h.GetSitePlan)
	api.Patch("/siteplans/:id", h.UpdateSitePlan)
	api.Post("/siteplans/:id/buildings", h.CreateBuilding)
	api.Post("/siteplans/:id/detect-buildings", h.DetectBuildings)

	api.Get("/buildings/:id", h.GetBuilding)
	api.Patch("/buildings/:id", h.UpdateBuilding)
	api.Post("/buildings/:id/floorplans", h.CreateFloorplan)

	api.Get("/floorplans", h.ListFloorplans)
	api.Get("/floorplans/:id", h.GetFloorplan)
	api.Patch("/floorplans/:id", h.UpdateFloorplan)
	api.Post("/floorplans/:id/duplicate", h.DuplicateFloorplan)

	api.Get("/floorplans/:id/canvas", h.GetCanvas)
	api.Post("/floorplans/:id/draw", h.Draw)
	api.Post("/floorplans/:id/elements/:kind", h.AddElement)
	api.Put("/floorplans/:id/elements/:kind/:elementId", h.ModifyElement)
	api.Patch("/floorplans/:id/elements/:kind/:elementId", h.EditElement)
	api.Delete("/floorplans/:id/elements/:kind/:elementId", h.DeleteElement)
	api.Post("/floorplans/:id/measure", h.Measure)
	api.Delete("/floorplans/:id/measure", h.ClearMeasure)
	api.Get("/floorplans/:id/grid", h.GetGrid)
	api.Put("/floorplans/:id/grid", h.SetGrid)

	api.Get("/floorplans/:id/history", h.HistoryStatus)
	api.Post("/floorplans/:id/undo", h.Undo)
	api.Post("/floorplans/:id/redo", h.Redo)

	api.Get("/floorplans/:id/versions", h.ListVersions)
	api.Post("/floorplans/:id/versions", h.CreateVersion)
	api.Post("/floorplans/:id/versions/:versionId/restore", h.RestoreVersion)

	api.Post("/floorplans/:id/analyze", h.Analyze)
	api.Post("/floorplans/:id/ocr", h.ExtractText)
	api.Post("/floorplans/:id/import-svg", h.ImportSVG)
	api.Get("/floorplans/:id/export/:format", h.Export)
}

// ============================================================
// Helpers
// ============================================================

// bind разбирает JSON-тело запроса.
func bind(c fiber.Ctx, dst any) error {
	if len(c.Body()) == 0 {
		return fiber.NewError(http.StatusBadRequest, "empty body")
	}
	if err := json.Unmarshal(c.Body(), dst); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid json")
	}
	return nil
}

// fail переводит доменную ошибку в HTTP-ответ.
func (h *EditorHandler) fail(c fiber.Ctx, err error) error {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func statusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, repository.ErrNotFound),
		errors.Is(err, canvas.ErrUnknownFloorplan),
		errors.Is(err, canvas.ErrUnknownObject),
		errors.Is(err, versions.ErrVersionNotFound):
		return http.StatusNotFound
	case errors.Is(err, canvas.ErrEmptyLabel),
		errors.Is(err, canvas.ErrMissingFurniture),
		errors.Is(err, canvas.ErrUnknownTool),
		errors.Is(err, analysis.ErrEmptyImage),
		errors.Is(err, svgimport.ErrInvalidSVG),
		errors.Is(err, svgimport.ErrNoElements),
		errors.Is(err, export.ErrInvalidSize),
		errors.Is(err, models.ErrDuplicateID):
		return http.StatusBadRequest
	case errors.Is(err, analysis.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, analysis.ErrUpstream):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func notFound(what, id string) error {
	return fiber.NewError(http.StatusNotFound, what+" "+id+" not found")
}

// session открывает поверхность документа из пути.
func (h *EditorHandler) session(c fiber.Ctx) (*canvas.Session, error) {
	return h.canvas.Open(c.Context(), c.Params("id"))
}
