package handlers

import (
	"net/http"
	"strings"

	"floorplan-studio/internal/editor/models"
	"floorplan-studio/internal/editor/store"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Project hierarchy
// ============================================================

func (h *EditorHandler) GetState(c fiber.Ctx) error {
	return c.JSON(h.store.State())
}

// Search ищет по всей иерархии, пустой запрос дает пустой список.
func (h *EditorHandler) Search(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"results": h.store.Search(c.Query("q")),
	})
}

func (h *EditorHandler) GetSelection(c fiber.Ctx) error {
	return c.JSON(h.store.Selection())
}

func (h *EditorHandler) SetSelection(c fiber.Ctx) error {
	var sel store.Selection
	if err := bind(c, &sel); err != nil {
		return h.fail(c, err)
	}
	if err := h.store.SetSelection(c.Context(), sel); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(h.store.Selection())
}

// ============================================================
// Complex
// ============================================================

type createComplexRequest struct {
	Name string `json:"name"`
}

func (h *EditorHandler) ListComplexes(c fiber.Ctx) error {
	return c.JSON(h.store.Complexes())
}

func (h *EditorHandler) CreateComplex(c fiber.Ctx) error {
	var req createComplexRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	if strings.TrimSpace(req.Name) == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "name required"})
	}

	cx, err := h.store.CreateComplex(c.Context(), req.Name)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(http.StatusCreated).JSON(cx)
}

func (h *EditorHandler) GetComplex(c fiber.Ctx) error {
	cx, ok := h.store.GetComplex(c.Params("id"))
	if !ok {
		return h.fail(c, notFound("complex", c.Params("id")))
	}
	return c.JSON(cx)
}

func (h *EditorHandler) UpdateComplex(c fiber.Ctx) error {
	id := c.Params("id")
	if _, ok := h.store.GetComplex(id); !ok {
		return h.fail(c, notFound("complex", id))
	}
	var patch models.ComplexPatch
	if err := bind(c, &patch); err != nil {
		return h.fail(c, err)
	}
	if err := h.store.UpdateComplex(c.Context(), id, patch); err != nil {
		return h.fail(c, err)
	}
	cx, _ := h.store.GetComplex(id)
	return c.JSON(cx)
}

// ============================================================
// Site plan
// ============================================================

func (h *EditorHandler) CreateSitePlan(c fiber.Ctx) error {
	var in store.SitePlanInput
	if err := bind(c, &in); err != nil {
		return h.fail(c, err)
	}
	if in.ProjectType != "" && !in.ProjectType.Valid() {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid projectType"})
	}

	sp, err := h.store.CreateSitePlan(c.Context(), c.Params("id"), in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(http.StatusCreated).JSON(sp)
}

func (h *EditorHandler) GetSitePlan(c fiber.Ctx) error {
	sp, ok := h.store.GetSitePlan(c.Params("id"))
	if !ok {
		return h.fail(c, notFound("site plan", c.Params("id")))
	}
	return c.JSON(sp)
}

func (h *EditorHandler) UpdateSitePlan(c fiber.Ctx) error {
	id := c.Params("id")
	if _, ok := h.store.GetSitePlan(id); !ok {
		return h.fail(c, notFound("site plan", id))
	}
	var patch models.SitePlanPatch
	if err := bind(c, &patch); err != nil {
		return h.fail(c, err)
	}
	if patch.ProjectType != nil && !patch.ProjectType.Valid() {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid projectType"})
	}
	if err := h.store.UpdateSitePlan(c.Context(), id, patch); err != nil {
		return h.fail(c, err)
	}
	sp, _ := h.store.GetSitePlan(id)
	return c.JSON(sp)
}

// ============================================================
// Building
// ============================================================

func (h *EditorHandler) CreateBuilding(c fiber.Ctx) error {
	var in store.BuildingInput
	if err := bind(c, &in); err != nil {
		return h.fail(c, err)
	}
	b, err := h.store.CreateBuilding(c.Context(), c.Params("id"), in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(http.StatusCreated).JSON(b)
}

func (h *EditorHandler) GetBuilding(c fiber.Ctx) error {
	b, ok := h.store.GetBuilding(c.Params("id"))
	if !ok {
		return h.fail(c, notFound("building", c.Params("id")))
	}
	return c.JSON(b)
}

func (h *EditorHandler) UpdateBuilding(c fiber.Ctx) error {
	id := c.Params("id")
	if _, ok := h.store.GetBuilding(id); !ok {
		return h.fail(c, notFound("building", id))
	}
	var patch models.BuildingPatch
	if err := bind(c, &patch); err != nil {
		return h.fail(c, err)
	}
	if err := h.store.UpdateBuilding(c.Context(), id, patch); err != nil {
		return h.fail(c, err)
	}
	b, _ := h.store.GetBuilding(id)
	return c.JSON(b)
}

// ============================================================
// Floorplan
// ============================================================

func (h *EditorHandler) CreateFloorplan(c fiber.Ctx) error {
	var meta models.FloorplanMetadata
	if len(c.Body()) > 0 {
		if err := bind(c, &meta); err != nil {
			return h.fail(c, err)
		}
	}
	fp, err := h.store.CreateFloorplan(c.Context(), c.Params("id"), meta)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(http.StatusCreated).JSON(fp)
}

func (h *EditorHandler) ListFloorplans(c fiber.Ctx) error {
	return c.JSON(h.store.Floorplans())
}

func (h *EditorHandler) GetFloorplan(c fiber.Ctx) error {
	fp, ok := h.store.GetFloorplan(c.Params("id"))
	if !ok {
		return h.fail(c, notFound("floorplan", c.Params("id")))
	}
	return c.JSON(fp)
}

// UpdateFloorplan сливает поля документа и перестраивает открытую поверхность.
func (h *EditorHandler) UpdateFloorplan(c fiber.Ctx) error {
	id := c.Params("id")
	current, ok := h.store.GetFloorplan(id)
	if !ok {
		return h.fail(c, notFound("floorplan", id))
	}
	var patch models.FloorplanPatch
	if err := bind(c, &patch); err != nil {
		return h.fail(c, err)
	}
	// версии меняются только через /versions
	patch.VersionHistory = nil

	patch.AssignMissingIDs()
	merged := current.Snapshot()
	patch.Apply(&merged)
	if err := merged.CheckIDs(); err != nil {
		return h.fail(c, err)
	}

	if err := h.store.UpdateFloorplan(c.Context(), id, patch); err != nil {
		return h.fail(c, err)
	}
	if err := h.canvas.Refresh(id); err != nil {
		return h.fail(c, err)
	}
	fp, _ := h.store.GetFloorplan(id)
	return c.JSON(fp)
}

func (h *EditorHandler) DuplicateFloorplan(c fiber.Ctx) error {
	var meta models.FloorplanMetadata
	if len(c.Body()) > 0 {
		if err := bind(c, &meta); err != nil {
			return h.fail(c, err)
		}
	}
	fp, err := h.store.DuplicateFloorplan(c.Context(), c.Params("id"), meta)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(http.StatusCreated).JSON(fp)
}
