package handlers

import (
	"encoding/json"
	"net/http"

	"floorplan-studio/internal/editor/canvas"
	"floorplan-studio/internal/editor/models"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Canvas
// ============================================================

type canvasResponse struct {
	FloorplanID string              `json:"floorplanId"`
	Grid        canvas.GridSettings `json:"grid"`
	Objects     []canvas.Object     `json:"objects"`
}

type elementResponse struct {
	Kind    models.Kind    `json:"kind"`
	Element models.Element `json:"element"`
}

func (h *EditorHandler) GetCanvas(c fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(canvasResponse{
		FloorplanID: c.Params("id"),
		Grid:        sess.Syncer.Grid(),
		Objects:     sess.Syncer.Objects(),
	})
}

// Draw превращает жест инструмента в примитив.
func (h *EditorHandler) Draw(c fiber.Ctx) error {
	var stroke canvas.Stroke
	if err := bind(c, &stroke); err != nil {
		return h.fail(c, err)
	}
	sess, err := h.session(c)
	if err != nil {
		return h.fail(c, err)
	}
	res, err := sess.Syncer.Draw(c.Context(), stroke)
	if err != nil {
		return h.fail(c, err)
	}
	if res.Measurement != nil {
		return c.JSON(res)
	}
	return c.Status(http.StatusCreated).JSON(res)
}

// decodeElement читает примитив вида :kind из тела; id берется из пути, если задан.
func decodeElement(c fiber.Ctx) (models.Element, error) {
	kind, err := models.ParseKind(c.Params("kind"))
	if err != nil {
		return nil, fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if len(c.Body()) == 0 {
		return nil, fiber.NewError(http.StatusBadRequest, "empty body")
	}
	el, err := models.DecodeElement(kind, json.RawMessage(c.Body()))
	if err != nil {
		return nil, fiber.NewError(http.StatusBadRequest, "invalid element")
	}
	if id := c.Params("elementId"); id != "" {
		el = models.WithID(el, id)
	}
	return el, nil
}

func (h *EditorHandler) AddElement(c fiber.Ctx) error {
	el, err := decodeElement(c)
	if err != nil {
		return h.fail(c, err)
	}
	sess, err := h.session(c)
	if err != nil {
		return h.fail(c, err)
	}
	added, err := sess.Syncer.AddElement(c.Context(), el)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(http.StatusCreated).JSON(elementResponse{Kind: added.ElementKind(), Element: added})
}

// ModifyElement: правка геометрии через поверхность, как перетаскивание.
func (h *EditorHandler) ModifyElement(c fiber.Ctx) error {
	el, err := decodeElement(c)
	if err != nil {
		return h.fail(c, err)
	}
	sess, err := h.session(c)
	if err != nil {
		return h.fail(c, err)
	}
	if err := sess.Scene.Modify(c.Context(), el); err != nil {
		return h.fail(c, err)
	}
	obj, ok := sess.Scene.Get(canvas.ElementKey(el.ElementKind(), el.ElementID()))
	if !ok {
		return h.fail(c, canvas.ErrUnknownObject)
	}
	return c.JSON(elementResponse{Kind: el.ElementKind(), Element: obj.Element})
}

// EditElement заменяет свойства примитива целиком.
func (h *EditorHandler) EditElement(c fiber.Ctx) error {
	el, err := decodeElement(c)
	if err != nil {
		return h.fail(c, err)
	}
	sess, err := h.session(c)
	if err != nil {
		return h.fail(c, err)
	}
	edited, err := sess.Syncer.EditElement(c.Context(), el)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(elementResponse{Kind: edited.ElementKind(), Element: edited})
}

func (h *EditorHandler) DeleteElement(c fiber.Ctx) error {
	kind, err := models.ParseKind(c.Params("kind"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	sess, err := h.session(c)
	if err != nil {
		return h.fail(c, err)
	}
	if err := sess.Scene.Delete(c.Context(), canvas.ElementKey(kind, c.Params("elementId"))); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

type measureRequest struct {
	Start canvas.Point `json:"start"`
	End   canvas.Point `json:"end"`
}

// Measure кладет временную меру на поверхность; документ не меняется.
func (h *EditorHandler) Measure(c fiber.Ctx) error {
	var req measureRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	sess, err := h.session(c)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(sess.Syncer.Measure(req.Start, req.End))
}

func (h *EditorHandler) ClearMeasure(c fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return h.fail(c, err)
	}
	sess.Syncer.ClearMeasurement()
	return c.SendStatus(http.StatusNoContent)
}

func (h *EditorHandler) GetGrid(c fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(sess.Syncer.Grid())
}

func (h *EditorHandler) SetGrid(c fiber.Ctx) error {
	var grid canvas.GridSettings
	if err := bind(c, &grid); err != nil {
		return h.fail(c, err)
	}
	sess, err := h.session(c)
	if err != nil {
		return h.fail(c, err)
	}
	sess.Syncer.SetGrid(grid)
	return c.JSON(sess.Syncer.Grid())
}

// ============================================================
// Undo / redo
// ============================================================

type historyResponse struct {
	Applied   bool              `json:"applied"`
	Floorplan *models.Floorplan `json:"floorplan,omitempty"`
	History   any               `json:"history"`
}

func (h *EditorHandler) HistoryStatus(c fiber.Ctx) error {
	id := c.Params("id")
	if _, ok := h.store.GetFloorplan(id); !ok {
		return h.fail(c, notFound("floorplan", id))
	}
	return c.JSON(h.history.Status(id))
}

func (h *EditorHandler) Undo(c fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return h.fail(c, err)
	}
	fp, ok, err := sess.Syncer.Undo(c.Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(h.historyResult(c.Params("id"), fp, ok))
}

func (h *EditorHandler) Redo(c fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return h.fail(c, err)
	}
	fp, ok, err := sess.Syncer.Redo(c.Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(h.historyResult(c.Params("id"), fp, ok))
}

func (h *EditorHandler) historyResult(id string, fp models.Floorplan, applied bool) historyResponse {
	res := historyResponse{Applied: applied, History: h.history.Status(id)}
	if applied {
		res.Floorplan = &fp
	}
	return res
}
