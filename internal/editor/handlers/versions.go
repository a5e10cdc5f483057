package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Versions
// ============================================================

type createVersionRequest struct {
	Note string `json:"note"`
}

func (h *EditorHandler) ListVersions(c fiber.Ctx) error {
	list, err := h.store.Versions(c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(list)
}

// CreateVersion снимает версию вручную, без учета интервала автосохранения.
func (h *EditorHandler) CreateVersion(c fiber.Ctx) error {
	var req createVersionRequest
	if len(c.Body()) > 0 {
		if err := bind(c, &req); err != nil {
			return h.fail(c, err)
		}
	}
	v, _, err := h.store.SaveVersion(c.Context(), c.Params("id"), req.Note, true)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(http.StatusCreated).JSON(v)
}

// RestoreVersion возвращает содержимое версии; шаг можно отменить через undo.
func (h *EditorHandler) RestoreVersion(c fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return h.fail(c, err)
	}
	fp, err := sess.Syncer.RestoreVersion(c.Context(), c.Params("versionId"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fp)
}
