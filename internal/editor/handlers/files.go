package handlers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"floorplan-studio/internal/editor/export"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// SVG import & export
// ============================================================

// ImportSVG разбирает размеченный SVG из multipart/form-data и дописывает примитивы.
func (h *EditorHandler) ImportSVG(c fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "file required in multipart/form-data"})
	}
	if ext := strings.ToLower(filepath.Ext(fileHeader.Filename)); ext != ".svg" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "only svg allowed"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to open file"})
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to read file"})
	}

	sess, err := h.session(c)
	if err != nil {
		return h.fail(c, err)
	}
	batch, err := h.importer.Import(bytes.NewReader(data))
	if err != nil {
		return h.fail(c, err)
	}
	applied, err := sess.Syncer.ApplyBatch(c.Context(), batch)
	if err != nil {
		return h.fail(c, err)
	}

	h.log.Info("svg applied", "floorplan_id", c.Params("id"), "file", fileHeader.Filename, "elements", applied.Len())
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"applied": applied,
	})
}

// Export отдает документ как svg, png или pdf.
func (h *EditorHandler) Export(c fiber.Ctx) error {
	format, err := export.ParseFormat(c.Params("format"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	id := c.Params("id")
	fp, ok := h.store.GetFloorplan(id)
	if !ok {
		return h.fail(c, notFound("floorplan", id))
	}

	width, err := queryInt(c, "width", h.canvasWidth)
	if err != nil {
		return h.fail(c, err)
	}
	height, err := queryInt(c, "height", h.canvasHeight)
	if err != nil {
		return h.fail(c, err)
	}

	var body []byte
	switch format {
	case export.FormatSVG:
		var svg string
		svg, err = export.SVG(fp, width, height)
		body = []byte(svg)
	case export.FormatPNG:
		scale := 1.0
		if raw := c.Query("scale"); raw != "" {
			if scale, err = strconv.ParseFloat(raw, 64); err != nil || scale <= 0 || scale > 4 {
				return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "scale must be in (0, 4]"})
			}
		}
		body, err = export.PNG(fp, width, height, scale)
	case export.FormatPDF:
		body, err = export.PDF(fp, width, height)
	}
	if err != nil {
		return h.fail(c, err)
	}

	c.Set("Content-Type", format.ContentType())
	c.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, id, format))
	return c.Send(body)
}

func queryInt(c fiber.Ctx, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 || v > 8000 {
		return 0, fiber.NewError(http.StatusBadRequest, key+" must be a positive integer")
	}
	return v, nil
}
