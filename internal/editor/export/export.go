package export

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strconv"
	"strings"

	"floorplan-studio/internal/editor/models"
)

// ============================================================
// Shared
// ============================================================

var ErrInvalidSize = errors.New("export: width and height must be positive")

// Format формат выгрузки.
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
	FormatPDF Format = "pdf"
)

// ContentType возвращает MIME-тип формата.
func (f Format) ContentType() string {
	switch f {
	case FormatSVG:
		return "image/svg+xml"
	case FormatPNG:
		return "image/png"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatSVG, FormatPNG, FormatPDF:
		return f, nil
	}
	return "", fmt.Errorf("export: unknown format %q", s)
}

const (
	colorBackground = "#ffffff"
	colorRoomFill   = "#eef2ff"
	colorRoomStroke = "#94a3b8"
	colorWall       = "#1f2937"
	colorDoor       = "#b45309"
	colorWindow     = "#0284c7"
	colorFurniture  = "#64748b"
	colorText       = "#111827"

	windowDepth      = 6
	roomCaptionSize  = 14
	defaultLabelSize = 16
)

// Title строка заголовка из метаданных документа.
func Title(fp models.Floorplan) string {
	var parts []string
	if fp.Metadata.FloorNumber != nil {
		parts = append(parts, "Floor "+strconv.Itoa(*fp.Metadata.FloorNumber))
	}
	if len(fp.Metadata.UnitNumbers) > 0 {
		parts = append(parts, "Units "+strings.Join(fp.Metadata.UnitNumbers, ", "))
	}
	if fp.Metadata.FloorplanType != "" {
		parts = append(parts, fp.Metadata.FloorplanType)
	}
	if len(parts) == 0 {
		return "Floorplan"
	}
	return strings.Join(parts, " - ")
}

// details дополнительные строки метаданных для PDF.
func details(fp models.Floorplan) []string {
	m := fp.Metadata
	var out []string
	if m.Address != "" {
		out = append(out, m.Address)
	}
	var specs []string
	if m.Bedrooms != nil {
		specs = append(specs, strconv.Itoa(*m.Bedrooms)+" bed")
	}
	if m.Bathrooms != nil {
		specs = append(specs, formatFloat(*m.Bathrooms)+" bath")
	}
	if m.SquareFootage != nil {
		specs = append(specs, formatFloat(*m.SquareFootage)+" sq ft")
	}
	if len(specs) > 0 {
		out = append(out, strings.Join(specs, ", "))
	}
	if m.CustomNotes != "" {
		out = append(out, m.CustomNotes)
	}
	return out
}

// decodeDataURL разбирает data:image/...;base64 (или голый base64) в изображение.
func decodeDataURL(s string) (image.Image, error) {
	if i := strings.Index(s, ","); strings.HasPrefix(s, "data:") && i >= 0 {
		s = s[i+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func labelSize(l models.Label) float64 {
	if l.FontSize > 0 {
		return l.FontSize
	}
	return defaultLabelSize
}
