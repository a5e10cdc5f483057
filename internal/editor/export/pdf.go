package export

import (
	"bytes"
	"fmt"
	"time"

	"floorplan-studio/internal/editor/models"

	"github.com/go-pdf/fpdf"
)

// ============================================================
// PDF
// ============================================================

const (
	pdfMargin     = 36.0
	pdfHeaderSize = 14.0
	pdfLineSize   = 10.0
	pdfLineGap    = 14.0
)

// PDF кладет растр чертежа на страницу в пунктах с заголовком из метаданных.
func PDF(fp models.Floorplan, width, height int) ([]byte, error) {
	raster, err := PNG(fp, width, height, 2)
	if err != nil {
		return nil, err
	}

	lines := details(fp)
	header := pdfMargin + pdfLineGap*float64(len(lines)+1)
	pageW := float64(width) + 2*pdfMargin
	pageH := float64(height) + header + pdfMargin

	orientation := "P"
	if pageW > pageH {
		orientation = "L"
	}
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: orientation,
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: pageW, Ht: pageH},
	})
	pdf.SetTitle(Title(fp), true)
	pdf.SetCreator("floorplan-studio", true)
	if !fp.UpdatedAt.IsZero() {
		pdf.SetCreationDate(fp.UpdatedAt)
	} else {
		pdf.SetCreationDate(time.Now())
	}
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", pdfHeaderSize)
	pdf.Text(pdfMargin, pdfMargin, Title(fp))
	pdf.SetFont("Helvetica", "", pdfLineSize)
	for i, line := range lines {
		pdf.Text(pdfMargin, pdfMargin+pdfLineGap*float64(i+1), line)
	}

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("floorplan", opts, bytes.NewReader(raster))
	pdf.ImageOptions("floorplan", pdfMargin, header, float64(width), float64(height), false, opts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}
