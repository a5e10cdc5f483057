package export

import (
	"encoding/xml"
	"fmt"
	"strings"

	"floorplan-studio/internal/editor/models"
)

// ============================================================
// SVG
// ============================================================

// SVG собирает векторный чертеж документа.
func SVG(fp models.Floorplan, width, height int) (string, error) {
	if width <= 0 || height <= 0 {
		return "", ErrInvalidSize
	}
	w, h := formatFloat(float64(width)), formatFloat(float64(height))

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" width="%s" height="%s" viewBox="0 0 %s %s">`+"\n", w, h, w, h)
	fmt.Fprintf(&b, `  <title>%s</title>`+"\n", esc(Title(fp)))
	fmt.Fprintf(&b, `  <rect width="%s" height="%s" fill="%s"/>`+"\n", w, h, colorBackground)
	if fp.BaseImage != "" {
		href := fp.BaseImage
		if !strings.HasPrefix(href, "data:") {
			href = "data:image/png;base64," + href
		}
		fmt.Fprintf(&b, `  <image x="0" y="0" width="%s" height="%s" opacity="0.3" xlink:href="%s"/>`+"\n", w, h, esc(href))
	}

	b.WriteString(`  <g id="rooms">` + "\n")
	for _, r := range fp.Rooms {
		fmt.Fprintf(&b, `    <rect id="%s" x="%s" y="%s" width="%s" height="%s" fill="%s" stroke="%s"/>`+"\n",
			esc(r.ID), formatFloat(r.X), formatFloat(r.Y), formatFloat(r.Width), formatFloat(r.Height), colorRoomFill, colorRoomStroke)
		fmt.Fprintf(&b, `    <text x="%s" y="%s" font-size="%d" dominant-baseline="hanging" fill="%s">%s</text>`+"\n",
			formatFloat(r.X+10), formatFloat(r.Y+10), roomCaptionSize, colorText, esc(r.Name))
	}
	b.WriteString("  </g>\n")

	b.WriteString(`  <g id="walls">` + "\n")
	for _, wl := range fp.Walls {
		fmt.Fprintf(&b, `    <line id="%s" x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="%s" stroke-linecap="square"/>`+"\n",
			esc(wl.ID), formatFloat(wl.X1), formatFloat(wl.Y1), formatFloat(wl.X2), formatFloat(wl.Y2), colorWall, formatFloat(wallThickness(wl)))
	}
	b.WriteString("  </g>\n")

	b.WriteString(`  <g id="doors">` + "\n")
	for _, d := range fp.Doors {
		dw := formatFloat(d.Width)
		fmt.Fprintf(&b, `    <g id="%s" transform="%s">`+"\n", esc(d.ID), doorTransform(d))
		fmt.Fprintf(&b, `      <line x1="0" y1="0" x2="%s" y2="0" stroke="%s" stroke-width="2"/>`+"\n", dw, colorDoor)
		fmt.Fprintf(&b, `      <path d="M %s 0 A %s %s 0 0 1 0 %s" fill="none" stroke="%s" stroke-dasharray="4 2"/>`+"\n", dw, dw, dw, dw, colorDoor)
		b.WriteString("    </g>\n")
	}
	b.WriteString("  </g>\n")

	b.WriteString(`  <g id="windows">` + "\n")
	for _, win := range fp.Windows {
		fmt.Fprintf(&b, `    <rect id="%s" x="0" y="%s" width="%s" height="%d" fill="%s" fill-opacity="0.3" stroke="%s" transform="translate(%s %s) rotate(%s)"/>`+"\n",
			esc(win.ID), formatFloat(-windowDepth/2), formatFloat(win.Width), windowDepth, colorWindow, colorWindow,
			formatFloat(win.X), formatFloat(win.Y), formatFloat(win.Rotation))
	}
	b.WriteString("  </g>\n")

	b.WriteString(`  <g id="furniture">` + "\n")
	for _, f := range fp.Furniture {
		fmt.Fprintf(&b, `    <rect id="%s" x="0" y="0" width="%s" height="%s" fill="none" stroke="%s" transform="translate(%s %s) rotate(%s)"/>`+"\n",
			esc(f.ID), formatFloat(f.Width), formatFloat(f.Height), colorFurniture, formatFloat(f.X), formatFloat(f.Y), formatFloat(f.Rotation))
	}
	b.WriteString("  </g>\n")

	b.WriteString(`  <g id="labels">` + "\n")
	for _, l := range fp.Labels {
		fmt.Fprintf(&b, `    <text id="%s" x="%s" y="%s" font-size="%s" fill="%s">%s</text>`+"\n",
			esc(l.ID), formatFloat(l.X), formatFloat(l.Y), formatFloat(labelSize(l)), colorText, esc(l.Text))
	}
	b.WriteString("  </g>\n")

	b.WriteString("</svg>\n")
	return b.String(), nil
}

// doorTransform: правая створка зеркалится по оси полотна.
func doorTransform(d models.Door) string {
	t := fmt.Sprintf("translate(%s %s) rotate(%s)", formatFloat(d.X), formatFloat(d.Y), formatFloat(d.Rotation))
	if d.Swing == models.SwingRight {
		t += " scale(1 -1)"
	}
	return t
}

func wallThickness(w models.Wall) float64 {
	if w.Thickness > 0 {
		return w.Thickness
	}
	return 3
}

func esc(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
