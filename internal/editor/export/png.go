package export

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"

	"floorplan-studio/internal/editor/models"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// ============================================================
// PNG
// ============================================================

var (
	fontOnce sync.Once
	fontTTF  *truetype.Font
	fontErr  error
)

func regularFont() (*truetype.Font, error) {
	fontOnce.Do(func() {
		fontTTF, fontErr = truetype.Parse(goregular.TTF)
	})
	return fontTTF, fontErr
}

func fontFace(size float64) (font.Face, error) {
	f, err := regularFont()
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	}), nil
}

// PNG растеризует документ. scale умножает размер холста (1 = 1 px на единицу).
func PNG(fp models.Floorplan, width, height int, scale float64) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidSize
	}
	if scale <= 0 {
		scale = 1
	}
	r := &rasterizer{
		dc:    gg.NewContext(int(math.Round(float64(width)*scale)), int(math.Round(float64(height)*scale))),
		scale: scale,
		faces: make(map[float64]font.Face),
	}
	if err := r.draw(fp); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := r.dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

type rasterizer struct {
	dc    *gg.Context
	scale float64
	faces map[float64]font.Face
}

func (r *rasterizer) s(v float64) float64 { return v * r.scale }

func (r *rasterizer) setFont(size float64) error {
	size = r.s(size)
	face, ok := r.faces[size]
	if !ok {
		var err error
		if face, err = fontFace(size); err != nil {
			return err
		}
		r.faces[size] = face
	}
	r.dc.SetFontFace(face)
	return nil
}

func (r *rasterizer) draw(fp models.Floorplan) error {
	dc := r.dc
	dc.SetHexColor(colorBackground)
	dc.Clear()

	if fp.BaseImage != "" {
		// битая подложка не мешает выгрузке
		if img, err := decodeDataURL(fp.BaseImage); err == nil {
			r.drawBackground(img)
		}
	}

	for _, room := range fp.Rooms {
		dc.DrawRectangle(r.s(room.X), r.s(room.Y), r.s(room.Width), r.s(room.Height))
		dc.SetHexColor(colorRoomFill)
		dc.FillPreserve()
		dc.SetHexColor(colorRoomStroke)
		dc.SetLineWidth(r.s(1))
		dc.Stroke()

		if room.Name != "" {
			if err := r.setFont(roomCaptionSize); err != nil {
				return err
			}
			dc.SetHexColor(colorText)
			dc.DrawStringAnchored(room.Name, r.s(room.X+10), r.s(room.Y+10), 0, 1)
		}
	}

	dc.SetLineCap(gg.LineCapSquare)
	dc.SetHexColor(colorWall)
	for _, w := range fp.Walls {
		dc.SetLineWidth(r.s(wallThickness(w)))
		dc.DrawLine(r.s(w.X1), r.s(w.Y1), r.s(w.X2), r.s(w.Y2))
		dc.Stroke()
	}
	dc.SetLineCap(gg.LineCapButt)

	for _, d := range fp.Doors {
		dc.Push()
		dc.Translate(r.s(d.X), r.s(d.Y))
		dc.Rotate(gg.Radians(d.Rotation))
		if d.Swing == models.SwingRight {
			dc.Scale(1, -1)
		}
		dc.SetHexColor(colorDoor)
		dc.SetLineWidth(r.s(2))
		dc.DrawLine(0, 0, r.s(d.Width), 0)
		dc.Stroke()
		dc.SetLineWidth(r.s(1))
		dc.DrawArc(0, 0, r.s(d.Width), 0, math.Pi/2)
		dc.Stroke()
		dc.Pop()
	}

	for _, win := range fp.Windows {
		dc.Push()
		dc.Translate(r.s(win.X), r.s(win.Y))
		dc.Rotate(gg.Radians(win.Rotation))
		dc.DrawRectangle(0, r.s(-windowDepth/2), r.s(win.Width), r.s(windowDepth))
		dc.SetRGBA(2/255.0, 132/255.0, 199/255.0, 0.3)
		dc.FillPreserve()
		dc.SetHexColor(colorWindow)
		dc.SetLineWidth(r.s(1))
		dc.Stroke()
		dc.Pop()
	}

	for _, f := range fp.Furniture {
		dc.Push()
		dc.Translate(r.s(f.X), r.s(f.Y))
		dc.Rotate(gg.Radians(f.Rotation))
		dc.DrawRectangle(0, 0, r.s(f.Width), r.s(f.Height))
		dc.SetHexColor(colorFurniture)
		dc.SetLineWidth(r.s(1))
		dc.Stroke()
		dc.Pop()
	}

	for _, l := range fp.Labels {
		if err := r.setFont(labelSize(l)); err != nil {
			return err
		}
		dc.SetHexColor(colorText)
		dc.DrawString(l.Text, r.s(l.X), r.s(l.Y))
	}
	return nil
}

// drawBackground растягивает подложку на весь холст с прозрачностью 0.3.
func (r *rasterizer) drawBackground(img image.Image) {
	bounds := image.Rect(0, 0, r.dc.Width(), r.dc.Height())
	layer := image.NewRGBA(bounds)
	draw.ApproxBiLinear.Scale(layer, bounds, img, img.Bounds(), draw.Over, &draw.Options{
		SrcMask: image.NewUniform(color.Alpha{A: 77}),
	})
	r.dc.DrawImage(layer, 0, 0)
}
