package analysis

import (
	"context"
	"encoding/json"
	"strings"

	"floorplan-studio/internal/editor/models"
)

// ============================================================
// Image cleanup
// ============================================================

// DocType подсказка о типе изображения.
type DocType string

const (
	DocFloorplan DocType = "floorplan"
	DocSitePlan  DocType = "site-plan"
)

// CanvasWidth и CanvasHeight задают систему координат ответа модели.
const (
	CanvasWidth  = 1200
	CanvasHeight = 800
)

const (
	defaultWallThickness = 3
	defaultDoorWidth     = 30
	defaultWindowWidth   = 60
	defaultLabelFontSize = 16
)

const cleanupSystem = "You are an expert architectural analyst. Analyze floorplan images and extract structural elements as JSON data. Always respond with valid JSON only, no markdown or additional text."

const elementsSchema = `{
  "rooms": [{ "name": "string", "x": number, "y": number, "width": number, "height": number }],
  "walls": [{ "x1": number, "y1": number, "x2": number, "y2": number, "thickness": number }],
  "doors": [{ "x": number, "y": number, "width": number, "rotation": number, "swing": "left"|"right" }],
  "windows": [{ "x": number, "y": number, "width": number, "rotation": number }],
  "labels": [{ "text": "string", "x": number, "y": number, "fontSize": number }]
}`

func cleanupPrompt(doc DocType) string {
	if doc == DocSitePlan {
		return `Analyze this site plan image and extract all architectural elements. Return a JSON object with the structure below. Use pixel coordinates based on a 1200x800 canvas. Straighten lines, snap angles to 90 degrees, and clean up the layout.

JSON Schema:
` + elementsSchema + `

Important:
- Estimate coordinates proportionally based on the image layout
- Room coordinates should represent the top-left corner
- Wall coordinates are start and end points
- Door swing should be "left" or "right" based on hinge position
- Include labels for any visible text in the image
- Return ONLY valid JSON, no additional text`
	}
	return `Analyze this floorplan image and extract all architectural elements. Return a JSON object with the structure below. Use pixel coordinates based on a 1200x800 canvas. Straighten walls, snap angles to 90 degrees, and standardize door/window symbols.

JSON Schema:
` + elementsSchema + `

Important:
- Estimate coordinates proportionally based on the image layout
- Room coordinates should represent the top-left corner
- Wall coordinates are start and end points (thickness default 3)
- Door width default is 30, window width default is 60
- Door swing should be "left" or "right" based on hinge position
- Include labels for room names and any visible measurements
- Return ONLY valid JSON, no additional text`
}

type ParsedRoom struct {
	Name   string  `json:"name"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type ParsedWall struct {
	X1        float64 `json:"x1"`
	Y1        float64 `json:"y1"`
	X2        float64 `json:"x2"`
	Y2        float64 `json:"y2"`
	Thickness float64 `json:"thickness,omitempty"`
}

type ParsedDoor struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Rotation float64 `json:"rotation"`
	Swing    string  `json:"swing"`
}

type ParsedWindow struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Rotation float64 `json:"rotation"`
}

type ParsedLabel struct {
	Text     string  `json:"text"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	FontSize float64 `json:"fontSize,omitempty"`
}

// ParsedElements структурированный ответ модели в координатах 1200x800.
type ParsedElements struct {
	Rooms   []ParsedRoom   `json:"rooms"`
	Walls   []ParsedWall   `json:"walls"`
	Doors   []ParsedDoor   `json:"doors"`
	Windows []ParsedWindow `json:"windows"`
	Labels  []ParsedLabel  `json:"labels"`
}

// ToBatch переводит ответ в примитивы документа с умолчаниями.
// Идентификаторы назначает получатель пакета.
func (p ParsedElements) ToBatch() models.Batch {
	var b models.Batch
	for _, r := range p.Rooms {
		b.Rooms = append(b.Rooms, models.Room{Name: r.Name, X: r.X, Y: r.Y, Width: r.Width, Height: r.Height})
	}
	for _, w := range p.Walls {
		t := w.Thickness
		if t <= 0 {
			t = defaultWallThickness
		}
		b.Walls = append(b.Walls, models.Wall{X1: w.X1, Y1: w.Y1, X2: w.X2, Y2: w.Y2, Thickness: t})
	}
	for _, d := range p.Doors {
		width := d.Width
		if width <= 0 {
			width = defaultDoorWidth
		}
		swing := models.DoorSwing(strings.ToLower(d.Swing))
		if swing != models.SwingRight {
			swing = models.SwingLeft
		}
		b.Doors = append(b.Doors, models.Door{X: d.X, Y: d.Y, Width: width, Rotation: d.Rotation, Swing: swing})
	}
	for _, w := range p.Windows {
		width := w.Width
		if width <= 0 {
			width = defaultWindowWidth
		}
		b.Windows = append(b.Windows, models.Window{X: w.X, Y: w.Y, Width: width, Rotation: w.Rotation})
	}
	for _, l := range p.Labels {
		size := l.FontSize
		if size <= 0 {
			size = defaultLabelFontSize
		}
		b.Labels = append(b.Labels, models.Label{Text: l.Text, X: l.X, Y: l.Y, FontSize: size})
	}
	return b
}

// CleanupResult: Elements == nil значит, что ответ не разобран и есть только описание.
type CleanupResult struct {
	Description string          `json:"description"`
	Elements    *ParsedElements `json:"parsedElements"`
}

// Cleanup просит модель извлечь элементы чертежа с изображения.
func (c *Client) Cleanup(ctx context.Context, image string, doc DocType) (CleanupResult, error) {
	content, err := c.complete(ctx, cleanupSystem, cleanupPrompt(doc), image, 4000, false)
	if err != nil {
		return CleanupResult{}, err
	}
	res := ParseCleanup(content)
	if res.Elements == nil {
		c.log.Warn("cleanup response is not structured, returning description", "doc_type", doc)
	}
	return res, nil
}

// ParseCleanup снимает markdown-ограждение и разбирает JSON.
// При ошибке разбора возвращается сырой текст как описание.
func ParseCleanup(content string) CleanupResult {
	var parsed ParsedElements
	if err := json.Unmarshal([]byte(stripFences(content)), &parsed); err != nil {
		return CleanupResult{Description: content}
	}
	return CleanupResult{
		Description: "Successfully parsed floorplan elements from image.",
		Elements:    &parsed,
	}
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "```json"):
		s = s[len("```json"):]
	case strings.HasPrefix(s, "```"):
		s = s[len("```"):]
	}
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
