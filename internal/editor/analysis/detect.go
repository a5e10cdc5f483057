package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"floorplan-studio/internal/editor/models"
)

// ============================================================
// Building outline detection
// ============================================================

const detectSystem = "You are an expert at analyzing architectural site plans and identifying building footprints."

const detectPrompt = `Analyze this site plan image and identify all building outlines. For each building, provide:
1. A suggested name (e.g., "Building A", "Building 4141")
2. The approximate bounding box coordinates (x, y, width, height) relative to the image
3. A description of the building shape

Return the results as a JSON object with this structure:
{
  "buildings": [
    {
      "name": "Building A",
      "boundingBox": { "x": 100, "y": 200, "width": 300, "height": 200 },
      "description": "Rectangular building with dimensions approximately 300x200"
    }
  ]
}`

type DetectedBuilding struct {
	Name        string              `json:"name"`
	BoundingBox *models.BoundingBox `json:"boundingBox"`
	Description string              `json:"description"`
}

func (c *Client) DetectBuildings(ctx context.Context, image string) ([]DetectedBuilding, error) {
	content, err := c.complete(ctx, detectSystem, detectPrompt, image, 2000, true)
	if err != nil {
		return nil, err
	}
	if content == "" {
		content = "{}"
	}
	var parsed struct {
		Buildings []DetectedBuilding `json:"buildings"`
	}
	if err := json.Unmarshal([]byte(stripFences(content)), &parsed); err != nil {
		return nil, fmt.Errorf("%w: decode buildings: %v", ErrUpstream, err)
	}
	return parsed.Buildings, nil
}

// PathFromBoundingBox строит прямоугольный SVG-путь.
func PathFromBoundingBox(b models.BoundingBox) string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return fmt.Sprintf("M%s,%s L%s,%s L%s,%s L%s,%s Z",
		f(b.X), f(b.Y),
		f(b.X+b.Width), f(b.Y),
		f(b.X+b.Width), f(b.Y+b.Height),
		f(b.X), f(b.Y+b.Height),
	)
}

// BuildingsFromDetection превращает найденные контуры в здания генплана.
// Без рамки используется 0,0 200x150, без имени "Building N".
func BuildingsFromDetection(detected []DetectedBuilding, sitePlanID string) []models.Building {
	out := make([]models.Building, 0, len(detected))
	for i, d := range detected {
		name := d.Name
		if name == "" {
			name = fmt.Sprintf("Building %d", i+1)
		}
		box := models.BoundingBox{Width: 200, Height: 150}
		if d.BoundingBox != nil {
			box = *d.BoundingBox
			if box.Width == 0 {
				box.Width = 200
			}
			if box.Height == 0 {
				box.Height = 150
			}
		}
		out = append(out, models.Building{
			Name: name,
			Outline: models.BuildingOutline{
				Name:   name,
				Path:   PathFromBoundingBox(box),
				X:      box.X,
				Y:      box.Y,
				Width:  box.Width,
				Height: box.Height,
			},
			Floorplans: []models.Floorplan{},
			SitePlanID: sitePlanID,
		})
	}
	return out
}
