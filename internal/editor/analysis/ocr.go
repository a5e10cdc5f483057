package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"floorplan-studio/internal/editor/models"
)

const ocrSystem = "You are an OCR expert specializing in architectural drawings. Extract all text with precise bounding boxes."

const ocrPrompt = `Identify and transcribe all handwritten or printed text in this sketch or site plan, including labels, unit numbers, room names, dimensions, and notes. For each text element, provide:
1. The exact text content
2. The approximate bounding box coordinates (x, y, width, height) relative to the image
3. The type: "label" (for room names), "measurement" (for dimensions), or "note" (for other text)
4. Your confidence level (0-1)

Return the results as a JSON object with a "results" array of objects with this structure:
{
  "results": [
    {
      "text": "Kitchen",
      "boundingBox": { "x": 100, "y": 200, "width": 80, "height": 20 },
      "type": "label",
      "confidence": 0.95
    }
  ]
}`

// ExtractText распознает надписи на изображении.
func (c *Client) ExtractText(ctx context.Context, image string) ([]models.OCRResult, error) {
	content, err := c.complete(ctx, ocrSystem, ocrPrompt, image, 2000, true)
	if err != nil {
		return nil, err
	}
	results, err := ParseOCR(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return results, nil
}

// ParseOCR принимает {"results":[...]} или голый массив.
func ParseOCR(content string) ([]models.OCRResult, error) {
	content = stripFences(content)
	if content == "" {
		return []models.OCRResult{}, nil
	}

	var results []models.OCRResult
	if strings.HasPrefix(content, "[") {
		if err := json.Unmarshal([]byte(content), &results); err != nil {
			return nil, fmt.Errorf("decode ocr results: %w", err)
		}
	} else {
		var wrapped struct {
			Results []models.OCRResult `json:"results"`
		}
		if err := json.Unmarshal([]byte(content), &wrapped); err != nil {
			return nil, fmt.Errorf("decode ocr results: %w", err)
		}
		results = wrapped.Results
	}
	if results == nil {
		results = []models.OCRResult{}
	}
	for i := range results {
		switch results[i].Type {
		case "label", "measurement", "note":
		default:
			results[i].Type = "note"
		}
	}
	return results, nil
}
