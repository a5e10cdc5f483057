package svgimport

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type bbox struct {
	minX, minY, maxX, maxY float64
}

func (b bbox) width() float64  { return b.maxX - b.minX }
func (b bbox) height() float64 { return b.maxY - b.minY }
func (b bbox) center() Point {
	return Point{X: (b.minX + b.maxX) / 2, Y: (b.minY + b.maxY) / 2}
}

func boundsOf(points []Point) bbox {
	b := bbox{minX: math.MaxFloat64, minY: math.MaxFloat64, maxX: -math.MaxFloat64, maxY: -math.MaxFloat64}
	for _, p := range points {
		b.minX = math.Min(b.minX, p.X)
		b.maxX = math.Max(b.maxX, p.X)
		b.minY = math.Min(b.minY, p.Y)
		b.maxY = math.Max(b.maxY, p.Y)
	}
	return b
}

// ============================================================
// Path data
// ============================================================

var pathCommand = regexp.MustCompile(`([MmLlHhVvZz])([^MmLlHhVvZz]*)`)

// parsePath разбирает команды M, L, H, V, Z (абсолютные и относительные).
// Кривые не поддерживаются, замыкание повторяет первую точку.
func parsePath(d string) ([]Point, error) {
	d = strings.TrimSpace(d)
	if d == "" {
		return nil, fmt.Errorf("empty path")
	}

	var points []Point
	var cur, start Point

	for _, match := range pathCommand.FindAllStringSubmatch(d, -1) {
		cmd := match[1]
		args := parseCoords(match[2])
		rel := cmd == strings.ToLower(cmd)

		switch strings.ToUpper(cmd) {
		case "M", "L":
			for i := 0; i+1 < len(args); i += 2 {
				if rel {
					cur = Point{X: cur.X + args[i], Y: cur.Y + args[i+1]}
				} else {
					cur = Point{X: args[i], Y: args[i+1]}
				}
				if strings.ToUpper(cmd) == "M" && i == 0 {
					start = cur
				}
				points = append(points, cur)
			}
		case "H":
			for _, v := range args {
				if rel {
					cur.X += v
				} else {
					cur.X = v
				}
				points = append(points, cur)
			}
		case "V":
			for _, v := range args {
				if rel {
					cur.Y += v
				} else {
					cur.Y = v
				}
				points = append(points, cur)
			}
		case "Z":
			if len(points) > 0 {
				points = append(points, start)
				cur = start
			}
		}
	}

	if len(points) == 0 {
		return nil, fmt.Errorf("path %q has no points", d)
	}
	return points, nil
}

func parseCoords(s string) []float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", " "))
	if s == "" {
		return nil
	}
	var coords []float64
	for _, part := range strings.Fields(s) {
		if v, err := strconv.ParseFloat(part, 64); err == nil {
			coords = append(coords, v)
		}
	}
	return coords
}
