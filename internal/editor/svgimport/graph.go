package svgimport

import (
	"math"
	"sort"
	"strconv"
)

// ============================================================
// Wall graph
// ============================================================

const (
	vertexTolerance   = 2.0  // точки ближе считаются одной вершиной
	connectTolerance  = 15.0 // допуск поиска пересечения стен
	mergeTolerance    = 8.0  // радиус склейки вершин после разрезания
	axisSnapTolerance = 4.0  // отклонение от оси, которое выпрямляется
)

type segment struct {
	id        string
	p1, p2    Point
	thickness float64
}

type edge struct {
	id        string
	a, b      int
	thickness float64
}

// wallGraph строит связный граф осевых линий стен.
type wallGraph struct {
	vertices []Point
	edges    []edge
}

// centerline превращает контур стены в отрезок по длинной стороне.
// Толщина берется по короткой стороне.
func centerline(s shape) segment {
	b := s.bounds()
	w, h := b.width(), b.height()
	seg := segment{id: s.id, thickness: math.Min(w, h)}
	switch {
	case w == 0 && h == 0:
		seg.p1, seg.p2 = s.points[0], s.points[len(s.points)-1]
	case w >= h:
		midY := b.minY + h/2
		seg.p1, seg.p2 = Point{X: b.minX, Y: midY}, Point{X: b.maxX, Y: midY}
	default:
		midX := b.minX + w/2
		seg.p1, seg.p2 = Point{X: midX, Y: b.minY}, Point{X: midX, Y: b.maxY}
	}
	return seg
}

func buildWallGraph(segments []segment) *wallGraph {
	g := &wallGraph{}
	for _, seg := range splitSegments(segments) {
		a := g.vertexFor(seg.p1)
		b := g.vertexFor(seg.p2)
		if a == b {
			continue
		}
		g.edges = append(g.edges, edge{id: seg.id, a: a, b: b, thickness: seg.thickness})
	}
	g.mergeCloseVertices()
	g.snapAxisAligned()
	return g
}

func (g *wallGraph) vertexFor(p Point) int {
	for i, v := range g.vertices {
		if distance(p, v) < vertexTolerance {
			return i
		}
	}
	g.vertices = append(g.vertices, p)
	return len(g.vertices) - 1
}

func (g *wallGraph) segment(e edge) (Point, Point) {
	return g.vertices[e.a], g.vertices[e.b]
}

// ============================================================
// Splitting at junctions
// ============================================================

type axisSegment struct {
	seg        segment
	horizontal bool
	start, end float64
	constant   float64
	splits     []float64
}

// splitSegments режет стены в точках Т-образных и угловых примыканий.
func splitSegments(segments []segment) []segment {
	infos := make([]*axisSegment, 0, len(segments))
	for _, seg := range segments {
		info := &axisSegment{seg: seg}
		info.horizontal = math.Abs(seg.p1.Y-seg.p2.Y) <= math.Abs(seg.p1.X-seg.p2.X)
		if info.horizontal {
			info.start, info.end, info.constant = seg.p1.X, seg.p2.X, seg.p1.Y
		} else {
			info.start, info.end, info.constant = seg.p1.Y, seg.p2.Y, seg.p1.X
		}
		if info.start > info.end {
			info.start, info.end = info.end, info.start
		}
		info.splits = []float64{info.start, info.end}
		infos = append(infos, info)
	}

	for i := range infos {
		for j := i + 1; j < len(infos); j++ {
			a, b := infos[i], infos[j]
			if a.horizontal == b.horizontal {
				continue
			}
			if a.horizontal {
				intersect(a, b)
			} else {
				intersect(b, a)
			}
		}
	}

	var out []segment
	for _, info := range infos {
		points := append([]float64(nil), info.splits...)
		sort.Float64s(points)
		points = uniqueSorted(points)

		parts := len(points) - 1
		for i := 0; i < parts; i++ {
			part := segment{id: info.seg.id, thickness: info.seg.thickness}
			if parts > 1 {
				part.id = info.seg.id + "_" + strconv.Itoa(i+1)
			}
			if info.horizontal {
				part.p1 = Point{X: points[i], Y: info.constant}
				part.p2 = Point{X: points[i+1], Y: info.constant}
			} else {
				part.p1 = Point{X: info.constant, Y: points[i]}
				part.p2 = Point{X: info.constant, Y: points[i+1]}
			}
			out = append(out, part)
		}
	}
	return out
}

func intersect(h, v *axisSegment) {
	vx, hy := v.constant, h.constant
	if vx < h.start-connectTolerance || vx > h.end+connectTolerance {
		return
	}
	if hy < v.start-connectTolerance || hy > v.end+connectTolerance {
		return
	}
	h.splits = append(h.splits, clamp(vx, h.start, h.end))
	v.splits = append(v.splits, clamp(hy, v.start, v.end))
}

// ============================================================
// Cleanup
// ============================================================

// mergeCloseVertices склеивает вершины в радиусе mergeTolerance.
// Вырожденные и повторные ребра отбрасываются.
func (g *wallGraph) mergeCloseVertices() {
	rep := make([]int, len(g.vertices))
	for i := range rep {
		rep[i] = -1
	}
	for i := range g.vertices {
		if rep[i] >= 0 {
			continue
		}
		rep[i] = i
		for j := i + 1; j < len(g.vertices); j++ {
			if rep[j] < 0 && distance(g.vertices[i], g.vertices[j]) <= mergeTolerance {
				rep[j] = i
			}
		}
	}

	seen := make(map[[2]int]bool, len(g.edges))
	edges := g.edges[:0]
	for _, e := range g.edges {
		e.a, e.b = rep[e.a], rep[e.b]
		if e.a == e.b {
			continue
		}
		key := [2]int{min(e.a, e.b), max(e.a, e.b)}
		if seen[key] {
			continue
		}
		seen[key] = true
		edges = append(edges, e)
	}
	g.edges = edges
}

// snapAxisAligned выпрямляет почти горизонтальные и почти вертикальные ребра.
func (g *wallGraph) snapAxisAligned() {
	type agg struct {
		sumX, sumY float64
		cntX, cntY int
	}
	aggs := make(map[int]*agg)
	get := func(i int) *agg {
		if aggs[i] == nil {
			aggs[i] = &agg{}
		}
		return aggs[i]
	}

	for _, e := range g.edges {
		p1, p2 := g.segment(e)
		switch {
		case math.Abs(p1.Y-p2.Y) <= axisSnapTolerance:
			y := (p1.Y + p2.Y) / 2
			for _, i := range []int{e.a, e.b} {
				a := get(i)
				a.sumY += y
				a.cntY++
			}
		case math.Abs(p1.X-p2.X) <= axisSnapTolerance:
			x := (p1.X + p2.X) / 2
			for _, i := range []int{e.a, e.b} {
				a := get(i)
				a.sumX += x
				a.cntX++
			}
		}
	}

	for i, a := range aggs {
		if a.cntX > 0 {
			g.vertices[i].X = a.sumX / float64(a.cntX)
		}
		if a.cntY > 0 {
			g.vertices[i].Y = a.sumY / float64(a.cntY)
		}
	}
}

// nearest возвращает ребро, ближайшее к точке, и проекцию точки на него.
func (g *wallGraph) nearest(p Point) (edge, Point, bool) {
	best := math.MaxFloat64
	var found edge
	var proj Point
	for _, e := range g.edges {
		p1, p2 := g.segment(e)
		d, q := projectOnSegment(p, p1, p2)
		if d < best {
			best, found, proj = d, e, q
		}
	}
	return found, proj, best < math.MaxFloat64
}

// ============================================================
// Helpers
// ============================================================

func projectOnSegment(p, a, b Point) (float64, Point) {
	dx, dy := b.X-a.X, b.Y-a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return distance(p, a), a
	}
	t := clamp(((p.X-a.X)*dx+(p.Y-a.Y)*dy)/lenSq, 0, 1)
	q := Point{X: a.X + t*dx, Y: a.Y + t*dy}
	return distance(p, q), q
}

func distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func uniqueSorted(points []float64) []float64 {
	if len(points) == 0 {
		return points
	}
	out := points[:1]
	for _, p := range points[1:] {
		if math.Abs(p-out[len(out)-1]) >= 1e-6 {
			out = append(out, p)
		}
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
