package importer

import (
	"fmt"
	"math"
	"sort"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/piwi3910/FitCheck/internal/model"
)

const (
	arcSegments    = 32
	circleSegments = 64
	chainTolerance = 0.01
)

// edge is a loose LINE or ARC piece waiting to be chained into an outline.
type edge struct {
	start model.Point2D
	end   model.Point2D
}

// ImportDXF reads closed shapes from a DXF drawing. LWPOLYLINEs and
// CIRCLEs become one shape each in file order, followed by outlines chained
// from loose LINEs and ARCs, largest first.
//
// DXF uses a y-up frame. The drawing is flipped and moved so its bounding
// box starts at the origin with y growing downwards, like a photo, so the
// shape drawn highest on the sheet is the container.
func ImportDXF(path string) ImportResult {
	result := ImportResult{}

	drawing, err := dxf.Open(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open DXF file: %v", err))
		return result
	}

	entities := drawing.Entities()
	if len(entities) == 0 {
		result.Errors = append(result.Errors, "DXF file contains no entities")
		return result
	}

	var outlines []model.Outline
	var loose []edge
	skipped := 0

	for _, ent := range entities {
		switch e := ent.(type) {
		case *entity.LwPolyline:
			outline := polylineOutline(e)
			if len(outline) < 3 {
				result.Warnings = append(result.Warnings, "Skipped LWPOLYLINE with fewer than 3 vertices")
				continue
			}
			outlines = append(outlines, outline)

		case *entity.Circle:
			outlines = append(outlines, circleOutline(e.Center[0], e.Center[1], e.Radius))

		case *entity.Arc:
			pts := arcPoints(e)
			for i := 0; i+1 < len(pts); i++ {
				loose = append(loose, edge{start: pts[i], end: pts[i+1]})
			}

		case *entity.Line:
			loose = append(loose, edge{
				start: model.Point2D{X: e.Start[0], Y: e.Start[1]},
				end:   model.Point2D{X: e.End[0], Y: e.End[1]},
			})

		default:
			skipped++
		}
	}
	if skipped > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Skipped %d unsupported entities", skipped))
	}

	chained, open := chainEdges(loose, chainTolerance)
	outlines = append(outlines, chained...)
	if open > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Ignored %d open LINE/ARC chains", open))
	}

	if len(outlines) == 0 {
		result.Errors = append(result.Errors, "No closed shapes found in DXF file")
		return result
	}

	for i, outline := range toImageFrame(outlines) {
		min, max := outline.BoundingBox()
		if max.X-min.X < 0.01 || max.Y-min.Y < 0.01 {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Skipped degenerate shape %d (%.2f x %.2f)", i+1, max.X-min.X, max.Y-min.Y))
			continue
		}
		result.Shapes = append(result.Shapes, model.NewShape(fmt.Sprintf("DXF Shape %d", i+1), outline))
	}
	return result
}

// toImageFrame flips all outlines vertically and moves the drawing's
// bounding box to the origin.
func toImageFrame(outlines []model.Outline) []model.Outline {
	var all model.Outline
	for _, o := range outlines {
		all = append(all, o...)
	}
	min, max := all.BoundingBox()

	flipped := make([]model.Outline, len(outlines))
	for i, o := range outlines {
		f := make(model.Outline, len(o))
		for j, p := range o {
			f[j] = model.Point2D{X: p.X - min.X, Y: max.Y - p.Y}
		}
		flipped[i] = f
	}
	return flipped
}

// polylineOutline converts an LWPOLYLINE to an outline, expanding bulged
// vertices into arc points.
func polylineOutline(lw *entity.LwPolyline) model.Outline {
	var outline model.Outline
	n := len(lw.Vertices)
	for i, v := range lw.Vertices {
		cur := model.Point2D{X: v[0], Y: v[1]}
		var bulge float64
		if i < len(lw.Bulges) {
			bulge = lw.Bulges[i]
		}
		if math.Abs(bulge) < 1e-9 {
			outline = append(outline, cur)
			continue
		}
		next := lw.Vertices[(i+1)%n]
		pts := bulgePoints(cur, model.Point2D{X: next[0], Y: next[1]}, bulge)
		outline = append(outline, pts[:len(pts)-1]...)
	}
	return outline
}

// bulgePoints samples the arc from p1 to p2 described by a DXF bulge, the
// tangent of a quarter of the included angle. Positive bulges turn
// counter-clockwise.
func bulgePoints(p1, p2 model.Point2D, bulge float64) []model.Point2D {
	a, b := r2.Vec{X: p1.X, Y: p1.Y}, r2.Vec{X: p2.X, Y: p2.Y}
	chord := r2.Sub(b, a)
	length := r2.Norm(chord)
	if length < 1e-9 {
		return []model.Point2D{p1, p2}
	}

	sweep := 4 * math.Atan(bulge)
	radius := length / (2 * math.Sin(math.Abs(sweep)/2))
	// Distance from the chord midpoint to the centre, signed towards the
	// left of the chord for counter-clockwise arcs.
	offset := radius * math.Cos(sweep/2)
	if bulge < 0 {
		offset = -offset
	}
	left := r2.Vec{X: -chord.Y / length, Y: chord.X / length}
	center := r2.Add(r2.Scale(0.5, r2.Add(a, b)), r2.Scale(offset, left))

	pts := make([]model.Point2D, arcSegments+1)
	for i := 0; i <= arcSegments; i++ {
		t := float64(i) / float64(arcSegments)
		v := r2.Rotate(a, t*sweep, center)
		pts[i] = model.Point2D{X: v.X, Y: v.Y}
	}
	pts[arcSegments] = p2
	return pts
}

func circleOutline(cx, cy, r float64) model.Outline {
	outline := make(model.Outline, circleSegments)
	for i := range outline {
		angle := 2 * math.Pi * float64(i) / circleSegments
		outline[i] = model.Point2D{X: cx + r*math.Cos(angle), Y: cy + r*math.Sin(angle)}
	}
	return outline
}

// arcPoints samples a counter-clockwise DXF ARC.
func arcPoints(a *entity.Arc) []model.Point2D {
	cx, cy, r := a.Circle.Center[0], a.Circle.Center[1], a.Circle.Radius
	start := a.Angle[0] * math.Pi / 180
	end := a.Angle[1] * math.Pi / 180
	if end <= start {
		end += 2 * math.Pi
	}
	pts := make([]model.Point2D, arcSegments+1)
	for i := range pts {
		angle := start + float64(i)/arcSegments*(end-start)
		pts[i] = model.Point2D{X: cx + r*math.Cos(angle), Y: cy + r*math.Sin(angle)}
	}
	return pts
}

// chainEdges joins loose edges end to end. It returns the closed outlines,
// largest first, and the number of chains that did not close.
func chainEdges(edges []edge, tolerance float64) ([]model.Outline, int) {
	used := make([]bool, len(edges))
	var outlines []model.Outline
	open := 0

	for first := range edges {
		if used[first] {
			continue
		}
		used[first] = true
		chain := model.Outline{edges[first].start, edges[first].end}

		for extended := true; extended; {
			extended = false
			tail := chain[len(chain)-1]
			for i, e := range edges {
				if used[i] {
					continue
				}
				var next model.Point2D
				switch {
				case near(tail, e.start, tolerance):
					next = e.end
				case near(tail, e.end, tolerance):
					next = e.start
				default:
					continue
				}
				chain = append(chain, next)
				used[i] = true
				extended = true
				break
			}
		}

		if len(chain) >= 4 && near(chain[0], chain[len(chain)-1], tolerance) {
			outlines = append(outlines, chain[:len(chain)-1])
		} else {
			open++
		}
	}

	sort.SliceStable(outlines, func(i, j int) bool {
		return shoelace(outlines[i]) > shoelace(outlines[j])
	})
	return outlines, open
}

func near(a, b model.Point2D, tolerance float64) bool {
	return math.Hypot(a.X-b.X, a.Y-b.Y) <= tolerance
}

// shoelace returns the unsigned area of o.
func shoelace(o model.Outline) float64 {
	var s float64
	for i := range o {
		j := (i + 1) % len(o)
		s += o[i].X*o[j].Y - o[j].X*o[i].Y
	}
	return math.Abs(s) / 2
}
