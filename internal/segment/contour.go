package segment

import (
	"image"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/simplify"
)

// mask is a binary foreground grid indexed [y][x].
type mask [][]bool

func (m mask) at(x, y int) bool {
	return y >= 0 && y < len(m) && x >= 0 && x < len(m[y]) && m[y][x]
}

// binarize turns any image into a mask of pixels brighter than mid-grey.
func binarize(img image.Image) mask {
	b := img.Bounds()
	m := make(mask, b.Dy())
	for y := 0; y < b.Dy(); y++ {
		m[y] = make([]bool, b.Dx())
		for x := 0; x < b.Dx(); x++ {
			r, _, _, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			m[y][x] = r>>8 > 127
		}
	}
	return m
}

// Moore neighbourhood, clockwise on screen (y grows downwards) from east.
var directions = [8]image.Point{
	{X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}, {X: -1, Y: 1},
	{X: -1, Y: 0}, {X: -1, Y: -1}, {X: 0, Y: -1}, {X: 1, Y: -1},
}

const west = 4

func directionOf(d image.Point) int {
	for i, v := range directions {
		if v == d {
			return i
		}
	}
	return west
}

// contour is one traced outer boundary in pixel coordinates.
type contour struct {
	points []image.Point
	ring   orb.Ring
	area   float64
}

// externalContours traces the outer boundary of every 8-connected
// foreground component and drops components that sit inside another
// component's boundary.
func externalContours(m mask) []contour {
	h := len(m)
	visited := make([][]bool, h)
	for y := range visited {
		visited[y] = make([]bool, len(m[y]))
	}

	var all []contour
	for y := 0; y < h; y++ {
		for x := 0; x < len(m[y]); x++ {
			if !m[y][x] || visited[y][x] {
				continue
			}
			floodFill(m, visited, x, y)
			pts := traceBoundary(m, image.Pt(x, y))
			c := contour{points: pts, ring: toRing(pts)}
			c.area = planar.Area(c.ring)
			if c.area < 0 {
				c.area = -c.area
			}
			all = append(all, c)
		}
	}

	external := make([]contour, 0, len(all))
	for i, c := range all {
		probe := orb.Point{float64(c.points[0].X), float64(c.points[0].Y)}
		nested := false
		for j, other := range all {
			if i == j || other.area <= c.area || len(other.points) < 3 {
				continue
			}
			if planar.RingContains(other.ring, probe) {
				nested = true
				break
			}
		}
		if !nested {
			external = append(external, c)
		}
	}
	return external
}

// floodFill marks the 8-connected component containing (startX, startY).
func floodFill(m mask, visited [][]bool, startX, startY int) {
	stack := []image.Point{{X: startX, Y: startY}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !m.at(p.X, p.Y) || visited[p.Y][p.X] {
			continue
		}
		visited[p.Y][p.X] = true
		for _, d := range directions {
			stack = append(stack, p.Add(d))
		}
	}
}

// traceBoundary follows the outer boundary of the component whose first
// pixel in raster order is start, using Moore-neighbour tracing. Runs of
// steps in the same direction are collapsed to their end points.
func traceBoundary(m mask, start image.Point) []image.Point {
	// The pixel west of a raster-first pixel is always background.
	backtrack := west
	first, ok := nextBoundary(m, start, backtrack)
	if !ok {
		return []image.Point{start}
	}

	points := []image.Point{start}
	cur := start
	move := first
	limit := 4*len(m)*len(m[0]) + 8
	for i := 0; i < limit; i++ {
		prevDir := directions[(move+7)%8]
		next := cur.Add(directions[move])
		backtrack = directionOf(cur.Add(prevDir).Sub(next))
		cur = next

		d, _ := nextBoundary(m, cur, backtrack)
		if cur == start && d == first {
			break
		}
		if d != move {
			points = append(points, cur)
		}
		move = d
	}
	return points
}

// nextBoundary scans the neighbours of p clockwise, starting just after the
// backtrack direction, and returns the direction of the first foreground one.
func nextBoundary(m mask, p image.Point, backtrack int) (int, bool) {
	for k := 1; k <= 8; k++ {
		d := (backtrack + k) % 8
		q := p.Add(directions[d])
		if m.at(q.X, q.Y) {
			return d, true
		}
	}
	return 0, false
}

func toRing(pts []image.Point) orb.Ring {
	ring := make(orb.Ring, 0, len(pts)+1)
	for _, p := range pts {
		ring = append(ring, orb.Point{float64(p.X), float64(p.Y)})
	}
	if len(ring) > 0 {
		ring = append(ring, ring[0])
	}
	return ring
}

// approximate simplifies a closed contour with Douglas-Peucker using a
// tolerance proportional to its perimeter. The returned ring is open (no
// repeated closing point).
func approximate(ring orb.Ring, tolerance float64) orb.Ring {
	ls := orb.LineString(ring)
	perimeter := planar.Length(ls)
	s := simplify.DouglasPeucker(tolerance * perimeter).Simplify(ls.Clone())
	result, ok := s.(orb.LineString)
	if !ok {
		return nil
	}
	if len(result) > 1 && result[0] == result[len(result)-1] {
		result = result[:len(result)-1]
	}
	return orb.Ring(result)
}

func sortByAreaDesc(cs []contour) {
	sort.SliceStable(cs, func(i, j int) bool { return cs[i].area > cs[j].area })
}
