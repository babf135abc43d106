package model

import (
	"time"

	"github.com/google/uuid"
)

// Point2D represents a 2D coordinate. Photos use pixel units with y growing
// downwards; vector sources are flipped into the same convention on import.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Outline represents a closed polygon as a sequence of 2D points.
// The outline is implicitly closed: the last point connects back to the first.
type Outline []Point2D

// BoundingBox returns the min and max corners of the outline.
func (o Outline) BoundingBox() (min, max Point2D) {
	if len(o) == 0 {
		return Point2D{}, Point2D{}
	}
	min = Point2D{X: o[0].X, Y: o[0].Y}
	max = Point2D{X: o[0].X, Y: o[0].Y}
	for _, p := range o[1:] {
		if p.X < min.X {
			min.X = p.X
		}
		if p.Y < min.Y {
			min.Y = p.Y
		}
		if p.X > max.X {
			max.X = p.X
		}
		if p.Y > max.Y {
			max.Y = p.Y
		}
	}
	return min, max
}

// Translate shifts all points by dx, dy.
func (o Outline) Translate(dx, dy float64) Outline {
	result := make(Outline, len(o))
	for i, p := range o {
		result[i] = Point2D{X: p.X + dx, Y: p.Y + dy}
	}
	return result
}

// Top returns the smallest y coordinate of the outline, i.e. how high the
// shape sits in the image.
func (o Outline) Top() float64 {
	min, _ := o.BoundingBox()
	return min.Y
}

// Clone returns an independent copy of the outline.
func (o Outline) Clone() Outline {
	if o == nil {
		return nil
	}
	result := make(Outline, len(o))
	copy(result, o)
	return result
}

// Shape is one closed outline produced by a polygon source (segmentation,
// DXF, vertex table) before the engine decides what it is.
type Shape struct {
	ID      string  `json:"id"`
	Label   string  `json:"label"`
	Outline Outline `json:"outline"`
}

func NewShape(label string, outline Outline) Shape {
	return Shape{
		ID:      uuid.New().String()[:8],
		Label:   label,
		Outline: outline,
	}
}

// Object is a validated shape that has to be packed, with the size
// measures the pre-filters need cached.
type Object struct {
	Shape
	Area     float64 `json:"area"`
	Diameter float64 `json:"diameter"` // 2 x minimal enclosing circle radius
}

// Container is the validated boundary shape objects are packed into.
type Container struct {
	Shape
	Area     float64 `json:"area"`
	Diameter float64 `json:"diameter"`
}

// Pose is a candidate rigid transform: rotate Angle degrees clockwise about
// the object's own centroid, then translate by (DX, DY).
type Pose struct {
	DX    float64 `json:"dx"`
	DY    float64 `json:"dy"`
	Angle float64 `json:"angle"`
}

// Placement represents one object placed inside the container.
type Placement struct {
	ObjectID string  `json:"object_id"`
	Label    string  `json:"label"`
	Pose     Pose    `json:"pose"`
	Outline  Outline `json:"outline"` // Transformed copy of the object outline
}

// Field is the rectangle the object centroid sweeps during search.
type Field struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// FieldFromImage returns the sweep rectangle for a photo of the given size.
func FieldFromImage(width, height int) Field {
	return Field{MaxX: float64(width), MaxY: float64(height)}
}

// FieldFromOutline returns the outline's bounding box as a sweep rectangle.
// Used for vector sources without an image frame.
func FieldFromOutline(o Outline) Field {
	min, max := o.BoundingBox()
	return Field{MinX: min.X, MinY: min.Y, MaxX: max.X, MaxY: max.Y}
}

// Width returns the horizontal extent of the field.
func (f Field) Width() float64 { return f.MaxX - f.MinX }

// Height returns the vertical extent of the field.
func (f Field) Height() float64 { return f.MaxY - f.MinY }

// Reason explains a packing verdict.
type Reason string

const (
	ReasonFits            Reason = "fits"             // Every object was placed
	ReasonNoObjects       Reason = "no-objects"       // Only a container was found; trivially feasible
	ReasonDiameter        Reason = "diameter"         // An object is wider than the container's bounding circle
	ReasonArea            Reason = "area"             // Coarse area pre-filter rejected the input
	ReasonSearchExhausted Reason = "search-exhausted" // Some object had no valid pose on the grid
)

// SearchStats holds counters collected while searching.
type SearchStats struct {
	PosesTried int64         `json:"poses_tried"`
	Elapsed    time.Duration `json:"elapsed"`
}

// PackingResult holds the engine verdict. Placements is only populated when
// Feasible is true.
type PackingResult struct {
	Feasible   bool        `json:"feasible"`
	Reason     Reason      `json:"reason"`
	Container  Container   `json:"container"`
	Objects    []Object    `json:"objects"`
	Placements []Placement `json:"placements"`
	Stats      SearchStats `json:"stats"`

	// FailedObject is the label of the object whose search was exhausted.
	FailedObject string `json:"failed_object,omitempty"`
}

// PlacedOutlines returns the placed polygons in insertion order.
func (r PackingResult) PlacedOutlines() []Outline {
	outlines := make([]Outline, len(r.Placements))
	for i, p := range r.Placements {
		outlines[i] = p.Outline
	}
	return outlines
}

// TotalObjectArea returns the summed area of all objects.
func (r PackingResult) TotalObjectArea() float64 {
	var total float64
	for _, o := range r.Objects {
		total += o.Area
	}
	return total
}

// Utilization returns the share of the container area covered by objects,
// as a percentage.
func (r PackingResult) Utilization() float64 {
	if r.Container.Area == 0 {
		return 0
	}
	return (r.TotalObjectArea() / r.Container.Area) * 100.0
}

// Project ties inputs, settings and the last verdict together for save/load.
type Project struct {
	Name   string         `json:"name"`
	Source string         `json:"source"` // Path of the photo or drawing the shapes came from
	Field  Field          `json:"field"`
	Shapes []Shape        `json:"shapes"`
	Config Config         `json:"config"`
	Result *PackingResult `json:"result,omitempty"`
}

func NewProject() Project {
	return Project{
		Name:   "Untitled",
		Shapes: []Shape{},
		Config: DefaultConfig(),
	}
}
