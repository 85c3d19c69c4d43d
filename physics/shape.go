package physics

import (
	"math"

	"github.com/lixenwraith/simlab/vmath"
)

// ShapeKind tags the Shape variant
type ShapeKind uint8

const (
	KindCircle ShapeKind = iota
	KindPolygon
	KindTextBounds
)

// DefaultCirclePoints is the outline resolution used for circles in polygon tests
const DefaultCirclePoints = 30

func (k ShapeKind) String() string {
	switch k {
	case KindCircle:
		return "circle"
	case KindPolygon:
		return "polygon"
	case KindTextBounds:
		return "text"
	default:
		return "unknown"
	}
}

// Shape is a tagged collision shape; the kind is fixed by its constructor
// Only the fields of the active variant are populated
type Shape struct {
	kind ShapeKind

	// KindCircle
	circle     Circle
	pointCount int

	// KindPolygon, KindTextBounds
	local     []vmath.Vec2
	transform vmath.Transform
}

// NewCircleShape creates a circle variant approximated by pointCount outline vertices
// pointCount < 3 falls back to DefaultCirclePoints
func NewCircleShape(c Circle, pointCount int) Shape {
	if pointCount < 3 {
		pointCount = DefaultCirclePoints
	}
	return Shape{kind: KindCircle, circle: c, pointCount: pointCount}
}

// NewPolygonShape creates a convex polygon variant from ordered local vertices
// The vertex slice is copied
func NewPolygonShape(local []vmath.Vec2, tf vmath.Transform) Shape {
	pts := make([]vmath.Vec2, len(local))
	copy(pts, local)
	return Shape{kind: KindPolygon, local: pts, transform: tf}
}

// NewRectShape creates a polygon variant for a w x h rectangle with its local origin at the top-left corner
func NewRectShape(w, h float64, tf vmath.Transform) Shape {
	return Shape{kind: KindPolygon, local: rectPoints(w, h), transform: tf}
}

// NewTextBoundsShape creates a text-bounds variant from a measured label extent
func NewTextBoundsShape(w, h float64, tf vmath.Transform) Shape {
	return Shape{kind: KindTextBounds, local: rectPoints(w, h), transform: tf}
}

// Kind returns the variant tag
func (s Shape) Kind() ShapeKind {
	return s.kind
}

// Circle returns the circle data, ok is false for other variants
func (s Shape) Circle() (Circle, bool) {
	return s.circle, s.kind == KindCircle
}

// Transform returns the local-to-world transform; circles return a transform at their center
func (s Shape) Transform() vmath.Transform {
	if s.kind == KindCircle {
		return vmath.NewTransform(s.circle.Center)
	}
	return s.transform
}

// SetTransform replaces the transform of polygon and text variants; circles move their center
func (s *Shape) SetTransform(tf vmath.Transform) {
	if s.kind == KindCircle {
		s.circle.Center = tf.Position
		return
	}
	s.transform = tf
}

// WorldPoints returns the outline in world space
func (s Shape) WorldPoints() []vmath.Vec2 {
	if s.kind == KindCircle {
		return circlePoints(s.circle, s.pointCount)
	}
	return vmath.WorldPoints(s.local, s.transform)
}

// Center returns the world-space center of the shape
func (s Shape) Center() vmath.Vec2 {
	if s.kind == KindCircle {
		return s.circle.Center
	}
	return vmath.Centroid(s.WorldPoints())
}

// CenterOrigin sets the transform origin to the local centroid so rotation and scale pivot around it
func (s *Shape) CenterOrigin() {
	if s.kind == KindCircle {
		return
	}
	s.transform.Origin = vmath.Centroid(s.local)
}

func rectPoints(w, h float64) []vmath.Vec2 {
	return []vmath.Vec2{{0, 0}, {w, 0}, {w, h}, {0, h}}
}

func circlePoints(c Circle, n int) []vmath.Vec2 {
	pts := make([]vmath.Vec2, n)
	for i := range pts {
		angle := 2 * math.Pi * float64(i) / float64(n)
		pts[i] = vmath.Vec2{
			c.Center[0] + c.Radius*math.Cos(angle),
			c.Center[1] + c.Radius*math.Sin(angle),
		}
	}
	return pts
}
