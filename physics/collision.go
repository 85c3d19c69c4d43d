package physics

import (
	"math"

	"github.com/lixenwraith/simlab/vmath"
)

// MinCenterDistance is the center separation below which circle pairs report no contact
// Coincident centers have no defined normal; the pair is left for the next tick
const MinCenterDistance = 0.001

// CollisionInfo describes one overlap query result
// Normal and Penetration carry no meaning when Collided is false
type CollisionInfo struct {
	Collided    bool
	Penetration float64    // Overlap depth along Normal, >= 0
	Normal      vmath.Vec2 // Unit (or zero) separation direction from first body toward second
	Point       vmath.Vec2 // Approximate world-space contact point
	// Magnitude is call-site specific:
	//   CircleCollision: center-to-center distance
	//   PolygonsIntersect/ShapeCollision: length of the minimum translation vector
	//   WindowCollision: unused (0)
	Magnitude float64
}

// Circle is a center/radius pair in world space
type Circle struct {
	Center vmath.Vec2
	Radius float64
}

// Mass returns radius squared, uniform density assumption
func (c Circle) Mass() float64 {
	return c.Radius * c.Radius
}

// Bounds is the axis-aligned rectangle [0,Width]x[0,Height]
type Bounds struct {
	Width, Height float64
}

// Contains reports whether the circle lies fully inside the bounds
func (b Bounds) Contains(c Circle) bool {
	return c.Center[0]-c.Radius > 0 && c.Center[0]+c.Radius < b.Width &&
		c.Center[1]-c.Radius > 0 && c.Center[1]+c.Radius < b.Height
}

// CircleCollision tests two circles for overlap
// Contact holds for MinCenterDistance < d <= r1+r2
func CircleCollision(c1, c2 Circle) CollisionInfo {
	var result CollisionInfo

	delta := c2.Center.Sub(c1.Center)
	dist := vmath.Magnitude(delta)
	radiusSum := c1.Radius + c2.Radius

	if dist <= radiusSum && dist > MinCenterDistance {
		result.Collided = true
		result.Penetration = radiusSum - dist
		result.Normal = delta.Mul(1 / dist)
		result.Point = c1.Center.Add(result.Normal.Mul(c1.Radius))
		result.Magnitude = dist
	}

	return result
}

// WindowCollision tests a circle against the four planes of b
// Planes are tested left, right, top, bottom; each violated plane overwrites
// Normal, Point and Penetration, so on a corner hit only the last violated
// plane is reported and the other axis is left for the next tick
func WindowCollision(c Circle, b Bounds) CollisionInfo {
	var result CollisionInfo

	pos, r := c.Center, c.Radius
	left := pos[0] - r
	right := pos[0] + r
	top := pos[1] - r
	bottom := pos[1] + r

	var normal vmath.Vec2
	penetration := 0.0

	if left <= 0 {
		result.Collided = true
		normal = vmath.Vec2{1, 0}
		result.Point = vmath.Vec2{0, pos[1]}
		penetration = -left
	}
	if right >= b.Width {
		result.Collided = true
		normal = vmath.Vec2{-1, 0}
		result.Point = vmath.Vec2{b.Width, pos[1]}
		penetration = right - b.Width
	}
	if top <= 0 {
		result.Collided = true
		normal = vmath.Vec2{0, 1}
		result.Point = vmath.Vec2{pos[0], 0}
		penetration = -top
	}
	if bottom >= b.Height {
		result.Collided = true
		normal = vmath.Vec2{0, -1}
		result.Point = vmath.Vec2{pos[0], b.Height}
		penetration = bottom - b.Height
	}

	result.Normal = normal
	result.Penetration = penetration
	return result
}

// ShapeCollision runs the separating axis test on the world-space outlines of a and b
func ShapeCollision(a, b Shape) CollisionInfo {
	return PolygonsIntersect(a.WorldPoints(), b.WorldPoints())
}

// PolygonsIntersect runs the separating axis test over the edge normals of both convex polygons
// Zero-length edges are skipped; polygons with fewer than 3 vertices never collide
func PolygonsIntersect(polyA, polyB []vmath.Vec2) CollisionInfo {
	if len(polyA) < 3 || len(polyB) < 3 {
		return CollisionInfo{}
	}

	minOverlap := math.MaxFloat64
	var smallestAxis vmath.Vec2

	checkAxes := func(edges, other []vmath.Vec2) bool {
		for i := range edges {
			p1 := edges[i]
			p2 := edges[(i+1)%len(edges)]

			axis := vmath.Perpendicular(p2.Sub(p1))
			length := vmath.Magnitude(axis)
			if length == 0 {
				continue
			}
			axis = axis.Mul(1 / length)

			minA, maxA := projectPolygon(edges, axis)
			minB, maxB := projectPolygon(other, axis)

			// Gap on this axis separates the shapes
			if maxA < minB || maxB < minA {
				return false
			}

			overlap := math.Min(maxA, maxB) - math.Max(minA, minB)
			if overlap < minOverlap {
				minOverlap = overlap
				smallestAxis = axis
			}
		}
		return true
	}

	if !checkAxes(polyA, polyB) || !checkAxes(polyB, polyA) {
		return CollisionInfo{}
	}

	// Every edge degenerate: no axis was ever tested
	if minOverlap == math.MaxFloat64 {
		return CollisionInfo{}
	}

	centroidA := vmath.Centroid(polyA)

	// Edge normals have arbitrary winding; orient from A toward B
	if vmath.Dot(vmath.Centroid(polyB).Sub(centroidA), smallestAxis) < 0 {
		smallestAxis = smallestAxis.Mul(-1)
	}

	return CollisionInfo{
		Collided:    true,
		Penetration: minOverlap,
		Normal:      smallestAxis,
		Point:       centroidA,
		Magnitude:   vmath.Magnitude(smallestAxis.Mul(minOverlap)),
	}
}

// projectPolygon returns the [min,max] interval of points projected on axis
func projectPolygon(points []vmath.Vec2, axis vmath.Vec2) (lo, hi float64) {
	lo = vmath.Dot(points[0], axis)
	hi = lo
	for _, p := range points[1:] {
		proj := vmath.Dot(p, axis)
		lo = math.Min(lo, proj)
		hi = math.Max(hi, proj)
	}
	return lo, hi
}
