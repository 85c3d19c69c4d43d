package vmath

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec2 is the 2D vector used across the simulation
// Alias keeps mgl64 arithmetic methods (Add, Sub, Mul, Dot, Len) available
type Vec2 = mgl64.Vec2

const (
	DegToRad = math.Pi / 180.0
	RadToDeg = 180.0 / math.Pi
)

// ErrLerpDomain is returned when an interpolation parameter leaves [0,1]
var ErrLerpDomain = errors.New("lerp: t must be between 0 and 1")

// Zero is the zero vector
var Zero = Vec2{}

// Magnitude returns Euclidean length
func Magnitude(v Vec2) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1])
}

// MagnitudeSq returns squared length without sqrt
func MagnitudeSq(v Vec2) float64 {
	return v[0]*v[0] + v[1]*v[1]
}

// Distance returns the distance between two points
func Distance(a, b Vec2) float64 {
	return Magnitude(a.Sub(b))
}

// DistanceSq returns the squared distance between two points
func DistanceSq(a, b Vec2) float64 {
	return MagnitudeSq(a.Sub(b))
}

// Normalize returns unit vector, zero-safe
// mgl64.Vec2.Normalize divides by zero length, this does not
func Normalize(v Vec2) Vec2 {
	mag := Magnitude(v)
	if mag == 0 {
		return Zero
	}
	return Vec2{v[0] / mag, v[1] / mag}
}

// Dot returns a.x*b.x + a.y*b.y
func Dot(a, b Vec2) float64 {
	return a[0]*b[0] + a[1]*b[1]
}

// Cross returns the z component of the 3D cross product of a and b
func Cross(a, b Vec2) float64 {
	return a[0]*b[1] - a[1]*b[0]
}

// Perpendicular returns vector rotated 90° counter-clockwise
func Perpendicular(v Vec2) Vec2 {
	return Vec2{-v[1], v[0]}
}

// Project returns the projection of v onto the direction of onto
// Zero direction projects to zero
func Project(v, onto Vec2) Vec2 {
	n := Normalize(onto)
	return n.Mul(Dot(v, n))
}

// Reflect returns v reflected off a surface with normal n
// v' = v - 2 * proj(v, n)
func Reflect(v, n Vec2) Vec2 {
	return v.Sub(Project(v, n).Mul(2))
}

// Angle returns the unsigned angle between a and b in radians, 0 if either is zero
func Angle(a, b Vec2) float64 {
	magA, magB := Magnitude(a), Magnitude(b)
	if magA == 0 || magB == 0 {
		return 0
	}
	cos := Dot(a, b) / (magA * magB)
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos)
}

// Rotate rotates v counter-clockwise by degrees
func Rotate(v Vec2, degrees float64) Vec2 {
	rad := degrees * DegToRad
	cs, sn := math.Cos(rad), math.Sin(rad)
	return Vec2{v[0]*cs - v[1]*sn, v[0]*sn + v[1]*cs}
}

// Lerp interpolates between a and b
// t outside [0,1] is a caller bug and reported as ErrLerpDomain
func Lerp(a, b Vec2, t float64) (Vec2, error) {
	if t < 0 || t > 1 || math.IsNaN(t) {
		return Zero, fmt.Errorf("%w: got %v", ErrLerpDomain, t)
	}
	return a.Mul(1 - t).Add(b.Mul(t)), nil
}

// Centroid returns the vertex average, zero for an empty set
func Centroid(points []Vec2) Vec2 {
	if len(points) == 0 {
		return Zero
	}
	var c Vec2
	for _, p := range points {
		c = c.Add(p)
	}
	return c.Mul(1 / float64(len(points)))
}

// ToCell maps a point to integer grid coordinates of the given cell size
func ToCell(p Vec2, cellSize float64) (int, int) {
	if cellSize <= 0 {
		return 0, 0
	}
	return int(math.Floor(p[0] / cellSize)), int(math.Floor(p[1] / cellSize))
}

// ApproxEqual reports whether a and b match within eps per component
func ApproxEqual(a, b Vec2, eps float64) bool {
	return math.Abs(a[0]-b[0]) <= eps && math.Abs(a[1]-b[1]) <= eps
}
