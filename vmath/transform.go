package vmath

import "github.com/go-gl/mathgl/mgl64"

// Transform places local shape points in the world
// Order: translate(-Origin), scale, rotate, translate(Position)
// A zero Scale is read as unit scale so the zero Transform is identity
type Transform struct {
	Position Vec2
	Rotation float64 // degrees, counter-clockwise
	Scale    Vec2
	Origin   Vec2
}

// NewTransform returns a unit-scale transform at pos
func NewTransform(pos Vec2) Transform {
	return Transform{Position: pos, Scale: Vec2{1, 1}}
}

// Matrix returns the homogeneous 3x3 matrix for the transform
func (t Transform) Matrix() mgl64.Mat3 {
	scale := t.Scale
	if scale == Zero {
		scale = Vec2{1, 1}
	}
	m := mgl64.Translate2D(t.Position[0], t.Position[1])
	if t.Rotation != 0 {
		m = m.Mul3(mgl64.HomogRotate2D(t.Rotation * DegToRad))
	}
	m = m.Mul3(mgl64.Scale2D(scale[0], scale[1]))
	if t.Origin != Zero {
		m = m.Mul3(mgl64.Translate2D(-t.Origin[0], -t.Origin[1]))
	}
	return m
}

// Apply maps a local point to world space
func (t Transform) Apply(p Vec2) Vec2 {
	return applyMatrix(t.Matrix(), p)
}

// WorldPoints maps an ordered local vertex list to world space
func WorldPoints(local []Vec2, t Transform) []Vec2 {
	m := t.Matrix()
	out := make([]Vec2, len(local))
	for i, p := range local {
		out[i] = applyMatrix(m, p)
	}
	return out
}

func applyMatrix(m mgl64.Mat3, p Vec2) Vec2 {
	h := m.Mul3x1(mgl64.Vec3{p[0], p[1], 1})
	return Vec2{h[0], h[1]}
}
