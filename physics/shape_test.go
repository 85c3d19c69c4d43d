package physics

import (
	"math"
	"testing"

	"github.com/lixenwraith/simlab/vmath"
)

func TestShape_Kinds(t *testing.T) {
	tf := vmath.NewTransform(vmath.Vec2{1, 2})
	tests := []struct {
		shape Shape
		want  ShapeKind
		name  string
	}{
		{NewCircleShape(Circle{Radius: 1}, 8), KindCircle, "circle"},
		{NewPolygonShape(square(0, 0, 1), tf), KindPolygon, "polygon"},
		{NewRectShape(2, 1, tf), KindPolygon, "polygon"},
		{NewTextBoundsShape(5, 1, tf), KindTextBounds, "text"},
	}
	for _, tt := range tests {
		if tt.shape.Kind() != tt.want || tt.shape.Kind().String() != tt.name {
			t.Errorf("Kind() = %v, want %v", tt.shape.Kind(), tt.want)
		}
		if _, ok := tt.shape.Circle(); ok != (tt.want == KindCircle) {
			t.Errorf("%v: Circle() ok = %v", tt.want, ok)
		}
	}
	if ShapeKind(99).String() != "unknown" {
		t.Error("unknown kind name")
	}
}

func TestShape_CircleOutline(t *testing.T) {
	c := Circle{Center: vmath.Vec2{3, 4}, Radius: 2}
	s := NewCircleShape(c, 0)

	pts := s.WorldPoints()
	if len(pts) != DefaultCirclePoints {
		t.Fatalf("outline has %d points, want default %d", len(pts), DefaultCirclePoints)
	}
	for i, p := range pts {
		if d := vmath.Distance(p, c.Center); math.Abs(d-2) > 1e-9 {
			t.Errorf("point %d at distance %v, want 2", i, d)
		}
	}
	if !vmath.ApproxEqual(s.Center(), c.Center, 1e-12) {
		t.Errorf("Center() = %v", s.Center())
	}

	s.SetTransform(vmath.NewTransform(vmath.Vec2{10, 10}))
	if moved, _ := s.Circle(); moved.Center != (vmath.Vec2{10, 10}) || moved.Radius != 2 {
		t.Errorf("SetTransform on circle = %+v", moved)
	}
	if tf := s.Transform(); tf.Position != (vmath.Vec2{10, 10}) {
		t.Errorf("circle Transform().Position = %v", tf.Position)
	}
}

func TestShape_PolygonCopiesVertices(t *testing.T) {
	local := square(0, 0, 2)
	s := NewPolygonShape(local, vmath.NewTransform(vmath.Zero))
	local[0] = vmath.Vec2{100, 100}

	if got := s.WorldPoints()[0]; got != (vmath.Vec2{0, 0}) {
		t.Errorf("shape aliased caller slice: first point %v", got)
	}
}

func TestShape_CenterOriginRotation(t *testing.T) {
	tf := vmath.NewTransform(vmath.Vec2{5, 5})
	s := NewRectShape(4, 2, tf)
	if c := s.Center(); !vmath.ApproxEqual(c, vmath.Vec2{7, 6}, 1e-12) {
		t.Fatalf("Center() = %v, want (7,6)", c)
	}

	// Pivot on the centroid: rotation keeps the center in place
	s.CenterOrigin()
	tf = s.Transform()
	tf.Position = vmath.Vec2{7, 6}
	tf.Rotation = 90
	s.SetTransform(tf)

	if c := s.Center(); !vmath.ApproxEqual(c, vmath.Vec2{7, 6}, 1e-9) {
		t.Errorf("rotated Center() = %v, want (7,6)", c)
	}
	pts := s.WorldPoints()
	width := math.Abs(pts[1][0] - pts[0][0])
	height := math.Abs(pts[1][1] - pts[0][1])
	if width > 1e-9 || math.Abs(height-4) > 1e-9 {
		t.Errorf("first edge after 90deg = (%v,%v), want vertical of length 4", width, height)
	}
}
