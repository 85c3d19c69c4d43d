package vmath

import "testing"

func TestTransformIdentity(t *testing.T) {
	var tf Transform
	p := Vec2{3, -7}
	if got := tf.Apply(p); !ApproxEqual(got, p, eps) {
		t.Errorf("zero Transform moved point: %v -> %v", p, got)
	}
}

func TestTransformOrder(t *testing.T) {
	tf := Transform{
		Position: Vec2{100, 50},
		Rotation: 90,
		Scale:    Vec2{2, 2},
		Origin:   Vec2{1, 0},
	}
	// (2,0) - origin = (1,0); scaled = (2,0); rotated 90 = (0,2); translated = (100,52)
	got := tf.Apply(Vec2{2, 0})
	if !ApproxEqual(got, Vec2{100, 52}, 1e-9) {
		t.Errorf("Apply = %v, want (100,52)", got)
	}
}

func TestWorldPoints(t *testing.T) {
	local := []Vec2{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	tf := NewTransform(Vec2{5, 5})
	tf.Origin = Vec2{5, 5}

	got := WorldPoints(local, tf)
	if len(got) != len(local) {
		t.Fatalf("WorldPoints returned %d points, want %d", len(got), len(local))
	}
	for i, p := range local {
		if !ApproxEqual(got[i], p, eps) {
			t.Errorf("point %d = %v, want %v", i, got[i], p)
		}
	}

	// Input slice is not mutated
	if local[1] != (Vec2{10, 0}) {
		t.Errorf("WorldPoints mutated input: %v", local)
	}
}
