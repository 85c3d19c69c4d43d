package physics

import (
	"math"
	"testing"

	"github.com/lixenwraith/simlab/vmath"
)

func totalEnergy(c1, c2 Circle, v1, v2 vmath.Vec2) float64 {
	return KineticEnergy(c1, v1) + KineticEnergy(c2, v2)
}

func TestElasticCollision_HeadOnEqualMass(t *testing.T) {
	c1 := Circle{vmath.Vec2{0, 0}, 1}
	c2 := Circle{vmath.Vec2{1.9, 0}, 1}
	v1 := vmath.Vec2{3, 0}
	v2 := vmath.Vec2{-1, 0}
	before := totalEnergy(c1, c2, v1, v2)

	info := ElasticCollisionAdvanced(&c1, &c2, &v1, &v2, 1.0, 0)
	if !info.Collided {
		t.Fatal("expected collision")
	}

	if !vmath.ApproxEqual(v1, vmath.Vec2{-1, 0}, tol) || !vmath.ApproxEqual(v2, vmath.Vec2{3, 0}, tol) {
		t.Errorf("velocities not exchanged: v1=%v v2=%v", v1, v2)
	}
	if after := totalEnergy(c1, c2, v1, v2); math.Abs(after-before) > 1e-9 {
		t.Errorf("kinetic energy changed: before=%v after=%v", before, after)
	}
	if d := vmath.Distance(c1.Center, c2.Center); math.Abs(d-2) > tol {
		t.Errorf("bodies not separated to contact: distance=%v want 2", d)
	}
}

func TestElasticCollision_ObliqueExchangesNormalComponent(t *testing.T) {
	c1 := Circle{vmath.Vec2{0, 0}, 2}
	c2 := Circle{vmath.Vec2{3, 0}, 2}
	v1 := vmath.Vec2{2, 1}
	v2 := vmath.Vec2{-1, -3}
	before := totalEnergy(c1, c2, v1, v2)

	ElasticCollision(&c1, &c2, &v1, &v2)

	// Normal is +x: x components swap, y components untouched
	if !vmath.ApproxEqual(v1, vmath.Vec2{-1, 1}, tol) {
		t.Errorf("v1 = %v, want (-1,1)", v1)
	}
	if !vmath.ApproxEqual(v2, vmath.Vec2{2, -3}, tol) {
		t.Errorf("v2 = %v, want (2,-3)", v2)
	}
	if after := totalEnergy(c1, c2, v1, v2); math.Abs(after-before) > 1e-9 {
		t.Errorf("kinetic energy changed: before=%v after=%v", before, after)
	}
}

func TestElasticCollision_NotOverlappingIsNoop(t *testing.T) {
	c1 := Circle{vmath.Vec2{0, 0}, 1}
	c2 := Circle{vmath.Vec2{5, 0}, 1}
	v1 := vmath.Vec2{1, 0}
	v2 := vmath.Vec2{-1, 0}
	c1Before, c2Before, v1Before, v2Before := c1, c2, v1, v2

	ElasticCollisionAdvanced(&c1, &c2, &v1, &v2, 1.0, 0.5)

	if c1 != c1Before || c2 != c2Before || v1 != v1Before || v2 != v2Before {
		t.Errorf("non-overlapping pair mutated: c1=%v c2=%v v1=%v v2=%v", c1, c2, v1, v2)
	}
}

func TestElasticCollision_SeparatingIsNoop(t *testing.T) {
	c1 := Circle{vmath.Vec2{0, 0}, 1}
	c2 := Circle{vmath.Vec2{1.5, 0}, 1}
	v1 := vmath.Vec2{-1, 0}
	v2 := vmath.Vec2{1, 0}
	c1Before, c2Before, v1Before, v2Before := c1, c2, v1, v2

	info := ElasticCollisionAdvanced(&c1, &c2, &v1, &v2, 1.0, 0.5)

	if !info.Collided {
		t.Fatal("pair overlaps and should report contact")
	}
	if c1 != c1Before || c2 != c2Before || v1 != v1Before || v2 != v2Before {
		t.Errorf("separating pair mutated: c1=%v c2=%v v1=%v v2=%v", c1, c2, v1, v2)
	}
}

func TestElasticCollision_HeavierMovesLess(t *testing.T) {
	light := Circle{vmath.Vec2{0, 0}, 1}
	heavy := Circle{vmath.Vec2{3, 0}, 3}
	vl := vmath.Vec2{1, 0}
	vh := vmath.Vec2{0, 0}
	lightStart, heavyStart := light.Center, heavy.Center

	ElasticCollision(&light, &heavy, &vl, &vh)

	lightMoved := vmath.Distance(light.Center, lightStart)
	heavyMoved := vmath.Distance(heavy.Center, heavyStart)
	if heavyMoved >= lightMoved {
		t.Errorf("heavy moved %v, light moved %v; heavier body should move less", heavyMoved, lightMoved)
	}
	// Penetration 1 split 9:1 by mass share of the other body
	if math.Abs(lightMoved-0.9) > tol || math.Abs(heavyMoved-0.1) > tol {
		t.Errorf("split = (%v, %v), want (0.9, 0.1)", lightMoved, heavyMoved)
	}

	// Momentum along the normal is conserved
	pBefore := light.Mass()*1 + heavy.Mass()*0
	pAfter := light.Mass()*vl[0] + heavy.Mass()*vh[0]
	if math.Abs(pAfter-pBefore) > 1e-9 {
		t.Errorf("momentum before=%v after=%v", pBefore, pAfter)
	}
}

func TestElasticCollision_Restitution(t *testing.T) {
	c1 := Circle{vmath.Vec2{0, 0}, 1}
	c2 := Circle{vmath.Vec2{1.9, 0}, 1}
	v1 := vmath.Vec2{1, 0}
	v2 := vmath.Vec2{-1, 0}

	ElasticCollisionAdvanced(&c1, &c2, &v1, &v2, 0, 0)

	// Perfectly inelastic: equal masses end with zero relative normal velocity
	if math.Abs(v2[0]-v1[0]) > tol {
		t.Errorf("relative normal velocity = %v, want 0", v2[0]-v1[0])
	}
}

func TestElasticCollision_FrictionClamp(t *testing.T) {
	c1 := Circle{vmath.Vec2{0, 0}, 1}
	c2 := Circle{vmath.Vec2{1.9, 0}, 1}
	v1 := vmath.Vec2{1, 5}
	v2 := vmath.Vec2{-1, -5}
	tangentBefore := math.Abs(v2[1] - v1[1])

	ElasticCollisionAdvanced(&c1, &c2, &v1, &v2, 1.0, 0.1)

	tangentAfter := math.Abs(v2[1] - v1[1])
	if tangentAfter >= tangentBefore {
		t.Errorf("friction did not reduce tangential speed: %v -> %v", tangentBefore, tangentAfter)
	}

	// |jn| = 2 (m=1, closing speed 2, e=1); |jt| <= 0.1*2 = 0.2 per body over mass 1
	if math.Abs(v1[1]-5) > 0.2+tol || math.Abs(v2[1]+5) > 0.2+tol {
		t.Errorf("friction impulse exceeded Coulomb clamp: v1=%v v2=%v", v1, v2)
	}
}

func TestElasticCollision_NoFrictionBelowEpsilon(t *testing.T) {
	c1 := Circle{vmath.Vec2{0, 0}, 1}
	c2 := Circle{vmath.Vec2{1.9, 0}, 1}
	v1 := vmath.Vec2{1, 0.0002}
	v2 := vmath.Vec2{-1, 0}

	ElasticCollisionAdvanced(&c1, &c2, &v1, &v2, 1.0, 1.0)

	if v1[1] != 0.0002 || v2[1] != 0 {
		t.Errorf("tiny tangential motion was touched: v1=%v v2=%v", v1, v2)
	}
}

func TestResolveWindowCollision(t *testing.T) {
	b := Bounds{100, 100}
	c := Circle{vmath.Vec2{3, 50}, 5}
	v := vmath.Vec2{-10, 4}

	info := ResolveWindowCollision(&c, &v, b)
	if !info.Collided {
		t.Fatal("expected collision")
	}
	if v != (vmath.Vec2{10, 4}) {
		t.Errorf("velocity = %v, want (10,4)", v)
	}
	if math.Abs(c.Center[0]-5) > tol {
		t.Errorf("center x = %v, want pushed to 5", c.Center[0])
	}

	// Already moving inward: velocity kept
	c = Circle{vmath.Vec2{4, 50}, 5}
	v = vmath.Vec2{10, 0}
	ResolveWindowCollision(&c, &v, b)
	if v != (vmath.Vec2{10, 0}) {
		t.Errorf("inward velocity flipped: %v", v)
	}
}
