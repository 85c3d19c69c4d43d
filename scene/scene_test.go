package scene

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/lixenwraith/simlab/config"
	"github.com/lixenwraith/simlab/physics"
	"github.com/lixenwraith/simlab/vmath"
)

func testRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func noLeader() config.Scene {
	cfg := config.Default().Scene
	cfg.LeaderRadius = 0
	cfg.Balls = 30
	return cfg
}

func TestNewBouncing(t *testing.T) {
	cfg := config.Default().Scene
	bounds := physics.Bounds{Width: 120, Height: 80}
	s := NewBouncing(cfg, bounds, testRand(1))

	if got, want := len(s.Bodies()), cfg.Balls+1; got != want {
		t.Fatalf("bodies = %d, want %d (balls + leader)", got, want)
	}
	leaders := 0
	for i, b := range s.Bodies() {
		if b.Leader {
			leaders++
			continue
		}
		if b.Circle.Radius < cfg.MinRadius || b.Circle.Radius > cfg.MaxRadius {
			t.Errorf("body %d radius %v outside [%v,%v]", i, b.Circle.Radius, cfg.MinRadius, cfg.MaxRadius)
		}
		if math.Abs(b.Velocity[0]) > cfg.MaxSpeed || math.Abs(b.Velocity[1]) > cfg.MaxSpeed {
			t.Errorf("body %d velocity %v exceeds %v", i, b.Velocity, cfg.MaxSpeed)
		}
		if wc := physics.WindowCollision(b.Circle, bounds); wc.Collided {
			t.Errorf("body %d spawned overlapping the border", i)
		}
	}
	if leaders != 1 {
		t.Errorf("leaders = %d, want 1", leaders)
	}
}

func TestStep_ConservesEnergy(t *testing.T) {
	s := NewBouncing(noLeader(), physics.Bounds{Width: 100, Height: 100}, testRand(7))
	before := s.KineticEnergy()

	for range 2000 {
		s.Step(1.0 / 120)
	}

	if after := s.KineticEnergy(); math.Abs(after-before) > 1e-6*before {
		t.Errorf("kinetic energy drifted: %v -> %v", before, after)
	}
	if s.Steps() != 2000 {
		t.Errorf("Steps = %d", s.Steps())
	}
}

func TestStep_KeepsBodiesInside(t *testing.T) {
	bounds := physics.Bounds{Width: 60, Height: 40}
	s := NewBouncing(config.Default().Scene, bounds, testRand(3))

	for range 1000 {
		s.Step(1.0 / 60)
	}
	for i, b := range s.Bodies() {
		c := b.Circle.Center
		if c[0] < 0 || c[0] > bounds.Width || c[1] < 0 || c[1] > bounds.Height {
			t.Errorf("body %d escaped to %v", i, c)
		}
	}
}

func TestStep_HeadOnContact(t *testing.T) {
	s := New(physics.Bounds{Width: 100, Height: 100}, 1, 0)
	s.Add(Body{Circle: physics.Circle{Center: vmath.Vec2{40, 50}, Radius: 5}, Velocity: vmath.Vec2{10, 0}})
	s.Add(Body{Circle: physics.Circle{Center: vmath.Vec2{51, 50}, Radius: 5}, Velocity: vmath.Vec2{-10, 0}})

	var impacts []float64
	s.OnImpact(func(speed float64) { impacts = append(impacts, speed) })

	s.Step(0.1) // Centers close to 9 apart, overlapping by 1

	if len(s.Contacts()) != 1 {
		t.Fatalf("contacts = %d, want 1", len(s.Contacts()))
	}
	c := s.Contacts()[0]
	if c.A != 0 || c.B != 1 || math.Abs(c.Speed-20) > 1e-9 {
		t.Errorf("contact = %+v, want 0-1 at speed 20", c)
	}
	if len(impacts) != 1 || math.Abs(impacts[0]-20) > 1e-9 {
		t.Errorf("impacts = %v, want [20]", impacts)
	}

	b := s.Bodies()
	if b[0].Velocity[0] >= 0 || b[1].Velocity[0] <= 0 {
		t.Errorf("bodies not bounced apart: %v %v", b[0].Velocity, b[1].Velocity)
	}

	// Separating now: next step records nothing
	s.Step(0.01)
	if len(s.Contacts()) != 0 {
		t.Errorf("separating pair produced contacts: %+v", s.Contacts())
	}
}

func TestStep_LeaderAccelerates(t *testing.T) {
	cfg := config.Default().Scene
	cfg.Balls = 0
	cfg.LeaderAcceleration = 10
	cfg.LeaderMaxSpeed = 25
	s := NewBouncing(cfg, physics.Bounds{Width: 1000, Height: 1000}, testRand(5))

	start := vmath.Magnitude(s.Bodies()[0].Velocity)
	s.Step(0.5)
	if got := vmath.Magnitude(s.Bodies()[0].Velocity); math.Abs(got-(start+5)) > 1e-9 {
		t.Errorf("speed = %v, want %v", got, start+5)
	}

	for range 100 {
		s.Step(0.5)
	}
	if got := vmath.Magnitude(s.Bodies()[0].Velocity); got > cfg.LeaderMaxSpeed+1e-9 {
		t.Errorf("speed %v exceeds cap %v", got, cfg.LeaderMaxSpeed)
	}
}

func TestResize(t *testing.T) {
	s := New(physics.Bounds{Width: 100, Height: 100}, 1, 0)
	s.Add(Body{Circle: physics.Circle{Center: vmath.Vec2{90, 90}, Radius: 5}})

	s.Resize(physics.Bounds{Width: 50, Height: 40})

	c := s.Bodies()[0].Circle.Center
	if c != (vmath.Vec2{45, 35}) {
		t.Errorf("center = %v, want pulled in to (45,35)", c)
	}
	if s.Bounds().Width != 50 {
		t.Errorf("bounds = %+v", s.Bounds())
	}
}

func TestNewBouncing_Deterministic(t *testing.T) {
	bounds := physics.Bounds{Width: 80, Height: 60}
	a := NewBouncing(config.Default().Scene, bounds, testRand(11))
	b := NewBouncing(config.Default().Scene, bounds, testRand(11))
	for range 200 {
		a.Step(1.0 / 60)
		b.Step(1.0 / 60)
	}
	for i := range a.Bodies() {
		if a.Bodies()[i].Circle != b.Bodies()[i].Circle {
			t.Fatalf("body %d diverged with identical seeds", i)
		}
	}
}

func TestPalette(t *testing.T) {
	p := Palette(12, testRand(2))
	if len(p) != 12 {
		t.Fatalf("len = %d", len(p))
	}
	for i, c := range p {
		if !c.IsValid() {
			t.Errorf("colour %d invalid: %v", i, c)
		}
	}
}
