package scene

import (
	"math"
	"math/rand/v2"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/lixenwraith/simlab/config"
	"github.com/lixenwraith/simlab/physics"
	"github.com/lixenwraith/simlab/vmath"
)

// Body is one simulated ball
type Body struct {
	Circle   physics.Circle
	Velocity vmath.Vec2
	Color    colorful.Color
	Leader   bool
}

// Contact is a resolved pair collision from the last step
type Contact struct {
	A, B  int
	Info  physics.CollisionInfo
	Speed float64 // closing speed along the normal before resolution
}

// Scene is a set of balls bouncing inside a rectangle
// Not safe for concurrent use; the physics manager's data lock guards it in threaded mode
type Scene struct {
	bounds      physics.Bounds
	bodies      []Body
	restitution float64
	friction    float64

	leaderAccel    float64
	leaderMaxSpeed float64

	grid     *Grid
	contacts []Contact
	onImpact func(speed float64)
	steps    uint64
}

// New creates an empty scene
func New(bounds physics.Bounds, restitution, friction float64) *Scene {
	return &Scene{
		bounds:      bounds,
		restitution: restitution,
		friction:    friction,
		grid:        NewGrid(bounds.Width, bounds.Height, 1),
	}
}

// NewBouncing creates a scene populated from cfg with random radii, positions,
// velocities and colours drawn from rng
func NewBouncing(cfg config.Scene, bounds physics.Bounds, rng *rand.Rand) *Scene {
	s := New(bounds, cfg.Restitution, cfg.Friction)
	s.leaderMaxSpeed = cfg.LeaderMaxSpeed
	s.leaderAccel = cfg.LeaderAcceleration

	palette := Palette(cfg.Balls, rng)
	for i := range cfg.Balls {
		r := cfg.MinRadius + rng.Float64()*(cfg.MaxRadius-cfg.MinRadius)
		s.Add(Body{
			Circle:   physics.Circle{Center: randomInside(bounds, r, rng), Radius: r},
			Velocity: vmath.Vec2{randRange(rng, cfg.MaxSpeed), randRange(rng, cfg.MaxSpeed)},
			Color:    palette[i],
		})
	}

	if cfg.LeaderRadius > 0 {
		r := cfg.LeaderRadius
		heading := vmath.Rotate(vmath.Vec2{1, 0}, rng.Float64()*360)
		s.Add(Body{
			Circle:   physics.Circle{Center: randomInside(bounds, r, rng), Radius: r},
			Velocity: heading.Mul(cfg.MaxSpeed),
			Color:    colorful.Hsv(120, 1, 1),
			Leader:   true,
		})
	}
	return s
}

// Palette returns n visually distinct colours spread around the hue wheel
func Palette(n int, rng *rand.Rand) []colorful.Color {
	out := make([]colorful.Color, n)
	offset := rng.Float64() * 360
	for i := range out {
		hue := math.Mod(offset+float64(i)*360/float64(max(n, 1)), 360)
		out[i] = colorful.Hsv(hue, 0.7+0.3*rng.Float64(), 0.8+0.2*rng.Float64())
	}
	return out
}

func randRange(rng *rand.Rand, limit float64) float64 {
	return (rng.Float64()*2 - 1) * limit
}

func randomInside(b physics.Bounds, r float64, rng *rand.Rand) vmath.Vec2 {
	x := r + rng.Float64()*max(b.Width-2*r, 0)
	y := r + rng.Float64()*max(b.Height-2*r, 0)
	return vmath.Vec2{x, y}
}

// Add appends a body and refits the grid to the largest radius
func (s *Scene) Add(b Body) int {
	s.bodies = append(s.bodies, b)
	s.refitGrid()
	return len(s.bodies) - 1
}

// refitGrid sizes cells to the largest diameter so colliding pairs share or neighbour a cell
func (s *Scene) refitGrid() {
	maxR := 0.0
	for _, b := range s.bodies {
		maxR = max(maxR, b.Circle.Radius)
	}
	s.grid.Resize(s.bounds.Width, s.bounds.Height, 2*maxR)
}

// OnImpact registers fn, called from Step for each resolved pair with its closing speed
func (s *Scene) OnImpact(fn func(speed float64)) {
	s.onImpact = fn
}

// Bodies returns the live body slice; callers hold the same lock as Step
func (s *Scene) Bodies() []Body {
	return s.bodies
}

// Bounds returns the current container
func (s *Scene) Bounds() physics.Bounds {
	return s.bounds
}

// Contacts returns pair collisions resolved during the last Step
func (s *Scene) Contacts() []Contact {
	return s.contacts
}

// Steps returns the number of Step calls
func (s *Scene) Steps() uint64 {
	return s.steps
}

// Resize changes the container, pulling bodies back inside
func (s *Scene) Resize(b physics.Bounds) {
	s.bounds = b
	for i := range s.bodies {
		body := &s.bodies[i]
		r := body.Circle.Radius
		body.Circle.Center = vmath.Vec2{
			math.Min(math.Max(body.Circle.Center[0], r), math.Max(b.Width-r, r)),
			math.Min(math.Max(body.Circle.Center[1], r), math.Max(b.Height-r, r)),
		}
	}
	s.refitGrid()
}

// KineticEnergy returns the total kinetic energy of all bodies
func (s *Scene) KineticEnergy() float64 {
	total := 0.0
	for _, b := range s.bodies {
		total += physics.KineticEnergy(b.Circle, b.Velocity)
	}
	return total
}

// Step advances the scene by dt seconds
// Integrates positions, bounces off the container, then resolves pairs found through the grid
func (s *Scene) Step(dt float64) {
	s.steps++
	s.contacts = s.contacts[:0]

	// Leader acceleration is split around the integration step
	s.accelerateLeaders(dt / 2)

	s.grid.Clear()
	for i := range s.bodies {
		b := &s.bodies[i]
		b.Circle.Center = b.Circle.Center.Add(b.Velocity.Mul(dt))
		physics.ResolveWindowCollision(&b.Circle, &b.Velocity, s.bounds)
		s.grid.Add(i, b.Circle.Center)
	}

	s.grid.Pairs(s.resolvePair)

	s.accelerateLeaders(dt / 2)
}

func (s *Scene) resolvePair(i, j int) {
	a, b := &s.bodies[i], &s.bodies[j]
	va, vb := a.Velocity, b.Velocity

	info := physics.ElasticCollisionAdvanced(&a.Circle, &b.Circle, &a.Velocity, &b.Velocity, s.restitution, s.friction)
	if !info.Collided {
		return
	}

	closing := -vmath.Dot(vb.Sub(va), info.Normal)
	if closing <= 0 {
		// Already separating, response was a no-op
		return
	}

	s.contacts = append(s.contacts, Contact{A: i, B: j, Info: info, Speed: closing})
	if s.onImpact != nil {
		s.onImpact(closing)
	}
}

func (s *Scene) accelerateLeaders(dt float64) {
	if s.leaderAccel == 0 {
		return
	}
	for i := range s.bodies {
		b := &s.bodies[i]
		if !b.Leader {
			continue
		}
		dir := vmath.Normalize(b.Velocity)
		b.Velocity = b.Velocity.Add(dir.Mul(s.leaderAccel * dt))
		if s.leaderMaxSpeed > 0 {
			if speed := vmath.Magnitude(b.Velocity); speed > s.leaderMaxSpeed {
				b.Velocity = dir.Mul(s.leaderMaxSpeed)
			}
		}
	}
}
