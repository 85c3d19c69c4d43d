package physics

import (
	"math"

	"github.com/lixenwraith/simlab/vmath"
)

const (
	DefaultRestitution = 1.0
	DefaultFriction    = 0.0

	// tangentEpsilon is the minimum tangential relative speed that receives a friction impulse
	tangentEpsilon = 0.001
)

// ElasticCollision resolves two circles with perfectly elastic, frictionless response
func ElasticCollision(c1, c2 *Circle, v1, v2 *vmath.Vec2) CollisionInfo {
	return ElasticCollisionAdvanced(c1, c2, v1, v2, DefaultRestitution, DefaultFriction)
}

// ElasticCollisionAdvanced resolves an overlapping circle pair in place
// Mutates both centers and both velocities; returns the contact used
// Pairs that do not overlap, are already separating along the normal, or have
// a zero-mass member are left untouched
func ElasticCollisionAdvanced(c1, c2 *Circle, v1, v2 *vmath.Vec2, restitution, friction float64) CollisionInfo {
	info := CircleCollision(*c1, *c2)
	if !info.Collided {
		return info
	}

	m1, m2 := c1.Mass(), c2.Mass()
	if m1 <= 0 || m2 <= 0 {
		return info
	}
	invM1, invM2 := 1/m1, 1/m2
	n := info.Normal

	relVel := v2.Sub(*v1)
	velAlongNormal := vmath.Dot(relVel, n)

	// Separating pair: touching it would add energy or make it stick
	if velAlongNormal > 0 {
		return info
	}

	// Positional correction, heavier body moves less
	total := m1 + m2
	c1.Center = c1.Center.Sub(n.Mul(info.Penetration * m2 / total))
	c2.Center = c2.Center.Add(n.Mul(info.Penetration * m1 / total))

	// Normal impulse
	j := -(1 + restitution) * velAlongNormal / (invM1 + invM2)
	impulse := n.Mul(j)
	*v1 = v1.Sub(impulse.Mul(invM1))
	*v2 = v2.Add(impulse.Mul(invM2))

	if friction <= 0 {
		return info
	}

	// Coulomb friction on the pre-impulse tangential component
	tangent := relVel.Sub(n.Mul(velAlongNormal))
	if vmath.Magnitude(tangent) <= tangentEpsilon {
		return info
	}
	t := vmath.Normalize(tangent)

	jt := -vmath.Dot(relVel, t) / (invM1 + invM2)
	maxFriction := friction * math.Abs(j)
	jt = math.Max(-maxFriction, math.Min(maxFriction, jt))

	frictionImpulse := t.Mul(jt)
	*v1 = v1.Sub(frictionImpulse.Mul(invM1))
	*v2 = v2.Add(frictionImpulse.Mul(invM2))

	return info
}

// ResolveWindowCollision keeps a moving circle inside b
// Velocity heading out of the bounds is reflected about the reported normal and
// the circle is pushed back by the penetration
func ResolveWindowCollision(c *Circle, v *vmath.Vec2, b Bounds) CollisionInfo {
	info := WindowCollision(*c, b)
	if !info.Collided {
		return info
	}
	// A circle resting on the edge already moving inward keeps its velocity
	if vmath.Dot(*v, info.Normal) < 0 {
		*v = vmath.Reflect(*v, info.Normal)
	}
	c.Center = c.Center.Add(info.Normal.Mul(info.Penetration))
	return info
}

// KineticEnergy returns 1/2 m |v|^2 with mass derived from radius
func KineticEnergy(c Circle, v vmath.Vec2) float64 {
	return 0.5 * c.Mass() * vmath.MagnitudeSq(v)
}
