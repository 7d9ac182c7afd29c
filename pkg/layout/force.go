package layout

import "math"

// Force adjusts body velocities (or positions, for hard constraints) for
// one simulation step. The alpha parameter scales force strength so the
// layout converges as energy decays.
type Force interface {
	Apply(alpha float64, bodies []*Body)
}

// =============================================================================
// Spring - Link Attraction
// =============================================================================

// springLink is a resolved link between two body indices.
type springLink struct {
	a, b int
}

// Spring pulls linked bodies toward a target separation distance.
type Spring struct {
	Length   float64 // target separation
	Strength float64
	links    []springLink
}

// NewSpring builds a spring force over the given body-index pairs.
func NewSpring(length, strength float64, links []springLink) *Spring {
	return &Spring{Length: length, Strength: strength, links: links}
}

func (s *Spring) Apply(alpha float64, bodies []*Body) {
	for _, l := range s.links {
		a, b := bodies[l.a], bodies[l.b]
		dx, dy := b.X-a.X, b.Y-a.Y
		dist := math.Hypot(dx, dy)
		if dist == 0 {
			dist, dx = 1e-6, 1e-6
		}
		// Positive when stretched past the rest length, negative when
		// compressed.
		f := s.Strength * (dist - s.Length) * alpha
		fx, fy := f*dx/dist, f*dy/dist
		a.VX += fx
		a.VY += fy
		b.VX -= fx
		b.VY -= fy
	}
}

// =============================================================================
// ManyBody - Pairwise Repulsion
// =============================================================================

// ManyBody pushes all body pairs apart with inverse-square decay, which
// keeps clusters readable at large scale.
type ManyBody struct {
	Repulsion float64
}

func (m *ManyBody) Apply(alpha float64, bodies []*Body) {
	for i := 0; i < len(bodies); i++ {
		for j := i + 1; j < len(bodies); j++ {
			a, b := bodies[i], bodies[j]
			dx, dy := b.X-a.X, b.Y-a.Y
			distSq := dx*dx + dy*dy
			if distSq < 1e-6 {
				distSq, dx = 1e-6, 1e-3
			}
			dist := math.Sqrt(distSq)
			f := m.Repulsion * alpha / distSq
			fx, fy := f*dx/dist, f*dy/dist
			a.VX -= fx
			a.VY -= fy
			b.VX += fx
			b.VY += fy
		}
	}
}

// =============================================================================
// Center - Viewport Gravity
// =============================================================================

// Center pulls every body toward a fixed point so the layout does not
// drift off screen.
type Center struct {
	X, Y     float64
	Strength float64
}

func (c *Center) Apply(alpha float64, bodies []*Body) {
	for _, b := range bodies {
		b.VX += (c.X - b.X) * c.Strength * alpha
		b.VY += (c.Y - b.Y) * c.Strength * alpha
	}
}

// =============================================================================
// Collide - Minimum Separation
// =============================================================================

// Collide enforces a minimum center-to-center separation of twice the
// node radius by directly separating overlapping pairs. It corrects
// positions rather than velocities so overlaps resolve even at low alpha.
type Collide struct {
	Radius float64
}

func (c *Collide) Apply(alpha float64, bodies []*Body) {
	minDist := 2 * c.Radius
	for i := 0; i < len(bodies); i++ {
		for j := i + 1; j < len(bodies); j++ {
			a, b := bodies[i], bodies[j]
			dx, dy := b.X-a.X, b.Y-a.Y
			dist := math.Hypot(dx, dy)
			if dist >= minDist {
				continue
			}
			if dist == 0 {
				dist, dx = 1e-6, 1e-6
			}
			overlap := (minDist - dist) / 2
			ux, uy := dx/dist, dy/dist
			if !a.pinned() {
				a.X -= ux * overlap
				a.Y -= uy * overlap
			}
			if !b.pinned() {
				b.X += ux * overlap
				b.Y += uy * overlap
			}
		}
	}
}
