package layout

import (
	"math"

	"github.com/MarkovWon/Knowdes/pkg/graph"
	"github.com/MarkovWon/Knowdes/pkg/observability"
)

// Simulation tuning constants. Alpha decays toward alphaTarget each step;
// below alphaMin (with a zero target) the simulation is settled.
const (
	alphaMin = 0.001
	// dragBoost is the alpha target applied while a body is dragged, so
	// the layout keeps responding to the moving pin.
	dragBoost = 0.3
	// seedRadius spaces freshly seeded bodies along a phyllotaxis spiral.
	seedRadius = 10.0
)

// alphaDecay reproduces the usual 300-step cooling schedule:
// 1 - alphaMin^(1/300).
var alphaDecay = 1 - math.Pow(alphaMin, 1.0/300)

// seedAngle is the golden angle in radians.
var seedAngle = math.Pi * (3 - math.Sqrt(5))

// Body is the simulation's working copy of one node. The graph's own
// nodes are never mutated during stepping.
type Body struct {
	ID     string
	X, Y   float64
	VX, VY float64

	// fx/fy pin the body while dragged; forces still accumulate but the
	// position snaps to the pin each step.
	fx, fy *float64
}

func (b *Body) pinned() bool { return b.fx != nil }

// Config holds the force parameters.
type Config struct {
	SpringLength   float64
	SpringStrength float64
	Repulsion      float64
	CenterStrength float64
	CollideRadius  float64
	// Width and Height describe the viewport; the centering force targets
	// its midpoint.
	Width, Height float64
}

// DefaultConfig returns the standard tuning.
func DefaultConfig() Config {
	return Config{
		SpringLength:   80,
		SpringStrength: 0.05,
		Repulsion:      2000,
		CenterStrength: 0.01,
		CollideRadius:  14,
		Width:          800,
		Height:         600,
	}
}

// Damping multiplies velocities each step.
const damping = 0.85

// Simulation advances a set of bodies under the configured forces.
type Simulation struct {
	bodies []*Body
	index  map[string]int
	forces []Force

	alpha       float64
	alphaTarget float64
	steps       int
}

// New builds a simulation from a graph snapshot.
//
// Nodes that already carry a position keep it, so a settled layout
// resumes near its previous shape after an expansion. Unplaced nodes are
// seeded along a phyllotaxis spiral around the viewport center, which
// avoids the coincident-start degenerate case.
func New(g graph.Graph, cfg Config) *Simulation {
	cx, cy := cfg.Width/2, cfg.Height/2

	s := &Simulation{
		index: make(map[string]int, len(g.Nodes)),
		alpha: 1,
	}

	seeded := 0
	for i := range g.Nodes {
		n := &g.Nodes[i]
		b := &Body{ID: n.ID, X: n.X, Y: n.Y}
		if n.X == 0 && n.Y == 0 {
			r := seedRadius * math.Sqrt(0.5+float64(seeded))
			a := float64(seeded) * seedAngle
			b.X = cx + r*math.Cos(a)
			b.Y = cy + r*math.Sin(a)
			seeded++
		}
		s.index[n.ID] = len(s.bodies)
		s.bodies = append(s.bodies, b)
	}

	var links []springLink
	for _, l := range g.Links {
		a, okA := s.index[l.Source]
		b, okB := s.index[l.Target]
		if okA && okB {
			links = append(links, springLink{a: a, b: b})
		}
	}

	s.forces = []Force{
		NewSpring(cfg.SpringLength, cfg.SpringStrength, links),
		&ManyBody{Repulsion: cfg.Repulsion},
		&Center{X: cx, Y: cy, Strength: cfg.CenterStrength},
		&Collide{Radius: cfg.CollideRadius},
	}

	observability.Simulation().OnSimulationStart(len(g.Nodes), len(links))
	return s
}

// Step advances the simulation by one fixed step and reports whether it
// is still running. Once settled, Step does nothing and returns false
// until the alpha target is raised again.
func (s *Simulation) Step() bool {
	if s.Settled() {
		return false
	}

	s.alpha += (s.alphaTarget - s.alpha) * alphaDecay

	for _, f := range s.forces {
		f.Apply(s.alpha, s.bodies)
	}

	for _, b := range s.bodies {
		if b.pinned() {
			b.X, b.Y = *b.fx, *b.fy
			b.VX, b.VY = 0, 0
			continue
		}
		b.VX *= damping
		b.VY *= damping
		b.X += b.VX
		b.Y += b.VY
	}

	s.steps++
	if s.Settled() {
		observability.Simulation().OnSimulationSettled(s.steps)
		return false
	}
	return true
}

// Settled reports whether the energy term has decayed below the
// stability threshold with no boost requested.
func (s *Simulation) Settled() bool {
	return s.alpha < alphaMin && s.alphaTarget == 0
}

// Alpha returns the current energy term.
func (s *Simulation) Alpha() float64 { return s.alpha }

// SetAlphaTarget raises or releases the floor alpha decays toward.
func (s *Simulation) SetAlphaTarget(t float64) { s.alphaTarget = t }

// Reheat restores full energy, restarting visible motion without
// rebuilding the simulation.
func (s *Simulation) Reheat() { s.alpha = 1 }

// =============================================================================
// Dragging
// =============================================================================

// DragStart pins the body at the given position and boosts the alpha
// target so the rest of the layout keeps reacting to the pin.
func (s *Simulation) DragStart(id string, x, y float64) {
	i, ok := s.index[id]
	if !ok {
		return
	}
	fx, fy := x, y
	s.bodies[i].fx, s.bodies[i].fy = &fx, &fy
	s.alphaTarget = dragBoost
	if s.alpha < dragBoost {
		s.alpha = dragBoost
	}
}

// DragMove repositions an active pin. No-op when the body is not pinned.
func (s *Simulation) DragMove(id string, x, y float64) {
	i, ok := s.index[id]
	if !ok || !s.bodies[i].pinned() {
		return
	}
	*s.bodies[i].fx, *s.bodies[i].fy = x, y
}

// DragEnd releases the pin and lets alpha decay back to rest.
func (s *Simulation) DragEnd(id string) {
	i, ok := s.index[id]
	if !ok {
		return
	}
	s.bodies[i].fx, s.bodies[i].fy = nil, nil
	s.alphaTarget = 0
}

// =============================================================================
// Access
// =============================================================================

// Bodies returns the simulation's working bodies. Callers must treat the
// slice as read-only between steps.
func (s *Simulation) Bodies() []*Body { return s.bodies }

// Body returns the body for id, or nil.
func (s *Simulation) Body(id string) *Body {
	if i, ok := s.index[id]; ok {
		return s.bodies[i]
	}
	return nil
}

// WriteBack copies current body positions into the graph's nodes. This is
// the only path by which simulation state reaches the data store.
func (s *Simulation) WriteBack(g *graph.Graph) {
	for i := range g.Nodes {
		if b := s.Body(g.Nodes[i].ID); b != nil {
			g.Nodes[i].X = b.X
			g.Nodes[i].Y = b.Y
		}
	}
}
