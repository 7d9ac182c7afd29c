// Package layout implements the force-directed layout simulation.
//
// A [Simulation] holds working copies of the graph's nodes and advances
// them one fixed step at a time under four forces: springs along links,
// pairwise repulsion, a centering pull, and circle collision. An energy
// term (alpha) decays every step; once it falls below a threshold the
// layout is settled and stepping becomes a no-op.
//
// The simulation never touches the graph it was built from. Callers pull
// positions out with [Simulation.Bodies] or write them back explicitly
// with [Simulation.WriteBack]. Any structural change to the graph, or a
// viewport resize, requires constructing a new Simulation from the current
// snapshot; velocities and forces are not portable across a changed
// node/link set.
//
// Scheduling is cooperative: the caller (an animation loop) invokes
// [Simulation.Step] once per frame, so input events interleave between
// steps.
package layout
