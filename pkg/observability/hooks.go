// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Consumers register
// hooks at startup to receive events about generation calls, graph
// merges, and simulation lifecycle.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach avoids import cycles (hooks are registered by main, not
// by libraries) and keeps the core library free of observability
// framework dependencies.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetGenerationHooks(&myGenerationHooks{})
//	    // ... run application
//	}
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Generation Hooks
// =============================================================================

// GenerationHooks receives events from the fragment-generation backend.
type GenerationHooks interface {
	// OnGenerateStart records an outgoing generation call. focusCount is
	// zero for initial generation and the selection size for expansion.
	OnGenerateStart(ctx context.Context, topic string, focusCount int)

	// OnGenerateComplete records the result of a generation call.
	OnGenerateComplete(ctx context.Context, topic string, nodeCount int, duration time.Duration, err error)
}

// =============================================================================
// Graph Hooks
// =============================================================================

// GraphHooks receives events from graph mutations.
type GraphHooks interface {
	// OnMerge records an applied merge.
	OnMerge(ctx context.Context, addedNodes, addedLinks, droppedLinks int)

	// OnReplace records a full graph replacement.
	OnReplace(ctx context.Context, nodeCount, linkCount int)
}

// =============================================================================
// Simulation Hooks
// =============================================================================

// SimulationHooks receives layout simulation lifecycle events.
type SimulationHooks interface {
	// OnSimulationStart records a (re)built simulation.
	OnSimulationStart(nodeCount, linkCount int)

	// OnSimulationSettled records a settle with the number of steps taken.
	OnSimulationSettled(steps int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopGenerationHooks is a no-op implementation of GenerationHooks.
type NoopGenerationHooks struct{}

func (NoopGenerationHooks) OnGenerateStart(context.Context, string, int) {}
func (NoopGenerationHooks) OnGenerateComplete(context.Context, string, int, time.Duration, error) {
}

// NoopGraphHooks is a no-op implementation of GraphHooks.
type NoopGraphHooks struct{}

func (NoopGraphHooks) OnMerge(context.Context, int, int, int) {}
func (NoopGraphHooks) OnReplace(context.Context, int, int)    {}

// NoopSimulationHooks is a no-op implementation of SimulationHooks.
type NoopSimulationHooks struct{}

func (NoopSimulationHooks) OnSimulationStart(int, int) {}
func (NoopSimulationHooks) OnSimulationSettled(int)    {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	generationHooks GenerationHooks = NoopGenerationHooks{}
	graphHooks      GraphHooks      = NoopGraphHooks{}
	simulationHooks SimulationHooks = NoopSimulationHooks{}
	hooksMu         sync.RWMutex
)

// SetGenerationHooks registers custom generation hooks.
// This should be called once at application startup.
func SetGenerationHooks(h GenerationHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		generationHooks = h
	}
}

// SetGraphHooks registers custom graph hooks.
// This should be called once at application startup.
func SetGraphHooks(h GraphHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		graphHooks = h
	}
}

// SetSimulationHooks registers custom simulation hooks.
// This should be called once at application startup.
func SetSimulationHooks(h SimulationHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		simulationHooks = h
	}
}

// Generation returns the registered generation hooks.
func Generation() GenerationHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return generationHooks
}

// Graph returns the registered graph hooks.
func Graph() GraphHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return graphHooks
}

// Simulation returns the registered simulation hooks.
func Simulation() SimulationHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return simulationHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	generationHooks = NoopGenerationHooks{}
	graphHooks = NoopGraphHooks{}
	simulationHooks = NoopSimulationHooks{}
}
