package web

import (
	"sync"

	"hakawati/server/internal/models"
)

// batchState is the part of the batch controller the gate needs.
type batchState interface {
	Running() bool
	Busy() bool
	Toggle() bool
}

// generationGate keeps manual image generation and the batch run apart: a
// manual call is refused while a batch runs, and a batch cannot start while a
// manual call is in flight. Stopping a batch is always allowed.
type generationGate struct {
	mu       sync.Mutex
	batch    batchState
	inflight int
}

// enter registers a manual generation. The returned func must be called when
// the call is done.
func (g *generationGate) enter() (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.batch.Running() || g.batch.Busy() {
		return nil, models.ErrBatchRunning
	}
	g.inflight++
	return g.leave, nil
}

func (g *generationGate) leave() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.inflight--
}

// toggle flips the batch. Starting is refused while a manual call runs.
func (g *generationGate) toggle() (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.batch.Running() && g.inflight > 0 {
		return false, models.ErrGenerationInFlight
	}
	return g.batch.Toggle(), nil
}
