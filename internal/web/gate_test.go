package web

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hakawati/server/internal/models"
)

type fakeBatch struct {
	running bool
	busy    bool
	toggles int
}

func (f *fakeBatch) Running() bool { return f.running }
func (f *fakeBatch) Busy() bool    { return f.busy }

func (f *fakeBatch) Toggle() bool {
	f.toggles++
	f.running = !f.running
	return f.running
}

func TestGateRefusesManualWhileBatchRuns(t *testing.T) {
	batch := &fakeBatch{running: true}
	g := &generationGate{batch: batch}

	_, err := g.enter()
	assert.ErrorIs(t, err, models.ErrBatchRunning)

	batch.running, batch.busy = false, true
	_, err = g.enter()
	assert.ErrorIs(t, err, models.ErrBatchRunning)
}

func TestGateRefusesStartWhileManualInFlight(t *testing.T) {
	batch := &fakeBatch{}
	g := &generationGate{batch: batch}

	leave, err := g.enter()
	require.NoError(t, err)

	_, err = g.toggle()
	assert.ErrorIs(t, err, models.ErrGenerationInFlight)
	assert.Zero(t, batch.toggles)

	leave()
	running, err := g.toggle()
	require.NoError(t, err)
	assert.True(t, running)
}

func TestGateAlwaysAllowsStop(t *testing.T) {
	batch := &fakeBatch{}
	g := &generationGate{batch: batch}

	leave, err := g.enter()
	require.NoError(t, err)
	defer leave()

	batch.running = true
	running, err := g.toggle()
	require.NoError(t, err)
	assert.False(t, running)
}
