package generators

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hakawati/server/internal/models"
)

type fakeImager struct {
	mu      sync.Mutex
	calls   []string
	fail    map[string]bool
	onCall  func(id string)
	onDone  func(id string)
	release chan struct{}
}

func (f *fakeImager) GenerateSceneImage(_ context.Context, id string) error {
	f.mu.Lock()
	f.calls = append(f.calls, id)
	f.mu.Unlock()

	if f.onCall != nil {
		f.onCall(id)
	}
	if f.release != nil {
		<-f.release
	}
	if f.fail[id] {
		return models.ErrGeneration
	}
	if f.onDone != nil {
		f.onDone(id)
	}
	return nil
}

func (f *fakeImager) called() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type staticScenes []models.Scene

func (s staticScenes) Scenes() []models.Scene { return models.CloneScenes(s) }

func scenesOf(ids ...string) staticScenes {
	out := staticScenes{}
	for _, id := range ids {
		out = append(out, models.Scene{ID: id, Text: "text " + id})
	}
	return out
}

// sceneBoard is a mutable scene list; markDone gives a scene its image the way
// a successful generation does.
type sceneBoard struct {
	mu     sync.Mutex
	scenes []models.Scene
}

func newSceneBoard(ids ...string) *sceneBoard {
	return &sceneBoard{scenes: scenesOf(ids...)}
}

func (s *sceneBoard) Scenes() []models.Scene {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.CloneScenes(s.scenes)
}

func (s *sceneBoard) markDone(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.scenes {
		if s.scenes[i].ID == id {
			s.scenes[i].ImageURL = models.StringPtr("/media/" + id + ".png")
		}
	}
}

func TestRunSkipsScenesWithImages(t *testing.T) {
	imager := &fakeImager{}
	b := NewBatchController(nil, imager, nil, nil)

	scenes := []models.Scene{
		{ID: "s1", ImageURL: models.StringPtr("done")},
		{ID: "s2"},
		{ID: "s3", ImageURL: models.StringPtr("")},
	}
	res := b.Run(context.Background(), NewCancelToken(), scenes)

	assert.Equal(t, []string{"s2", "s3"}, imager.called())
	assert.Equal(t, BatchResult{Generated: 2, Skipped: 1}, res)
}

func TestRunContinuesAfterFailure(t *testing.T) {
	imager := &fakeImager{fail: map[string]bool{"s2": true}}
	b := NewBatchController(nil, imager, nil, nil)

	res := b.Run(context.Background(), NewCancelToken(), scenesOf("s1", "s2", "s3"))

	assert.Equal(t, []string{"s1", "s2", "s3"}, imager.called())
	assert.Equal(t, 2, res.Generated)
	assert.Equal(t, 1, res.Failed)
	assert.False(t, res.Stopped)
}

func TestRunCancelledBetweenScenes(t *testing.T) {
	token := NewCancelToken()
	imager := &fakeImager{}
	imager.onCall = func(id string) {
		if id == "s2" {
			token.Cancel()
		}
	}
	b := NewBatchController(nil, imager, nil, nil)

	res := b.Run(context.Background(), token, scenesOf("s1", "s2", "s3", "s4"))

	// s2 was in flight when cancelled and is allowed to finish.
	assert.Equal(t, []string{"s1", "s2"}, imager.called())
	assert.Equal(t, 2, res.Generated)
	assert.True(t, res.Stopped)
}

func TestRunUsesCapturedList(t *testing.T) {
	imager := &fakeImager{}
	b := NewBatchController(nil, imager, nil, nil)

	scenes := []models.Scene(scenesOf("s1", "s2"))
	imager.onCall = func(string) { scenes[1].ImageURL = models.StringPtr("late") }

	res := b.Run(context.Background(), NewCancelToken(), models.CloneScenes(scenes))
	assert.Equal(t, 2, res.Generated)
}

func TestToggleStartsAndFinishes(t *testing.T) {
	imager := &fakeImager{}
	b := NewBatchController(scenesOf("s1", "s2"), imager, nil, nil)

	assert.True(t, b.Toggle())
	b.Wait()

	assert.False(t, b.Running())
	assert.False(t, b.Busy())
	assert.Equal(t, []string{"s1", "s2"}, imager.called())
}

func TestToggleWhileRunningStops(t *testing.T) {
	imager := &fakeImager{release: make(chan struct{})}
	started := make(chan struct{}, 1)
	imager.onCall = func(string) {
		select {
		case started <- struct{}{}:
		default:
		}
	}
	b := NewBatchController(scenesOf("s1", "s2", "s3"), imager, nil, nil)

	require.True(t, b.Toggle())
	<-started

	assert.False(t, b.Toggle())
	assert.False(t, b.Running(), "running clears immediately on stop")
	assert.True(t, b.Busy(), "in-flight scene keeps going")

	close(imager.release)
	b.Wait()

	assert.Equal(t, []string{"s1"}, imager.called())
	assert.False(t, b.Busy())
}

func TestRestartWaitsForPreviousRun(t *testing.T) {
	board := newSceneBoard("s1", "s2")
	imager := &fakeImager{release: make(chan struct{})}
	started := make(chan string, 4)
	imager.onCall = func(id string) { started <- id }
	imager.onDone = board.markDone
	b := NewBatchController(board, imager, nil, nil)

	require.True(t, b.Toggle())
	assert.Equal(t, "s1", <-started)
	require.False(t, b.Toggle())
	require.True(t, b.Toggle())

	select {
	case id := <-started:
		t.Fatalf("second run started %s while the first was in flight", id)
	case <-time.After(50 * time.Millisecond):
	}

	close(imager.release)
	b.Wait()
	assert.False(t, b.Running())
	// s1 was finished by the stopped run, so the restarted run skips it.
	assert.Equal(t, []string{"s1", "s2"}, imager.called())
}

func TestRestartWithoutNewImagesRetriesFailedScene(t *testing.T) {
	imager := &fakeImager{release: make(chan struct{}), fail: map[string]bool{"s1": true}}
	started := make(chan string, 4)
	imager.onCall = func(id string) { started <- id }
	b := NewBatchController(newSceneBoard("s1", "s2"), imager, nil, nil)

	require.True(t, b.Toggle())
	assert.Equal(t, "s1", <-started)
	require.False(t, b.Toggle())
	require.True(t, b.Toggle())

	close(imager.release)
	b.Wait()
	assert.Equal(t, []string{"s1", "s1", "s2"}, imager.called())
}

func TestCancelToken(t *testing.T) {
	token := NewCancelToken()
	assert.False(t, token.Cancelled())
	token.Cancel()
	token.Cancel()
	assert.True(t, token.Cancelled())
}

func TestStartAfterCloseDoesNothing(t *testing.T) {
	imager := &fakeImager{}
	b := NewBatchController(scenesOf("s1"), imager, nil, nil)
	b.Close()

	require.True(t, b.Start())
	b.Wait()

	assert.False(t, b.Running())
	assert.Empty(t, imager.called())
}
