package generators

import (
	"context"
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"hakawati/server/internal/interfaces"
	"hakawati/server/internal/models"
)

// SceneImager generates and persists the image of one scene.
type SceneImager interface {
	GenerateSceneImage(ctx context.Context, sceneID string) error
}

// SceneSource provides the scene list a batch run captures when its loop
// begins.
type SceneSource interface {
	Scenes() []models.Scene
}

// CancelToken is a one-way cancellation flag for a single batch run.
type CancelToken struct {
	cancelled atomic.Bool
}

func NewCancelToken() *CancelToken {
	return &CancelToken{}
}

func (t *CancelToken) Cancel() {
	t.cancelled.Store(true)
}

func (t *CancelToken) Cancelled() bool {
	return t.cancelled.Load()
}

// BatchResult summarises one batch run.
type BatchResult struct {
	Generated int  `json:"generated"`
	Failed    int  `json:"failed"`
	Skipped   int  `json:"skipped"`
	Stopped   bool `json:"stopped"`
}

// BatchController generates images for every scene that lacks one, one
// scene at a time. A start request while running is a stop request. Stopping
// never interrupts the scene in flight; the loop ends before the next one.
type BatchController struct {
	source   SceneSource
	imager   SceneImager
	notifier interfaces.Notifier
	logger   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	current *CancelToken
	done    chan struct{}
	running atomic.Bool
	active  atomic.Int32
	wg      sync.WaitGroup
}

func NewBatchController(source SceneSource, imager SceneImager, notifier interfaces.Notifier, logger *zap.Logger) *BatchController {
	if notifier == nil {
		notifier = interfaces.NopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &BatchController{
		source:   source,
		imager:   imager,
		notifier: notifier,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Running is the flag shown to the user.
func (b *BatchController) Running() bool {
	return b.running.Load()
}

// Busy reports whether a run still has a generation call in flight, which
// can outlast Running after a stop.
func (b *BatchController) Busy() bool {
	return b.active.Load() > 0
}

// Toggle starts a run, or stops the current one. It returns the running
// flag after the request.
func (b *BatchController) Toggle() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.running.Load() {
		b.stopLocked()
		return false
	}
	b.startLocked()
	return true
}

// Start begins a run unless one is already running.
func (b *BatchController) Start() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.running.Load() {
		return false
	}
	b.startLocked()
	return true
}

// Stop requests the current run to end after its in-flight scene.
func (b *BatchController) Stop() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.running.Load() {
		return false
	}
	b.stopLocked()
	return true
}

func (b *BatchController) startLocked() {
	token := NewCancelToken()
	prev := b.done
	done := make(chan struct{})

	b.current = token
	b.done = done
	b.running.Store(true)
	b.active.Inc()
	b.wg.Add(1)

	b.notifier.Publish(interfaces.Event{Type: interfaces.EventBatchStarted})

	go func() {
		defer b.wg.Done()
		defer close(done)
		defer b.active.Dec()

		// A stopped run may still be finishing its last scene.
		if prev != nil {
			select {
			case <-prev:
			case <-b.ctx.Done():
				b.finish(token, BatchResult{Stopped: true})
				return
			}
		}
		// Captured after the wait so the previous run's last image counts.
		b.finish(token, b.Run(b.ctx, token, b.source.Scenes()))
	}()
}

func (b *BatchController) stopLocked() {
	if b.current != nil {
		b.current.Cancel()
	}
	b.running.Store(false)
	b.logger.Info("batch stop requested")
	b.notifier.Publish(interfaces.Event{Type: interfaces.EventBatchStopped})
}

// finish clears the running flag unless a newer run has replaced token.
func (b *BatchController) finish(token *CancelToken, res BatchResult) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current != token {
		return
	}
	b.current = nil
	b.running.Store(false)
	if !res.Stopped {
		b.notifier.Publish(interfaces.Event{Type: interfaces.EventBatchFinished, Payload: res})
	}
}

// Run iterates scenes in order, generating an image for each one without
// one. token and ctx are checked only between scenes. A failed scene does
// not end the run.
func (b *BatchController) Run(ctx context.Context, token *CancelToken, scenes []models.Scene) BatchResult {
	var res BatchResult
	for _, sc := range scenes {
		if token.Cancelled() || ctx.Err() != nil {
			res.Stopped = true
			break
		}
		if sc.HasImage() {
			res.Skipped++
			continue
		}

		if err := b.imager.GenerateSceneImage(ctx, sc.ID); err != nil {
			res.Failed++
			b.logger.Warn("batch scene failed", zap.String("scene_id", sc.ID), zap.Error(err))
			continue
		}
		res.Generated++
	}

	b.logger.Info("batch run ended",
		zap.Int("generated", res.Generated),
		zap.Int("failed", res.Failed),
		zap.Int("skipped", res.Skipped),
		zap.Bool("stopped", res.Stopped),
	)
	return res
}

// Wait blocks until every started run has returned.
func (b *BatchController) Wait() {
	b.wg.Wait()
}

// Close stops any run and waits for it. The in-flight call sees a cancelled
// context.
func (b *BatchController) Close() {
	b.Stop()
	b.cancel()
	b.wg.Wait()
}
