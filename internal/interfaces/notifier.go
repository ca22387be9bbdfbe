package interfaces

// Event kinds published to connected front ends.
const (
	EventNotice         = "notice"
	EventSceneUpdated   = "scene_updated"
	EventCharacterReady = "character_updated"
	EventBatchStarted   = "batch_started"
	EventBatchStopped   = "batch_stopped"
	EventBatchFinished  = "batch_finished"
)

// Event is a user-visible change or notice.
type Event struct {
	Type     string `json:"type"`
	EntityID string `json:"entityId,omitempty"`
	Message  string `json:"message,omitempty"`
	Payload  any    `json:"payload,omitempty"`
}

// Notifier delivers events without blocking the caller.
type Notifier interface {
	Publish(evt Event)
}

// NopNotifier drops every event.
type NopNotifier struct{}

func (NopNotifier) Publish(Event) {}
