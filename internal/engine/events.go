// Package engine implements the turn-loop orchestration core: the
// streaming buffer processor that classifies model output into thinking,
// answers, titles and tool calls, and the controller that drives provider
// rounds until a final answer is produced.
package engine

// EventType identifies a UI event pushed to the caller.
type EventType string

const (
	// EventThinking carries intermediate reasoning content.
	EventThinking EventType = "thinking"
	// EventResponse carries final answer content.
	EventResponse EventType = "response"
	// EventTitle carries a suggested conversation title.
	EventTitle EventType = "title"
	// EventSystem carries engine status notices (tool usage, limits).
	EventSystem EventType = "system"
	// EventError carries an error description.
	EventError EventType = "error"
	// EventComplete terminates the event stream for one request.
	// Exactly one is emitted per Run, always, even on error.
	EventComplete EventType = "complete"
)

// Event is one UI-visible engine event.
type Event struct {
	Type           EventType `json:"type"`
	Content        string    `json:"content,omitempty"`
	ToolData       string    `json:"toolData,omitempty"`
	SuggestedTitle string    `json:"suggestedTitle,omitempty"`
	ResearchTasks  []string  `json:"researchTasks,omitempty"`
}

// Notifier receives engine events in order. Implementations must not
// block for long; the engine calls them inline between stream reads.
type Notifier interface {
	Emit(Event)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(Event)

// Emit implements Notifier.
func (f NotifierFunc) Emit(ev Event) { f(ev) }

// NopNotifier discards all events.
type NopNotifier struct{}

// Emit implements Notifier.
func (NopNotifier) Emit(Event) {}
