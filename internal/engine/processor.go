package engine

import (
	"strings"

	"github.com/counsel0/counsel/internal/conversation"
	"github.com/counsel0/counsel/internal/tagscan"
)

// State is the buffer processor's explicit per-conversation state. It is
// a plain value threaded through ProcessDelta and FinishStream and
// returned updated, never mutated in place, so the state machine is a
// pure function of (state, input) and independent runs cannot leak into
// each other.
//
// Buffer, Content and Received are per-round and reset at message start.
// SavedAnswer, TitleSent and the pending title persist across rounds
// within one turn-loop.
type State struct {
	// Buffer accumulates raw deltas that may still contain or grow
	// into tags.
	Buffer string
	// Content accumulates plain text already known to be tag-free.
	Content string

	SavedAnswer string
	AnswerSaved bool

	TitleSent       bool
	PendingTitle    string
	HasPendingTitle bool

	// Received reports whether any delta arrived this round.
	Received bool

	// SeparateTitle emits a pending title as its own title event
	// instead of bundling it into the response event.
	SeparateTitle bool
}

// NewState returns the initial processor state for one turn-loop.
func NewState(separateTitle bool) State {
	return State{SeparateTitle: separateTitle}
}

// ResetRound clears per-round accumulation at the start of a provider
// round. Cross-round fields survive so a title arriving in a later round
// still respects an already-saved answer.
func (s State) ResetRound() State {
	s.Buffer = ""
	s.Content = ""
	s.Received = false
	return s
}

// Effects is everything a processing step asks the caller to do: events
// to push, messages to append to history, tool-tag contents to execute,
// and whether the provider stream must be aborted.
type Effects struct {
	Events       []Event
	Messages     []conversation.Message
	ToolContents []string
	Abort        bool
}

func (e *Effects) merge(events []Event, msgs []conversation.Message) {
	e.Events = append(e.Events, events...)
	e.Messages = append(e.Messages, msgs...)
}

// ProcessDelta feeds one streamed text delta through the classifier.
//
// A complete tool tag takes priority over everything else: all complete
// tool tags are extracted in order, the stream is marked for abort, and
// any trailing text is discarded, because the model should not generate
// past a tool request. Otherwise complete thinking, answer and title
// tags are drained in that order, and text that can no longer become a
// tag is flushed to plain content.
func ProcessDelta(st State, delta string) (State, Effects) {
	var eff Effects
	st.Received = true
	st.Buffer += delta

	if tools, _ := tagscan.Drain("tool", st.Buffer); len(tools) > 0 {
		st.Buffer = ""
		eff.Abort = true
		// A tool call arriving after the loop-terminating answer is
		// discarded: the answer already ended this turn-loop.
		if !st.AnswerSaved {
			eff.ToolContents = tools
		}
		return st, eff
	}

	var thinking []string
	thinking, st.Buffer = tagscan.Drain("thinking", st.Buffer)
	for _, content := range thinking {
		eff.Events = append(eff.Events, Event{Type: EventThinking, Content: content})
		eff.Messages = append(eff.Messages, conversation.Thinking(content))
	}

	var answers []string
	answers, st.Buffer = tagscan.Drain("answer", st.Buffer)
	for _, content := range answers {
		if st.AnswerSaved {
			// First answer wins; later ones are drained but ignored.
			continue
		}
		var events []Event
		var msgs []conversation.Message
		st, events, msgs = st.saveAnswer(content)
		eff.merge(events, msgs)
	}

	var titles []string
	titles, st.Buffer = tagscan.Drain("title", st.Buffer)
	for _, title := range titles {
		var events []Event
		st, events = st.applyTitle(title)
		eff.Events = append(eff.Events, events...)
	}

	// Text without a '<' can never be part of a tag; flush it. Anything
	// else stays buffered until more deltas complete or rule out a tag.
	if !tagscan.MaybeTagStart(st.Buffer) {
		st.Content += st.Buffer
		st.Buffer = ""
	}

	return st, eff
}

// FinishStream applies the stream-end policy and reports whether the
// turn-loop needs another provider round.
//
// In order: a saved answer terminates the loop and any leftover content
// (late tool tags included) is discarded; an empty round terminates; then
// leftover complete tool tags trigger another round; finally leftover
// untagged text becomes the answer itself, a compatibility fallback for
// models that ignore the tag-wrapping instruction.
func FinishStream(st State) (State, Effects, bool) {
	var eff Effects
	leftover := st.Content + st.Buffer
	st.Content = ""
	st.Buffer = ""

	if st.AnswerSaved {
		return st, eff, false
	}

	if !st.Received {
		return st, eff, false
	}

	if tools, _ := tagscan.Drain("tool", leftover); len(tools) > 0 {
		eff.ToolContents = tools
		return st, eff, true
	}

	fallback := strings.TrimSpace(leftover)
	if fallback == "" {
		return st, eff, false
	}

	var events []Event
	var msgs []conversation.Message
	st, events, msgs = st.saveAnswer(fallback)
	eff.merge(events, msgs)
	return st, eff, false
}

// saveAnswer records the loop-terminating answer: research-task markers
// are split out of the content, the cleaned text is stored and appended
// as an answer-role message, and a response event is emitted carrying
// any title that arrived before the answer did.
func (s State) saveAnswer(content string) (State, []Event, []conversation.Message) {
	tasks, cleaned := tagscan.Drain("research_task", content)
	cleaned = strings.TrimSpace(cleaned)

	s.SavedAnswer = cleaned
	s.AnswerSaved = true

	response := Event{Type: EventResponse, Content: cleaned, ResearchTasks: tasks}
	var events []Event

	if s.HasPendingTitle && !s.TitleSent {
		if s.SeparateTitle {
			events = append(events, Event{Type: EventTitle, SuggestedTitle: s.PendingTitle})
		} else {
			response.SuggestedTitle = s.PendingTitle
		}
		s.TitleSent = true
		s.PendingTitle = ""
		s.HasPendingTitle = false
	}

	events = append(events, response)
	return s, events, []conversation.Message{conversation.Answer(cleaned)}
}

// applyTitle handles a complete title tag. After an answer, the title is
// pure metadata and goes out immediately; before one, it is held until
// the answer event can carry it.
func (s State) applyTitle(title string) (State, []Event) {
	if s.TitleSent {
		return s, nil
	}
	if s.AnswerSaved {
		s.TitleSent = true
		return s, []Event{{Type: EventTitle, SuggestedTitle: title}}
	}
	s.PendingTitle = title
	s.HasPendingTitle = true
	return s, nil
}
