package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/counsel0/counsel/internal/conversation"
	"github.com/counsel0/counsel/internal/log"
	"github.com/counsel0/counsel/internal/provider"
	"github.com/counsel0/counsel/internal/toolcall"
)

// ErrStreamFailed wraps provider-transport failures surfaced out of Run.
// Tool and parse failures never reach this; they are folded into the
// transcript instead.
var ErrStreamFailed = errors.New("provider stream failed")

// forcedFinalInstruction is injected when the step ceiling is reached.
const forcedFinalInstruction = "You have used the maximum number of allowed tool steps. " +
	"Do not request any more tools. Provide your final answer now, " +
	"wrapped in <answer></answer> tags."

// Options configures a Controller.
type Options struct {
	Model       string
	System      string
	MaxTokens   int
	Temperature float32

	// MaxSteps bounds normal provider rounds; one forced-final round
	// runs after the ceiling. Zero means the default of 50.
	MaxSteps int

	// ProviderTimeout bounds each provider call. Zero means 180s.
	ProviderTimeout time.Duration

	// SeparateTitleEvents emits titles as standalone events instead of
	// bundling them into the response event.
	SeparateTitleEvents bool
}

func (o *Options) applyDefaults() {
	if o.MaxSteps <= 0 {
		o.MaxSteps = 50
	}
	if o.ProviderTimeout <= 0 {
		o.ProviderTimeout = 180 * time.Second
	}
}

// ToolRunner executes one parsed tool-tag content string and returns the
// user-role message to fold into history. *toolcall.Executor implements
// it.
type ToolRunner interface {
	Execute(ctx context.Context, content string, notify toolcall.Notifier) conversation.Message
}

// Controller drives the turn-loop for one conversation at a time: it
// consolidates history, streams a provider round through the buffer
// processor, executes any requested tools, and repeats until an answer
// lands or the circuit breaker trips. A Controller is safe for use by
// one conversation per Run call; concurrent Runs must use separate
// History instances.
type Controller struct {
	client   provider.Client
	executor ToolRunner
	logger   log.Logger
	limiter  *rate.Limiter
	opts     Options
}

// NewController creates a Controller. The limiter smooths provider call
// bursts across conversations; nil disables limiting.
func NewController(client provider.Client, executor ToolRunner, logger log.Logger, limiter *rate.Limiter, opts Options) *Controller {
	opts.applyDefaults()
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 0)
	}
	return &Controller{
		client:   client,
		executor: executor,
		logger:   logger,
		limiter:  limiter,
		opts:     opts,
	}
}

// Run executes the turn-loop for the given history, pushing UI events to
// notify. History is appended to as the loop progresses; the caller owns
// persisting it afterwards. Exactly one complete event is emitted before
// Run returns, on every path.
func (c *Controller) Run(ctx context.Context, history *conversation.History, notify Notifier) error {
	if notify == nil {
		notify = NopNotifier{}
	}
	defer notify.Emit(Event{Type: EventComplete})

	st := NewState(c.opts.SeparateTitleEvents)

	for round := 1; ; round++ {
		forced := round > c.opts.MaxSteps
		if forced {
			history.Append(conversation.User(forcedFinalInstruction))
			notify.Emit(Event{
				Type: EventSystem,
				Content: fmt.Sprintf(
					"Maximum tool steps (%d) reached; requesting a final answer.",
					c.opts.MaxSteps),
			})
			c.logger.Warn("circuit breaker tripped, forcing final round",
				"max_steps", c.opts.MaxSteps)
		}

		if err := c.limiter.Wait(ctx); err != nil {
			notify.Emit(Event{Type: EventError, Content: err.Error()})
			return fmt.Errorf("%w: %v", ErrStreamFailed, err)
		}

		var pendingTools []string
		next, err := c.streamRound(ctx, history, notify, st, &pendingTools)
		if err != nil {
			notify.Emit(Event{Type: EventError, Content: err.Error()})
			return fmt.Errorf("%w: %v", ErrStreamFailed, err)
		}
		st = next

		// Mid-stream tool short-circuit: execute sequentially, in the
		// order the closing tags appeared, then take another round.
		if len(pendingTools) > 0 {
			if forced {
				c.logger.Warn("tool calls in forced-final round discarded",
					"count", len(pendingTools))
				return nil
			}
			c.runTools(ctx, history, notify, pendingTools)
			continue
		}

		var eff Effects
		var cont bool
		st, eff, cont = FinishStream(st)
		c.apply(history, notify, eff)

		// Leftover tool tags found at stream end also demand a
		// follow-up round.
		if len(eff.ToolContents) > 0 {
			if forced {
				c.logger.Warn("tool calls in forced-final round discarded",
					"count", len(eff.ToolContents))
				return nil
			}
			c.runTools(ctx, history, notify, eff.ToolContents)
			continue
		}

		if forced || !cont {
			return nil
		}
	}
}

// streamRound performs one provider call, feeding deltas through the
// processor. Tool detection aborts the underlying stream; detected tool
// contents are handed back through pendingTools.
func (c *Controller) streamRound(ctx context.Context, history *conversation.History, notify Notifier, st State, pendingTools *[]string) (State, error) {
	msgs := conversation.Consolidate(history.Messages())

	callCtx, cancel := context.WithTimeout(ctx, c.opts.ProviderTimeout)
	defer cancel()

	req := provider.Request{
		Model:       c.opts.Model,
		System:      c.opts.System,
		Messages:    msgs,
		MaxTokens:   c.opts.MaxTokens,
		Temperature: c.opts.Temperature,
	}

	err := c.client.Stream(callCtx, req, func(ev provider.Event) error {
		switch ev.Type {
		case provider.EventMessageStart:
			st = st.ResetRound()
		case provider.EventTextDelta:
			var eff Effects
			st, eff = ProcessDelta(st, ev.Text)
			c.apply(history, notify, eff)
			if eff.Abort {
				*pendingTools = append(*pendingTools, eff.ToolContents...)
				return provider.ErrStreamAborted
			}
		case provider.EventMessageStop:
			// Stream-end policy runs in FinishStream after the call
			// returns.
		}
		return nil
	})
	if err != nil {
		return st, err
	}
	return st, nil
}

// runTools executes detected tool calls sequentially and folds each
// outcome into the history as a user-role message.
func (c *Controller) runTools(ctx context.Context, history *conversation.History, notify Notifier, contents []string) {
	toolNotify := &toolEventNotifier{notify: notify}
	for _, content := range contents {
		msg := c.executor.Execute(ctx, content, toolNotify)
		history.Append(msg)
	}
}

// apply pushes effects out: events to the notifier, messages to the
// history. ToolContents and Abort are handled by the caller.
func (c *Controller) apply(history *conversation.History, notify Notifier, eff Effects) {
	for _, ev := range eff.Events {
		notify.Emit(ev)
	}
	if len(eff.Messages) > 0 {
		history.Append(eff.Messages...)
	}
}

// toolEventNotifier adapts tool lifecycle callbacks onto the engine's
// event stream.
type toolEventNotifier struct {
	notify Notifier
}

func (n *toolEventNotifier) OnToolStart(name string, _ map[string]any) {
	n.notify.Emit(Event{
		Type:    EventSystem,
		Content: fmt.Sprintf("Using tool %s", name),
	})
}

func (n *toolEventNotifier) OnToolResult(name, result string) {
	n.notify.Emit(Event{
		Type:     EventSystem,
		Content:  fmt.Sprintf("Tool %s completed", name),
		ToolData: result,
	})
}

func (n *toolEventNotifier) OnToolError(name, message string) {
	content := fmt.Sprintf("Tool error: %s", message)
	if name != "" {
		content = fmt.Sprintf("Tool %s error: %s", name, message)
	}
	n.notify.Emit(Event{Type: EventError, Content: content})
}
