package toolcall

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/counsel0/counsel/internal/conversation"
	"github.com/counsel0/counsel/internal/log"
)

// Notifier receives UI-visible tool lifecycle events. Implementations
// must not block; the executor calls them inline.
type Notifier interface {
	OnToolStart(name string, parameters map[string]any)
	OnToolResult(name string, result string)
	OnToolError(name string, message string)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) OnToolStart(string, map[string]any) {}
func (NopNotifier) OnToolResult(string, string)        {}
func (NopNotifier) OnToolError(string, string)         {}

// Executor runs parsed tool invocations with a bounded per-call timeout
// and folds every outcome into a user-role message.
type Executor struct {
	router  *Router
	logger  log.Logger
	timeout time.Duration
}

// NewExecutor creates an Executor. A zero timeout defaults to 30 seconds.
func NewExecutor(router *Router, logger log.Logger, timeout time.Duration) *Executor {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Executor{router: router, logger: logger, timeout: timeout}
}

// Execute parses and runs one tool-tag content string. It always returns
// a message for the history; failure is encoded in the message text, not
// in an error. The model always gets another round to react to the
// outcome, whatever it was.
func (e *Executor) Execute(ctx context.Context, content string, notify Notifier) conversation.Message {
	if notify == nil {
		notify = NopNotifier{}
	}

	inv, err := ParseInvocation(content)
	if err != nil {
		e.logger.Warn("tool call parse failed", "error", err)
		notify.OnToolError("", err.Error())
		return conversation.User(fmt.Sprintf("Tool call error: %v", err))
	}

	session, err := e.router.Resolve(inv.Name)
	if err != nil {
		e.logger.Warn("tool resolution failed", "tool", inv.Name, "error", err)
		notify.OnToolError(inv.Name, err.Error())
		return conversation.User(fmt.Sprintf("Tool call error: %v", err))
	}

	notify.OnToolStart(inv.Name, inv.Parameters)
	e.logger.Info("invoking tool", "tool", inv.Name)

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	result, err := session.CallTool(callCtx, &mcp.CallToolParams{
		Name:      inv.Name,
		Arguments: inv.Parameters,
	})
	if err != nil {
		e.logger.Warn("tool invocation failed", "tool", inv.Name, "error", err)
		notify.OnToolError(inv.Name, err.Error())
		return conversation.User(fmt.Sprintf("Tool %s error: %v", inv.Name, err))
	}

	text, err := resultText(result)
	if err != nil {
		e.logger.Warn("tool returned unusable result", "tool", inv.Name, "error", err)
		notify.OnToolError(inv.Name, err.Error())
		return conversation.User(fmt.Sprintf("Tool %s error: %v", inv.Name, err))
	}

	if result.IsError {
		notify.OnToolError(inv.Name, text)
		return conversation.User(fmt.Sprintf("Tool %s error: %s", inv.Name, text))
	}

	notify.OnToolResult(inv.Name, prettyResult(text))
	return conversation.User(fmt.Sprintf("Tool %s returned: %s", inv.Name, text))
}

// resultText extracts the first text content item. Anything else is a
// malformed result and counts as a tool failure.
func resultText(result *mcp.CallToolResult) (string, error) {
	if result == nil || len(result.Content) == 0 {
		return "", fmt.Errorf("empty tool result")
	}
	text, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		return "", fmt.Errorf("unsupported tool result content %T", result.Content[0])
	}
	return text.Text, nil
}

// prettyResult re-indents JSON results for the UI notification; raw text
// passes through unchanged.
func prettyResult(text string) string {
	var decoded any
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		return text
	}
	pretty, err := json.MarshalIndent(decoded, "", "  ")
	if err != nil {
		return text
	}
	return string(pretty)
}
