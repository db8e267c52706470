// Package toolcall parses tool invocations out of extracted tool-tag
// content and executes them against MCP tool servers.
//
// Failure philosophy: nothing here is fatal to a turn. Parse failures,
// unknown tools, timeouts and handler errors all normalize into user-role
// diagnostic messages the model can read on its next round.
package toolcall

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/counsel0/counsel/internal/tagscan"
)

var (
	// ErrMalformedCall indicates the tool tag content is missing its
	// name or parameters sub-tag.
	ErrMalformedCall = errors.New("malformed tool call")

	// ErrBadParameters indicates the parameters sub-tag is not a JSON
	// object.
	ErrBadParameters = errors.New("invalid tool parameters")

	// ErrUnknownTool indicates no connected server exposes the tool.
	ErrUnknownTool = errors.New("unknown tool")
)

// Invocation is a parsed tool call.
type Invocation struct {
	Name       string
	Parameters map[string]any
}

// ParseInvocation extracts a tool name and JSON parameters from the
// content of a tool tag. The content must hold a <name> sub-tag and a
// <parameters> sub-tag whose body is a JSON object.
func ParseInvocation(content string) (Invocation, error) {
	name, ok := tagscan.FindCompleteTag("name", content)
	if !ok {
		return Invocation{}, fmt.Errorf("%w: missing <name> tag", ErrMalformedCall)
	}

	params, ok := tagscan.FindCompleteTag("parameters", content)
	if !ok {
		return Invocation{}, fmt.Errorf("%w: missing <parameters> tag", ErrMalformedCall)
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(params.Content), &parsed); err != nil {
		return Invocation{}, fmt.Errorf("%w: %v", ErrBadParameters, err)
	}

	return Invocation{Name: name.Content, Parameters: parsed}, nil
}
