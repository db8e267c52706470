package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/counsel0/counsel/internal/provider"
)

// ScriptedProvider is a provider.Client that replays a fixed script of
// responses, one per Stream call. Each response is a sequence of text
// deltas wrapped in message start/stop events. When calls outrun the
// script, the last response repeats, which lets a test model a provider
// that keeps requesting tools forever.
type ScriptedProvider struct {
	mu        sync.Mutex
	responses [][]string
	calls     int
	requests  []provider.Request
}

// NewScriptedProvider builds a provider whose nth Stream call emits the
// nth response's deltas in order.
func NewScriptedProvider(responses ...[]string) *ScriptedProvider {
	return &ScriptedProvider{responses: responses}
}

// Deltas splits a full response into a slice of single-delta chunks.
// Convenience for scripts that don't care about chunk boundaries.
func Deltas(chunks ...string) []string {
	return chunks
}

// Name implements provider.Client.
func (p *ScriptedProvider) Name() string { return "scripted" }

// Stream implements provider.Client.
func (p *ScriptedProvider) Stream(ctx context.Context, req provider.Request, emit provider.EmitFunc) error {
	p.mu.Lock()
	idx := p.calls
	if idx >= len(p.responses) {
		idx = len(p.responses) - 1
	}
	deltas := p.responses[idx]
	p.calls++
	p.requests = append(p.requests, req)
	p.mu.Unlock()

	if err := emit(provider.Event{Type: provider.EventMessageStart}); err != nil {
		return err
	}

	for _, delta := range deltas {
		if err := ctx.Err(); err != nil {
			return err
		}
		stop, err := p.forward(emit, delta)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}

	return emit(provider.Event{Type: provider.EventMessageStop})
}

func (p *ScriptedProvider) forward(emit provider.EmitFunc, delta string) (bool, error) {
	err := emit(provider.Event{Type: provider.EventTextDelta, Text: delta})
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, provider.ErrStreamAborted):
		return true, nil
	default:
		return false, err
	}
}

// Ping implements provider.Client.
func (p *ScriptedProvider) Ping(context.Context) error { return nil }

// Calls returns how many times Stream was invoked.
func (p *ScriptedProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// Requests returns a copy of every request Stream received, in order.
func (p *ScriptedProvider) Requests() []provider.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]provider.Request, len(p.requests))
	copy(out, p.requests)
	return out
}

// ErrorProvider is a provider.Client whose Stream always fails with the
// given error after an optional prefix of deltas.
type ErrorProvider struct {
	Prefix []string
	Err    error
}

// Name implements provider.Client.
func (p *ErrorProvider) Name() string { return "error" }

// Stream implements provider.Client.
func (p *ErrorProvider) Stream(ctx context.Context, req provider.Request, emit provider.EmitFunc) error {
	if err := emit(provider.Event{Type: provider.EventMessageStart}); err != nil {
		return err
	}
	for _, delta := range p.Prefix {
		if err := emit(provider.Event{Type: provider.EventTextDelta, Text: delta}); err != nil {
			return err
		}
	}
	return p.Err
}

// Ping implements provider.Client.
func (p *ErrorProvider) Ping(context.Context) error { return p.Err }
