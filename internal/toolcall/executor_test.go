package toolcall

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/counsel0/counsel/internal/conversation"
	"github.com/counsel0/counsel/internal/log"
)

type echoInput struct {
	Query string `json:"query"`
}

// newTestRouter builds a router connected over in-memory transports to a
// server exposing echo (success), fail (IsError result) and slow (never
// returns before the executor timeout).
func newTestRouter(t *testing.T) *Router {
	t.Helper()

	server := mcp.NewServer(&mcp.Implementation{Name: "test-tools", Version: "1.0.0"}, nil)

	echoSchema, err := jsonschema.For[echoInput](nil)
	require.NoError(t, err)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "echo",
		Description: "Echo the query back.",
		InputSchema: echoSchema,
	}, func(ctx context.Context, req *mcp.CallToolRequest, in echoInput) (*mcp.CallToolResult, any, error) {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "echo: " + in.Query}},
		}, nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "fail",
		Description: "Always fails.",
		InputSchema: echoSchema,
	}, func(ctx context.Context, req *mcp.CallToolRequest, in echoInput) (*mcp.CallToolResult, any, error) {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "backend unavailable"}},
			IsError: true,
		}, nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "slow",
		Description: "Blocks until the context is cancelled.",
		InputSchema: echoSchema,
	}, func(ctx context.Context, req *mcp.CallToolRequest, in echoInput) (*mcp.CallToolResult, any, error) {
		<-ctx.Done()
		return nil, nil, ctx.Err()
	})

	ctx := context.Background()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	clientSession, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = clientSession.Close() })

	router := NewRouter(log.NewNop())
	require.NoError(t, router.Register(ctx, clientSession))
	return router
}

// recordingNotifier captures notification calls in order.
type recordingNotifier struct {
	calls []string
}

func (n *recordingNotifier) OnToolStart(name string, _ map[string]any) {
	n.calls = append(n.calls, "start:"+name)
}

func (n *recordingNotifier) OnToolResult(name, result string) {
	n.calls = append(n.calls, fmt.Sprintf("result:%s:%s", name, result))
}

func (n *recordingNotifier) OnToolError(name, msg string) {
	n.calls = append(n.calls, "error:"+name)
}

func TestRouter_Resolve(t *testing.T) {
	router := newTestRouter(t)

	_, err := router.Resolve("echo")
	require.NoError(t, err)

	_, err = router.Resolve("nope")
	assert.ErrorIs(t, err, ErrUnknownTool)

	assert.ElementsMatch(t, []string{"echo", "fail", "slow"}, router.Tools())
}

func TestExecutor_Success(t *testing.T) {
	router := newTestRouter(t)
	exec := NewExecutor(router, log.NewNop(), time.Second)

	notify := &recordingNotifier{}
	content := `<name>echo</name><parameters>{"query":"MIT"}</parameters>`
	msg := exec.Execute(context.Background(), content, notify)

	assert.Equal(t, conversation.RoleUser, msg.Role)
	assert.Equal(t, "Tool echo returned: echo: MIT", msg.Content)
	require.Len(t, notify.calls, 2)
	assert.Equal(t, "start:echo", notify.calls[0])
	assert.True(t, strings.HasPrefix(notify.calls[1], "result:echo:"))
}

func TestExecutor_ToolReportedError(t *testing.T) {
	router := newTestRouter(t)
	exec := NewExecutor(router, log.NewNop(), time.Second)

	content := `<name>fail</name><parameters>{"query":"x"}</parameters>`
	msg := exec.Execute(context.Background(), content, nil)

	assert.Equal(t, conversation.RoleUser, msg.Role)
	assert.Equal(t, "Tool fail error: backend unavailable", msg.Content)
}

func TestExecutor_Timeout(t *testing.T) {
	router := newTestRouter(t)
	exec := NewExecutor(router, log.NewNop(), 50*time.Millisecond)

	notify := &recordingNotifier{}
	content := `<name>slow</name><parameters>{"query":"x"}</parameters>`
	msg := exec.Execute(context.Background(), content, notify)

	assert.Equal(t, conversation.RoleUser, msg.Role)
	assert.Contains(t, msg.Content, "Tool slow error:")
	assert.Contains(t, notify.calls, "error:slow")
}

func TestExecutor_MalformedCall(t *testing.T) {
	router := newTestRouter(t)
	exec := NewExecutor(router, log.NewNop(), time.Second)

	msg := exec.Execute(context.Background(), `<name>X</name><parameters>{not valid json}</parameters>`, nil)

	assert.Equal(t, conversation.RoleUser, msg.Role)
	assert.Contains(t, msg.Content, "Tool call error")
}

func TestExecutor_UnknownTool(t *testing.T) {
	router := newTestRouter(t)
	exec := NewExecutor(router, log.NewNop(), time.Second)

	msg := exec.Execute(context.Background(), `<name>mystery</name><parameters>{}</parameters>`, nil)

	assert.Equal(t, conversation.RoleUser, msg.Role)
	assert.Contains(t, msg.Content, "Tool call error")
	assert.Contains(t, msg.Content, "unknown tool")
}
