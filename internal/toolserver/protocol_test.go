package toolserver

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// connectServer creates the built-in tool server and an SDK client
// connected via in-memory transports. Returns the client session for
// making protocol calls. Both sessions are cleaned up via t.Cleanup.
func connectServer(t *testing.T) *mcp.ClientSession {
	t.Helper()

	server, err := NewServer(Config{Name: "counsel-tools", Version: "1.0.0"})
	if err != nil {
		t.Fatalf("NewServer() unexpected error: %v", err)
	}

	ctx := context.Background()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	serverSession, err := server.Connect(ctx, serverTransport)
	if err != nil {
		t.Fatalf("server.Connect() unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)

	clientSession, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client.Connect() unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = clientSession.Close() })

	return clientSession
}

// callTool invokes a tool over the session and returns the result.
func callTool(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%q) unexpected error: %v", name, err)
	}
	return result
}

// resultText extracts the first text content block of a tool result.
func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()

	if len(result.Content) == 0 {
		t.Fatal("tool result has no content")
	}
	text, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("tool result content is %T, want *mcp.TextContent", result.Content[0])
	}
	return text.Text
}

func TestNewServer_Validation(t *testing.T) {
	if _, err := NewServer(Config{Version: "1.0.0"}); err == nil {
		t.Error("NewServer() with empty name should return error")
	}
	if _, err := NewServer(Config{Name: "counsel-tools"}); err == nil {
		t.Error("NewServer() with empty version should return error")
	}
}

// TestProtocol_ListTools verifies that the MCP JSON-RPC tools/list
// endpoint returns all registered tools with correct names.
func TestProtocol_ListTools(t *testing.T) {
	session := connectServer(t)

	result, err := session.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTools() unexpected error: %v", err)
	}

	var names []string
	for _, tool := range result.Tools {
		names = append(names, tool.Name)
		if tool.Description == "" {
			t.Errorf("ListTools() tool %q has empty description", tool.Name)
		}
	}
	sort.Strings(names)

	wantNames := []string{"geocode_location", "search_college_data"}
	if len(names) != len(wantNames) {
		t.Fatalf("ListTools() returned %d tools, want %d\ngot:  %v\nwant: %v", len(names), len(wantNames), names, wantNames)
	}
	for i, got := range names {
		if got != wantNames[i] {
			t.Errorf("ListTools() tool[%d] = %q, want %q", i, got, wantNames[i])
		}
	}
}

func TestProtocol_SearchCollegeData(t *testing.T) {
	session := connectServer(t)

	result := callTool(t, session, "search_college_data", map[string]any{
		"query": "computer science",
	})
	if result.IsError {
		t.Fatalf("search_college_data returned error: %s", resultText(t, result))
	}

	var matches []College
	if err := json.Unmarshal([]byte(resultText(t, result)), &matches); err != nil {
		t.Fatalf("result is not valid JSON: %v", err)
	}
	if len(matches) == 0 {
		t.Fatal("expected at least one match for computer science")
	}
	for _, m := range matches {
		if m.Name == "" {
			t.Error("match has empty name")
		}
	}
}

func TestProtocol_SearchCollegeData_Limit(t *testing.T) {
	session := connectServer(t)

	result := callTool(t, session, "search_college_data", map[string]any{
		"query": "engineering",
		"limit": 2,
	})
	if result.IsError {
		t.Fatalf("search_college_data returned error: %s", resultText(t, result))
	}

	var matches []College
	if err := json.Unmarshal([]byte(resultText(t, result)), &matches); err != nil {
		t.Fatalf("result is not valid JSON: %v", err)
	}
	if len(matches) != 2 {
		t.Errorf("got %d matches, want 2", len(matches))
	}
}

func TestProtocol_SearchCollegeData_NoMatches(t *testing.T) {
	session := connectServer(t)

	result := callTool(t, session, "search_college_data", map[string]any{
		"query": "underwater basket weaving academy",
	})
	if result.IsError {
		t.Fatal("no matches should not be a tool error")
	}
	if text := resultText(t, result); !strings.Contains(text, "No colleges matched") {
		t.Errorf("unexpected result text: %q", text)
	}
}

func TestProtocol_SearchCollegeData_EmptyQuery(t *testing.T) {
	session := connectServer(t)

	result := callTool(t, session, "search_college_data", map[string]any{
		"query": "",
	})
	if !result.IsError {
		t.Error("empty query should return a tool error")
	}
}

func TestProtocol_GeocodeLocation(t *testing.T) {
	session := connectServer(t)

	result := callTool(t, session, "geocode_location", map[string]any{
		"location": "Boston, MA",
	})
	if result.IsError {
		t.Fatalf("geocode_location returned error: %s", resultText(t, result))
	}

	var place Place
	if err := json.Unmarshal([]byte(resultText(t, result)), &place); err != nil {
		t.Fatalf("result is not valid JSON: %v", err)
	}
	if place.Name != "Boston" || place.State != "MA" {
		t.Errorf("got %s, %s; want Boston, MA", place.Name, place.State)
	}
	if place.Latitude == 0 || place.Longitude == 0 {
		t.Error("coordinates should be non-zero")
	}
}

func TestProtocol_GeocodeLocation_BareName(t *testing.T) {
	session := connectServer(t)

	result := callTool(t, session, "geocode_location", map[string]any{
		"location": "seattle",
	})
	if result.IsError {
		t.Fatalf("geocode_location returned error: %s", resultText(t, result))
	}

	var place Place
	if err := json.Unmarshal([]byte(resultText(t, result)), &place); err != nil {
		t.Fatalf("result is not valid JSON: %v", err)
	}
	if place.State != "WA" {
		t.Errorf("got state %q, want WA", place.State)
	}
}

func TestProtocol_GeocodeLocation_Unknown(t *testing.T) {
	session := connectServer(t)

	result := callTool(t, session, "geocode_location", map[string]any{
		"location": "Atlantis",
	})
	if !result.IsError {
		t.Error("unknown location should return a tool error")
	}
	if text := resultText(t, result); !strings.Contains(text, "Unknown location") {
		t.Errorf("unexpected error text: %q", text)
	}
}
