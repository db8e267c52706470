// Package toolserver implements the built-in MCP tool server the engine
// spawns over stdio: a college data search tool backed by an embedded
// dataset and a gazetteer-backed geocoder. It exists so the binary is
// useful out of the box without external tool servers configured.
package toolserver

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP SDK server and the embedded datasets.
type Server struct {
	mcpServer *mcp.Server
	name      string
	version   string
}

// Config holds tool server configuration.
type Config struct {
	Name    string
	Version string
}

// NewServer creates the built-in tool server with all tools registered.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("server name is required")
	}
	if cfg.Version == "" {
		return nil, fmt.Errorf("server version is required")
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	s := &Server{
		mcpServer: mcpServer,
		name:      cfg.Name,
		version:   cfg.Version,
	}

	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	return s, nil
}

// Run starts the MCP server on the given transport. Blocking; handles
// all protocol communication until the transport closes.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	return s.mcpServer.Run(ctx, transport)
}

// Connect attaches the server to a transport and returns the session.
// Tests use this with in-memory transports.
func (s *Server) Connect(ctx context.Context, transport mcp.Transport) (*mcp.ServerSession, error) {
	return s.mcpServer.Connect(ctx, transport, nil)
}

func (s *Server) registerTools() error {
	if err := s.registerSearchCollegeData(); err != nil {
		return fmt.Errorf("failed to register search_college_data: %w", err)
	}
	if err := s.registerGeocodeLocation(); err != nil {
		return fmt.Errorf("failed to register geocode_location: %w", err)
	}
	return nil
}

// SearchCollegeDataInput defines the input schema for search_college_data.
type SearchCollegeDataInput struct {
	Query string `json:"query" jsonschema:"Free-text query matched against college names, locations and focus areas"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum number of results to return (default 5)"`
}

func (s *Server) registerSearchCollegeData() error {
	inputSchema, err := jsonschema.For[SearchCollegeDataInput](nil)
	if err != nil {
		return fmt.Errorf("failed to create input schema: %w", err)
	}

	tool := &mcp.Tool{
		Name:        "search_college_data",
		Description: "Search the embedded college dataset by name, city, state or focus area. Returns matching colleges as JSON.",
		InputSchema: inputSchema,
	}

	mcp.AddTool(s.mcpServer, tool, func(ctx context.Context, req *mcp.CallToolRequest, in SearchCollegeDataInput) (*mcp.CallToolResult, any, error) {
		if in.Query == "" {
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: "Error: query must not be empty"}},
				IsError: true,
			}, nil, nil
		}

		matches := searchColleges(in.Query, in.Limit)
		if len(matches) == 0 {
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("No colleges matched %q", in.Query)}},
			}, nil, nil
		}

		encoded, err := encodeColleges(matches)
		if err != nil {
			return nil, nil, fmt.Errorf("encoding results: %w", err)
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: encoded}},
		}, nil, nil
	})

	return nil
}

// GeocodeLocationInput defines the input schema for geocode_location.
type GeocodeLocationInput struct {
	Location string `json:"location" jsonschema:"Place name to geocode, e.g. 'Boston, MA' or 'Cambridge'"`
}

func (s *Server) registerGeocodeLocation() error {
	inputSchema, err := jsonschema.For[GeocodeLocationInput](nil)
	if err != nil {
		return fmt.Errorf("failed to create input schema: %w", err)
	}

	tool := &mcp.Tool{
		Name:        "geocode_location",
		Description: "Resolve a place name to coordinates using the embedded gazetteer. Returns latitude and longitude as JSON.",
		InputSchema: inputSchema,
	}

	mcp.AddTool(s.mcpServer, tool, func(ctx context.Context, req *mcp.CallToolRequest, in GeocodeLocationInput) (*mcp.CallToolResult, any, error) {
		if in.Location == "" {
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: "Error: location must not be empty"}},
				IsError: true,
			}, nil, nil
		}

		place, ok := lookupPlace(in.Location)
		if !ok {
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("Unknown location %q", in.Location)}},
				IsError: true,
			}, nil, nil
		}

		encoded, err := encodePlace(place)
		if err != nil {
			return nil, nil, fmt.Errorf("encoding result: %w", err)
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: encoded}},
		}, nil, nil
	})

	return nil
}
