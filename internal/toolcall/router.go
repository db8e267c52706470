package toolcall

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/counsel0/counsel/internal/config"
	"github.com/counsel0/counsel/internal/log"
)

// Router maps tool names to the MCP client session that serves them.
// Each configured tool server is launched once at startup; its tool list
// is queried and merged into a flat name→session table. When two servers
// expose the same tool name, the first one connected wins.
type Router struct {
	logger   log.Logger
	sessions []*mcp.ClientSession
	byName   map[string]*mcp.ClientSession
}

// NewRouter creates an empty router.
func NewRouter(logger log.Logger) *Router {
	return &Router{
		logger: logger,
		byName: make(map[string]*mcp.ClientSession),
	}
}

// Connect launches the configured tool servers over stdio and registers
// their tools. A server that fails to start or list tools is skipped with
// a warning rather than failing startup; the engine degrades to fewer
// tools.
func (r *Router) Connect(ctx context.Context, servers []config.ToolServer) error {
	client := mcp.NewClient(&mcp.Implementation{
		Name:    "counsel",
		Version: "1.0.0",
	}, nil)

	for _, srv := range servers {
		cmd := exec.Command(srv.Command, srv.Args...)
		if len(srv.Env) > 0 {
			cmd.Env = append(cmd.Environ(), srv.Env...)
		}

		session, err := client.Connect(ctx, &mcp.CommandTransport{Command: cmd}, nil)
		if err != nil {
			r.logger.Warn("tool server connection failed, skipping",
				"server", srv.Name, "command", srv.Command, "error", err)
			continue
		}

		if err := r.Register(ctx, session); err != nil {
			r.logger.Warn("tool server registration failed, skipping",
				"server", srv.Name, "error", err)
			_ = session.Close()
			continue
		}
		r.logger.Info("tool server connected", "server", srv.Name)
	}

	return nil
}

// Register lists the session's tools and adds them to the routing table.
// Used directly by tests with in-memory transports.
func (r *Router) Register(ctx context.Context, session *mcp.ClientSession) error {
	result, err := session.ListTools(ctx, nil)
	if err != nil {
		return fmt.Errorf("listing tools: %w", err)
	}

	r.sessions = append(r.sessions, session)
	for _, tool := range result.Tools {
		if _, taken := r.byName[tool.Name]; taken {
			r.logger.Warn("duplicate tool name, keeping first registration", "tool", tool.Name)
			continue
		}
		r.byName[tool.Name] = session
	}
	return nil
}

// Resolve returns the session serving the named tool.
func (r *Router) Resolve(name string) (*mcp.ClientSession, error) {
	session, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}
	return session, nil
}

// Tools returns the registered tool names.
func (r *Router) Tools() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	return names
}

// Close shuts down every connected session.
func (r *Router) Close() {
	for _, session := range r.sessions {
		if err := session.Close(); err != nil {
			r.logger.Warn("closing tool session", "error", err)
		}
	}
	r.sessions = nil
	r.byName = make(map[string]*mcp.ClientSession)
}
