package config

import "os"

// ToolServer describes one MCP tool server launched over stdio. The
// engine connects to each configured server at startup and routes tool
// invocations by tool name.
type ToolServer struct {
	Name    string   `mapstructure:"name" json:"name"`
	Command string   `mapstructure:"command" json:"command"`
	Args    []string `mapstructure:"args" json:"args"`
	Env     []string `mapstructure:"env" json:"env"`
}

// DefaultToolServers returns the built-in tool server set used when the
// config file declares none: the binary re-executes itself in MCP server
// mode, exposing the bundled research tools.
func DefaultToolServers() []ToolServer {
	exe, err := os.Executable()
	if err != nil {
		exe = "counsel"
	}
	return []ToolServer{
		{Name: "builtin", Command: exe, Args: []string{"tools"}},
	}
}
