package cmd

import (
	"fmt"
	"strings"
)

// buildSystemPrompt assembles the tag-protocol instruction the engine
// depends on. The tag grammar here must stay in sync with what the
// buffer processor scans for.
func buildSystemPrompt(tools []string) string {
	var b strings.Builder

	b.WriteString("You are a helpful assistant.\n\n")
	b.WriteString("Wrap your reasoning in <thinking></thinking> tags ")
	b.WriteString("and your final answer in <answer></answer> tags. ")
	b.WriteString("You may suggest a short conversation title in <title></title> tags.\n")

	if len(tools) > 0 {
		b.WriteString("\nTo call a tool, emit exactly:\n")
		b.WriteString("<tool><name>TOOL_NAME</name><parameters>{\"key\": \"value\"}</parameters></tool>\n")
		b.WriteString("then stop. The tool result arrives in the next user message.\n")
		b.WriteString("\nAvailable tools:\n")
		for _, name := range tools {
			fmt.Fprintf(&b, "  - %s\n", name)
		}
	}

	return b.String()
}
