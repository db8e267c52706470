package conversation

import "strings"

// Consolidate rewrites a history containing synthetic roles into a
// provider-valid transcript. Pending thinking/answer/question content is
// flushed into a single assistant message whose body re-embeds the pieces
// as <thinking>…</thinking><answer>…</answer><question>…</question> (only
// the parts present, in that fixed order) whenever a canonical message is
// reached, and once more for any trailing pending content.
//
// Applying Consolidate to an already-consolidated list is a no-op.
func Consolidate(messages []Message) []Message {
	out := make([]Message, 0, len(messages))
	var pending syntheticRun

	for _, msg := range messages {
		if msg.Role.Synthetic() {
			pending.add(msg)
			continue
		}
		if flushed, ok := pending.flush(); ok {
			out = append(out, flushed)
		}
		out = append(out, msg)
	}

	if flushed, ok := pending.flush(); ok {
		out = append(out, flushed)
	}
	return out
}

// syntheticRun accumulates consecutive synthetic-role content between
// canonical messages. Multiple messages of the same synthetic role are
// joined with blank lines.
type syntheticRun struct {
	thinking []string
	answer   []string
	question []string
}

func (p *syntheticRun) add(msg Message) {
	switch msg.Role {
	case RoleThinking:
		p.thinking = append(p.thinking, msg.Content)
	case RoleAnswer:
		p.answer = append(p.answer, msg.Content)
	case RoleQuestion:
		p.question = append(p.question, msg.Content)
	}
}

func (p *syntheticRun) flush() (Message, bool) {
	if len(p.thinking) == 0 && len(p.answer) == 0 && len(p.question) == 0 {
		return Message{}, false
	}

	var b strings.Builder
	writeTagged(&b, "thinking", p.thinking)
	writeTagged(&b, "answer", p.answer)
	writeTagged(&b, "question", p.question)

	*p = syntheticRun{}
	return Assistant(b.String()), true
}

func writeTagged(b *strings.Builder, tag string, parts []string) {
	if len(parts) == 0 {
		return
	}
	b.WriteString("<" + tag + ">")
	b.WriteString(strings.Join(parts, "\n\n"))
	b.WriteString("</" + tag + ">")
}
