// Package tagscan locates XML-style control tags inside streamed model
// output. The scanner is deliberately not an XML parser: tags never nest
// within themselves, attributes do not exist, and a buffer may end in the
// middle of a tag, so plain index arithmetic on the raw text is both
// sufficient and predictable under partial input.
package tagscan

import "strings"

// Match describes one complete tag occurrence inside a buffer.
type Match struct {
	// Content is the text between the open and close tags.
	Content string
	// Full is the entire occurrence including both tags.
	Full string
	// Start is the byte offset of the opening tag in the scanned buffer.
	Start int
}

// FindCompleteTag returns the first complete <tag>…</tag> occurrence in
// buf. A buffer holding only an opening tag, or an opening tag whose close
// has not streamed in yet, yields ok=false and must be left untouched by
// the caller until more input arrives.
func FindCompleteTag(tag, buf string) (Match, bool) {
	open := "<" + tag + ">"
	close := "</" + tag + ">"

	start := strings.Index(buf, open)
	if start < 0 {
		return Match{}, false
	}
	rest := buf[start+len(open):]
	end := strings.Index(rest, close)
	if end < 0 {
		return Match{}, false
	}

	return Match{
		Content: rest[:end],
		Full:    buf[start : start+len(open)+end+len(close)],
		Start:   start,
	}, true
}

// Remove deletes the first complete occurrence of the tag from buf and
// returns the result. Buffers without a complete occurrence come back
// unchanged.
func Remove(tag, buf string) string {
	m, ok := FindCompleteTag(tag, buf)
	if !ok {
		return buf
	}
	return buf[:m.Start] + buf[m.Start+len(m.Full):]
}

// Drain repeatedly extracts complete occurrences of the tag from buf, in
// order of appearance, until none remain. It returns the extracted
// contents and the buffer with those occurrences removed. Incomplete
// occurrences stay in the returned buffer.
func Drain(tag, buf string) (contents []string, remaining string) {
	remaining = buf
	for {
		m, ok := FindCompleteTag(tag, remaining)
		if !ok {
			return contents, remaining
		}
		contents = append(contents, m.Content)
		remaining = remaining[:m.Start] + remaining[m.Start+len(m.Full):]
	}
}

// HasOpenTag reports whether buf contains the opening form of the tag,
// complete or not. The engine uses this to decide whether trailing text
// may still grow into a control tag.
func HasOpenTag(tag, buf string) bool {
	return strings.Contains(buf, "<"+tag+">")
}

// MaybeTagStart reports whether buf contains a '<' byte anywhere. Text
// without one can never become part of a tag and is safe to flush
// downstream immediately.
func MaybeTagStart(buf string) bool {
	return strings.Contains(buf, "<")
}
