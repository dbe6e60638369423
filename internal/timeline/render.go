package timeline

import "strings"

// Render formats already-sorted entries one per line as
// "[Source] Role: content".
func Render(entries []Entry) string {
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteByte('[')
		b.WriteString(e.Source.Label())
		b.WriteString("] ")
		b.WriteString(e.Role.Label())
		b.WriteString(": ")
		b.WriteString(e.Content)
	}
	return b.String()
}

// Group partitions already-sorted entries by source. Every list is non-nil.
func Group(entries []Entry) Grouped {
	g := Grouped{Chat: []Entry{}, AI: []Entry{}, Voice: []Entry{}, System: []Entry{}}
	for _, e := range entries {
		switch e.Source {
		case SourceChat:
			g.Chat = append(g.Chat, e)
		case SourceAI:
			g.AI = append(g.AI, e)
		case SourceVoice:
			g.Voice = append(g.Voice, e)
		case SourceSystem:
			g.System = append(g.System, e)
		}
	}
	return g
}
