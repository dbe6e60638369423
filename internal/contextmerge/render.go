package contextmerge

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// md escapes raw HTML: summaries carry analyzer output verbatim.
var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Markdown renders the summary as a markdown document for agent consoles.
func Markdown(s *Summary) string {
	var b strings.Builder

	title := s.Title
	if title == "" {
		title = "Ticket " + s.TicketID
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "_Version %d", s.Version)
	if s.Sentiment != nil {
		fmt.Fprintf(&b, " · sentiment: %s", *s.Sentiment)
	}
	b.WriteString("_\n\n")

	if s.Summary != "" {
		b.WriteString(s.Summary)
		b.WriteString("\n\n")
	}

	section := func(heading string, items []string) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(&b, "## %s\n\n", heading)
		for _, it := range items {
			fmt.Fprintf(&b, "- %s\n", it)
		}
		b.WriteString("\n")
	}
	section("Confirmed facts", s.ConfirmedFacts)
	section("Signals", s.InferredSignals)
	section("Still unknown", s.Unknowns)
	section("Actions taken", s.ActionsTaken)

	return b.String()
}

// RenderHTML converts the summary to an HTML fragment.
func RenderHTML(s *Summary) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(Markdown(s)), &buf); err != nil {
		return "", fmt.Errorf("rendering summary: %w", err)
	}
	return buf.String(), nil
}
