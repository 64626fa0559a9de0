package render

import (
	"errors"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	traceTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "160", Dark: "203"}).
			Bold(true)
	tracePathStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "238", Dark: "252"})
	traceCauseStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "240", Dark: "245"})
	traceHintStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "244", Dark: "240"}).Italic(true)
)

// FormatTrace builds the in-pane diagnostic shown when rendering a file
// fails. It replaces the content view; the session itself stays alive.
func FormatTrace(path string, err error) string {
	var b strings.Builder
	b.WriteString(traceTitleStyle.Render("render failed"))
	b.WriteByte('\n')
	if path != "" {
		b.WriteString(tracePathStyle.Render(path))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')

	indent := ""
	for _, msg := range causeChain(err) {
		b.WriteString(indent)
		b.WriteString(traceCauseStyle.Render(msg))
		b.WriteByte('\n')
		indent += "  "
	}

	b.WriteByte('\n')
	b.WriteString(traceHintStyle.Render("select another file to continue"))
	return b.String()
}

// causeChain flattens a wrapped error into one message per layer, with the
// repeated suffix of each outer message trimmed away.
func causeChain(err error) []string {
	var chain []string
	for err != nil {
		msg := err.Error()
		inner := errors.Unwrap(err)
		if inner != nil {
			if trimmed := strings.TrimSuffix(msg, inner.Error()); trimmed != msg {
				msg = strings.TrimSuffix(strings.TrimSpace(trimmed), ":")
			}
		}
		if msg != "" {
			chain = append(chain, msg)
		}
		err = inner
	}
	if len(chain) == 0 {
		return []string{"unknown error"}
	}
	return chain
}
