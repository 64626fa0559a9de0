package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	indentStep = 4
	tabWidth   = 4
)

var (
	gutterStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "249", Dark: "240"})
	guideStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "253", Dark: "237"})
)

// addGutter prefixes every highlighted line with a right-aligned line number
// and replaces the leading indentation with indent guides. highlighted and
// raw must describe the same text; raw is needed because the highlighted
// variant carries ANSI escapes that make indentation hard to measure.
func addGutter(highlighted, raw string) (string, int) {
	rawLines := strings.Split(raw, "\n")
	hlLines := strings.Split(highlighted, "\n")
	if len(rawLines) > 1 && rawLines[len(rawLines)-1] == "" {
		rawLines = rawLines[:len(rawLines)-1]
	}
	if len(hlLines) > len(rawLines) {
		hlLines = hlLines[:len(rawLines)]
	}

	digits := len(strconv.Itoa(len(rawLines)))

	var b strings.Builder
	for i, rawLine := range rawLines {
		hlLine := ""
		if i < len(hlLines) {
			hlLine = hlLines[i]
		}

		chars, cols := measureIndent(rawLine)
		b.WriteString(gutterStyle.Render(fmt.Sprintf("%*d │ ", digits, i+1)))
		if cols > 0 {
			b.WriteString(guideStyle.Render(buildGuides(cols)))
		}
		b.WriteString(skipChars(hlLine, chars))
		if i < len(rawLines)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String(), len(rawLines)
}

// measureIndent returns the number of leading whitespace characters and the
// display columns they occupy, expanding tabs to tabWidth stops.
func measureIndent(line string) (chars, cols int) {
	for _, r := range line {
		switch r {
		case ' ':
			cols++
		case '\t':
			cols += tabWidth - cols%tabWidth
		default:
			return chars, cols
		}
		chars++
	}
	return chars, cols
}

// buildGuides draws a vertical guide at every indent stop within the given
// column span.
func buildGuides(cols int) string {
	var b strings.Builder
	for c := 0; c < cols; c++ {
		if c%indentStep == 0 {
			b.WriteRune('│')
		} else {
			b.WriteByte(' ')
		}
	}
	return b.String()
}

// skipChars drops the first n non-escape characters from an ANSI-styled
// string while keeping every escape sequence, so token styles survive the
// indentation being replaced by guides.
func skipChars(s string, n int) string {
	if n <= 0 {
		return s
	}
	var b strings.Builder
	i := 0
	for i < len(s) {
		if s[i] == 0x1b {
			j := i + 1
			if j < len(s) && s[j] == '[' {
				j++
				for j < len(s) && (s[j] < 0x40 || s[j] > 0x7e) {
					j++
				}
				if j < len(s) {
					j++
				}
			}
			b.WriteString(s[i:j])
			i = j
			continue
		}
		if n > 0 {
			n--
			i++
			continue
		}
		b.WriteString(s[i:])
		break
	}
	return b.String()
}
