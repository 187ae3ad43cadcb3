package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
)

func Wrap(text string, width int) string {
	if width <= 0 {
		return text
	}
	return wordwrap.String(text, width)
}

// Indent wraps text to width and indents every line by n spaces.
func Indent(text string, n, width int) string {
	return indent.String(Wrap(text, width-n), uint(n))
}

func TruncateWithEllipsis(line string, width int) string {
	if ansi.StringWidth(line) <= width {
		return line
	}
	if width <= 3 {
		return strings.Repeat(".", width)
	}
	return ansi.Truncate(line, width, "...")
}

// FirstLine returns the first non-empty line of s.
func FirstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

func Percent(v float64) string {
	return fmt.Sprintf("%.0f%%", v*100)
}
