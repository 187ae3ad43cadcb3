package render

import "github.com/charmbracelet/lipgloss"

var (
	Crust    = lipgloss.Color("#11111b")
	Mauve    = lipgloss.Color("#cba6f7")
	Red      = lipgloss.Color("#f38ba8")
	Green    = lipgloss.Color("#a6e3a1")
	Yellow   = lipgloss.Color("#f9e2af")
	Overlay0 = lipgloss.Color("#6c7086")
	Surface2 = lipgloss.Color("#585b70")
	Lavender = lipgloss.Color("#b4befe")
)

var Title = lipgloss.NewStyle().
	Bold(true).
	Foreground(Crust).
	Background(Mauve).
	Padding(0, 1)

var Panel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Surface2).
	Padding(0, 1)

var Header = lipgloss.NewStyle().
	Bold(true).
	Foreground(Lavender)

var Dim = lipgloss.NewStyle().
	Foreground(Overlay0)

var Key = lipgloss.NewStyle().
	Foreground(Mauve).
	Bold(true)

var (
	high   = lipgloss.NewStyle().Foreground(Green).Bold(true)
	medium = lipgloss.NewStyle().Foreground(Yellow)
	low    = lipgloss.NewStyle().Foreground(Red)
)

// Confidence colours a 0..1 score as a percentage.
func Confidence(v float64) string {
	text := Percent(v)
	switch {
	case v >= 0.7:
		return high.Render(text)
	case v >= 0.4:
		return medium.Render(text)
	default:
		return low.Render(text)
	}
}
