package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// styles are derived from a Theme each time it changes
type styles struct {
	title    lipgloss.Style
	subtitle lipgloss.Style
	panel    lipgloss.Style
	header   lipgloss.Style
	cursor   lipgloss.Style
	checked  lipgloss.Style
	item     lipgloss.Style
	label    lipgloss.Style
	value    lipgloss.Style
	insight  lipgloss.Style
	status   lipgloss.Style
	warn     lipgloss.Style
	err      lipgloss.Style
	key      lipgloss.Style
	hint     lipgloss.Style
	subtle   lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		subtitle: lipgloss.NewStyle().Foreground(t.Muted),
		panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),
		header: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Secondary).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(t.Border),
		cursor:  lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		checked: lipgloss.NewStyle().Bold(true).Foreground(t.Good),
		item:    lipgloss.NewStyle().Foreground(t.Text),
		label:   lipgloss.NewStyle().Foreground(t.Muted).Width(14),
		value:   lipgloss.NewStyle().Bold(true).Foreground(t.Secondary),
		insight: lipgloss.NewStyle().
			Foreground(t.Text).
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(t.Accent).
			PaddingLeft(1),
		status: lipgloss.NewStyle().Foreground(t.Good),
		warn:   lipgloss.NewStyle().Foreground(t.Warn),
		err:    lipgloss.NewStyle().Bold(true).Foreground(t.Bad),
		key:    lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		hint:   lipgloss.NewStyle().Foreground(t.Muted).Italic(true),
		subtle: lipgloss.NewStyle().Foreground(t.Muted),
	}
}

// sparkline renders a one-row summary of values
func (s styles) sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo, hi = min(lo, v), max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	step := len(values) / width
	if step < 1 {
		step = 1
	}

	var b strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		norm := (values[i*step] - lo) / rng
		idx := int(norm * float64(len(chars)-1))
		b.WriteRune(chars[idx])
	}
	return s.value.Render(b.String())
}

// separator draws a centered divider
func (s styles) separator(width int) string {
	if width < 8 {
		width = 8
	}
	mid := width / 2
	return s.subtle.Render(strings.Repeat("─", mid-3) + " ◆ " + strings.Repeat("─", width-mid-3))
}

// keyHints renders "key action" pairs
func (s styles) keyHints(pairs ...string) string {
	parts := make([]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, s.key.Render(pairs[i])+" "+s.hint.Render(pairs[i+1]))
	}
	return strings.Join(parts, "  ")
}
