package termhost

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/zjrosen/relayout/internal/host"
	"github.com/zjrosen/relayout/internal/log"
)

var statusStyle = lipgloss.NewStyle().Reverse(true)

// View implements tea.Model.
func (m *Model) View() string {
	if !m.sized {
		return ""
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.viewport(), m.statusLine())
}

func (m *Model) viewportHeight() int {
	return max(m.height-statusHeight, 0)
}

func (m *Model) viewport() string {
	vh := m.viewportHeight()
	if m.showHelp {
		if m.help == "" {
			out, err := renderHelp(m.keys, m.width)
			if err != nil {
				log.ErrorErr(log.CatUI, "rendering help", err)
				out = helpMarkdown(m.keys)
			}
			m.help = out
		}
		return lipgloss.Place(m.width, vh, lipgloss.Left, lipgloss.Top,
			lipgloss.NewStyle().MaxWidth(m.width).MaxHeight(vh).Render(m.help))
	}
	return lipgloss.Place(m.width, vh, lipgloss.Center, lipgloss.Center, m.container())
}

// container renders the box at its client size in cells, clamped to the viewport.
func (m *Model) container() string {
	vh := m.viewportHeight()
	w := cells(m.box.ClientWidth(), m.width)
	h := cells(m.box.ClientHeight(), vh)
	if w == 0 || h == 0 {
		return ""
	}

	style := lipgloss.NewStyle().
		Width(w).
		Height(h).
		MaxWidth(w).
		MaxHeight(h).
		Padding(
			cells(host.ParsePixels(m.box.Style.PaddingTop), h),
			cells(host.ParsePixels(m.box.Style.PaddingRight), w),
			cells(host.ParsePixels(m.box.Style.PaddingBottom), h),
			cells(host.ParsePixels(m.box.Style.PaddingLeft), w),
		)
	if m.color != "" {
		style = style.Background(lipgloss.Color(m.color))
	}
	return style.Render(m.label(w))
}

// label describes the last cycle inside the container.
func (m *Model) label(width int) string {
	c := m.engine.LastCycle()
	lines := []string{
		c.Slot.String(),
		fmt.Sprintf("%gx%g", math.Round(c.After.Width), math.Round(c.After.Height)),
	}
	if c.Fallback {
		lines = append(lines, "blueprint")
	}
	for i, l := range lines {
		lines[i] = ansi.Truncate(l, width, "")
	}
	return strings.Join(lines, "\n")
}

func (m *Model) statusLine() string {
	c := m.engine.LastCycle()
	parts := []string{
		fmt.Sprintf(" %s %s", c.Device, c.BrowserOrientation),
		fmt.Sprintf("browser %gx%g", m.engine.BrowserWidth(), m.engine.BrowserHeight()),
		fmt.Sprintf("layout %gx%g", math.Round(m.engine.LayoutWidth()), math.Round(m.engine.LayoutHeight())),
		fmt.Sprintf("ratio %.3f", m.engine.ExpectedWidthHeightRatio()),
		fmt.Sprintf("changes %d", m.changes),
	}
	if m.failures > 0 {
		parts = append(parts, fmt.Sprintf("failures %d", m.failures))
	}
	if m.notice != "" {
		parts = append(parts, m.notice)
	} else if m.lastLog != "" {
		parts = append(parts, m.lastLog)
	}
	line := ansi.Truncate(strings.Join(parts, " │ "), m.width, "…")
	return statusStyle.Width(m.width).MaxWidth(m.width).Render(line)
}

// cells rounds v to whole cells within [0, limit].
func cells(v float64, limit int) int {
	n := int(math.Round(v))
	return min(max(n, 0), max(limit, 0))
}
