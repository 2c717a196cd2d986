package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vidyasagar/navsurf/internal/theme"
)

// PageViewport shows a rendered page and tracks its scroll position.
type PageViewport struct {
	viewport viewport.Model
	ready    bool
	empty    bool
	notice   string
}

// NewPageViewport creates a viewport. It is sized on the first resize.
func NewPageViewport() PageViewport {
	return PageViewport{empty: true}
}

// SetSize updates the viewport dimensions.
func (pv *PageViewport) SetSize(width, height int) {
	if !pv.ready {
		pv.viewport = viewport.New(width, height)
		pv.viewport.MouseWheelEnabled = true
		pv.viewport.MouseWheelDelta = 3
		pv.ready = true
		return
	}
	pv.viewport.Width = width
	pv.viewport.Height = height
}

// SetContent replaces the page and scrolls to offset, clamped to the content.
func (pv *PageViewport) SetContent(content string, offset int) {
	if !pv.ready {
		return
	}
	pv.notice = ""
	pv.empty = content == ""
	pv.viewport.SetContent(content)
	pv.viewport.SetYOffset(offset)
}

// SetNotice replaces the page with a centered message, such as an
// interstitial warning.
func (pv *PageViewport) SetNotice(notice string) {
	pv.notice = notice
}

// Clear empties the viewport.
func (pv *PageViewport) Clear() {
	pv.notice = ""
	pv.empty = true
	if pv.ready {
		pv.viewport.SetContent("")
	}
}

// YOffset returns the first visible line.
func (pv *PageViewport) YOffset() int {
	if !pv.ready {
		return 0
	}
	return pv.viewport.YOffset
}

// Update forwards messages to the viewport.
func (pv *PageViewport) Update(msg tea.Msg) (*PageViewport, tea.Cmd) {
	if !pv.ready {
		return pv, nil
	}
	var cmd tea.Cmd
	pv.viewport, cmd = pv.viewport.Update(msg)
	return pv, cmd
}

// View renders the viewport.
func (pv *PageViewport) View() string {
	if !pv.ready {
		return "\n  Initializing..."
	}
	if pv.notice != "" {
		return lipgloss.Place(pv.viewport.Width, pv.viewport.Height, lipgloss.Center, lipgloss.Center, pv.notice)
	}
	if pv.empty {
		return lipgloss.Place(pv.viewport.Width, pv.viewport.Height, lipgloss.Center, lipgloss.Center,
			lipgloss.NewStyle().Foreground(theme.Current.TextDim).Render("Press o to open a page, ? for help"))
	}
	return pv.viewport.View()
}

// ScrollInfo returns "TOP", "BOT" or a percentage.
func (pv *PageViewport) ScrollInfo() string {
	if !pv.ready || pv.empty {
		return ""
	}
	switch pct := pv.viewport.ScrollPercent(); {
	case pv.viewport.AtTop():
		return "TOP"
	case pv.viewport.AtBottom():
		return "BOT"
	default:
		return fmt.Sprintf("%d%%", int(pct*100))
	}
}

// HalfPageDown scrolls down half a page.
func (pv *PageViewport) HalfPageDown() {
	if pv.ready {
		pv.viewport.HalfViewDown()
	}
}

// HalfPageUp scrolls up half a page.
func (pv *PageViewport) HalfPageUp() {
	if pv.ready {
		pv.viewport.HalfViewUp()
	}
}

// LineDown scrolls down n lines.
func (pv *PageViewport) LineDown(n int) {
	if pv.ready {
		pv.viewport.LineDown(n)
	}
}

// LineUp scrolls up n lines.
func (pv *PageViewport) LineUp(n int) {
	if pv.ready {
		pv.viewport.LineUp(n)
	}
}

// GotoTop scrolls to the top.
func (pv *PageViewport) GotoTop() {
	if pv.ready {
		pv.viewport.GotoTop()
	}
}

// GotoBottom scrolls to the bottom.
func (pv *PageViewport) GotoBottom() {
	if pv.ready {
		pv.viewport.GotoBottom()
	}
}

// Width returns the viewport width.
func (pv *PageViewport) Width() int {
	if !pv.ready {
		return 0
	}
	return pv.viewport.Width
}
