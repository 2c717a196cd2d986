package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/vidyasagar/navsurf/internal/theme"
)

// Mode names shown in the status bar.
const (
	ModeNormal       = "NORMAL"
	ModeInsert       = "INSERT"
	ModeCommand      = "COMMAND"
	ModeFollow       = "FOLLOW"
	ModeSession      = "SESSION"
	ModeConfirm      = "CONFIRM"
	ModeInterstitial = "WARNING"
)

// HistoryInfo summarizes a tab's position in its session history.
type HistoryInfo struct {
	CanGoBack    bool
	CanGoForward bool
	Current      int // zero based, -1 when nothing has committed
	Count        int
}

// StatusBar shows the mode, page state and messages at the bottom.
type StatusBar struct {
	mode       string
	title      string
	loading    bool
	message    string
	isError    bool
	history    HistoryInfo
	linkCount  int
	scrollInfo string
	width      int
}

// NewStatusBar creates a status bar in normal mode.
func NewStatusBar() StatusBar {
	return StatusBar{mode: ModeNormal}
}

// SetWidth sets the bar width.
func (s *StatusBar) SetWidth(w int) { s.width = w }

// SetMode sets the mode indicator.
func (s *StatusBar) SetMode(mode string) { s.mode = mode }

// SetTitle sets the page title.
func (s *StatusBar) SetTitle(title string) { s.title = title }

// SetLoading toggles the loading indicator.
func (s *StatusBar) SetLoading(loading bool) { s.loading = loading }

// SetHistory sets the back/forward indicators.
func (s *StatusBar) SetHistory(h HistoryInfo) { s.history = h }

// SetLinkCount sets the number of numbered links on the page.
func (s *StatusBar) SetLinkCount(n int) { s.linkCount = n }

// SetScrollInfo sets the scroll position label.
func (s *StatusBar) SetScrollInfo(info string) { s.scrollInfo = info }

// SetMessage shows msg until the next message or ClearMessage.
func (s *StatusBar) SetMessage(msg string) {
	s.message = msg
	s.isError = false
}

// SetError shows msg as an error.
func (s *StatusBar) SetError(msg string) {
	s.message = msg
	s.isError = true
}

// ClearMessage removes the current message.
func (s *StatusBar) ClearMessage() {
	s.message = ""
	s.isError = false
}

// Message returns the current message.
func (s *StatusBar) Message() string { return s.message }

func (s *StatusBar) modeColor() lipgloss.Color {
	t := theme.Current
	switch s.mode {
	case ModeInsert:
		return t.Success
	case ModeCommand:
		return t.Accent
	case ModeFollow:
		return t.Link
	case ModeConfirm, ModeInterstitial:
		return t.Warning
	case ModeSession:
		return t.Secondary
	default:
		return t.Primary
	}
}

// navLabel renders "◀ 3/7 ▶" with unavailable directions dimmed.
func (s *StatusBar) navLabel() string {
	t := theme.Current
	on := lipgloss.NewStyle().Foreground(t.TextBright).Background(t.Surface)
	off := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	arrow := func(glyph string, ok bool) string {
		if ok {
			return on.Render(glyph)
		}
		return off.Render(glyph)
	}
	pos := "-"
	if s.history.Current >= 0 && s.history.Count > 0 {
		pos = fmt.Sprintf("%d/%d", s.history.Current+1, s.history.Count)
	}
	return arrow(" ◀ ", s.history.CanGoBack) + off.Render(pos) + arrow(" ▶ ", s.history.CanGoForward)
}

// View renders the status bar.
func (s *StatusBar) View() string {
	t := theme.Current

	mode := lipgloss.NewStyle().
		Bold(true).
		Padding(0, 1).
		Foreground(t.Background).
		Background(s.modeColor()).
		Render(s.mode)

	leftStyle := lipgloss.NewStyle().Background(t.Surface).Padding(0, 1)
	var left string
	switch {
	case s.message != "" && s.isError:
		left = leftStyle.Foreground(t.Error).Render(s.message)
	case s.message != "":
		left = leftStyle.Foreground(t.Info).Render(s.message)
	case s.loading:
		left = leftStyle.Foreground(t.Warning).Bold(true).Render("⏳ Loading...")
	case s.title != "":
		left = leftStyle.Foreground(t.Text).Render(s.title)
	}

	rightStyle := lipgloss.NewStyle().
		Foreground(t.TextDim).
		Background(t.Surface).
		Padding(0, 1)
	right := s.navLabel()
	if s.linkCount > 0 {
		right += rightStyle.Render(fmt.Sprintf("🔗 %d", s.linkCount))
	}
	if s.scrollInfo != "" {
		right += rightStyle.Foreground(t.Secondary).Bold(true).Render(s.scrollInfo)
	}

	spacer := max(s.width-lipgloss.Width(mode)-lipgloss.Width(left)-lipgloss.Width(right), 0)
	fill := lipgloss.NewStyle().Background(t.Surface).Render(fmt.Sprintf("%*s", spacer, ""))

	return lipgloss.NewStyle().
		Foreground(t.Text).
		Background(t.Surface).
		Render(mode + left + fill + right)
}
