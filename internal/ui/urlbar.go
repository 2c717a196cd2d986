package ui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vidyasagar/navsurf/internal/theme"
)

// URLBar shows the active entry's URL and doubles as the location input.
type URLBar struct {
	input   textinput.Model
	active  bool
	width   int
	shown   string
	pending bool
	secure  bool
}

// NewURLBar creates a URL bar.
func NewURLBar() URLBar {
	ti := textinput.New()
	ti.Placeholder = "Enter URL or search..."
	ti.CharLimit = 2048
	ti.Width = 60
	return URLBar{input: ti}
}

// SetWidth updates the bar width.
func (u *URLBar) SetWidth(w int) {
	u.width = w
	u.input.Width = w - 10
}

// Show sets the URL displayed while the bar is not being edited. pending
// marks a URL that has not committed yet.
func (u *URLBar) Show(url string, pending, secure bool) {
	u.shown = url
	u.pending = pending
	u.secure = secure
	if !u.active {
		u.input.SetValue(url)
	}
}

// Focus starts editing, prefilled with the shown URL.
func (u *URLBar) Focus() tea.Cmd {
	u.active = true
	u.input.SetValue(u.shown)
	u.input.CursorEnd()
	return u.input.Focus()
}

// Blur stops editing and restores the shown URL.
func (u *URLBar) Blur() {
	u.active = false
	u.input.Blur()
	u.input.SetValue(u.shown)
}

// IsActive reports whether the bar is being edited.
func (u *URLBar) IsActive() bool {
	return u.active
}

// Value returns the typed text.
func (u *URLBar) Value() string {
	return u.input.Value()
}

// Update handles input while editing.
func (u *URLBar) Update(msg tea.Msg) (*URLBar, tea.Cmd) {
	if !u.active {
		return u, nil
	}
	var cmd tea.Cmd
	u.input, cmd = u.input.Update(msg)
	return u, cmd
}

// View renders the URL bar.
func (u *URLBar) View() string {
	t := theme.Current

	border := t.Border
	fg := t.TextDim
	if u.active {
		border = t.Focus
		fg = t.Text
	}
	barStyle := lipgloss.NewStyle().
		Foreground(fg).
		Background(t.Surface).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Width(u.width - 2)

	icon, color := "⚠", t.Warning
	switch {
	case u.pending && !u.active:
		icon, color = "…", t.Accent
	case u.secure:
		icon, color = "🔒", t.Success
	}
	prompt := lipgloss.NewStyle().Foreground(color).Bold(true).Render(icon)
	return barStyle.Render(prompt + " " + u.input.View())
}
