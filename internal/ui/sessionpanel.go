package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vidyasagar/navsurf/internal/navigation"
	"github.com/vidyasagar/navsurf/internal/theme"
)

// SessionPanel lists a tab's committed entries, oldest first, with the
// current one marked. Each entry takes two lines.
type SessionPanel struct {
	entries  []*navigation.Entry
	current  int
	cursor   int
	offset   int
	visible  bool
	width    int
	height   int
	lastGKey bool
}

// NewSessionPanel creates a hidden panel.
func NewSessionPanel() SessionPanel {
	return SessionPanel{}
}

// SetSize sets the panel dimensions.
func (sp *SessionPanel) SetSize(w, h int) {
	sp.width = w
	sp.height = h
	sp.ensureVisible()
}

// SetEntries replaces the listed entries. The cursor stays on the same row
// when possible and starts on current when the panel is first shown.
func (sp *SessionPanel) SetEntries(entries []*navigation.Entry, current int) {
	sp.entries = entries
	sp.current = current
	sp.cursor = min(sp.cursor, max(len(entries)-1, 0))
	sp.ensureVisible()
}

// Show opens the panel with the cursor on the current entry.
func (sp *SessionPanel) Show(entries []*navigation.Entry, current int) {
	sp.visible = true
	sp.lastGKey = false
	sp.entries = entries
	sp.current = current
	sp.cursor = max(current, 0)
	sp.offset = 0
	sp.ensureVisible()
}

// Hide closes the panel.
func (sp *SessionPanel) Hide() {
	sp.visible = false
}

// IsVisible reports whether the panel is open.
func (sp *SessionPanel) IsVisible() bool {
	return sp.visible
}

// CursorUp moves the cursor up one entry.
func (sp *SessionPanel) CursorUp() {
	sp.lastGKey = false
	if sp.cursor > 0 {
		sp.cursor--
		sp.ensureVisible()
	}
}

// CursorDown moves the cursor down one entry.
func (sp *SessionPanel) CursorDown() {
	sp.lastGKey = false
	if sp.cursor < len(sp.entries)-1 {
		sp.cursor++
		sp.ensureVisible()
	}
}

// GotoTop moves to the oldest entry.
func (sp *SessionPanel) GotoTop() {
	sp.lastGKey = false
	sp.cursor = 0
	sp.offset = 0
}

// GotoBottom moves to the newest entry.
func (sp *SessionPanel) GotoBottom() {
	sp.lastGKey = false
	sp.cursor = max(len(sp.entries)-1, 0)
	sp.ensureVisible()
}

// HandleGKey reports whether g completed a "gg" and moved to the top.
func (sp *SessionPanel) HandleGKey() bool {
	if sp.lastGKey {
		sp.GotoTop()
		return true
	}
	sp.lastGKey = true
	return false
}

// ResetGKey forgets a pending g.
func (sp *SessionPanel) ResetGKey() {
	sp.lastGKey = false
}

// Selected returns the entry index under the cursor, or -1 when empty.
func (sp *SessionPanel) Selected() int {
	if len(sp.entries) == 0 {
		return -1
	}
	return sp.cursor
}

func (sp *SessionPanel) visibleCount() int {
	// Header takes two lines, footer one.
	return max((sp.height-3)/2, 1)
}

func (sp *SessionPanel) ensureVisible() {
	visible := sp.visibleCount()
	if sp.cursor < sp.offset {
		sp.offset = sp.cursor
	}
	if sp.cursor >= sp.offset+visible {
		sp.offset = sp.cursor - visible + 1
	}
	sp.offset = max(sp.offset, 0)
}

// View renders the panel.
func (sp *SessionPanel) View() string {
	if !sp.visible {
		return ""
	}
	t := theme.Current

	row := lipgloss.NewStyle().Width(sp.width).Padding(0, 1)
	titleStyle := row.Bold(true).Foreground(t.Primary).Background(t.Surface)
	selected := row.Foreground(t.TextBright).Background(t.TabActive).Bold(true)
	selectedURL := row.Foreground(t.Link).Background(t.TabActive)
	normal := row.Foreground(t.Text)
	dim := row.Foreground(t.TextDim)

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(fmt.Sprintf("Session history (%d)", len(sp.entries))))
	sb.WriteString("\n")
	sb.WriteString(lipgloss.NewStyle().Foreground(t.Border).Render(strings.Repeat("─", max(sp.width-2, 1))))
	sb.WriteString("\n")

	if len(sp.entries) == 0 {
		sb.WriteString(dim.Render("Nothing committed yet."))
		sb.WriteString("\n")
	}

	end := min(sp.offset+sp.visibleCount(), len(sp.entries))
	textWidth := max(sp.width-6, 10)
	for i := sp.offset; i < end; i++ {
		e := sp.entries[i]
		marker := "  "
		if i == sp.current {
			marker = "● "
		}
		title := marker + truncate(e.TitleForDisplay(), textWidth)
		url := "  " + truncate(e.VirtualURL(), textWidth)
		if e.Restored {
			url += "  (not loaded)"
		}
		if i == sp.cursor {
			sb.WriteString(selected.Render(title))
			sb.WriteString("\n")
			sb.WriteString(selectedURL.Render(url))
		} else {
			sb.WriteString(normal.Render(title))
			sb.WriteString("\n")
			sb.WriteString(dim.Render(url))
		}
		sb.WriteString("\n")
	}

	used := 2 + max(end-sp.offset, 1)*2
	if pad := sp.height - used - 1; pad > 0 {
		sb.WriteString(strings.Repeat("\n", pad))
	}
	sb.WriteString(dim.Italic(true).Render("j/k:move  enter:go  d:remove  esc:close"))

	return lipgloss.NewStyle().
		Width(sp.width).
		Height(sp.height).
		Background(t.Background).
		Render(sb.String())
}
