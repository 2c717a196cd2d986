package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vidyasagar/navsurf/internal/theme"
)

// Tab is the tab bar's view of one tab. ID matches the session store key.
type Tab struct {
	ID      string
	Title   string
	Loading bool
}

// TabBar keeps tab order and the active tab and renders them.
type TabBar struct {
	tabs       []Tab
	active     int
	width      int
	maxVisible int
}

// NewTabBar creates an empty tab bar.
func NewTabBar() TabBar {
	return TabBar{maxVisible: 8}
}

// SetWidth sets the bar width and how many tabs fit.
func (tb *TabBar) SetWidth(w int) {
	tb.width = w
	tb.maxVisible = min(max(w/20, 2), 10)
}

// Add inserts a tab after the active one, activates it and returns its index.
func (tb *TabBar) Add(id, title string) int {
	at := 0
	if len(tb.tabs) > 0 {
		at = tb.active + 1
	}
	tb.tabs = append(tb.tabs[:at], append([]Tab{{ID: id, Title: title}}, tb.tabs[at:]...)...)
	tb.active = at
	return at
}

// Remove deletes the tab at idx. The last tab cannot be removed.
func (tb *TabBar) Remove(idx int) bool {
	if len(tb.tabs) <= 1 || idx < 0 || idx >= len(tb.tabs) {
		return false
	}
	tb.tabs = append(tb.tabs[:idx], tb.tabs[idx+1:]...)
	if tb.active > idx || tb.active >= len(tb.tabs) {
		tb.active--
	}
	return true
}

// Next activates the tab to the right, wrapping around.
func (tb *TabBar) Next() {
	if len(tb.tabs) > 1 {
		tb.active = (tb.active + 1) % len(tb.tabs)
	}
}

// Prev activates the tab to the left, wrapping around.
func (tb *TabBar) Prev() {
	if len(tb.tabs) > 1 {
		tb.active = (tb.active - 1 + len(tb.tabs)) % len(tb.tabs)
	}
}

// Select activates the tab at idx.
func (tb *TabBar) Select(idx int) {
	if idx >= 0 && idx < len(tb.tabs) {
		tb.active = idx
	}
}

// Active returns the active tab index.
func (tb *TabBar) Active() int {
	return tb.active
}

// Count returns the number of tabs.
func (tb *TabBar) Count() int {
	return len(tb.tabs)
}

// Tab returns the tab at idx.
func (tb *TabBar) Tab(idx int) (Tab, bool) {
	if idx < 0 || idx >= len(tb.tabs) {
		return Tab{}, false
	}
	return tb.tabs[idx], true
}

// IndexOf returns the index of the tab with the given id, or -1.
func (tb *TabBar) IndexOf(id string) int {
	for i, t := range tb.tabs {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Update sets the title and loading state of the tab with the given id.
func (tb *TabBar) Update(id, title string, loading bool) {
	if i := tb.IndexOf(id); i >= 0 {
		tb.tabs[i].Title = title
		tb.tabs[i].Loading = loading
	}
}

// visibleRange returns the window of tabs that fits, centered on the active one.
func (tb *TabBar) visibleRange() (int, int) {
	n := len(tb.tabs)
	if n <= tb.maxVisible {
		return 0, n
	}
	start := max(tb.active-tb.maxVisible/2, 0)
	end := start + tb.maxVisible
	if end > n {
		end = n
		start = n - tb.maxVisible
	}
	return start, end
}

// View renders the tab bar.
func (tb *TabBar) View() string {
	t := theme.Current

	activeStyle := lipgloss.NewStyle().
		Foreground(t.TextBright).
		Background(t.TabActive).
		Bold(true).
		Padding(0, 1)
	inactiveStyle := lipgloss.NewStyle().
		Foreground(t.TextDim).
		Background(t.TabInactive).
		Padding(0, 1)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim)
	sep := lipgloss.NewStyle().Foreground(t.Border).Render("|")

	start, end := tb.visibleRange()
	maxTitle := max(tb.width/max(tb.maxVisible, 1)-6, 8)

	var sb strings.Builder
	if start > 0 {
		sb.WriteString(dimStyle.Render(fmt.Sprintf(" +%d ", start)))
	}
	for i := start; i < end; i++ {
		tab := tb.tabs[i]
		title := tab.Title
		if title == "" {
			title = "New Tab"
		}
		title = truncate(title, maxTitle)
		if tab.Loading {
			title = "⏳ " + title
		}
		if i == tb.active {
			sb.WriteString(activeStyle.Render(title))
		} else {
			sb.WriteString(inactiveStyle.Render(title))
		}
		if i < end-1 {
			sb.WriteString(sep)
		}
	}
	if end < len(tb.tabs) {
		sb.WriteString(dimStyle.Render(fmt.Sprintf(" +%d ", len(tb.tabs)-end)))
	}

	return lipgloss.NewStyle().
		Background(t.Surface).
		Width(tb.width).
		Render(sb.String())
}

// truncate shortens s to n runes with a trailing ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
