package app

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/vidyasagar/navsurf/internal/browser"
	"github.com/vidyasagar/navsurf/internal/navigation"
	"github.com/vidyasagar/navsurf/internal/storage"
	"github.com/vidyasagar/navsurf/internal/theme"
)

const recentVisits = 50

// executeCommand handles :commands.
func (m *Model) executeCommand(cmd string) tea.Cmd {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return nil
	}
	t := m.activeTab()
	arg := strings.Join(parts[1:], " ")

	switch parts[0] {
	case "q", "quit":
		return tea.Quit

	case "o", "open":
		if arg == "" {
			m.statusBar.SetMessage("Usage: :open <url>")
			return nil
		}
		m.navigate(t, browser.ResolveInput(arg), "", navigation.TransitionTyped)

	case "back":
		m.goToOffset(t, -1)
	case "forward":
		m.goToOffset(t, 1)

	case "go":
		offset, err := strconv.Atoi(arg)
		if err != nil {
			m.statusBar.SetError("Usage: :go <offset>")
			return nil
		}
		if offset == 0 {
			m.reload(t, true)
			return nil
		}
		m.goToOffset(t, offset)

	case "remove":
		n, err := strconv.Atoi(arg)
		if err != nil {
			m.statusBar.SetError("Usage: :remove <n>")
			return nil
		}
		if err := t.ctrl.RemoveEntryAtIndex(n-1, m.cfg.Homepage); err != nil {
			m.statusBar.SetError(err.Error())
			return nil
		}
		t.dirty = true

	case "tabnew":
		return m.newTab()

	case "theme":
		switch {
		case arg == "":
			m.statusBar.SetMessage(fmt.Sprintf("Current: %s | Available: %s", theme.Current.Name, strings.Join(theme.List(), ", ")))
		case theme.Set(arg):
			m.statusBar.SetMessage(fmt.Sprintf("Theme: %s", arg))
		default:
			m.statusBar.SetError(fmt.Sprintf("Unknown theme: %s (available: %s)", arg, strings.Join(theme.List(), ", ")))
		}

	case "visits":
		m.showVisits(t, arg)

	case "clearvisits":
		if m.visits == nil {
			return nil
		}
		if err := m.visits.Clear(); err != nil {
			m.statusBar.SetError(err.Error())
			return nil
		}
		m.statusBar.SetMessage("Visit log cleared")

	default:
		m.statusBar.SetError(fmt.Sprintf("Unknown command: %s", parts[0]))
	}
	return nil
}

// showVisits lays the visit log over the page until esc or the next commit.
func (m *Model) showVisits(t *tab, query string) {
	if m.visits == nil {
		m.statusBar.SetMessage("Visit log is disabled")
		return
	}
	var (
		visits []storage.Visit
		err    error
	)
	if query == "" {
		visits, err = m.visits.Recent(recentVisits)
	} else {
		visits, err = m.visits.Search(query)
	}
	if err != nil {
		m.log.Warn("listing visits failed", zap.Error(err))
		m.statusBar.SetError(err.Error())
		return
	}

	t.saveScroll()
	t.overlay = true
	t.viewport.SetContent(m.deps.renderer.Markdown(visitsMarkdown(query, visits, time.Now()), t.viewport.Width()), 0)
	m.statusBar.SetMessage("esc: back to page")
}

func visitsMarkdown(query string, visits []storage.Visit, now time.Time) string {
	var sb strings.Builder
	if query == "" {
		sb.WriteString("# Recent visits\n\n")
	} else {
		fmt.Fprintf(&sb, "# Visits matching %q\n\n", query)
	}
	if len(visits) == 0 {
		sb.WriteString("Nothing here yet.\n")
		return sb.String()
	}
	for _, v := range visits {
		title := v.Title
		if title == "" {
			title = v.URL
		}
		fmt.Fprintf(&sb, "- **%s**  \n  %s · %s\n", title, v.URL, timeAgo(now.Sub(v.VisitedAt)))
	}
	return sb.String()
}

// timeAgo returns a human-readable relative time.
func timeAgo(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
