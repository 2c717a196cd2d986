package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the keybindings of the normal mode.
type KeyMap struct {
	// Scrolling
	ScrollDown   key.Binding
	ScrollUp     key.Binding
	HalfPageDown key.Binding
	HalfPageUp   key.Binding
	GotoTop      key.Binding
	GotoBottom   key.Binding

	// History
	OpenURL       key.Binding
	FollowLink    key.Binding
	Back          key.Binding
	Forward       key.Binding
	Reload        key.Binding
	RepostReload  key.Binding
	SessionToggle key.Binding

	// Tabs
	NewTab       key.Binding
	DuplicateTab key.Binding
	CloseTab     key.Binding
	NextTab      key.Binding
	PrevTab      key.Binding

	// Other
	CommandMode key.Binding
	Help        key.Binding
	Quit        key.Binding
}

// DefaultKeyMap returns the default vim-style keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		ScrollDown: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "scroll down"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "scroll up"),
		),
		HalfPageDown: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "half page down"),
		),
		HalfPageUp: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("ctrl+u", "half page up"),
		),
		GotoTop: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("gg", "go to top"),
		),
		GotoBottom: key.NewBinding(
			key.WithKeys("G"),
			key.WithHelp("G", "go to bottom"),
		),
		OpenURL: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open URL or search"),
		),
		FollowLink: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "follow link by number"),
		),
		Back: key.NewBinding(
			key.WithKeys("H"),
			key.WithHelp("H", "go back"),
		),
		Forward: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "go forward"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		RepostReload: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "reload, confirming form resubmission"),
		),
		SessionToggle: key.NewBinding(
			key.WithKeys("ctrl+h"),
			key.WithHelp("ctrl+h", "session history panel"),
		),
		NewTab: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "new tab"),
		),
		DuplicateTab: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "duplicate tab"),
		),
		CloseTab: key.NewBinding(
			key.WithKeys("ctrl+w"),
			key.WithHelp("ctrl+w", "close tab"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("gt/tab", "next tab"),
		),
		PrevTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("gT/shift+tab", "previous tab"),
		),
		CommandMode: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "command mode"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// HelpMarkdown renders the bindings as the body of about:help.
func (k KeyMap) HelpMarkdown() string {
	sections := []struct {
		name     string
		bindings []key.Binding
	}{
		{"Scrolling", []key.Binding{k.ScrollDown, k.ScrollUp, k.HalfPageDown, k.HalfPageUp, k.GotoTop, k.GotoBottom}},
		{"History", []key.Binding{k.OpenURL, k.FollowLink, k.Back, k.Forward, k.Reload, k.RepostReload, k.SessionToggle}},
		{"Tabs", []key.Binding{k.NewTab, k.DuplicateTab, k.CloseTab, k.NextTab, k.PrevTab}},
		{"Other", []key.Binding{k.CommandMode, k.Help, k.Quit}},
	}

	var sb strings.Builder
	for _, s := range sections {
		fmt.Fprintf(&sb, "## %s\n\n| key | action |\n|---|---|\n", s.name)
		for _, b := range s.bindings {
			h := b.Help()
			fmt.Fprintf(&sb, "| `%s` | %s |\n", h.Key, h.Desc)
		}
		sb.WriteString("\n")
	}
	sb.WriteString(`## Commands

| command | action |
|---|---|
| ` + "`:open <url>`" + ` | open a URL |
| ` + "`:back` / `:forward`" + ` | move through history |
| ` + "`:go <offset>`" + ` | jump by offset, e.g. ` + "`:go -2`" + ` |
| ` + "`:remove <n>`" + ` | remove history entry n (1 is the oldest) |
| ` + "`:theme <name>`" + ` | change theme |
| ` + "`:visits [query]`" + ` | show recent visits |
| ` + "`:clearvisits`" + ` | forget all visits |
| ` + "`:quit`" + ` | quit |

Plain http pages show a warning first: press ` + "`p`" + ` to proceed or ` + "`esc`" + ` to go back.

See also [about:version](about:version) and [about:about](about:about).
`)
	return sb.String()
}
