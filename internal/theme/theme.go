// Package theme holds the TUI color palettes.
package theme

import (
	"slices"

	"github.com/charmbracelet/lipgloss"
)

// Theme is a named color palette. Glamour names the page renderer style
// that goes with it.
type Theme struct {
	Name    string
	Glamour string

	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color

	Text       lipgloss.Color
	TextDim    lipgloss.Color
	TextBright lipgloss.Color

	Background lipgloss.Color
	Surface    lipgloss.Color
	Border     lipgloss.Color
	Focus      lipgloss.Color

	Link    lipgloss.Color
	Error   lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Info    lipgloss.Color

	TabActive   lipgloss.Color
	TabInactive lipgloss.Color
}

var themes = map[string]Theme{
	"default": Default,
	"gruvbox": Gruvbox,
	"nord":    Nord,
	"light":   Light,
}

var Default = Theme{
	Name:        "default",
	Glamour:     "dark",
	Primary:     lipgloss.Color("#7C3AED"),
	Secondary:   lipgloss.Color("#06B6D4"),
	Accent:      lipgloss.Color("#F59E0B"),
	Text:        lipgloss.Color("#E2E8F0"),
	TextDim:     lipgloss.Color("#64748B"),
	TextBright:  lipgloss.Color("#F8FAFC"),
	Background:  lipgloss.Color("#0F172A"),
	Surface:     lipgloss.Color("#1E293B"),
	Border:      lipgloss.Color("#334155"),
	Focus:       lipgloss.Color("#7C3AED"),
	Link:        lipgloss.Color("#38BDF8"),
	Error:       lipgloss.Color("#EF4444"),
	Success:     lipgloss.Color("#22C55E"),
	Warning:     lipgloss.Color("#F59E0B"),
	Info:        lipgloss.Color("#3B82F6"),
	TabActive:   lipgloss.Color("#7C3AED"),
	TabInactive: lipgloss.Color("#475569"),
}

var Gruvbox = Theme{
	Name:        "gruvbox",
	Glamour:     "dark",
	Primary:     lipgloss.Color("#D65D0E"),
	Secondary:   lipgloss.Color("#458588"),
	Accent:      lipgloss.Color("#D79921"),
	Text:        lipgloss.Color("#EBDBB2"),
	TextDim:     lipgloss.Color("#928374"),
	TextBright:  lipgloss.Color("#FBF1C7"),
	Background:  lipgloss.Color("#282828"),
	Surface:     lipgloss.Color("#3C3836"),
	Border:      lipgloss.Color("#504945"),
	Focus:       lipgloss.Color("#D65D0E"),
	Link:        lipgloss.Color("#83A598"),
	Error:       lipgloss.Color("#FB4934"),
	Success:     lipgloss.Color("#B8BB26"),
	Warning:     lipgloss.Color("#FABD2F"),
	Info:        lipgloss.Color("#83A598"),
	TabActive:   lipgloss.Color("#D65D0E"),
	TabInactive: lipgloss.Color("#665C54"),
}

var Nord = Theme{
	Name:        "nord",
	Glamour:     "dracula",
	Primary:     lipgloss.Color("#88C0D0"),
	Secondary:   lipgloss.Color("#81A1C1"),
	Accent:      lipgloss.Color("#EBCB8B"),
	Text:        lipgloss.Color("#D8DEE9"),
	TextDim:     lipgloss.Color("#4C566A"),
	TextBright:  lipgloss.Color("#ECEFF4"),
	Background:  lipgloss.Color("#2E3440"),
	Surface:     lipgloss.Color("#3B4252"),
	Border:      lipgloss.Color("#434C5E"),
	Focus:       lipgloss.Color("#88C0D0"),
	Link:        lipgloss.Color("#5E81AC"),
	Error:       lipgloss.Color("#BF616A"),
	Success:     lipgloss.Color("#A3BE8C"),
	Warning:     lipgloss.Color("#EBCB8B"),
	Info:        lipgloss.Color("#81A1C1"),
	TabActive:   lipgloss.Color("#5E81AC"),
	TabInactive: lipgloss.Color("#4C566A"),
}

var Light = Theme{
	Name:        "light",
	Glamour:     "light",
	Primary:     lipgloss.Color("#6D28D9"),
	Secondary:   lipgloss.Color("#0E7490"),
	Accent:      lipgloss.Color("#B45309"),
	Text:        lipgloss.Color("#1E293B"),
	TextDim:     lipgloss.Color("#94A3B8"),
	TextBright:  lipgloss.Color("#0F172A"),
	Background:  lipgloss.Color("#F8FAFC"),
	Surface:     lipgloss.Color("#E2E8F0"),
	Border:      lipgloss.Color("#CBD5E1"),
	Focus:       lipgloss.Color("#6D28D9"),
	Link:        lipgloss.Color("#0369A1"),
	Error:       lipgloss.Color("#B91C1C"),
	Success:     lipgloss.Color("#15803D"),
	Warning:     lipgloss.Color("#B45309"),
	Info:        lipgloss.Color("#1D4ED8"),
	TabActive:   lipgloss.Color("#6D28D9"),
	TabInactive: lipgloss.Color("#CBD5E1"),
}

// Current is the active theme.
var Current = Default

// Set changes the active theme by name.
func Set(name string) bool {
	if t, ok := themes[name]; ok {
		Current = t
		return true
	}
	return false
}

// List returns the theme names in sorted order.
func List() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
