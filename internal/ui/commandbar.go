package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vidyasagar/navsurf/internal/theme"
)

// Prompt identifies what the command bar is asking for.
type Prompt int

const (
	PromptNone   Prompt = iota
	PromptEx            // : commands
	PromptFollow        // f link number
)

// Submission is what the command bar returns on enter.
type Submission struct {
	Prompt Prompt
	Value  string
}

// CommandBar reads a single line at the bottom of the screen.
type CommandBar struct {
	input   textinput.Model
	prompt  Prompt
	width   int
	history []string
	recall  int
}

// NewCommandBar creates a closed command bar.
func NewCommandBar() CommandBar {
	ti := textinput.New()
	ti.CharLimit = 256
	return CommandBar{input: ti, recall: -1}
}

// SetWidth sets the command bar width.
func (c *CommandBar) SetWidth(w int) {
	c.width = w
	c.input.Width = w - 4
}

// Open focuses the bar for the given prompt.
func (c *CommandBar) Open(p Prompt) tea.Cmd {
	c.prompt = p
	c.recall = -1
	c.input.Reset()
	switch p {
	case PromptEx:
		c.input.Prompt = ":"
		c.input.Placeholder = "back, forward, go <offset>, remove <index>, theme <name>, visits <query>"
	case PromptFollow:
		c.input.Prompt = "f"
		c.input.Placeholder = "link #"
	}
	return c.input.Focus()
}

// Close blurs and clears the bar.
func (c *CommandBar) Close() {
	c.prompt = PromptNone
	c.input.Blur()
	c.input.Reset()
}

// IsActive reports whether the bar is open.
func (c *CommandBar) IsActive() bool {
	return c.prompt != PromptNone
}

// Prompt returns the open prompt.
func (c *CommandBar) Prompt() Prompt {
	return c.prompt
}

// Submit closes the bar and returns what was typed. Ex commands are kept
// for recall with the arrow keys.
func (c *CommandBar) Submit() Submission {
	s := Submission{Prompt: c.prompt, Value: strings.TrimSpace(c.input.Value())}
	if s.Value != "" && s.Prompt == PromptEx {
		c.history = append(c.history, s.Value)
	}
	c.Close()
	return s
}

// Update handles input while the bar is open. Enter is left to the caller.
func (c *CommandBar) Update(msg tea.Msg) (*CommandBar, tea.Cmd) {
	if !c.IsActive() {
		return c, nil
	}
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.Type {
		case tea.KeyEsc:
			c.Close()
			return c, nil
		case tea.KeyEnter:
			return c, nil
		case tea.KeyUp:
			if c.prompt == PromptEx && c.recall < len(c.history)-1 {
				c.recall++
				c.input.SetValue(c.history[len(c.history)-1-c.recall])
			}
			return c, nil
		case tea.KeyDown:
			switch {
			case c.recall > 0:
				c.recall--
				c.input.SetValue(c.history[len(c.history)-1-c.recall])
			case c.recall == 0:
				c.recall = -1
				c.input.Reset()
			}
			return c, nil
		}
	}
	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	return c, cmd
}

// View renders the bar, or nothing when closed.
func (c *CommandBar) View() string {
	if !c.IsActive() {
		return ""
	}
	t := theme.Current
	return lipgloss.NewStyle().
		Foreground(t.Text).
		Background(t.Surface).
		Width(c.width).
		Render(c.input.View())
}
