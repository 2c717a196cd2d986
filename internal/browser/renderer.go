package browser

import (
	"sync"

	"github.com/charmbracelet/glamour"
)

const (
	defaultWidth    = 80
	maxContentWidth = 100
)

// RenderedPage holds terminal-ready output for one page.
type RenderedPage struct {
	Title   string
	Content string
	Links   []Link
}

// LinkByIndex returns the link numbered n, if any.
func (p *RenderedPage) LinkByIndex(n int) (Link, bool) {
	if p == nil || n < 1 || n > len(p.Links) {
		return Link{}, false
	}
	return p.Links[n-1], true
}

// Renderer turns markdown into styled terminal text with glamour. Term
// renderers are expensive to build, so one is kept per width.
type Renderer struct {
	mu    sync.Mutex
	style string
	term  *glamour.TermRenderer
	width int
}

// NewRenderer creates a renderer using the named glamour style ("auto",
// "dark", "light", "notty", ...). An empty style means auto detection.
func NewRenderer(style string) *Renderer {
	return &Renderer{style: style}
}

// Article renders an extracted article. When goquery or glamour fail the
// plain text is shown instead.
func (r *Renderer) Article(a *Article, width int) *RenderedPage {
	md, links, err := articleMarkdown(a)
	if err != nil {
		return &RenderedPage{Title: a.Title, Content: a.Text}
	}
	return &RenderedPage{
		Title:   a.Title,
		Content: r.Markdown(md, width),
		Links:   links,
	}
}

// Markdown renders md at the given terminal width, falling back to the raw
// markdown if glamour fails.
func (r *Renderer) Markdown(md string, width int) string {
	out, err := r.render(md, contentWidth(width))
	if err != nil {
		return md
	}
	return out
}

func (r *Renderer) render(md string, width int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.term == nil || r.width != width {
		opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
		if r.style == "" || r.style == "auto" {
			opts = append(opts, glamour.WithAutoStyle())
		} else {
			opts = append(opts, glamour.WithStandardStyle(r.style))
		}
		term, err := glamour.NewTermRenderer(opts...)
		if err != nil {
			return "", err
		}
		r.term, r.width = term, width
	}
	return r.term.Render(md)
}

func contentWidth(width int) int {
	if width <= 0 {
		width = defaultWidth
	}
	return min(width-4, maxContentWidth)
}
