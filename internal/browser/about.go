package browser

import (
	"fmt"
	"sort"
	"strings"
)

// AboutPages maps about: URLs (without the fragment) to markdown sources.
type AboutPages map[string]string

// DefaultAboutPages returns the built-in pages. help is the key reference
// shown at about:help.
func DefaultAboutPages(version, help string) AboutPages {
	pages := AboutPages{
		"about:blank":   "",
		"about:version": fmt.Sprintf("# navsurf\n\nVersion `%s`\n", version),
		"about:help":    "# navsurf help\n\n" + help,
	}
	pages["about:about"] = pages.index()
	return pages
}

func (p AboutPages) index() string {
	var names []string
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString("# about: pages\n\n")
	for _, name := range names {
		sb.WriteString(fmt.Sprintf("- [%s](%s)\n", name, name))
	}
	return sb.String()
}

// page returns the markdown for rawURL and whether it exists.
func (p AboutPages) page(rawURL string) (string, bool) {
	name, _, _ := strings.Cut(rawURL, "#")
	md, ok := p[name]
	return md, ok
}
