package browser

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// markdownWriter converts cleaned article HTML to markdown, numbering links
// as it goes.
type markdownWriter struct {
	base  *url.URL
	out   strings.Builder
	links []Link
}

func newMarkdownWriter(pageURL string) *markdownWriter {
	base, err := url.Parse(pageURL)
	if err != nil {
		base = nil
	}
	return &markdownWriter{base: base}
}

// articleMarkdown renders the article body with a title and byline header.
func articleMarkdown(a *Article) (string, []Link, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(a.Content))
	if err != nil {
		return "", nil, fmt.Errorf("parsing article html: %w", err)
	}

	w := newMarkdownWriter(a.URL)
	if a.Title != "" {
		w.out.WriteString("# " + a.Title + "\n\n")
	}
	if a.Byline != "" {
		w.out.WriteString("*" + a.Byline + "*\n\n")
	}
	w.out.WriteString("---\n\n")
	doc.Find("body").Children().Each(func(_ int, s *goquery.Selection) {
		w.block(s, 0)
	})
	return w.out.String(), w.links, nil
}

func (w *markdownWriter) block(s *goquery.Selection, depth int) {
	switch tag := goquery.NodeName(s); tag {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		if text := strings.TrimSpace(s.Text()); text != "" {
			level := int(tag[1] - '0')
			w.out.WriteString(strings.Repeat("#", level) + " " + text + "\n\n")
		}
	case "p":
		w.paragraph(w.inline(s))
	case "ul", "ol":
		w.list(s, tag == "ol", depth)
		w.out.WriteString("\n")
	case "blockquote":
		sub := &markdownWriter{base: w.base, links: w.links}
		s.Children().Each(func(_ int, c *goquery.Selection) { sub.block(c, 0) })
		if sub.out.Len() == 0 {
			sub.paragraph(strings.TrimSpace(s.Text()))
		}
		w.links = sub.links
		for _, line := range strings.Split(strings.TrimRight(sub.out.String(), "\n"), "\n") {
			w.out.WriteString("> " + line + "\n")
		}
		w.out.WriteString("\n")
	case "pre":
		w.codeBlock(s)
	case "hr":
		w.out.WriteString("---\n\n")
	case "img":
		alt, _ := s.Attr("alt")
		src, _ := s.Attr("src")
		if alt == "" {
			alt = "image"
		}
		w.out.WriteString(fmt.Sprintf("![%s](%s)\n\n", alt, resolveLink(w.base, src)))
	case "table":
		w.table(s)
	case "figcaption":
		if text := strings.TrimSpace(s.Text()); text != "" {
			w.out.WriteString("*" + text + "*\n\n")
		}
	case "div", "article", "section", "main", "header", "footer", "figure", "span", "nav", "aside":
		s.Children().Each(func(_ int, c *goquery.Selection) { w.block(c, depth) })
	default:
		w.paragraph(w.inline(s))
	}
}

func (w *markdownWriter) paragraph(text string) {
	if text = strings.TrimSpace(text); text != "" {
		w.out.WriteString(text + "\n\n")
	}
}

// inline flattens s and its children into one markdown line.
func (w *markdownWriter) inline(s *goquery.Selection) string {
	var sb strings.Builder
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		switch goquery.NodeName(c) {
		case "#text":
			sb.WriteString(c.Text())
		case "a":
			sb.WriteString(w.link(c))
		case "strong", "b":
			sb.WriteString("**" + w.inline(c) + "**")
		case "em", "i":
			sb.WriteString("*" + w.inline(c) + "*")
		case "code":
			sb.WriteString("`" + c.Text() + "`")
		case "br":
			sb.WriteString("  \n")
		case "ul", "ol":
			// Nested lists are written by list.
		default:
			sb.WriteString(w.inline(c))
		}
	})
	return sb.String()
}

func (w *markdownWriter) link(s *goquery.Selection) string {
	href, _ := s.Attr("href")
	text := strings.TrimSpace(w.inline(s))
	if href == "" {
		return text
	}
	if text == "" {
		text = href
	}
	target := resolveLink(w.base, href)
	w.links = append(w.links, Link{Index: len(w.links) + 1, Text: text, URL: target})
	return fmt.Sprintf("[%s](%s) **[%d]**", text, target, len(w.links))
}

func (w *markdownWriter) list(s *goquery.Selection, ordered bool, depth int) {
	indent := strings.Repeat("  ", depth)
	s.ChildrenFiltered("li").Each(func(i int, li *goquery.Selection) {
		marker := "- "
		if ordered {
			marker = fmt.Sprintf("%d. ", i+1)
		}
		w.out.WriteString(indent + marker + strings.TrimSpace(w.inline(li)) + "\n")
		li.ChildrenFiltered("ul, ol").Each(func(_ int, sub *goquery.Selection) {
			w.list(sub, goquery.NodeName(sub) == "ol", depth+1)
		})
	})
}

func (w *markdownWriter) codeBlock(s *goquery.Selection) {
	code := s.Find("code").First()
	text := s.Text()
	lang := ""
	if code.Length() > 0 {
		text = code.Text()
		class, _ := code.Attr("class")
		for _, c := range strings.Fields(class) {
			if l, ok := strings.CutPrefix(c, "language-"); ok {
				lang = l
				break
			}
		}
	}
	w.out.WriteString("```" + lang + "\n" + strings.TrimRight(text, "\n") + "\n```\n\n")
}

func (w *markdownWriter) table(s *goquery.Selection) {
	var rows [][]string
	s.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var row []string
		tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			text := strings.TrimSpace(cell.Text())
			row = append(row, strings.ReplaceAll(text, "|", `\|`))
		})
		if len(row) > 0 {
			rows = append(rows, row)
		}
	})
	if len(rows) == 0 {
		return
	}

	cols := 0
	for _, r := range rows {
		cols = max(cols, len(r))
	}
	writeRow := func(r []string) {
		for len(r) < cols {
			r = append(r, "")
		}
		w.out.WriteString("| " + strings.Join(r, " | ") + " |\n")
	}
	writeRow(rows[0])
	writeRow(slicesRepeat("---", cols))
	for _, r := range rows[1:] {
		writeRow(r)
	}
	w.out.WriteString("\n")
}

func slicesRepeat(s string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = s
	}
	return out
}
