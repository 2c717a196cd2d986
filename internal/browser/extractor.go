package browser

import (
	"bytes"
	"fmt"
	"html"
	"net/url"

	readability "github.com/go-shiori/go-readability"
)

// Article is the readable part of a fetched page.
type Article struct {
	Title    string
	Byline   string
	Content  string // cleaned HTML
	Text     string // plain text, used when rendering fails
	SiteName string
	URL      string // final URL after redirects
}

// Link is a numbered hyperlink on a rendered page.
type Link struct {
	Index int
	Text  string
	URL   string // absolute
}

// Extract pulls the article out of a fetch result. Non-HTML bodies are shown
// preformatted.
func Extract(result *FetchResult) (*Article, error) {
	if !IsHTML(result.ContentType) {
		text := string(result.Body)
		return &Article{
			Title:   result.FinalURL,
			Content: "<pre>" + html.EscapeString(text) + "</pre>",
			Text:    text,
			URL:     result.FinalURL,
		}, nil
	}

	pageURL, err := url.Parse(result.FinalURL)
	if err != nil {
		return nil, fmt.Errorf("parsing URL: %w", err)
	}

	parsed, err := readability.FromReader(bytes.NewReader(result.Body), pageURL)
	if err != nil {
		return nil, fmt.Errorf("extracting article: %w", err)
	}

	title := parsed.Title
	if title == "" {
		title = result.FinalURL
	}
	return &Article{
		Title:    title,
		Byline:   parsed.Byline,
		Content:  parsed.Content,
		Text:     parsed.TextContent,
		SiteName: parsed.SiteName,
		URL:      result.FinalURL,
	}, nil
}
