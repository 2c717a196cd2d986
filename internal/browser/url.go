package browser

import (
	"net/url"
	"strings"

	"github.com/vidyasagar/navsurf/internal/navigation"
)

const searchURL = "https://html.duckduckgo.com/html/?q="

// ResolveInput turns what the user typed in the address bar into a URL.
// Known schemes pass through, host-like input gets https:// and anything
// else becomes a search.
func ResolveInput(raw string) string {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return ""
	case strings.HasPrefix(raw, "about:"),
		strings.HasPrefix(raw, "http://"),
		strings.HasPrefix(raw, "https://"):
		return raw
	case strings.HasPrefix(raw, "localhost"):
		return "http://" + raw
	case strings.Contains(raw, ".") && !strings.ContainsAny(raw, " \t"):
		return "https://" + raw
	}
	return searchURL + url.QueryEscape(raw)
}

// ContentTypeFor picks the content host variant that renders rawURL.
func ContentTypeFor(rawURL string) navigation.ContentType {
	if strings.HasPrefix(rawURL, "about:") {
		return navigation.ContentTypeAbout
	}
	return navigation.ContentTypeWeb
}

// IsInsecure reports whether rawURL is fetched without TLS.
func IsInsecure(rawURL string) bool {
	return strings.HasPrefix(rawURL, "http://") && !isLoopback(rawURL)
}

func isLoopback(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	h := u.Hostname()
	return h == "localhost" || h == "127.0.0.1" || h == "::1"
}

// SiteOf returns the site a URL belongs to: scheme and host for web pages,
// "about" for built-in pages.
func SiteOf(rawURL string) string {
	if ContentTypeFor(rawURL) == navigation.ContentTypeAbout {
		return "about"
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Scheme + "://" + u.Host
}

// resolveLink makes href absolute against base. Fragment-only links keep
// the page URL so following them is an in-page navigation.
func resolveLink(base *url.URL, href string) string {
	if base == nil {
		return href
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// IsHTML checks if the content type indicates HTML.
func IsHTML(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml+xml")
}
