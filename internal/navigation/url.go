package navigation

import "strings"

// StripFragment removes the fragment (and its '#') from a URL.
func StripFragment(url string) string {
	if i := strings.IndexByte(url, '#'); i >= 0 {
		return url[:i]
	}
	return url
}

// hasFragment reports whether the URL carries a fragment delimiter, even an
// empty one.
func hasFragment(url string) bool {
	return strings.IndexByte(url, '#') >= 0
}

// AreURLsInPage reports whether navigating from existing to next only changes
// the fragment. next must carry a '#': dropping the fragment reloads the
// document.
func AreURLsInPage(existing, next string) bool {
	if existing == "" || !hasFragment(next) {
		return false
	}
	return StripFragment(existing) == StripFragment(next)
}

// sameDocumentURL compares two URLs, ignoring a bare trailing '#'.
func sameDocumentURL(a, b string) bool {
	return strings.TrimSuffix(a, "#") == strings.TrimSuffix(b, "#")
}
