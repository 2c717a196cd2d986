package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAreURLsInPage(t *testing.T) {
	tests := []struct {
		existing, next string
		want           bool
	}{
		{"http://foo/a", "http://foo/a#top", true},
		{"http://foo/a#top", "http://foo/a#bottom", true},
		{"http://foo/a#top", "http://foo/a#", true},
		{"http://foo/a#top", "http://foo/a", false},
		{"http://foo/a", "http://foo/a", false},
		{"http://foo/a", "http://foo/b#top", false},
		{"", "http://foo/a#top", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AreURLsInPage(tt.existing, tt.next), "%q -> %q", tt.existing, tt.next)
	}
}

func TestStripFragment(t *testing.T) {
	assert.Equal(t, "http://foo/a", StripFragment("http://foo/a#x#y"))
	assert.Equal(t, "http://foo/a", StripFragment("http://foo/a"))
}

func TestParseTransition(t *testing.T) {
	for tr := TransitionLink; tr <= TransitionKeyword; tr++ {
		got, err := ParseTransition(tr.String())
		require.NoError(t, err)
		assert.Equal(t, tr, got)
	}
	_, err := ParseTransition("teleport")
	assert.Error(t, err)
}

func TestEntryClone(t *testing.T) {
	site := NewSiteInstance("foo")
	e := NewEntry("http://foo/a", "", TransitionTyped)
	e.SiteInstance = site
	e.ContentState = []byte("scroll=1")

	c := e.Clone()
	c.ContentState[0] = 'S'
	assert.Equal(t, "scroll=1", string(e.ContentState))
	assert.Same(t, site, c.SiteInstance)
	assert.Equal(t, InvalidPageID, c.PageID)
	assert.Equal(t, "http://foo/a", c.TitleForDisplay())

	c.DisplayURL = "foo/a"
	assert.Equal(t, "foo/a", c.TitleForDisplay())
}
