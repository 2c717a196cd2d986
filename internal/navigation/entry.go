package navigation

import (
	"fmt"

	"github.com/google/uuid"
)

// InvalidPageID marks an entry that has not been committed by a content host yet.
const InvalidPageID = -1

// ContentType identifies which content host variant rendered an entry.
// Page ids are only comparable between entries of the same content type.
type ContentType string

const (
	ContentTypeNone  ContentType = ""
	ContentTypeWeb   ContentType = "web"
	ContentTypeAbout ContentType = "about"
)

// PageType distinguishes ordinary pages from interstitial overlays.
type PageType int

const (
	PageNormal PageType = iota
	PageInterstitial
)

// TransitionType records how the user got to an entry.
type TransitionType int

const (
	TransitionLink TransitionType = iota
	TransitionTyped
	TransitionAutoBookmark
	TransitionAutoSubframe
	TransitionManualSubframe
	TransitionGenerated
	TransitionStartPage
	TransitionFormSubmit
	TransitionReload
	TransitionKeyword
)

var transitionNames = map[TransitionType]string{
	TransitionLink:           "link",
	TransitionTyped:          "typed",
	TransitionAutoBookmark:   "auto_bookmark",
	TransitionAutoSubframe:   "auto_subframe",
	TransitionManualSubframe: "manual_subframe",
	TransitionGenerated:      "generated",
	TransitionStartPage:      "start_page",
	TransitionFormSubmit:     "form_submit",
	TransitionReload:         "reload",
	TransitionKeyword:        "keyword",
}

func (t TransitionType) String() string {
	if name, ok := transitionNames[t]; ok {
		return name
	}
	return fmt.Sprintf("transition(%d)", int(t))
}

// IsSubframe reports whether the transition happened inside a subframe.
func (t TransitionType) IsSubframe() bool {
	return t == TransitionAutoSubframe || t == TransitionManualSubframe
}

// ParseTransition is the inverse of TransitionType.String.
func ParseTransition(s string) (TransitionType, error) {
	for t, name := range transitionNames {
		if name == s {
			return t, nil
		}
	}
	return TransitionLink, fmt.Errorf("unknown transition %q", s)
}

// SiteInstance is an opaque host-affinity token. Two entries share a site
// instance only if they hold the same pointer.
type SiteInstance struct {
	id   uuid.UUID
	site string
}

// NewSiteInstance creates a fresh site instance for the given site.
func NewSiteInstance(site string) *SiteInstance {
	return &SiteInstance{id: uuid.New(), site: site}
}

// Site returns the site the instance was created for.
func (s *SiteInstance) Site() string {
	if s == nil {
		return ""
	}
	return s.site
}

func (s *SiteInstance) String() string {
	if s == nil {
		return "<nil>"
	}
	return s.site + "/" + s.id.String()[:8]
}

// Entry is one slot of a tab's session history. An entry is held by exactly
// one of the controller's committed list, its pending slot or its transient
// slot; use Clone to take a copy.
type Entry struct {
	URL          string
	DisplayURL   string // shown instead of URL when set
	Referrer     string
	Title        string
	PageID       int
	ContentType  ContentType
	Transition   TransitionType
	PageType     PageType
	IsPost       bool
	SiteInstance *SiteInstance
	ContentState []byte

	// Restored is set on entries built from a saved session until the content
	// host commits them for the first time.
	Restored bool
}

// NewEntry creates an uncommitted entry.
func NewEntry(url, referrer string, transition TransitionType) *Entry {
	return &Entry{
		URL:        url,
		Referrer:   referrer,
		Transition: transition,
		PageID:     InvalidPageID,
	}
}

// Clone returns a deep copy of the entry. The site instance is shared since it
// is an identity token.
func (e *Entry) Clone() *Entry {
	c := *e
	if e.ContentState != nil {
		c.ContentState = append([]byte(nil), e.ContentState...)
	}
	return &c
}

// VirtualURL returns the URL to show the user.
func (e *Entry) VirtualURL() string {
	if e.DisplayURL != "" {
		return e.DisplayURL
	}
	return e.URL
}

// TitleForDisplay returns the title, falling back to the virtual URL.
func (e *Entry) TitleForDisplay() string {
	if e.Title != "" {
		return e.Title
	}
	return e.VirtualURL()
}

func (e *Entry) hasPageID() bool {
	return e.PageID != InvalidPageID
}
