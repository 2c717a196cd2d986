// Package navigation keeps a tab's session history. A Controller records
// navigation requests (load, reload, back, forward) as a pending entry, hands
// them to a ContentHost, and reconciles the host's later commit reports into
// an ordered, bounded list of committed entries.
package navigation

import (
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"
)

// DefaultMaxEntryCount caps a tab's history unless Config says otherwise.
const DefaultMaxEntryCount = 50

var (
	// ErrInvalidIndex is returned for an index outside the committed list.
	ErrInvalidIndex = errors.New("navigation: invalid entry index")
	// ErrNotEmpty is returned when copying state into a controller that
	// already has history.
	ErrNotEmpty = errors.New("navigation: controller already has entries")
)

// ContentHost loads and renders pages on behalf of a controller. Requests
// are fire-and-forget: the host reports the outcome later through
// Controller.RendererDidNavigate, possibly out of order, or never.
type ContentHost interface {
	RequestNavigation(req Request)
	RequestReload()
}

// Request asks a content host to navigate. PageID is InvalidPageID for a new
// navigation and the entry's page id when revisiting history.
type Request struct {
	URL          string
	Referrer     string
	Transition   TransitionType
	PageID       int
	ContentType  ContentType
	ContentState []byte
	IsPost       bool
}

// Config holds controller settings.
type Config struct {
	MaxEntryCount int
	Logger        *zap.Logger
}

// DefaultConfig returns the default controller configuration.
func DefaultConfig() Config {
	return Config{MaxEntryCount: DefaultMaxEntryCount}
}

// Controller owns one tab's navigation state. It is not safe for concurrent
// use; all calls must come from the same goroutine.
type Controller struct {
	entries       []*Entry
	lastCommitted int
	pending       Pending
	transient     *Entry
	maxEntries    int

	host ContentHost
	log  *zap.Logger

	pendingReload bool // waiting for repost confirmation
	needsLoad     bool // restored, selected entry never requested

	listeners      []listenerSlot
	nextListenerID int
	outbox         []Event
	delivering     bool
}

// New creates an empty controller driving host. host may be nil.
func New(cfg Config, host ContentHost) *Controller {
	if cfg.MaxEntryCount <= 0 {
		cfg.MaxEntryCount = DefaultMaxEntryCount
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		lastCommitted: -1,
		pending:       NoPending{},
		maxEntries:    cfg.MaxEntryCount,
		host:          host,
		log:           log,
	}
}

// RestoreEntry describes one saved history slot.
type RestoreEntry struct {
	URL          string
	Referrer     string
	Title        string
	ContentState []byte
	Transition   TransitionType
}

// NewRestored builds a controller from a saved session. The entries are
// placeholders until the host commits them; selected becomes the current
// entry and is requested by LoadIfNecessary.
func NewRestored(cfg Config, host ContentHost, saved []RestoreEntry, selected int) (*Controller, error) {
	c := New(cfg, host)
	if len(saved) == 0 {
		return c, nil
	}
	if selected < 0 || selected >= len(saved) {
		return nil, fmt.Errorf("%w: selected %d of %d restored entries", ErrInvalidIndex, selected, len(saved))
	}
	entries := make([]*Entry, 0, len(saved))
	for _, s := range saved {
		e := NewEntry(s.URL, s.Referrer, s.Transition)
		e.Title = s.Title
		if s.ContentState != nil {
			e.ContentState = append([]byte(nil), s.ContentState...)
		}
		e.Restored = true
		entries = append(entries, e)
	}
	c.adoptEntries(entries, selected)
	return c, nil
}

// CopyStateFrom clones src's committed history into c, which must be empty.
// The clones are placeholders, as if restored.
func (c *Controller) CopyStateFrom(src *Controller) error {
	if len(c.entries) > 0 {
		return ErrNotEmpty
	}
	if len(src.entries) == 0 {
		return nil
	}
	entries := make([]*Entry, 0, len(src.entries))
	for _, e := range src.entries {
		clone := e.Clone()
		clone.PageID = InvalidPageID
		clone.SiteInstance = nil
		clone.Restored = true
		entries = append(entries, clone)
	}
	c.adoptEntries(entries, src.lastCommitted)
	return nil
}

// adoptEntries installs a full history, keeping at most maxEntries around
// selected (oldest dropped first).
func (c *Controller) adoptEntries(entries []*Entry, selected int) {
	start := 0
	if over := len(entries) - c.maxEntries; over > 0 {
		start = min(over, selected)
	}
	end := min(start+c.maxEntries, len(entries))
	c.entries = entries[start:end:end]
	c.lastCommitted = selected - start
	c.needsLoad = true
	c.log.Debug("history adopted",
		zap.Int("entries", len(c.entries)),
		zap.Int("selected", c.lastCommitted))
}

// MaxEntryCount returns the history cap.
func (c *Controller) MaxEntryCount() int {
	return c.maxEntries
}

// EntryCount returns the number of committed entries. Pending and transient
// entries are not counted.
func (c *Controller) EntryCount() int {
	return len(c.entries)
}

// EntryAt returns the committed entry at index.
func (c *Controller) EntryAt(index int) (*Entry, error) {
	if index < 0 || index >= len(c.entries) {
		return nil, fmt.Errorf("%w: %d (have %d)", ErrInvalidIndex, index, len(c.entries))
	}
	return c.entries[index], nil
}

// EntryAtOffset returns the committed entry offset from the last committed one.
func (c *Controller) EntryAtOffset(offset int) (*Entry, error) {
	return c.EntryAt(c.lastCommitted + offset)
}

// Entries returns the committed entries in order. The slice is a copy; the
// entries are not.
func (c *Controller) Entries() []*Entry {
	return slices.Clone(c.entries)
}

// LastCommittedIndex returns the index of the current committed entry, or -1.
func (c *Controller) LastCommittedIndex() int {
	return c.lastCommitted
}

// LastCommittedEntry returns the current committed entry, or nil.
func (c *Controller) LastCommittedEntry() *Entry {
	if c.lastCommitted < 0 {
		return nil
	}
	return c.entries[c.lastCommitted]
}

// Pending returns the outstanding request.
func (c *Controller) Pending() Pending {
	return c.pending
}

// PendingEntry returns the entry being navigated to, or nil.
func (c *Controller) PendingEntry() *Entry {
	switch p := c.pending.(type) {
	case OwnedPending:
		return p.Entry
	case ExistingPending:
		return c.entries[p.Index]
	}
	return nil
}

// PendingIndex returns the index of the committed entry being re-navigated,
// or -1 when nothing is pending or the pending entry is new.
func (c *Controller) PendingIndex() int {
	if p, ok := c.pending.(ExistingPending); ok {
		return p.Index
	}
	return -1
}

// TransientEntry returns the interstitial overlay, or nil.
func (c *Controller) TransientEntry() *Entry {
	return c.transient
}

// ActiveEntry returns what the tab should display: the transient entry,
// else the pending entry, else the last committed entry.
func (c *Controller) ActiveEntry() *Entry {
	if c.transient != nil {
		return c.transient
	}
	if e := c.PendingEntry(); e != nil {
		return e
	}
	return c.LastCommittedEntry()
}

// CurrentIndex returns the pending index when re-navigating history, else
// the last committed index.
func (c *Controller) CurrentIndex() int {
	if i := c.PendingIndex(); i >= 0 {
		return i
	}
	return c.lastCommitted
}

func (c *Controller) CanGoBack() bool {
	return c.lastCommitted > 0
}

func (c *Controller) CanGoForward() bool {
	return c.lastCommitted >= 0 && c.lastCommitted < len(c.entries)-1
}

// CanGoToOffset reports whether offset from the last committed entry is valid.
func (c *Controller) CanGoToOffset(offset int) bool {
	i := c.lastCommitted + offset
	return c.lastCommitted >= 0 && i >= 0 && i < len(c.entries)
}

// NeedsLoad reports whether the controller was restored and its current
// entry has not been requested yet.
func (c *Controller) NeedsLoad() bool {
	return c.needsLoad
}

// HasPendingReload reports whether a reload is waiting for repost
// confirmation.
func (c *Controller) HasPendingReload() bool {
	return c.pendingReload
}

// EntryWithPageID finds the entry committed by the given content type and
// site instance under pageID. It returns nil when none matches.
func (c *Controller) EntryWithPageID(ct ContentType, site *SiteInstance, pageID int) *Entry {
	if i := c.EntryIndexWithPageID(ct, site, pageID); i >= 0 {
		return c.entries[i]
	}
	return nil
}

// EntryIndexWithPageID is like EntryWithPageID but returns the index, or -1.
func (c *Controller) EntryIndexWithPageID(ct ContentType, site *SiteInstance, pageID int) int {
	for i, e := range c.entries {
		if e.ContentType == ct && e.SiteInstance == site && e.PageID == pageID {
			return i
		}
	}
	return -1
}

// indexWithPageID matches on content type and page id only.
func (c *Controller) indexWithPageID(ct ContentType, pageID int) int {
	if pageID == InvalidPageID {
		return -1
	}
	for i, e := range c.entries {
		if e.ContentType == ct && e.PageID == pageID {
			return i
		}
	}
	return -1
}

// IsURLInPageNavigation reports whether navigating the last committed entry
// to url would only change its fragment.
func (c *Controller) IsURLInPageNavigation(url string) bool {
	last := c.LastCommittedEntry()
	if last == nil {
		return false
	}
	return AreURLsInPage(last.URL, url)
}

// LoadURL requests a navigation to a new entry. Any pending or transient
// entry is dropped. No event is emitted.
func (c *Controller) LoadURL(url, referrer string, transition TransitionType) {
	c.pendingReload = false
	c.discardNonCommitted()
	c.pending = OwnedPending{Entry: NewEntry(url, referrer, transition)}
	c.log.Debug("load requested", zap.String("url", url), zap.Stringer("transition", transition))
	c.navigateToPending(false)
}

// Reload re-requests the last committed entry. When checkForRepost is set
// and the entry is the result of a POST, RepostConfirmationRequired is
// emitted instead and the reload waits for ContinuePendingReload.
func (c *Controller) Reload(checkForRepost bool) {
	current := c.LastCommittedEntry()
	if current == nil {
		return
	}
	if checkForRepost && current.IsPost {
		c.pendingReload = true
		c.post(RepostConfirmationRequired{Index: c.lastCommitted})
		return
	}
	c.reload()
}

// ContinuePendingReload performs a reload that was waiting for repost
// confirmation.
func (c *Controller) ContinuePendingReload() {
	if !c.pendingReload {
		return
	}
	c.pendingReload = false
	if c.lastCommitted >= 0 {
		c.reload()
	}
}

// CancelPendingReload drops a reload waiting for repost confirmation.
func (c *Controller) CancelPendingReload() {
	c.pendingReload = false
}

func (c *Controller) reload() {
	c.pendingReload = false
	c.transient = nil
	c.pending = ExistingPending{Index: c.lastCommitted}
	// A restored placeholder was never loaded by the host, so there is
	// nothing for it to reload.
	c.navigateToPending(c.entries[c.lastCommitted].hasPageID())
}

// GoBack requests the previous entry. It panics unless CanGoBack.
func (c *Controller) GoBack() {
	if !c.CanGoBack() {
		panic("navigation: GoBack without back history")
	}
	c.goToIndex(c.lastCommitted - 1)
}

// GoForward requests the next entry. It panics unless CanGoForward.
func (c *Controller) GoForward() {
	if !c.CanGoForward() {
		panic("navigation: GoForward without forward history")
	}
	c.goToIndex(c.lastCommitted + 1)
}

// GoToIndex requests the committed entry at index. It panics on an invalid
// index.
func (c *Controller) GoToIndex(index int) {
	if index < 0 || index >= len(c.entries) {
		panic(fmt.Sprintf("navigation: GoToIndex(%d) with %d entries", index, len(c.entries)))
	}
	c.goToIndex(index)
}

// GoToOffset requests the entry offset from the last committed one. It
// panics unless CanGoToOffset.
func (c *Controller) GoToOffset(offset int) {
	if !c.CanGoToOffset(offset) {
		panic(fmt.Sprintf("navigation: GoToOffset(%d) out of range", offset))
	}
	c.goToIndex(c.lastCommitted + offset)
}

func (c *Controller) goToIndex(index int) {
	c.pendingReload = false
	c.discardNonCommitted()
	c.pending = ExistingPending{Index: index}
	c.log.Debug("history navigation requested",
		zap.Int("index", index),
		zap.Int("last_committed", c.lastCommitted))
	c.navigateToPending(false)
}

// LoadIfNecessary requests the current entry of a restored controller.
// It reports whether a request was made.
func (c *Controller) LoadIfNecessary() bool {
	if !c.needsLoad || c.lastCommitted < 0 {
		return false
	}
	c.pending = ExistingPending{Index: c.lastCommitted}
	c.navigateToPending(false)
	return true
}

// AddTransientEntry layers e over the committed history until the next
// commit or request. No event is emitted.
func (c *Controller) AddTransientEntry(e *Entry) {
	c.transient = e
}

// DiscardNonCommittedEntries drops the pending and transient entries. No
// event is emitted.
func (c *Controller) DiscardNonCommittedEntries() {
	c.discardNonCommitted()
}

func (c *Controller) discardNonCommitted() {
	c.pending = NoPending{}
	c.transient = nil
}

func (c *Controller) navigateToPending(reload bool) {
	c.needsLoad = false
	if c.host == nil {
		return
	}
	if reload {
		c.host.RequestReload()
		return
	}
	e := c.PendingEntry()
	if e == nil {
		return
	}
	c.host.RequestNavigation(Request{
		URL:          e.URL,
		Referrer:     e.Referrer,
		Transition:   e.Transition,
		PageID:       e.PageID,
		ContentType:  e.ContentType,
		ContentState: e.ContentState,
		IsPost:       e.IsPost,
	})
}

// RemoveEntryAtIndex deletes a committed entry. Removing the current entry
// navigates to its predecessor, or to defaultURL ("about:blank" if empty)
// when no history is left.
func (c *Controller) RemoveEntryAtIndex(index int, defaultURL string) error {
	if index < 0 || index >= len(c.entries) {
		return fmt.Errorf("%w: %d (have %d)", ErrInvalidIndex, index, len(c.entries))
	}
	wasCurrent := index == c.lastCommitted
	c.entries = slices.Delete(c.entries, index, index+1)

	if !wasCurrent {
		if index < c.lastCommitted {
			c.lastCommitted--
		}
		if p, ok := c.pending.(ExistingPending); ok {
			switch {
			case p.Index == index:
				c.pending = NoPending{}
			case p.Index > index:
				c.pending = ExistingPending{Index: p.Index - 1}
			}
		}
		return nil
	}

	c.pendingReload = false
	c.discardNonCommitted()
	c.lastCommitted--
	if c.lastCommitted < 0 && len(c.entries) > 0 {
		c.lastCommitted = 0
	}
	if len(c.entries) > 0 {
		c.pending = ExistingPending{Index: c.lastCommitted}
	} else {
		if defaultURL == "" {
			defaultURL = "about:blank"
		}
		c.pending = OwnedPending{Entry: NewEntry(defaultURL, "", TransitionStartPage)}
	}
	c.navigateToPending(false)
	return nil
}

// UpdateTitle sets the title of the entry committed under (ct, pageID) and
// emits EntryChanged. It reports whether an entry changed.
func (c *Controller) UpdateTitle(ct ContentType, pageID int, title string) bool {
	i := c.indexWithPageID(ct, pageID)
	if i < 0 || c.entries[i].Title == title {
		return false
	}
	c.entries[i].Title = title
	c.post(EntryChanged{Index: i, Entry: c.entries[i]})
	return true
}

// UpdateContentState replaces the persisted page state of the entry
// committed under (ct, pageID) and emits EntryChanged.
func (c *Controller) UpdateContentState(ct ContentType, pageID int, state []byte) bool {
	i := c.indexWithPageID(ct, pageID)
	if i < 0 {
		return false
	}
	c.entries[i].ContentState = append([]byte(nil), state...)
	c.post(EntryChanged{Index: i, Entry: c.entries[i]})
	return true
}
