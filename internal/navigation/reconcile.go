package navigation

import "go.uber.org/zap"

// Gesture records whether a navigation was user initiated.
type Gesture int

const (
	GestureUser Gesture = iota
	GestureAuto
)

// Report is what a content host sends once a navigation commits.
// Transition defaults to TransitionLink when the host leaves it unset.
type Report struct {
	PageID              int
	URL                 string
	Referrer            string
	Title               string
	Transition          TransitionType
	ContentType         ContentType
	SiteInstance        *SiteInstance
	ContentState        []byte
	ShouldUpdateHistory bool
	Gesture             Gesture
	IsPost              bool
}

// RendererDidNavigate reconciles a commit report with the pending request
// and the committed list. It returns false when the report is ignored, in
// which case nothing changes and no event is emitted.
func (c *Controller) RendererDidNavigate(r Report, isMainFrame bool) bool {
	if r.Transition.IsSubframe() {
		return c.didNavigateSubframe(r, isMainFrame)
	}
	return c.didNavigateMainFrame(r, isMainFrame)
}

func (c *Controller) didNavigateSubframe(r Report, isMainFrame bool) bool {
	// Both guards are checked on their own; neither implies the other.
	last := c.LastCommittedEntry()
	var reason string
	switch {
	case r.Transition == TransitionAutoSubframe:
		reason = "auto subframe"
	case last == nil:
		reason = "subframe before any top-level commit"
	}
	if reason == "" && sameDocumentURL(r.URL, last.URL) {
		reason = "subframe reported the top-level URL"
	}
	if reason != "" {
		c.log.Debug("subframe navigation ignored",
			zap.String("reason", reason),
			zap.String("url", r.URL),
			zap.Int("page_id", r.PageID))
		return false
	}

	previousURL := last.URL
	ct := r.ContentType
	if ct == ContentTypeNone {
		ct = last.ContentType
	}
	if existing := c.indexWithPageID(ct, r.PageID); existing >= 0 {
		// Revisiting subframe history: the top-level URL stays as it was.
		c.lastCommitted = existing
		c.finishCommit(r, existing, NavExistingPage, previousURL, isMainFrame, false)
		return true
	}

	e := last.Clone()
	e.PageID = r.PageID
	e.ContentType = ct
	if r.SiteInstance != nil {
		e.SiteInstance = r.SiteInstance
	}
	if r.ContentState != nil {
		e.ContentState = r.ContentState
	}
	e.Transition = TransitionManualSubframe
	e.PageType = PageNormal
	e.Restored = false
	index := c.insertEntry(e)
	c.finishCommit(r, index, NavNewSubframe, previousURL, isMainFrame, false)
	return true
}

func (c *Controller) didNavigateMainFrame(r Report, isMainFrame bool) bool {
	var previousURL string
	if last := c.LastCommittedEntry(); last != nil {
		previousURL = last.URL
	}
	existing := c.indexWithPageID(r.ContentType, r.PageID)

	index, typ, matched := c.commitPending(r, existing)
	keepPending := false
	if !matched {
		// A history request for another entry is still outstanding when the
		// host lands on an existing entry it was not asked for.
		if p, ok := c.pending.(ExistingPending); ok && existing >= 0 && p.Index != existing {
			keepPending = true
		} else if _, none := c.pending.(NoPending); !none {
			c.log.Debug("stale pending navigation dropped",
				zap.Int("pending_index", c.PendingIndex()),
				zap.Int("page_id", r.PageID),
				zap.String("url", r.URL))
			c.pending = NoPending{}
		}
		if existing >= 0 {
			index, typ = c.commitExisting(existing, r), NavExistingPage
		} else {
			e := NewEntry(r.URL, r.Referrer, r.Transition)
			index, typ = c.commitNew(e, r), NavNewPage
		}
	}
	c.finishCommit(r, index, typ, previousURL, isMainFrame, keepPending)
	return true
}

// commitPending applies r to the pending request if the two match.
func (c *Controller) commitPending(r Report, existing int) (int, NavigationType, bool) {
	switch p := c.pending.(type) {
	case OwnedPending:
		if !contentTypeMatches(p.Entry, r.ContentType) {
			break
		}
		switch {
		case existing < 0:
			return c.commitNew(p.Entry, r), NavNewPage, true
		case existing == c.lastCommitted:
			// The load landed on the page already showing.
			return c.commitExisting(existing, r), NavSamePage, true
		}
	case ExistingPending:
		target := c.entries[p.Index]
		switch {
		case existing == p.Index:
			return c.commitExisting(p.Index, r), NavExistingPage, true
		case existing < 0 && !target.hasPageID() && contentTypeMatches(target, r.ContentType):
			// First commit of a restored placeholder.
			return c.commitExisting(p.Index, r), NavExistingPage, true
		}
	}
	return 0, 0, false
}

func contentTypeMatches(e *Entry, ct ContentType) bool {
	return e.ContentType == ContentTypeNone || ct == ContentTypeNone || e.ContentType == ct
}

func applyReport(e *Entry, r Report) {
	e.PageID = r.PageID
	if r.URL != "" {
		e.URL = r.URL
	}
	if r.ContentType != ContentTypeNone {
		e.ContentType = r.ContentType
	}
	if r.SiteInstance != nil {
		e.SiteInstance = r.SiteInstance
	}
	if r.Title != "" {
		e.Title = r.Title
	}
	if r.ContentState != nil {
		e.ContentState = r.ContentState
	}
	if e.Referrer == "" {
		e.Referrer = r.Referrer
	}
	e.IsPost = r.IsPost
	e.Restored = false
}

func (c *Controller) commitExisting(index int, r Report) int {
	applyReport(c.entries[index], r)
	c.lastCommitted = index
	return index
}

func (c *Controller) commitNew(e *Entry, r Report) int {
	applyReport(e, r)
	return c.insertEntry(e)
}

// insertEntry drops any forward history, appends e and enforces the cap.
func (c *Controller) insertEntry(e *Entry) int {
	keep := c.lastCommitted + 1
	if pruned := len(c.entries) - keep; pruned > 0 {
		clear(c.entries[keep:])
		c.entries = c.entries[:keep]
		c.outbox = append(c.outbox, ListPruned{FromFront: false, Count: pruned})
	}
	c.entries = append(c.entries, e)
	c.lastCommitted = len(c.entries) - 1
	c.enforceCap()
	return c.lastCommitted
}

func (c *Controller) enforceCap() {
	over := len(c.entries) - c.maxEntries
	if over <= 0 {
		return
	}
	n := copy(c.entries, c.entries[over:])
	clear(c.entries[n:])
	c.entries = c.entries[:n]
	c.lastCommitted = max(c.lastCommitted-over, 0)
	if p, ok := c.pending.(ExistingPending); ok {
		if p.Index < over {
			c.pending = NoPending{}
		} else {
			c.pending = ExistingPending{Index: p.Index - over}
		}
	}
	c.outbox = append(c.outbox, ListPruned{FromFront: true, Count: over})
}

// finishCommit clears non-committed state and then delivers the queued
// events, so listeners only ever see the final state. keepPending leaves an
// outstanding history request in place.
func (c *Controller) finishCommit(r Report, index int, typ NavigationType, previousURL string, isMainFrame, keepPending bool) {
	if !keepPending {
		c.pending = NoPending{}
	}
	c.transient = nil
	c.pendingReload = false
	c.needsLoad = false

	// Subframe commits keep the top-level URL, so they are never in-page.
	inPage := !r.Transition.IsSubframe() &&
		r.Transition != TransitionReload &&
		AreURLsInPage(previousURL, r.URL)
	if inPage && (typ == NavNewPage || typ == NavExistingPage) {
		typ = NavInPage
	}
	entry := c.entries[index]
	c.log.Debug("navigation committed",
		zap.Stringer("type", typ),
		zap.String("url", entry.URL),
		zap.Int("page_id", entry.PageID),
		zap.String("content_type", string(entry.ContentType)),
		zap.Int("index", index),
		zap.Int("entries", len(c.entries)))

	c.post(EntryCommitted{
		PreviousURL:         previousURL,
		Entry:               entry,
		Index:               index,
		Type:                typ,
		IsInPage:            inPage,
		IsMainFrame:         isMainFrame,
		IsAuto:              false,
		ShouldUpdateHistory: r.ShouldUpdateHistory,
	})
}
