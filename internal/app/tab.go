package app

import (
	"bytes"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/vidyasagar/navsurf/internal/browser"
	"github.com/vidyasagar/navsurf/internal/navigation"
	"github.com/vidyasagar/navsurf/internal/storage"
	"github.com/vidyasagar/navsurf/internal/ui"
)

// tab is one browser tab: a navigation controller driving its own host.
type tab struct {
	id       string
	ctrl     *navigation.Controller
	host     *browser.Host
	viewport ui.PageViewport
	page     *browser.RenderedPage

	// dirty is set by controller events and cleared once the tab is saved.
	dirty bool
	// confirmRepost is set when a reload waits for the user.
	confirmRepost bool
	// interstitial holds the load the insecure-page warning is guarding.
	interstitial *deferredLoad
	// trusted lists insecure sites the user chose to proceed to.
	trusted map[string]bool
	// overlay is set while the viewport shows something other than the
	// committed page.
	overlay bool

	unsubscribe func()
}

type deferredLoad struct {
	url        string
	referrer   string
	transition navigation.TransitionType
}

// commitMsg carries a host result back into the update loop.
type commitMsg struct {
	tabID  string
	commit browser.Commit
}

// newTab wires a controller to a fresh host. saved, when not empty, is a
// restored session history with selected as its current entry.
func newTab(id string, deps tabDeps, saved []navigation.RestoreEntry, selected int) (*tab, error) {
	host := browser.NewHost(browser.HostConfig{
		Fetcher:   deps.fetcher,
		Renderer:  deps.renderer,
		About:     deps.about,
		CacheSize: deps.cacheSize,
		Width:     deps.width,
		Logger:    deps.log.With(zap.String("tab", id)),
	})
	cfg := navigation.Config{
		MaxEntryCount: deps.maxEntries,
		Logger:        deps.log.With(zap.String("tab", id)),
	}

	ctrl, err := navigation.NewRestored(cfg, host, saved, selected)
	if err != nil {
		host.Close()
		return nil, err
	}
	t := &tab{
		id:       id,
		ctrl:     ctrl,
		host:     host,
		viewport: ui.NewPageViewport(),
		trusted:  make(map[string]bool),
	}
	t.unsubscribe = ctrl.AddListener(t.listener(deps.visits, deps.log))
	return t, nil
}

// tabDeps are the shared pieces every tab is built from.
type tabDeps struct {
	fetcher    *browser.Fetcher
	renderer   *browser.Renderer
	about      browser.AboutPages
	visits     *storage.VisitStore
	log        *zap.Logger
	cacheSize  int
	maxEntries int
	width      int
}

func (t *tab) listener(visits *storage.VisitStore, log *zap.Logger) navigation.Listener {
	return func(ev navigation.Event) {
		switch ev := ev.(type) {
		case navigation.EntryCommitted:
			t.dirty = true
			if ev.IsMainFrame && ev.ShouldUpdateHistory && visits != nil {
				if err := visits.Record(ev.Entry.URL, ev.Entry.Title); err != nil {
					log.Warn("recording visit failed", zap.String("url", ev.Entry.URL), zap.Error(err))
				}
			}
		case navigation.ListPruned, navigation.EntryChanged:
			t.dirty = true
		case navigation.RepostConfirmationRequired:
			t.confirmRepost = true
		}
	}
}

// waitForCommit blocks on the tab's host and returns its next result.
// It returns nil once the host is closed.
func (t *tab) waitForCommit() tea.Cmd {
	commits := t.host.Commits()
	id := t.id
	return func() tea.Msg {
		c, ok := <-commits
		if !ok {
			return nil
		}
		return commitMsg{tabID: id, commit: c}
	}
}

// saveScroll stores the viewport position on the committed entry so going
// back restores it.
func (t *tab) saveScroll() {
	e := t.ctrl.LastCommittedEntry()
	if e == nil || e.PageID == navigation.InvalidPageID || t.overlay {
		return
	}
	state := encodeScroll(t.viewport.YOffset())
	if bytes.Equal(state, e.ContentState) {
		return
	}
	t.ctrl.UpdateContentState(e.ContentType, e.PageID, state)
}

// loading reports whether a request is waiting for its commit.
func (t *tab) loading() bool {
	return t.ctrl.PendingEntry() != nil
}

// title is what the tab bar shows.
func (t *tab) title() string {
	if e := t.ctrl.ActiveEntry(); e != nil {
		return e.TitleForDisplay()
	}
	return ""
}

func (t *tab) close() {
	if t.unsubscribe != nil {
		t.unsubscribe()
	}
	t.host.Close()
}

const scrollPrefix = "scroll="

func encodeScroll(offset int) []byte {
	return []byte(scrollPrefix + strconv.Itoa(offset))
}

// decodeScroll reads a scroll offset, returning 0 for anything else.
func decodeScroll(state []byte) int {
	rest, ok := bytes.CutPrefix(state, []byte(scrollPrefix))
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(string(rest))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
