package app

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/vidyasagar/navsurf/internal/config"
	"github.com/vidyasagar/navsurf/internal/navigation"
	"github.com/vidyasagar/navsurf/internal/storage"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

func newTestModel(t *testing.T, cfg *config.Config, sessions *storage.SessionStore) Model {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
	}
	m := New(Options{Config: cfg, Sessions: sessions, Version: "test"})
	t.Cleanup(m.Close)
	return m
}

func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "ctrl+h":
			msg = tea.KeyMsg{Type: tea.KeyCtrlH}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		m = send(t, m, msg)
	}
	return m
}

// commitNext feeds the active tab's next host result into the model.
func commitNext(t *testing.T, m Model) Model {
	t.Helper()
	tb := m.activeTab()
	select {
	case c, ok := <-tb.host.Commits():
		require.True(t, ok, "host closed")
		require.NoError(t, c.Err)
		return send(t, m, commitMsg{tabID: tb.id, commit: c})
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for commit")
	}
	return m
}

func start(t *testing.T, m Model) Model {
	t.Helper()
	return send(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
}

func TestStartLoadsHomepage(t *testing.T) {
	m := start(t, newTestModel(t, nil, nil))
	require.NotNil(t, m.activeTab().ctrl.PendingEntry())

	m = commitNext(t, m)
	ctrl := m.activeTab().ctrl
	require.Equal(t, 1, ctrl.EntryCount())
	assert.Equal(t, "about:help", ctrl.LastCommittedEntry().URL)
	assert.Nil(t, ctrl.PendingEntry())
	assert.Contains(t, m.View(), "about:help")
}

func TestHistoryKeys(t *testing.T) {
	m := commitNext(t, start(t, newTestModel(t, nil, nil)))
	m.navigate(m.activeTab(), "about:version", "", navigation.TransitionTyped)
	m = commitNext(t, m)

	ctrl := m.activeTab().ctrl
	require.Equal(t, 2, ctrl.EntryCount())

	m = press(t, m, "H")
	require.Equal(t, 0, ctrl.PendingIndex())
	m = commitNext(t, m)
	assert.Equal(t, 0, ctrl.LastCommittedIndex())
	assert.True(t, ctrl.CanGoForward())

	m = press(t, m, "H")
	assert.Equal(t, "No back history", m.statusBar.Message())

	m = press(t, m, "L")
	m = commitNext(t, m)
	assert.Equal(t, 1, ctrl.LastCommittedIndex())
	assert.Equal(t, "about:version", ctrl.LastCommittedEntry().URL)
}

func TestInterstitialGuardsInsecureLoads(t *testing.T) {
	m := commitNext(t, start(t, newTestModel(t, nil, nil)))
	tb := m.activeTab()

	m.navigate(tb, "http://example.com/", "", navigation.TransitionTyped)
	assert.Equal(t, ModeInterstitial, m.mode)
	require.NotNil(t, tb.ctrl.TransientEntry())
	assert.Equal(t, navigation.PageInterstitial, tb.ctrl.ActiveEntry().PageType)
	assert.Nil(t, tb.ctrl.PendingEntry(), "nothing is requested until the user proceeds")

	m = press(t, m, "esc")
	assert.Equal(t, ModeNormal, m.mode)
	assert.Nil(t, tb.ctrl.TransientEntry())
	assert.Equal(t, "about:help", tb.ctrl.ActiveEntry().URL)

	m.navigate(tb, "http://example.com/", "", navigation.TransitionTyped)
	m = press(t, m, "p")
	assert.Equal(t, ModeNormal, m.mode)
	assert.Nil(t, tb.ctrl.TransientEntry())
	require.NotNil(t, tb.ctrl.PendingEntry())
	assert.Equal(t, "http://example.com/", tb.ctrl.PendingEntry().URL)
	assert.True(t, tb.trusted["http://example.com"])
}

func TestInterstitialDroppedWhenEarlierLoadCommits(t *testing.T) {
	m := start(t, newTestModel(t, nil, nil))
	tb := m.activeTab()
	require.NotNil(t, tb.ctrl.PendingEntry(), "homepage still loading")

	m.navigate(tb, "http://example.com/", "", navigation.TransitionTyped)
	require.Equal(t, ModeInterstitial, m.mode)

	m = commitNext(t, m)
	assert.Equal(t, ModeNormal, m.mode)
	assert.Nil(t, tb.interstitial)
	assert.Nil(t, tb.ctrl.TransientEntry())
	assert.Equal(t, "about:help", tb.ctrl.LastCommittedEntry().URL)
	assert.NotContains(t, m.View(), "not served over HTTPS")

	// Normal keys work again.
	m = press(t, m, ":")
	assert.Equal(t, ModeCommand, m.mode)
}

func TestSessionPanelNavigatesAndRemoves(t *testing.T) {
	m := commitNext(t, start(t, newTestModel(t, nil, nil)))
	m.navigate(m.activeTab(), "about:version", "", navigation.TransitionTyped)
	m = commitNext(t, m)
	ctrl := m.activeTab().ctrl

	m = press(t, m, "ctrl+h")
	require.Equal(t, ModeSession, m.mode)
	require.True(t, m.sessionPanel.IsVisible())
	assert.Equal(t, 1, m.sessionPanel.Selected())

	m = press(t, m, "k", "enter")
	assert.Equal(t, ModeNormal, m.mode)
	m = commitNext(t, m)
	assert.Equal(t, 0, ctrl.LastCommittedIndex())

	m = press(t, m, "ctrl+h", "d")
	m = commitNext(t, m)
	assert.Equal(t, 1, ctrl.EntryCount())
	assert.Equal(t, "about:version", ctrl.LastCommittedEntry().URL)
}

func TestDuplicateTab(t *testing.T) {
	m := commitNext(t, start(t, newTestModel(t, nil, nil)))
	src := m.activeTab()

	m = press(t, m, "y")
	require.Equal(t, 2, m.tabBar.Count())
	dup := m.activeTab()
	require.NotSame(t, src, dup)
	assert.True(t, dup.ctrl.Entries()[0].Restored)

	m = commitNext(t, m)
	assert.Equal(t, "about:help", dup.ctrl.LastCommittedEntry().URL)
	assert.False(t, dup.ctrl.LastCommittedEntry().Restored)
	assert.Equal(t, 1, src.ctrl.EntryCount(), "the source tab is untouched")
}

func TestSessionIsSavedAndRestored(t *testing.T) {
	db, err := storage.OpenDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	sessions := storage.NewSessionStore(db)

	m := commitNext(t, start(t, newTestModel(t, nil, sessions)))
	m.navigate(m.activeTab(), "about:version", "", navigation.TransitionTyped)
	commitNext(t, m)

	saved, err := sessions.LoadTabs()
	require.NoError(t, err)
	require.Len(t, saved, 1)
	require.Len(t, saved[0].Entries, 2)
	assert.Equal(t, 1, saved[0].Selected)

	restored := newTestModel(t, nil, sessions)
	tb := restored.activeTab()
	assert.Equal(t, saved[0].ID, tb.id)
	require.Equal(t, 2, tb.ctrl.EntryCount())
	assert.True(t, tb.ctrl.NeedsLoad())

	restored = commitNext(t, start(t, restored))
	assert.Equal(t, 1, tb.ctrl.LastCommittedIndex())
	assert.Equal(t, "about:version", tb.ctrl.LastCommittedEntry().URL)
	assert.False(t, tb.ctrl.LastCommittedEntry().Restored)
}

func TestCloseTab(t *testing.T) {
	m := commitNext(t, start(t, newTestModel(t, nil, nil)))
	m = send(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	require.Equal(t, 2, m.tabBar.Count())
	closing := m.activeTab()

	m = send(t, m, tea.KeyMsg{Type: tea.KeyCtrlW})
	assert.Equal(t, 1, m.tabBar.Count())
	assert.NotContains(t, m.tabs, closing.id)
	for range closing.host.Commits() {
		// Drains anything delivered before the close; ends once closed.
	}
}

func TestScrollState(t *testing.T) {
	assert.Equal(t, 12, decodeScroll(encodeScroll(12)))
	assert.Zero(t, decodeScroll(nil))
	assert.Zero(t, decodeScroll([]byte("scroll=-3")))
	assert.Zero(t, decodeScroll([]byte("zoom=2")))
}

func TestVisitsMarkdown(t *testing.T) {
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	md := visitsMarkdown("", []storage.Visit{
		{URL: "https://go.dev/", Title: "Go", VisitedAt: now.Add(-5 * time.Minute)},
		{URL: "https://a.example/", VisitedAt: now.Add(-50 * time.Hour)},
	}, now)
	assert.Contains(t, md, "# Recent visits")
	assert.Contains(t, md, "**Go**")
	assert.Contains(t, md, "5m ago")
	assert.Contains(t, md, "**https://a.example/**")
	assert.Contains(t, md, "2d ago")

	assert.Contains(t, visitsMarkdown("rust", nil, now), "Nothing here yet.")
}
