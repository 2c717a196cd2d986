// Package app is the bubbletea front end. Each tab owns a navigation
// controller and the browser host it drives; host results come back into
// the update loop as messages and are reconciled there.
package app

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vidyasagar/navsurf/internal/browser"
	"github.com/vidyasagar/navsurf/internal/config"
	"github.com/vidyasagar/navsurf/internal/navigation"
	"github.com/vidyasagar/navsurf/internal/storage"
	"github.com/vidyasagar/navsurf/internal/theme"
	"github.com/vidyasagar/navsurf/internal/ui"
)

// Mode is the current input mode.
type Mode int

const (
	ModeNormal       Mode = iota
	ModeInsert            // URL bar focused
	ModeCommand           // : command bar
	ModeFollow            // f link number
	ModeSession           // session panel focused
	ModeConfirm           // waiting for repost confirmation
	ModeInterstitial      // insecure page warning shown
)

func (m Mode) label() string {
	switch m {
	case ModeInsert:
		return ui.ModeInsert
	case ModeCommand:
		return ui.ModeCommand
	case ModeFollow:
		return ui.ModeFollow
	case ModeSession:
		return ui.ModeSession
	case ModeConfirm:
		return ui.ModeConfirm
	case ModeInterstitial:
		return ui.ModeInterstitial
	default:
		return ui.ModeNormal
	}
}

// Options configures a Model.
type Options struct {
	Config   *config.Config
	Sessions *storage.SessionStore // nil disables session persistence
	Visits   *storage.VisitStore   // nil disables the visit log
	Logger   *zap.Logger
	Version  string
	StartURL string
}

// Model is the top-level bubbletea model.
type Model struct {
	tabBar       ui.TabBar
	urlBar       ui.URLBar
	statusBar    ui.StatusBar
	commandBar   ui.CommandBar
	sessionPanel ui.SessionPanel

	tabs map[string]*tab
	deps tabDeps

	cfg      *config.Config
	sessions *storage.SessionStore
	visits   *storage.VisitStore
	log      *zap.Logger
	keys     KeyMap

	mode     Mode
	width    int
	height   int
	lastGKey bool
	ready    bool
	restored bool
	startURL string
}

// New creates the model, restoring the saved session when enabled.
func New(opts Options) Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	theme.Set(cfg.Theme)

	keys := DefaultKeyMap()
	m := Model{
		tabBar:       ui.NewTabBar(),
		urlBar:       ui.NewURLBar(),
		statusBar:    ui.NewStatusBar(),
		commandBar:   ui.NewCommandBar(),
		sessionPanel: ui.NewSessionPanel(),
		tabs:         make(map[string]*tab),
		deps: tabDeps{
			fetcher:    browser.NewFetcher(),
			renderer:   browser.NewRenderer(theme.Current.Glamour),
			about:      browser.DefaultAboutPages(opts.Version, keys.HelpMarkdown()),
			visits:     opts.Visits,
			log:        log,
			cacheSize:  cfg.PageCacheSize,
			maxEntries: cfg.MaxEntries,
		},
		cfg:      cfg,
		sessions: opts.Sessions,
		visits:   opts.Visits,
		log:      log,
		keys:     keys,
		startURL: opts.StartURL,
	}

	if cfg.RestoreSession && m.sessions != nil {
		m.restoreSession()
	}
	if m.tabBar.Count() == 0 {
		m.addTab(uuid.NewString(), nil, 0)
	}
	m.tabBar.Select(0)
	return m
}

func (m *Model) restoreSession() {
	saved, err := m.sessions.LoadTabs()
	if err != nil {
		m.log.Warn("loading saved session failed", zap.Error(err))
		return
	}
	for _, s := range saved {
		if _, err := m.addTab(s.ID, s.Entries, s.Selected); err != nil {
			m.log.Warn("restoring tab failed", zap.String("tab", s.ID), zap.Error(err))
			continue
		}
		m.restored = true
	}
	m.log.Info("session restored", zap.Int("tabs", m.tabBar.Count()))
}

// addTab creates a tab next to the active one and activates it.
func (m *Model) addTab(id string, saved []navigation.RestoreEntry, selected int) (*tab, error) {
	t, err := newTab(id, m.deps, saved, selected)
	if err != nil {
		return nil, err
	}
	m.tabs[id] = t
	m.tabBar.Add(id, t.title())
	if m.ready {
		t.viewport.SetSize(m.viewportSize())
	}
	return t, nil
}

// Close stops every tab's host.
func (m Model) Close() {
	for _, t := range m.tabs {
		t.close()
	}
	m.deps.fetcher.CloseIdleConnections()
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(m.tabs))
	for _, t := range m.tabs {
		cmds = append(cmds, t.waitForCommit())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := m.update(msg)
	if m.ready {
		m.layout()
	}
	m.persist()
	m.sync()
	return m, cmd
}

func (m *Model) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		if !m.ready {
			m.ready = true
			m.start()
		}
		return nil

	case commitMsg:
		return m.handleCommit(msg)

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	if t := m.activeTab(); t != nil {
		vp, cmd := t.viewport.Update(msg)
		t.viewport = *vp
		return cmd
	}
	return nil
}

// start issues the first navigation once the window size is known.
func (m *Model) start() {
	t := m.activeTab()
	switch {
	case m.startURL != "":
		m.navigate(t, browser.ResolveInput(m.startURL), "", navigation.TransitionTyped)
	case m.restored:
		t.ctrl.LoadIfNecessary()
	default:
		m.navigate(t, m.cfg.Homepage, "", navigation.TransitionStartPage)
	}
}

// handleCommit reconciles a host result with the tab's controller.
func (m *Model) handleCommit(msg commitMsg) tea.Cmd {
	t, ok := m.tabs[msg.tabID]
	if !ok {
		return nil
	}
	next := t.waitForCommit()
	c := msg.commit

	defer m.dropInterstitial(t)

	if c.Err != nil {
		t.ctrl.DiscardNonCommittedEntries()
		if t == m.activeTab() {
			m.statusBar.SetError(fmt.Sprintf("Failed to load %s: %v", c.URL, c.Err))
		}
		return next
	}

	prev := t.page
	if !t.ctrl.RendererDidNavigate(c.Report, true) {
		m.log.Debug("commit ignored",
			zap.String("tab", t.id),
			zap.String("url", c.Report.URL),
			zap.Int("page_id", c.Report.PageID))
		return next
	}

	offset := 0
	if c.Page == prev {
		offset = t.viewport.YOffset()
	} else if e := t.ctrl.LastCommittedEntry(); e != nil {
		offset = decodeScroll(e.ContentState)
	}
	t.page = c.Page
	t.overlay = false
	t.viewport.SetContent(c.Page.Content, offset)
	if t == m.activeTab() {
		m.statusBar.ClearMessage()
	}
	return next
}

// navigate loads url in t, showing the insecure page warning first when
// configured.
func (m *Model) navigate(t *tab, url, referrer string, transition navigation.TransitionType) {
	if t == nil || url == "" {
		return
	}
	if m.cfg.WarnInsecure && browser.IsInsecure(url) && !t.trusted[browser.SiteOf(url)] {
		e := navigation.NewEntry(url, referrer, transition)
		e.PageType = navigation.PageInterstitial
		e.Title = "Insecure connection"
		t.ctrl.AddTransientEntry(e)
		t.interstitial = &deferredLoad{url: url, referrer: referrer, transition: transition}
		t.viewport.SetNotice(interstitialNotice(url))
		m.mode = ModeInterstitial
		return
	}
	t.saveScroll()
	t.overlay = false
	t.ctrl.LoadURL(url, referrer, transition)
}

// dropInterstitial leaves the insecure page warning once a commit or a
// failure has discarded its transient entry.
func (m *Model) dropInterstitial(t *tab) {
	if t.interstitial == nil || t.ctrl.TransientEntry() != nil {
		return
	}
	m.log.Debug("insecure page warning dropped", zap.String("tab", t.id), zap.String("url", t.interstitial.url))
	t.interstitial = nil
	t.viewport.SetNotice("")
	if t == m.activeTab() && m.mode == ModeInterstitial {
		m.mode = ModeNormal
	}
}

func interstitialNotice(url string) string {
	t := theme.Current
	head := lipgloss.NewStyle().Bold(true).Foreground(t.Warning).Render("⚠ This page is not served over HTTPS")
	body := lipgloss.NewStyle().Foreground(t.Text).Render(url)
	hint := lipgloss.NewStyle().Foreground(t.TextDim).Render("p: proceed   esc: go back")
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(t.Warning).
		Padding(1, 3).
		Render(lipgloss.JoinVertical(lipgloss.Center, head, "", body, "", hint))
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		return tea.Quit
	}
	switch m.mode {
	case ModeInsert:
		return m.handleInsertMode(msg)
	case ModeCommand, ModeFollow:
		return m.handleCommandMode(msg)
	case ModeSession:
		return m.handleSessionMode(msg)
	case ModeConfirm:
		return m.handleConfirmMode(msg)
	case ModeInterstitial:
		return m.handleInterstitialMode(msg)
	default:
		return m.handleNormalMode(msg)
	}
}

func (m *Model) handleNormalMode(msg tea.KeyMsg) tea.Cmd {
	t := m.activeTab()

	// gg, gt and gT.
	if m.lastGKey {
		m.lastGKey = false
		switch msg.String() {
		case "g":
			t.viewport.GotoTop()
			return nil
		case "t":
			return m.switchTab(m.tabBar.Next)
		case "T":
			return m.switchTab(m.tabBar.Prev)
		}
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit

	case key.Matches(msg, m.keys.GotoTop):
		m.lastGKey = true

	case key.Matches(msg, m.keys.ScrollDown):
		t.viewport.LineDown(1)
	case key.Matches(msg, m.keys.ScrollUp):
		t.viewport.LineUp(1)
	case key.Matches(msg, m.keys.HalfPageDown):
		t.viewport.HalfPageDown()
	case key.Matches(msg, m.keys.HalfPageUp):
		t.viewport.HalfPageUp()
	case key.Matches(msg, m.keys.GotoBottom):
		t.viewport.GotoBottom()

	case key.Matches(msg, m.keys.OpenURL):
		m.mode = ModeInsert
		return m.urlBar.Focus()

	case key.Matches(msg, m.keys.FollowLink):
		if t.page == nil || len(t.page.Links) == 0 {
			m.statusBar.SetMessage("No links on this page")
			return nil
		}
		m.mode = ModeFollow
		return m.commandBar.Open(ui.PromptFollow)

	case key.Matches(msg, m.keys.CommandMode):
		m.mode = ModeCommand
		return m.commandBar.Open(ui.PromptEx)

	case key.Matches(msg, m.keys.Back):
		m.goToOffset(t, -1)
	case key.Matches(msg, m.keys.Forward):
		m.goToOffset(t, 1)

	case key.Matches(msg, m.keys.Reload):
		m.reload(t, false)
	case key.Matches(msg, m.keys.RepostReload):
		m.reload(t, true)

	case key.Matches(msg, m.keys.SessionToggle):
		m.mode = ModeSession
		m.sessionPanel.Show(t.ctrl.Entries(), t.ctrl.LastCommittedIndex())
		m.layout()

	case key.Matches(msg, m.keys.NewTab):
		return m.newTab()
	case key.Matches(msg, m.keys.DuplicateTab):
		return m.duplicateTab(t)
	case key.Matches(msg, m.keys.CloseTab):
		return m.closeTab(t)
	case key.Matches(msg, m.keys.NextTab):
		return m.switchTab(m.tabBar.Next)
	case key.Matches(msg, m.keys.PrevTab):
		return m.switchTab(m.tabBar.Prev)

	case key.Matches(msg, m.keys.Help):
		m.navigate(t, "about:help", "", navigation.TransitionTyped)

	case msg.Type == tea.KeyEsc:
		if t.overlay && t.page != nil {
			t.overlay = false
			t.viewport.SetContent(t.page.Content, 0)
		}
		m.statusBar.ClearMessage()
	}
	return nil
}

func (m *Model) goToOffset(t *tab, offset int) {
	if !t.ctrl.CanGoToOffset(offset) {
		if offset < 0 {
			m.statusBar.SetMessage("No back history")
		} else {
			m.statusBar.SetMessage("No forward history")
		}
		return
	}
	t.saveScroll()
	t.ctrl.GoToOffset(offset)
}

func (m *Model) reload(t *tab, checkForRepost bool) {
	if t.ctrl.LastCommittedEntry() == nil {
		m.statusBar.SetMessage("Nothing to reload")
		return
	}
	t.saveScroll()
	t.ctrl.Reload(checkForRepost)
	if t.confirmRepost {
		m.mode = ModeConfirm
		m.statusBar.SetMessage("This page was a form submission. Send it again? (y/n)")
	}
}

func (m *Model) handleConfirmMode(msg tea.KeyMsg) tea.Cmd {
	t := m.activeTab()
	switch msg.String() {
	case "y", "enter":
		t.ctrl.ContinuePendingReload()
	case "n", "esc":
		t.ctrl.CancelPendingReload()
	default:
		return nil
	}
	t.confirmRepost = false
	m.mode = ModeNormal
	m.statusBar.ClearMessage()
	return nil
}

func (m *Model) handleInterstitialMode(msg tea.KeyMsg) tea.Cmd {
	t := m.activeTab()
	switch msg.String() {
	case "p":
		d := t.interstitial
		t.interstitial = nil
		t.viewport.SetNotice("")
		m.mode = ModeNormal
		if d != nil {
			t.trusted[browser.SiteOf(d.url)] = true
			m.navigate(t, d.url, d.referrer, d.transition)
		}
	case "esc", "q":
		t.interstitial = nil
		t.ctrl.DiscardNonCommittedEntries()
		t.viewport.SetNotice("")
		m.mode = ModeNormal
	}
	return nil
}

func (m *Model) handleInsertMode(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.urlBar.Blur()
		m.mode = ModeNormal
		return nil
	case tea.KeyEnter:
		url := browser.ResolveInput(m.urlBar.Value())
		m.urlBar.Blur()
		m.mode = ModeNormal
		m.navigate(m.activeTab(), url, "", navigation.TransitionTyped)
		return nil
	}
	ub, cmd := m.urlBar.Update(msg)
	m.urlBar = *ub
	return cmd
}

func (m *Model) handleCommandMode(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.commandBar.Close()
		m.mode = ModeNormal
		return nil
	case tea.KeyEnter:
		s := m.commandBar.Submit()
		m.mode = ModeNormal
		switch s.Prompt {
		case ui.PromptFollow:
			m.followLink(s.Value)
		case ui.PromptEx:
			return m.executeCommand(s.Value)
		}
		return nil
	}
	cb, cmd := m.commandBar.Update(msg)
	m.commandBar = *cb
	return cmd
}

func (m *Model) handleSessionMode(msg tea.KeyMsg) tea.Cmd {
	t := m.activeTab()
	if msg.String() != "g" {
		m.sessionPanel.ResetGKey()
	}
	switch msg.String() {
	case "j", "down":
		m.sessionPanel.CursorDown()
	case "k", "up":
		m.sessionPanel.CursorUp()
	case "g":
		m.sessionPanel.HandleGKey()
	case "G":
		m.sessionPanel.GotoBottom()
	case "enter":
		if i := m.sessionPanel.Selected(); i >= 0 && i != t.ctrl.LastCommittedIndex() {
			t.saveScroll()
			t.ctrl.GoToIndex(i)
		}
		m.closeSessionPanel()
	case "d":
		if i := m.sessionPanel.Selected(); i >= 0 {
			if err := t.ctrl.RemoveEntryAtIndex(i, m.cfg.Homepage); err != nil {
				m.statusBar.SetError(err.Error())
			}
			t.dirty = true
		}
	case "esc", "ctrl+h", "q":
		m.closeSessionPanel()
	}
	return nil
}

func (m *Model) closeSessionPanel() {
	m.sessionPanel.Hide()
	m.mode = ModeNormal
	m.layout()
}

// followLink navigates to the numbered link on the current page.
func (m *Model) followLink(input string) {
	t := m.activeTab()
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		m.statusBar.SetError(fmt.Sprintf("Invalid link number: %s", input))
		return
	}
	if t.page == nil {
		return
	}
	link, ok := t.page.LinkByIndex(n)
	if !ok {
		m.statusBar.SetError(fmt.Sprintf("Link [%d] not found", n))
		return
	}
	referrer := ""
	if e := t.ctrl.LastCommittedEntry(); e != nil {
		referrer = e.URL
	}
	m.navigate(t, link.URL, referrer, navigation.TransitionLink)
}

func (m *Model) newTab() tea.Cmd {
	t, err := m.addTab(uuid.NewString(), nil, 0)
	if err != nil {
		m.statusBar.SetError(err.Error())
		return nil
	}
	m.navigate(t, m.cfg.Homepage, "", navigation.TransitionStartPage)
	return t.waitForCommit()
}

// duplicateTab opens a copy of src's history and loads its current entry.
func (m *Model) duplicateTab(src *tab) tea.Cmd {
	if src.ctrl.EntryCount() == 0 {
		return m.newTab()
	}
	t, err := m.addTab(uuid.NewString(), nil, 0)
	if err != nil {
		m.statusBar.SetError(err.Error())
		return nil
	}
	if err := t.ctrl.CopyStateFrom(src.ctrl); err != nil {
		m.statusBar.SetError(err.Error())
	}
	t.ctrl.LoadIfNecessary()
	t.dirty = true
	return t.waitForCommit()
}

func (m *Model) closeTab(t *tab) tea.Cmd {
	if !m.tabBar.Remove(m.tabBar.IndexOf(t.id)) {
		return tea.Quit
	}
	delete(m.tabs, t.id)
	t.close()
	if m.sessions != nil {
		if err := m.sessions.DeleteTab(t.id); err != nil {
			m.log.Warn("deleting saved tab failed", zap.String("tab", t.id), zap.Error(err))
		}
	}
	// Positions shifted.
	for _, other := range m.tabs {
		other.dirty = true
	}
	return m.switchTab(func() {})
}

// switchTab runs move on the tab bar and loads a restored tab the first
// time it is shown.
func (m *Model) switchTab(move func()) tea.Cmd {
	move()
	m.mode = ModeNormal
	m.sessionPanel.Hide()
	m.layout()
	if t := m.activeTab(); t != nil {
		t.ctrl.LoadIfNecessary()
	}
	return nil
}

// persist saves every tab whose history changed since the last save.
func (m *Model) persist() {
	for i := 0; i < m.tabBar.Count(); i++ {
		info, _ := m.tabBar.Tab(i)
		t := m.tabs[info.ID]
		if t == nil || !t.dirty {
			continue
		}
		t.dirty = false
		if m.sessions == nil {
			continue
		}
		entries, selected := storage.EntriesFor(t.ctrl)
		if len(entries) == 0 {
			continue
		}
		if err := m.sessions.SaveTab(t.id, i, entries, selected); err != nil {
			m.log.Warn("saving tab failed", zap.String("tab", t.id), zap.Error(err))
		}
	}
}

// sync copies controller state into the chrome.
func (m *Model) sync() {
	for id, t := range m.tabs {
		m.tabBar.Update(id, t.title(), t.loading())
	}
	m.statusBar.SetMode(m.mode.label())

	t := m.activeTab()
	if t == nil {
		return
	}
	url := ""
	if e := t.ctrl.ActiveEntry(); e != nil {
		url = e.VirtualURL()
	}
	m.urlBar.Show(url, t.loading(), !browser.IsInsecure(url))

	m.statusBar.SetTitle(t.title())
	m.statusBar.SetLoading(t.loading())
	m.statusBar.SetHistory(ui.HistoryInfo{
		CanGoBack:    t.ctrl.CanGoBack(),
		CanGoForward: t.ctrl.CanGoForward(),
		Current:      t.ctrl.LastCommittedIndex(),
		Count:        t.ctrl.EntryCount(),
	})
	links := 0
	if t.page != nil && !t.overlay {
		links = len(t.page.Links)
	}
	m.statusBar.SetLinkCount(links)
	m.statusBar.SetScrollInfo(t.viewport.ScrollInfo())

	if m.sessionPanel.IsVisible() {
		m.sessionPanel.SetEntries(t.ctrl.Entries(), t.ctrl.LastCommittedIndex())
	}
}

func (m *Model) activeTab() *tab {
	info, ok := m.tabBar.Tab(m.tabBar.Active())
	if !ok {
		return nil
	}
	return m.tabs[info.ID]
}

const (
	tabBarHeight    = 1
	urlBarHeight    = 3 // border adds two lines
	statusBarHeight = 1
)

// viewportSize returns the page area left over by the chrome and the
// session panel.
func (m *Model) viewportSize() (int, int) {
	height := m.height - tabBarHeight - urlBarHeight - statusBarHeight
	if m.commandBar.IsActive() {
		height--
	}
	height = max(height, 1)

	width := m.width
	if m.sessionPanel.IsVisible() {
		panel := max(m.width*30/100, 24)
		m.sessionPanel.SetSize(panel, height)
		width = m.width - panel - 1
	}
	return max(width, 1), height
}

// layout recalculates component sizes.
func (m *Model) layout() {
	m.tabBar.SetWidth(m.width)
	m.urlBar.SetWidth(m.width)
	m.statusBar.SetWidth(m.width)
	m.commandBar.SetWidth(m.width)

	w, h := m.viewportSize()
	m.deps.width = w
	for _, t := range m.tabs {
		t.viewport.SetSize(w, h)
		t.host.SetWidth(w)
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "\n  Loading navsurf..."
	}
	sections := []string{m.tabBar.View(), m.urlBar.View()}

	t := m.activeTab()
	content := ""
	if t != nil {
		content = t.viewport.View()
	}
	if m.sessionPanel.IsVisible() {
		_, h := m.viewportSize()
		divider := lipgloss.NewStyle().
			Foreground(theme.Current.Border).
			Render(strings.TrimSuffix(strings.Repeat("│\n", h), "\n"))
		content = lipgloss.JoinHorizontal(lipgloss.Top, m.sessionPanel.View(), divider, content)
	}
	sections = append(sections, content, m.statusBar.View())

	if m.commandBar.IsActive() {
		sections = append(sections, m.commandBar.View())
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
