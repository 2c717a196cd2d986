package browser

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/vidyasagar/navsurf/internal/navigation"
)

var (
	// ErrUnknownAboutPage is reported for about: URLs with no built-in page.
	ErrUnknownAboutPage = errors.New("unknown about page")
	// ErrHTTPStatus is reported when the server answers with an error status.
	ErrHTTPStatus = errors.New("http error status")
)

const defaultCacheSize = 50

// Commit is what a Host delivers once a request finishes: either a commit
// report for the controller with the rendered page, or Err.
type Commit struct {
	Report navigation.Report
	Page   *RenderedPage
	URL    string
	Err    error
}

// HostConfig configures a Host. Zero values get defaults.
type HostConfig struct {
	Fetcher   *Fetcher
	Renderer  *Renderer
	About     AboutPages
	CacheSize int
	Width     int
	Logger    *zap.Logger
}

type committedPage struct {
	url    string
	pageID int
	ct     navigation.ContentType
	page   *RenderedPage
}

// Host is the content host for one tab. It fetches and renders pages off
// the caller's goroutine and delivers the outcome on Commits. Page ids are
// numbered per content type; a new request cancels the one in flight.
type Host struct {
	fetcher  *Fetcher
	renderer *Renderer
	about    AboutPages
	cache    *lru.Cache[string, *RenderedPage]
	log      *zap.Logger

	mu       sync.Mutex
	width    int
	cancel   context.CancelFunc
	current  committedPage
	nextPage map[navigation.ContentType]int
	sites    map[string]*navigation.SiteInstance
	closed   bool

	commits chan Commit
	done    chan struct{}
	wg      sync.WaitGroup
}

var _ navigation.ContentHost = (*Host)(nil)

// NewHost creates a host.
func NewHost(cfg HostConfig) *Host {
	if cfg.Fetcher == nil {
		cfg.Fetcher = NewFetcher()
	}
	if cfg.Renderer == nil {
		cfg.Renderer = NewRenderer("")
	}
	if cfg.About == nil {
		cfg.About = DefaultAboutPages("dev", "")
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = defaultCacheSize
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	// Only fails for a non-positive size.
	cache, _ := lru.New[string, *RenderedPage](cfg.CacheSize)
	return &Host{
		fetcher:  cfg.Fetcher,
		renderer: cfg.Renderer,
		about:    cfg.About,
		cache:    cache,
		log:      cfg.Logger,
		width:    cfg.Width,
		nextPage: make(map[navigation.ContentType]int),
		sites:    make(map[string]*navigation.SiteInstance),
		commits:  make(chan Commit, 4),
		done:     make(chan struct{}),
	}
}

// Commits returns the channel results are delivered on. It is closed by Close.
func (h *Host) Commits() <-chan Commit {
	return h.commits
}

// SetWidth changes the render width. Cached pages are dropped when it changes.
func (h *Host) SetWidth(width int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if width != h.width {
		h.width = width
		h.cache.Purge()
	}
}

// RequestNavigation implements navigation.ContentHost.
func (h *Host) RequestNavigation(req navigation.Request) {
	ct := ContentTypeFor(req.URL)
	ctx, cur, ok := h.begin()
	if !ok {
		return
	}

	if cur.page != nil && cur.ct == ct && navigation.AreURLsInPage(cur.url, req.URL) {
		h.log.Debug("in-page navigation", zap.String("from", cur.url), zap.String("to", req.URL))
		h.spawn(func() { h.commit(ctx, req, ct, cur.page, req.URL) })
		return
	}
	h.spawn(func() { h.load(ctx, req, ct, false) })
}

// RequestReload implements navigation.ContentHost. It re-renders the page the
// host last committed, bypassing the cache.
func (h *Host) RequestReload() {
	ctx, cur, ok := h.begin()
	if !ok || cur.url == "" {
		return
	}
	req := navigation.Request{
		URL:         cur.url,
		PageID:      cur.pageID,
		ContentType: cur.ct,
		Transition:  navigation.TransitionReload,
	}
	h.spawn(func() { h.load(ctx, req, cur.ct, true) })
}

// begin cancels the request in flight and starts a new one.
func (h *Host) begin() (context.Context, committedPage, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, committedPage{}, false
	}
	if h.cancel != nil {
		h.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	return ctx, h.current, true
}

func (h *Host) spawn(f func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		f()
	}()
}

func (h *Host) load(ctx context.Context, req navigation.Request, ct navigation.ContentType, reload bool) {
	key := navigation.StripFragment(req.URL)
	if !reload && req.PageID != navigation.InvalidPageID {
		if page, ok := h.cache.Get(key); ok {
			h.log.Debug("page cache hit", zap.String("url", key))
			h.commit(ctx, req, ct, page, req.URL)
			return
		}
	}

	page, finalURL, err := h.render(ctx, req.URL, ct)
	if ctx.Err() != nil {
		h.log.Debug("request superseded", zap.String("url", req.URL))
		return
	}
	if err != nil {
		h.log.Warn("navigation failed", zap.String("url", req.URL), zap.Error(err))
		h.deliver(Commit{URL: req.URL, Err: err})
		return
	}
	h.cache.Add(key, page)
	h.commit(ctx, req, ct, page, finalURL)
}

// render produces the page for rawURL and the URL it ended up at.
func (h *Host) render(ctx context.Context, rawURL string, ct navigation.ContentType) (*RenderedPage, string, error) {
	h.mu.Lock()
	width := h.width
	h.mu.Unlock()

	if ct == navigation.ContentTypeAbout {
		md, ok := h.about.page(rawURL)
		if !ok {
			return nil, "", fmt.Errorf("%w: %s", ErrUnknownAboutPage, rawURL)
		}
		page := &RenderedPage{Title: navigation.StripFragment(rawURL), Links: aboutLinks(md)}
		if md != "" {
			page.Content = h.renderer.Markdown(md, width)
		}
		return page, rawURL, nil
	}

	res, err := h.fetcher.Fetch(ctx, navigation.StripFragment(rawURL))
	if err != nil {
		return nil, "", err
	}
	if res.StatusCode >= http.StatusBadRequest {
		return nil, "", fmt.Errorf("%w: %d %s", ErrHTTPStatus, res.StatusCode, http.StatusText(res.StatusCode))
	}
	article, err := Extract(res)
	if err != nil {
		return nil, "", err
	}
	h.log.Debug("page fetched",
		zap.String("url", res.FinalURL),
		zap.Int("status", res.StatusCode),
		zap.Duration("took", res.Duration))

	finalURL := res.FinalURL
	if frag := fragmentOf(rawURL); frag != "" && !hasFragment(finalURL) {
		finalURL += frag
	}
	return h.renderer.Article(article, width), finalURL, nil
}

// commit assigns the page id and site instance and reports the navigation.
func (h *Host) commit(ctx context.Context, req navigation.Request, ct navigation.ContentType, page *RenderedPage, url string) {
	h.mu.Lock()
	if ctx.Err() != nil {
		h.mu.Unlock()
		return
	}
	pageID := req.PageID
	if pageID == navigation.InvalidPageID {
		pageID = h.nextPage[ct]
		h.nextPage[ct]++
	}
	site := h.siteLocked(url)
	h.current = committedPage{url: url, pageID: pageID, ct: ct, page: page}
	h.mu.Unlock()

	h.deliver(Commit{
		URL:  url,
		Page: page,
		Report: navigation.Report{
			PageID:              pageID,
			URL:                 url,
			Referrer:            req.Referrer,
			Title:               page.Title,
			Transition:          req.Transition,
			ContentType:         ct,
			SiteInstance:        site,
			ContentState:        req.ContentState,
			ShouldUpdateHistory: ct == navigation.ContentTypeWeb,
			IsPost:              req.IsPost,
		},
	})
}

func (h *Host) siteLocked(url string) *navigation.SiteInstance {
	key := SiteOf(url)
	s, ok := h.sites[key]
	if !ok {
		s = navigation.NewSiteInstance(key)
		h.sites[key] = s
	}
	return s
}

func (h *Host) deliver(c Commit) {
	select {
	case h.commits <- c:
	case <-h.done:
	}
}

// Close cancels outstanding work, waits for it and closes Commits.
func (h *Host) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	if h.cancel != nil {
		h.cancel()
	}
	h.mu.Unlock()

	close(h.done)
	h.wg.Wait()
	close(h.commits)
}

var aboutLinkRe = regexp.MustCompile(`\[([^\]]+)\]\(([^)\s]+)\)`)

func aboutLinks(md string) []Link {
	var links []Link
	for _, m := range aboutLinkRe.FindAllStringSubmatch(md, -1) {
		links = append(links, Link{Index: len(links) + 1, Text: m[1], URL: m[2]})
	}
	return links
}

func fragmentOf(rawURL string) string {
	if i := strings.IndexByte(rawURL, '#'); i >= 0 {
		return rawURL[i:]
	}
	return ""
}

func hasFragment(rawURL string) bool {
	return strings.IndexByte(rawURL, '#') >= 0
}
