package browser

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/vidyasagar/navsurf/internal/navigation"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

const testPage = `<html><head><title>%s</title></head><body>
<article><h1>%s</h1>
<p>This paragraph is long enough for the readability extractor to treat it as
content. It talks about navigation and history and a few other things that a
terminal browser might show to somebody reading along.</p>
<p>Follow <a href="/b">the next page</a> or jump to <a href="#end">the end</a>.</p>
</article></body></html>`

type testSite struct {
	*httptest.Server
	hits    map[string]*atomic.Int32
	release chan struct{}
}

func newTestSite(t *testing.T) *testSite {
	t.Helper()
	s := &testSite{
		hits:    map[string]*atomic.Int32{"/a": {}, "/b": {}, "/slow": {}, "/missing": {}},
		release: make(chan struct{}),
	}
	mux := http.NewServeMux()
	page := func(path, title string) {
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			s.hits[path].Add(1)
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprintf(w, testPage, title, title)
		})
	}
	page("/a", "Page A")
	page("/b", "Page B")
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		s.hits["/slow"].Add(1)
		select {
		case <-s.release:
		case <-r.Context().Done():
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, testPage, "Slow", "Slow")
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		s.hits["/missing"].Add(1)
		http.NotFound(w, r)
	})
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func newTestHost(t *testing.T) *Host {
	t.Helper()
	f := NewFetcher()
	h := NewHost(HostConfig{
		Fetcher:  f,
		Renderer: NewRenderer("notty"),
		About:    DefaultAboutPages("test", "help text"),
		Width:    80,
	})
	t.Cleanup(func() {
		h.Close()
		f.CloseIdleConnections()
	})
	return h
}

func newRequest(url string) navigation.Request {
	return navigation.Request{URL: url, PageID: navigation.InvalidPageID, Transition: navigation.TransitionTyped}
}

func nextCommit(t *testing.T, h *Host) Commit {
	t.Helper()
	select {
	case c, ok := <-h.Commits():
		require.True(t, ok, "commits channel closed")
		return c
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for commit")
	}
	return Commit{}
}

func assertNoCommit(t *testing.T, h *Host) {
	t.Helper()
	select {
	case c := <-h.Commits():
		t.Fatalf("unexpected commit for %s", c.URL)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHostLoadsWebPage(t *testing.T) {
	site := newTestSite(t)
	h := newTestHost(t)

	h.RequestNavigation(newRequest(site.URL + "/a"))
	c := nextCommit(t, h)
	require.NoError(t, c.Err)

	r := c.Report
	assert.Equal(t, 0, r.PageID)
	assert.Equal(t, site.URL+"/a", r.URL)
	assert.Equal(t, navigation.ContentTypeWeb, r.ContentType)
	assert.Equal(t, navigation.TransitionTyped, r.Transition)
	assert.True(t, r.ShouldUpdateHistory)
	assert.Equal(t, "Page A", r.Title)
	require.NotNil(t, r.SiteInstance)
	assert.Equal(t, site.URL, r.SiteInstance.Site())

	link, ok := c.Page.LinkByIndex(1)
	require.True(t, ok)
	assert.Equal(t, site.URL+"/b", link.URL)

	h.RequestNavigation(newRequest(site.URL + "/b"))
	c = nextCommit(t, h)
	require.NoError(t, c.Err)
	assert.Equal(t, 1, c.Report.PageID)
	assert.Same(t, r.SiteInstance, c.Report.SiteInstance, "same origin shares a site instance")
}

func TestHostHistoryNavigationUsesCache(t *testing.T) {
	site := newTestSite(t)
	h := newTestHost(t)

	h.RequestNavigation(newRequest(site.URL + "/a"))
	first := nextCommit(t, h)
	h.RequestNavigation(newRequest(site.URL + "/b"))
	nextCommit(t, h)

	back := newRequest(site.URL + "/a")
	back.PageID = first.Report.PageID
	back.ContentType = navigation.ContentTypeWeb
	back.ContentState = []byte("scroll=12")
	h.RequestNavigation(back)
	c := nextCommit(t, h)
	require.NoError(t, c.Err)
	assert.Equal(t, first.Report.PageID, c.Report.PageID)
	assert.Equal(t, []byte("scroll=12"), c.Report.ContentState)
	assert.Equal(t, int32(1), site.hits["/a"].Load())

	h.RequestReload()
	c = nextCommit(t, h)
	require.NoError(t, c.Err)
	assert.Equal(t, first.Report.PageID, c.Report.PageID)
	assert.Equal(t, navigation.TransitionReload, c.Report.Transition)
	assert.Equal(t, int32(2), site.hits["/a"].Load(), "reload bypasses the cache")
}

func TestHostInPageNavigation(t *testing.T) {
	site := newTestSite(t)
	h := newTestHost(t)

	h.RequestNavigation(newRequest(site.URL + "/a"))
	first := nextCommit(t, h)

	h.RequestNavigation(newRequest(site.URL + "/a#end"))
	c := nextCommit(t, h)
	require.NoError(t, c.Err)
	assert.Equal(t, site.URL+"/a#end", c.Report.URL)
	assert.Equal(t, 1, c.Report.PageID)
	assert.Same(t, first.Page, c.Page)
	assert.Equal(t, int32(1), site.hits["/a"].Load())
}

func TestHostAboutPages(t *testing.T) {
	site := newTestSite(t)
	h := newTestHost(t)

	h.RequestNavigation(newRequest(site.URL + "/a"))
	nextCommit(t, h)

	h.RequestNavigation(newRequest("about:version"))
	c := nextCommit(t, h)
	require.NoError(t, c.Err)
	assert.Equal(t, navigation.ContentTypeAbout, c.Report.ContentType)
	assert.Equal(t, 0, c.Report.PageID, "about pages are numbered separately")
	assert.False(t, c.Report.ShouldUpdateHistory)
	assert.Contains(t, c.Page.Content, "test")

	h.RequestNavigation(newRequest("about:nowhere"))
	c = nextCommit(t, h)
	assert.ErrorIs(t, c.Err, ErrUnknownAboutPage)
}

func TestHostReportsHTTPErrors(t *testing.T) {
	site := newTestSite(t)
	h := newTestHost(t)

	h.RequestNavigation(newRequest(site.URL + "/missing"))
	c := nextCommit(t, h)
	assert.ErrorIs(t, c.Err, ErrHTTPStatus)
	assert.Equal(t, site.URL+"/missing", c.URL)
}

func TestHostSupersededRequestNeverCommits(t *testing.T) {
	site := newTestSite(t)
	h := newTestHost(t)

	h.RequestNavigation(newRequest(site.URL + "/slow"))
	require.Eventually(t, func() bool { return site.hits["/slow"].Load() == 1 }, 5*time.Second, 10*time.Millisecond)

	h.RequestNavigation(newRequest(site.URL + "/a"))
	c := nextCommit(t, h)
	require.NoError(t, c.Err)
	assert.Equal(t, site.URL+"/a", c.Report.URL)
	assert.Equal(t, 0, c.Report.PageID)

	close(site.release)
	assertNoCommit(t, h)
}

func TestHostDrivesController(t *testing.T) {
	site := newTestSite(t)
	h := newTestHost(t)
	c := navigation.New(navigation.DefaultConfig(), h)

	apply := func() {
		t.Helper()
		commit := nextCommit(t, h)
		require.NoError(t, commit.Err)
		require.True(t, c.RendererDidNavigate(commit.Report, true))
	}

	c.LoadURL(site.URL+"/a", "", navigation.TransitionTyped)
	apply()
	c.LoadURL(site.URL+"/b", site.URL+"/a", navigation.TransitionLink)
	apply()
	c.GoBack()
	apply()

	assert.Equal(t, 2, c.EntryCount())
	assert.Equal(t, 0, c.LastCommittedIndex())
	assert.Equal(t, "Page A", c.LastCommittedEntry().Title)
	assert.True(t, c.CanGoForward())

	c.Reload(false)
	apply()
	assert.Equal(t, 2, c.EntryCount())
	assert.Equal(t, -1, c.PendingIndex())
}

func TestHostCloseIsIdempotent(t *testing.T) {
	h := NewHost(HostConfig{Renderer: NewRenderer("notty")})
	h.Close()
	h.Close()
	h.RequestNavigation(newRequest("about:blank"))
	_, ok := <-h.Commits()
	assert.False(t, ok)
}
