package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/jobboard/app/store"
	"github.com/umputun/jobboard/app/web/mocks"
)

const testData = `[
  {"company": "A", "position": "Python Developer", "logo": "./images/a.svg", "new": true, "featured": true,
   "languages": ["Python", "Django"]},
  {"company": "B", "position": "Fullstack Developer", "logo": "./images/b.svg", "new": false, "featured": false,
   "languages": ["Python", "React"]}
]`

// newLoader makes loader mock returning records and err
func newLoader(records []store.JobRecord, err error) *mocks.LoaderMock {
	return &mocks.LoaderMock{
		LoadFunc:   func(context.Context) ([]store.JobRecord, error) { return records, err },
		StringFunc: func() string { return "mock" },
	}
}

// newTestServer makes server loading testData from a file, loaded synchronously
func newTestServer(t *testing.T, filters ...string) *Server {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte(testData), 0o600))

	srv, err := New(Config{Loader: store.New(store.Params{Source: path}), Filters: filters, Version: "v1.0.0-abc-20250101"})
	require.NoError(t, err)
	srv.load(context.Background())
	return srv
}

func parseDoc(t *testing.T, body string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	require.NoError(t, err)
	return doc
}

func cardCompanies(doc *goquery.Document) []string {
	res := []string{}
	doc.Find("#jobs .job .job__title").Each(func(_ int, s *goquery.Selection) {
		res = append(res, strings.TrimSpace(s.Text()))
	})
	return res
}

func filterChips(doc *goquery.Document) []string {
	res := []string{}
	doc.Find("#filter-tags .filter__tag").Each(func(_ int, s *goquery.Selection) {
		res = append(res, strings.TrimSpace(s.Text()))
	})
	return res
}

func filterBarHidden(doc *goquery.Document) bool {
	return doc.Find("#filter-bar").HasClass("opacity-0")
}

func TestNew(t *testing.T) {
	t.Run("no loader", func(t *testing.T) {
		_, err := New(Config{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Loader is required")
	})

	t.Run("defaults", func(t *testing.T) {
		srv, err := New(Config{Loader: newLoader(nil, nil)})
		require.NoError(t, err)
		assert.NotNil(t, srv.templates["base.html"])
		assert.NotNil(t, srv.templates["partials/board.html"])
		assert.NotNil(t, srv.engine)
		assert.NotNil(t, srv.mutationLimit)
		assert.True(t, srv.filters.Empty())
		assert.False(t, srv.loaded)
	})
}

func TestServer_PreLoadState(t *testing.T) {
	srv, err := New(Config{Loader: newLoader(nil, nil), Filters: []string{"Go"}})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	srv.routes().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	require.Equal(t, http.StatusOK, w.Code)

	doc := parseDoc(t, w.Body.String())
	assert.Empty(t, cardCompanies(doc))
	assert.Equal(t, 1, doc.Find("#loading").Length())
	assert.Equal(t, []string{"Go"}, filterChips(doc), "initial filters rendered before load")
	assert.False(t, filterBarHidden(doc))
}

func TestServer_LoadRecords(t *testing.T) {
	records := []store.JobRecord{
		{Company: "Loop Studios", Position: "Software Engineer", Languages: []string{"JavaScript"}},
		{Company: "Eyecam Co.", Position: "Full Stack Engineer", IsFeatured: true, Languages: []string{"JavaScript", "Python"}},
	}
	srv, err := New(Config{Loader: newLoader(records, nil), Filters: []string{"Python"}})
	require.NoError(t, err)
	srv.load(context.Background())

	w := httptest.NewRecorder()
	srv.routes().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/board", http.NoBody))
	require.Equal(t, http.StatusOK, w.Code)

	doc := parseDoc(t, w.Body.String())
	assert.Equal(t, []string{"Eyecam Co."}, cardCompanies(doc))
	assert.Equal(t, []string{"Python"}, filterChips(doc))
	assert.Equal(t, "1 of 2 jobs", strings.TrimSpace(doc.Find("#stats").Text()))
	assert.Equal(t, 0, doc.Find("#loading").Length())
}

func TestServer_LoadError(t *testing.T) {
	loadErr := &store.LoadError{Source: "mock", Err: errors.New("connection refused")}
	srv, err := New(Config{Loader: newLoader(nil, loadErr)})
	require.NoError(t, err)
	srv.load(context.Background())
	assert.Len(t, srv.loader.(*mocks.LoaderMock).LoadCalls(), 1)

	w := httptest.NewRecorder()
	srv.routes().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	require.Equal(t, http.StatusOK, w.Code)

	doc := parseDoc(t, w.Body.String())
	assert.Empty(t, cardCompanies(doc))
	assert.Contains(t, doc.Find("#load-error").Text(), "connection refused")
	assert.Equal(t, 0, doc.Find("#loading").Length())

	// filters still work in error state, nothing to show
	w = httptest.NewRecorder()
	srv.routes().ServeHTTP(w, postForm("/api/filters/add", "tag=Go"))
	require.Equal(t, http.StatusOK, w.Code)
	doc = parseDoc(t, w.Body.String())
	assert.Equal(t, []string{"Go"}, filterChips(doc))
	assert.Contains(t, doc.Find("#load-error").Text(), "connection refused")
}

func TestServer_Run(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte(testData), 0o600))
	srv, err := New(Config{Loader: store.New(store.Params{Source: path})})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, "127.0.0.1:18731") }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://127.0.0.1:18731/ping")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	require.Eventually(t, func() bool {
		srv.mu.Lock()
		defer srv.mu.Unlock()
		return srv.loaded && srv.engine.Total() == 2
	}, 5*time.Second, 10*time.Millisecond, "jobs loaded in background")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server not stopped")
	}
}

func TestServer_templateData(t *testing.T) {
	srv := newTestServer(t)
	srv.refresh = 5 * time.Second
	data := srv.templateData()
	assert.Equal(t, "5s", data.Refresh)
	assert.Equal(t, "v1.0.0", data.Version)
	assert.Equal(t, 2, data.Total)
	assert.True(t, data.Loaded)
	assert.Len(t, data.Cards, 2)

	srv.refresh = 0
	assert.Empty(t, srv.templateData().Refresh)
}

func TestServer_StaticFiles(t *testing.T) {
	srv := newTestServer(t)
	w := httptest.NewRecorder()
	srv.routes().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/static/style.css", http.NoBody))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), ".job--featured")
}

func TestServer_Images(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.svg"), []byte("<svg></svg>"), 0o600))
	srv, err := New(Config{Loader: newLoader(nil, nil), ImagesDir: dir})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	srv.routes().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/images/a.svg", http.NoBody))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "<svg></svg>", w.Body.String())
}

func TestShortVersion(t *testing.T) {
	tbl := []struct{ in, out string }{
		{"", ""},
		{"unknown", "unknown"},
		{"v1.7.0", "v1.7.0"},
		{"v1.7.0-abc1234-20241225", "v1.7.0"},
	}
	for _, tt := range tbl {
		assert.Equal(t, tt.out, shortVersion(tt.in))
	}
}

func TestPlural(t *testing.T) {
	assert.Equal(t, "jobs", plural(0, "job"))
	assert.Equal(t, "job", plural(1, "job"))
	assert.Equal(t, "jobs", plural(2, "job"))
}

func postForm(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func formTag(tag string) string { return "tag=" + url.QueryEscape(tag) }
