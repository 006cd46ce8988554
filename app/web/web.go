// Package web implements the web UI of the job board. The server owns the board state
// (filters, page and render engine) and renders it with html/template and HTMX partials.
// Clicks on language chips, filter chips and the clear button come back as POST requests
// and are applied to the filter set one at a time.
package web

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/didip/tollbooth/v8"
	"github.com/didip/tollbooth/v8/limiter"
	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"

	"github.com/umputun/jobboard/app/board"
	"github.com/umputun/jobboard/app/store"
)

//go:embed templates/*.html templates/partials/*.html
var templatesFS embed.FS

//go:embed static/*
var staticFS embed.FS

//go:generate moq -out mocks/loader.go -pkg mocks -skip-ensure -fmt goimports . Loader

// Loader loads job records, called once on server start
type Loader interface {
	Load(ctx context.Context) ([]store.JobRecord, error)
	String() string
}

// Server represents the web server
type Server struct {
	loader         Loader
	templates      map[string]*template.Template
	version        string
	refresh        time.Duration  // board polling interval, 0 disables polling
	imagesDir      string         // local directory served as /images/, optional
	mutationLimit  *limiter.Limiter
	csrfProtection *http.CrossOriginProtection

	mu      sync.Mutex // serializes board events, like a single UI thread
	filters *board.FilterSet
	page    *board.Page
	engine  *board.Engine
	loaded  bool
}

// Config holds server configuration
type Config struct {
	Loader    Loader
	Filters   []string      // initial filters
	Version   string
	Refresh   time.Duration // board polling interval, 0 disables polling
	Limit     float64       // max filter changes per second per client, 10 if not set
	ImagesDir string        // local directory with logos, served as /images/
}

// TemplateData holds data for templates
type TemplateData struct {
	board.View
	Total       int    // all jobs, before filtering
	Loaded      bool   // data load completed
	Refresh     string // polling interval for hx-trigger, empty if disabled
	Version     string
	CurrentYear int
}

// New creates a new web server and renders the initial, pre-load state of the board
func New(cfg Config) (*Server, error) {
	if cfg.Loader == nil {
		return nil, fmt.Errorf("web server initialization failed: Loader is required")
	}

	filters := board.NewFilterSet(cfg.Filters...)
	page := board.NewPage()
	engine, err := board.NewEngine(filters, page)
	if err != nil {
		return nil, fmt.Errorf("web server initialization failed: %w", err)
	}
	engine.Render()

	limit := cfg.Limit
	if limit <= 0 {
		limit = 10
	}
	lmt := tollbooth.NewLimiter(limit, nil)
	lmt.SetIPLookup(limiter.IPLookup{Name: "RemoteAddr", IndexFromRight: 0})

	s := &Server{
		loader:         cfg.Loader,
		version:        cfg.Version,
		refresh:        cfg.Refresh,
		imagesDir:      cfg.ImagesDir,
		mutationLimit:  lmt,
		csrfProtection: http.NewCrossOriginProtection(),
		filters:        filters,
		page:           page,
		engine:         engine,
	}

	templates, err := s.parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("web server initialization failed: failed to parse HTML templates: %w", err)
	}
	s.templates = templates
	return s, nil
}

// Run starts the web server. Jobs are loaded in background, the page shows
// the pre-load state until load completed.
func (s *Server) Run(ctx context.Context, address string) error {
	go s.load(ctx)

	server := &http.Server{
		Addr:              address,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] failed to shutdown server: %v", err)
		}
	}()

	log.Printf("[INFO] starting web server on %s", address)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("web server failed: %w", err)
	}
	return nil
}

// load gets records from loader and renders them. Load error switches page to the error state.
func (s *Server) load(ctx context.Context) {
	records, err := s.loader.Load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = true
	if err != nil {
		log.Printf("[ERROR] can't load jobs from %s: %v", s.loader, err)
		s.page.SetError(err)
		s.engine.Render()
		return
	}
	s.engine.SetRecords(records)
	log.Printf("[INFO] board ready, %d jobs", s.engine.Total())
}

// routes returns the http.Handler with all routes configured
func (s *Server) routes() http.Handler {
	router := routegroup.New(http.NewServeMux())

	router.Use(
		rest.RealIP,
		rest.Recoverer(log.Default()),
		rest.Throttle(1000),
		rest.AppInfo("jobboard", "umputun", s.version),
		rest.Ping,
		rest.SizeLimit(64*1024), // 64KB max request size
		logger.New(logger.Log(log.Default()), logger.Prefix("[DEBUG]")).Handler,
	)

	router.HandleFunc("GET /{$}", s.handleIndex)

	// HTMX endpoints
	router.Mount("/api").Route(func(api *routegroup.Bundle) {
		api.Use(rest.NoCache)
		api.Use(s.csrfProtection.Handler)

		api.HandleFunc("GET /board", s.handleBoard)

		mutate := api.With(tollbooth.HTTPMiddleware(s.mutationLimit))
		mutate.HandleFunc("POST /filters/add", s.handleAddFilter)
		mutate.HandleFunc("POST /filters/remove", s.handleRemoveFilter)
		mutate.HandleFunc("POST /filters/clear", s.handleClearFilters)
	})

	// JSON API for CLI/programmatic access
	router.Mount("/api/v1").Route(func(api *routegroup.Bundle) {
		api.Use(rest.NoCache)
		api.HandleFunc("GET /board", s.handleAPIBoard)
	})

	fsys, err := fs.Sub(staticFS, "static")
	if err != nil {
		log.Printf("[ERROR] failed to create static file system: %v", err)
		router.Handle("GET /static/", http.FileServer(http.FS(staticFS)))
	} else {
		router.HandleFiles("/static/", http.FS(fsys))
	}

	if s.imagesDir != "" {
		router.HandleFiles("/images/", http.Dir(s.imagesDir))
	}

	return router
}

// templateData makes TemplateData from the current board state. Caller holds s.mu.
func (s *Server) templateData() TemplateData {
	data := TemplateData{
		View:        s.page.Snapshot(),
		Total:       s.engine.Total(),
		Loaded:      s.loaded,
		Version:     shortVersion(s.version),
		CurrentYear: time.Now().Year(),
	}
	if s.refresh > 0 {
		data.Refresh = fmt.Sprintf("%ds", int(s.refresh.Round(time.Second).Seconds()))
	}
	return data
}

// render renders a template
func (s *Server) render(w http.ResponseWriter, page, tmplName string, data any) {
	tmpl, ok := s.templates[page]
	if !ok {
		log.Printf("[WARN] template %s not found", page)
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}

	buf := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(buf, tmplName, data); err != nil {
		log.Printf("[WARN] failed to execute template: %v", err)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.Printf("[WARN] failed to write response: %v", err)
	}
}

// parseTemplates parses all templates
func (s *Server) parseTemplates() (map[string]*template.Template, error) {
	templates := make(map[string]*template.Template)

	funcMap := template.FuncMap{
		"plural": plural,
	}

	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templatesFS,
		"templates/base.html", "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse base template: %w", err)
	}
	templates["base.html"] = base

	// partials parsed separately for HTMX requests
	partials, err := template.New("board.html").Funcs(funcMap).ParseFS(templatesFS, "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse partials: %w", err)
	}
	templates["partials/board.html"] = partials

	return templates, nil
}

// plural returns word with "s" suffix unless n is 1
func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

// shortVersion extracts a short version string from full version
// for version like "v1.7.0-abc1234-20241225", returns "v1.7.0"
func shortVersion(fullVer string) string {
	if fullVer == "" || fullVer == "unknown" {
		return fullVer
	}
	if idx := strings.Index(fullVer, "-"); idx > 0 {
		return fullVer[:idx]
	}
	return fullVer
}
