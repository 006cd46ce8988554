package web

import (
	"net/http"

	log "github.com/go-pkgz/lgr"
)

// handleIndex renders the full board page
func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	data := s.templateData()
	s.mu.Unlock()

	s.render(w, "base.html", "base", data)
}

// handleBoard returns the board partial for HTMX polling
func (s *Server) handleBoard(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	data := s.templateData()
	s.mu.Unlock()

	s.render(w, "partials/board.html", "board", data)
}

// handleAddFilter adds a tag clicked on a job card
func (s *Server) handleAddFilter(w http.ResponseWriter, r *http.Request) {
	tag := r.FormValue("tag")
	if tag == "" {
		http.Error(w, "Tag required", http.StatusBadRequest)
		return
	}
	s.mutate(w, func() bool { return s.filters.Add(tag) }, "add "+tag)
}

// handleRemoveFilter removes a tag from the filter bar
func (s *Server) handleRemoveFilter(w http.ResponseWriter, r *http.Request) {
	tag := r.FormValue("tag")
	if tag == "" {
		http.Error(w, "Tag required", http.StatusBadRequest)
		return
	}
	s.mutate(w, func() bool { return s.filters.Remove(tag) }, "remove "+tag)
}

// handleClearFilters removes all filters
func (s *Server) handleClearFilters(w http.ResponseWriter, _ *http.Request) {
	s.mutate(w, func() bool { s.filters.Clear(); return true }, "clear")
}

// mutate applies change to filters and responds with the re-rendered board.
// The engine redraws the page from the filter change signal, so the board is
// rendered from the page state after fn returned.
func (s *Server) mutate(w http.ResponseWriter, fn func() bool, action string) {
	s.mu.Lock()
	changed := fn()
	data := s.templateData()
	tags := s.filters.Tags()
	s.mu.Unlock()

	log.Printf("[DEBUG] filter %s, changed=%v, active=%q, visible %d of %d",
		action, changed, tags, len(data.Cards), data.Total)
	s.render(w, "partials/board.html", "board", data)
}
