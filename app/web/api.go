package web

import (
	"encoding/json"
	"net/http"
	"time"

	log "github.com/go-pkgz/lgr"

	"github.com/umputun/jobboard/app/board"
)

// APIBoardResponse is the JSON response for /api/v1/board
type APIBoardResponse struct {
	Jobs             []APIJob  `json:"jobs"`
	Filters          []string  `json:"filters"`
	FilterBarVisible bool      `json:"filter_bar_visible"`
	Total            int       `json:"total"`
	Loaded           bool      `json:"loaded"`
	Error            string    `json:"error,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

// APIJob represents a visible job card in JSON API response
type APIJob struct {
	Company   string   `json:"company"`
	Position  string   `json:"position"`
	Logo      string   `json:"logo,omitempty"`
	New       bool     `json:"new"`
	Featured  bool     `json:"featured"`
	Languages []string `json:"languages"`
}

// toAPIJob converts board.Card to APIJob
func toAPIJob(c board.Card) APIJob {
	res := APIJob{Company: c.Company, Position: c.Position, Logo: c.Logo, Featured: c.Featured, Languages: c.Languages}
	for _, b := range c.Badges {
		if b.Kind == board.BadgeNew {
			res.New = true
		}
	}
	return res
}

// handleAPIBoard returns JSON snapshot of the board - visible jobs and active filters
func (s *Server) handleAPIBoard(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	data := s.templateData()
	s.mu.Unlock()

	resp := APIBoardResponse{
		Jobs:             make([]APIJob, 0, len(data.Cards)),
		Filters:          make([]string, 0, len(data.Chips)),
		FilterBarVisible: data.FilterBarVisible,
		Total:            data.Total,
		Loaded:           data.Loaded,
		Error:            data.Error,
		Timestamp:        time.Now(),
	}
	for _, c := range data.Cards {
		resp.Jobs = append(resp.Jobs, toAPIJob(c))
	}
	for _, c := range data.Chips {
		resp.Filters = append(resp.Filters, c.Tag)
	}

	s.writeJSON(w, http.StatusOK, resp)
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[WARN] failed to encode JSON response: %v", err)
	}
}
