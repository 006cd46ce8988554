// Package store loads the static collection of job postings the board is built from.
// The source is read exactly once, records are kept in memory in the order received.
// Supported sources are local files (JSON or YAML), http(s) URLs serving JSON and
// read-only sqlite databases.
package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	log "github.com/go-pkgz/lgr"
)

// ErrMalformed returned (wrapped) when the source is reachable but its content can't be used.
// Malformed sources are never retried.
var ErrMalformed = errors.New("malformed job data")

// errStop is the critical error passed to repeater to break retries on malformed data
var errStop = errors.New("stop retries")

const maxSourceSize = 16 * 1024 * 1024 // 16MB

// JobRecord is a single job posting. Records are immutable once loaded.
type JobRecord struct {
	Company    string   `json:"company" yaml:"company" jsonschema:"required,description=company name"`
	Position   string   `json:"position" yaml:"position" jsonschema:"description=position title"`
	Logo       string   `json:"logo" yaml:"logo" jsonschema:"description=logo reference (path or URL)"`
	IsNew      bool     `json:"new" yaml:"new" jsonschema:"description=recently posted"`
	IsFeatured bool     `json:"featured" yaml:"featured" jsonschema:"description=featured posting"`
	Languages  []string `json:"languages" yaml:"languages" jsonschema:"description=language tags used as filter keys"`
}

// HasLanguage checks if the record is tagged with the given language
func (r JobRecord) HasLanguage(lang string) bool {
	for _, l := range r.Languages {
		if l == lang {
			return true
		}
	}
	return false
}

// LoadError returned by Load if the source is unreachable or malformed
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load jobs from %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Repeater repeats failed function
type Repeater interface {
	Do(ctx context.Context, fun func() error, errors ...error) (err error)
}

// Params defines store parameters
type Params struct {
	Source   string        // path, file://, http(s):// or sqlite:// location
	Timeout  time.Duration // http fetch timeout, 10s if not set
	Repeater Repeater      // retries unreachable source, single attempt if nil
}

// Store holds job records loaded from the source
type Store struct {
	source   string
	timeout  time.Duration
	repeater Repeater

	once    sync.Once
	mu      sync.RWMutex
	loaded  bool
	records []JobRecord
	err     error
}

// New makes a store for the given source, doesn't load anything yet
func New(p Params) *Store {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Store{source: p.Source, timeout: timeout, repeater: p.Repeater}
}

// Load reads records from the source. The source is touched only on the first call,
// all subsequent calls return the same result.
func (s *Store) Load(ctx context.Context) ([]JobRecord, error) {
	s.once.Do(func() {
		records, err := s.load(ctx)
		s.mu.Lock()
		s.records, s.err, s.loaded = records, err, true
		s.mu.Unlock()
		if err != nil {
			log.Printf("[WARN] %v", err)
			return
		}
		log.Printf("[INFO] loaded %d jobs from %s", len(records), s.source)
	})
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.copyRecords(), nil
}

// Records returns a copy of loaded records, empty before load or if load failed
func (s *Store) Records() []JobRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyRecords()
}

// Loaded returns true if load completed, successfully or not
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

func (s *Store) String() string { return s.source }

func (s *Store) copyRecords() []JobRecord {
	res := make([]JobRecord, len(s.records))
	copy(res, s.records)
	return res
}

func (s *Store) load(ctx context.Context) ([]JobRecord, error) {
	var records []JobRecord
	var lastErr error
	attempt := func() error {
		recs, err := s.fetch(ctx)
		if err != nil {
			lastErr = err
			if errors.Is(err, ErrMalformed) {
				return errStop
			}
			log.Printf("[DEBUG] load attempt from %s failed: %v", s.source, err)
			return err
		}
		records = recs
		return nil
	}

	var err error
	if s.repeater == nil {
		err = attempt()
	} else {
		err = s.repeater.Do(ctx, attempt, errStop)
	}
	if err != nil {
		if lastErr == nil {
			lastErr = err // canceled before the first attempt
		}
		return nil, &LoadError{Source: s.source, Err: lastErr}
	}
	return records, nil
}

// fetch reads the source once, dispatching on the location scheme.
// Source without "://" is a local file path as is.
func (s *Store) fetch(ctx context.Context) ([]JobRecord, error) {
	if !strings.Contains(s.source, "://") {
		return readFile(s.source)
	}
	u, err := url.Parse(s.source)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid source %q: %v", ErrMalformed, s.source, err)
	}

	switch u.Scheme {
	case "file":
		return readFile(u.Host + u.Path)
	case "http", "https":
		return s.readHTTP(ctx)
	case "sqlite":
		return readSQLite(ctx, u.Host+u.Path)
	default:
		return nil, fmt.Errorf("%w: unsupported source scheme %q", ErrMalformed, u.Scheme)
	}
}

// validate checks decoded records and normalizes languages: missing list becomes empty,
// tags trimmed, blank tags dropped
func validate(records []JobRecord) ([]JobRecord, error) {
	if records == nil {
		return []JobRecord{}, nil
	}
	for i := range records {
		if strings.TrimSpace(records[i].Company) == "" {
			return nil, fmt.Errorf("%w: record %d has no company", ErrMalformed, i+1)
		}
		langs := make([]string, 0, len(records[i].Languages))
		for _, l := range records[i].Languages {
			if l = strings.TrimSpace(l); l != "" {
				langs = append(langs, l)
			}
		}
		records[i].Languages = langs
	}
	return records, nil
}
