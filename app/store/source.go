package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	log "github.com/go-pkgz/lgr"
	"gopkg.in/yaml.v3"
)

// readFile reads records from a local JSON or YAML file, format detected by extension
func readFile(path string) ([]JobRecord, error) {
	f, err := os.Open(path) // #nosec G304 - path comes from trusted config
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Printf("[WARN] failed to close file: %v", closeErr)
		}
	}()

	data, err := readLimited(f, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return decodeYAML(data)
	default:
		return decodeJSON(data)
	}
}

// readHTTP fetches JSON records from http/https URL
func (s *Store) readHTTP(ctx context.Context) ([]JobRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.source, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch jobs: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Printf("[WARN] failed to close response body: %v", closeErr)
		}
	}()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
	case resp.StatusCode >= 400 && resp.StatusCode < 500 &&
		resp.StatusCode != http.StatusRequestTimeout && resp.StatusCode != http.StatusTooManyRequests:
		// client errors won't go away on retry
		return nil, fmt.Errorf("%w: unexpected status code: %d", ErrMalformed, resp.StatusCode)
	default:
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	data, err := readLimited(resp.Body, s.source)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return decodeJSON(data)
}

// readLimited reads up to maxSourceSize bytes, larger sources rejected as malformed
func readLimited(r io.Reader, name string) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxSourceSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxSourceSize {
		return nil, fmt.Errorf("%w: source is larger than %s", ErrMalformed, humanize.IBytes(maxSourceSize))
	}
	log.Printf("[DEBUG] read %s from %s", humanize.IBytes(uint64(len(data))), name)
	return data, nil
}

func decodeJSON(data []byte) ([]JobRecord, error) {
	var records []JobRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: can't parse json: %v", ErrMalformed, err)
	}
	return validate(records)
}

func decodeYAML(data []byte) ([]JobRecord, error) {
	var records []JobRecord
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: can't parse yaml: %v", ErrMalformed, err)
	}
	return validate(records)
}
