package stt

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/buddybotics/go-buddy/internal/httpc"
)

const modelBaseURL = "https://alphacephei.com/vosk/models/"

// Model describes one catalog entry.
type Model struct {
	Name     string `json:"name"`
	Lang     string `json:"lang"`
	Type     string `json:"type"`
	Obsolete string `json:"obsolete"`
	SizeText string `json:"size_text"`
}

// ModelStore manages local recognition models: catalog lookup, download
// with resume, and extraction into a model directory.
type ModelStore struct {
	dir     string
	baseURL string
	http    *http.Client
	logger  *slog.Logger

	mu          sync.Mutex
	catalog     []Model
	downloading bool
}

// ModelStoreOption configures a ModelStore.
type ModelStoreOption func(*ModelStore)

// WithModelLogger sets the structured logger.
func WithModelLogger(l *slog.Logger) ModelStoreOption {
	return func(s *ModelStore) { s.logger = l }
}

// WithModelBaseURL points the store at a catalog mirror.
func WithModelBaseURL(url string) ModelStoreOption {
	return func(s *ModelStore) {
		if !strings.HasSuffix(url, "/") {
			url += "/"
		}
		s.baseURL = url
	}
}

// NewModelStore creates a store rooted at dir, creating it if needed.
func NewModelStore(dir string, opts ...ModelStoreOption) (*ModelStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("stt: create model dir: %w", err)
	}
	s := &ModelStore{
		dir:     dir,
		baseURL: modelBaseURL,
		http:    httpc.NewClient(30 * time.Second),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "stt.models")
	return s, nil
}

// RefreshCatalog fetches the model catalog, keeping only small,
// non-obsolete models.
func (s *ModelStore) RefreshCatalog(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", s.baseURL+"model-list.json", nil)
	if err != nil {
		return fmt.Errorf("stt: catalog request: %w", err)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("stt: fetch catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stt: fetch catalog: status %d", resp.StatusCode)
	}

	var all []Model
	if err := json.NewDecoder(resp.Body).Decode(&all); err != nil {
		return fmt.Errorf("stt: decode catalog: %w", err)
	}

	var kept []Model
	for _, m := range all {
		if m.Type == "small" && m.Obsolete == "false" {
			kept = append(kept, m)
		}
	}

	s.mu.Lock()
	s.catalog = kept
	s.mu.Unlock()

	s.logger.Debug("catalog refreshed", "models", len(kept))
	return nil
}

// Models returns the cached catalog.
func (s *ModelStore) Models() []Model {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Model, len(s.catalog))
	copy(out, s.catalog)
	return out
}

// Lookup finds the catalog model for a language tag (e.g. "en-us").
func (s *ModelStore) Lookup(lang string) (Model, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.catalog {
		if m.Lang == lang {
			return m, nil
		}
	}
	return Model{}, fmt.Errorf("%w: %s", ErrModelNotFound, lang)
}

// Path returns the local directory a model extracts into.
func (s *ModelStore) Path(m Model) string {
	return filepath.Join(s.dir, m.Name)
}

// Downloaded reports whether a model is present locally.
func (s *ModelStore) Downloaded(m Model) bool {
	info, err := os.Stat(s.Path(m))
	return err == nil && info.IsDir()
}

// Ensure downloads and extracts a model unless it is already present.
// Cancellation via ctx keeps the partial zip on disk so a later call can
// resume where it left off.
func (s *ModelStore) Ensure(ctx context.Context, m Model) error {
	if s.Downloaded(m) {
		return nil
	}

	s.mu.Lock()
	if s.downloading {
		s.mu.Unlock()
		return fmt.Errorf("stt: download already in progress")
	}
	s.downloading = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.downloading = false
		s.mu.Unlock()
	}()

	zipURL := s.baseURL + m.Name + ".zip"
	zipPath := s.Path(m) + ".zip"

	const maxAttempts = 5
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := s.fetchZip(ctx, zipURL, zipPath)
		if err == nil {
			if err := extractZip(zipPath, s.dir); err != nil {
				return fmt.Errorf("stt: extract model: %w", err)
			}
			os.Remove(zipPath)
			s.logger.Info("model ready", "name", m.Name, "path", s.Path(m))
			return nil
		}
		if ctx.Err() != nil {
			s.logger.Info("download cancelled, partial kept", "path", zipPath)
			return ctx.Err()
		}

		lastErr = err
		s.logger.Warn("download attempt failed",
			"attempt", attempt,
			"max", maxAttempts,
			"error", err,
		)
		if attempt < maxAttempts {
			wait := time.Duration(1<<attempt) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
	}

	return fmt.Errorf("%w: %s: %v", ErrDownloadFailed, m.Name, lastErr)
}

// fetchZip downloads zipURL to zipPath, resuming from any existing
// partial file via a range request.
func (s *ModelStore) fetchZip(ctx context.Context, zipURL, zipPath string) error {
	var resumeFrom int64
	if info, err := os.Stat(zipPath); err == nil {
		resumeFrom = info.Size()
		s.logger.Info("resuming download", "from", resumeFrom)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", zipURL, nil)
	if err != nil {
		return err
	}
	if resumeFrom > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", resumeFrom))
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// Server ignored the range request. Start over.
		resumeFrom = 0
	case http.StatusPartialContent:
	case http.StatusRequestedRangeNotSatisfiable:
		// Partial file already covers the whole archive.
		return nil
	default:
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	flags := os.O_CREATE | os.O_WRONLY
	if resumeFrom > 0 {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(zipPath, flags, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	var total int64
	if resp.ContentLength > 0 {
		total = resp.ContentLength + resumeFrom
	}

	written, err := io.Copy(f, resp.Body)
	if err != nil {
		return err
	}

	if total > 0 && resumeFrom+written != total {
		return fmt.Errorf("incomplete: got %d of %d bytes", resumeFrom+written, total)
	}
	return nil
}

// extractZip unpacks archive into dir, rejecting entries that escape it.
func extractZip(archive, dir string) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, file := range r.File {
		target := filepath.Join(dir, file.Name)
		if !strings.HasPrefix(target, filepath.Clean(dir)+string(os.PathSeparator)) {
			return fmt.Errorf("illegal path in archive: %s", file.Name)
		}

		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		src, err := file.Open()
		if err != nil {
			return err
		}
		dst, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, file.Mode())
		if err != nil {
			src.Close()
			return err
		}
		_, err = io.Copy(dst, src)
		src.Close()
		dst.Close()
		if err != nil {
			return err
		}
	}
	return nil
}
