package storage

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"pastescraper/pkg/errors"
)

const (
	// FileExt is appended to every saved paste
	FileExt = ".txt"

	// UntitledStem names files whose title slugs to nothing
	UntitledStem = "untitled"

	maxNameAttempts = 100
)

// Manager writes pastes under <outputDir>/<authorSlug>/ without ever
// overwriting an existing file
type Manager struct {
	outputDir  string
	savedCount int
	now        func() time.Time
	mu         sync.Mutex
}

// NewManager creates a new storage manager
func NewManager(outputDir string) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, errors.Wrap(errors.ErrorTypeIO, err, "failed to create output directory")
	}

	return &Manager{
		outputDir: outputDir,
		now:       time.Now,
	}, nil
}

// SetClock replaces the clock used for collision suffixes
func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}

// Save writes parts, in order, to a new file named after stem in the
// author's directory and returns its path. When <stem>.txt is taken the
// name gets a "_<epochMillis>" suffix. On any write error the partial file
// is removed.
func (m *Manager) Save(authorSlug, stem string, parts ...string) (string, error) {
	dir := filepath.Join(m.outputDir, authorSlug)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrap(errors.ErrorTypeIO, err, "failed to create author directory")
	}

	if stem == "" {
		stem = UntitledStem
	}

	f, path, err := m.create(dir, stem)
	if err != nil {
		return "", err
	}

	if err := writeAll(f, parts); err != nil {
		f.Close()
		os.Remove(path)
		return "", errors.Wrap(errors.ErrorTypeIO, err, fmt.Sprintf("failed to write %s", path))
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", errors.Wrap(errors.ErrorTypeIO, err, fmt.Sprintf("failed to close %s", path))
	}

	m.mu.Lock()
	m.savedCount++
	m.mu.Unlock()

	return path, nil
}

// create exclusively opens the first free name for stem in dir
func (m *Manager) create(dir, stem string) (*os.File, string, error) {
	path := filepath.Join(dir, stem+FileExt)
	millis := m.now().UnixMilli()

	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_APPEND|os.O_WRONLY, 0644)
		if err == nil {
			return f, path, nil
		}
		if !stderrors.Is(err, fs.ErrExist) {
			return nil, "", errors.Wrap(errors.ErrorTypeIO, err, fmt.Sprintf("failed to create %s", path))
		}
		path = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, millis, FileExt))
		millis++
	}

	return nil, "", errors.New(errors.ErrorTypeIO, fmt.Sprintf("no free file name for %q in %s", stem, dir))
}

func writeAll(f *os.File, parts []string) error {
	for _, p := range parts {
		if _, err := f.WriteString(p); err != nil {
			return err
		}
	}
	return f.Sync()
}

// GetOutputDir returns the output directory path
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}

// GetSavedCount returns the number of files written by this manager
func (m *Manager) GetSavedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.savedCount
}
