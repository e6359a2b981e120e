package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrNoReports is returned by Latest when no run has been persisted yet.
var ErrNoReports = errors.New("pipeline: no run reports")

// Store persists run reports under the project state directory, one
// JSON file per run. Files are named run_<timestamp>_<id>.json so a
// plain directory sort yields chronological order.
type Store struct {
	dir string
	now func() time.Time
}

// StoreOption customizes a Store during construction.
type StoreOption func(*Store)

// WithStoreClock overrides the clock used for report filenames.
func WithStoreClock(clock func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = clock
	}
}

// NewStore builds a report store rooted at dir.
func NewStore(dir string, opts ...StoreOption) *Store {
	store := &Store{
		dir: dir,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Save writes the report to the state directory and returns the path.
func (s *Store) Save(report Report) (string, error) {
	if report.RunID == "" {
		return "", fmt.Errorf("pipeline: report has no run id")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("pipeline: create state dir: %w", err)
	}
	name := fmt.Sprintf("run_%s_%s.json", s.now().UTC().Format("20060102T150405"), report.RunID)
	path := filepath.Join(s.dir, name)
	encoded, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("pipeline: encode report %s: %w", report.RunID, err)
	}
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return "", fmt.Errorf("pipeline: write report %s: %w", report.RunID, err)
	}
	return path, nil
}

// Latest loads the most recently saved report.
func (s *Store) Latest() (Report, error) {
	names, err := s.reportNames()
	if err != nil {
		return Report{}, err
	}
	if len(names) == 0 {
		return Report{}, ErrNoReports
	}
	return s.load(names[len(names)-1])
}

// List loads every saved report, oldest first.
func (s *Store) List() ([]Report, error) {
	names, err := s.reportNames()
	if err != nil {
		return nil, err
	}
	reports := make([]Report, 0, len(names))
	for _, name := range names {
		report, err := s.load(name)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func (s *Store) reportNames() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("pipeline: read state dir: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, "run_") && strings.HasSuffix(name, ".json") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) load(name string) (Report, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return Report{}, fmt.Errorf("pipeline: read report %s: %w", name, err)
	}
	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return Report{}, fmt.Errorf("pipeline: parse report %s: %w", name, err)
	}
	return report, nil
}
