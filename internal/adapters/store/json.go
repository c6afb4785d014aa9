package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/renameio/v2"

	"github.com/fenestra-io/configurator/internal/core"
)

// JSONStore keeps each saved configuration as one JSON file under a
// directory. Writes go through renameio so a crash mid-write never leaves a
// truncated file behind.
type JSONStore struct {
	dir string
	mu  sync.RWMutex
}

// NewJSONStore creates a JSON store rooted at dir.
func NewJSONStore(dir string) (*JSONStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	return &JSONStore{dir: dir}, nil
}

// Save persists a configuration under its name, replacing any previous one.
func (s *JSONStore) Save(_ context.Context, cfg *core.ExportedConfiguration) error {
	if err := validateName(cfg.Name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling configuration: %w", err)
	}
	if err := renameio.WriteFile(s.pathFor(cfg.Name), data, 0o644); err != nil {
		return fmt.Errorf("writing configuration file: %w", err)
	}
	return nil
}

// Load retrieves a configuration by name.
func (s *JSONStore) Load(_ context.Context, name string) (*core.ExportedConfiguration, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := s.readScoped(encodeName(name) + ".json")
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.ErrNotFound("saved configuration", name)
		}
		return nil, fmt.Errorf("reading configuration file: %w", err)
	}

	var cfg core.ExportedConfiguration
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, core.ErrState(core.CodeStoreCorrupted, fmt.Sprintf("saved configuration %q is not valid JSON", name)).WithCause(err)
	}
	return &cfg, nil
}

// List returns summaries of all saved configurations, newest first.
func (s *JSONStore) List(_ context.Context) ([]core.SavedSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading store directory: %w", err)
	}

	summaries := make([]core.SavedSummary, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := s.readScoped(entry.Name())
		if err != nil {
			continue
		}
		var cfg core.ExportedConfiguration
		if err := json.Unmarshal(data, &cfg); err != nil {
			// Unreadable entries are skipped, not fatal: one corrupted
			// file must not hide the rest of the catalog.
			continue
		}
		summaries = append(summaries, core.SavedSummary{
			Name:              cfg.Name,
			ModelCode:         cfg.ModelCode,
			CompatibilityHash: cfg.CompatibilityHash,
			Timestamp:         cfg.Timestamp,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Timestamp.After(summaries[j].Timestamp)
	})
	return summaries, nil
}

// Delete removes a saved configuration.
func (s *JSONStore) Delete(_ context.Context, name string) error {
	if err := validateName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.pathFor(name)); err != nil {
		if os.IsNotExist(err) {
			return core.ErrNotFound("saved configuration", name)
		}
		return fmt.Errorf("removing configuration file: %w", err)
	}
	return nil
}

// Close is a no-op for the JSON store.
func (s *JSONStore) Close() error { return nil }

// readScoped opens the store directory as a root before reading, so a crafted
// name can never resolve to a file outside it.
func (s *JSONStore) readScoped(base string) ([]byte, error) {
	root, err := os.OpenRoot(s.dir)
	if err != nil {
		return nil, err
	}
	defer root.Close()

	f, err := root.Open(base)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}

func (s *JSONStore) pathFor(name string) string {
	return filepath.Join(s.dir, encodeName(name)+".json")
}

// encodeName maps a configuration name to a safe file name.
func encodeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			fmt.Fprintf(&b, "%%%04x", r)
		}
	}
	return b.String()
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return core.ErrValidation(core.CodeInvalidConfig, "configuration name required")
	}
	return nil
}
